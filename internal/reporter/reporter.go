// Package reporter binds a trigger, an announcer and a channel into the
// unit that turns a signal stream into delivered reports.
package reporter

import (
	"go-report-pipeline/internal/channel"
	"go-report-pipeline/internal/draft"
	"go-report-pipeline/internal/trigger"
)

// Reporter is the atomic reporting unit. A Reporter and its parts are owned
// by the goroutine that calls Process.
type Reporter[S any] struct {
	trigger   trigger.Trigger[S]
	announcer draft.Announcer[S]
	channel   channel.Channel
}

// New composes a Reporter.
func New[S any](t trigger.Trigger[S], a draft.Announcer[S], c channel.Channel) *Reporter[S] {
	return &Reporter[S]{trigger: t, announcer: a, channel: c}
}

// Process tests sig and, when it triggers, prepares and sends the report.
// The announcer is acknowledged only if the channel delivered. The result
// is whether the trigger fired, not whether delivery succeeded.
func (r *Reporter[S]) Process(sig S) bool {
	if !r.trigger.Test(sig) {
		return false
	}
	publish(r.announcer, r.channel, sig)
	return true
}

func publish[S any](a draft.Announcer[S], c channel.Channel, sig S) bool {
	a.Prepare(sig)
	if !c.Send(a.Message()) {
		return false
	}
	a.Ack()
	return true
}

// Trigger returns the reporter's trigger.
func (r *Reporter[S]) Trigger() trigger.Trigger[S] { return r.trigger }

// Announcer returns the reporter's announcer.
func (r *Reporter[S]) Announcer() draft.Announcer[S] { return r.announcer }

// Channel returns the reporter's channel.
func (r *Reporter[S]) Channel() channel.Channel { return r.channel }

// Reset clears the trigger history if the trigger keeps any.
func (r *Reporter[S]) Reset() {
	if rs, ok := r.trigger.(trigger.Resetter); ok {
		rs.Reset()
	}
}
