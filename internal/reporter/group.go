package reporter

import (
	"log"

	"go-report-pipeline/internal/draft"
	"go-report-pipeline/internal/trigger"
)

// GroupOptions tunes the beats built by the group builders. Every slice
// is either nil or exactly as long as the trigger list.
type GroupOptions[S any] struct {
	// KeepQuiet marks beats that only accumulate.
	KeepQuiet []bool
	// Filters are applied between trigger and announcer; nil entries skip.
	Filters []func(S) S
	// Names label the beats; empty entries stay unnamed.
	Names []string
	// Leader heads the first beat's running commentary.
	Leader any
	// Render is shared by every announcer in the group.
	Render func(any) any
	Logger *log.Logger
}

// BuildGroupWithCommentary builds one Commentary beat per trigger. A nil
// saver entry means passthrough. It returns nil when list lengths differ.
func BuildGroupWithCommentary[S any](triggers []trigger.Trigger[S], savers []func(S) any, opts GroupOptions[S]) []*BeatReporter[S] {
	return buildGroup(triggers, savers, opts, func(i int, save func(S) any) draft.Announcer[S] {
		return draft.NewCommentary(save, opts.Render)
	})
}

// BuildGroupWithRunningCommentary builds one RunningCommentary beat per
// trigger. The group leader, if set, goes on the first beat only so the
// rolled-up row carries it once.
func BuildGroupWithRunningCommentary[S any](triggers []trigger.Trigger[S], savers []func(S) any, opts GroupOptions[S]) []*BeatReporter[S] {
	return buildGroup(triggers, savers, opts, func(i int, save func(S) any) draft.Announcer[S] {
		rc := draft.NewRunningCommentary(save, opts.Render)
		if i == 0 && opts.Leader != nil {
			rc.WithLeader(opts.Leader)
		}
		return rc
	})
}

func buildGroup[S any](triggers []trigger.Trigger[S], savers []func(S) any, opts GroupOptions[S], announcer func(int, func(S) any) draft.Announcer[S]) []*BeatReporter[S] {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	n := len(triggers)
	if savers != nil && len(savers) != n {
		logger.Printf("reporter: group has %d triggers but %d savers", n, len(savers))
		return nil
	}
	if opts.KeepQuiet != nil && len(opts.KeepQuiet) != n {
		logger.Printf("reporter: group has %d triggers but %d quiet flags", n, len(opts.KeepQuiet))
		return nil
	}
	if opts.Filters != nil && len(opts.Filters) != n {
		logger.Printf("reporter: group has %d triggers but %d filters", n, len(opts.Filters))
		return nil
	}
	if opts.Names != nil && len(opts.Names) != n {
		logger.Printf("reporter: group has %d triggers but %d names", n, len(opts.Names))
		return nil
	}

	beats := make([]*BeatReporter[S], n)
	for i, t := range triggers {
		var save func(S) any
		if savers != nil {
			save = savers[i]
		}
		quiet := opts.KeepQuiet != nil && opts.KeepQuiet[i]
		b := NewBeatReporter(t, announcer(i, save), quiet)
		if opts.Filters != nil {
			b.WithFilter(opts.Filters[i])
		}
		if opts.Names != nil {
			b.WithName(opts.Names[i])
		}
		beats[i] = b
	}
	return beats
}
