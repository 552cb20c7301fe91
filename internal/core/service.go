package core

import "context"

// Handler consumes events delivered from a bus subscription.
type Handler interface {
	HandleEvent(event Event) error
}

// Service is a long-lived component with an explicit lifecycle that can
// also be driven by bus events.
type Service interface {
	ID() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Handler
}
