package core

import "time"

// Payload is whatever an announcer hands to a channel. Nil means there is
// nothing to deliver.
type Payload = any

// Event wraps a delivered payload when it leaves the process, e.g. on the
// Redis bus or the report board.
type Event struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Payload   `json:"payload"`
}
