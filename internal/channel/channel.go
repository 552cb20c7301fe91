// Package channel delivers payloads to a sink and reports whether the
// delivery happened. A false result is an expected outcome, never a panic:
// the caller simply skips acknowledging the payload.
package channel

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Channel is a delivery sink.
type Channel interface {
	Send(payload any) bool
}

// Console writes each payload as text followed by a terminator.
type Console struct {
	w          io.Writer
	terminator string
	logger     *log.Logger
}

// NewConsole writes to w. An empty terminator is allowed and joins payloads
// back to back.
func NewConsole(w io.Writer, terminator string, logger *log.Logger) *Console {
	if logger == nil {
		logger = log.Default()
	}
	return &Console{w: w, terminator: terminator, logger: logger}
}

// Stdout is a newline-terminated console on os.Stdout.
func Stdout() *Console { return NewConsole(os.Stdout, "\n", nil) }

// ForEditors is a console that separates payloads with a space, so one
// editor row spans several beat outputs on a single line.
func ForEditors(w io.Writer) *Console { return NewConsole(w, " ", nil) }

func (c *Console) Send(payload any) bool {
	if _, err := io.WriteString(c.w, text(payload)+c.terminator); err != nil {
		c.logger.Println("channel: console write", err)
		return false
	}
	return true
}

// text renders a payload for line-oriented sinks.
func text(payload any) string {
	switch p := payload.(type) {
	case nil:
		return ""
	case string:
		return p
	case []byte:
		return string(p)
	case fmt.Stringer:
		return p.String()
	default:
		return fmt.Sprint(p)
	}
}

// closeOnPanic releases c if the surrounding call panics, then re-panics.
// It must be deferred directly.
func closeOnPanic(c io.Closer) {
	if r := recover(); r != nil {
		_ = c.Close()
		panic(r)
	}
}

var _ Channel = (*Console)(nil)
