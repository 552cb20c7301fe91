package channel

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// File appends text payloads to a file opened at construction.
type File struct {
	mu         sync.Mutex
	f          *os.File
	terminator string
	logger     *log.Logger
	closed     bool
}

// NewFile opens path for writing. With appendMode false the file is
// truncated. Failing to open is fatal for the channel and returned as is.
func NewFile(path string, appendMode bool, terminator string, logger *log.Logger) (*File, error) {
	f, err := openSink(path, appendMode)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &File{f: f, terminator: terminator, logger: logger}, nil
}

func openSink(path string, appendMode bool) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("channel: open %s: %w", path, err)
	}
	return f, nil
}

// Name returns the path of the underlying file.
func (c *File) Name() string { return c.f.Name() }

func (c *File) Send(payload any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	defer closeOnPanic(closerFunc(c.closeLocked))

	if _, err := io.WriteString(c.f, text(payload)+c.terminator); err != nil {
		c.logger.Println("channel: file write", err)
		return false
	}
	return true
}

// Close releases the file. Calling it more than once is harmless.
func (c *File) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *File) closeLocked() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.f.Close()
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var (
	_ Channel   = (*File)(nil)
	_ io.Closer = (*File)(nil)
)
