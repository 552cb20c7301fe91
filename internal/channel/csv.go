package channel

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"
)

// CSVOptions configures a CSV channel.
type CSVOptions struct {
	// Append keeps existing file contents instead of truncating.
	Append bool
	// Header, when set, is written once at construction.
	Header []string
	// Runner, when set, is prepended to every data row.
	Runner any
}

// CSV writes one row per send.
type CSV struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	logger *log.Logger

	runner    any
	hasRunner bool
	closed    bool
}

// NewCSV opens path and returns a CSV channel that owns the file.
func NewCSV(path string, opts CSVOptions, logger *log.Logger) (*CSV, error) {
	f, err := openSink(path, opts.Append)
	if err != nil {
		return nil, err
	}
	c := newCSV(f, f, opts, logger)
	if len(opts.Header) > 0 && !c.SendHeader(opts.Header) {
		_ = f.Close()
		return nil, fmt.Errorf("channel: write csv header to %s", path)
	}
	return c, nil
}

// NewCSVWriter writes rows to w. The caller keeps ownership of w.
func NewCSVWriter(w io.Writer, opts CSVOptions, logger *log.Logger) *CSV {
	c := newCSV(w, nil, opts, logger)
	if len(opts.Header) > 0 {
		c.SendHeader(opts.Header)
	}
	return c
}

func newCSV(w io.Writer, closer io.Closer, opts CSVOptions, logger *log.Logger) *CSV {
	if logger == nil {
		logger = log.Default()
	}
	c := &CSV{w: csv.NewWriter(w), closer: closer, logger: logger}
	if opts.Runner != nil {
		c.runner, c.hasRunner = opts.Runner, true
	}
	return c
}

// SetRunner sets the leading column written before every data row.
func (c *CSV) SetRunner(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runner, c.hasRunner = v, true
}

// ClearRunner stops prepending a runner column.
func (c *CSV) ClearRunner() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runner, c.hasRunner = nil, false
}

// SendHeader writes a header row verbatim, without the runner column.
func (c *CSV) SendHeader(header []string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(header)
}

// Send writes the payload as a row. A nil payload writes nothing and is
// reported as not delivered.
func (c *CSV) Send(payload any) bool {
	if payload == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	row := Cells(payload)
	if c.hasRunner {
		row = append([]string{cell(c.runner)}, row...)
	}
	return c.writeLocked(row)
}

func (c *CSV) writeLocked(row []string) bool {
	if c.closed {
		return false
	}
	if c.closer != nil {
		defer closeOnPanic(closerFunc(c.closeLocked))
	}
	if err := c.w.Write(row); err != nil {
		c.logger.Println("channel: csv write", err)
		return false
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.logger.Println("channel: csv flush", err)
		return false
	}
	return true
}

// Close flushes pending rows and releases an owned file.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *CSV) closeLocked() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.w.Flush()
	if c.closer == nil {
		return c.w.Error()
	}
	return c.closer.Close()
}

// Cells flattens a payload into CSV cells. Sequences become one cell per
// element; anything else is a single cell.
func Cells(payload any) []string {
	switch p := payload.(type) {
	case []string:
		return append([]string(nil), p...)
	case []any:
		row := make([]string, len(p))
		for i, v := range p {
			row[i] = cell(v)
		}
		return row
	case []float64:
		row := make([]string, len(p))
		for i, v := range p {
			row[i] = cell(v)
		}
		return row
	case []int:
		row := make([]string, len(p))
		for i, v := range p {
			row[i] = strconv.Itoa(v)
		}
		return row
	default:
		return []string{cell(p)}
	}
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	default:
		return text(x)
	}
}

var (
	_ Channel   = (*CSV)(nil)
	_ io.Closer = (*CSV)(nil)
)
