package newsroom

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go-report-pipeline/internal/eventbus"
)

// ParseLine reads one input line of the form "value" or "target,value".
// Blank lines and lines starting with '#' report ok false.
func ParseLine(line string) (target string, value float64, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", 0, false, nil
	}
	raw := line
	if t, v, found := strings.Cut(line, ","); found {
		target, raw = strings.TrimSpace(t), strings.TrimSpace(v)
	}
	value, err = parseValue(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("newsroom: line %q: %w", line, err)
	}
	return target, value, true, nil
}

func parseValue(s string) (float64, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return 0, fmt.Errorf("not a number or boolean: %q", s)
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

// SignalValue converts a decoded event payload into a signal value.
func SignalValue(payload any) (float64, error) {
	switch p := payload.(type) {
	case float64:
		return p, nil
	case int:
		return float64(p), nil
	case int64:
		return float64(p), nil
	case bool:
		if p {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		return p.Float64()
	case string:
		return parseValue(strings.TrimSpace(p))
	default:
		return 0, fmt.Errorf("unsupported signal payload %T", payload)
	}
}

// Pump feeds every line of r to the newsroom until EOF or ctx is done.
// Malformed lines and unknown targets are logged and skipped. It returns
// the number of lines fed.
func (n *Newsroom) Pump(ctx context.Context, r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	fed := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return fed, err
		}
		target, value, ok, err := ParseLine(sc.Text())
		if err != nil {
			n.logger.Println(err)
			continue
		}
		if !ok {
			continue
		}
		if _, err := n.Feed(target, value); err != nil {
			n.logger.Println(err)
			continue
		}
		fed++
	}
	if err := sc.Err(); err != nil {
		return fed, fmt.Errorf("newsroom: read input: %w", err)
	}
	return fed, nil
}

// Listen feeds every event published on topic until ctx is done or the
// subscription closes. Events that cannot be fed are logged and skipped.
func (n *Newsroom) Listen(ctx context.Context, bus eventbus.Bus, topic string) error {
	events, err := bus.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("newsroom: subscribe %s: %w", topic, err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := n.HandleEvent(ev); err != nil {
				n.logger.Println(err)
			}
		}
	}
}
