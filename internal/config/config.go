// Package config describes newsroom desks in YAML: which beats watch the
// signal stream, how they write, and where each desk's output goes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Trigger kinds.
const (
	TriggerNever   = "never"
	TriggerAlways  = "always"
	TriggerChange  = "change"
	TriggerMatch   = "match"
	TriggerRising  = "rising"
	TriggerFalling = "falling"
	TriggerClose   = "close"
	TriggerFar     = "far"
	TriggerSimilar = "similar"
	TriggerDiffers = "differs"
)

// Saver kinds.
const (
	SaverPassthrough  = "passthrough"
	SaverFixed        = "fixed"
	SaverCounter      = "counter"
	SaverCounterReset = "counter-reset"
	SaverTime         = "time"
	SaverDate         = "date"
	SaverFloat        = "float"
)

// Channel kinds.
const (
	ChannelConsole = "console"
	ChannelFile    = "file"
	ChannelCSV     = "csv"
	ChannelRedis   = "redis"
	ChannelBoard   = "board"
	ChannelSQLite  = "sqlite"
)

// Announcer kinds.
const (
	AnnouncerPlain   = "announcement"
	AnnouncerComment = "commentary"
	AnnouncerRunning = "running"
)

// Roster kinds.
const (
	RosterDense  = "dense"
	RosterStable = "stable"
)

// Example is a starter configuration written by `newsdesk init`.
const Example = `# newsdesk configuration
desks:
  - name: pilot
    # Every beat's output is rolled into one CSV row when a loud beat fires.
    roundup: true
    leader: Trial
    channel:
      kind: csv
      path: pilot.csv
      header: [Trial, Count, Stamp]
    beats:
      - name: count
        trigger: {kind: rising}
        saver: {kind: counter, start: 1}
        announcer: running
        quiet: true
      - name: stamp
        trigger: {kind: falling}
        saver: {kind: date}
        announcer: running

  - name: log
    channel: {kind: console, terminator: "\n"}
    beats:
      - name: level
        trigger: {kind: differs, tau: 5}
        saver: {kind: float, format: "%.2f"}
`

// Config is the top-level document.
type Config struct {
	Desks []Desk `yaml:"desks"`
}

// Desk is one editor with its beats and terminal channel.
type Desk struct {
	Name    string  `yaml:"name"`
	Channel Channel `yaml:"channel"`
	Roster  string  `yaml:"roster,omitempty"`
	// Roundup makes every forwarding beat publish the whole desk as one row.
	Roundup bool `yaml:"roundup,omitempty"`
	// Leader heads the first running beat's output.
	Leader string `yaml:"leader,omitempty"`
	Beats  []Beat `yaml:"beats"`
}

// Channel selects and configures the desk's sink.
type Channel struct {
	Kind       string        `yaml:"kind"`
	Path       string        `yaml:"path,omitempty"`
	Append     bool          `yaml:"append,omitempty"`
	Terminator *string       `yaml:"terminator,omitempty"`
	Header     []string      `yaml:"header,omitempty"`
	Runner     string        `yaml:"runner,omitempty"`
	Addr       string        `yaml:"addr,omitempty"`
	Topic      string        `yaml:"topic,omitempty"`
	Key        string        `yaml:"key,omitempty"`
	TTL        time.Duration `yaml:"ttl,omitempty"`
	Table      string        `yaml:"table,omitempty"`
}

// Beat describes one beat reporter.
type Beat struct {
	Name      string  `yaml:"name"`
	Trigger   Trigger `yaml:"trigger"`
	Saver     Saver   `yaml:"saver,omitempty"`
	Announcer string  `yaml:"announcer,omitempty"`
	Quiet     bool    `yaml:"quiet,omitempty"`
	Paused    bool    `yaml:"paused,omitempty"`
}

// Trigger parameters. Target and Tau apply to the kinds that compare
// against a value; Init seeds edge triggers. Window makes a distance
// trigger compare the last Window signals as one vector.
type Trigger struct {
	Kind   string   `yaml:"kind"`
	Target *float64 `yaml:"target,omitempty"`
	Tau    float64  `yaml:"tau,omitempty"`
	Init   *bool    `yaml:"init,omitempty"`
	Window int      `yaml:"window,omitempty"`
}

// Saver parameters. Counter names a counter shared by every saver on the
// desk that uses the same name.
type Saver struct {
	Kind    string `yaml:"kind,omitempty"`
	Text    string `yaml:"text,omitempty"`
	Start   int    `yaml:"start,omitempty"`
	Format  string `yaml:"format,omitempty"`
	Counter string `yaml:"counter,omitempty"`
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Config{}, errors.New("config: document is empty")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read parses a configuration from r.
func Read(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("config: read: %w", err)
	}
	return Parse(data)
}

// Load parses the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	for i := range c.Desks {
		d := &c.Desks[i]
		d.Name = strings.TrimSpace(d.Name)
		if d.Roster == "" {
			d.Roster = RosterDense
		}
		if d.Channel.Kind == "" {
			d.Channel.Kind = ChannelConsole
		}
		if d.Channel.Terminator == nil {
			nl := "\n"
			d.Channel.Terminator = &nl
		}
		for j := range d.Beats {
			b := &d.Beats[j]
			b.Name = strings.TrimSpace(b.Name)
			if b.Announcer == "" {
				b.Announcer = AnnouncerComment
			}
			if b.Saver.Kind == "" {
				b.Saver.Kind = SaverPassthrough
			}
		}
	}
}

// Validate reports every problem it finds, joined.
func (c Config) Validate() error {
	var errs []error
	if len(c.Desks) == 0 {
		errs = append(errs, errors.New("config: no desks defined"))
	}
	seen := make(map[string]bool, len(c.Desks))
	for i, d := range c.Desks {
		where := fmt.Sprintf("desk %d", i)
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("config: %s: name is required", where))
		} else {
			where = fmt.Sprintf("desk %q", d.Name)
			if seen[d.Name] {
				errs = append(errs, fmt.Errorf("config: %s: duplicate name", where))
			}
			seen[d.Name] = true
		}
		if err := d.Channel.validate(); err != nil {
			errs = append(errs, fmt.Errorf("config: %s: %w", where, err))
		}
		switch d.Roster {
		case RosterDense, RosterStable:
		default:
			errs = append(errs, fmt.Errorf("config: %s: unknown roster %q", where, d.Roster))
		}
		beatNames := make(map[string]bool, len(d.Beats))
		for j, b := range d.Beats {
			bwhere := fmt.Sprintf("beat %d", j)
			if b.Name != "" {
				bwhere = fmt.Sprintf("beat %q", b.Name)
				if beatNames[b.Name] {
					errs = append(errs, fmt.Errorf("config: %s: %s: duplicate name", where, bwhere))
				}
				beatNames[b.Name] = true
			}
			if err := b.validate(); err != nil {
				errs = append(errs, fmt.Errorf("config: %s: %s: %w", where, bwhere, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (ch Channel) validate() error {
	switch ch.Kind {
	case ChannelConsole:
		return nil
	case ChannelFile, ChannelCSV:
		if ch.Path == "" {
			return fmt.Errorf("%s channel needs a path", ch.Kind)
		}
	case ChannelRedis:
		if ch.Addr == "" || ch.Topic == "" {
			return errors.New("redis channel needs addr and topic")
		}
	case ChannelBoard:
		if ch.Addr == "" || ch.Key == "" {
			return errors.New("board channel needs addr and key")
		}
		if ch.TTL < 0 {
			return errors.New("board channel ttl must not be negative")
		}
	case ChannelSQLite:
		if ch.Path == "" || ch.Table == "" {
			return errors.New("sqlite channel needs path and table")
		}
	default:
		return fmt.Errorf("unknown channel kind %q", ch.Kind)
	}
	return nil
}

func (b Beat) validate() error {
	switch b.Trigger.Kind {
	case TriggerNever, TriggerAlways, TriggerChange, TriggerRising, TriggerFalling:
	case TriggerMatch, TriggerClose, TriggerFar:
		if b.Trigger.Target == nil {
			return fmt.Errorf("%s trigger needs a target", b.Trigger.Kind)
		}
	case TriggerSimilar, TriggerDiffers:
	case "":
		return errors.New("trigger kind is required")
	default:
		return fmt.Errorf("unknown trigger kind %q", b.Trigger.Kind)
	}
	if b.Trigger.Tau < 0 {
		return errors.New("trigger tau must not be negative")
	}
	switch {
	case b.Trigger.Window < 0:
		return errors.New("trigger window must not be negative")
	case b.Trigger.Window > 0 && !distanceKind(b.Trigger.Kind):
		return fmt.Errorf("%s trigger does not take a window", b.Trigger.Kind)
	}
	switch b.Saver.Kind {
	case SaverPassthrough, SaverFixed, SaverCounter, SaverTime, SaverDate:
	case SaverCounterReset:
		if b.Saver.Counter == "" {
			return errors.New("counter-reset saver needs a counter name")
		}
	case SaverFloat:
		if b.Saver.Format != "" && !strings.Contains(b.Saver.Format, "%") {
			return fmt.Errorf("float saver format %q has no verb", b.Saver.Format)
		}
	default:
		return fmt.Errorf("unknown saver kind %q", b.Saver.Kind)
	}
	switch b.Announcer {
	case AnnouncerPlain, AnnouncerComment, AnnouncerRunning:
	default:
		return fmt.Errorf("unknown announcer %q", b.Announcer)
	}
	return nil
}

func distanceKind(kind string) bool {
	switch kind {
	case TriggerClose, TriggerFar, TriggerSimilar, TriggerDiffers:
		return true
	}
	return false
}
