package newsroom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
	"gonum.org/v1/gonum/floats"

	"go-report-pipeline/internal/board"
	"go-report-pipeline/internal/channel"
	"go-report-pipeline/internal/config"
	"go-report-pipeline/internal/core"
	"go-report-pipeline/internal/draft"
	"go-report-pipeline/internal/editor"
	"go-report-pipeline/internal/eventbus"
	"go-report-pipeline/internal/reporter"
	"go-report-pipeline/internal/trigger"
)

// Desk is a named editor together with the beats that file to it. Signals
// are plain numbers; edge triggers read any nonzero value as true.
type Desk struct {
	name    string
	editor  *editor.Editor
	beats   []*reporter.BeatReporter[float64]
	byName  map[string]*reporter.BeatReporter[float64]
	closers []io.Closer
}

// Name returns the desk name.
func (d *Desk) Name() string { return d.name }

// Editor returns the desk's editor.
func (d *Desk) Editor() *editor.Editor { return d.editor }

// Beats returns the beats in configuration order.
func (d *Desk) Beats() []*reporter.BeatReporter[float64] {
	return append([]*reporter.BeatReporter[float64](nil), d.beats...)
}

// Beat looks a beat up by name.
func (d *Desk) Beat(name string) (*reporter.BeatReporter[float64], bool) {
	b, ok := d.byName[name]
	return b, ok
}

// Feed hands value to every beat in order and returns how many fired.
func (d *Desk) Feed(value float64) int {
	fired := 0
	for _, b := range d.beats {
		if b.Process(value) {
			fired++
		}
	}
	return fired
}

// Close releases the editor's channel and any connections the desk opened.
func (d *Desk) Close() error {
	errs := []error{d.editor.Close()}
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Builder turns desk configuration into live desks.
type Builder struct {
	Logger *log.Logger
	// Clock stamps time and date savers.
	Clock core.Clock
	// Stdout receives console channel output.
	Stdout io.Writer
	// Runner is the default leading column for CSV and SQLite channels
	// whose configuration names none.
	Runner any
}

// Create builds the desk described by cfg, opening its channel.
func (b Builder) Create(ctx context.Context, cfg config.Desk) (*Desk, error) {
	logger := b.Logger
	if logger == nil {
		logger = log.Default()
	}
	sink, closers, err := b.openChannel(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("newsroom: desk %s: %w", cfg.Name, err)
	}

	var opts []editor.Option
	if cfg.Roster == config.RosterStable {
		opts = append(opts, editor.WithRoster(&editor.StableRoster{}))
	}
	d := &Desk{
		name:    cfg.Name,
		editor:  editor.New(sink, logger, opts...),
		byName:  make(map[string]*reporter.BeatReporter[float64], len(cfg.Beats)),
		closers: closers,
	}

	beats, err := b.beats(cfg, logger)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("newsroom: desk %s: %w", cfg.Name, err)
	}

	var roundup editor.Revisor
	if cfg.Roundup {
		roundup = editor.Roundup(d.editor)
	}
	for i, beat := range beats {
		if _, err := beat.AssignToEditor(d.editor, roundup, nil); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("newsroom: desk %s: %w", cfg.Name, err)
		}
		if cfg.Beats[i].Paused {
			beat.Pause()
		}
		if name := beat.Name(); name != "" {
			d.byName[name] = beat
		}
	}
	d.beats = beats
	return d, nil
}

func (b Builder) beats(cfg config.Desk, logger *log.Logger) ([]*reporter.BeatReporter[float64], error) {
	n := len(cfg.Beats)
	triggers := make([]trigger.Trigger[float64], n)
	savers := make([]func(float64) any, n)
	quiet := make([]bool, n)
	names := make([]string, n)
	counters := make(map[string]*draft.Counter)

	uniform := ""
	for i, bc := range cfg.Beats {
		t, err := buildTrigger(bc.Trigger)
		if err != nil {
			return nil, fmt.Errorf("beat %d: %w", i, err)
		}
		s, err := b.buildSaver(bc.Saver, counters)
		if err != nil {
			return nil, fmt.Errorf("beat %d: %w", i, err)
		}
		triggers[i], savers[i], quiet[i], names[i] = t, s, bc.Quiet, bc.Name
		switch {
		case i == 0:
			uniform = bc.Announcer
		case uniform != bc.Announcer:
			uniform = ""
		}
	}

	opts := reporter.GroupOptions[float64]{KeepQuiet: quiet, Names: names, Logger: logger}
	if cfg.Leader != "" {
		opts.Leader = cfg.Leader
	}
	switch uniform {
	case config.AnnouncerRunning:
		return reporter.BuildGroupWithRunningCommentary(triggers, savers, opts), nil
	case config.AnnouncerComment:
		return reporter.BuildGroupWithCommentary(triggers, savers, opts), nil
	}

	beats := make([]*reporter.BeatReporter[float64], n)
	led := false
	for i, bc := range cfg.Beats {
		var a draft.Announcer[float64]
		switch bc.Announcer {
		case config.AnnouncerPlain:
			a = draft.NewAnnouncement(savers[i])
		case config.AnnouncerRunning:
			rc := draft.NewRunningCommentary(savers[i], nil)
			if !led && opts.Leader != nil {
				rc.WithLeader(opts.Leader)
				led = true
			}
			a = rc
		default:
			a = draft.NewCommentary(savers[i], nil)
		}
		beats[i] = reporter.NewBeatReporter(triggers[i], a, quiet[i]).WithName(names[i])
	}
	return beats, nil
}

func buildTrigger(tc config.Trigger) (trigger.Trigger[float64], error) {
	dist := trigger.ScalarDist[float64]
	var edge []trigger.EdgeOption
	if tc.Init != nil {
		edge = append(edge, trigger.WithInitial(*tc.Init))
	}
	target := func() float64 {
		if tc.Target == nil {
			return 0
		}
		return *tc.Target
	}
	if tc.Window > 0 {
		return buildWindowed(tc, target())
	}
	switch tc.Kind {
	case config.TriggerNever:
		return trigger.Never[float64]{}, nil
	case config.TriggerAlways:
		return trigger.Always[float64]{}, nil
	case config.TriggerChange:
		return trigger.OnChange[float64](), nil
	case config.TriggerMatch:
		return trigger.OnMatch(target()), nil
	case config.TriggerRising:
		return trigger.Rising(trigger.Nonzero[float64], edge...), nil
	case config.TriggerFalling:
		return trigger.Falling(trigger.Nonzero[float64], edge...), nil
	case config.TriggerClose:
		return trigger.WhenClose(target(), tc.Tau, dist), nil
	case config.TriggerFar:
		return trigger.WhenFar(target(), tc.Tau, dist), nil
	case config.TriggerSimilar:
		return trigger.WhenSimilar(tc.Tau, dist), nil
	case config.TriggerDiffers:
		return trigger.WhenDiffers(tc.Tau, dist), nil
	default:
		return nil, fmt.Errorf("unknown trigger kind %q", tc.Kind)
	}
}

// buildWindowed compares the last tc.Window signals as a vector. Close and
// far measure against the target repeated across the window.
func buildWindowed(tc config.Trigger, target float64) (trigger.Trigger[float64], error) {
	ref := make([]float64, tc.Window)
	floats.AddConst(target, ref)
	var inner trigger.Trigger[[]float64]
	switch tc.Kind {
	case config.TriggerClose:
		inner = trigger.WhenClose(ref, tc.Tau, trigger.VectorDist)
	case config.TriggerFar:
		inner = trigger.WhenFar(ref, tc.Tau, trigger.VectorDist)
	case config.TriggerSimilar:
		inner = trigger.WhenSimilar(tc.Tau, trigger.VectorDist)
	case config.TriggerDiffers:
		inner = trigger.WhenDiffers(tc.Tau, trigger.VectorDist)
	default:
		return nil, fmt.Errorf("%s trigger does not take a window", tc.Kind)
	}
	return trigger.Windowed[float64](tc.Window, inner), nil
}

func (b Builder) buildSaver(sc config.Saver, counters map[string]*draft.Counter) (func(float64) any, error) {
	counter := func() *draft.Counter {
		if sc.Counter == "" {
			return draft.NewCounter(sc.Start)
		}
		c, ok := counters[sc.Counter]
		if !ok {
			c = draft.NewCounter(sc.Start)
			counters[sc.Counter] = c
		}
		return c
	}
	switch sc.Kind {
	case "", config.SaverPassthrough:
		return draft.Passthrough[float64], nil
	case config.SaverFixed:
		return draft.Fixed[float64](sc.Text), nil
	case config.SaverCounter:
		return draft.Count[float64](counter()), nil
	case config.SaverCounterReset:
		return draft.CountReset[float64](counter()), nil
	case config.SaverTime:
		return draft.TimeOf[float64](b.Clock), nil
	case config.SaverDate:
		return draft.DateOf[float64](b.Clock), nil
	case config.SaverFloat:
		format := sc.Format
		if format == "" {
			format = "%g"
		}
		return draft.FormatFloat[float64](format), nil
	default:
		return nil, fmt.Errorf("unknown saver kind %q", sc.Kind)
	}
}

func (b Builder) openChannel(ctx context.Context, cfg config.Desk, logger *log.Logger) (channel.Channel, []io.Closer, error) {
	ch := cfg.Channel
	terminator := "\n"
	if ch.Terminator != nil {
		terminator = *ch.Terminator
	}
	var runner any
	if ch.Runner != "" {
		runner = ch.Runner
	} else if b.Runner != nil {
		runner = b.Runner
	}

	switch ch.Kind {
	case "", config.ChannelConsole:
		w := b.Stdout
		if w == nil {
			w = os.Stdout
		}
		return channel.NewConsole(w, terminator, logger), nil, nil
	case config.ChannelFile:
		f, err := channel.NewFile(ch.Path, ch.Append, terminator, logger)
		return f, nil, err
	case config.ChannelCSV:
		c, err := channel.NewCSV(ch.Path, channel.CSVOptions{Append: ch.Append, Header: ch.Header, Runner: runner}, logger)
		return c, nil, err
	case config.ChannelRedis:
		bus := eventbus.NewRedisBus(&redis.Options{Addr: ch.Addr}, logger)
		return channel.NewBus(ctx, bus, ch.Topic, cfg.Name, logger), []io.Closer{bus}, nil
	case config.ChannelBoard:
		store := board.NewRedisStore(&redis.Options{Addr: ch.Addr}, logger)
		return channel.NewBoard(ctx, store, ch.Key, ch.TTL, logger), []io.Closer{store}, nil
	case config.ChannelSQLite:
		t, err := channel.OpenTable(ctx, ch.Path, ch.Table, logger)
		if err != nil {
			return nil, nil, err
		}
		if runner != nil {
			t.SetRunner(runner)
		}
		return t, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown channel kind %q", ch.Kind)
	}
}
