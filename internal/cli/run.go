package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"go-report-pipeline/internal/config"
	"go-report-pipeline/internal/eventbus"
	"go-report-pipeline/internal/newsroom"
)

type runOptions struct {
	config string
	input  string
	runner string
	redis  string
	listen string
	stats  bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Feed signals to the configured desks",
		Long: `Read signals as "value" or "target,value" lines from --input (stdin
by default) and feed them to every desk. A target is a desk name or
desk.beat. With --listen, signals arrive as events on a Redis topic
instead, the event source naming the target.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDesks(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.config, "config", "c", defaultConfig, "desk configuration file")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "signal file, - for stdin")
	cmd.Flags().StringVar(&opts.runner, "runner", "", "leading CSV/SQLite column (default: a fresh run ID)")
	cmd.Flags().StringVar(&opts.redis, "redis", "localhost:6379", "redis address for --listen")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "redis topic to read signals from")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print per-desk delivery counters when done")
	return cmd
}

func runDesks(cmd *cobra.Command, opts runOptions) error {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr())

	runID := uuid.NewString()
	runner := opts.runner
	if runner == "" {
		runner = runID
	}
	room := newsroom.New(runID, cfg, newsroom.Builder{
		Logger: logger,
		Stdout: cmd.OutOrStdout(),
		Runner: runner,
	}, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := room.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if opts.stats {
			printStats(cmd.ErrOrStderr(), room)
		}
		if err := room.Stop(context.Background()); err != nil {
			logger.Println(err)
		}
	}()

	if opts.listen != "" {
		bus := eventbus.NewRedisBus(&redis.Options{Addr: opts.redis}, logger)
		defer bus.Close()
		err := room.Listen(ctx, bus, opts.listen)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	in, closeIn, err := openInput(cmd, opts.input)
	if err != nil {
		return err
	}
	defer closeIn()
	fed, err := room.Pump(ctx, in)
	logger.Printf("fed %d signals", fed)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func printStats(w io.Writer, room *newsroom.Newsroom) {
	for _, name := range room.DeskNames() {
		d, ok := room.Desk(name)
		if !ok {
			continue
		}
		s := d.Editor().Stats()
		fmt.Fprintf(w, "%s: beats=%d received=%d forwarded=%d ignored=%d undelivered=%d\n",
			name, s.Beats, s.Received, s.Forwarded, s.Ignored, s.Undelivered)
	}
}
