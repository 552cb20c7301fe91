package cli

import (
	"encoding/json"
	"os"
	"os/signal"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"go-report-pipeline/internal/eventbus"
)

func newTailCmd() *cobra.Command {
	var (
		addr  string
		count int
	)
	cmd := &cobra.Command{
		Use:   "tail <topic>",
		Short: "Print reports published on a Redis topic as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			bus := eventbus.NewRedisBus(&redis.Options{Addr: addr}, newLogger(cmd.ErrOrStderr()))
			defer bus.Close()
			events, err := bus.Subscribe(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for seen := 0; count <= 0 || seen < count; seen++ {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					if err := enc.Encode(ev); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "redis", "localhost:6379", "redis address")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "exit after this many reports (0 = until interrupted)")
	return cmd
}
