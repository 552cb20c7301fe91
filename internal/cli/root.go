// Package cli provides the command-line interface for newsdesk.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfig = "newsdesk.yaml"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "newsdesk",
		Short: "newsdesk - turn signal streams into reports",
		Long: `newsdesk runs the desks described in a YAML file. Each desk watches
a stream of numeric signals with a set of beats and files what they
report to a console, file, CSV, SQLite table or Redis.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newTailCmd())
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "newsdesk: ", log.LstdFlags)
}
