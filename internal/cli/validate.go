package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go-report-pipeline/internal/config"
)

func newValidateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a desk configuration without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			beats := 0
			for _, d := range cfg.Desks {
				beats += len(d.Beats)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d desks, %d beats\n", path, len(cfg.Desks), beats)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", defaultConfig, "desk configuration file")
	return cmd
}

func newInitCmd() *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter desk configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := os.WriteFile(path, []byte(config.Example), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Next: newsdesk validate -c", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", defaultConfig, "where to write the configuration")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
