// Package cli implements the moot command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mootlabs/moot/internal/config"
)

var (
	flagConfig  string
	flagJSON    bool
	flagVerbose bool

	cfg *config.Config
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moot",
		Short: "Multi-agent deliberation with quality-gated consensus",
		Long: `moot runs multi-round deliberation among independent agents on a topic,
scores each round on six quality dimensions, and decides - via a pluggable
protocol - whether to continue, stop successfully, or flag a false consensus
(apparent agreement masking low-quality content).

Examples:
  moot run --topic "Should we shard the user database?" --agents alice,bob,carol
  moot run --topic "..." --protocol divergent --max-rounds 5 --dry-run
  moot roles
  moot serve --addr 127.0.0.1:7411`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			var err error
			cfg, err = config.Load(flagConfig)
			if err != nil {
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to moot.toml (default: user config dir)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON output")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newRolesCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func setupLogging() {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
