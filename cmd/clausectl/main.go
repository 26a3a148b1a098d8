package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/riskibarqy/clause-watch/internal/app"
	"github.com/riskibarqy/clause-watch/internal/config"
	"github.com/riskibarqy/clause-watch/internal/platform/logging"
)

var (
	jsonOutput bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "clausectl",
	Short: "Inspect Biwenger release clauses from the terminal",
	Long: `clausectl runs the same fetch and aggregation pipeline as the API
in-process and prints the result. Configuration is read from the
environment (or a .env file), exactly like the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of a table")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level written to stderr")
}

// runtimeFor loads config and wires the pipeline for one command invocation.
func runtimeFor(cmd *cobra.Command) (*app.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.MetricsEnabled = false

	logger := logging.NewConsole(cmd.ErrOrStderr(), logging.ParseLevel(logLevel))
	logging.SetDefault(logger)

	return app.Build(cmd.Context(), cfg, logger)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "clausectl: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
