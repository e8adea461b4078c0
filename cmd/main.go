package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/duynhne/poker-service/config"
	"github.com/duynhne/poker-service/pkg/logger/zerolog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// newRootCmd builds the CLI. Running it without a subcommand serves the API.
func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "poker-service",
		Short:         "Poker session tracker API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration
			cfg = config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Initialize Zerolog with LOG_LEVEL from config
			zerolog.Setup(cfg.Logging.Level)
			return nil
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
	}
	root.RunE = serveCmd.RunE

	root.AddCommand(serveCmd, newMigrateCmd(func() *config.Config { return cfg }))
	return root
}
