package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arunsharma1203/grievance/internal/config"
	"github.com/arunsharma1203/grievance/internal/logger"
	"github.com/arunsharma1203/grievance/relayservice"
)

var envFiles []string

func main() {
	rootCmd := &cobra.Command{
		Use:           "grievance-service",
		Short:         "Grievance, mood and diary backend with a Telegram relay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the command poller",
		RunE:  runServe,
	})

	var migrateTimeout time.Duration
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), migrateTimeout)
			defer cancel()
			return relayservice.Migrate(ctx, cfg, logger.New("grievance-migrate", cfg.LogLevel))
		},
	}
	migrateCmd.Flags().DurationVar(&migrateTimeout, "timeout", time.Minute, "overall migration timeout")
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("grievance-service exited with error")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return relayservice.Run(cfg, logger.New("grievance-service", cfg.LogLevel))
}

func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	return config.New()
}
