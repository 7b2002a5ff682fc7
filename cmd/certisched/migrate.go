package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/certisched-api/internal/migrations"
	"github.com/noah-isme/certisched-api/pkg/config"
	"github.com/noah-isme/certisched-api/pkg/database"
	"github.com/noah-isme/certisched-api/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logr, err := logger.New(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer logr.Sync() //nolint:errcheck

		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return errors.Join(errors.New("migrate needs a reachable database"), err)
		}
		defer db.Close()

		applied, err := migrations.Apply(ctx, db, logr)
		if err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migrations\n", applied)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
