package main

import (
	"github.com/panchen451161722/daoaiagent/internal/database"
	"github.com/panchen451161722/daoaiagent/internal/logger"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg.Database
			if cfg.Driver == "memory" {
				logger.Info("Memory store needs no migration")
				return nil
			}

			// Init 会执行迁移
			db, err := database.Init(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			logger.Info("Database migrated (%s)", cfg.Driver)
			return nil
		},
	}
}
