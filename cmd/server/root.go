package main

import (
	"github.com/panchen451161722/daoaiagent/internal/config"
	"github.com/panchen451161722/daoaiagent/internal/logger"
	"github.com/spf13/cobra"
)

// rootOptions 全局参数
type rootOptions struct {
	configPath string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "daoaiagent",
		Short:         "DAO factory event indexer",
		Long:          "Indexes DAOCreated events emitted by the DAO factory contract and serves them over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if err := logger.InitFromConfig(cfg.Log); err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
		// 不带子命令时默认启动服务
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (default: ./config.yaml)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSyncCommand(opts))

	return cmd
}
