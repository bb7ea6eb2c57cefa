package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/panchen451161722/daoaiagent/internal/logger"
	"github.com/spf13/cobra"
)

func newSyncCommand(opts *rootOptions) *cobra.Command {
	var to int64

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a single block sync and exit",
		Long: `Index DAOCreated events from the stored cursor up to --to (or the
confirmed head when --to is 0), then exit.

Example:
  daoaiagent sync --config config.yaml --to 7000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if to < 0 {
				return fmt.Errorf("--to must not be negative, got %d", to)
			}
			cfg := opts.cfg
			if cfg.Chain.RpcUrl == "" {
				return fmt.Errorf("chain.rpc_url is required for sync")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openStore(cfg.Database)
			if err != nil {
				return err
			}
			defer closeStore()

			m, manager, err := newMonitor(ctx, cfg.Chain, store)
			if err != nil {
				return err
			}
			defer manager.Close()

			if err := m.SyncTo(ctx, to); err != nil {
				return err
			}

			count, err := store.Count(ctx)
			if err != nil {
				return err
			}
			status := m.Status()
			logger.Info("Sync finished at block %d, %d records stored", status.Cursor, count)
			return nil
		},
	}

	cmd.Flags().Int64Var(&to, "to", 0, "last block to index (0 = confirmed head)")
	return cmd
}
