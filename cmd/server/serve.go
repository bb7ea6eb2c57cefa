package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/panchen451161722/daoaiagent/internal/handler"
	"github.com/panchen451161722/daoaiagent/internal/logger"
	"github.com/panchen451161722/daoaiagent/internal/router"
	"github.com/panchen451161722/daoaiagent/internal/scheduler"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the indexer and HTTP API",
		Long: `Start the HTTP API and, when chain.rpc_url is set, the block sync job.

Without an RPC URL the server only serves already indexed records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := opts.cfg
	defer logger.Sync()

	store, closeStore, err := openStore(cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	// 启动区块同步
	var statusProvider handler.StatusProvider
	if cfg.Chain.RpcUrl == "" {
		logger.Warn("chain.rpc_url is empty, running in API-only mode")
	} else {
		m, manager, err := newMonitor(ctx, cfg.Chain, store)
		if err != nil {
			return err
		}
		defer manager.Close()

		tasks, err := scheduler.NewManager(scheduler.NewSyncJob(ctx, m, cfg.Task.Interval))
		if err != nil {
			return err
		}
		tasks.Start()
		defer func() {
			if err := tasks.Stop(); err != nil {
				logger.Error("%v", err)
			}
		}()
		statusProvider = m
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.Setup(store, statusProvider),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
		return err
	}
	logger.Info("Server exited")
	return nil
}
