package main

import (
	"context"
	"fmt"

	"github.com/panchen451161722/daoaiagent/internal/chain"
	"github.com/panchen451161722/daoaiagent/internal/config"
	"github.com/panchen451161722/daoaiagent/internal/database"
	"github.com/panchen451161722/daoaiagent/internal/logger"
	"github.com/panchen451161722/daoaiagent/internal/monitor"
	"github.com/panchen451161722/daoaiagent/internal/processor"
	"github.com/panchen451161722/daoaiagent/internal/repository"
)

// openStore 按配置打开存储, 返回的 close 函数总是非空
func openStore(cfg config.DatabaseConfig) (repository.Store, func(), error) {
	if cfg.Driver == "memory" {
		logger.Warn("Using in-memory store, records are lost on exit")
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := database.Init(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Connected to %s database", cfg.Driver)

	return repository.NewGormStore(db), func() {
		if err := database.Close(db); err != nil {
			logger.Error("Failed to close database: %v", err)
		}
	}, nil
}

// newMonitor 连接链节点并创建事件监控器
func newMonitor(ctx context.Context, cfg config.ChainConfig, store repository.Store) (*monitor.EventMonitor, *chain.Manager, error) {
	manager, err := chain.NewManager(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create chain manager: %w", err)
	}

	m, err := monitor.NewEventMonitor(
		manager.GetClient(),
		manager.GetContracts(),
		store,
		processor.NewProcessorManager(store),
		monitor.Options{
			Confirmations: cfg.Confirmations,
			BatchSize:     cfg.BatchSize,
		},
	)
	if err != nil {
		manager.Close()
		return nil, nil, err
	}
	return m, manager, nil
}
