package processor

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/panchen451161722/daoaiagent/internal/chain"
	"github.com/panchen451161722/daoaiagent/internal/logger"
	"github.com/panchen451161722/daoaiagent/internal/repository"
)

// EventProcessor 事件处理器接口
type EventProcessor interface {
	Process(ctx context.Context, contract *chain.Contract, log types.Log, blockTimestamp uint64) error
	GetEventName() string
}

// ProcessorManager 事件处理器管理器
type ProcessorManager struct {
	mu         sync.RWMutex
	processors map[string]EventProcessor
}

// NewProcessorManager 创建处理器管理器
func NewProcessorManager(store repository.RecordStore) *ProcessorManager {
	manager := &ProcessorManager{
		processors: make(map[string]EventProcessor),
	}

	// 注册所有处理器
	manager.RegisterProcessor(NewDAOCreatedProcessor(store))

	logger.Info("ProcessorManager initialized with %d processors", len(manager.processors))
	return manager
}

// RegisterProcessor 注册事件处理器
func (pm *ProcessorManager) RegisterProcessor(processor EventProcessor) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	eventName := processor.GetEventName()
	pm.processors[eventName] = processor
	logger.Info("Registered processor for event: %s", eventName)
}

// GetProcessor 获取指定事件的处理器
func (pm *ProcessorManager) GetProcessor(eventName string) (EventProcessor, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	processor, exists := pm.processors[eventName]
	return processor, exists
}

// ProcessLog 分发日志到对应处理器
// 合约ABI之外的事件以及没有处理器的事件直接跳过
func (pm *ProcessorManager) ProcessLog(ctx context.Context, contract *chain.Contract, log types.Log, blockTimestamp uint64) error {
	eventName, err := contract.EventName(log)
	if err != nil {
		if errors.Is(err, chain.ErrUnknownEvent) {
			logger.Warn("Skipping log %s#%d: %v", log.TxHash.Hex(), log.Index, err)
			return nil
		}
		return err
	}

	processor, exists := pm.GetProcessor(eventName)
	if !exists {
		logger.Debug("No processor found for event: %s", eventName)
		return nil
	}

	return processor.Process(ctx, contract, log, blockTimestamp)
}

// GetSupportedEventNames 获取支持的事件列表
func (pm *ProcessorManager) GetSupportedEventNames() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	names := make([]string, 0, len(pm.processors))
	for name := range pm.processors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
