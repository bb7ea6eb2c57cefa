package processor

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/panchen451161722/daoaiagent/internal/chain"
	"github.com/panchen451161722/daoaiagent/internal/logger"
	"github.com/panchen451161722/daoaiagent/internal/model"
	"github.com/panchen451161722/daoaiagent/internal/repository"
)

// DAOCreatedProcessor DAO创建事件处理器
type DAOCreatedProcessor struct {
	store repository.RecordStore
}

// NewDAOCreatedProcessor 创建DAO创建事件处理器
func NewDAOCreatedProcessor(store repository.RecordStore) *DAOCreatedProcessor {
	return &DAOCreatedProcessor{store: store}
}

// GetEventName 事件名
func (p *DAOCreatedProcessor) GetEventName() string {
	return model.DAOCreatedEventName
}

// Process 解码日志并保存记录
func (p *DAOCreatedProcessor) Process(ctx context.Context, contract *chain.Contract, log types.Log, blockTimestamp uint64) error {
	event, err := contract.DecodeDAOCreated(log, blockTimestamp)
	if err != nil {
		return fmt.Errorf("decode %s log %s#%d: %w", model.DAOCreatedEventName, log.TxHash.Hex(), log.Index, err)
	}
	return p.HandleDAOCreated(ctx, event)
}

// HandleDAOCreated 将一个DAOCreated事件写成一条记录
// 记录ID由交易哈希和日志索引决定, 重复投递会覆盖同一条记录
func (p *DAOCreatedProcessor) HandleDAOCreated(ctx context.Context, event *model.DAOCreatedEvent) error {
	id := model.NewRecordID(event.TxHash, event.LogIndex)

	record := &model.DAOCreatedModel{
		DaoAddress:       event.DAOAddress.Hex(),
		Creator:          event.Creator.Hex(),
		Timestamp:        event.Timestamp.String(),
		OtherContentHash: hexutil.Encode(event.OtherContentHash[:]),
		BlockNumber:      int64(event.BlockNumber),
		BlockTimestamp:   int64(event.BlockTimestamp),
		TransactionHash:  event.TxHash.Hex(),
	}

	if err := p.store.Upsert(ctx, id, record); err != nil {
		return fmt.Errorf("save %s %s: %w", model.DAOCreatedEventName, model.RecordIDString(id), err)
	}

	logger.Info("Indexed DAO %s created by %s in block %d", record.DaoAddress, record.Creator, event.BlockNumber)
	return nil
}
