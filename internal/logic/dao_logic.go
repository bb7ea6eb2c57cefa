package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/panchen451161722/daoaiagent/internal/model"
	"github.com/panchen451161722/daoaiagent/internal/repository"
)

var (
	// ErrInvalidArgument 请求参数错误
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound DAO不存在
	ErrNotFound = errors.New("dao not found")
)

// DAOLogic DAO查询业务逻辑
type DAOLogic struct {
	store repository.RecordStore
}

// NewDAOLogic 创建DAO业务逻辑
func NewDAOLogic(store repository.RecordStore) *DAOLogic {
	return &DAOLogic{store: store}
}

// GetDAOs 获取DAO列表
func (l *DAOLogic) GetDAOs(ctx context.Context, creator, daoAddress string, page, pageSize int) ([]model.DAOCreatedModel, int64, repository.ListQuery, error) {
	query := repository.ListQuery{Page: page, PageSize: pageSize}.Normalize()

	if creator != "" {
		if !common.IsHexAddress(creator) {
			return nil, 0, query, fmt.Errorf("%w: creator %q is not an address", ErrInvalidArgument, creator)
		}
		query.Creator = common.HexToAddress(creator).Hex()
	}
	if daoAddress != "" {
		if !common.IsHexAddress(daoAddress) {
			return nil, 0, query, fmt.Errorf("%w: dao_address %q is not an address", ErrInvalidArgument, daoAddress)
		}
		query.DaoAddress = common.HexToAddress(daoAddress).Hex()
	}

	records, total, err := l.store.List(ctx, query)
	if err != nil {
		return nil, 0, query, fmt.Errorf("获取DAO列表失败: %w", err)
	}
	return records, total, query, nil
}

// GetDAO 按记录ID获取DAO
func (l *DAOLogic) GetDAO(ctx context.Context, id string) (*model.DAOCreatedModel, error) {
	recordID, err := model.ParseRecordID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	record, err := l.store.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("获取DAO失败: %w", err)
	}
	return record, nil
}

// GetDAOByAddress 按DAO合约地址获取最新的创建记录
func (l *DAOLogic) GetDAOByAddress(ctx context.Context, address string) (*model.DAOCreatedModel, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q is not an address", ErrInvalidArgument, address)
	}

	records, _, err := l.store.List(ctx, repository.ListQuery{
		DaoAddress: common.HexToAddress(address).Hex(),
		Page:       1,
		PageSize:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("获取DAO失败: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}

// GetStats 获取统计信息
func (l *DAOLogic) GetStats(ctx context.Context) (map[string]interface{}, error) {
	total, err := l.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取DAO总数失败: %w", err)
	}
	return map[string]interface{}{
		"total_daos": total,
	}, nil
}
