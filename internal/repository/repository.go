package repository

import (
	"context"
	"errors"

	"github.com/panchen451161722/daoaiagent/internal/model"
)

// ErrRecordNotFound 记录不存在
var ErrRecordNotFound = errors.New("record not found")

// RecordStore DAO创建记录存储
type RecordStore interface {
	// Get 按ID获取记录, 不存在时返回 ErrRecordNotFound
	Get(ctx context.Context, id []byte) (*model.DAOCreatedModel, error)
	// Upsert 按ID创建或整体替换记录
	Upsert(ctx context.Context, id []byte, record *model.DAOCreatedModel) error
	// Clear 清空所有记录
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, query ListQuery) ([]model.DAOCreatedModel, int64, error)
}

// CursorStore 同步进度存储
type CursorStore interface {
	// LoadCursor 读取进度, 不存在时返回 0
	LoadCursor(ctx context.Context, name string) (int64, error)
	SaveCursor(ctx context.Context, name string, blockNum int64) error
}

// Store 组合存储
type Store interface {
	RecordStore
	CursorStore
}

// ListQuery 列表查询条件
type ListQuery struct {
	Creator    string
	DaoAddress string
	Page       int
	PageSize   int
}

// Normalize 修正分页参数
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	return q
}

// Offset 分页偏移量
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}
