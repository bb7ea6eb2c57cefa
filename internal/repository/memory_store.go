package repository

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/panchen451161722/daoaiagent/internal/model"
)

// MemoryStore 内存存储, 用于本地调试和测试
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*model.DAOCreatedModel
	cursors map[string]int64
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*model.DAOCreatedModel),
		cursors: make(map[string]int64),
	}
}

func (s *MemoryStore) Get(ctx context.Context, id []byte) (*model.DAOCreatedModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[string(id)]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return record.Clone(), nil
}

func (s *MemoryStore) Upsert(ctx context.Context, id []byte, record *model.DAOCreatedModel) error {
	if len(id) == 0 {
		return fmt.Errorf("upsert: empty record id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := record.Clone()
	stored.Id = append([]byte(nil), id...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[string(id)] = stored
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*model.DAOCreatedModel)
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// List 按区块号倒序分页
func (s *MemoryStore) List(ctx context.Context, query ListQuery) ([]model.DAOCreatedModel, int64, error) {
	query = query.Normalize()

	s.mu.RLock()
	matched := make([]model.DAOCreatedModel, 0, len(s.records))
	for _, record := range s.records {
		if query.Creator != "" && !strings.EqualFold(record.Creator, query.Creator) {
			continue
		}
		if query.DaoAddress != "" && !strings.EqualFold(record.DaoAddress, query.DaoAddress) {
			continue
		}
		matched = append(matched, *record.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].BlockNumber != matched[j].BlockNumber {
			return matched[i].BlockNumber > matched[j].BlockNumber
		}
		return bytes.Compare(matched[i].Id, matched[j].Id) > 0
	})

	total := int64(len(matched))
	offset := query.Offset()
	if offset >= len(matched) {
		return []model.DAOCreatedModel{}, total, nil
	}
	end := offset + query.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (s *MemoryStore) LoadCursor(ctx context.Context, name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursors[name], nil
}

func (s *MemoryStore) SaveCursor(ctx context.Context, name string, blockNum int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[name] = blockNum
	return nil
}
