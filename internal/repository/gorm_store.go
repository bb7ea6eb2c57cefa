package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/panchen451161722/daoaiagent/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore 基于gorm的持久化存储
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建gorm存储
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get 按ID获取记录
func (s *GormStore) Get(ctx context.Context, id []byte) (*model.DAOCreatedModel, error) {
	var record model.DAOCreatedModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("获取记录失败: %w", err)
	}
	return &record, nil
}

// Upsert 创建或替换记录, 单条语句提交
func (s *GormStore) Upsert(ctx context.Context, id []byte, record *model.DAOCreatedModel) error {
	if len(id) == 0 {
		return fmt.Errorf("upsert: empty record id")
	}

	row := record.Clone()
	row.Id = append([]byte(nil), id...)

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("保存记录失败: %w", err)
	}
	return nil
}

// Clear 清空记录
func (s *GormStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.DAOCreatedModel{}).Error
	if err != nil {
		return fmt.Errorf("清空记录失败: %w", err)
	}
	return nil
}

// Count 记录总数
func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.DAOCreatedModel{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("获取记录总数失败: %w", err)
	}
	return total, nil
}

// List 分页查询
func (s *GormStore) List(ctx context.Context, query ListQuery) ([]model.DAOCreatedModel, int64, error) {
	query = query.Normalize()

	tx := s.db.WithContext(ctx).Model(&model.DAOCreatedModel{})
	if query.Creator != "" {
		tx = tx.Where("LOWER(creator) = ?", strings.ToLower(query.Creator))
	}
	if query.DaoAddress != "" {
		tx = tx.Where("LOWER(dao_address) = ?", strings.ToLower(query.DaoAddress))
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取记录总数失败: %w", err)
	}

	records := make([]model.DAOCreatedModel, 0, query.PageSize)
	if err := tx.Order("block_number DESC").Order("id DESC").
		Offset(query.Offset()).
		Limit(query.PageSize).
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取记录列表失败: %w", err)
	}

	return records, total, nil
}

// LoadCursor 读取同步进度
func (s *GormStore) LoadCursor(ctx context.Context, name string) (int64, error) {
	var cursor model.SyncCursorModel
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&cursor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("获取同步进度失败: %w", err)
	}
	return cursor.BlockNum, nil
}

// SaveCursor 保存同步进度
func (s *GormStore) SaveCursor(ctx context.Context, name string, blockNum int64) error {
	cursor := model.SyncCursorModel{
		Name:      name,
		BlockNum:  blockNum,
		UpdatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"block_num", "updated_at"}),
	}).Create(&cursor).Error
	if err != nil {
		return fmt.Errorf("保存同步进度失败: %w", err)
	}
	return nil
}
