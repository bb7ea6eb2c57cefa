package model

import "time"

// SyncCursorModel 区块同步进度
type SyncCursorModel struct {
	Name      string    `json:"name" gorm:"primaryKey;size:64"`
	BlockNum  int64     `json:"block_num" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 自定义表名
func (SyncCursorModel) TableName() string {
	return "sync_cursor"
}
