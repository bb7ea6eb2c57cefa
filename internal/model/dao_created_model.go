package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DAOCreatedModel DAO创建记录
type DAOCreatedModel struct {
	Id        []byte    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 事件参数
	DaoAddress       string `json:"dao_address" gorm:"size:42;not null;index"`
	Creator          string `json:"creator" gorm:"size:42;not null;index"`
	Timestamp        string `json:"timestamp" gorm:"size:78;not null"` // uint256 十进制
	OtherContentHash string `json:"other_content_hash" gorm:"size:66;not null"`

	// 区块链信息
	BlockNumber     int64  `json:"block_number" gorm:"not null;index"`
	BlockTimestamp  int64  `json:"block_timestamp" gorm:"not null"`
	TransactionHash string `json:"transaction_hash" gorm:"size:66;not null"`
}

// TableName 自定义表名
func (DAOCreatedModel) TableName() string {
	return "dao_created"
}

// IdHex 记录ID的十六进制表示
func (m *DAOCreatedModel) IdHex() string {
	return hexutil.Encode(m.Id)
}

// Clone 深拷贝
func (m *DAOCreatedModel) Clone() *DAOCreatedModel {
	c := *m
	c.Id = append([]byte(nil), m.Id...)
	return &c
}
