package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DAOCreatedEventName 工厂合约的DAO创建事件名
const DAOCreatedEventName = "DAOCreated"

// DAOCreatedEvent 解码后的DAOCreated事件
type DAOCreatedEvent struct {
	// 事件参数
	DAOAddress       common.Address
	Creator          common.Address
	Timestamp        *big.Int
	OtherContentHash [32]byte

	// 区块/交易信息
	TxHash         common.Hash
	LogIndex       uint32
	BlockNumber    uint64
	BlockTimestamp uint64
}
