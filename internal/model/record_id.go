package model

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RecordIDLength 记录ID长度: 32字节交易哈希 + 4字节日志索引
const RecordIDLength = common.HashLength + 4

// NewRecordID 由交易哈希和日志索引生成记录ID
// 哈希在前, 日志索引以4字节大端序追加在后
func NewRecordID(txHash common.Hash, logIndex uint32) []byte {
	id := make([]byte, RecordIDLength)
	copy(id, txHash.Bytes())
	binary.BigEndian.PutUint32(id[common.HashLength:], logIndex)
	return id
}

// RecordIDString 记录ID的0x十六进制表示
func RecordIDString(id []byte) string {
	return hexutil.Encode(id)
}

// ParseRecordID 解析0x十六进制记录ID
func ParseRecordID(s string) ([]byte, error) {
	id, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid record id %q: %w", s, err)
	}
	if len(id) != RecordIDLength {
		return nil, fmt.Errorf("invalid record id %q: expected %d bytes, got %d", s, RecordIDLength, len(id))
	}
	return id, nil
}

// SplitRecordID 拆分记录ID为交易哈希和日志索引
func SplitRecordID(id []byte) (common.Hash, uint32, error) {
	if len(id) != RecordIDLength {
		return common.Hash{}, 0, fmt.Errorf("invalid record id length %d", len(id))
	}
	return common.BytesToHash(id[:common.HashLength]), binary.BigEndian.Uint32(id[common.HashLength:]), nil
}
