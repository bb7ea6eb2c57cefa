// Package testutil 测试辅助: 固定数据和内存链
package testutil

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/panchen451161722/daoaiagent/internal/chain"
	"github.com/panchen451161722/daoaiagent/internal/config"
	"github.com/panchen451161722/daoaiagent/internal/model"
)

// FactoryAddress 测试用工厂合约地址
var FactoryAddress = common.HexToAddress("0x770f1499426Ec8331a01a181b17bcf1911A7e429")

// DefaultTxHash 默认mock交易哈希
var DefaultTxHash = common.HexToHash("0xa16081f360e3847006db660bae1c6d1b2e17ec2a")

// FixtureContentHash 整数 1234567890 编码成的 bytes32
func FixtureContentHash() [32]byte {
	return common.BigToHash(big.NewInt(1234567890))
}

// FixtureEvent 默认的DAOCreated事件
func FixtureEvent() *model.DAOCreatedEvent {
	return &model.DAOCreatedEvent{
		DAOAddress:       common.HexToAddress("0x0000000000000000000000000000000000000001"),
		Creator:          common.HexToAddress("0x0000000000000000000000000000000000000001"),
		Timestamp:        big.NewInt(234),
		OtherContentHash: FixtureContentHash(),
		TxHash:           DefaultTxHash,
		LogIndex:         1,
		BlockNumber:      1,
		BlockTimestamp:   1,
	}
}

// NewDAOFactory 使用内置ABI创建工厂合约
func NewDAOFactory(t testing.TB, blockNum int64) *chain.Contract {
	t.Helper()
	contract, err := chain.NewContract(config.DAOFactoryContract, config.ContractConfig{
		Address:  FactoryAddress.Hex(),
		Enabled:  true,
		BlockNum: blockNum,
	}, config.ChainConfig{ChainId: 1})
	require.NoError(t, err)
	return contract
}
