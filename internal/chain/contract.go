package chain

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/panchen451161722/daoaiagent/internal/config"
	"github.com/panchen451161722/daoaiagent/internal/model"
)

//go:embed abi/dao_factory.json
var daoFactoryABI []byte

var (
	// ErrUnknownEvent 日志签名不在合约ABI中
	ErrUnknownEvent = errors.New("unknown event signature")
	// ErrMalformedEvent 日志结构与事件定义不符
	ErrMalformedEvent = errors.New("malformed event")
)

// DAOCreated 事件参数, 顺序和类型固定
var daoCreatedParams = []struct {
	name string
	typ  byte
	size int
}{
	{"daoAddress", abi.AddressTy, 20},
	{"creator", abi.AddressTy, 20},
	{"timestamp", abi.UintTy, 256},
	{"otherContentHash", abi.FixedBytesTy, 32},
}

// Contract 合约工具类
type Contract struct {
	address  common.Address // 合约地址
	abi      abi.ABI        // 合约ABI
	name     string         // 合约名称
	blockNum int64          // 合约部署的区块号
	chainId  int64          // 链ID
}

// NewContract 创建合约实例
func NewContract(name string, contractCfg config.ContractConfig, chainCfg config.ChainConfig) (*Contract, error) {
	abiData := daoFactoryABI
	if contractCfg.ABIPath != "" {
		data, err := os.ReadFile(contractCfg.ABIPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load ABI from %s: %w", contractCfg.ABIPath, err)
		}
		abiData = data
	}

	parsedABI, err := parseABI(abiData)
	if err != nil {
		return nil, err
	}

	if event, ok := parsedABI.Events[model.DAOCreatedEventName]; ok {
		if err := checkDAOCreatedShape(event); err != nil {
			return nil, fmt.Errorf("contract %s: %w", name, err)
		}
	}

	if !common.IsHexAddress(contractCfg.Address) {
		return nil, fmt.Errorf("contract %s: invalid address %q", name, contractCfg.Address)
	}

	return &Contract{
		address:  common.HexToAddress(contractCfg.Address),
		abi:      parsedABI,
		name:     name,
		blockNum: contractCfg.BlockNum,
		chainId:  chainCfg.ChainId,
	}, nil
}

// parseABI 解析ABI, 兼容完整编译输出和纯ABI数组
func parseABI(abiData []byte) (abi.ABI, error) {
	var compiledOutput struct {
		ABI json.RawMessage `json:"abi"`
	}

	if err := json.Unmarshal(abiData, &compiledOutput); err == nil && compiledOutput.ABI != nil {
		parsedABI, err := abi.JSON(bytes.NewReader(compiledOutput.ABI))
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to parse ABI from compiled output: %w", err)
		}
		return parsedABI, nil
	}

	parsedABI, err := abi.JSON(bytes.NewReader(abiData))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return parsedABI, nil
}

func checkDAOCreatedShape(event abi.Event) error {
	if len(event.Inputs) != len(daoCreatedParams) {
		return fmt.Errorf("%s: expected %d inputs, got %d", event.Name, len(daoCreatedParams), len(event.Inputs))
	}
	for i, want := range daoCreatedParams {
		got := event.Inputs[i]
		if got.Name != want.name || got.Type.T != want.typ || got.Type.Size != want.size {
			return fmt.Errorf("%s: input %d is %s %s, expected %s", event.Name, i, got.Type.String(), got.Name, want.name)
		}
	}
	return nil
}

// GetAddress 获取合约地址
func (c *Contract) GetAddress() common.Address {
	return c.address
}

// GetName 获取合约名称
func (c *Contract) GetName() string {
	return c.name
}

// GetBlockNum 获取合约部署区块号
func (c *Contract) GetBlockNum() int64 {
	return c.blockNum
}

// GetChainId 获取链ID
func (c *Contract) GetChainId() int64 {
	return c.chainId
}

// EventName 根据 topics[0] 查找事件名
func (c *Contract) EventName(log types.Log) (string, error) {
	if len(log.Topics) == 0 {
		return "", fmt.Errorf("%w: log without topics", ErrMalformedEvent)
	}
	event, err := c.abi.EventByID(log.Topics[0])
	if err != nil {
		return "", fmt.Errorf("%w: %s in contract %s", ErrUnknownEvent, log.Topics[0].Hex(), c.name)
	}
	return event.Name, nil
}

// DecodeDAOCreated 解码DAOCreated日志
// 只有通过这里校验的日志才会进入处理器
func (c *Contract) DecodeDAOCreated(log types.Log, blockTimestamp uint64) (*model.DAOCreatedEvent, error) {
	event, ok := c.abi.Events[model.DAOCreatedEventName]
	if !ok {
		return nil, fmt.Errorf("contract %s has no %s event", c.name, model.DAOCreatedEventName)
	}

	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}

	if len(log.Topics) != len(indexed)+1 {
		return nil, fmt.Errorf("%w: expected %d topics, got %d", ErrMalformedEvent, len(indexed)+1, len(log.Topics))
	}
	if log.Topics[0] != event.ID {
		return nil, fmt.Errorf("%w: signature %s is not %s", ErrMalformedEvent, log.Topics[0].Hex(), event.Sig)
	}
	if log.Index > math.MaxUint32 {
		return nil, fmt.Errorf("%w: log index %d out of range", ErrMalformedEvent, log.Index)
	}

	values := make(map[string]interface{}, len(event.Inputs))
	if err := event.Inputs.UnpackIntoMap(values, log.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	daoAddress, ok1 := values["daoAddress"].(common.Address)
	creator, ok2 := values["creator"].(common.Address)
	timestamp, ok3 := values["timestamp"].(*big.Int)
	contentHash, ok4 := values["otherContentHash"].([32]byte)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("%w: unexpected parameter types", ErrMalformedEvent)
	}

	return &model.DAOCreatedEvent{
		DAOAddress:       daoAddress,
		Creator:          creator,
		Timestamp:        timestamp,
		OtherContentHash: contentHash,
		TxHash:           log.TxHash,
		LogIndex:         uint32(log.Index),
		BlockNumber:      log.BlockNumber,
		BlockTimestamp:   blockTimestamp,
	}, nil
}

// EncodeDAOCreated 按ABI编码出合约会发出的日志
func (c *Contract) EncodeDAOCreated(ev *model.DAOCreatedEvent) (types.Log, error) {
	event, ok := c.abi.Events[model.DAOCreatedEventName]
	if !ok {
		return types.Log{}, fmt.Errorf("contract %s has no %s event", c.name, model.DAOCreatedEventName)
	}
	if ev.Timestamp == nil {
		return types.Log{}, fmt.Errorf("encode %s: nil timestamp", event.Name)
	}

	params := map[string]interface{}{
		"daoAddress":       ev.DAOAddress,
		"creator":          ev.Creator,
		"timestamp":        ev.Timestamp,
		"otherContentHash": ev.OtherContentHash,
	}

	topics := []common.Hash{event.ID}
	var data []interface{}
	for _, input := range event.Inputs {
		if !input.Indexed {
			data = append(data, params[input.Name])
			continue
		}
		topic, err := abi.MakeTopics([]interface{}{params[input.Name]})
		if err != nil {
			return types.Log{}, fmt.Errorf("encode %s topic %s: %w", event.Name, input.Name, err)
		}
		topics = append(topics, topic[0][0])
	}

	packed, err := event.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return types.Log{}, fmt.Errorf("encode %s data: %w", event.Name, err)
	}

	return types.Log{
		Address:     c.address,
		Topics:      topics,
		Data:        packed,
		BlockNumber: ev.BlockNumber,
		TxHash:      ev.TxHash,
		Index:       uint(ev.LogIndex),
	}, nil
}
