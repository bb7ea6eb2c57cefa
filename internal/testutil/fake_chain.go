package testutil

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
)

// FakeChain 内存链, 实现 chain.Reader
type FakeChain struct {
	mu         sync.Mutex
	head       uint64
	logs       []types.Log
	timestamps map[uint64]uint64

	// 注入错误
	BlockNumberErr error
	FilterErr      error
	HeaderErr      error

	FilterCalls int
	HeaderCalls int
}

// NewFakeChain 创建内存链
func NewFakeChain(head uint64) *FakeChain {
	return &FakeChain{
		head:       head,
		timestamps: make(map[uint64]uint64),
	}
}

// SetHead 设置最新区块号
func (f *FakeChain) SetHead(head uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.head = head
}

// AddLog 添加日志, 区块时间戳默认为 1700000000 + 区块号
func (f *FakeChain) AddLog(l types.Log) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	if _, ok := f.timestamps[l.BlockNumber]; !ok {
		f.timestamps[l.BlockNumber] = 1700000000 + l.BlockNumber
	}
}

// SetBlockTimestamp 指定区块时间戳
func (f *FakeChain) SetBlockTimestamp(block, ts uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timestamps[block] = ts
}

func (f *FakeChain) BlockNumber(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.BlockNumberErr != nil {
		return 0, f.BlockNumberErr
	}
	return f.head, nil
}

func (f *FakeChain) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FilterCalls++
	if f.FilterErr != nil {
		return nil, f.FilterErr
	}

	from, to := q.FromBlock.Uint64(), q.ToBlock.Uint64()
	var out []types.Log
	for _, l := range f.logs {
		if l.BlockNumber < from || l.BlockNumber > to {
			continue
		}
		if len(q.Addresses) > 0 {
			found := false
			for _, addr := range q.Addresses {
				if addr == l.Address {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, l)
	}

	// 节点按区块号和日志索引返回
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber < out[j].BlockNumber
		}
		return out[i].Index < out[j].Index
	})
	return out, nil
}

func (f *FakeChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HeaderCalls++
	if f.HeaderErr != nil {
		return nil, f.HeaderErr
	}
	if number == nil {
		return &types.Header{Number: new(big.Int).SetUint64(f.head)}, nil
	}

	n := number.Uint64()
	if n > f.head {
		return nil, fmt.Errorf("block %d not found", n)
	}
	ts, ok := f.timestamps[n]
	if !ok {
		ts = 1700000000 + n
	}
	return &types.Header{Number: new(big.Int).SetUint64(n), Time: ts}, nil
}
