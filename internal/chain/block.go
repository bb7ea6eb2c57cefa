package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/panjf2000/ants/v2"
)

// maxHeaderWorkers 并发获取区块头的协程上限
const maxHeaderWorkers = 8

// Reader 链上数据读取接口, *ethclient.Client 实现了该接口
type Reader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Block 区块操作工具类
type Block struct {
	reader Reader
}

// NewBlock 创建区块工具类实例
func NewBlock(reader Reader) *Block {
	return &Block{reader: reader}
}

// GetBatchBlockLogs 批量获取多个区块的日志
func (b *Block) GetBatchBlockLogs(ctx context.Context, contractAddresses []common.Address, fromBlock, toBlock int64) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: big.NewInt(fromBlock),
		ToBlock:   big.NewInt(toBlock),
		Addresses: contractAddresses,
	}

	return b.reader.FilterLogs(ctx, query)
}

// GetCurrentBlockNumber 获取当前最新区块号
func (b *Block) GetCurrentBlockNumber(ctx context.Context) (int64, error) {
	number, err := b.reader.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	return int64(number), nil
}

// GetBlockTimestamps 并发获取区块时间戳
func (b *Block) GetBlockTimestamps(ctx context.Context, blockNums []uint64) (map[uint64]uint64, error) {
	timestamps := make(map[uint64]uint64, len(blockNums))
	if len(blockNums) == 0 {
		return timestamps, nil
	}

	size := len(blockNums)
	if size > maxHeaderWorkers {
		size = maxHeaderWorkers
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create header pool: %w", err)
	}
	defer pool.Release()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for _, num := range blockNums {
		num := num
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()

			header, err := b.reader.HeaderByNumber(ctx, new(big.Int).SetUint64(num))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to get header of block %d: %w", num, err)
				}
				return
			}
			timestamps[num] = header.Time
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to submit header task: %w", err)
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return timestamps, nil
}
