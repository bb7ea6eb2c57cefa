package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/panchen451161722/daoaiagent/internal/chain"
	"github.com/panchen451161722/daoaiagent/internal/logger"
	"github.com/panchen451161722/daoaiagent/internal/processor"
	"github.com/panchen451161722/daoaiagent/internal/repository"
)

// CursorName 同步进度在存储中的名称
const CursorName = "event_monitor"

const (
	backoffStep = 10 * time.Second
	maxBackoff  = 5 * time.Minute
)

// Options 监控参数
type Options struct {
	Confirmations int64 // 确认区块数
	BatchSize     int64 // 每批扫描区块数
}

// Status 监控状态
type Status struct {
	Cursor        int64      `json:"cursor"`
	Head          int64      `json:"head"`
	Confirmations int64      `json:"confirmations"`
	ContractCount int        `json:"contract_count"`
	Contracts     []string   `json:"contracts"`
	RetryCount    int        `json:"retry_count"`
	BackoffUntil  *time.Time `json:"backoff_until,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
}

// EventMonitor 区块链事件监控器
type EventMonitor struct {
	block            *chain.Block
	contracts        []*chain.Contract
	cursors          repository.CursorStore
	processorManager *processor.ProcessorManager
	confirmations    int64
	batchSize        int64

	pollMu sync.Mutex // 同一时间只有一个同步在进行

	mu              sync.RWMutex // 保护以下状态
	cursor          int64
	head            int64
	retryCount      int
	lastRetryTime   time.Time
	backoffDuration time.Duration
	lastError       string

	now func() time.Time
}

// NewEventMonitor 创建事件监控器
func NewEventMonitor(
	reader chain.Reader,
	contracts []*chain.Contract,
	cursors repository.CursorStore,
	processorManager *processor.ProcessorManager,
	opts Options,
) (*EventMonitor, error) {
	if len(contracts) == 0 {
		return nil, fmt.Errorf("no contracts available for monitoring")
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}
	if opts.Confirmations < 0 {
		return nil, fmt.Errorf("confirmations must not be negative, got %d", opts.Confirmations)
	}

	return &EventMonitor{
		block:            chain.NewBlock(reader),
		contracts:        contracts,
		cursors:          cursors,
		processorManager: processorManager,
		confirmations:    opts.Confirmations,
		batchSize:        opts.BatchSize,
		now:              time.Now,
	}, nil
}

// Poll 同步到安全高度 (最新区块 - 确认数)
// 限流退避期间直接返回
func (m *EventMonitor) Poll(ctx context.Context) error {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()

	if until, waiting := m.backoffUntil(); waiting {
		logger.Debug("Monitor backing off until %s", until.Format(time.RFC3339))
		return nil
	}

	if err := m.sync(ctx, 0); err != nil {
		m.handleError(err)
		return err
	}
	m.resetBackoff()
	return nil
}

// SyncTo 单次同步到指定区块, 用于回填; target 为 0 时同步到安全高度
func (m *EventMonitor) SyncTo(ctx context.Context, target int64) error {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()
	return m.sync(ctx, target)
}

func (m *EventMonitor) sync(ctx context.Context, target int64) error {
	currentBlock, err := m.block.GetCurrentBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current block number: %w", err)
	}
	m.setHead(currentBlock)

	safeBlock := currentBlock - m.confirmations
	if target > 0 && target < safeBlock {
		safeBlock = target
	}

	startBlock, err := m.getStartBlockNum(ctx)
	if err != nil {
		return err
	}
	if startBlock > safeBlock {
		logger.Debug("Nothing to sync: next block %d, safe block %d", startBlock, safeBlock)
		return nil
	}

	logger.Debug("Processing blocks from %d to %d", startBlock, safeBlock)
	for from := startBlock; from <= safeBlock; from += m.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		to := from + m.batchSize - 1
		if to > safeBlock {
			to = safeBlock
		}

		if err := m.processBatchBlocks(ctx, from, to); err != nil {
			return fmt.Errorf("error processing blocks %d-%d: %w", from, to, err)
		}
		if err := m.cursors.SaveCursor(ctx, CursorName, to); err != nil {
			return fmt.Errorf("failed to save cursor at block %d: %w", to, err)
		}
		m.setCursor(to)
	}

	logger.Info("Synced up to block %d (head %d)", safeBlock, currentBlock)
	return nil
}

// getStartBlockNum 获取起始区块号: 已处理区块的下一个, 且不早于合约部署区块
func (m *EventMonitor) getStartBlockNum(ctx context.Context) (int64, error) {
	minDeployBlock := m.contracts[0].GetBlockNum()
	for _, contract := range m.contracts[1:] {
		if contract.GetBlockNum() < minDeployBlock {
			minDeployBlock = contract.GetBlockNum()
		}
	}

	cursor, err := m.cursors.LoadCursor(ctx, CursorName)
	if err != nil {
		return 0, fmt.Errorf("failed to load cursor: %w", err)
	}
	m.setCursor(cursor)

	if cursor > 0 && cursor+1 > minDeployBlock {
		return cursor + 1, nil
	}
	return minDeployBlock, nil
}

// processBatchBlocks 批量处理区块, 日志按链上顺序逐条处理
func (m *EventMonitor) processBatchBlocks(ctx context.Context, fromBlock, toBlock int64) error {
	contractAddresses, contractMap := m.getDeployedContracts(toBlock)
	if len(contractAddresses) == 0 {
		logger.Debug("No deployed contracts for blocks %d-%d", fromBlock, toBlock)
		return nil
	}

	logs, err := m.block.GetBatchBlockLogs(ctx, contractAddresses, fromBlock, toBlock)
	if err != nil {
		return fmt.Errorf("error getting logs: %w", err)
	}

	live := logs[:0]
	for _, l := range logs {
		if l.Removed {
			logger.Warn("Skipping removed log %s#%d", l.TxHash.Hex(), l.Index)
			continue
		}
		live = append(live, l)
	}
	if len(live) == 0 {
		logger.Debug("No logs found for blocks %d-%d", fromBlock, toBlock)
		return nil
	}
	sortLogs(live)

	timestamps, err := m.block.GetBlockTimestamps(ctx, distinctBlocks(live))
	if err != nil {
		return err
	}

	logger.Debug("Found %d logs for blocks %d-%d", len(live), fromBlock, toBlock)
	for _, l := range live {
		contract := contractMap[l.Address]
		if contract == nil {
			logger.Warn("Unknown contract address: %s", l.Address.Hex())
			continue
		}

		err := m.processorManager.ProcessLog(ctx, contract, l, timestamps[l.BlockNumber])
		if errors.Is(err, chain.ErrMalformedEvent) {
			logger.Error("Dropping malformed log %s#%d from contract %s: %v", l.TxHash.Hex(), l.Index, contract.GetName(), err)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// getDeployedContracts 获取已部署的合约地址和映射
func (m *EventMonitor) getDeployedContracts(toBlock int64) ([]common.Address, map[common.Address]*chain.Contract) {
	var contractAddresses []common.Address
	contractMap := make(map[common.Address]*chain.Contract)

	for _, contract := range m.contracts {
		if toBlock < contract.GetBlockNum() {
			continue
		}
		contractAddresses = append(contractAddresses, contract.GetAddress())
		contractMap[contract.GetAddress()] = contract
	}
	return contractAddresses, contractMap
}

func sortLogs(logs []types.Log) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})
}

func distinctBlocks(logs []types.Log) []uint64 {
	var blocks []uint64
	seen := make(map[uint64]bool)
	for _, l := range logs {
		if !seen[l.BlockNumber] {
			seen[l.BlockNumber] = true
			blocks = append(blocks, l.BlockNumber)
		}
	}
	return blocks
}

// handleError 记录错误, 限流时线性退避
func (m *EventMonitor) handleError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.retryCount++
	m.lastError = err.Error()
	if isAPIRateLimitError(err) {
		m.lastRetryTime = m.now()
		m.backoffDuration = time.Duration(m.retryCount) * backoffStep
		if m.backoffDuration > maxBackoff {
			m.backoffDuration = maxBackoff
		}
		logger.Warn("API rate limit hit, backing off %s", m.backoffDuration)
	}

	logger.Error("Monitor encountered error (retry %d): %v", m.retryCount, err)
}

func (m *EventMonitor) resetBackoff() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryCount = 0
	m.backoffDuration = 0
	m.lastError = ""
}

func (m *EventMonitor) backoffUntil() (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.backoffDuration == 0 {
		return time.Time{}, false
	}
	until := m.lastRetryTime.Add(m.backoffDuration)
	return until, m.now().Before(until)
}

// isAPIRateLimitError 检查是否为API限制错误
func isAPIRateLimitError(err error) bool {
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(err.Error(), "Too Many Requests")
}

func (m *EventMonitor) setCursor(block int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = block
}

func (m *EventMonitor) setHead(block int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.head = block
}

// Status 获取监控状态
func (m *EventMonitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.contracts))
	for _, contract := range m.contracts {
		names = append(names, contract.GetName())
	}
	sort.Strings(names)

	status := Status{
		Cursor:        m.cursor,
		Head:          m.head,
		Confirmations: m.confirmations,
		ContractCount: len(m.contracts),
		Contracts:     names,
		RetryCount:    m.retryCount,
		LastError:     m.lastError,
	}
	if m.backoffDuration > 0 {
		until := m.lastRetryTime.Add(m.backoffDuration)
		status.BackoffUntil = &until
	}
	return status
}
