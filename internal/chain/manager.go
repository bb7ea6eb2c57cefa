package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/panchen451161722/daoaiagent/internal/config"
	"github.com/panchen451161722/daoaiagent/internal/logger"
)

var supportedChainTypes = map[string]bool{
	"ethereum": true,
	"polygon":  true,
	"bsc":      true,
	"arbitrum": true,
	"optimism": true,
}

// Manager 单链管理器
type Manager struct {
	mu        sync.RWMutex
	contracts map[string]*Contract // 合约映射: "contractName" -> Contract
	client    *ethclient.Client    // 链客户端
	config    config.ChainConfig   // 存储链配置
}

// NewManager 创建单链管理器
func NewManager(ctx context.Context, cfg config.ChainConfig) (*Manager, error) {
	contracts, err := LoadContracts(cfg)
	if err != nil {
		return nil, err
	}

	client, err := dialClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}

	return &Manager{
		contracts: contracts,
		client:    client,
		config:    cfg,
	}, nil
}

// LoadContracts 初始化所有启用的合约
func LoadContracts(cfg config.ChainConfig) (map[string]*Contract, error) {
	contracts := make(map[string]*Contract)
	for contractName, contractCfg := range cfg.Contracts {
		if !contractCfg.Enabled {
			logger.Info("Skipping disabled contract: %s", contractName)
			continue
		}

		contract, err := NewContract(contractName, contractCfg, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create contract %s: %w", contractName, err)
		}
		contracts[contractName] = contract
		logger.Info("Initialized contract: %s (address: %s, from block %d)", contractName, contractCfg.Address, contractCfg.BlockNum)
	}

	if len(contracts) == 0 {
		return nil, fmt.Errorf("no enabled contracts configured")
	}
	return contracts, nil
}

// dialClient 创建链客户端并测试连接
func dialClient(ctx context.Context, cfg config.ChainConfig) (*ethclient.Client, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}
	if !supportedChainTypes[cfg.ChainType] {
		return nil, fmt.Errorf("unsupported chain type %s, supported types: ethereum, polygon, bsc, arbitrum, optimism", cfg.ChainType)
	}

	logger.Info("Creating %s client connection (RPC: %s)", cfg.ChainType, cfg.RpcUrl)
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.ChainType, err)
	}

	// 尝试获取链ID, 校验配置
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("client connection test failed (%s): %w", cfg.ChainType, err)
	}
	if cfg.ChainId != 0 && chainID.Int64() != cfg.ChainId {
		client.Close()
		return nil, fmt.Errorf("chain id mismatch: configured %d, node reports %s", cfg.ChainId, chainID)
	}

	logger.Info("Successfully created %s client (chain id %s)", cfg.ChainType, chainID)
	return client, nil
}

// GetClient 获取客户端
func (m *Manager) GetClient() *ethclient.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// GetContracts 获取所有合约
func (m *Manager) GetContracts() []*Contract {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Contract, 0, len(m.contracts))
	for _, contract := range m.contracts {
		result = append(result, contract)
	}
	return result
}

// GetContract 获取指定合约
func (m *Manager) GetContract(contractName string) (*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	contract, exists := m.contracts[contractName]
	if !exists {
		return nil, fmt.Errorf("contract %s not found", contractName)
	}
	return contract, nil
}

// Close 关闭客户端
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
}
