package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/panchen451161722/daoaiagent/internal/logger"
)

// Poller 区块同步接口, 由 monitor.EventMonitor 实现
type Poller interface {
	Poll(ctx context.Context) error
}

// SyncJob 区块同步任务
type SyncJob struct {
	poller   Poller
	interval time.Duration
	timeout  time.Duration
	ctx      context.Context
}

// NewSyncJob 创建区块同步任务
// ctx 取消后正在进行的同步随之中止
func NewSyncJob(ctx context.Context, poller Poller, intervalSeconds int) *SyncJob {
	interval := intervalOrDefault(intervalSeconds)
	return &SyncJob{
		poller:   poller,
		interval: interval,
		timeout:  10 * interval,
		ctx:      ctx,
	}
}

// GetName 获取任务名称
func (j *SyncJob) GetName() string {
	return "dao_factory_sync"
}

// GetSchedule 获取调度配置
func (j *SyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *SyncJob) Execute() {
	ctx, cancel := context.WithTimeout(j.ctx, j.timeout)
	defer cancel()

	if err := j.poller.Poll(ctx); err != nil {
		logger.Error("Sync job failed: %v", err)
	}
}
