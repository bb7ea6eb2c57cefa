package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPoller struct {
	calls atomic.Int32
	err   error
}

func (p *countingPoller) Poll(ctx context.Context) error {
	p.calls.Add(1)
	return p.err
}

func TestSyncJob_Execute(t *testing.T) {
	poller := &countingPoller{err: errors.New("rpc down")}
	job := NewSyncJob(context.Background(), poller, 5)

	job.Execute()
	job.Execute()

	assert.Equal(t, int32(2), poller.calls.Load())
	assert.Equal(t, "dao_factory_sync", job.GetName())
	assert.Equal(t, 5*time.Second, job.interval)
}

func TestSyncJob_DefaultInterval(t *testing.T) {
	job := NewSyncJob(context.Background(), &countingPoller{}, 0)
	assert.Equal(t, 60*time.Second, job.interval)
}

func TestManager_RunsJobImmediately(t *testing.T) {
	poller := &countingPoller{}
	m, err := NewManager(NewSyncJob(context.Background(), poller, 3600))
	require.NoError(t, err)

	m.Start()
	assert.Eventually(t, func() bool { return poller.calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, m.Stop())
}
