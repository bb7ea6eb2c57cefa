package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panchen451161722/daoaiagent/internal/chain"
	"github.com/panchen451161722/daoaiagent/internal/model"
	"github.com/panchen451161722/daoaiagent/internal/processor"
	"github.com/panchen451161722/daoaiagent/internal/repository"
	"github.com/panchen451161722/daoaiagent/internal/testutil"
)

type harness struct {
	fake     *testutil.FakeChain
	store    *repository.MemoryStore
	contract *chain.Contract
	monitor  *EventMonitor
}

func newHarness(t *testing.T, head uint64, deployBlock int64, opts Options) *harness {
	t.Helper()
	fake := testutil.NewFakeChain(head)
	store := repository.NewMemoryStore()
	contract := testutil.NewDAOFactory(t, deployBlock)

	m, err := NewEventMonitor(fake, []*chain.Contract{contract}, store, processor.NewProcessorManager(store), opts)
	require.NoError(t, err)

	return &harness{fake: fake, store: store, contract: contract, monitor: m}
}

func (h *harness) emit(t *testing.T, block uint64, txByte byte, logIndex uint32) *model.DAOCreatedEvent {
	t.Helper()
	ev := testutil.FixtureEvent()
	ev.BlockNumber = block
	ev.TxHash = common.BytesToHash([]byte{txByte})
	ev.LogIndex = logIndex
	ev.DAOAddress = common.BytesToAddress([]byte{txByte, byte(logIndex)})

	l, err := h.contract.EncodeDAOCreated(ev)
	require.NoError(t, err)
	h.fake.AddLog(l)
	return ev
}

func (h *harness) count(t *testing.T) int64 {
	t.Helper()
	n, err := h.store.Count(context.Background())
	require.NoError(t, err)
	return n
}

func (h *harness) cursor(t *testing.T) int64 {
	t.Helper()
	n, err := h.store.LoadCursor(context.Background(), CursorName)
	require.NoError(t, err)
	return n
}

func TestNewEventMonitor_Validation(t *testing.T) {
	store := repository.NewMemoryStore()
	pm := processor.NewProcessorManager(store)
	fake := testutil.NewFakeChain(1)

	_, err := NewEventMonitor(fake, nil, store, pm, Options{BatchSize: 10})
	assert.Error(t, err)

	contracts := []*chain.Contract{testutil.NewDAOFactory(t, 0)}
	_, err = NewEventMonitor(fake, contracts, store, pm, Options{BatchSize: 0})
	assert.Error(t, err)
	_, err = NewEventMonitor(fake, contracts, store, pm, Options{BatchSize: 1, Confirmations: -1})
	assert.Error(t, err)
}

func TestPoll_IndexesAcrossBatches(t *testing.T) {
	h := newHarness(t, 100, 1, Options{BatchSize: 7})
	h.emit(t, 3, 0xa1, 0)
	h.emit(t, 3, 0xa1, 1)
	h.emit(t, 40, 0xa2, 0)
	h.emit(t, 99, 0xa3, 4)
	h.fake.SetBlockTimestamp(40, 424242)

	require.NoError(t, h.monitor.Poll(context.Background()))

	assert.Equal(t, int64(4), h.count(t))
	assert.Equal(t, int64(100), h.cursor(t))

	record, err := h.store.Get(context.Background(), model.NewRecordID(common.BytesToHash([]byte{0xa2}), 0))
	require.NoError(t, err)
	assert.Equal(t, int64(40), record.BlockNumber)
	assert.Equal(t, int64(424242), record.BlockTimestamp)

	status := h.monitor.Status()
	assert.Equal(t, int64(100), status.Cursor)
	assert.Equal(t, int64(100), status.Head)
	assert.Equal(t, []string{"dao_factory"}, status.Contracts)
}

func TestPoll_WaitsForConfirmations(t *testing.T) {
	h := newHarness(t, 50, 1, Options{BatchSize: 100, Confirmations: 12})
	h.emit(t, 30, 0x01, 0)
	h.emit(t, 45, 0x02, 0)

	require.NoError(t, h.monitor.Poll(context.Background()))
	assert.Equal(t, int64(1), h.count(t))
	assert.Equal(t, int64(38), h.cursor(t))

	h.fake.SetHead(60)
	require.NoError(t, h.monitor.Poll(context.Background()))
	assert.Equal(t, int64(2), h.count(t))
	assert.Equal(t, int64(48), h.cursor(t))
}

func TestPoll_ResumesFromCursor(t *testing.T) {
	h := newHarness(t, 100, 1, Options{BatchSize: 50})
	h.emit(t, 10, 0x01, 0)
	h.emit(t, 60, 0x02, 0)
	require.NoError(t, h.store.SaveCursor(context.Background(), CursorName, 20))

	require.NoError(t, h.monitor.Poll(context.Background()))

	assert.Equal(t, int64(1), h.count(t))
	_, err := h.store.Get(context.Background(), model.NewRecordID(common.BytesToHash([]byte{0x02}), 0))
	assert.NoError(t, err)
}

func TestPoll_StartsAtDeployBlock(t *testing.T) {
	h := newHarness(t, 100, 50, Options{BatchSize: 1000})
	h.emit(t, 10, 0x01, 0)
	h.emit(t, 55, 0x02, 0)

	require.NoError(t, h.monitor.Poll(context.Background()))

	assert.Equal(t, int64(1), h.count(t))
}

func TestPoll_ReplayIsIdempotent(t *testing.T) {
	h := newHarness(t, 20, 1, Options{BatchSize: 5})
	h.emit(t, 2, 0x01, 0)
	h.emit(t, 2, 0x01, 1)
	h.emit(t, 17, 0x02, 3)

	require.NoError(t, h.monitor.Poll(context.Background()))
	require.Equal(t, int64(3), h.count(t))

	// 重置进度, 所有日志重新投递
	require.NoError(t, h.store.SaveCursor(context.Background(), CursorName, 0))
	require.NoError(t, h.monitor.Poll(context.Background()))

	assert.Equal(t, int64(3), h.count(t))
}

func TestPoll_SkipsMalformedAndRemovedLogs(t *testing.T) {
	h := newHarness(t, 20, 1, Options{BatchSize: 100})
	h.emit(t, 5, 0x01, 0)

	bad, err := h.contract.EncodeDAOCreated(testutil.FixtureEvent())
	require.NoError(t, err)
	bad.BlockNumber = 6
	bad.Data = bad.Data[:32]
	h.fake.AddLog(bad)

	removed, err := h.contract.EncodeDAOCreated(testutil.FixtureEvent())
	require.NoError(t, err)
	removed.BlockNumber = 7
	removed.Removed = true
	h.fake.AddLog(removed)

	require.NoError(t, h.monitor.Poll(context.Background()))

	assert.Equal(t, int64(1), h.count(t))
	assert.Equal(t, int64(20), h.cursor(t))
}

func TestPoll_FilterErrorKeepsCursor(t *testing.T) {
	h := newHarness(t, 20, 1, Options{BatchSize: 10})
	h.emit(t, 15, 0x01, 0)
	h.fake.FilterErr = errors.New("connection reset")

	err := h.monitor.Poll(context.Background())
	require.Error(t, err)
	assert.Zero(t, h.cursor(t))
	assert.Equal(t, 1, h.monitor.Status().RetryCount)
	assert.Nil(t, h.monitor.Status().BackoffUntil, "plain errors do not back off")

	h.fake.FilterErr = nil
	require.NoError(t, h.monitor.Poll(context.Background()))
	assert.Equal(t, int64(1), h.count(t))
	assert.Equal(t, 0, h.monitor.Status().RetryCount)
}

func TestPoll_PersistenceFailureAbortsBatch(t *testing.T) {
	fake := testutil.NewFakeChain(20)
	cursors := repository.NewMemoryStore()
	contract := testutil.NewDAOFactory(t, 1)
	storeErr := errors.New("disk full")

	m, err := NewEventMonitor(fake, []*chain.Contract{contract}, cursors,
		processor.NewProcessorManager(&failingStore{err: storeErr}), Options{BatchSize: 100})
	require.NoError(t, err)

	l, err := contract.EncodeDAOCreated(testutil.FixtureEvent())
	require.NoError(t, err)
	l.BlockNumber = 5
	fake.AddLog(l)

	err = m.Poll(context.Background())
	assert.ErrorIs(t, err, storeErr)

	cursor, err := cursors.LoadCursor(context.Background(), CursorName)
	require.NoError(t, err)
	assert.Zero(t, cursor)
}

func TestPoll_RateLimitBacksOff(t *testing.T) {
	h := newHarness(t, 20, 1, Options{BatchSize: 100})
	h.emit(t, 5, 0x01, 0)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h.monitor.now = func() time.Time { return now }
	h.fake.FilterErr = errors.New("429 Too Many Requests")

	require.Error(t, h.monitor.Poll(context.Background()))
	calls := h.fake.FilterCalls
	require.NotNil(t, h.monitor.Status().BackoffUntil)

	// 退避期间不访问节点
	h.fake.FilterErr = nil
	require.NoError(t, h.monitor.Poll(context.Background()))
	assert.Equal(t, calls, h.fake.FilterCalls)
	assert.Zero(t, h.count(t))

	now = now.Add(backoffStep + time.Second)
	require.NoError(t, h.monitor.Poll(context.Background()))
	assert.Equal(t, int64(1), h.count(t))
	assert.Nil(t, h.monitor.Status().BackoffUntil)
}

func TestSyncTo_StopsAtTarget(t *testing.T) {
	h := newHarness(t, 100, 1, Options{BatchSize: 10})
	h.emit(t, 20, 0x01, 0)
	h.emit(t, 80, 0x02, 0)

	require.NoError(t, h.monitor.SyncTo(context.Background(), 50))

	assert.Equal(t, int64(1), h.count(t))
	assert.Equal(t, int64(50), h.cursor(t))
}

func TestIsAPIRateLimitError(t *testing.T) {
	assert.True(t, isAPIRateLimitError(errors.New("Too Many Requests")))
	assert.True(t, isAPIRateLimitError(rpc.HTTPError{StatusCode: 429, Status: "429"}))
	assert.False(t, isAPIRateLimitError(errors.New("timeout")))
}

// failingStore 写入总是失败
type failingStore struct {
	repository.RecordStore
	err error
}

func (s *failingStore) Upsert(ctx context.Context, id []byte, record *model.DAOCreatedModel) error {
	return s.err
}
