package processor

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panchen451161722/daoaiagent/internal/model"
	"github.com/panchen451161722/daoaiagent/internal/repository"
	"github.com/panchen451161722/daoaiagent/internal/testutil"
)

func TestProcessorManager_RegistersDAOCreated(t *testing.T) {
	pm := NewProcessorManager(repository.NewMemoryStore())

	assert.Equal(t, []string{model.DAOCreatedEventName}, pm.GetSupportedEventNames())
	_, ok := pm.GetProcessor(model.DAOCreatedEventName)
	assert.True(t, ok)
}

func TestProcessorManager_ProcessLog(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	pm := NewProcessorManager(store)
	contract := testutil.NewDAOFactory(t, 0)

	l, err := contract.EncodeDAOCreated(testutil.FixtureEvent())
	require.NoError(t, err)

	require.NoError(t, pm.ProcessLog(ctx, contract, l, 42))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestProcessorManager_SkipsUnknownEvent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	pm := NewProcessorManager(store)
	contract := testutil.NewDAOFactory(t, 0)

	l, err := contract.EncodeDAOCreated(testutil.FixtureEvent())
	require.NoError(t, err)
	l.Topics[0] = common.HexToHash("0xfeed")

	require.NoError(t, pm.ProcessLog(ctx, contract, l, 0))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
