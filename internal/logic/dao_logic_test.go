package logic

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panchen451161722/daoaiagent/internal/model"
	"github.com/panchen451161722/daoaiagent/internal/repository"
)

func TestGetDAOs_NormalizesQuery(t *testing.T) {
	l := NewDAOLogic(repository.NewMemoryStore())

	_, total, query, err := l.GetDAOs(context.Background(), "", "", 0, 1000)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Equal(t, 1, query.Page)
	assert.Equal(t, 100, query.PageSize)
}

func TestGetDAOs_LowercaseFilterMatches(t *testing.T) {
	store := repository.NewMemoryStore()
	dao := common.HexToAddress("0x00000000000000000000000000000000000000Ab")
	require.NoError(t, store.Upsert(context.Background(), model.NewRecordID(common.HexToHash("0x01"), 0), &model.DAOCreatedModel{
		DaoAddress: dao.Hex(),
		Creator:    dao.Hex(),
	}))

	records, total, _, err := NewDAOLogic(store).GetDAOs(context.Background(), "", "0x00000000000000000000000000000000000000ab", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, records, 1)
}

func TestGetDAO_Errors(t *testing.T) {
	l := NewDAOLogic(repository.NewMemoryStore())

	_, err := l.GetDAO(context.Background(), "zz")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = l.GetDAO(context.Background(), model.RecordIDString(model.NewRecordID(common.HexToHash("0x01"), 1)))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetDAO_StoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	l := NewDAOLogic(&brokenStore{err: storeErr})

	_, err := l.GetDAO(context.Background(), model.RecordIDString(model.NewRecordID(common.HexToHash("0x01"), 1)))
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = l.GetStats(context.Background())
	assert.ErrorIs(t, err, storeErr)
}

type brokenStore struct {
	repository.RecordStore
	err error
}

func (s *brokenStore) Get(ctx context.Context, id []byte) (*model.DAOCreatedModel, error) {
	return nil, s.err
}

func (s *brokenStore) Count(ctx context.Context) (int64, error) {
	return 0, s.err
}
