package chain_test

import (
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panchen451161722/daoaiagent/internal/chain"
	"github.com/panchen451161722/daoaiagent/internal/config"
	"github.com/panchen451161722/daoaiagent/internal/model"
	"github.com/panchen451161722/daoaiagent/internal/testutil"
)

var daoCreatedTopic = crypto.Keccak256Hash([]byte("DAOCreated(address,address,uint256,bytes32)"))

func TestEncodeDAOCreated_MatchesFactoryLayout(t *testing.T) {
	contract := testutil.NewDAOFactory(t, 0)
	ev := testutil.FixtureEvent()

	l, err := contract.EncodeDAOCreated(ev)
	require.NoError(t, err)

	require.Len(t, l.Topics, 2)
	assert.Equal(t, daoCreatedTopic, l.Topics[0])
	assert.Equal(t, common.BytesToHash(ev.DAOAddress.Bytes()), l.Topics[1])
	// creator, timestamp, otherContentHash: three 32-byte words
	require.Len(t, l.Data, 96)
	assert.Equal(t, common.BytesToHash(ev.Creator.Bytes()).Bytes(), l.Data[:32])
	assert.Equal(t, common.BigToHash(big.NewInt(234)).Bytes(), l.Data[32:64])
	assert.Equal(t, testutil.FixtureContentHash(), [32]byte(l.Data[64:96]))
	assert.Equal(t, testutil.FactoryAddress, l.Address)
	assert.Equal(t, uint(1), l.Index)
}

func TestDecodeDAOCreated_RoundTrip(t *testing.T) {
	contract := testutil.NewDAOFactory(t, 0)
	ev := testutil.FixtureEvent()
	ev.BlockNumber = 77
	ev.LogIndex = 5

	l, err := contract.EncodeDAOCreated(ev)
	require.NoError(t, err)

	decoded, err := contract.DecodeDAOCreated(l, 1700000077)
	require.NoError(t, err)

	assert.Equal(t, ev.DAOAddress, decoded.DAOAddress)
	assert.Equal(t, ev.Creator, decoded.Creator)
	assert.Equal(t, 0, ev.Timestamp.Cmp(decoded.Timestamp))
	assert.Equal(t, ev.OtherContentHash, decoded.OtherContentHash)
	assert.Equal(t, ev.TxHash, decoded.TxHash)
	assert.Equal(t, uint32(5), decoded.LogIndex)
	assert.Equal(t, uint64(77), decoded.BlockNumber)
	assert.Equal(t, uint64(1700000077), decoded.BlockTimestamp)
}

func TestDecodeDAOCreated_Malformed(t *testing.T) {
	contract := testutil.NewDAOFactory(t, 0)
	good, err := contract.EncodeDAOCreated(testutil.FixtureEvent())
	require.NoError(t, err)

	missingTopic := good
	missingTopic.Topics = good.Topics[:1]

	wrongSig := good
	wrongSig.Topics = []common.Hash{common.HexToHash("0x1234"), good.Topics[1]}

	shortData := good
	shortData.Data = good.Data[:64]

	emptyData := good
	emptyData.Data = nil

	for name, l := range map[string]types.Log{
		"missing topic":   missingTopic,
		"wrong signature": wrongSig,
		"short data":      shortData,
		"empty data":      emptyData,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := contract.DecodeDAOCreated(l, 0)
			assert.True(t, errors.Is(err, chain.ErrMalformedEvent), "got %v", err)
		})
	}
}

func TestEventName(t *testing.T) {
	contract := testutil.NewDAOFactory(t, 0)
	l, err := contract.EncodeDAOCreated(testutil.FixtureEvent())
	require.NoError(t, err)

	name, err := contract.EventName(l)
	require.NoError(t, err)
	assert.Equal(t, model.DAOCreatedEventName, name)

	l.Topics[0] = common.HexToHash("0xbeef")
	_, err = contract.EventName(l)
	assert.ErrorIs(t, err, chain.ErrUnknownEvent)

	l.Topics = nil
	_, err = contract.EventName(l)
	assert.ErrorIs(t, err, chain.ErrMalformedEvent)
}

func TestNewContract_CompiledOutputABI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "DAOFactory.json")
	compiled := `{"contractName":"DAOFactory","abi":[{"anonymous":false,"inputs":[` +
		`{"indexed":true,"name":"daoAddress","type":"address"},` +
		`{"indexed":false,"name":"creator","type":"address"},` +
		`{"indexed":false,"name":"timestamp","type":"uint256"},` +
		`{"indexed":false,"name":"otherContentHash","type":"bytes32"}],` +
		`"name":"DAOCreated","type":"event"}]}`
	require.NoError(t, os.WriteFile(path, []byte(compiled), 0o600))

	contract, err := chain.NewContract("factory", config.ContractConfig{
		Address: testutil.FactoryAddress.Hex(),
		ABIPath: path,
	}, config.ChainConfig{})
	require.NoError(t, err)

	l, err := contract.EncodeDAOCreated(testutil.FixtureEvent())
	require.NoError(t, err)
	assert.Equal(t, daoCreatedTopic, l.Topics[0])
}

func TestNewContract_RejectsWrongEventShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abi.json")
	wrong := `[{"anonymous":false,"inputs":[` +
		`{"indexed":true,"name":"daoAddress","type":"address"},` +
		`{"indexed":false,"name":"timestamp","type":"uint256"}],` +
		`"name":"DAOCreated","type":"event"}]`
	require.NoError(t, os.WriteFile(path, []byte(wrong), 0o600))

	_, err := chain.NewContract("factory", config.ContractConfig{
		Address: testutil.FactoryAddress.Hex(),
		ABIPath: path,
	}, config.ChainConfig{})
	assert.Error(t, err)
}

func TestNewContract_InvalidAddress(t *testing.T) {
	_, err := chain.NewContract("factory", config.ContractConfig{Address: "nope"}, config.ChainConfig{})
	assert.Error(t, err)
}
