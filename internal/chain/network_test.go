package chain_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamaforge/zforge/internal/chain"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

func sepolia() chain.Network {
	return chain.Network{
		Name:                        "sepolia",
		ChainID:                     11155111,
		RelayerURL:                  "https://relayer.example.org",
		VerifyingContractDecryption: common.HexToAddress("0xb6E160B1ff80D67Bfe90A85eE06Ce0A2613607D1"),
	}
}

func TestNetwork_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, sepolia().Validate())

	n := sepolia()
	n.ChainID = 0
	require.ErrorIs(t, n.Validate(), zferr.ErrConfigInvalid)

	n = sepolia()
	n.RelayerURL = ""
	require.ErrorIs(t, n.Validate(), zferr.ErrConfigInvalid)

	n = sepolia()
	n.VerifyingContractDecryption = common.Address{}
	require.ErrorIs(t, n.Validate(), zferr.ErrMissingContract)
}

func TestNetwork_Key(t *testing.T) {
	t.Parallel()

	a := sepolia()
	b := sepolia()
	b.RelayerURL = "HTTPS://RELAYER.EXAMPLE.ORG"
	assert.Equal(t, a.Key(), b.Key())

	b.ChainID = 1
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestParseAddress(t *testing.T) {
	t.Parallel()

	addr, err := chain.ParseAddress(" 0xdc5a3601541518a3b52879ef5f231f6a624c93eb ")
	require.NoError(t, err)
	assert.Equal(t, "0xdc5A3601541518A3B52879ef5F231f6A624C93EB", addr.Hex())

	for _, bad := range []string{"", "0x123", "not-an-address", "0x0000000000000000000000000000000000000000"} {
		_, err := chain.ParseAddress(bad)
		require.ErrorIs(t, err, zferr.ErrInvalidAddress, bad)
	}
}
