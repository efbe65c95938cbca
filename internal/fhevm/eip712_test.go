package fhevm_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamaforge/zforge/internal/fhevm"
	"github.com/zamaforge/zforge/internal/fhevm/fhevmtest"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

func TestBuildUserDecryptEIP712(t *testing.T) {
	t.Parallel()

	kp, err := fhevm.GenerateKeypair()
	require.NoError(t, err)
	network := fhevmtest.Network()

	typed, err := fhevm.BuildUserDecryptEIP712(network, kp.PublicKey, []common.Address{testToken}, 1_700_000_000, 10)
	require.NoError(t, err)

	assert.Equal(t, fhevm.UserDecryptPrimaryType, typed.PrimaryType)
	assert.Equal(t, "Decryption", typed.Domain.Name)
	assert.Equal(t, "1", typed.Domain.Version)
	assert.Equal(t, int64(55815), (*big.Int)(typed.Domain.ChainId).Int64())
	assert.Equal(t, network.VerifyingContractDecryption.Hex(), typed.Domain.VerifyingContract)
	assert.Equal(t, "1700000000", typed.Message["startTimestamp"])
	assert.Equal(t, "10", typed.Message["durationDays"])
	assert.Equal(t, []any{testToken.Hex()}, typed.Message["contractAddresses"])

	_, _, err = apitypes.TypedDataAndHash(*typed)
	require.NoError(t, err)
}

func TestBuildUserDecryptEIP712_FallsBackToHostChain(t *testing.T) {
	t.Parallel()

	kp, err := fhevm.GenerateKeypair()
	require.NoError(t, err)
	network := fhevmtest.Network()
	network.GatewayChainID = 0

	typed, err := fhevm.BuildUserDecryptEIP712(network, kp.PublicKey, []common.Address{testToken}, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), (*big.Int)(typed.Domain.ChainId).Int64())
}

func TestBuildUserDecryptEIP712_Rejects(t *testing.T) {
	t.Parallel()

	kp, err := fhevm.GenerateKeypair()
	require.NoError(t, err)
	network := fhevmtest.Network()
	tooMany := make([]common.Address, fhevm.MaxDecryptContracts+1)

	tests := []struct {
		name      string
		pub       string
		contracts []common.Address
		days      int
	}{
		{"bad key", "0x1234", []common.Address{testToken}, 1},
		{"no contracts", kp.PublicKey, nil, 1},
		{"too many contracts", kp.PublicKey, tooMany, 1},
		{"zero duration", kp.PublicKey, []common.Address{testToken}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := fhevm.BuildUserDecryptEIP712(network, tt.pub, tt.contracts, 1, tt.days)
			require.ErrorIs(t, err, zferr.ErrInvalidInput)
		})
	}
}
