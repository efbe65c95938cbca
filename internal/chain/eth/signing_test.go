package eth

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

func sampleTypedData() *apitypes.TypedData {
	chainID := math.NewHexOrDecimal256(55815)
	return &apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"UserDecryptRequestVerification": {
				{Name: "publicKey", Type: "bytes"},
				{Name: "contractAddresses", Type: "address[]"},
				{Name: "startTimestamp", Type: "uint256"},
				{Name: "durationDays", Type: "uint256"},
				{Name: "extraData", Type: "bytes"},
			},
		},
		PrimaryType: "UserDecryptRequestVerification",
		Domain: apitypes.TypedDataDomain{
			Name:              "Decryption",
			Version:           "1",
			ChainId:           chainID,
			VerifyingContract: "0xb6E160B1ff80D67Bfe90A85eE06Ce0A2613607D1",
		},
		Message: apitypes.TypedDataMessage{
			"publicKey":         "0x" + strings.Repeat("ab", 32),
			"contractAddresses": []any{"0xD659cfc0D1642aEc9aa7B3fbcd339B836A1b6d60"},
			"startTimestamp":    "1700000000",
			"durationDays":      "10",
			"extraData":         "0x00",
		},
	}
}

func TestSignTypedData_RecoversSigner(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, newMockRPC(t), nil)
	addr := connectTestKey(t, c)

	sig, err := c.SignTypedData(context.Background(), sampleTypedData())
	require.NoError(t, err)

	raw := hexutil.MustDecode(sig)
	require.Len(t, raw, crypto.SignatureLength)
	assert.Contains(t, []byte{27, 28}, raw[crypto.RecoveryIDOffset])

	signer, err := RecoverTypedDataSigner(sampleTypedData(), sig)
	require.NoError(t, err)
	assert.Equal(t, addr, signer)
}

func TestSignTypedData_NotConnected(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, newMockRPC(t), nil)
	_, err := c.SignTypedData(context.Background(), sampleTypedData())
	require.ErrorIs(t, err, zferr.ErrWalletNotConnected)
}

func TestSignTypedData_Rejected(t *testing.T) {
	t.Parallel()
	var asked string
	c := newTestClient(t, newMockRPC(t), &ClientOptions{
		Confirm: func(_ context.Context, action string) (bool, error) {
			asked = action
			return false, nil
		},
	})
	connectTestKey(t, c)

	_, err := c.SignTypedData(context.Background(), sampleTypedData())
	require.ErrorIs(t, err, zferr.ErrSignatureRejected)
	assert.Equal(t, "Sign UserDecryptRequestVerification", asked)
}

func TestRecoverTypedDataSigner_BadSignature(t *testing.T) {
	t.Parallel()
	_, err := RecoverTypedDataSigner(sampleTypedData(), "0x1234")
	require.ErrorIs(t, err, zferr.ErrInvalidInput)

	_, err = RecoverTypedDataSigner(sampleTypedData(), "zz")
	require.Error(t, err)
}

func TestZeroKey(t *testing.T) {
	t.Parallel()
	k, err := crypto.GenerateKey()
	require.NoError(t, err)
	ZeroKey(k)
	assert.Equal(t, 0, k.D.Sign())
	ZeroKey(nil)
}

func TestHandleArg(t *testing.T) {
	t.Parallel()
	h := "0x" + strings.Repeat("0f", 32)
	arg, err := HandleArg(h)
	require.NoError(t, err)
	assert.Equal(t, byte(0x0f), arg[31])

	_, err = HandleArg("0x1234")
	require.ErrorIs(t, err, zferr.ErrInvalidHandle)

	proof, err := ProofArg("0x0102")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, proof)

	_, err = ProofArg("nope")
	require.ErrorIs(t, err, zferr.ErrInvalidInput)
}
