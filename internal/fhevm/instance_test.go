package fhevm_test

import (
	"context"
	"errors"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamaforge/zforge/internal/chain/eth"
	"github.com/zamaforge/zforge/internal/fhevm"
	"github.com/zamaforge/zforge/internal/fhevm/fhevmtest"
	"github.com/zamaforge/zforge/internal/relayer"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

var (
	testToken = common.HexToAddress("0xD659cfc0D1642aEc9aa7B3fbcd339B836A1b6d60")
	errDown   = errors.New("relayer down")
)

// decryptOne runs the full user decryption flow for one handle held by testToken.
func decryptOne(t *testing.T, inst fhevm.Instance, handle string) (*big.Int, error) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	user := crypto.PubkeyToAddress(key.PublicKey)

	kp, err := inst.GenerateKeypair()
	require.NoError(t, err)

	start := time.Now().Unix()
	contracts := []common.Address{testToken}
	typed, err := inst.CreateEIP712(kp.PublicKey, contracts, start, 10)
	require.NoError(t, err)
	sig, err := eth.SignTypedDataWithKey(typed, key)
	require.NoError(t, err)

	res, err := inst.UserDecrypt(context.Background(), &fhevm.UserDecryptParams{
		Pairs:          []fhevm.HandleContractPair{{Handle: handle, Contract: testToken}},
		PrivateKey:     kp.PrivateKey,
		PublicKey:      kp.PublicKey,
		Signature:      sig,
		Contracts:      contracts,
		User:           user,
		StartTimestamp: start,
		DurationDays:   10,
	})
	if err != nil {
		return nil, err
	}
	norm, err := fhevm.NormalizeHandle(handle)
	require.NoError(t, err)
	return res[norm], nil
}

func TestCreateInstance(t *testing.T) {
	t.Parallel()

	t.Run("fetches network key", func(t *testing.T) {
		t.Parallel()
		fake := fhevmtest.New(fhevmtest.Network())
		inst, err := fake.Instance(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(11155111), inst.ChainID())
		assert.Equal(t, "test-key", inst.PublicKeyID())
		assert.Equal(t, 1, fake.KeyCalls)
	})

	t.Run("relayer failure", func(t *testing.T) {
		t.Parallel()
		fake := fhevmtest.New(fhevmtest.Network())
		fake.FailKey = errDown
		_, err := fake.Instance(context.Background())
		require.ErrorIs(t, err, zferr.ErrSDKInitialization)
		require.ErrorIs(t, err, errDown)
	})

	t.Run("incomplete network", func(t *testing.T) {
		t.Parallel()
		network := fhevmtest.Network()
		network.VerifyingContractDecryption = common.Address{}
		_, err := fhevm.CreateInstance(context.Background(), network, fhevmtest.New(network))
		require.ErrorIs(t, err, zferr.ErrSDKInitialization)
	})
}

// TestEncryptThenDecrypt covers the round trip of an amount through the relayer.
func TestEncryptThenDecrypt(t *testing.T) {
	t.Parallel()

	fake := fhevmtest.New(fhevmtest.Network())
	inst, err := fake.Instance(context.Background())
	require.NoError(t, err)

	user := common.HexToAddress("0x71C7656EC7ab88b098defB751B7401B5f6d8976F")
	enc, err := inst.CreateEncryptedInput(testToken, user).Add64(5_000_000).Encrypt(context.Background())
	require.NoError(t, err)
	require.Len(t, enc.Handles, 1)

	proof, err := fhevm.ParseInputProof(enc.InputProof)
	require.NoError(t, err)
	assert.Equal(t, enc.Handles[0], proof.Handles[0][:])

	handle := hexutil.Encode(enc.Handles[0])
	info, err := fhevm.ParseHandle(handle)
	require.NoError(t, err)
	assert.Equal(t, fhevm.FheUint64, info.Type)

	got, err := decryptOne(t, inst, handle)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5_000_000), got)
}

// TestEncryptThenDecrypt_HTTP drives the same flow through the HTTP client.
func TestEncryptThenDecrypt_HTTP(t *testing.T) {
	t.Parallel()

	fake := fhevmtest.New(fhevmtest.Network())
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	client, err := relayer.NewClient(srv.URL, nil)
	require.NoError(t, err)
	inst, err := fhevm.CreateInstance(context.Background(), fhevmtest.Network(), client)
	require.NoError(t, err)

	enc, err := inst.CreateEncryptedInput(testToken, testToken).Add64(42).Encrypt(context.Background())
	require.NoError(t, err)

	got, err := decryptOne(t, inst, hexutil.Encode(enc.Handles[0]))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), got)
}

func TestEncrypt_Rejects(t *testing.T) {
	t.Parallel()

	fake := fhevmtest.New(fhevmtest.Network())
	inst, err := fake.Instance(context.Background())
	require.NoError(t, err)

	_, err = inst.CreateEncryptedInput(testToken, testToken).Encrypt(context.Background())
	require.ErrorIs(t, err, zferr.ErrInvalidInput)

	fake.FailInput = errDown
	_, err = inst.CreateEncryptedInput(testToken, testToken).Add64(1).Encrypt(context.Background())
	require.ErrorIs(t, err, errDown)
}

// tamperingRelayer rewrites the handles the verifier returns.
type tamperingRelayer struct {
	*fhevmtest.Relayer
}

func (r tamperingRelayer) InputProof(ctx context.Context, req *relayer.InputProofRequest) (*relayer.InputProofResponse, error) {
	resp, err := r.Relayer.InputProof(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Handles[0] = fhevmtest.Handle(9)
	return resp, nil
}

func TestEncrypt_RejectsForeignHandles(t *testing.T) {
	t.Parallel()

	api := tamperingRelayer{fhevmtest.New(fhevmtest.Network())}
	inst, err := fhevm.CreateInstance(context.Background(), fhevmtest.Network(), api)
	require.NoError(t, err)

	_, err = inst.CreateEncryptedInput(testToken, testToken).Add64(1).Encrypt(context.Background())
	require.ErrorIs(t, err, relayer.ErrRelayerResponse)
}

func TestUserDecrypt_Failures(t *testing.T) {
	t.Parallel()

	fake := fhevmtest.New(fhevmtest.Network())
	inst, err := fake.Instance(context.Background())
	require.NoError(t, err)
	handle := fhevmtest.Handle(1)
	fake.SetValue(handle, big.NewInt(7))

	t.Run("unknown handle", func(t *testing.T) {
		t.Parallel()
		_, err := decryptOne(t, inst, fhevmtest.Handle(2))
		require.ErrorIs(t, err, fhevmtest.ErrUnknownHandle)
	})

	t.Run("mismatched keypair", func(t *testing.T) {
		t.Parallel()
		a, err := fhevm.GenerateKeypair()
		require.NoError(t, err)
		b, err := fhevm.GenerateKeypair()
		require.NoError(t, err)
		_, err = inst.UserDecrypt(context.Background(), &fhevm.UserDecryptParams{
			Pairs:      []fhevm.HandleContractPair{{Handle: handle, Contract: testToken}},
			PublicKey:  a.PublicKey,
			PrivateKey: b.PrivateKey,
		})
		require.ErrorIs(t, err, zferr.ErrInvalidInput)
	})

	t.Run("signature from another account", func(t *testing.T) {
		t.Parallel()
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		kp, err := inst.GenerateKeypair()
		require.NoError(t, err)
		contracts := []common.Address{testToken}
		typed, err := inst.CreateEIP712(kp.PublicKey, contracts, 1_700_000_000, 10)
		require.NoError(t, err)
		sig, err := eth.SignTypedDataWithKey(typed, key)
		require.NoError(t, err)

		_, err = inst.UserDecrypt(context.Background(), &fhevm.UserDecryptParams{
			Pairs:          []fhevm.HandleContractPair{{Handle: handle, Contract: testToken}},
			PrivateKey:     kp.PrivateKey,
			PublicKey:      kp.PublicKey,
			Signature:      sig,
			Contracts:      contracts,
			User:           testToken,
			StartTimestamp: 1_700_000_000,
			DurationDays:   10,
		})
		require.ErrorIs(t, err, fhevmtest.ErrBadSignature)
	})

	t.Run("no handles", func(t *testing.T) {
		t.Parallel()
		_, err := inst.UserDecrypt(context.Background(), &fhevm.UserDecryptParams{})
		require.ErrorIs(t, err, zferr.ErrInvalidInput)
	})
}

func TestUserDecrypt_SendsBareHex(t *testing.T) {
	t.Parallel()

	fake := fhevmtest.New(fhevmtest.Network())
	inst, err := fake.Instance(context.Background())
	require.NoError(t, err)
	handle := fhevmtest.Handle(3)
	fake.SetValue(handle, big.NewInt(0))

	got, err := decryptOne(t, inst, handle)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Sign())

	req := fake.LastDecrypt
	require.NotNil(t, req)
	assert.NotContains(t, req.Signature, "0x")
	assert.NotContains(t, req.PublicKey, "0x")
	assert.Equal(t, "11155111", req.ContractsChainID)
	assert.Equal(t, "10", req.RequestValidity.DurationDays)
}
