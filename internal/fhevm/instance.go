// Package fhevm is the client side of the fhEVM confidential computing
// protocol: it seals encrypted inputs to the network key, builds the
// EIP-712 authorization for user decryption, and opens the re-encrypted
// results returned through the relayer.
package fhevm

import (
	"context"
	"fmt"
	"math/big"

	"filippo.io/age"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/zamaforge/zforge/internal/chain"
	"github.com/zamaforge/zforge/internal/relayer"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// Instance is a cryptographic SDK instance bound to one network.
type Instance interface {
	// ChainID is the chain the instance was created for.
	ChainID() uint64
	// CreateEncryptedInput starts an input bound to contract and user.
	CreateEncryptedInput(contract, user common.Address) InputBuilder
	// GenerateKeypair creates an ephemeral decryption keypair.
	GenerateKeypair() (*Keypair, error)
	// CreateEIP712 builds the typed data the user signs to authorize decryption.
	CreateEIP712(publicKey string, contracts []common.Address, startTimestamp int64, durationDays int) (*apitypes.TypedData, error)
	// UserDecrypt asks the relayer to re-encrypt the handles to the keypair
	// and returns the plaintexts keyed by canonical handle.
	UserDecrypt(ctx context.Context, params *UserDecryptParams) (map[string]*big.Int, error)
}

// InputBuilder accumulates plaintext values for one encrypted input.
type InputBuilder interface {
	Add64(value uint64) InputBuilder
	Encrypt(ctx context.Context) (*EncryptedValues, error)
}

// EncryptedValues is the raw output of an encryption: one handle per value
// and a proof covering all of them.
type EncryptedValues struct {
	Handles    [][]byte
	InputProof []byte
}

// RelayerAPI is the relayer surface an instance needs.
type RelayerAPI interface {
	KeyInfo(ctx context.Context) (*relayer.KeyInfo, error)
	InputProof(ctx context.Context, req *relayer.InputProofRequest) (*relayer.InputProofResponse, error)
	UserDecrypt(ctx context.Context, req *relayer.UserDecryptRequest) ([]relayer.DecryptedShare, error)
}

var _ Instance = (*RelayerInstance)(nil)

// RelayerInstance is an Instance backed by a relayer.
type RelayerInstance struct {
	network   chain.Network
	api       RelayerAPI
	networkPK *age.X25519Recipient
	keyID     string
}

// CreateInstance fetches the network key and returns an instance bound to network.
func CreateInstance(ctx context.Context, network chain.Network, api RelayerAPI) (*RelayerInstance, error) {
	if err := network.Validate(); err != nil {
		return nil, zferr.WithCause(zferr.ErrSDKInitialization, err)
	}
	if api == nil {
		return nil, zferr.WithCause(zferr.ErrSDKInitialization, fmt.Errorf("no relayer configured"))
	}

	info, err := api.KeyInfo(ctx)
	if err != nil {
		return nil, zferr.WithCause(zferr.ErrSDKInitialization, fmt.Errorf("fetching network key: %w", err))
	}

	recipient, err := age.ParseX25519Recipient(info.PublicKey)
	if err != nil {
		return nil, zferr.WithCause(zferr.ErrSDKInitialization, fmt.Errorf("parsing network key %q: %w", info.PublicKeyID, err))
	}

	return &RelayerInstance{
		network:   network,
		api:       api,
		networkPK: recipient,
		keyID:     info.PublicKeyID,
	}, nil
}

// ChainID returns the host chain ID.
func (i *RelayerInstance) ChainID() uint64 {
	return i.network.ChainID
}

// Network returns the network the instance is bound to.
func (i *RelayerInstance) Network() chain.Network {
	return i.network
}

// PublicKeyID identifies the network key inputs are sealed to.
func (i *RelayerInstance) PublicKeyID() string {
	return i.keyID
}

// CreateEIP712 builds the user decryption authorization for this network.
func (i *RelayerInstance) CreateEIP712(publicKey string, contracts []common.Address, startTimestamp int64, durationDays int) (*apitypes.TypedData, error) {
	return BuildUserDecryptEIP712(i.network, publicKey, contracts, startTimestamp, durationDays)
}
