package eth

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// SignTypedData hashes the EIP-712 payload and signs it with the connected key.
func (c *Client) SignTypedData(ctx context.Context, data *apitypes.TypedData) (string, error) {
	key, err := c.signingKey()
	if err != nil {
		return "", err
	}
	if err := c.approve(ctx, "Sign "+data.PrimaryType, zferr.ErrSignatureRejected); err != nil {
		return "", err
	}
	return SignTypedDataWithKey(data, key)
}

// SignTypedDataWithKey returns a 65-byte [R || S || V] signature with V in {27, 28}.
func SignTypedDataWithKey(data *apitypes.TypedData, key *ecdsa.PrivateKey) (string, error) {
	hash, _, err := apitypes.TypedDataAndHash(*data)
	if err != nil {
		return "", fmt.Errorf("hashing typed data: %w", err)
	}

	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return "", fmt.Errorf("signing typed data: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	return hexutil.Encode(sig), nil
}

// RecoverTypedDataSigner returns the address that produced signature over data.
func RecoverTypedDataSigner(data *apitypes.TypedData, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("decoding signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature length %d: %w", len(sig), zferr.ErrInvalidInput)
	}

	hash, _, err := apitypes.TypedDataAndHash(*data)
	if err != nil {
		return common.Address{}, fmt.Errorf("hashing typed data: %w", err)
	}

	sig = append([]byte(nil), sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recovering signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// ZeroKey overwrites the private scalar of key.
func ZeroKey(key *ecdsa.PrivateKey) {
	if key == nil || key.D == nil {
		return
	}
	key.D.SetInt64(0)
}
