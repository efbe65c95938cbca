package fhevm

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// Keypair is an ephemeral decryption keypair. Both keys are 0x-prefixed hex.
// The private key never leaves the process.
type Keypair struct {
	PublicKey  string
	PrivateKey string
}

// GenerateKeypair creates a fresh X25519 keypair for one decryption.
func (i *RelayerInstance) GenerateKeypair() (*Keypair, error) {
	return GenerateKeypair()
}

// GenerateKeypair creates a fresh X25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating keypair: %w", err)
	}
	kp := &Keypair{
		PublicKey:  hexutil.Encode(pub[:]),
		PrivateKey: hexutil.Encode(priv[:]),
	}
	clear(priv[:])
	return kp, nil
}

// parseKeypair decodes and cross-checks both halves of a keypair.
func parseKeypair(publicKey, privateKey string) (pub, priv *[32]byte, err error) {
	pubBytes, err := decodeKey(publicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("public key: %w", err)
	}
	privBytes, err := decodeKey(privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("private key: %w", err)
	}

	derived, err := curve25519.X25519(privBytes[:], curve25519.Basepoint)
	if err != nil || subtle.ConstantTimeCompare(derived, pubBytes[:]) != 1 {
		return nil, nil, fmt.Errorf("public key does not match private key: %w", zferr.ErrInvalidInput)
	}
	return pubBytes, privBytes, nil
}

func decodeKey(s string) (*[32]byte, error) {
	b, err := decodeHex(s)
	if err != nil || len(b) != 32 {
		return nil, fmt.Errorf("expected 32-byte hex key: %w", zferr.ErrInvalidInput)
	}
	var out [32]byte
	copy(out[:], b)
	return &out, nil
}
