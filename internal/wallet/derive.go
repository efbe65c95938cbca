package wallet

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"

	"github.com/zamaforge/zforge/internal/secret"
)

// DerivationPath is the BIP44 path of the signing key.
const DerivationPath = "m/44'/60'/0'/0/0"

//nolint:gochecknoglobals // path components of DerivationPath
var derivationIndexes = []uint32{
	bip32.FirstHardenedChild + 44,
	bip32.FirstHardenedChild + 60,
	bip32.FirstHardenedChild,
	0,
	0,
}

// DeriveKey derives the signing key at DerivationPath from seed. The
// returned buffer holds the 32-byte private key.
func DeriveKey(seed []byte) (*secret.Buffer, common.Address, error) {
	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("creating master key: %w", err)
	}
	for _, idx := range derivationIndexes {
		child, err := key.NewChildKey(idx)
		secret.Zero(key.Key)
		if err != nil {
			return nil, common.Address{}, fmt.Errorf("deriving %s: %w", DerivationPath, err)
		}
		key = child
	}

	priv, err := crypto.ToECDSA(key.Key)
	if err != nil {
		secret.Zero(key.Key)
		return nil, common.Address{}, fmt.Errorf("parsing derived key: %w", err)
	}
	addr := crypto.PubkeyToAddress(priv.PublicKey)
	zeroECDSA(priv)
	return secret.Take(key.Key), addr, nil
}

// ECDSA parses a key buffer from DeriveKey. The caller zeroes the result.
func ECDSA(buf *secret.Buffer) (*ecdsa.PrivateKey, error) {
	return crypto.ToECDSA(buf.Bytes())
}

func zeroECDSA(k *ecdsa.PrivateKey) {
	if k != nil && k.D != nil {
		k.D.SetInt64(0)
	}
}
