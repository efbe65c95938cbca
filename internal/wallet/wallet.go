package wallet

import (
	"crypto/ecdsa"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zamaforge/zforge/internal/fileutil"
	"github.com/zamaforge/zforge/internal/secret"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

const (
	fileName    = "wallet.json"
	fileVersion = 1
)

// Wallet is the on-disk wallet: public metadata plus the sealed mnemonic.
type Wallet struct {
	Version   int            `json:"version"`
	Address   common.Address `json:"address"`
	Path      string         `json:"derivation_path"`
	CreatedAt time.Time      `json:"created_at"`
	// SealedMnemonic is the age scrypt encrypted phrase.
	SealedMnemonic []byte `json:"sealed_mnemonic"`
}

// Store reads and writes the wallet file in a directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the wallet file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, fileName)
}

// Exists reports whether a wallet has been imported.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// Import validates mnemonic, derives its address, and writes the wallet
// sealed under password. An existing wallet is only replaced when
// overwrite is set.
func (s *Store) Import(mnemonic string, password []byte, overwrite bool) (*Wallet, error) {
	if !overwrite && s.Exists() {
		return nil, zferr.WithSuggestion(zferr.ErrWalletExists, "Pass --force to replace the existing wallet")
	}
	if len(password) == 0 {
		return nil, zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{"field": "password"})
	}
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}

	phrase := []byte(NormalizeMnemonicInput(mnemonic))
	defer secret.Zero(phrase)

	seed, err := MnemonicToSeed(string(phrase), "")
	if err != nil {
		return nil, err
	}
	key, addr, err := DeriveKey(seed)
	secret.Zero(seed)
	if err != nil {
		return nil, err
	}
	key.Destroy()

	sealed, err := secret.Seal(phrase, password)
	if err != nil {
		return nil, err
	}

	w := &Wallet{
		Version:        fileVersion,
		Address:        addr,
		Path:           DerivationPath,
		CreatedAt:      time.Now().UTC(),
		SealedMnemonic: sealed,
	}
	if err := fileutil.WriteJSON(s.Path(), w, 0o600); err != nil {
		return nil, err
	}
	return w, nil
}

// Load reads the wallet metadata without unlocking it.
func (s *Store) Load() (*Wallet, error) {
	var w Wallet
	found, err := fileutil.ReadJSON(s.Path(), &w)
	if err != nil {
		return nil, zferr.WithCause(zferr.ErrWalletLocked, err)
	}
	if !found {
		return nil, zferr.WithSuggestion(zferr.ErrWalletNotFound, "Run 'zforge wallet import' first")
	}
	return &w, nil
}

// Unlock opens the sealed mnemonic with password and derives the signing
// key. The caller zeroes the key with eth.ZeroKey when done.
func (s *Store) Unlock(password []byte) (*ecdsa.PrivateKey, error) {
	w, err := s.Load()
	if err != nil {
		return nil, err
	}

	phrase, err := secret.Open(w.SealedMnemonic, password)
	if err != nil {
		return nil, err
	}
	defer phrase.Destroy()

	seed, err := MnemonicToSeed(phrase.String(), "")
	if err != nil {
		return nil, err
	}
	buf, addr, err := DeriveKey(seed)
	secret.Zero(seed)
	if err != nil {
		return nil, err
	}
	defer buf.Destroy()

	if addr != w.Address {
		return nil, zferr.WithDetails(zferr.ErrWalletLocked, map[string]string{"reason": "derived address mismatch"})
	}
	return ECDSA(buf)
}

// Delete removes the wallet file.
func (s *Store) Delete() error {
	if err := os.Remove(s.Path()); err != nil {
		if os.IsNotExist(err) {
			return zferr.ErrWalletNotFound
		}
		return err
	}
	return nil
}
