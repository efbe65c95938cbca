// Package secret handles password sealing and locked memory for wallet
// material.
package secret

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// ErrEmptyPassword is returned when sealing with an empty password.
var ErrEmptyPassword = errors.New("password is empty")

// Seal encrypts plaintext to an age scrypt recipient derived from password.
func Seal(plaintext, password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	recipient, err := age.NewScryptRecipient(string(password))
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing sealed data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	return buf.Bytes(), nil
}

// Open decrypts a sealed blob into a locked Buffer. A wrong password or a
// damaged blob yields ErrWalletLocked.
func Open(sealed, password []byte) (*Buffer, error) {
	identity, err := age.NewScryptIdentity(string(password))
	if err != nil {
		return nil, zferr.WithCause(zferr.ErrWalletLocked, err)
	}

	r, err := age.Decrypt(bytes.NewReader(sealed), identity)
	if err != nil {
		return nil, zferr.WithCause(zferr.ErrWalletLocked, err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, zferr.WithCause(zferr.ErrWalletLocked, err)
	}
	return Take(plaintext), nil
}
