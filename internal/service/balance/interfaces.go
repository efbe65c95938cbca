package balance

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zamaforge/zforge/internal/decryption"
)

// Decryptor reveals a confidential balance handle.
// Satisfied by decryption.Protocol.
type Decryptor interface {
	Reveal(ctx context.Context, handle string, contract common.Address) (decryption.Result, error)
}

// Store persists decrypted balances between runs, each with the handle it
// was decrypted from. Satisfied by tokenstore.Store.
type Store interface {
	DecryptedBalance(token common.Address) (raw *big.Int, handle string, ok bool)
	SetDecryptedBalance(token common.Address, raw *big.Int, handle string) error
}

// LogWriter is the logging surface the service needs.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
