package transaction

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zamaforge/zforge/internal/encryption"
)

// Encryptor produces ciphertext bundles for confidential calls.
type Encryptor interface {
	EncryptAmount(ctx context.Context, target, caller common.Address, amount uint64) (*encryption.Bundle, error)
}

// BalanceChecker validates amounts against the known available balance
// and applies local decrements after an outgoing transfer.
type BalanceChecker interface {
	// CheckAvailable compares the decimal amount with the available
	// balance of token. Unknown balances pass.
	CheckAvailable(token common.Address, amount string) error
	// Debit subtracts raw units from the cached balance of token.
	Debit(token common.Address, raw *big.Int)
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}
