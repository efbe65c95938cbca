package balance

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zamaforge/zforge/internal/chain"
)

// Request identifies the balance to refresh.
type Request struct {
	Token     common.Address
	Owner     common.Address
	Encrypted bool
}

// View is the per-token balance state. Plain tokens carry Balance;
// confidential tokens carry Handle and, once revealed, Decrypted.
type View struct {
	Token     common.Address
	Owner     common.Address
	Symbol    string
	Decimals  uint8
	Encrypted bool

	Balance   *big.Int
	Handle    string
	Decrypted *big.Int

	// DecryptErr is set when the last reveal fell back to the default value.
	DecryptErr error
}

// Available returns the balance used for local checks, or false when it
// is not known (an encrypted balance that was never revealed).
func (v *View) Available() (*big.Int, bool) {
	if v == nil {
		return nil, false
	}
	if v.Encrypted {
		if v.Decrypted == nil {
			return nil, false
		}
		return v.Decrypted, true
	}
	if v.Balance == nil {
		return nil, false
	}
	return v.Balance, true
}

// Display formats the balance for humans. Unrevealed encrypted balances
// render as "encrypted".
func (v *View) Display() string {
	raw, ok := v.Available()
	if !ok {
		if v != nil && v.Encrypted {
			return "encrypted"
		}
		return "unknown"
	}
	return chain.FormatDecimalAmount(raw, v.Decimals)
}

func (v *View) clone() *View {
	c := *v
	if v.Balance != nil {
		c.Balance = new(big.Int).Set(v.Balance)
	}
	if v.Decrypted != nil {
		c.Decrypted = new(big.Int).Set(v.Decrypted)
	}
	return &c
}
