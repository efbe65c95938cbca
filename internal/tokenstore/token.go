// Package tokenstore persists the user's token list per wallet address.
// The auto-managed faucet token is merged in on load and never written.
package tokenstore

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// Type distinguishes plain and confidential tokens.
type Type string

// Token types.
const (
	TypeERC20     Type = "erc20"
	TypeEncrypted Type = "encrypted"
)

// AutoManagedPrefix marks token ids the application owns.
const AutoManagedPrefix = "zamaforge_"

// Token is one entry of the token list. Balance is a display string;
// DecryptedBalance holds raw units once the owner decrypted it, and
// DecryptedHandle the ciphertext handle it was decrypted from.
type Token struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Symbol             string         `json:"symbol"`
	Decimals           uint8          `json:"decimals"`
	Balance            string         `json:"balance"`
	Type               Type           `json:"type"`
	Contract           common.Address `json:"contract_address"`
	IsBalanceEncrypted bool           `json:"is_balance_encrypted"`
	DecryptedBalance   string         `json:"decrypted_balance,omitempty"`
	DecryptedHandle    string         `json:"decrypted_handle,omitempty"`
}

// NewToken returns a token with a fresh id.
func NewToken(name, symbol string, decimals uint8, typ Type, contract common.Address) Token {
	return Token{
		ID:                 uuid.NewString(),
		Name:               name,
		Symbol:             symbol,
		Decimals:           decimals,
		Balance:            "0",
		Type:               typ,
		Contract:           contract,
		IsBalanceEncrypted: typ == TypeEncrypted,
	}
}

// AutoManaged builds the application-owned token for contract.
func AutoManaged(key, name, symbol string, decimals uint8, typ Type, contract common.Address) Token {
	t := NewToken(name, symbol, decimals, typ, contract)
	t.ID = AutoManagedPrefix + key
	return t
}

// IsAutoManaged reports whether the application owns t.
func (t Token) IsAutoManaged() bool {
	return strings.HasPrefix(t.ID, AutoManagedPrefix)
}

// Decrypted returns the decrypted raw balance, if known.
func (t Token) Decrypted() (*big.Int, bool) {
	if t.DecryptedBalance == "" {
		return nil, false
	}
	v, ok := new(big.Int).SetString(t.DecryptedBalance, 10)
	return v, ok
}

// Validate checks the fields a token needs before it is stored.
func (t Token) Validate() error {
	if t.Contract == (common.Address{}) {
		return zferr.WithDetails(zferr.ErrInvalidAddress, map[string]string{"field": "contract_address"})
	}
	if strings.TrimSpace(t.Symbol) == "" {
		return zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{"field": "symbol"})
	}
	switch t.Type {
	case TypeERC20, TypeEncrypted:
	default:
		return zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{"field": "type", "value": string(t.Type)})
	}
	return nil
}

// ParseType maps user input to a token type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "erc20", "plain":
		return TypeERC20, nil
	case "encrypted", "confidential":
		return TypeEncrypted, nil
	default:
		return "", zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{"type": s})
	}
}
