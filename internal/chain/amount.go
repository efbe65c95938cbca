package chain

import (
	"math/big"
	"strings"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// ParseDecimalAmount parses a decimal amount string into base units using
// the token's declared decimals. For example "1.5" with 6 decimals returns
// 1500000. Fractional digits beyond decimals are accepted only when they are
// zeros; anything else is rejected rather than silently truncated.
//
//nolint:gocognit,gocyclo // Decimal parsing requires sequential validation steps
func ParseDecimalAmount(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, zferr.ErrAmountRequired
	}
	invalid := zferr.WithDetails(zferr.ErrInvalidAmount, map[string]string{"amount": amount})

	if strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return nil, invalid
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, invalid
	}

	intPart := parts[0]
	decPart := ""
	if len(parts) == 2 {
		decPart = parts[1]
	}
	if intPart == "" && decPart == "" {
		return nil, invalid
	}
	if intPart == "" {
		intPart = "0"
	}
	if !allDigits(intPart) || !allDigits(decPart) {
		return nil, invalid
	}

	intVal, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, invalid
	}

	result := new(big.Int).Mul(intVal, Pow10(decimals))

	if len(decPart) > int(decimals) {
		if strings.Trim(decPart[decimals:], "0") != "" {
			return nil, zferr.WithDetails(zferr.ErrInvalidAmount, map[string]string{
				"amount": amount,
				"reason": "more fractional digits than the token supports",
			})
		}
		decPart = decPart[:decimals]
	}
	decPart += strings.Repeat("0", int(decimals)-len(decPart))

	if decPart != "" {
		decVal, ok := new(big.Int).SetString(decPart, 10)
		if !ok {
			return nil, invalid
		}
		result.Add(result, decVal)
	}

	return result, nil
}

// ParseDecimalRat parses a non-negative decimal string exactly, keeping every
// fractional digit.
func ParseDecimalRat(amount string) (*big.Rat, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, zferr.ErrAmountRequired
	}
	parts := strings.Split(amount, ".")
	if len(parts) > 2 || !allDigits(parts[0]) || (len(parts) == 2 && !allDigits(parts[1])) ||
		strings.Join(parts, "") == "" {
		return nil, zferr.WithDetails(zferr.ErrInvalidAmount, map[string]string{"amount": amount})
	}
	r, ok := new(big.Rat).SetString(amount)
	if !ok {
		return nil, zferr.WithDetails(zferr.ErrInvalidAmount, map[string]string{"amount": amount})
	}
	return r, nil
}

// ToUint64 narrows a base-unit amount to the 64-bit width confidential
// amounts are encrypted at.
func ToUint64(amount *big.Int) (uint64, error) {
	if amount == nil || amount.Sign() < 0 || !amount.IsUint64() {
		return 0, zferr.WithDetails(zferr.ErrInvalidAmount, map[string]string{
			"reason": "amount does not fit in 64 bits",
		})
	}
	return amount.Uint64(), nil
}

// Pow10 returns 10^decimals.
func Pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// FormatDecimalAmount converts base units to a human-readable string with
// the given decimals. Trailing fractional zeros are trimmed but one digit is
// always kept, e.g. 5000000 at 6 decimals is "5.0".
func FormatDecimalAmount(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if amount.Sign() < 0 {
		return "-" + FormatDecimalAmount(new(big.Int).Abs(amount), decimals)
	}
	if decimals == 0 {
		return amount.String()
	}

	str := amount.String()
	if pad := int(decimals) + 1 - len(str); pad > 0 {
		str = strings.Repeat("0", pad) + str
	}

	pos := len(str) - int(decimals)
	result := str[:pos] + "." + str[pos:]

	for len(result) > 1 && result[len(result)-1] == '0' && result[len(result)-2] != '.' {
		result = result[:len(result)-1]
	}

	return result
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
