package chain_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamaforge/zforge/internal/chain"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

func TestParseDecimalAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		amount   string
		decimals uint8
		expected string
	}{
		{"whole at 6", "5", 6, "5000000"},
		{"fraction at 6", "1.5", 6, "1500000"},
		{"smallest unit", "0.000001", 6, "1"},
		{"leading dot", ".25", 6, "250000"},
		{"trailing zeros beyond decimals", "5.00000000", 6, "5000000"},
		{"eighteen decimals", "1.5", 18, "1500000000000000000"},
		{"zero decimals", "42", 0, "42"},
		{"trailing dot", "7.", 2, "700"},
		{"spaces trimmed", " 3.1 ", 2, "310"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := chain.ParseDecimalAmount(tt.amount, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestParseDecimalAmount_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		amount string
		target error
	}{
		{"empty", "", zferr.ErrAmountRequired},
		{"negative", "-1", zferr.ErrInvalidAmount},
		{"plus sign", "+1", zferr.ErrInvalidAmount},
		{"letters", "1a", zferr.ErrInvalidAmount},
		{"two dots", "1.2.3", zferr.ErrInvalidAmount},
		{"only dot", ".", zferr.ErrInvalidAmount},
		{"excess precision", "5.0000001", zferr.ErrInvalidAmount},
		{"exponent", "1e6", zferr.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := chain.ParseDecimalAmount(tt.amount, 6)
			require.ErrorIs(t, err, tt.target)
		})
	}
}

func TestParseDecimalRat(t *testing.T) {
	t.Parallel()

	r, err := chain.ParseDecimalRat("5.0000001")
	require.NoError(t, err)
	assert.Equal(t, "50000001/10000000", r.String())

	_, err = chain.ParseDecimalRat("-1")
	require.ErrorIs(t, err, zferr.ErrInvalidAmount)

	_, err = chain.ParseDecimalRat("")
	require.ErrorIs(t, err, zferr.ErrAmountRequired)
}

func TestToUint64(t *testing.T) {
	t.Parallel()

	v, err := chain.ToUint64(big.NewInt(5_000_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), v)

	tooBig := new(big.Int).Lsh(big.NewInt(1), 64)
	_, err = chain.ToUint64(tooBig)
	require.ErrorIs(t, err, zferr.ErrInvalidAmount)

	_, err = chain.ToUint64(big.NewInt(-1))
	require.ErrorIs(t, err, zferr.ErrInvalidAmount)
}

func TestFormatDecimalAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount   *big.Int
		decimals uint8
		expected string
	}{
		{big.NewInt(5_000_000), 6, "5.0"},
		{big.NewInt(1_500_000), 6, "1.5"},
		{big.NewInt(1), 6, "0.000001"},
		{big.NewInt(0), 6, "0.0"},
		{big.NewInt(42), 0, "42"},
		{big.NewInt(-2_500_000), 6, "-2.5"},
		{nil, 6, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, chain.FormatDecimalAmount(tt.amount, tt.decimals))
		})
	}
}

func TestParseFormatAgree(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"5.0", "1.5", "0.000001", "123456.789"} {
		raw, err := chain.ParseDecimalAmount(s, 6)
		require.NoError(t, err)
		assert.Equal(t, s, chain.FormatDecimalAmount(raw, 6))
	}
}
