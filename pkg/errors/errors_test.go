package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

var (
	errInner = errors.New("inner")
	errPlain = errors.New("plain error")
)

func TestExitCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, zferr.ExitSuccess},
		{"general error", zferr.ErrGeneral, zferr.ExitGeneral},
		{"invalid amount", zferr.ErrInvalidAmount, zferr.ExitInput},
		{"wallet not connected", zferr.ErrWalletNotConnected, zferr.ExitAuth},
		{"signature rejected", zferr.ErrSignatureRejected, zferr.ExitAuth},
		{"token not found", zferr.ErrTokenNotFound, zferr.ExitNotFound},
		{"insufficient balance", zferr.ErrInsufficientBalance, zferr.ExitPermission},
		{"plain error", errPlain, zferr.ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, zferr.ExitCode(tt.err))
		})
	}
}

// TestUserVisibleFailuresAreDistinct ensures the user-facing failure kinds
// never collapse into one another.
func TestUserVisibleFailuresAreDistinct(t *testing.T) {
	t.Parallel()
	sentinels := []*zferr.ForgeError{
		zferr.ErrWalletNotConnected,
		zferr.ErrInsufficientBalance,
		zferr.ErrEncryptionFailed,
		zferr.ErrTxRejected,
		zferr.ErrDecryptionFailed,
		zferr.ErrSDKInitialization,
	}

	seen := make(map[string]bool)
	for _, s := range sentinels {
		assert.False(t, seen[s.Code], "duplicate code %s", s.Code)
		seen[s.Code] = true
		for _, other := range sentinels {
			if other != s {
				assert.NotErrorIs(t, s, other)
			}
		}
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("preserves sentinel identity", func(t *testing.T) {
		t.Parallel()
		wrapped := zferr.Wrap(zferr.ErrTokenNotFound, "token %s", "cUSDC")
		assert.Contains(t, wrapped.Error(), "token cUSDC")
		require.ErrorIs(t, wrapped, zferr.ErrTokenNotFound)
		assert.Equal(t, zferr.ExitNotFound, zferr.ExitCode(wrapped))
	})

	t.Run("nil input", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, zferr.Wrap(nil, "context"))
	})

	t.Run("plain error becomes general", func(t *testing.T) {
		t.Parallel()
		wrapped := zferr.Wrap(errPlain, "context")
		var fe *zferr.ForgeError
		require.ErrorAs(t, wrapped, &fe)
		assert.Equal(t, "GENERAL_ERROR", fe.Code)
		assert.Equal(t, "context", fe.Message)
		assert.Equal(t, errPlain, fe.Cause)
	})

	t.Run("field preservation", func(t *testing.T) {
		t.Parallel()
		original := zferr.WithDetails(zferr.ErrTokenNotFound, map[string]string{"key": "val"})
		original = zferr.WithSuggestion(original, "try this")
		wrapped := zferr.Wrap(original, "context")

		var fe *zferr.ForgeError
		require.ErrorAs(t, wrapped, &fe)
		assert.Equal(t, "TOKEN_NOT_FOUND", fe.Code)
		assert.Equal(t, map[string]string{"key": "val"}, fe.Details)
		assert.Equal(t, "try this", fe.Suggestion)
	})
}

func TestWithCause(t *testing.T) {
	t.Parallel()

	err := zferr.WithCause(zferr.ErrEncryptionFailed, errInner)
	require.ErrorIs(t, err, zferr.ErrEncryptionFailed)
	require.ErrorIs(t, err, errInner)
	assert.Equal(t, "encryption failed: inner", err.Error())

	assert.Equal(t, zferr.ErrEncryptionFailed, zferr.WithCause(zferr.ErrEncryptionFailed, nil))
}

func TestWithDetailsAndSuggestion(t *testing.T) {
	t.Parallel()
	details := map[string]string{"required": "5.5", "available": "5.0", "symbol": "cZAMA"}

	err := zferr.WithDetails(zferr.ErrInsufficientBalance, details)
	err = zferr.WithSuggestion(err, "Decrypt your balance first")

	var fe *zferr.ForgeError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, details, fe.Details)
	assert.Equal(t, "Decrypt your balance first", fe.Suggestion)
	assert.Equal(t, "insufficient balance (available: 5.0) (required: 5.5) (symbol: cZAMA)", fe.Error())

	assert.NoError(t, zferr.WithDetails(nil, details))
	assert.NoError(t, zferr.WithSuggestion(nil, "x"))
}

func TestForgeError_Is(t *testing.T) {
	t.Parallel()

	a := &zferr.ForgeError{Code: "SAME", Message: "a"}
	b := &zferr.ForgeError{Code: "SAME", Message: "b"}
	c := &zferr.ForgeError{Code: "OTHER", Message: "c"}
	assert.True(t, a.Is(b))
	assert.False(t, a.Is(c))
	assert.False(t, a.Is(errPlain))
}

func TestCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "DECRYPTION_FAILED", zferr.Code(zferr.ErrDecryptionFailed))
	assert.Equal(t, "GENERAL_ERROR", zferr.Code(errPlain))
	assert.Equal(t, "GENERAL_ERROR", zferr.Code(nil))
}

func TestNew(t *testing.T) {
	t.Parallel()
	err := zferr.New("CUSTOM_ERROR", "custom error message")
	assert.Equal(t, "custom error message", err.Error())
	assert.Equal(t, zferr.ExitGeneral, err.ExitCode)
}
