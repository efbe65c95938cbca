package chain_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamaforge/zforge/internal/chain"
)

var errNonRetryable = errors.New("non-retryable error")

func fastRetry(attempts int) chain.RetryConfig {
	return chain.RetryConfig{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetry_SuccessFirstAttempt(t *testing.T) {
	t.Parallel()
	attempts := 0
	result, err := chain.Retry(context.Background(), func() (string, error) {
		attempts++
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithConfig_SuccessAfterRetry(t *testing.T) {
	t.Parallel()
	attempts := 0
	result, err := chain.RetryWithConfig(context.Background(), fastRetry(4), func() (int, error) {
		attempts++
		if attempts < 3 {
			return 0, chain.ErrRetryable
		}
		return 7, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, result)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithConfig_NonRetryableError(t *testing.T) {
	t.Parallel()
	attempts := 0
	_, err := chain.RetryWithConfig(context.Background(), fastRetry(4), func() (string, error) {
		attempts++
		return "", errNonRetryable
	})

	require.ErrorIs(t, err, errNonRetryable)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithConfig_Exhausted(t *testing.T) {
	t.Parallel()
	attempts := 0
	_, err := chain.RetryWithConfig(context.Background(), fastRetry(3), func() (string, error) {
		attempts++
		return "", chain.WrapRetryable(errNonRetryable)
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	require.ErrorIs(t, err, errNonRetryable)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithConfig_ContextCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cfg := chain.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second}

	attempts := 0
	_, err := chain.RetryWithConfig(ctx, cfg, func() (string, error) {
		attempts++
		cancel()
		return "", chain.ErrRateLimited
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestRetryConfigWithRetries(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 4, chain.RetryConfigWithRetries(3).MaxAttempts)
	assert.Equal(t, 1, chain.RetryConfigWithRetries(-2).MaxAttempts)
	assert.Equal(t, 4, chain.DefaultRetryConfig().MaxAttempts)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	assert.True(t, chain.IsRetryable(chain.ErrRetryable))
	assert.True(t, chain.IsRetryable(chain.ErrRateLimited))
	assert.True(t, chain.IsRetryable(context.DeadlineExceeded))
	assert.True(t, chain.IsRetryable(chain.WrapRetryable(errNonRetryable)))
	assert.False(t, chain.IsRetryable(errNonRetryable))
	assert.False(t, chain.IsRetryable(nil))
	assert.NoError(t, chain.WrapRetryable(nil))
}

func TestStatusRetryable(t *testing.T) {
	t.Parallel()
	assert.True(t, chain.StatusRetryable(http.StatusTooManyRequests))
	assert.True(t, chain.StatusRetryable(http.StatusServiceUnavailable))
	assert.False(t, chain.StatusRetryable(http.StatusBadRequest))
	assert.False(t, chain.StatusRetryable(http.StatusInternalServerError))
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 3*time.Second, chain.ParseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), chain.ParseRetryAfter(""))
	assert.Equal(t, time.Duration(0), chain.ParseRetryAfter("soon"))
	assert.Equal(t, time.Duration(0), chain.ParseRetryAfter("-4"))
}
