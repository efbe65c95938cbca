// Package relayer is an HTTP client for the fhEVM relayer, which serves the
// network encryption key, verifies encrypted inputs, and brokers user
// decryption requests to the key management service.
package relayer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zamaforge/zforge/internal/chain"
	"github.com/zamaforge/zforge/internal/metrics"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// Relayer endpoints.
const (
	PathKeyURL      = "/v1/keyurl"
	PathInputProof  = "/v1/input-proof"
	PathUserDecrypt = "/v1/user-decrypt"
)

const maxResponseBytes = 8 << 20

var (
	// ErrRelayerRequest indicates the relayer could not be reached or rejected the request.
	ErrRelayerRequest = &zferr.ForgeError{
		Code:     "RELAYER_REQUEST_FAILED",
		Message:  "relayer request failed",
		ExitCode: zferr.ExitGeneral,
	}

	// ErrRelayerResponse indicates the relayer answered with an unusable body.
	ErrRelayerResponse = &zferr.ForgeError{
		Code:     "RELAYER_INVALID_RESPONSE",
		Message:  "invalid relayer response",
		ExitCode: zferr.ExitGeneral,
	}
)

// LogWriter is the logging surface the client needs.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Options configures a Client.
type Options struct {
	HTTPClient *http.Client
	Limiter    *chain.RateLimiter
	Retry      *chain.RetryConfig
	// Timeout bounds each request; zero leaves requests unbounded.
	Timeout time.Duration
	Logger  LogWriter
	Metrics *metrics.Metrics
}

// Client talks to one relayer base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *chain.RateLimiter
	retry      chain.RetryConfig
	timeout    time.Duration
	logger     LogWriter
	metrics    *metrics.Metrics
}

// NewClient creates a relayer client.
func NewClient(baseURL string, opts *Options) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, zferr.WithDetails(zferr.ErrConfigInvalid, map[string]string{"field": "relayer_url"})
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		limiter:    chain.NewRateLimiter(0, 1),
		retry:      chain.DefaultRetryConfig(),
		logger:     nopLogger{},
		metrics:    metrics.Global,
	}

	if opts != nil {
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
		if opts.Limiter != nil {
			c.limiter = opts.Limiter
		}
		if opts.Retry != nil {
			c.retry = *opts.Retry
		}
		c.timeout = opts.Timeout
		if opts.Logger != nil {
			c.logger = opts.Logger
		}
		if opts.Metrics != nil {
			c.metrics = opts.Metrics
		}
	}

	return c, nil
}

// BaseURL returns the relayer base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope wraps every relayer response body.
type envelope struct {
	Response json.RawMessage `json:"response"`
	Message  string          `json:"message,omitempty"`
}

// do performs one JSON request with rate limiting and retries and decodes
// the "response" field of the body into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshaling %s request: %w", path, err)
		}
	}

	raw, err := chain.RetryWithConfig(ctx, c.retry, func() (json.RawMessage, error) {
		if err := c.limiter.Wait(ctx, path); err != nil {
			return nil, err
		}
		start := time.Now()
		res, err := c.once(ctx, method, path, body)
		c.metrics.RecordRelayerCall(time.Since(start), err)
		if err != nil {
			c.logger.Debug("relayer %s %s failed: %v", method, path, err)
		}
		return res, err
	})
	if err != nil {
		c.logger.Error("relayer %s %s: %v", method, path, err)
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return zferr.WithCause(ErrRelayerResponse, fmt.Errorf("%s: %w", path, err))
	}
	return nil
}

func (c *Client) once(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, chain.WrapRetryable(zferr.WithCause(ErrRelayerRequest, err))
	}
	// Body.Close error is ignored; there is no recovery action for it.
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, chain.WrapRetryable(zferr.WithCause(ErrRelayerRequest, err))
	}

	var env envelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && env.Message != "" {
			msg = env.Message
		}
		relErr := zferr.WithDetails(zferr.WithCause(ErrRelayerRequest, errors.New(msg)), map[string]string{
			"status":   fmt.Sprintf("%d", resp.StatusCode),
			"endpoint": path,
		})
		if resp.StatusCode == http.StatusTooManyRequests {
			if wait := chain.ParseRetryAfter(resp.Header.Get("Retry-After")); wait > 0 {
				c.logger.Debug("relayer asked to retry after %s", wait)
			}
			return nil, fmt.Errorf("%w: %w", chain.ErrRateLimited, relErr)
		}
		if chain.StatusRetryable(resp.StatusCode) {
			return nil, chain.WrapRetryable(relErr)
		}
		return nil, relErr
	}

	if decodeErr != nil {
		return nil, zferr.WithCause(ErrRelayerResponse, decodeErr)
	}
	if len(env.Response) == 0 || string(env.Response) == "null" {
		return nil, zferr.WithCause(ErrRelayerResponse, fmt.Errorf("%s: empty response", path))
	}
	return env.Response, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
