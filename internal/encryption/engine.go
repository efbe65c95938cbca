// Package encryption turns plaintext amounts into the ciphertext bundles
// confidential token contracts accept: one handle per value plus an input
// proof, both as canonical hex.
package encryption

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zamaforge/zforge/internal/metrics"
	"github.com/zamaforge/zforge/internal/session"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

var errNoHandles = errors.New("encryption produced no handles")

// Bundle is the output of one encryption. It is single use: the proof is
// bound to one submission and must never be cached or replayed.
type Bundle struct {
	Handles    []string
	InputProof string
}

// Handle returns the first handle, which is the only one for single-value inputs.
func (b *Bundle) Handle() string {
	if b == nil || len(b.Handles) == 0 {
		return ""
	}
	return b.Handles[0]
}

// Account reports the connected wallet address.
type Account interface {
	Address() (common.Address, error)
}

// YieldFunc hands control back to the caller before encryption begins.
type YieldFunc func(ctx context.Context) error

// LogWriter is the logging surface the engine needs.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Options configures an Engine.
type Options struct {
	// Yield runs after the input is prepared and before the encryption
	// step. The default reschedules the goroutine once.
	Yield   YieldFunc
	Logger  LogWriter
	Metrics *metrics.Metrics
}

// Engine encrypts amounts through the shared SDK session.
type Engine struct {
	sessions session.Provider
	account  Account
	yield    YieldFunc
	logger   LogWriter
	metrics  *metrics.Metrics
}

// NewEngine creates an engine.
func NewEngine(sessions session.Provider, account Account, opts *Options) *Engine {
	e := &Engine{
		sessions: sessions,
		account:  account,
		yield:    Gosched,
		logger:   nopLogger{},
		metrics:  metrics.Global,
	}
	if opts != nil {
		if opts.Yield != nil {
			e.yield = opts.Yield
		}
		if opts.Logger != nil {
			e.logger = opts.Logger
		}
		if opts.Metrics != nil {
			e.metrics = opts.Metrics
		}
	}
	return e
}

// Gosched is the default yield.
func Gosched(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// EncryptAmount encrypts amount, already in raw token units, as a 64-bit
// input for target on behalf of caller. Caller must be the connected wallet.
func (e *Engine) EncryptAmount(ctx context.Context, target, caller common.Address, amount uint64) (*Bundle, error) {
	if err := e.checkCaller(caller); err != nil {
		return nil, err
	}
	if target == (common.Address{}) {
		return nil, zferr.WithDetails(zferr.ErrMissingContract, map[string]string{"field": "target"})
	}

	inst, err := e.sessions.Initialize(ctx)
	if err != nil {
		return nil, err
	}

	builder := inst.CreateEncryptedInput(target, caller).Add64(amount)

	if err := e.yield(ctx); err != nil {
		return nil, err
	}

	e.logger.Debug("encrypting input for %s", target.Hex())
	enc, err := builder.Encrypt(ctx)
	if err == nil {
		var bundle *Bundle
		if bundle, err = bundleFrom(enc.Handles, enc.InputProof); err == nil {
			e.metrics.RecordEncryption(nil)
			return bundle, nil
		}
	}

	e.metrics.RecordEncryption(err)
	e.logger.Error("encryption for %s failed: %v", target.Hex(), err)
	return nil, zferr.WithCause(zferr.ErrEncryptionFailed, err)
}

func (e *Engine) checkCaller(caller common.Address) error {
	if e.account == nil {
		return zferr.ErrWalletNotConnected
	}
	connected, err := e.account.Address()
	if err != nil {
		return err
	}
	if connected != caller {
		return zferr.WithDetails(zferr.ErrInvalidAddress, map[string]string{
			"caller":    caller.Hex(),
			"connected": connected.Hex(),
		})
	}
	return nil
}

func bundleFrom(handles [][]byte, proof []byte) (*Bundle, error) {
	if len(handles) == 0 {
		return nil, errNoHandles
	}
	b := &Bundle{Handles: make([]string, len(handles))}
	for i, h := range handles {
		s, err := CanonicalHex(h)
		if err != nil {
			return nil, fmt.Errorf("handle %d: %w", i, err)
		}
		b.Handles[i] = s
	}
	p, err := CanonicalHex(proof)
	if err != nil {
		return nil, fmt.Errorf("input proof: %w", err)
	}
	b.InputProof = p
	return b, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
