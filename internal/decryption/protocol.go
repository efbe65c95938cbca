// Package decryption reveals a confidential balance to its owner. Each
// request generates an ephemeral keypair, has the wallet sign an EIP-712
// authorization scoped to that key and contract, and exchanges both with
// the relayer, which answers with a value only the keypair can open.
package decryption

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zamaforge/zforge/internal/chain/eth"
	"github.com/zamaforge/zforge/internal/fhevm"
	"github.com/zamaforge/zforge/internal/metrics"
	"github.com/zamaforge/zforge/internal/session"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// DefaultDurationDays is the validity window of a decryption signature.
const DefaultDurationDays = 10

// ZeroValue is returned for never-written ciphertexts and, under
// ReturnDefault, for failed decryptions.
const ZeroValue = "0"

// FailurePolicy decides what Decrypt does when the protocol fails after
// its preconditions passed.
type FailurePolicy int

const (
	// ReturnDefault yields ZeroValue and records the error for LastError.
	ReturnDefault FailurePolicy = iota
	// Propagate returns the error to the caller.
	Propagate
)

// ParsePolicy maps the config names "return_default" and "propagate".
func ParsePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "return_default":
		return ReturnDefault, nil
	case "propagate":
		return Propagate, nil
	default:
		return ReturnDefault, zferr.WithDetails(zferr.ErrConfigInvalid, map[string]string{
			"field": "decryption.on_failure",
			"value": s,
		})
	}
}

// String returns the config name of the policy.
func (p FailurePolicy) String() string {
	if p == Propagate {
		return "propagate"
	}
	return "return_default"
}

// LogWriter is the logging surface the protocol needs.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Options configures a Protocol.
type Options struct {
	Policy       FailurePolicy
	DurationDays int
	// Now supplies the request start time; defaults to time.Now.
	Now     func() time.Time
	Logger  LogWriter
	Metrics *metrics.Metrics
}

// Protocol runs user decryptions for the connected wallet.
type Protocol struct {
	sessions     session.Provider
	signer       eth.Signer
	policy       FailurePolicy
	durationDays int
	now          func() time.Time
	logger       LogWriter
	metrics      *metrics.Metrics

	mu      sync.Mutex
	lastErr error
}

// NewProtocol creates a protocol that signs with signer.
func NewProtocol(sessions session.Provider, signer eth.Signer, opts *Options) *Protocol {
	p := &Protocol{
		sessions:     sessions,
		signer:       signer,
		durationDays: DefaultDurationDays,
		now:          time.Now,
		logger:       nopLogger{},
		metrics:      metrics.Global,
	}
	if opts != nil {
		p.policy = opts.Policy
		if opts.DurationDays > 0 {
			p.durationDays = opts.DurationDays
		}
		if opts.Now != nil {
			p.now = opts.Now
		}
		if opts.Logger != nil {
			p.logger = opts.Logger
		}
		if opts.Metrics != nil {
			p.metrics = opts.Metrics
		}
	}
	return p
}

// Policy returns the configured failure policy.
func (p *Protocol) Policy() FailurePolicy {
	return p.policy
}

// Result is the outcome of one decryption. Suppressed holds the failure
// behind a defaulted Value under ReturnDefault and is nil otherwise.
type Result struct {
	Value      string
	Suppressed error
}

// LastError returns the failure behind the most recent defaulted result,
// or nil if the last decryption succeeded. Concurrent callers should use
// Reveal, which reports the failure with its own result.
func (p *Protocol) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Decrypt returns the plaintext behind handle, held by contract, as a
// decimal string. The all-zero handle yields "0" without any network call.
// Precondition failures are always returned; later failures follow the
// failure policy.
func (p *Protocol) Decrypt(ctx context.Context, handle string, contract common.Address) (string, error) {
	res, err := p.Reveal(ctx, handle, contract)
	if err != nil {
		return "", err
	}
	return res.Value, nil
}

// Reveal is Decrypt with the suppressed failure returned alongside the value.
func (p *Protocol) Reveal(ctx context.Context, handle string, contract common.Address) (Result, error) {
	if fhevm.IsZeroHandle(handle) {
		p.metrics.RecordDecryptionShortCircuit()
		p.setLastErr(nil)
		return Result{Value: ZeroValue}, nil
	}

	canonical, err := fhevm.NormalizeHandle(handle)
	if err != nil {
		return Result{}, err
	}
	if contract == (common.Address{}) {
		return Result{}, zferr.WithDetails(zferr.ErrMissingContract, map[string]string{"field": "contract"})
	}
	if p.signer == nil {
		return Result{}, zferr.ErrWalletNotConnected
	}
	user, err := p.signer.Address()
	if err != nil {
		return Result{}, err
	}

	value, err := p.run(ctx, canonical, contract, user)
	p.metrics.RecordDecryption(err)
	if err != nil {
		err = zferr.WithCause(zferr.ErrDecryptionFailed, err)
		p.setLastErr(err)
		p.logger.Error("decrypting %s on %s: %v", canonical, contract.Hex(), err)
		if p.policy == Propagate {
			return Result{}, err
		}
		return Result{Value: ZeroValue, Suppressed: err}, nil
	}

	p.setLastErr(nil)
	return Result{Value: value}, nil
}

func (p *Protocol) run(ctx context.Context, handle string, contract, user common.Address) (string, error) {
	inst, err := p.sessions.Initialize(ctx)
	if err != nil {
		return "", err
	}

	kp, err := inst.GenerateKeypair()
	if err != nil {
		return "", err
	}

	start := p.now().Unix()
	contracts := []common.Address{contract}
	typed, err := inst.CreateEIP712(kp.PublicKey, contracts, start, p.durationDays)
	if err != nil {
		return "", fmt.Errorf("building authorization: %w", err)
	}

	// Blocks until the wallet approves or rejects.
	sig, err := p.signer.SignTypedData(ctx, typed)
	if err != nil {
		return "", err
	}

	p.logger.Debug("requesting user decryption of %s on %s", handle, contract.Hex())
	results, err := inst.UserDecrypt(ctx, &fhevm.UserDecryptParams{
		Pairs:          []fhevm.HandleContractPair{{Handle: handle, Contract: contract}},
		PrivateKey:     kp.PrivateKey,
		PublicKey:      kp.PublicKey,
		Signature:      strings.TrimPrefix(sig, "0x"),
		Contracts:      contracts,
		User:           user,
		StartTimestamp: start,
		DurationDays:   p.durationDays,
	})
	kp.PrivateKey = ""
	if err != nil {
		return "", err
	}

	v, ok := results[handle]
	if !ok || v == nil {
		return "", fmt.Errorf("relayer returned no value for %s", handle)
	}
	return v.String(), nil
}

func (p *Protocol) setLastErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
