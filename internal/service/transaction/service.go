// Package transaction orchestrates the token actions of the dashboard:
// plain and confidential transfers, wrap, unwrap and the faucet claim.
// Each orchestrator runs its steps strictly in order and publishes its
// phase through a Tracker; a failure always returns it to idle with the
// error recorded.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zamaforge/zforge/internal/chain"
	"github.com/zamaforge/zforge/internal/chain/eth"
	"github.com/zamaforge/zforge/internal/metrics"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// DefaultReceiptTimeout bounds the confirmation wait.
const DefaultReceiptTimeout = 2 * time.Minute

// Config holds dependencies for the transaction service.
type Config struct {
	Transport eth.Transport
	Encryptor Encryptor
	// Balances is optional; without it amounts are not checked locally.
	Balances BalanceChecker
	// Factory is the wrapping contract and the spender approved for wraps.
	Factory common.Address
	// Airdrop and FaucetToken drive ClaimFaucet.
	Airdrop     common.Address
	FaucetToken common.Address

	WaitForReceipt bool
	ReceiptTimeout time.Duration

	Logger  LogWriter
	Metrics *metrics.Metrics
}

// Service runs the orchestrators. Each kind has its own tracker.
type Service struct {
	transport      eth.Transport
	encryptor      Encryptor
	balances       BalanceChecker
	factory        common.Address
	airdrop        common.Address
	faucetToken    common.Address
	waitForReceipt bool
	receiptTimeout time.Duration
	logger         LogWriter
	metrics        *metrics.Metrics

	trackers map[Kind]*Tracker
}

// NewService creates a new transaction service.
func NewService(cfg *Config) *Service {
	s := &Service{
		transport:      cfg.Transport,
		encryptor:      cfg.Encryptor,
		balances:       cfg.Balances,
		factory:        cfg.Factory,
		airdrop:        cfg.Airdrop,
		faucetToken:    cfg.FaucetToken,
		waitForReceipt: cfg.WaitForReceipt,
		receiptTimeout: cfg.ReceiptTimeout,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		trackers:       make(map[Kind]*Tracker),
	}
	if s.receiptTimeout <= 0 {
		s.receiptTimeout = DefaultReceiptTimeout
	}
	if s.logger == nil {
		s.logger = nopLogger{}
	}
	if s.metrics == nil {
		s.metrics = metrics.Global
	}
	for _, k := range []Kind{KindPlainTransfer, KindConfidentialTransfer, KindWrap, KindUnwrap, KindClaim} {
		s.trackers[k] = NewTracker()
	}
	return s
}

// Tracker returns the state tracker of kind.
func (s *Service) Tracker(kind Kind) *Tracker {
	return s.trackers[kind]
}

// State returns the current state of kind.
func (s *Service) State(kind Kind) State {
	return s.trackers[kind].State()
}

// PlainTransfer sends an ERC-20 transfer without encryption.
// Phases: idle, submitting, idle.
func (s *Service) PlainTransfer(ctx context.Context, req *TransferRequest) (*Result, error) {
	from, err := s.connected()
	if err != nil {
		return nil, err
	}
	raw, err := s.prepare(req.Token, req.To, req.Amount, req.Decimals)
	if err != nil {
		return nil, err
	}

	t := s.trackers[KindPlainTransfer]
	t.enter(PhaseSubmitting)

	res, err := s.submit(ctx, t, KindPlainTransfer, eth.Call{
		Contract: req.Token,
		ABI:      eth.ERC20ABI,
		Method:   "transfer",
		Args:     []any{req.To, raw},
	})
	if err != nil {
		return nil, err
	}

	s.debit(req.Token, raw)
	res.From, res.To, res.Amount = from, req.To, raw
	return res, nil
}

// ConfidentialTransfer encrypts the amount and sends confidentialTransfer.
// Phases: idle, encrypting, submitting, idle.
func (s *Service) ConfidentialTransfer(ctx context.Context, req *TransferRequest) (*Result, error) {
	from, err := s.connected()
	if err != nil {
		return nil, err
	}
	raw, err := s.prepare(req.Token, req.To, req.Amount, req.Decimals)
	if err != nil {
		return nil, err
	}
	amount, err := chain.ToUint64(raw)
	if err != nil {
		return nil, err
	}

	t := s.trackers[KindConfidentialTransfer]
	res, err := s.encryptAndSubmit(ctx, t, KindConfidentialTransfer, req.Token, "confidentialTransfer", from, amount,
		func(handle [32]byte, proof []byte) []any { return []any{req.To, handle, proof} })
	if err != nil {
		return nil, err
	}

	s.debit(req.Token, raw)
	res.From, res.To, res.Amount = from, req.To, raw
	return res, nil
}

// Unwrap encrypts the amount and burns it from the confidential token,
// releasing the plain tokens to the connected wallet.
// Phases: idle, encrypting, submitting, idle.
func (s *Service) Unwrap(ctx context.Context, req *UnwrapRequest) (*Result, error) {
	self, err := s.connected()
	if err != nil {
		return nil, err
	}
	raw, err := s.prepare(req.Token, self, req.Amount, req.Decimals)
	if err != nil {
		return nil, err
	}
	amount, err := chain.ToUint64(raw)
	if err != nil {
		return nil, err
	}

	t := s.trackers[KindUnwrap]
	res, err := s.encryptAndSubmit(ctx, t, KindUnwrap, req.Token, "unwrap", self, amount,
		func(handle [32]byte, proof []byte) []any { return []any{self, self, handle, proof} })
	if err != nil {
		return nil, err
	}

	s.debit(req.Token, raw)
	res.From, res.To, res.Amount = self, self, raw
	return res, nil
}

// Wrap converts plain tokens into their confidential counterpart through
// the factory. When the factory's allowance is short it submits exactly
// one approval and returns NeedsApproval without wrapping.
func (s *Service) Wrap(ctx context.Context, req *WrapRequest) (*Result, error) {
	owner, err := s.connected()
	if err != nil {
		return nil, err
	}
	if s.factory == (common.Address{}) {
		return nil, zferr.WithDetails(zferr.ErrMissingContract, map[string]string{"field": "contracts.factory"})
	}
	raw, err := s.prepare(req.Token, s.factory, req.Amount, req.Decimals)
	if err != nil {
		return nil, err
	}

	t := s.trackers[KindWrap]

	allowance, err := eth.ReadBigInt(ctx, s.transport, eth.Call{
		Contract: req.Token,
		ABI:      eth.ERC20ABI,
		Method:   "allowance",
		Args:     []any{owner, s.factory},
	})
	if err != nil {
		err = zferr.WithCause(zferr.ErrNetworkError, err)
		t.finish(err)
		return nil, err
	}

	t.enter(PhaseSubmitting)

	if allowance.Cmp(raw) < 0 {
		s.logger.Debug("allowance %s below %s, approving factory", allowance, raw)
		res, err := s.submit(ctx, t, KindWrap, eth.Call{
			Contract: req.Token,
			ABI:      eth.ERC20ABI,
			Method:   "approve",
			Args:     []any{s.factory, raw},
		})
		if err != nil {
			return nil, err
		}
		res.NeedsApproval = true
		res.From, res.To, res.Amount = owner, s.factory, raw
		return res, nil
	}

	res, err := s.submit(ctx, t, KindWrap, eth.Call{
		Contract: s.factory,
		ABI:      eth.FactoryABI,
		Method:   "wrapERC20",
		Args:     []any{req.Token, raw},
	})
	if err != nil {
		return nil, err
	}

	s.debit(req.Token, raw)
	res.From, res.To, res.Amount = owner, s.factory, raw
	return res, nil
}

// ClaimFaucet pays the airdrop's claim fee and claims the faucet token.
// Phases: idle, submitting, idle.
func (s *Service) ClaimFaucet(ctx context.Context) (*Result, error) {
	owner, err := s.connected()
	if err != nil {
		return nil, err
	}
	if s.airdrop == (common.Address{}) {
		return nil, zferr.WithDetails(zferr.ErrMissingContract, map[string]string{"field": "contracts.airdrop"})
	}
	if s.faucetToken == (common.Address{}) {
		return nil, zferr.WithDetails(zferr.ErrMissingContract, map[string]string{"field": "contracts.forge_token"})
	}

	t := s.trackers[KindClaim]

	fee, err := eth.ReadBigInt(ctx, s.transport, eth.Call{Contract: s.airdrop, ABI: eth.AirdropABI, Method: "CLAIM_FEE"})
	if err != nil {
		err = zferr.WithCause(zferr.ErrNetworkError, err)
		t.finish(err)
		return nil, err
	}

	t.enter(PhaseSubmitting)
	res, err := s.submit(ctx, t, KindClaim, eth.Call{
		Contract: s.airdrop,
		ABI:      eth.AirdropABI,
		Method:   "claimTokens",
		Args:     []any{s.faucetToken},
		Value:    fee,
	})
	if err != nil {
		return nil, err
	}
	res.From, res.To, res.Amount = owner, s.airdrop, fee
	return res, nil
}

// encryptAndSubmit publishes encrypting before any work, encrypts amount
// for token, then submits method with the arguments built from the bundle.
func (s *Service) encryptAndSubmit(ctx context.Context, t *Tracker, kind Kind, token common.Address, method string,
	caller common.Address, amount uint64, args func(handle [32]byte, proof []byte) []any,
) (*Result, error) {
	t.enter(PhaseEncrypting)

	bundle, err := s.encryptor.EncryptAmount(ctx, token, caller, amount)
	if err != nil {
		t.finish(err)
		return nil, err
	}
	handle, err := eth.HandleArg(bundle.Handle())
	if err == nil {
		var proof []byte
		if proof, err = eth.ProofArg(bundle.InputProof); err == nil {
			t.enter(PhaseSubmitting)
			return s.submit(ctx, t, kind, eth.Call{
				Contract: token,
				ABI:      eth.ConfidentialTokenABI,
				Method:   method,
				Args:     args(handle, proof),
			})
		}
	}

	err = zferr.WithCause(zferr.ErrEncryptionFailed, err)
	t.finish(err)
	return nil, err
}

// submit sends call, optionally waits for its receipt, and leaves t idle.
func (s *Service) submit(ctx context.Context, t *Tracker, kind Kind, call eth.Call) (*Result, error) {
	hash, err := s.transport.Send(ctx, call)
	s.metrics.RecordSubmission(err)
	if err != nil {
		if !errors.Is(err, zferr.ErrTxRejected) && !errors.Is(err, zferr.ErrWalletNotConnected) {
			err = zferr.WithCause(zferr.ErrTxRejected, err)
		}
		s.logger.Error("%s: %s failed: %v", kind, call.Method, err)
		t.finish(err)
		return nil, err
	}
	s.logger.Debug("%s: %s submitted as %s", kind, call.Method, hash.Hex())

	res := &Result{Kind: kind, TxHash: hash}
	if s.waitForReceipt {
		t.enter(PhaseConfirming)
		receipt, err := s.confirm(ctx, hash)
		if err != nil {
			t.finish(err)
			return nil, err
		}
		res.Receipt = receipt
	}

	t.finish(nil)
	return res, nil
}

func (s *Service) confirm(ctx context.Context, hash common.Hash) (*eth.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, s.receiptTimeout)
	defer cancel()

	receipt, err := s.transport.WaitForReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", hash.Hex(), err)
	}
	if !receipt.Succeeded() {
		return receipt, zferr.WithDetails(zferr.ErrTxReverted, map[string]string{"tx": hash.Hex()})
	}
	return receipt, nil
}

// connected returns the wallet address or fails fast without touching state.
func (s *Service) connected() (common.Address, error) {
	if s.transport == nil {
		return common.Address{}, zferr.ErrWalletNotConnected
	}
	return s.transport.Address()
}

// prepare runs the synchronous preconditions: addresses, balance, amount.
// The balance check comes first so an amount finer than the token's
// precision is reported against the balance it exceeds.
func (s *Service) prepare(token, to common.Address, amount string, decimals uint8) (*big.Int, error) {
	if token == (common.Address{}) {
		return nil, zferr.WithDetails(zferr.ErrMissingContract, map[string]string{"field": "token"})
	}
	if to == (common.Address{}) {
		return nil, zferr.WithDetails(zferr.ErrInvalidAddress, map[string]string{"field": "to"})
	}
	if s.balances != nil {
		if err := s.balances.CheckAvailable(token, amount); err != nil {
			return nil, err
		}
	}
	raw, err := chain.ParseDecimalAmount(amount, decimals)
	if err != nil {
		return nil, err
	}
	if raw.Sign() <= 0 {
		return nil, zferr.WithDetails(zferr.ErrInvalidAmount, map[string]string{"amount": amount})
	}
	return raw, nil
}

func (s *Service) debit(token common.Address, raw *big.Int) {
	if s.balances != nil {
		s.balances.Debit(token, raw)
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
