// Package balance keeps the per-token balance view: plain balances read from
// chain, confidential handles, and decrypted values. A decrypted value is
// authoritative for local checks only while the on-chain handle it came
// from is still current.
package balance

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zamaforge/zforge/internal/chain"
	"github.com/zamaforge/zforge/internal/chain/eth"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// Config holds the configuration for the balance service.
type Config struct {
	Reader    eth.Reader
	Decryptor Decryptor
	// Store is optional; without it decrypted values live only in memory.
	Store  Store
	Logger LogWriter
}

// Service tracks balance views keyed by token contract.
type Service struct {
	reader    eth.Reader
	decryptor Decryptor
	store     Store
	logger    LogWriter

	mu    sync.RWMutex
	views map[common.Address]*View
}

// NewService creates a new balance service.
func NewService(cfg *Config) *Service {
	s := &Service{
		reader:    cfg.Reader,
		decryptor: cfg.Decryptor,
		store:     cfg.Store,
		logger:    cfg.Logger,
		views:     make(map[common.Address]*View),
	}
	if s.logger == nil {
		s.logger = nopLogger{}
	}
	return s
}

// Refresh reads the token's metadata and the owner's balance from chain.
// For confidential tokens the handle is read and a stored decrypted value is
// carried over only if it was decrypted from that same handle.
func (s *Service) Refresh(ctx context.Context, req Request) (*View, error) {
	if req.Token == (common.Address{}) {
		return nil, zferr.WithDetails(zferr.ErrMissingContract, map[string]string{"field": "token"})
	}
	if req.Owner == (common.Address{}) {
		return nil, zferr.ErrWalletNotConnected
	}
	if s.reader == nil {
		return nil, zferr.WithCause(zferr.ErrNetworkError, fmt.Errorf("no chain reader configured"))
	}

	tokenABI := eth.ERC20ABI
	if req.Encrypted {
		tokenABI = eth.ConfidentialTokenABI
	}
	call := func(method string, args ...any) eth.Call {
		return eth.Call{Contract: req.Token, ABI: tokenABI, Method: method, Args: args}
	}

	decimals, err := eth.ReadUint8(ctx, s.reader, call("decimals"))
	if err != nil {
		return nil, zferr.WithCause(zferr.ErrNetworkError, err)
	}
	symbol, err := eth.ReadString(ctx, s.reader, call("symbol"))
	if err != nil {
		return nil, zferr.WithCause(zferr.ErrNetworkError, err)
	}

	view := &View{
		Token:     req.Token,
		Owner:     req.Owner,
		Symbol:    symbol,
		Decimals:  decimals,
		Encrypted: req.Encrypted,
	}

	if req.Encrypted {
		handle, err := eth.ReadHandle(ctx, s.reader, call("confidentialBalanceOf", req.Owner))
		if err != nil {
			return nil, zferr.WithCause(zferr.ErrNetworkError, err)
		}
		view.Handle = handle
		view.Decrypted = s.knownDecrypted(req.Token, handle)
	} else {
		raw, err := eth.ReadBigInt(ctx, s.reader, call("balanceOf", req.Owner))
		if err != nil {
			return nil, zferr.WithCause(zferr.ErrNetworkError, err)
		}
		view.Balance = raw
	}

	s.mu.Lock()
	s.views[req.Token] = view
	s.mu.Unlock()

	s.logger.Debug("refreshed %s balance for %s", symbol, req.Owner.Hex())
	return view.clone(), nil
}

func (s *Service) knownDecrypted(token common.Address, handle string) *big.Int {
	s.mu.RLock()
	prev := s.views[token]
	s.mu.RUnlock()
	if prev != nil && prev.Decrypted != nil && sameHandle(prev.Handle, handle) {
		return new(big.Int).Set(prev.Decrypted)
	}
	if s.store == nil {
		return nil
	}
	v, stored, ok := s.store.DecryptedBalance(token)
	if !ok {
		return nil
	}
	if !sameHandle(stored, handle) {
		s.logger.Debug("dropping decrypted balance of %s: handle changed", token.Hex())
		s.persist(token, nil, "")
		return nil
	}
	return v
}

func sameHandle(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// Decrypt reveals the confidential balance of a refreshed token. When the
// decryptor falls back to its default value the view keeps no decrypted
// balance and DecryptErr carries the recorded failure.
func (s *Service) Decrypt(ctx context.Context, token common.Address) (*View, error) {
	s.mu.RLock()
	view := s.views[token]
	s.mu.RUnlock()

	if view == nil {
		return nil, zferr.WithSuggestion(
			zferr.WithDetails(zferr.ErrTokenNotFound, map[string]string{"address": token.Hex()}),
			"Refresh the balance before decrypting it",
		)
	}
	if !view.Encrypted {
		return view.clone(), nil
	}
	if s.decryptor == nil {
		return nil, zferr.ErrWalletNotConnected
	}

	res, err := s.decryptor.Reveal(ctx, view.Handle, token)
	if err != nil {
		return nil, err
	}

	if res.Suppressed != nil {
		s.logger.Error("decrypting %s balance: %v", view.Symbol, res.Suppressed)
		out := view.clone()
		out.Decrypted = nil
		out.DecryptErr = res.Suppressed
		return out, nil
	}

	raw, ok := new(big.Int).SetString(res.Value, 10)
	if !ok || raw.Sign() < 0 {
		return nil, zferr.WithDetails(zferr.ErrDecryptionFailed, map[string]string{"value": res.Value})
	}

	s.mu.Lock()
	if cur := s.views[token]; cur != nil {
		cur.Decrypted = raw
		cur.DecryptErr = nil
		view = cur
	}
	out := view.clone()
	s.mu.Unlock()

	s.persist(token, raw, out.Handle)
	return out, nil
}

// View returns a copy of the current view of token.
func (s *Service) View(token common.Address) (*View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[token]
	if !ok {
		return nil, false
	}
	return v.clone(), true
}

// Track installs a view, replacing any existing one for the same token.
func (s *Service) Track(view *View) {
	if view == nil {
		return
	}
	s.mu.Lock()
	s.views[view.Token] = view.clone()
	s.mu.Unlock()
}

// CheckAvailable fails with ErrInsufficientBalance when amount exceeds the
// known balance of token. The comparison is exact over every digit the user
// typed, so precision beyond the token's decimals cannot slip through.
// Unknown balances pass; the contract has the final word.
func (s *Service) CheckAvailable(token common.Address, amount string) error {
	s.mu.RLock()
	view := s.views[token]
	var (
		raw   *big.Int
		known bool
	)
	if view != nil {
		raw, known = view.Available()
	}
	s.mu.RUnlock()

	if !known {
		return nil
	}

	requested, err := chain.ParseDecimalRat(amount)
	if err != nil {
		// Malformed amounts are reported by the amount parser.
		return nil //nolint:nilerr // the caller parses the amount next
	}
	available := new(big.Rat).SetFrac(raw, chain.Pow10(view.Decimals))
	if requested.Cmp(available) <= 0 {
		return nil
	}

	return zferr.WithSuggestion(
		zferr.WithDetails(zferr.ErrInsufficientBalance, map[string]string{
			"required":  amount,
			"available": chain.FormatDecimalAmount(raw, view.Decimals),
			"symbol":    view.Symbol,
		}),
		"Reduce the amount or refresh your balance",
	)
}

// Debit subtracts raw from the known balance of token after a successful
// submission, flooring at zero. Unknown balances stay unknown.
func (s *Service) Debit(token common.Address, raw *big.Int) {
	if raw == nil || raw.Sign() <= 0 {
		return
	}

	s.mu.Lock()
	view := s.views[token]
	if view == nil {
		s.mu.Unlock()
		return
	}
	var (
		next   *big.Int
		handle string
	)
	switch {
	case view.Encrypted && view.Decrypted != nil:
		view.Decrypted = floorSub(view.Decrypted, raw)
		next = new(big.Int).Set(view.Decrypted)
		handle = view.Handle
	case !view.Encrypted && view.Balance != nil:
		view.Balance = floorSub(view.Balance, raw)
	}
	s.mu.Unlock()

	if next != nil {
		s.persist(token, next, handle)
	}
}

// Invalidate drops the view of token and its stored decrypted value.
func (s *Service) Invalidate(token common.Address) {
	s.mu.Lock()
	delete(s.views, token)
	s.mu.Unlock()
	if s.store == nil {
		return
	}
	if _, _, ok := s.store.DecryptedBalance(token); ok {
		s.persist(token, nil, "")
	}
}

func (s *Service) persist(token common.Address, raw *big.Int, handle string) {
	if s.store == nil {
		return
	}
	if err := s.store.SetDecryptedBalance(token, raw, handle); err != nil {
		s.logger.Error("storing decrypted balance of %s: %v", token.Hex(), err)
	}
}

func floorSub(a, b *big.Int) *big.Int {
	out := new(big.Int).Sub(a, b)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}
