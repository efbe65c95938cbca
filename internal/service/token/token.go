// Package token reads token metadata, faucet terms, and factory pairings
// from chain. Amounts stay integers and are formatted through decimals.
package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/zamaforge/zforge/internal/chain"
	"github.com/zamaforge/zforge/internal/chain/eth"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// Info is the on-chain metadata of a token plus the owner's balance.
type Info struct {
	Address     common.Address
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
	Balance     *big.Int
}

// FormattedSupply returns the total supply in whole units.
func (i *Info) FormattedSupply() string {
	return chain.FormatDecimalAmount(i.TotalSupply, i.Decimals)
}

// FormattedBalance returns the owner's balance in whole units.
func (i *Info) FormattedBalance() string {
	return chain.FormatDecimalAmount(i.Balance, i.Decimals)
}

// FaucetInfo describes what one airdrop claim costs and yields.
type FaucetInfo struct {
	Airdrop     common.Address
	Token       common.Address
	Fee         *big.Int
	ClaimAmount *big.Int
	Decimals    uint8
}

// FormattedAmount returns the claim amount in whole token units.
func (f *FaucetInfo) FormattedAmount() string {
	return chain.FormatDecimalAmount(f.ClaimAmount, f.Decimals)
}

// FormattedFee returns the claim fee in ETH.
func (f *FaucetInfo) FormattedFee() string {
	return chain.FormatDecimalAmount(f.Fee, 18)
}

// Config holds the contracts the service reads.
type Config struct {
	Reader      eth.Reader
	Factory     common.Address
	Airdrop     common.Address
	FaucetToken common.Address
}

// Service reads token data.
type Service struct {
	reader      eth.Reader
	factory     common.Address
	airdrop     common.Address
	faucetToken common.Address
}

// NewService creates a token service.
func NewService(cfg *Config) *Service {
	return &Service{
		reader:      cfg.Reader,
		factory:     cfg.Factory,
		airdrop:     cfg.Airdrop,
		faucetToken: cfg.FaucetToken,
	}
}

// TokenInfo reads name, symbol, decimals, total supply and, when owner is
// set, the owner's plain balance. Reads run concurrently.
func (s *Service) TokenInfo(ctx context.Context, token, owner common.Address) (*Info, error) {
	if token == (common.Address{}) {
		return nil, zferr.WithDetails(zferr.ErrMissingContract, map[string]string{"field": "token"})
	}

	info := &Info{Address: token}
	call := func(method string, args ...any) eth.Call {
		return eth.Call{Contract: token, ABI: eth.ERC20ABI, Method: method, Args: args}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		info.Name, err = eth.ReadString(gctx, s.reader, call("name"))
		return err
	})
	g.Go(func() (err error) {
		info.Symbol, err = eth.ReadString(gctx, s.reader, call("symbol"))
		return err
	})
	g.Go(func() (err error) {
		info.Decimals, err = eth.ReadUint8(gctx, s.reader, call("decimals"))
		return err
	})
	g.Go(func() (err error) {
		info.TotalSupply, err = eth.ReadBigInt(gctx, s.reader, call("totalSupply"))
		return err
	})
	if owner != (common.Address{}) {
		g.Go(func() (err error) {
			info.Balance, err = eth.ReadBigInt(gctx, s.reader, call("balanceOf", owner))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, zferr.WithCause(zferr.ErrNetworkError, err)
	}
	return info, nil
}

// FaucetInfo reads the airdrop's claim fee and amount and the faucet
// token's decimals.
func (s *Service) FaucetInfo(ctx context.Context) (*FaucetInfo, error) {
	if s.airdrop == (common.Address{}) {
		return nil, zferr.WithDetails(zferr.ErrMissingContract, map[string]string{"field": "contracts.airdrop"})
	}
	if s.faucetToken == (common.Address{}) {
		return nil, zferr.WithDetails(zferr.ErrMissingContract, map[string]string{"field": "contracts.forge_token"})
	}

	out := &FaucetInfo{Airdrop: s.airdrop, Token: s.faucetToken}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Fee, err = eth.ReadBigInt(gctx, s.reader, eth.Call{Contract: s.airdrop, ABI: eth.AirdropABI, Method: "CLAIM_FEE"})
		return err
	})
	g.Go(func() (err error) {
		out.ClaimAmount, err = eth.ReadBigInt(gctx, s.reader, eth.Call{Contract: s.airdrop, ABI: eth.AirdropABI, Method: "CLAIM_AMOUNT"})
		return err
	})
	g.Go(func() (err error) {
		out.Decimals, err = eth.ReadUint8(gctx, s.reader, eth.Call{Contract: s.faucetToken, ABI: eth.ConfidentialTokenABI, Method: "decimals"})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, zferr.WithCause(zferr.ErrNetworkError, err)
	}
	return out, nil
}

// ConfidentialCounterpart returns the confidential token the factory
// registered for erc20.
func (s *Service) ConfidentialCounterpart(ctx context.Context, erc20 common.Address) (common.Address, error) {
	return s.lookup(ctx, "getConfidentialToken", erc20)
}

// UnderlyingToken returns the ERC20 a confidential token wraps.
func (s *Service) UnderlyingToken(ctx context.Context, confidential common.Address) (common.Address, error) {
	return s.lookup(ctx, "getERC20", confidential)
}

func (s *Service) lookup(ctx context.Context, method string, token common.Address) (common.Address, error) {
	if s.factory == (common.Address{}) {
		return common.Address{}, zferr.WithDetails(zferr.ErrMissingContract, map[string]string{"field": "contracts.factory"})
	}
	if token == (common.Address{}) {
		return common.Address{}, zferr.WithDetails(zferr.ErrInvalidAddress, map[string]string{"field": "token"})
	}
	addr, err := eth.ReadAddress(ctx, s.reader, eth.Call{
		Contract: s.factory,
		ABI:      eth.FactoryABI,
		Method:   method,
		Args:     []any{token},
	})
	if err != nil {
		return common.Address{}, zferr.WithCause(zferr.ErrNetworkError, err)
	}
	if addr == (common.Address{}) {
		return common.Address{}, zferr.WithSuggestion(
			zferr.WithDetails(zferr.ErrTokenNotFound, map[string]string{"address": token.Hex()}),
			"The factory has no pairing for this token",
		)
	}
	return addr, nil
}
