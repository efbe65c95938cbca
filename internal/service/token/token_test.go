package token

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamaforge/zforge/internal/chain/eth"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

var (
	errRPC = errors.New("rpc down")

	owner   = common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	usdc    = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
	cusdc   = common.HexToAddress("0x00000000000000000000000000000000000c05dc")
	factory = common.HexToAddress("0x00000000000000000000000000000000000fac70")
	airdrop = common.HexToAddress("0x000000000000000000000000000000000000a1d0")
	forge   = common.HexToAddress("0x00000000000000000000000000000000000f0f0f")
)

type fakeReader struct {
	mu      sync.Mutex
	outputs map[string]any
	fail    map[string]error
	calls   []eth.Call
}

func (r *fakeReader) Read(_ context.Context, call eth.Call) ([]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	if err := r.fail[call.Method]; err != nil {
		return nil, err
	}
	return []any{r.outputs[call.Method]}, nil
}

func newService(r *fakeReader) *Service {
	if r.fail == nil {
		r.fail = map[string]error{}
	}
	return NewService(&Config{Reader: r, Factory: factory, Airdrop: airdrop, FaucetToken: forge})
}

func TestTokenInfo(t *testing.T) {
	t.Parallel()
	supply, _ := new(big.Int).SetString("1000000000000000", 10)
	r := &fakeReader{outputs: map[string]any{
		"name":        "USD Coin",
		"symbol":      "USDC",
		"decimals":    uint8(6),
		"totalSupply": supply,
		"balanceOf":   big.NewInt(1_250_000),
	}}
	s := newService(r)

	info, err := s.TokenInfo(context.Background(), usdc, owner)
	require.NoError(t, err)
	assert.Equal(t, "USD Coin", info.Name)
	assert.Equal(t, "USDC", info.Symbol)
	assert.Equal(t, "1000000000.0", info.FormattedSupply())
	assert.Equal(t, "1.25", info.FormattedBalance())
	assert.Len(t, r.calls, 5)

	t.Run("without owner skips balance", func(t *testing.T) {
		t.Parallel()
		r2 := &fakeReader{outputs: r.outputs}
		info, err := newService(r2).TokenInfo(context.Background(), usdc, common.Address{})
		require.NoError(t, err)
		assert.Nil(t, info.Balance)
		assert.Len(t, r2.calls, 4)
	})

	t.Run("read failure", func(t *testing.T) {
		t.Parallel()
		r3 := &fakeReader{outputs: r.outputs, fail: map[string]error{"symbol": errRPC}}
		_, err := newService(r3).TokenInfo(context.Background(), usdc, owner)
		require.ErrorIs(t, err, zferr.ErrNetworkError)
		require.ErrorIs(t, err, errRPC)
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		_, err := newService(&fakeReader{}).TokenInfo(context.Background(), common.Address{}, owner)
		require.ErrorIs(t, err, zferr.ErrMissingContract)
	})
}

func TestFaucetInfo(t *testing.T) {
	t.Parallel()
	fee, _ := new(big.Int).SetString("1000000000000000", 10)
	r := &fakeReader{outputs: map[string]any{
		"CLAIM_FEE":    fee,
		"CLAIM_AMOUNT": big.NewInt(100_000_000),
		"decimals":     uint8(6),
	}}

	info, err := newService(r).FaucetInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100.0", info.FormattedAmount())
	assert.Equal(t, "0.001", info.FormattedFee())
	assert.Equal(t, forge, info.Token)

	t.Run("airdrop not configured", func(t *testing.T) {
		t.Parallel()
		s := NewService(&Config{Reader: r, FaucetToken: forge})
		_, err := s.FaucetInfo(context.Background())
		require.ErrorIs(t, err, zferr.ErrMissingContract)
	})
}

func TestFactoryLookups(t *testing.T) {
	t.Parallel()

	t.Run("counterpart", func(t *testing.T) {
		t.Parallel()
		r := &fakeReader{outputs: map[string]any{"getConfidentialToken": cusdc}}
		got, err := newService(r).ConfidentialCounterpart(context.Background(), usdc)
		require.NoError(t, err)
		assert.Equal(t, cusdc, got)
		assert.Equal(t, factory, r.calls[0].Contract)
		assert.Equal(t, []any{usdc}, r.calls[0].Args)
	})

	t.Run("underlying", func(t *testing.T) {
		t.Parallel()
		r := &fakeReader{outputs: map[string]any{"getERC20": usdc}}
		got, err := newService(r).UnderlyingToken(context.Background(), cusdc)
		require.NoError(t, err)
		assert.Equal(t, usdc, got)
	})

	t.Run("unregistered", func(t *testing.T) {
		t.Parallel()
		r := &fakeReader{outputs: map[string]any{"getConfidentialToken": common.Address{}}}
		_, err := newService(r).ConfidentialCounterpart(context.Background(), usdc)
		require.ErrorIs(t, err, zferr.ErrTokenNotFound)
	})

	t.Run("no factory", func(t *testing.T) {
		t.Parallel()
		s := NewService(&Config{Reader: &fakeReader{}})
		_, err := s.UnderlyingToken(context.Background(), cusdc)
		require.ErrorIs(t, err, zferr.ErrMissingContract)
	})

	t.Run("rpc failure", func(t *testing.T) {
		t.Parallel()
		r := &fakeReader{fail: map[string]error{"getERC20": errRPC}}
		_, err := newService(r).UnderlyingToken(context.Background(), cusdc)
		require.ErrorIs(t, err, zferr.ErrNetworkError)
	})
}
