package eth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

const defaultPollInterval = 2 * time.Second

var (
	// ErrRPCURLRequired indicates the RPC URL was not provided.
	ErrRPCURLRequired = &zferr.ForgeError{
		Code:     "ETH_RPC_URL_REQUIRED",
		Message:  "RPC URL is required",
		ExitCode: zferr.ExitInput,
	}

	// ErrChainMismatch indicates the endpoint serves a different chain than configured.
	ErrChainMismatch = &zferr.ForgeError{
		Code:     "ETH_CHAIN_MISMATCH",
		Message:  "RPC endpoint is on a different chain",
		ExitCode: zferr.ExitInput,
	}

	errMissingABI = errors.New("call has no ABI")
)

// Backend is the go-ethereum client surface the transport depends on.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// ConfirmFunc asks the user to approve a signature or transaction. A false
// answer is reported as a rejection.
type ConfirmFunc func(ctx context.Context, action string) (bool, error)

// ClientOptions contains optional configuration for the client.
type ClientOptions struct {
	// ChainID pins the expected chain; the endpoint is checked against it on connect.
	ChainID *big.Int
	// Confirm gates every signature and transaction. Nil approves everything.
	Confirm ConfirmFunc
	// PollInterval is the receipt polling period.
	PollInterval time.Duration
	// Dial overrides how the backend is created.
	Dial func(ctx context.Context, rpcURL string) (Backend, error)
}

var _ Transport = (*Client)(nil)

// Client is a Transport backed by a JSON-RPC endpoint and a local key.
type Client struct {
	rpcURL       string
	dial         func(ctx context.Context, rpcURL string) (Backend, error)
	confirm      ConfirmFunc
	pollInterval time.Duration

	mu      sync.Mutex
	backend Backend
	chainID *big.Int
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewClient creates a client for rpcURL. No connection is made until the
// first call.
func NewClient(rpcURL string, opts *ClientOptions) (*Client, error) {
	if rpcURL == "" {
		return nil, ErrRPCURLRequired
	}

	c := &Client{
		rpcURL:       rpcURL,
		dial:         dialEthclient,
		pollInterval: defaultPollInterval,
	}

	if opts != nil {
		if opts.ChainID != nil {
			c.chainID = new(big.Int).Set(opts.ChainID)
		}
		c.confirm = opts.Confirm
		if opts.PollInterval > 0 {
			c.pollInterval = opts.PollInterval
		}
		if opts.Dial != nil {
			c.dial = opts.Dial
		}
	}

	return c, nil
}

func dialEthclient(ctx context.Context, rpcURL string) (Backend, error) {
	return ethclient.DialContext(ctx, rpcURL)
}

// Connect attaches the signing key. The client keeps the key until
// Disconnect is called.
func (c *Client) Connect(key *ecdsa.PrivateKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = key
	c.address = crypto.PubkeyToAddress(key.PublicKey)
}

// Disconnect drops and zeroes the signing key.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key != nil {
		ZeroKey(c.key)
	}
	c.key = nil
	c.address = common.Address{}
}

// Close disconnects the wallet and the RPC backend.
func (c *Client) Close() {
	c.Disconnect()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backend != nil {
		c.backend.Close()
		c.backend = nil
	}
}

// Address returns the connected account.
func (c *Client) Address() (common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key == nil {
		return common.Address{}, zferr.ErrWalletNotConnected
	}
	return c.address, nil
}

// ChainID returns the chain the endpoint serves.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	_, chainID, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(chainID), nil
}

// Read performs an eth_call and returns the decoded outputs.
func (c *Client) Read(ctx context.Context, call Call) ([]any, error) {
	if call.ABI == nil {
		return nil, fmt.Errorf("%s: %w", call.Method, errMissingABI)
	}

	backend, _, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	opts := &bind.CallOpts{Context: ctx}
	if from, err := c.Address(); err == nil {
		opts.From = from
	}

	contract := bind.NewBoundContract(call.Contract, *call.ABI, backend, backend, backend)

	var out []any
	if err := contract.Call(opts, &out, call.Method, call.Args...); err != nil {
		return nil, zferr.WithCause(zferr.ErrNetworkError, fmt.Errorf("calling %s on %s: %w", call.Method, call.Contract.Hex(), err))
	}
	return out, nil
}

// Send signs and submits a contract transaction. It returns once the node
// accepts the transaction; use WaitForReceipt for inclusion.
func (c *Client) Send(ctx context.Context, call Call) (common.Hash, error) {
	if call.ABI == nil {
		return common.Hash{}, fmt.Errorf("%s: %w", call.Method, errMissingABI)
	}

	key, err := c.signingKey()
	if err != nil {
		return common.Hash{}, err
	}

	if err := c.approve(ctx, fmt.Sprintf("Send %s to %s", call.Method, call.Contract.Hex()), zferr.ErrTxRejected); err != nil {
		return common.Hash{}, err
	}

	backend, chainID, err := c.connect(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("creating transactor: %w", err)
	}
	opts.Context = ctx
	opts.Value = call.Value

	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, zferr.WithCause(zferr.ErrNetworkError, fmt.Errorf("suggesting gas price: %w", err))
	}
	opts.GasPrice = gasPrice

	contract := bind.NewBoundContract(call.Contract, *call.ABI, backend, backend, backend)
	tx, err := contract.Transact(opts, call.Method, call.Args...)
	if err != nil {
		return common.Hash{}, zferr.WithCause(zferr.ErrTxRejected, fmt.Errorf("%s: %w", call.Method, err))
	}

	return tx.Hash(), nil
}

// WaitForReceipt polls until the transaction is mined or ctx is done.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	backend, _, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := backend.TransactionReceipt(ctx, hash)
		if err == nil {
			r := &Receipt{
				TxHash:  receipt.TxHash,
				Status:  receipt.Status,
				GasUsed: receipt.GasUsed,
			}
			if receipt.BlockNumber != nil {
				r.BlockNumber = receipt.BlockNumber.Uint64()
			}
			return r, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, zferr.WithCause(zferr.ErrNetworkError, fmt.Errorf("fetching receipt %s: %w", hash.Hex(), err))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) signingKey() (*ecdsa.PrivateKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key == nil {
		return nil, zferr.ErrWalletNotConnected
	}
	return c.key, nil
}

func (c *Client) approve(ctx context.Context, action string, rejected *zferr.ForgeError) error {
	if c.confirm == nil {
		return nil
	}
	ok, err := c.confirm(ctx, action)
	if err != nil {
		return zferr.WithCause(rejected, err)
	}
	if !ok {
		return rejected
	}
	return nil
}

// connect dials the backend if not already connected and resolves the
// chain ID. A failed attempt leaves the client unconnected so the next
// call retries.
func (c *Client) connect(ctx context.Context) (Backend, *big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return c.backend, c.chainID, nil
	}

	backend, err := c.dial(ctx, c.rpcURL)
	if err != nil {
		return nil, nil, zferr.WithCause(zferr.ErrNetworkError, fmt.Errorf("dialing %s: %w", c.rpcURL, err))
	}

	remote, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, nil, zferr.WithCause(zferr.ErrNetworkError, fmt.Errorf("getting chain ID: %w", err))
	}

	if c.chainID != nil && c.chainID.Cmp(remote) != 0 {
		backend.Close()
		return nil, nil, zferr.WithDetails(ErrChainMismatch, map[string]string{
			"expected": c.chainID.String(),
			"actual":   remote.String(),
		})
	}

	c.backend = backend
	c.chainID = remote
	return backend, remote, nil
}
