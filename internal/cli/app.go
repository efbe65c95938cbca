package cli

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zamaforge/zforge/internal/chain"
	"github.com/zamaforge/zforge/internal/chain/eth"
	"github.com/zamaforge/zforge/internal/config"
	"github.com/zamaforge/zforge/internal/decryption"
	"github.com/zamaforge/zforge/internal/encryption"
	"github.com/zamaforge/zforge/internal/fhevm"
	"github.com/zamaforge/zforge/internal/metrics"
	"github.com/zamaforge/zforge/internal/relayer"
	"github.com/zamaforge/zforge/internal/secret"
	"github.com/zamaforge/zforge/internal/service/balance"
	"github.com/zamaforge/zforge/internal/service/token"
	"github.com/zamaforge/zforge/internal/service/transaction"
	"github.com/zamaforge/zforge/internal/session"
	"github.com/zamaforge/zforge/internal/tokenstore"
	"github.com/zamaforge/zforge/internal/wallet"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// faucetTokenKey names the auto-managed faucet token.
const faucetTokenKey = "forge"

// appOptions selects what a command needs.
type appOptions struct {
	// Unlock prompts for the wallet password and connects the signing key.
	Unlock bool
	// RequireWallet fails when no wallet has been imported.
	RequireWallet bool
}

// app wires the services one command uses.
type app struct {
	cfg       *config.Config
	network   chain.Network
	contracts contracts

	client    *eth.Client
	key       *ecdsa.PrivateKey
	owner     common.Address
	wallets   *wallet.Store
	tokens    *tokenstore.Store
	sessions  *session.Manager
	decryptor *decryption.Protocol
	balances  *balance.Service
	tokenSvc  *token.Service
	txs       *transaction.Service
}

type contracts struct {
	factory    common.Address
	airdrop    common.Address
	forgeToken common.Address
}

//nolint:gochecknoglobals // replaced in tests
var dialBackend func(ctx context.Context, rpcURL string) (eth.Backend, error)

func newApp(opts appOptions) (*app, error) {
	network, err := networkFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	addrs, err := contractsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, network: network, contracts: addrs, wallets: wallet.NewStore(cfg.Home)}

	a.client, err = eth.NewClient(cfg.Network.RPC, &eth.ClientOptions{
		ChainID: new(big.Int).SetUint64(network.ChainID),
		Confirm: confirmAction,
		Dial:    dialBackend,
	})
	if err != nil {
		return nil, err
	}

	if w, loadErr := a.wallets.Load(); loadErr == nil {
		a.owner = w.Address
	} else if opts.RequireWallet || opts.Unlock {
		return nil, loadErr
	}

	if opts.Unlock {
		if err := a.unlock(); err != nil {
			a.close()
			return nil, err
		}
	}

	if a.owner != (common.Address{}) {
		a.tokens, err = tokenstore.Open(filepath.Join(cfg.Home, "tokens"), a.owner, &tokenstore.Options{
			AutoManaged: []tokenstore.Token{faucetToken(addrs.forgeToken)},
			Logger:      logger,
		})
		if err != nil {
			a.close()
			return nil, err
		}
	}

	a.wireServices()
	return a, nil
}

func (a *app) unlock() error {
	password, err := promptPasswordFn("Wallet password: ")
	if err != nil {
		return err
	}
	defer secret.Zero(password)

	key, err := a.wallets.Unlock(password)
	if err != nil {
		return err
	}
	a.key = key
	a.client.Connect(key)
	logger.Debug("wallet %s unlocked", a.owner.Hex())
	return nil
}

func (a *app) wireServices() {
	rc := a.cfg.Relayer
	retry := chain.RetryConfigWithRetries(rc.MaxRetries)
	relayerClient, err := relayer.NewClient(a.network.RelayerURL, &relayer.Options{
		Limiter: chain.NewRateLimiter(rc.RatePerSecond, rc.Burst),
		Retry:   &retry,
		Timeout: time.Duration(rc.TimeoutSeconds) * time.Second,
		Logger:  logger,
		Metrics: metrics.Global,
	})

	factory := func(ctx context.Context, n chain.Network) (fhevm.Instance, error) {
		if err != nil {
			return nil, zferr.WithCause(zferr.ErrSDKInitialization, err)
		}
		inst, createErr := fhevm.CreateInstance(ctx, n, relayerClient)
		if createErr != nil {
			return nil, createErr
		}
		return inst, nil
	}
	a.sessions = session.NewManager(a.network, factory, &session.Options{Logger: logger})
	if a.key != nil {
		a.sessions.AttachWallet(a.client)
	}

	policy, policyErr := decryption.ParsePolicy(a.cfg.Decryption.OnFailure)
	if policyErr != nil {
		policy = decryption.ReturnDefault
	}
	a.decryptor = decryption.NewProtocol(a.sessions, a.client, &decryption.Options{
		Policy:       policy,
		DurationDays: a.cfg.Decryption.DurationDays,
		Logger:       logger,
	})

	balanceCfg := &balance.Config{Reader: a.client, Decryptor: a.decryptor, Logger: logger}
	if a.tokens != nil {
		balanceCfg.Store = a.tokens
	}
	a.balances = balance.NewService(balanceCfg)

	a.tokenSvc = token.NewService(&token.Config{
		Reader:      a.client,
		Factory:     a.contracts.factory,
		Airdrop:     a.contracts.airdrop,
		FaucetToken: a.contracts.forgeToken,
	})

	a.txs = transaction.NewService(&transaction.Config{
		Transport:      a.client,
		Encryptor:      encryption.NewEngine(a.sessions, a.client, &encryption.Options{Logger: logger}),
		Balances:       a.balances,
		Factory:        a.contracts.factory,
		Airdrop:        a.contracts.airdrop,
		FaucetToken:    a.contracts.forgeToken,
		WaitForReceipt: a.cfg.Transactions.WaitForReceipt,
		ReceiptTimeout: time.Duration(a.cfg.Transactions.ReceiptTimeoutSeconds) * time.Second,
		Logger:         logger,
	})
}

// close zeroes the key and releases connections.
func (a *app) close() {
	logMetrics()
	if a.sessions != nil {
		a.sessions.Teardown()
	}
	if a.client != nil {
		a.client.Disconnect()
		a.client.Close()
	}
	if a.key != nil {
		eth.ZeroKey(a.key)
		a.key = nil
	}
}

func logMetrics() {
	if logger == nil {
		return
	}
	s := metrics.Global.Snapshot()
	logger.WithFields(map[string]any{
		"sdk_inits":         s.SDKInitsTotal,
		"sdk_init_errors":   s.SDKInitErrors,
		"encryptions":       s.EncryptionsTotal,
		"decryptions":       s.DecryptionsTotal,
		"decryption_errors": s.DecryptionErrors,
		"submissions":       s.SubmissionsTotal,
		"relayer_calls":     s.RelayerCallsTotal,
		"relayer_avg_ms":    metrics.Global.RelayerLatencyAvgMs(),
	}).Debug("command metrics")
}

// requireTokens returns the token list or explains how to get one.
func (a *app) requireTokens() (*tokenstore.Store, error) {
	if a.tokens == nil {
		return nil, zferr.WithSuggestion(zferr.ErrWalletNotFound, "Run 'zforge wallet import' first")
	}
	return a.tokens, nil
}

func faucetToken(addr common.Address) tokenstore.Token {
	return tokenstore.AutoManaged(faucetTokenKey, "ZamaForge Token", "cZAMA", 6, tokenstore.TypeEncrypted, addr)
}

func networkFromConfig(c *config.Config) (chain.Network, error) {
	n := chain.Network{
		Name:           c.Network.Name,
		ChainID:        c.Network.ChainID,
		RPC:            c.Network.RPC,
		RelayerURL:     c.Network.RelayerURL,
		GatewayChainID: c.Network.GatewayChainID,
	}
	fields := []struct {
		name string
		raw  string
		dst  *common.Address
	}{
		{"network.acl_contract", c.Network.ACLContract, &n.ACLContract},
		{"network.kms_contract", c.Network.KMSContract, &n.KMSContract},
		{"network.input_verifier_contract", c.Network.InputVerifierContract, &n.InputVerifierContract},
		{"network.verifying_contract_decryption", c.Network.VerifyingContractDecryption, &n.VerifyingContractDecryption},
		{"network.verifying_contract_input_verification", c.Network.VerifyingContractInputVerification, &n.VerifyingContractInputVerification},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		addr, err := chain.ParseAddress(f.raw)
		if err != nil {
			return chain.Network{}, zferr.WithDetails(zferr.ErrConfigInvalid, map[string]string{"field": f.name, "value": f.raw})
		}
		*f.dst = addr
	}
	return n, nil
}

func contractsFromConfig(c *config.Config) (contracts, error) {
	var out contracts
	fields := []struct {
		name string
		raw  string
		dst  *common.Address
	}{
		{"contracts.factory", c.Contracts.Factory, &out.factory},
		{"contracts.airdrop", c.Contracts.Airdrop, &out.airdrop},
		{"contracts.forge_token", c.Contracts.ForgeToken, &out.forgeToken},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		addr, err := chain.ParseAddress(f.raw)
		if err != nil {
			return contracts{}, zferr.WithDetails(zferr.ErrConfigInvalid, map[string]string{"field": f.name, "value": f.raw})
		}
		*f.dst = addr
	}
	return out, nil
}
