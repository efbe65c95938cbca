package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/zamaforge/zforge/internal/chain"
	"github.com/zamaforge/zforge/internal/fhevm"
	"github.com/zamaforge/zforge/internal/metrics"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// Options configures a Manager.
type Options struct {
	Logger  LogWriter
	Metrics *metrics.Metrics
}

// Manager memoizes the SDK instance for the connected network. At most one
// initialization runs at a time; callers arriving while it runs wait for
// and receive the same instance.
type Manager struct {
	factory Factory
	logger  LogWriter
	metrics *metrics.Metrics
	group   singleflight.Group
	waiting atomic.Int32

	mu         sync.Mutex
	network    chain.Network
	wallet     WalletTransport
	instance   fhevm.Instance
	status     Status
	generation uint64
}

var _ Provider = (*Manager)(nil)

// NewManager creates a manager for network. No instance is built until
// Initialize is called with a wallet attached.
func NewManager(network chain.Network, factory Factory, opts *Options) *Manager {
	m := &Manager{
		factory: factory,
		network: network,
		logger:  nopLogger{},
		metrics: metrics.Global,
	}
	if opts != nil {
		if opts.Logger != nil {
			m.logger = opts.Logger
		}
		if opts.Metrics != nil {
			m.metrics = opts.Metrics
		}
	}
	return m
}

// AttachWallet records the connected wallet transport.
func (m *Manager) AttachWallet(w WalletTransport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallet = w
}

// Initialize returns the ready instance, building it on first use.
// A failed initialization leaves the session uninitialized so a later
// call retries.
func (m *Manager) Initialize(ctx context.Context) (fhevm.Instance, error) {
	m.mu.Lock()
	if m.instance != nil {
		inst := m.instance
		m.mu.Unlock()
		return inst, nil
	}
	if err := m.walletReadyLocked(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if m.factory == nil {
		m.mu.Unlock()
		return nil, zferr.WithCause(zferr.ErrSDKInitialization, errors.New("no SDK factory configured"))
	}
	gen := m.generation
	network := m.network
	m.status = StatusInitializing
	m.mu.Unlock()

	key := fmt.Sprintf("%d|%s", gen, network.Key())

	m.waiting.Add(1)
	defer m.waiting.Add(-1)

	// The build outlives any single caller's context.
	ch := m.group.DoChan(key, func() (any, error) {
		return m.build(context.WithoutCancel(ctx), gen, network)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			m.metrics.RecordSDKInitShared()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(fhevm.Instance), nil
	}
}

func (m *Manager) build(ctx context.Context, gen uint64, network chain.Network) (fhevm.Instance, error) {
	m.logger.Debug("initializing SDK for chain %d via %s", network.ChainID, network.RelayerURL)

	inst, err := m.factory(ctx, network)
	m.metrics.RecordSDKInit(err)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen {
		m.logger.Debug("discarding SDK instance for chain %d: network changed", network.ChainID)
		return nil, zferr.WithCause(zferr.ErrSDKInitialization, errNetworkChanged)
	}
	if err != nil {
		m.status = StatusUninitialized
		m.logger.Error("SDK initialization failed: %v", err)
		if errors.Is(err, zferr.ErrSDKInitialization) {
			return nil, err
		}
		return nil, zferr.WithCause(zferr.ErrSDKInitialization, err)
	}

	m.instance = inst
	m.status = StatusReady
	return inst, nil
}

func (m *Manager) walletReadyLocked() error {
	if m.wallet == nil {
		return zferr.WithCause(zferr.ErrSDKInitialization, zferr.ErrWalletNotConnected)
	}
	if _, err := m.wallet.Address(); err != nil {
		return zferr.WithCause(zferr.ErrSDKInitialization, err)
	}
	return nil
}

// SetNetwork rebinds the manager. A different network invalidates the
// current instance and any initialization in flight.
func (m *Manager) SetNetwork(network chain.Network) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if network.Key() == m.network.Key() {
		m.network = network
		return
	}
	m.logger.Debug("network changed to chain %d, invalidating SDK session", network.ChainID)
	m.network = network
	m.invalidateLocked()
}

// Invalidate drops the instance so the next Initialize rebuilds it.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateLocked()
}

// Teardown drops the instance and detaches the wallet.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallet = nil
	m.invalidateLocked()
}

func (m *Manager) invalidateLocked() {
	m.generation++
	m.instance = nil
	m.status = StatusUninitialized
}

// Status returns the current initialization state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Network returns the network the manager is bound to.
func (m *Manager) Network() chain.Network {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.network
}

// Waiting returns how many callers are blocked on an initialization.
func (m *Manager) Waiting() int {
	return int(m.waiting.Load())
}
