// Package session owns the lifecycle of the cryptographic SDK instance.
// One instance exists per connected network. It is created lazily on first
// use after a wallet connects, shared by every operation, and rebuilt when
// the network changes.
package session

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zamaforge/zforge/internal/chain"
	"github.com/zamaforge/zforge/internal/fhevm"
)

// Status is the initialization state of a session.
type Status int

// Session states.
const (
	StatusUninitialized Status = iota
	StatusInitializing
	StatusReady
)

// String returns the lowercase state name.
func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// errNetworkChanged is the cause reported to callers whose initialization
// was overtaken by a network change.
var errNetworkChanged = errors.New("network changed during initialization")

// Factory builds an SDK instance bound to network.
type Factory func(ctx context.Context, network chain.Network) (fhevm.Instance, error)

// Provider hands out the shared SDK instance.
type Provider interface {
	Initialize(ctx context.Context) (fhevm.Instance, error)
}

// WalletTransport is the part of the wallet the session depends on.
type WalletTransport interface {
	Address() (common.Address, error)
}

// LogWriter is the logging surface the manager needs.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
