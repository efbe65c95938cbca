// Package eth is the wallet and contract transport over go-ethereum: it
// exposes the connected address, signs EIP-712 typed data, and submits or
// reads contract calls against a JSON-RPC endpoint.
package eth

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Call describes one contract method invocation.
type Call struct {
	Contract common.Address
	ABI      *abi.ABI
	Method   string
	Args     []any
	// Value is the wei attached to payable calls; nil means zero.
	Value *big.Int
}

// Receipt is the subset of a transaction receipt the orchestrators need.
type Receipt struct {
	TxHash      common.Hash
	Status      uint64
	BlockNumber uint64
	GasUsed     uint64
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == 1
}

// Signer is the wallet half of the transport.
type Signer interface {
	// Address returns the connected account or ErrWalletNotConnected.
	Address() (common.Address, error)
	// SignTypedData signs an EIP-712 payload and returns the 65-byte
	// signature as 0x-prefixed hex.
	SignTypedData(ctx context.Context, data *apitypes.TypedData) (string, error)
}

// Reader performs read-only contract calls.
type Reader interface {
	Read(ctx context.Context, call Call) ([]any, error)
}

// Transport is the full wallet/contract collaborator.
type Transport interface {
	Signer
	Reader
	ChainID(ctx context.Context) (*big.Int, error)
	Send(ctx context.Context, call Call) (common.Hash, error)
	WaitForReceipt(ctx context.Context, hash common.Hash) (*Receipt, error)
}
