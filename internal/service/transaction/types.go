package transaction

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zamaforge/zforge/internal/chain/eth"
)

// Kind names one orchestrator.
type Kind string

// Orchestrators.
const (
	KindPlainTransfer        Kind = "transfer"
	KindConfidentialTransfer Kind = "confidential_transfer"
	KindWrap                 Kind = "wrap"
	KindUnwrap               Kind = "unwrap"
	KindClaim                Kind = "claim"
)

// TransferRequest moves Amount of Token to To. Amount is a decimal string
// scaled by Decimals.
type TransferRequest struct {
	Token    common.Address
	To       common.Address
	Amount   string
	Decimals uint8
}

// WrapRequest converts Amount of the plain Token into its confidential counterpart.
type WrapRequest struct {
	Token    common.Address
	Amount   string
	Decimals uint8
}

// UnwrapRequest converts Amount of the confidential Token back to plain.
// The destination is always the connected wallet.
type UnwrapRequest struct {
	Token    common.Address
	Amount   string
	Decimals uint8
}

// Result describes a submitted transaction.
type Result struct {
	Kind   Kind
	TxHash common.Hash
	From   common.Address
	To     common.Address
	// Amount is in raw token units.
	Amount *big.Int
	// NeedsApproval is set by Wrap when it submitted an approval instead
	// of the wrap. Call Wrap again once the approval is mined.
	NeedsApproval bool
	// Receipt is set when receipts are awaited.
	Receipt *eth.Receipt
}
