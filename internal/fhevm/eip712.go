package fhevm

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/zamaforge/zforge/internal/chain"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// UserDecryptPrimaryType is the EIP-712 primary type signed for user decryption.
const UserDecryptPrimaryType = "UserDecryptRequestVerification"

// MaxDecryptContracts bounds the contract list of one decryption request.
const MaxDecryptContracts = 10

// defaultExtraData is the empty extra-data marker sent with every request.
const defaultExtraData = "0x00"

// BuildUserDecryptEIP712 returns the typed data authorizing decryption of
// ciphertexts held by contracts, valid for durationDays from startTimestamp.
func BuildUserDecryptEIP712(network chain.Network, publicKey string, contracts []common.Address, startTimestamp int64, durationDays int) (*apitypes.TypedData, error) {
	pub, err := decodeKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}
	if len(contracts) == 0 || len(contracts) > MaxDecryptContracts {
		return nil, zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{
			"contracts": strconv.Itoa(len(contracts)),
		})
	}
	if startTimestamp < 0 || durationDays <= 0 {
		return nil, zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{
			"start_timestamp": strconv.FormatInt(startTimestamp, 10),
			"duration_days":   strconv.Itoa(durationDays),
		})
	}

	addrs := make([]any, len(contracts))
	for i, c := range contracts {
		addrs[i] = c.Hex()
	}

	chainID := network.GatewayChainID
	if chainID == 0 {
		chainID = network.ChainID
	}

	return &apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			UserDecryptPrimaryType: {
				{Name: "publicKey", Type: "bytes"},
				{Name: "contractAddresses", Type: "address[]"},
				{Name: "startTimestamp", Type: "uint256"},
				{Name: "durationDays", Type: "uint256"},
				{Name: "extraData", Type: "bytes"},
			},
		},
		PrimaryType: UserDecryptPrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              "Decryption",
			Version:           "1",
			ChainId:           math.NewHexOrDecimal256(int64(chainID)), //nolint:gosec // chain IDs fit in int64
			VerifyingContract: network.VerifyingContractDecryption.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"publicKey":         hexutil.Encode(pub[:]),
			"contractAddresses": addrs,
			"startTimestamp":    strconv.FormatInt(startTimestamp, 10),
			"durationDays":      strconv.Itoa(durationDays),
			"extraData":         defaultExtraData,
		},
	}, nil
}
