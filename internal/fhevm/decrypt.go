package fhevm

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/nacl/box"

	"github.com/zamaforge/zforge/internal/relayer"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// HandleContractPair names a ciphertext and the contract that holds it.
type HandleContractPair struct {
	Handle   string
	Contract common.Address
}

// UserDecryptParams carries everything a user decryption needs. Signature
// is the user's signature over the typed data from CreateEIP712.
type UserDecryptParams struct {
	Pairs          []HandleContractPair
	PrivateKey     string
	PublicKey      string
	Signature      string
	Contracts      []common.Address
	User           common.Address
	StartTimestamp int64
	DurationDays   int
}

// sharePlaintextLength is handle(32) | value(32, big endian).
const sharePlaintextLength = HandleLength + 32

// UserDecrypt sends the signed request to the relayer and opens the
// re-encrypted shares locally.
func (i *RelayerInstance) UserDecrypt(ctx context.Context, params *UserDecryptParams) (map[string]*big.Int, error) {
	if params == nil || len(params.Pairs) == 0 {
		return nil, fmt.Errorf("no handles to decrypt: %w", zferr.ErrInvalidInput)
	}
	pub, priv, err := parseKeypair(params.PublicKey, params.PrivateKey)
	if err != nil {
		return nil, err
	}
	defer clear(priv[:])

	wanted := make(map[string]bool, len(params.Pairs))
	pairs := make([]relayer.HandleContractPair, len(params.Pairs))
	for idx, p := range params.Pairs {
		h, err := NormalizeHandle(p.Handle)
		if err != nil {
			return nil, err
		}
		wanted[h] = true
		pairs[idx] = relayer.HandleContractPair{Handle: h, ContractAddress: p.Contract.Hex()}
	}

	contracts := make([]string, len(params.Contracts))
	for idx, c := range params.Contracts {
		contracts[idx] = c.Hex()
	}

	shares, err := i.api.UserDecrypt(ctx, &relayer.UserDecryptRequest{
		HandleContractPairs: pairs,
		RequestValidity: relayer.RequestValidity{
			StartTimestamp: strconv.FormatInt(params.StartTimestamp, 10),
			DurationDays:   strconv.Itoa(params.DurationDays),
		},
		ContractsChainID:  strconv.FormatUint(i.network.ChainID, 10),
		ContractAddresses: contracts,
		UserAddress:       params.User.Hex(),
		Signature:         strip0x(params.Signature),
		PublicKey:         strip0x(hexutil.Encode(pub[:])),
		ExtraData:         defaultExtraData,
	})
	if err != nil {
		return nil, err
	}

	results := make(map[string]*big.Int, len(wanted))
	for idx, share := range shares {
		sealed, err := decodeHex(share.Payload)
		if err != nil {
			return nil, zferr.WithCause(zferr.ErrDecryptionFailed, fmt.Errorf("share %d is not hex", idx))
		}
		plain, ok := box.OpenAnonymous(nil, sealed, pub, priv)
		if !ok || len(plain) != sharePlaintextLength {
			return nil, zferr.WithCause(zferr.ErrDecryptionFailed, fmt.Errorf("share %d could not be opened", idx))
		}
		h := hexutil.Encode(plain[:HandleLength])
		if !wanted[h] {
			return nil, zferr.WithCause(zferr.ErrDecryptionFailed, fmt.Errorf("share %d answers unrequested handle %s", idx, h))
		}
		results[h] = new(big.Int).SetBytes(plain[HandleLength:])
	}

	for h := range wanted {
		if _, ok := results[h]; !ok {
			return nil, zferr.WithCause(zferr.ErrDecryptionFailed, fmt.Errorf("no result for handle %s", h))
		}
	}
	return results, nil
}

func strip0x(s string) string {
	return strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
}
