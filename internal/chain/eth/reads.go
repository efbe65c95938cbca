package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// ReadBigInt performs call and returns its single uint256 output.
func ReadBigInt(ctx context.Context, r Reader, call Call) (*big.Int, error) {
	v, err := readOne(ctx, r, call)
	if err != nil {
		return nil, err
	}
	out, ok := v.(*big.Int)
	if !ok {
		return nil, unexpectedOutput(call, v)
	}
	return out, nil
}

// ReadUint8 performs call and returns its single uint8 output.
func ReadUint8(ctx context.Context, r Reader, call Call) (uint8, error) {
	v, err := readOne(ctx, r, call)
	if err != nil {
		return 0, err
	}
	out, ok := v.(uint8)
	if !ok {
		return 0, unexpectedOutput(call, v)
	}
	return out, nil
}

// ReadString performs call and returns its single string output.
func ReadString(ctx context.Context, r Reader, call Call) (string, error) {
	v, err := readOne(ctx, r, call)
	if err != nil {
		return "", err
	}
	out, ok := v.(string)
	if !ok {
		return "", unexpectedOutput(call, v)
	}
	return out, nil
}

// ReadAddress performs call and returns its single address output.
func ReadAddress(ctx context.Context, r Reader, call Call) (common.Address, error) {
	v, err := readOne(ctx, r, call)
	if err != nil {
		return common.Address{}, err
	}
	out, ok := v.(common.Address)
	if !ok {
		return common.Address{}, unexpectedOutput(call, v)
	}
	return out, nil
}

// ReadHandle performs call and returns its single bytes32 output as
// lowercase 0x-prefixed hex.
func ReadHandle(ctx context.Context, r Reader, call Call) (string, error) {
	v, err := readOne(ctx, r, call)
	if err != nil {
		return "", err
	}
	out, ok := v.([32]byte)
	if !ok {
		return "", unexpectedOutput(call, v)
	}
	return hexutil.Encode(out[:]), nil
}

// HandleArg converts a hex handle into the bytes32 ABI argument.
func HandleArg(handle string) ([32]byte, error) {
	var out [32]byte
	b, err := hexutil.Decode(handle)
	if err != nil || len(b) != len(out) {
		return out, zferr.WithDetails(zferr.ErrInvalidHandle, map[string]string{"handle": handle})
	}
	copy(out[:], b)
	return out, nil
}

// ProofArg converts a hex input proof into the bytes ABI argument.
func ProofArg(proof string) ([]byte, error) {
	b, err := hexutil.Decode(proof)
	if err != nil {
		return nil, zferr.WithCause(zferr.ErrInvalidInput, fmt.Errorf("input proof: %w", err))
	}
	return b, nil
}

func readOne(ctx context.Context, r Reader, call Call) (any, error) {
	out, err := r.Read(ctx, call)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%s returned %d values, expected 1", call.Method, len(out))
	}
	return out[0], nil
}

func unexpectedOutput(call Call, v any) error {
	return fmt.Errorf("%s returned unexpected type %T", call.Method, v)
}
