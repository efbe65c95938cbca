package fhevm

import (
	"encoding/binary"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// FheType tags the plaintext type behind a handle.
type FheType byte

// Supported encrypted types.
const (
	FheBool   FheType = 0
	FheUint8  FheType = 2
	FheUint16 FheType = 3
	FheUint32 FheType = 4
	FheUint64 FheType = 5
)

// Bits returns the plaintext width of t.
func (t FheType) Bits() int {
	switch t {
	case FheBool:
		return 2
	case FheUint8:
		return 8
	case FheUint16:
		return 16
	case FheUint32:
		return 32
	case FheUint64:
		return 64
	default:
		return 0
	}
}

// HandleVersion is the handle layout version this package produces.
const HandleVersion byte = 0

// HandleLength is the size of a ciphertext handle in bytes.
const HandleLength = 32

var handleDomain = []byte("ZK-w_hdl")

// ComputeHandles derives one handle per input value. The layout is
// hash[0:21] | index | chainID (8 bytes, big endian) | type | version.
func ComputeHandles(ciphertext []byte, types []FheType, acl common.Address, chainID uint64) [][HandleLength]byte {
	blobHash := crypto.Keccak256(ciphertext)
	chainWord := common.LeftPadBytes(new(big.Int).SetUint64(chainID).Bytes(), 32)

	handles := make([][HandleLength]byte, len(types))
	for i, t := range types {
		h := crypto.Keccak256(handleDomain, blobHash, []byte{byte(i)}, acl.Bytes(), chainWord)

		var out [HandleLength]byte
		copy(out[:21], h[:21])
		out[21] = byte(i)
		binary.BigEndian.PutUint64(out[22:30], chainID)
		out[30] = byte(t)
		out[31] = HandleVersion
		handles[i] = out
	}
	return handles
}

// HandleInfo is the metadata encoded in a handle.
type HandleInfo struct {
	Index   uint8
	ChainID uint64
	Type    FheType
	Version uint8
}

// ParseHandle decodes the metadata bytes of a hex handle.
func ParseHandle(handle string) (HandleInfo, error) {
	b, err := decodeHandle(handle)
	if err != nil {
		return HandleInfo{}, err
	}
	return HandleInfo{
		Index:   b[21],
		ChainID: binary.BigEndian.Uint64(b[22:30]),
		Type:    FheType(b[30]),
		Version: b[31],
	}, nil
}

// NormalizeHandle returns the canonical lowercase 0x-prefixed form.
func NormalizeHandle(handle string) (string, error) {
	b, err := decodeHandle(handle)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(b), nil
}

// IsZeroHandle reports whether handle is the all-zero ciphertext, which
// contracts return for accounts that never held a balance.
func IsZeroHandle(handle string) bool {
	s := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(handle), "0x"), "0X")
	if s == "" {
		return false
	}
	return strings.Trim(s, "0") == ""
}

func decodeHandle(handle string) ([]byte, error) {
	b, err := hexutil.Decode(strings.ToLower(strings.TrimSpace(handle)))
	if err != nil || len(b) != HandleLength {
		return nil, zferr.WithDetails(zferr.ErrInvalidHandle, map[string]string{"handle": handle})
	}
	return b, nil
}
