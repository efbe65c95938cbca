package fhevm

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"filippo.io/age"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/zamaforge/zforge/internal/relayer"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

// payloadVersion is the first byte of every sealed input payload.
const payloadVersion byte = 1

// MaxInputValues bounds the number of values in one encrypted input.
const MaxInputValues = 255

// inputValue is one typed plaintext awaiting encryption.
type inputValue struct {
	typ   FheType
	value uint64
}

// relayerInput accumulates values and seals them to the network key.
type relayerInput struct {
	inst     *RelayerInstance
	contract common.Address
	user     common.Address
	values   []inputValue
}

// CreateEncryptedInput starts an encrypted input bound to contract and user.
func (i *RelayerInstance) CreateEncryptedInput(contract, user common.Address) InputBuilder {
	return &relayerInput{inst: i, contract: contract, user: user}
}

func (in *relayerInput) Add64(value uint64) InputBuilder {
	in.values = append(in.values, inputValue{typ: FheUint64, value: value})
	return in
}

// Encrypt seals the values, has the relayer verify them, and returns the
// handles along with the assembled input proof.
func (in *relayerInput) Encrypt(ctx context.Context) (*EncryptedValues, error) {
	if len(in.values) == 0 || len(in.values) > MaxInputValues {
		return nil, fmt.Errorf("encrypted input with %d values: %w", len(in.values), zferr.ErrInvalidInput)
	}

	plain := encodePayload(in.values, in.contract, in.user, in.inst.network.ChainID)
	ciphertext, err := seal(in.inst.networkPK, plain)
	clear(plain)
	if err != nil {
		return nil, err
	}

	resp, err := in.inst.api.InputProof(ctx, &relayer.InputProofRequest{
		ContractChainID: strconv.FormatUint(in.inst.network.ChainID, 10),
		ContractAddress: in.contract.Hex(),
		UserAddress:     in.user.Hex(),
		Ciphertext:      hex.EncodeToString(ciphertext),
		ExtraData:       defaultExtraData,
	})
	if err != nil {
		return nil, err
	}

	types := make([]FheType, len(in.values))
	for idx, v := range in.values {
		types[idx] = v.typ
	}
	expected := ComputeHandles(ciphertext, types, in.inst.network.ACLContract, in.inst.network.ChainID)

	if len(resp.Handles) != len(expected) {
		return nil, fmt.Errorf("relayer returned %d handles for %d values: %w",
			len(resp.Handles), len(expected), relayer.ErrRelayerResponse)
	}
	for idx, h := range resp.Handles {
		got, err := decodeHex(h)
		if err != nil || !bytes.Equal(got, expected[idx][:]) {
			return nil, fmt.Errorf("handle %d does not match the submitted ciphertext: %w", idx, relayer.ErrRelayerResponse)
		}
	}

	sigs := make([][]byte, len(resp.Signatures))
	for idx, s := range resp.Signatures {
		if sigs[idx], err = decodeHex(s); err != nil {
			return nil, fmt.Errorf("signature %d: %w", idx, relayer.ErrRelayerResponse)
		}
	}

	extra, _ := hexutil.Decode(defaultExtraData)
	proof, err := BuildInputProof(expected, sigs, extra)
	if err != nil {
		return nil, err
	}

	out := &EncryptedValues{InputProof: proof, Handles: make([][]byte, len(expected))}
	for idx := range expected {
		out.Handles[idx] = append([]byte(nil), expected[idx][:]...)
	}
	return out, nil
}

// encodePayload lays out version | count | (type | value)* | contract | user | chainID.
func encodePayload(values []inputValue, contract, user common.Address, chainID uint64) []byte {
	buf := make([]byte, 0, 2+len(values)*9+common.AddressLength*2+8)
	buf = append(buf, payloadVersion, byte(len(values)))
	for _, v := range values {
		buf = append(buf, byte(v.typ))
		buf = binary.BigEndian.AppendUint64(buf, v.value)
	}
	buf = append(buf, contract.Bytes()...)
	buf = append(buf, user.Bytes()...)
	return binary.BigEndian.AppendUint64(buf, chainID)
}

// DecodedPayload is the plaintext of a sealed input.
type DecodedPayload struct {
	Types    []FheType
	Values   []uint64
	Contract common.Address
	User     common.Address
	ChainID  uint64
}

// DecodePayload parses a plaintext produced by the input builder. The
// relayer side uses it after opening a ciphertext.
func DecodePayload(b []byte) (*DecodedPayload, error) {
	if len(b) < 2 || b[0] != payloadVersion {
		return nil, fmt.Errorf("unsupported input payload: %w", zferr.ErrInvalidInput)
	}
	n := int(b[1])
	if len(b) != 2+n*9+common.AddressLength*2+8 {
		return nil, fmt.Errorf("input payload length %d: %w", len(b), zferr.ErrInvalidInput)
	}

	p := &DecodedPayload{}
	off := 2
	for range n {
		p.Types = append(p.Types, FheType(b[off]))
		p.Values = append(p.Values, binary.BigEndian.Uint64(b[off+1:off+9]))
		off += 9
	}
	p.Contract = common.BytesToAddress(b[off : off+common.AddressLength])
	off += common.AddressLength
	p.User = common.BytesToAddress(b[off : off+common.AddressLength])
	off += common.AddressLength
	p.ChainID = binary.BigEndian.Uint64(b[off:])
	return p, nil
}

func seal(recipient age.Recipient, plain []byte) ([]byte, error) {
	var out bytes.Buffer
	w, err := age.Encrypt(&out, recipient)
	if err != nil {
		return nil, fmt.Errorf("sealing input: %w", err)
	}
	if _, err := io.Copy(w, bytes.NewReader(plain)); err != nil {
		return nil, fmt.Errorf("sealing input: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("sealing input: %w", err)
	}
	return out.Bytes(), nil
}

// decodeHex accepts hex with or without the 0x prefix.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}
