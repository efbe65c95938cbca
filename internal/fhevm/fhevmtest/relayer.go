// Package fhevmtest provides an in-memory relayer for tests. It holds the
// network identity, remembers the plaintext behind every handle it has
// verified, and answers user decryption requests after checking the
// EIP-712 signature, so callers exercise the real client code paths.
package fhevmtest

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"filippo.io/age"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/nacl/box"

	"github.com/zamaforge/zforge/internal/chain"
	"github.com/zamaforge/zforge/internal/chain/eth"
	"github.com/zamaforge/zforge/internal/fhevm"
	"github.com/zamaforge/zforge/internal/relayer"
)

var (
	// ErrBadSignature is returned when a decryption request is not signed by its user.
	ErrBadSignature = errors.New("fhevmtest: signature does not match user")
	// ErrUnknownHandle is returned for handles the relayer never issued or was given.
	ErrUnknownHandle = errors.New("fhevmtest: unknown handle")
	// ErrBadInput is returned for ciphertexts that do not open or do not bind to the request.
	ErrBadInput = errors.New("fhevmtest: malformed input")
)

// Network returns a complete network descriptor for tests.
func Network() chain.Network {
	return chain.Network{
		Name:                               "testnet",
		ChainID:                            11155111,
		RPC:                                "http://127.0.0.1:8545",
		RelayerURL:                         "http://relayer.test",
		GatewayChainID:                     55815,
		ACLContract:                        common.HexToAddress("0x687820221192C5B662b25367F70076A37bc79b6c"),
		KMSContract:                        common.HexToAddress("0x1364cBBf2cDF5032C47d8226a6f6FBD2AFCDacAC"),
		InputVerifierContract:              common.HexToAddress("0xbc91f3daD1A5F19F8390c400196e58073B6a0BC4"),
		VerifyingContractDecryption:        common.HexToAddress("0xb6E160B1ff80D67Bfe90A85eE06Ce0A2613607D1"),
		VerifyingContractInputVerification: common.HexToAddress("0x7048C39f048125eDa9d678AEbaDfB22F7900a29F"),
	}
}

// Relayer is a fake relayer. The Fail* fields, when set, are returned by
// the matching endpoint.
type Relayer struct {
	network  chain.Network
	identity *age.X25519Identity

	mu     sync.Mutex
	values map[string]*big.Int

	FailKey     error
	FailInput   error
	FailDecrypt error

	KeyCalls     int
	InputCalls   int
	DecryptCalls int
	// LastDecrypt is the most recent user decryption request.
	LastDecrypt *relayer.UserDecryptRequest
}

// New creates a fake relayer for network with a fresh network identity.
func New(network chain.Network) *Relayer {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		panic(err)
	}
	return &Relayer{network: network, identity: id, values: make(map[string]*big.Int)}
}

// Instance creates a client instance bound to the fake relayer.
func (r *Relayer) Instance(ctx context.Context) (*fhevm.RelayerInstance, error) {
	return fhevm.CreateInstance(ctx, r.network, r)
}

// SetValue makes handle decrypt to value.
func (r *Relayer) SetValue(handle string, value *big.Int) {
	h, err := fhevm.NormalizeHandle(handle)
	if err != nil {
		panic(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[h] = new(big.Int).Set(value)
}

// Value returns the plaintext recorded for handle.
func (r *Relayer) Value(handle string) (*big.Int, bool) {
	h, err := fhevm.NormalizeHandle(handle)
	if err != nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[h]
	return v, ok
}

// Handle returns a well-formed uint64 handle derived from seed.
func Handle(seed byte) string {
	hs := fhevm.ComputeHandles([]byte{seed}, []fhevm.FheType{fhevm.FheUint64}, common.Address{}, Network().ChainID)
	return hexutil.Encode(hs[0][:])
}

// KeyInfo returns the network recipient.
func (r *Relayer) KeyInfo(_ context.Context) (*relayer.KeyInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.KeyCalls++
	if r.FailKey != nil {
		return nil, r.FailKey
	}
	return &relayer.KeyInfo{PublicKeyID: "test-key", PublicKey: r.identity.Recipient().String()}, nil
}

// InputProof opens the ciphertext, records the plaintexts under the
// computed handles, and signs them with random signatures.
func (r *Relayer) InputProof(_ context.Context, req *relayer.InputProofRequest) (*relayer.InputProofResponse, error) {
	r.mu.Lock()
	r.InputCalls++
	fail := r.FailInput
	r.mu.Unlock()
	if fail != nil {
		return nil, fail
	}

	ct, err := hex.DecodeString(req.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadInput, err)
	}
	dec, err := age.Decrypt(bytes.NewReader(ct), r.identity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadInput, err)
	}
	plain, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadInput, err)
	}
	payload, err := fhevm.DecodePayload(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadInput, err)
	}
	if !strings.EqualFold(payload.Contract.Hex(), req.ContractAddress) ||
		!strings.EqualFold(payload.User.Hex(), req.UserAddress) ||
		strconv.FormatUint(payload.ChainID, 10) != req.ContractChainID {
		return nil, fmt.Errorf("%w: payload is bound to a different contract, user or chain", ErrBadInput)
	}

	handles := fhevm.ComputeHandles(ct, payload.Types, r.network.ACLContract, r.network.ChainID)
	resp := &relayer.InputProofResponse{}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, h := range handles {
		enc := hexutil.Encode(h[:])
		r.values[enc] = new(big.Int).SetUint64(payload.Values[i])
		resp.Handles = append(resp.Handles, strings.TrimPrefix(enc, "0x"))
	}
	sig := make([]byte, 65)
	_, _ = rand.Read(sig)
	resp.Signatures = []string{hex.EncodeToString(sig)}
	return resp, nil
}

// UserDecrypt checks the request signature and seals each value to the
// request's public key.
func (r *Relayer) UserDecrypt(_ context.Context, req *relayer.UserDecryptRequest) ([]relayer.DecryptedShare, error) {
	r.mu.Lock()
	r.DecryptCalls++
	cp := *req
	r.LastDecrypt = &cp
	fail := r.FailDecrypt
	r.mu.Unlock()
	if fail != nil {
		return nil, fail
	}

	contracts := make([]common.Address, len(req.ContractAddresses))
	for i, c := range req.ContractAddresses {
		contracts[i] = common.HexToAddress(c)
	}
	start, _ := strconv.ParseInt(req.RequestValidity.StartTimestamp, 10, 64)
	days, _ := strconv.Atoi(req.RequestValidity.DurationDays)

	typed, err := fhevm.BuildUserDecryptEIP712(r.network, "0x"+req.PublicKey, contracts, start, days)
	if err != nil {
		return nil, err
	}
	signer, err := eth.RecoverTypedDataSigner(typed, "0x"+req.Signature)
	if err != nil || !strings.EqualFold(signer.Hex(), req.UserAddress) {
		return nil, ErrBadSignature
	}

	pubBytes, err := hex.DecodeString(req.PublicKey)
	if err != nil || len(pubBytes) != 32 {
		return nil, fmt.Errorf("%w: public key", ErrBadInput)
	}
	var pub [32]byte
	copy(pub[:], pubBytes)

	r.mu.Lock()
	defer r.mu.Unlock()
	shares := make([]relayer.DecryptedShare, 0, len(req.HandleContractPairs))
	for _, p := range req.HandleContractPairs {
		v, ok := r.values[strings.ToLower(p.Handle)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, p.Handle)
		}
		plain := append(hexutil.MustDecode(strings.ToLower(p.Handle)), common.LeftPadBytes(v.Bytes(), 32)...)
		sealed, err := box.SealAnonymous(nil, plain, &pub, rand.Reader)
		if err != nil {
			return nil, err
		}
		shares = append(shares, relayer.DecryptedShare{Payload: hex.EncodeToString(sealed)})
	}
	return shares, nil
}

// Handler serves the fake over HTTP using the relayer's JSON envelope.
func (r *Relayer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+relayer.PathKeyURL, func(w http.ResponseWriter, req *http.Request) {
		out, err := r.KeyInfo(req.Context())
		respond(w, out, err)
	})
	mux.HandleFunc("POST "+relayer.PathInputProof, func(w http.ResponseWriter, req *http.Request) {
		var in relayer.InputProofRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			respond(w, nil, err)
			return
		}
		out, err := r.InputProof(req.Context(), &in)
		respond(w, out, err)
	})
	mux.HandleFunc("POST "+relayer.PathUserDecrypt, func(w http.ResponseWriter, req *http.Request) {
		var in relayer.UserDecryptRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			respond(w, nil, err)
			return
		}
		out, err := r.UserDecrypt(req.Context(), &in)
		respond(w, out, err)
	})
	return mux
}

func respond(w http.ResponseWriter, out any, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"response": out})
}
