package cli

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/zamaforge/zforge/internal/chain/eth"
	"github.com/zamaforge/zforge/internal/config"
	"github.com/zamaforge/zforge/internal/tokenstore"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testAddress  = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	testPassword = "correct horse battery"
)

// withMockPrompts replaces prompt functions for testing and restores on cleanup.
func withMockPrompts(t *testing.T, password []byte, confirm bool) {
	t.Helper()
	origPW := promptPasswordFn
	origNewPW := promptNewPasswordFn
	origMnemonic := promptMnemonicFn
	origConfirm := promptConfirmFn
	t.Cleanup(func() {
		promptPasswordFn = origPW
		promptNewPasswordFn = origNewPW
		promptMnemonicFn = origMnemonic
		promptConfirmFn = origConfirm
	})
	promptPasswordFn = func(_ string) ([]byte, error) {
		cp := make([]byte, len(password))
		copy(cp, password)
		return cp, nil
	}
	promptNewPasswordFn = func() ([]byte, error) {
		cp := make([]byte, len(password))
		copy(cp, password)
		return cp, nil
	}
	promptMnemonicFn = func() (string, error) { return testMnemonic, nil }
	promptConfirmFn = func(string) bool { return confirm }
}

// resetFlags restores every flag variable to its default. Cobra keeps
// parsed values between Execute calls.
func resetFlags() {
	homeDir, outputFormat, verbose, assumeYes = "", "auto", false, false
	configForce, walletForce, transferConfidential = false, false, false
	tokenType, tokenName, tokenSymbol, tokenDecimals = string(tokenstore.TypeERC20), "", "", -1
}

// newTestHome points the CLI at a fresh home directory with logging off.
func newTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvLogLevel, "off")
	t.Setenv(config.EnvOutputFormat, "")
	t.Setenv(config.EnvRPC, "")
	return home
}

// runCommand executes the root command with args and returns what it wrote.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// decodeJSON unmarshals command output into v.
func decodeJSON(t *testing.T, s string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(s), v), "output: %s", s)
}

// importTestWallet imports the well-known test mnemonic into the current home.
func importTestWallet(t *testing.T) {
	t.Helper()
	withMockPrompts(t, []byte(testPassword), true)
	_, _, err := runCommand(t, "wallet", "import", "-o", "json")
	require.NoError(t, err)
}

// fakeChain answers eth_chainId and eth_call from a table of method results.
// Calls are matched by selector across the contract ABIs the CLI uses. A key
// of the form "<lowercase address>:<method>" overrides the plain method key
// for that contract.
type fakeChain struct {
	t       *testing.T
	results map[string][]any
}

func newFakeChain(t *testing.T, results map[string][]any) *fakeChain {
	return &fakeChain{t: t, results: results}
}

// serve starts the node and points the CLI at it.
func (f *fakeChain) serve() {
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	f.t.Cleanup(srv.Close)
	f.t.Setenv(config.EnvRPC, srv.URL)
}

func (f *fakeChain) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch req.Method {
	case "eth_chainId":
		resp["result"] = hexutil.EncodeUint64(config.DefaultChainID)
	case "eth_call":
		out, err := f.call(req.Params[0])
		if err != nil {
			resp["error"] = map[string]any{"code": 3, "message": err.Error()}
		} else {
			resp["result"] = hexutil.Encode(out)
		}
	default:
		resp["error"] = map[string]any{"code": -32601, "message": "method not found: " + req.Method}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeChain) call(raw json.RawMessage) ([]byte, error) {
	var msg struct {
		To    *common.Address `json:"to"`
		Input hexutil.Bytes   `json:"input"`
		Data  hexutil.Bytes   `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	data := msg.Input
	if len(data) == 0 {
		data = msg.Data
	}
	if len(data) < 4 {
		return nil, errShortCall
	}

	for _, parsed := range []*abi.ABI{eth.ERC20ABI, eth.ConfidentialTokenABI, eth.FactoryABI, eth.AirdropABI} {
		method, err := parsed.MethodById(data[:4])
		if err != nil {
			continue
		}
		values, ok := f.results[method.Name]
		if msg.To != nil {
			if v, found := f.results[strings.ToLower(msg.To.Hex())+":"+method.Name]; found {
				values, ok = v, true
			}
		}
		if !ok {
			return nil, errUnknownMethod
		}
		return method.Outputs.Pack(values...)
	}
	return nil, errUnknownMethod
}

type testError string

func (e testError) Error() string { return string(e) }

const (
	errShortCall     testError = "execution reverted: short call data"
	errUnknownMethod testError = "execution reverted: unknown method"
)

func bigInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad test integer " + s)
	}
	return v
}
