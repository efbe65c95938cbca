package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zferr "github.com/zamaforge/zforge/pkg/errors"
)

func TestFormatVersion(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{"empty", BuildInfo{}, "dev (commit: unknown, built: unknown)"},
		{"full", BuildInfo{Version: "v0.3.0", Commit: "abc123", Date: "2026-10-01"}, "v0.3.0 (commit: abc123, built: 2026-10-01)"},
		{"version only", BuildInfo{Version: "v1.0.0"}, "v1.0.0 (commit: unknown, built: unknown)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, FormatVersion(tc.info))
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, zferr.ExitSuccess, ExitCode(nil))
	assert.Equal(t, zferr.ExitNotFound, ExitCode(zferr.ErrWalletNotFound))
	assert.Equal(t, zferr.ExitPermission, ExitCode(zferr.ErrInsufficientBalance))
}

func TestVersionCommand(t *testing.T) {
	newTestHome(t)
	orig := buildInfo
	t.Cleanup(func() { buildInfo = orig })
	buildInfo = BuildInfo{Version: "v9.9.9", Commit: "deadbeef"}

	stdout, _, err := runCommand(t, "version", "-o", "text")
	require.NoError(t, err)
	assert.Equal(t, "zforge v9.9.9 (commit: deadbeef, built: unknown)\n", stdout)

	stdout, _, err = runCommand(t, "version", "-o", "json")
	require.NoError(t, err)
	var got BuildInfo
	decodeJSON(t, stdout, &got)
	assert.Equal(t, "v9.9.9", got.Version)
}

func TestInitGlobals_InvalidFormat(t *testing.T) {
	newTestHome(t)
	_, _, err := runCommand(t, "version", "-o", "xml")
	require.Error(t, err)
	assert.Equal(t, zferr.ExitInput, zferr.ExitCode(err))
}

func TestCommandTree(t *testing.T) {
	want := [][]string{
		{"config", "init"}, {"config", "show"},
		{"wallet", "import"}, {"wallet", "show"},
		{"token", "list"}, {"token", "add"}, {"token", "remove"}, {"token", "clear"}, {"token", "info"},
		{"faucet", "info"}, {"faucet", "claim"},
		{"balance", "show"}, {"balance", "decrypt"},
		{"transfer"}, {"wrap"}, {"unwrap"}, {"version"},
	}
	for _, path := range want {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
