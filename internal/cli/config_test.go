package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamaforge/zforge/internal/config"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

func TestConfigInit(t *testing.T) {
	home := newTestHome(t)

	stdout, _, err := runCommand(t, "config", "init", "-o", "json")
	require.NoError(t, err)

	var got map[string]string
	decodeJSON(t, stdout, &got)
	assert.Equal(t, "created", got["status"])
	assert.Equal(t, filepath.Join(home, "config.yaml"), got["path"])

	loaded, err := config.Load(got["path"])
	require.NoError(t, err)
	assert.Equal(t, home, loaded.Home)
	assert.Equal(t, uint64(config.DefaultChainID), loaded.Network.ChainID)

	t.Run("existing file needs force", func(t *testing.T) {
		_, _, err := runCommand(t, "config", "init")
		require.ErrorIs(t, err, zferr.ErrInvalidInput)

		_, _, err = runCommand(t, "config", "init", "--force", "-o", "json")
		require.NoError(t, err)
	})
}

func TestConfigShow(t *testing.T) {
	home := newTestHome(t)

	stdout, _, err := runCommand(t, "config", "show", "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "chain_id: 11155111")
	assert.Contains(t, stdout, "home: "+home)

	t.Run("reads the saved file", func(t *testing.T) {
		cfgFile := config.Defaults()
		cfgFile.Decryption.OnFailure = config.OnFailurePropagate
		require.NoError(t, config.Save(cfgFile, config.Path(home)))

		stdout, _, err := runCommand(t, "config", "show", "-o", "text")
		require.NoError(t, err)
		assert.Contains(t, stdout, "on_failure: propagate")
	})

	t.Run("invalid file warns", func(t *testing.T) {
		cfgFile := config.Defaults()
		cfgFile.Decryption.DurationDays = 0
		require.NoError(t, config.Save(cfgFile, config.Path(home)))

		_, stderr, err := runCommand(t, "config", "show", "-o", "text")
		require.NoError(t, err)
		assert.Contains(t, stderr, "configuration is invalid")
	})

	t.Run("unparseable file fails", func(t *testing.T) {
		require.NoError(t, os.WriteFile(config.Path(home), []byte("network: [\n"), 0o600))
		_, _, err := runCommand(t, "config", "show")
		require.ErrorIs(t, err, zferr.ErrConfigInvalid)
	})
}
