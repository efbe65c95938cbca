package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAtomic_Success(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "tokens.json")

	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644)) //nolint:gosec // G306: Test file, relaxed perms OK
	require.NoError(t, WriteAtomic(target, []byte("new"), 0o600))

	data, err := os.ReadFile(target) //nolint:gosec // G304: Test path from t.TempDir()
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteAtomic_CreatesParent(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "tokens", "0xabc.json")
	require.NoError(t, WriteAtomic(target, []byte("[]"), 0o600))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not linger")
	assert.Equal(t, "0xabc.json", entries[0].Name())
}

func TestWriteAtomic_FailureLeavesOriginalFile(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "state.json")
	require.NoError(t, os.WriteFile(target, []byte("original"), 0o644)) //nolint:gosec // G306: Test file, relaxed perms OK

	require.NoError(t, os.Chmod(tmpDir, 0o500)) //nolint:gosec // G302: Test uses intentionally restrictive perms
	defer func() {
		_ = os.Chmod(tmpDir, 0o700) //nolint:gosec // G302: Restoring perms in test cleanup
	}()

	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	err := WriteAtomic(target, []byte("replacement"), 0o600)
	require.Error(t, err)

	data, readErr := os.ReadFile(target) //nolint:gosec // G304: Test path from t.TempDir()
	require.NoError(t, readErr)
	assert.Equal(t, "original", string(data))
}

func TestWriteAtomic_EmptyPath(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, WriteAtomic("", []byte("x"), 0o600), ErrEmptyPath)
}

func TestWriteReadJSON(t *testing.T) {
	t.Parallel()

	type record struct {
		Symbol   string `json:"symbol"`
		Decimals int    `json:"decimals"`
	}

	path := filepath.Join(t.TempDir(), "record.json")

	var missing record
	found, err := ReadJSON(path, &missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, WriteJSON(path, record{Symbol: "cZAMA", Decimals: 6}, 0o600))

	var got record
	found, err = ReadJSON(path, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, record{Symbol: "cZAMA", Decimals: 6}, got)
}

func TestReadJSON_CorruptAndQuarantine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	var v map[string]any
	found, err := ReadJSON(path, &v)
	require.Error(t, err)
	assert.True(t, found)

	dest, err := Quarantine(path, "1")
	require.NoError(t, err)
	assert.Equal(t, path+".corrupt.1", dest)
	assert.NoFileExists(t, path)
	assert.FileExists(t, dest)
}
