package util_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canaryports/canaryports/internal/util"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state", "blocked.json")

	require.NoError(t, util.WriteFileAtomic(path, []byte(`["10.0.0.1"]`), 0o600))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `["10.0.0.1"]`, string(data))

	require.NoError(t, util.WriteFileAtomic(path, []byte(`[]`), 0o600))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteFileAtomicTargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "blocked.json")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), nil, 0o600))

	assert.Error(t, util.WriteFileAtomic(target, []byte(`[]`), 0o600))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIsFilePathExists(t *testing.T) {
	dir := t.TempDir()
	exists, err := util.IsFilePathExists(dir)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = util.IsFilePathExists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, exists)
}
