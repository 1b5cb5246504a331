package filesystem

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOS_WriteReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.bin")
	fs := OS{}

	require.NoError(t, fs.WriteFile(path, []byte("hello world")))
	require.NoError(t, fs.WriteFile(path, []byte("hello flux")))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello flux", string(data))

	size, err := fs.FileSize(path)
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are renamed away")
}

func TestOS_ReadPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(path, []byte("abcdef"), 0o644))
	fs := OS{}

	p, err := fs.ReadPrefix(path, 4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(p))

	p, err = fs.ReadPrefix(path, 64)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(p))

	r, err := fs.Open(path)
	require.NoError(t, err)
	defer r.Close()
	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(all))

	_, err = fs.FileSize(filepath.Dir(path))
	assert.Error(t, err)
	_, err = fs.ReadPrefix(filepath.Join(t.TempDir(), "missing"), 4)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
