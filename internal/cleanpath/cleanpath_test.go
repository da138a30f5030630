package cleanpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReleaseRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "some-file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	p := New(path)
	require.Equal(t, path, p.String())
	p.Release()

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestReleaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "some-file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	p := New(path)
	p.Release()
	p.Release()

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestReleaseIgnoresMissingFile(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "never-created"))
	p.Release()
}
