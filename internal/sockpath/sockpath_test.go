package sockpath

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var namePattern = regexp.MustCompile(`^temp-[0-9a-f]{16}\.sock$`)

func TestEphemeralFormat(t *testing.T) {
	path, err := Ephemeral()
	require.NoError(t, err)
	require.Equal(t, os.TempDir(), filepath.Dir(path))
	require.Regexp(t, namePattern, filepath.Base(path))
}

func TestEphemeralIsFresh(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		path, err := Ephemeral()
		require.NoError(t, err)
		require.False(t, seen[path], "duplicate ephemeral path %s", path)
		seen[path] = true
	}
}
