// Package sockpath generates unpredictable socket paths in the system temp
// directory for one-shot rendezvous sockets.
package sockpath

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Ephemeral returns a fresh path of the form <tempdir>/temp-<16 hex>.sock.
// The 16 hex digits come from the platform CSPRNG, making collisions between
// concurrent callers negligible.
func Ephemeral() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	name := fmt.Sprintf("temp-%s.sock", hex.EncodeToString(b[:]))
	return filepath.Join(os.TempDir(), name), nil
}
