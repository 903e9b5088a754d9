// Package tempdir resolves the directory holding a channel's sockets and
// lock files. The precedence policy lives here, outside the connection
// core, which only validates the directory it is handed.
package tempdir

import (
	"fmt"
	"os"
)

// EnvVar overrides the system default when set.
const EnvVar = "TETHER_TMPDIR"

// Resolve picks the channel directory: the explicit value if given, else
// $TETHER_TMPDIR, else the system temp directory.
func Resolve(explicit string) (string, error) {
	dir := explicit
	if dir == "" {
		dir = os.Getenv(EnvVar)
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if dir == "" {
		return "", fmt.Errorf("no temp directory available")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("temp directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("temp directory %q is not a directory", dir)
	}
	return dir, nil
}
