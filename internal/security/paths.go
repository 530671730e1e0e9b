package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrRestrictedPath is returned for paths under a pseudo-filesystem.
var ErrRestrictedPath = errors.New("access to restricted path is not allowed")

// restrictedRoots expose process memory and environment, which would let
// read_file see the server's own keys.
var restrictedRoots = []string{"/proc", "/sys", "/dev"}

// CheckReadPath rejects paths that resolve under a restricted root. The
// path is made absolute and symlinks are followed when they exist.
func CheckReadPath(path string) error {
	resolved, err := filepath.Abs(path)
	if err != nil {
		resolved = filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = real
	}

	for _, root := range restrictedRoots {
		if resolved == root || strings.HasPrefix(resolved, root+"/") {
			return fmt.Errorf("%w: %s", ErrRestrictedPath, path)
		}
	}
	return nil
}
