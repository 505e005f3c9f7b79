// Package filex holds small filesystem helpers for the CLI client.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// stateDirMode keeps the client state readable only by its owner; the state
// database holds the legacy session cookie.
const stateDirMode = 0o700

// EnsureDir creates dirName if it does not exist and returns its absolute
// path. Relative names are resolved against the working directory.
func EnsureDir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, stateDirMode); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
