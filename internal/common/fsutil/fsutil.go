// Package fsutil holds the small filesystem helpers shared by the engine
// adapters, the module scanner and the model driver.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading "~" or "~/" with the user's home directory.
// Other paths, including "~user", are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}

// PathExists reports whether path exists. Errors other than not-exist, such
// as permission failures, count as existing.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// WriteTemp writes data to a new temporary file. The returned cleanup removes
// it and is safe to call on every path.
func WriteTemp(pattern string, data []byte) (string, func(), error) {
	noop := func() {}
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", noop, fmt.Errorf("create temp: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	_, werr := f.Write(data)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		cleanup()
		return "", noop, fmt.Errorf("write temp: %w", werr)
	}
	return f.Name(), cleanup, nil
}
