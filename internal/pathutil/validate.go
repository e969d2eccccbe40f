// Package pathutil confines file writes to a set of allowed directories.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideAllowed is wrapped by Confine when a path escapes every allowed directory.
var ErrOutsideAllowed = errors.New("path is outside allowed directories")

// RedactPath reduces a full path to .../<parent>/<basename> for safe error messages.
// For example, "/home/user/.neurodash/config.yaml" becomes ".../.neurodash/config.yaml".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	base := filepath.Base(cleaned)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// Confine resolves path to an absolute, symlink-free form and checks that it
// lies inside one of allowedDirs. The path itself and any of its parents may
// not exist yet. The resolved path is returned so callers write to exactly
// what was checked.
func Confine(path string, allowedDirs []string) (string, error) {
	switch {
	case path == "":
		return "", errors.New("path validation failed: path is empty")
	case len(allowedDirs) == 0:
		return "", errors.New("path validation failed: no allowed directories configured")
	case strings.ContainsRune(path, '\x00'):
		return "", errors.New("path validation failed: path contains null byte")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("path validation failed: cannot resolve absolute path: %w", err)
	}
	// The final element may be a file that does not exist yet, so only its
	// directory is resolved.
	dir, err := resolve(filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	resolved := filepath.Join(dir, filepath.Base(abs))

	for _, allowed := range allowedDirs {
		allowedAbs, err := filepath.Abs(allowed)
		if err != nil {
			continue
		}
		root, err := resolve(allowedAbs)
		if err != nil {
			continue
		}
		if within(resolved, root) {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("path validation failed: %q: %w", RedactPath(abs), ErrOutsideAllowed)
}

// ValidatePath reports whether path passes Confine.
func ValidatePath(path string, allowedDirs []string) error {
	_, err := Confine(path, allowedDirs)
	return err
}

// resolve evaluates symlinks on the deepest existing ancestor of dir and
// re-appends the missing tail.
func resolve(dir string) (string, error) {
	var tail []string
	for {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("cannot resolve path: %s", RedactPath(dir))
		}
		tail = append(tail, filepath.Base(dir))
		dir = parent
	}
}

// within reports whether path equals root or lies beneath it.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// DefaultAllowedDirs returns the directories bundles may be written to or
// extracted into: ~/.neurodash/ and workDir.
func DefaultAllowedDirs(workDir string) ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	dirs := []string{filepath.Join(homeDir, ".neurodash")}
	if workDir != "" {
		dirs = append(dirs, workDir)
	}
	return dirs, nil
}
