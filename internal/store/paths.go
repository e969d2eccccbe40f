package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DatabaseFile is the default SQLite file name inside the neurodash home.
const DatabaseFile = "lab.db"

// HomePath returns the neurodash home directory.
// On Unix: ~/.neurodash
// On Windows: %USERPROFILE%\.neurodash
func HomePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".neurodash"), nil
}

// DefaultDatabasePath returns ~/.neurodash/lab.db.
func DefaultDatabasePath() (string, error) {
	home, err := HomePath()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DatabaseFile), nil
}
