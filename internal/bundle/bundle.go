package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvandessel/neurodash/internal/fixtures"
	"github.com/nvandessel/neurodash/internal/pathutil"
)

// Extension is the file suffix of bundle files.
const Extension = ".ndb.gz"

const filePrefix = "neurodash-bundle-"

// DefaultDir returns the default bundle directory (~/.neurodash/bundles/).
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".neurodash", "bundles"), nil
}

// GeneratePath creates a timestamped bundle filename in dir.
func GeneratePath(dir string, now time.Time) string {
	return filepath.Join(dir, filePrefix+now.UTC().Format("20060102-150405")+Extension)
}

func isBundleFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, Extension)
}

// Create bundles the fixture files in fixturesDir into outPath. The fixtures
// are validated first; a dataset with integrity problems is not bundled.
func Create(fixturesDir, outPath string, now time.Time) (*Header, error) {
	data, err := fixtures.Load(fixturesDir)
	if err != nil {
		return nil, err
	}
	if problems := fixtures.Validate(data); len(problems) > 0 {
		return nil, fmt.Errorf("fixtures in %s have %d problems, first: %s", fixturesDir, len(problems), problems[0])
	}
	return Write(outPath, data, now, map[string]string{"source": filepath.Base(fixturesDir)})
}

// Extract verifies the bundle at path and writes its seven fixture files into
// dir, which must lie inside one of allowedDirs.
func Extract(ctx context.Context, path, dir string, allowedDirs []string) (*fixtures.WriteResult, error) {
	target, err := pathutil.Confine(dir, allowedDirs)
	if err != nil {
		return nil, err
	}
	_, data, err := Read(path)
	if err != nil {
		return nil, err
	}
	return fixtures.Write(ctx, target, data)
}
