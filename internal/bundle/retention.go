package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Info holds metadata for retention decisions.
type Info struct {
	Path      string
	Size      int64
	CreatedAt time.Time
}

// RetentionPolicy decides which bundles to keep.
type RetentionPolicy interface {
	Apply(bundles []Info) (keep []Info)
}

// CountPolicy keeps the N most recent bundles.
type CountPolicy struct {
	MaxCount int
}

// Apply keeps the first MaxCount bundles (assumed sorted newest-first).
func (p *CountPolicy) Apply(bundles []Info) []Info {
	if len(bundles) <= p.MaxCount {
		return bundles
	}
	return bundles[:p.MaxCount]
}

// AgePolicy keeps bundles created within MaxAge of Now.
type AgePolicy struct {
	MaxAge time.Duration
	Now    func() time.Time
}

// Apply keeps bundles whose CreatedAt is after the cutoff.
func (p *AgePolicy) Apply(bundles []Info) []Info {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	cutoff := now().Add(-p.MaxAge)
	var keep []Info
	for _, b := range bundles {
		if b.CreatedAt.After(cutoff) {
			keep = append(keep, b)
		}
	}
	return keep
}

// CompositePolicy keeps a bundle if ANY sub-policy wants it (union).
type CompositePolicy struct {
	Policies []RetentionPolicy
}

// Apply returns the union of bundles kept by any sub-policy, in input order.
func (p *CompositePolicy) Apply(bundles []Info) []Info {
	kept := make(map[string]bool)
	for _, policy := range p.Policies {
		for _, b := range policy.Apply(bundles) {
			kept[b.Path] = true
		}
	}

	var result []Info
	for _, b := range bundles {
		if kept[b.Path] {
			result = append(result, b)
		}
	}
	return result
}

// List scans dir for bundle files and returns them sorted newest-first.
// CreatedAt comes from the bundle header, falling back to the file mtime.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading bundle directory: %w", err)
	}

	var bundles []Info
	for _, e := range entries {
		if e.IsDir() || !isBundleFile(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		info := Info{
			Path:      filepath.Join(dir, e.Name()),
			Size:      fi.Size(),
			CreatedAt: fi.ModTime(),
		}
		if header, err := ReadHeader(info.Path); err == nil {
			info.CreatedAt = header.CreatedAt
		}
		bundles = append(bundles, info)
	}

	// Timestamp is embedded in the name.
	sort.Slice(bundles, func(i, j int) bool {
		return filepath.Base(bundles[i].Path) > filepath.Base(bundles[j].Path)
	})
	return bundles, nil
}

// ApplyRetention deletes bundles in dir not kept by the policy.
func ApplyRetention(dir string, policy RetentionPolicy) (deleted []string, err error) {
	bundles, err := List(dir)
	if err != nil {
		return nil, err
	}

	keepSet := make(map[string]bool)
	for _, b := range policy.Apply(bundles) {
		keepSet[b.Path] = true
	}

	for _, b := range bundles {
		if keepSet[b.Path] {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(b.Path), err)
		}
		deleted = append(deleted, b.Path)
	}
	return deleted, nil
}

// ParseDuration parses duration strings like "30d", "2w", "720h".
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(num) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration suffix %q in %q", string(suffix), s)
	}
}
