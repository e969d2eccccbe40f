package bundle

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func makeInfos(n int, newest time.Time) []Info {
	infos := make([]Info, n)
	for i := range infos {
		infos[i] = Info{
			Path:      filepath.Join("b", string(rune('a'+i))),
			Size:      100,
			CreatedAt: newest.Add(-time.Duration(i) * 24 * time.Hour),
		}
	}
	return infos
}

func TestPolicies(t *testing.T) {
	now := created
	infos := makeInfos(5, now)

	tests := []struct {
		name   string
		policy RetentionPolicy
		want   int
	}{
		{"count under limit", &CountPolicy{MaxCount: 10}, 5},
		{"count trims", &CountPolicy{MaxCount: 2}, 2},
		{"age", &AgePolicy{MaxAge: 36 * time.Hour, Now: func() time.Time { return now }}, 2},
		{"composite union", &CompositePolicy{Policies: []RetentionPolicy{
			&CountPolicy{MaxCount: 1},
			&AgePolicy{MaxAge: 60 * time.Hour, Now: func() time.Time { return now }},
		}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tt.policy.Apply(infos)); got != tt.want {
				t.Errorf("kept %d, want %d", got, tt.want)
			}
		})
	}
}

func TestListAndApplyRetention(t *testing.T) {
	dir := t.TempDir()
	data := testDataset(t)
	for i := 0; i < 3; i++ {
		ts := created.Add(time.Duration(i) * time.Hour)
		if _, err := Write(GeneratePath(dir, ts), data, ts, nil); err != nil {
			t.Fatal(err)
		}
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	bundles, err := List(dir)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(bundles) != 3 {
		t.Fatalf("List() = %d bundles, want 3", len(bundles))
	}
	if !bundles[0].CreatedAt.Equal(created.Add(2 * time.Hour)) {
		t.Errorf("newest CreatedAt = %v", bundles[0].CreatedAt)
	}

	deleted, err := ApplyRetention(dir, &CountPolicy{MaxCount: 1})
	if err != nil {
		t.Fatalf("ApplyRetention() error = %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted %d, want 2", len(deleted))
	}
	remaining, _ := List(dir)
	if len(remaining) != 1 || remaining[0].Path != bundles[0].Path {
		t.Errorf("remaining = %v, want only %s", remaining, bundles[0].Path)
	}
}

func TestList_MissingDir(t *testing.T) {
	bundles, err := List(filepath.Join(t.TempDir(), "nope"))
	if err != nil || bundles != nil {
		t.Errorf("List() = %v, %v; want nil, nil", bundles, err)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"720h", 720 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"", 0, true},
		{"x", 0, true},
		{"5y", 0, true},
		{"abcd", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
