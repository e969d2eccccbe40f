// Package fixtures writes and loads the seven JSON fixture files the
// dashboard reads at startup.
package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/neurodash/internal/models"
)

// Fixture file names.
const (
	SessionsFile        = "sessions.json"
	RecordingsFile      = "recordings.json"
	EventsFile          = "events.json"
	QualityMetricsFile  = "quality-metrics.json"
	FeaturesFile        = "features.json"
	TrainingRunsFile    = "training-runs.json"
	RegistryEntriesFile = "registry-entries.json"
)

// Files lists the fixture file names in a stable order.
var Files = []string{
	SessionsFile,
	RecordingsFile,
	EventsFile,
	QualityMetricsFile,
	FeaturesFile,
	TrainingRunsFile,
	RegistryEntriesFile,
}

// WriteResult reports what Write produced.
type WriteResult struct {
	Dir    string        `json:"dir"`
	Files  []string      `json:"files"`
	Counts models.Counts `json:"counts"`
}

// collections pairs each file name with the slice stored in it. Nil slices
// are replaced with empty ones so every file holds a JSON array.
func collections(data *models.Dataset) map[string]any {
	return map[string]any{
		SessionsFile:        orEmpty(data.Sessions),
		RecordingsFile:      orEmpty(data.Recordings),
		EventsFile:          orEmpty(data.Events),
		QualityMetricsFile:  orEmpty(data.QualityMetrics),
		FeaturesFile:        orEmpty(data.Features),
		TrainingRunsFile:    orEmpty(data.TrainingRuns),
		RegistryEntriesFile: orEmpty(data.RegistryEntries),
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Write creates dir if needed and writes all seven fixture files into it,
// replacing any previous contents. Files are written concurrently; the first
// error cancels the remaining writes and is returned.
func Write(ctx context.Context, dir string, data *models.Dataset) (*WriteResult, error) {
	if data == nil {
		return nil, fmt.Errorf("no dataset to write")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	cols := collections(data)
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range Files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeJSON(filepath.Join(dir, name), cols[name])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &WriteResult{
		Dir:    dir,
		Files:  append([]string(nil), Files...),
		Counts: data.Counts(),
	}, nil
}

// writeJSON writes v as 2-space indented JSON via temp file + rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", path, err)
	}
	return nil
}

// Load reads the seven fixture files from dir.
func Load(dir string) (*models.Dataset, error) {
	data := models.NewDataset()
	targets := map[string]any{
		SessionsFile:        &data.Sessions,
		RecordingsFile:      &data.Recordings,
		EventsFile:          &data.Events,
		QualityMetricsFile:  &data.QualityMetrics,
		FeaturesFile:        &data.Features,
		TrainingRunsFile:    &data.TrainingRuns,
		RegistryEntriesFile: &data.RegistryEntries,
	}

	for _, name := range Files {
		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := json.Unmarshal(raw, targets[name]); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	// A file containing null decodes to a nil slice.
	data.Sessions = orEmpty(data.Sessions)
	data.Recordings = orEmpty(data.Recordings)
	data.Events = orEmpty(data.Events)
	data.QualityMetrics = orEmpty(data.QualityMetrics)
	data.Features = orEmpty(data.Features)
	data.TrainingRuns = orEmpty(data.TrainingRuns)
	data.RegistryEntries = orEmpty(data.RegistryEntries)
	return data, nil
}

// Exists reports whether dir contains all seven fixture files.
func Exists(dir string) bool {
	for _, name := range Files {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}
