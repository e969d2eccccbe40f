// Package logging provides leveled logging and a generation run log for neurodash.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A RunLogger appending one JSONL record per generation run (~/.neurodash/runs.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/neurodash/internal/models"
)

// LevelTrace is a custom slog level below Debug for per-record detail, such
// as every generated session.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// RunsFile is the name of the generation run log.
const RunsFile = "runs.jsonl"

// RunRecord describes one generation run.
type RunRecord struct {
	Time       time.Time     `json:"time"`
	Seed       int64         `json:"seed"`
	OutputDir  string        `json:"output_dir"`
	Counts     models.Counts `json:"counts"`
	DurationMs int64         `json:"duration_ms"`
	Status     string        `json:"status"` // "success" or "error"
	Error      string        `json:"error,omitempty"`
}

// RunLogger appends RunRecords to a JSONL file. It is safe for concurrent
// use. A nil RunLogger is safe to use; all methods are no-ops on nil receiver.
type RunLogger struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// NewRunLogger creates a run logger writing to dir/runs.jsonl.
// At "info" level (the default), returns nil and no file is created.
// At "debug" or "trace" level, the file is opened for append.
// Returns nil if the file cannot be opened.
func NewRunLogger(dir string, level string) *RunLogger {
	if ParseLevel(level) == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, RunsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &RunLogger{file: f, now: time.Now}
}

// Log writes rec as a single JSONL line, stamping Time when it is zero.
func (rl *RunLogger) Log(rec RunRecord) {
	if rl == nil {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.file == nil {
		return
	}
	if rec.Time.IsZero() {
		rec.Time = rl.now().UTC()
	}
	if rec.Status == "" {
		rec.Status = "success"
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = rl.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (rl *RunLogger) Close() {
	if rl == nil {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.file != nil {
		rl.file.Close()
		rl.file = nil
	}
}
