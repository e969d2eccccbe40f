package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/neurodash/internal/dataset"
	"github.com/nvandessel/neurodash/internal/fixtures"
	"github.com/nvandessel/neurodash/internal/models"
)

func TestValidateCmd(t *testing.T) {
	dir := isolateHome(t)
	data := filepath.Join(dir, "d")
	generateSmall(t, data)

	out, err := runCmd(t, "validate", "--dir", data)
	if err != nil {
		t.Fatalf("validate failed on fresh fixtures: %v", err)
	}
	if !strings.Contains(out, "no problems found") {
		t.Errorf("output = %q", out)
	}

	if err := os.WriteFile(filepath.Join(data, fixtures.SessionsFile), []byte("[]"), 0600); err != nil {
		t.Fatal(err)
	}
	out, err = runCmd(t, "validate", "--dir", data, "--json")
	if err == nil {
		t.Fatal("validate succeeded with dangling references")
	}
	got := decodeJSON[struct {
		Valid    bool               `json:"valid"`
		Problems []fixtures.Problem `json:"problems"`
	}](t, out)
	if got.Valid || len(got.Problems) == 0 {
		t.Errorf("json = %+v, want problems", got)
	}
}

func TestValidateCmd_MissingFixtures(t *testing.T) {
	dir := isolateHome(t)
	if _, err := runCmd(t, "validate", "--dir", filepath.Join(dir, "nope")); err == nil {
		t.Error("expected error for missing fixtures")
	}
}

func TestStatsCmd(t *testing.T) {
	dir := isolateHome(t)
	data := filepath.Join(dir, "d")
	generateSmall(t, data)

	out, err := runCmd(t, "stats", "--dir", data, "--json")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	report := decodeJSON[statsReport](t, out)
	if report.Statistics.TotalSessions != 12 {
		t.Errorf("TotalSessions = %d, want 12", report.Statistics.TotalSessions)
	}
	if len(report.Subjects) != 3 {
		t.Errorf("subjects = %d, want 3", len(report.Subjects))
	}
	for _, mt := range models.MetricTypes {
		r := models.MetricRanges[mt]
		if v := report.QualityAverage[mt]; v < r.Min || v > r.Max {
			t.Errorf("average %s = %v outside [%v, %v]", mt, v, r.Min, r.Max)
		}
	}

	out, err = runCmd(t, "stats", "--dir", data)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	for _, want := range []string{"Sessions:         12", "Subject_A", "snr"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestBuildStatsReport_Empty(t *testing.T) {
	report := buildStatsReport(dataset.NewCatalog(models.NewDataset()))
	if report.BestRun != nil {
		t.Errorf("BestRun = %+v, want nil", report.BestRun)
	}
	for mt, v := range report.QualityAverage {
		if v != 0 {
			t.Errorf("average %s = %v, want 0", mt, v)
		}
	}
}

func TestSessionsCmd(t *testing.T) {
	dir := isolateHome(t)
	data := filepath.Join(dir, "d")
	generateSmall(t, data)

	type listOutput struct {
		Sessions []models.Session `json:"sessions"`
		Count    int              `json:"count"`
	}

	out, err := runCmd(t, "sessions", "--dir", data, "--json")
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	all := decodeJSON[listOutput](t, out)
	if all.Count != 12 {
		t.Fatalf("count = %d, want 12", all.Count)
	}

	out, err = runCmd(t, "sessions", "--dir", data, "--subject", "Subject_A", "--json")
	if err != nil {
		t.Fatalf("sessions --subject failed: %v", err)
	}
	if got := decodeJSON[listOutput](t, out); got.Count != 4 {
		t.Errorf("Subject_A count = %d, want 4", got.Count)
	}

	out, err = runCmd(t, "sessions", "--dir", data, "--from", "9000-01-01", "--json")
	if err != nil {
		t.Fatalf("sessions --from failed: %v", err)
	}
	if got := decodeJSON[listOutput](t, out); got.Count != 0 || got.Sessions == nil {
		t.Errorf("future range = %+v, want empty array", got)
	}

	id := all.Sessions[0].ID
	out, err = runCmd(t, "sessions", id, "--dir", data, "--json")
	if err != nil {
		t.Fatalf("sessions <id> failed: %v", err)
	}
	metrics := decodeJSON[dataset.SessionMetrics](t, out)
	if metrics.Session.ID != id || metrics.RecordingCount != 2 {
		t.Errorf("metrics = %+v", metrics)
	}

	if _, err := runCmd(t, "sessions", "missing", "--dir", data); err == nil {
		t.Error("expected error for unknown session")
	}
}

func TestFilterSessions(t *testing.T) {
	sessions := []models.Session{
		{ID: "1", Subject: "A", Task: "reach"},
		{ID: "2", Subject: "A", Task: "rest"},
		{ID: "3", Subject: "B", Task: "reach"},
	}
	tests := []struct {
		subject, task string
		want          int
	}{
		{"", "", 3},
		{"A", "", 2},
		{"", "reach", 2},
		{"A", "reach", 1},
		{"C", "", 0},
	}
	for _, tt := range tests {
		if got := len(filterSessions(sessions, tt.subject, tt.task)); got != tt.want {
			t.Errorf("filterSessions(%q, %q) = %d, want %d", tt.subject, tt.task, got, tt.want)
		}
	}
}
