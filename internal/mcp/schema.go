package mcp

import (
	"github.com/nvandessel/neurodash/internal/dataset"
	"github.com/nvandessel/neurodash/internal/models"
)

// StatisticsInput defines the input for the neuro_statistics tool.
type StatisticsInput struct{}

// StatisticsOutput defines the output for the neuro_statistics tool.
type StatisticsOutput struct {
	Statistics dataset.Statistics       `json:"statistics" jsonschema:"Collection totals and session-level aggregates"`
	Tasks      []dataset.TaskSummary    `json:"tasks" jsonschema:"Per-task session counts and mean duration in minutes"`
	Subjects   []dataset.SubjectSummary `json:"subjects" jsonschema:"Per-subject session counts and the tasks they performed"`
}

// SessionsInput defines the input for the neuro_sessions tool.
type SessionsInput struct {
	Subject string `json:"subject,omitempty" jsonschema:"Only sessions of this subject"`
	Task    string `json:"task,omitempty" jsonschema:"Only sessions of this task"`
	From    string `json:"from,omitempty" jsonschema:"Earliest session date, YYYY-MM-DD inclusive"`
	To      string `json:"to,omitempty" jsonschema:"Latest session date, YYYY-MM-DD inclusive"`
}

// SessionSummary is a compact view of a generated session.
type SessionSummary struct {
	ID         string `json:"id"`
	Subject    string `json:"subject"`
	Date       string `json:"date"`
	Task       string `json:"task"`
	Duration   int    `json:"duration"`
	Channels   int    `json:"channels"`
	Quality    string `json:"quality"`
	Recordings int    `json:"recordings"`
	Events     int    `json:"events"`
}

// SessionsOutput defines the output for the neuro_sessions tool.
type SessionsOutput struct {
	Sessions []SessionSummary `json:"sessions" jsonschema:"Matching sessions in dataset order"`
	Count    int              `json:"count" jsonschema:"Number of matching sessions"`
}

// SessionMetricsInput defines the input for the neuro_session_metrics tool.
type SessionMetricsInput struct {
	SessionID string `json:"session_id" jsonschema:"Id of the generated session"`
}

// SessionMetricsOutput defines the output for the neuro_session_metrics tool.
type SessionMetricsOutput struct {
	Metrics dataset.SessionMetrics `json:"metrics" jsonschema:"Session counts and mean quality metrics"`
}

// QualityAverageInput defines the input for the neuro_quality_average tool.
type QualityAverageInput struct {
	MetricType string `json:"metric_type" jsonschema:"One of snr, noiseFloor, drift, spikeAmplitude"`
}

// QualityAverageOutput defines the output for the neuro_quality_average tool.
type QualityAverageOutput struct {
	MetricType string       `json:"metric_type"`
	Average    float64      `json:"average" jsonschema:"Mean value across all recordings, 0 when there are none"`
	Count      int          `json:"count" jsonschema:"Number of measurements averaged"`
	Range      models.Range `json:"range" jsonschema:"Range values of this metric are generated in"`
}

// BestRunInput defines the input for the neuro_best_run tool.
type BestRunInput struct{}

// BestRunOutput defines the output for the neuro_best_run tool.
type BestRunOutput struct {
	Found bool               `json:"found" jsonschema:"False when the dataset has no training runs"`
	Run   models.TrainingRun `json:"run,omitzero" jsonschema:"Training run with the highest accuracy"`
}
