// Package models defines the entities produced by the generator and the
// records managed by the lab backend store.
package models

// Session is one recorded experimental sitting for a subject.
type Session struct {
	ID           string          `json:"id"`
	Subject      string          `json:"subject"`
	Date         string          `json:"date"`     // YYYY-MM-DD
	Task         string          `json:"task"`
	Duration     int             `json:"duration"` // minutes
	Channels     int             `json:"channels"`
	SamplingRate int             `json:"samplingRate"` // Hz
	Metadata     SessionMetadata `json:"metadata"`
	CreatedAt    string          `json:"createdAt"`
}

// DurationMs returns the session duration in milliseconds.
func (s Session) DurationMs() float64 {
	return float64(s.Duration) * 60 * 1000
}

// SessionMetadata carries the categorical setup of a session.
type SessionMetadata struct {
	Implant  string `json:"implant"`
	Operator string `json:"operator"`
	Quality  string `json:"quality"` // "good", "fair", "poor"
}

// Session quality labels.
const (
	QualityGood = "good"
	QualityFair = "fair"
	QualityPoor = "poor"
)

// Recording is one channel's captured signal within a session.
type Recording struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	ChannelID  int       `json:"channelId"`
	Timeseries []float64 `json:"timeseries"`
	SpikeTimes []float64 `json:"spikeTimes"` // ms from session start
	CreatedAt  string    `json:"createdAt"`
}

// Event is a timestamped occurrence inside a session.
type Event struct {
	ID        string        `json:"id"`
	SessionID string        `json:"sessionId"`
	Type      string        `json:"type"`
	Timestamp float64       `json:"timestamp"` // ms from session start
	Duration  float64       `json:"duration"`  // ms
	Metadata  EventMetadata `json:"metadata"`
	CreatedAt string        `json:"createdAt"`
}

// EventMetadata is the free-form detail attached to an event.
type EventMetadata struct {
	Channel   int     `json:"channel"`
	Amplitude float64 `json:"amplitude"`
}

// QualityMetric is one scalar signal-quality measurement of a recording.
type QualityMetric struct {
	ID          string  `json:"id"`
	RecordingID string  `json:"recordingId"`
	SessionID   string  `json:"sessionId"`
	MetricType  string  `json:"metricType"`
	Value       float64 `json:"value"`
	CreatedAt   string  `json:"createdAt"`
}

// Feature is a windowed summary computed over a session.
type Feature struct {
	ID          string             `json:"id"`
	SessionID   string             `json:"sessionId"`
	FeatureType string             `json:"featureType"`
	WindowStart float64            `json:"windowStart"` // ms
	WindowEnd   float64            `json:"windowEnd"`   // ms
	Values      map[string]float64 `json:"values"`
	CreatedAt   string             `json:"createdAt"`
}

// TrainingRun is a decoder training run over a subset of sessions.
type TrainingRun struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ModelType  string   `json:"modelType"`
	Status     string   `json:"status"`
	Accuracy   float64  `json:"accuracy"`
	Loss       float64  `json:"loss"`
	Epochs     int      `json:"epochs"`
	SessionIDs []string `json:"sessionIds"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

// RegistryEntry records a subject's implant setup.
type RegistryEntry struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	Device      string `json:"device"`
	ImplantDate string `json:"implantDate"`
	Notes       string `json:"notes"`
	Status      string `json:"status"` // "active", "archived"
	CreatedAt   string `json:"createdAt"`
}

// Dataset holds the seven generated collections.
type Dataset struct {
	Sessions        []Session       `json:"sessions"`
	Recordings      []Recording     `json:"recordings"`
	Events          []Event         `json:"events"`
	QualityMetrics  []QualityMetric `json:"qualityMetrics"`
	Features        []Feature       `json:"features"`
	TrainingRuns    []TrainingRun   `json:"trainingRuns"`
	RegistryEntries []RegistryEntry `json:"registryEntries"`
}

// NewDataset returns a Dataset whose collections are empty, non-nil slices
// so they serialize as [] rather than null.
func NewDataset() *Dataset {
	return &Dataset{
		Sessions:        []Session{},
		Recordings:      []Recording{},
		Events:          []Event{},
		QualityMetrics:  []QualityMetric{},
		Features:        []Feature{},
		TrainingRuns:    []TrainingRun{},
		RegistryEntries: []RegistryEntry{},
	}
}

// Counts summarizes the size of each collection.
type Counts struct {
	Sessions        int `json:"sessions"`
	Recordings      int `json:"recordings"`
	Events          int `json:"events"`
	QualityMetrics  int `json:"quality_metrics"`
	Features        int `json:"features"`
	TrainingRuns    int `json:"training_runs"`
	RegistryEntries int `json:"registry_entries"`
}

// Counts returns the number of records in each collection.
func (d *Dataset) Counts() Counts {
	return Counts{
		Sessions:        len(d.Sessions),
		Recordings:      len(d.Recordings),
		Events:          len(d.Events),
		QualityMetrics:  len(d.QualityMetrics),
		Features:        len(d.Features),
		TrainingRuns:    len(d.TrainingRuns),
		RegistryEntries: len(d.RegistryEntries),
	}
}
