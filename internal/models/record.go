package models

// Records managed by the lab backend store. These are mutable, unlike the
// generated fixtures, and use snake_case ids like "sess_1a2b3c".

// Session statuses.
const (
	SessionValidated  = "validated"
	SessionProcessing = "processing"
	SessionPending    = "pending"
)

// SessionStatuses lists the valid SessionRecord statuses.
var SessionStatuses = []string{SessionValidated, SessionProcessing, SessionPending}

// Feature sets understood by feature extraction.
const (
	FeatureSetSpikeRate   = "spike_rate"
	FeatureSetBandPower   = "band_power"
	FeatureSetLFPSpectrum = "lfp_spectrum"
	FeatureSetCustom      = "custom"
)

// FeatureSets lists the valid feature sets.
var FeatureSets = []string{FeatureSetSpikeRate, FeatureSetBandPower, FeatureSetLFPSpectrum, FeatureSetCustom}

// Training job statuses.
const (
	TrainingQueued    = "queued"
	TrainingRunning   = "running"
	TrainingCompleted = "completed"
	TrainingFailed    = "failed"
)

// TrainingStatuses lists the valid TrainingJob statuses.
var TrainingStatuses = []string{TrainingQueued, TrainingRunning, TrainingCompleted, TrainingFailed}

// JobModelTypes lists the model types a training job may request.
var JobModelTypes = []string{"transformer", "rnn", "svm", "custom"}

// SessionRecord is a session as tracked by the lab backend.
type SessionRecord struct {
	ID        string            `json:"id"`
	Subject   string            `json:"subject"`
	Date      string            `json:"date"`
	Task      string            `json:"task"`
	Channels  int               `json:"channels"`
	Duration  string            `json:"duration"` // human readable, e.g. "45 min"
	Status    string            `json:"status"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt string            `json:"createdAt"`
}

// FeatureRecord is a feature extraction result over one session.
type FeatureRecord struct {
	ID         string             `json:"id"`
	SessionID  string             `json:"sessionId"`
	FeatureSet string             `json:"featureSet"`
	WindowMs   int                `json:"windowMs"`
	Metrics    map[string]float64 `json:"metrics"`
	CreatedAt  string             `json:"createdAt"`
}

// TrainingJob is a queued or running decoder training job.
type TrainingJob struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ModelType  string   `json:"modelType"`
	Status     string   `json:"status"`
	Epochs     int      `json:"epochs"`
	SessionIDs []string `json:"sessionIds"`
	FeatureSet string   `json:"featureSet"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

// ExperimentRecord groups sessions under a named experiment.
type ExperimentRecord struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Owner     string             `json:"owner"`
	Sessions  []string           `json:"sessions"`
	Metrics   map[string]float64 `json:"metrics"`
	Notes     string             `json:"notes"`
	CreatedAt string             `json:"createdAt"`
}

// RegistryRecord is a lab notebook entry tied to a session.
type RegistryRecord struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	Subject   string `json:"subject"`
	Device    string `json:"device"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"createdAt"`
}

// Seed is the initial content of a lab backend store.
type Seed struct {
	Sessions     []SessionRecord
	Features     []FeatureRecord
	TrainingJobs []TrainingJob
	Experiments  []ExperimentRecord
	Registry     []RegistryRecord
}

// Contains reports whether v is one of values.
func Contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
