// Package store defines the LabStore interface for the lab backend records
// (sessions, extracted features, training jobs, experiments and registry
// notes) and provides in-memory and SQLite implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/neurodash/internal/models"
)

// ErrInvalid is wrapped by every validation error returned from a LabStore.
var ErrInvalid = errors.New("invalid input")

// Id prefixes for each record type.
const (
	PrefixSession    = "sess"
	PrefixFeature    = "feat"
	PrefixTraining   = "train"
	PrefixExperiment = "exp"
	PrefixRegistry   = "reg"
)

// Defaults applied when optional request fields are omitted.
const (
	DefaultFeatureSet = models.FeatureSetBandPower
	DefaultWindowMs   = 250
)

// SessionFilter narrows ListSessions. Empty fields match everything.
type SessionFilter struct {
	Subject string `json:"subject,omitempty"`
	Status  string `json:"status,omitempty"`
	Task    string `json:"task,omitempty"`
	// Search is a case-insensitive substring match over "id subject task".
	Search string `json:"search,omitempty"`
}

// Matches reports whether rec passes the filter.
func (f SessionFilter) Matches(rec models.SessionRecord) bool {
	if f.Subject != "" && rec.Subject != f.Subject {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.Task != "" && rec.Task != f.Task {
		return false
	}
	if f.Search != "" {
		haystack := strings.ToLower(rec.ID + " " + rec.Subject + " " + rec.Task)
		return strings.Contains(haystack, strings.ToLower(f.Search))
	}
	return true
}

// SessionCreate is the input to CreateSession. Status defaults to pending.
type SessionCreate struct {
	Subject  string            `json:"subject"`
	Date     string            `json:"date"`
	Task     string            `json:"task"`
	Channels int               `json:"channels"`
	Duration string            `json:"duration"`
	Status   string            `json:"status,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SessionUpdate is a partial update; nil fields are left unchanged.
type SessionUpdate struct {
	Subject  *string            `json:"subject,omitempty"`
	Date     *string            `json:"date,omitempty"`
	Task     *string            `json:"task,omitempty"`
	Channels *int               `json:"channels,omitempty"`
	Duration *string            `json:"duration,omitempty"`
	Status   *string            `json:"status,omitempty"`
	Metadata *map[string]string `json:"metadata,omitempty"`
}

// ExtractRequest asks for one feature record per listed session.
type ExtractRequest struct {
	SessionIDs []string `json:"sessionIds"`
	FeatureSet string   `json:"featureSet,omitempty"`
	WindowMs   int      `json:"windowMs,omitempty"`
}

// TrainingRequest starts a new training job.
type TrainingRequest struct {
	Name       string   `json:"name"`
	ModelType  string   `json:"modelType"`
	SessionIDs []string `json:"sessionIds"`
	Epochs     int      `json:"epochs"`
	FeatureSet string   `json:"featureSet,omitempty"`
}

// ExperimentCreate is the input to CreateExperiment.
type ExperimentCreate struct {
	Name     string             `json:"name"`
	Owner    string             `json:"owner"`
	Sessions []string           `json:"sessions"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
	Notes    string             `json:"notes,omitempty"`
}

// RegistryCreate is the input to CreateRegistryRecord.
type RegistryCreate struct {
	SessionID string `json:"sessionId"`
	Subject   string `json:"subject"`
	Device    string `json:"device"`
	Notes     string `json:"notes,omitempty"`
}

// LabStore is the lab backend record store. Lookups of missing records
// return a nil record and a nil error. Validation failures wrap ErrInvalid.
type LabStore interface {
	// Sessions
	ListSessions(ctx context.Context, filter SessionFilter) ([]models.SessionRecord, error)
	GetSession(ctx context.Context, id string) (*models.SessionRecord, error)
	CreateSession(ctx context.Context, in SessionCreate) (*models.SessionRecord, error)
	UpdateSession(ctx context.Context, id string, in SessionUpdate) (*models.SessionRecord, error)
	DeleteSession(ctx context.Context, id string) (*models.SessionRecord, error)

	// Features
	ListFeatures(ctx context.Context, sessionID string) ([]models.FeatureRecord, error)
	ExtractFeatures(ctx context.Context, req ExtractRequest) ([]models.FeatureRecord, error)

	// Training
	ListTrainingJobs(ctx context.Context) ([]models.TrainingJob, error)
	StartTraining(ctx context.Context, req TrainingRequest) (*models.TrainingJob, error)
	GetTrainingJob(ctx context.Context, id string) (*models.TrainingJob, error)
	UpdateTrainingStatus(ctx context.Context, id, status string) (*models.TrainingJob, error)

	// Experiments
	ListExperiments(ctx context.Context) ([]models.ExperimentRecord, error)
	CreateExperiment(ctx context.Context, in ExperimentCreate) (*models.ExperimentRecord, error)

	// Registry
	ListRegistryRecords(ctx context.Context) ([]models.RegistryRecord, error)
	CreateRegistryRecord(ctx context.Context, in RegistryCreate) (*models.RegistryRecord, error)

	Close() error
}

// Option configures a store implementation.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func(prefix string) string
}

func defaultOptions() options {
	return options{now: time.Now, newID: NewID}
}

// WithClock sets the clock used for createdAt/updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDFunc replaces the id generator.
func WithIDFunc(newID func(prefix string) string) Option {
	return func(o *options) { o.newID = newID }
}

func (o options) stamp() string {
	return o.now().UTC().Format(time.RFC3339Nano)
}

// NewID returns "<prefix>_" followed by six random hex characters.
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()[:6]
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
