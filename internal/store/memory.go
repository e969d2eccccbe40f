package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/nvandessel/neurodash/internal/models"
	"github.com/nvandessel/neurodash/internal/seed"
)

// MemoryStore implements LabStore in process memory. Records are returned
// in insertion order and as copies, so callers may modify them freely.
type MemoryStore struct {
	mu   sync.RWMutex
	opts options

	sessions     map[string]models.SessionRecord
	sessionOrder []string
	features     []models.FeatureRecord
	jobs         map[string]models.TrainingJob
	jobOrder     []string
	experiments  []models.ExperimentRecord
	registry     []models.RegistryRecord
}

// NewMemoryStore creates a store holding a copy of initial.
func NewMemoryStore(initial models.Seed, opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &MemoryStore{
		opts:     o,
		sessions: make(map[string]models.SessionRecord),
		jobs:     make(map[string]models.TrainingJob),
	}
	for _, rec := range initial.Sessions {
		s.putSession(cloneSession(rec))
	}
	for _, f := range initial.Features {
		s.features = append(s.features, cloneFeature(f))
	}
	for _, j := range initial.TrainingJobs {
		s.putJob(cloneJob(j))
	}
	for _, e := range initial.Experiments {
		s.experiments = append(s.experiments, cloneExperiment(e))
	}
	s.registry = append(s.registry, initial.Registry...)
	return s
}

func (s *MemoryStore) putSession(rec models.SessionRecord) {
	if _, exists := s.sessions[rec.ID]; !exists {
		s.sessionOrder = append(s.sessionOrder, rec.ID)
	}
	s.sessions[rec.ID] = rec
}

func (s *MemoryStore) putJob(job models.TrainingJob) {
	if _, exists := s.jobs[job.ID]; !exists {
		s.jobOrder = append(s.jobOrder, job.ID)
	}
	s.jobs[job.ID] = job
}

// ListSessions returns the sessions matching filter.
func (s *MemoryStore) ListSessions(ctx context.Context, filter SessionFilter) ([]models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []models.SessionRecord{}
	for _, id := range s.sessionOrder {
		if rec := s.sessions[id]; filter.Matches(rec) {
			results = append(results, cloneSession(rec))
		}
	}
	return results, nil
}

// GetSession returns the session with id, or nil if not found.
func (s *MemoryStore) GetSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	rec = cloneSession(rec)
	return &rec, nil
}

// CreateSession validates in and stores a new session.
func (s *MemoryStore) CreateSession(ctx context.Context, in SessionCreate) (*models.SessionRecord, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := models.SessionRecord{
		ID:        s.opts.newID(PrefixSession),
		Subject:   in.Subject,
		Date:      in.Date,
		Task:      in.Task,
		Channels:  in.Channels,
		Duration:  in.Duration,
		Status:    in.Status,
		Metadata:  in.Metadata,
		CreatedAt: s.opts.stamp(),
	}
	s.putSession(rec)
	rec = cloneSession(rec)
	return &rec, nil
}

// UpdateSession applies a partial update. Returns nil if the session does not exist.
func (s *MemoryStore) UpdateSession(ctx context.Context, id string, in SessionUpdate) (*models.SessionRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	rec = in.apply(rec)
	s.sessions[id] = rec
	rec = cloneSession(rec)
	return &rec, nil
}

// DeleteSession removes a session and returns it, or nil if it did not exist.
// Features, jobs and notes referring to it are kept.
func (s *MemoryStore) DeleteSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	delete(s.sessions, id)
	s.sessionOrder = slices.DeleteFunc(s.sessionOrder, func(v string) bool { return v == id })
	return &rec, nil
}

// ListFeatures returns all feature records, or those of one session when
// sessionID is non-empty.
func (s *MemoryStore) ListFeatures(ctx context.Context, sessionID string) ([]models.FeatureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []models.FeatureRecord{}
	for _, f := range s.features {
		if sessionID == "" || f.SessionID == sessionID {
			results = append(results, cloneFeature(f))
		}
	}
	return results, nil
}

// ExtractFeatures appends one feature record per known session in req.
// Unknown session ids are skipped.
func (s *MemoryStore) ExtractFeatures(ctx context.Context, req ExtractRequest) ([]models.FeatureRecord, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.opts.stamp()
	extracted := []models.FeatureRecord{}
	for _, sessionID := range req.SessionIDs {
		if _, ok := s.sessions[sessionID]; !ok {
			continue
		}
		f := models.FeatureRecord{
			ID:         s.opts.newID(PrefixFeature),
			SessionID:  sessionID,
			FeatureSet: req.FeatureSet,
			WindowMs:   req.WindowMs,
			Metrics:    seed.FeatureMetrics(req.FeatureSet),
			CreatedAt:  createdAt,
		}
		s.features = append(s.features, f)
		extracted = append(extracted, cloneFeature(f))
	}
	return extracted, nil
}

// ListTrainingJobs returns all jobs in creation order.
func (s *MemoryStore) ListTrainingJobs(ctx context.Context) ([]models.TrainingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.TrainingJob, 0, len(s.jobOrder))
	for _, id := range s.jobOrder {
		results = append(results, cloneJob(s.jobs[id]))
	}
	return results, nil
}

// StartTraining queues a new training job. Session ids are not checked
// against the session table.
func (s *MemoryStore) StartTraining(ctx context.Context, req TrainingRequest) (*models.TrainingJob, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.stamp()
	job := models.TrainingJob{
		ID:         s.opts.newID(PrefixTraining),
		Name:       req.Name,
		ModelType:  req.ModelType,
		Status:     models.TrainingQueued,
		Epochs:     req.Epochs,
		SessionIDs: req.SessionIDs,
		FeatureSet: req.FeatureSet,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.putJob(job)
	job = cloneJob(job)
	return &job, nil
}

// GetTrainingJob returns the job with id, or nil if not found.
func (s *MemoryStore) GetTrainingJob(ctx context.Context, id string) (*models.TrainingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	job = cloneJob(job)
	return &job, nil
}

// UpdateTrainingStatus sets a job's status and bumps updatedAt.
func (s *MemoryStore) UpdateTrainingStatus(ctx context.Context, id, status string) (*models.TrainingJob, error) {
	if err := validateTrainingStatus(status); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	job.Status = status
	job.UpdatedAt = s.opts.stamp()
	s.jobs[id] = job
	job = cloneJob(job)
	return &job, nil
}

// ListExperiments returns all experiments in creation order.
func (s *MemoryStore) ListExperiments(ctx context.Context) ([]models.ExperimentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.ExperimentRecord, 0, len(s.experiments))
	for _, e := range s.experiments {
		results = append(results, cloneExperiment(e))
	}
	return results, nil
}

// CreateExperiment stores a new experiment.
func (s *MemoryStore) CreateExperiment(ctx context.Context, in ExperimentCreate) (*models.ExperimentRecord, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := models.ExperimentRecord{
		ID:        s.opts.newID(PrefixExperiment),
		Name:      in.Name,
		Owner:     in.Owner,
		Sessions:  in.Sessions,
		Metrics:   in.Metrics,
		Notes:     in.Notes,
		CreatedAt: s.opts.stamp(),
	}
	s.experiments = append(s.experiments, rec)
	rec = cloneExperiment(rec)
	return &rec, nil
}

// ListRegistryRecords returns all registry notes in creation order.
func (s *MemoryStore) ListRegistryRecords(ctx context.Context) ([]models.RegistryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.RegistryRecord{}, s.registry...), nil
}

// CreateRegistryRecord stores a new registry note.
func (s *MemoryStore) CreateRegistryRecord(ctx context.Context, in RegistryCreate) (*models.RegistryRecord, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := models.RegistryRecord{
		ID:        s.opts.newID(PrefixRegistry),
		SessionID: in.SessionID,
		Subject:   in.Subject,
		Device:    in.Device,
		Notes:     in.Notes,
		CreatedAt: s.opts.stamp(),
	}
	s.registry = append(s.registry, rec)
	return &rec, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func cloneSession(rec models.SessionRecord) models.SessionRecord {
	rec.Metadata = maps.Clone(rec.Metadata)
	if rec.Metadata == nil {
		rec.Metadata = map[string]string{}
	}
	return rec
}

func cloneFeature(f models.FeatureRecord) models.FeatureRecord {
	f.Metrics = maps.Clone(f.Metrics)
	if f.Metrics == nil {
		f.Metrics = map[string]float64{}
	}
	return f
}

func cloneJob(j models.TrainingJob) models.TrainingJob {
	j.SessionIDs = append([]string{}, j.SessionIDs...)
	return j
}

func cloneExperiment(e models.ExperimentRecord) models.ExperimentRecord {
	e.Sessions = append([]string{}, e.Sessions...)
	e.Metrics = maps.Clone(e.Metrics)
	if e.Metrics == nil {
		e.Metrics = map[string]float64{}
	}
	return e
}
