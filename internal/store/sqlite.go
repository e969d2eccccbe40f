package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/neurodash/internal/models"
	"github.com/nvandessel/neurodash/internal/seed"
)

// SQLiteStore implements LabStore on a SQLite database.
type SQLiteStore struct {
	mu   sync.RWMutex
	db   *sql.DB
	opts options
}

// NewSQLiteStore opens (or creates) the database at path, applies the
// schema and, if the sessions table is empty, inserts initial. A path of
// ":memory:" opens a private in-memory database.
func NewSQLiteStore(ctx context.Context, path string, initial models.Seed, opts ...Option) (*SQLiteStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer; also keeps a :memory: database alive on one connection.
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &SQLiteStore{db: db, opts: o}
	if err := s.seedIfEmpty(ctx, initial); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) seedIfEmpty(ctx context.Context, initial models.Seed) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count sessions: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range initial.Sessions {
		if err := insertSession(ctx, tx, rec); err != nil {
			return err
		}
	}
	for _, f := range initial.Features {
		if err := insertFeature(ctx, tx, f); err != nil {
			return err
		}
	}
	for _, j := range initial.TrainingJobs {
		if err := insertJob(ctx, tx, j); err != nil {
			return err
		}
	}
	for _, e := range initial.Experiments {
		if err := insertExperiment(ctx, tx, e); err != nil {
			return err
		}
	}
	for _, r := range initial.Registry {
		if err := insertRegistry(ctx, tx, r); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Only maps of strings/floats and string slices are stored.
		panic(fmt.Sprintf("store: marshaling %T: %v", v, err))
	}
	return string(data)
}

func insertSession(ctx context.Context, db execer, rec models.SessionRecord) error {
	metadata := rec.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions (id, subject, date, task, channels, duration, status, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Subject, rec.Date, rec.Task, rec.Channels, rec.Duration, rec.Status, toJSON(metadata), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session %s: %w", rec.ID, err)
	}
	return nil
}

func insertFeature(ctx context.Context, db execer, f models.FeatureRecord) error {
	metrics := f.Metrics
	if metrics == nil {
		metrics = map[string]float64{}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO features (id, session_id, feature_set, window_ms, metrics, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.SessionID, f.FeatureSet, f.WindowMs, toJSON(metrics), f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert feature %s: %w", f.ID, err)
	}
	return nil
}

func insertJob(ctx context.Context, db execer, j models.TrainingJob) error {
	ids := j.SessionIDs
	if ids == nil {
		ids = []string{}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO training_jobs (id, name, model_type, status, epochs, session_ids, feature_set, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Name, j.ModelType, j.Status, j.Epochs, toJSON(ids), j.FeatureSet, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert training job %s: %w", j.ID, err)
	}
	return nil
}

func insertExperiment(ctx context.Context, db execer, e models.ExperimentRecord) error {
	sessions, metrics := e.Sessions, e.Metrics
	if sessions == nil {
		sessions = []string{}
	}
	if metrics == nil {
		metrics = map[string]float64{}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO experiments (id, name, owner, sessions, metrics, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Owner, toJSON(sessions), toJSON(metrics), e.Notes, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert experiment %s: %w", e.ID, err)
	}
	return nil
}

func insertRegistry(ctx context.Context, db execer, r models.RegistryRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO registry (id, session_id, subject, device, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.Subject, r.Device, r.Notes, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert registry record %s: %w", r.ID, err)
	}
	return nil
}

const sessionColumns = `id, subject, date, task, channels, duration, status, metadata, created_at`

func scanSession(row scanner) (models.SessionRecord, error) {
	var rec models.SessionRecord
	var metadata string
	if err := row.Scan(&rec.ID, &rec.Subject, &rec.Date, &rec.Task, &rec.Channels,
		&rec.Duration, &rec.Status, &metadata, &rec.CreatedAt); err != nil {
		return rec, err
	}
	rec.Metadata = map[string]string{}
	if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
		return rec, fmt.Errorf("failed to decode metadata of session %s: %w", rec.ID, err)
	}
	return rec, nil
}

const featureColumns = `id, session_id, feature_set, window_ms, metrics, created_at`

func scanFeature(row scanner) (models.FeatureRecord, error) {
	var f models.FeatureRecord
	var metrics string
	if err := row.Scan(&f.ID, &f.SessionID, &f.FeatureSet, &f.WindowMs, &metrics, &f.CreatedAt); err != nil {
		return f, err
	}
	f.Metrics = map[string]float64{}
	if err := json.Unmarshal([]byte(metrics), &f.Metrics); err != nil {
		return f, fmt.Errorf("failed to decode metrics of feature %s: %w", f.ID, err)
	}
	return f, nil
}

const jobColumns = `id, name, model_type, status, epochs, session_ids, feature_set, created_at, updated_at`

func scanJob(row scanner) (models.TrainingJob, error) {
	var j models.TrainingJob
	var ids string
	if err := row.Scan(&j.ID, &j.Name, &j.ModelType, &j.Status, &j.Epochs, &ids,
		&j.FeatureSet, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return j, err
	}
	j.SessionIDs = []string{}
	if err := json.Unmarshal([]byte(ids), &j.SessionIDs); err != nil {
		return j, fmt.Errorf("failed to decode session ids of job %s: %w", j.ID, err)
	}
	return j, nil
}

// queryAll runs query and scans every row with scan.
func queryAll[T any](ctx context.Context, db *sql.DB, scan func(scanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	results := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return results, nil
}

// queryOne returns nil when no row matches.
func queryOne[T any](ctx context.Context, db *sql.DB, scan func(scanner) (T, error), query string, args ...any) (*T, error) {
	v, err := scan(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	return &v, nil
}

// ListSessions returns the sessions matching filter in insertion order.
// Exact-match fields are pushed into SQL; Search is applied in Go.
func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1=1`
	var args []any
	if filter.Subject != "" {
		query += ` AND subject = ?`
		args = append(args, filter.Subject)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Task != "" {
		query += ` AND task = ?`
		args = append(args, filter.Task)
	}
	query += ` ORDER BY rowid`

	all, err := queryAll(ctx, s.db, scanSession, query, args...)
	if err != nil {
		return nil, err
	}
	results := []models.SessionRecord{}
	for _, rec := range all {
		if filter.Matches(rec) {
			results = append(results, rec)
		}
	}
	return results, nil
}

// GetSession returns the session with id, or nil if not found.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryOne(ctx, s.db, scanSession, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
}

// CreateSession validates in and stores a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, in SessionCreate) (*models.SessionRecord, error) {
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
	if err := insertSession(ctx, s.db, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateSession applies a partial update. Returns nil if the session does not exist.
func (s *SQLiteStore) UpdateSession(ctx context.Context, id string, in SessionUpdate) (*models.SessionRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := queryOne(ctx, s.db, scanSession, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	if err != nil || existing == nil {
		return nil, err
	}
	rec := in.apply(*existing)

	_, err = s.db.ExecContext(ctx, `
		UPDATE sessions SET subject = ?, date = ?, task = ?, channels = ?, duration = ?, status = ?, metadata = ?
		WHERE id = ?`,
		rec.Subject, rec.Date, rec.Task, rec.Channels, rec.Duration, rec.Status, toJSON(rec.Metadata), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update session %s: %w", id, err)
	}
	return &rec, nil
}

// DeleteSession removes a session and returns it, or nil if it did not exist.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := queryOne(ctx, s.db, scanSession, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	if err != nil || existing == nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return existing, nil
}

// ListFeatures returns all feature records, or those of one session when
// sessionID is non-empty.
func (s *SQLiteStore) ListFeatures(ctx context.Context, sessionID string) ([]models.FeatureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sessionID == "" {
		return queryAll(ctx, s.db, scanFeature, `SELECT `+featureColumns+` FROM features ORDER BY rowid`)
	}
	return queryAll(ctx, s.db, scanFeature,
		`SELECT `+featureColumns+` FROM features WHERE session_id = ? ORDER BY rowid`, sessionID)
}

// ExtractFeatures inserts one feature record per known session in req.
// Unknown session ids are skipped.
func (s *SQLiteStore) ExtractFeatures(ctx context.Context, req ExtractRequest) ([]models.FeatureRecord, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := s.opts.stamp()
	extracted := []models.FeatureRecord{}
	for _, sessionID := range req.SessionIDs {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to look up session %s: %w", sessionID, err)
		}
		if exists == 0 {
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
		if err := insertFeature(ctx, tx, f); err != nil {
			return nil, err
		}
		extracted = append(extracted, f)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit features: %w", err)
	}
	return extracted, nil
}

// ListTrainingJobs returns all jobs in creation order.
func (s *SQLiteStore) ListTrainingJobs(ctx context.Context) ([]models.TrainingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryAll(ctx, s.db, scanJob, `SELECT `+jobColumns+` FROM training_jobs ORDER BY rowid`)
}

// StartTraining queues a new training job.
func (s *SQLiteStore) StartTraining(ctx context.Context, req TrainingRequest) (*models.TrainingJob, error) {
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
	if err := insertJob(ctx, s.db, job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetTrainingJob returns the job with id, or nil if not found.
func (s *SQLiteStore) GetTrainingJob(ctx context.Context, id string) (*models.TrainingJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryOne(ctx, s.db, scanJob, `SELECT `+jobColumns+` FROM training_jobs WHERE id = ?`, id)
}

// UpdateTrainingStatus sets a job's status and bumps updatedAt.
func (s *SQLiteStore) UpdateTrainingStatus(ctx context.Context, id, status string) (*models.TrainingJob, error) {
	if err := validateTrainingStatus(status); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updatedAt := s.opts.stamp()
	res, err := s.db.ExecContext(ctx,
		`UPDATE training_jobs SET status = ?, updated_at = ? WHERE id = ?`, status, updatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update training job %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return queryOne(ctx, s.db, scanJob, `SELECT `+jobColumns+` FROM training_jobs WHERE id = ?`, id)
}

func scanExperiment(row scanner) (models.ExperimentRecord, error) {
	var e models.ExperimentRecord
	var sessions, metrics string
	if err := row.Scan(&e.ID, &e.Name, &e.Owner, &sessions, &metrics, &e.Notes, &e.CreatedAt); err != nil {
		return e, err
	}
	e.Sessions = []string{}
	e.Metrics = map[string]float64{}
	if err := json.Unmarshal([]byte(sessions), &e.Sessions); err != nil {
		return e, fmt.Errorf("failed to decode sessions of experiment %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(metrics), &e.Metrics); err != nil {
		return e, fmt.Errorf("failed to decode metrics of experiment %s: %w", e.ID, err)
	}
	return e, nil
}

// ListExperiments returns all experiments in creation order.
func (s *SQLiteStore) ListExperiments(ctx context.Context) ([]models.ExperimentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryAll(ctx, s.db, scanExperiment,
		`SELECT id, name, owner, sessions, metrics, notes, created_at FROM experiments ORDER BY rowid`)
}

// CreateExperiment stores a new experiment.
func (s *SQLiteStore) CreateExperiment(ctx context.Context, in ExperimentCreate) (*models.ExperimentRecord, error) {
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
	if err := insertExperiment(ctx, s.db, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanRegistry(row scanner) (models.RegistryRecord, error) {
	var r models.RegistryRecord
	err := row.Scan(&r.ID, &r.SessionID, &r.Subject, &r.Device, &r.Notes, &r.CreatedAt)
	return r, err
}

// ListRegistryRecords returns all registry notes in creation order.
func (s *SQLiteStore) ListRegistryRecords(ctx context.Context) ([]models.RegistryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryAll(ctx, s.db, scanRegistry,
		`SELECT id, session_id, subject, device, notes, created_at FROM registry ORDER BY rowid`)
}

// CreateRegistryRecord stores a new registry note.
func (s *SQLiteStore) CreateRegistryRecord(ctx context.Context, in RegistryCreate) (*models.RegistryRecord, error) {
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
	if err := insertRegistry(ctx, s.db, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
