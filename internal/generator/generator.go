// Package generator synthesizes the mock neuroscience dataset served to the
// dashboard: sessions, per-channel recordings, events, quality metrics,
// features, training runs and registry entries.
//
// All times inside the generator are milliseconds. Session.Duration is the one
// exception: it is stored in minutes and converted once via Session.DurationMs.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/neurodash/internal/constants"
	"github.com/nvandessel/neurodash/internal/models"
)

// isoLayout matches JavaScript's Date.toISOString output.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Options controls the shape of a generated dataset.
type Options struct {
	Subjects           []string
	SessionsPerSubject int
	ChannelsPerSession int
	EventsPerSession   int
	MetricsPerChannel  int
	FeaturesPerSession int
	TrainingRuns       int
	SamplingRate       int
	FiringRate         float64
}

// DefaultOptions returns the stock dataset shape: 3 subjects x 4 sessions,
// 256 channels per session.
func DefaultOptions() Options {
	return Options{
		Subjects:           append([]string(nil), constants.Subjects...),
		SessionsPerSubject: constants.DefaultSessionsPerSubject,
		ChannelsPerSession: constants.DefaultChannelsPerSession,
		EventsPerSession:   constants.DefaultEventsPerSession,
		MetricsPerChannel:  constants.DefaultMetricsPerChannel,
		FeaturesPerSession: constants.DefaultFeaturesPerSession,
		TrainingRuns:       constants.DefaultTrainingRuns,
		SamplingRate:       constants.SamplingRateHz,
		FiringRate:         constants.FiringRateHz,
	}
}

// Validate checks that the options describe a well-formed dataset.
func (o Options) Validate() error {
	if len(o.Subjects) == 0 {
		return fmt.Errorf("at least one subject is required")
	}
	seen := make(map[string]bool, len(o.Subjects))
	for _, s := range o.Subjects {
		name := strings.TrimSpace(s)
		if name == "" {
			return fmt.Errorf("subject names must be non-empty")
		}
		if seen[name] {
			return fmt.Errorf("duplicate subject %q", name)
		}
		seen[name] = true
	}
	if o.ChannelsPerSession <= 0 {
		return fmt.Errorf("channels per session must be positive, got %d", o.ChannelsPerSession)
	}
	if o.SamplingRate <= 0 {
		return fmt.Errorf("sampling rate must be positive, got %d", o.SamplingRate)
	}
	if o.FiringRate < 0 || math.IsNaN(o.FiringRate) || math.IsInf(o.FiringRate, 0) {
		return fmt.Errorf("firing rate must be a non-negative finite number, got %v", o.FiringRate)
	}
	counts := map[string]int{
		"sessions per subject": o.SessionsPerSubject,
		"events per session":   o.EventsPerSession,
		"metrics per channel":  o.MetricsPerChannel,
		"features per session": o.FeaturesPerSession,
		"training runs":        o.TrainingRuns,
	}
	for name, n := range counts {
		if n < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, n)
		}
	}
	return nil
}

// Generator builds datasets. It is not safe for concurrent use because it
// owns a *rand.Rand.
type Generator struct {
	opts   Options
	rng    *rand.Rand
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the clock used for dates and createdAt stamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLogger sets the logger for progress output.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithIDFunc replaces the UUID source, mainly for tests.
func WithIDFunc(newID func() string) Option {
	return func(g *Generator) { g.newID = newID }
}

// New creates a Generator. A nil rng is seeded from the current time.
func New(opts Options, rng *rand.Rand, options ...Option) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g := &Generator{
		opts:   opts,
		rng:    rng,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, o := range options {
		o(g)
	}
	return g
}

// Generate builds a complete dataset. It checks ctx between sessions.
func (g *Generator) Generate(ctx context.Context) (*models.Dataset, error) {
	if err := g.opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator options: %w", err)
	}

	data := models.NewDataset()
	for _, subject := range g.opts.Subjects {
		for s := 0; s < g.opts.SessionsPerSubject; s++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			g.addSession(data, subject)
		}
		g.logger.Debug("generated subject sessions", "subject", subject, "sessions", g.opts.SessionsPerSubject)
	}

	g.addTrainingRuns(data)
	g.addRegistryEntries(data)

	g.logger.Debug("dataset generated",
		"sessions", len(data.Sessions),
		"recordings", len(data.Recordings),
		"quality_metrics", len(data.QualityMetrics))
	return data, nil
}

func (g *Generator) addSession(data *models.Dataset, subject string) {
	now := g.now().UTC()
	offset := time.Duration(g.rng.Float64() * float64(constants.SessionDateWindowDays*24*time.Hour))

	session := models.Session{
		ID:           g.newID(),
		Subject:      subject,
		Date:         now.Add(-offset).Format("2006-01-02"),
		Task:         pick(g.rng, constants.Tasks),
		Duration:     constants.MinSessionMinutes + g.rng.Intn(constants.SessionMinutesSpan),
		Channels:     g.opts.ChannelsPerSession,
		SamplingRate: g.opts.SamplingRate,
		Metadata: models.SessionMetadata{
			Implant:  pick(g.rng, constants.Devices),
			Operator: pick(g.rng, constants.Operators),
			Quality:  g.quality(),
		},
		CreatedAt: now.Format(isoLayout),
	}
	data.Sessions = append(data.Sessions, session)

	durationMs := session.DurationMs()
	for ch := 0; ch < session.Channels; ch++ {
		g.addRecording(data, session, ch, durationMs)
	}
	for e := 0; e < g.opts.EventsPerSession; e++ {
		data.Events = append(data.Events, g.event(session, durationMs))
	}
	for f := 0; f < min(g.opts.FeaturesPerSession, len(constants.FeatureTypes)); f++ {
		data.Features = append(data.Features, g.feature(session, f, durationMs))
	}
}

func (g *Generator) addRecording(data *models.Dataset, session models.Session, channel int, durationMs float64) {
	createdAt := g.now().UTC().Format(isoLayout)
	rate := float64(session.SamplingRate)

	// Only the retained prefix is synthesized.
	window := math.Min(durationMs, constants.MaxTimeseriesWindowMs)
	samples := min(sampleCount(window, rate), constants.TimeseriesPreviewLen)

	rec := models.Recording{
		ID:         g.newID(),
		SessionID:  session.ID,
		ChannelID:  channel,
		Timeseries: synthesizeSignal(g.rng, samples, rate),
		SpikeTimes: spikeTrain(g.rng, durationMs, g.opts.FiringRate, constants.SpikePreviewLen),
		CreatedAt:  createdAt,
	}
	data.Recordings = append(data.Recordings, rec)

	metrics := GenerateQualityMetrics(g.rng)
	for i, metricType := range models.MetricTypes {
		if i >= g.opts.MetricsPerChannel {
			break
		}
		value, _ := metrics.Value(metricType)
		data.QualityMetrics = append(data.QualityMetrics, models.QualityMetric{
			ID:          g.newID(),
			RecordingID: rec.ID,
			SessionID:   session.ID,
			MetricType:  metricType,
			Value:       value,
			CreatedAt:   createdAt,
		})
	}
}

func (g *Generator) event(session models.Session, durationMs float64) models.Event {
	return models.Event{
		ID:        g.newID(),
		SessionID: session.ID,
		Type:      pick(g.rng, constants.EventTypes),
		Timestamp: g.rng.Float64() * durationMs,
		Duration:  constants.MinEventDurationMs + g.rng.Float64()*constants.EventDurationSpanMs,
		Metadata: models.EventMetadata{
			Channel:   g.rng.Intn(session.Channels),
			Amplitude: g.rng.Float64() * constants.MaxEventAmplitude,
		},
		CreatedAt: g.now().UTC().Format(isoLayout),
	}
}

// feature builds the index-th feature row. The window always fits inside the
// session: 0 <= start < end <= durationMs.
func (g *Generator) feature(session models.Session, index int, durationMs float64) models.Feature {
	width := math.Min(constants.FeatureWindowMs, durationMs)
	start := g.rng.Float64() * (durationMs - width)
	return models.Feature{
		ID:          g.newID(),
		SessionID:   session.ID,
		FeatureType: constants.FeatureTypes[index],
		WindowStart: start,
		WindowEnd:   start + width,
		Values:      GenerateFeatures(g.rng),
		CreatedAt:   g.now().UTC().Format(isoLayout),
	}
}

func (g *Generator) addTrainingRuns(data *models.Dataset) {
	for i := 0; i < g.opts.TrainingRuns; i++ {
		stamp := g.now().UTC().Format(isoLayout)
		data.TrainingRuns = append(data.TrainingRuns, models.TrainingRun{
			ID:         g.newID(),
			Name:       fmt.Sprintf("Training_Run_%d", i+1),
			ModelType:  pick(g.rng, constants.ModelTypes),
			Status:     pick(g.rng, constants.RunStatuses),
			Accuracy:   constants.MinTrainingAccuracy + g.rng.Float64()*constants.TrainingAccuracySpan,
			Loss:       g.rng.Float64() * constants.MaxTrainingLoss,
			Epochs:     constants.MinTrainingEpochs + g.rng.Intn(constants.TrainingEpochsSpan),
			SessionIDs: g.sessionSubset(data.Sessions),
			CreatedAt:  stamp,
			UpdatedAt:  stamp,
		})
	}
}

// sessionSubset picks 1..MaxRunSessions distinct sessions, kept in
// generation order.
func (g *Generator) sessionSubset(sessions []models.Session) []string {
	ids := []string{}
	if len(sessions) == 0 {
		return ids
	}
	k := min(g.rng.Intn(constants.MaxRunSessions)+1, len(sessions))
	picked := g.rng.Perm(len(sessions))[:k]
	sort.Ints(picked)
	for _, idx := range picked {
		ids = append(ids, sessions[idx].ID)
	}
	return ids
}

func (g *Generator) addRegistryEntries(data *models.Dataset) {
	for _, subject := range g.opts.Subjects {
		now := g.now().UTC()
		offset := time.Duration(g.rng.Float64() * float64(constants.ImplantDateWindowDays*24*time.Hour))
		status := "archived"
		if g.rng.Float64() > constants.ActiveRegistryThreshold {
			status = "active"
		}
		data.RegistryEntries = append(data.RegistryEntries, models.RegistryEntry{
			ID:          g.newID(),
			Subject:     subject,
			Device:      pick(g.rng, constants.Devices),
			ImplantDate: now.Add(-offset).Format(isoLayout),
			Notes:       fmt.Sprintf("Neural recording setup for %s. Array positioned in motor cortex.", subject),
			Status:      status,
			CreatedAt:   now.Format(isoLayout),
		})
	}
}

// quality draws a session quality label biased toward "good".
func (g *Generator) quality() string {
	r := g.rng.Float64()
	switch {
	case r >= constants.GoodQualityThreshold:
		return models.QualityGood
	case r >= constants.PoorQualityThreshold:
		return models.QualityFair
	default:
		return models.QualityPoor
	}
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}
