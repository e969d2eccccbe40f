// Package dataset provides read access, filters and aggregates over a loaded
// fixture dataset.
package dataset

import (
	"github.com/nvandessel/neurodash/internal/models"
)

// Catalog answers queries over one immutable Dataset. It is safe for
// concurrent use as long as the underlying Dataset is not modified.
type Catalog struct {
	data *models.Dataset
}

// NewCatalog wraps data. A nil dataset is treated as empty.
func NewCatalog(data *models.Dataset) *Catalog {
	if data == nil {
		data = models.NewDataset()
	}
	return &Catalog{data: data}
}

// Dataset returns the wrapped dataset.
func (c *Catalog) Dataset() *models.Dataset { return c.data }

// filter returns the elements of items matching keep, never nil.
func filter[T any](items []T, keep func(T) bool) []T {
	out := []T{}
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// distinct returns the unique keys of items in first-seen order.
func distinct[T any](items []T, key func(T) string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, item := range items {
		k := key(item)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// Sessions

func (c *Catalog) Sessions() []models.Session { return c.data.Sessions }

// SessionByID returns the session with the given id, or false.
func (c *Catalog) SessionByID(id string) (models.Session, bool) {
	for _, s := range c.data.Sessions {
		if s.ID == id {
			return s, true
		}
	}
	return models.Session{}, false
}

func (c *Catalog) SessionsBySubject(subject string) []models.Session {
	return filter(c.data.Sessions, func(s models.Session) bool { return s.Subject == subject })
}

func (c *Catalog) SessionsByTask(task string) []models.Session {
	return filter(c.data.Sessions, func(s models.Session) bool { return s.Task == task })
}

// SessionsByDateRange returns sessions whose YYYY-MM-DD date lies in
// [start, end], compared lexically.
func (c *Catalog) SessionsByDateRange(start, end string) []models.Session {
	return filter(c.data.Sessions, func(s models.Session) bool { return s.Date >= start && s.Date <= end })
}

// Recordings

func (c *Catalog) Recordings() []models.Recording { return c.data.Recordings }

func (c *Catalog) RecordingsBySession(sessionID string) []models.Recording {
	return filter(c.data.Recordings, func(r models.Recording) bool { return r.SessionID == sessionID })
}

func (c *Catalog) RecordingsByChannel(channelID int) []models.Recording {
	return filter(c.data.Recordings, func(r models.Recording) bool { return r.ChannelID == channelID })
}

// Events

func (c *Catalog) Events() []models.Event { return c.data.Events }

func (c *Catalog) EventsBySession(sessionID string) []models.Event {
	return filter(c.data.Events, func(e models.Event) bool { return e.SessionID == sessionID })
}

func (c *Catalog) EventsByType(eventType string) []models.Event {
	return filter(c.data.Events, func(e models.Event) bool { return e.Type == eventType })
}

// Quality metrics

func (c *Catalog) QualityMetrics() []models.QualityMetric { return c.data.QualityMetrics }

func (c *Catalog) QualityMetricsByRecording(recordingID string) []models.QualityMetric {
	return filter(c.data.QualityMetrics, func(m models.QualityMetric) bool { return m.RecordingID == recordingID })
}

func (c *Catalog) QualityMetricsByType(metricType string) []models.QualityMetric {
	return filter(c.data.QualityMetrics, func(m models.QualityMetric) bool { return m.MetricType == metricType })
}

// AverageQualityMetric returns the mean value of all metrics of metricType,
// or 0 when there are none.
func (c *Catalog) AverageQualityMetric(metricType string) float64 {
	return meanMetric(c.QualityMetricsByType(metricType), metricType)
}

// Features

func (c *Catalog) Features() []models.Feature { return c.data.Features }

func (c *Catalog) FeaturesBySession(sessionID string) []models.Feature {
	return filter(c.data.Features, func(f models.Feature) bool { return f.SessionID == sessionID })
}

func (c *Catalog) FeaturesByType(featureType string) []models.Feature {
	return filter(c.data.Features, func(f models.Feature) bool { return f.FeatureType == featureType })
}

// Training runs

func (c *Catalog) TrainingRuns() []models.TrainingRun { return c.data.TrainingRuns }

// BestTrainingRun returns the run with the highest accuracy. Ties keep the
// earliest run. Returns false when there are no runs.
func (c *Catalog) BestTrainingRun() (models.TrainingRun, bool) {
	runs := c.data.TrainingRuns
	if len(runs) == 0 {
		return models.TrainingRun{}, false
	}
	best := runs[0]
	for _, r := range runs[1:] {
		if r.Accuracy > best.Accuracy {
			best = r
		}
	}
	return best, true
}

// Registry

func (c *Catalog) RegistryEntries() []models.RegistryEntry { return c.data.RegistryEntries }

func (c *Catalog) RegistryEntriesBySubject(subject string) []models.RegistryEntry {
	return filter(c.data.RegistryEntries, func(r models.RegistryEntry) bool { return r.Subject == subject })
}
