package dataset

import (
	"github.com/nvandessel/neurodash/internal/models"
)

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Max returns the largest value, or 0 for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Min returns the smallest value, or 0 for an empty slice.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func meanMetric(metrics []models.QualityMetric, metricType string) float64 {
	var values []float64
	for _, m := range metrics {
		if m.MetricType == metricType {
			values = append(values, m.Value)
		}
	}
	return Mean(values)
}

// Statistics is the dashboard's overview of a dataset.
type Statistics struct {
	TotalSessions        int      `json:"totalSessions"`
	TotalRecordings      int      `json:"totalRecordings"`
	TotalEvents          int      `json:"totalEvents"`
	TotalQualityMetrics  int      `json:"totalQualityMetrics"`
	TotalFeatures        int      `json:"totalFeatures"`
	TotalTrainingRuns    int      `json:"totalTrainingRuns"`
	TotalRegistryEntries int      `json:"totalRegistryEntries"`
	Subjects             []string `json:"subjects"`
	Tasks                []string `json:"tasks"`
	Devices              []string `json:"devices"`
	AvgSessionDuration   float64  `json:"avgSessionDuration"` // minutes
	AvgChannels          float64  `json:"avgChannels"`
}

// Statistics summarizes the dataset. Averages are 0 when there are no sessions.
func (c *Catalog) Statistics() Statistics {
	sessions := c.data.Sessions
	durations := make([]float64, 0, len(sessions))
	channels := make([]float64, 0, len(sessions))
	for _, s := range sessions {
		durations = append(durations, float64(s.Duration))
		channels = append(channels, float64(s.Channels))
	}

	return Statistics{
		TotalSessions:        len(sessions),
		TotalRecordings:      len(c.data.Recordings),
		TotalEvents:          len(c.data.Events),
		TotalQualityMetrics:  len(c.data.QualityMetrics),
		TotalFeatures:        len(c.data.Features),
		TotalTrainingRuns:    len(c.data.TrainingRuns),
		TotalRegistryEntries: len(c.data.RegistryEntries),
		Subjects:             distinct(sessions, func(s models.Session) string { return s.Subject }),
		Tasks:                distinct(sessions, func(s models.Session) string { return s.Task }),
		Devices:              distinct(sessions, func(s models.Session) string { return s.Metadata.Implant }),
		AvgSessionDuration:   Mean(durations),
		AvgChannels:          Mean(channels),
	}
}

// SessionMetrics is the per-session drill-down.
type SessionMetrics struct {
	Session           models.Session         `json:"session"`
	RecordingCount    int                    `json:"recordingCount"`
	EventCount        int                    `json:"eventCount"`
	AvgSNR            float64                `json:"avgSNR"`
	AvgNoise          float64                `json:"avgNoise"`
	AvgDrift          float64                `json:"avgDrift"`
	AvgSpikeAmplitude float64                `json:"avgSpikeAmplitude"`
	Metrics           []models.QualityMetric `json:"metrics"`
}

// SessionMetrics aggregates the recordings, events and quality metrics of one
// session. Averages cover only that session's metrics. Returns false for an
// unknown session.
func (c *Catalog) SessionMetrics(sessionID string) (*SessionMetrics, bool) {
	session, ok := c.SessionByID(sessionID)
	if !ok {
		return nil, false
	}

	recordings := c.RecordingsBySession(sessionID)
	owned := make(map[string]bool, len(recordings))
	for _, r := range recordings {
		owned[r.ID] = true
	}
	metrics := filter(c.data.QualityMetrics, func(m models.QualityMetric) bool { return owned[m.RecordingID] })

	return &SessionMetrics{
		Session:           session,
		RecordingCount:    len(recordings),
		EventCount:        len(c.EventsBySession(sessionID)),
		AvgSNR:            meanMetric(metrics, models.MetricSNR),
		AvgNoise:          meanMetric(metrics, models.MetricNoiseFloor),
		AvgDrift:          meanMetric(metrics, models.MetricDrift),
		AvgSpikeAmplitude: meanMetric(metrics, models.MetricSpikeAmplitude),
		Metrics:           metrics,
	}, true
}

// TaskSummary counts sessions per task.
type TaskSummary struct {
	Task        string  `json:"task"`
	Count       int     `json:"count"`
	AvgDuration float64 `json:"avgDuration"`
}

// TaskAnalysis returns one summary per task in first-seen order.
func (c *Catalog) TaskAnalysis() []TaskSummary {
	out := []TaskSummary{}
	for _, task := range distinct(c.data.Sessions, func(s models.Session) string { return s.Task }) {
		sessions := c.SessionsByTask(task)
		durations := make([]float64, len(sessions))
		for i, s := range sessions {
			durations[i] = float64(s.Duration)
		}
		out = append(out, TaskSummary{Task: task, Count: len(sessions), AvgDuration: Mean(durations)})
	}
	return out
}

// SubjectSummary counts sessions per subject and lists their tasks.
type SubjectSummary struct {
	Subject string   `json:"subject"`
	Count   int      `json:"count"`
	Tasks   []string `json:"tasks"`
}

// SubjectAnalysis returns one summary per subject in first-seen order.
func (c *Catalog) SubjectAnalysis() []SubjectSummary {
	out := []SubjectSummary{}
	for _, subject := range distinct(c.data.Sessions, func(s models.Session) string { return s.Subject }) {
		sessions := c.SessionsBySubject(subject)
		out = append(out, SubjectSummary{
			Subject: subject,
			Count:   len(sessions),
			Tasks:   distinct(sessions, func(s models.Session) string { return s.Task }),
		})
	}
	return out
}
