package fixtures

import (
	"fmt"
	"math"

	"github.com/nvandessel/neurodash/internal/constants"
	"github.com/nvandessel/neurodash/internal/models"
)

// Problem is one integrity or range violation found by Validate.
type Problem struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Message    string `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s %s: %s", p.Collection, p.ID, p.Message)
}

// Validate checks referential integrity between collections and that numeric
// fields are finite and inside their generation ranges.
func Validate(data *models.Dataset) []Problem {
	var problems []Problem
	add := func(collection, id, format string, args ...any) {
		problems = append(problems, Problem{Collection: collection, ID: id, Message: fmt.Sprintf(format, args...)})
	}

	sessions := make(map[string]models.Session, len(data.Sessions))
	for _, s := range data.Sessions {
		if _, dup := sessions[s.ID]; dup {
			add("sessions", s.ID, "duplicate id")
		}
		sessions[s.ID] = s
		if s.Channels <= 0 {
			add("sessions", s.ID, "channels = %d, want > 0", s.Channels)
		}
		minDur := constants.MinSessionMinutes
		maxDur := constants.MinSessionMinutes + constants.SessionMinutesSpan
		if s.Duration < minDur || s.Duration >= maxDur {
			add("sessions", s.ID, "duration = %d, want in [%d, %d)", s.Duration, minDur, maxDur)
		}
		if !models.Contains([]string{models.QualityGood, models.QualityFair, models.QualityPoor}, s.Metadata.Quality) {
			add("sessions", s.ID, "unknown quality %q", s.Metadata.Quality)
		}
	}

	recordings := make(map[string]string, len(data.Recordings))
	for _, r := range data.Recordings {
		recordings[r.ID] = r.SessionID
		if _, ok := sessions[r.SessionID]; !ok {
			add("recordings", r.ID, "unknown session %s", r.SessionID)
		}
		if len(r.Timeseries) > constants.TimeseriesPreviewLen {
			add("recordings", r.ID, "%d samples, want <= %d", len(r.Timeseries), constants.TimeseriesPreviewLen)
		}
		if len(r.SpikeTimes) > constants.SpikePreviewLen {
			add("recordings", r.ID, "%d spikes, want <= %d", len(r.SpikeTimes), constants.SpikePreviewLen)
		}
		for i, v := range r.Timeseries {
			if !finite(v) {
				add("recordings", r.ID, "sample %d is not finite", i)
				break
			}
		}
		for i := 1; i < len(r.SpikeTimes); i++ {
			if r.SpikeTimes[i] < r.SpikeTimes[i-1] {
				add("recordings", r.ID, "spike times decrease at index %d", i)
				break
			}
		}
	}

	for _, e := range data.Events {
		s, ok := sessions[e.SessionID]
		if !ok {
			add("events", e.ID, "unknown session %s", e.SessionID)
			continue
		}
		if e.Timestamp < 0 || e.Timestamp >= s.DurationMs() {
			add("events", e.ID, "timestamp %.1f outside session", e.Timestamp)
		}
	}

	for _, m := range data.QualityMetrics {
		if sessionID, ok := recordings[m.RecordingID]; !ok {
			add("quality-metrics", m.ID, "unknown recording %s", m.RecordingID)
		} else if m.SessionID != sessionID {
			add("quality-metrics", m.ID, "session %s, but recording %s belongs to %s", m.SessionID, m.RecordingID, sessionID)
		}
		r, ok := models.MetricRanges[m.MetricType]
		if !ok {
			add("quality-metrics", m.ID, "unknown metric type %q", m.MetricType)
			continue
		}
		if !finite(m.Value) || !r.Contains(m.Value) {
			add("quality-metrics", m.ID, "%s = %v outside [%v, %v)", m.MetricType, m.Value, r.Min, r.Max)
		}
	}

	for _, f := range data.Features {
		s, ok := sessions[f.SessionID]
		if !ok {
			add("features", f.ID, "unknown session %s", f.SessionID)
			continue
		}
		if !(f.WindowStart >= 0 && f.WindowStart < f.WindowEnd && f.WindowEnd <= s.DurationMs()) {
			add("features", f.ID, "window [%.1f, %.1f] outside session", f.WindowStart, f.WindowEnd)
		}
	}

	for _, run := range data.TrainingRuns {
		for _, id := range run.SessionIDs {
			if _, ok := sessions[id]; !ok {
				add("training-runs", run.ID, "unknown session %s", id)
			}
		}
		if !finite(run.Accuracy) || !finite(run.Loss) {
			add("training-runs", run.ID, "non-finite accuracy or loss")
		}
	}

	return problems
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
