package seed

import (
	"testing"

	"github.com/nvandessel/neurodash/internal/models"
)

func TestDefault_Counts(t *testing.T) {
	s := Default()

	if len(s.Sessions) != 3 {
		t.Errorf("Sessions = %d, want 3", len(s.Sessions))
	}
	if len(s.Features) != 2 {
		t.Errorf("Features = %d, want 2", len(s.Features))
	}
	if len(s.TrainingJobs) != 1 {
		t.Errorf("TrainingJobs = %d, want 1", len(s.TrainingJobs))
	}
	if len(s.Experiments) != 2 {
		t.Errorf("Experiments = %d, want 2", len(s.Experiments))
	}
	if len(s.Registry) != 2 {
		t.Errorf("Registry = %d, want 2", len(s.Registry))
	}
}

func TestDefault_References(t *testing.T) {
	s := Default()
	known := make(map[string]bool)
	for _, sess := range s.Sessions {
		known[sess.ID] = true
		if !models.Contains(models.SessionStatuses, sess.Status) {
			t.Errorf("session %s has invalid status %q", sess.ID, sess.Status)
		}
	}

	for _, f := range s.Features {
		if !known[f.SessionID] {
			t.Errorf("feature %s references unknown session %s", f.ID, f.SessionID)
		}
	}
	for _, j := range s.TrainingJobs {
		for _, id := range j.SessionIDs {
			if !known[id] {
				t.Errorf("job %s references unknown session %s", j.ID, id)
			}
		}
	}
	for _, r := range s.Registry {
		if !known[r.SessionID] {
			t.Errorf("registry %s references unknown session %s", r.ID, r.SessionID)
		}
	}
}

func TestDefault_ReturnsCopy(t *testing.T) {
	a := Default()
	a.Sessions[0].Subject = "changed"
	a.Sessions[0].Metadata["implant"] = "changed"

	b := Default()
	if b.Sessions[0].Subject != "Subject A" || b.Sessions[0].Metadata["implant"] != "N1" {
		t.Error("mutating one Default() result changed another")
	}
}

func TestFeatureMetrics(t *testing.T) {
	tests := []struct {
		featureSet string
		key        string
		want       float64
	}{
		{models.FeatureSetSpikeRate, "mean", 19.1},
		{models.FeatureSetBandPower, "gamma", 0.71},
		{models.FeatureSetLFPSpectrum, "alpha", 0.41},
		{models.FeatureSetCustom, "customC", 0.77},
		{"unknown", "customA", 0.58},
	}

	for _, tt := range tests {
		t.Run(tt.featureSet, func(t *testing.T) {
			m := FeatureMetrics(tt.featureSet)
			if len(m) != 3 {
				t.Errorf("len = %d, want 3", len(m))
			}
			if got := m[tt.key]; got != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, got, tt.want)
			}
		})
	}

	m := FeatureMetrics(models.FeatureSetSpikeRate)
	m["mean"] = 0
	if FeatureMetrics(models.FeatureSetSpikeRate)["mean"] != 19.1 {
		t.Error("FeatureMetrics returned a shared map")
	}
}
