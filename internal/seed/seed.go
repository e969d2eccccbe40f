// Package seed provides the initial records of the lab backend store and the
// canned metrics returned by feature extraction.
package seed

import (
	"maps"

	"github.com/nvandessel/neurodash/internal/models"
)

// Default returns a fresh copy of the stock seed: three sessions, two
// feature records, one training job, two experiments and two registry records.
func Default() models.Seed {
	return models.Seed{
		Sessions: []models.SessionRecord{
			{
				ID:        "sess_001",
				Subject:   "Subject A",
				Date:      "2024-06-14",
				Task:      "Motor imagery",
				Channels:  1024,
				Duration:  "45 min",
				Status:    models.SessionValidated,
				Metadata:  map[string]string{"implant": "N1", "operator": "Dr. Kaur"},
				CreatedAt: "2024-06-14T09:15:00Z",
			},
			{
				ID:        "sess_002",
				Subject:   "Subject B",
				Date:      "2024-06-15",
				Task:      "Speech decoding",
				Channels:  768,
				Duration:  "38 min",
				Status:    models.SessionProcessing,
				Metadata:  map[string]string{"implant": "N1", "operator": "Dr. Chen"},
				CreatedAt: "2024-06-15T11:02:00Z",
			},
			{
				ID:        "sess_003",
				Subject:   "Subject C",
				Date:      "2024-06-16",
				Task:      "Visual stimulus",
				Channels:  512,
				Duration:  "52 min",
				Status:    models.SessionPending,
				Metadata:  map[string]string{"implant": "N2", "operator": "Dr. Alvarez"},
				CreatedAt: "2024-06-16T13:45:00Z",
			},
		},
		Features: []models.FeatureRecord{
			{
				ID:         "feat_001",
				SessionID:  "sess_001",
				FeatureSet: models.FeatureSetBandPower,
				WindowMs:   250,
				Metrics:    map[string]float64{"beta": 0.74, "gamma": 0.62, "theta": 0.55},
				CreatedAt:  "2024-06-14T09:30:00Z",
			},
			{
				ID:         "feat_002",
				SessionID:  "sess_002",
				FeatureSet: models.FeatureSetSpikeRate,
				WindowMs:   200,
				Metrics:    map[string]float64{"mean": 18.4, "variance": 4.9, "peak": 34.1},
				CreatedAt:  "2024-06-15T11:20:00Z",
			},
		},
		TrainingJobs: []models.TrainingJob{
			{
				ID:         "train_001",
				Name:       "Motor imagery baseline",
				ModelType:  "transformer",
				Status:     models.TrainingRunning,
				Epochs:     12,
				SessionIDs: []string{"sess_001", "sess_002"},
				FeatureSet: models.FeatureSetBandPower,
				CreatedAt:  "2024-06-17T08:12:00Z",
				UpdatedAt:  "2024-06-17T08:45:00Z",
			},
		},
		Experiments: []models.ExperimentRecord{
			{
				ID:        "exp_001",
				Name:      "Closed-loop stimulation pilot",
				Owner:     "Dr. Kaur",
				Sessions:  []string{"sess_001", "sess_003"},
				Metrics:   map[string]float64{"accuracy": 0.82, "latencyMs": 120},
				Notes:     "Evaluating motor cortex response under adaptive stimulation.",
				CreatedAt: "2024-06-18T10:05:00Z",
			},
			{
				ID:        "exp_002",
				Name:      "Speech intent decoding",
				Owner:     "Dr. Chen",
				Sessions:  []string{"sess_002"},
				Metrics:   map[string]float64{"wer": 0.21, "r2": 0.78},
				Notes:     "Decoder retrain with updated feature pipeline.",
				CreatedAt: "2024-06-19T15:30:00Z",
			},
		},
		Registry: []models.RegistryRecord{
			{
				ID:        "reg_001",
				SessionID: "sess_001",
				Subject:   "Subject A",
				Device:    "Neuralink N1",
				Notes:     "Post-op day 12. Stable impedance readings.",
				CreatedAt: "2024-06-14T09:10:00Z",
			},
			{
				ID:        "reg_002",
				SessionID: "sess_002",
				Subject:   "Subject B",
				Device:    "Neuralink N1",
				Notes:     "Speech decoding session with adaptive filter.",
				CreatedAt: "2024-06-15T10:55:00Z",
			},
		},
	}
}

// Empty returns a seed with no records.
func Empty() models.Seed {
	return models.Seed{}
}

var featureMetrics = map[string]map[string]float64{
	models.FeatureSetSpikeRate:   {"mean": 19.1, "variance": 5.4, "peak": 32.6},
	models.FeatureSetBandPower:   {"beta": 0.68, "gamma": 0.71, "theta": 0.52},
	models.FeatureSetLFPSpectrum: {"alpha": 0.41, "beta": 0.63, "gamma": 0.59},
	models.FeatureSetCustom:      {"customA": 0.58, "customB": 0.44, "customC": 0.77},
}

// FeatureMetrics returns the canned metrics for a feature set. Unknown sets
// get the custom metrics. The returned map is a copy.
func FeatureMetrics(featureSet string) map[string]float64 {
	m, ok := featureMetrics[featureSet]
	if !ok {
		m = featureMetrics[models.FeatureSetCustom]
	}
	return maps.Clone(m)
}
