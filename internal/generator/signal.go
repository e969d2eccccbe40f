package generator

import (
	"math"
	"math/rand"

	"github.com/nvandessel/neurodash/internal/constants"
	"github.com/nvandessel/neurodash/internal/models"
)

// GenerateNeuralTimeseries synthesizes floor(durationMs*samplingRate/1000)
// samples of two fixed-frequency sinusoids plus uniform noise in [-1, 1).
// Sample i is taken at t = i/samplingRate seconds.
// Returns an empty slice when either argument is not a positive finite number.
func GenerateNeuralTimeseries(rng *rand.Rand, durationMs, samplingRate float64) []float64 {
	return synthesizeSignal(rng, sampleCount(durationMs, samplingRate), samplingRate)
}

// GenerateSpikeTimes simulates a homogeneous Poisson spike train over
// durationSeconds at firingRateHz. The returned timestamps are milliseconds,
// strictly increasing, and all below durationSeconds*1000.
// Returns an empty slice when either argument is not a positive finite number.
func GenerateSpikeTimes(rng *rand.Rand, durationSeconds, firingRateHz float64) []float64 {
	return spikeTrain(rng, durationSeconds*1000, firingRateHz, -1)
}

// QualityMetrics is one draw of the four recording quality metrics.
type QualityMetrics struct {
	SNR            float64 `json:"snr"`
	NoiseFloor     float64 `json:"noiseFloor"`
	Drift          float64 `json:"drift"`
	SpikeAmplitude float64 `json:"spikeAmplitude"`
}

// Value returns the metric of the given type and whether the type is known.
func (q QualityMetrics) Value(metricType string) (float64, bool) {
	switch metricType {
	case models.MetricSNR:
		return q.SNR, true
	case models.MetricNoiseFloor:
		return q.NoiseFloor, true
	case models.MetricDrift:
		return q.Drift, true
	case models.MetricSpikeAmplitude:
		return q.SpikeAmplitude, true
	}
	return 0, false
}

// GenerateQualityMetrics draws each metric independently and uniformly
// from its range in models.MetricRanges.
func GenerateQualityMetrics(rng *rand.Rand) QualityMetrics {
	return QualityMetrics{
		SNR:            uniform(rng, models.MetricRanges[models.MetricSNR]),
		NoiseFloor:     uniform(rng, models.MetricRanges[models.MetricNoiseFloor]),
		Drift:          uniform(rng, models.MetricRanges[models.MetricDrift]),
		SpikeAmplitude: uniform(rng, models.MetricRanges[models.MetricSpikeAmplitude]),
	}
}

// GenerateFeatures draws the six feature values, each uniform in [0, scale).
func GenerateFeatures(rng *rand.Rand) map[string]float64 {
	values := make(map[string]float64, len(models.FeatureKeys))
	for _, key := range models.FeatureKeys {
		values[key] = rng.Float64() * models.FeatureScales[key]
	}
	return values
}

// sampleCount returns the number of samples in durationMs at samplingRate,
// or 0 for degenerate input.
func sampleCount(durationMs, samplingRate float64) int {
	if !positiveFinite(durationMs) || !positiveFinite(samplingRate) {
		return 0
	}
	return int(math.Floor(durationMs * samplingRate / 1000))
}

func synthesizeSignal(rng *rand.Rand, n int, samplingRate float64) []float64 {
	if n <= 0 {
		return []float64{}
	}
	data := make([]float64, n)
	for i := range data {
		t := float64(i) / samplingRate
		alpha := constants.AlphaAmplitude * math.Sin(2*math.Pi*constants.AlphaFrequencyHz*t)
		beta := constants.BetaAmplitude * math.Sin(2*math.Pi*constants.BetaFrequencyHz*t)
		noise := (rng.Float64() - 0.5) * 2
		data[i] = alpha + beta + noise
	}
	return data
}

// spikeTrain accumulates exponential inter-spike intervals until durationMs
// is reached or limit spikes have been produced. A negative limit means no cap.
func spikeTrain(rng *rand.Rand, durationMs, firingRateHz float64, limit int) []float64 {
	spikes := []float64{}
	if !positiveFinite(durationMs) || !positiveFinite(firingRateHz) || limit == 0 {
		return spikes
	}

	t := 0.0
	for {
		t += -math.Log(openUnit(rng)) / firingRateHz * 1000
		if t >= durationMs {
			return spikes
		}
		spikes = append(spikes, t)
		if limit > 0 && len(spikes) >= limit {
			return spikes
		}
	}
}

// openUnit returns a uniform draw in (0, 1). Zero draws are resampled so the
// logarithm stays finite.
func openUnit(rng *rand.Rand) float64 {
	for {
		u := rng.Float64()
		if u > 0 {
			return u
		}
	}
}

func uniform(rng *rand.Rand, r models.Range) float64 {
	return r.Min + rng.Float64()*r.Span()
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
