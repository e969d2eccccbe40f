package models

// Quality metric types, in the order they are emitted per recording.
const (
	MetricSNR            = "snr"
	MetricNoiseFloor     = "noiseFloor"
	MetricDrift          = "drift"
	MetricSpikeAmplitude = "spikeAmplitude"
)

// MetricTypes lists the quality metric types in emission order.
var MetricTypes = []string{MetricSNR, MetricNoiseFloor, MetricDrift, MetricSpikeAmplitude}

// Range is a half-open numeric interval [Min, Max).
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max).
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v < r.Max
}

// Span returns Max - Min.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// MetricRanges maps each quality metric type to its generation range.
var MetricRanges = map[string]Range{
	MetricSNR:            {Min: 2, Max: 12},
	MetricNoiseFloor:     {Min: 10, Max: 60},
	MetricDrift:          {Min: 0, Max: 100},
	MetricSpikeAmplitude: {Min: 50, Max: 250},
}

// Feature value keys, in a stable order.
const (
	FeatureBandpowerAlpha = "bandpower_alpha"
	FeatureBandpowerBeta  = "bandpower_beta"
	FeatureBandpowerGamma = "bandpower_gamma"
	FeatureSpikeRate      = "spike_rate"
	FeatureRMSAmplitude   = "rms_amplitude"
	FeatureBurstIndex     = "burst_index"
)

// FeatureKeys lists the feature value keys in a stable order.
var FeatureKeys = []string{
	FeatureBandpowerAlpha,
	FeatureBandpowerBeta,
	FeatureBandpowerGamma,
	FeatureSpikeRate,
	FeatureRMSAmplitude,
	FeatureBurstIndex,
}

// FeatureScales maps each feature key to its exclusive upper bound. All
// feature values are lower-bounded at 0.
var FeatureScales = map[string]float64{
	FeatureBandpowerAlpha: 0.5,
	FeatureBandpowerBeta:  0.4,
	FeatureBandpowerGamma: 0.3,
	FeatureSpikeRate:      50,
	FeatureRMSAmplitude:   100,
	FeatureBurstIndex:     0.8,
}
