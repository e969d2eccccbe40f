// Package constants provides named constants used throughout neurodash.
// This centralizes the generator's fixed counts and value ranges.
package constants

// Generation counts. These are the defaults for config.GeneratorConfig.
const (
	// DefaultSessionsPerSubject is the number of sessions recorded per subject.
	DefaultSessionsPerSubject = 4

	// DefaultChannelsPerSession is the electrode channel count of every session.
	DefaultChannelsPerSession = 256

	// DefaultEventsPerSession is the number of behavioural events per session.
	DefaultEventsPerSession = 15

	// DefaultMetricsPerChannel caps the quality metric rows emitted per recording.
	DefaultMetricsPerChannel = 4

	// DefaultFeaturesPerSession is the number of feature rows per session.
	DefaultFeaturesPerSession = 5

	// DefaultTrainingRuns is the number of training runs generated per dataset.
	DefaultTrainingRuns = 3

	// DefaultOutputDir is where fixture files are written, relative to the working directory.
	DefaultOutputDir = "public/mock-data"
)

// Signal synthesis parameters.
const (
	// SamplingRateHz is the acquisition rate of every session.
	SamplingRateHz = 30000

	// FiringRateHz is the expected spike rate of a simulated channel.
	FiringRateHz = 20.0

	// MaxTimeseriesWindowMs bounds the synthesized signal duration per channel.
	MaxTimeseriesWindowMs = 10000

	// TimeseriesPreviewLen is the number of samples kept on a Recording.
	TimeseriesPreviewLen = 100

	// SpikePreviewLen is the number of spike timestamps kept on a Recording.
	SpikePreviewLen = 50

	// AlphaFrequencyHz and BetaFrequencyHz are the two carrier sinusoids.
	AlphaFrequencyHz = 10.0
	BetaFrequencyHz  = 20.0

	// AlphaAmplitude and BetaAmplitude scale the carriers.
	AlphaAmplitude = 10.0
	BetaAmplitude  = 5.0
)

// Session shape.
const (
	// MinSessionMinutes is the inclusive lower bound of a session's duration.
	MinSessionMinutes = 20

	// SessionMinutesSpan is the width of the duration range: [20, 50).
	SessionMinutesSpan = 30

	// SessionDateWindowDays is how far back session dates may fall.
	SessionDateWindowDays = 30

	// ImplantDateWindowDays is how far back registry implant dates may fall.
	ImplantDateWindowDays = 365

	// MsPerMinute converts session minutes to the internal millisecond unit.
	MsPerMinute = 60 * 1000
)

// Event shape, in milliseconds.
const (
	MinEventDurationMs  = 100.0
	EventDurationSpanMs = 500.0
	MaxEventAmplitude   = 100.0
)

// FeatureWindowMs is the length of a feature's analysis window.
const FeatureWindowMs = 5000.0

// Windowed feature extraction, in samples.
const (
	// PreviewWindowSamples and PreviewStepSamples fit the 100-sample
	// timeseries kept on generated recordings.
	PreviewWindowSamples = 32
	PreviewStepSamples   = 16

	// IngestWindowSamples and IngestStepSamples are the defaults for
	// ingested recordings.
	IngestWindowSamples = 256
	IngestStepSamples   = 128
)

// Training run ranges.
const (
	MinTrainingAccuracy  = 0.7
	TrainingAccuracySpan = 0.3
	MaxTrainingLoss      = 0.5
	MinTrainingEpochs    = 10
	TrainingEpochsSpan   = 50
	MaxRunSessions       = 3
)

// Probability thresholds for biased categorical draws.
const (
	// GoodQualityThreshold: draws at or above are "good".
	GoodQualityThreshold = 0.3

	// PoorQualityThreshold: draws below are "poor"; between the two is "fair".
	PoorQualityThreshold = 0.05

	// ActiveRegistryThreshold: draws above are "active", otherwise "archived".
	ActiveRegistryThreshold = 0.2
)

// Categorical vocabularies.
var (
	Subjects    = []string{"Subject_A", "Subject_B", "Subject_C"}
	Tasks       = []string{"motor_imagery", "speech_decoding", "visual_processing", "rest"}
	Devices     = []string{"N1_Array", "N2_Array", "Utah_Array"}
	Operators   = []string{"Dr. Kaur", "Dr. Chen", "Dr. Patel", "Dr. Williams"}
	EventTypes  = []string{"stimulus_onset", "response", "artifact", "movement", "blink"}
	ModelTypes  = []string{"transformer", "rnn", "svm", "ensemble"}
	RunStatuses = []string{"completed", "running", "failed"}

	// FeatureTypes is ordered; feature rows take labels by index.
	FeatureTypes = []string{"bandpower", "spike_statistics", "oscillations", "connectivity", "temporal_dynamics"}
)
