// Package features computes windowed signal features over multichannel
// neural data: per-window amplitude statistics and spectral band power.
//
// Data is laid out as samples × channels: data[i][c] is sample i of
// channel c. Window starts and ends are sample indices.
package features

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"slices"
	"sort"

	"github.com/nvandessel/neurodash/internal/models"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrShape is returned for ragged or channel-less data.
	ErrShape = errors.New("expected data with shape (samples, channels)")

	// ErrWindow is returned for non-positive window or step sizes.
	ErrWindow = errors.New("window size and step size must be positive")

	// ErrTooShort is returned when the data cannot fill a single window.
	ErrTooShort = errors.New("not enough samples for a single window")
)

// Band is a named frequency range in Hz, inclusive at both ends.
type Band struct {
	Name string
	Low  float64
	High float64
}

// Bands are the spectral bands reported for every window.
var Bands = []Band{
	{"theta", 4, 8},
	{"alpha", 8, 12},
	{"beta", 12, 30},
	{"gamma", 30, 80},
}

// statNames are the amplitude statistics in column order.
var statNames = []string{"mean", "std", "rms", "peak_to_peak"}

// Config selects the window geometry and the rate used for band frequencies.
type Config struct {
	WindowSize   int
	StepSize     int
	SamplingRate float64
}

// Windowed is the feature table of one recording. Rows[i] holds the
// features of window i keyed by Columns.
type Windowed struct {
	Columns      []string             `json:"columns"`
	Rows         []map[string]float64 `json:"rows"`
	WindowStarts []int                `json:"windowStarts"`
	WindowEnds   []int                `json:"windowEnds"`
}

// Summary describes a feature table.
type Summary struct {
	NumWindows     int `json:"num_windows"`
	NumFeatures    int `json:"num_features"`
	WindowStartMin int `json:"window_start_min"`
	WindowEndMax   int `json:"window_end_max"`
}

// Window slices data into windows of windowSize samples, one every
// stepSize samples. A trailing partial window is dropped.
func Window(data [][]float64, windowSize, stepSize int) ([][][]float64, error) {
	channels, err := shape(data)
	if err != nil {
		return nil, err
	}
	if windowSize <= 0 || stepSize <= 0 {
		return nil, ErrWindow
	}
	if len(data) < windowSize {
		return nil, fmt.Errorf("%w: %d samples, window %d", ErrTooShort, len(data), windowSize)
	}

	var windows [][][]float64
	for start := 0; start+windowSize <= len(data); start += stepSize {
		w := make([][]float64, windowSize)
		for i := range w {
			w[i] = make([]float64, channels)
			copy(w[i], data[start+i])
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// Extract computes the feature table of data under cfg.
func Extract(data [][]float64, cfg Config) (*Windowed, error) {
	windows, err := Window(data, cfg.WindowSize, cfg.StepSize)
	if err != nil {
		return nil, err
	}
	channels := len(data[0])
	fft := fourier.NewFFT(cfg.WindowSize)

	out := &Windowed{
		Columns:      columns(channels),
		Rows:         make([]map[string]float64, 0, len(windows)),
		WindowStarts: make([]int, 0, len(windows)),
		WindowEnds:   make([]int, 0, len(windows)),
	}
	for i, w := range windows {
		out.Rows = append(out.Rows, windowFeatures(fft, w, cfg.SamplingRate))
		start := i * cfg.StepSize
		out.WindowStarts = append(out.WindowStarts, start)
		out.WindowEnds = append(out.WindowEnds, start+cfg.WindowSize)
	}
	return out, nil
}

// ExtractWindow computes the features of a single window, keyed by feature
// name with one value per channel.
func ExtractWindow(window [][]float64, samplingRate float64) (map[string][]float64, error) {
	channels, err := shape(window)
	if err != nil {
		return nil, err
	}
	fft := fourier.NewFFT(len(window))
	out := make(map[string][]float64)
	for c := 0; c < channels; c++ {
		for name, v := range channelFeatures(fft, column(window, c), samplingRate) {
			out[name] = append(out[name], v)
		}
	}
	return out, nil
}

// Summarize returns the window and column counts of w and its sample span.
func Summarize(w *Windowed) Summary {
	s := Summary{NumWindows: len(w.Rows), NumFeatures: len(w.Columns)}
	if len(w.WindowStarts) > 0 {
		s.WindowStartMin = slices.Min(w.WindowStarts)
		s.WindowEndMax = slices.Max(w.WindowEnds)
	}
	return s
}

// FromRecordings stacks the timeseries of one session's recordings into a
// samples × channels matrix ordered by channel id. Recordings are cut to
// the shortest timeseries.
func FromRecordings(recordings []models.Recording) ([][]float64, []int) {
	if len(recordings) == 0 {
		return nil, nil
	}
	recs := make([]models.Recording, len(recordings))
	copy(recs, recordings)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].ChannelID < recs[j].ChannelID })

	n := len(recs[0].Timeseries)
	channelIDs := make([]int, len(recs))
	for i, r := range recs {
		n = min(n, len(r.Timeseries))
		channelIDs[i] = r.ChannelID
	}
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, len(recs))
		for c, r := range recs {
			data[i][c] = r.Timeseries[i]
		}
	}
	return data, channelIDs
}

func windowFeatures(fft *fourier.FFT, window [][]float64, samplingRate float64) map[string]float64 {
	row := make(map[string]float64)
	for c := range window[0] {
		for name, v := range channelFeatures(fft, column(window, c), samplingRate) {
			row[fmt.Sprintf("%s_%d", name, c)] = v
		}
	}
	return row
}

func channelFeatures(fft *fourier.FFT, x []float64, samplingRate float64) map[string]float64 {
	mean, std := stat.PopMeanStdDev(x, nil)
	f := map[string]float64{
		"mean":         mean,
		"std":          std,
		"rms":          math.Sqrt(floats.Dot(x, x) / float64(len(x))),
		"peak_to_peak": floats.Max(x) - floats.Min(x),
	}
	for name, v := range bandPower(fft, x, samplingRate) {
		f["bandpower_"+name] = v
	}
	return f
}

// bandPower averages the power spectrum over the bins inside each band.
// A band with no bins has power 0.
func bandPower(fft *fourier.FFT, x []float64, samplingRate float64) map[string]float64 {
	coeffs := fft.Coefficients(nil, x)
	out := make(map[string]float64, len(Bands))
	for _, b := range Bands {
		var sum float64
		var n int
		for i, c := range coeffs {
			freq := fft.Freq(i) * samplingRate
			if freq >= b.Low && freq <= b.High {
				p := cmplx.Abs(c)
				sum += p * p
				n++
			}
		}
		if n > 0 {
			out[b.Name] = sum / float64(n)
		} else {
			out[b.Name] = 0
		}
	}
	return out
}

func columns(channels int) []string {
	names := make([]string, 0, len(statNames)+len(Bands))
	names = append(names, statNames...)
	for _, b := range Bands {
		names = append(names, "bandpower_"+b.Name)
	}
	cols := make([]string, 0, len(names)*channels)
	for _, name := range names {
		for c := 0; c < channels; c++ {
			cols = append(cols, fmt.Sprintf("%s_%d", name, c))
		}
	}
	return cols
}

func shape(data [][]float64) (int, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return 0, ErrShape
	}
	channels := len(data[0])
	for i, row := range data {
		if len(row) != channels {
			return 0, fmt.Errorf("%w: row %d has %d channels, want %d", ErrShape, i, len(row), channels)
		}
	}
	return channels, nil
}

func column(window [][]float64, c int) []float64 {
	x := make([]float64, len(window))
	for i, row := range window {
		x[i] = row[c]
	}
	return x
}
