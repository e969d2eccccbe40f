// Package ingest loads recorded neural timeseries from Parquet files and
// writes generated recordings back out in the same layout.
//
// A recording file has a "timestamp" column in seconds and one numeric
// column per channel.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/nvandessel/neurodash/internal/features"
	"github.com/nvandessel/neurodash/internal/models"
)

// TimestampColumn names the time axis column.
const TimestampColumn = "timestamp"

// FormatParquet is the metadata source tag of Parquet recordings.
const FormatParquet = "parquet"

var (
	// ErrUnsupported is returned for file types that cannot be ingested.
	ErrUnsupported = errors.New("unsupported file type")

	// ErrEmpty is returned for a file with no rows.
	ErrEmpty = errors.New("parquet file is empty")

	// ErrNoTimestamp is returned when the timestamp column is missing.
	ErrNoTimestamp = errors.New("expected a 'timestamp' column in parquet file")

	// ErrNoChannels is returned when only the timestamp column is present.
	ErrNoChannels = errors.New("parquet file must include at least one channel column")
)

// Recording is a loaded multichannel timeseries. Data is samples × channels.
type Recording struct {
	Data         [][]float64
	SamplingRate float64
	ChannelIDs   []string
	Timestamps   []float64
	Metadata     map[string]any
}

// Summary describes a loaded recording.
type Summary struct {
	NumSamples   int            `json:"num_samples"`
	NumChannels  int            `json:"num_channels"`
	SamplingRate float64        `json:"sampling_rate"`
	ChannelIDs   []string       `json:"channel_ids"`
	Metadata     map[string]any `json:"metadata"`
}

// Summary returns the shape and rate of r.
func (r *Recording) Summary() Summary {
	return Summary{
		NumSamples:   len(r.Data),
		NumChannels:  len(r.ChannelIDs),
		SamplingRate: r.SamplingRate,
		ChannelIDs:   r.ChannelIDs,
		Metadata:     r.Metadata,
	}
}

// File routes path to a reader by extension.
func File(ctx context.Context, path string) (*Recording, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet", ".pq":
		return ReadParquet(ctx, path)
	case ".nwb":
		return nil, fmt.Errorf("%w: %s (NWB needs an HDF5 reader)", ErrUnsupported, ext)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// ReadParquet loads a recording from a Parquet file. The sampling rate is
// inferred from the median timestamp step.
func ReadParquet(ctx context.Context, path string) (*Recording, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer tbl.Release()

	return fromTable(tbl)
}

func fromTable(tbl arrow.Table) (*Recording, error) {
	if tbl.NumRows() == 0 {
		return nil, ErrEmpty
	}
	var (
		timestamps []float64
		channelIDs []string
		columns    [][]float64
	)
	for i := 0; i < int(tbl.NumCols()); i++ {
		col := tbl.Column(i)
		values, err := columnValues(col)
		if err != nil {
			return nil, err
		}
		if col.Name() == TimestampColumn {
			timestamps = values
			continue
		}
		channelIDs = append(channelIDs, col.Name())
		columns = append(columns, values)
	}
	if timestamps == nil {
		return nil, ErrNoTimestamp
	}
	if len(columns) == 0 {
		return nil, ErrNoChannels
	}

	data := make([][]float64, len(timestamps))
	for i := range data {
		data[i] = make([]float64, len(columns))
		for c, values := range columns {
			data[i][c] = values[i]
		}
	}
	return &Recording{
		Data:         data,
		SamplingRate: InferSamplingRate(timestamps),
		ChannelIDs:   channelIDs,
		Timestamps:   timestamps,
		Metadata: map[string]any{
			"source":   FormatParquet,
			"channels": channelIDs,
		},
	}, nil
}

// columnValues flattens a numeric column to float64. Nulls become NaN and
// timestamps are converted to seconds.
func columnValues(col *arrow.Column) ([]float64, error) {
	out := make([]float64, 0, col.Len())
	for _, chunk := range col.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				out = append(out, math.NaN())
				continue
			}
			switch a := chunk.(type) {
			case *array.Float64:
				out = append(out, a.Value(i))
			case *array.Float32:
				out = append(out, float64(a.Value(i)))
			case *array.Int64:
				out = append(out, float64(a.Value(i)))
			case *array.Int32:
				out = append(out, float64(a.Value(i)))
			case *array.Timestamp:
				unit := a.DataType().(*arrow.TimestampType).Unit
				out = append(out, float64(a.Value(i))*unit.Multiplier().Seconds())
			default:
				return nil, fmt.Errorf("column %q: unsupported type %s", col.Name(), col.DataType())
			}
		}
	}
	return out, nil
}

// InferSamplingRate returns 1 / median(Δt), or 0 when fewer than two
// timestamps exist or the median step is not positive.
func InferSamplingRate(timestamps []float64) float64 {
	if len(timestamps) < 2 {
		return 0
	}
	deltas := make([]float64, len(timestamps)-1)
	for i := range deltas {
		deltas[i] = timestamps[i+1] - timestamps[i]
	}
	slices.Sort(deltas)
	mid := len(deltas) / 2
	median := deltas[mid]
	if len(deltas)%2 == 0 {
		median = (deltas[mid-1] + deltas[mid]) / 2
	}
	if !(median > 0) {
		return 0
	}
	return 1 / median
}

// WriteParquet writes r as a timestamp column plus one float64 column per
// channel. Missing timestamps are derived from the sampling rate.
func WriteParquet(w io.Writer, r *Recording) error {
	if len(r.ChannelIDs) == 0 {
		return ErrNoChannels
	}
	for i, row := range r.Data {
		if len(row) != len(r.ChannelIDs) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), len(r.ChannelIDs))
		}
	}
	timestamps := r.Timestamps
	if timestamps == nil {
		if r.SamplingRate <= 0 {
			return fmt.Errorf("timestamps or a positive sampling rate are required")
		}
		timestamps = make([]float64, len(r.Data))
		for i := range timestamps {
			timestamps[i] = float64(i) / r.SamplingRate
		}
	}
	if len(timestamps) != len(r.Data) {
		return fmt.Errorf("%d timestamps for %d samples", len(timestamps), len(r.Data))
	}

	fields := []arrow.Field{{Name: TimestampColumn, Type: arrow.PrimitiveTypes.Float64}}
	for _, id := range r.ChannelIDs {
		if id == TimestampColumn {
			return fmt.Errorf("channel id %q collides with the timestamp column", id)
		}
		fields = append(fields, arrow.Field{Name: id, Type: arrow.PrimitiveTypes.Float64})
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	b.Field(0).(*array.Float64Builder).AppendValues(timestamps, nil)
	for c := range r.ChannelIDs {
		fb := b.Field(c + 1).(*array.Float64Builder)
		for _, row := range r.Data {
			fb.Append(row[c])
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	return pqarrow.WriteTable(tbl, w, int64(max(len(r.Data), 1)), parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
}

// WriteParquetFile writes r to path, replacing any existing file.
func WriteParquetFile(path string, r *Recording) error {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, r); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// FromSession builds a recording from a generated session's per-channel
// timeseries. Channels are named "ch<id>" in channel order.
func FromSession(s models.Session, recordings []models.Recording) *Recording {
	data, ids := features.FromRecordings(recordings)
	channelIDs := make([]string, len(ids))
	for i, id := range ids {
		channelIDs[i] = fmt.Sprintf("ch%d", id)
	}
	return &Recording{
		Data:         data,
		SamplingRate: float64(s.SamplingRate),
		ChannelIDs:   channelIDs,
		Metadata: map[string]any{
			"source":  "generated",
			"session": s.ID,
			"subject": s.Subject,
			"task":    s.Task,
		},
	}
}
