package ingest

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/nvandessel/neurodash/internal/features"
	"github.com/nvandessel/neurodash/internal/models"
)

// writeColumns writes float64 columns named by names into a Parquet file.
func writeColumns(t *testing.T, path string, names []string, columns [][]float64) {
	t.Helper()
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64}
	}
	schema := arrow.NewSchema(fields, nil)
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	for i, values := range columns {
		b.Field(i).(*array.Float64Builder).AppendValues(values, nil)
	}
	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()
	if err := pqarrow.WriteTable(tbl, f, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}
}

func testRecording(samples, channels int, rate float64) *Recording {
	data := make([][]float64, samples)
	for i := range data {
		data[i] = make([]float64, channels)
		for c := range data[i] {
			data[i][c] = math.Sin(float64(i+c) / 7)
		}
	}
	ids := make([]string, channels)
	for c := range ids {
		ids[c] = string(rune('a' + c))
	}
	return &Recording{Data: data, SamplingRate: rate, ChannelIDs: ids}
}

func TestParquet_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.parquet")
	want := testRecording(300, 3, 250)
	if err := WriteParquetFile(path, want); err != nil {
		t.Fatalf("WriteParquetFile() error = %v", err)
	}

	got, err := ReadParquet(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadParquet() error = %v", err)
	}
	s := got.Summary()
	if s.NumSamples != 300 || s.NumChannels != 3 {
		t.Errorf("shape = (%d, %d), want (300, 3)", s.NumSamples, s.NumChannels)
	}
	if math.Abs(s.SamplingRate-250) > 1e-6 {
		t.Errorf("SamplingRate = %v, want 250", s.SamplingRate)
	}
	if len(s.ChannelIDs) != 3 || s.ChannelIDs[0] != "a" || s.ChannelIDs[2] != "c" {
		t.Errorf("ChannelIDs = %v, want [a b c]", s.ChannelIDs)
	}
	if got.Data[17][1] != want.Data[17][1] {
		t.Errorf("Data[17][1] = %v, want %v", got.Data[17][1], want.Data[17][1])
	}
	if got.Metadata["source"] != FormatParquet {
		t.Errorf("Metadata source = %v, want %s", got.Metadata["source"], FormatParquet)
	}
}

func TestReadParquet_Errors(t *testing.T) {
	dir := t.TempDir()

	noTimestamp := filepath.Join(dir, "no-ts.parquet")
	writeColumns(t, noTimestamp, []string{"ch0"}, [][]float64{{1, 2, 3}})

	onlyTimestamp := filepath.Join(dir, "only-ts.parquet")
	writeColumns(t, onlyTimestamp, []string{TimestampColumn}, [][]float64{{0, 0.001}})

	empty := filepath.Join(dir, "empty.parquet")
	writeColumns(t, empty, []string{TimestampColumn, "ch0"}, [][]float64{{}, {}})

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing timestamp", noTimestamp, ErrNoTimestamp},
		{"no channels", onlyTimestamp, ErrNoChannels},
		{"no rows", empty, ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadParquet(context.Background(), tt.path)
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadParquet() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := ReadParquet(context.Background(), filepath.Join(dir, "missing.parquet")); err == nil {
		t.Error("ReadParquet() on a missing file succeeded")
	}
}

func TestFile_RoutesByExtension(t *testing.T) {
	dir := t.TempDir()
	pq := filepath.Join(dir, "rec.PQ")
	if err := WriteParquetFile(pq, testRecording(10, 1, 100)); err != nil {
		t.Fatalf("WriteParquetFile() error = %v", err)
	}
	if _, err := File(context.Background(), pq); err != nil {
		t.Errorf("File(.PQ) error = %v", err)
	}

	for _, name := range []string{"rec.nwb", "rec.csv", "rec"} {
		if _, err := File(context.Background(), filepath.Join(dir, name)); !errors.Is(err, ErrUnsupported) {
			t.Errorf("File(%s) error = %v, want ErrUnsupported", name, err)
		}
	}
}

func TestInferSamplingRate(t *testing.T) {
	tests := []struct {
		name       string
		timestamps []float64
		want       float64
	}{
		{"empty", nil, 0},
		{"single", []float64{1}, 0},
		{"uniform", []float64{0, 0.002, 0.004, 0.006}, 500},
		{"jitter uses median", []float64{0, 0.01, 0.02, 0.5, 0.51}, 100},
		{"even count averages middle", []float64{0, 0.1, 0.3}, 1 / 0.15},
		{"constant", []float64{3, 3, 3}, 0},
		{"decreasing", []float64{3, 2, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferSamplingRate(tt.timestamps); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("InferSamplingRate(%v) = %v, want %v", tt.timestamps, got, tt.want)
			}
		})
	}
}

func TestWriteParquet_Errors(t *testing.T) {
	tests := []struct {
		name string
		rec  *Recording
	}{
		{"no channels", &Recording{Data: [][]float64{{1}}, SamplingRate: 10}},
		{"ragged row", &Recording{Data: [][]float64{{1}, {1, 2}}, SamplingRate: 10, ChannelIDs: []string{"a"}}},
		{"no rate or timestamps", &Recording{Data: [][]float64{{1}}, ChannelIDs: []string{"a"}}},
		{"timestamp count", &Recording{Data: [][]float64{{1}}, Timestamps: []float64{0, 1}, ChannelIDs: []string{"a"}}},
		{"channel named timestamp", &Recording{Data: [][]float64{{1}}, SamplingRate: 10, ChannelIDs: []string{TimestampColumn}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.parquet")
			if err := WriteParquetFile(path, tt.rec); err == nil {
				t.Error("WriteParquetFile() succeeded, want error")
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Errorf("failed write left %s behind", path)
			}
		})
	}
}

func TestFromSession_FeedsFeatureExtraction(t *testing.T) {
	session := models.Session{ID: "s1", Subject: "Subject_A", Task: "reach", SamplingRate: 1000}
	var recs []models.Recording
	for ch := 1; ch >= 0; ch-- {
		ts := make([]float64, 100)
		for i := range ts {
			ts[i] = float64(ch*100 + i)
		}
		recs = append(recs, models.Recording{SessionID: "s1", ChannelID: ch, Timeseries: ts})
	}

	rec := FromSession(session, recs)
	if len(rec.ChannelIDs) != 2 || rec.ChannelIDs[0] != "ch0" || rec.ChannelIDs[1] != "ch1" {
		t.Fatalf("ChannelIDs = %v, want [ch0 ch1]", rec.ChannelIDs)
	}
	if rec.SamplingRate != 1000 || rec.Metadata["session"] != "s1" {
		t.Errorf("rate/metadata = %v/%v", rec.SamplingRate, rec.Metadata)
	}

	path := filepath.Join(t.TempDir(), "s1.parquet")
	if err := WriteParquetFile(path, rec); err != nil {
		t.Fatalf("WriteParquetFile() error = %v", err)
	}
	back, err := ReadParquet(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadParquet() error = %v", err)
	}
	if math.Abs(back.SamplingRate-1000) > 1e-6 {
		t.Errorf("inferred rate = %v, want 1000", back.SamplingRate)
	}

	table, err := features.Extract(back.Data, features.Config{WindowSize: 32, StepSize: 16, SamplingRate: back.SamplingRate})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := features.Summarize(table); got.NumWindows != 5 || got.NumFeatures != 16 {
		t.Errorf("Summarize() = %+v, want 5 windows, 16 features", got)
	}
	if mean := table.Rows[0]["mean_1"]; mean != 115.5 {
		t.Errorf("window 0 mean_1 = %v, want 115.5", mean)
	}
}
