package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nvandessel/neurodash/internal/constants"
	"github.com/nvandessel/neurodash/internal/features"
	"github.com/nvandessel/neurodash/internal/ingest"
	"github.com/nvandessel/neurodash/internal/pathutil"
	"github.com/spf13/cobra"
)

// featureReport is the JSON output of features and ingest --features.
type featureReport struct {
	Summary      features.Summary     `json:"summary"`
	Columns      []string             `json:"columns"`
	Rows         []map[string]float64 `json:"rows"`
	WindowStarts []int                `json:"windowStarts"`
	WindowEnds   []int                `json:"windowEnds"`
}

func newFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features <session-id>",
		Short: "Compute windowed features over a session's recordings",
		Long: `Stack the per-channel timeseries of a generated session and compute
per-window mean, std, rms, peak-to-peak and theta/alpha/beta/gamma band
power for every channel.

Examples:
  neurodash features 5b0c...
  neurodash features 5b0c... --window 64 --step 32 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			window, _ := cmd.Flags().GetInt("window")
			step, _ := cmd.Flags().GetInt("step")

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(fixturesDir(cmd, cfg))
			if err != nil {
				return err
			}
			session, ok := catalog.SessionByID(args[0])
			if !ok {
				return fmt.Errorf("session not found: %s", args[0])
			}

			rec := ingest.FromSession(session, catalog.RecordingsBySession(session.ID))
			logger.Debug("extracting features", "session", session.ID, "samples", len(rec.Data), "channels", len(rec.ChannelIDs))
			table, err := features.Extract(rec.Data, features.Config{
				WindowSize:   window,
				StepSize:     step,
				SamplingRate: rec.SamplingRate,
			})
			if err != nil {
				return fmt.Errorf("feature extraction failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"sessionId":    session.ID,
					"channelIds":   rec.ChannelIDs,
					"samplingRate": rec.SamplingRate,
					"features":     newFeatureReport(table),
				})
			}
			fmt.Fprintf(out, "Session %s (%d channels, %.0f Hz)\n", session.ID, len(rec.ChannelIDs), rec.SamplingRate)
			printFeatureSummary(out, table)
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Fixture directory (default: generator.output_dir)")
	cmd.Flags().Int("window", constants.PreviewWindowSamples, "Window size in samples")
	cmd.Flags().Int("step", constants.PreviewStepSamples, "Step between window starts in samples")
	return cmd
}

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Summarize a recorded timeseries file",
		Long: `Load a Parquet recording (a "timestamp" column in seconds plus one
numeric column per channel) and report its sample count, channels and the
sampling rate inferred from the median timestamp step.

Examples:
  neurodash ingest recording.parquet
  neurodash ingest recording.parquet --features --window 256 --step 128`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			withFeatures, _ := cmd.Flags().GetBool("features")
			window, _ := cmd.Flags().GetInt("window")
			step, _ := cmd.Flags().GetInt("step")

			_, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rec, err := ingest.File(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}
			summary := rec.Summary()
			logger.Debug("ingested recording", "path", args[0], "samples", summary.NumSamples, "channels", summary.NumChannels)

			var table *features.Windowed
			if withFeatures {
				table, err = features.Extract(rec.Data, features.Config{
					WindowSize:   window,
					StepSize:     step,
					SamplingRate: rec.SamplingRate,
				})
				if err != nil {
					return fmt.Errorf("feature extraction failed: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				result := map[string]any{"recording": summary}
				if table != nil {
					result["features"] = newFeatureReport(table)
				}
				return json.NewEncoder(out).Encode(result)
			}
			fmt.Fprintf(out, "%s\n", args[0])
			fmt.Fprintf(out, "  Samples:        %d\n", summary.NumSamples)
			fmt.Fprintf(out, "  Channels:       %d\n", summary.NumChannels)
			fmt.Fprintf(out, "  Sampling rate:  %.2f Hz\n", summary.SamplingRate)
			if table != nil {
				printFeatureSummary(out, table)
			}
			return nil
		},
	}

	cmd.Flags().Bool("features", false, "Also compute windowed features")
	cmd.Flags().Int("window", constants.IngestWindowSamples, "Window size in samples")
	cmd.Flags().Int("step", constants.IngestStepSamples, "Step between window starts in samples")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Write a session's recordings to a Parquet file",
		Long: `Write the per-channel timeseries of a generated session as a Parquet
file that 'neurodash ingest' and other tools can read.

Examples:
  neurodash export 5b0c... -o session.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			output, _ := cmd.Flags().GetString("output")

			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(fixturesDir(cmd, cfg))
			if err != nil {
				return err
			}
			session, ok := catalog.SessionByID(args[0])
			if !ok {
				return fmt.Errorf("session not found: %s", args[0])
			}
			if output == "" {
				output = session.ID + ".parquet"
			}
			allowed, err := allowedDirs()
			if err != nil {
				return err
			}
			if output, err = pathutil.Confine(output, allowed); err != nil {
				return fmt.Errorf("export path rejected: %w", err)
			}

			rec := ingest.FromSession(session, catalog.RecordingsBySession(session.ID))
			if err := ingest.WriteParquetFile(output, rec); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"path":      output,
					"sessionId": session.ID,
					"samples":   len(rec.Data),
					"channels":  len(rec.ChannelIDs),
				})
			}
			fmt.Fprintf(out, "Exported %d samples × %d channels to %s\n", len(rec.Data), len(rec.ChannelIDs), output)
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Fixture directory (default: generator.output_dir)")
	cmd.Flags().StringP("output", "o", "", "Output file (default: <session-id>.parquet)")
	return cmd
}

func newFeatureReport(w *features.Windowed) featureReport {
	return featureReport{
		Summary:      features.Summarize(w),
		Columns:      w.Columns,
		Rows:         w.Rows,
		WindowStarts: w.WindowStarts,
		WindowEnds:   w.WindowEnds,
	}
}

func printFeatureSummary(out io.Writer, w *features.Windowed) {
	s := features.Summarize(w)
	fmt.Fprintf(out, "  Windows:        %d\n", s.NumWindows)
	fmt.Fprintf(out, "  Features:       %d\n", s.NumFeatures)
	fmt.Fprintf(out, "  Sample span:    [%d, %d)\n", s.WindowStartMin, s.WindowEndMax)
}
