package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/nvandessel/neurodash/internal/config"
	"github.com/nvandessel/neurodash/internal/constants"
	"github.com/nvandessel/neurodash/internal/fixtures"
	"github.com/nvandessel/neurodash/internal/generator"
	"github.com/nvandessel/neurodash/internal/logging"
	"github.com/nvandessel/neurodash/internal/store"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the mock dataset fixture files",
		Long: `Generate a synthetic neuroscience dataset and write it as seven JSON
fixture files (sessions, recordings, events, quality metrics, features,
training runs and registry entries). Existing files are overwritten.

Flags override the generator section of the config file.

Examples:
  neurodash generate                          # Stock dataset into public/mock-data
  neurodash generate --seed 42                # Reproducible dataset
  neurodash generate --channels 32 -o /tmp/d  # Smaller dataset elsewhere`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyGenerateFlags(cmd, &cfg.Generator); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid generator settings: %w", err)
			}

			seed := cfg.Generator.Seed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			var runLog *logging.RunLogger
			if home, err := store.HomePath(); err == nil {
				runLog = logging.NewRunLogger(home, cfg.Logging.Level)
			}
			defer runLog.Close()

			start := time.Now()
			gen := generator.New(generatorOptions(cfg.Generator), rand.New(rand.NewSource(seed)), generator.WithLogger(logger))
			result, err := generateAndWrite(cmd, gen, cfg.Generator.OutputDir)

			rec := logging.RunRecord{
				Seed:       seed,
				OutputDir:  cfg.Generator.OutputDir,
				DurationMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				rec.Status = "error"
				rec.Error = err.Error()
				runLog.Log(rec)
				return err
			}
			rec.Counts = result.Counts
			runLog.Log(rec)
			logger.Debug("generation complete", "seed", seed, "dir", result.Dir, "duration_ms", rec.DurationMs)

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"dir":    result.Dir,
					"files":  result.Files,
					"counts": result.Counts,
					"seed":   seed,
				})
			}

			c := result.Counts
			fmt.Fprintf(out, "Generated %d sessions, %d recordings, %d events, %d quality metrics, %d features, %d training runs, %d registry entries\n",
				c.Sessions, c.Recordings, c.Events, c.QualityMetrics, c.Features, c.TrainingRuns, c.RegistryEntries)
			fmt.Fprintf(out, "  Dir:  %s\n", result.Dir)
			fmt.Fprintf(out, "  Seed: %d\n", seed)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output directory (default: "+constants.DefaultOutputDir+")")
	cmd.Flags().Int64("seed", 0, "Random seed (0 seeds from the clock)")
	cmd.Flags().StringSlice("subjects", nil, "Subject names")
	cmd.Flags().Int("sessions", 0, "Sessions per subject")
	cmd.Flags().Int("channels", 0, "Channels per session")
	cmd.Flags().Int("events", 0, "Events per session")
	cmd.Flags().Int("runs", 0, "Training runs")

	return cmd
}

func generateAndWrite(cmd *cobra.Command, gen *generator.Generator, dir string) (*fixtures.WriteResult, error) {
	data, err := gen.Generate(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	return fixtures.Write(cmd.Context(), dir, data)
}

// applyGenerateFlags copies explicitly set flags over the config values.
func applyGenerateFlags(cmd *cobra.Command, g *config.GeneratorConfig) error {
	flags := cmd.Flags()
	if flags.Changed("output") {
		g.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("seed") {
		g.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("subjects") {
		g.Subjects, _ = flags.GetStringSlice("subjects")
	}
	ints := map[string]*int{
		"sessions": &g.SessionsPerSubject,
		"channels": &g.ChannelsPerSession,
		"events":   &g.EventsPerSession,
		"runs":     &g.TrainingRuns,
	}
	for name, dst := range ints {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", name, err)
		}
		*dst = v
	}
	return nil
}

func generatorOptions(g config.GeneratorConfig) generator.Options {
	opts := generator.DefaultOptions()
	opts.Subjects = g.Subjects
	opts.SessionsPerSubject = g.SessionsPerSubject
	opts.ChannelsPerSession = g.ChannelsPerSession
	opts.EventsPerSession = g.EventsPerSession
	opts.MetricsPerChannel = g.MetricsPerChannel
	opts.FeaturesPerSession = g.FeaturesPerSession
	opts.TrainingRuns = g.TrainingRuns
	return opts
}
