package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nvandessel/neurodash/internal/dataset"
	"github.com/nvandessel/neurodash/internal/models"
	"github.com/spf13/cobra"
)

// statsReport is the JSON shape of `neurodash stats`.
type statsReport struct {
	Statistics     dataset.Statistics       `json:"statistics"`
	Tasks          []dataset.TaskSummary    `json:"tasks"`
	Subjects       []dataset.SubjectSummary `json:"subjects"`
	QualityAverage map[string]float64       `json:"qualityAverage"`
	BestRun        *models.TrainingRun      `json:"bestRun,omitempty"`
}

func buildStatsReport(c *dataset.Catalog) statsReport {
	report := statsReport{
		Statistics:     c.Statistics(),
		Tasks:          c.TaskAnalysis(),
		Subjects:       c.SubjectAnalysis(),
		QualityAverage: make(map[string]float64, len(models.MetricTypes)),
	}
	for _, mt := range models.MetricTypes {
		report.QualityAverage[mt] = c.AverageQualityMetric(mt)
	}
	if run, ok := c.BestTrainingRun(); ok {
		report.BestRun = &run
	}
	return report
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize a generated dataset",
		Long: `Print dataset totals, per-task and per-subject breakdowns, mean quality
metrics and the best completed training run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(fixturesDir(cmd, cfg))
			if err != nil {
				return err
			}
			report := buildStatsReport(catalog)

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(report)
			}

			s := report.Statistics
			fmt.Fprintln(out, "Dataset")
			fmt.Fprintf(out, "  Sessions:         %d\n", s.TotalSessions)
			fmt.Fprintf(out, "  Recordings:       %d\n", s.TotalRecordings)
			fmt.Fprintf(out, "  Events:           %d\n", s.TotalEvents)
			fmt.Fprintf(out, "  Quality metrics:  %d\n", s.TotalQualityMetrics)
			fmt.Fprintf(out, "  Features:         %d\n", s.TotalFeatures)
			fmt.Fprintf(out, "  Training runs:    %d\n", s.TotalTrainingRuns)
			fmt.Fprintf(out, "  Registry entries: %d\n", s.TotalRegistryEntries)
			fmt.Fprintf(out, "  Avg duration:     %.1f min\n", s.AvgSessionDuration)
			fmt.Fprintf(out, "  Avg channels:     %.1f\n", s.AvgChannels)
			fmt.Fprintf(out, "  Devices:          %s\n", valueOrDefault(strings.Join(s.Devices, ", "), "(none)"))

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Tasks")
			for _, t := range report.Tasks {
				fmt.Fprintf(out, "  %-22s %3d sessions  avg %.1f min\n", t.Task, t.Count, t.AvgDuration)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Subjects")
			for _, sub := range report.Subjects {
				fmt.Fprintf(out, "  %-12s %3d sessions  %s\n", sub.Subject, sub.Count, strings.Join(sub.Tasks, ", "))
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Quality (mean)")
			for _, mt := range models.MetricTypes {
				fmt.Fprintf(out, "  %-16s %.3f\n", mt, report.QualityAverage[mt])
			}

			fmt.Fprintln(out)
			if report.BestRun != nil {
				fmt.Fprintf(out, "Best run: %s (%s) accuracy %.3f\n", report.BestRun.Name, report.BestRun.ID, report.BestRun.Accuracy)
			} else {
				fmt.Fprintln(out, "Best run: (no completed runs)")
			}
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Fixture directory (default: generator.output_dir)")
	return cmd
}
