package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/neurodash/internal/models"
	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [session-id]",
		Short: "List sessions or show one session's metrics",
		Long: `List the sessions of a generated dataset, optionally filtered by subject,
task or date range. With a session id, show that session's recording and
event counts and its mean quality metrics.

Examples:
  neurodash sessions --subject Subject_A
  neurodash sessions --from 2024-01-01 --to 2024-01-31
  neurodash sessions 5b0c...   # drill into one session`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			subject, _ := cmd.Flags().GetString("subject")
			task, _ := cmd.Flags().GetString("task")
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")

			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(fixturesDir(cmd, cfg))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				metrics, ok := catalog.SessionMetrics(args[0])
				if !ok {
					return fmt.Errorf("session not found: %s", args[0])
				}
				if jsonOut {
					return json.NewEncoder(out).Encode(metrics)
				}
				s := metrics.Session
				fmt.Fprintf(out, "Session %s\n", s.ID)
				fmt.Fprintf(out, "  Subject:     %s\n", s.Subject)
				fmt.Fprintf(out, "  Date:        %s\n", s.Date)
				fmt.Fprintf(out, "  Task:        %s\n", s.Task)
				fmt.Fprintf(out, "  Duration:    %d min\n", s.Duration)
				fmt.Fprintf(out, "  Quality:     %s\n", s.Metadata.Quality)
				fmt.Fprintf(out, "  Recordings:  %d\n", metrics.RecordingCount)
				fmt.Fprintf(out, "  Events:      %d\n", metrics.EventCount)
				fmt.Fprintf(out, "  Avg SNR:     %.2f\n", metrics.AvgSNR)
				fmt.Fprintf(out, "  Avg noise:   %.2f\n", metrics.AvgNoise)
				fmt.Fprintf(out, "  Avg drift:   %.3f\n", metrics.AvgDrift)
				fmt.Fprintf(out, "  Avg spike:   %.1f\n", metrics.AvgSpikeAmplitude)
				return nil
			}

			var sessions []models.Session
			if from != "" || to != "" {
				if to == "" {
					to = "9999-12-31"
				}
				sessions = catalog.SessionsByDateRange(from, to)
			} else {
				sessions = catalog.Sessions()
			}
			sessions = filterSessions(sessions, subject, task)

			if jsonOut {
				if sessions == nil {
					sessions = []models.Session{}
				}
				return json.NewEncoder(out).Encode(map[string]any{
					"sessions": sessions,
					"count":    len(sessions),
				})
			}

			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintf(out, "%s  %s  %-12s %-22s %3d min  %s\n", s.ID, s.Date, s.Subject, s.Task, s.Duration, s.Metadata.Quality)
			}
			fmt.Fprintf(out, "\n%d sessions\n", len(sessions))
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Fixture directory (default: generator.output_dir)")
	cmd.Flags().String("subject", "", "Only sessions of this subject")
	cmd.Flags().String("task", "", "Only sessions of this task")
	cmd.Flags().String("from", "", "Earliest date, YYYY-MM-DD inclusive")
	cmd.Flags().String("to", "", "Latest date, YYYY-MM-DD inclusive")
	return cmd
}

func filterSessions(sessions []models.Session, subject, task string) []models.Session {
	if subject == "" && task == "" {
		return sessions
	}
	var out []models.Session
	for _, s := range sessions {
		if subject != "" && s.Subject != subject {
			continue
		}
		if task != "" && s.Task != task {
			continue
		}
		out = append(out, s)
	}
	return out
}
