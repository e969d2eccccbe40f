package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/neurodash/internal/fixtures"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check fixture files for integrity and range problems",
		Long: `Load the seven fixture files and check that every foreign key resolves
and every numeric field is finite and inside its generation range.

Exits non-zero when problems are found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir := fixturesDir(cmd, cfg)

			data, err := fixtures.Load(dir)
			if err != nil {
				return err
			}
			problems := fixtures.Validate(data)

			out := cmd.OutOrStdout()
			if jsonOut {
				if problems == nil {
					problems = []fixtures.Problem{}
				}
				if err := json.NewEncoder(out).Encode(map[string]any{
					"dir":      dir,
					"valid":    len(problems) == 0,
					"counts":   data.Counts(),
					"problems": problems,
				}); err != nil {
					return err
				}
			} else if len(problems) == 0 {
				fmt.Fprintf(out, "✓ %s: %d sessions, no problems found\n", dir, len(data.Sessions))
			} else {
				fmt.Fprintf(out, "✗ %s: %d problems\n", dir, len(problems))
				for _, p := range problems {
					fmt.Fprintf(out, "  %s\n", p)
				}
			}

			if len(problems) > 0 {
				return fmt.Errorf("validation failed: %d problems", len(problems))
			}
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Fixture directory (default: generator.output_dir)")
	return cmd
}
