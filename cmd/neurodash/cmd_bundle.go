package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/neurodash/internal/bundle"
	"github.com/nvandessel/neurodash/internal/pathutil"
	"github.com/spf13/cobra"
)

const defaultKeep = 10

func newBundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Package fixture files into portable bundles",
		Long: `Create, verify and extract compressed, checksummed dataset bundles.

Default location: ~/.neurodash/bundles/neurodash-bundle-YYYYMMDD-HHMMSS.ndb.gz

Examples:
  neurodash bundle create                      # Bundle the current fixtures
  neurodash bundle verify <file>               # Check a bundle's checksum
  neurodash bundle extract <file> --dir out    # Write fixtures from a bundle
  neurodash bundle list                        # List bundles
  neurodash bundle prune --keep 5              # Delete all but the newest 5`,
	}

	cmd.PersistentFlags().String("bundle-dir", "", "Bundle directory (default: ~/.neurodash/bundles)")

	cmd.AddCommand(
		newBundleCreateCmd(),
		newBundleVerifyCmd(),
		newBundleExtractCmd(),
		newBundleListCmd(),
		newBundlePruneCmd(),
	)
	return cmd
}

func bundleDir(cmd *cobra.Command) (string, error) {
	if dir, _ := cmd.Flags().GetString("bundle-dir"); dir != "" {
		return dir, nil
	}
	dir, err := bundle.DefaultDir()
	if err != nil {
		return "", fmt.Errorf("failed to get bundle directory: %w", err)
	}
	return dir, nil
}

// allowedDirs confines explicit bundle and extract paths to ~/.neurodash and
// the working directory.
func allowedDirs() ([]string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	dirs, err := pathutil.DefaultAllowedDirs(wd)
	if err != nil {
		return nil, fmt.Errorf("failed to determine allowed dirs: %w", err)
	}
	return dirs, nil
}

func newBundleCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Bundle the fixture files",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			outputPath, _ := cmd.Flags().GetString("output")
			keep, _ := cmd.Flags().GetInt("keep")

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if outputPath == "" {
				dir, err := bundleDir(cmd)
				if err != nil {
					return err
				}
				outputPath = bundle.GeneratePath(dir, time.Now())
			} else {
				allowed, err := allowedDirs()
				if err != nil {
					return err
				}
				if outputPath, err = pathutil.Confine(outputPath, allowed); err != nil {
					return fmt.Errorf("bundle path rejected: %w", err)
				}
			}

			header, err := bundle.Create(fixturesDir(cmd, cfg), outputPath, time.Now())
			if err != nil {
				return fmt.Errorf("bundle failed: %w", err)
			}

			if keep > 0 {
				deleted, err := bundle.ApplyRetention(filepath.Dir(outputPath), &bundle.CountPolicy{MaxCount: keep})
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to apply retention: %v\n", err)
				}
				logger.Debug("retention applied", "deleted", len(deleted))
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"path":     outputPath,
					"counts":   header.Counts,
					"checksum": header.Checksum,
				})
			}
			fmt.Fprintf(out, "Bundle created: %d sessions, %d recordings\n", header.Counts.Sessions, header.Counts.Recordings)
			fmt.Fprintf(out, "  Path: %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().String("output", "", "Output file path (default: auto-generated in the bundle dir)")
	cmd.Flags().String("dir", "", "Fixture directory (default: generator.output_dir)")
	cmd.Flags().Int("keep", defaultKeep, "Bundles to keep in the output directory (0 keeps all)")
	return cmd
}

func newBundleVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify a bundle's checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			header, err := bundle.Verify(args[0])
			if jsonOut {
				result := map[string]any{"path": args[0], "valid": err == nil}
				if err != nil {
					result["error"] = err.Error()
				} else {
					result["counts"] = header.Counts
					result["created_at"] = header.CreatedAt
				}
				if encErr := json.NewEncoder(out).Encode(result); encErr != nil {
					return encErr
				}
				return err
			}
			if err != nil {
				fmt.Fprintf(out, "✗ %s: %v\n", args[0], err)
				return err
			}
			fmt.Fprintf(out, "✓ %s: checksum OK (%d sessions, created %s)\n",
				args[0], header.Counts.Sessions, header.CreatedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func newBundleExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Write the fixture files stored in a bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			allowed, err := allowedDirs()
			if err != nil {
				return err
			}

			result, err := bundle.Extract(cmd.Context(), args[0], fixturesDir(cmd, cfg), allowed)
			if err != nil {
				return fmt.Errorf("extract failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(result)
			}
			fmt.Fprintf(out, "Extracted %d files (%d sessions) into %s\n", len(result.Files), result.Counts.Sessions, result.Dir)
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Fixture directory (default: generator.output_dir)")
	return cmd
}

func newBundleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bundles newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			dir, err := bundleDir(cmd)
			if err != nil {
				return err
			}
			bundles, err := bundle.List(dir)
			if err != nil {
				return fmt.Errorf("failed to list bundles: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				type jsonEntry struct {
					Path      string `json:"path"`
					Size      int64  `json:"size_bytes"`
					CreatedAt string `json:"created_at"`
				}
				entries := make([]jsonEntry, 0, len(bundles))
				for _, b := range bundles {
					entries = append(entries, jsonEntry{
						Path:      b.Path,
						Size:      b.Size,
						CreatedAt: b.CreatedAt.Format(time.RFC3339),
					})
				}
				return json.NewEncoder(out).Encode(map[string]any{
					"bundles":     entries,
					"total_count": len(entries),
					"directory":   dir,
				})
			}

			if len(bundles) == 0 {
				fmt.Fprintf(out, "No bundles found in %s\n", dir)
				return nil
			}
			fmt.Fprintf(out, "Bundles in %s:\n", dir)
			for _, b := range bundles {
				fmt.Fprintf(out, "  %s  %s  %d bytes\n", b.CreatedAt.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), b.Size)
			}
			return nil
		},
	}
}

func newBundlePruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old bundles",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			keep, _ := cmd.Flags().GetInt("keep")
			maxAge, _ := cmd.Flags().GetString("max-age")

			var policies []bundle.RetentionPolicy
			if keep > 0 {
				policies = append(policies, &bundle.CountPolicy{MaxCount: keep})
			}
			if maxAge != "" {
				d, err := bundle.ParseDuration(maxAge)
				if err != nil {
					return err
				}
				policies = append(policies, &bundle.AgePolicy{MaxAge: d})
			}
			if len(policies) == 0 {
				return fmt.Errorf("nothing to prune: set --keep or --max-age")
			}
			var policy bundle.RetentionPolicy = &bundle.CompositePolicy{Policies: policies}
			if len(policies) == 1 {
				policy = policies[0]
			}

			dir, err := bundleDir(cmd)
			if err != nil {
				return err
			}
			deleted, err := bundle.ApplyRetention(dir, policy)
			if err != nil {
				return fmt.Errorf("prune failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if deleted == nil {
					deleted = []string{}
				}
				return json.NewEncoder(out).Encode(map[string]any{"deleted": deleted})
			}
			fmt.Fprintf(out, "Deleted %d bundles\n", len(deleted))
			return nil
		},
	}

	cmd.Flags().Int("keep", 0, "Keep the newest N bundles")
	cmd.Flags().String("max-age", "", "Keep bundles younger than this (e.g. 720h, 30d, 2w)")
	return cmd
}
