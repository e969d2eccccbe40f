package main

import (
	"github.com/nvandessel/neurodash/internal/mcp"
	"github.com/nvandessel/neurodash/internal/store"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the dataset query server over MCP (stdio)",
		Long: `Expose a generated dataset to AI agents via the Model Context Protocol.

The server speaks JSON-RPC over stdin/stdout and offers tools for dataset
statistics, session listing, per-session metrics, quality averages and the
best training run, plus a markdown summary resource.

Tool calls are audited to ~/.neurodash/audit.jsonl.

Example agent configuration:
  {
    "mcpServers": {
      "neurodash": {
        "command": "neurodash",
        "args": ["mcp-server", "--dir", "/path/to/public/mock-data"]
      }
    }
  }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			auditDir, err := store.HomePath()
			if err != nil {
				logger.Warn("audit logging disabled", "error", err)
				auditDir = ""
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:        "neurodash",
				Version:     version,
				FixturesDir: fixturesDir(cmd, cfg),
				AuditDir:    auditDir,
				Logger:      logger,
			})
			if err != nil {
				return err
			}

			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().String("dir", "", "Fixture directory (default: generator.output_dir)")
	return cmd
}
