// Package mcp provides an MCP (Model Context Protocol) server for querying a
// generated neurodash dataset.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/neurodash/internal/dataset"
	"github.com/nvandessel/neurodash/internal/fixtures"
	"github.com/nvandessel/neurodash/internal/ratelimit"
)

// Server wraps the MCP SDK server and answers dataset queries.
type Server struct {
	server       *sdk.Server
	catalog      *dataset.Catalog
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "neurodash")
	Version string // Server version

	// FixturesDir is loaded when Catalog is nil.
	FixturesDir string
	Catalog     *dataset.Catalog

	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir string
	Logger   *slog.Logger
}

// NewServer creates a new MCP server with the dataset tools registered.
func NewServer(cfg *Config) (*Server, error) {
	catalog := cfg.Catalog
	if catalog == nil {
		if cfg.FixturesDir == "" {
			return nil, errors.New("no dataset: set a fixtures directory")
		}
		data, err := fixtures.Load(cfg.FixturesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load dataset: %w", err)
		}
		catalog = dataset.NewCatalog(data)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var audit *AuditLogger
	if cfg.AuditDir != "" {
		var err error
		audit, err = NewAuditLogger(cfg.AuditDir)
		if err != nil {
			// Auditing is best effort.
			logger.Warn("audit log disabled", "error", err)
		}
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		server:       mcpServer,
		catalog:      catalog,
		toolLimiters: ratelimit.NewToolLimiters(),
		auditLogger:  audit,
		logger:       logger,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves over stdio until the client disconnects, the context is
// cancelled or the process is interrupted.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, stopSignals...)
	defer stop()

	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.Close()
	return err
}

// Close releases the audit log.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
