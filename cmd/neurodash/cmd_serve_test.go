package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/neurodash/internal/config"
	"github.com/nvandessel/neurodash/internal/store"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	tests := []struct {
		name string
		cfg  func(t *testing.T) config.ServerConfig
	}{
		{"memory", func(t *testing.T) config.ServerConfig {
			return config.ServerConfig{Store: config.StoreMemory}
		}},
		{"sqlite", func(t *testing.T) config.ServerConfig {
			return config.ServerConfig{Store: config.StoreSQLite, DatabasePath: filepath.Join(t.TempDir(), "lab.db")}
		}},
		{"sqlite default path", func(t *testing.T) config.ServerConfig {
			isolateHome(t)
			return config.ServerConfig{Store: config.StoreSQLite}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ls, err := openStore(ctx, tt.cfg(t), logger)
			if err != nil {
				t.Fatalf("openStore() error = %v", err)
			}
			defer ls.Close()

			sessions, err := ls.ListSessions(ctx, store.SessionFilter{})
			if err != nil {
				t.Fatalf("ListSessions() error = %v", err)
			}
			if len(sessions) == 0 {
				t.Error("store not seeded")
			}
		})
	}
}

func TestServeCmd_InvalidStore(t *testing.T) {
	isolateHome(t)

	_, err := runCmd(t, "serve", "--store", "postgres")
	if err == nil || !strings.Contains(err.Error(), "invalid store") {
		t.Errorf("err = %v, want invalid store", err)
	}
}

func TestMCPServerCmd_NoFixtures(t *testing.T) {
	dir := isolateHome(t)

	_, err := runCmd(t, "mcp-server", "--dir", filepath.Join(dir, "missing"))
	if err == nil || !strings.Contains(err.Error(), "failed to load dataset") {
		t.Errorf("err = %v, want dataset load failure", err)
	}
}
