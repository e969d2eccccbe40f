package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/neurodash/internal/config"
)

func TestConfigCmd_SetGet(t *testing.T) {
	dir := isolateHome(t)

	out, err := runCmd(t, "config", "set", "generator.channels_per_session", "64")
	if err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	if !strings.Contains(out, "Set generator.channels_per_session = 64") {
		t.Errorf("set output = %q", out)
	}

	saved, err := config.LoadFromFile(filepath.Join(dir, "home", ".neurodash", "config.yaml"))
	if err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	if saved.Generator.ChannelsPerSession != 64 {
		t.Errorf("saved channels = %d, want 64", saved.Generator.ChannelsPerSession)
	}

	out, err = runCmd(t, "config", "get", "generator.channels_per_session", "--json")
	if err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	got := decodeJSON[map[string]any](t, out)
	if got["value"] != float64(64) {
		t.Errorf("get = %v, want 64", got)
	}
}

func TestConfigCmd_Errors(t *testing.T) {
	dir := isolateHome(t)
	path := filepath.Join(dir, "home", ".neurodash", "config.yaml")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown get", []string{"config", "get", "llm.provider"}, "unknown configuration key"},
		{"unknown set", []string{"config", "set", "llm.provider", "x"}, "unknown configuration key"},
		{"not an int", []string{"config", "set", "server.burst", "lots"}, "invalid integer"},
		{"fails validation", []string{"config", "set", "server.store", "postgres"}, "invalid store"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("config file written after failed sets: %v", err)
	}
}

func TestConfigCmd_SetDoesNotPersistEnv(t *testing.T) {
	dir := isolateHome(t)
	t.Setenv("NEURODASH_SERVER_ADDR", "0.0.0.0:1")

	if _, err := runCmd(t, "config", "set", "server.burst", "5"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	saved, err := config.LoadFromFile(filepath.Join(dir, "home", ".neurodash", "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if saved.Server.Addr != config.Default().Server.Addr {
		t.Errorf("saved addr = %q, env override leaked into file", saved.Server.Addr)
	}

	out, err := runCmd(t, "config", "get", "server.addr")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "0.0.0.0:1") {
		t.Errorf("get output = %q, want env override", out)
	}
}

func TestConfigCmd_List(t *testing.T) {
	isolateHome(t)

	out, err := runCmd(t, "config", "list")
	if err != nil {
		t.Fatalf("config list failed: %v", err)
	}
	for _, key := range config.Keys() {
		if !strings.Contains(out, key+":") {
			t.Errorf("list output missing %s", key)
		}
	}

	out, err = runCmd(t, "config", "list", "--json")
	if err != nil {
		t.Fatalf("config list --json failed: %v", err)
	}
	got := decodeJSON[config.Config](t, out)
	if got.Server.Store != config.StoreMemory {
		t.Errorf("store = %q", got.Server.Store)
	}
}

func TestConfigCmd_ExplicitPath(t *testing.T) {
	dir := isolateHome(t)
	path := filepath.Join(dir, "alt.yaml")

	if _, err := runCmd(t, "config", "set", "logging.level", "debug", "--config", path); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	saved, err := config.LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Logging.Level != "debug" {
		t.Errorf("level = %q", saved.Logging.Level)
	}
}
