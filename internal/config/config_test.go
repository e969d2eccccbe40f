package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/nvandessel/neurodash/internal/constants"
)

// isolate points HOME and the working directory at fresh temp dirs so no real
// config or .env file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Chdir(tmpDir)
	for _, key := range Keys() {
		if _, ok := os.LookupEnv(EnvVar(key)); ok {
			t.Setenv(EnvVar(key), "")
		}
	}
	return tmpDir
}

func TestDefault(t *testing.T) {
	config := Default()

	if !slices.Equal(config.Generator.Subjects, constants.Subjects) {
		t.Errorf("Subjects = %v, want %v", config.Generator.Subjects, constants.Subjects)
	}
	if config.Generator.SessionsPerSubject != 4 {
		t.Errorf("SessionsPerSubject = %d, want 4", config.Generator.SessionsPerSubject)
	}
	if config.Generator.ChannelsPerSession != 256 {
		t.Errorf("ChannelsPerSession = %d, want 256", config.Generator.ChannelsPerSession)
	}
	if config.Generator.OutputDir != "public/mock-data" {
		t.Errorf("OutputDir = %q", config.Generator.OutputDir)
	}
	if config.Server.Store != StoreMemory {
		t.Errorf("Store = %q, want memory", config.Server.Store)
	}
	if config.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", config.Logging.Level)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}

	// Defaults must not alias the shared subject list.
	config.Generator.Subjects[0] = "changed"
	if constants.Subjects[0] == "changed" {
		t.Error("Default() aliases constants.Subjects")
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
generator:
  subjects: [Rat_1, Rat_2]
  channels_per_session: 32
  seed: 42
server:
  store: sqlite
  addr: ":9000"
logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if !slices.Equal(config.Generator.Subjects, []string{"Rat_1", "Rat_2"}) {
		t.Errorf("Subjects = %v", config.Generator.Subjects)
	}
	if config.Generator.ChannelsPerSession != 32 || config.Generator.Seed != 42 {
		t.Errorf("Generator = %+v", config.Generator)
	}
	// Unset keys keep their defaults.
	if config.Generator.SessionsPerSubject != 4 {
		t.Errorf("SessionsPerSubject = %d, want default 4", config.Generator.SessionsPerSubject)
	}
	if config.Server.Store != StoreSQLite || config.Server.Addr != ":9000" {
		t.Errorf("Server = %+v", config.Server)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", config.Logging.Level)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	if _, err := LoadFromFile(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("generator: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(bad); err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("err = %v, want parse error", err)
	}
}

func TestLoad_DefaultLocation(t *testing.T) {
	home := isolate(t)

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load without config file failed: %v", err)
	}
	if config.Generator.ChannelsPerSession != 256 {
		t.Errorf("ChannelsPerSession = %d, want default", config.Generator.ChannelsPerSession)
	}

	path := filepath.Join(home, ".neurodash", "config.yaml")
	config.Generator.ChannelsPerSession = 16
	if err := config.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	config, err = Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Generator.ChannelsPerSession != 16 {
		t.Errorf("ChannelsPerSession = %d, want 16 from saved file", config.Generator.ChannelsPerSession)
	}
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	dir := isolate(t)
	if _, err := Load(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config path")
	}
}

func TestLoad_DotEnvAndEnvOverrides(t *testing.T) {
	dir := isolate(t)

	env := "NEURODASH_SERVER_ADDR=127.0.0.1:7000\nNEURODASH_GENERATOR_SEED=99\n"
	if err := os.WriteFile(filepath.Join(dir, EnvFile), []byte(env), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("NEURODASH_SERVER_ADDR")
		os.Unsetenv("NEURODASH_GENERATOR_SEED")
	})
	// Real environment wins over .env.
	t.Setenv("NEURODASH_LOGGING_LEVEL", "trace")
	t.Setenv("NEURODASH_GENERATOR_SUBJECTS", "X, Y ,,Z")

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Server.Addr != "127.0.0.1:7000" {
		t.Errorf("Addr = %q, want value from .env", config.Server.Addr)
	}
	if config.Generator.Seed != 99 {
		t.Errorf("Seed = %d, want 99", config.Generator.Seed)
	}
	if config.Logging.Level != "trace" {
		t.Errorf("Level = %q, want trace", config.Logging.Level)
	}
	if !slices.Equal(config.Generator.Subjects, []string{"X", "Y", "Z"}) {
		t.Errorf("Subjects = %v", config.Generator.Subjects)
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	isolate(t)
	t.Setenv("NEURODASH_GENERATOR_CHANNELS_PER_SESSION", "many")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "NEURODASH_GENERATOR_CHANNELS_PER_SESSION") {
		t.Errorf("err = %v, want error naming the variable", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"no subjects", func(c *Config) { c.Generator.Subjects = nil }, "subjects"},
		{"blank subject", func(c *Config) { c.Generator.Subjects = []string{"A", " "} }, "blank"},
		{"duplicate subject", func(c *Config) { c.Generator.Subjects = []string{"A", "B", " A"} }, "duplicate"},
		{"zero sessions", func(c *Config) { c.Generator.SessionsPerSubject = 0 }, "sessions_per_subject"},
		{"zero channels", func(c *Config) { c.Generator.ChannelsPerSession = 0 }, "channels_per_session"},
		{"negative events", func(c *Config) { c.Generator.EventsPerSession = -1 }, "events_per_session"},
		{"zero events ok", func(c *Config) { c.Generator.EventsPerSession = 0 }, ""},
		{"negative runs", func(c *Config) { c.Generator.TrainingRuns = -2 }, "training_runs"},
		{"empty output", func(c *Config) { c.Generator.OutputDir = "" }, "output_dir"},
		{"unknown store", func(c *Config) { c.Server.Store = "postgres" }, "invalid store"},
		{"negative burst", func(c *Config) { c.Server.Burst = -1 }, "rate limits"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
		{"empty level ok", func(c *Config) { c.Logging.Level = "" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	c := Default()
	for _, key := range Keys() {
		if _, ok := c.Get(key); !ok {
			t.Errorf("Get(%q) not found for a settable key", key)
		}
	}

	tests := []struct {
		key, value string
		want       any
	}{
		{"generator.channels_per_session", "64", 64},
		{"generator.seed", "12345", int64(12345)},
		{"generator.subjects", "A,B", "A,B"},
		{"server.store", "sqlite", "sqlite"},
		{"logging.level", "debug", "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := c.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, _ := c.Get(tt.key)
			if got != tt.want {
				t.Errorf("Get(%q) = %v (%T), want %v (%T)", tt.key, got, got, tt.want, tt.want)
			}
		})
	}

	if err := c.Set("generator.seed", "abc"); err == nil {
		t.Error("expected error for non-integer seed")
	}
	if err := c.Set("llm.provider", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, ok := c.Get("llm.provider"); ok {
		t.Error("Get of unknown key reported found")
	}
}

func TestEnvVar(t *testing.T) {
	if got := EnvVar("server.requests_per_minute"); got != "NEURODASH_SERVER_REQUESTS_PER_MINUTE" {
		t.Errorf("EnvVar() = %q", got)
	}
}

func TestSave_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := Default().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config permissions = %o, want 600", perm)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Server.Addr != Default().Server.Addr {
		t.Errorf("round trip Addr = %q", loaded.Server.Addr)
	}
}
