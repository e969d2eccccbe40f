// Package config provides unified configuration loading for neurodash.
// Values come from built-in defaults, a YAML file, a .env file and
// NEURODASH_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nvandessel/neurodash/internal/constants"
	"gopkg.in/yaml.v3"
)

// EnvFile is the dotenv file read from the working directory.
const EnvFile = ".env"

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains all neurodash configuration settings.
type Config struct {
	// Generator shapes the synthetic dataset.
	Generator GeneratorConfig `json:"generator" yaml:"generator"`

	// Server configures the HTTP API and its record store.
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains settings for operational and run logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// GeneratorConfig configures dataset generation.
type GeneratorConfig struct {
	Subjects           []string `json:"subjects" yaml:"subjects"`
	SessionsPerSubject int      `json:"sessions_per_subject" yaml:"sessions_per_subject"`
	ChannelsPerSession int      `json:"channels_per_session" yaml:"channels_per_session"`
	EventsPerSession   int      `json:"events_per_session" yaml:"events_per_session"`
	MetricsPerChannel  int      `json:"metrics_per_channel" yaml:"metrics_per_channel"`
	FeaturesPerSession int      `json:"features_per_session" yaml:"features_per_session"`
	TrainingRuns       int      `json:"training_runs" yaml:"training_runs"`

	// Seed makes generation reproducible. 0 seeds from the clock.
	Seed int64 `json:"seed" yaml:"seed"`

	// OutputDir is where the fixture files are written.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// ServerConfig configures `neurodash serve`.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`

	// Store selects the record backend: "memory" or "sqlite".
	Store string `json:"store" yaml:"store"`

	// DatabasePath is the SQLite file. Empty means ~/.neurodash/lab.db.
	DatabasePath string `json:"database_path,omitempty" yaml:"database_path,omitempty"`

	// RequestsPerMinute per client address. 0 disables rate limiting.
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
	Burst             int `json:"burst" yaml:"burst"`
}

// LoggingConfig configures neurodash's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" also appends one record per generation run to ~/.neurodash/runs.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config reproducing the stock dataset and server.
func Default() *Config {
	return &Config{
		Generator: GeneratorConfig{
			Subjects:           slices.Clone(constants.Subjects),
			SessionsPerSubject: constants.DefaultSessionsPerSubject,
			ChannelsPerSession: constants.DefaultChannelsPerSession,
			EventsPerSession:   constants.DefaultEventsPerSession,
			MetricsPerChannel:  constants.DefaultMetricsPerChannel,
			FeaturesPerSession: constants.DefaultFeaturesPerSession,
			TrainingRuns:       constants.DefaultTrainingRuns,
			OutputDir:          constants.DefaultOutputDir,
		},
		Server: ServerConfig{
			Addr:              "localhost:8080",
			Store:             StoreMemory,
			RequestsPerMinute: 600,
			Burst:             50,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.neurodash/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".neurodash", "config.yaml"), nil
}

// Load loads configuration.
// Order: defaults -> path (or ~/.neurodash/config.yaml when path is empty)
// -> .env -> environment variables. An explicit path must exist.
func Load(path string) (*Config, error) {
	config := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		_, statErr := os.Stat(path)
		if statErr == nil || explicit {
			fileConfig, err := LoadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
			config = fileConfig
		}
	}

	if err := loadDotEnv(EnvFile); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// loadDotEnv exports the variables in path without overriding ones already
// set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	g := c.Generator
	if len(g.Subjects) == 0 {
		return fmt.Errorf("generator.subjects must not be empty")
	}
	seen := make(map[string]bool, len(g.Subjects))
	for _, s := range g.Subjects {
		name := strings.TrimSpace(s)
		if name == "" {
			return fmt.Errorf("generator.subjects must not contain blank names")
		}
		if seen[name] {
			return fmt.Errorf("generator.subjects contains duplicate %q", name)
		}
		seen[name] = true
	}
	if g.SessionsPerSubject <= 0 {
		return fmt.Errorf("generator.sessions_per_subject must be positive, got %d", g.SessionsPerSubject)
	}
	if g.ChannelsPerSession <= 0 {
		return fmt.Errorf("generator.channels_per_session must be positive, got %d", g.ChannelsPerSession)
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{"events_per_session", g.EventsPerSession},
		{"metrics_per_channel", g.MetricsPerChannel},
		{"features_per_session", g.FeaturesPerSession},
		{"training_runs", g.TrainingRuns},
	} {
		if f.v < 0 {
			return fmt.Errorf("generator.%s must be non-negative, got %d", f.name, f.v)
		}
	}
	if g.OutputDir == "" {
		return fmt.Errorf("generator.output_dir must not be empty")
	}

	if c.Server.Store != StoreMemory && c.Server.Store != StoreSQLite {
		return fmt.Errorf("invalid store: %s (valid: %s, %s)", c.Server.Store, StoreMemory, StoreSQLite)
	}
	if c.Server.RequestsPerMinute < 0 || c.Server.Burst < 0 {
		return fmt.Errorf("server rate limits must be non-negative")
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}
	return nil
}

// setters maps dot-notation keys to functions that parse and assign a value.
// Environment variables are the key upper-cased with dots as underscores and
// a NEURODASH_ prefix, e.g. server.addr -> NEURODASH_SERVER_ADDR.
var setters = map[string]func(c *Config, v string) error{
	"generator.subjects": func(c *Config, v string) error {
		var subjects []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				subjects = append(subjects, s)
			}
		}
		c.Generator.Subjects = subjects
		return nil
	},
	"generator.sessions_per_subject": intSetter(func(c *Config) *int { return &c.Generator.SessionsPerSubject }),
	"generator.channels_per_session": intSetter(func(c *Config) *int { return &c.Generator.ChannelsPerSession }),
	"generator.events_per_session":   intSetter(func(c *Config) *int { return &c.Generator.EventsPerSession }),
	"generator.metrics_per_channel":  intSetter(func(c *Config) *int { return &c.Generator.MetricsPerChannel }),
	"generator.features_per_session": intSetter(func(c *Config) *int { return &c.Generator.FeaturesPerSession }),
	"generator.training_runs":        intSetter(func(c *Config) *int { return &c.Generator.TrainingRuns }),
	"generator.seed": func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", v)
		}
		c.Generator.Seed = n
		return nil
	},
	"generator.output_dir":       func(c *Config, v string) error { c.Generator.OutputDir = v; return nil },
	"server.addr":                func(c *Config, v string) error { c.Server.Addr = v; return nil },
	"server.store":               func(c *Config, v string) error { c.Server.Store = v; return nil },
	"server.database_path":       func(c *Config, v string) error { c.Server.DatabasePath = v; return nil },
	"server.requests_per_minute": intSetter(func(c *Config) *int { return &c.Server.RequestsPerMinute }),
	"server.burst":               intSetter(func(c *Config) *int { return &c.Server.Burst }),
	"logging.level":              func(c *Config, v string) error { c.Logging.Level = v; return nil },
}

func intSetter(field func(c *Config) *int) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer %q", v)
		}
		*field(c) = n
		return nil
	}
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get retrieves a configuration value by dot-notation key.
func (c *Config) Get(key string) (any, bool) {
	switch key {
	case "generator.subjects":
		return strings.Join(c.Generator.Subjects, ","), true
	case "generator.sessions_per_subject":
		return c.Generator.SessionsPerSubject, true
	case "generator.channels_per_session":
		return c.Generator.ChannelsPerSession, true
	case "generator.events_per_session":
		return c.Generator.EventsPerSession, true
	case "generator.metrics_per_channel":
		return c.Generator.MetricsPerChannel, true
	case "generator.features_per_session":
		return c.Generator.FeaturesPerSession, true
	case "generator.training_runs":
		return c.Generator.TrainingRuns, true
	case "generator.seed":
		return c.Generator.Seed, true
	case "generator.output_dir":
		return c.Generator.OutputDir, true
	case "server.addr":
		return c.Server.Addr, true
	case "server.store":
		return c.Server.Store, true
	case "server.database_path":
		return c.Server.DatabasePath, true
	case "server.requests_per_minute":
		return c.Server.RequestsPerMinute, true
	case "server.burst":
		return c.Server.Burst, true
	case "logging.level":
		return c.Logging.Level, true
	default:
		return nil, false
	}
}

// Set parses value and assigns it to the dot-notation key.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err := set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return "NEURODASH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// applyEnvOverrides applies NEURODASH_* environment variable overrides.
func applyEnvOverrides(config *Config) error {
	for _, key := range Keys() {
		v := os.Getenv(EnvVar(key))
		if v == "" {
			continue
		}
		if err := config.Set(key, v); err != nil {
			return fmt.Errorf("%s: %w", EnvVar(key), err)
		}
	}
	return nil
}
