package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".dispatchd"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file. DISPATCH_CONFIG overrides
// the default location under the home directory.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("DISPATCH_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			QueryURL:       "http://localhost:8890/sparql",
			UpdateURL:      "",
			TimeoutSeconds: 60,
		},
		Graphs: GraphsConfig{
			OrgPrefix:      "http://data.orgraph.io/graphs/organizations/",
			InsertsStaging: "http://data.orgraph.io/graphs/staging/inserts",
			DeletesStaging: "http://data.orgraph.io/graphs/staging/deletes",
			TokenPredicate: "http://mu.semte.ch/vocabularies/core/uuid",
		},
		Dispatch: DispatchConfig{
			PathsFile:            "",
			BatchSize:            100,
			QuiescenceMillis:     250,
			StartupDelaySeconds:  10,
			FollowUpDelaySeconds: 5,
		},
		Feed: FeedConfig{
			Enabled:      false,
			Brokers:      "localhost:9092",
			GroupID:      "dispatchd",
			InsertsTopic: "delta.inserts",
			DeletesTopic: "delta.deletes",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "",
		},
	}
}

// Load reads the config file (if present), applies DISPATCH_* environment
// overrides, and validates the result.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("config path: %w", err)
	}
	return LoadFrom(path)
}

// LoadFrom loads configuration from an explicit file path. A missing file is
// not an error; defaults plus environment apply.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	sections := []struct {
		prefix string
		target any
	}{
		{"DISPATCH_STORE", &cfg.Store},
		{"DISPATCH_GRAPHS", &cfg.Graphs},
		{"DISPATCH_DISPATCH", &cfg.Dispatch},
		{"DISPATCH_FEED", &cfg.Feed},
		{"DISPATCH_SERVER", &cfg.Server},
		{"DISPATCH_JOURNAL", &cfg.Journal},
	}
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.target); err != nil {
			return fmt.Errorf("env overlay %s: %w", s.prefix, err)
		}
	}
	return nil
}

// Validate rejects configurations the pipeline cannot run on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store.QueryURL) == "" {
		return fmt.Errorf("store.queryUrl is required")
	}
	if strings.TrimSpace(c.Graphs.OrgPrefix) == "" {
		return fmt.Errorf("graphs.orgPrefix is required")
	}
	if c.Graphs.InsertsStaging == "" || c.Graphs.DeletesStaging == "" {
		return fmt.Errorf("both staging graphs must be configured")
	}
	if c.Graphs.InsertsStaging == c.Graphs.DeletesStaging {
		return fmt.Errorf("staging graphs must be distinct")
	}
	if c.Dispatch.BatchSize < 1 {
		return fmt.Errorf("dispatch.batchSize must be at least 1")
	}
	if c.Feed.Enabled {
		if c.Feed.Brokers == "" || c.Feed.InsertsTopic == "" || c.Feed.DeletesTopic == "" {
			return fmt.Errorf("feed requires brokers and both topics when enabled")
		}
	}
	return nil
}

// JournalPath returns the configured journal location, defaulting to the
// config directory.
func (c *Config) JournalPath() (string, error) {
	if c.Journal.Path != "" {
		return c.Journal.Path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, "journal.db"), nil
}
