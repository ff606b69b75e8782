package store

import (
	"errors"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPlansTable   = "DayPlans"
	DefaultHistoryTable = "DayPlanHistory"
	DefaultCacheTTL     = 10 * time.Minute
	DefaultDebounce     = 500 * time.Millisecond
	DefaultLogLevel     = "info"
)

// Config is the per-workspace config.yaml.
type Config struct {
	Remote RemoteConfig `yaml:"remote"`
	Save   SaveConfig   `yaml:"save"`
	Log    LogConfig    `yaml:"log"`
}

type RemoteConfig struct {
	UserID                 string        `yaml:"userId,omitempty"`
	TablesConnectionString string        `yaml:"tablesConnectionString,omitempty"`
	PlansTable             string        `yaml:"plansTable,omitempty"`
	HistoryTable           string        `yaml:"historyTable,omitempty"`
	RedisURL               string        `yaml:"redisUrl,omitempty"`
	CacheTTL               time.Duration `yaml:"cacheTtl,omitempty"`
}

// Enabled reports whether enough is configured to reach Table Storage.
func (r RemoteConfig) Enabled() bool {
	return strings.TrimSpace(r.TablesConnectionString) != "" && strings.TrimSpace(r.UserID) != ""
}

type SaveConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	// File is relative to the workspace dir unless absolute. Empty logs to stderr.
	File string `yaml:"file,omitempty"`
}

// DefaultConfig returns a config with every default filled in.
func DefaultConfig() Config {
	var c Config
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Remote.PlansTable) == "" {
		c.Remote.PlansTable = DefaultPlansTable
	}
	if strings.TrimSpace(c.Remote.HistoryTable) == "" {
		c.Remote.HistoryTable = DefaultHistoryTable
	}
	if c.Remote.CacheTTL <= 0 {
		c.Remote.CacheTTL = DefaultCacheTTL
	}
	if c.Save.Debounce <= 0 {
		c.Save.Debounce = DefaultDebounce
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("DAYPLAN_REMOTE_CONN")); v != "" {
		c.Remote.TablesConnectionString = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYPLAN_REDIS_URL")); v != "" {
		c.Remote.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYPLAN_USER_ID")); v != "" {
		c.Remote.UserID = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYPLAN_LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
}

// LoadConfig reads config.yaml (missing is fine), then applies env overrides and defaults.
func (s Store) LoadConfig() (Config, error) {
	var cfg Config
	b, err := os.ReadFile(s.configPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// SaveConfig writes cfg to config.yaml.
func (s Store) SaveConfig(cfg Config) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	// Connection strings carry secrets.
	return WriteFileAtomic(s.configPath(), b, 0o600)
}

// EnsureConfig writes a default config.yaml when none exists. created is false when a
// file was already present.
func (s Store) EnsureConfig() (created bool, err error) {
	if _, err := os.Stat(s.configPath()); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := s.SaveConfig(DefaultConfig()); err != nil {
		return false, err
	}
	return true, nil
}
