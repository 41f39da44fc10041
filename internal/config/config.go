package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const dateFormat = "2006-01-02"

// Config represents the top-level actual-flow config.yaml.
type Config struct {
	LunchFlow          LunchFlowConfig    `yaml:"lunchflow"`
	Actual             ActualConfig       `yaml:"actual"`
	AccountMappings    []AccountMapping   `yaml:"account_mappings,omitempty"`
	Sync               SyncConfig         `yaml:"sync"`
	DuplicateDetection DuplicateDetection `yaml:"duplicate_detection"`
}

// LunchFlowConfig holds Lunch Flow API credentials.
type LunchFlowConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"` // empty = production API
}

// ActualConfig holds the Actual Budget server connection details.
type ActualConfig struct {
	ServerURL    string `yaml:"server_url"`
	APIKey       string `yaml:"api_key"`
	BudgetSyncID string `yaml:"budget_sync_id"`
}

// AccountMapping routes one Lunch Flow account into an Actual account.
// Several Lunch Flow accounts may feed the same Actual account.
type AccountMapping struct {
	LunchFlowAccountID int64  `yaml:"lunchflow_account_id"`
	ActualAccountID    string `yaml:"actual_account_id"`
	SyncStartDate      string `yaml:"sync_start_date,omitempty"` // "YYYY-MM-DD", empty = no floor
	IncludePending     bool   `yaml:"include_pending,omitempty"`
}

// StartDate parses SyncStartDate. ok is false when no floor is configured.
// Malformed dates are caught by Validate, not here.
func (m AccountMapping) StartDate() (time.Time, bool) {
	if m.SyncStartDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateFormat, m.SyncStartDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SyncConfig controls the default fetch window.
type SyncConfig struct {
	LookbackDays int `yaml:"lookback_days"`
}

// DuplicateDetection controls the duplicate detector knobs.
type DuplicateDetection struct {
	Enabled                  bool    `yaml:"enabled"`
	DateToleranceDays        int     `yaml:"date_tolerance_days"`
	PayeeSimilarityThreshold float64 `yaml:"payee_similarity_threshold"`
}

// Load reads a config.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a fresh setup.
func Default() *Config {
	return &Config{
		Sync: SyncConfig{
			LookbackDays: 30,
		},
		DuplicateDetection: DuplicateDetection{
			Enabled:                  true,
			DateToleranceDays:        3,
			PayeeSimilarityThreshold: 0.8,
		},
	}
}

// DefaultPath returns the per-user config location,
// e.g. ~/.config/actual-flow/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(dir, "actual-flow", "config.yaml"), nil
}

// MappingFor returns the mapping for a Lunch Flow account ID.
func (c *Config) MappingFor(accountID int64) (AccountMapping, bool) {
	for _, m := range c.AccountMappings {
		if m.LunchFlowAccountID == accountID {
			return m, true
		}
	}
	return AccountMapping{}, false
}

// SetMapping adds or replaces the mapping for a Lunch Flow account.
func (c *Config) SetMapping(m AccountMapping) {
	for i, existing := range c.AccountMappings {
		if existing.LunchFlowAccountID == m.LunchFlowAccountID {
			c.AccountMappings[i] = m
			return
		}
	}
	c.AccountMappings = append(c.AccountMappings, m)
}

// Validate checks that the config is complete enough to run a sync.
func (c *Config) Validate() error {
	if c.LunchFlow.APIKey == "" {
		return fmt.Errorf("lunchflow.api_key is not set (run actual-flow setup)")
	}
	if c.Actual.ServerURL == "" {
		return fmt.Errorf("actual.server_url is not set (run actual-flow setup)")
	}
	if c.Actual.APIKey == "" {
		return fmt.Errorf("actual.api_key is not set (run actual-flow setup)")
	}
	if c.Actual.BudgetSyncID == "" {
		return fmt.Errorf("actual.budget_sync_id is not set (run actual-flow setup)")
	}
	if len(c.AccountMappings) == 0 {
		return fmt.Errorf("no account mappings configured (run actual-flow setup or actual-flow accounts link)")
	}
	for _, m := range c.AccountMappings {
		if m.LunchFlowAccountID == 0 {
			return fmt.Errorf("account mapping with missing lunchflow_account_id")
		}
		if m.ActualAccountID == "" {
			return fmt.Errorf("account mapping %d has no actual_account_id", m.LunchFlowAccountID)
		}
		if m.SyncStartDate != "" {
			if _, err := time.Parse(dateFormat, m.SyncStartDate); err != nil {
				return fmt.Errorf("account mapping %d: invalid sync_start_date %q: %w", m.LunchFlowAccountID, m.SyncStartDate, err)
			}
		}
	}
	return nil
}
