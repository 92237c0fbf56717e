// Package config loads and validates the run configuration: which
// organizations and users are tracked, the staleness policy, and the
// GitHub-to-Slack identity map.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Limits on the fetch lookback window.
const (
	MinLookbackDays = 7
	MaxLookbackDays = 365
)

// Config represents the application configuration.
type Config struct {
	Orgs         []string `yaml:"orgs,omitempty"`
	TrackedUsers []string `yaml:"tracked_users,omitempty"`

	// LookbackDays bounds the PR search window. PRs created before
	// now-LookbackDays are not considered.
	LookbackDays int `yaml:"lookback_days,omitempty"`

	// StateFilter selects open, closed, or both.
	StateFilter string `yaml:"state_filter,omitempty"`

	// InactivityThresholdDays is the staleness policy: an open PR with
	// no activity for at least this many days gets a reminder.
	InactivityThresholdDays int `yaml:"inactivity_threshold_days,omitempty"`

	// Workers caps concurrent GitHub API requests.
	Workers int `yaml:"workers,omitempty"`

	IdentityMap []IdentityEntry `yaml:"identity_map,omitempty"`
}

// IdentityEntry maps a GitHub username to a Slack member ID.
type IdentityEntry struct {
	GitHub  string `yaml:"github"`
	SlackID string `yaml:"slack_id"`
}

// Default returns a config with default policy values and no tracked
// users. It does not pass Validate until orgs and users are set.
func Default() *Config {
	return &Config{
		LookbackDays:            90,
		StateFilter:             "open",
		InactivityThresholdDays: 7,
		Workers:                 10,
	}
}

// DefaultConfigDir returns the default config directory.
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".prnudge"
	}
	return filepath.Join(configDir, "prnudge")
}

// ConfigPath returns the path to the global config file.
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the
// current directory.
func LocalConfigPath() string {
	return ".prnudge.yaml"
}

// Load loads the configuration from disk.
// It first loads the global config from the XDG config directory, then
// merges any local .prnudge.yaml on top (local values take precedence).
func Load() (*Config, error) {
	cfg := Default()

	globalPath := ConfigPath()
	if _, err := os.Stat(globalPath); err == nil {
		data, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read global config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse global config file: %w", err)
		}
	}

	localPath := LocalConfigPath()
	if _, err := os.Stat(localPath); err == nil {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read local config file: %w", err)
		}
		var localCfg Config
		if err := yaml.Unmarshal(data, &localCfg); err != nil {
			return nil, fmt.Errorf("failed to parse local config file: %w", err)
		}
		cfg = mergeConfig(cfg, &localCfg)
	}

	return cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{}

	if len(local.Orgs) > 0 {
		result.Orgs = local.Orgs
	} else {
		result.Orgs = global.Orgs
	}

	if len(local.TrackedUsers) > 0 {
		result.TrackedUsers = local.TrackedUsers
	} else {
		result.TrackedUsers = global.TrackedUsers
	}

	if local.LookbackDays != 0 {
		result.LookbackDays = local.LookbackDays
	} else {
		result.LookbackDays = global.LookbackDays
	}

	if local.StateFilter != "" {
		result.StateFilter = local.StateFilter
	} else {
		result.StateFilter = global.StateFilter
	}

	if local.InactivityThresholdDays != 0 {
		result.InactivityThresholdDays = local.InactivityThresholdDays
	} else {
		result.InactivityThresholdDays = global.InactivityThresholdDays
	}

	if local.Workers != 0 {
		result.Workers = local.Workers
	} else {
		result.Workers = global.Workers
	}

	if len(local.IdentityMap) > 0 {
		result.IdentityMap = local.IdentityMap
	} else {
		result.IdentityMap = global.IdentityMap
	}

	return result
}

// Validate checks the configuration before any network call is made.
// A config error is fatal: no partial result is meaningful without a
// valid configuration.
func (c *Config) Validate() error {
	if len(c.Orgs) == 0 {
		return fmt.Errorf("no organizations configured (set orgs in %s)", ConfigPath())
	}
	if len(c.TrackedUsers) == 0 {
		return fmt.Errorf("no tracked users configured (set tracked_users in %s)", ConfigPath())
	}
	if c.LookbackDays < MinLookbackDays || c.LookbackDays > MaxLookbackDays {
		return fmt.Errorf("lookback_days must be between %d and %d, got %d",
			MinLookbackDays, MaxLookbackDays, c.LookbackDays)
	}
	if c.InactivityThresholdDays < 1 {
		return fmt.Errorf("inactivity_threshold_days must be at least 1, got %d", c.InactivityThresholdDays)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.StateFilter {
	case "open", "closed", "both":
	default:
		return fmt.Errorf("state_filter must be open, closed, or both, got %q", c.StateFilter)
	}

	seen := make(map[string]bool, len(c.IdentityMap))
	for i, entry := range c.IdentityMap {
		if entry.GitHub == "" || entry.SlackID == "" {
			return fmt.Errorf("identity_map entry %d is missing github or slack_id", i)
		}
		if seen[entry.GitHub] {
			return fmt.Errorf("identity_map has duplicate entry for %q", entry.GitHub)
		}
		seen[entry.GitHub] = true
	}

	return nil
}

// SlackIDFor resolves a GitHub username to a Slack member ID.
// The second return is false when the user has no mapping; that PR
// author is classifiable but not notifiable.
func (c *Config) SlackIDFor(githubUser string) (string, bool) {
	for _, entry := range c.IdentityMap {
		if entry.GitHub == githubUser {
			return entry.SlackID, true
		}
	}
	return "", false
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN
// environment variable. Following 12-factor practice, tokens are only
// read from the environment, never from config files.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// GetSlackToken returns the Slack bot token from the SLACK_BOT_TOKEN
// environment variable.
func (c *Config) GetSlackToken() string {
	return os.Getenv("SLACK_BOT_TOKEN")
}

// Save writes the config to the global config path, creating the
// directory if needed.
func (c *Config) Save() error {
	dir := DefaultConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
