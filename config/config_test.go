package config

import (
	"testing"
)

func valid() *Config {
	cfg := Default()
	cfg.Orgs = []string{"frostdb"}
	cfg.TrackedUsers = []string{"alice", "bob"}
	cfg.IdentityMap = []IdentityEntry{
		{GitHub: "alice", SlackID: "U123"},
	}
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LookbackDays != 90 {
		t.Errorf("LookbackDays = %d, want 90", cfg.LookbackDays)
	}
	if cfg.StateFilter != "open" {
		t.Errorf("StateFilter = %q, want open", cfg.StateFilter)
	}
	if cfg.InactivityThresholdDays != 7 {
		t.Errorf("InactivityThresholdDays = %d, want 7", cfg.InactivityThresholdDays)
	}
	if cfg.Workers != 10 {
		t.Errorf("Workers = %d, want 10", cfg.Workers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"no orgs", func(c *Config) { c.Orgs = nil }, true},
		{"no tracked users", func(c *Config) { c.TrackedUsers = nil }, true},
		{"lookback too small", func(c *Config) { c.LookbackDays = 3 }, true},
		{"lookback too large", func(c *Config) { c.LookbackDays = 400 }, true},
		{"lookback at lower bound", func(c *Config) { c.LookbackDays = 7 }, false},
		{"lookback at upper bound", func(c *Config) { c.LookbackDays = 365 }, false},
		{"zero threshold", func(c *Config) { c.InactivityThresholdDays = 0 }, true},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"bad state filter", func(c *Config) { c.StateFilter = "merged" }, true},
		{"state filter both", func(c *Config) { c.StateFilter = "both" }, false},
		{"identity entry missing slack id", func(c *Config) {
			c.IdentityMap = append(c.IdentityMap, IdentityEntry{GitHub: "carol"})
		}, true},
		{"identity entry missing github", func(c *Config) {
			c.IdentityMap = append(c.IdentityMap, IdentityEntry{SlackID: "U999"})
		}, true},
		{"duplicate identity entry", func(c *Config) {
			c.IdentityMap = append(c.IdentityMap, IdentityEntry{GitHub: "alice", SlackID: "U456"})
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSlackIDFor(t *testing.T) {
	cfg := valid()

	id, ok := cfg.SlackIDFor("alice")
	if !ok || id != "U123" {
		t.Errorf("SlackIDFor(alice) = %q, %v; want U123, true", id, ok)
	}

	if _, ok := cfg.SlackIDFor("bob"); ok {
		t.Error("SlackIDFor(bob) = true, want no mapping")
	}
}

func TestMergeConfig(t *testing.T) {
	global := Default()
	global.Orgs = []string{"org-a"}
	global.TrackedUsers = []string{"alice"}
	global.IdentityMap = []IdentityEntry{{GitHub: "alice", SlackID: "U123"}}

	local := &Config{
		Orgs:                    []string{"org-b"},
		InactivityThresholdDays: 5,
	}

	merged := mergeConfig(global, local)

	if len(merged.Orgs) != 1 || merged.Orgs[0] != "org-b" {
		t.Errorf("merged.Orgs = %v, want local orgs to win", merged.Orgs)
	}
	if merged.InactivityThresholdDays != 5 {
		t.Errorf("merged.InactivityThresholdDays = %d, want 5", merged.InactivityThresholdDays)
	}
	// Unset local values preserve global values
	if len(merged.TrackedUsers) != 1 || merged.TrackedUsers[0] != "alice" {
		t.Errorf("merged.TrackedUsers = %v, want global preserved", merged.TrackedUsers)
	}
	if merged.LookbackDays != 90 {
		t.Errorf("merged.LookbackDays = %d, want global default preserved", merged.LookbackDays)
	}
	if len(merged.IdentityMap) != 1 {
		t.Errorf("merged.IdentityMap = %v, want global preserved", merged.IdentityMap)
	}
}
