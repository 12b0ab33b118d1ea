package config

import (
	"strings"
	"testing"
)

func TestConfigForEnvironment(t *testing.T) {
	tests := []struct {
		env         string
		expectedEnv string
		landing     string
	}{
		{"production", EnvProduction, "https://sonacove.com/dashboard"},
		{"", EnvProduction, "https://sonacove.com/dashboard"},
		{"staging", EnvStaging, "https://26c4a307-sonacove.catfurr.workers.dev/dashboard"},
		{"DEVELOPMENT", EnvStaging, "https://26c4a307-sonacove.catfurr.workers.dev/dashboard"},
		{"test", EnvTest, "https://app.example.com/dashboard"},
		{"unknown", EnvProduction, "https://sonacove.com/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			config := ConfigForEnvironment(tt.env)
			if config.Environment != tt.expectedEnv {
				t.Errorf("Environment = %s, want %s", config.Environment, tt.expectedEnv)
			}
			if config.Landing != tt.landing {
				t.Errorf("Landing = %s, want %s", config.Landing, tt.landing)
			}
			if err := config.Validate(); err != nil {
				t.Errorf("preset should validate: %v", err)
			}
		})
	}
}

func TestDerivedAccessors(t *testing.T) {
	config := ProductionConfig()

	if got := config.AppHost(); got != "sonacove.com" {
		t.Errorf("AppHost() = %q, want sonacove.com", got)
	}
	if got := config.MeetingOrigin(); got != "https://sonacove.com" {
		t.Errorf("MeetingOrigin() = %q, want https://sonacove.com", got)
	}

	staging := StagingConfig()
	if got := staging.MeetingOrigin(); got != "https://dea29a3a-sona-app.catfurr.workers.dev" {
		t.Errorf("staging MeetingOrigin() = %q", got)
	}
}

func TestIsAllowedHost(t *testing.T) {
	config := ProductionConfig()

	tests := []struct {
		host    string
		allowed bool
	}{
		{"sonacove.com", true},
		{"SONACOVE.com", true},
		{"docs.sonacove.com", true},
		{"sonacove.com:443", true},
		{"gravatar.com", true},
		{"evil-sonacove.com", false},
		{"example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := config.IsAllowedHost(tt.host); got != tt.allowed {
				t.Errorf("IsAllowedHost(%q) = %v, want %v", tt.host, got, tt.allowed)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty scheme", func(c *Config) { c.Scheme = "" }, "invalid scheme"},
		{"scheme with colon", func(c *Config) { c.Scheme = "sonacove:" }, "invalid scheme"},
		{"relative landing", func(c *Config) { c.Landing = "/dashboard" }, "landing"},
		{"file meet root", func(c *Config) { c.MeetRoot = "file:///meet" }, "meetRoot"},
		{"no shortcut", func(c *Config) { c.ClickThroughShortcut = "" }, "clickThroughShortcut"},
		{"no database", func(c *Config) { c.DatabasePath = "" }, "database path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := TestConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("SONACOVE_LANDING_URL", "https://override.example.com/home")
	t.Setenv("SONACOVE_ALLOWED_HOSTS", " One.example.com , ,two.example.com")
	t.Setenv("SONACOVE_LOG_LEVEL", "debug")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.Environment != EnvTest {
		t.Errorf("Environment = %s, want test", config.Environment)
	}
	if config.Landing != "https://override.example.com/home" {
		t.Errorf("Landing override not applied: %s", config.Landing)
	}
	if config.AppHost() != "override.example.com" {
		t.Errorf("AppHost() = %s", config.AppHost())
	}
	if len(config.AllowedHosts) != 2 || config.AllowedHosts[0] != "one.example.com" {
		t.Errorf("AllowedHosts = %v", config.AllowedHosts)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %s", config.LogLevel)
	}
}

func TestLoad_RejectsInvalidOverride(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("SONACOVE_MEET_ROOT", "javascript:alert(1)")

	if _, err := Load(); err == nil {
		t.Error("expected Load() to fail validation")
	}
}
