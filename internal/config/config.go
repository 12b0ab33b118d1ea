package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvTest       = "test"
)

// Config holds the shell's environment-dependent settings
type Config struct {
	Environment          string   `json:"environment"`          // production, staging or test
	Scheme               string   `json:"scheme"`               // Custom URL scheme without "://"
	Landing              string   `json:"landing"`              // Dashboard landing URL
	MeetRoot             string   `json:"meetRoot"`             // Root URL of the meeting service
	DefaultServerURL     string   `json:"defaultServerUrl"`     // Server the hosted app talks to by default
	HelpDocsURL          string   `json:"helpDocsUrl"`          // Opened by open-help-docs
	AllowedHosts         []string `json:"allowedHosts"`         // Hosts the main view may navigate to in-window
	ClickThroughShortcut string   `json:"clickThroughShortcut"` // Global accelerator toggling overlay click-through
	DatabasePath         string   `json:"databasePath"`         // SQLite file for analytics queue and window state
	LogLevel             string   `json:"logLevel"`
	Version              string   `json:"version"`
}

// ProductionConfig returns the settings used by packaged builds
func ProductionConfig() *Config {
	return &Config{
		Environment:          EnvProduction,
		Scheme:               "sonacove",
		Landing:              "https://sonacove.com/dashboard",
		MeetRoot:             "https://sonacove.com/meet",
		DefaultServerURL:     "https://sonacove.com",
		HelpDocsURL:          "https://docs.sonacove.com/",
		AllowedHosts:         []string{"sonacove.com", "gravatar.com", "customer-portal.paddle.com"},
		ClickThroughShortcut: "Alt+X",
		DatabasePath:         defaultDatabasePath(),
		LogLevel:             "info",
		Version:              "dev",
	}
}

// StagingConfig returns the settings used for unpackaged builds
func StagingConfig() *Config {
	config := ProductionConfig()
	config.Environment = EnvStaging
	config.Landing = "https://26c4a307-sonacove.catfurr.workers.dev/dashboard"
	config.MeetRoot = "https://dea29a3a-sona-app.catfurr.workers.dev/meet"
	config.AllowedHosts = []string{
		"dea29a3a-sona-app.catfurr.workers.dev",
		"26c4a307-sonacove.catfurr.workers.dev",
		"localhost",
		"gravatar.com",
		"sandbox-customer-portal.paddle.com",
		"staj.sonacove.com",
	}
	config.LogLevel = "debug"
	return config
}

// TestConfig returns deterministic settings for tests
func TestConfig() *Config {
	config := ProductionConfig()
	config.Environment = EnvTest
	config.Landing = "https://app.example.com/dashboard"
	config.MeetRoot = "https://meet.example.com/meet"
	config.DefaultServerURL = "https://app.example.com"
	config.HelpDocsURL = "https://docs.example.com/"
	config.AllowedHosts = []string{"app.example.com", "meet.example.com"}
	config.DatabasePath = ":memory:"
	config.LogLevel = "error"
	return config
}

// ConfigForEnvironment returns the preset for env, defaulting to production
func ConfigForEnvironment(env string) *Config {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case EnvStaging, "development", "dev":
		return StagingConfig()
	case EnvTest:
		return TestConfig()
	default:
		return ProductionConfig()
	}
}

// Load reads an optional .env file, picks the preset named by APP_ENV and
// applies SONACOVE_* overrides on top of it
func Load() (*Config, error) {
	// A missing .env is normal for packaged builds
	_ = godotenv.Load()

	config := ConfigForEnvironment(os.Getenv("APP_ENV"))
	config.LoadFromEnvironment()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromEnvironment applies SONACOVE_* environment overrides
func (c *Config) LoadFromEnvironment() {
	c.Scheme = getEnv("SONACOVE_SCHEME", c.Scheme)
	c.Landing = getEnv("SONACOVE_LANDING_URL", c.Landing)
	c.MeetRoot = getEnv("SONACOVE_MEET_ROOT", c.MeetRoot)
	c.DefaultServerURL = getEnv("SONACOVE_DEFAULT_SERVER_URL", c.DefaultServerURL)
	c.HelpDocsURL = getEnv("SONACOVE_HELP_DOCS_URL", c.HelpDocsURL)
	c.ClickThroughShortcut = getEnv("SONACOVE_CLICK_THROUGH_SHORTCUT", c.ClickThroughShortcut)
	c.DatabasePath = getEnv("SONACOVE_DB_PATH", c.DatabasePath)
	c.LogLevel = getEnv("SONACOVE_LOG_LEVEL", c.LogLevel)
	c.Version = getEnv("SONACOVE_VERSION", c.Version)

	if hosts := os.Getenv("SONACOVE_ALLOWED_HOSTS"); hosts != "" {
		var parsed []string
		for _, h := range strings.Split(hosts, ",") {
			if h = strings.TrimSpace(h); h != "" {
				parsed = append(parsed, strings.ToLower(h))
			}
		}
		c.AllowedHosts = parsed
	}
}

// Validate checks that every URL is absolute and the scheme is usable
func (c *Config) Validate() error {
	if c.Scheme == "" || strings.Contains(c.Scheme, ":") {
		return fmt.Errorf("invalid scheme %q", c.Scheme)
	}

	for name, raw := range map[string]string{
		"landing":          c.Landing,
		"meetRoot":         c.MeetRoot,
		"defaultServerUrl": c.DefaultServerURL,
		"helpDocsUrl":      c.HelpDocsURL,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s is not a valid URL: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
		}
		if u.Host == "" {
			return fmt.Errorf("%s has no host: %q", name, raw)
		}
	}

	if c.ClickThroughShortcut == "" {
		return fmt.Errorf("clickThroughShortcut cannot be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	return nil
}

// AppHost is the host of the landing URL, stripped from deep-link paths
func (c *Config) AppHost() string {
	u, err := url.Parse(c.Landing)
	if err != nil {
		return ""
	}
	return u.Host
}

// MeetingOrigin is scheme://host of the meeting service
func (c *Config) MeetingOrigin() string {
	u, err := url.Parse(c.MeetRoot)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// IsAllowedHost reports whether host, or a parent domain of it, is allow-listed
func (c *Config) IsAllowedHost(host string) bool {
	host = strings.ToLower(host)
	if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	for _, allowed := range c.AllowedHosts {
		allowed = strings.ToLower(allowed)
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// IsProduction reports whether this is a packaged production build
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "sonacove.db"
	}
	return filepath.Join(dir, "Sonacove", "sonacove.db")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
