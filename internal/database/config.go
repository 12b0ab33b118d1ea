package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// parseBoolEnv reads an environment variable as a boolean.
// The second result reports whether the variable held a recognised value.
func parseBoolEnv(key string) (bool, bool) {
	value := os.Getenv(key)
	if value == "" {
		return false, false
	}
	if parsed, err := strconv.ParseBool(value); err == nil {
		return parsed, true
	}
	switch strings.ToLower(value) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// Config holds the SQLite options for the shell's local store
type Config struct {
	Path                  string        `json:"path"`                  // Database file path or ":memory:"
	MaxConnections        int           `json:"maxConnections"`        // Maximum number of open connections
	MaxIdleConns          int           `json:"maxIdleConns"`          // Maximum number of idle connections
	ConnMaxLifetime       time.Duration `json:"connMaxLifetime"`       // Maximum connection lifetime
	ConnMaxIdleTime       time.Duration `json:"connMaxIdleTime"`       // Maximum connection idle time
	ForceSingleConnection bool          `json:"forceSingleConnection"` // Force single connection mode

	AutoMigrate bool `json:"autoMigrate"` // Run embedded migrations on connect

	JournalMode     string `json:"journalMode"`     // WAL, DELETE, MEMORY ...
	SynchronousMode string `json:"synchronousMode"` // FULL, NORMAL, OFF
	CacheSize       int    `json:"cacheSize"`       // Cache size in KB
	BusyTimeout     int    `json:"busyTimeout"`     // Busy timeout in milliseconds
	ForeignKeys     bool   `json:"foreignKeys"`

	// Queued analytics events older than this are pruned (0 keeps everything)
	RetentionDays int `json:"retentionDays"`
}

// DefaultConfig returns the production settings for the database at path
func DefaultConfig(path string) *Config {
	return &Config{
		Path:            path,
		MaxConnections:  4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 24 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		AutoMigrate:     true,
		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		CacheSize:       2000,
		BusyTimeout:     5000,
		ForeignKeys:     true,
		RetentionDays:   30,
	}
}

// TestConfig returns an in-memory configuration for tests
func TestConfig() *Config {
	config := DefaultConfig(":memory:")
	// an in-memory database exists per connection, so keep exactly one
	config.ForceSingleConnection = true
	config.JournalMode = "MEMORY"
	config.SynchronousMode = "OFF"
	config.CacheSize = 1000
	config.BusyTimeout = 1000
	config.RetentionDays = 0
	return config
}

// LoadFromEnvironment applies SONACOVE_DB_* overrides
func (c *Config) LoadFromEnvironment() {
	if path := os.Getenv("SONACOVE_DB_PATH"); path != "" {
		c.Path = path
	}
	if maxConns := os.Getenv("SONACOVE_DB_MAX_CONNECTIONS"); maxConns != "" {
		if val, err := strconv.Atoi(maxConns); err == nil && val > 0 {
			c.MaxConnections = val
		}
	}
	if autoMigrate, present := parseBoolEnv("SONACOVE_DB_AUTO_MIGRATE"); present {
		c.AutoMigrate = autoMigrate
	}
	if journalMode := os.Getenv("SONACOVE_DB_JOURNAL_MODE"); journalMode != "" {
		c.JournalMode = journalMode
	}
	if busyTimeout := os.Getenv("SONACOVE_DB_BUSY_TIMEOUT"); busyTimeout != "" {
		if val, err := strconv.Atoi(busyTimeout); err == nil && val >= 0 {
			c.BusyTimeout = val
		}
	}
	if forceSingle, present := parseBoolEnv("SONACOVE_DB_FORCE_SINGLE_CONNECTION"); present {
		c.ForceSingleConnection = forceSingle
	}
	if retention := os.Getenv("SONACOVE_DB_RETENTION_DAYS"); retention != "" {
		if val, err := strconv.Atoi(retention); err == nil && val >= 0 {
			c.RetentionDays = val
		}
	}
}

// Validate checks the options and creates the parent directory of a file database
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if !c.IsInMemory() {
		dir := filepath.Dir(c.Path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	if c.MaxConnections <= 0 {
		return fmt.Errorf("maxConnections must be positive, got %d", c.MaxConnections)
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("maxIdleConns cannot be negative, got %d", c.MaxIdleConns)
	}
	if c.MaxIdleConns > c.MaxConnections {
		return fmt.Errorf("maxIdleConns (%d) cannot be greater than maxConnections (%d)", c.MaxIdleConns, c.MaxConnections)
	}

	journalModeValid := false
	for _, mode := range []string{"DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF"} {
		if strings.EqualFold(c.JournalMode, mode) {
			journalModeValid = true
			break
		}
	}
	if !journalModeValid {
		return fmt.Errorf("invalid journalMode: %s", c.JournalMode)
	}
	if c.IsInMemory() && strings.EqualFold(c.JournalMode, "WAL") {
		return fmt.Errorf("journalMode cannot be WAL when using in-memory database")
	}

	switch strings.ToUpper(c.SynchronousMode) {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("invalid synchronousMode: %s", c.SynchronousMode)
	}

	if c.CacheSize <= 0 {
		return fmt.Errorf("cacheSize must be positive, got %d", c.CacheSize)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("busyTimeout cannot be negative, got %d", c.BusyTimeout)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retentionDays cannot be negative, got %d", c.RetentionDays)
	}
	return nil
}

// GetConnectionString builds the go-sqlite3 DSN. Only "?" and "&" in the
// path are escaped so the query part parses.
func (c *Config) GetConnectionString() string {
	values := url.Values{}
	if c.ForeignKeys {
		values.Set("_foreign_keys", "on")
	} else {
		values.Set("_foreign_keys", "off")
	}
	values.Set("_journal_mode", c.JournalMode)
	values.Set("_synchronous", c.SynchronousMode)
	// negative so SQLite reads it as KB
	values.Set("_cache_size", strconv.Itoa(-c.CacheSize))
	values.Set("_busy_timeout", strconv.Itoa(c.BusyTimeout))

	path := c.Path
	if strings.ContainsAny(path, "?&") {
		path = strings.ReplaceAll(path, "?", "%3F")
		path = strings.ReplaceAll(path, "&", "%26")
	}
	return path + "?" + values.Encode()
}

// IsInMemory reports whether the database lives only in memory
func (c *Config) IsInMemory() bool {
	return c.Path == ":memory:"
}
