package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	VATSIM    VATSIMConfig    `json:"vatsim"`
	Database  DatabaseConfig  `json:"database"`
	Logging   LoggingConfig   `json:"logging"`
	Collector CollectorConfig `json:"collector"`
	Board     BoardConfig     `json:"board"`
}

// VATSIMConfig contains network data service settings.
type VATSIMConfig struct {
	// StatusURL is the status directory listing the live data mirrors
	StatusURL string `json:"status_url"`

	// APIBaseURL is the historical REST API base URL
	APIBaseURL string `json:"api_base_url"`

	// StatsBaseURL is the base URL of member statistics pages
	StatsBaseURL string `json:"stats_base_url"`

	// TimeoutSeconds bounds each HTTP request.
	// 0 = no client timeout, rely on transport defaults and contexts
	TimeoutSeconds int `json:"timeout_seconds"`

	// RESTRequestsPerMinute paces calls to the historical API.
	// 0 = no pacing
	RESTRequestsPerMinute int `json:"rest_requests_per_minute"`

	// MirrorStrategy is "random" or "round-robin"
	MirrorStrategy string `json:"mirror_strategy"`

	// UserAgent is sent with every request
	UserAgent string `json:"user_agent"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Driver is the database/sql driver: "postgres" (lib/pq) or "pgx" (jackc/pgx)
	Driver string `json:"driver"`

	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level"`

	// Format is "text" or "json"
	Format string `json:"format"`

	// File, if set, receives logs through a rotating writer instead of stderr
	File string `json:"file,omitempty"`

	// MaxSizeMB is the size at which the log file is rotated
	MaxSizeMB int `json:"max_size_mb"`

	// MaxBackups is the number of rotated files kept
	MaxBackups int `json:"max_backups"`

	// AddSource includes file:line in log records
	AddSource bool `json:"add_source"`
}

// CollectorConfig controls the polling collector service.
type CollectorConfig struct {
	// IntervalSeconds is the time between polls (the live feed refreshes every ~15s)
	IntervalSeconds int `json:"interval_seconds"`

	// Airports lists the ICAO codes whose surroundings are recorded
	Airports []string `json:"airports"`

	// RadiusNM is the recording radius around each airport
	RadiusNM int `json:"radius_nm"`

	// RetentionHours is how long observations are kept
	RetentionHours int `json:"retention_hours"`

	// ListenAddr is the HTTP API and metrics bind address
	ListenAddr string `json:"listen_addr"`

	// AllowedOrigins lists CORS origins for the HTTP API
	AllowedOrigins []string `json:"allowed_origins"`
}

// BoardConfig controls the terminal proximity board.
type BoardConfig struct {
	// Airport is the ICAO code at the centre of the board
	Airport string `json:"airport"`

	// RadiusNM is the board radius
	RadiusNM int `json:"radius_nm"`

	// RefreshSeconds is the time between refreshes
	RefreshSeconds int `json:"refresh_seconds"`
}

// Timeout returns the configured request timeout. Zero means none.
func (v VATSIMConfig) Timeout() time.Duration {
	return time.Duration(v.TimeoutSeconds) * time.Second
}

// Interval returns the poll interval.
func (c CollectorConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Retention returns how long observations are kept.
func (c CollectorConfig) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
// Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		VATSIM: VATSIMConfig{
			StatusURL:             "https://status.vatsim.net/status.json",
			APIBaseURL:            "https://api.vatsim.net/api",
			StatsBaseURL:          "https://stats.vatsim.net/stats",
			TimeoutSeconds:        0,
			RESTRequestsPerMinute: 0,
			MirrorStrategy:        "random",
		},
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			Database:     "vatsimscope",
			Username:     "vatsimscope",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
		Collector: CollectorConfig{
			IntervalSeconds: 15,
			Airports:        []string{"KSAN", "KLAX"},
			RadiusNM:        50,
			RetentionHours:  24,
			ListenAddr:      ":8080",
			AllowedOrigins:  []string{"*"},
		},
		Board: BoardConfig{
			Airport:        "KSAN",
			RadiusNM:       50,
			RefreshSeconds: 15,
		},
	}
}

// Validate checks the configuration for values the programs cannot use.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.VATSIM.MirrorStrategy) {
	case "", "random", "round-robin":
	default:
		errs = append(errs, fmt.Errorf("vatsim.mirror_strategy: unknown strategy %q", c.VATSIM.MirrorStrategy))
	}
	if c.VATSIM.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("vatsim.timeout_seconds: must not be negative"))
	}
	if c.VATSIM.RESTRequestsPerMinute < 0 {
		errs = append(errs, errors.New("vatsim.rest_requests_per_minute: must not be negative"))
	}

	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver))
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}

	if c.Collector.IntervalSeconds <= 0 {
		errs = append(errs, errors.New("collector.interval_seconds: must be positive"))
	}
	if c.Collector.RadiusNM <= 0 {
		errs = append(errs, errors.New("collector.radius_nm: must be positive"))
	}
	if c.Board.RadiusNM <= 0 {
		errs = append(errs, errors.New("board.radius_nm: must be positive"))
	}

	return errors.Join(errs...)
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows sensitive data like passwords to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if statusURL := os.Getenv("VATSIM_SCOPE_STATUS_URL"); statusURL != "" {
		c.VATSIM.StatusURL = statusURL
	}
	if apiURL := os.Getenv("VATSIM_SCOPE_API_URL"); apiURL != "" {
		c.VATSIM.APIBaseURL = apiURL
	}
	if dbPassword := os.Getenv("VATSIM_SCOPE_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if level := os.Getenv("VATSIM_SCOPE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("VATSIM_SCOPE_METRICS_ADDR"); addr != "" {
		c.Collector.ListenAddr = addr
	}
}
