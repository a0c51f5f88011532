// Package config loads the wavetiles settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the commands read from data/wavetiles.yaml.
type Config struct {
	Grid    GridConfig    `yaml:"grid"`
	Seed    int64         `yaml:"seed"`    // 0 picks a time-based seed
	Tileset string        `yaml:"tileset"` // built-in name or path to a tileset YAML
	Output  OutputConfig  `yaml:"output"`
	Storage StorageConfig `yaml:"storage"`
	Viewer  ViewerConfig  `yaml:"viewer"`
}

// GridConfig is the size of the generated grid.
type GridConfig struct {
	Columns int `yaml:"columns"`
	Rows    int `yaml:"rows"`
}

// OutputConfig controls what a batch run writes when it finishes.
type OutputConfig struct {
	ASCII      bool   `yaml:"ascii"`
	PNGPath    string `yaml:"png_path"`
	CellSize   int    `yaml:"cell_size"`
	ExportPath string `yaml:"export_path"`
}

// StorageConfig selects the run archive backend.
type StorageConfig struct {
	Enabled    bool           `yaml:"enabled"`
	Driver     string         `yaml:"driver"` // "sqlite" or "postgres"
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// ViewerConfig holds settings for the websocket viewer.
type ViewerConfig struct {
	Address string `yaml:"address"`

	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum inbound WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`

	// StepIntervalMS is the delay between steps while a client is running.
	StepIntervalMS int `yaml:"step_interval_ms"`

	// MaxConnections caps concurrent viewer connections. 0 means unlimited.
	MaxConnections int `yaml:"max_connections"`

	// MaxPerIP caps concurrent connections from one client address.
	MaxPerIP int `yaml:"max_per_ip"`
}

var ErrInvalidConfig = errors.New("config: invalid configuration")

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Grid:    GridConfig{Columns: 30, Rows: 30},
		Tileset: "circuit",
		Output: OutputConfig{
			ASCII:    true,
			CellSize: 24,
		},
		Storage: StorageConfig{
			Enabled:    true,
			Driver:     "sqlite",
			SQLitePath: "data/wavetiles.db",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "wavetiles",
				SSLMode:  "disable",
			},
		},
		Viewer: ViewerConfig{
			Address:        ":4443",
			AllowedOrigins: []string{}, // Same-origin only by default
			MaxMessageSize: 4096,
			StepIntervalMS: 16,
			MaxConnections: 16,
			MaxPerIP:       4,
		},
	}
}

// LoadConfig loads configuration from a YAML file. If the file doesn't exist
// the defaults are returned. Keys missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return DefaultConfig(), err
	}
	return config, nil
}

// Validate rejects settings no run can use.
func (c *Config) Validate() error {
	if c.Grid.Columns <= 0 || c.Grid.Rows <= 0 {
		return fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrInvalidConfig, c.Grid.Columns, c.Grid.Rows)
	}
	if strings.TrimSpace(c.Tileset) == "" {
		return fmt.Errorf("%w: tileset is empty", ErrInvalidConfig)
	}
	if c.Output.CellSize <= 0 {
		return fmt.Errorf("%w: output cell_size must be positive", ErrInvalidConfig)
	}
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Viewer.StepIntervalMS < 0 {
		return fmt.Errorf("%w: viewer step_interval_ms must not be negative", ErrInvalidConfig)
	}
	if c.Viewer.MaxConnections < 0 || c.Viewer.MaxPerIP < 0 {
		return fmt.Errorf("%w: viewer connection limits must not be negative", ErrInvalidConfig)
	}
	if c.Viewer.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: viewer max_message_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// StepInterval returns the viewer step delay as a duration.
func (c *ViewerConfig) StepInterval() time.Duration {
	return time.Duration(c.StepIntervalMS) * time.Millisecond
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *ViewerConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// isSameOrigin checks if the origin matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means a non-browser client
	}

	// "http://localhost:3000" -> "localhost:3000"
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
