package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DirName is the per-workspace state directory.
const DirName = ".profilegrid"

// Config holds all profilegrid configuration.
type Config struct {
	// Remote profile source
	API APIConfig `yaml:"api"`

	// Collection state manager timings
	Collection CollectionConfig `yaml:"collection"`

	// Infinite-scroll trigger
	Scroll ScrollConfig `yaml:"scroll"`

	// Durable key-value storage
	Storage StorageConfig `yaml:"storage"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the randomuser.me client.
type APIConfig struct {
	BaseURL        string `yaml:"base_url" validate:"required,url"`
	ResultsPerPage int    `yaml:"results_per_page" validate:"min=1,max=5000"`
	Timeout        string `yaml:"timeout" validate:"omitempty,duration"` // empty = transport default
	Seed           string `yaml:"seed"`
	UserAgent      string `yaml:"user_agent"`
	Proxy          string `yaml:"proxy" validate:"omitempty,url"`
	NoProxy        string `yaml:"no_proxy"`
}

// CollectionConfig configures the minimum visible durations of loading indicators.
type CollectionConfig struct {
	GenerateMinDuration   string `yaml:"generate_min_duration" validate:"omitempty,duration"`
	LoadMoreButtonMinWait string `yaml:"load_more_button_min_duration" validate:"omitempty,duration"`
	LoadMoreScrollMinWait string `yaml:"load_more_scroll_min_duration" validate:"omitempty,duration"`
}

// ScrollConfig configures the infinite-scroll trigger.
type ScrollConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Threshold int    `yaml:"threshold" validate:"min=0"`
	Throttle  string `yaml:"throttle" validate:"omitempty,duration"`
}

// StorageConfig selects and configures the durable KV backend.
type StorageConfig struct {
	Backend       string `yaml:"backend" validate:"oneof=sqlite redis memory"`
	Path          string `yaml:"path"` // relative paths resolve against the workspace state dir
	RedisAddr     string `yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"min=0"`
	KeyPrefix     string `yaml:"key_prefix"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://randomuser.me/api",
			ResultsPerPage: 3,
			UserAgent:      "profilegrid/1.0",
		},
		Collection: CollectionConfig{
			GenerateMinDuration:   "300ms",
			LoadMoreButtonMinWait: "300ms",
			LoadMoreScrollMinWait: "900ms",
		},
		Scroll: ScrollConfig{
			Enabled:   true,
			Threshold: 300,
			Throttle:  "150ms",
		},
		Storage: StorageConfig{
			Backend:   "sqlite",
			Path:      "profiles.db",
			RedisAddr: "localhost:6379",
			KeyPrefix: "profilegrid",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the config file location for a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, DirName, "config.yaml")
}

// LoadDotEnv loads a .env file from the workspace if one exists.
// Variables already present in the environment win.
func LoadDotEnv(workspace string) error {
	path := filepath.Join(workspace, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults; environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("PROFILEGRID_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if backend := os.Getenv("PROFILEGRID_STORAGE"); backend != "" {
		c.Storage.Backend = backend
	}
	if path := os.Getenv("PROFILEGRID_DB"); path != "" {
		c.Storage.Path = path
	}
	if addr := os.Getenv("PROFILEGRID_REDIS_ADDR"); addr != "" {
		c.Storage.RedisAddr = addr
	}
	if pw := os.Getenv("PROFILEGRID_REDIS_PASSWORD"); pw != "" {
		c.Storage.RedisPassword = pw
	}
	if debug := os.Getenv("PROFILEGRID_DEBUG"); debug != "" {
		if on, err := strconv.ParseBool(debug); err == nil {
			c.Logging.DebugMode = on
		}
	}
}

var validate = validator.New()

func init() {
	validate.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := time.ParseDuration(fl.Field().String())
		return err == nil
	})
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// StoragePath resolves the SQLite database path against the workspace state dir.
func (c *Config) StoragePath(workspace string) string {
	if filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(workspace, DirName, c.Storage.Path)
}

// LogsDir returns the log directory for a workspace.
func LogsDir(workspace string) string {
	return filepath.Join(workspace, DirName, "logs")
}

// GetAPITimeout returns the client timeout, zero meaning none.
func (c *Config) GetAPITimeout() time.Duration {
	return parseDuration(c.API.Timeout, 0)
}

// GetGenerateMinDuration returns the loading floor for single-profile generation.
func (c *Config) GetGenerateMinDuration() time.Duration {
	return parseDuration(c.Collection.GenerateMinDuration, 300*time.Millisecond)
}

// GetLoadMoreButtonMinDuration returns the loading floor for button-triggered appends.
func (c *Config) GetLoadMoreButtonMinDuration() time.Duration {
	return parseDuration(c.Collection.LoadMoreButtonMinWait, 300*time.Millisecond)
}

// GetLoadMoreScrollMinDuration returns the loading floor for scroll-triggered appends.
func (c *Config) GetLoadMoreScrollMinDuration() time.Duration {
	return parseDuration(c.Collection.LoadMoreScrollMinWait, 900*time.Millisecond)
}

// GetScrollThrottle returns the scroll evaluation throttle.
func (c *Config) GetScrollThrottle() time.Duration {
	return parseDuration(c.Scroll.Throttle, 150*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
