// Package config loads and saves the pooledlist YAML configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pooledlist/internal/shared/utils"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the on-disk configuration. Command line flags override it.
type Config struct {
	Pool   PoolConfig   `yaml:"pool"`
	List   ListConfig   `yaml:"list"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// PoolConfig controls pool sizing and trimming
type PoolConfig struct {
	// DefaultCapacity is the idle ceiling for prototypes without an explicit capacity
	DefaultCapacity int `yaml:"default_capacity"`
	// Capacities sets explicit idle ceilings by prototype name
	Capacities map[string]int `yaml:"capacities,omitempty"`
	// Warmup pre-builds this many instances of the list prototype at startup
	Warmup int `yaml:"warmup"`
	// TrimInterval is how often serve trims idle instances. Zero disables it.
	TrimInterval time.Duration `yaml:"trim_interval"`
}

// ListConfig describes the default list view
type ListConfig struct {
	Prototype      string  `yaml:"prototype"`
	ElementExtent  float64 `yaml:"element_extent"`
	ViewportExtent float64 `yaml:"viewport_extent"`
	Snap           string  `yaml:"snap"`
}

// ServerConfig holds settings for serve
type ServerConfig struct {
	Address        string        `yaml:"address"`
	MetricsAddress string        `yaml:"metrics_address,omitempty"`
	Domain         string        `yaml:"domain,omitempty"`
	CertCache      string        `yaml:"cert_cache,omitempty"`
	TickInterval   time.Duration `yaml:"tick_interval"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
	MaxSessions    int           `yaml:"max_sessions"`
}

// LogConfig selects the log level for serve
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Pool: PoolConfig{
			DefaultCapacity: 20,
			TrimInterval:    time.Minute,
		},
		List: ListConfig{
			Prototype:      "row",
			ElementExtent:  20,
			ViewportExtent: 200,
			Snap:           "none",
		},
		Server: ServerConfig{
			Address:        ":8080",
			MetricsAddress: ":9090",
			TickInterval:   16 * time.Millisecond,
			SessionTimeout: 90 * time.Second,
			MaxSessions:    256,
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultConfigPath returns ~/.pooledlist/config.yaml
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".pooledlist", "config.yaml")
	}
	return filepath.Join(home, ".pooledlist", "config.yaml")
}

func resolve(path string) string {
	if path == "" {
		return DefaultConfigPath()
	}
	return path
}

// ConfigExists reports whether a config file is present. Empty path means the default.
func ConfigExists(path string) bool {
	_, err := os.Stat(resolve(path))
	return err == nil
}

// Load reads the file at path over the defaults and validates the result
func Load(path string) (*Config, error) {
	path = resolve(path)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the user's own flag
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s, run 'pooledlist config init' first", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path if it exists and falls back to Default otherwise
func LoadOrDefault(path string) (*Config, error) {
	if !ConfigExists(path) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes cfg to path, creating the directory if needed
func Save(cfg *Config, path string) error {
	path = resolve(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks ranges and names
func (c *Config) Validate() error {
	var problems []string

	if c.Pool.DefaultCapacity < 0 {
		problems = append(problems, "pool.default_capacity must not be negative")
	}
	if c.Pool.Warmup < 0 {
		problems = append(problems, "pool.warmup must not be negative")
	}
	if c.Pool.TrimInterval < 0 {
		problems = append(problems, "pool.trim_interval must not be negative")
	}
	for name, capacity := range c.Pool.Capacities {
		if capacity < 0 {
			problems = append(problems, fmt.Sprintf("pool.capacities.%s must not be negative", name))
		}
		if !utils.ValidateName(name) {
			problems = append(problems, fmt.Sprintf("pool.capacities: invalid prototype name %q", name))
		}
	}

	switch {
	case !utils.ValidateName(c.List.Prototype):
		problems = append(problems, fmt.Sprintf("list.prototype: invalid name %q", c.List.Prototype))
	case utils.IsReserved(c.List.Prototype):
		problems = append(problems, fmt.Sprintf("list.prototype: %q is reserved", c.List.Prototype))
	}
	if !(c.List.ElementExtent > 0) {
		problems = append(problems, "list.element_extent must be positive")
	}
	if c.List.ViewportExtent < 0 {
		problems = append(problems, "list.viewport_extent must not be negative")
	}
	switch c.List.Snap {
	case "", "none", "items":
	default:
		problems = append(problems, fmt.Sprintf("list.snap: unknown mode %q", c.List.Snap))
	}

	if c.Server.Address == "" {
		problems = append(problems, "server.address is required")
	}
	if c.Server.TickInterval <= 0 {
		problems = append(problems, "server.tick_interval must be positive")
	}
	if c.Server.SessionTimeout <= 0 {
		problems = append(problems, "server.session_timeout must be positive")
	}
	if c.Server.MaxSessions <= 0 {
		problems = append(problems, "server.max_sessions must be positive")
	}

	if _, err := utils.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level: %v", err))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} with environment values
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		name, fallback, hasDefault := strings.Cut(content[start+2:end], ":-")
		value, ok := os.LookupEnv(name)
		if (!ok || value == "") && hasDefault {
			value = fallback
		}

		b.WriteString(content[:start])
		b.WriteString(value)
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
