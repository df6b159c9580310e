package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Pool.DefaultCapacity = 8
	cfg.Pool.Capacities = map[string]int{"row": 32}
	cfg.Pool.TrimInterval = 30 * time.Second
	cfg.List.Snap = "items"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !ConfigExists(path) {
		t.Fatal("ConfigExists() = false after Save")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Pool.DefaultCapacity != 8 || got.Pool.Capacities["row"] != 32 {
		t.Errorf("pool = %+v", got.Pool)
	}
	if got.Pool.TrimInterval != 30*time.Second {
		t.Errorf("TrimInterval = %v, want 30s", got.Pool.TrimInterval)
	}
	if got.List.Snap != "items" {
		t.Errorf("Snap = %q", got.List.Snap)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("list:\n  viewport_extent: 640\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.List.ViewportExtent != 640 {
		t.Errorf("ViewportExtent = %v, want 640", cfg.List.ViewportExtent)
	}
	if cfg.List.ElementExtent != 20 || cfg.Server.Address != ":8080" {
		t.Errorf("unset fields should keep defaults, got %+v", cfg)
	}
}

func TestLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config init") {
		t.Errorf("Load(missing) error = %v", err)
	}

	cfg, err := LoadOrDefault(path)
	if err != nil || cfg.Pool.DefaultCapacity != 20 {
		t.Errorf("LoadOrDefault(missing) = %+v, %v", cfg, err)
	}
}

func TestEnvSubstitution(t *testing.T) {
	t.Setenv("POOLEDLIST_ADDR", ":7000")
	t.Setenv("POOLEDLIST_EMPTY", "")

	tests := []struct {
		in   string
		want string
	}{
		{"address: ${POOLEDLIST_ADDR}", "address: :7000"},
		{"a: ${POOLEDLIST_UNSET_VAR}", "a: "},
		{"a: ${POOLEDLIST_UNSET_VAR:-fallback}", "a: fallback"},
		{"a: ${POOLEDLIST_EMPTY:-fallback}", "a: fallback"},
		{"a: ${POOLEDLIST_ADDR:-fallback}", "a: :7000"},
		{"a: ${POOLEDLIST_ADDR} b: ${POOLEDLIST_ADDR}", "a: :7000 b: :7000"},
		{"a: ${UNTERMINATED", "a: ${UNTERMINATED"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := substituteEnvVars(tt.in); got != tt.want {
				t.Errorf("substituteEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("POOLEDLIST_CAP", "12")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("pool:\n  default_capacity: ${POOLEDLIST_CAP}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Pool.DefaultCapacity != 12 {
		t.Errorf("DefaultCapacity = %d, want 12", cfg.Pool.DefaultCapacity)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative capacity", func(c *Config) { c.Pool.DefaultCapacity = -1 }, "default_capacity"},
		{"negative warmup", func(c *Config) { c.Pool.Warmup = -5 }, "warmup"},
		{"negative per prototype", func(c *Config) { c.Pool.Capacities = map[string]int{"row": -2} }, "capacities.row"},
		{"bad prototype name", func(c *Config) { c.List.Prototype = "Row Item" }, "list.prototype"},
		{"reserved prototype", func(c *Config) { c.List.Prototype = "pool" }, "reserved"},
		{"zero extent", func(c *Config) { c.List.ElementExtent = 0 }, "element_extent"},
		{"unknown snap", func(c *Config) { c.List.Snap = "pixels" }, "list.snap"},
		{"no address", func(c *Config) { c.Server.Address = "" }, "server.address"},
		{"zero tick", func(c *Config) { c.Server.TickInterval = 0 }, "tick_interval"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if filepath.Base(path) != "config.yaml" || filepath.Base(filepath.Dir(path)) != ".pooledlist" {
		t.Errorf("DefaultConfigPath() = %q", path)
	}
}
