package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the runtime's configuration.
type Config struct {
	// Standard-library bridge settings
	Stdlib struct {
		PreloadModules []string `toml:"preload_modules"`
	} `toml:"stdlib"`

	// Execution settings
	Execution struct {
		MaxSteps     uint64 `toml:"max_steps"`
		TraceEnabled bool   `toml:"trace_enabled"`
	} `toml:"execution"`

	// Debugger settings
	Debugger struct {
		HistorySize int  `toml:"history_size"`
		ShowLocals  bool `toml:"show_locals"`
		ShowStack   bool `toml:"show_stack"`
	} `toml:"debugger"`

	// API server settings
	API struct {
		Port              int `toml:"port"`
		ReadTimeoutSeconds int `toml:"read_timeout_seconds"`
	} `toml:"api"`
}

// DefaultConfig returns a configuration with default values. The default
// preload set contains exactly one module, "Generics" (spec §6.3).
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Stdlib.PreloadModules = []string{"Generics"}

	cfg.Execution.MaxSteps = 1000000
	cfg.Execution.TraceEnabled = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowLocals = true
	cfg.Debugger.ShowStack = true

	cfg.API.Port = 8089
	cfg.API.ReadTimeoutSeconds = 15

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "objectir")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "objectir")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file
// is not an error: it yields the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
