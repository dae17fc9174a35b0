// Package config provides configuration management for kbmouse.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"kbmouse/internal/binding"
	"kbmouse/internal/input"
	"kbmouse/internal/logging"
	"kbmouse/internal/motion"
)

// Config represents the application configuration
type Config struct {
	// General contains backend and device settings
	General GeneralConfig `yaml:"general"`

	// Logging controls the process logger
	Logging LoggingConfig `yaml:"logging"`

	// Physics holds the defaults restored when override keys are released
	Physics PhysicsConfig `yaml:"physics"`

	// Modifiers are forwarded to applications while the keyboard is grabbed
	Modifiers []string `yaml:"modifiers,flow"`

	// Bindings is the ordered key binding table
	Bindings []BindingConfig `yaml:"bindings"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// Backend selects the input backend ("x11" or "evdev")
	Backend string `yaml:"backend"`

	// Devices lists evdev keyboards to grab; empty grabs every keyboard
	Devices []string `yaml:"devices"`

	// ReleaseHeldKeys releases keys still down when the grab starts
	ReleaseHeldKeys bool `yaml:"release_held_keys"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PhysicsConfig contains the motion defaults
type PhysicsConfig struct {
	TickRate     uint    `yaml:"tick_rate"`
	Acceleration float64 `yaml:"acceleration"`
	Friction     float64 `yaml:"friction"`
	Speed        uint    `yaml:"speed"`
}

// PhysicsOverride is the payload of a physics binding
type PhysicsOverride struct {
	Friction     float64 `yaml:"friction"`
	Acceleration float64 `yaml:"acceleration"`
}

// BindingConfig is one binding entry. Exactly one action field is set.
type BindingConfig struct {
	Key     string           `yaml:"key"`
	Move    []int            `yaml:"move,omitempty,flow"`
	Scroll  []int            `yaml:"scroll,omitempty,flow"`
	Physics *PhysicsOverride `yaml:"physics,omitempty,flow"`
	Speed   *uint            `yaml:"speed,omitempty"`
	Button  *uint            `yaml:"button,omitempty"`
	Quit    *int             `yaml:"quit,omitempty"`
}

// DefaultConfig returns a new Config with the built-in bindings
func DefaultConfig() *Config {
	params := motion.DefaultParams()
	modifiers := binding.DefaultModifiers()
	names := make([]string, len(modifiers))
	for i, k := range modifiers {
		names[i] = binding.KeyName(k)
	}

	return &Config{
		General: GeneralConfig{
			Backend:         input.BackendX11,
			Devices:         []string{},
			ReleaseHeldKeys: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatAuto,
		},
		Physics: PhysicsConfig{
			TickRate:     params.TickRate,
			Acceleration: params.Acceleration,
			Friction:     params.Friction,
			Speed:        params.Speed,
		},
		Modifiers: names,
		Bindings:  FromTable(binding.DefaultTable()),
	}
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
}

// NewManager creates a configuration manager for the default path
func NewManager() (*Manager, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewManagerAt(configPath), nil
}

// NewManagerAt creates a configuration manager for an explicit path
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

// DefaultPath returns ~/.config/kbmouse/config.yaml, honoring XDG_CONFIG_HOME
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "kbmouse", "config.yaml"), nil
}

// Path returns the file the manager reads and writes
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. A missing file leaves the
// defaults in place.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		slog.Debug("Config: no file, using defaults", "path", m.configPath)
		return nil
	}
	if err != nil {
		return err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", m.configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", m.configPath, err)
	}
	m.config = cfg
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}

	slog.Info("Config: saving configuration", "path", m.configPath, "bytes", len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}
