package sim

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config describes a simulated device and the host talking to it.
type Config struct {
	// DataDir holds the device and host records. Empty keeps everything in memory.
	DataDir string `yaml:"data_dir"`
	// Passphrase encrypts the records in DataDir.
	Passphrase string `yaml:"passphrase"`
	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level"`
	// AutoConfirm accepts every pairing code without asking.
	AutoConfirm bool `yaml:"auto_confirm"`
	// MaxSpins bounds how often the host polls for one response.
	MaxSpins int `yaml:"max_spins"`
}

// DefaultConfig returns the in-memory configuration.
func DefaultConfig() Config {
	return Config{
		Passphrase: "simulator",
		LogLevel:   "warn",
		MaxSpins:   1000,
	}
}

// LoadConfig overlays the YAML file at path onto the defaults. An empty path or a missing
// file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.DataDir != "" && c.Passphrase == "" {
		return errors.New("a passphrase is required with a data directory")
	}
	if c.MaxSpins <= 0 {
		return fmt.Errorf("max_spins must be positive, got %d", c.MaxSpins)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ApplyLogLevel configures the global logger.
func (c Config) ApplyLogLevel() error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	return nil
}
