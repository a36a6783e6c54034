// Package config loads the multicrypto YAML configuration. Command line flags
// override the values read here.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/pkg/logging"
)

// FileName is the default config file name inside the data directory.
const FileName = "config.yaml"

// Config is the complete configuration.
type Config struct {
	// DataDir holds the history database and, by default, this file.
	DataDir string `yaml:"data_dir"`

	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	Explorer ExplorerConfig `yaml:"explorer"`
	Send     SendConfig     `yaml:"send"`
	Vanity   VanityConfig   `yaml:"vanity"`

	// Coins overrides per-coin settings, keyed by symbol.
	Coins map[string]CoinConfig `yaml:"coins,omitempty"`
}

// StorageConfig configures the history database.
type StorageConfig struct {
	File string `yaml:"file"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	TimeFormat string `yaml:"time_format"`
}

// ExplorerConfig configures the explorer HTTP client.
type ExplorerConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// SendConfig holds the defaults of send and sweep.
type SendConfig struct {
	Fee       uint64 `yaml:"fee"`        // satoshis per transaction
	BatchSize int    `yaml:"batch_size"` // inputs per sweep transaction
}

// VanityConfig configures the vanity search.
type VanityConfig struct {
	Workers       int    `yaml:"workers"`
	ProgressEvery uint64 `yaml:"progress_every"`
	QRDir         string `yaml:"qr_dir"`
}

// CoinConfig overrides the built-in parameters of one coin.
type CoinConfig struct {
	APIs []string `yaml:"apis"`
	// Explorer is the API flavour of APIs: "insight" (default) or "blockbook".
	Explorer string `yaml:"explorer,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "~/.multicrypto",
		Storage: StorageConfig{
			File: "multicrypto.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			TimeFormat: time.TimeOnly,
		},
		Explorer: ExplorerConfig{
			Timeout: 30 * time.Second,
		},
		Send: SendConfig{
			Fee:       10000,
			BatchSize: 50,
		},
		Vanity: VanityConfig{
			Workers:       runtime.NumCPU(),
			ProgressEvery: 10_000_000,
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(expandPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and coin symbols.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is empty")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	if c.Explorer.Timeout <= 0 {
		return fmt.Errorf("explorer timeout must be positive")
	}
	if c.Send.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.Vanity.Workers < 0 {
		return fmt.Errorf("vanity workers must not be negative")
	}
	for symbol, coin := range c.Coins {
		if !chain.Default().IsSupported(symbol) {
			return fmt.Errorf("coin %s is not supported", symbol)
		}
		switch coin.Explorer {
		case "", "insight":
		case "blockbook":
			if len(coin.APIs) == 0 {
				return fmt.Errorf("coin %s: blockbook explorer needs apis", symbol)
			}
		default:
			return fmt.Errorf("coin %s: unknown explorer %q", symbol, coin.Explorer)
		}
	}
	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# multicrypto configuration\n\n")
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Chains returns base with the explorer overrides applied.
func (c *Config) Chains(base *chain.Registry) (*chain.Registry, error) {
	if len(c.Coins) == 0 {
		return base, nil
	}
	overrides := make(map[string][]string, len(c.Coins))
	for symbol, coin := range c.Coins {
		if len(coin.APIs) > 0 {
			overrides[symbol] = coin.APIs
		}
	}
	return base.WithAPIs(overrides)
}

// LoggerConfig returns the logger configuration.
func (c *Config) LoggerConfig() *logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	if c.Logging.TimeFormat != "" {
		cfg.TimeFormat = c.Logging.TimeFormat
	}
	return cfg
}

// DataPath returns the expanded data directory.
func (c *Config) DataPath() string {
	return expandPath(c.DataDir)
}

// Path returns the full path to the config file for the given data directory.
func Path(dataDir string) string {
	return filepath.Join(expandPath(dataDir), FileName)
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
