// Package config loads the daemon configuration from YAML with environment
// overrides. Missing files and fields fall back to defaults; a config file is
// never required to start.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/freighterhq/freighter/crypto"
	"github.com/freighterhq/freighter/session"
)

// Config is the resolved daemon configuration.
type Config struct {
	ListenAddr    string        `yaml:"listenAddr"`
	DataDir       string        `yaml:"dataDir"`
	SessionTTL    time.Duration `yaml:"sessionTTL"`
	CheckInterval time.Duration `yaml:"checkInterval"`
	KDFProfile    string        `yaml:"kdfProfile"`
	LogLevel      string        `yaml:"logLevel"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		ListenAddr:    ":8480",
		DataDir:       "./data",
		SessionTTL:    session.DefaultTTL,
		CheckInterval: 30 * time.Second,
		KDFProfile:    crypto.KDFProfileModerate,
		LogLevel:      "info",
	}
}

// Load reads path (optional), merges it over the defaults, and applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config: %w", err)
			}
		} else {
			var parsed Config
			if err := yaml.Unmarshal(data, &parsed); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
			merge(&cfg, parsed)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the resolved values before the daemon starts.
func (c Config) Validate() error {
	if c.SessionTTL < session.MinTTL {
		return fmt.Errorf("sessionTTL %s below minimum %s", c.SessionTTL, session.MinTTL)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("checkInterval must be positive, got %s", c.CheckInterval)
	}
	if _, err := crypto.PBKDF2Profile(c.KDFProfile); err != nil {
		return err
	}
	return nil
}

// KDFParams resolves the configured profile name.
func (c Config) KDFParams() (crypto.PBKDF2Params, error) {
	return crypto.PBKDF2Profile(c.KDFProfile)
}

func merge(dst *Config, src Config) {
	if src.ListenAddr != "" {
		dst.ListenAddr = src.ListenAddr
	}
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.SessionTTL != 0 {
		dst.SessionTTL = src.SessionTTL
	}
	if src.CheckInterval != 0 {
		dst.CheckInterval = src.CheckInterval
	}
	if src.KDFProfile != "" {
		dst.KDFProfile = src.KDFProfile
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FREIGHTER_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("FREIGHTER_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FREIGHTER_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SessionTTL = d
		}
	}
	if v := os.Getenv("FREIGHTER_CHECK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CheckInterval = d
		}
	}
	if v := os.Getenv("FREIGHTER_KDF_PROFILE"); v != "" {
		cfg.KDFProfile = v
	}
	if v := os.Getenv("FREIGHTER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
