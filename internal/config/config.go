package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// Config describes the application level configuration loaded from json.
type Config struct {
	Auth   AuthConfig   `json:"auth"`
	Quota  QuotaConfig  `json:"quota"`
	Retry  RetryConfig  `json:"retry"`
	Drive  DriveConfig  `json:"drive"`
	Photos PhotosConfig `json:"photos"`
}

// AuthConfig locates the oauth client secret and the token cache.
type AuthConfig struct {
	ClientSecretFile string `json:"client_secret_file"`
	TokenDir         string `json:"token_dir"`
}

// QuotaConfig drives the shared token bucket for outbound API calls.
type QuotaConfig struct {
	RequestsPerMinute int `json:"requests_per_minute"`
	Burst             int `json:"burst"`
}

// RetryConfig controls the retry caller.
type RetryConfig struct {
	MaxAttempts int `json:"max_attempts"`
	BaseDelayMS int `json:"base_delay_ms"`
}

// DriveConfig holds listing options for the source service.
type DriveConfig struct {
	PageSize int64 `json:"page_size"`
}

// PhotosConfig holds listing options for the target service.
type PhotosConfig struct {
	PageSize int64 `json:"page_size"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Auth.TokenDir == "" {
		if dir, err := homedir.Expand("~/.driveflat"); err == nil {
			c.Auth.TokenDir = dir
		}
	}
	if c.Auth.ClientSecretFile == "" && c.Auth.TokenDir != "" {
		c.Auth.ClientSecretFile = filepath.Join(c.Auth.TokenDir, "client_secret.json")
	}
	if c.Quota.RequestsPerMinute <= 0 {
		c.Quota.RequestsPerMinute = 30
	}
	if c.Quota.Burst <= 0 {
		c.Quota.Burst = 10
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 4
	}
	if c.Retry.BaseDelayMS <= 0 {
		c.Retry.BaseDelayMS = 500
	}
	if c.Drive.PageSize <= 0 {
		c.Drive.PageSize = 100
	}
	if c.Photos.PageSize <= 0 {
		c.Photos.PageSize = 100
	}
}

// LoadFirst tries to load configuration from the given paths, returning
// the first successfully decoded configuration. When none of the paths
// exist the defaults are returned; any other read or decode failure is
// an error.
func LoadFirst(paths ...string) (*Config, error) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if expanded, err := homedir.Expand(path); err == nil {
			path = expanded
		}
		cfg, err := Load(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Default(), nil
}

// Load reads configuration from a single json file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}
