// Copyright 2025 Arion Yau
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"samtv/internal/samsung"
)

const (
	DefaultConfigPath = "samtv.yml"
	minSecretLength   = 16
)

// Config represents the samtv configuration file
type Config struct {
	Remote  RemoteDefaults `yaml:"remote"`
	Server  ServerConfig   `yaml:"server"`
	Logging LoggingConfig  `yaml:"logging"`
	TVs     []TVConfig     `yaml:"tvs"`
}

// RemoteDefaults apply to every TV that does not override them
type RemoteDefaults struct {
	Port           int           `yaml:"port"`
	AppName        string        `yaml:"app_name"`
	KeyDelay       time.Duration `yaml:"key_delay"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// ServerConfig contains REST bridge settings
type ServerConfig struct {
	Address        string        `yaml:"address"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	NonceCacheSize int           `yaml:"nonce_cache_size"`
	NonceTTL       time.Duration `yaml:"nonce_ttl"`
	// HistoryDB is the SQLite file sends are recorded in; empty disables history
	HistoryDB string     `yaml:"history_db,omitempty"`
	Auth      AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig enables bearer token authentication on the REST bridge
type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret,omitempty"`
	Issuer      string        `yaml:"issuer,omitempty"`
	TokenExpiry time.Duration `yaml:"token_expiry,omitempty"`
}

// Enabled reports whether tokens are required
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// TVConfig describes one television
type TVConfig struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name,omitempty"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port,omitempty"`
	AppName string `yaml:"app_name,omitempty"`
	Default bool   `yaml:"default,omitempty"`
}

// NewDefaultConfig creates a configuration with example settings
func NewDefaultConfig() *Config {
	return &Config{
		Remote: RemoteDefaults{
			Port:           samsung.DefaultPort,
			AppName:        samsung.DefaultAppName,
			KeyDelay:       samsung.DefaultKeyDelay,
			ConnectTimeout: samsung.DefaultConnectTimeout,
		},
		Server: ServerConfig{
			Address:        ":8080",
			RequestTimeout: time.Minute,
			NonceCacheSize: 50,
			NonceTTL:       time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		TVs: []TVConfig{
			{
				ID:      "living-room",
				Name:    "Living room TV",
				Host:    "192.168.1.100",
				Default: true,
			},
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := NewDefaultConfig()
	config.TVs = nil
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, filepath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Remote.Port < 0 || c.Remote.Port > 65535 {
		return fmt.Errorf("remote.port is out of range")
	}
	if c.Remote.KeyDelay < 0 {
		return fmt.Errorf("remote.key_delay must not be negative")
	}
	if c.Server.NonceCacheSize < 0 {
		return fmt.Errorf("server.nonce_cache_size must not be negative")
	}
	if c.Server.Auth.Enabled() && len(c.Server.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("server.auth.jwt_secret must be at least %d characters", minSecretLength)
	}
	if c.Server.Auth.TokenExpiry < 0 {
		return fmt.Errorf("server.auth.token_expiry must not be negative")
	}

	if len(c.TVs) == 0 {
		return fmt.Errorf("at least one tv must be configured")
	}

	ids := make(map[string]bool)
	defaults := 0
	for i, tv := range c.TVs {
		if tv.ID == "" {
			return fmt.Errorf("tvs[%d].id is required", i)
		}
		if ids[tv.ID] {
			return fmt.Errorf("duplicate tv ID: %s", tv.ID)
		}
		ids[tv.ID] = true

		if tv.Host == "" {
			return fmt.Errorf("tvs[%d].host is required", i)
		}
		if tv.Port < 0 || tv.Port > 65535 {
			return fmt.Errorf("tvs[%d].port is out of range", i)
		}
		if tv.Default {
			defaults++
		}
	}

	if defaults > 1 {
		return fmt.Errorf("only one tv can be marked as default")
	}

	return nil
}

// TV returns the TV with the given ID
func (c *Config) TV(id string) (*TVConfig, error) {
	for i := range c.TVs {
		if c.TVs[i].ID == id {
			return &c.TVs[i], nil
		}
	}
	return nil, fmt.Errorf("tv with ID '%s' not found", id)
}

// DefaultTV returns the TV marked as default, or the first one
func (c *Config) DefaultTV() (*TVConfig, error) {
	if len(c.TVs) == 0 {
		return nil, fmt.Errorf("no tvs configured")
	}
	for i := range c.TVs {
		if c.TVs[i].Default {
			return &c.TVs[i], nil
		}
	}
	return &c.TVs[0], nil
}

// RemoteConfigFor merges the remote defaults with the TV's own settings
func (c *Config) RemoteConfigFor(tv TVConfig) samsung.RemoteConfig {
	rc := samsung.RemoteConfig{
		Host:           tv.Host,
		Port:           c.Remote.Port,
		AppName:        c.Remote.AppName,
		KeyDelay:       c.Remote.KeyDelay,
		ConnectTimeout: c.Remote.ConnectTimeout,
	}
	if tv.Port != 0 {
		rc.Port = tv.Port
	}
	if tv.AppName != "" {
		rc.AppName = tv.AppName
	}
	return rc
}
