/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config represents the canvaslog configuration
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Log      Log      `yaml:"log"`
	Identity Identity `yaml:"identity"`
	Server   Server   `yaml:"server"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
}

// Log configures the canvas log file
type Log struct {
	File           string        `yaml:"file"` // Relative to DataDir unless absolute
	FsyncInterval  time.Duration `yaml:"fsync_interval"`
	BufferSize     int           `yaml:"buffer_size"`
	MaxPayloadSize int           `yaml:"max_payload_size"`
}

// Identity configures the identity table
type Identity struct {
	Dir string `yaml:"dir"` // Relative to DataDir unless absolute
}

// Server contains HTTP server configuration
type Server struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key"` // Required for writes; empty disables writes over HTTP
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Log: Log{
			File:           "canvas.log",
			FsyncInterval:  0,
			BufferSize:     4096,
			MaxPayloadSize: 16 << 20,
		},
		Identity: Identity{
			Dir: "identities",
		},
		Server: Server{
			Bind: "127.0.0.1",
			Port: 8080,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// LogPath returns the resolved path of the canvas log
func (c *Config) LogPath() string {
	return c.resolve(c.Log.File)
}

// IdentityPath returns the resolved directory of the identity table
func (c *Config) IdentityPath() string {
	return c.resolve(c.Identity.Dir)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// Validate reports every problem with the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.Log.File == "" {
		errs = append(errs, errors.New("log.file is required"))
	}
	if c.Log.FsyncInterval < 0 {
		errs = append(errs, errors.New("log.fsync_interval must not be negative"))
	}
	if c.Log.BufferSize < 0 {
		errs = append(errs, errors.New("log.buffer_size must not be negative"))
	}
	if c.Log.MaxPayloadSize < 0 || int64(c.Log.MaxPayloadSize) > math.MaxUint32 {
		errs = append(errs, fmt.Errorf("log.max_payload_size must be between 0 and %d", uint32(math.MaxUint32)))
	}
	if c.Identity.Dir == "" {
		errs = append(errs, errors.New("identity.dir is required"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			errs = append(errs, fmt.Errorf("logging.level: %w", err))
		}
	}

	return errors.Join(errs...)
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unset fields keep their defaults
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates and saves a new configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./canvaslog.yaml"
	}

	// For Linux/macOS, use ~/.config/canvaslog/config.yaml
	configDir := filepath.Join(homeDir, ".config", "canvaslog")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
