package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the hitflow configuration
type Config struct {
	BackendURL         string                    `json:"backendUrl,omitempty" yaml:"backendUrl,omitempty"`
	DeviceID           string                    `json:"deviceId,omitempty" yaml:"deviceId,omitempty"`
	DefaultEnvironment string                    `json:"defaultEnvironment,omitempty" yaml:"defaultEnvironment,omitempty"`
	Timeout            int                       `json:"timeout,omitempty" yaml:"timeout,omitempty"`       // milliseconds
	Retries            int                       `json:"retries,omitempty" yaml:"retries,omitempty"`       // default extra attempts per action
	RetryDelay         int                       `json:"retryDelay,omitempty" yaml:"retryDelay,omitempty"` // milliseconds
	ValidateSSL        *bool                     `json:"validateSSL,omitempty" yaml:"validateSSL,omitempty"`
	Proxy              string                    `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Headers            map[string]string         `json:"headers,omitempty" yaml:"headers,omitempty"` // Default headers for chain and bulk requests
	Screenshots        *bool                     `json:"screenshots,omitempty" yaml:"screenshots,omitempty"`
	Bulk               BulkConfig                `json:"bulk,omitempty" yaml:"bulk,omitempty"`
	Environments       map[string]map[string]any `json:"environments,omitempty" yaml:"environments,omitempty"`
	EnvFile            string                    `json:"envFile,omitempty" yaml:"envFile,omitempty"`
	Logger             LoggerConfig              `json:"logger,omitempty" yaml:"logger,omitempty"`
	HistoryPath        string                    `json:"historyPath,omitempty" yaml:"historyPath,omitempty"`
	Verbose            *bool                     `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor            *bool                     `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// BulkConfig holds defaults for bulk runs
type BulkConfig struct {
	Parallel      *bool   `json:"parallel,omitempty" yaml:"parallel,omitempty"`
	MaxConcurrent int     `json:"maxConcurrent,omitempty" yaml:"maxConcurrent,omitempty"`
	StopOnError   *bool   `json:"stopOnError,omitempty" yaml:"stopOnError,omitempty"`
	Delay         int     `json:"delay,omitempty" yaml:"delay,omitempty"`         // milliseconds
	RateLimit     float64 `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"` // requests per second, 0 = unlimited
}

// LoggerConfig configures structured logging
type LoggerConfig struct {
	Level      string `json:"level,omitempty" yaml:"level,omitempty"`
	Format     string `json:"format,omitempty" yaml:"format,omitempty"` // console or json
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSize    int    `json:"maxSize,omitempty" yaml:"maxSize,omitempty"` // megabytes
	MaxBackups int    `json:"maxBackups,omitempty" yaml:"maxBackups,omitempty"`
	MaxAge     int    `json:"maxAge,omitempty" yaml:"maxAge,omitempty"` // days
	Compress   bool   `json:"compress,omitempty" yaml:"compress,omitempty"`
}

// BoolPtr is exported version of boolPtr for external use
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetScreenshots returns whether failed actions capture a screenshot, defaulting to true
func (c *Config) GetScreenshots() bool {
	return getBool(c.Screenshots, true)
}

func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetParallel returns the bulk parallel setting, defaulting to false
func (b BulkConfig) GetParallel() bool {
	return getBool(b.Parallel, false)
}

// GetStopOnError returns the bulk stop-on-error setting, defaulting to false
func (b BulkConfig) GetStopOnError() bool {
	return getBool(b.StopOnError, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".hitflow.json",
	"hitflow.config.json",
	".hitflow.yaml",
	"hitflow.yaml",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return config, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.BackendURL != "" {
		result.BackendURL = other.BackendURL
	}
	if other.DeviceID != "" {
		result.DeviceID = other.DeviceID
	}
	if other.DefaultEnvironment != "" {
		result.DefaultEnvironment = other.DefaultEnvironment
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.Retries > 0 {
		result.Retries = other.Retries
	}
	if other.RetryDelay > 0 {
		result.RetryDelay = other.RetryDelay
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}
	if other.HistoryPath != "" {
		result.HistoryPath = other.HistoryPath
	}

	// Boolean flags - only override if explicitly set in other config
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Screenshots != nil {
		result.Screenshots = other.Screenshots
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	result.Bulk = c.Bulk.merge(other.Bulk)
	result.Logger = c.Logger.merge(other.Logger)

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	if len(other.Environments) > 0 {
		envs := make(map[string]map[string]any, len(c.Environments)+len(other.Environments))
		for k, v := range c.Environments {
			envs[k] = v
		}
		for k, v := range other.Environments {
			envs[k] = v
		}
		result.Environments = envs
	}

	return &result
}

func (b BulkConfig) merge(other BulkConfig) BulkConfig {
	if other.Parallel != nil {
		b.Parallel = other.Parallel
	}
	if other.MaxConcurrent > 0 {
		b.MaxConcurrent = other.MaxConcurrent
	}
	if other.StopOnError != nil {
		b.StopOnError = other.StopOnError
	}
	if other.Delay > 0 {
		b.Delay = other.Delay
	}
	if other.RateLimit > 0 {
		b.RateLimit = other.RateLimit
	}
	return b
}

func (l LoggerConfig) merge(other LoggerConfig) LoggerConfig {
	if other.Level != "" {
		l.Level = other.Level
	}
	if other.Format != "" {
		l.Format = other.Format
	}
	if other.File != "" {
		l.File = other.File
	}
	if other.MaxSize > 0 {
		l.MaxSize = other.MaxSize
	}
	if other.MaxBackups > 0 {
		l.MaxBackups = other.MaxBackups
	}
	if other.MaxAge > 0 {
		l.MaxAge = other.MaxAge
	}
	if other.Compress {
		l.Compress = true
	}
	return l
}

// SaveConfig saves the configuration to a file, as YAML when the path says so
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
