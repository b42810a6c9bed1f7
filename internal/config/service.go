package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ServiceConfig represents the optional runtime configuration for the triage
// service. All fields are pointers so a partial JSON file only overrides the
// values it names; everything else keeps its default.
type ServiceConfig struct {
	// Prediction params
	TopK          *int `json:"top_k,omitempty"`
	FollowUpLimit *int `json:"follow_up_limit,omitempty"`

	// Auth params
	TokenTTL          *string `json:"token_ttl,omitempty"` // duration string like "720h"
	MinPasswordLength *int    `json:"min_password_length,omitempty"`

	// HTTP server params
	ReadTimeout     *string `json:"read_timeout,omitempty"`
	WriteTimeout    *string `json:"write_timeout,omitempty"`
	ShutdownTimeout *string `json:"shutdown_timeout,omitempty"`

	// Logging params
	Verbose *bool `json:"verbose,omitempty"`
}

// EmptyServiceConfig returns a ServiceConfig with all fields set to nil, so
// every accessor reports its default.
func EmptyServiceConfig() *ServiceConfig {
	return &ServiceConfig{}
}

// LoadServiceConfig loads a ServiceConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields omitted
// from the JSON retain their defaults, so partial configs are safe.
func LoadServiceConfig(path string) (*ServiceConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyServiceConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ServiceConfig) Validate() error {
	if c.TopK != nil && *c.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1, got %d", *c.TopK)
	}

	if c.FollowUpLimit != nil && *c.FollowUpLimit < 0 {
		return fmt.Errorf("follow_up_limit must be non-negative, got %d", *c.FollowUpLimit)
	}

	if c.MinPasswordLength != nil && *c.MinPasswordLength < 1 {
		return fmt.Errorf("min_password_length must be at least 1, got %d", *c.MinPasswordLength)
	}

	for name, v := range map[string]*string{
		"token_ttl":        c.TokenTTL,
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		if v != nil && *v != "" {
			if _, err := time.ParseDuration(*v); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
			}
		}
	}

	return nil
}

// GetTopK returns the top_k value or the default.
func (c *ServiceConfig) GetTopK() int {
	if c.TopK == nil {
		return 3 // default
	}
	return *c.TopK
}

// GetFollowUpLimit returns the follow_up_limit value or the default.
func (c *ServiceConfig) GetFollowUpLimit() int {
	if c.FollowUpLimit == nil {
		return 5 // default
	}
	return *c.FollowUpLimit
}

// GetTokenTTL parses and returns the TokenTTL as a time.Duration.
func (c *ServiceConfig) GetTokenTTL() time.Duration {
	return c.duration(c.TokenTTL, 30*24*time.Hour)
}

// GetMinPasswordLength returns the min_password_length value or the default.
func (c *ServiceConfig) GetMinPasswordLength() int {
	if c.MinPasswordLength == nil {
		return 8 // default
	}
	return *c.MinPasswordLength
}

// GetReadTimeout parses and returns the ReadTimeout as a time.Duration.
func (c *ServiceConfig) GetReadTimeout() time.Duration {
	return c.duration(c.ReadTimeout, 10*time.Second)
}

// GetWriteTimeout parses and returns the WriteTimeout as a time.Duration.
func (c *ServiceConfig) GetWriteTimeout() time.Duration {
	return c.duration(c.WriteTimeout, 30*time.Second)
}

// GetShutdownTimeout parses and returns the ShutdownTimeout as a time.Duration.
func (c *ServiceConfig) GetShutdownTimeout() time.Duration {
	return c.duration(c.ShutdownTimeout, 5*time.Second)
}

// GetVerbose returns the verbose value or the default.
func (c *ServiceConfig) GetVerbose() bool {
	if c.Verbose == nil {
		return false
	}
	return *c.Verbose
}

func (c *ServiceConfig) duration(v *string, fallback time.Duration) time.Duration {
	if v == nil || *v == "" {
		return fallback
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fallback
	}
	return d
}
