// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all service configuration.
type Config struct {
	Server  ServerConfig
	Render  RenderConfig
	Session SessionConfig
	LLM     LLMConfig
	Logging LogConfig
}

// ServerConfig holds the HTTP boundary configuration.
type ServerConfig struct {
	Addr      string `envconfig:"ADDR" default:":8080"`
	StaticDir string `envconfig:"STATIC_DIR" default:"./static"`
}

// RenderConfig holds the compilation engine configuration.
type RenderConfig struct {
	// TimeoutMS bounds a single compilation job, in milliseconds.
	TimeoutMS int `envconfig:"RENDER_TIMEOUT_MS" default:"120000"`
	// KernelDir is the versioned install location of the kernel
	// distribution.
	KernelDir string `envconfig:"KERNEL_DIR" default:"/usr/local/share/meshforge/openscad-wasm/2021.01"`
}

// Timeout returns the render deadline as a duration.
func (c RenderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// SessionConfig holds session persistence configuration.
type SessionConfig struct {
	DBPath string `envconfig:"SESSION_DB" default:"./meshforge.sqlite3"`
}

// LLMConfig holds the design-tool chat model configuration.
type LLMConfig struct {
	BaseURL string `envconfig:"LLM_BASE_URL" default:"https://api.openai.com/v1"`
	APIKey  string `envconfig:"LLM_API_KEY"`
	Model   string `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load reads configuration from MESHFORGE_-prefixed environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("meshforge", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}
