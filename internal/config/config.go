package config

import (
	"time"

	"seostrategy-go/pkg/logger"
	"seostrategy-go/pkg/session"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Session  session.Config `mapstructure:"session"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Logger   logger.Config  `mapstructure:"logger"`
}

type APIConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	AuthPath         string        `mapstructure:"auth_path"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	RateLimit        float64       `mapstructure:"rate_limit"`
	Burst            int           `mapstructure:"burst"`
	UserAgent        string        `mapstructure:"user_agent"`
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerReset     time.Duration `mapstructure:"breaker_reset"`
}

type AnalysisConfig struct {
	ProcessPath   string `mapstructure:"process_path"`
	BlueprintPath string `mapstructure:"blueprint_path"`
	DemoFallback  bool   `mapstructure:"demo_fallback"`
}

type Manager interface {
	// Load reads configPath, or searches the default locations when it is
	// empty. A missing default file is not an error.
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
	// Set overrides a key for subsequent loads, e.g. from a command line flag.
	Set(key string, value interface{})
	ConfigFileUsed() string
}
