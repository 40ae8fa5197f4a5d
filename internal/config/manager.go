package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "SEOSTRATEGY"
	configName = "seostrategy"
)

type manager struct {
	mu         sync.RWMutex
	config     *Config
	viper      *viper.Viper
	dotEnv     []string
	searchDirs []string
}

type Option func(*manager)

// WithDotEnv loads the given .env files before reading the environment.
// Variables already set in the process win.
func WithDotEnv(paths ...string) Option {
	return func(m *manager) {
		m.dotEnv = paths
	}
}

// WithSearchDirs replaces the directories searched when no config path is
// given.
func WithSearchDirs(dirs ...string) Option {
	return func(m *manager) {
		m.searchDirs = dirs
	}
}

func NewManager(opts ...Option) Manager {
	m := &manager{
		viper:      viper.New(),
		dotEnv:     []string{".env"},
		searchDirs: []string{".", DefaultDir()},
	}
	for _, opt := range opts {
		opt(m)
	}
	setDefaults(m.viper)
	return m
}

// DefaultDir is the per-user directory holding the config file and the
// persisted session.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, configName)
	}
	return "." + configName
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.auth_path", "/api/auth")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.max_retries", 0)
	v.SetDefault("api.retry_delay", 500*time.Millisecond)
	v.SetDefault("api.rate_limit", 0.0)
	v.SetDefault("api.burst", 1)
	v.SetDefault("api.user_agent", "")
	v.SetDefault("api.breaker_threshold", 3)
	v.SetDefault("api.breaker_reset", 30*time.Second)

	v.SetDefault("session.backend", "sqlite")
	v.SetDefault("session.path", DefaultDir())
	v.SetDefault("session.encryption_key", "")

	v.SetDefault("analysis.process_path", "/api/process")
	v.SetDefault("analysis.blueprint_path", "/api/blueprints/generate")
	v.SetDefault("analysis.demo_fallback", false)

	v.SetDefault("logger.level", "warn")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.time_format", "")
}

func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.loadDotEnv(); err != nil {
		return nil, err
	}
	m.setupViper(configPath)

	if err := m.read(configPath != ""); err != nil {
		return nil, err
	}
	return m.apply()
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}
	if err := m.read(m.viper.ConfigFileUsed() != ""); err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	_, err := m.apply()
	return err
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) Set(key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viper.Set(key, value)
}

func (m *manager) ConfigFileUsed() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viper.ConfigFileUsed()
}

func (m *manager) loadDotEnv() error {
	for _, path := range m.dotEnv {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

func (m *manager) setupViper(configPath string) {
	if configPath != "" {
		m.viper.SetConfigFile(configPath)
	} else {
		m.viper.SetConfigName(configName)
		for _, dir := range m.searchDirs {
			m.viper.AddConfigPath(dir)
		}
	}

	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()
}

func (m *manager) read(required bool) error {
	err := m.viper.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if !required && errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("failed to read config: %w", err)
}

func (m *manager) apply() (*Config, error) {
	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	m.config = &config
	return &config, nil
}

func validateConfig(config *Config) error {
	u, err := url.Parse(config.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", config.API.BaseURL)
	}
	if config.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if config.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries cannot be negative")
	}
	if config.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit cannot be negative")
	}
	if config.API.BreakerThreshold < 0 {
		return fmt.Errorf("api.breaker_threshold cannot be negative")
	}

	switch strings.ToLower(config.Session.Backend) {
	case "memory":
	case "file":
		if config.Session.EncryptionKey == "" {
			return fmt.Errorf("session.encryption_key is required for the file backend")
		}
		if config.Session.Path == "" {
			return fmt.Errorf("session.path cannot be empty")
		}
	case "sqlite":
		if config.Session.Path == "" {
			return fmt.Errorf("session.path cannot be empty")
		}
	default:
		return fmt.Errorf("unknown session.backend %q", config.Session.Backend)
	}

	switch config.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", config.Logger.Format)
	}
	return nil
}
