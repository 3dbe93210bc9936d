// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Serper    SerperConfig    `yaml:"serper" mapstructure:"serper"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Outreach  OutreachConfig  `yaml:"outreach" mapstructure:"outreach"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Workspace WorkspaceConfig `yaml:"workspace" mapstructure:"workspace"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SerperConfig holds Serper search API settings.
type SerperConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	CountryCode  string `yaml:"gl" mapstructure:"gl"`
	LanguageCode string `yaml:"hl" mapstructure:"hl"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
}

// SearchConfig configures the query fan-out behavior.
type SearchConfig struct {
	// MinDelayMs and MaxDelayMs bound the randomized pause between
	// consecutive Serper calls.
	MinDelayMs int `yaml:"min_delay_ms" mapstructure:"min_delay_ms"`
	MaxDelayMs int `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	// ProviderRateLimit caps Serper requests per second across the process.
	ProviderRateLimit float64 `yaml:"provider_rate_limit" mapstructure:"provider_rate_limit"`
}

// OutreachConfig configures copy generation.
type OutreachConfig struct {
	// Workers is the fixed size of the enrichment worker pool.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// Temperature is passed to the generative oracle.
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// RateLimitConfig configures the per-actor admission window.
type RateLimitConfig struct {
	WindowSecs  int `yaml:"window_secs" mapstructure:"window_secs"`
	MaxRequests int `yaml:"max_requests" mapstructure:"max_requests"`
}

// WorkspaceConfig identifies the tenant rows are written under.
type WorkspaceConfig struct {
	ID string `yaml:"id" mapstructure:"id"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "prospects.db")
	v.SetDefault("serper.key", "")
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.gl", "mx")
	v.SetDefault("serper.hl", "es")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("search.min_delay_ms", 150)
	v.SetDefault("search.max_delay_ms", 350)
	v.SetDefault("search.provider_rate_limit", 5)
	v.SetDefault("outreach.workers", 4)
	v.SetDefault("outreach.temperature", 0.75)
	v.SetDefault("rate_limit.window_secs", 60)
	v.SetDefault("rate_limit.max_requests", 5)
	v.SetDefault("workspace.id", "default")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
