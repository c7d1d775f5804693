// Package config loads livetl settings from a YAML file, LIVETL_* environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ZaguanLabs/livetl"
	"github.com/ZaguanLabs/livetl/provider"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// LIVETL_PROVIDER_API_KEY for provider.api_key.
const EnvPrefix = "LIVETL"

// Provider types.
const (
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"
	ProviderMock   = "mock"
)

// Config is the complete CLI configuration.
type Config struct {
	Provider    ProviderConfig    `mapstructure:"provider"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Retry       RetryConfig       `mapstructure:"retry"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Breaker     BreakerConfig     `mapstructure:"breaker"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Log         LogConfig         `mapstructure:"log"`
}

// ProviderConfig selects and configures the translation service.
type ProviderConfig struct {
	Type        string            `mapstructure:"type"`
	URL         string            `mapstructure:"url"`
	APIKey      string            `mapstructure:"api_key"`
	Model       string            `mapstructure:"model"`
	Temperature float64           `mapstructure:"temperature"`
	MaxTokens   int               `mapstructure:"max_tokens"`
	Headers     map[string]string `mapstructure:"headers"`
}

// EngineConfig holds pipeline tuning.
type EngineConfig struct {
	SourceLang    string        `mapstructure:"source_lang"`
	Roots         []string      `mapstructure:"roots"`
	BatchSize     int           `mapstructure:"batch_size"`
	Concurrency   int           `mapstructure:"concurrency"`
	BatchTimeout  time.Duration `mapstructure:"batch_timeout"`
	Debounce      time.Duration `mapstructure:"debounce"`
	Watchdog      time.Duration `mapstructure:"watchdog"`
	ApplyCooldown time.Duration `mapstructure:"apply_cooldown"`
	Context       string        `mapstructure:"context"`
	ExcludedTerms []string      `mapstructure:"excluded_terms"`
}

// RetryConfig mirrors livetl.RetryConfig.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
}

// RateLimitConfig limits requests to the service. Zero disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Failures    uint32        `mapstructure:"failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

// RedisConfig enables the Redis cache and session store when URL is set.
type RedisConfig struct {
	URL       string        `mapstructure:"url"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// PreferencesConfig locates the persisted language choice.
type PreferencesConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.type", ProviderOpenAI)
	v.SetDefault("provider.url", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", provider.DefaultOpenAIModel)
	v.SetDefault("provider.temperature", provider.DefaultTemperature)
	v.SetDefault("provider.max_tokens", provider.DefaultMaxOutputTokens)

	v.SetDefault("engine.source_lang", livetl.DefaultSourceLang)
	v.SetDefault("engine.roots", livetl.DefaultRoots)
	v.SetDefault("engine.batch_size", livetl.DefaultBatchSize)
	v.SetDefault("engine.concurrency", livetl.DefaultConcurrency)
	v.SetDefault("engine.batch_timeout", livetl.DefaultBatchTimeout)
	v.SetDefault("engine.debounce", livetl.DefaultDebounce)
	v.SetDefault("engine.watchdog", livetl.DefaultWatchdog)
	v.SetDefault("engine.apply_cooldown", livetl.DefaultApplyCooldown)
	v.SetDefault("engine.context", "")
	v.SetDefault("engine.excluded_terms", []string{})

	retry := livetl.DefaultRetryConfig()
	v.SetDefault("retry.max_retries", retry.MaxRetries)
	v.SetDefault("retry.base_delay", retry.BaseDelay)
	v.SetDefault("retry.max_delay", retry.MaxDelay)

	v.SetDefault("rate_limit.requests_per_minute", 0)
	v.SetDefault("rate_limit.burst", livetl.DefaultConcurrency)

	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.failures", 5)
	v.SetDefault("breaker.open_timeout", 30*time.Second)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.ttl", 24*time.Hour)
	v.SetDefault("redis.key_prefix", "livetl:")

	v.SetDefault("preferences.path", defaultPreferencesPath())
	v.SetDefault("log.level", "info")
}

func defaultPreferencesPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".livetl-prefs.yaml"
	}
	return filepath.Join(dir, "livetl", "preferences.yaml")
}

// Load reads the configuration. An empty path searches $HOME and the working
// directory for .livetl.yaml; a missing file there is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".livetl")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Provider.Type {
	case ProviderOpenAI, ProviderMock:
	case ProviderHTTP:
		if c.Provider.URL == "" {
			return errors.New("provider.url is required for the http provider")
		}
	default:
		return fmt.Errorf("unknown provider type %q", c.Provider.Type)
	}

	if c.Engine.SourceLang == "" {
		return errors.New("engine.source_lang must not be empty")
	}
	if len(c.Engine.Roots) == 0 {
		return errors.New("engine.roots must list at least one selector")
	}

	checks := []struct {
		name string
		ok   bool
	}{
		{"engine.batch_size", c.Engine.BatchSize > 0},
		{"engine.concurrency", c.Engine.Concurrency > 0},
		{"engine.batch_timeout", c.Engine.BatchTimeout > 0},
		{"engine.debounce", c.Engine.Debounce >= 0},
		{"engine.watchdog", c.Engine.Watchdog > c.Engine.Debounce},
		{"engine.apply_cooldown", c.Engine.ApplyCooldown >= 0},
		{"retry.max_retries", c.Retry.MaxRetries >= 0},
		{"rate_limit.requests_per_minute", c.RateLimit.RequestsPerMinute >= 0},
		{"provider.temperature", c.Provider.Temperature >= 0 && c.Provider.Temperature <= 2},
	}
	for _, check := range checks {
		if !check.ok {
			return fmt.Errorf("invalid value for %s", check.name)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// RetryPolicy converts the retry settings.
func (c *Config) RetryPolicy() livetl.RetryConfig {
	return livetl.RetryConfig{
		MaxRetries: c.Retry.MaxRetries,
		BaseDelay:  c.Retry.BaseDelay,
		MaxDelay:   c.Retry.MaxDelay,
	}
}

// EngineOptions converts the engine settings.
func (c *Config) EngineOptions() []livetl.EngineOption {
	opts := []livetl.EngineOption{
		livetl.WithSourceLang(c.Engine.SourceLang),
		livetl.WithRoots(c.Engine.Roots...),
		livetl.WithBatchSize(c.Engine.BatchSize),
		livetl.WithConcurrency(c.Engine.Concurrency),
		livetl.WithBatchTimeout(c.Engine.BatchTimeout),
		livetl.WithDebounce(c.Engine.Debounce),
		livetl.WithWatchdog(c.Engine.Watchdog),
		livetl.WithApplyCooldown(c.Engine.ApplyCooldown),
	}
	if c.Engine.Context != "" {
		opts = append(opts, livetl.WithContext(c.Engine.Context))
	}
	if len(c.Engine.ExcludedTerms) > 0 {
		opts = append(opts, livetl.WithExcludedTerms(c.Engine.ExcludedTerms...))
	}
	return opts
}
