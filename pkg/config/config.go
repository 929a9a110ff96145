package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NeuralTrust/SafeFacts/pkg/infra/inflight"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
	Guard     GuardConfig     `mapstructure:"guard"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type GeneratorConfig struct {
	Provider           string                 `mapstructure:"provider"`
	Model              string                 `mapstructure:"model"`
	APIKey             string                 `mapstructure:"api_key"`
	BaseURL            string                 `mapstructure:"base_url"`
	MaxTokens          int                    `mapstructure:"max_tokens"`
	Temperature        float64                `mapstructure:"temperature"`
	Timeout            time.Duration          `mapstructure:"timeout"`
	ExplanationTimeout time.Duration          `mapstructure:"explanation_timeout"`
	Options            map[string]interface{} `mapstructure:"options"`
}

type MaxAgeConfig struct {
	Child    int `mapstructure:"child"`
	Teenager int `mapstructure:"teenager"`
	Adult    int `mapstructure:"adult"`
}

type PolicyConfig struct {
	MaxAge           MaxAgeConfig `mapstructure:"max_age"`
	UnknownRatingAge int          `mapstructure:"unknown_rating_age"`
	PostFilterAdult  bool         `mapstructure:"post_filter_adult"`
	ExtraKeywords    []string     `mapstructure:"extra_keywords"`
	MaxTitleLength   int          `mapstructure:"max_title_length"`
}

type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type GuardConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

var globalConfig Config

// Load reads config.yaml from configPath, ./config or the working directory.
// A missing file is not an error: defaults and environment variables apply.
func Load(configPath string) error {
	cfg, err := LoadFrom(viper.New(), configPath)
	if err != nil {
		return err
	}
	globalConfig = *cfg
	return nil
}

func LoadFrom(v *viper.Viper, configPath string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaultValues(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file config.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Defaults are registered for every key so AutomaticEnv can override them.
func setDefaultValues(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.body_limit", 16*1024)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("generator.provider", "openai")
	v.SetDefault("generator.model", "gpt-4o-mini")
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.base_url", "")
	v.SetDefault("generator.max_tokens", 400)
	v.SetDefault("generator.temperature", 0.2)
	v.SetDefault("generator.timeout", 30*time.Second)
	v.SetDefault("generator.explanation_timeout", 5*time.Second)

	v.SetDefault("policy.max_age.child", 12)
	v.SetDefault("policy.max_age.teenager", 17)
	v.SetDefault("policy.max_age.adult", 99)
	v.SetDefault("policy.unknown_rating_age", 18)
	v.SetDefault("policy.post_filter_adult", false)
	v.SetDefault("policy.extra_keywords", []string{})
	v.SetDefault("policy.max_title_length", 200)

	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.timeout", 30*time.Second)

	v.SetDefault("guard.backend", inflight.BackendMemory)
	v.SetDefault("guard.ttl", 60*time.Second)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.tls", false)
}

func (c *Config) Validate() error {
	if c.Generator.Provider == "" {
		return fmt.Errorf("generator.provider is required")
	}
	if c.Generator.Timeout <= 0 {
		return fmt.Errorf("generator.timeout must be positive")
	}
	switch c.Guard.Backend {
	case inflight.BackendMemory, inflight.BackendRedis:
	default:
		return fmt.Errorf("unsupported guard backend: %s", c.Guard.Backend)
	}
	if c.Guard.Backend == inflight.BackendRedis {
		// A key that expires mid-call would admit a second call for the session.
		callBudget := c.Generator.Timeout + c.Generator.ExplanationTimeout
		if c.Guard.TTL <= callBudget {
			return fmt.Errorf("guard.ttl (%s) must exceed generator.timeout + generator.explanation_timeout (%s)",
				c.Guard.TTL, callBudget)
		}
	}
	if c.Policy.MaxTitleLength <= 0 {
		return fmt.Errorf("policy.max_title_length must be positive")
	}
	if c.Policy.UnknownRatingAge <= 0 {
		return fmt.Errorf("policy.unknown_rating_age must be positive")
	}
	return nil
}

// ProviderConfig is the per-call configuration handed to the provider client.
func (g GeneratorConfig) ProviderConfig() *providers.Config {
	return &providers.Config{
		Credentials: providers.Credentials{ApiKey: g.APIKey},
		Model:       g.Model,
		MaxTokens:   g.MaxTokens,
		Temperature: g.Temperature,
		BaseURL:     g.BaseURL,
		Options:     g.Options,
	}
}

func GetConfig() *Config {
	return &globalConfig
}
