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
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	OpenAI      ProviderConfig    `yaml:"openai" mapstructure:"openai"`
	Gemini      ProviderConfig    `yaml:"gemini" mapstructure:"gemini"`
	Anthropic   ProviderConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity  ProviderConfig    `yaml:"perplexity" mapstructure:"perplexity"`
	Mistral     ProviderConfig    `yaml:"mistral" mapstructure:"mistral"`
	Providers   ProvidersConfig   `yaml:"providers" mapstructure:"providers"`
	Analysis    AnalysisConfig    `yaml:"analysis" mapstructure:"analysis"`
	Standardize StandardizeConfig `yaml:"standardize" mapstructure:"standardize"`
	Batch       BatchConfig       `yaml:"batch" mapstructure:"batch"`
	Schedule    ScheduleConfig    `yaml:"schedule" mapstructure:"schedule"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ProviderConfig holds one LLM back-end's credentials and model override.
type ProviderConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// ProvidersConfig points at the provider registry file.
type ProvidersConfig struct {
	Registry string `yaml:"registry" mapstructure:"registry"`
}

// AnalysisConfig tunes run shape and pacing.
type AnalysisConfig struct {
	AttemptsPerQuery int     `yaml:"attempts_per_query" mapstructure:"attempts_per_query"`
	RequestedCount   int     `yaml:"requested_count" mapstructure:"requested_count"`
	CallTimeoutSecs  int     `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
	AttemptsPerSec   float64 `yaml:"attempts_per_sec" mapstructure:"attempts_per_sec"`
	ProviderDelayMs  int     `yaml:"provider_delay_ms" mapstructure:"provider_delay_ms"`
}

// StandardizeConfig configures the secondary name-standardization pass.
type StandardizeConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Provider string `yaml:"provider" mapstructure:"provider"`
	Model    string `yaml:"model" mapstructure:"model"`
}

// BatchConfig configures multi-business batch runs.
type BatchConfig struct {
	MaxConcurrentBusinesses int `yaml:"max_concurrent_businesses" mapstructure:"max_concurrent_businesses"`
}

// ScheduleConfig configures recurring runs.
type ScheduleConfig struct {
	Cron string `yaml:"cron" mapstructure:"cron"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("RANKLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "ranklens.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("mistral.base_url", "https://api.mistral.ai/v1")
	v.SetDefault("mistral.model", "mistral-small-latest")
	v.SetDefault("providers.registry", "providers.yaml")
	v.SetDefault("analysis.attempts_per_query", 10)
	v.SetDefault("analysis.requested_count", 10)
	v.SetDefault("analysis.call_timeout_secs", 60)
	v.SetDefault("analysis.attempts_per_sec", 1.0)
	v.SetDefault("analysis.provider_delay_ms", 2000)
	v.SetDefault("standardize.enabled", true)
	v.SetDefault("standardize.provider", "openai")
	v.SetDefault("standardize.model", "gpt-4o-mini")
	v.SetDefault("batch.max_concurrent_businesses", 3)
	v.SetDefault("schedule.cron", "0 6 * * *")

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

// Validate checks the configuration for a given command mode and returns an
// aggregated error listing every problem found.
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "run", "batch", "schedule", "aggregate", "export":
		check(c.Store.DatabaseURL != "", "store.database_url is required")
	case "serve":
		check(c.Store.DatabaseURL != "", "store.database_url is required")
		check(c.Server.Port > 0, "server.port must be > 0")
	case "init":
		check(c.Store.DatabaseURL != "", "store.database_url is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	check(c.Analysis.AttemptsPerQuery >= 1 && c.Analysis.AttemptsPerQuery <= 100,
		"analysis.attempts_per_query must be between 1 and 100")
	check(c.Analysis.RequestedCount >= 1 && c.Analysis.RequestedCount <= 50,
		"analysis.requested_count must be between 1 and 50")
	check(c.Batch.MaxConcurrentBusinesses >= 1 && c.Batch.MaxConcurrentBusinesses <= 20,
		"batch.max_concurrent_businesses must be between 1 and 20")

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
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
