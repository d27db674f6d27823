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
	Workspace  string           `yaml:"workspace" mapstructure:"workspace"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Providers  []ProviderConfig `yaml:"providers" mapstructure:"providers"`
	Collector  CollectorConfig  `yaml:"collector" mapstructure:"collector"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Schedule   ScheduleConfig   `yaml:"schedule" mapstructure:"schedule"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ProviderConfig describes one chat-completion provider to fan out to.
type ProviderConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
	Key     string `yaml:"key" mapstructure:"key"`
}

// CollectorConfig tunes the multi-provider fan-out.
type CollectorConfig struct {
	MaxParallel          int     `yaml:"max_parallel" mapstructure:"max_parallel"`
	TimeoutSecs          int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond    float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BreakerFailThreshold int     `yaml:"breaker_fail_threshold" mapstructure:"breaker_fail_threshold"`
	BreakerResetSecs     int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// AnthropicConfig holds Anthropic API settings for the extraction provider.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ExtractionConfig tunes the structured extraction retry behavior.
type ExtractionConfig struct {
	MaxAttempts   int   `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelaySecs int   `yaml:"base_delay_secs" mapstructure:"base_delay_secs"`
	TimeoutSecs   int   `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxTokens     int64 `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// NotionConfig holds Notion API credentials and database IDs for imports.
type NotionConfig struct {
	Token          string `yaml:"token" mapstructure:"token"`
	PromptDB       string `yaml:"prompt_db" mapstructure:"prompt_db"`
	TrackedBrandDB string `yaml:"tracked_brand_db" mapstructure:"tracked_brand_db"`
}

// ServerConfig configures the trigger/webhook server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ScheduleConfig configures the periodic trigger of scheduled prompts.
type ScheduleConfig struct {
	Cron string `yaml:"cron" mapstructure:"cron"`
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
	v.SetEnvPrefix("BRANDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("workspace", "default")
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("schedule.cron", "0 * * * *")
	v.SetDefault("collector.max_parallel", 3)
	v.SetDefault("collector.timeout_secs", 90)
	v.SetDefault("collector.requests_per_second", 2)
	v.SetDefault("collector.breaker_fail_threshold", 5)
	v.SetDefault("collector.breaker_reset_secs", 30)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("extraction.max_attempts", 3)
	v.SetDefault("extraction.base_delay_secs", 3)
	v.SetDefault("extraction.timeout_secs", 120)
	v.SetDefault("extraction.max_tokens", 8192)

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

// Validate checks that the fields required for the given mode are set.
// Modes: "pipeline" (run/serve/schedule), "import".
func (c *Config) Validate(mode string) error {
	var missing []string

	// sqlite falls back to a local database file when no URL is set.
	requireStore := func() {
		if c.Store.Driver != "sqlite" && c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
	}

	switch mode {
	case "pipeline":
		requireStore()
		if len(c.Providers) == 0 {
			missing = append(missing, "at least one provider is required")
		}
		for _, p := range c.Providers {
			if p.Name == "" || p.BaseURL == "" {
				missing = append(missing, "every provider needs a name and base_url")
				break
			}
		}
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
	case "import":
		requireStore()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
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
