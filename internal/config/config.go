package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds defaults for the survival-data pipeline. Every field has a
// built-in default; CLI flags on top of these always take precedence, so no
// environment variable is ever required to run the pipeline.
type Config struct {
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	Delimiter   string `mapstructure:"DELIMITER"`
	CommentChar string `mapstructure:"COMMENT_CHAR"`

	EraMaxGapDays int `mapstructure:"ERA_MAX_GAP_DAYS"`

	DrugMinDays       int `mapstructure:"DRUG_MIN_DAYS"`
	DrugWashoutDays   int `mapstructure:"DRUG_WASHOUT_DAYS"`
	DrugDefaultRxDays int `mapstructure:"DRUG_DEFAULT_RX_DAYS"`
}

// Load reads SURVIVALGEN_-prefixed environment variables and an optional
// .env file, falling back to the defaults below.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetEnvPrefix("SURVIVALGEN")
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("DELIMITER", "|")
	v.SetDefault("COMMENT_CHAR", "#")
	v.SetDefault("ERA_MAX_GAP_DAYS", 0)
	v.SetDefault("DRUG_MIN_DAYS", 30)
	v.SetDefault("DRUG_WASHOUT_DAYS", 0)
	v.SetDefault("DRUG_DEFAULT_RX_DAYS", 30)

	v.BindEnv("LOG_LEVEL")
	v.BindEnv("LOG_FORMAT")
	v.BindEnv("DELIMITER")
	v.BindEnv("COMMENT_CHAR")
	v.BindEnv("ERA_MAX_GAP_DAYS")
	v.BindEnv("DRUG_MIN_DAYS")
	v.BindEnv("DRUG_WASHOUT_DAYS")
	v.BindEnv("DRUG_DEFAULT_RX_DAYS")

	// Try reading .env, but don't fail if missing.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Delimiter == "" {
		return fmt.Errorf("DELIMITER must not be empty")
	}
	if len([]rune(c.Delimiter)) != 1 {
		return fmt.Errorf("DELIMITER must be a single character, got %q", c.Delimiter)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be \"json\" or \"console\", got %q", c.LogFormat)
	}
	if c.EraMaxGapDays < 0 {
		return fmt.Errorf("ERA_MAX_GAP_DAYS must be >= 0, got %d", c.EraMaxGapDays)
	}
	if c.DrugMinDays < 0 || c.DrugWashoutDays < 0 || c.DrugDefaultRxDays < 0 {
		return fmt.Errorf("drug-duration defaults must be >= 0")
	}
	return nil
}

// IsDebug reports whether verbose logging was requested.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug" || c.LogLevel == "trace"
}
