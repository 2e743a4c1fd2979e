// Package config loads application settings from configs/config.yml,
// CPUTEMP_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "CPUTEMP"

// Config is the full application configuration.
type Config struct {
	Port     string         `mapstructure:"port"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Output   OutputConfig   `mapstructure:"output"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`    // debug | info | warn | error
	Encoding string `mapstructure:"encoding"` // console | json
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AnalysisConfig struct {
	StepSize int  `mapstructure:"step_size"` // seconds between input lines
	Workers  int  `mapstructure:"workers"`
	Strict   bool `mapstructure:"strict"` // non-finite coefficients fail the core
}

type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	Pattern string `mapstructure:"pattern"` // fmt pattern taking the core index
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

var errInvalidConfig = errors.New("invalid config")

// NewViper returns a viper instance with defaults, search paths and
// environment overrides set up. Callers may bind flags before Load.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("db.path", "fits.db")
	v.SetDefault("analysis.step_size", 30)
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.strict", false)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.pattern", "Evaluation-core-%d.txt")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath("configs")
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file (file overrides the search path when set) and
// decodes everything into a Config. A missing config file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Analysis.StepSize <= 0 {
		return fmt.Errorf("%w: analysis.step_size must be positive, got %d", errInvalidConfig, c.Analysis.StepSize)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("%w: auth.token_ttl must be positive, got %s", errInvalidConfig, c.Auth.TokenTTL)
	}
	if !strings.Contains(c.Output.Pattern, "%d") {
		return fmt.Errorf("%w: output.pattern must contain %%d, got %q", errInvalidConfig, c.Output.Pattern)
	}
	return nil
}
