package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/cli-senpei/Lerni-sub000/internal/adaptive"
	"github.com/cli-senpei/Lerni-sub000/internal/store"
)

// Config is the full application configuration.
type Config struct {
	Estimator EstimatorConfig `mapstructure:"estimator"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Learner   LearnerConfig   `mapstructure:"learner"`
	Log       LogConfig       `mapstructure:"log"`
}

type EstimatorConfig struct {
	Variant string       `mapstructure:"variant"`
	Rules   RulesConfig  `mapstructure:"rules"`
	Online  OnlineConfig `mapstructure:"online"`
}

type RulesConfig struct {
	FocusThreshold float64 `mapstructure:"focus_threshold"`
}

type OnlineConfig struct {
	FocusThreshold float64 `mapstructure:"focus_threshold"`
	HiddenUnits    int     `mapstructure:"hidden_units"`
	LearningRate   float64 `mapstructure:"learning_rate"`
	Epochs         int     `mapstructure:"epochs"`
	Seed           uint64  `mapstructure:"seed"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type LearnerConfig struct {
	ID string `mapstructure:"id"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// New returns a viper instance with defaults and env bindings applied.
// Callers may bind flags to it before passing it to Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	def := adaptive.DefaultConfig()
	v.SetDefault("estimator.variant", def.Variant)
	v.SetDefault("estimator.rules.focus_threshold", def.RulesFocusThreshold)
	v.SetDefault("estimator.online.focus_threshold", def.OnlineFocusThreshold)
	v.SetDefault("estimator.online.hidden_units", def.HiddenUnits)
	v.SetDefault("estimator.online.learning_rate", def.LearningRate)
	v.SetDefault("estimator.online.epochs", def.Epochs)
	v.SetDefault("estimator.online.seed", def.Seed)
	v.SetDefault("storage.backend", store.KindSQLite)
	v.SetDefault("storage.path", "")
	v.SetDefault("learner.id", "")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("LERNI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile (or the default search path) into v and decodes it.
// A missing config file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("lerni")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "lerni"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("configuration file found but could not be read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every enumerated and numeric setting.
func (c *Config) Validate() error {
	switch c.Estimator.Variant {
	case adaptive.VariantRules, adaptive.VariantOnline:
	default:
		return fmt.Errorf("unknown estimator variant: %q", c.Estimator.Variant)
	}
	switch c.Storage.Backend {
	case store.KindSQLite, store.KindBolt, store.KindMemory:
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}
	if c.Estimator.Online.HiddenUnits <= 0 {
		return fmt.Errorf("estimator.online.hidden_units must be positive, got %d", c.Estimator.Online.HiddenUnits)
	}
	if c.Estimator.Online.Epochs <= 0 {
		return fmt.Errorf("estimator.online.epochs must be positive, got %d", c.Estimator.Online.Epochs)
	}
	if !(c.Estimator.Online.LearningRate > 0) {
		return fmt.Errorf("estimator.online.learning_rate must be positive, got %v", c.Estimator.Online.LearningRate)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// AdaptiveConfig converts the estimator section for adaptive.New.
func (c *Config) AdaptiveConfig() adaptive.Config {
	return adaptive.Config{
		Variant:              c.Estimator.Variant,
		RulesFocusThreshold:  c.Estimator.Rules.FocusThreshold,
		OnlineFocusThreshold: c.Estimator.Online.FocusThreshold,
		HiddenUnits:          c.Estimator.Online.HiddenUnits,
		LearningRate:         c.Estimator.Online.LearningRate,
		Epochs:               c.Estimator.Online.Epochs,
		Seed:                 c.Estimator.Online.Seed,
	}
}

// StoragePath returns the configured path, or the default data path for
// the backend when none is set.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	p, err := store.DefaultDBPath()
	if err != nil {
		return "", err
	}
	if c.Storage.Backend == store.KindBolt {
		p = strings.TrimSuffix(p, filepath.Ext(p)) + ".bolt"
	}
	return p, nil
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level: %q", level)
}
