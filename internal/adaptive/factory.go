package adaptive

import (
	"fmt"
	"log/slog"
)

// Config selects and tunes an estimator.
type Config struct {
	Variant              string
	RulesFocusThreshold  float64
	OnlineFocusThreshold float64
	HiddenUnits          int
	LearningRate         float64
	Epochs               int
	Seed                 uint64
}

// DefaultConfig returns the rule-based estimator with default tuning.
func DefaultConfig() Config {
	return Config{
		Variant:              VariantRules,
		RulesFocusThreshold:  DefaultRulesFocusThreshold,
		OnlineFocusThreshold: DefaultOnlineFocusThreshold,
		HiddenUnits:          8,
		LearningRate:         0.05,
		Epochs:               DefaultEpochs,
		Seed:                 1,
	}
}

// New builds the estimator named by cfg.Variant.
func New(cfg Config, logger *slog.Logger) (Estimator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Variant {
	case VariantRules:
		return NewRuleEstimator(cfg.RulesFocusThreshold, logger), nil
	case VariantOnline:
		backend := MLPBackend{
			Hidden:       cfg.HiddenUnits,
			LearningRate: cfg.LearningRate,
			Seed:         cfg.Seed,
		}
		if err := backend.architecture().Validate(); err != nil {
			return nil, err
		}
		return NewOnlineEstimator(backend, cfg.OnlineFocusThreshold, cfg.Epochs, logger), nil
	default:
		return nil, fmt.Errorf("unknown estimator variant: %q", cfg.Variant)
	}
}
