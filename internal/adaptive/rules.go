package adaptive

import (
	"encoding/json"
	"log/slog"
	"math"
	"sync"
)

const (
	// DefaultRulesFocusThreshold is the error score a category must exceed
	// to become the rule-based focus.
	DefaultRulesFocusThreshold = 1.5

	// HistoryWindow is the number of recent outcomes kept.
	HistoryWindow = 10
)

// RuleEstimator adjusts difficulty with fixed threshold rules over a
// rolling window of outcomes.
type RuleEstimator struct {
	mu        sync.Mutex
	threshold float64
	logger    *slog.Logger

	window     []bool
	errors     ErrorMemory
	avgRT      float64
	difficulty float64
}

var _ Estimator = (*RuleEstimator)(nil)

// NewRuleEstimator returns a fresh rule-based estimator.
func NewRuleEstimator(threshold float64, logger *slog.Logger) *RuleEstimator {
	if logger == nil {
		logger = slog.Default()
	}
	e := &RuleEstimator{threshold: threshold, logger: logger}
	e.resetLocked()
	return e
}

func (e *RuleEstimator) Variant() string { return VariantRules }

func (e *RuleEstimator) Record(s Sample) {
	s = s.Normalize()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.window = append(e.window, s.Correct)
	if len(e.window) > HistoryWindow {
		e.window = e.window[len(e.window)-HistoryWindow:]
	}
	e.errors.Observe(s.Category, s.Correct)
	e.avgRT = ema(e.avgRT, s.ReactionMs)

	r := correctRate(e.window)
	fast := s.ReactionMs < FastReactionMs
	switch {
	case s.Correct && fast && r > 0.7:
		e.difficulty = math.Min(MaxDifficulty, e.difficulty+0.5)
	case !s.Correct || s.ReactionMs > SlowReactionMs:
		e.difficulty = math.Max(MinDifficulty, e.difficulty-0.7)
	case r > 0.8:
		e.difficulty = math.Min(MaxDifficulty, e.difficulty+0.3)
	}

	e.logger.Debug("rules: recorded sample",
		slog.String("category", s.Category),
		slog.Bool("correct", s.Correct),
		slog.Float64("rate", r),
		slog.Float64("difficulty", e.difficulty),
	)
}

func (e *RuleEstimator) Recommend(Query) Prediction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Prediction{
		Difficulty: roundDifficulty(e.difficulty),
		Focus:      e.errors.Focus(e.threshold),
	}
}

func (e *RuleEstimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *RuleEstimator) resetLocked() {
	e.window = nil
	e.errors = newErrorMemory(nil)
	e.avgRT = DefaultReactionMs
	e.difficulty = DefaultDifficulty
}

func (e *RuleEstimator) MarshalState() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	recent := make([]int, len(e.window))
	for i, c := range e.window {
		if c {
			recent[i] = 1
		}
	}
	return json.Marshal(Document{
		Version:             DocumentVersion,
		Variant:             VariantRules,
		RecentCorrect:       recent,
		CategoryErrors:      e.errors.Entries(),
		AverageReactionTime: e.avgRT,
		CurrentDifficulty:   e.difficulty,
	})
}

func (e *RuleEstimator) UnmarshalState(raw []byte) error {
	doc, err := DecodeDocument(raw, VariantRules)
	if err != nil {
		return err
	}
	window := make([]bool, len(doc.RecentCorrect))
	for i, v := range doc.RecentCorrect {
		window[i] = v == 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.window = window
	e.errors = newErrorMemory(doc.CategoryErrors)
	e.avgRT = doc.AverageReactionTime
	e.difficulty = clampDifficulty(doc.CurrentDifficulty)
	return nil
}

func (e *RuleEstimator) State() StateView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return StateView{
		Variant:           VariantRules,
		Difficulty:        e.difficulty,
		AverageReactionMs: e.avgRT,
		RecentCorrect:     append([]bool(nil), e.window...),
		CategoryErrors:    e.errors.Entries(),
	}
}
