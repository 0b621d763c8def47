package adaptive

import "math"

const (
	// MinDifficulty and MaxDifficulty bound every exposed difficulty.
	MinDifficulty = 1
	MaxDifficulty = 5

	// DefaultDifficulty is the scalar a fresh estimator starts from.
	DefaultDifficulty = 3.0

	// DefaultReactionMs is the reaction-time average of a fresh estimator.
	DefaultReactionMs = 2000.0

	// FastReactionMs: answers strictly below this are "fast".
	FastReactionMs = 1200.0

	// SlowReactionMs caps reaction time for normalization; answers strictly
	// above it are "slow".
	SlowReactionMs = 3000.0

	// MaxReactionMs is where malformed reaction times are clamped.
	MaxReactionMs = 60_000.0

	// FocusGeneral is the focus returned when no category stands out.
	FocusGeneral = "general"
)

// Sample is one answered question.
type Sample struct {
	Category   string
	Difficulty int
	Correct    bool
	ReactionMs float64
}

// Query carries the next-step context used by the online estimator.
// The rule-based estimator ignores it.
type Query struct {
	RecentCorrect bool
	ReactionMs    float64
}

// Prediction is the recommendation for the next question.
type Prediction struct {
	Difficulty int
	Focus      string
}

// Normalize clamps a sample into the ranges the estimators expect.
// Malformed samples degrade to the nearest valid value instead of failing.
func (s Sample) Normalize() Sample {
	if s.Category == "" {
		s.Category = FocusGeneral
	}
	s.Difficulty = clampInt(s.Difficulty, MinDifficulty, MaxDifficulty)
	s.ReactionMs = clampReaction(s.ReactionMs)
	return s
}

// speedFeature maps a reaction time into [0,1].
func speedFeature(reactionMs float64) float64 {
	return math.Min(clampReaction(reactionMs), SlowReactionMs) / SlowReactionMs
}

func clampReaction(ms float64) float64 {
	switch {
	case math.IsNaN(ms) || ms < 0:
		return 0
	case ms > MaxReactionMs:
		return MaxReactionMs
	}
	return ms
}

func clampDifficulty(d float64) float64 {
	if math.IsNaN(d) {
		return DefaultDifficulty
	}
	return math.Max(MinDifficulty, math.Min(MaxDifficulty, d))
}

// roundDifficulty converts an internal scalar to the exposed integer level.
// Rounding happens only here; scalars keep full precision between updates.
func roundDifficulty(d float64) int {
	return int(math.Round(clampDifficulty(d)))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
