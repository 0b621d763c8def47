// Package adaptive recommends the next question's difficulty and focus
// area from a learner's recent correctness and reaction times.
package adaptive

// Variant names.
const (
	VariantRules  = "rules"
	VariantOnline = "online"
)

// Estimator is the contract shared by every difficulty estimator. Callers
// depend only on this interface so one variant can replace another.
type Estimator interface {
	// Variant names the implementation; it scopes the persisted document.
	Variant() string

	// Record folds one answered question into the estimator state.
	Record(s Sample)

	// Recommend returns the difficulty and focus for the next question.
	Recommend(q Query) Prediction

	// Reset returns the estimator to its fresh state.
	Reset()

	// MarshalState encodes the full state as a versioned JSON document.
	MarshalState() ([]byte, error)

	// UnmarshalState replaces the state with a decoded document. On error
	// the estimator is left unchanged.
	UnmarshalState(doc []byte) error

	// State returns a read-only copy of the current state.
	State() StateView
}

// StateView is a snapshot of estimator state for reporting.
type StateView struct {
	Variant           string
	Difficulty        float64
	AverageReactionMs float64
	RecentCorrect     []bool
	CategoryErrors    []CategoryScore
	Degraded          bool
}

// ExposedDifficulty is the rounded level a caller would see.
func (v StateView) ExposedDifficulty() int {
	return roundDifficulty(v.Difficulty)
}

// CorrectRate is the fraction of correct answers in the rolling window,
// or 0 when the window is empty.
func (v StateView) CorrectRate() float64 {
	return correctRate(v.RecentCorrect)
}

func correctRate(window []bool) float64 {
	if len(window) == 0 {
		return 0
	}
	n := 0
	for _, c := range window {
		if c {
			n++
		}
	}
	return float64(n) / float64(len(window))
}

// ema blends a new reaction time into the running average.
func ema(avg, sample float64) float64 {
	return 0.7*avg + 0.3*sample
}
