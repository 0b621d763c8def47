package adaptive

import "math"

const (
	// errorPenalty is added to a category's score on an incorrect answer.
	errorPenalty = 1.0
	// errorRelief is subtracted on a correct answer.
	errorRelief = 0.5
)

// CategoryScore is one Error Memory entry.
type CategoryScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// ErrorMemory tracks a running error score per category in first-seen
// order. Entries are created lazily on first observation.
type ErrorMemory struct {
	order  []string
	scores map[string]float64
}

func newErrorMemory(entries []CategoryScore) ErrorMemory {
	m := ErrorMemory{scores: make(map[string]float64, len(entries))}
	for _, e := range entries {
		if _, dup := m.scores[e.Category]; !dup {
			m.order = append(m.order, e.Category)
		}
		m.scores[e.Category] = e.Score
	}
	return m
}

// Observe updates the score for category after one answer.
func (m *ErrorMemory) Observe(category string, correct bool) {
	if m.scores == nil {
		m.scores = make(map[string]float64)
	}
	if _, ok := m.scores[category]; !ok {
		m.order = append(m.order, category)
	}
	if correct {
		m.scores[category] -= errorRelief
	} else {
		m.scores[category] += errorPenalty
	}
}

// Score returns the category's score and whether it has been observed.
func (m *ErrorMemory) Score(category string) (float64, bool) {
	s, ok := m.scores[category]
	return s, ok
}

// Entries returns all scores in first-seen order.
func (m *ErrorMemory) Entries() []CategoryScore {
	out := make([]CategoryScore, 0, len(m.order))
	for _, c := range m.order {
		out = append(out, CategoryScore{Category: c, Score: m.scores[c]})
	}
	return out
}

// Focus returns the category with the highest score if that score is
// strictly above threshold, else FocusGeneral. Equal scores keep the
// first-seen category.
func (m *ErrorMemory) Focus(threshold float64) string {
	best, bestScore := "", math.Inf(-1)
	for _, c := range m.order {
		if s := m.scores[c]; s > bestScore {
			best, bestScore = c, s
		}
	}
	if best == "" || !(bestScore > threshold) {
		return FocusGeneral
	}
	return best
}
