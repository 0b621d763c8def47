package adaptive

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func newRules() *RuleEstimator {
	return NewRuleEstimator(DefaultRulesFocusThreshold, discardLogger())
}

func TestRules_FreshState(t *testing.T) {
	e := newRules()
	st := e.State()
	assert.Equal(t, DefaultDifficulty, st.Difficulty)
	assert.Equal(t, DefaultReactionMs, st.AverageReactionMs)
	assert.Empty(t, st.RecentCorrect)
	assert.Empty(t, st.CategoryErrors)
	assert.Equal(t, Prediction{Difficulty: 3, Focus: FocusGeneral}, e.Recommend(Query{}))
}

func TestRules_ThreeFastCorrect(t *testing.T) {
	e := newRules()
	e.Record(Sample{Category: "phonics", Difficulty: 3, Correct: true, ReactionMs: 400})
	e.Record(Sample{Category: "phonics", Difficulty: 3, Correct: true, ReactionMs: 300})
	e.Record(Sample{Category: "phonics", Difficulty: 3, Correct: true, ReactionMs: 250})

	st := e.State()
	assert.InDelta(t, 4.5, st.Difficulty, epsilon)
	assert.InDelta(t, 1.0, st.CorrectRate(), epsilon)
	// Rounded only at read time, half away from zero.
	assert.Equal(t, 5, e.Recommend(Query{}).Difficulty)
}

func TestRules_MonotonicNudge(t *testing.T) {
	e := newRules()
	prev := e.State().Difficulty
	for i := range 8 {
		e.Record(fastCorrect("phonics", 3))
		cur := e.State().Difficulty
		if prev < MaxDifficulty {
			assert.Greater(t, cur, prev, "step %d", i)
		} else {
			assert.Equal(t, float64(MaxDifficulty), cur, "step %d", i)
		}
		prev = cur
	}
	assert.Equal(t, 5, e.Recommend(Query{}).Difficulty)
}

func TestRules_MonotonicDecay(t *testing.T) {
	e := newRules()
	prev := e.State().Difficulty
	for i := range 6 {
		e.Record(wrong("rhyming", 3))
		cur := e.State().Difficulty
		if prev > MinDifficulty {
			assert.Less(t, cur, prev, "step %d", i)
		} else {
			assert.Equal(t, float64(MinDifficulty), cur, "step %d", i)
		}
		prev = cur
	}
	assert.Equal(t, 1, e.Recommend(Query{}).Difficulty)
}

func TestRules_AdjustmentPolicy(t *testing.T) {
	tests := []struct {
		name    string
		history []Sample
		sample  Sample
		want    float64
	}{
		{
			name:   "accurate but not fast nudges up",
			sample: Sample{Category: "phonics", Difficulty: 3, Correct: true, ReactionMs: 1500},
			want:   3.3,
		},
		{
			name:   "slow correct answer lowers",
			sample: Sample{Category: "phonics", Difficulty: 3, Correct: true, ReactionMs: 3500},
			want:   2.3,
		},
		{
			name:   "exactly 1200ms is not fast",
			sample: Sample{Category: "phonics", Difficulty: 3, Correct: true, ReactionMs: 1200},
			want:   3.3,
		},
		{
			name:    "mediocre accuracy holds",
			history: []Sample{wrong("phonics", 3)},
			sample:  Sample{Category: "phonics", Difficulty: 3, Correct: true, ReactionMs: 1500},
			want:    2.3,
		},
		{
			name:    "fast correct with low rate holds",
			history: []Sample{wrong("phonics", 3), wrong("phonics", 3)},
			sample:  fastCorrect("phonics", 3),
			want:    3 - 0.7 - 0.7,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newRules()
			for _, s := range tt.history {
				e.Record(s)
			}
			e.Record(tt.sample)
			assert.InDelta(t, tt.want, e.State().Difficulty, epsilon)
		})
	}
}

func TestRules_WindowEviction(t *testing.T) {
	e := newRules()
	e.Record(wrong("phonics", 3))
	for range 10 {
		e.Record(Sample{Category: "phonics", Difficulty: 3, Correct: true, ReactionMs: 1500})
	}

	st := e.State()
	require.Len(t, st.RecentCorrect, HistoryWindow)
	for _, c := range st.RecentCorrect {
		assert.True(t, c)
	}
	assert.InDelta(t, 1.0, st.CorrectRate(), epsilon)
}

func TestRules_ReactionAverage(t *testing.T) {
	e := newRules()
	e.Record(Sample{Category: "phonics", Difficulty: 3, Correct: true, ReactionMs: 1000})
	assert.InDelta(t, 0.7*2000+0.3*1000, e.State().AverageReactionMs, epsilon)
}

func TestRules_FocusSwitchesAboveThreshold(t *testing.T) {
	e := newRules()
	e.Record(wrong("phonics", 3))
	e.Record(wrong("phonics", 3))
	e.Record(fastCorrect("phonics", 3))
	assert.Equal(t, FocusGeneral, e.Recommend(Query{}).Focus, "1.5 is not above 1.5")

	e.Record(wrong("phonics", 3))
	assert.Equal(t, "phonics", e.Recommend(Query{}).Focus)
}

func TestRules_BoundsInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	e := newRules()
	for i := range 2000 {
		e.Record(Sample{
			Category:   []string{"phonics", "rhyming", ""}[rng.IntN(3)],
			Difficulty: rng.IntN(9) - 2,
			Correct:    rng.IntN(2) == 1,
			ReactionMs: rng.Float64()*8000 - 1000,
		})
		d := e.Recommend(Query{}).Difficulty
		if d < MinDifficulty || d > MaxDifficulty {
			t.Fatalf("step %d: difficulty %d out of range", i, d)
		}
	}
}

func TestRules_MalformedSamplesDoNotPoisonState(t *testing.T) {
	e := newRules()
	e.Record(Sample{Category: "phonics", Difficulty: 99, Correct: true, ReactionMs: math.NaN()})
	e.Record(Sample{Category: "phonics", Difficulty: -4, Correct: true, ReactionMs: math.Inf(1)})
	e.Record(Sample{Difficulty: 3, Correct: false, ReactionMs: -50})

	st := e.State()
	assert.False(t, math.IsNaN(st.AverageReactionMs))
	assert.False(t, math.IsInf(st.AverageReactionMs, 0))
	em := newErrorMemory(st.CategoryErrors)
	_, ok := em.Score(FocusGeneral)
	assert.True(t, ok, "empty category is recorded as general")
}

func TestRules_RoundTrip(t *testing.T) {
	e := newRules()
	e.Record(wrong("phonics", 3))
	e.Record(wrong("rhyming", 2))
	e.Record(wrong("phonics", 2))
	e.Record(Sample{Category: "phonics", Difficulty: 2, Correct: true, ReactionMs: 1500})

	doc, err := e.MarshalState()
	require.NoError(t, err)

	restored := newRules()
	require.NoError(t, restored.UnmarshalState(doc))

	assert.Equal(t, e.State(), restored.State())
	assert.Equal(t, e.Recommend(Query{}), restored.Recommend(Query{}))

	// Both continue identically.
	next := fastCorrect("rhyming", 2)
	e.Record(next)
	restored.Record(next)
	assert.Equal(t, e.State(), restored.State())
}

func TestRules_ResetIdempotent(t *testing.T) {
	e := newRules()
	e.Record(wrong("phonics", 3))

	e.Reset()
	once, err := e.MarshalState()
	require.NoError(t, err)
	e.Reset()
	twice, err := e.MarshalState()
	require.NoError(t, err)

	assert.JSONEq(t, string(once), string(twice))
	fresh, err := newRules().MarshalState()
	require.NoError(t, err)
	assert.JSONEq(t, string(fresh), string(once))
}
