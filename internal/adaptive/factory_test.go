package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cli-senpei/Lerni-sub000/internal/nn"
)

func TestNew_Variants(t *testing.T) {
	cfg := DefaultConfig()

	est, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, VariantRules, est.Variant())
	assert.IsType(t, &RuleEstimator{}, est)

	cfg.Variant = VariantOnline
	est, err = New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, VariantOnline, est.Variant())
	assert.IsType(t, &OnlineEstimator{}, est)
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Variant = "neural"
	_, err := New(cfg, nil)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Variant = VariantOnline
	cfg.HiddenUnits = 0
	_, err = New(cfg, nil)
	var ae *nn.ArchitectureError
	assert.ErrorAs(t, err, &ae)
}

func TestEstimatorsAreInterchangeable(t *testing.T) {
	samples := []Sample{
		fastCorrect("phonics", 3),
		wrong("rhyming", 3),
		wrong("rhyming", 2),
		fastCorrect("rhyming", 2),
	}
	for _, est := range []Estimator{newRules(), newOnline()} {
		t.Run(est.Variant(), func(t *testing.T) {
			for _, s := range samples {
				est.Record(s)
				p := est.Recommend(Query{RecentCorrect: s.Correct, ReactionMs: s.ReactionMs})
				assert.GreaterOrEqual(t, p.Difficulty, MinDifficulty)
				assert.LessOrEqual(t, p.Difficulty, MaxDifficulty)
				assert.NotEmpty(t, p.Focus)
			}
		})
	}
}
