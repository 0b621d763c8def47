package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cli-senpei/Lerni-sub000/internal/adaptive"
	"github.com/cli-senpei/Lerni-sub000/internal/store"
)

// testEnv isolates config and data paths and returns the db path.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("LERNI_DB", "")
	return filepath.Join(dir, "lerni.db")
}

func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	require.NoError(t, root.Execute(), "stderr: %s", errOut.String())
	return out.String()
}

func recommendJSON(t *testing.T, args ...string) predictionJSON {
	t.Helper()
	out := run(t, "", append([]string{"recommend", "--json"}, args...)...)
	var p predictionJSON
	require.NoError(t, json.Unmarshal([]byte(out), &p), out)
	return p
}

func TestRecordThenRecommend(t *testing.T) {
	db := testEnv(t)
	common := []string{"--db", db, "--learner", "kid-1"}

	assert.Equal(t, predictionJSON{Difficulty: 3, Label: "medium", Focus: "general"}, recommendJSON(t, common...))

	for _, ms := range []string{"400", "300", "250"} {
		run(t, "", append([]string{"record", "--game", "letter-jump", "--difficulty", "3", "--correct", "--reaction", ms}, common...)...)
	}
	assert.Equal(t, predictionJSON{Difficulty: 5, Label: "hard", Focus: "general"}, recommendJSON(t, common...))

	for range 2 {
		run(t, "", append([]string{"record", "--game", "rhyme-time", "--difficulty", "5", "--reaction", "1800"}, common...)...)
	}
	p := recommendJSON(t, common...)
	assert.Equal(t, "rhyming", p.Focus)

	// Another learner on the same database is independent.
	other := recommendJSON(t, "--db", db, "--learner", "kid-2")
	assert.Equal(t, predictionJSON{Difficulty: 3, Label: "medium", Focus: "general"}, other)
}

func TestRecordRequiresGameOrCategory(t *testing.T) {
	db := testEnv(t)
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"record", "--db", db, "--difficulty", "3"})
	assert.Error(t, root.Execute())
}

func TestResetCommand(t *testing.T) {
	db := testEnv(t)
	common := []string{"--db", db, "--learner", "kid-1"}

	for range 3 {
		run(t, "", append([]string{"record", "--category", "phonics", "--difficulty", "3", "--reaction", "900"}, common...)...)
	}
	before := recommendJSON(t, common...)
	require.Equal(t, 1, before.Difficulty)

	out := run(t, "n\n", append([]string{"reset"}, common...)...)
	assert.Contains(t, out, "cancelled")
	assert.Equal(t, before, recommendJSON(t, common...))

	out = run(t, "", append([]string{"reset", "--force"}, common...)...)
	assert.Contains(t, out, "learner reset")
	assert.Equal(t, predictionJSON{Difficulty: 3, Label: "medium", Focus: "general"}, recommendJSON(t, common...))
}

func TestOnlineVariantAndBoltBackend(t *testing.T) {
	testEnv(t)
	path := filepath.Join(t.TempDir(), "lerni.bolt")
	common := []string{"--backend", "bolt", "--db", path, "--variant", "online", "--learner", "kid-1"}

	for range 3 {
		run(t, "", append([]string{"record", "--game", "sound-safari", "--difficulty", "2", "--reaction", "1500"}, common...)...)
	}
	p := recommendJSON(t, append(common, "--reaction", "1500")...)
	assert.Equal(t, "phonics", p.Focus)
	assert.GreaterOrEqual(t, p.Difficulty, 1)
	assert.LessOrEqual(t, p.Difficulty, 5)

	out := run(t, "", append([]string{"stats"}, common...)...)
	assert.Contains(t, out, "online")
	assert.Contains(t, out, "phonics")
}

func TestDeviceIDUsedWhenNoLearner(t *testing.T) {
	db := testEnv(t)

	run(t, "", "record", "--db", db, "--category", "phonics", "--correct", "--reaction", "500")
	out1 := run(t, "", "stats", "--db", db)
	out2 := run(t, "", "stats", "--db", db)
	assert.Equal(t, out1, out2)
	assert.Contains(t, out1, "phonics")
}

func TestStatsCommand(t *testing.T) {
	db := testEnv(t)
	common := []string{"--db", db, "--learner", "kid-1"}
	run(t, "", append([]string{"record", "--game", "word-hunt", "--difficulty", "4", "--reaction", "700"}, common...)...)
	run(t, "", append([]string{"record", "--game", "word-hunt", "--difficulty", "4", "--correct", "--reaction", "650"}, common...)...)

	out := run(t, "", append([]string{"stats", "--limit", "5"}, common...)...)
	assert.Contains(t, out, "kid-1")
	assert.Contains(t, out, "rules")
	assert.Contains(t, out, "word-recognition")
	assert.Contains(t, out, "Recent answers")
}

func TestClassifyCommand(t *testing.T) {
	testEnv(t)
	out := run(t, "", "classify", "letter-jump", "unknown-game")
	assert.Contains(t, out, "letter-jump\tletter-recognition")
	assert.Contains(t, out, "unknown-game\tgeneral")

	out = run(t, "", "classify", "--list")
	assert.Contains(t, out, "rhyme-time\trhyming")
}

func TestVersionCommand(t *testing.T) {
	testEnv(t)
	assert.Equal(t, "lerni (devel)\n", run(t, "", "version"))
}

func TestInvalidConfigIsReported(t *testing.T) {
	testEnv(t)
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"recommend", "--variant", "neural"})
	assert.ErrorContains(t, root.Execute(), "unknown estimator variant")
}

func TestRenderStats(t *testing.T) {
	st := adaptive.StateView{
		Variant:           adaptive.VariantOnline,
		Difficulty:        4.4,
		AverageReactionMs: 1500,
		CategoryErrors:    []adaptive.CategoryScore{{Category: "rhyming", Score: 2}},
		Degraded:          true,
	}
	recent := []store.SampleRecord{{Category: "rhyming", Difficulty: 4, ReactionMs: 900, RecordedAt: time.Now()}}

	out := renderStats("kid-9", st, 12, recent)
	assert.Contains(t, out, "kid-9")
	assert.Contains(t, out, "→ 4")
	assert.Contains(t, out, "+2.0")
	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "1500 ms")
	assert.NotContains(t, out, "accuracy")
}
