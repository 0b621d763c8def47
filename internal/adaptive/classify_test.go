package adaptive

import (
	"math"
	"testing"
)

func TestClassifyGame(t *testing.T) {
	tests := []struct {
		game string
		want string
	}{
		{"letter-jump", "letter-recognition"},
		{"Letter-Jump ", "letter-recognition"},
		{"sound-safari", "phonics"},
		{"blend-builder", "phonics"},
		{"rhyme-time", "rhyming"},
		{"word-hunt", "word-recognition"},
		{"unknown-game", "general"},
		{"", "general"},
	}
	for _, tt := range tests {
		if got := ClassifyGame(tt.game); got != tt.want {
			t.Errorf("ClassifyGame(%q) = %q, want %q", tt.game, got, tt.want)
		}
	}
}

func TestKnownGamesAreClassified(t *testing.T) {
	for _, id := range KnownGames() {
		if ClassifyGame(id) == FocusGeneral {
			t.Errorf("known game %q maps to general", id)
		}
	}
}

func TestDifficultyLabel(t *testing.T) {
	tests := []struct {
		d    float64
		want Label
	}{
		{1, LabelEasy},
		{2, LabelEasy},
		{2.5, LabelMedium},
		{3, LabelMedium},
		{3.01, LabelHard},
		{4, LabelHard},
		{5, LabelHard},
		{-3, LabelEasy},
		{12, LabelHard},
		{math.NaN(), LabelMedium},
		{math.Inf(-1), LabelEasy},
		{math.Inf(1), LabelHard},
	}
	for _, tt := range tests {
		if got := DifficultyLabel(tt.d); got != tt.want {
			t.Errorf("DifficultyLabel(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
