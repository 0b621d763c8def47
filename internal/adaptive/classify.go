package adaptive

import (
	"slices"
	"strings"
)

// Categories used by the games.
const (
	CategoryLetterRecognition = "letter-recognition"
	CategoryPhonics           = "phonics"
	CategoryRhyming           = "rhyming"
	CategoryWordRecognition   = "word-recognition"
	CategorySpelling          = "spelling"
)

// gameCategories maps game-type identifiers to their category.
var gameCategories = map[string]string{
	"letter-jump":       CategoryLetterRecognition,
	"letter-match":      CategoryLetterRecognition,
	"letter-trace":      CategoryLetterRecognition,
	"sound-safari":      CategoryPhonics,
	"phonics-pop":       CategoryPhonics,
	"blend-builder":     CategoryPhonics,
	"syllable-stomp":    CategoryPhonics,
	"rhyme-time":        CategoryRhyming,
	"rhyme-catcher":     CategoryRhyming,
	"word-hunt":         CategoryWordRecognition,
	"sight-word-sprint": CategoryWordRecognition,
	"word-builder":      CategorySpelling,
	"missing-letter":    CategorySpelling,
}

// ClassifyGame returns the category for a game-type identifier, or
// FocusGeneral for identifiers it does not know.
func ClassifyGame(gameTypeID string) string {
	if c, ok := gameCategories[strings.ToLower(strings.TrimSpace(gameTypeID))]; ok {
		return c
	}
	return FocusGeneral
}

// KnownGames lists the recognised game identifiers in sorted order.
func KnownGames() []string {
	ids := make([]string, 0, len(gameCategories))
	for id := range gameCategories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Label is a coarse difficulty band used for content selection.
type Label string

const (
	LabelEasy   Label = "easy"
	LabelMedium Label = "medium"
	LabelHard   Label = "hard"
)

// DifficultyLabel maps a difficulty to its band. NaN is treated as the
// default difficulty.
func DifficultyLabel(difficulty float64) Label {
	difficulty = clampDifficulty(difficulty)
	switch {
	case difficulty <= 2:
		return LabelEasy
	case difficulty <= 3:
		return LabelMedium
	default:
		return LabelHard
	}
}
