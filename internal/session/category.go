package session

import (
	"fmt"
	"slices"
	"strings"

	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/evaluate"
)

// Category is a group of prompt modes a learner can enable
type Category string

const (
	// CategoryKanji tests kanji cards by reading and by writing
	CategoryKanji Category = "kanji"
	// CategoryWords tests vocabulary cards by meaning in both directions
	CategoryWords Category = "words"
)

var Categories = []Category{CategoryKanji, CategoryWords}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Categories, c) {
		return "", fmt.Errorf("unknown category %q, expected one of %v", s, Categories)
	}
	return c, nil
}

// ApplicableModes returns the prompt modes that can test a card of the given
// kind within the enabled categories.
func ApplicableModes(kind deck.CardKind, categories []Category) []evaluate.Mode {
	switch {
	case kind == deck.CardKindKanji && slices.Contains(categories, CategoryKanji):
		return []evaluate.Mode{evaluate.ModeReadingFromScript, evaluate.ModeScriptFromMeaning}
	case kind == deck.CardKindVocabWord && slices.Contains(categories, CategoryWords):
		return []evaluate.Mode{evaluate.ModeMeaningFromWord, evaluate.ModeWordFromMeaning}
	default:
		return nil
	}
}
