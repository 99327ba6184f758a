// Package deck loads flashcard decks and classifies their cards.
package deck

import (
	"errors"
	"regexp"
	"slices"

	"github.com/at-ishikawa/jmemory/internal/kana"
	"github.com/samber/lo"
)

// Kind is the explicit kind tag of a deck
type Kind string

const (
	KindUnset      Kind = ""
	KindKanji      Kind = "kanji"
	KindVocabulary Kind = "vocabulary"
)

// CardKind is the derived classification of a card. It is never persisted.
type CardKind int

const (
	CardKindUnknown CardKind = iota
	CardKindKanji
	CardKindVocabWord
)

func (k CardKind) String() string {
	switch k {
	case CardKindKanji:
		return "kanji"
	case CardKindVocabWord:
		return "vocabulary"
	default:
		return "unknown"
	}
}

// Card is a single flashcard. Cards are immutable once loaded.
type Card struct {
	ID          string   `yaml:"id" json:"id" validate:"required"`
	Script      string   `yaml:"kanji" json:"kanji" validate:"required"`
	Readings    []string `yaml:"kana,omitempty" json:"kana,omitempty" validate:"dive,required"`
	RomajiForms []string `yaml:"romaji,omitempty" json:"romaji,omitempty" validate:"dive,required"`
	Meanings    []string `yaml:"meanings,omitempty" json:"meanings,omitempty" validate:"dive,required"`
	Examples    []string `yaml:"examples,omitempty" json:"examples,omitempty"`

	// DeckTag is the key of the deck the card was loaded from
	DeckTag string `yaml:"-" json:"-"`
}

type Deck struct {
	Key   string `yaml:"key" json:"key" validate:"required"`
	Name  string `yaml:"name" json:"name"`
	Kind  Kind   `yaml:"kind,omitempty" json:"kind,omitempty" validate:"omitempty,oneof=kanji vocabulary"`
	Cards []Card `yaml:"cards" json:"cards" validate:"dive"`
}

// DisplayName returns the deck name, or its key when no name is set
func (d Deck) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Key
}

// TaggedCards returns the deck's cards with DeckTag set to the deck key
func (d Deck) TaggedCards() []Card {
	cards := make([]Card, len(d.Cards))
	for i, card := range d.Cards {
		card.DeckTag = d.Key
		cards[i] = card
	}
	return cards
}

var kanjiDeckPattern = regexp.MustCompile(`(?i)kanji`)

// Classify derives the kind of a card. An explicit deck kind wins; decks
// without one fall back to the deck key and then to the card contents.
func Classify(card Card, deckKind Kind) CardKind {
	switch deckKind {
	case KindKanji:
		return CardKindKanji
	case KindVocabulary:
		if len(card.Meanings) > 0 {
			return CardKindVocabWord
		}
		return CardKindUnknown
	}

	if kanjiDeckPattern.MatchString(card.DeckTag) {
		return CardKindKanji
	}
	if kana.ContainsHan(card.Script) {
		return CardKindKanji
	}
	if len(card.Meanings) > 0 {
		return CardKindVocabWord
	}
	return CardKindUnknown
}

var ErrDeckNotFound = errors.New("deck not found")

// SortedDecks returns the decks ordered by key
func SortedDecks(decks map[string]Deck) []Deck {
	keys := lo.Keys(decks)
	slices.Sort(keys)
	return lo.Map(keys, func(key string, _ int) Deck {
		return decks[key]
	})
}

// Cards concatenates the tagged cards of the decks
func Cards(decks []Deck) []Card {
	return lo.FlatMap(decks, func(d Deck, _ int) []Card {
		return d.TaggedCards()
	})
}

// CardIDs returns the ids of the cards in the deck
func (d Deck) CardIDs() []string {
	return lo.Map(d.Cards, func(card Card, _ int) string {
		return card.ID
	})
}
