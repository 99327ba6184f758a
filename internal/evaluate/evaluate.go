// Package evaluate judges typed and drawn answers against a card.
package evaluate

import (
	"log/slog"
	"strings"

	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/glyph"
	"github.com/at-ishikawa/jmemory/internal/kana"
	"github.com/samber/lo"
)

// DrawingScorer decides whether a drawing matches a script
type DrawingScorer interface {
	Matches(user glyph.Bitmap, script string) (bool, error)
}

type Evaluator struct {
	scorer DrawingScorer
	logger *slog.Logger
}

// NewEvaluator returns an evaluator. A nil scorer rejects every drawing.
func NewEvaluator(scorer DrawingScorer, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		scorer: scorer,
		logger: logger,
	}
}

// Evaluate judges text and an optional drawing for the card in the given mode.
// It never fails: missing or unusable evidence is a non-match.
func (e *Evaluator) Evaluate(card deck.Card, mode Mode, text string, bitmap glyph.Bitmap) Detail {
	switch mode {
	case ModeReadingFromScript:
		return Detail{Mode: mode, Reading: OutcomeOf(MatchReading(card, text))}
	case ModeScriptFromMeaning:
		return e.evaluateScript(card, text, bitmap)
	case ModeMeaningFromWord:
		return Detail{Mode: mode, Meaning: OutcomeOf(MatchMeaning(card, text))}
	case ModeWordFromMeaning:
		return Detail{Mode: mode, Meaning: OutcomeOf(MatchWord(card, text))}
	default:
		e.logger.Warn("unknown prompt mode", slog.String("mode", string(mode)), slog.String("card", card.ID))
		return Detail{Mode: mode, Meaning: Fail}
	}
}

// evaluateScript requires both channels when both are given, otherwise the given one decides
func (e *Evaluator) evaluateScript(card deck.Card, text string, bitmap glyph.Bitmap) Detail {
	detail := Detail{Mode: ModeScriptFromMeaning}
	hasText := strings.TrimSpace(text) != ""
	hasDrawing := len(bitmap) > 0

	if hasText {
		detail.Reading = OutcomeOf(MatchReading(card, text))
	}
	if hasDrawing {
		detail.Drawing = OutcomeOf(e.matchDrawing(card, bitmap))
	}
	if !hasText && !hasDrawing {
		detail.Drawing = Fail
	}
	return detail
}

func (e *Evaluator) matchDrawing(card deck.Card, bitmap glyph.Bitmap) bool {
	if e.scorer == nil {
		return false
	}
	ok, err := e.scorer.Matches(bitmap, card.Script)
	if err != nil {
		e.logger.Warn("failed to score a drawing",
			slog.String("card", card.ID),
			slog.Any("error", err),
		)
		return false
	}
	return ok
}

// MatchReading reports whether text equals any reading once normalized
func MatchReading(card deck.Card, text string) bool {
	input := kana.Normalize(text)
	if input == "" {
		return false
	}
	return lo.ContainsBy(card.Readings, func(reading string) bool {
		return kana.Normalize(reading) == input
	})
}

// MatchMeaning reports whether text equals a meaning, or is contained in one
// when it is longer than a single character.
func MatchMeaning(card deck.Card, text string) bool {
	input := kana.NormalizeMeaning(text)
	if input == "" {
		return false
	}
	allowContains := len([]rune(input)) > 1
	return lo.ContainsBy(card.Meanings, func(meaning string) bool {
		m := kana.NormalizeMeaning(meaning)
		return m == input || (allowContains && strings.Contains(m, input))
	})
}

// MatchWord checks ASCII input against the romaji forms, and anything else
// against the readings and the script.
func MatchWord(card deck.Card, text string) bool {
	if kana.IsASCII(strings.TrimSpace(text)) {
		input := kana.NormalizeRomaji(text)
		if input == "" {
			return false
		}
		return lo.ContainsBy(card.RomajiForms, func(romaji string) bool {
			return kana.NormalizeRomaji(romaji) == input
		})
	}

	if MatchReading(card, text) {
		return true
	}
	input := kana.Normalize(text)
	script := kana.Normalize(card.Script)
	return input != "" && script != "" && strings.Contains(script, input)
}
