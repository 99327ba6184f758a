package deck

import (
	"strings"

	"github.com/at-ishikawa/jmemory/internal/kana"
	"github.com/samber/lo"
)

// KanjiEntry is a single ideograph together with the cards that use it
type KanjiEntry struct {
	Kanji string
	Cards []Card
}

// Readings returns the distinct readings of the cards using the ideograph
func (e KanjiEntry) Readings() []string {
	return lo.Uniq(lo.FlatMap(e.Cards, func(card Card, _ int) []string {
		return card.Readings
	}))
}

// Meanings returns the distinct meanings of the cards using the ideograph
func (e KanjiEntry) Meanings() []string {
	return lo.Uniq(lo.FlatMap(e.Cards, func(card Card, _ int) []string {
		return card.Meanings
	}))
}

// Browse lists the distinct ideographs found in the cards' scripts in order
// of first appearance. A non-empty query keeps the ideographs that equal it
// or whose cards match it by reading, meaning or romaji.
func Browse(cards []Card, query string) []KanjiEntry {
	var entries []KanjiEntry
	index := make(map[rune]int)
	for _, card := range cards {
		for _, r := range kana.HanRunes(card.Script) {
			i, ok := index[r]
			if !ok {
				i = len(entries)
				index[r] = i
				entries = append(entries, KanjiEntry{Kanji: string(r)})
			}
			entries[i].Cards = append(entries[i].Cards, card)
		}
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}
	return lo.Filter(entries, func(entry KanjiEntry, _ int) bool {
		return entryMatches(entry, query)
	})
}

func entryMatches(entry KanjiEntry, query string) bool {
	if strings.Contains(entry.Kanji, query) || strings.Contains(query, entry.Kanji) {
		return true
	}

	kanaQuery := kana.Normalize(query)
	meaningQuery := kana.NormalizeMeaning(query)
	romajiQuery := kana.NormalizeRomaji(query)
	for _, card := range entry.Cards {
		if kanaQuery != "" && lo.ContainsBy(card.Readings, func(reading string) bool {
			return strings.Contains(kana.Normalize(reading), kanaQuery)
		}) {
			return true
		}
		if meaningQuery != "" && lo.ContainsBy(card.Meanings, func(meaning string) bool {
			return strings.Contains(kana.NormalizeMeaning(meaning), meaningQuery)
		}) {
			return true
		}
		if romajiQuery != "" && lo.ContainsBy(card.RomajiForms, func(romaji string) bool {
			return strings.Contains(kana.NormalizeRomaji(romaji), romajiQuery)
		}) {
			return true
		}
	}
	return false
}
