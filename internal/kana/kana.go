// Package kana canonicalizes user-entered Japanese, romaji and meaning text
// so that answers can be compared independently of script and formatting.
package kana

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	katakanaStart = 0x30A1 // ァ
	katakanaEnd   = 0x30F6 // ヶ
	kanaOffset    = 0x60
)

// ignoredRunes are dropped from every normalized form: long-vowel marks,
// dash variants and the punctuation learners commonly type by accident.
var ignoredRunes = map[rune]struct{}{
	'ー': {}, '−': {}, '‐': {}, '‑': {}, '–': {}, '—': {}, '-': {},
	'〜': {}, '~': {}, '・': {}, '、': {}, '。': {}, ',': {}, '.': {},
	'!': {}, '?': {}, '「': {}, '」': {}, '\'': {}, '"': {},
}

// Normalize returns the canonical form used for kana comparisons.
// The input is NFKC-normalized, lowercased, katakana are folded to hiragana and
// whitespace and punctuation are removed. Normalize is idempotent.
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(norm.NFKC.String(text)))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || isIgnored(r) {
			continue
		}
		b.WriteRune(ToHiragana(r))
	}
	return norm.NFKC.String(b.String())
}

// NormalizeMeaning is Normalize for free-text glosses: runs of whitespace are
// collapsed to a single space instead of removed, so containment checks do
// not match across word boundaries.
func NormalizeMeaning(text string) string {
	s := strings.ToLower(norm.NFKC.String(text))

	var b strings.Builder
	b.Grow(len(s))
	for _, field := range strings.Fields(s) {
		var word strings.Builder
		for _, r := range field {
			if isIgnored(r) {
				continue
			}
			word.WriteRune(ToHiragana(r))
		}
		if word.Len() == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word.String())
	}
	return norm.NFKC.String(b.String())
}

// NormalizeRomaji returns the canonical form used for Latin transliterations.
// Macron and other diacritic vowels fold to their plain vowel (tōkyō -> tokyo)
// and anything outside [a-z0-9] is dropped.
func NormalizeRomaji(text string) string {
	s := strings.ToLower(strings.TrimSpace(norm.NFKC.String(text)))

	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn))), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ToHiragana maps a katakana code point to its hiragana equivalent and leaves
// every other rune untouched.
func ToHiragana(r rune) rune {
	if r >= katakanaStart && r <= katakanaEnd {
		return r - kanaOffset
	}
	return r
}

// IsASCII reports whether text consists only of ASCII characters.
// Empty text is not ASCII input.
func IsASCII(text string) bool {
	if text == "" {
		return false
	}
	for i := 0; i < len(text); i++ {
		if text[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// ContainsHan reports whether text contains at least one CJK ideograph.
func ContainsHan(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// HanRunes returns the distinct CJK ideographs of text in order of appearance.
func HanRunes(text string) []rune {
	var out []rune
	seen := make(map[rune]struct{})
	for _, r := range text {
		if !unicode.Is(unicode.Han, r) {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func isIgnored(r rune) bool {
	_, ok := ignoredRunes[r]
	return ok
}
