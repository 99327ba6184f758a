package evaluate

import (
	"errors"
	"testing"

	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/glyph"
	"github.com/stretchr/testify/assert"
)

type stubScorer struct {
	ok  bool
	err error
}

func (s stubScorer) Matches(glyph.Bitmap, string) (bool, error) {
	return s.ok, s.err
}

var (
	mountain = deck.Card{
		ID:          "mountain",
		Script:      "山",
		Readings:    []string{"やま", "さん"},
		RomajiForms: []string{"yama", "san"},
		Meanings:    []string{"mountain"},
	}
	live = deck.Card{
		ID:          "to-live",
		Script:      "生きる",
		Readings:    []string{"いきる"},
		RomajiForms: []string{"ikiru"},
		Meanings:    []string{"to live"},
	}
	tokyo = deck.Card{
		ID:          "tokyo",
		Script:      "東京",
		Readings:    []string{"とうきょう"},
		RomajiForms: []string{"tōkyō"},
		Meanings:    []string{"Tokyo"},
	}
)

func TestEvaluator_Evaluate(t *testing.T) {
	drawing := glyph.Bitmap{0, 255, 255, 0}

	tests := []struct {
		name   string
		scorer DrawingScorer
		card   deck.Card
		mode   Mode
		text   string
		bitmap glyph.Bitmap
		want   Detail
	}{
		{
			name: "reading in hiragana",
			card: mountain,
			mode: ModeReadingFromScript,
			text: "やま",
			want: Detail{Mode: ModeReadingFromScript, Reading: Pass},
		},
		{
			name: "reading in katakana with spaces",
			card: mountain,
			mode: ModeReadingFromScript,
			text: " サン ",
			want: Detail{Mode: ModeReadingFromScript, Reading: Pass},
		},
		{
			name: "wrong reading",
			card: mountain,
			mode: ModeReadingFromScript,
			text: "かわ",
			want: Detail{Mode: ModeReadingFromScript, Reading: Fail},
		},
		{
			name: "empty reading",
			card: mountain,
			mode: ModeReadingFromScript,
			text: "   ",
			want: Detail{Mode: ModeReadingFromScript, Reading: Fail},
		},
		{
			name: "card without readings",
			card: deck.Card{ID: "x", Script: "コーヒー", Meanings: []string{"coffee"}},
			mode: ModeReadingFromScript,
			text: "こーひー",
			want: Detail{Mode: ModeReadingFromScript, Reading: Fail},
		},
		{
			name:   "script with reading and drawing both passing",
			scorer: stubScorer{ok: true},
			card:   mountain,
			mode:   ModeScriptFromMeaning,
			text:   "やま",
			bitmap: drawing,
			want:   Detail{Mode: ModeScriptFromMeaning, Reading: Pass, Drawing: Pass},
		},
		{
			name:   "script with a failing drawing",
			scorer: stubScorer{ok: false},
			card:   mountain,
			mode:   ModeScriptFromMeaning,
			text:   "やま",
			bitmap: drawing,
			want:   Detail{Mode: ModeScriptFromMeaning, Reading: Pass, Drawing: Fail},
		},
		{
			name:   "script with only a reading",
			scorer: stubScorer{ok: false},
			card:   mountain,
			mode:   ModeScriptFromMeaning,
			text:   "やま",
			want:   Detail{Mode: ModeScriptFromMeaning, Reading: Pass},
		},
		{
			name:   "script with only a drawing",
			scorer: stubScorer{ok: true},
			card:   mountain,
			mode:   ModeScriptFromMeaning,
			bitmap: drawing,
			want:   Detail{Mode: ModeScriptFromMeaning, Drawing: Pass},
		},
		{
			name:   "script without any evidence",
			scorer: stubScorer{ok: true},
			card:   mountain,
			mode:   ModeScriptFromMeaning,
			want:   Detail{Mode: ModeScriptFromMeaning, Drawing: Fail},
		},
		{
			name:   "scoring error is a failed drawing",
			scorer: stubScorer{ok: true, err: errors.New("no font")},
			card:   mountain,
			mode:   ModeScriptFromMeaning,
			bitmap: drawing,
			want:   Detail{Mode: ModeScriptFromMeaning, Drawing: Fail},
		},
		{
			name:   "no scorer",
			card:   mountain,
			mode:   ModeScriptFromMeaning,
			bitmap: drawing,
			want:   Detail{Mode: ModeScriptFromMeaning, Drawing: Fail},
		},
		{
			name: "meaning equality",
			card: live,
			mode: ModeMeaningFromWord,
			text: "To  Live",
			want: Detail{Mode: ModeMeaningFromWord, Meaning: Pass},
		},
		{
			name: "meaning containment",
			card: live,
			mode: ModeMeaningFromWord,
			text: "live",
			want: Detail{Mode: ModeMeaningFromWord, Meaning: Pass},
		},
		{
			name: "single character is not enough for containment",
			card: live,
			mode: ModeMeaningFromWord,
			text: "l",
			want: Detail{Mode: ModeMeaningFromWord, Meaning: Fail},
		},
		{
			name: "word by romaji with macrons on the card",
			card: tokyo,
			mode: ModeWordFromMeaning,
			text: "Tokyo",
			want: Detail{Mode: ModeWordFromMeaning, Meaning: Pass},
		},
		{
			name: "word by wrong romaji",
			card: tokyo,
			mode: ModeWordFromMeaning,
			text: "kyoto",
			want: Detail{Mode: ModeWordFromMeaning, Meaning: Fail},
		},
		{
			name: "word by reading",
			card: live,
			mode: ModeWordFromMeaning,
			text: "イキル",
			want: Detail{Mode: ModeWordFromMeaning, Meaning: Pass},
		},
		{
			name: "word by script",
			card: live,
			mode: ModeWordFromMeaning,
			text: "生きる",
			want: Detail{Mode: ModeWordFromMeaning, Meaning: Pass},
		},
		{
			name: "word by part of the script",
			card: live,
			mode: ModeWordFromMeaning,
			text: "生",
			want: Detail{Mode: ModeWordFromMeaning, Meaning: Pass},
		},
		{
			name: "word that is not part of the script",
			card: live,
			mode: ModeWordFromMeaning,
			text: "死ぬ",
			want: Detail{Mode: ModeWordFromMeaning, Meaning: Fail},
		},
		{
			name: "unknown mode",
			card: live,
			mode: Mode("listening"),
			text: "いきる",
			want: Detail{Mode: Mode("listening"), Meaning: Fail},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator := NewEvaluator(tt.scorer, nil)
			assert.Equal(t, tt.want, evaluator.Evaluate(tt.card, tt.mode, tt.text, tt.bitmap))
		})
	}
}

func TestDetail_Overall(t *testing.T) {
	tests := []struct {
		name           string
		detail         Detail
		wantPassed     bool
		wantApplicable bool
	}{
		{
			name:           "meaning decides alone",
			detail:         Detail{Reading: Fail, Meaning: Pass},
			wantPassed:     true,
			wantApplicable: true,
		},
		{
			name:           "every present sub-skill passes",
			detail:         Detail{Reading: Pass, Drawing: Pass},
			wantPassed:     true,
			wantApplicable: true,
		},
		{
			name:           "one failing sub-skill",
			detail:         Detail{Reading: Pass, Drawing: Fail},
			wantPassed:     false,
			wantApplicable: true,
		},
		{
			name:           "single drawing",
			detail:         Detail{Drawing: Pass},
			wantPassed:     true,
			wantApplicable: true,
		},
		{
			name:           "nothing set",
			detail:         Detail{Mode: ModeReadingFromScript},
			wantPassed:     false,
			wantApplicable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passed, applicable := tt.detail.Overall()
			assert.Equal(t, tt.wantPassed, passed)
			assert.Equal(t, tt.wantApplicable, applicable)
		})
	}
}

func TestUniform(t *testing.T) {
	tests := []struct {
		mode Mode
		ok   bool
		want Detail
	}{
		{mode: ModeReadingFromScript, ok: true, want: Detail{Mode: ModeReadingFromScript, Reading: Pass}},
		{mode: ModeScriptFromMeaning, ok: false, want: Detail{Mode: ModeScriptFromMeaning, Reading: Fail, Drawing: Fail}},
		{mode: ModeMeaningFromWord, ok: true, want: Detail{Mode: ModeMeaningFromWord, Meaning: Pass}},
		{mode: ModeWordFromMeaning, ok: false, want: Detail{Mode: ModeWordFromMeaning, Meaning: Fail}},
		{mode: Mode("unknown"), ok: true, want: Detail{Mode: Mode("unknown"), Meaning: Fail}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := Uniform(tt.mode, tt.ok)
			assert.Equal(t, tt.want, got)
			if tt.mode.Valid() {
				assert.Equal(t, tt.ok, got.Passed())
			}
		})
	}
}
