package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/evaluate"
	"github.com/at-ishikawa/jmemory/internal/glyph"
	"github.com/at-ishikawa/jmemory/internal/mastery"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time {
	return testNow
}

type stubScorer struct {
	ok    bool
	calls int
}

func (s *stubScorer) Matches(glyph.Bitmap, string) (bool, error) {
	s.calls++
	return s.ok, nil
}

var (
	mountain = deck.Card{ID: "mountain", Script: "山", Readings: []string{"やま", "さん"}, Meanings: []string{"mountain"}}
	river    = deck.Card{ID: "river", Script: "川", Readings: []string{"かわ"}, Meanings: []string{"river"}}
	toLive   = deck.Card{ID: "to-live", Script: "生きる", Readings: []string{"いきる"}, RomajiForms: []string{"ikiru"}, Meanings: []string{"to live"}}
	coffee   = deck.Card{ID: "coffee", Script: "コーヒー", Readings: []string{"こーひー"}, RomajiForms: []string{"kōhī"}, Meanings: []string{"coffee"}}

	kanjiDeck = deck.Deck{Key: "basic_kanji", Kind: deck.KindKanji, Cards: []deck.Card{mountain, river}}
	verbDeck  = deck.Deck{Key: "verbs_1", Kind: deck.KindVocabulary, Cards: []deck.Card{toLive, coffee}}
)

type fixture struct {
	controller *Controller
	store      *mastery.Store
	scorer     *stubScorer
	surface    *glyph.StrokeSurface
	recorded   []string
}

func newFixture(t *testing.T, seed int64) *fixture {
	t.Helper()
	f := &fixture{
		store:   mastery.NewStore(mastery.WithClock(clock)),
		scorer:  &stubScorer{ok: true},
		surface: glyph.NewStrokeSurface(600, 14),
	}
	f.controller = New(
		evaluate.NewEvaluator(f.scorer, nil),
		f.store,
		WithRand(rand.New(rand.NewSource(seed))),
		WithClock(clock),
		WithSurface(f.surface, glyph.DefaultResolution),
		WithRecordHook(func(deckKey string) {
			f.recorded = append(f.recorded, deckKey)
		}),
	)
	return f
}

// startWithMode finds a seed whose first prompt uses mode
func startWithMode(t *testing.T, decks []deck.Deck, categories []Category, mode evaluate.Mode) *fixture {
	t.Helper()
	for seed := int64(0); seed < 100; seed++ {
		f := newFixture(t, seed)
		require.NoError(t, f.controller.Start(decks, categories))
		if f.controller.State().Mode == mode {
			return f
		}
	}
	t.Fatalf("no seed starts with mode %s", mode)
	return nil
}

func TestController_Start(t *testing.T) {
	t.Run("no cards", func(t *testing.T) {
		f := newFixture(t, 1)
		err := f.controller.Start([]deck.Deck{{Key: "empty"}}, Categories)
		assert.ErrorIs(t, err, ErrNoCards)
		assert.Equal(t, PhaseIdle, f.controller.State().Phase())
		assert.Equal(t, "no cards available", err.Error())

		_, err = f.controller.Next()
		assert.ErrorIs(t, err, ErrNotStarted)
		assert.Zero(t, f.store.Len())
	})

	t.Run("pool of tagged cards", func(t *testing.T) {
		f := newFixture(t, 1)
		require.NoError(t, f.controller.Start([]deck.Deck{kanjiDeck, verbDeck}, Categories))

		state := f.controller.State()
		assert.Equal(t, PhasePresenting, state.Phase())
		assert.Equal(t, []string{"basic_kanji", "verbs_1"}, state.DeckKeys)
		require.Len(t, state.Pool, 4)
		assert.ElementsMatch(t, []string{"mountain", "river", "to-live", "coffee"}, []string{
			state.Pool[0].ID, state.Pool[1].ID, state.Pool[2].ID, state.Pool[3].ID,
		})
		for _, card := range state.Pool {
			assert.NotEmpty(t, card.DeckTag)
		}
		assert.Equal(t, 0, state.Index)
		assert.False(t, state.Answered)
		assert.False(t, state.Revealed)
		assert.Nil(t, state.Pending)

		card, ok := state.Current()
		require.True(t, ok)
		if card.DeckTag == kanjiDeck.Key {
			assert.Equal(t, deck.CardKindKanji, state.Kind)
		} else {
			assert.Equal(t, deck.CardKindVocabWord, state.Kind)
		}
		assert.Contains(t, ApplicableModes(state.Kind, Categories), state.Mode)
	})
}

func TestController_ReadingCardEndToEnd(t *testing.T) {
	f := newFixture(t, 3)
	require.NoError(t, f.controller.Start([]deck.Deck{{Key: "basic_kanji", Kind: deck.KindKanji, Cards: []deck.Card{mountain}}}, []Category{CategoryKanji}))

	state := f.controller.State()
	assert.Contains(t, []evaluate.Mode{evaluate.ModeReadingFromScript, evaluate.ModeScriptFromMeaning}, state.Mode)

	detail, err := f.controller.Check(" ヤマ ")
	require.NoError(t, err)
	assert.True(t, detail.Passed())
	assert.Equal(t, evaluate.Pass, detail.Reading)
	assert.Zero(t, f.scorer.calls, "nothing was drawn")

	state = f.controller.State()
	assert.Equal(t, PhaseAnswered, state.Phase())
	assert.True(t, state.Revealed)
	assert.Equal(t, &Feedback{OK: true, Message: "Correct."}, state.Feedback)

	record, err := f.controller.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, record.Repetitions)
	assert.Equal(t, 1, record.IntervalDays)
	assert.Equal(t, testNow.Add(24*time.Hour), record.DueAt)
	assert.Equal(t, record, f.store.Get("mountain"))
	assert.Equal(t, []string{"basic_kanji"}, f.recorded)
	assert.Equal(t, []string{"mountain"}, f.controller.History())

	state = f.controller.State()
	assert.Equal(t, PhasePresenting, state.Phase())
	assert.Equal(t, 0, state.Index, "a single card is presented again")
	assert.Nil(t, state.Feedback)
}

func TestController_Check(t *testing.T) {
	t.Run("only once per card", func(t *testing.T) {
		f := newFixture(t, 1)
		require.NoError(t, f.controller.Start([]deck.Deck{verbDeck}, Categories))

		_, err := f.controller.Check("wrong")
		require.NoError(t, err)
		_, err = f.controller.Check("wrong again")
		assert.ErrorIs(t, err, ErrAlreadyAnswered)
	})

	t.Run("not started", func(t *testing.T) {
		f := newFixture(t, 1)
		_, err := f.controller.Check("やま")
		assert.ErrorIs(t, err, ErrNotStarted)
	})

	t.Run("writing prompt reads the surface", func(t *testing.T) {
		f := startWithMode(t, []deck.Deck{kanjiDeck}, []Category{CategoryKanji}, evaluate.ModeScriptFromMeaning)
		f.surface.AddStroke(glyph.Stroke{Points: []glyph.Point{{X: 100, Y: 300}, {X: 500, Y: 300}}})

		detail, err := f.controller.Check("")
		require.NoError(t, err)
		assert.Equal(t, 1, f.scorer.calls)
		assert.Equal(t, evaluate.Pass, detail.Drawing)
		assert.Equal(t, evaluate.Unset, detail.Reading)

		_, err = f.controller.Next()
		require.NoError(t, err)
		assert.Empty(t, f.surface.Strokes(), "the surface is cleared for the next card")
	})

	t.Run("writing prompt without drawing or text fails", func(t *testing.T) {
		f := startWithMode(t, []deck.Deck{kanjiDeck}, []Category{CategoryKanji}, evaluate.ModeScriptFromMeaning)

		detail, err := f.controller.Check("")
		require.NoError(t, err)
		assert.Equal(t, evaluate.Fail, detail.Drawing)
		assert.Zero(t, f.scorer.calls)
		assert.Equal(t, &Feedback{OK: false, Message: "Incorrect."}, f.controller.State().Feedback)
	})

	t.Run("kanji card with words only is asked for its meaning", func(t *testing.T) {
		f := newFixture(t, 1)
		require.NoError(t, f.controller.Start([]deck.Deck{kanjiDeck}, []Category{CategoryWords}))
		assert.Equal(t, evaluate.ModeMeaningFromWord, f.controller.State().Mode)

		card, _ := f.controller.State().Current()
		detail, err := f.controller.Check(card.Meanings[0])
		require.NoError(t, err)
		assert.Equal(t, evaluate.Pass, detail.Meaning)
	})

	t.Run("unknown card fails the meaning prompt", func(t *testing.T) {
		f := newFixture(t, 1)
		unknown := deck.Deck{Key: "misc", Cards: []deck.Card{{ID: "a", Script: "あ", Readings: []string{"あ"}}}}
		require.NoError(t, f.controller.Start([]deck.Deck{unknown}, Categories))

		state := f.controller.State()
		assert.Equal(t, deck.CardKindUnknown, state.Kind)
		assert.Equal(t, evaluate.ModeMeaningFromWord, state.Mode)

		detail, err := f.controller.Check("あ")
		require.NoError(t, err)
		assert.Equal(t, evaluate.Fail, detail.Meaning)
	})
}

func TestController_ShowAnswerCountsAsFailure(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		f := newFixture(t, seed)
		require.NoError(t, f.controller.Start([]deck.Deck{kanjiDeck, verbDeck}, Categories))
		card, _ := f.controller.State().Current()
		f.store.Load(mastery.Map{card.ID: {Repetitions: 2, IntervalDays: 6, Ease: 2.7}})

		require.NoError(t, f.controller.ShowAnswer())
		state := f.controller.State()
		assert.True(t, state.Revealed)
		assert.True(t, state.Answered)
		require.NotNil(t, state.Pending)
		passed, applicable := state.Pending.Overall()
		assert.False(t, passed)
		assert.True(t, applicable)

		_, err := f.controller.Check(card.Readings[0])
		assert.ErrorIs(t, err, ErrAlreadyAnswered)

		record, err := f.controller.Next()
		require.NoError(t, err)
		assert.Equal(t, 0, record.Repetitions)
		assert.Equal(t, 1, record.IntervalDays)
		assert.InDelta(t, 2.5, record.Ease, 1e-9)
	}
}

func TestController_Mark(t *testing.T) {
	tests := []struct {
		name         string
		correct      bool
		wantReps     int
		wantFeedback Feedback
	}{
		{
			name:         "marked correct after a failed check",
			correct:      true,
			wantReps:     1,
			wantFeedback: Feedback{OK: true, Message: "Marked correct. Press Next to continue."},
		},
		{
			name:         "marked wrong",
			correct:      false,
			wantReps:     0,
			wantFeedback: Feedback{OK: false, Message: "Marked incorrect. Press Next to continue."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := startWithMode(t, []deck.Deck{kanjiDeck}, []Category{CategoryKanji}, evaluate.ModeScriptFromMeaning)
			f.scorer.ok = false
			f.surface.AddStroke(glyph.Stroke{Points: []glyph.Point{{X: 10, Y: 10}}})
			_, err := f.controller.Check("")
			require.NoError(t, err)

			require.NoError(t, f.controller.Mark(tt.correct))
			state := f.controller.State()
			assert.Equal(t, &tt.wantFeedback, state.Feedback)
			assert.Equal(t, evaluate.Uniform(evaluate.ModeScriptFromMeaning, tt.correct), *state.Pending)

			record, err := f.controller.Next()
			require.NoError(t, err)
			assert.Equal(t, tt.wantReps, record.Repetitions)
		})
	}
}

func TestController_NextWithoutAnswer(t *testing.T) {
	f := newFixture(t, 5)
	require.NoError(t, f.controller.Start([]deck.Deck{kanjiDeck, verbDeck}, Categories))

	first, _ := f.controller.State().Current()
	record, err := f.controller.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, record.Repetitions)
	assert.Equal(t, 1, record.IntervalDays)
	assert.InDelta(t, 2.3, record.Ease, 1e-9)
	assert.Equal(t, []string{first.DeckTag}, f.recorded)

	second, _ := f.controller.State().Current()
	assert.NotEqual(t, first.ID, second.ID)
}

func TestController_NextPrefersDueCards(t *testing.T) {
	f := newFixture(t, 11)
	require.NoError(t, f.controller.Start([]deck.Deck{kanjiDeck, verbDeck}, Categories))

	current, _ := f.controller.State().Current()
	var due string
	records := mastery.Map{}
	for _, card := range f.controller.State().Pool {
		if card.ID == current.ID {
			continue
		}
		if due == "" {
			due = card.ID
			continue
		}
		records[card.ID] = mastery.Record{Ease: 2.5, DueAt: testNow.Add(48 * time.Hour)}
	}
	f.store.Load(records)

	_, err := f.controller.Next()
	require.NoError(t, err)
	next, _ := f.controller.State().Current()
	assert.Equal(t, due, next.ID)
}

func TestController_ResetDecks(t *testing.T) {
	f := newFixture(t, 1)
	assert.ErrorIs(t, f.controller.ResetDecks(), ErrNotStarted)

	require.NoError(t, f.controller.Start([]deck.Deck{kanjiDeck}, Categories))
	f.store.Load(mastery.Map{
		"mountain": {Repetitions: 3, IntervalDays: 16, Ease: 2.8},
		"to-live":  {Repetitions: 1, IntervalDays: 1, Ease: 2.6},
	})

	require.NoError(t, f.controller.ResetDecks())
	assert.Equal(t, mastery.NewRecord(), f.store.Get("mountain"))
	assert.Equal(t, 1, f.store.Get("to-live").Repetitions, "other decks are untouched")
	assert.Equal(t, []string{"basic_kanji"}, f.recorded)
	assert.Equal(t, &Feedback{OK: true, Message: "Mastery reset for the selected decks."}, f.controller.State().Feedback)
}

func TestController_Abandon(t *testing.T) {
	f := newFixture(t, 1)
	require.NoError(t, f.controller.Start([]deck.Deck{kanjiDeck}, Categories))
	_, err := f.controller.Check("やま")
	require.NoError(t, err)

	f.controller.Abandon()
	assert.Equal(t, PhaseIdle, f.controller.State().Phase())
	assert.Zero(t, f.store.Len())
	assert.Empty(t, f.recorded)
}

func TestApplicableModes(t *testing.T) {
	tests := []struct {
		name       string
		kind       deck.CardKind
		categories []Category
		want       []evaluate.Mode
	}{
		{
			name:       "kanji",
			kind:       deck.CardKindKanji,
			categories: Categories,
			want:       []evaluate.Mode{evaluate.ModeReadingFromScript, evaluate.ModeScriptFromMeaning},
		},
		{
			name:       "vocabulary",
			kind:       deck.CardKindVocabWord,
			categories: []Category{CategoryWords},
			want:       []evaluate.Mode{evaluate.ModeMeaningFromWord, evaluate.ModeWordFromMeaning},
		},
		{
			name:       "kanji category disabled",
			kind:       deck.CardKindKanji,
			categories: []Category{CategoryWords},
		},
		{
			name:       "unknown",
			kind:       deck.CardKindUnknown,
			categories: Categories,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplicableModes(tt.kind, tt.categories))
		})
	}
}

func TestParseCategory(t *testing.T) {
	got, err := ParseCategory(" Kanji ")
	require.NoError(t, err)
	assert.Equal(t, CategoryKanji, got)

	_, err = ParseCategory("grammar")
	assert.Error(t, err)
}
