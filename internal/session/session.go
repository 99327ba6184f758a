// Package session drives a practice session: it presents cards, judges
// answers and records the results.
package session

import (
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/samber/lo"

	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/evaluate"
	"github.com/at-ishikawa/jmemory/internal/glyph"
	"github.com/at-ishikawa/jmemory/internal/mastery"
	"github.com/at-ishikawa/jmemory/internal/scheduler"
)

var (
	ErrNoCards         = errors.New("no cards available")
	ErrNotStarted      = errors.New("session not started")
	ErrAlreadyAnswered = errors.New("card already answered")
)

// Evaluator judges an answer to a card
type Evaluator interface {
	Evaluate(card deck.Card, mode evaluate.Mode, text string, bitmap glyph.Bitmap) evaluate.Detail
}

// MasteryStore records results. *mastery.Store implements it.
type MasteryStore interface {
	Update(cardID string, detail evaluate.Detail) mastery.Record
	Lookup(cardID string) (mastery.Record, bool)
	ResetForDeck(d deck.Deck)
}

// Controller runs one session. It is not safe for concurrent use.
type Controller struct {
	evaluator  Evaluator
	store      MasteryStore
	scheduler  *scheduler.Scheduler
	surface    glyph.Surface
	resolution int
	history    *scheduler.History
	rng        *rand.Rand
	now        func() time.Time
	onRecord   func(deckKey string)
	logger     *slog.Logger

	decks map[string]deck.Deck
	state State
}

type Option func(*Controller)

// WithRand sets the random source for shuffling, scheduling and prompt modes
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) {
		c.rng = rng
	}
}

// WithClock sets the clock used to decide whether a card is due
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithSurface sets the drawing surface read for writing prompts
func WithSurface(surface glyph.Surface, resolution int) Option {
	return func(c *Controller) {
		c.surface = surface
		c.resolution = resolution
	}
}

func WithHistorySize(size int) Option {
	return func(c *Controller) {
		c.history = scheduler.NewHistory(size)
	}
}

// WithRecordHook registers a function called with the deck key of every
// card whose mastery record changed, typically to queue a save.
func WithRecordHook(fn func(deckKey string)) Option {
	return func(c *Controller) {
		c.onRecord = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(evaluator Evaluator, store MasteryStore, opts ...Option) *Controller {
	c := &Controller{
		evaluator:  evaluator,
		store:      store,
		resolution: glyph.DefaultResolution,
		history:    scheduler.NewHistory(scheduler.DefaultHistorySize),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.scheduler = scheduler.New(scheduler.WithRand(c.rng), scheduler.WithClock(c.now))
	return c
}

// State returns a snapshot of the session
func (c *Controller) State() State {
	return c.state
}

// History returns the ids of recently finished cards, most recent first
func (c *Controller) History() []string {
	return c.history.IDs()
}

// Start builds a shuffled pool from the decks and presents its first card.
// When the decks have no cards, ErrNoCards is returned and nothing changes.
func (c *Controller) Start(decks []deck.Deck, categories []Category) error {
	pool := deck.Cards(decks)
	if len(pool) == 0 {
		return ErrNoCards
	}
	c.scheduler.Shuffle(pool)

	c.decks = lo.SliceToMap(decks, func(d deck.Deck) (string, deck.Deck) {
		return d.Key, d
	})
	c.history = scheduler.NewHistory(c.history.Size())
	c.state = State{
		Pool: pool,
		DeckKeys: lo.Map(decks, func(d deck.Deck, _ int) string {
			return d.Key
		}),
		Categories: categories,
	}
	c.enter(0)

	c.logger.Debug("session started",
		slog.Int("cards", len(pool)),
		slog.Any("decks", c.state.DeckKeys),
		slog.Any("categories", categories),
	)
	return nil
}

// enter presents the card at index with a prompt mode chosen at random among
// the applicable ones. Cards no enabled category can test are asked for
// their meaning.
func (c *Controller) enter(index int) {
	card := c.state.Pool[index]
	kind := deck.Classify(card, c.decks[card.DeckTag].Kind)

	mode := evaluate.ModeMeaningFromWord
	if modes := ApplicableModes(kind, c.state.Categories); len(modes) > 0 {
		mode = modes[c.rng.Intn(len(modes))]
	}

	if c.surface != nil {
		c.surface.Clear()
	}
	c.state = c.state.present(index, kind, mode)
}

// Check judges a typed answer, together with the drawing on the surface for
// writing prompts. It can be called once per card.
func (c *Controller) Check(text string) (evaluate.Detail, error) {
	card, ok := c.state.Current()
	if !ok {
		return evaluate.Detail{}, ErrNotStarted
	}
	if c.state.Answered {
		return evaluate.Detail{}, ErrAlreadyAnswered
	}

	var bitmap glyph.Bitmap
	if c.state.Mode == evaluate.ModeScriptFromMeaning && c.surface != nil {
		bitmap, _ = c.surface.Bitmap(c.resolution)
	}

	detail := c.evaluator.Evaluate(card, c.state.Mode, text, bitmap)
	feedback := Feedback{OK: false, Message: feedbackIncorrect}
	if detail.Passed() {
		feedback = Feedback{OK: true, Message: feedbackCorrect}
	}
	c.state = c.state.answer(detail, feedback)
	return detail, nil
}

// ShowAnswer reveals the answer. The card then counts as failed in every
// sub-skill of its mode unless it is marked afterwards.
func (c *Controller) ShowAnswer() error {
	if _, ok := c.state.Current(); !ok {
		return ErrNotStarted
	}
	c.state = c.state.answer(evaluate.Uniform(c.state.Mode, false), Feedback{OK: false, Message: feedbackShown})
	return nil
}

// Mark overrides the result of the current card by hand
func (c *Controller) Mark(correct bool) error {
	if _, ok := c.state.Current(); !ok {
		return ErrNotStarted
	}
	feedback := Feedback{OK: false, Message: feedbackMarkedIncorrect}
	if correct {
		feedback = Feedback{OK: true, Message: feedbackMarkedCorrect}
	}
	c.state = c.state.answer(evaluate.Uniform(c.state.Mode, correct), feedback)
	return nil
}

// Next records the result of the current card, an unanswered card being a
// failure, and presents the card chosen by the scheduler.
func (c *Controller) Next() (mastery.Record, error) {
	card, ok := c.state.Current()
	if !ok {
		return mastery.Record{}, ErrNotStarted
	}

	record := c.store.Update(card.ID, c.state.final())
	c.recorded(card.DeckTag)
	c.history.Push(card.ID)

	next := c.scheduler.ChooseNext(c.state.Pool, c.store.Lookup, c.history, card.ID)
	c.enter(next)
	return record, nil
}

// ResetDecks resets the mastery of every card in the session's decks
func (c *Controller) ResetDecks() error {
	if c.state.Phase() == PhaseIdle {
		return ErrNotStarted
	}
	for _, key := range c.state.DeckKeys {
		c.store.ResetForDeck(c.decks[key])
		c.recorded(key)
	}
	c.state = c.state.withFeedback(Feedback{OK: true, Message: feedbackReset})
	return nil
}

// Abandon drops the session without recording the current card
func (c *Controller) Abandon() {
	if c.surface != nil {
		c.surface.Clear()
	}
	c.decks = nil
	c.state = State{}
}

func (c *Controller) recorded(deckKey string) {
	if c.onRecord != nil {
		c.onRecord(deckKey)
	}
}
