// Package scheduler picks the next card to show.
package scheduler

import (
	"math/rand"
	"time"

	"github.com/samber/lo"

	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/mastery"
)

// Lookup returns the mastery record of a card, if any
type Lookup func(cardID string) (mastery.Record, bool)

// Scheduler chooses cards with a preference for due cards that were not
// shown recently. It is not safe for concurrent use.
type Scheduler struct {
	rng *rand.Rand
	now func() time.Time
}

type Option func(*Scheduler)

// WithRand sets the random source used to break ties within a tier
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		s.rng = rng
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Shuffle shuffles the cards in place
func (s *Scheduler) Shuffle(cards []deck.Card) {
	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// ChooseNext returns the index of the next card in pool. Candidates are
// taken from the first non-empty tier:
//
//  1. due, not recently shown and not the current card
//  2. due and not the current card
//  3. not recently shown and not the current card
//  4. any card but the current one
//
// A pool of one card or less always yields 0.
func (s *Scheduler) ChooseNext(pool []deck.Card, lookup Lookup, recent *History, currentID string) int {
	if len(pool) <= 1 {
		return 0
	}

	now := s.now()
	isDue := func(card deck.Card) bool {
		if lookup == nil {
			return true
		}
		record, ok := lookup(card.ID)
		return !ok || record.IsDue(now)
	}

	tiers := []func(card deck.Card) bool{
		func(card deck.Card) bool { return isDue(card) && !recent.Contains(card.ID) },
		isDue,
		func(card deck.Card) bool { return !recent.Contains(card.ID) },
		func(deck.Card) bool { return true },
	}
	for _, tier := range tiers {
		candidates := candidateIndexes(pool, currentID, tier)
		if len(candidates) > 0 {
			return candidates[s.rng.Intn(len(candidates))]
		}
	}
	// every card shares the current id
	return 0
}

func candidateIndexes(pool []deck.Card, currentID string, keep func(card deck.Card) bool) []int {
	return lo.FilterMap(pool, func(card deck.Card, i int) (int, bool) {
		return i, card.ID != currentID && keep(card)
	})
}
