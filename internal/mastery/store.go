package mastery

import (
	"maps"
	"sync"
	"time"

	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/evaluate"
)

const day = 24 * time.Hour

// Store owns the records of every card. It is safe for concurrent use so a
// background save can snapshot it while a session updates it.
type Store struct {
	mu      sync.RWMutex
	records Map
	params  Params
	now     func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithParams(params Params) Option {
	return func(s *Store) {
		s.params = params
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		records: make(Map),
		params:  DefaultParams,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update applies an evaluation to the card's record and returns the new record
func (s *Store) Update(cardID string, detail evaluate.Detail) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[cardID]
	if !ok {
		record = NewRecord()
	}

	record.ReadingProgress = s.params.adjustProgress(record.ReadingProgress, detail.Reading)
	record.ReadingProgress = s.params.adjustProgress(record.ReadingProgress, detail.Meaning)
	record.WritingProgress = s.params.adjustProgress(record.WritingProgress, detail.Drawing)

	if passed, applicable := detail.Overall(); applicable {
		record = s.params.schedule(record, passed)
	}

	now := s.now()
	record.LastReviewedAt = &now
	record.DueAt = now.Add(time.Duration(record.IntervalDays) * day)

	s.records[cardID] = record
	return record
}

// Reset puts the card back to the default record
func (s *Store) Reset(cardID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[cardID] = NewRecord()
}

// ResetForDeck resets every card of the deck
func (s *Store) ResetForDeck(d deck.Deck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, card := range d.Cards {
		s.records[card.ID] = NewRecord()
	}
}

// Get returns the card's record, or the default record when it was never evaluated
func (s *Store) Get(cardID string) Record {
	record, ok := s.Lookup(cardID)
	if !ok {
		return NewRecord()
	}
	return record
}

func (s *Store) Lookup(cardID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[cardID]
	return record, ok
}

// Snapshot copies the records of the given cards that exist in the store
func (s *Store) Snapshot(cardIDs []string) Map {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(Map, len(cardIDs))
	for _, id := range cardIDs {
		if record, ok := s.records[id]; ok {
			result[id] = record
		}
	}
	return result
}

// Load overwrites the store's records with the given ones
func (s *Store) Load(records Map) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.records, records)
}

// Merge combines loaded records with the store's. A record in the store
// stays when it was reviewed strictly later than the loaded one.
func (s *Store) Merge(records Map) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = Merge(s.records, records)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
