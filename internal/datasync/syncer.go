// Package datasync moves mastery records between the in-memory store, the
// local repository and an optional remote repository.
package datasync

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/mastery"
)

const maxConcurrentDecks = 4

// Syncer loads and saves the mastery records of decks. Storage failures are
// logged and never returned: a deck that cannot be loaded starts empty, and
// a failed save keeps the in-memory records.
type Syncer struct {
	store  *mastery.Store
	local  mastery.Repository
	remote mastery.Repository
	decks  map[string]deck.Deck
	logger *slog.Logger
}

// NewSyncer returns a syncer. remote may be nil when no remote storage is
// configured; it is only used for signed-in users.
func NewSyncer(store *mastery.Store, local mastery.Repository, remote mastery.Repository, decks map[string]deck.Deck, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store:  store,
		local:  local,
		remote: remote,
		decks:  decks,
		logger: logger,
	}
}

func (s *Syncer) useRemote(userID string) bool {
	return s.remote != nil && userID != ""
}

// Pull loads the decks from the local and remote repositories and merges
// them into the store. Records reviewed in memory more recently are kept.
func (s *Syncer) Pull(ctx context.Context, userID string, deckKeys []string) {
	var mu sync.Mutex
	merged := make(map[string]mastery.Map, len(deckKeys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDecks)
	for _, key := range deckKeys {
		g.Go(func() error {
			local := s.load(ctx, s.local, "local", userID, key)
			var remote mastery.Map
			if s.useRemote(userID) {
				remote = s.load(ctx, s.remote, "remote", userID, key)
			}

			records := mastery.Merge(local, remote)
			mu.Lock()
			defer mu.Unlock()
			merged[key] = records
			return nil
		})
	}
	_ = g.Wait()

	for key, records := range merged {
		s.store.Merge(records)
		s.logger.Debug("mastery records loaded", slog.String("deck", key), slog.Int("records", len(records)))
	}
}

func (s *Syncer) load(ctx context.Context, repository mastery.Repository, name string, userID string, deckKey string) mastery.Map {
	records, err := repository.Load(ctx, userID, deckKey)
	if err != nil {
		s.logger.Warn("failed to load mastery records",
			slog.String("repository", name),
			slog.String("deck", deckKey),
			slog.Any("error", err),
		)
		return mastery.Map{}
	}
	return records
}

// Push saves the store's records of each deck locally, and remotely for a
// signed-in user.
func (s *Syncer) Push(ctx context.Context, userID string, deckKeys []string) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDecks)
	for _, key := range deckKeys {
		d, ok := s.decks[key]
		if !ok {
			s.logger.Warn("skip saving an unknown deck", slog.String("deck", key))
			continue
		}
		records := s.store.Snapshot(d.CardIDs())

		g.Go(func() error {
			s.save(ctx, s.local, "local", userID, key, records)
			if s.useRemote(userID) {
				s.save(ctx, s.remote, "remote", userID, key, records)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Syncer) save(ctx context.Context, repository mastery.Repository, name string, userID string, deckKey string, records mastery.Map) {
	if err := repository.Save(ctx, userID, deckKey, records); err != nil {
		s.logger.Error("failed to save mastery records",
			slog.String("repository", name),
			slog.String("deck", deckKey),
			slog.Any("error", err),
		)
	}
}

// PullOnSignIn pulls the active decks whenever a user signs in, until ctx is
// done or changes is closed.
func (s *Syncer) PullOnSignIn(ctx context.Context, changes <-chan string, activeDecks func() []string) {
	for {
		select {
		case <-ctx.Done():
			return
		case userID, ok := <-changes:
			if !ok {
				return
			}
			if userID == "" {
				continue
			}
			s.logger.Info("user signed in, loading mastery records", slog.String("user", userID))
			s.Pull(ctx, userID, activeDecks())
		}
	}
}
