package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/jmemory/internal/auth"
	"github.com/at-ishikawa/jmemory/internal/bootstrap"
	"github.com/at-ishikawa/jmemory/internal/config"
	"github.com/at-ishikawa/jmemory/internal/datasync"
	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/mastery"
	"github.com/at-ishikawa/jmemory/internal/session"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// environment holds the decks and the mastery repositories of a command
type environment struct {
	decks        map[string]deck.Deck
	repositories *bootstrap.Repositories
	logger       *slog.Logger
}

func openEnvironment(ctx context.Context, cfg *config.Config) (*environment, error) {
	decks, err := bootstrap.LoadDecks(ctx, cfg.Decks)
	if err != nil {
		return nil, fmt.Errorf("bootstrap.LoadDecks() > %w", err)
	}
	repositories, err := bootstrap.OpenRepositories(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("bootstrap.OpenRepositories() > %w", err)
	}
	return &environment{
		decks:        decks,
		repositories: repositories,
		logger:       slog.Default(),
	}, nil
}

func (e *environment) Close() error {
	return e.repositories.Close()
}

func (e *environment) newSyncer(store *mastery.Store) *datasync.Syncer {
	return datasync.NewSyncer(store, e.repositories.Local, e.repositories.Remote, e.decks, e.logger)
}

// load pulls the records of the decks into a new store
func (e *environment) load(ctx context.Context, userID string, decks []deck.Deck) (*mastery.Store, *datasync.Syncer) {
	store := mastery.NewStore()
	syncer := e.newSyncer(store)
	syncer.Pull(ctx, userID, keysOf(decks))
	return store, syncer
}

func keysOf(decks []deck.Deck) []string {
	return lo.Map(decks, func(d deck.Deck, _ int) string {
		return d.Key
	})
}

// newIdentity returns who mastery records belong to. With a JWT secret the
// learner signs in with a token and the token provider is returned too.
// Otherwise auth.user_id is used.
func newIdentity(cfg *config.Config, token string) (auth.Provider, *auth.TokenProvider, error) {
	if cfg.Auth.JWTSecret == "" {
		if token != "" {
			return nil, nil, errors.New("signing in with a token requires auth.jwt_secret")
		}
		return auth.StaticProvider{UserID: cfg.Auth.UserID}, nil, nil
	}

	provider := auth.NewTokenProvider(auth.NewTokenVerifier(cfg.Auth.JWTSecret))
	if token != "" {
		if _, err := provider.SignIn(token); err != nil {
			return nil, nil, fmt.Errorf("provider.SignIn() > %w", err)
		}
	}
	return provider, provider, nil
}

// categoriesValue is a flag of comma separated categories
type categoriesValue struct {
	categories *[]session.Category
}

var _ pflag.Value = (*categoriesValue)(nil)

func newCategoriesValue(categories *[]session.Category) *categoriesValue {
	return &categoriesValue{categories: categories}
}

func (v *categoriesValue) String() string {
	if v.categories == nil {
		return ""
	}
	return strings.Join(lo.Map(*v.categories, func(c session.Category, _ int) string {
		return string(c)
	}), ",")
}

func (v *categoriesValue) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		category, err := session.ParseCategory(part)
		if err != nil {
			return err
		}
		if !lo.Contains(*v.categories, category) {
			*v.categories = append(*v.categories, category)
		}
	}
	return nil
}

func (v *categoriesValue) Type() string {
	return "categories"
}

// configuredCategories parses session.categories
func configuredCategories(cfg *config.Config) ([]session.Category, error) {
	categories := make([]session.Category, 0, len(cfg.Session.Categories))
	for _, value := range cfg.Session.Categories {
		category, err := session.ParseCategory(value)
		if err != nil {
			return nil, fmt.Errorf("session.ParseCategory() > %w", err)
		}
		categories = append(categories, category)
	}
	return categories, nil
}
