package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/at-ishikawa/jmemory/internal/config"
	"github.com/at-ishikawa/jmemory/internal/database"
	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/evaluate"
	"github.com/at-ishikawa/jmemory/internal/glyph"
	"github.com/at-ishikawa/jmemory/internal/mastery"
)

// LoadDecks merges the starter decks, the deck directories and the remote
// deck URL, in that order.
func LoadDecks(ctx context.Context, cfg config.DecksConfig) (map[string]deck.Deck, error) {
	var sources []deck.Source
	if cfg.IncludeStarter {
		sources = append(sources, deck.NewEmbeddedSource())
	}
	for _, dir := range cfg.Directories {
		sources = append(sources, deck.NewDirectorySource(dir))
	}
	if cfg.RemoteURL != "" {
		sources = append(sources, deck.NewRemoteSource(cfg.RemoteURL, deck.WithCacheDirectory(cfg.CacheDirectory)))
	}
	if len(sources) == 0 {
		return nil, errors.New("no deck source is configured")
	}

	decks, err := deck.NewLayeredSource(sources...).Decks(ctx)
	if err != nil {
		return nil, fmt.Errorf("deck.LayeredSource.Decks() > %w", err)
	}
	return decks, nil
}

// Repositories holds the local mastery repository and the remote one, which
// is nil unless storage.remote.driver is set.
type Repositories struct {
	Local  mastery.Repository
	Remote mastery.Repository

	closers []io.Closer
}

func OpenRepositories(ctx context.Context, cfg config.StorageConfig) (*Repositories, error) {
	repositories := &Repositories{}

	switch cfg.Local.Driver {
	case "yaml":
		repositories.Local = mastery.NewYAMLRepository(cfg.Local.Path)
	default:
		db, err := database.OpenSQLite(cfg.Local.Path)
		if err != nil {
			return nil, fmt.Errorf("database.OpenSQLite(%s) > %w", cfg.Local.Path, err)
		}
		repositories.closers = append(repositories.closers, db)
		if err := database.Migrate(ctx, db); err != nil {
			_ = repositories.Close()
			return nil, fmt.Errorf("database.Migrate() > %w", err)
		}
		repositories.Local = mastery.NewSQLiteRepository(db)
	}

	switch cfg.Remote.Driver {
	case "":
	case "http":
		remote := mastery.NewHTTPRepository(cfg.Remote.HTTP.BaseURL, cfg.Remote.HTTP.APIKey, cfg.Remote.RetryAttempts)
		repositories.closers = append(repositories.closers, remote)
		repositories.Remote = remote
	default:
		db, err := database.Open(cfg.Remote.Driver, cfg.Remote.Database)
		if err != nil {
			_ = repositories.Close()
			return nil, fmt.Errorf("database.Open(%s) > %w", cfg.Remote.Driver, err)
		}
		repositories.closers = append(repositories.closers, db)
		if err := database.Migrate(ctx, db); err != nil {
			_ = repositories.Close()
			return nil, fmt.Errorf("database.Migrate() > %w", err)
		}
		repositories.Remote = mastery.NewDBRepository(db, cfg.Remote.RetryAttempts)
	}
	return repositories, nil
}

func (r *Repositories) Close() error {
	var errs []error
	for _, closer := range r.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// NewEvaluator builds the evaluator with a drawing scorer for the configured
// font. Without a font every drawing is judged wrong.
func NewEvaluator(cfg config.GlyphConfig, logger *slog.Logger) (*evaluate.Evaluator, error) {
	renderer, err := glyph.NewRenderer(cfg.FontPath)
	if err != nil {
		return nil, fmt.Errorf("glyph.NewRenderer() > %w", err)
	}
	if cfg.FontPath == "" {
		logger.Warn("glyph.font_path is not set, drawn answers cannot be checked")
	}
	return evaluate.NewEvaluator(glyph.NewScorer(renderer, cfg.Resolution, cfg.Threshold), logger), nil
}
