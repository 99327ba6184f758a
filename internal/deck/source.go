package deck

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/at-ishikawa/jmemory/internal/assets"
	"github.com/go-resty/resty/v2"
)

// Source provides decks keyed by deck key
type Source interface {
	Decks(ctx context.Context) (map[string]Deck, error)
}

// FSSource reads every YAML deck file in a file system.
// A deck without a key takes the basename of its file.
type FSSource struct {
	fsys fs.FS
}

func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// NewEmbeddedSource returns the starter decks bundled with the binary
func NewEmbeddedSource() *FSSource {
	return NewFSSource(assets.StarterDecks())
}

// NewDirectorySource reads decks under a directory on disk
func NewDirectorySource(dir string) *FSSource {
	return NewFSSource(os.DirFS(dir))
}

func (s *FSSource) Decks(_ context.Context) (map[string]Deck, error) {
	files, err := loadYamlFiles[Deck](s.fsys, isYamlFile)
	if err != nil {
		return nil, fmt.Errorf("loadYamlFiles() > %w", err)
	}

	result := make(map[string]Deck, len(files))
	for _, file := range files {
		d := file.contents
		if d.Key == "" {
			basename := filepath.Base(file.path)
			d.Key = strings.TrimSuffix(basename, filepath.Ext(basename))
		}
		if _, ok := result[d.Key]; ok {
			return nil, fmt.Errorf("duplicate deck key %q in %s", d.Key, file.path)
		}
		result[d.Key] = d
	}
	return result, nil
}

// RemoteSource fetches decks from an HTTP endpoint returning a JSON array of decks
type RemoteSource struct {
	client *resty.Client
	url    string
	cache  *fileCache
}

type RemoteOption func(*RemoteSource)

// WithCacheDirectory keeps the last fetched decks under dir and serves them
// while the endpoint is unreachable
func WithCacheDirectory(dir string) RemoteOption {
	return func(s *RemoteSource) {
		if dir != "" {
			s.cache = newFileCache(dir)
		}
	}
}

func NewRemoteSource(url string, opts ...RemoteOption) *RemoteSource {
	s := &RemoteSource{
		client: resty.New(),
		url:    url,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RemoteSource) Decks(ctx context.Context) (map[string]Deck, error) {
	fetch := func() ([]byte, error) {
		body, err := s.get(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := s.parse(body); err != nil {
			return nil, err
		}
		return body, nil
	}
	if s.cache == nil {
		body, err := fetch()
		if err != nil {
			return nil, err
		}
		return s.parse(body)
	}

	body, err := s.cache.fetch(s.url, fetch)
	if body == nil {
		return nil, fmt.Errorf("cache.fetch > %w", err)
	}
	if err != nil {
		slog.Default().Warn("failed to cache decks", slog.Any("error", err))
	}
	return s.parse(body)
}

func (s *RemoteSource) get(ctx context.Context) ([]byte, error) {
	res, err := s.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("client.R.Get > %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status code: %d, body: %s", res.StatusCode(), string(res.Body()))
	}
	return res.Body(), nil
}

func (s *RemoteSource) parse(body []byte) (map[string]Deck, error) {
	var decks []Deck
	if err := json.Unmarshal(body, &decks); err != nil {
		return nil, fmt.Errorf("json.Unmarshal > %w", err)
	}

	result := make(map[string]Deck, len(decks))
	for _, d := range decks {
		if d.Key == "" {
			return nil, fmt.Errorf("deck without a key from %s", s.url)
		}
		result[d.Key] = d
	}
	return result, nil
}

// LayeredSource merges sources in order. A later source replaces a deck
// with the same key from an earlier one. A failing source is logged and
// skipped unless every source fails.
type LayeredSource struct {
	sources []Source
}

func NewLayeredSource(sources ...Source) *LayeredSource {
	return &LayeredSource{sources: sources}
}

func (s *LayeredSource) Decks(ctx context.Context) (map[string]Deck, error) {
	result := make(map[string]Deck)
	var lastErr error
	succeeded := 0
	for _, source := range s.sources {
		decks, err := source.Decks(ctx)
		if err != nil {
			slog.Default().Warn("failed to load decks",
				slog.String("source", fmt.Sprintf("%T", source)),
				slog.Any("error", err),
			)
			lastErr = err
			continue
		}
		succeeded++
		for key, d := range decks {
			result[key] = d
		}
	}
	if succeeded == 0 && lastErr != nil {
		return nil, fmt.Errorf("no deck source could be loaded: %w", lastErr)
	}
	return result, nil
}

// Select returns the decks for the given keys in the given order.
// An empty key list selects every deck sorted by key.
func Select(decks map[string]Deck, keys []string) ([]Deck, error) {
	if len(keys) == 0 {
		return SortedDecks(decks), nil
	}

	result := make([]Deck, 0, len(keys))
	for _, key := range keys {
		d, ok := decks[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrDeckNotFound, key)
		}
		result = append(result, d)
	}
	return result, nil
}
