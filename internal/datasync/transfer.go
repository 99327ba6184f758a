package datasync

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/samber/lo"

	"github.com/at-ishikawa/jmemory/internal/mastery"
)

// ImportResult tracks counts for an import.
type ImportResult struct {
	DecksSaved     int
	RecordsNew     int
	RecordsUpdated int
	RecordsSkipped int
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun bool
}

// Importer merges mastery maps into a repository. A record replaces the
// stored one only when it was reviewed later.
type Importer struct {
	repository mastery.Repository
	writer     io.Writer
}

func NewImporter(repository mastery.Repository, writer io.Writer) *Importer {
	return &Importer{
		repository: repository,
		writer:     writer,
	}
}

// Import merges data, keyed by deck, into the user's records
func (imp *Importer) Import(ctx context.Context, userID string, data map[string]mastery.Map, opts ImportOptions) (*ImportResult, error) {
	var result ImportResult

	deckKeys := lo.Keys(data)
	slices.Sort(deckKeys)
	for _, deckKey := range deckKeys {
		existing, err := imp.repository.Load(ctx, userID, deckKey)
		if err != nil {
			return nil, fmt.Errorf("Load(%s) > %w", deckKey, err)
		}

		merged := mastery.Merge(data[deckKey], existing)
		changed := false
		cardIDs := lo.Keys(data[deckKey])
		slices.Sort(cardIDs)
		for _, cardID := range cardIDs {
			current, ok := existing[cardID]
			switch {
			case !ok:
				fmt.Fprintf(imp.writer, "  [NEW]  %s/%s\n", deckKey, cardID)
				result.RecordsNew++
				changed = true
			case merged[cardID] != current:
				fmt.Fprintf(imp.writer, "  [UPDATE]  %s/%s\n", deckKey, cardID)
				result.RecordsUpdated++
				changed = true
			default:
				result.RecordsSkipped++
			}
		}

		if !changed || opts.DryRun {
			continue
		}
		if err := imp.repository.Save(ctx, userID, deckKey, merged); err != nil {
			return nil, fmt.Errorf("Save(%s) > %w", deckKey, err)
		}
		result.DecksSaved++
	}
	return &result, nil
}

// Exporter reads the mastery maps of decks from a repository.
type Exporter struct {
	repository mastery.Repository
}

func NewExporter(repository mastery.Repository) *Exporter {
	return &Exporter{repository: repository}
}

// Export returns the user's records keyed by deck. Decks without records are omitted.
func (e *Exporter) Export(ctx context.Context, userID string, deckKeys []string) (map[string]mastery.Map, error) {
	data := make(map[string]mastery.Map, len(deckKeys))
	for _, deckKey := range deckKeys {
		records, err := e.repository.Load(ctx, userID, deckKey)
		if err != nil {
			return nil, fmt.Errorf("repository.Load(%s) > %w", deckKey, err)
		}
		if len(records) == 0 {
			continue
		}
		data[deckKey] = records
	}
	return data, nil
}
