// Package testutil provides shared test helpers for creating config files and deck fixtures.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/mastery"
)

// SetupTestConfig creates a config file that reads decks from tmpDir/decks
// and keeps mastery records as YAML under tmpDir/mastery. The starter decks
// are disabled. Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	for _, d := range []string{"decks", "mastery", "outputs"} {
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, d), 0755))
	}

	configContent := fmt.Sprintf(`decks:
  directories:
    - %s
  include_starter: false
storage:
  local:
    driver: yaml
    path: %s
outputs:
  report_directory: %s
`,
		filepath.Join(tmpDir, "decks"),
		filepath.Join(tmpDir, "mastery"),
		filepath.Join(tmpDir, "outputs"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// CreateDeck writes d as tmpDir/decks/<key>.yml
func CreateDeck(t *testing.T, tmpDir string, d deck.Deck) string {
	t.Helper()

	path := filepath.Join(tmpDir, "decks", d.Key+".yml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, deck.WriteYamlFile(path, d))
	return path
}

// CreateMastery stores records of a deck the way the YAML repository of
// SetupTestConfig reads them
func CreateMastery(t *testing.T, tmpDir string, userID string, deckKey string, records mastery.Map) {
	t.Helper()

	repository := mastery.NewYAMLRepository(filepath.Join(tmpDir, "mastery"))
	require.NoError(t, repository.Save(context.Background(), userID, deckKey, records))
}

// LoadMastery reads back the records of a deck
func LoadMastery(t *testing.T, tmpDir string, userID string, deckKey string) mastery.Map {
	t.Helper()

	repository := mastery.NewYAMLRepository(filepath.Join(tmpDir, "mastery"))
	records, err := repository.Load(context.Background(), userID, deckKey)
	require.NoError(t, err)
	return records
}

// KanjiDeck is a small kanji deck for command tests
func KanjiDeck() deck.Deck {
	return deck.Deck{
		Key:  "basic_kanji",
		Name: "Basic kanji",
		Kind: deck.KindKanji,
		Cards: []deck.Card{
			{ID: "mountain", Script: "山", Readings: []string{"やま", "さん"}, Meanings: []string{"mountain"}},
			{ID: "river", Script: "川", Readings: []string{"かわ"}, Meanings: []string{"river"}},
		},
	}
}
