package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/jmemory/internal/config"
	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/testutil"
)

// setConfigFile sets the global configFile variable and registers a cleanup to restore it.
func setConfigFile(t *testing.T, cfgPath string) {
	t.Helper()
	oldConfigFile := configFile
	configFile = cfgPath
	t.Cleanup(func() { configFile = oldConfigFile })
}

// setupBrokenConfigFile creates a config file with invalid YAML that causes Load() to fail.
func setupBrokenConfigFile(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{{invalid yaml content"), 0644))
	return cfgPath
}

// setupDeckConfig writes a config reading the given decks and returns it
// with the directory used for every file.
func setupDeckConfig(t *testing.T, decks ...deck.Deck) (*config.Config, string) {
	t.Helper()
	tmpDir := t.TempDir()
	cfgPath := testutil.SetupTestConfig(t, tmpDir)
	setConfigFile(t, cfgPath)
	for _, d := range decks {
		testutil.CreateDeck(t, tmpDir, d)
	}

	cfg, err := loadConfig()
	require.NoError(t, err)
	return cfg, tmpDir
}

// mountainDeck has a single kanji card so the order of prompts is fixed
func mountainDeck() deck.Deck {
	return deck.Deck{
		Key:  "basic_kanji",
		Name: "Basic kanji",
		Kind: deck.KindKanji,
		Cards: []deck.Card{
			{ID: "mountain", Script: "山", Readings: []string{"やま", "さん"}, Meanings: []string{"mountain"}},
		},
	}
}
