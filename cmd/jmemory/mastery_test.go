package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/mastery"
	"github.com/at-ishikawa/jmemory/internal/testutil"
)

var reviewedAt = time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)

func reviewedRecord(repetitions int) mastery.Record {
	return mastery.Record{
		Repetitions:     repetitions,
		IntervalDays:    6,
		Ease:            2.5,
		LastReviewedAt:  &reviewedAt,
		DueAt:           reviewedAt.AddDate(0, 0, 6),
		ReadingProgress: 40,
		WritingProgress: 20,
	}
}

func TestNewMasteryCommand(t *testing.T) {
	cmd := newMasteryCommand()

	assert.Equal(t, "mastery", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("token"))
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"reset", "export", "import", "sync", "stats"}, names)
}

func TestNewMasteryResetCommand_RequiresDeck(t *testing.T) {
	setupDeckConfig(t, testutil.KanjiDeck())

	cmd := newMasteryResetCommand()
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"deck" not set`)
}

func TestRunMasteryReset(t *testing.T) {
	cfg, tmpDir := setupDeckConfig(t, testutil.KanjiDeck())
	testutil.CreateMastery(t, tmpDir, "", "basic_kanji", mastery.Map{"mountain": reviewedRecord(3)})

	stdout := &bytes.Buffer{}
	require.NoError(t, runMasteryReset(context.Background(), cfg, "", []string{"basic_kanji"}, stdout))
	assert.Contains(t, stdout.String(), "Reset 2 card(s) of Basic kanji")

	records := testutil.LoadMastery(t, tmpDir, "", "basic_kanji")
	assert.Equal(t, mastery.NewRecord(), records["mountain"])
	assert.Equal(t, mastery.NewRecord(), records["river"])

	err := runMasteryReset(context.Background(), cfg, "", []string{"missing"}, stdout)
	assert.ErrorIs(t, err, deck.ErrDeckNotFound)
}

func TestRunMasteryExportImport(t *testing.T) {
	source, sourceDir := setupDeckConfig(t, testutil.KanjiDeck())
	testutil.CreateMastery(t, sourceDir, "", "basic_kanji", mastery.Map{"mountain": reviewedRecord(2)})

	exportPath := filepath.Join(t.TempDir(), "mastery.yml")
	stdout := &bytes.Buffer{}
	require.NoError(t, runMasteryExport(context.Background(), source, "", nil, exportPath, stdout))
	assert.Contains(t, stdout.String(), "Exported 1 deck(s)")

	target, targetDir := setupDeckConfig(t, testutil.KanjiDeck())

	t.Run("dry run", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		require.NoError(t, runMasteryImport(context.Background(), target, "", exportPath, true, stdout))
		assert.Contains(t, stdout.String(), "[NEW]  basic_kanji/mountain")
		assert.Contains(t, stdout.String(), "[dry-run] 1 new, 0 updated, 0 skipped record(s) in 0 saved deck(s)")
		assert.Empty(t, testutil.LoadMastery(t, targetDir, "", "basic_kanji"))
	})

	t.Run("import", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		require.NoError(t, runMasteryImport(context.Background(), target, "", exportPath, false, stdout))
		assert.Contains(t, stdout.String(), "1 new, 0 updated, 0 skipped record(s) in 1 saved deck(s)")

		records := testutil.LoadMastery(t, targetDir, "", "basic_kanji")
		assert.Equal(t, 2, records["mountain"].Repetitions)
		assert.True(t, reviewedAt.Equal(*records["mountain"].LastReviewedAt))
	})

	t.Run("import again skips", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		require.NoError(t, runMasteryImport(context.Background(), target, "", exportPath, false, stdout))
		assert.Contains(t, stdout.String(), "0 new, 0 updated, 1 skipped record(s) in 0 saved deck(s)")
	})

	t.Run("missing file", func(t *testing.T) {
		err := runMasteryImport(context.Background(), target, "", filepath.Join(t.TempDir(), "missing.yml"), false, &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestRunMasteryExport_Stdout(t *testing.T) {
	cfg, tmpDir := setupDeckConfig(t, testutil.KanjiDeck())
	testutil.CreateMastery(t, tmpDir, "", "basic_kanji", mastery.Map{"river": reviewedRecord(1)})

	stdout := &bytes.Buffer{}
	require.NoError(t, runMasteryExport(context.Background(), cfg, "", []string{"basic_kanji"}, "", stdout))
	assert.Contains(t, stdout.String(), "basic_kanji:\n  river:\n    repetitions: 1")
}

func TestRunMasterySync(t *testing.T) {
	t.Run("without a remote", func(t *testing.T) {
		cfg, _ := setupDeckConfig(t, testutil.KanjiDeck())
		cfg.Auth.UserID = "user-1"

		err := runMasterySync(context.Background(), cfg, "", nil, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.remote.driver")
	})

	t.Run("without a user", func(t *testing.T) {
		cfg, _ := setupDeckConfig(t, testutil.KanjiDeck())
		cfg.Storage.Remote.Driver = "http"

		err := runMasterySync(context.Background(), cfg, "", nil, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "signed-in user")
	})
}

func TestRunMasteryStats(t *testing.T) {
	cfg, tmpDir := setupDeckConfig(t, testutil.KanjiDeck())
	testutil.CreateMastery(t, tmpDir, "", "basic_kanji", mastery.Map{
		"mountain": reviewedRecord(3),
		"river":    reviewedRecord(1),
	})

	tests := []struct {
		name  string
		year  int
		month int
		want  string
	}{
		{name: "every period", want: "2026-02          2         1"},
		{name: "matching month", year: 2026, month: 2, want: "2026-02          2         1"},
		{name: "other year", year: 2025, want: "No reviews found."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout := &bytes.Buffer{}
			require.NoError(t, runMasteryStats(context.Background(), cfg, "", nil, tt.year, tt.month, stdout))
			assert.Contains(t, stdout.String(), tt.want)
		})
	}
}
