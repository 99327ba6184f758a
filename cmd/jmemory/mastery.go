package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/jmemory/internal/config"
	"github.com/at-ishikawa/jmemory/internal/datasync"
	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/mastery"
	"github.com/at-ishikawa/jmemory/internal/statistics"
)

func newMasteryCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "mastery",
		Short: "Manage mastery records",
	}
	command.PersistentFlags().String("token", "", "Sign in with this token")
	command.AddCommand(
		newMasteryResetCommand(),
		newMasteryExportCommand(),
		newMasteryImportCommand(),
		newMasterySyncCommand(),
		newMasteryStatsCommand(),
	)
	return command
}

func tokenFlag(cmd *cobra.Command) string {
	token, _ := cmd.Flags().GetString("token")
	return token
}

func newMasteryResetCommand() *cobra.Command {
	var deckKeys []string
	command := &cobra.Command{
		Use:   "reset",
		Short: "Reset the mastery of every card in decks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runMasteryReset(cmd.Context(), cfg, tokenFlag(cmd), deckKeys, cmd.OutOrStdout())
		},
	}
	command.Flags().StringSliceVarP(&deckKeys, "deck", "d", nil, "Deck keys to reset")
	_ = command.MarkFlagRequired("deck")
	return command
}

func runMasteryReset(ctx context.Context, cfg *config.Config, token string, deckKeys []string, stdout io.Writer) error {
	env, err := openEnvironment(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = env.Close()
	}()

	decks, err := deck.Select(env.decks, deckKeys)
	if err != nil {
		return fmt.Errorf("deck.Select() > %w", err)
	}
	provider, _, err := newIdentity(cfg, token)
	if err != nil {
		return err
	}

	store, syncer := env.load(ctx, provider.Current(), decks)
	for _, d := range decks {
		store.ResetForDeck(d)
		_, _ = fmt.Fprintf(stdout, "Reset %d card(s) of %s\n", len(d.Cards), d.DisplayName())
	}
	syncer.Push(ctx, provider.Current(), deckKeys)
	return nil
}

func newMasteryExportCommand() *cobra.Command {
	var (
		deckKeys []string
		output   string
	)
	command := &cobra.Command{
		Use:   "export",
		Short: "Export mastery records as YAML keyed by deck",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runMasteryExport(cmd.Context(), cfg, tokenFlag(cmd), deckKeys, output, cmd.OutOrStdout())
		},
	}
	command.Flags().StringSliceVarP(&deckKeys, "deck", "d", nil, "Deck keys to export. Every deck by default")
	command.Flags().StringVarP(&output, "output", "o", "", "Output file. Standard output by default")
	return command
}

func runMasteryExport(ctx context.Context, cfg *config.Config, token string, deckKeys []string, output string, stdout io.Writer) error {
	env, err := openEnvironment(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = env.Close()
	}()

	decks, err := deck.Select(env.decks, deckKeys)
	if err != nil {
		return fmt.Errorf("deck.Select() > %w", err)
	}
	provider, _, err := newIdentity(cfg, token)
	if err != nil {
		return err
	}

	data, err := datasync.NewExporter(env.repositories.Local).Export(ctx, provider.Current(), keysOf(decks))
	if err != nil {
		return fmt.Errorf("exporter.Export() > %w", err)
	}
	if output == "" {
		return deck.EncodeYaml(stdout, data)
	}
	if err := deck.WriteYamlFile(output, data); err != nil {
		return fmt.Errorf("deck.WriteYamlFile(%s) > %w", output, err)
	}
	_, _ = fmt.Fprintf(stdout, "Exported %d deck(s) to %s\n", len(data), output)
	return nil
}

func newMasteryImportCommand() *cobra.Command {
	var dryRun bool
	command := &cobra.Command{
		Use:   "import <file>",
		Short: "Import mastery records exported by the export command",
		Long: `Import mastery records exported by the export command.

A record replaces the stored one only when it was reviewed later.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runMasteryImport(cmd.Context(), cfg, tokenFlag(cmd), args[0], dryRun, cmd.OutOrStdout())
		},
	}
	command.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would change without saving")
	return command
}

func runMasteryImport(ctx context.Context, cfg *config.Config, token string, path string, dryRun bool, stdout io.Writer) error {
	data, err := readMasteryFile(path)
	if err != nil {
		return err
	}

	env, err := openEnvironment(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = env.Close()
	}()
	for deckKey := range data {
		if _, ok := env.decks[deckKey]; !ok {
			env.logger.Warn("importing records of an unknown deck", slog.String("deck", deckKey))
		}
	}

	provider, _, err := newIdentity(cfg, token)
	if err != nil {
		return err
	}
	result, err := datasync.NewImporter(env.repositories.Local, stdout).Import(ctx, provider.Current(), data, datasync.ImportOptions{DryRun: dryRun})
	if err != nil {
		return fmt.Errorf("importer.Import() > %w", err)
	}

	prefix := ""
	if dryRun {
		prefix = "[dry-run] "
	}
	_, _ = fmt.Fprintf(stdout, "%s%d new, %d updated, %d skipped record(s) in %d saved deck(s)\n",
		prefix, result.RecordsNew, result.RecordsUpdated, result.RecordsSkipped, result.DecksSaved)
	return nil
}

func readMasteryFile(path string) (map[string]mastery.Map, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s) > %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	var data map[string]mastery.Map
	if err := yaml.NewDecoder(file).Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]mastery.Map{}, nil
		}
		return nil, fmt.Errorf("yaml.NewDecoder().Decode(%s) > %w", path, err)
	}
	return data, nil
}

func newMasterySyncCommand() *cobra.Command {
	var deckKeys []string
	command := &cobra.Command{
		Use:   "sync",
		Short: "Merge local and remote mastery records and save the result to both",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runMasterySync(cmd.Context(), cfg, tokenFlag(cmd), deckKeys, cmd.OutOrStdout())
		},
	}
	command.Flags().StringSliceVarP(&deckKeys, "deck", "d", nil, "Deck keys to sync. Every deck by default")
	return command
}

func runMasterySync(ctx context.Context, cfg *config.Config, token string, deckKeys []string, stdout io.Writer) error {
	if cfg.Storage.Remote.Driver == "" {
		return errors.New("storage.remote.driver is not configured")
	}
	provider, _, err := newIdentity(cfg, token)
	if err != nil {
		return err
	}
	userID := provider.Current()
	if userID == "" {
		return errors.New("syncing requires a signed-in user")
	}

	env, err := openEnvironment(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = env.Close()
	}()

	decks, err := deck.Select(env.decks, deckKeys)
	if err != nil {
		return fmt.Errorf("deck.Select() > %w", err)
	}
	store, syncer := env.load(ctx, userID, decks)
	syncer.Push(ctx, userID, keysOf(decks))
	_, _ = fmt.Fprintf(stdout, "Synced %d record(s) of %d deck(s)\n", store.Len(), len(decks))
	return nil
}

func newMasteryStatsCommand() *cobra.Command {
	var (
		deckKeys []string
		year     int
		month    int
	)
	command := &cobra.Command{
		Use:   "stats",
		Short: "Count reviewed and mastered cards by month of their last review",
		RunE: func(cmd *cobra.Command, args []string) error {
			if month != 0 && year == 0 {
				return errors.New("--month requires --year")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runMasteryStats(cmd.Context(), cfg, tokenFlag(cmd), deckKeys, year, month, cmd.OutOrStdout())
		},
	}
	command.Flags().StringSliceVarP(&deckKeys, "deck", "d", nil, "Deck keys to count. Every deck by default")
	command.Flags().IntVar(&year, "year", 0, "Only count reviews in this year")
	command.Flags().IntVar(&month, "month", 0, "Only count reviews in this month, 1 to 12")
	return command
}

func runMasteryStats(ctx context.Context, cfg *config.Config, token string, deckKeys []string, year, month int, stdout io.Writer) error {
	env, err := openEnvironment(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = env.Close()
	}()

	decks, err := deck.Select(env.decks, deckKeys)
	if err != nil {
		return fmt.Errorf("deck.Select() > %w", err)
	}
	provider, _, err := newIdentity(cfg, token)
	if err != nil {
		return err
	}
	store, _ := env.load(ctx, provider.Current(), decks)

	periods := statistics.ReviewsByPeriod(deck.Cards(decks), store.Lookup, year, month)
	if len(periods) == 0 {
		_, _ = fmt.Fprintln(stdout, "No reviews found.")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "%-8s %9s %9s\n", "PERIOD", "REVIEWED", "MASTERED")
	for _, p := range periods {
		_, _ = fmt.Fprintf(stdout, "%-8s %9d %9d\n", p.Period, p.Reviewed, p.Mastered)
	}
	return nil
}
