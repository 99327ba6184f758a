package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/jmemory/internal/bootstrap"
	"github.com/at-ishikawa/jmemory/internal/config"
	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/report"
	"github.com/at-ishikawa/jmemory/internal/statistics"
)

func newDeckCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "deck",
		Short: "Inspect decks",
	}
	command.AddCommand(
		newDeckListCommand(),
		newDeckBrowseCommand(),
		newDeckValidateCommand(),
		newDeckReportCommand(),
	)
	return command
}

func newDeckListCommand() *cobra.Command {
	var token string
	command := &cobra.Command{
		Use:   "list",
		Short: "List decks with their progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runDeckList(cmd.Context(), cfg, token, time.Now(), cmd.OutOrStdout())
		},
	}
	command.Flags().StringVar(&token, "token", "", "Sign in with this token")
	return command
}

func runDeckList(ctx context.Context, cfg *config.Config, token string, now time.Time, stdout io.Writer) error {
	env, err := openEnvironment(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = env.Close()
	}()

	provider, _, err := newIdentity(cfg, token)
	if err != nil {
		return err
	}
	decks := deck.SortedDecks(env.decks)
	store, _ := env.load(ctx, provider.Current(), decks)

	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(stdout, "%-20s %-24s %6s %6s %9s %9s %9s\n",
		"KEY", "NAME", "CARDS", "DUE", "MASTERED", "READING", "WRITING")
	for _, d := range decks {
		summary := statistics.Calculate(d.TaggedCards(), store.Lookup, now)
		_, _ = fmt.Fprintf(stdout, "%-20s %-24s %6d %6d %9d %8d%% %8d%%\n",
			d.Key, d.DisplayName(), summary.Total, summary.Due, summary.Mastered,
			summary.ReadingProgress, summary.WritingProgress)
	}
	return nil
}

func newDeckBrowseCommand() *cobra.Command {
	var deckKeys []string
	command := &cobra.Command{
		Use:   "browse [query]",
		Short: "List the kanji used by decks, optionally filtered by a kanji, reading or meaning",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return runDeckBrowse(cmd.Context(), cfg, deckKeys, query, cmd.OutOrStdout())
		},
	}
	command.Flags().StringSliceVarP(&deckKeys, "deck", "d", nil, "Deck keys to browse. Every deck by default")
	return command
}

func runDeckBrowse(ctx context.Context, cfg *config.Config, deckKeys []string, query string, stdout io.Writer) error {
	decks, err := loadSelectedDecks(ctx, cfg, deckKeys)
	if err != nil {
		return err
	}

	entries := deck.Browse(deck.Cards(decks), query)
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(stdout, "No kanji found.")
		return nil
	}
	bold := color.New(color.Bold)
	for _, entry := range entries {
		_, _ = fmt.Fprintf(stdout, "%s [%s] %s\n",
			bold.Sprint(entry.Kanji),
			strings.Join(entry.Readings(), ", "),
			strings.Join(entry.Meanings(), ", "),
		)
		for _, card := range entry.Cards {
			_, _ = fmt.Fprintf(stdout, "  - %s (%s)\n", card.Script, strings.Join(card.Meanings, ", "))
		}
	}
	return nil
}

func newDeckValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate decks for missing fields and duplicate card ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runDeckValidate(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func runDeckValidate(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	decks, err := loadSelectedDecks(ctx, cfg, nil)
	if err != nil {
		return err
	}
	validator, err := deck.NewValidator()
	if err != nil {
		return fmt.Errorf("deck.NewValidator() > %w", err)
	}
	result, err := validator.Validate(decks)
	if err != nil {
		return fmt.Errorf("validator.Validate() > %w", err)
	}

	displayValidationResults(stdout, len(decks), result)
	if result.HasErrors() {
		return fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
	}
	return nil
}

func displayValidationResults(stdout io.Writer, deckCount int, result *deck.ValidationResult) {
	_, _ = fmt.Fprintln(stdout, "=== Validation Results ===")
	if !result.HasErrors() {
		_, _ = fmt.Fprintf(stdout, "✓ All %d deck(s) passed validation!\n", deckCount)
		return
	}
	_, _ = fmt.Fprintf(stdout, "✗ Validation Errors (%d):\n", len(result.Errors))
	for _, err := range result.Errors {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", err.Error())
	}
}

func newDeckReportCommand() *cobra.Command {
	var (
		deckKeys []string
		token    string
		skipPDF  bool
		output   string
	)
	command := &cobra.Command{
		Use:   "report",
		Short: "Write a progress report of decks as Markdown and PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Outputs.ReportDirectory = output
			}
			path, err := runDeckReport(cmd.Context(), cfg, deckKeys, token, skipPDF, time.Now())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
			return nil
		},
	}
	command.Flags().StringSliceVarP(&deckKeys, "deck", "d", nil, "Deck keys to report. Every deck by default")
	command.Flags().StringVar(&token, "token", "", "Sign in with this token")
	command.Flags().BoolVar(&skipPDF, "no-pdf", false, "Only write the Markdown file")
	command.Flags().StringVarP(&output, "output", "o", "", "Output directory. outputs.report_directory by default")
	return command
}

func runDeckReport(ctx context.Context, cfg *config.Config, deckKeys []string, token string, skipPDF bool, now time.Time) (string, error) {
	env, err := openEnvironment(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = env.Close()
	}()

	decks, err := deck.Select(env.decks, deckKeys)
	if err != nil {
		return "", fmt.Errorf("deck.Select() > %w", err)
	}
	provider, _, err := newIdentity(cfg, token)
	if err != nil {
		return "", err
	}
	store, _ := env.load(ctx, provider.Current(), decks)

	path, err := report.Write(decks, store.Lookup, now, report.Options{
		OutputDirectory: cfg.Outputs.ReportDirectory,
		TemplatePath:    cfg.Templates.ProgressReportTemplate,
		FontPath:        cfg.Glyph.FontPath,
		SkipPDF:         skipPDF,
	})
	if err != nil {
		return "", fmt.Errorf("report.Write() > %w", err)
	}
	return path, nil
}

// loadSelectedDecks reads the decks without opening the mastery repositories
func loadSelectedDecks(ctx context.Context, cfg *config.Config, deckKeys []string) ([]deck.Deck, error) {
	all, err := bootstrap.LoadDecks(ctx, cfg.Decks)
	if err != nil {
		return nil, fmt.Errorf("bootstrap.LoadDecks() > %w", err)
	}
	decks, err := deck.Select(all, deckKeys)
	if err != nil {
		return nil, fmt.Errorf("deck.Select() > %w", err)
	}
	return decks, nil
}
