package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/jmemory/internal/bootstrap"
	"github.com/at-ishikawa/jmemory/internal/cli"
	"github.com/at-ishikawa/jmemory/internal/config"
	"github.com/at-ishikawa/jmemory/internal/datasync"
	"github.com/at-ishikawa/jmemory/internal/deck"
	"github.com/at-ishikawa/jmemory/internal/glyph"
	"github.com/at-ishikawa/jmemory/internal/session"
)

type practiceOptions struct {
	deckKeys   []string
	categories []session.Category
	limit      int
	token      string
}

func newPracticeCommand() *cobra.Command {
	var options practiceOptions

	command := &cobra.Command{
		Use:   "practice",
		Short: "Practice the cards of one or more decks",
		Long: `Practice the cards of one or more decks.

Type the answer and press Enter. An empty line or :show shows the answer,
:reset resets the mastery of the practiced decks and :q quits. For a
writing prompt, "@drawing.png" checks a drawing of the kanji. When auth.jwt_secret is
set, ":signin <token>" and ":signout" switch the learner.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runPractice(cmd.Context(), cfg, options, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	command.Flags().StringSliceVarP(&options.deckKeys, "deck", "d", nil, "Deck keys to practice. Every deck by default")
	command.Flags().Var(newCategoriesValue(&options.categories), "category", "Categories to practice: kanji, words. session.categories by default")
	command.Flags().IntVar(&options.limit, "limit", 0, "Stop after this many cards. 0 for no limit")
	command.Flags().StringVar(&options.token, "token", "", "Sign in with this token")

	return command
}

func runPractice(ctx context.Context, cfg *config.Config, options practiceOptions, stdin io.Reader, stdout io.Writer) error {
	logger := slog.Default()

	env, err := openEnvironment(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = env.Close()
	}()

	decks, err := deck.Select(env.decks, options.deckKeys)
	if err != nil {
		return fmt.Errorf("deck.Select() > %w", err)
	}
	categories := options.categories
	if len(categories) == 0 {
		if categories, err = configuredCategories(cfg); err != nil {
			return err
		}
	}
	provider, accounts, err := newIdentity(cfg, options.token)
	if err != nil {
		return err
	}
	evaluator, err := bootstrap.NewEvaluator(cfg.Glyph, logger)
	if err != nil {
		return fmt.Errorf("bootstrap.NewEvaluator() > %w", err)
	}

	keys := keysOf(decks)
	store, syncer := env.load(ctx, provider.Current(), decks)
	debouncer := datasync.NewDebouncer(cfg.Storage.SaveDelay, func(deckKeys []string) {
		syncer.Push(context.Background(), provider.Current(), deckKeys)
	})

	drawings := glyph.NewImageSurface()
	controller := session.New(evaluator, store,
		session.WithSurface(drawings, cfg.Glyph.Resolution),
		session.WithHistorySize(cfg.Session.RecentHistorySize),
		session.WithRecordHook(debouncer.Trigger),
		session.WithLogger(logger),
	)
	if err := controller.Start(decks, categories); err != nil {
		debouncer.Stop()
		return fmt.Errorf("controller.Start() > %w", err)
	}

	var cliOptions []cli.PracticeOption
	if accounts != nil {
		cliOptions = append(cliOptions, cli.WithAccounts(accounts))
	}
	practiceCLI := cli.NewPracticeCLI(controller, drawings, options.limit, stdin, stdout, cliOptions...)

	app := bootstrap.New(bootstrap.WithLogger(logger))
	app.AddShutdownHook("mastery", func(ctx context.Context) error {
		debouncer.Stop()
		return nil
	})
	return app.Run(ctx, func(ctx context.Context) error {
		go syncer.PullOnSignIn(ctx, provider.Subscribe(), func() []string {
			return keys
		})
		return practiceCLI.Run(ctx, practiceCLI)
	})
}
