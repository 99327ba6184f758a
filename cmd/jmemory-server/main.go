package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/jmemory/internal/auth"
	"github.com/at-ishikawa/jmemory/internal/bootstrap"
	"github.com/at-ishikawa/jmemory/internal/config"
	"github.com/at-ishikawa/jmemory/internal/server"
	"github.com/at-ishikawa/jmemory/internal/session"
)

var configFile string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "jmemory-server",
		Short:         "jmemory practice service HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path")
	return rootCmd
}

func run(ctx context.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	app := bootstrap.New(bootstrap.WithLogger(logger))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	svc, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	app.AddShutdownHook("repositories", func(ctx context.Context) error {
		return svc.repositories.Close()
	})
	app.AddShutdownHook("sessions", func(ctx context.Context) error {
		svc.handler.Close()
		return nil
	})
	app.AddShutdownHook("http", svc.httpServer.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		if timeout := cfg.Server.SessionIdleTimeout; timeout > 0 {
			go svc.handler.ExpireIdleEvery(ctx, timeout/2)
		}
		logger.Info("starting server", slog.String("addr", svc.httpServer.Addr))
		if err := svc.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

// service is the HTTP server and what it owns
type service struct {
	httpServer   *http.Server
	handler      *server.PracticeHandler
	repositories *bootstrap.Repositories
}

func newService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*service, error) {
	decks, err := bootstrap.LoadDecks(ctx, cfg.Decks)
	if err != nil {
		return nil, fmt.Errorf("bootstrap.LoadDecks() > %w", err)
	}
	evaluator, err := bootstrap.NewEvaluator(cfg.Glyph, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap.NewEvaluator() > %w", err)
	}
	categories := make([]session.Category, 0, len(cfg.Session.Categories))
	for _, value := range cfg.Session.Categories {
		category, err := session.ParseCategory(value)
		if err != nil {
			return nil, fmt.Errorf("session.ParseCategory() > %w", err)
		}
		categories = append(categories, category)
	}

	repositories, err := bootstrap.OpenRepositories(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("bootstrap.OpenRepositories() > %w", err)
	}

	var verifier *auth.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewTokenVerifier(cfg.Auth.JWTSecret)
	} else {
		logger.Warn("auth.jwt_secret is not set, every request is served anonymously")
	}

	handler := server.NewPracticeHandler(decks, evaluator, repositories.Local, repositories.Remote, server.Options{
		Categories:  categories,
		HistorySize: cfg.Session.RecentHistorySize,
		SaveDelay:   cfg.Storage.SaveDelay,
		Resolution:  cfg.Glyph.Resolution,
		CanvasSize:  cfg.Glyph.CanvasSize,
		BrushWidth:  cfg.Glyph.BrushWidth,
		IdleTimeout: cfg.Server.SessionIdleTimeout,
	}, logger)

	return &service{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: server.NewHTTPHandler(handler, verifier, cfg.Server.CORS.AllowedOrigins, logger),
		},
		handler:      handler,
		repositories: repositories,
	}, nil
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}
