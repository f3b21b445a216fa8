package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fridgelingo/fridgelingo/internal/ai"
	"github.com/fridgelingo/fridgelingo/internal/config"
	"github.com/fridgelingo/fridgelingo/internal/core"
	"github.com/fridgelingo/fridgelingo/internal/db"
	"github.com/fridgelingo/fridgelingo/internal/images"
	"github.com/fridgelingo/fridgelingo/internal/vision"
)

// App holds the wired components shared by the web server and the CLI.
type App struct {
	Config    *config.Config
	DB        *db.Database
	Images    *images.Store
	Processor *core.Processor

	closers []io.Closer
	log     *slog.Logger
}

// New opens the store and builds every component from cfg. The caller must
// Close the returned App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, log: logger}

	database, err := db.NewDatabase(ctx, cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("app: database: %w", err)
	}
	a.DB = database
	a.closers = append(a.closers, database)

	gen, err := a.newGenerator(ctx, cfg.AI)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app: generator: %w", err)
	}

	deps := core.Deps{}
	if key := strings.TrimSpace(cfg.Vision.APIKey); key != "" {
		detector, err := vision.NewGoogleClient(ctx, key, cfg.Vision.MaxResults, cfg.Vision.Timeout)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: vision: %w", err)
		}
		deps.Detector = detector
	} else {
		logger.Warn("vision API key not set, photo submission is disabled")
	}

	a.Images, err = images.NewStore(cfg.Fridge.UploadDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app: %w", err)
	}
	deps.Images = a.Images

	denylist := cfg.Fridge.Denylist()
	if denylist == nil {
		denylist = core.DefaultDenylist()
	}

	deps.Vocab = core.NewVocabularyStore(database, database, nil, logger)
	deps.Progress = core.NewProgressTracker(database, cfg.Fridge.ReviewInterval, nil, logger)
	deps.Resolver = core.NewLabelResolver(gen, denylist, logger)
	deps.Enricher = core.NewContentEnricher(deps.Vocab, gen, logger)
	deps.Quizzes = core.NewQuizGenerator(deps.Vocab, deps.Progress, logger)
	deps.Stats = core.NewStatsAggregator()

	a.Processor = core.NewProcessor(deps, core.Settings{
		TargetLang:        cfg.Fridge.TargetLang,
		NativeLang:        cfg.Fridge.NativeLang,
		ImportConcurrency: cfg.Fridge.ImportConcurrency,
	}, logger)

	logger.Info("application initialized",
		slog.String("db_driver", database.Driver()),
		slog.String("ai_provider", strings.ToLower(cfg.AI.Provider)),
		slog.Bool("vision", deps.Detector != nil),
		slog.String("upload_dir", a.Images.Dir()),
	)
	return a, nil
}

func (a *App) newGenerator(ctx context.Context, cfg config.AIConfig) (ai.Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderGemini:
		gc, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gc)
		return gc, nil
	case config.ProviderAnthropic:
		return ai.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// Close releases the generator client and the database, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
