package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/seyi-falode/blogpilot/internal/common"
	"github.com/seyi-falode/blogpilot/internal/journal"
	"github.com/seyi-falode/blogpilot/internal/llm/openai"
	"github.com/seyi-falode/blogpilot/internal/pipeline"
	"github.com/seyi-falode/blogpilot/internal/pop"
	"github.com/seyi-falode/blogpilot/internal/publish"
	"github.com/seyi-falode/blogpilot/internal/tracker"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := common.LoadConfig()

	logger, logClose, err := newLogger(cfg.LogDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup: %v\n", err)
		return 2
	}
	defer logClose()
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		return 2
	}

	ctx := context.Background()

	popClient := pop.NewClient(pop.Config{
		APIKey:         cfg.POP.APIKey,
		BaseURL:        cfg.POP.BaseURL,
		LocationName:   cfg.POP.LocationName,
		TargetURL:      cfg.POP.TargetURL,
		TargetLanguage: cfg.POP.TargetLanguage,
	}, logger)

	engine := pop.NewEngine(popClient, logger, pop.WithDeadline(cfg.POP.PollTimeout))

	generator := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	publisher := publish.NewDocsClient(publish.Config{
		BaseURL:     cfg.Docs.BaseURL,
		AccessToken: cfg.Docs.AccessToken,
		Timeout:     cfg.Docs.Timeout,
	}, logger)

	var store journal.Store
	if cfg.Journal.Path != "" {
		store, err = journal.Open(ctx, cfg.Journal.Path, logger)
		if err != nil {
			logger.Error("journal open failed", "path", cfg.Journal.Path, "error", err)
			return 2
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				logger.Warn("journal close error", "error", cerr)
			}
		}()
	}

	proc := &pipeline.Processor{
		Source:    tracker.NewWorkbook(cfg.Sheet.Path, logger),
		Submitter: popClient,
		Poller:    engine,
		Generator: generator,
		Publisher: publisher,
		Journal:   store,
		Persona:   cfg.LLM.Persona,
		Logger:    logger,
	}

	if err := proc.Run(ctx); err != nil {
		if errors.Is(err, common.ErrNoPendingKeyword) {
			return 0
		}
		return 1
	}
	return 0
}

// newLogger tees JSON logs to stdout and a timestamped file in dir, so each
// run keeps its own log for postmortems.
func newLogger(dir string) (*slog.Logger, func(), error) {
	name := fmt.Sprintf("blogpilot_%s.log", time.Now().Format("20060102_150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	h := slog.NewJSONHandler(io.MultiWriter(os.Stdout, f), &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), func() { _ = f.Close() }, nil
}
