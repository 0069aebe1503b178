package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kalambet/mocktalk/internal/coach"
	"github.com/kalambet/mocktalk/internal/config"
	"github.com/kalambet/mocktalk/internal/gemini"
	"github.com/kalambet/mocktalk/internal/history"
	"github.com/kalambet/mocktalk/internal/interview"
	"github.com/kalambet/mocktalk/internal/prompt"
)

// newGenerator builds the question/feedback/summary generator for cfg.
// Tests replace it with a fake.
var newGenerator = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (interview.Generator, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	prompts, err := prompt.NewManager()
	if err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	var completer coach.Completer
	switch cfg.Gemini.Backend {
	case "sdk":
		baseURL := cfg.Gemini.BaseURL
		if baseURL == gemini.DefaultBaseURL {
			baseURL = ""
		}
		c, err := gemini.NewSDKClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, baseURL, &http.Client{Timeout: cfg.Gemini.Timeout})
		if err != nil {
			return nil, err
		}
		completer = c
	default:
		completer = gemini.NewClientWithBaseURL(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, cfg.Gemini.Timeout)
	}

	logger.Info("generator ready",
		zap.String("backend", cfg.Gemini.Backend),
		zap.String("model", cfg.Gemini.Model))
	return coach.New(completer, prompts, logger), nil
}

// openHistory opens the configured history store. Tests replace it.
var openHistory = func(cfg config.Config, logger *zap.Logger) (history.Store, error) {
	store, err := history.Open(cfg.History.Backend, cfg.History.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return store, nil
}

func closeHistory(store history.Store) {
	if err := store.Close(); err != nil {
		printWarning("closing history: %v", err)
	}
}
