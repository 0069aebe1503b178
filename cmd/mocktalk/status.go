package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/kalambet/mocktalk/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mocktalk configuration and server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			// Still show partial status even if config fails.
			printError("config error: %v", err)
			return nil
		}
		showStatus(cmd.Context(), cmd.OutOrStdout(), cfg, newAPIClient(cfg))
		return nil
	},
}

func showStatus(ctx context.Context, w io.Writer, cfg config.Config, client *apiClient) {
	running, err := client.healthy(ctx)
	var se *serverError
	switch {
	case running:
		printStatus(w, "Server", "running on port %d", cfg.Server.Port)
		if list, err := client.savedSessions(ctx); err == nil {
			printStatus(w, "Saved sessions", "%d", len(list))
		}
	case errors.As(err, &se):
		printStatus(w, "Server", "error (HTTP %d)", se.Status)
	default:
		printStatus(w, "Server", "stopped")
	}

	key := "not set"
	if cfg.Gemini.APIKey != "" {
		key = "set"
	}
	printStatus(w, "Generator", "%s (%s backend)", cfg.Gemini.Model, cfg.Gemini.Backend)
	printStatus(w, "API key", "%s", key)
	printStatus(w, "History", "%s at %s", cfg.History.Backend, cfg.History.Path)
	printStatus(w, "Sessions", "%s", cfg.Sessions.Backend)
	if cfg.Speech.Enabled {
		printStatus(w, "Speech", "enabled (%s)", cfg.Speech.Lang)
	} else {
		printStatus(w, "Speech", "disabled")
	}
	printStatus(w, "Config file", "%s", config.ConfigFilePath())
}
