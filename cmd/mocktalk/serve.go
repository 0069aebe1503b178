package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/mocktalk/internal/api"
	"github.com/kalambet/mocktalk/internal/coach"
	"github.com/kalambet/mocktalk/internal/config"
	"github.com/kalambet/mocktalk/internal/logging"
	"github.com/kalambet/mocktalk/internal/sessions"
	"github.com/kalambet/mocktalk/internal/speech"
)

const (
	shutdownTimeout = 5 * time.Second
	sweepInterval   = 5 * time.Minute
)

var serveHost string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser interface and JSON API (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the interview tools as an MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP(cmd)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "interface to listen on")
}

func runServer(ctx context.Context) error {
	printStep("mocktalk version %s", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}

	hist, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer closeHistory(hist)

	store, err := sessions.Open(ctx, cfg.Sessions.Backend, cfg.Sessions.RedisAddr, cfg.Sessions.TTL)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer store.Close()

	var synth api.Synthesizer
	if cfg.Speech.Enabled {
		synth = speech.NewClientWithBaseURL(cfg.Speech.Lang, cfg.Speech.BaseURL)
	}

	handler := api.NewHandler(api.Deps{
		Sessions:       store,
		History:        hist,
		Generator:      coach.WithFallbackQuestion(gen, logger),
		Speech:         synth,
		HTTPClient:     &http.Client{Timeout: 15 * time.Second},
		Logger:         logger,
		AllowedOrigins: cfg.Server.Origins(),
	})

	addr := net.JoinHostPort(serveHost, fmt.Sprint(cfg.Server.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("mocktalk listening",
			zap.String("addr", "http://"+addr),
			zap.String("history", cfg.History.Path),
			zap.String("sessions", cfg.Sessions.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if mem, ok := store.(*sessions.Memory); ok {
		g.Go(func() error {
			sweepSessions(gctx, mem, logger)
			return nil
		})
	}

	return g.Wait()
}

func sweepSessions(ctx context.Context, mem *sessions.Memory, logger *zap.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mem.Sweep(); n > 0 {
				logger.Debug("expired sessions removed", zap.Int("count", n), zap.Int("live", mem.Len()))
			}
		}
	}
}

func runMCP(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	hist, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer closeHistory(hist)

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Generator: coach.WithFallbackQuestion(gen, logger),
		History:   hist,
		Logger:    logger,
		Version:   version,
	})

	logger.Info("MCP server started (stdio transport)")
	stdio := server.NewStdioServer(mcpSrv)
	if err := stdio.Listen(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}
