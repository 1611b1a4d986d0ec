package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/dealflow/internal/agent"
	"github.com/haasonsaas/dealflow/internal/agent/providers"
	"github.com/haasonsaas/dealflow/internal/auth"
	"github.com/haasonsaas/dealflow/internal/config"
	"github.com/haasonsaas/dealflow/internal/google"
	"github.com/haasonsaas/dealflow/internal/script"
	"github.com/haasonsaas/dealflow/internal/server"
	"github.com/haasonsaas/dealflow/internal/tools"
)

func buildServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the demo server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := buildLogger(cfg.Logging)
			slog.SetDefault(logger)

			store := auth.NewStore(auth.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				RedirectURL:  cfg.Google.RedirectURL,
				TokenPath:    cfg.Google.TokenPath,
			}, logger)
			googleSvc := google.NewService(store, logger)

			registry, err := agent.NewRegistry(tools.Catalog(googleSvc)...)
			if err != nil {
				return fmt.Errorf("build tool registry: %w", err)
			}

			provider, err := providers.NewAnthropicProvider(providers.AnthropicConfig{
				APIKey:  cfg.LLM.APIKey,
				BaseURL: cfg.LLM.BaseURL,
				Model:   cfg.LLM.Model,
			})
			if err != nil {
				return err
			}

			engine := agent.NewEngine(provider, registry, store, &agent.EngineConfig{
				MaxRounds:            cfg.Agent.MaxRounds,
				MaxTokens:            cfg.Agent.MaxTokens,
				ThinkingBudgetTokens: cfg.Agent.ThinkingBudgetTokens,
			}, logger)

			srv := server.New(server.Config{
				Addr:   fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
				Engine: engine,
				Script: script.NewService(cfg.Demo.RecipientOverride),
				Auth:   store,
				Google: googleSvc,
				Logger: logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "dealflow.yaml", "Path to YAML configuration file")
	return cmd
}

func buildLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
