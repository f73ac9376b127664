package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/golfoguide/internal/assistant"
	"github.com/user/golfoguide/internal/assistant/tools"
	"github.com/user/golfoguide/internal/cms"
	"github.com/user/golfoguide/internal/config"
	"github.com/user/golfoguide/internal/digest"
	"github.com/user/golfoguide/internal/telegram"
	"github.com/user/golfoguide/internal/webchat"
	"github.com/user/golfoguide/pkg/llm"
	"github.com/user/golfoguide/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat server",
	RunE:  runServe,
}

// buildOrchestrator wires the provider, CMS tools and loop from config.
func buildOrchestrator(cfg *config.Config) (*assistant.Orchestrator, error) {
	provider := openai.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})

	budgeter, err := assistant.NewBudgeter(cfg.LLM.Model, cfg.LLM.MaxContextTokens, cfg.LLM.OutputReserve)
	if err != nil {
		return nil, fmt.Errorf("create budgeter: %w", err)
	}

	client := cms.NewClient(cfg.CMS.BaseURL, cfg.CMS.Token)
	shaper := cms.NewShaper(cfg.DescriptionLimit)

	registry := assistant.NewRegistry()
	registry.Register(tools.NewSearchEvents(client, shaper))
	registry.Register(tools.NewSearchExperiences(client, shaper))
	registry.Register(tools.NewSearchPlaces(client, shaper))
	registry.Register(tools.NewSearchVenues(client, shaper))
	registry.Register(tools.NewSearchOffers(client, shaper))
	registry.Register(tools.NewListCategories(client, shaper))

	return assistant.NewOrchestrator(provider, registry, budgeter, cfg.MaxSteps), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	orch, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.Info("golfoguide started",
		"addr", cfg.Addr,
		"log_level", cfg.LogLevel,
		"max_steps", cfg.MaxSteps,
		"description_limit", cfg.DescriptionLimit,
		"llm_model", cfg.LLM.Model,
		"cms_url", cfg.CMS.BaseURL,
	)

	// Telegram adapter
	var adapter *telegram.Adapter
	if cfg.Telegram.Token != "" {
		adapter, err = telegram.New(cfg.Telegram.Token, orch)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		slog.Info("telegram adapter started")
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	// Daily digest
	if cfg.Digest.Schedule != "" && adapter != nil && len(cfg.Digest.ChatIDs) > 0 {
		sched := digest.New(orch, adapter, cfg.Digest.Schedule, cfg.Digest.ChatIDs)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("start digest scheduler: %w", err)
		}
		defer sched.Stop()
	}

	// Chat HTTP server
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: webchat.NewServer(orch),
	}
	go func() {
		slog.Info("chat server listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("chat server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}
