package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docqa/internal/api"
	"github.com/dgallion1/docqa/internal/chat"
	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/llm"
	"github.com/dgallion1/docqa/internal/pipeline"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the completion client.
	client := llm.NewClient(llm.Options{
		APIKey:            cfg.LLMAPIKey,
		BaseURL:           cfg.LLMBaseURL,
		Model:             cfg.LLMModel,
		Temperature:       cfg.LLMTemperature,
		MaxTokens:         cfg.LLMMaxTokens,
		RequestsPerMinute: cfg.LLMRequestsPerMinute,
		Timeout:           cfg.LLMTimeout,
	})

	// Initialize summarization and chat.
	pipe := pipeline.New(client, cfg.PipelineOptions(), log)
	summaries := pipeline.NewService(pipe, cfg.SummaryCacheTTL, log)
	summaries.Start(ctx)

	replies := chat.New(client, chat.Options{
		MaxRetries: cfg.ChatMaxRetries,
		TruncateAt: cfg.ChatTruncateChars,
		Policy:     cfg.Policy(),
	}, log)

	// Initialize HTTP server.
	srv := api.NewServer(summaries, replies, client, log, cfg)

	// Uploads are summarized synchronously, so the write timeout must cover
	// a full pipeline run over a large document.
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		summaries.Stop()
		client.Close()
	}()

	log.Info("starting docqa",
		"port", cfg.Port,
		"model", cfg.LLMModel,
		"chunk_size", cfg.ChunkSize,
		"batch_size", cfg.BatchSize,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
