package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"signal-trader/internal/logger"
	"signal-trader/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}
	if err := run("config.yaml", "secrets.yaml"); err != nil {
		logger.Sync()
		log.Fatal(err)
	}
	logger.Sync()
}

func run(configPath, secretsPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trace.Shutdown(shutdownCtx)
	}()

	cfg, creds, err := loadConfig(ctx, configPath, secretsPath)
	if err != nil {
		return err
	}

	orch, closeLedger, err := initializeOrchestrator(ctx, cfg, creds)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize", err)
		return err
	}
	defer closeLedger()

	logger.Info(ctx, "Trader started",
		"mode", cfg.Mode,
		"asset", cfg.Asset.Symbol,
		"market", cfg.Market.Provider,
		"llm", cfg.LLM.Provider,
	)

	err = orch.Run(ctx)
	logger.Info(context.Background(), "Shutting down", "skipped_ticks", orch.Skipped())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
