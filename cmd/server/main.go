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

	solanago "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brojonat/mimic/service/config"
	"github.com/brojonat/mimic/service/detect"
	"github.com/brojonat/mimic/service/jupiter"
	"github.com/brojonat/mimic/service/metrics"
	"github.com/brojonat/mimic/service/notify"
	"github.com/brojonat/mimic/service/server"
	"github.com/brojonat/mimic/service/solana"
	"github.com/brojonat/mimic/service/tradelog"
	"github.com/brojonat/mimic/service/trader"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	// The watched wallet is the one required positional argument.
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <wallet-address>\n", os.Args[0])
		os.Exit(1)
	}
	wallet, err := solanago.PublicKeyFromBase58(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid wallet address %q: %v\n", os.Args[1], err)
		os.Exit(1)
	}

	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
		"wallet", wallet.String(),
	)

	// Metrics registry shared by all components
	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	// Trade log append sink
	trades, err := tradelog.NewFileSink(cfg.TradeLogPath)
	if err != nil {
		logger.Error("failed to open trade log", "path", cfg.TradeLogPath, "error", err)
		os.Exit(1)
	}
	defer trades.Close()
	logger.Info("trade log open", "path", cfg.TradeLogPath)

	// Optional NATS publisher
	var publisher notify.Publisher
	if cfg.NATSURL != "" {
		p, err := notify.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.Error("failed to connect to NATS", "url", cfg.NATSURL, "error", err)
			os.Exit(1)
		}
		defer p.Close()
		publisher = p
	} else {
		logger.Warn("NATS_URL not set, trade event publishing disabled")
	}

	// Jupiter aggregator client
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	quoter := jupiter.NewClient(cfg.JupiterBaseURL, httpClient, cfg.QuoteAmountLamports, cfg.SlippagePct, m, logger)

	// Solana submission client
	// Note: For premium RPC endpoints, include API key in the URL
	solanaRPC := solana.NewRPCClient(cfg.SolanaRPCURL)
	submitter := solana.NewClient(
		solanaRPC,
		solana.CommitmentFromString(cfg.Commitment),
		cfg.ConfirmTimeout,
		cfg.ConfirmPollInterval,
		"helius",
		m,
		logger,
	)
	logger.Info("initialized solana RPC client", "commitment", cfg.Commitment)

	// Pipeline orchestrator
	classifier := detect.NewClassifier(cfg.SwapProgramIDs)
	t := trader.New(
		wallet,
		cfg.SigningKey,
		classifier,
		quoter,
		submitter,
		trades,
		publisher,
		m,
		logger,
	)

	// Initialize HTTP server
	httpServer := server.New(cfg.ServerAddr, t, m, registry, logger)

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
