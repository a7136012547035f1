package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
	anthropicllm "github.com/joseph-ayodele/invoice-extractor/internal/llm/anthropic"
	openaillm "github.com/joseph-ayodele/invoice-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/invoice-extractor/internal/metrics"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/resolve"
	"github.com/joseph-ayodele/invoice-extractor/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL env var is required")
		os.Exit(2)
	}

	metrics.Register()
	metrics.RegisterHTTP()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
		logger.Error("db health check failed", "error", err)
		os.Exit(1)
	}

	invoker, pages := buildBackend(cfg, logger)

	var pageReader ocr.PageReader
	if cfg.OCR.UseVision {
		pageReader = pages
	}
	extractor := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, pageReader, logger)

	var directory repository.Directory
	if cfg.Database.SQLitePath != "" {
		sqliteDir, err := repository.OpenSQLiteDirectory(cfg.Database.SQLitePath)
		if err != nil {
			logger.Error("open sqlite directory", "error", err)
			os.Exit(1)
		}
		defer sqliteDir.Close()
		directory = sqliteDir
	} else {
		directory = repository.NewPgDirectory(pool, logger)
	}
	resolver := resolve.NewResolver(directory, logger)

	orch := pipeline.NewOrchestrator(pipeline.Config{
		Provider:     cfg.LLM.Provider,
		Model:        cfg.LLM.Model,
		DirectVision: cfg.OCR.DirectVision,
	}, extractor, invoker, resolver, logger)

	orders := repository.NewPgSalesOrders(pool, logger)
	exporter := export.NewService(orders, logger)
	srv := server.New(orch, orders, exporter, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: srv.Router(),
	}
	go func() {
		logger.Info("http server starting", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// buildBackend wires the configured model provider. Both backends expose
// extraction and page reading.
func buildBackend(cfg *common.Config, logger *slog.Logger) (llm.Invoker, ocr.PageReader) {
	switch cfg.LLM.Provider {
	case "anthropic":
		c := anthropicllm.NewClient(anthropicllm.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		return c, c
	default:
		c := openaillm.NewClient(openaillm.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		return c, c
	}
}
