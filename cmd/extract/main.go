// Command extract runs the extraction pipeline over a single document and
// prints the result as JSON. Useful for smoke-testing a model backend or a
// directory snapshot without standing up the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
	anthropicllm "github.com/joseph-ayodele/invoice-extractor/internal/llm/anthropic"
	openaillm "github.com/joseph-ayodele/invoice-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/invoice-extractor/internal/metrics"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/resolve"
)

func main() {
	_ = godotenv.Load()

	pretty := flag.Bool("pretty", false, "indent the JSON output")
	quiet := flag.Bool("quiet", false, "suppress progress logs")
	xlsxPath := flag.String("xlsx", "", "also write the extracted invoice as an XLSX workbook to this path")
	flag.Parse()

	level := slog.LevelInfo
	if *quiet {
		level = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if flag.NArg() < 1 {
		logger.Error("usage: extract [-pretty] [-quiet] [-xlsx out.xlsx] <document>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		logger.Error("model backend API key is required")
		os.Exit(2)
	}

	metrics.Register()

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read document", "path", path, "error", err)
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

	resolver := resolve.NewResolver(buildDirectory(cfg, logger), logger)

	orch := pipeline.NewOrchestrator(pipeline.Config{
		Provider:     cfg.LLM.Provider,
		Model:        cfg.LLM.Model,
		DirectVision: cfg.OCR.DirectVision,
	}, extractor, invoker, resolver, logger)

	result, err := orch.Run(context.Background(), entity.Document{
		Filename: filepath.Base(path),
		Content:  content,
	})
	if err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}

	if *xlsxPath != "" {
		book, err := export.InvoiceXLSX(result.Invoice)
		if err != nil {
			logger.Error("build workbook", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxPath, book, 0o644); err != nil {
			logger.Error("write workbook", "path", *xlsxPath, "error", err)
			os.Exit(1)
		}
		logger.Info("workbook written", "path", *xlsxPath)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
}

func buildBackend(cfg *common.Config, logger *slog.Logger) (llm.Invoker, ocr.PageReader) {
	llmCfg := cfg.LLM
	switch llmCfg.Provider {
	case "anthropic":
		c := anthropicllm.NewClient(anthropicllm.Config{
			APIKey:      llmCfg.APIKey,
			BaseURL:     llmCfg.BaseURL,
			Model:       llmCfg.Model,
			Temperature: llmCfg.Temperature,
			MaxTokens:   llmCfg.MaxTokens,
			Timeout:     llmCfg.Timeout,
		}, logger)
		return c, c
	default:
		c := openaillm.NewClient(openaillm.Config{
			APIKey:      llmCfg.APIKey,
			BaseURL:     llmCfg.BaseURL,
			Model:       llmCfg.Model,
			Temperature: llmCfg.Temperature,
			MaxTokens:   llmCfg.MaxTokens,
			Timeout:     llmCfg.Timeout,
		}, logger)
		return c, c
	}
}

// buildDirectory prefers the SQLite snapshot, then Postgres. With neither
// configured, resolution always reports no match.
func buildDirectory(cfg *common.Config, logger *slog.Logger) repository.Directory {
	if cfg.Database.SQLitePath != "" {
		dir, err := repository.OpenSQLiteDirectory(cfg.Database.SQLitePath)
		if err != nil {
			logger.Error("open sqlite directory", "error", err)
			os.Exit(1)
		}
		return dir
	}
	if cfg.Database.DSN != "" {
		pool, err := repository.Open(context.Background(), repository.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			logger.Error("open db", "error", err)
			os.Exit(1)
		}
		return repository.NewPgDirectory(pool, logger)
	}
	logger.Warn("no customer directory configured, resolution disabled")
	return emptyDirectory{}
}

// emptyDirectory never matches anything.
type emptyDirectory struct{}

func (emptyDirectory) FindIndividual(context.Context, string, string) (*entity.IndividualDetail, error) {
	return nil, nil
}
func (emptyDirectory) FindStore(context.Context, string) (*entity.StoreDetail, error) {
	return nil, nil
}
func (emptyDirectory) CustomerByPersonID(context.Context, int64) (*entity.Customer, error) {
	return nil, nil
}
func (emptyDirectory) CustomerByStoreID(context.Context, int64) (*entity.Customer, error) {
	return nil, nil
}
