package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// Recovery tiers, in fallback order. The tag on a Recovered value names the
// strategy that actually produced the text.
const (
	TierPDFText     = "pdf-text"
	TierPDFOCR      = "pdf-ocr"
	TierPDFVision   = "pdf-vision"
	TierImageOCR    = "image-ocr"
	TierImageVision = "image-vision"
)

// tier1MinChars is the non-whitespace character count above which the PDF
// text layer is trusted and rasterization is skipped.
const tier1MinChars = 100

// PageReader recovers text from a single rasterized page via a
// vision-capable model backend.
type PageReader interface {
	ReadPage(ctx context.Context, png []byte) (string, error)
}

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI, default 200
	MaxPages      int    // 0 = no limit
}

// Recovered is the immutable output of text recovery.
type Recovered struct {
	Text     string
	Tier     string
	Pages    int
	Duration time.Duration
	Warnings []string
}

// Extractor recovers readable text from a document using tiered strategies.
// A nil PageReader means Tier 2 falls back to local tesseract OCR.
type Extractor struct {
	cfg    Config
	runner Runner
	pages  PageReader
	logger *slog.Logger
}

func NewExtractor(cfg Config, pages PageReader, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, pages: pages, logger: logger}
}

// WithRunner swaps the command runner; tests use this to stub the binaries.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Recover picks a strategy based on the document's extension. PDFs try the
// text layer first and rasterize only when it is too thin; images go straight
// to the single-page OCR/vision path.
func (e *Extractor) Recover(ctx context.Context, doc entity.Document) (Recovered, error) {
	start := time.Now()
	e.logger.Debug("ocr.recover.start", "filename", doc.Filename, "bytes", len(doc.Content))

	var res Recovered
	var err error
	switch doc.Format() {
	case constants.PDF:
		res, err = e.recoverPDF(ctx, doc)
	case constants.IMAGE:
		res, err = e.recoverImage(ctx, doc)
	default:
		return Recovered{}, common.NewAppError("UNSUPPORTED_EXT",
			fmt.Sprintf("unsupported extension: %q", doc.Ext()), common.ErrDocumentUnreadable)
	}
	if err != nil {
		return res, err
	}

	res.Text = Normalize(res.Text)
	if res.Text == "" {
		return res, common.WrapError(common.ErrTextRecoveryFailed, "empty document")
	}
	res.Duration = time.Since(start)
	e.logger.Info("ocr.recover.ok",
		"filename", doc.Filename,
		"tier", res.Tier,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// spool writes document bytes to a temp file for the external binaries and
// returns the path plus a cleanup func.
func (e *Extractor) spool(doc entity.Document, ext string) (string, func(), error) {
	f, err := os.CreateTemp("", "ivx-*."+ext)
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil {
			e.logger.Warn("ocr.spool.cleanup_failed", "path", path, "error", err)
		}
	}
	if _, err := f.Write(doc.Content); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

func countNonWhitespace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
