package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

func (e *Extractor) recoverPDF(ctx context.Context, doc entity.Document) (Recovered, error) {
	path, cleanup, err := e.spool(doc, "pdf")
	if err != nil {
		return Recovered{}, common.WrapError(err, "spool pdf")
	}
	defer cleanup()

	// Tier 1: the embedded text layer.
	text, pages, err := e.pdfToText(ctx, path)
	if err != nil {
		return Recovered{}, common.NewAppError("PDF_PARSE",
			"pdftotext could not read the document", common.ErrDocumentUnreadable)
	}
	if countNonWhitespace(text) > tier1MinChars {
		return Recovered{Text: text, Tier: TierPDFText, Pages: pages}, nil
	}
	e.logger.Info("ocr.tier1.thin", "chars", countNonWhitespace(text), "pages", pages)

	// Tier 2: rasterize and read each page. If rasterization is unavailable,
	// a non-empty Tier-1 result is still better than failing outright.
	res, err := e.pdfToPages(ctx, path)
	if err != nil {
		if strings.TrimSpace(text) != "" {
			e.logger.Warn("ocr.tier2.unavailable", "error", err)
			return Recovered{
				Text:     text,
				Tier:     TierPDFText,
				Pages:    pages,
				Warnings: []string{"rasterization unavailable: " + err.Error()},
			}, nil
		}
		return Recovered{}, common.WrapError(common.ErrTextRecoveryFailed, err.Error())
	}
	return res, nil
}

// pdfToText runs pdftotext over the whole document. Page breaks come back as
// form feeds, which are rewritten to the newline separators the rest of the
// pipeline expects.
func (e *Extractor) pdfToText(ctx context.Context, path string) (string, int, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, _, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, err
	}
	text := string(out)
	pages := 1 + strings.Count(text, "\f")
	return strings.ReplaceAll(text, "\f", "\n"), pages, nil
}

// pdfToPages rasterizes every page at the configured DPI and recovers text
// per page, sequentially and in page order, via tesseract or the vision
// page reader.
func (e *Extractor) pdfToPages(ctx context.Context, path string) (Recovered, error) {
	tmpDir, err := os.MkdirTemp("", "ivx-pp-*")
	if err != nil {
		return Recovered{}, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr.raster.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 200 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return Recovered{}, fmt.Errorf("rasterize: %w (%s)", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return Recovered{}, fmt.Errorf("rasterize: no pages rendered")
	}

	tier := TierPDFOCR
	if e.pages != nil {
		tier = TierPDFVision
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, err := e.readPageFile(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
	}
	return Recovered{Text: b.String(), Tier: tier, Pages: len(matches), Warnings: warns}, nil
}

// readPageFile recovers text from one rendered page image.
func (e *Extractor) readPageFile(ctx context.Context, path string) (string, error) {
	if e.pages != nil {
		png, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return e.pages.ReadPage(ctx, png)
	}
	return e.tesseractOCR(ctx, path)
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
