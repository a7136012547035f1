package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

// stubRunner fakes the external binaries. pdftoppm writes page files at the
// requested prefix so the glob in pdfToPages finds them.
type stubRunner struct {
	textOut   string
	textErr   error
	rasterErr error
	pages     []string
	pageErr   error

	calls    []string
	tessIdx  int
	tessSeen []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, name)
	switch name {
	case "pdftotext":
		return []byte(s.textOut), nil, s.textErr
	case "pdftoppm":
		if s.rasterErr != nil {
			return nil, []byte("raster boom"), s.rasterErr
		}
		prefix := args[len(args)-1]
		for i := range s.pages {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i+1), []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		if s.pageErr != nil {
			return nil, nil, s.pageErr
		}
		s.tessSeen = append(s.tessSeen, args[0])
		out := s.pages[s.tessIdx]
		s.tessIdx++
		return []byte(out), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected binary %q", name)
}

func (s *stubRunner) called(name string) bool {
	for _, c := range s.calls {
		if c == name {
			return true
		}
	}
	return false
}

// stubPages is a fake vision page reader.
type stubPages struct {
	texts []string
	idx   int
}

func (p *stubPages) ReadPage(context.Context, []byte) (string, error) {
	t := p.texts[p.idx]
	p.idx++
	return t, nil
}

func richText() string {
	return strings.Repeat("INVOICE 4711 Classic Vest ", 10)
}

func newTestExtractor(r Runner, pages PageReader) *Extractor {
	return NewExtractor(Config{}, pages, nil).WithRunner(r)
}

func TestRecover_PDFTextLayer(t *testing.T) {
	stub := &stubRunner{textOut: richText() + "\f page two \f"}
	e := newTestExtractor(stub, nil)

	res, err := e.Recover(context.Background(), entity.Document{Filename: "inv.pdf", Content: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, TierPDFText, res.Tier)
	assert.Equal(t, 3, res.Pages)
	assert.Contains(t, res.Text, "INVOICE 4711")
	// A rich text layer must not trigger rasterization.
	assert.False(t, stub.called("pdftoppm"))
	assert.False(t, stub.called("tesseract"))
}

func TestRecover_ThinTextLayerFallsBackToOCR(t *testing.T) {
	stub := &stubRunner{
		textOut: "  \n ", // essentially empty text layer
		pages:   []string{"page one text " + richText(), "page two text"},
	}
	e := newTestExtractor(stub, nil)

	res, err := e.Recover(context.Background(), entity.Document{Filename: "scan.pdf", Content: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, TierPDFOCR, res.Tier)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "page one text")
	assert.Contains(t, res.Text, "page two text")
	// Pages are read sequentially in page order.
	require.Len(t, stub.tessSeen, 2)
	assert.Less(t, stub.tessSeen[0], stub.tessSeen[1])
}

func TestRecover_ThinTextLayerVisionTier(t *testing.T) {
	stub := &stubRunner{textOut: "short", pages: []string{"", ""}}
	pages := &stubPages{texts: []string{"vision page one", "vision page two"}}
	e := newTestExtractor(stub, pages)

	res, err := e.Recover(context.Background(), entity.Document{Filename: "scan.pdf", Content: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, TierPDFVision, res.Tier)
	assert.Contains(t, res.Text, "vision page one")
	assert.Contains(t, res.Text, "vision page two")
	assert.False(t, stub.called("tesseract"))
}

func TestRecover_RasterizeUnavailableKeepsPartialText(t *testing.T) {
	stub := &stubRunner{
		textOut:   "Invoice 42 partial", // non-empty but under the threshold
		rasterErr: errors.New("pdftoppm missing"),
	}
	e := newTestExtractor(stub, nil)

	res, err := e.Recover(context.Background(), entity.Document{Filename: "inv.pdf", Content: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, TierPDFText, res.Tier)
	assert.Contains(t, res.Text, "Invoice 42 partial")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "rasterization unavailable")
}

func TestRecover_RasterizeUnavailableEmptyTextFails(t *testing.T) {
	stub := &stubRunner{textOut: "", rasterErr: errors.New("pdftoppm missing")}
	e := newTestExtractor(stub, nil)

	_, err := e.Recover(context.Background(), entity.Document{Filename: "inv.pdf", Content: []byte("%PDF")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTextRecoveryFailed))
}

func TestRecover_PDFUnreadable(t *testing.T) {
	stub := &stubRunner{textErr: errors.New("not a pdf")}
	e := newTestExtractor(stub, nil)

	_, err := e.Recover(context.Background(), entity.Document{Filename: "inv.pdf", Content: []byte("junk")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDocumentUnreadable))
}

func TestRecover_ImageOCR(t *testing.T) {
	stub := &stubRunner{pages: []string{"receipt text from image " + richText()}}
	e := newTestExtractor(stub, nil)

	res, err := e.Recover(context.Background(), entity.Document{Filename: "receipt.png", Content: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, TierImageOCR, res.Tier)
	assert.Equal(t, 1, res.Pages)
	assert.Contains(t, res.Text, "receipt text from image")
	// Images never try the pdf text layer.
	assert.False(t, stub.called("pdftotext"))
}

func TestRecover_EmptyDocumentFails(t *testing.T) {
	stub := &stubRunner{pages: []string{"   \n  "}}
	e := newTestExtractor(stub, nil)

	_, err := e.Recover(context.Background(), entity.Document{Filename: "blank.png", Content: []byte("png")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTextRecoveryFailed))
	assert.Contains(t, err.Error(), "empty document")
}

func TestRecover_UnsupportedExtension(t *testing.T) {
	e := newTestExtractor(&stubRunner{}, nil)

	_, err := e.Recover(context.Background(), entity.Document{Filename: "notes.txt", Content: []byte("hello")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDocumentUnreadable))
}

func TestNormalize(t *testing.T) {
	in := "a   b\n\n\n\nc\t d  \n"
	out := Normalize(in)
	assert.NotContains(t, out, "\n\n\n")
	assert.Contains(t, out, "a b")
}
