package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

type fakeRecoverer struct {
	text string
	tier string
	err  error
}

func (f *fakeRecoverer) Recover(context.Context, entity.Document) (ocr.Recovered, error) {
	if f.err != nil {
		return ocr.Recovered{}, f.err
	}
	return ocr.Recovered{Text: f.text, Tier: f.tier, Pages: 1}, nil
}

type fakeInvoker struct {
	reply string
	err   error
	seen  []llm.Request
}

func (f *fakeInvoker) Invoke(_ context.Context, req llm.Request) (string, error) {
	f.seen = append(f.seen, req)
	return f.reply, f.err
}

type fakeResolver struct {
	result entity.MatchResult
	err    error
	seen   []string
}

func (f *fakeResolver) Resolve(_ context.Context, candidate string) (entity.MatchResult, error) {
	f.seen = append(f.seen, candidate)
	return f.result, f.err
}

func noMatch() entity.MatchResult {
	return entity.MatchResult{Detail: entity.CustomerDetail{Kind: entity.MatchNone}}
}

func matchedCustomer(customerID, territoryID int64) entity.MatchResult {
	return entity.MatchResult{
		Customer: &entity.Customer{CustomerID: customerID, TerritoryID: territoryID},
		Detail: entity.CustomerDetail{
			Kind:       entity.MatchIndividual,
			Individual: &entity.IndividualDetail{BusinessEntityID: 101},
		},
	}
}

const validReply = `{
	"header": {"SalesOrderNumber": "SO-77", "TotalDue": 99.5},
	"line_items": [{"OrderQty": 1, "ProductDescription": "Classic Vest, S", "LineTotal": 99.5}],
	"extracted_customer_name": "Isabella Torres"
}`

func pdfDoc() entity.Document {
	return entity.Document{Filename: "invoice.pdf", Content: []byte("%PDF")}
}

func TestRun_Success(t *testing.T) {
	rec := &fakeRecoverer{text: "recovered invoice text", tier: ocr.TierPDFText}
	inv := &fakeInvoker{reply: "```json\n" + validReply + "\n```"}
	res := &fakeResolver{result: matchedCustomer(42, 7)}
	o := NewOrchestrator(Config{Provider: "openai", Model: "gpt-4o"}, rec, inv, res, nil)

	result, err := o.Run(context.Background(), pdfDoc())
	require.NoError(t, err)

	assert.Equal(t, ocr.TierPDFText, result.RecoveryTier)
	require.Len(t, result.Invoice.LineItems, 1)
	require.NotNil(t, result.Invoice.ExtractedCustomerName)
	assert.Equal(t, "Isabella Torres", *result.Invoice.ExtractedCustomerName)

	// The recovered text reached the model.
	require.Len(t, inv.seen, 1)
	assert.Equal(t, "recovered invoice text", inv.seen[0].Text)

	// The extracted name reached the resolver and the match merged in.
	require.Len(t, res.seen, 1)
	assert.Equal(t, "Isabella Torres", res.seen[0])
	require.NotNil(t, result.Invoice.Header.CustomerID)
	assert.Equal(t, int64(42), *result.Invoice.Header.CustomerID)
	require.NotNil(t, result.Invoice.Header.TerritoryID)
	assert.Equal(t, int64(7), *result.Invoice.Header.TerritoryID)
	assert.True(t, result.Match.Matched())
}

func TestRun_NoMatchKeepsExtractedIDs(t *testing.T) {
	reply := `{
		"header": {"CustomerID": 77, "TerritoryID": 3},
		"line_items": [],
		"extracted_customer_name": "Unknown Person"
	}`
	rec := &fakeRecoverer{text: "text", tier: ocr.TierPDFText}
	inv := &fakeInvoker{reply: reply}
	res := &fakeResolver{result: noMatch()}
	o := NewOrchestrator(Config{}, rec, inv, res, nil)

	result, err := o.Run(context.Background(), pdfDoc())
	require.NoError(t, err)

	// A miss must not erase what the model extracted.
	require.NotNil(t, result.Invoice.Header.CustomerID)
	assert.Equal(t, int64(77), *result.Invoice.Header.CustomerID)
	require.NotNil(t, result.Invoice.Header.TerritoryID)
	assert.Equal(t, int64(3), *result.Invoice.Header.TerritoryID)
	assert.False(t, result.Match.Matched())
}

func TestRun_MissingCustomerNameStillResolves(t *testing.T) {
	rec := &fakeRecoverer{text: "text", tier: ocr.TierPDFText}
	inv := &fakeInvoker{reply: `{"header": {}, "line_items": []}`}
	res := &fakeResolver{result: noMatch()}
	o := NewOrchestrator(Config{}, rec, inv, res, nil)

	result, err := o.Run(context.Background(), pdfDoc())
	require.NoError(t, err)
	require.Len(t, res.seen, 1)
	assert.Equal(t, "", res.seen[0])
	assert.Equal(t, entity.MatchNone, result.Match.Detail.Kind)
}

func TestRun_MistypedFieldStillCompletes(t *testing.T) {
	// A reply with one wrongly-typed scalar is a schema deviation, not a
	// sanitize failure: the run completes with that field absent.
	reply := `{
		"header": {"Status": "pending", "SalesOrderNumber": "SO-9"},
		"line_items": [{"OrderQty": 1}],
		"extracted_customer_name": "Isabella Torres"
	}`
	rec := &fakeRecoverer{text: "text", tier: ocr.TierPDFText}
	inv := &fakeInvoker{reply: reply}
	res := &fakeResolver{result: noMatch()}
	o := NewOrchestrator(Config{}, rec, inv, res, nil)

	result, err := o.Run(context.Background(), pdfDoc())
	require.NoError(t, err)
	assert.Nil(t, result.Invoice.Header.Status)
	require.NotNil(t, result.Invoice.Header.SalesOrderNumber)
	assert.Equal(t, "SO-9", *result.Invoice.Header.SalesOrderNumber)
	require.Len(t, res.seen, 1)
	assert.Equal(t, "Isabella Torres", res.seen[0])
}

func TestRun_RecoveryFailure(t *testing.T) {
	rec := &fakeRecoverer{err: common.WrapError(common.ErrTextRecoveryFailed, "empty document")}
	o := NewOrchestrator(Config{}, rec, &fakeInvoker{}, &fakeResolver{result: noMatch()}, nil)

	_, err := o.Run(context.Background(), pdfDoc())
	require.Error(t, err)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageRecover, se.Stage)
	assert.True(t, errors.Is(err, common.ErrTextRecoveryFailed))
}

func TestRun_ModelFailure(t *testing.T) {
	rec := &fakeRecoverer{text: "text", tier: ocr.TierPDFText}
	inv := &fakeInvoker{err: common.WrapError(common.ErrModelInvocation, "status 429")}
	o := NewOrchestrator(Config{}, rec, inv, &fakeResolver{result: noMatch()}, nil)

	_, err := o.Run(context.Background(), pdfDoc())
	require.Error(t, err)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageModel, se.Stage)
	assert.True(t, errors.Is(err, common.ErrModelInvocation))
}

func TestRun_MalformedReply(t *testing.T) {
	rec := &fakeRecoverer{text: "text", tier: ocr.TierPDFText}
	inv := &fakeInvoker{reply: "sorry, the document is unreadable"}
	res := &fakeResolver{result: noMatch()}
	o := NewOrchestrator(Config{}, rec, inv, res, nil)

	_, err := o.Run(context.Background(), pdfDoc())
	require.Error(t, err)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageSanitize, se.Stage)
	assert.True(t, errors.Is(err, common.ErrMalformedResponse))
	// The resolver never runs after a sanitize failure.
	assert.Empty(t, res.seen)
}

func TestRun_UnsupportedExtension(t *testing.T) {
	o := NewOrchestrator(Config{}, &fakeRecoverer{}, &fakeInvoker{}, &fakeResolver{result: noMatch()}, nil)

	_, err := o.Run(context.Background(), entity.Document{Filename: "notes.txt", Content: []byte("x")})
	require.Error(t, err)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageLoad, se.Stage)
	assert.True(t, errors.Is(err, common.ErrDocumentUnreadable))
}

func TestRun_Idempotent(t *testing.T) {
	newOrch := func() *Orchestrator {
		return NewOrchestrator(Config{},
			&fakeRecoverer{text: "same text", tier: ocr.TierPDFText},
			&fakeInvoker{reply: validReply},
			&fakeResolver{result: matchedCustomer(42, 7)},
			nil)
	}

	first, err := newOrch().Run(context.Background(), pdfDoc())
	require.NoError(t, err)
	second, err := newOrch().Run(context.Background(), pdfDoc())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func onePixelPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestRun_DirectVisionImage(t *testing.T) {
	rec := &fakeRecoverer{text: "should not be used", tier: ocr.TierImageOCR}
	inv := &fakeInvoker{reply: validReply}
	res := &fakeResolver{result: noMatch()}
	o := NewOrchestrator(Config{DirectVision: true}, rec, inv, res, nil)

	result, err := o.Run(context.Background(), entity.Document{Filename: "inv.png", Content: onePixelPNG(t)})
	require.NoError(t, err)
	assert.Equal(t, "image-direct", result.RecoveryTier)
	require.Len(t, inv.seen, 1)
	assert.Empty(t, inv.seen[0].Text)
	assert.NotEmpty(t, inv.seen[0].ImagePNG)
}
