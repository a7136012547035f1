// Package pipeline runs the linear document-to-record extraction flow:
// text recovery, model invocation, sanitization, customer resolution.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
	"github.com/joseph-ayodele/invoice-extractor/internal/metrics"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

// Stage identifies where in the flow a run terminated.
type Stage string

const (
	StageLoad     Stage = "load"
	StageRecover  Stage = "text_recovery"
	StageModel    Stage = "model"
	StageSanitize Stage = "sanitize"
	StageResolve  Stage = "resolve"
)

// StageError tags a terminal failure with the stage that produced it. Later
// stages never run after one is returned.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// TextRecoverer is the OCR surface the pipeline depends on.
type TextRecoverer interface {
	Recover(ctx context.Context, doc entity.Document) (ocr.Recovered, error)
}

// Resolver matches an extracted customer name to the directory.
type Resolver interface {
	Resolve(ctx context.Context, candidate string) (entity.MatchResult, error)
}

// Config for the orchestrator. Provider and Model only label metrics.
type Config struct {
	Provider string
	Model    string

	// DirectVision sends image documents straight to the model with the
	// extraction prompt instead of recovering text first.
	DirectVision bool
}

// Result is a completed extraction: the sanitized invoice plus the customer
// resolution outcome and how the text was recovered.
type Result struct {
	Invoice entity.ExtractedInvoice `json:"invoice"`
	Match   entity.MatchResult      `json:"match"`

	RecoveryTier     string   `json:"recovery_tier"`
	RecoveryWarnings []string `json:"recovery_warnings,omitempty"`
}

// Orchestrator wires the stages together.
type Orchestrator struct {
	cfg      Config
	recover  TextRecoverer
	invoker  llm.Invoker
	resolver Resolver
	logger   *slog.Logger
}

func NewOrchestrator(cfg Config, rec TextRecoverer, inv llm.Invoker, res Resolver, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{cfg: cfg, recover: rec, invoker: inv, resolver: res, logger: logger}
}

// Run processes one document end to end. Any returned error is a *StageError
// naming the stage that failed; stages after a failure do not run. Two runs
// over the same document and model replies produce identical Results.
func (o *Orchestrator) Run(ctx context.Context, doc entity.Document) (*Result, error) {
	runID := uuid.New().String()
	ctx = common.WithRequestID(ctx, runID)
	start := time.Now()
	logger := o.logger.With("run_id", runID, "filename", doc.Filename)
	logger.Info("pipeline.start", "size_bytes", len(doc.Content))

	res, err := o.run(ctx, doc, logger)
	if err != nil {
		var stage Stage = StageLoad
		var se *StageError
		if errors.As(err, &se) {
			stage = se.Stage
		}
		metrics.PipelineRunsTotal.WithLabelValues(string(stage)).Inc()
		logger.Error("pipeline.failed",
			"stage", string(stage), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	metrics.PipelineRunsTotal.WithLabelValues("ok").Inc()
	metrics.ResolutionTotal.WithLabelValues(string(res.Match.Detail.Kind)).Inc()
	logger.Info("pipeline.ok",
		"recovery_tier", res.RecoveryTier,
		"line_items", len(res.Invoice.LineItems),
		"match_kind", string(res.Match.Detail.Kind),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, doc entity.Document, logger *slog.Logger) (*Result, error) {
	if !constants.IsAllowedExtension(doc.Ext()) {
		return nil, &StageError{Stage: StageLoad, Err: common.WrapError(
			common.ErrDocumentUnreadable, fmt.Sprintf("unsupported file extension %q", doc.Ext()))}
	}

	var (
		req  llm.Request
		tier string
		warn []string
	)
	if o.cfg.DirectVision && doc.Format() == constants.IMAGE {
		png, err := ocr.PreparePNG(doc.Content)
		if err != nil {
			return nil, &StageError{Stage: StageLoad, Err: common.WrapError(common.ErrDocumentUnreadable, err.Error())}
		}
		req = llm.Request{ImagePNG: png}
		tier = "image-direct"
	} else {
		rec, err := o.recover.Recover(ctx, doc)
		if err != nil {
			return nil, &StageError{Stage: StageRecover, Err: err}
		}
		req = llm.Request{Text: rec.Text}
		tier = rec.Tier
		warn = rec.Warnings
		logger.Info("pipeline.text_recovered",
			"tier", rec.Tier, "pages", rec.Pages, "chars", len(rec.Text))
	}
	metrics.RecoveryTierTotal.WithLabelValues(tier).Inc()

	modelStart := time.Now()
	raw, err := o.invoker.Invoke(ctx, req)
	metrics.ModelRequestDuration.WithLabelValues(o.cfg.Provider, o.cfg.Model).
		Observe(time.Since(modelStart).Seconds())
	if err != nil {
		return nil, &StageError{Stage: StageModel, Err: err}
	}

	invoice, err := llm.ParseExtraction(raw)
	if err != nil {
		return nil, &StageError{Stage: StageSanitize, Err: err}
	}
	// Validate what the model actually sent, not the decoded struct.
	if verr := llm.ValidateAdvisory([]byte(llm.StripCodeFence(raw))); verr != nil {
		logger.Warn("pipeline.schema_advisory", "error", verr)
	}

	candidate := ""
	if invoice.ExtractedCustomerName != nil {
		candidate = *invoice.ExtractedCustomerName
	}
	match, err := o.resolver.Resolve(ctx, candidate)
	if err != nil {
		return nil, &StageError{Stage: StageResolve, Err: err}
	}
	merge(&invoice, match)

	return &Result{
		Invoice:          invoice,
		Match:            match,
		RecoveryTier:     tier,
		RecoveryWarnings: warn,
	}, nil
}

// merge copies the matched customer's identifiers into the header. On a miss
// the extracted values are left untouched, so a present value is never
// replaced with nothing.
func merge(inv *entity.ExtractedInvoice, match entity.MatchResult) {
	if !match.Matched() {
		return
	}
	customerID := match.Customer.CustomerID
	territoryID := match.Customer.TerritoryID
	inv.Header.CustomerID = &customerID
	inv.Header.TerritoryID = &territoryID
}
