package anthropic

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

// Config for the Anthropic backend.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string // e.g. "claude-sonnet-4-5"
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client implements llm.Invoker and the vision page-reader over the Messages
// API.
type Client struct {
	api    sdk.Client
	cfg    Config
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{api: sdk.NewClient(opts...), cfg: cfg, logger: logger}
}

// Invoke sends the fixed extraction prompt and returns the raw reply text.
func (c *Client) Invoke(ctx context.Context, req llm.Request) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()
	c.logger.Info("llm.invoke.start",
		"req_id", rid,
		"provider", "anthropic",
		"model", c.cfg.Model,
		"text_len", len(req.Text),
		"has_image", len(req.ImagePNG) > 0,
	)

	var user sdk.MessageParam
	if len(req.ImagePNG) > 0 {
		user = sdk.NewUserMessage(
			sdk.NewImageBlockBase64("image/png", base64.StdEncoding.EncodeToString(req.ImagePNG)),
			sdk.NewTextBlock(llm.BuildVisionPrompt()),
		)
	} else {
		user = sdk.NewUserMessage(sdk.NewTextBlock(llm.BuildTextPrompt(req.Text)))
	}

	ctx, cancel := common.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	msg, err := c.api.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.cfg.Model),
		MaxTokens:   int64(c.cfg.MaxTokens),
		Temperature: sdk.Float(float64(c.cfg.Temperature)),
		System:      []sdk.TextBlockParam{{Text: llm.SystemPrompt}},
		Messages:    []sdk.MessageParam{user},
	})
	if err != nil {
		c.logger.Error("llm.invoke.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.WrapError(common.ErrModelInvocation, err.Error())
	}

	c.logger.Info("llm.invoke.ok",
		"req_id", rid,
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
		"stop_reason", msg.StopReason,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return joinText(msg), nil
}

// ReadPage recovers the text of one rasterized page via the vision model.
func (c *Client) ReadPage(ctx context.Context, png []byte) (string, error) {
	ctx, cancel := common.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	msg, err := c.api.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewImageBlockBase64("image/png", base64.StdEncoding.EncodeToString(png)),
				sdk.NewTextBlock(llm.PageTextPrompt),
			),
		},
	})
	if err != nil {
		return "", common.WrapError(common.ErrModelInvocation, err.Error())
	}
	return joinText(msg), nil
}

// joinText concatenates the text blocks of a response. Replies here are a
// single block in practice.
func joinText(msg *sdk.Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}
