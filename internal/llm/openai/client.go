package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

// Config for the OpenAI backend.
type Config struct {
	APIKey      string
	BaseURL     string // default https://api.openai.com/v1
	Model       string // e.g. "gpt-4o"
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client implements llm.Invoker (structured extraction) and the vision
// page-reader used by Tier-2 text recovery, over chat/completions.
type Client struct {
	api    *openai.Client
	cfg    Config
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
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

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{api: openai.NewClientWithConfig(clientCfg), cfg: cfg, logger: logger}
}

// Invoke sends the fixed extraction prompt with either the recovered text or
// the document image attached, and returns the raw reply text.
func (c *Client) Invoke(ctx context.Context, req llm.Request) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	start := time.Now()
	c.logger.Info("llm.invoke.start",
		"req_id", rid,
		"provider", "openai",
		"model", c.cfg.Model,
		"text_len", len(req.Text),
		"has_image", len(req.ImagePNG) > 0,
	)

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(req.ImagePNG) > 0 {
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: llm.BuildVisionPrompt()},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: dataURL(req.ImagePNG),
				},
			},
		}
	} else {
		user.Content = llm.BuildTextPrompt(req.Text)
	}

	ctx, cancel := common.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llm.SystemPrompt},
			user,
		},
	})
	if err != nil {
		c.logger.Error("llm.invoke.error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", invocationError(err)
	}
	if len(resp.Choices) == 0 {
		return "", common.WrapError(common.ErrModelInvocation, "no choices in openai response")
	}

	c.logger.Info("llm.invoke.ok",
		"req_id", rid,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resp.Choices[0].Message.Content, nil
}

// ReadPage recovers the text of one rasterized page via the vision model.
func (c *Client) ReadPage(ctx context.Context, png []byte) (string, error) {
	ctx, cancel := common.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: llm.PageTextPrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL(png)},
					},
				},
			},
		},
	})
	if err != nil {
		return "", invocationError(err)
	}
	if len(resp.Choices) == 0 {
		return "", common.WrapError(common.ErrModelInvocation, "no choices in openai response")
	}
	return resp.Choices[0].Message.Content, nil
}

func dataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// invocationError maps transport/auth/quota failures onto the pipeline's
// ModelInvocationFailed taxonomy with a readable detail.
func invocationError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return common.WrapError(common.ErrModelInvocation,
			fmt.Sprintf("openai status %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body)))
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return common.WrapError(common.ErrModelInvocation,
			fmt.Sprintf("openai api error %d: %s", apiErr.HTTPStatusCode, apiErr.Message))
	}
	return common.WrapError(common.ErrModelInvocation, err.Error())
}
