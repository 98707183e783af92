// Package genai wraps the OpenAI API for training-plan generation.
//
// It exposes two operations: Generate, the large one-shot plan generation
// call, and Reformat, the cheap secondary call the parser uses to repair a
// malformed structured block. Transport/provider failures are retried with
// exponential backoff plus jitter; application-level failures are not.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Default models for the two call shapes. The reformat call deliberately
// uses a smaller model: fixing YAML syntax does not need plan-quality
// reasoning.
const (
	DefaultModel         = openai.ChatModelGPT4o
	DefaultReformatModel = openai.ChatModelGPT4oMini
)

// Default generation parameters for plan generation.
const (
	DefaultMaxOutputTokens   = int64(20480)
	DefaultReformatMaxTokens = int64(16384)
	// DefaultReasoningEffort is the thinking budget requested for plan
	// generation. Plan quality depends on the model actually reasoning
	// about the profile, so every generation call asks for it.
	DefaultReasoningEffort = shared.ReasoningEffortMedium
)

// RetryConfig holds retry configuration for model requests.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per request.
	MaxAttempts int
	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration
	// BackoffMultiplier is applied to backoff on each retry.
	BackoffMultiplier float64
	// MaxBackoff caps the maximum backoff duration.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns sensible retry defaults for model requests.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// chatService defines the minimal interface for chat completions, allowing
// tests to inject a fake.
type chatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey        string
	BaseURL       string
	Model         shared.ChatModel
	ReformatModel shared.ChatModel
	HTTPClient    *http.Client
	Retry         RetryConfig
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL overrides the API endpoint (for proxies and tests).
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithModel sets the model used for plan generation.
func WithModel(model shared.ChatModel) Option {
	return func(o *Opts) { o.Model = model }
}

// WithReformatModel sets the model used for repair calls.
func WithReformatModel(model shared.ChatModel) Option {
	return func(o *Opts) { o.ReformatModel = model }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(o *Opts) { o.Retry = cfg }
}

// Request is a composed one-shot generation request: one worked exemplar
// conversation turn followed by the live prompt.
type Request struct {
	ExemplarInput  string
	ExemplarOutput string
	Prompt         string
}

// Params carries per-call generation parameters.
type Params struct {
	// MaxOutputTokens bounds the response size. Zero uses the default.
	MaxOutputTokens int64
	// ReasoningEffort requests extended reasoning ("low", "medium", "high").
	// Empty uses DefaultReasoningEffort.
	ReasoningEffort shared.ReasoningEffort
}

// Client wraps the OpenAI chat completion service for plan generation.
type Client struct {
	chat          chatService
	model         shared.ChatModel
	reformatModel shared.ChatModel
	retry         RetryConfig
}

// NewClient initializes a GenAI client. The API key falls back to the
// OPENAI_API_KEY environment variable if not provided via options.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{Retry: DefaultRetryConfig()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ReformatModel == "" {
		cfg.ReformatModel = DefaultReformatModel
	}
	slog.Debug("genai.NewClient: configuration loaded",
		"api_key_set", cfg.APIKey != "",
		"base_url_set", cfg.BaseURL != "",
		"model", cfg.Model,
		"reformat_model", cfg.ReformatModel)

	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.HTTPClient))
	}
	cli := openai.NewClient(reqOpts...)

	return &Client{
		chat:          &cli.Chat.Completions,
		model:         cfg.Model,
		reformatModel: cfg.ReformatModel,
		retry:         cfg.Retry,
	}, nil
}

// Generate runs the one-shot plan generation call and returns the raw model
// output. Transport/provider failures are retried up to the configured
// bound; malformed output is not an invoker concern and is returned as-is.
func (c *Client) Generate(ctx context.Context, req Request, params Params) (string, error) {
	maxTokens := params.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}
	effort := params.ReasoningEffort
	if effort == "" {
		effort = DefaultReasoningEffort
	}

	body := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.ExemplarInput),
			openai.AssistantMessage(req.ExemplarOutput),
			openai.UserMessage(req.Prompt),
		},
		MaxCompletionTokens: openai.Int(maxTokens),
		ReasoningEffort:     effort,
	}

	return c.complete(ctx, "generate", body)
}

// Reformat asks the secondary model to emit a corrected structured block
// given the malformed text and the parser's error message.
func (c *Client) Reformat(ctx context.Context, text string, parseErr string) (string, error) {
	prompt := fmt.Sprintf(reformatPromptTemplate, text, parseErr)
	body := openai.ChatCompletionNewParams{
		Model: c.reformatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(DefaultReformatMaxTokens),
		Temperature:         openai.Float(0),
	}
	return c.complete(ctx, "reformat", body)
}

const reformatPromptTemplate = `This is a YAML block:
` + "```yaml" + `
%s
` + "```" + `

This YAML block is not valid. It outputs the following error when trying to parse it:
` + "```" + `
%s
` + "```" + `

Rewrite the YAML block to fix the error. ONLY provide one YAML block in the response.`

// complete executes a chat completion with bounded retry on transient
// failures.
func (c *Client) complete(ctx context.Context, kind string, body openai.ChatCompletionNewParams) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		resp, err := c.chat.New(ctx, body)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", NewFatalError(fmt.Errorf("no choices returned"))
			}
			slog.Debug("genai.complete: call succeeded", "kind", kind, "attempt", attempt)
			return resp.Choices[0].Message.Content, nil
		}

		classified := classify(err)
		if IsFatal(classified) {
			slog.Error("genai.complete: fatal provider error", "kind", kind, "attempt", attempt, "error", err)
			return "", classified
		}
		lastErr = classified

		if attempt == c.retry.MaxAttempts {
			break
		}
		backoff := c.calculateBackoff(attempt)
		slog.Warn("genai.complete: transient error, retrying",
			"kind", kind, "attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return "", fmt.Errorf("model call failed after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

// classify maps provider errors onto the transient/fatal taxonomy. Client
// errors that cannot change on retry (auth, bad request) are fatal;
// everything else (rate limits, server errors, network failures) is
// transient.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusUnprocessableEntity:
			return NewFatalError(err)
		default:
			return NewTransientError(err)
		}
	}
	return NewTransientError(err)
}

// calculateBackoff computes exponential backoff duration with jitter.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.retry.BackoffMultiplier
	}
	backoff := time.Duration(float64(c.retry.BackoffBase) * multiplier)
	if backoff > c.retry.MaxBackoff {
		backoff = c.retry.MaxBackoff
	}
	// Add jitter: +/- 25% to prevent synchronized retries
	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}
