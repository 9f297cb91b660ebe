// Package groq provides diet plan generation through Groq's OpenAI-compatible
// chat completions endpoint
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/nutriplan/dietplan/internal/domain/plan"
	"github.com/nutriplan/dietplan/internal/infrastructure/config"
	"github.com/nutriplan/dietplan/internal/ports/outbound"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
)

const (
	serviceName = "groq"

	// NoErrorDetail is used when a failed response carries no error message
	NoErrorDetail = "no detailed error provided"

	maxResponseBytes = 4 << 20
)

var _ outbound.PlanGenerator = (*Client)(nil)

// Client implements outbound.PlanGenerator. It is safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a new Groq client
func NewClient(cfg config.AIConfig, logger *zap.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("groq"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.logger.Warn("Groq API key not configured, plan generation will fail until it is set")
	}

	return c
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Chat completion API structures
type ChatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionResponse struct {
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// ResponseMessage keeps Content as a pointer so a missing field can be told
// apart from an empty answer.
type ResponseMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GeneratePlan sends the prompt as a single user message and returns the
// first choice's content. No retries are attempted.
func (c *Client) GeneratePlan(ctx context.Context, prompt string) (*plan.DietPlan, error) {
	if c.apiKey == "" {
		return nil, apperrors.NewConfigError("GROQ_API_KEY")
	}

	reqBody := ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Groq request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, apperrors.NewTransportError(serviceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.NewTransportError(serviceName, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		message := errorMessage(body)
		c.logger.Warn("Groq API returned an error",
			zap.Int("status", resp.StatusCode),
			zap.String("message", message),
		)
		return nil, apperrors.NewAPIError(serviceName, resp.StatusCode, message)
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, apperrors.NewMalformedResponseError(serviceName, "response body is not valid JSON").WithCause(err)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == nil {
		return nil, apperrors.NewMalformedResponseError(serviceName, "response has no choices[0].message.content")
	}

	c.logger.Info("Groq API call successful",
		zap.String("model", chatResp.Model),
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
		zap.Int("total_tokens", chatResp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	model := chatResp.Model
	if model == "" {
		model = c.model
	}

	return &plan.DietPlan{
		Text:  *chatResp.Choices[0].Message.Content,
		Model: model,
	}, nil
}

func errorMessage(body []byte) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return NoErrorDetail
	}
	return errResp.Error.Message
}
