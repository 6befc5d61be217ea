package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Request is one single-turn completion.
type Request struct {
	System string
	Prompt string
}

// Completer turns a prompt into generated text. Implementations must return
// an error matching ErrPayloadTooLarge when the provider rejects the size.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Options configures a Client.
type Options struct {
	APIKey            string
	BaseURL           string
	Model             string
	Temperature       float64
	MaxTokens         int
	RequestsPerMinute int // 0 disables client-side throttling
	Timeout           time.Duration
}

// Client calls an OpenAI-compatible chat completions API (Groq by default).
type Client struct {
	api        *openai.Client
	httpClient *http.Client
	model      string
	temp       float32
	maxTokens  int
	limiter    *rate.Limiter

	Stats *Stats
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	httpClient := &http.Client{Timeout: opts.Timeout}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = httpClient

	c := &Client{
		api:        openai.NewClientWithConfig(cfg),
		httpClient: httpClient,
		model:      opts.Model,
		temp:       float32(opts.Temperature),
		maxTokens:  opts.MaxTokens,
		Stats:      NewStats(time.Hour),
	}
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return c
}

// Complete sends one chat completion and returns the first choice verbatim.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temp,
		MaxTokens:   c.maxTokens,
	})
	c.Stats.Record(time.Since(start).Milliseconds())
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.model)
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// classify maps go-openai errors onto StatusError so callers can branch on
// the HTTP status without importing the SDK.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &StatusError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &StatusError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return fmt.Errorf("completion request: %w", err)
}
