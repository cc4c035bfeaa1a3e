// Package openrouter sends image prompts to an OpenAI-compatible
// chat-completion endpoint and returns the raw response body.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL   = "https://openrouter.ai/api/v1"
	DefaultModel     = "google/gemini-2.5-flash-image-preview:free"
	DefaultMaxTokens = 1000

	chatCompletionsPath = "chat/completions"
)

var (
	ErrTransport         = errors.New("openrouter: transport error")
	ErrMalformedResponse = errors.New("openrouter: malformed response")
)

// StatusError is returned for non-2xx responses. It matches ErrTransport
// with errors.Is.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openrouter API %s: %s", e.Status, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrTransport
}

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	api       openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(baseURL + "/"),
		option.WithMaxRetries(0),
	}
	if opts.HTTPClient != nil {
		requestOpts = append(requestOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &Client{
		api:       openai.NewClient(requestOpts...),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

func (c *Client) Model() string {
	return c.model
}

// Complete posts one generation request for prompt. Transport failures and
// non-2xx statuses wrap ErrTransport; a body that is not JSON wraps
// ErrMalformedResponse.
func (c *Client) Complete(ctx context.Context, prompt string) (RawResponse, error) {
	req := NewChatRequest(c.model, prompt, c.maxTokens)

	var (
		body     []byte
		httpResp *http.Response
	)
	start := time.Now()
	err := c.api.Post(ctx, chatCompletionsPath, req, &body, option.WithResponseInto(&httpResp))
	if err != nil {
		if httpResp != nil && httpResp.StatusCode >= 400 {
			return RawResponse{}, newStatusError(httpResp, err)
		}
		return RawResponse{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if !gjson.ValidBytes(body) {
		return RawResponse{}, fmt.Errorf("%w: body is not valid JSON (%d bytes)", ErrMalformedResponse, len(body))
	}

	raw := summarize(body)
	c.logger.Debug("chat completion",
		"model", raw.Model,
		"id", raw.ID,
		"choices", raw.Choices,
		"total_tokens", raw.TotalTokens,
		"dur_ms", time.Since(start).Milliseconds(),
	)
	if raw.ErrorMessage != "" {
		c.logger.Warn("provider returned an error object", "message", raw.ErrorMessage)
	}
	return raw, nil
}

func summarize(body []byte) RawResponse {
	fields := gjson.GetManyBytes(body, "id", "model", "choices.#", "usage.total_tokens", "error.message")
	return RawResponse{
		Body:         body,
		ID:           fields[0].String(),
		Model:        fields[1].String(),
		Choices:      int(fields[2].Int()),
		TotalTokens:  fields[3].Int(),
		ErrorMessage: fields[4].String(),
	}
}

func newStatusError(resp *http.Response, cause error) *StatusError {
	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}

	var apiErr *openai.Error
	switch {
	case errors.As(cause, &apiErr) && apiErr.Message != "":
		statusErr.Body = apiErr.Message
	case resp.Body != nil:
		data, _ := io.ReadAll(resp.Body)
		statusErr.Body = strings.TrimSpace(string(data))
	}
	if statusErr.Status == "" {
		statusErr.Status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return statusErr
}
