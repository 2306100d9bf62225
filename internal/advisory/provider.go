// Package advisory produces free-text remediation advice for findings and
// health messages. Advice is best effort: callers always get a string, and
// the placeholder when no provider is configured or the provider fails.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultTimeout = 60 * time.Second
)

// ErrAdvisoryUnavailable is returned by providers that cannot produce text.
var ErrAdvisoryUnavailable = errors.New("advisory provider unavailable")

type Provider interface {
	Advise(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	apiKey        string
	model         string
	fallbackModel string
	baseURL       string
	systemPrompt  string
	client        *http.Client
}

type ClientOption func(*OpenAIClient)

// WithFallbackModel retries once with model when the primary model is
// rejected.
func WithFallbackModel(model string) ClientOption {
	return func(c *OpenAIClient) {
		c.fallbackModel = model
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *OpenAIClient) {
		c.client.Timeout = timeout
	}
}

func WithSystemPrompt(prompt string) ClientOption {
	return func(c *OpenAIClient) {
		c.systemPrompt = prompt
	}
}

func NewOpenAIClient(apiKey, model, baseURL string, opts ...ClientOption) *OpenAIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &OpenAIClient{
		apiKey:       apiKey,
		model:        model,
		baseURL:      baseURL,
		systemPrompt: defaultSystemPrompt,
		client:       &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// statusError carries a non-200 response status.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("chat completion failed (%d): %s", e.code, e.message)
}

func (c *OpenAIClient) Advise(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.Wrap(ErrAdvisoryUnavailable, "no api key configured")
	}

	text, err := c.complete(ctx, c.model, prompt)
	var se *statusError
	if err != nil && c.fallbackModel != "" && errors.As(err, &se) {
		text, err = c.complete(ctx, c.fallbackModel, prompt)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAdvisoryUnavailable, err)
	}
	return text, nil
}

func (c *OpenAIClient) complete(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to create chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "chat request failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read chat response")
	}

	if resp.StatusCode != http.StatusOK {
		var ce chatError
		if json.Unmarshal(payload, &ce) == nil && ce.Error.Message != "" {
			return "", &statusError{code: resp.StatusCode, message: ce.Error.Message}
		}
		return "", &statusError{code: resp.StatusCode, message: string(payload)}
	}

	var cr chatResponse
	if err := json.Unmarshal(payload, &cr); err != nil {
		return "", errors.Wrap(err, "failed to parse chat response")
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", errors.New("chat response has no content")
	}
	return cr.Choices[0].Message.Content, nil
}
