// Package groq implements the genai.Client capability against the Groq
// chat-completions API (OpenAI-compatible wire format).
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/querysight/querysight/internal/errs"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.3-70b-versatile"
)

// Config holds the settings for the Groq backend.
type Config struct {
	// APIKey is the bearer credential. Required.
	APIKey string

	// BaseURL overrides the API endpoint (tests, proxies).
	BaseURL string

	// Model selects the chat model. Defaults to llama-3.3-70b-versatile.
	Model string

	// HTTPClient overrides the transport. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client talks to the Groq chat-completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// New creates a Client. The API key must be non-empty.
func New(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "generation API key is required")
	}

	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		http:    cfg.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	return c, nil
}

// Name returns the backend name for logging.
func (c *Client) Name() string { return "groq" }

// wire types for the chat-completions request/response

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateText sends prompt as a single user message and returns the
// first choice's content. Temperature is pinned to 0 for deterministic
// SQL and chart-config output.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		return "", errs.Wrap(errs.ErrKindGeneration, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errs.Wrap(errs.ErrKindGeneration, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindGeneration, "generation call failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindGeneration, "failed to read response", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errs.Wrap(errs.ErrKindGeneration,
			fmt.Sprintf("malformed response (status %d)", resp.StatusCode), err)
	}

	if parsed.Error != nil {
		return "", errs.New(errs.ErrKindGeneration, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errs.New(errs.ErrKindGeneration,
			fmt.Sprintf("generation backend returned status %d", resp.StatusCode))
	}
	if len(parsed.Choices) == 0 {
		return "", errs.New(errs.ErrKindGeneration, "generation backend returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
