package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// LLMClient is a minimal HTTP client for an OpenAI-compatible chat
// completion endpoint. Its shape — base URL, functional options, a
// context-scoped JSON POST with a generous timeout — follows the pattern
// used by HTTP-based LLM clients elsewhere in the ecosystem, since no
// first-party Go SDK for this provider appears anywhere in this repo's
// dependency lineage.
type LLMClient struct {
	baseURL    *url.URL
	apiKey     string
	model      string
	httpClient *http.Client
}

// ClientOption configures an LLMClient.
type ClientOption func(*LLMClient)

// WithModel overrides the default chat completion model.
func WithModel(model string) ClientOption {
	return func(c *LLMClient) { c.model = model }
}

// WithHTTPClient overrides the default HTTP client (e.g. for a custom
// timeout or transport in tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *LLMClient) { c.httpClient = hc }
}

// NewLLMClient builds a client against baseURL (e.g.
// "https://api.openai.com/v1") authenticated with apiKey.
func NewLLMClient(baseURL, apiKey string, opts ...ClientOption) (*LLMClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM base URL: %w", err)
	}
	c := &LLMClient{
		baseURL: parsed,
		apiKey:  apiKey,
		model:   "gpt-4o-mini",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends systemPrompt and userPrompt as a two-message chat
// completion request and returns the assistant's reply text.
func (c *LLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	endpoint := c.baseURL.ResolveReference(&url.URL{Path: "chat/completions"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
