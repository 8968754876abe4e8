package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Endpoint is the resolved configuration a backend is built from.
type Endpoint struct {
	Name      string
	URL       string
	APIKey    string
	KeyHeader string
	Model     string
	Client    *http.Client
}

func (ep Endpoint) httpClient() *http.Client {
	if ep.Client != nil {
		return ep.Client
	}
	return http.DefaultClient
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ChatProvider talks to any OpenAI-compatible chat completions endpoint:
// OpenAI, Mistral, Groq, the local Claudeson bridge and Azure-hosted deployments.
type ChatProvider struct {
	ep Endpoint
}

// NewChatProvider creates a ChatProvider posting to ep.URL.
func NewChatProvider(ep Endpoint) *ChatProvider {
	return &ChatProvider{ep: ep}
}

func (p *ChatProvider) Name() string { return p.ep.Name }

// Generate sends a system and a user message and returns the first choice.
func (p *ChatProvider) Generate(ctx context.Context, prompt, system string) (string, error) {
	reqBody := chatRequest{
		Model: p.ep.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   4096,
		Temperature: 0.7,
	}

	body, status, err := postJSON(ctx, p.ep, p.ep.URL, reqBody, p.authHeaders())
	if err != nil {
		return "", &Error{Provider: p.ep.Name, Op: "generate", StatusCode: status, Err: err}
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &Error{Provider: p.ep.Name, Op: "decode", Err: err}
	}
	if resp.Error != nil {
		return "", &Error{Provider: p.ep.Name, Op: "generate", Err: fmt.Errorf("api error: %s", resp.Error.Message)}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &Error{Provider: p.ep.Name, Op: "generate", Err: ErrEmptyResponse}
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *ChatProvider) authHeaders() map[string]string {
	if p.ep.APIKey == "" {
		return nil
	}
	if p.ep.KeyHeader != "" {
		return map[string]string{p.ep.KeyHeader: p.ep.APIKey}
	}
	return map[string]string{"Authorization": "Bearer " + p.ep.APIKey}
}

// postJSON posts payload and returns the body of a 2xx response.
// On a non-2xx status the returned status code is set and err carries the body.
func postJSON(ctx context.Context, ep Endpoint, url string, payload any, headers map[string]string) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ep.httpClient().Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("%s", compact(string(body), 240))
	}
	return body, resp.StatusCode, nil
}

func compact(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
