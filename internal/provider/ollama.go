package provider

import (
	"context"
	"encoding/json"
	"strings"
)

// OllamaProvider calls a local Ollama runtime through its native /api/chat endpoint.
type OllamaProvider struct {
	ep Endpoint
}

// NewOllamaProvider creates a provider for the Ollama host in ep.URL.
func NewOllamaProvider(ep Endpoint) *OllamaProvider {
	return &OllamaProvider{ep: ep}
}

func (p *OllamaProvider) Name() string { return p.ep.Name }

func (p *OllamaProvider) Generate(ctx context.Context, prompt, system string) (string, error) {
	url := strings.TrimRight(p.ep.URL, "/") + "/api/chat"
	reqBody := map[string]any{
		"model":  p.ep.Model,
		"stream": false,
		"messages": []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}

	body, status, err := postJSON(ctx, p.ep, url, reqBody, nil)
	if err != nil {
		return "", &Error{Provider: p.ep.Name, Op: "chat", StatusCode: status, Err: err}
	}

	var parsed struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &Error{Provider: p.ep.Name, Op: "decode", Err: err}
	}
	if strings.TrimSpace(parsed.Message.Content) == "" {
		return "", &Error{Provider: p.ep.Name, Op: "chat", Err: ErrEmptyResponse}
	}
	return parsed.Message.Content, nil
}
