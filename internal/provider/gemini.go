package provider

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider calls the Gemini API through the genai SDK.
type GeminiProvider struct {
	name   string
	model  string
	client *genai.Client
}

// NewGeminiProvider creates a Gemini provider for ep.
func NewGeminiProvider(ctx context.Context, ep Endpoint) (*GeminiProvider, error) {
	cc := &genai.ClientConfig{
		APIKey:  ep.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if ep.Client != nil {
		cc.HTTPClient = ep.Client
	}
	if ep.URL != "" {
		cc.HTTPOptions.BaseURL = ep.URL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &Error{Provider: ep.Name, Op: "client", Err: err}
	}

	model := ep.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiProvider{name: ep.Name, model: model, client: client}, nil
}

func (p *GeminiProvider) Name() string { return p.name }

func (p *GeminiProvider) Generate(ctx context.Context, prompt, system string) (string, error) {
	var cfg *genai.GenerateContentConfig
	if system != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", &Error{Provider: p.name, Op: "generate", StatusCode: statusOf(err), Err: err}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &Error{Provider: p.name, Op: "generate", Err: ErrEmptyResponse}
	}
	return text, nil
}
