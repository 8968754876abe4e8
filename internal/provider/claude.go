package provider

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeProvider calls the Anthropic Messages API.
type ClaudeProvider struct {
	name   string
	model  anthropic.Model
	client anthropic.Client
}

// NewClaudeProvider creates a Claude provider. ep.URL overrides the API base URL when set.
func NewClaudeProvider(ep Endpoint) *ClaudeProvider {
	opts := []option.RequestOption{option.WithAPIKey(ep.APIKey)}
	if ep.URL != "" {
		opts = append(opts, option.WithBaseURL(ep.URL))
	}
	if ep.Client != nil {
		opts = append(opts, option.WithHTTPClient(ep.Client))
	}
	// Retries are handled by the registry's resilience wrapper.
	opts = append(opts, option.WithMaxRetries(0))

	model := anthropic.Model(ep.Model)
	if model == "" {
		model = anthropic.ModelClaudeOpus4_5_20251101
	}

	return &ClaudeProvider{
		name:   ep.Name,
		model:  model,
		client: anthropic.NewClient(opts...),
	}
}

func (p *ClaudeProvider) Name() string { return p.name }

func (p *ClaudeProvider) Generate(ctx context.Context, prompt, system string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", &Error{Provider: p.name, Op: "messages", StatusCode: statusOf(err), Err: err}
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(text.Text)
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", &Error{Provider: p.name, Op: "messages", Err: ErrEmptyResponse}
	}
	return out.String(), nil
}
