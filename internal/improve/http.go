package improve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/aristath/roundtable/internal/provider"
)

// HTTPClient is an Auditor and Rewriter backed by a remote audit service
// exposing POST /api/analyze and POST /api/rewrite.
type HTTPClient struct {
	baseURL         string
	client          *http.Client
	rewriteProvider string
	retry           provider.RetryConfig
}

// NewHTTPClient creates a client for baseURL. client may be nil.
func NewHTTPClient(baseURL string, client *http.Client, rewriteProvider string, retry provider.RetryConfig) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClient{
		baseURL:         strings.TrimRight(baseURL, "/"),
		client:          client,
		rewriteProvider: rewriteProvider,
		retry:           retry,
	}
}

type analyzeRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Mode     string `json:"mode"`
}

type rewriteRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Issue    string `json:"issue"`
	Provider string `json:"provider,omitempty"`
}

type rewriteResponse struct {
	ProposedContent *string `json:"proposed_content"`
}

// Analyze implements Auditor.
func (c *HTTPClient) Analyze(ctx context.Context, filename, content string) (Audit, error) {
	var audit Audit
	err := c.post(ctx, "/api/analyze", analyzeRequest{Filename: filename, Content: content, Mode: "quality_audit"}, &audit)
	return audit, err
}

// Rewrite implements Rewriter. A response without proposed_content yields "".
func (c *HTTPClient) Rewrite(ctx context.Context, filename, content, issue string) (string, error) {
	var resp rewriteResponse
	req := rewriteRequest{Filename: filename, Content: content, Issue: issue, Provider: c.rewriteProvider}
	if err := c.post(ctx, "/api/rewrite", req, &resp); err != nil {
		return "", err
	}
	if resp.ProposedContent == nil {
		return "", nil
	}
	return *resp.ProposedContent, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string { return fmt.Sprintf("HTTP %d: %s", e.code, e.body) }

// post sends payload and decodes the JSON reply into out, retrying network
// failures, 429 and 5xx responses.
func (c *HTTPClient) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	url := c.baseURL + path

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("POST %s: %w", path, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading %s response: %w", path, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			serr := &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return serr
			}
			return backoff.Permanent(serr)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding %s response: %w", path, err))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retry.InitialInterval
	policy.MaxInterval = c.retry.MaxInterval
	policy.MaxElapsedTime = c.retry.MaxElapsedTime
	policy.Multiplier = c.retry.Multiplier
	policy.RandomizationFactor = c.retry.RandomizationFactor

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}
