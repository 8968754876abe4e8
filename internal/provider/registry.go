package provider

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/roundtable/internal/config"
)

// Provider kinds understood by the registry.
const (
	KindChat      = "chat"
	KindOllama    = "ollama"
	KindAnthropic = "anthropic"
	KindGemini    = "gemini"
)

// DefaultProbeTimeout bounds each liveness probe.
const DefaultProbeTimeout = 2 * time.Second

// Factory builds a backend from a resolved endpoint.
type Factory func(ctx context.Context, ep Endpoint) (Provider, error)

// Registry maps provider names to backends built from configuration and environment.
type Registry struct {
	providers    map[string]config.ProviderConfig
	order        []string
	fallback     string
	getenv       func(string) string
	client       *http.Client
	probeTimeout time.Duration
	retry        RetryConfig
	breakers     *Breakers
	factories    map[string]Factory
	logger       *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithGetenv replaces os.Getenv for credential and endpoint lookup.
func WithGetenv(getenv func(string) string) Option {
	return func(r *Registry) { r.getenv = getenv }
}

// WithHTTPClient sets the client used by HTTP backends and probes.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Registry) { r.client = client }
}

// WithProbeTimeout overrides the liveness probe timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(r *Registry) { r.probeTimeout = d }
}

// WithRetry overrides the retry policy.
func WithRetry(cfg RetryConfig) Option {
	return func(r *Registry) { r.retry = cfg }
}

// WithFactory registers or replaces the backend constructor for kind.
func WithFactory(kind string, f Factory) Option {
	return func(r *Registry) { r.factories[kind] = f }
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates a registry over cfg.Providers.
func NewRegistry(cfg *config.OrchestratorConfig, opts ...Option) *Registry {
	r := &Registry{
		providers:    cfg.Providers,
		order:        cfg.ProviderOrder,
		fallback:     cfg.DefaultProvider,
		getenv:       os.Getenv,
		client:       &http.Client{},
		probeTimeout: DefaultProbeTimeout,
		retry:        DefaultRetryConfig(),
		logger:       zap.NewNop(),
		factories: map[string]Factory{
			KindChat: func(_ context.Context, ep Endpoint) (Provider, error) {
				return NewChatProvider(ep), nil
			},
			KindOllama: func(_ context.Context, ep Endpoint) (Provider, error) {
				return NewOllamaProvider(ep), nil
			},
			KindAnthropic: func(_ context.Context, ep Endpoint) (Provider, error) {
				return NewClaudeProvider(ep), nil
			},
			KindGemini: func(ctx context.Context, ep Endpoint) (Provider, error) {
				return NewGeminiProvider(ctx, ep)
			},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.breakers = NewBreakers(r.logger)
	return r
}

// Names returns every known provider name: provider_order first, then the rest sorted.
func (r *Registry) Names() []string {
	seen := make(map[string]bool, len(r.providers))
	names := make([]string, 0, len(r.providers))
	for _, name := range r.order {
		if _, ok := r.providers[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	var extra []string
	for name := range r.providers {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// ListConfigured returns the providers whose credentials and endpoint are present.
// It does no I/O.
func (r *Registry) ListConfigured() []string {
	var configured []string
	for _, name := range r.Names() {
		if _, err := r.endpoint(name, true); err == nil {
			configured = append(configured, name)
		}
	}
	return configured
}

// ListHealthy returns configured providers, probing those with a health path concurrently.
// A failed probe silently excludes the provider. Order follows ListConfigured.
func (r *Registry) ListHealthy(ctx context.Context) []string {
	configured := r.ListConfigured()
	healthy := make([]bool, len(configured))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range configured {
		pc := r.providers[name]
		if pc.HealthPath == "" {
			healthy[i] = true
			continue
		}
		g.Go(func() error {
			healthy[i] = r.probe(gctx, name, pc.HealthPath)
			return nil
		})
	}
	g.Wait()

	var out []string
	for i, name := range configured {
		if healthy[i] {
			out = append(out, name)
		}
	}
	return out
}

func (r *Registry) probe(ctx context.Context, name, healthPath string) bool {
	ep, err := r.endpoint(name, false)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	url := strings.TrimRight(baseOf(ep.URL, r.providers[name].Path), "/") + healthPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("health probe failed", zap.String("provider", name), zap.Error(err))
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Resolve returns the provider registered under name, matched case-insensitively.
// Unknown names resolve to the default provider. Configuration problems surface
// as ErrNotConfigured when the provider is invoked.
func (r *Registry) Resolve(name string) Provider {
	canonical, ok := Canonical(name, r.Names())
	if !ok {
		canonical = r.fallback
	}
	return &resilient{name: canonical, registry: r}
}

// Breakers exposes the per-provider circuit breakers.
func (r *Registry) Breakers() *Breakers {
	return r.breakers
}

func (r *Registry) build(ctx context.Context, name string) (Provider, error) {
	ep, err := r.endpoint(name, false)
	if err != nil {
		return nil, err
	}
	factory, ok := r.factories[r.providers[name].Kind]
	if !ok {
		return nil, &Error{Provider: name, Op: "build", Err: fmt.Errorf("unknown provider kind %q", r.providers[name].Kind)}
	}
	return factory(ctx, ep)
}

// endpoint resolves the configuration of name against the environment.
// A provider with a URL variable falls back to its configured URL when the
// variable is unset, unless requireEnv is true.
func (r *Registry) endpoint(name string, requireEnv bool) (Endpoint, error) {
	pc, ok := r.providers[name]
	if !ok {
		return Endpoint{}, &Error{Provider: name, Op: "resolve", Err: ErrNotConfigured}
	}

	ep := Endpoint{
		Name:      name,
		KeyHeader: pc.KeyHeader,
		Model:     pc.Model,
		Client:    r.client,
	}

	base := pc.URL
	if pc.URLEnv != "" {
		if env := strings.TrimSpace(r.getenv(pc.URLEnv)); env != "" {
			base = env
		} else if requireEnv || base == "" {
			return Endpoint{}, &Error{Provider: name, Op: "resolve", Err: fmt.Errorf("%w: %s is not set", ErrNotConfigured, pc.URLEnv)}
		}
	}

	if len(pc.KeyEnv) > 0 {
		for _, env := range pc.KeyEnv {
			if key := strings.TrimSpace(r.getenv(env)); key != "" {
				ep.APIKey = key
				break
			}
		}
		if ep.APIKey == "" {
			return Endpoint{}, &Error{Provider: name, Op: "resolve", Err: fmt.Errorf("%w: none of %s is set", ErrNotConfigured, strings.Join(pc.KeyEnv, ", "))}
		}
	}

	switch pc.Kind {
	case KindChat:
		if base == "" {
			return Endpoint{}, &Error{Provider: name, Op: "resolve", Err: fmt.Errorf("%w: no endpoint", ErrNotConfigured)}
		}
		ep.URL = strings.TrimRight(base, "/") + pc.Path
	default:
		ep.URL = base
	}

	if pc.ModelEnv != "" {
		if model := strings.TrimSpace(r.getenv(pc.ModelEnv)); model != "" {
			ep.Model = model
		}
	}
	return ep, nil
}

// baseOf strips a configured chat path from a full URL to get the service root.
func baseOf(url, path string) string {
	if path != "" && strings.HasSuffix(url, path) {
		return strings.TrimSuffix(url, path)
	}
	return url
}
