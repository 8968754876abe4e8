// Package providertest supplies scripted providers and a fixed catalog for tests.
package providertest

import (
	"context"
	"strings"
	"sync"

	"github.com/aristath/roundtable/internal/provider"
)

// Call records one Generate invocation.
type Call struct {
	Prompt string
	System string
}

// Scripted is a provider that answers from a function or a fixed reply.
type Scripted struct {
	ProviderName string
	Reply        string
	Err          error
	// Respond, when set, takes precedence over Reply and Err.
	Respond func(prompt, system string) (string, error)

	mu    sync.Mutex
	calls []Call
}

func (s *Scripted) Name() string { return s.ProviderName }

func (s *Scripted) Generate(ctx context.Context, prompt, system string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Prompt: prompt, System: system})
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Respond != nil {
		return s.Respond(prompt, system)
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Reply, nil
}

// Calls returns a copy of the recorded calls.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Catalog is a provider.Catalog with a fixed healthy set.
type Catalog struct {
	Healthy   []string
	Providers map[string]provider.Provider
	// Fallback is returned by Resolve for unknown names; defaults to the first healthy provider.
	Fallback string
}

// NewCatalog builds a catalog where every given provider is healthy, in order.
func NewCatalog(providers ...provider.Provider) *Catalog {
	c := &Catalog{Providers: make(map[string]provider.Provider)}
	for _, p := range providers {
		c.Healthy = append(c.Healthy, p.Name())
		c.Providers[p.Name()] = p
	}
	return c
}

func (c *Catalog) ListHealthy(ctx context.Context) []string {
	return append([]string(nil), c.Healthy...)
}

func (c *Catalog) Resolve(name string) provider.Provider {
	for key, p := range c.Providers {
		if strings.EqualFold(key, name) {
			return p
		}
	}
	fallback := c.Fallback
	if fallback == "" && len(c.Healthy) > 0 {
		fallback = c.Healthy[0]
	}
	if p, ok := c.Providers[fallback]; ok {
		return p
	}
	return &Scripted{ProviderName: name, Err: &provider.Error{Provider: name, Op: "resolve", Err: provider.ErrNotConfigured}}
}
