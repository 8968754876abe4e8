// Package provider turns a logical provider name into something that can
// generate text, and tracks which providers are configured and reachable.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Provider generates text for a prompt under a system context.
// Implementations are stateless; any instance with the same name is interchangeable.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// Catalog is the part of the registry the orchestration core depends on.
type Catalog interface {
	// ListHealthy returns configured providers that passed their liveness probe.
	ListHealthy(ctx context.Context) []string
	// Resolve returns a provider for name; unknown names fall back to the default provider.
	Resolve(name string) Provider
}

var (
	// ErrNoProviders is returned when no provider is available at all.
	ErrNoProviders = errors.New("no providers available")

	// ErrNotConfigured is returned when a selected provider lacks credentials or an endpoint.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrEmptyResponse is returned when a backend answers successfully with no text.
	ErrEmptyResponse = errors.New("empty response")
)

// Error is the typed failure of a provider call.
type Error struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%s] %s: HTTP %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Temporary reports whether retrying the call may succeed.
func (e *Error) Temporary() bool {
	switch {
	case errors.Is(e.Err, ErrNotConfigured), errors.Is(e.Err, ErrEmptyResponse):
		return false
	case errors.Is(e.Err, context.Canceled), errors.Is(e.Err, context.DeadlineExceeded):
		return false
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return e.StatusCode >= 500
	}
}

// Canonical returns the entry of available that matches name case-insensitively.
func Canonical(name string, available []string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, candidate := range available {
		if strings.EqualFold(candidate, name) {
			return candidate, true
		}
	}
	return "", false
}

// Remap returns name in its canonical form when available, otherwise the first available provider.
// It returns "" only when available is empty.
func Remap(name string, available []string) string {
	if canonical, ok := Canonical(name, available); ok {
		return canonical
	}
	if len(available) == 0 {
		return ""
	}
	return available[0]
}

// ResolveHealthy remaps name against the currently healthy providers and resolves
// the result. With nothing healthy, name is resolved as given.
func ResolveHealthy(ctx context.Context, c Catalog, name string) Provider {
	if remapped := Remap(name, c.ListHealthy(ctx)); remapped != "" {
		name = remapped
	}
	return c.Resolve(name)
}
