package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/roundtable/internal/config"
)

func envMap(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func fastRetry() RetryConfig {
	return RetryConfig{
		InitialInterval:     time.Millisecond,
		MaxInterval:         5 * time.Millisecond,
		MaxElapsedTime:      500 * time.Millisecond,
		Multiplier:          2.0,
		RandomizationFactor: 0,
	}
}

func TestListConfigured(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want []string
	}{
		{
			name: "nothing set",
			env:  map[string]string{},
			want: nil,
		},
		{
			name: "cloud keys in provider order",
			env:  map[string]string{"GROQ_API_KEY": "g", "ANTHROPIC_API_KEY": "a"},
			want: []string{"Claude", "Groq"},
		},
		{
			name: "whitespace key is not configured",
			env:  map[string]string{"GEMINI_API_KEY": "   "},
			want: nil,
		},
		{
			name: "Kimi needs endpoint and either key",
			env:  map[string]string{"KIMI_ENDPOINT": "https://kimi.example", "KIMI_API_KEY": "k"},
			want: []string{"Kimi"},
		},
		{
			name: "DeepSeek needs the Azure key",
			env:  map[string]string{"DEEPSEEK_ENDPOINT": "https://ds.example", "KIMI_API_KEY": "k"},
			want: nil,
		},
		{
			name: "shared Azure key enables both",
			env:  map[string]string{"DEEPSEEK_ENDPOINT": "https://ds", "KIMI_ENDPOINT": "https://kimi", "AZURE_API_KEY": "z"},
			want: []string{"Kimi", "DeepSeek"},
		},
		{
			name: "local runtimes need their host variable",
			env:  map[string]string{"OLLAMA_HOST": "http://localhost:11434", "CLAUDESON_URL": "http://127.0.0.1:8000"},
			want: []string{"Ollama", "Claudeson"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(config.DefaultConfig(), WithGetenv(envMap(tt.env)))
			assert.Equal(t, tt.want, r.ListConfigured())
		})
	}
}

func TestListConfigured_ExtraProvidersSorted(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers["Zeta"] = config.ProviderConfig{Kind: KindChat, URL: "http://z", Path: "/v1/chat/completions"}
	cfg.Providers["Alpha"] = config.ProviderConfig{Kind: KindChat, URL: "http://a", Path: "/v1/chat/completions"}

	r := NewRegistry(cfg, WithGetenv(envMap(map[string]string{"OPENAI_API_KEY": "o"})))
	assert.Equal(t, []string{"GPT", "Alpha", "Zeta"}, r.ListConfigured())
}

func TestListHealthy_ProbesLocalProviders(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer healthy.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	env := map[string]string{
		"OLLAMA_HOST":    healthy.URL,
		"CLAUDESON_URL":  down.URL,
		"OPENAI_API_KEY": "o",
	}
	r := NewRegistry(config.DefaultConfig(), WithGetenv(envMap(env)))

	assert.Equal(t, []string{"Ollama", "Claudeson", "GPT"}, r.ListConfigured())
	assert.Equal(t, []string{"Ollama", "GPT"}, r.ListHealthy(context.Background()))
}

func TestListHealthy_ProbeTimeout(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	r := NewRegistry(config.DefaultConfig(),
		WithGetenv(envMap(map[string]string{"OLLAMA_HOST": slow.URL, "GROQ_API_KEY": "g"})),
		WithProbeTimeout(100*time.Millisecond))

	start := time.Now()
	got := r.ListHealthy(context.Background())
	assert.Equal(t, []string{"Groq"}, got)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolve(t *testing.T) {
	r := NewRegistry(config.DefaultConfig(), WithGetenv(envMap(nil)))

	tests := []struct {
		in   string
		want string
	}{
		{"claude", "Claude"},
		{"DEEPSEEK", "DeepSeek"},
		{" Groq ", "Groq"},
		{"gpt-7-hallucinated", "Ollama"},
		{"", "Ollama"},
	}
	for _, tt := range tests {
		p := r.Resolve(tt.in)
		require.NotNil(t, p, "Resolve(%q)", tt.in)
		assert.Equal(t, tt.want, p.Name(), "Resolve(%q)", tt.in)
	}
}

func TestResolve_UnconfiguredSurfacesOnGenerate(t *testing.T) {
	r := NewRegistry(config.DefaultConfig(), WithGetenv(envMap(nil)), WithRetry(fastRetry()))

	_, err := r.Resolve("Mistral").Generate(context.Background(), "hi", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConfigured))

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Mistral", perr.Provider)
}

func TestGenerate_ChatRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "pong"}}},
		})
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Providers["Local"] = config.ProviderConfig{Kind: KindChat, URL: srv.URL, Path: "/v1/chat/completions"}

	r := NewRegistry(cfg, WithGetenv(envMap(nil)), WithRetry(fastRetry()))
	text, err := r.Resolve("local").Generate(context.Background(), "ping", "sys")
	require.NoError(t, err)
	assert.Equal(t, "pong", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerate_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Providers["Local"] = config.ProviderConfig{Kind: KindChat, URL: srv.URL}

	r := NewRegistry(cfg, WithGetenv(envMap(nil)), WithRetry(fastRetry()))
	_, err := r.Resolve("Local").Generate(context.Background(), "ping", "")
	require.Error(t, err)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerate_UnknownKind(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers["Odd"] = config.ProviderConfig{Kind: "carrier-pigeon"}

	r := NewRegistry(cfg, WithGetenv(envMap(nil)), WithRetry(fastRetry()))
	_, err := r.Resolve("Odd").Generate(context.Background(), "hi", "")
	assert.ErrorContains(t, err, "unknown provider kind")
}

func TestGenerate_CustomFactory(t *testing.T) {
	cfg := config.DefaultConfig()
	var gotEndpoint Endpoint
	r := NewRegistry(cfg,
		WithGetenv(envMap(map[string]string{"OLLAMA_HOST": "http://ollama:11434", "OLLAMA_MODEL": "qwen"})),
		WithFactory(KindOllama, func(_ context.Context, ep Endpoint) (Provider, error) {
			gotEndpoint = ep
			return staticProvider{name: ep.Name, text: "local answer"}, nil
		}))

	text, err := r.Resolve("ollama").Generate(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "local answer", text)
	assert.Equal(t, "http://ollama:11434", gotEndpoint.URL)
	assert.Equal(t, "qwen", gotEndpoint.Model)
}

type staticProvider struct {
	name string
	text string
}

func (s staticProvider) Name() string { return s.name }
func (s staticProvider) Generate(context.Context, string, string) (string, error) {
	return s.text, nil
}

func TestCanonicalAndRemap(t *testing.T) {
	available := []string{"Gemini", "Claude"}

	name, ok := Canonical("claude", available)
	assert.True(t, ok)
	assert.Equal(t, "Claude", name)

	_, ok = Canonical("GPT", available)
	assert.False(t, ok)

	assert.Equal(t, "Claude", Remap("CLAUDE", available))
	assert.Equal(t, "Gemini", Remap("made-up", available))
	assert.Equal(t, "", Remap("anything", nil))
}

func TestErrorTemporary(t *testing.T) {
	tests := []struct {
		err  *Error
		want bool
	}{
		{&Error{StatusCode: 429, Err: errors.New("slow down")}, true},
		{&Error{StatusCode: 503, Err: errors.New("unavailable")}, true},
		{&Error{StatusCode: 400, Err: errors.New("bad")}, false},
		{&Error{Err: errors.New("connection refused")}, true},
		{&Error{Err: ErrNotConfigured}, false},
		{&Error{Err: ErrEmptyResponse}, false},
		{&Error{Err: context.Canceled}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Temporary(), tt.err.Error())
	}
}

func TestGenerate_UnknownNameUsesDefaultOllamaURL(t *testing.T) {
	var gotEndpoint Endpoint
	r := NewRegistry(config.DefaultConfig(),
		WithGetenv(envMap(nil)),
		WithRetry(fastRetry()),
		WithFactory(KindOllama, func(_ context.Context, ep Endpoint) (Provider, error) {
			gotEndpoint = ep
			return staticProvider{name: ep.Name, text: "local answer"}, nil
		}))

	text, err := r.Resolve("gpt-7-hallucinated").Generate(context.Background(), "hi", "")
	require.NoError(t, err)
	assert.Equal(t, "local answer", text)
	assert.Equal(t, "http://localhost:11434", gotEndpoint.URL)

	assert.NotContains(t, r.ListConfigured(), "Ollama", "listing still requires OLLAMA_HOST")
}
