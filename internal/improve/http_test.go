package improve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/roundtable/internal/provider"
)

func fastRetry() provider.RetryConfig {
	return provider.RetryConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsedTime:  time.Second,
		Multiplier:      2,
	}
}

func TestHTTPClient_AnalyzeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze", r.URL.Path)
		var req analyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "quality_audit", req.Mode)
		assert.Equal(t, "a.js", req.Filename)

		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"score": 4.5, "issues": ["no tests"], "suggestions": []}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", nil, "Kimi", fastRetry())
	audit, err := c.Analyze(context.Background(), "a.js", "code")
	require.NoError(t, err)
	require.NotNil(t, audit.Score)
	assert.Equal(t, 4.5, *audit.Score)
	assert.Equal(t, []string{"no tests"}, audit.Issues)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil, "", fastRetry())
	_, err := c.Analyze(context.Background(), "a.js", "code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPClient_Rewrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rewriteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/api/rewrite", r.URL.Path)
		assert.Equal(t, "Kimi", req.Provider)
		assert.Equal(t, "fix it", req.Issue)
		if req.Filename == "none.js" {
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`{"proposed_content": "fixed"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, srv.Client(), "Kimi", fastRetry())

	out, err := c.Rewrite(context.Background(), "a.js", "code", "fix it")
	require.NoError(t, err)
	assert.Equal(t, "fixed", out)

	out, err = c.Rewrite(context.Background(), "none.js", "code", "fix it")
	require.NoError(t, err)
	assert.Empty(t, out)
}
