package improve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/roundtable/internal/provider/providertest"
)

func TestLLMAuditor(t *testing.T) {
	kimi := &providertest.Scripted{ProviderName: "Kimi", Reply: "Here you go: {\"score\": 5, \"issues\": [\"globals\"]} done"}
	a := &LLMAuditor{Catalog: providertest.NewCatalog(kimi), Provider: "Kimi"}

	audit, err := a.Analyze(context.Background(), "a.js", "var x")
	require.NoError(t, err)
	require.NotNil(t, audit.Score)
	assert.Equal(t, 5.0, *audit.Score)
	assert.Equal(t, []string{"globals"}, audit.Issues)

	calls := kimi.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "FILE: a.js\nCONTENT:\nvar x")
	assert.Equal(t, auditSystem, calls[0].System)
}

func TestLLMAuditor_Unparseable(t *testing.T) {
	kimi := &providertest.Scripted{ProviderName: "Kimi", Reply: "looks fine to me"}
	a := &LLMAuditor{Catalog: providertest.NewCatalog(kimi), Provider: "Kimi"}

	audit, err := a.Analyze(context.Background(), "a.js", "x")
	require.NoError(t, err)
	require.NotNil(t, audit.Score)
	assert.Equal(t, 0.0, *audit.Score)
	assert.Equal(t, []string{"Parse failed"}, audit.Issues)
}

func TestLLMAuditor_ProviderError(t *testing.T) {
	kimi := &providertest.Scripted{ProviderName: "Kimi", Err: errors.New("down")}
	a := &LLMAuditor{Catalog: providertest.NewCatalog(kimi), Provider: "Kimi"}

	_, err := a.Analyze(context.Background(), "a.js", "x")
	assert.Error(t, err)
}

func TestLLMRewriter(t *testing.T) {
	kimi := &providertest.Scripted{ProviderName: "Kimi", Reply: "```go\npackage a\n```"}
	r := &LLMRewriter{Catalog: providertest.NewCatalog(kimi), Provider: "Kimi"}

	out, err := r.Rewrite(context.Background(), "a.go", "package  a", "formatting")
	require.NoError(t, err)
	assert.Equal(t, "package a", out)
	assert.Contains(t, kimi.Calls()[0].Prompt, "ISSUE: formatting")
}

func TestLLM_RemapsToHealthyProvider(t *testing.T) {
	kimi := &providertest.Scripted{ProviderName: "Kimi", Reply: `{"score": 1}`}
	groq := &providertest.Scripted{ProviderName: "Groq", Reply: `{"score": 9}`}
	catalog := providertest.NewCatalog(kimi, groq)
	catalog.Healthy = []string{"Groq"}

	audit, err := (&LLMAuditor{Catalog: catalog, Provider: "Kimi"}).Analyze(context.Background(), "a.go", "x")
	require.NoError(t, err)
	require.NotNil(t, audit.Score)
	assert.Equal(t, 9.0, *audit.Score)

	_, err = (&LLMRewriter{Catalog: catalog, Provider: "kimi"}).Rewrite(context.Background(), "a.go", "x", "y")
	require.NoError(t, err)

	assert.Empty(t, kimi.Calls())
	assert.Len(t, groq.Calls(), 2)
}
