package routing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/roundtable/internal/config"
	"github.com/aristath/roundtable/internal/provider"
)

func defaultTable() Table {
	return TableFromConfig(config.DefaultConfig().Routing)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		instructions string
		want         Tier
	}{
		{"short", "print hello", Basic},
		{"exactly 300 chars", strings.Repeat("a", 300), Basic},
		{"301 chars", strings.Repeat("a", 301), Intermediate},
		{"exactly 1000 chars", strings.Repeat("a", 1000), Intermediate},
		{"1001 chars", strings.Repeat("a", 1001), Complex},
		{"keyword", "add a database layer", Complex},
		{"keyword any case", "Make it ASYNC", Complex},
		{"keyword inside word", "refactoring the loop", Complex},
		{"multibyte counted as runes", strings.Repeat("é", 301), Intermediate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.instructions))
		})
	}
}

func TestPick(t *testing.T) {
	assert.Equal(t, "GPT", Pick([]string{"Claude", "GPT"}, []string{"Gemini", "GPT"}))
	assert.Equal(t, "Gemini", Pick([]string{"Claude"}, []string{"Gemini", "GPT"}))
	assert.Equal(t, "Groq", Pick([]string{"groq"}, []string{"Groq"}))
	assert.Equal(t, "Gemini", Pick(nil, []string{"Gemini"}))
	assert.Equal(t, "", Pick([]string{"Claude"}, nil))
}

func TestAssign(t *testing.T) {
	table := defaultTable()

	tests := []struct {
		name         string
		instructions string
		available    []string
		want         Assignment
	}{
		{
			name:         "complex picks strongest reasoners",
			instructions: "design the security model",
			available:    []string{"Ollama", "Claude", "GPT", "DeepSeek"},
			want:         Assignment{Tier: Complex, Planner: "DeepSeek", Coder: "Claude", Reviewer: "GPT"},
		},
		{
			name:         "basic prefers cheap models",
			instructions: "write a hello world",
			available:    []string{"Claude", "Groq", "Ollama"},
			want:         Assignment{Tier: Basic, Planner: "Groq", Coder: "Groq", Reviewer: "Groq"},
		},
		{
			name:         "no preference available falls back to first",
			instructions: "write a hello world",
			available:    []string{"Claude"},
			want:         Assignment{Tier: Basic, Planner: "Claude", Coder: "Claude", Reviewer: "Claude"},
		},
		{
			name:         "intermediate",
			instructions: strings.Repeat("x", 400),
			available:    []string{"Kimi", "Claudeson", "Groq"},
			want:         Assignment{Tier: Intermediate, Planner: "Kimi", Coder: "Claudeson", Reviewer: "Groq"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Assign(tt.instructions, tt.available)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssign_Deterministic(t *testing.T) {
	table := defaultTable()
	available := []string{"Mistral", "Kimi", "Gemini"}
	instructions := strings.Repeat("build a parser ", 30)

	first, err := table.Assign(instructions, available)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := table.Assign(instructions, available)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAssign_NoProviders(t *testing.T) {
	_, err := defaultTable().Assign("anything", nil)
	assert.True(t, errors.Is(err, provider.ErrNoProviders))
}

func TestPickSeat(t *testing.T) {
	prefs := config.DefaultConfig().Seats[SeatVisionary]
	available := []string{"Mistral", "GPT"}

	assert.Equal(t, "Mistral", PickSeat("mistral", prefs, available), "available override is honored")
	assert.Equal(t, "GPT", PickSeat("Kimi", prefs, available), "unavailable override falls back to preferences")
	assert.Equal(t, "GPT", PickSeat("", prefs, available))
	assert.Equal(t, "Mistral", PickSeat("", []string{"Nobody"}, available))
}
