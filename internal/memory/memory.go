// Package memory ingests generated files into short-term memory: a provider
// summarizes each file and the analysis is kept for a limited time.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aristath/roundtable/internal/persistence"
	"github.com/aristath/roundtable/internal/provider"
)

const (
	keyPrefix  = "ingest:"
	maxExcerpt = 3000
	system     = "You are the memory ingestion unit. Be concise."
)

// Entry is what gets stored per file.
type Entry struct {
	Filename  string `json:"filename"`
	Timestamp int64  `json:"timestamp"`
	Analysis  string `json:"analysis"`
}

// Engine absorbs completed files.
type Engine struct {
	catalog  provider.Catalog
	provider string
	store    persistence.Store
	ttl      time.Duration
	now      func() time.Time
}

// NewEngine creates an Engine that analyzes with providerName and stores entries for ttl.
func NewEngine(catalog provider.Catalog, providerName string, store persistence.Store, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Engine{catalog: catalog, provider: providerName, store: store, ttl: ttl, now: time.Now}
}

// Absorb analyzes the first 3000 characters of code and stores the result under ingest:<filename>.
func (e *Engine) Absorb(ctx context.Context, filename, code string) error {
	prompt := fmt.Sprintf("Ingest this completed module: %s. Extract the core logical functions, "+
		"potential bugs, and architectural patterns.\n\nCode:\n%s", filename, excerpt(code, maxExcerpt))

	analysis, err := provider.ResolveHealthy(ctx, e.catalog, e.provider).Generate(ctx, prompt, system)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", filename, err)
	}

	data, err := json.Marshal(Entry{
		Filename:  filename,
		Timestamp: e.now().UnixMilli(),
		Analysis:  strings.TrimSpace(analysis),
	})
	if err != nil {
		return fmt.Errorf("encoding memory entry: %w", err)
	}
	return e.store.Put(ctx, keyPrefix+filename, data, e.ttl)
}

// Recall returns the stored entry for filename, if still live.
func (e *Engine) Recall(ctx context.Context, filename string) (Entry, bool, error) {
	data, ok, err := e.store.Get(ctx, keyPrefix+filename)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("decoding memory entry: %w", err)
	}
	return entry, true, nil
}

func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
