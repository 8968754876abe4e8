package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshaling config: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
}

func TestLoad(t *testing.T) {
	defaults := DefaultConfig()

	tests := []struct {
		name            string
		global          map[string]any
		project         map[string]any
		expectProviders int
		check           func(t *testing.T, cfg *OrchestratorConfig)
	}{
		{
			name:            "No config files - returns defaults",
			expectProviders: len(defaults.Providers),
			check: func(t *testing.T, cfg *OrchestratorConfig) {
				if cfg.DefaultProvider != "Ollama" {
					t.Errorf("default provider = %q, want Ollama", cfg.DefaultProvider)
				}
				if cfg.Improve.Threshold != 7 {
					t.Errorf("threshold = %v, want 7", cfg.Improve.Threshold)
				}
			},
		},
		{
			name: "Global only - adds provider",
			global: map[string]any{
				"providers": map[string]any{
					"Local": map[string]any{"kind": "chat", "url": "http://127.0.0.1:9000", "path": "/v1/chat/completions"},
				},
			},
			expectProviders: len(defaults.Providers) + 1,
			check: func(t *testing.T, cfg *OrchestratorConfig) {
				if cfg.Providers["Local"].Kind != "chat" {
					t.Errorf("Local kind = %q, want chat", cfg.Providers["Local"].Kind)
				}
			},
		},
		{
			name: "Project overrides one routing role only",
			project: map[string]any{
				"routing": map[string]any{
					"BASIC": map[string]any{"coder": []string{"GPT"}},
				},
			},
			expectProviders: len(defaults.Providers),
			check: func(t *testing.T, cfg *OrchestratorConfig) {
				if got := cfg.Routing["BASIC"]["coder"]; len(got) != 1 || got[0] != "GPT" {
					t.Errorf("BASIC coder = %v, want [GPT]", got)
				}
				if got := cfg.Routing["BASIC"]["planner"]; len(got) != 4 {
					t.Errorf("BASIC planner should keep defaults, got %v", got)
				}
			},
		},
		{
			name:    "Project overrides global - project wins",
			global:  map[string]any{"output_dir": "from-global", "improve": map[string]any{"threshold": 5}},
			project: map[string]any{"output_dir": "from-project", "improve": map[string]any{"validator_timeout": "10s"}},
			check: func(t *testing.T, cfg *OrchestratorConfig) {
				if cfg.OutputDir != "from-project" {
					t.Errorf("output dir = %q, want from-project", cfg.OutputDir)
				}
				if cfg.Improve.Threshold != 5 {
					t.Errorf("threshold = %v, want 5 from global", cfg.Improve.Threshold)
				}
				if time.Duration(cfg.Improve.ValidatorTimeout) != 10*time.Second {
					t.Errorf("validator timeout = %v, want 10s", time.Duration(cfg.Improve.ValidatorTimeout))
				}
				if len(cfg.Improve.Extensions) == 0 {
					t.Error("extensions should keep defaults")
				}
			},
			expectProviders: len(defaults.Providers),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()

			globalPath := ""
			if tt.global != nil {
				globalPath = filepath.Join(tmpDir, "global.json")
				writeJSON(t, globalPath, tt.global)
			}

			projectPath := ""
			if tt.project != nil {
				projectPath = filepath.Join(tmpDir, "project.json")
				writeJSON(t, projectPath, tt.project)
			}

			cfg, err := Load(globalPath, projectPath)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := len(cfg.Providers); got != tt.expectProviders {
				t.Errorf("providers count = %d, want %d", got, tt.expectProviders)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	tmpDir := t.TempDir()

	globalPath := filepath.Join(tmpDir, "global.json")
	if err := os.WriteFile(globalPath, []byte("{invalid json"), 0644); err != nil {
		t.Fatalf("writing malformed config: %v", err)
	}

	if _, err := Load(globalPath, ""); err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestLoad_BadDuration(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "project.json")
	writeJSON(t, path, map[string]any{"memory": map[string]any{"ttl": "forever"}})

	if _, err := Load("", path); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func TestLoad_MissingFilesNotError(t *testing.T) {
	cfg, err := Load("/nonexistent/global.json", "/nonexistent/project.json")
	if err != nil {
		t.Fatalf("expected no error for missing files, got: %v", err)
	}

	if len(cfg.ProviderOrder) != 9 {
		t.Errorf("provider order length = %d, want 9", len(cfg.ProviderOrder))
	}
	for _, tier := range []string{"BASIC", "INTERMEDIATE", "COMPLEX"} {
		for _, role := range []string{"planner", "coder", "reviewer"} {
			if len(cfg.Routing[tier][role]) == 0 {
				t.Errorf("routing[%s][%s] is empty", tier, role)
			}
		}
	}
}
