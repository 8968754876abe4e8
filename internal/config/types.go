package config

import "time"

// ProviderConfig describes how to reach one text-generation backend.
// A provider is configured when its endpoint env var (if any) and one of its
// key env vars (if any) are present.
type ProviderConfig struct {
	Kind       string   `json:"kind"`                  // "chat", "anthropic", "gemini", "ollama"
	URL        string   `json:"url,omitempty"`         // Static base URL, used when URLEnv is empty or unset
	URLEnv     string   `json:"url_env,omitempty"`     // Env var holding the base URL; required when set
	Path       string   `json:"path,omitempty"`        // Appended to the base URL for generation calls
	KeyEnv     []string `json:"key_env,omitempty"`     // First non-empty env var wins
	KeyHeader  string   `json:"key_header,omitempty"`  // "api-key" for Azure-style auth, empty for Bearer
	Model      string   `json:"model,omitempty"`       // Model identifier sent to the backend
	ModelEnv   string   `json:"model_env,omitempty"`   // Optional env override for Model
	HealthPath string   `json:"health_path,omitempty"` // Non-empty means a liveness probe is required
}

// ImproveConfig configures the self-improvement cycle.
type ImproveConfig struct {
	AuditURL         string   `json:"audit_url,omitempty"` // Empty uses in-process LLM audit/rewrite
	Threshold        float64  `json:"threshold"`
	Extensions       []string `json:"extensions"`
	RewriteProvider  string   `json:"rewrite_provider"`
	AuditProvider    string   `json:"audit_provider"`
	ValidatorTimeout Duration `json:"validator_timeout"`
}

// MemoryConfig configures short-term memory ingestion.
type MemoryConfig struct {
	Path     string   `json:"path"`
	TTL      Duration `json:"ttl"`
	Provider string   `json:"provider"`
	Disabled bool     `json:"disabled,omitempty"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `json:"level"`
	File        string `json:"file,omitempty"`
	Development bool   `json:"development,omitempty"`
}

// OrchestratorConfig is the top-level configuration.
type OrchestratorConfig struct {
	Providers        map[string]ProviderConfig      `json:"providers"`
	ProviderOrder    []string                       `json:"provider_order"`
	DefaultProvider  string                         `json:"default_provider"`
	Routing          map[string]map[string][]string `json:"routing"` // tier -> role -> preference list
	Seats            map[string][]string            `json:"seats"`   // debate seat -> preference list
	OutputDir        string                         `json:"output_dir"`
	ScriptDir        string                         `json:"script_dir,omitempty"` // Empty uses os.TempDir()
	SkillsDir        string                         `json:"skills_dir"`
	ConcurrencyLimit int                            `json:"concurrency_limit,omitempty"` // 0 = unbounded
	Improve          ImproveConfig                  `json:"improve"`
	Memory           MemoryConfig                   `json:"memory"`
	Log              LogConfig                      `json:"log"`
}

// Duration is a time.Duration that marshals as a Go duration string ("30s").
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
