package config

import "time"

// DefaultConfig returns the built-in provider set, routing table and seat preferences.
func DefaultConfig() *OrchestratorConfig {
	return &OrchestratorConfig{
		Providers: map[string]ProviderConfig{
			"Ollama": {
				Kind:       "ollama",
				URL:        "http://localhost:11434",
				URLEnv:     "OLLAMA_HOST",
				Model:      "llama3.2",
				ModelEnv:   "OLLAMA_MODEL",
				HealthPath: "/api/tags",
			},
			"Claudeson": {
				Kind:       "chat",
				URLEnv:     "CLAUDESON_URL",
				Path:       "/v1/chat/completions",
				Model:      "claudeson-2026",
				HealthPath: "/health",
			},
			"Gemini": {
				Kind:   "gemini",
				KeyEnv: []string{"GEMINI_API_KEY"},
				Model:  "gemini-2.0-flash",
			},
			"Claude": {
				Kind:   "anthropic",
				KeyEnv: []string{"ANTHROPIC_API_KEY"},
				Model:  "claude-opus-4-5",
			},
			"Mistral": {
				Kind:   "chat",
				URL:    "https://api.mistral.ai/v1",
				Path:   "/chat/completions",
				KeyEnv: []string{"MISTRAL_API_KEY"},
				Model:  "mistral-large-latest",
			},
			"GPT": {
				Kind:   "chat",
				URL:    "https://api.openai.com/v1",
				Path:   "/chat/completions",
				KeyEnv: []string{"OPENAI_API_KEY"},
				Model:  "gpt-4o",
			},
			"Groq": {
				Kind:   "chat",
				URL:    "https://api.groq.com/openai/v1",
				Path:   "/chat/completions",
				KeyEnv: []string{"GROQ_API_KEY"},
				Model:  "llama-3.3-70b-versatile",
			},
			"Kimi": {
				Kind:      "chat",
				URLEnv:    "KIMI_ENDPOINT",
				KeyEnv:    []string{"AZURE_API_KEY", "KIMI_API_KEY"},
				KeyHeader: "api-key",
			},
			"DeepSeek": {
				Kind:      "chat",
				URLEnv:    "DEEPSEEK_ENDPOINT",
				KeyEnv:    []string{"AZURE_API_KEY"},
				KeyHeader: "api-key",
			},
		},
		ProviderOrder:   []string{"Ollama", "Claudeson", "Gemini", "Claude", "Mistral", "GPT", "Groq", "Kimi", "DeepSeek"},
		DefaultProvider: "Ollama",
		Routing: map[string]map[string][]string{
			"COMPLEX": {
				"planner":  {"DeepSeek", "Kimi", "GPT", "Claude"},
				"coder":    {"Claude", "GPT", "DeepSeek", "Claudeson"},
				"reviewer": {"GPT", "DeepSeek", "Claude", "Kimi"},
			},
			"INTERMEDIATE": {
				"planner":  {"Kimi", "Gemini", "Mistral", "GPT"},
				"coder":    {"Claudeson", "Gemini", "Mistral", "GPT"},
				"reviewer": {"Mistral", "Groq", "Gemini", "Kimi"},
			},
			"BASIC": {
				"planner":  {"Mistral", "Groq", "Ollama", "Gemini"},
				"coder":    {"Mistral", "Groq", "Ollama", "Claudeson"},
				"reviewer": {"Groq", "Mistral", "Ollama"},
			},
		},
		Seats: map[string][]string{
			"visionary": {"Kimi", "GPT", "Claudeson", "Claude", "Mistral", "Gemini", "Groq", "Ollama"},
			"critic":    {"Mistral", "GPT", "Kimi", "Claudeson", "Groq", "Claude", "Gemini", "Ollama"},
			"tactician": {"DeepSeek", "Mistral", "Claudeson", "GPT", "Claude", "Gemini", "Groq", "Ollama"},
		},
		OutputDir: "completions",
		SkillsDir: "skills",
		Improve: ImproveConfig{
			Threshold:        7,
			Extensions:       []string{".ts", ".js", ".py", ".go"},
			RewriteProvider:  "Kimi",
			AuditProvider:    "Kimi",
			ValidatorTimeout: Duration(30 * time.Second),
		},
		Memory: MemoryConfig{
			Path:     ".roundtable/memory.db",
			TTL:      Duration(time.Hour),
			Provider: "Kimi",
		},
		Log: LogConfig{
			Level: "info",
			File:  ".roundtable/roundtable.log",
		},
	}
}
