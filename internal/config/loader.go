package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config, defaults.
// Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*OrchestratorConfig, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// DefaultPaths returns the conventional config locations.
// Global: ~/.roundtable/config.json
// Project: .roundtable/config.json (relative to cwd)
func DefaultPaths() (globalPath, projectPath string, err error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".roundtable", "config.json"), filepath.Join(".roundtable", "config.json"), nil
}

// LoadDefault loads configuration from the conventional paths.
func LoadDefault() (*OrchestratorConfig, error) {
	globalPath, projectPath, err := DefaultPaths()
	if err != nil {
		return nil, err
	}
	return Load(globalPath, projectPath)
}

// mergeConfigFile reads a JSON config file and merges it into the base config.
// Missing files are silently skipped. Malformed JSON returns an error.
func mergeConfigFile(base *OrchestratorConfig, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded OrchestratorConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	merge(base, &loaded)
	return nil
}

// merge overlays every non-zero field of loaded onto base.
// Maps merge per key; the routing table merges per tier and role.
func merge(base, loaded *OrchestratorConfig) {
	if base.Providers == nil {
		base.Providers = make(map[string]ProviderConfig)
	}
	for key, provider := range loaded.Providers {
		base.Providers[key] = provider
	}

	if len(loaded.ProviderOrder) > 0 {
		base.ProviderOrder = loaded.ProviderOrder
	}
	if loaded.DefaultProvider != "" {
		base.DefaultProvider = loaded.DefaultProvider
	}

	if base.Routing == nil {
		base.Routing = make(map[string]map[string][]string)
	}
	for tier, roles := range loaded.Routing {
		if base.Routing[tier] == nil {
			base.Routing[tier] = make(map[string][]string)
		}
		for role, prefs := range roles {
			base.Routing[tier][role] = prefs
		}
	}

	if base.Seats == nil {
		base.Seats = make(map[string][]string)
	}
	for seat, prefs := range loaded.Seats {
		base.Seats[seat] = prefs
	}

	if loaded.OutputDir != "" {
		base.OutputDir = loaded.OutputDir
	}
	if loaded.ScriptDir != "" {
		base.ScriptDir = loaded.ScriptDir
	}
	if loaded.SkillsDir != "" {
		base.SkillsDir = loaded.SkillsDir
	}
	if loaded.ConcurrencyLimit != 0 {
		base.ConcurrencyLimit = loaded.ConcurrencyLimit
	}

	mergeImprove(&base.Improve, loaded.Improve)
	mergeMemory(&base.Memory, loaded.Memory)

	if loaded.Log.Level != "" {
		base.Log.Level = loaded.Log.Level
	}
	if loaded.Log.File != "" {
		base.Log.File = loaded.Log.File
	}
	if loaded.Log.Development {
		base.Log.Development = true
	}
}

func mergeImprove(base *ImproveConfig, loaded ImproveConfig) {
	if loaded.AuditURL != "" {
		base.AuditURL = loaded.AuditURL
	}
	if loaded.Threshold != 0 {
		base.Threshold = loaded.Threshold
	}
	if len(loaded.Extensions) > 0 {
		base.Extensions = loaded.Extensions
	}
	if loaded.RewriteProvider != "" {
		base.RewriteProvider = loaded.RewriteProvider
	}
	if loaded.AuditProvider != "" {
		base.AuditProvider = loaded.AuditProvider
	}
	if loaded.ValidatorTimeout != 0 {
		base.ValidatorTimeout = loaded.ValidatorTimeout
	}
}

func mergeMemory(base *MemoryConfig, loaded MemoryConfig) {
	if loaded.Path != "" {
		base.Path = loaded.Path
	}
	if loaded.TTL != 0 {
		base.TTL = loaded.TTL
	}
	if loaded.Provider != "" {
		base.Provider = loaded.Provider
	}
	if loaded.Disabled {
		base.Disabled = true
	}
}
