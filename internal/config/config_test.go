package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mootlabs/moot/internal/consensus"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moot.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Server.Port != 7411 {
		t.Errorf("port = %d, want 7411", cfg.Server.Port)
	}
	if cfg.Defaults.Protocol != consensus.ProtocolConvergent {
		t.Errorf("protocol = %s, want convergent", cfg.Defaults.Protocol)
	}
	if err := cfg.Defaults.Validate(); err != nil {
		t.Errorf("stock defaults invalid: %v", err)
	}
	if cfg.LLM.APIKeyEnv != "MOOT_API_KEY" {
		t.Errorf("api key env = %q, want MOOT_API_KEY", cfg.LLM.APIKeyEnv)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[defaults]
protocol = "divergent"
max_rounds = 5
consensus_threshold = 0.8
quality_threshold = 0.5
min_response_length = 80

[server]
host = "0.0.0.0"
port = 9000

[storage]
path = "/tmp/moot.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Defaults.Protocol != consensus.ProtocolDivergent {
		t.Errorf("protocol = %s, want divergent", cfg.Defaults.Protocol)
	}
	if cfg.Defaults.MaxRounds != 5 {
		t.Errorf("max rounds = %d, want 5", cfg.Defaults.MaxRounds)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Storage.Path != "/tmp/moot.db" {
		t.Errorf("storage path = %q", cfg.Storage.Path)
	}
	// Unset sections keep their defaults.
	if cfg.LLM.Model != "default" {
		t.Errorf("llm model = %q, want untouched default", cfg.LLM.Model)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[defaults]
protocoll = "convergent"
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unknown keys") {
		t.Errorf("err = %v, want unknown-keys error", err)
	}
}

func TestLoadRejectsInvalidDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[defaults]
max_rounds = 99
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "max_rounds") {
		t.Errorf("err = %v, want max_rounds validation error", err)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for explicitly requested missing file")
	}
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKeyEnv = "MOOT_TEST_API_KEY"

	t.Setenv("MOOT_TEST_API_KEY", "sk-test-123")
	if got := cfg.APIKey(); got != "sk-test-123" {
		t.Errorf("APIKey = %q, want sk-test-123", got)
	}

	cfg.LLM.APIKeyEnv = ""
	if got := cfg.APIKey(); got != "" {
		t.Errorf("APIKey = %q, want empty when no env var configured", got)
	}
}
