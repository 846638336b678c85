package config

import (
	"os"
	"path/filepath"
	"testing"

	"ocr-translator/internal/types"
)

// clearEnv isolates tests from the developer's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvOpenAIAPIKey, EnvOpenAIBaseURL, EnvOpenAIModel, EnvAnthropicAPIKey, EnvAnthropicModel, EnvAnthropicBaseURL, EnvProvider} {
		t.Setenv(k, "")
	}
}

func newManager(t *testing.T, path string) *ConfigManager {
	t.Helper()
	cm, err := NewConfigManager(path)
	if err != nil {
		t.Fatalf("NewConfigManager failed: %v", err)
	}
	cm.SetEnvFile("")
	return cm
}

func TestNewConfigManager(t *testing.T) {
	t.Run("with custom path", func(t *testing.T) {
		customPath := filepath.Join(t.TempDir(), "cfg.json")
		cm := newManager(t, customPath)
		if cm.GetConfigPath() != customPath {
			t.Errorf("expected config path %s, got %s", customPath, cm.GetConfigPath())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		cm := newManager(t, "")
		if filepath.Base(cm.GetConfigPath()) != DefaultConfigFileName {
			t.Errorf("unexpected default path %s", cm.GetConfigPath())
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cm := newManager(t, "")
	cm.configPath = filepath.Join(t.TempDir(), "missing.yaml")

	if err := cm.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := cm.GetConfig()
	if cfg.OpenAIModel != DefaultModel {
		t.Errorf("expected default model %s, got %s", DefaultModel, cfg.OpenAIModel)
	}
	if cfg.CharacterBudget != DefaultCharacterBudget {
		t.Errorf("CharacterBudget = %d, want %d", cfg.CharacterBudget, DefaultCharacterBudget)
	}
	if cfg.DPI != DefaultDPI || cfg.LineThreshold != DefaultLineThreshold {
		t.Errorf("unexpected raster/ocr defaults: dpi=%d threshold=%g", cfg.DPI, cfg.LineThreshold)
	}
	if cfg.RequestIntervalMs != DefaultRequestInterval {
		t.Errorf("RequestIntervalMs = %d", cfg.RequestIntervalMs)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	clearEnv(t)
	cm := newManager(t, filepath.Join(t.TempDir(), "nope.json"))

	err := cm.Load()
	if !types.IsCode(err, types.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
provider: openai
openai_model: gpt-4o
character_budget: 4000
layout: interleaved
request_interval_ms: 0
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cm := newManager(t, path)
	if err := cm.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := cm.GetConfig()
	if cfg.Provider != "openai" || cfg.OpenAIModel != "gpt-4o" {
		t.Errorf("provider/model not loaded: %s/%s", cfg.Provider, cfg.OpenAIModel)
	}
	if cfg.CharacterBudget != 4000 {
		t.Errorf("CharacterBudget = %d, want 4000", cfg.CharacterBudget)
	}
	if cfg.Layout != "interleaved" {
		t.Errorf("Layout = %s", cfg.Layout)
	}
	if cfg.RequestIntervalMs != 0 {
		t.Errorf("explicit zero interval should be kept, got %d", cfg.RequestIntervalMs)
	}
	if cfg.TargetLanguage != DefaultTargetLanguage {
		t.Errorf("unset field should keep default, got %q", cfg.TargetLanguage)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	cm := newManager(t, path)
	if err := cm.Load(); !types.IsCode(err, types.ErrConfig) {
		t.Fatalf("expected ErrConfig for invalid JSON, got %v", err)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"openai_api_key":"file-key","openai_model":"file-model"}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvOpenAIAPIKey, "env-key")
	t.Setenv(EnvOpenAIBaseURL, "http://localhost:8080/v1")

	cm := newManager(t, path)
	if err := cm.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := cm.GetConfig()
	if cfg.OpenAIAPIKey != "env-key" {
		t.Errorf("OpenAIAPIKey = %q, want env-key", cfg.OpenAIAPIKey)
	}
	if cfg.OpenAIBaseURL != "http://localhost:8080/v1" {
		t.Errorf("OpenAIBaseURL = %q", cfg.OpenAIBaseURL)
	}
	if cfg.OpenAIModel != "file-model" {
		t.Errorf("OpenAIModel = %q, want file-model", cfg.OpenAIModel)
	}
}

func TestLoad_AnthropicBaseURL(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("provider: anthropic\nanthropic_base_url: http://file.example/\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cm := newManager(t, path)
	if err := cm.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cm.GetConfig().AnthropicBaseURL; got != "http://file.example/" {
		t.Errorf("AnthropicBaseURL from file = %q", got)
	}

	t.Setenv(EnvAnthropicBaseURL, "http://proxy.local:9000")
	cm = newManager(t, path)
	if err := cm.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cm.GetConfig().AnthropicBaseURL; got != "http://proxy.local:9000" {
		t.Errorf("AnthropicBaseURL from env = %q", got)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvOpenAIModel)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("OPENAI_MODEL=dotenv-model\n"), 0600); err != nil {
		t.Fatal(err)
	}
	defer os.Unsetenv(EnvOpenAIModel)

	cm := newManager(t, filepath.Join(dir, "missing.yaml"))
	cm.explicit = false
	cm.SetEnvFile(envPath)
	if err := cm.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cm.GetConfig().OpenAIModel; got != "dotenv-model" {
		t.Errorf("OpenAIModel = %q, want dotenv-model", got)
	}
}

func TestSaveAndReload(t *testing.T) {
	clearEnv(t)
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cm := newManager(t, path)

			cfg := *DefaultConfig()
			cfg.TargetLanguage = "Japanese"
			cfg.Layout = "translation"
			cm.SetConfig(cfg)

			if err := cm.Save(); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("config file not written: %v", err)
			}
			if info.Mode().Perm() != 0600 {
				t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
			}

			reloaded := newManager(t, path)
			if err := reloaded.Load(); err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			got := reloaded.GetConfig()
			if got.TargetLanguage != "Japanese" || got.Layout != "translation" {
				t.Errorf("round trip lost values: %+v", got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.Config)
		wantErr bool
	}{
		{"defaults", func(c *types.Config) {}, false},
		{"dpi too low", func(c *types.Config) { c.DPI = 10 }, true},
		{"unknown layout", func(c *types.Config) { c.Layout = "sideways" }, true},
		{"unknown provider", func(c *types.Config) { c.Provider = "palm" }, true},
		{"unknown retry strategy", func(c *types.Config) { c.RetryStrategy = "random" }, true},
		{"zero budget", func(c *types.Config) { c.CharacterBudget = 0 }, true},
		{"zero attempts", func(c *types.Config) { c.MaxAttempts = 0 }, true},
		{"negative interval", func(c *types.Config) { c.RequestIntervalMs = -1 }, true},
		{"bad log level", func(c *types.Config) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *DefaultConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !types.IsCode(err, types.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestValidateForTranslation(t *testing.T) {
	cfg := *DefaultConfig()
	if err := ValidateForTranslation(cfg); !types.IsCode(err, types.ErrConfig) {
		t.Fatalf("missing OpenAI key should be a config error, got %v", err)
	}

	cfg.OpenAIAPIKey = "sk-test"
	if err := ValidateForTranslation(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Provider = "anthropic"
	if err := ValidateForTranslation(cfg); !types.IsCode(err, types.ErrConfig) {
		t.Fatalf("missing Anthropic key should be a config error, got %v", err)
	}
	cfg.AnthropicAPIKey = "ak-test"
	if err := ValidateForTranslation(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
