package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PLANT_SHARED_DIR", "")

	cfg, err := LoadConfig(writeConfig(t, "log:\n  level: debug\n"), true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.Consumer.Interval != 2*time.Second {
		t.Errorf("expected 2s consumer interval, got %s", cfg.Consumer.Interval)
	}
	if cfg.Producer.MaxAttempts != 10 || cfg.Producer.Interval != time.Second {
		t.Errorf("unexpected producer defaults: %+v", cfg.Producer)
	}
	if cfg.Consumer.Retry.MaxAttempts != 0 || cfg.Consumer.Retry.BaseBackoff != 0 {
		t.Errorf("default retry policy should retry forever without backoff: %+v", cfg.Consumer.Retry)
	}
	if cfg.Classifier.ImageSize != 128 {
		t.Errorf("expected 128px classifier input, got %d", cfg.Classifier.ImageSize)
	}
	if !cfg.Runtime.Dev {
		t.Error("dev flag should be carried into runtime config")
	}
}

func TestLoadConfig_ParsesDurationsAndEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("PLANT_SHARED_DIR", "/tmp/plant-shared")

	body := `
consumer:
  interval: 5s
  generation_timeout: 1m
  retry:
    max_attempts: 4
    base_backoff: 2s
ai:
  provider: gemini
`
	cfg, err := LoadConfig(writeConfig(t, body), false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Consumer.Interval != 5*time.Second || cfg.Consumer.GenerationTimeout != time.Minute {
		t.Errorf("durations not parsed: %+v", cfg.Consumer)
	}
	if cfg.Consumer.Retry.MaxBackoff != 5*time.Minute {
		t.Errorf("expected max backoff default when base backoff set, got %s", cfg.Consumer.Retry.MaxBackoff)
	}
	if cfg.AI.GeminiKey != "from-env" {
		t.Errorf("expected gemini key from env, got %q", cfg.AI.GeminiKey)
	}
	if cfg.Shared.Dir != "/tmp/plant-shared" {
		t.Errorf("expected shared dir from env, got %q", cfg.Shared.Dir)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false); err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
	if _, err := LoadConfig(writeConfig(t, "ai: [unterminated"), false); err == nil {
		t.Fatal("expected parse error")
	}
	_, err := LoadConfig(writeConfig(t, "ai:\n  provider: claude\n"), false)
	if err == nil || !strings.Contains(err.Error(), "ai.provider") {
		t.Fatalf("expected provider validation error, got %v", err)
	}
}
