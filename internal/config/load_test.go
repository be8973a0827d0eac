package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	for _, k := range []string{"LOG_MODE", "PORT", "PROMPTGEN_HTTP_ADDR", "STORE_DRIVER", "SAVES_DIR", "DATABASE_DSN",
		"REDIS_ADDR", "GENERATOR_ENGINE", "OPENAI_BASE_URL", "OPENAI_MODEL", "GENERATOR_TIMEOUT_SECONDS", "CORS_ORIGINS",
		"GENERATOR_MAX_TOKENS", "OTEL_SAMPLER_RATIO", "OTEL_EXPORTER_OTLP_HEADERS"} {
		t.Setenv(k, "")
	}
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROMPTGEN_CONFIG_PATH", writeConfig(t, "env: test\n"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "test" {
		t.Fatalf("env=%q", cfg.Env)
	}
	if cfg.Store.Driver != "file" || cfg.Store.Dir != "saves" {
		t.Fatalf("store=%+v", cfg.Store)
	}
	if cfg.Generator.Engine != "mock" {
		t.Fatalf("engine=%q", cfg.Generator.Engine)
	}
	if cfg.Dialogue.DefaultTotalQuestions != 20 {
		t.Fatalf("default total=%d", cfg.Dialogue.DefaultTotalQuestions)
	}
	if len(cfg.Dialogue.Phases) != 8 {
		t.Fatalf("phases=%v", cfg.Dialogue.Phases)
	}
	if cfg.HTTP.ShutdownTimeout.Duration != 15*time.Second {
		t.Fatalf("shutdown timeout=%s", cfg.HTTP.ShutdownTimeout.Duration)
	}
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	t.Setenv("PROMPTGEN_CONFIG_PATH", writeConfig(t, `
http:
  addr: ":9000"
  shutdown_timeout: 3s
store:
  driver: sqlite
  dsn: "file::memory:"
generator:
  engine: oai_http
  base_url: "http://llm.local/"
  model: small
  timeout: 2000000000
dialogue:
  default_total_questions: 5
  phases: ["scope", "constraints"]
`))
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("GENERATOR_TIMEOUT_SECONDS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Fatalf("addr=%q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.ShutdownTimeout.Duration != 3*time.Second {
		t.Fatalf("shutdown=%s", cfg.HTTP.ShutdownTimeout.Duration)
	}
	if cfg.HTTP.ReadHeaderTimeout.Duration != 5*time.Second {
		t.Fatalf("unset YAML field lost its default: %s", cfg.HTTP.ReadHeaderTimeout.Duration)
	}
	if cfg.Generator.BaseURL != "http://llm.local" {
		t.Fatalf("base_url=%q", cfg.Generator.BaseURL)
	}
	if cfg.Generator.APIKey != "sk-test" {
		t.Fatalf("api key not applied")
	}
	if cfg.Generator.Timeout.Duration != 7*time.Second {
		t.Fatalf("timeout=%s", cfg.Generator.Timeout.Duration)
	}
	if cfg.Generator.ChatCompletionsPath != "/v1/chat/completions" {
		t.Fatalf("chat path=%q", cfg.Generator.ChatCompletionsPath)
	}
	if cfg.Generator.JSONSchema.Mode != "auto" || cfg.Generator.JSONSchema.MaxRetries != 2 {
		t.Fatalf("json schema=%+v", cfg.Generator.JSONSchema)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("cors=%v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Dialogue.DefaultTotalQuestions != 5 || len(cfg.Dialogue.Phases) != 2 {
		t.Fatalf("dialogue=%+v", cfg.Dialogue)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown driver":  "store:\n  driver: cassandra\n",
		"unknown engine":  "generator:\n  engine: magic\n",
		"missing baseurl": "generator:\n  engine: oai_http\n",
		"sqlite no dsn":   "store:\n  driver: sqlite\n",
		"redis no addr":   "store:\n  driver: redis\n",
		"zero total":      "dialogue:\n  default_total_questions: -1\n",
		"bad duration":    "http:\n  idle_timeout: soon\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("PROMPTGEN_CONFIG_PATH", writeConfig(t, body))
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadOTelOverrides(t *testing.T) {
	t.Setenv("PROMPTGEN_CONFIG_PATH", writeConfig(t, "otel:\n  enabled: true\n  sample_ratio: 0.5\n"))
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-honeycomb-team=abc, broken ,=nokey")
	t.Setenv("GENERATOR_MAX_TOKENS", "1024")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OTel.SampleRatio != 0.5 {
		t.Fatalf("sample ratio=%v", cfg.OTel.SampleRatio)
	}
	if len(cfg.OTel.Headers) != 1 || cfg.OTel.Headers["x-honeycomb-team"] != "abc" {
		t.Fatalf("headers=%v", cfg.OTel.Headers)
	}
	if cfg.Generator.MaxTokens != 1024 {
		t.Fatalf("max tokens=%d", cfg.Generator.MaxTokens)
	}

	t.Setenv("OTEL_SAMPLER_RATIO", "7")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OTel.SampleRatio != 1 {
		t.Fatalf("clamped ratio=%v", cfg.OTel.SampleRatio)
	}
}
