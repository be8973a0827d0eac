package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/platform/envutil"
)

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	s := strings.TrimSpace(value.Value)
	if s == "" || s == "null" || s == "~" {
		d.Duration = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		d.Duration = time.Duration(n)
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"5s\" or an int nanoseconds: %w", err)
	}
	d.Duration = dd
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8000",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			MaxRequestBytes:   1 << 20,
			CORSOrigins:       []string{"http://localhost:3000"},
		},
		Store: StoreConfig{
			Driver:      "file",
			Dir:         "saves",
			RedisPrefix: "promptgen",
		},
		Generator: GeneratorConfig{
			Engine:      "mock",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			Timeout:     Duration{Duration: 60 * time.Second},
		},
		OTel: OTelConfig{
			ServiceName: "promptgen-backend",
			SampleRatio: 1,
		},
		Dialogue: DialogueConfig{
			DefaultTotalQuestions: dialogue.DefaultTotalQuestions,
			Phases:                append([]string(nil), dialogue.DefaultPhases...),
		},
	}
}

// Load builds the config from defaults, an optional YAML file and env overrides, in that order.
func Load() (*Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv("PROMPTGEN_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "config.yaml")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}
	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	applyEnv(cfg)

	if err := normalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("LOG_MODE", cfg.Env)

	if port := envutil.String("PORT", ""); port != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	cfg.HTTP.Addr = envutil.String("PROMPTGEN_HTTP_ADDR", cfg.HTTP.Addr)
	if origins := envutil.CSV("CORS_ORIGINS"); len(origins) > 0 {
		cfg.HTTP.CORSOrigins = origins
	}

	cfg.Store.Driver = envutil.String("STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.Dir = envutil.String("SAVES_DIR", cfg.Store.Dir)
	cfg.Store.DSN = envutil.String("DATABASE_DSN", cfg.Store.DSN)
	cfg.Store.RedisAddr = envutil.String("REDIS_ADDR", cfg.Store.RedisAddr)
	cfg.Store.RedisPassword = envutil.String("REDIS_PASSWORD", cfg.Store.RedisPassword)
	cfg.Store.RedisDB = envutil.Int("REDIS_DB", cfg.Store.RedisDB)

	cfg.Generator.Engine = envutil.String("GENERATOR_ENGINE", cfg.Generator.Engine)
	cfg.Generator.BaseURL = envutil.String("OPENAI_BASE_URL", cfg.Generator.BaseURL)
	cfg.Generator.APIKey = envutil.String("OPENAI_API_KEY", cfg.Generator.APIKey)
	cfg.Generator.Model = envutil.String("OPENAI_MODEL", cfg.Generator.Model)
	cfg.Generator.Timeout.Duration = envutil.Seconds("GENERATOR_TIMEOUT_SECONDS", cfg.Generator.Timeout.Duration)
	cfg.Generator.MaxTokens = envutil.Int("GENERATOR_MAX_TOKENS", cfg.Generator.MaxTokens)

	cfg.OTel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.OTel.Enabled)
	cfg.OTel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.OTel.ServiceName)
	cfg.OTel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTel.Endpoint)
	cfg.OTel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.OTel.Insecure)
	cfg.OTel.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.OTel.SampleRatio)
	if headers := envutil.Pairs("OTEL_EXPORTER_OTLP_HEADERS"); len(headers) > 0 {
		cfg.OTel.Headers = headers
	}
}

func normalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8000"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 1 << 20
	}
	if cfg.HTTP.ShutdownTimeout.Duration <= 0 {
		cfg.HTTP.ShutdownTimeout = Duration{Duration: 15 * time.Second}
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch cfg.Store.Driver {
	case "", "file":
		cfg.Store.Driver = "file"
		if strings.TrimSpace(cfg.Store.Dir) == "" {
			cfg.Store.Dir = "saves"
		}
	case "memory":
	case "sqlite", "postgres":
		if strings.TrimSpace(cfg.Store.DSN) == "" {
			return fmt.Errorf("store.driver=%s requires store.dsn", cfg.Store.Driver)
		}
	case "redis":
		if strings.TrimSpace(cfg.Store.RedisAddr) == "" {
			return errors.New("store.driver=redis requires store.redis_addr")
		}
	default:
		return fmt.Errorf("unknown store.driver=%q", cfg.Store.Driver)
	}
	if strings.TrimSpace(cfg.Store.RedisPrefix) == "" {
		cfg.Store.RedisPrefix = "promptgen"
	}

	g := &cfg.Generator
	g.Engine = strings.ToLower(strings.TrimSpace(g.Engine))
	switch g.Engine {
	case "", "mock":
		g.Engine = "mock"
	case "openai_http", "oai_http":
		g.Engine = "oai_http"
		g.BaseURL = strings.TrimRight(strings.TrimSpace(g.BaseURL), "/")
		if g.BaseURL == "" {
			return errors.New("generator.engine=oai_http requires generator.base_url")
		}
		if strings.TrimSpace(g.ChatCompletionsPath) == "" {
			g.ChatCompletionsPath = "/v1/chat/completions"
		}
		if strings.TrimSpace(g.Model) == "" {
			return errors.New("generator.engine=oai_http requires generator.model")
		}
	default:
		return fmt.Errorf("unknown generator.engine=%q", g.Engine)
	}
	if g.Timeout.Duration <= 0 {
		g.Timeout = Duration{Duration: 60 * time.Second}
	}

	g.JSONSchema.Mode = strings.ToLower(strings.TrimSpace(g.JSONSchema.Mode))
	switch g.JSONSchema.Mode {
	case "", "auto":
		g.JSONSchema.Mode = "auto"
	case "none", "guided_json", "json_schema", "prompt":
	default:
		return fmt.Errorf("invalid generator.json_schema.mode=%q", g.JSONSchema.Mode)
	}
	if g.JSONSchema.MaxRetries < 0 {
		return errors.New("invalid generator.json_schema.max_retries")
	}
	if g.JSONSchema.MaxRetries == 0 {
		g.JSONSchema.MaxRetries = 2
	}
	if g.JSONSchema.MaxPromptBytes <= 0 {
		g.JSONSchema.MaxPromptBytes = 64 << 10
	}

	if cfg.Dialogue.DefaultTotalQuestions <= 0 {
		return fmt.Errorf("dialogue.default_total_questions must be positive, got %d", cfg.Dialogue.DefaultTotalQuestions)
	}
	if len(cfg.Dialogue.Phases) == 0 {
		cfg.Dialogue.Phases = append([]string(nil), dialogue.DefaultPhases...)
	}
	if strings.TrimSpace(cfg.OTel.ServiceName) == "" {
		cfg.OTel.ServiceName = "promptgen-backend"
	}
	switch r := cfg.OTel.SampleRatio; {
	case r < 0:
		cfg.OTel.SampleRatio = 0
	case r > 1:
		cfg.OTel.SampleRatio = 1
	}
	return nil
}
