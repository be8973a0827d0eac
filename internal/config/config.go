package config

import "time"

type Duration struct {
	Duration time.Duration
}

type HTTPConfig struct {
	Addr              string   `yaml:"addr"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	IdleTimeout       Duration `yaml:"idle_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `yaml:"max_request_bytes"`

	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string `yaml:"cors_origins"`
}

type StoreConfig struct {
	// Driver is one of file, memory, sqlite, postgres, redis.
	Driver string `yaml:"driver"`

	// Dir holds one JSON file per session for the file driver.
	Dir string `yaml:"dir"`

	// DSN is the gorm connection string for sqlite/postgres.
	DSN string `yaml:"dsn"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

type JSONSchemaConfig struct {
	// Mode controls how JSON outputs are requested from the upstream model.
	// - "none": ignore schema hints
	// - "guided_json": send guided decoding fields (vLLM-style)
	// - "json_schema": send an OpenAI structured-output response_format
	// - "prompt": append a system instruction with the schema text and retry on invalid JSON
	// - "auto": try guided_json, then fall back to prompt
	Mode string `yaml:"mode"`

	// MaxRetries is the number of additional attempts when output is not valid JSON.
	MaxRetries int `yaml:"max_retries"`

	MaxPromptBytes int `yaml:"max_prompt_bytes"`
}

type GeneratorConfig struct {
	// Engine is "mock" or "oai_http".
	Engine string `yaml:"engine"`

	BaseURL             string  `yaml:"base_url"`
	APIKey              string  `yaml:"api_key"`
	ChatCompletionsPath string  `yaml:"chat_completions_path"`
	Model               string  `yaml:"model"`
	Temperature         float64 `yaml:"temperature"`
	MaxTokens           int     `yaml:"max_tokens"`

	Timeout Duration `yaml:"timeout"`

	JSONSchema JSONSchemaConfig `yaml:"json_schema"`
}

type OTelConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`

	// SampleRatio is the fraction of root traces kept, clamped to [0, 1].
	SampleRatio float64           `yaml:"sample_ratio"`
	Headers     map[string]string `yaml:"headers"`
}

type DialogueConfig struct {
	DefaultTotalQuestions int      `yaml:"default_total_questions"`
	Phases                []string `yaml:"phases"`
}

type Config struct {
	Env       string          `yaml:"env"`
	HTTP      HTTPConfig      `yaml:"http"`
	Store     StoreConfig     `yaml:"store"`
	Generator GeneratorConfig `yaml:"generator"`
	OTel      OTelConfig      `yaml:"otel"`
	Dialogue  DialogueConfig  `yaml:"dialogue"`
}
