package model

import "time"

// ================ Config ================
type SessionConfig struct {
	TTL time.Duration `envconfig:"SESSION_TTL" default:"30m"`
}

type MemoryBankConfig struct {
	// Path to a SQLite database. Empty keeps the memory bank in process memory.
	Path string `envconfig:"MEMORY_BANK_PATH"`
}

type PredictorConfig struct {
	ModelPath string `envconfig:"PREDICTOR_MODEL_PATH" default:"ml/models/carbon_emission_model.json"`
}

type ExplainModelConfig struct {
	Model       string  `envconfig:"EXPLAIN_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"EXPLAIN_MAX_TOKENS" default:"512"`
	Temperature float32 `envconfig:"EXPLAIN_TEMPERATURE" default:"0.3"`
}

type OptimizeModelConfig struct {
	Model       string  `envconfig:"OPTIMIZE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"OPTIMIZE_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"OPTIMIZE_TEMPERATURE" default:"0.2"`
}

type LLMConfig struct {
	APIKey  string        `envconfig:"GEMINI_API_KEY"`
	BaseURL string        `envconfig:"GEMINI_BASE_URL"`
	Timeout time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`

	Explain  ExplainModelConfig
	Optimize OptimizeModelConfig
}

// Enabled reports whether a generative backend can be built.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

type ReportConfig struct {
	DefaultCompany string `envconfig:"REPORT_DEFAULT_COMPANY" default:"My Company"`
}
