// Package config loads application settings from YAML and the environment.
package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Vision   VisionConfig   `yaml:"vision"`
	Fridge   FridgeConfig   `yaml:"fridge"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"90s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" env:"SERVER_MAX_UPLOAD_BYTES" env-default:"10485760"`
}

// DatabaseConfig selects the SQL driver and connection string.
type DatabaseConfig struct {
	Driver       string `yaml:"driver"         env:"DATABASE_DRIVER"         env-default:"sqlite3"`
	DSN          string `yaml:"dsn"            env:"DATABASE_PATH"           env-default:"fridge.db"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS" env-default:"25"`
}

// AIConfig selects the generative provider used for label choice and enrichment.
type AIConfig struct {
	Provider        string        `yaml:"provider"          env:"AI_PROVIDER"       env-default:"gemini"`
	GeminiAPIKey    string        `yaml:"gemini_api_key"    env:"GEMINI_API_KEY"`
	GeminiModel     string        `yaml:"gemini_model"      env:"GEMINI_MODEL"      env-default:"gemini-2.5-flash"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key" env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `yaml:"anthropic_model"   env:"ANTHROPIC_MODEL"   env-default:"claude-sonnet-4-5-20250929"`
	Timeout         time.Duration `yaml:"timeout"           env:"AI_TIMEOUT"        env-default:"30s"`
}

// VisionConfig holds the label detector settings.
type VisionConfig struct {
	APIKey     string        `yaml:"api_key"     env:"VISION_API_KEY"`
	MaxResults int64         `yaml:"max_results" env:"VISION_MAX_RESULTS" env-default:"10"`
	Timeout    time.Duration `yaml:"timeout"     env:"VISION_TIMEOUT"     env-default:"15s"`
}

// FridgeConfig holds the learning pipeline parameters.
type FridgeConfig struct {
	TargetLang        string        `yaml:"target_lang"        env:"FRIDGE_TARGET_LANG"        env-default:"es"`
	NativeLang        string        `yaml:"native_lang"        env:"FRIDGE_NATIVE_LANG"        env-default:"ko"`
	ReviewInterval    time.Duration `yaml:"review_interval"    env:"FRIDGE_REVIEW_INTERVAL"    env-default:"24h"`
	UploadDir         string        `yaml:"upload_dir"         env:"FRIDGE_UPLOAD_DIR"         env-default:"uploads"`
	ImportConcurrency int           `yaml:"import_concurrency" env:"FRIDGE_IMPORT_CONCURRENCY" env-default:"4"`
	// DenylistRaw is a comma-separated override of the built-in label denylist.
	DenylistRaw string `yaml:"denylist" env:"FRIDGE_DENYLIST"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Denylist returns the configured denylist override, or nil when the
// built-in list should be used.
func (c FridgeConfig) Denylist() []string {
	if strings.TrimSpace(c.DenylistRaw) == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(c.DenylistRaw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
