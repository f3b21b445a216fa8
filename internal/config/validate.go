package config

import (
	"errors"
	"fmt"
	"strings"
)

// Supported drivers and providers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"

	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Validate checks the configuration for values the application cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database.dsn: required"))
	}

	switch strings.ToLower(c.AI.Provider) {
	case ProviderGemini:
		if strings.TrimSpace(c.AI.GeminiAPIKey) == "" {
			errs = append(errs, errors.New("ai.gemini_api_key: required for gemini provider"))
		}
	case ProviderAnthropic:
		if strings.TrimSpace(c.AI.AnthropicAPIKey) == "" {
			errs = append(errs, errors.New("ai.anthropic_api_key: required for anthropic provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("ai.provider: unsupported %q", c.AI.Provider))
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, errors.New("ai.timeout: must be positive"))
	}

	if c.Vision.MaxResults <= 0 {
		errs = append(errs, errors.New("vision.max_results: must be positive"))
	}

	if c.Fridge.ReviewInterval <= 0 {
		errs = append(errs, errors.New("fridge.review_interval: must be positive"))
	}
	if c.Fridge.ImportConcurrency <= 0 {
		errs = append(errs, errors.New("fridge.import_concurrency: must be positive"))
	}
	if strings.TrimSpace(c.Fridge.TargetLang) == "" || strings.TrimSpace(c.Fridge.NativeLang) == "" {
		errs = append(errs, errors.New("fridge: target_lang and native_lang are required"))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: out of range %d", c.Server.Port))
	}

	return errors.Join(errs...)
}
