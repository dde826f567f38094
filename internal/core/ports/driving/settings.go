package driving

import "github.com/custodia-labs/docqa/internal/core/domain"

// Sources a setting value can come from.
const (
	SourceDefault = "default"
	SourceConfig  = "config"
	SourceEnv     = "env"
)

// SettingValue is one resolved configuration key, for display.
type SettingValue struct {
	// Key is the dotted config key, e.g. "retrieval.top_k".
	Key string

	// Value is the effective value. Secrets are masked.
	Value string

	// Source is SourceDefault, SourceConfig or SourceEnv.
	Source string
}

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with environment
	// overrides applied over the config file and defaults.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set parses and stores a single key. An empty value removes the key.
	Set(key, value string) error

	// Values lists every known key with its effective value and source.
	Values() ([]SettingValue, error)

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the answer generator provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the current settings can build a working pipeline.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
