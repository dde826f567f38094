package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize      = "chunking.size"
	keyChunkOverlap   = "chunking.overlap"
	keyTopK           = "retrieval.top_k"
	keyThreshold      = "retrieval.threshold"
	keyFallback       = "retrieval.fallback"
	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedDims      = "embedding.dimensions"
	keyEmbedRPS       = "embedding.rps"
	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyLLMTemperature = "llm.temperature"
	keyLLMMaxTokens   = "llm.max_tokens"
	keyLLMTimeout     = "llm.timeout"
	keyLLMRPS         = "llm.rps"
	keyStorageBackend = "storage.backend"
	keyStorageDataDir = "storage.data_dir"
)

const (
	envPrefix       = "DOCQA_"
	envOpenAIKey    = "OPENAI_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
)

// maskedSecretSuffix is how many trailing characters of a secret are shown.
const maskedSecretSuffix = 4

type settingKind int

const (
	kindString settingKind = iota
	kindSecret
	kindInt
	kindFloat
	kindDuration
	kindProvider
	kindBackend
)

// settingKeys lists every key in display order.
var settingKeys = []struct {
	key  string
	kind settingKind
}{
	{keyChunkSize, kindInt},
	{keyChunkOverlap, kindInt},
	{keyTopK, kindInt},
	{keyThreshold, kindFloat},
	{keyFallback, kindInt},
	{keyEmbedProvider, kindProvider},
	{keyEmbedModel, kindString},
	{keyEmbedBaseURL, kindString},
	{keyEmbedAPIKey, kindSecret},
	{keyEmbedDims, kindInt},
	{keyEmbedRPS, kindFloat},
	{keyLLMProvider, kindProvider},
	{keyLLMModel, kindString},
	{keyLLMBaseURL, kindString},
	{keyLLMAPIKey, kindSecret},
	{keyLLMTemperature, kindFloat},
	{keyLLMMaxTokens, kindInt},
	{keyLLMTimeout, kindDuration},
	{keyLLMRPS, kindFloat},
	{keyStorageBackend, kindBackend},
	{keyStorageDataDir, kindString},
}

// EnvName returns the environment variable that overrides a config key,
// e.g. "retrieval.top_k" -> "DOCQA_RETRIEVAL_TOP_K".
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// SettingsService manages application settings.
// Values resolve from DOCQA_* environment variables first, then the config
// store, then domain.DefaultAppSettings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment lookup. Nil disables overrides.
func (s *SettingsService) SetEnvLookup(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	s.lookupEnv = lookup
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:          s.getInt(keyTopK, defaults.Retrieval.TopK),
			Threshold:     float32(s.getFloat(keyThreshold, float64(defaults.Retrieval.Threshold))),
			FallbackCount: s.getInt(keyFallback, defaults.Retrieval.FallbackCount),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, ""),
			BaseURL:           s.getString(keyEmbedBaseURL, ""),
			APIKey:            s.getString(keyEmbedAPIKey, ""),
			Dimensions:        s.getInt(keyEmbedDims, 0),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, 0),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:             s.getString(keyLLMModel, ""),
			BaseURL:           s.getString(keyLLMBaseURL, ""),
			APIKey:            s.getString(keyLLMAPIKey, ""),
			Temperature:       s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
			MaxTokens:         s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			Timeout:           s.getDuration(keyLLMTimeout, defaults.LLM.Timeout),
			RequestsPerSecond: s.getFloat(keyLLMRPS, 0),
		},
		Storage: domain.StorageSettings{
			Backend: s.getBackend(defaults.Storage.Backend),
			DataDir: s.getString(keyStorageDataDir, defaults.Storage.DataDir),
		},
	}

	// Models and endpoints default per provider, not globally.
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.Embedding.BaseURL == "" && settings.Embedding.Provider == defaults.Embedding.Provider {
		settings.Embedding.BaseURL = defaults.Embedding.BaseURL
	}
	if settings.Embedding.Dimensions == 0 {
		settings.Embedding.Dimensions = settings.Embedding.ResolvedDimensions()
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
	if settings.LLM.BaseURL == "" && settings.LLM.Provider == defaults.LLM.Provider {
		settings.LLM.BaseURL = defaults.LLM.BaseURL
	}

	s.applyProviderKeys(settings)
	return settings, nil
}

// applyProviderKeys fills missing cloud API keys from the providers'
// conventional environment variables.
func (s *SettingsService) applyProviderKeys(settings *domain.AppSettings) {
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.providerEnvKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.providerEnvKey(settings.LLM.Provider)
	}
}

func (s *SettingsService) providerEnvKey(p domain.AIProvider) string {
	var name string
	switch p {
	case domain.AIProviderOpenAI:
		name = envOpenAIKey
	case domain.AIProviderAnthropic:
		name = envAnthropicKey
	default:
		return ""
	}
	v, _ := s.lookupEnv(name)
	return v
}

// storedKey reports whether an API key should be written to the config file.
// Keys that only come from the environment stay there.
func (s *SettingsService) storedKey(p domain.AIProvider, key string) bool {
	return key != "" && key != s.providerEnvKey(p)
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyTopK, settings.Retrieval.TopK},
		{keyThreshold, float64(settings.Retrieval.Threshold)},
		{keyFallback, settings.Retrieval.FallbackCount},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMTimeout, settings.LLM.Timeout.String()},
		{keyStorageBackend, settings.Storage.Backend},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Optional values are only written when set.
	optional := []struct {
		key   string
		value any
		set   bool
	}{
		{keyEmbedAPIKey, settings.Embedding.APIKey, s.storedKey(settings.Embedding.Provider, settings.Embedding.APIKey)},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond, settings.Embedding.RequestsPerSecond > 0},
		{keyLLMAPIKey, settings.LLM.APIKey, s.storedKey(settings.LLM.Provider, settings.LLM.APIKey)},
		{keyLLMRPS, settings.LLM.RequestsPerSecond, settings.LLM.RequestsPerSecond > 0},
		{keyStorageDataDir, settings.Storage.DataDir, settings.Storage.DataDir != ""},
	}
	for _, v := range optional {
		if !v.set {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// Set parses value for key and stores it. An empty value removes the key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := kindOf(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return s.configStore.Unset(key)
	}

	parsed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if key == keyLLMProvider && domain.AIProvider(value) == domain.AIProviderHashing {
		return fmt.Errorf("%w: %s cannot generate answers", domain.ErrInvalidInput, value)
	}
	if key == keyEmbedProvider && domain.AIProvider(value) == domain.AIProviderAnthropic {
		return fmt.Errorf("%w: %s does not support embeddings", domain.ErrInvalidInput, value)
	}

	return s.configStore.Set(key, parsed)
}

func kindOf(key string) (settingKind, bool) {
	for _, k := range settingKeys {
		if k.key == key {
			return k.kind, true
		}
	}
	return 0, false
}

func parseSetting(kind settingKind, value string) (any, error) {
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", value)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", value)
		}
		return f, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("not a duration: %q", value)
		}
		return d.String(), nil
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return nil, fmt.Errorf("unknown provider %q", value)
		}
		return value, nil
	case kindBackend:
		if value != domain.StorageBackendSQLite && value != domain.StorageBackendMemory {
			return nil, fmt.Errorf("unknown backend %q", value)
		}
		return value, nil
	default:
		return value, nil
	}
}

// Values lists every key with its effective value and source.
func (s *SettingsService) Values() ([]driving.SettingValue, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	effective := map[string]string{
		keyChunkSize:      strconv.Itoa(settings.Chunking.Size),
		keyChunkOverlap:   strconv.Itoa(settings.Chunking.Overlap),
		keyTopK:           strconv.Itoa(settings.Retrieval.TopK),
		keyThreshold:      strconv.FormatFloat(float64(settings.Retrieval.Threshold), 'g', -1, 32),
		keyFallback:       strconv.Itoa(settings.Retrieval.FallbackCount),
		keyEmbedProvider:  settings.Embedding.Provider.String(),
		keyEmbedModel:     settings.Embedding.Model,
		keyEmbedBaseURL:   settings.Embedding.BaseURL,
		keyEmbedAPIKey:    maskSecret(settings.Embedding.APIKey),
		keyEmbedDims:      strconv.Itoa(settings.Embedding.Dimensions),
		keyEmbedRPS:       strconv.FormatFloat(settings.Embedding.RequestsPerSecond, 'g', -1, 64),
		keyLLMProvider:    settings.LLM.Provider.String(),
		keyLLMModel:       settings.LLM.Model,
		keyLLMBaseURL:     settings.LLM.BaseURL,
		keyLLMAPIKey:      maskSecret(settings.LLM.APIKey),
		keyLLMTemperature: strconv.FormatFloat(settings.LLM.Temperature, 'g', -1, 64),
		keyLLMMaxTokens:   strconv.Itoa(settings.LLM.MaxTokens),
		keyLLMTimeout:     settings.LLM.Timeout.String(),
		keyLLMRPS:         strconv.FormatFloat(settings.LLM.RequestsPerSecond, 'g', -1, 64),
		keyStorageBackend: settings.Storage.Backend,
		keyStorageDataDir: settings.Storage.DataDir,
	}

	values := make([]driving.SettingValue, 0, len(settingKeys))
	for _, k := range settingKeys {
		_, source := s.raw(k.key)
		values = append(values, driving.SettingValue{
			Key:    k.key,
			Value:  effective[k.key],
			Source: source,
		})
	}
	return values, nil
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= maskedSecretSuffix {
		return "****"
	}
	return "****" + secret[len(secret)-maskedSecretSuffix:]
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.BaseURL = defaultBaseURL(provider)
	settings.Embedding.APIKey = apiKey
	settings.Embedding.Dimensions = 0
	settings.Embedding.Dimensions = settings.Embedding.ResolvedDimensions()

	return s.Save(settings)
}

// SetLLMProvider configures the answer generator provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() || provider == domain.AIProviderHashing {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.BaseURL = defaultBaseURL(provider)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// defaultBaseURL returns the local endpoint for a provider. Cloud providers
// and the offline embedder use their built-in endpoint.
func defaultBaseURL(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOllama:
		return "http://localhost:11434"
	case domain.AIProviderLMStudio:
		return "http://localhost:1234/v1"
	default:
		return ""
	}
}

// Validate checks that the current settings can build a working pipeline.
// A missing answer generator is not an error: answers fall back to context.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if err := settings.Chunking.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("chunking size %d, overlap %d: %w",
			settings.Chunking.Size, settings.Chunking.Overlap, err))
	}
	if settings.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyTopK))
	}
	if settings.Retrieval.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyThreshold))
	}
	if settings.Retrieval.FallbackCount <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyFallback))
	}
	if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: embedding provider %s is not configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider))
	}
	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with overrides and defaults.

// raw returns the value for key and where it came from.
func (s *SettingsService) raw(key string) (any, string) {
	if v, ok := s.lookupEnv(EnvName(key)); ok && v != "" {
		return v, driving.SourceEnv
	}
	if v, ok := s.configStore.Get(key); ok {
		return v, driving.SourceConfig
	}
	return nil, driving.SourceDefault
}

func (s *SettingsService) getString(key, defaultVal string) string {
	v, _ := s.raw(key)
	if str, ok := v.(string); ok && str != "" {
		return str
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	v, _ := s.raw(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	v, _ := s.raw(key)
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	v, _ := s.raw(key)
	switch d := v.(type) {
	case string:
		if parsed, err := time.ParseDuration(d); err == nil {
			return parsed
		}
	case int64:
		return time.Duration(d) * time.Second
	case int:
		return time.Duration(d) * time.Second
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.getString(key, "")
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal string) string {
	switch val := s.getString(keyStorageBackend, ""); val {
	case domain.StorageBackendSQLite, domain.StorageBackendMemory:
		return val
	default:
		return defaultVal
	}
}
