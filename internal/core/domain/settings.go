package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies a service provider for embeddings or answer generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderLMStudio is a local LM Studio server speaking the OpenAI API.
	AIProviderLMStudio AIProvider = "lmstudio"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderHashing is the built-in offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderLMStudio, AIProviderOpenAI, AIProviderAnthropic, AIProviderHashing:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs on the local machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLMStudio || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderLMStudio:
		return "LM Studio (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderHashing:
		return "Feature hashing (offline)"
	default:
		return unknownDescription
	}
}

// ChunkingSettings controls how document text is split into passages.
type ChunkingSettings struct {
	// Size is the window length in words.
	Size int

	// Overlap is the number of words shared by consecutive windows.
	Overlap int
}

// Validate rejects windows that cannot advance.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 || c.Overlap < 0 || c.Overlap >= c.Size {
		return ErrInvalidChunkingConfig
	}
	return nil
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size. Zero means look it up from the model.
	Dimensions int

	// RequestsPerSecond limits calls to remote providers. Zero disables limiting.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ResolvedDimensions returns the configured dimensions or the known size of the model.
func (e EmbeddingSettings) ResolvedDimensions() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	if d, ok := EmbeddingDimensions()[e.Model]; ok {
		return d
	}
	return DefaultEmbeddingDimensions
}

// LLMSettings holds answer generator configuration.
type LLMSettings struct {
	// Provider is the answer generator provider.
	Provider AIProvider

	// Model is the model name sent with each request.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature controls randomness of answers.
	Temperature float64

	// MaxTokens caps the answer length.
	MaxTokens int

	// Timeout bounds each generation request.
	Timeout time.Duration

	// RequestsPerSecond limits calls to the provider. Zero disables limiting.
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHashing {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// Storage backends for document metadata and chat history.
const (
	StorageBackendSQLite = "sqlite"
	StorageBackendMemory = "memory"
)

// StorageSettings controls where metadata and uploaded files live.
type StorageSettings struct {
	// Backend is StorageBackendSQLite or StorageBackendMemory.
	Backend string

	// DataDir holds the database and the uploaded files.
	DataDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Storage   StorageSettings
}

// DefaultEmbeddingDimensions is the vector size of all-MiniLM-L6-v2.
const DefaultEmbeddingDimensions = 384

// DefaultAppSettings returns settings matching a local LM Studio and Ollama setup.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{
			Size:    300,
			Overlap: 50,
		},
		Retrieval: DefaultRetrievalSettings(),
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOllama,
			Model:      DefaultEmbeddingModels()[AIProviderOllama],
			BaseURL:    "http://localhost:11434",
			Dimensions: DefaultEmbeddingDimensions,
		},
		LLM: LLMSettings{
			Provider:    AIProviderLMStudio,
			Model:       DefaultLLMModels()[AIProviderLMStudio],
			BaseURL:     "http://localhost:1234/v1",
			Temperature: 0.3,
			MaxTokens:   500,
			Timeout:     30 * time.Second,
		},
		Storage: StorageSettings{
			Backend: StorageBackendSQLite,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderLMStudio,
		AIProviderOpenAI,
		AIProviderHashing,
	}
}

// AllLLMProviders returns providers that can generate answers.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderLMStudio,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:   "all-minilm",
		AIProviderLMStudio: "text-embedding-all-minilm-l6-v2-embedding",
		AIProviderOpenAI:   "text-embedding-3-small",
		AIProviderHashing:  "hashing-384",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLMStudio:  "local-model",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"all-minilm":        384,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"text-embedding-all-minilm-l6-v2-embedding": 384,
		"text-embedding-3-small":                    1536,
		"text-embedding-3-large":                    3072,
		"hashing-384":                               384,
	}
}
