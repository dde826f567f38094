// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	hashingembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// LMStudioBaseURL is the default address of a local LM Studio server.
const LMStudioBaseURL = "http://localhost:1234/v1"

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	AnswerGenerator  driven.AnswerGenerator
	Warnings         []string // Non-fatal issues, e.g. an unreachable generator.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.AnswerGenerator != nil {
		r.AnswerGenerator.Close()
	}
}

// Init builds both services from settings.
// An embedding service is mandatory. A generator that cannot be built is
// reported as a warning and left nil so questions still return context.
func Init(settings domain.AppSettings, prompts driven.PromptStore) (*InitResult, error) {
	embedder, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'docqa settings' to fix", domain.ErrEmbeddingUnavailable, err)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding provider %q is not configured. Run 'docqa settings' to fix",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}

	result := &InitResult{EmbeddingService: embedder}

	generator, err := CreateAnswerGenerator(&settings.LLM)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("answer generator disabled: %v", err))
	case generator == nil:
		result.Warnings = append(result.Warnings, "answer generator not configured, answers will contain context only")
	default:
		if aware, ok := generator.(driven.PromptStoreAware); ok && prompts != nil {
			aware.SetPromptStore(prompts)
		}
		result.AnswerGenerator = generator
	}

	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'docqa settings' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'docqa settings' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateAnswerGenerator creates an answer generator and validates connectivity.
func CreateAndValidateAnswerGenerator(settings *domain.LLMSettings) (driven.AnswerGenerator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	gen, err := CreateAnswerGenerator(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'docqa settings' to fix",
			domain.ErrGenerationUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := gen.Ping(ctx); err != nil {
		gen.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'docqa settings' to fix",
			domain.ErrGenerationUnavailable, err)
	}

	return gen, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig validates a generator configuration by creating it and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	gen, err := CreateAnswerGenerator(settings)
	if err != nil {
		return err
	}
	defer gen.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return gen.Ping(ctx)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama, lmstudio, openai or hashing")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	limiter := ratelimit.New(settings.RequestsPerSecond, 1)

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.ResolvedDimensions(),
			Limiter:    limiter,
		}), nil

	case domain.AIProviderLMStudio:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = LMStudioBaseURL
		}
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			BaseURL:    baseURL,
			Model:      settings.Model,
			Dimensions: settings.ResolvedDimensions(),
			Limiter:    limiter,
		})

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.ResolvedDimensions(),
			Limiter:    limiter,
		})

	case domain.AIProviderHashing:
		return hashingembed.NewEmbeddingService(settings.ResolvedDimensions()), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateAnswerGenerator creates the appropriate answer generator based on settings.
// Returns nil if the provider is not configured.
func CreateAnswerGenerator(settings *domain.LLMSettings) (driven.AnswerGenerator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	limiter := ratelimit.New(settings.RequestsPerSecond, 1)
	temperature := settings.Temperature

	switch settings.Provider {
	case domain.AIProviderLMStudio:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = LMStudioBaseURL
		}
		return openaillm.NewGenerator(openaillm.Config{
			BaseURL:     baseURL,
			Model:       settings.Model,
			Timeout:     settings.Timeout,
			Temperature: &temperature,
			MaxTokens:   settings.MaxTokens,
			Limiter:     limiter,
		})

	case domain.AIProviderOpenAI:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = openaillm.OpenAIBaseURL
		}
		return openaillm.NewGenerator(openaillm.Config{
			APIKey:      settings.APIKey,
			BaseURL:     baseURL,
			Model:       settings.Model,
			Timeout:     settings.Timeout,
			Temperature: &temperature,
			MaxTokens:   settings.MaxTokens,
			Limiter:     limiter,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewGenerator(ollamallm.Config{
			BaseURL:     settings.BaseURL,
			Model:       settings.Model,
			Timeout:     settings.Timeout,
			Temperature: &temperature,
			MaxTokens:   settings.MaxTokens,
			Limiter:     limiter,
		}), nil

	case domain.AIProviderAnthropic:
		return anthropicllm.NewGenerator(anthropicllm.Config{
			APIKey:      settings.APIKey,
			BaseURL:     settings.BaseURL,
			Model:       settings.Model,
			Timeout:     settings.Timeout,
			Temperature: &temperature,
			MaxTokens:   settings.MaxTokens,
			Limiter:     limiter,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
