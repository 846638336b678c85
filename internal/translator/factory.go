package translator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"ocr-translator/internal/types"
)

// Provider names accepted by NewBackend.
const (
	ProviderEino      = "eino"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Providers lists the supported provider names.
var Providers = []string{ProviderEino, ProviderOpenAI, ProviderAnthropic}

// NewBackend builds the backend selected by cfg.Provider.
func NewBackend(ctx context.Context, cfg types.Config) (Backend, error) {
	client := &http.Client{Timeout: cfg.Timeout()}
	if cfg.TimeoutSeconds <= 0 {
		client.Timeout = DefaultTimeout
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderEino, "":
		return NewEinoBackend(ctx, EinoConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			HTTPClient: client,
		})
	case ProviderOpenAI:
		return NewOpenAIBackend(OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			HTTPClient: client,
		})
	case ProviderAnthropic:
		return NewAnthropicBackend(AnthropicConfig{
			APIKey:     cfg.AnthropicAPIKey,
			BaseURL:    cfg.AnthropicBaseURL,
			Model:      cfg.AnthropicModel,
			HTTPClient: client,
		})
	default:
		return nil, &BackendError{
			Kind:     KindConfig,
			Provider: cfg.Provider,
			Message:  fmt.Sprintf("unknown provider (expected one of %s)", strings.Join(Providers, ", ")),
		}
	}
}

// RetryPolicyFromConfig maps the configured strategy to a RetryPolicy.
func RetryPolicyFromConfig(cfg types.Config) RetryPolicy {
	policy := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	delay := cfg.RetryDelay()
	if delay <= 0 {
		delay = BaseRetryDelay
	}
	if strings.EqualFold(cfg.RetryStrategy, "exponential") {
		policy.Backoff = ExponentialBackoff(delay, MaxRetryDelay)
	} else {
		policy.Backoff = LinearBackoff(delay)
	}
	return policy
}
