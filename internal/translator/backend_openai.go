package translator

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"ocr-translator/internal/logger"
)

// OpenAIConfig configures the OpenAI chat completions backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// HTTPClient overrides the client; its Timeout bounds each request.
	HTTPClient *http.Client
}

// OpenAIBackend translates with the OpenAI chat completions API or any
// compatible endpoint.
type OpenAIBackend struct {
	completions openai.ChatCompletionService
	model       string
}

// NewOpenAIBackend creates the backend. The SDK's own retries are disabled so
// the document translator's retry policy is the only one in effect.
func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, &BackendError{Kind: KindAuth, Provider: ProviderOpenAI, Message: "API key not configured"}
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	options := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(normalizeBaseURL(cfg.BaseURL)))
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	options = append(options, option.WithHTTPClient(httpClient))

	client := openai.NewClient(options...)
	return &OpenAIBackend{
		completions: client.Chat.Completions,
		model:       model,
	}, nil
}

// Name implements Backend.
func (b *OpenAIBackend) Name() string {
	return ProviderOpenAI + "/" + b.model
}

// Translate implements Backend.
func (b *OpenAIBackend) Translate(ctx context.Context, req Request) (string, error) {
	completion, err := b.completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(BuildSystemPrompt(req)),
			openai.UserMessage(req.Text),
		},
		Temperature: openai.Float(DefaultTemperature),
	})
	if err != nil {
		return "", convertOpenAIError(err)
	}
	if len(completion.Choices) == 0 {
		return "", &BackendError{Kind: KindTransient, Provider: ProviderOpenAI, Message: "empty response"}
	}

	logger.Debug("openai completion",
		logger.String("model", b.model),
		logger.Int64("promptTokens", completion.Usage.PromptTokens),
		logger.Int64("completionTokens", completion.Usage.CompletionTokens))

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func convertOpenAIError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return errorFromStatus(ProviderOpenAI, apierr.StatusCode, apierr.Message, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &BackendError{Kind: KindTransient, Provider: ProviderOpenAI, Message: "request failed", Cause: err}
}

// normalizeBaseURL strips a trailing /chat/completions so users can paste
// either the endpoint or the API root.
func normalizeBaseURL(url string) string {
	url = strings.TrimRight(url, "/")
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/"
}
