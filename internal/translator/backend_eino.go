package translator

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"ocr-translator/internal/logger"
)

// EinoConfig configures the eino chat model backend.
type EinoConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// EinoBackend translates through an eino chat model talking to an
// OpenAI-compatible endpoint.
type EinoBackend struct {
	chatModel model.BaseChatModel
	model     string
}

// NewEinoBackend creates the chat model.
func NewEinoBackend(ctx context.Context, cfg EinoConfig) (*EinoBackend, error) {
	if cfg.APIKey == "" {
		return nil, &BackendError{Kind: KindAuth, Provider: ProviderEino, Message: "API key not configured"}
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	temperature := float32(DefaultTemperature)
	chatModelConfig := &openai.ChatModelConfig{
		Model:       modelName,
		APIKey:      cfg.APIKey,
		Temperature: &temperature,
		Timeout:     DefaultTimeout,
		HTTPClient:  cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		chatModelConfig.BaseURL = strings.TrimSuffix(strings.TrimRight(cfg.BaseURL, "/"), "/chat/completions")
	}

	chatModel, err := openai.NewChatModel(ctx, chatModelConfig)
	if err != nil {
		return nil, &BackendError{Kind: KindConfig, Provider: ProviderEino, Message: "failed to create chat model", Cause: err}
	}

	return &EinoBackend{chatModel: chatModel, model: modelName}, nil
}

// newEinoBackendWithModel wraps an existing chat model.
func newEinoBackendWithModel(chatModel model.BaseChatModel, modelName string) *EinoBackend {
	return &EinoBackend{chatModel: chatModel, model: modelName}
}

// Name implements Backend.
func (b *EinoBackend) Name() string {
	return ProviderEino + "/" + b.model
}

// Translate implements Backend.
func (b *EinoBackend) Translate(ctx context.Context, req Request) (string, error) {
	response, err := b.chatModel.Generate(ctx, []*schema.Message{
		schema.SystemMessage(BuildSystemPrompt(req)),
		schema.UserMessage(req.Text),
	})
	if err != nil {
		return "", errorFromText(ProviderEino, err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", &BackendError{Kind: KindTransient, Provider: ProviderEino, Message: "empty response"}
	}

	if response.ResponseMeta != nil && response.ResponseMeta.Usage != nil {
		logger.Debug("eino completion",
			logger.String("model", b.model),
			logger.Int("promptTokens", response.ResponseMeta.Usage.PromptTokens),
			logger.Int("completionTokens", response.ResponseMeta.Usage.CompletionTokens))
	}

	return strings.TrimSpace(response.Content), nil
}
