package translator

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ocr-translator/internal/logger"
)

// DefaultAnthropicModel is used when no Anthropic model is configured.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicConfig configures the Anthropic messages backend.
type AnthropicConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// AnthropicBackend translates with the Anthropic messages API.
type AnthropicBackend struct {
	messages anthropic.MessageService
	model    string
}

// NewAnthropicBackend creates the backend with SDK retries disabled.
func NewAnthropicBackend(cfg AnthropicConfig) (*AnthropicBackend, error) {
	if cfg.APIKey == "" {
		return nil, &BackendError{Kind: KindAuth, Provider: ProviderAnthropic, Message: "API key not configured"}
	}
	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	url := cfg.BaseURL
	if url == "" {
		url = "https://api.anthropic.com/"
	}
	url = strings.TrimRight(url, "/") + "/"

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	options := []option.RequestOption{
		option.WithBaseURL(url),
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}

	client := anthropic.NewClient(options...)
	return &AnthropicBackend{
		messages: client.Messages,
		model:    model,
	}, nil
}

// Name implements Backend.
func (b *AnthropicBackend) Name() string {
	return ProviderAnthropic + "/" + b.model
}

// Translate implements Backend.
func (b *AnthropicBackend) Translate(ctx context.Context, req Request) (string, error) {
	message, err := b.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: DefaultMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: BuildSystemPrompt(req)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Text)),
		},
		Temperature: anthropic.Float(DefaultTemperature),
	})
	if err != nil {
		return "", convertAnthropicError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", &BackendError{Kind: KindTransient, Provider: ProviderAnthropic, Message: "empty response"}
	}

	logger.Debug("anthropic message",
		logger.String("model", b.model),
		logger.Int64("inputTokens", message.Usage.InputTokens),
		logger.Int64("outputTokens", message.Usage.OutputTokens),
		logger.String("stopReason", string(message.StopReason)))

	return strings.TrimSpace(text.String()), nil
}

func convertAnthropicError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return errorFromStatus(ProviderAnthropic, apierr.StatusCode, "", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &BackendError{Kind: KindTransient, Provider: ProviderAnthropic, Message: "request failed", Cause: err}
}
