package translator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"ocr-translator/internal/types"
)

const openAICompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": " 你好 ` + PageBreakMarker + ` 世界 "}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func TestOpenAIBackendTranslate(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, openAICompletion)
	}))
	defer server.Close()

	backend, err := NewOpenAIBackend(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL + "/chat/completions", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("NewOpenAIBackend() error = %v", err)
	}

	got, err := backend.Translate(context.Background(), Request{
		Text: "hello" + PageSeparator + "world", SourceLanguage: "English", TargetLanguage: "Chinese", Context: pageBreakContext(2),
	})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "你好 "+PageBreakMarker+" 世界" {
		t.Errorf("Translate() = %q", got)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotBody["temperature"] != DefaultTemperature {
		t.Errorf("temperature = %v", gotBody["temperature"])
	}
	messages, _ := gotBody["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("messages = %v", gotBody["messages"])
	}
	system, _ := messages[0].(map[string]any)
	if content, _ := system["content"].(string); !strings.Contains(content, "Context: This is a document with 2 pages.") {
		t.Errorf("system prompt = %v", system["content"])
	}
	if backend.Name() != "openai/gpt-4o-mini" {
		t.Errorf("Name() = %q", backend.Name())
	}
}

func TestOpenAIBackendErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, KindAuth},
		{"model not found", http.StatusNotFound, KindConfig},
		{"rate limited", http.StatusTooManyRequests, KindTransient},
		{"server error", http.StatusInternalServerError, KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":{"message":"nope","type":"invalid_request_error"}}`)
			}))
			defer server.Close()

			backend, err := NewOpenAIBackend(OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL})
			if err != nil {
				t.Fatalf("NewOpenAIBackend() error = %v", err)
			}
			_, err = backend.Translate(context.Background(), Request{Text: "hello"})

			var backendErr *BackendError
			if !errors.As(err, &backendErr) {
				t.Fatalf("expected *BackendError, got %v", err)
			}
			if backendErr.Kind != tt.want || backendErr.StatusCode != tt.status {
				t.Errorf("kind = %v status = %d, want %v %d", backendErr.Kind, backendErr.StatusCode, tt.want, tt.status)
			}
			if calls != 1 {
				t.Errorf("SDK retried: %d calls", calls)
			}
		})
	}
}

func TestOpenAIBackendRequiresKey(t *testing.T) {
	_, err := NewOpenAIBackend(OpenAIConfig{})
	var backendErr *BackendError
	if !errors.As(err, &backendErr) || backendErr.Kind != KindAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestAnthropicBackendTranslate(t *testing.T) {
	var gotBody map[string]any
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			http.NotFound(w, r)
			return
		}
		gotKey = r.Header.Get("X-Api-Key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
  "id": "msg_1", "type": "message", "role": "assistant", "model": "claude-3-5-haiku-latest",
  "content": [{"type": "text", "text": "你好"}, {"type": "text", "text": "，世界"}],
  "stop_reason": "end_turn", "stop_sequence": null,
  "usage": {"input_tokens": 12, "output_tokens": 4}
}`)
	}))
	defer server.Close()

	backend, err := NewAnthropicBackend(AnthropicConfig{APIKey: "ak-test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewAnthropicBackend() error = %v", err)
	}
	got, err := backend.Translate(context.Background(), Request{Text: "hello, world", SourceLanguage: "English", TargetLanguage: "Chinese"})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "你好，世界" {
		t.Errorf("Translate() = %q", got)
	}
	if gotKey != "ak-test" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotBody["model"] != DefaultAnthropicModel {
		t.Errorf("model = %v", gotBody["model"])
	}
	if _, ok := gotBody["system"]; !ok {
		t.Error("system prompt not sent")
	}
}

func TestAnthropicBackendAuthError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer server.Close()

	backend, err := NewAnthropicBackend(AnthropicConfig{APIKey: "bad", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewAnthropicBackend() error = %v", err)
	}
	_, err = backend.Translate(context.Background(), Request{Text: "hello"})
	var backendErr *BackendError
	if !errors.As(err, &backendErr) || backendErr.Kind != KindAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
	if IsRetryable(err) {
		t.Error("auth error must not be retryable")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

// fakeChatModel satisfies model.BaseChatModel.
type fakeChatModel struct {
	input    []*schema.Message
	response *schema.Message
	err      error
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.input = input
	return f.response, f.err
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestEinoBackendTranslate(t *testing.T) {
	fake := &fakeChatModel{response: schema.AssistantMessage("  翻译结果 ", nil)}
	backend := newEinoBackendWithModel(fake, "gpt-4o-mini")

	got, err := backend.Translate(context.Background(), Request{Text: "result", SourceLanguage: "English", TargetLanguage: "Chinese"})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "翻译结果" {
		t.Errorf("Translate() = %q", got)
	}
	if len(fake.input) != 2 || fake.input[0].Role != schema.System || fake.input[1].Content != "result" {
		t.Errorf("unexpected messages: %+v", fake.input)
	}
	if backend.Name() != "eino/gpt-4o-mini" {
		t.Errorf("Name() = %q", backend.Name())
	}
}

func TestEinoBackendErrors(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeChatModel
		want ErrorKind
	}{
		{"auth", &fakeChatModel{err: errors.New("error, status code: 401, message: Incorrect API key provided")}, KindAuth},
		{"server", &fakeChatModel{err: errors.New("error, status code: 503, message: overloaded")}, KindTransient},
		{"empty response", &fakeChatModel{response: schema.AssistantMessage("   ", nil)}, KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newEinoBackendWithModel(tt.fake, "m").Translate(context.Background(), Request{Text: "x"})
			var backendErr *BackendError
			if !errors.As(err, &backendErr) || backendErr.Kind != tt.want {
				t.Fatalf("expected %v error, got %v", tt.want, err)
			}
		})
	}
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name     string
		cfg      types.Config
		wantName string
		wantKind ErrorKind
		wantErr  bool
	}{
		{"openai", types.Config{Provider: "openai", OpenAIAPIKey: "k", OpenAIModel: "gpt-4o"}, "openai/gpt-4o", 0, false},
		{"anthropic", types.Config{Provider: "anthropic", AnthropicAPIKey: "k"}, "anthropic/" + DefaultAnthropicModel, 0, false},
		{"eino default", types.Config{OpenAIAPIKey: "k"}, "eino/" + DefaultModel, 0, false},
		{"missing key", types.Config{Provider: "openai"}, "", KindAuth, true},
		{"unknown provider", types.Config{Provider: "carrier-pigeon", OpenAIAPIKey: "k"}, "", KindConfig, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := NewBackend(context.Background(), tt.cfg)
			if tt.wantErr {
				var backendErr *BackendError
				if !errors.As(err, &backendErr) || backendErr.Kind != tt.wantKind {
					t.Fatalf("expected %v error, got %v", tt.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend() error = %v", err)
			}
			if backend.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", backend.Name(), tt.wantName)
			}
		})
	}
}

func TestNewBackendAnthropicBaseURL(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
  "id": "msg_2", "type": "message", "role": "assistant", "model": "claude-3-5-haiku-latest",
  "content": [{"type": "text", "text": "译文"}],
  "stop_reason": "end_turn", "stop_sequence": null,
  "usage": {"input_tokens": 3, "output_tokens": 2}
}`)
	}))
	defer server.Close()

	backend, err := NewBackend(context.Background(), types.Config{
		Provider:         "anthropic",
		AnthropicAPIKey:  "ak-test",
		AnthropicBaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	got, err := backend.Translate(context.Background(), Request{Text: "source", TargetLanguage: "Chinese"})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "译文" || hits != 1 {
		t.Errorf("Translate() = %q, server hits = %d", got, hits)
	}
}

func TestRetryPolicyFromConfig(t *testing.T) {
	linear := RetryPolicyFromConfig(types.Config{MaxAttempts: 5, RetryDelaySeconds: 1})
	if linear.MaxAttempts != 5 || linear.Backoff(3) != 3e9 {
		t.Errorf("linear policy = %d attempts, backoff(3) = %v", linear.MaxAttempts, linear.Backoff(3))
	}

	exp := RetryPolicyFromConfig(types.Config{RetryStrategy: "exponential", RetryDelaySeconds: 2})
	if exp.MaxAttempts != DefaultMaxAttempts || exp.Backoff(3) != 8e9 || exp.Backoff(10) != MaxRetryDelay {
		t.Errorf("exponential policy backoff(3) = %v, backoff(10) = %v", exp.Backoff(3), exp.Backoff(10))
	}
}
