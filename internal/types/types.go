// Package types defines the configuration value object and application errors
// shared by every stage of the OCR translator.
package types

import (
	"errors"
	"time"
)

// Config 应用配置，在程序入口构建一次后按值传递给各阶段
type Config struct {
	WorkDirectory string `json:"work_directory" yaml:"work_directory"`

	// 光栅化
	DPI int `json:"dpi" yaml:"dpi"`

	// OCR
	OCRLanguage    string  `json:"ocr_language" yaml:"ocr_language"`       // en, ch, ja, ... 或 tesseract 语言代码
	TessdataPrefix string  `json:"tessdata_prefix" yaml:"tessdata_prefix"` // 可选，tessdata 目录
	LineThreshold  float64 `json:"line_threshold" yaml:"line_threshold"`   // 同行判定的纵向阈值（像素）
	NormalizeText  bool    `json:"normalize_text" yaml:"normalize_text"`   // 识别结果做 NFC 规范化

	// 翻译
	Provider         string `json:"provider" yaml:"provider"` // eino, openai, anthropic
	OpenAIAPIKey     string `json:"openai_api_key" yaml:"openai_api_key"`
	OpenAIBaseURL    string `json:"openai_base_url" yaml:"openai_base_url"`
	OpenAIModel      string `json:"openai_model" yaml:"openai_model"`
	AnthropicAPIKey  string `json:"anthropic_api_key" yaml:"anthropic_api_key"`
	AnthropicBaseURL string `json:"anthropic_base_url" yaml:"anthropic_base_url"` // 空值使用官方地址
	AnthropicModel   string `json:"anthropic_model" yaml:"anthropic_model"`
	SourceLanguage   string `json:"source_language" yaml:"source_language"`
	TargetLanguage   string `json:"target_language" yaml:"target_language"`
	CharacterBudget  int    `json:"character_budget" yaml:"character_budget"` // 单次请求的字符预算

	MaxAttempts       int     `json:"max_attempts" yaml:"max_attempts"`
	RetryDelaySeconds float64 `json:"retry_delay_seconds" yaml:"retry_delay_seconds"`
	RetryStrategy     string  `json:"retry_strategy" yaml:"retry_strategy"` // linear, exponential
	RequestIntervalMs int     `json:"request_interval_ms" yaml:"request_interval_ms"`
	TimeoutSeconds    int     `json:"timeout_seconds" yaml:"timeout_seconds"`
	DisableCache      bool    `json:"disable_cache" yaml:"disable_cache"`

	// 文档生成
	Layout   string `json:"layout" yaml:"layout"` // dual, interleaved, translation
	FontPath string `json:"font_path" yaml:"font_path"`
	Title    string `json:"title" yaml:"title"`

	// 日志
	LogLevel string `json:"log_level" yaml:"log_level"`
	LogFile  string `json:"log_file" yaml:"log_file"`
}

// RetryDelay returns the configured base retry delay.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds * float64(time.Second))
}

// RequestInterval returns the minimum spacing between two backend calls.
func (c Config) RequestInterval() time.Duration {
	return time.Duration(c.RequestIntervalMs) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrTranslation  ErrorCode = "TRANSLATION_ERROR"
	ErrOCR          ErrorCode = "OCR_ERROR"
	ErrArtifact     ErrorCode = "ARTIFACT_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// IsCode reports whether err is an AppError carrying code.
func IsCode(err error, code ErrorCode) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
	}
	return false
}
