// Package config builds the translator's configuration value object from
// defaults, an optional JSON or YAML file, a .env file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ocr-translator/internal/logger"
	"ocr-translator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "config.yaml"

	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL    = "OPENAI_BASE_URL"
	EnvOpenAIModel      = "OPENAI_MODEL"
	EnvAnthropicAPIKey  = "ANTHROPIC_API_KEY"
	EnvAnthropicModel   = "ANTHROPIC_MODEL"
	EnvAnthropicBaseURL = "ANTHROPIC_BASE_URL"
	EnvProvider         = "TRANSLATOR_PROVIDER"

	DefaultBaseURL         = "https://api.openai.com/v1"
	DefaultModel           = "gpt-4o-mini"
	DefaultAnthropicModel  = "claude-3-5-haiku-latest"
	DefaultProvider        = "eino"
	DefaultOCRLanguage     = "en"
	DefaultSourceLanguage  = "English"
	DefaultTargetLanguage  = "Chinese"
	DefaultDPI             = 300
	DefaultLineThreshold   = 20
	DefaultCharacterBudget = 8000
	DefaultMaxAttempts     = 3
	DefaultRetryDelay      = 2.0
	DefaultRetryStrategy   = "linear"
	DefaultRequestInterval = 500
	DefaultTimeout         = 180
	DefaultLayout          = "dual"
	DefaultLogLevel        = "info"
)

var (
	validProviders  = []string{"eino", "openai", "anthropic"}
	validLayouts    = []string{"dual", "interleaved", "translation"}
	validStrategies = []string{"linear", "exponential"}
)

// ConfigManager manages application configuration
type ConfigManager struct {
	configPath string
	envFile    string
	explicit   bool
	config     *types.Config
}

// NewConfigManager creates a new ConfigManager with the specified config path.
// If configPath is empty, it uses the default path in the user's config
// directory and a missing file is not an error.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	explicit := configPath != ""
	if !explicit {
		dir, err := os.UserConfigDir()
		if err != nil {
			logger.Warn("failed to resolve user config directory", logger.Err(err))
			dir = "."
		}
		configPath = filepath.Join(dir, "ocr-translator", DefaultConfigFileName)
	}

	logger.Debug("ConfigManager initialized", logger.String("configPath", configPath))
	return &ConfigManager{
		configPath: configPath,
		envFile:    ".env",
		explicit:   explicit,
		config:     DefaultConfig(),
	}, nil
}

// SetEnvFile overrides the .env file consulted by Load. Empty disables it.
func (m *ConfigManager) SetEnvFile(path string) {
	m.envFile = path
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *types.Config {
	return &types.Config{
		DPI:               DefaultDPI,
		OCRLanguage:       DefaultOCRLanguage,
		LineThreshold:     DefaultLineThreshold,
		Provider:          DefaultProvider,
		OpenAIBaseURL:     DefaultBaseURL,
		OpenAIModel:       DefaultModel,
		AnthropicModel:    DefaultAnthropicModel,
		SourceLanguage:    DefaultSourceLanguage,
		TargetLanguage:    DefaultTargetLanguage,
		CharacterBudget:   DefaultCharacterBudget,
		MaxAttempts:       DefaultMaxAttempts,
		RetryDelaySeconds: DefaultRetryDelay,
		RetryStrategy:     DefaultRetryStrategy,
		RequestIntervalMs: DefaultRequestInterval,
		TimeoutSeconds:    DefaultTimeout,
		Layout:            DefaultLayout,
		LogLevel:          DefaultLogLevel,
	}
}

// Load loads configuration: defaults, then the config file, then .env and
// environment variables.
func (m *ConfigManager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	cfg := DefaultConfig()

	data, err := os.ReadFile(m.configPath)
	switch {
	case err == nil:
		if err := decode(m.configPath, data, cfg); err != nil {
			logger.Error("invalid config file format", err, logger.String("path", m.configPath))
			return types.NewAppErrorWithDetails(types.ErrConfig, "invalid config file", m.configPath, err)
		}
		logger.Info("configuration loaded",
			logger.String("path", m.configPath),
			logger.String("provider", cfg.Provider),
			logger.String("model", cfg.OpenAIModel))
	case os.IsNotExist(err) && !m.explicit:
		logger.Debug("config file not found, using defaults", logger.String("path", m.configPath))
	case os.IsNotExist(err):
		return types.NewAppErrorWithDetails(types.ErrConfig, "config file not found", m.configPath, err)
	default:
		logger.Error("failed to read config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to read config file", err)
	}

	if m.envFile != "" {
		// godotenv never overrides variables already present in the environment
		if err := godotenv.Load(m.envFile); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to load env file", logger.String("path", m.envFile), logger.Err(err))
		}
	}
	applyEnv(cfg)
	applyDefaults(cfg)

	m.config = cfg
	return nil
}

func decode(path string, data []byte, cfg *types.Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func applyEnv(cfg *types.Config) {
	if v := os.Getenv(EnvOpenAIAPIKey); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv(EnvOpenAIBaseURL); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := os.Getenv(EnvOpenAIModel); v != "" {
		cfg.OpenAIModel = v
	}
	if v := os.Getenv(EnvAnthropicAPIKey); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := os.Getenv(EnvAnthropicModel); v != "" {
		cfg.AnthropicModel = v
	}
	if v := os.Getenv(EnvAnthropicBaseURL); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := os.Getenv(EnvProvider); v != "" {
		cfg.Provider = v
	}
}

// applyDefaults fills fields a config file explicitly zeroed.
func applyDefaults(cfg *types.Config) {
	if cfg.DPI == 0 {
		cfg.DPI = DefaultDPI
	}
	if cfg.OCRLanguage == "" {
		cfg.OCRLanguage = DefaultOCRLanguage
	}
	if cfg.LineThreshold == 0 {
		cfg.LineThreshold = DefaultLineThreshold
	}
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = DefaultBaseURL
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = DefaultModel
	}
	if cfg.AnthropicModel == "" {
		cfg.AnthropicModel = DefaultAnthropicModel
	}
	if cfg.SourceLanguage == "" {
		cfg.SourceLanguage = DefaultSourceLanguage
	}
	if cfg.TargetLanguage == "" {
		cfg.TargetLanguage = DefaultTargetLanguage
	}
	if cfg.CharacterBudget == 0 {
		cfg.CharacterBudget = DefaultCharacterBudget
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryStrategy == "" {
		cfg.RetryStrategy = DefaultRetryStrategy
	}
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = DefaultTimeout
	}
	if cfg.Layout == "" {
		cfg.Layout = DefaultLayout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}

// Save saves the current configuration to the config file, choosing the
// encoding from the file extension.
func (m *ConfigManager) Save() error {
	logger.Debug("saving configuration", logger.String("path", m.configPath))

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(m.configPath)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(m.config)
	default:
		data, err = json.MarshalIndent(m.config, "", "  ")
	}
	if err != nil {
		logger.Error("failed to marshal config", err)
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	// 0600: the file may hold API keys
	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// GetConfig returns a copy of the current configuration.
func (m *ConfigManager) GetConfig() types.Config {
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// SetConfig sets the entire configuration.
func (m *ConfigManager) SetConfig(cfg types.Config) {
	m.config = &cfg
}

// GetConfigPath returns the path to the config file.
func (m *ConfigManager) GetConfigPath() string {
	return m.configPath
}

// Validate checks values every stage depends on.
func Validate(cfg types.Config) error {
	if cfg.DPI < 36 || cfg.DPI > 1200 {
		return types.NewAppErrorWithDetails(types.ErrConfig, "invalid dpi", fmt.Sprintf("%d (expected 36-1200)", cfg.DPI), nil)
	}
	if cfg.LineThreshold < 0 {
		return types.NewAppErrorWithDetails(types.ErrConfig, "invalid line threshold", fmt.Sprintf("%g", cfg.LineThreshold), nil)
	}
	if !contains(validLayouts, cfg.Layout) {
		return types.NewAppErrorWithDetails(types.ErrConfig, "unknown layout", cfg.Layout, nil)
	}
	if !contains(validProviders, cfg.Provider) {
		return types.NewAppErrorWithDetails(types.ErrConfig, "unknown translation provider", cfg.Provider, nil)
	}
	if !contains(validStrategies, cfg.RetryStrategy) {
		return types.NewAppErrorWithDetails(types.ErrConfig, "unknown retry strategy", cfg.RetryStrategy, nil)
	}
	if cfg.CharacterBudget <= 0 {
		return types.NewAppErrorWithDetails(types.ErrConfig, "character budget must be positive", fmt.Sprintf("%d", cfg.CharacterBudget), nil)
	}
	if cfg.MaxAttempts <= 0 {
		return types.NewAppErrorWithDetails(types.ErrConfig, "max attempts must be positive", fmt.Sprintf("%d", cfg.MaxAttempts), nil)
	}
	if cfg.RetryDelaySeconds < 0 || cfg.RequestIntervalMs < 0 || cfg.TimeoutSeconds < 0 {
		return types.NewAppError(types.ErrConfig, "durations must not be negative", nil)
	}
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return types.NewAppError(types.ErrConfig, "invalid log level", err)
	}
	return nil
}

// ValidateForTranslation additionally requires a credential for the selected provider.
func ValidateForTranslation(cfg types.Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	switch cfg.Provider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return types.NewAppError(types.ErrConfig,
				"Anthropic API key is not set; set "+EnvAnthropicAPIKey+" or anthropic_api_key", nil)
		}
	default:
		if cfg.OpenAIAPIKey == "" {
			return types.NewAppError(types.ErrConfig,
				"OpenAI API key is not set; set "+EnvOpenAIAPIKey+" or pass --api-key", nil)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
