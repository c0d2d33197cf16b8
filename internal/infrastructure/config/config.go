// Package config provides configuration loading for the gitbrief
// application. Provider credentials, endpoints and routing thresholds are
// read from environment variables, with a .env file loaded first when one
// is present in the working directory.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	// EnvOpenAIAPIKey is the OpenAI API credential.
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	// EnvXAIAPIKey is the XAI API credential.
	EnvXAIAPIKey = "XAI_API_KEY"

	// EnvGeminiAPIKey is the Google Gemini API credential.
	EnvGeminiAPIKey = "GEMINI_API_KEY"

	// EnvOllamaBaseURL is the local Ollama daemon endpoint.
	EnvOllamaBaseURL = "OLLAMA_BASE_URL"

	// EnvOllamaModel overrides the default local model identifier.
	EnvOllamaModel = "OLLAMA_MODEL"

	// EnvOpenAIModel, EnvXAIModel and EnvGeminiModel override the default
	// cloud model identifiers.
	EnvOpenAIModel = "OPENAI_MODEL"
	EnvXAIModel    = "XAI_MODEL"
	EnvGeminiModel = "GEMINI_MODEL"

	// EnvTokenThreshold is the clipboard-vs-file routing threshold.
	EnvTokenThreshold = "GITBRIEF_TOKEN_THRESHOLD"

	// EnvMaxPromptTokens bounds the consolidated diff content in a payload.
	EnvMaxPromptTokens = "GITBRIEF_MAX_PROMPT_TOKENS"

	// EnvLogLevel is the log level (debug, info, warn, error).
	EnvLogLevel = "LOG_LEVEL"
)

// Default values.
const (
	DefaultOllamaBaseURL   = "http://localhost:11434/v1"
	DefaultOllamaModel     = "llama3.1:8b"
	DefaultOpenAIModel     = "gpt-5-mini"
	DefaultXAIModel        = "grok-4-1-fast-reasoning"
	DefaultGeminiModel     = "gemini-2.5-pro"
	DefaultTokenThreshold  = 8000
	DefaultMaxPromptTokens = 120000
	DefaultLogLevel        = "info"
)

// Settings holds all application configuration. Credential fields are
// optional here; each provider validates its own requirements at
// construction time.
type Settings struct {
	OpenAIAPIKey string
	XAIAPIKey    string
	GeminiAPIKey string

	OpenAIModel string
	XAIModel    string
	GeminiModel string

	OllamaBaseURL string
	OllamaModel   string

	// TokenThreshold routes payloads below it to the clipboard, at or above
	// it to a file.
	TokenThreshold int

	// MaxPromptTokens bounds the consolidated diff content in a payload.
	MaxPromptTokens int

	LogLevel string
}

// Load reads settings from the environment. A .env file in the working
// directory is merged in first, without overriding variables already set.
func Load() (*Settings, error) {
	// Best-effort: a missing .env file is the common case.
	_ = godotenv.Load()

	threshold, err := intFromEnv(EnvTokenThreshold, DefaultTokenThreshold)
	if err != nil {
		return nil, err
	}
	maxPrompt, err := intFromEnv(EnvMaxPromptTokens, DefaultMaxPromptTokens)
	if err != nil {
		return nil, err
	}

	return &Settings{
		OpenAIAPIKey: os.Getenv(EnvOpenAIAPIKey),
		XAIAPIKey:    os.Getenv(EnvXAIAPIKey),
		GeminiAPIKey: os.Getenv(EnvGeminiAPIKey),

		OpenAIModel: stringFromEnv(EnvOpenAIModel, DefaultOpenAIModel),
		XAIModel:    stringFromEnv(EnvXAIModel, DefaultXAIModel),
		GeminiModel: stringFromEnv(EnvGeminiModel, DefaultGeminiModel),

		OllamaBaseURL: stringFromEnv(EnvOllamaBaseURL, DefaultOllamaBaseURL),
		OllamaModel:   stringFromEnv(EnvOllamaModel, DefaultOllamaModel),

		TokenThreshold:  threshold,
		MaxPromptTokens: maxPrompt,

		LogLevel: stringFromEnv(EnvLogLevel, DefaultLogLevel),
	}, nil
}

// ModelFor reports the configured model identifier for a provider name.
// Unknown names return an empty string; the provider factory rejects them.
func (s *Settings) ModelFor(provider string) string {
	switch provider {
	case "openai":
		return s.OpenAIModel
	case "xai":
		return s.XAIModel
	case "gemini":
		return s.GeminiModel
	case "ollama":
		return s.OllamaModel
	default:
		return ""
	}
}

func stringFromEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
