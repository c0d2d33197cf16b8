// Package provider implements the streaming model-backend adapters behind
// the domain.StreamProvider contract. Each backend is constructed and
// validated by the factory before any network I/O happens.
package provider

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gitbrief/gitbrief/internal/domain"
	"github.com/gitbrief/gitbrief/internal/infrastructure/config"
)

// streamTimeout bounds one full streaming session. Local models can be
// slow to produce the first token, so this is generous.
const streamTimeout = 300 * time.Second

// New maps a requested provider name to a constructed, validated instance.
// Unknown names or missing required configuration fail fast with an error
// matching domain.ErrProviderConfig, never with a deferred runtime failure
// on first use.
func New(name string, settings *config.Settings) (domain.StreamProvider, error) {
	client := &http.Client{Timeout: streamTimeout}

	switch name {
	case "openai":
		if settings.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: missing OPENAI_API_KEY", domain.ErrProviderConfig)
		}
		return newOpenAICompatible("openai", settings.OpenAIModel, settings.OpenAIAPIKey, openAIBaseURL, client), nil

	case "xai":
		if settings.XAIAPIKey == "" {
			return nil, fmt.Errorf("%w: missing XAI_API_KEY", domain.ErrProviderConfig)
		}
		return newOpenAICompatible("xai", settings.XAIModel, settings.XAIAPIKey, xaiBaseURL, client), nil

	case "ollama":
		// Local daemon: no credential required.
		return newOpenAICompatible("ollama", settings.OllamaModel, "", settings.OllamaBaseURL, client), nil

	case "gemini":
		if settings.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: missing GEMINI_API_KEY", domain.ErrProviderConfig)
		}
		return newGemini(settings.GeminiModel, settings.GeminiAPIKey, client), nil

	default:
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrProviderConfig, domain.ErrUnknownProvider, name)
	}
}
