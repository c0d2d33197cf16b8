package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gitbrief/gitbrief/internal/domain"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"
	xaiBaseURL    = "https://api.x.ai/v1"
)

// OpenAICompatible streams chat completions from any backend speaking the
// OpenAI API: OpenAI itself, XAI, and local Ollama daemons.
type OpenAICompatible struct {
	name     string
	model    string
	apiKey   string
	endpoint string
	client   *http.Client
}

func newOpenAICompatible(name, model, apiKey, baseURL string, client *http.Client) *OpenAICompatible {
	// Normalize base URL: strip trailing /, /v1, /v1/chat/completions.
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/v1/chat/completions")
	baseURL = strings.TrimSuffix(baseURL, "/v1")

	return &OpenAICompatible{
		name:     name,
		model:    model,
		apiKey:   apiKey,
		endpoint: baseURL + "/v1/chat/completions",
		client:   client,
	}
}

// Name reports the backend identifier.
func (p *OpenAICompatible) Name() string { return p.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// Stream opens a streaming chat completion and writes content deltas to out
// as they arrive. Transport failures are wrapped with
// domain.ErrStreamTransport.
func (p *OpenAICompatible) Stream(ctx context.Context, systemPrompt, userPrompt string, out chan<- string) error {
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	payload, err := json.Marshal(chatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrStreamTransport, p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s API error (status %d): %s",
			domain.ErrStreamTransport, p.name, resp.StatusCode, string(body))
	}

	dec := newEventStreamDecoder(resp.Body)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, err := dec.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrStreamTransport, p.name, err)
		}
		if len(data) == 0 {
			continue
		}

		var evt struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(data, &evt); err != nil {
			continue // tolerate non-delta control events
		}
		if len(evt.Choices) > 0 && evt.Choices[0].Delta.Content != "" {
			out <- evt.Choices[0].Delta.Content
		}
	}
}
