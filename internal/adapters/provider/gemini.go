package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gitbrief/gitbrief/internal/domain"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini streams generated content from Google's Generative Language API.
type Gemini struct {
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
}

func newGemini(model, apiKey string, client *http.Client) *Gemini {
	return &Gemini{
		model:   model,
		apiKey:  apiKey,
		baseURL: geminiBaseURL,
		client:  client,
	}
}

// Name reports the backend identifier.
func (p *Gemini) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

// Stream opens a streaming generateContent session and writes text parts to
// out as they arrive.
func (p *Gemini) Stream(ctx context.Context, systemPrompt, userPrompt string, out chan<- string) error {
	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userPrompt}}},
		},
	}
	if systemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: gemini: %w", domain.ErrStreamTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: gemini API error (status %d): %s",
			domain.ErrStreamTransport, resp.StatusCode, string(respBody))
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
			return fmt.Errorf("%w: gemini: %w", domain.ErrStreamTransport, err)
		}
		if len(data) == 0 {
			continue
		}

		var evt struct {
			Candidates []struct {
				Content struct {
					Parts []geminiPart `json:"parts"`
				} `json:"content"`
			} `json:"candidates"`
		}
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}
		if len(evt.Candidates) == 0 {
			continue
		}
		for _, part := range evt.Candidates[0].Content.Parts {
			if part.Text != "" {
				out <- part.Text
			}
		}
	}
}
