// Package usecases contains the application business logic. This package
// orchestrates domain entities and interfaces to fulfill the
// extraction-to-delivery pipeline.
package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/gitbrief/gitbrief/internal/domain"
)

// Logger defines the logging interface required by the usecases.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// payloadFrame concatenates system and hydrated user prompt into the full
// text sent downstream.
const payloadFrame = "--- SYSTEM PROMPT ---\n%s\n\n--- USER PROMPT ---\n%s"

// PayloadBuilder assembles the final prompt payload from extracted records
// and a template, under a token budget.
type PayloadBuilder struct {
	counter   domain.TokenCounter
	maxTokens int
	logger    Logger
}

// NewPayloadBuilder creates a PayloadBuilder. maxTokens bounds the
// consolidated diff content; records that would exceed it are omitted and
// noted in the payload.
func NewPayloadBuilder(counter domain.TokenCounter, maxTokens int, log Logger) *PayloadBuilder {
	return &PayloadBuilder{
		counter:   counter,
		maxTokens: maxTokens,
		logger:    log,
	}
}

// Build hydrates the template with the records' diff content and computes
// the estimated token count. Token estimation never fails; the counter falls
// back to a length heuristic internally.
func (b *PayloadBuilder) Build(ctx context.Context, tpl domain.PromptTemplate, records []domain.CommitRecord) domain.Payload {
	base := fmt.Sprintf(payloadFrame, tpl.Prompts.System, tpl.Prompts.User)
	used := b.counter.Count(strings.ReplaceAll(base, domain.DiffContentToken, ""))

	chunks := make([]string, 0, len(records))
	omitted := 0

	for i, rec := range records {
		chunk := fmt.Sprintf("--- Diff for %s: %s ---\n%s", rec.ShortHash, firstLine(rec.Message), rec.Diff)
		cost := b.counter.Count(chunk)

		if used+cost > b.maxTokens {
			omitted = len(records) - i
			break
		}
		chunks = append(chunks, chunk)
		used += cost
	}

	diffContent := strings.Join(chunks, "\n\n")
	if omitted > 0 {
		diffContent += fmt.Sprintf("\n\n[INFO: %d commits were omitted to fit within the token limit.]", omitted)
		b.logger.Warn(ctx, "records omitted from payload", map[string]interface{}{
			"omitted":    omitted,
			"max_tokens": b.maxTokens,
		})
	}

	userPrompt := strings.ReplaceAll(tpl.Prompts.User, domain.DiffContentToken, diffContent)
	fullText := fmt.Sprintf(payloadFrame, tpl.Prompts.System, userPrompt)

	payload := domain.Payload{
		SystemPrompt:    tpl.Prompts.System,
		UserPrompt:      userPrompt,
		FullText:        fullText,
		EstimatedTokens: b.counter.Count(fullText),
	}

	b.logger.Debug(ctx, "payload assembled", map[string]interface{}{
		"template":         tpl.Meta.Name,
		"records":          len(records),
		"estimated_tokens": payload.EstimatedTokens,
	})

	return payload
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
