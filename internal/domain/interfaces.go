// Package domain defines the core business entities and interfaces for gitbrief.
// This package contains no external dependencies and represents the innermost
// layer of the architecture.
package domain

import (
	"context"
	"errors"
)

// Domain errors. Call-level failures are raised immediately and distinctly;
// item-level failures never escalate to call-level failures and are folded
// into record or section text instead.
var (
	// ErrRepositoryNotFound indicates the specified path is not a valid Git
	// repository. Fatal for the whole extraction call.
	ErrRepositoryNotFound = errors.New("git repository not found at specified path")

	// ErrProviderConfig indicates missing or invalid provider configuration.
	// Raised at construction, before any network I/O.
	ErrProviderConfig = errors.New("invalid provider configuration")

	// ErrUnknownProvider indicates the requested provider name has no backend.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrStreamTransport indicates a failure during an active stream. Partial
	// output produced before the failure is preserved and returned.
	ErrStreamTransport = errors.New("stream transport failure")

	// ErrTemplateInvalid indicates a prompt template failed validation.
	ErrTemplateInvalid = errors.New("invalid prompt template")

	// ErrCommitNotFound indicates an explicitly requested hash does not
	// resolve to a commit in the repository.
	ErrCommitNotFound = errors.New("commit not found")
)

// ChangeSource extracts normalized commit records from a local repository.
// The repository path is bound at construction time.
type ChangeSource interface {
	// Extract produces an ordered sequence of CommitRecords for the filter.
	// Staged mode with an empty index-vs-HEAD diff returns an empty slice.
	// Per-commit diff failures are recorded in the record's Diff body and do
	// not abort the call.
	Extract(ctx context.Context, filter ExtractFilter) ([]CommitRecord, error)

	// Close releases any resources held by the source.
	Close() error
}

// TokenCounter estimates token counts for payload routing. Implementations
// must never fail: when no tokenizer is available they fall back to a
// deterministic length heuristic.
type TokenCounter interface {
	Count(text string) int
}

// StreamProvider is the uniform streaming contract over model backends.
// Implementations are validated at construction; Stream produces a lazy,
// finite, non-restartable sequence of text fragments.
type StreamProvider interface {
	// Name reports the backend identifier, for logging and display.
	Name() string

	// Stream sends the prompts and writes response fragments to out as they
	// arrive. It returns once the sequence is exhausted or a transport error
	// occurs. Stream never closes out; the caller owns the channel.
	Stream(ctx context.Context, systemPrompt, userPrompt string, out chan<- string) error
}

// RecordWriter persists extracted records as the JSON array layout.
type RecordWriter interface {
	WriteRecords(records []CommitRecord, path string) error
}

// PromptSink delivers an assembled payload to one channel.
type PromptSink interface {
	// CopyToClipboard places the payload on the system clipboard.
	CopyToClipboard(text string) error

	// SaveToFile writes the payload to the given path.
	SaveToFile(text, path string) error
}
