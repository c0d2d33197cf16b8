// Package domain defines the core business entities and interfaces for gitbrief.
package domain

import "time"

// Sentinel values for the virtual record produced by staged-mode extraction.
// The staged record stands in for a commit that does not exist yet.
const (
	StagedHash      = "STAGED_CHANGES"
	StagedShortHash = "STAGED"
	StagedAuthor    = "Current User"
	StagedMessage   = "PRE-COMMIT: Staged changes ready for analysis."
)

// Fixed diff bodies and tokens. These strings are part of the persisted
// output format and must stay stable across releases.
const (
	NoChangesDetected = "No changes detected."
	EmptyFileContent  = "(New file content)"
	InitialCommitBody = "Initial Commit - No parent diff available."
	DiffContentToken  = "{DIFF_CONTENT}"
	ShortHashLength   = 7
)

// CommitRecord is one historical or virtual change-set, normalized for
// serialization and prompt assembly. Records are created once per extraction
// call and immutable afterward.
type CommitRecord struct {
	// Hash is the full commit SHA, or StagedHash for the staged record.
	Hash string `json:"hash"`

	// ShortHash is the abbreviated SHA, or StagedShortHash.
	ShortHash string `json:"short_hash"`

	// Author is the commit author's display name; StagedAuthor for staged mode.
	Author string `json:"author"`

	// Date is the commit timestamp. Nil for the staged virtual record, in
	// which case it is omitted from the JSON layout.
	Date *time.Time `json:"date,omitempty"`

	// Message is the commit message, or StagedMessage for staged mode.
	Message string `json:"message"`

	// Diff is the fully rendered diff body. Never empty: absence of changes
	// or extraction failure always yields a descriptive sentinel string.
	Diff string `json:"diff"`
}

// ExtractMode selects what the History Extractor walks.
type ExtractMode string

const (
	// ModeStaged diffs the index against the current HEAD tree.
	ModeStaged ExtractMode = "staged"

	// ModeHistory walks commits from HEAD backward under the filter set.
	ModeHistory ExtractMode = "history"

	// ModeHashes hydrates an explicit list of commit hashes.
	ModeHashes ExtractMode = "hashes"
)

// ExtractFilter combines the extraction mode with its filters. Any subset of
// the history filters may be supplied; zero values mean "not set".
type ExtractFilter struct {
	Mode ExtractMode

	// Limit caps the number of history records. Zero means unlimited.
	Limit int

	// Since and Until bound the committer timestamp.
	Since *time.Time
	Until *time.Time

	// Author filters history by substring match on author name or email.
	Author string

	// Hashes is consumed only by ModeHashes.
	Hashes []string
}

// Payload is the assembled prompt text plus its estimated token length.
type Payload struct {
	// SystemPrompt is the template's system prompt, unmodified.
	SystemPrompt string

	// UserPrompt is the template's user prompt with the diff content injected.
	UserPrompt string

	// FullText is the concatenated system + user payload sent downstream.
	FullText string

	// EstimatedTokens is always computable: a tokenizer estimate when one is
	// available, otherwise a deterministic length heuristic. Never negative.
	EstimatedTokens int
}

// DeliveryChannel is where a payload should be delivered.
type DeliveryChannel string

const (
	ChannelClipboard DeliveryChannel = "clipboard"
	ChannelFile      DeliveryChannel = "file"
)

// DeliveryDecision classifies a payload by size. It is a pure function of
// the estimated token count and a configured threshold; no side effects.
type DeliveryDecision struct {
	Channel DeliveryChannel

	// Reason records the size-vs-threshold comparison for logging.
	Reason string
}

// TemplateMeta identifies a prompt template.
type TemplateMeta struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TemplateExecution configures how a template drives extraction and delivery.
type TemplateExecution struct {
	// Source is "staged" or "history".
	Source string `json:"source"`

	// Limit caps history extraction. Defaults to DefaultHistoryLimit when unset.
	Limit int `json:"limit"`

	// OutputMode is one of "auto", "clipboard", "file", "execute".
	OutputMode string `json:"output_mode"`
}

// TemplatePrompts holds the raw prompt texts. The user prompt may contain
// the DiffContentToken placeholder.
type TemplatePrompts struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// PromptTemplate is a prompt definition loaded from disk.
type PromptTemplate struct {
	Meta      TemplateMeta      `json:"meta"`
	Execution TemplateExecution `json:"execution"`
	Prompts   TemplatePrompts   `json:"prompts"`
}

// Validate checks the template invariants the pipeline relies on.
func (t PromptTemplate) Validate() error {
	if t.Meta.Name == "" {
		return ErrTemplateInvalid
	}
	if t.Execution.Source != string(ModeStaged) && t.Execution.Source != string(ModeHistory) {
		return ErrTemplateInvalid
	}
	if t.Prompts.User == "" {
		return ErrTemplateInvalid
	}
	return nil
}

// DefaultHistoryLimit is applied when a template omits execution.limit.
const DefaultHistoryLimit = 1
