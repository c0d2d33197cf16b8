// Package output provides adapters for writing application output.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"

	"github.com/gitbrief/gitbrief/internal/domain"
)

// jsonIndent matches the persisted output layout: a 4-space indented array.
const jsonIndent = "    "

// Writer persists extraction results and assembled prompts. It implements
// domain.RecordWriter and domain.PromptSink.
type Writer struct {
	// copyFunc places text on the system clipboard. Swappable for testing.
	copyFunc func(string) error
}

// NewWriter creates a Writer backed by the system clipboard.
func NewWriter() *Writer {
	return &Writer{copyFunc: clipboard.WriteAll}
}

// NewWriterWithClipboard creates a Writer with a custom clipboard function.
// This is useful for testing.
func NewWriterWithClipboard(copyFunc func(string) error) *Writer {
	return &Writer{copyFunc: copyFunc}
}

// WriteRecords writes the record sequence to path as a JSON array. Dates
// serialize as ISO-8601; the staged record's absent date is omitted.
func (w *Writer) WriteRecords(records []domain.CommitRecord, path string) error {
	data, err := json.MarshalIndent(records, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// SaveToFile writes an assembled prompt to path.
func (w *Writer) SaveToFile(text, path string) error {
	return writeFile(path, []byte(text))
}

// CopyToClipboard places the text on the system clipboard.
func (w *Writer) CopyToClipboard(text string) error {
	if err := w.copyFunc(text); err != nil {
		return fmt.Errorf("clipboard error: %w", err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
