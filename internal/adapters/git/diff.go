// Package git provides adapters for interacting with local Git repositories.
// This package implements the domain.ChangeSource interface using go-git/v5.
package git

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/gitbrief/gitbrief/internal/domain"
)

// FileChange describes one file's change within a comparison. Diff carries
// the raw patch bytes, or nil when no textual diff is available (binary or
// empty content). Err marks an entry whose extraction failed; the formatter
// records it and continues with the remaining files.
type FileChange struct {
	Path    string
	New     bool
	Deleted bool
	Diff    []byte
	Err     error
}

// contextLines is the amount of unchanged context kept around edits when
// rendering blob-content diffs.
const contextLines = 3

// FormatChanges renders an ordered sequence of file changes into one
// human/LLM-readable text block. The result is never empty: an empty input
// yields the fixed "no changes detected" string, and a malformed entry
// yields an error section instead of aborting the rendering.
func FormatChanges(changes []FileChange) string {
	sections := make([]string, 0, len(changes))

	for _, c := range changes {
		if c.Err != nil {
			sections = append(sections, fmt.Sprintf("Error reading diff entry: %v", c.Err))
			continue
		}

		var header string
		switch {
		case c.New:
			header = fmt.Sprintf("--- NEW FILE: %s ---", c.Path)
		case c.Deleted:
			header = fmt.Sprintf("--- DELETED FILE: %s ---", c.Path)
		default:
			header = fmt.Sprintf("--- FILE: %s ---", c.Path)
		}

		body := domain.EmptyFileContent
		if len(c.Diff) > 0 && utf8.Valid(c.Diff) {
			body = string(c.Diff)
		}

		sections = append(sections, header+"\n"+body)
	}

	if len(sections) == 0 {
		return domain.NoChangesDetected
	}

	return strings.Join(sections, "\n\n")
}

// renderContentDiff produces a line-oriented diff between two text blobs,
// prefixing inserted lines with "+", deleted lines with "-" and keeping a
// few lines of context around edits. Returns nil when the contents are
// identical.
func renderContentDiff(oldText, newText string) []byte {
	if oldText == newText {
		return nil
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var out strings.Builder
	for i, d := range diffs {
		lines := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			writePrefixed(&out, "+", lines)
		case diffmatchpatch.DiffDelete:
			writePrefixed(&out, "-", lines)
		default:
			writeContext(&out, lines, i == 0, i == len(diffs)-1)
		}
	}

	return []byte(strings.TrimSuffix(out.String(), "\n"))
}

// writeContext keeps at most contextLines of unchanged text on each side of
// an edit, eliding the middle with a marker line.
func writeContext(out *strings.Builder, lines []string, first, last bool) {
	if len(lines) <= 2*contextLines+1 {
		writePrefixed(out, " ", lines)
		return
	}

	if !first {
		writePrefixed(out, " ", lines[:contextLines])
	}
	out.WriteString("...\n")
	if !last {
		writePrefixed(out, " ", lines[len(lines)-contextLines:])
	}
}

func writePrefixed(out *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		out.WriteString(prefix)
		out.WriteString(line)
		out.WriteByte('\n')
	}
}

func splitLines(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
