// Package tokenizer estimates token counts for payload sizing. It implements
// domain.TokenCounter on top of tiktoken, with a deterministic length
// heuristic as fallback so that counting can never fail.
package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"
)

// fallbackDivisor approximates tokens as characters/4, rounded up. This is
// the routing fallback when no encoding is available.
const fallbackDivisor = 4

// encodingModel selects the tiktoken encoding (cl100k_base via gpt-4).
const encodingModel = "gpt-4"

// Counter estimates token counts. The zero value uses the heuristic only;
// New attempts to load a tiktoken encoding.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// New creates a Counter. Tokenizer initialization failures are not errors:
// the counter silently degrades to the length heuristic, because token
// estimation must never prevent routing.
func New() *Counter {
	enc, err := tiktoken.EncodingForModel(encodingModel)
	if err != nil {
		return &Counter{}
	}
	return &Counter{enc: enc}
}

// Count returns the estimated token count for text. Never fails and never
// returns a negative value.
func (c *Counter) Count(text string) int {
	if c.enc != nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	return fallbackCount(text)
}

// fallbackCount is ceil(len/4) over bytes, matching the documented
// character-estimate heuristic.
func fallbackCount(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + fallbackDivisor - 1) / fallbackDivisor
}
