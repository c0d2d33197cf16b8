package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "single char", text: "a", want: 1},
		{name: "exactly four", text: "abcd", want: 1},
		{name: "five rounds up", text: "abcde", want: 2},
		{name: "eight", text: "abcdefgh", want: 2},
		{name: "long text", text: strings.Repeat("x", 401), want: 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fallbackCount(tt.text))
		})
	}
}

func TestCounter_ZeroValueUsesHeuristic(t *testing.T) {
	var c Counter

	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 2, c.Count("hello"))
}

func TestCounter_NeverNegative(t *testing.T) {
	c := New()

	for _, text := range []string{"", "a", "hello world", strings.Repeat("diff ", 1000)} {
		assert.GreaterOrEqual(t, c.Count(text), 0)
	}
}

func TestCounter_MonotonicWithLength(t *testing.T) {
	c := New()

	short := c.Count("short text")
	long := c.Count(strings.Repeat("much longer text with many words ", 100))

	assert.Greater(t, long, short)
}
