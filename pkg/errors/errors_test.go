package errors

import (
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNewAggregatesErrorsAndMessages(t *testing.T) {
	err := New(
		fmt.Errorf("first failure"),
		"second failure",
		fmt.Errorf("third failure"),
	)

	assert.Contains(t, err.Error(), "first failure")
	assert.Contains(t, err.Error(), "second failure")
	assert.Contains(t, err.Error(), "third failure")
}

func TestTruncateBoundsLongInput(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "abc…", Truncate("abcdef", 3))
	assert.Equal(t, "untouched", Truncate("untouched", 0))
}

func TestTruncateNeverSplitsARune(t *testing.T) {
	// Each arrow is three bytes; a byte-index cut would land mid-rune.
	input := "a→b→c→d"

	for limit := 1; limit < len(input); limit++ {
		out := Truncate(input, limit)
		assert.True(t, utf8.ValidString(out), "limit %d produced invalid UTF-8: %q", limit, out)
		assert.LessOrEqual(t, len(out)-len("…"), limit)
	}
}
