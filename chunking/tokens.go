package chunking

import (
	"math"
	"strings"
)

// Default sizing parameters for the extraction window.
const (
	// DefaultMaxBufferTokens is the working buffer capacity in tokens.
	DefaultMaxBufferTokens = 10000

	// DefaultRefillThreshold is the remainder size below which the buffer
	// is topped up from the document source.
	DefaultRefillThreshold = 5000

	// DefaultMinSegmentTokens is the size below which a final remainder is
	// emitted directly instead of being sent to the segmenter.
	DefaultMinSegmentTokens = 13

	// DefaultWordsToTokens approximates one word as 1.33 tokens.
	DefaultWordsToTokens = 1.33
)

// TokenCounter converts text to a token count. Implementations must be
// deterministic and monotonic: Count(a+b) >= Count(a) for any split of a
// text into a and b.
type TokenCounter interface {
	Count(text string) int
}

// WordRatioCounter estimates tokens from the whitespace-delimited word count
// scaled by Ratio. It needs no model access and is stable across calls, which
// keeps window sizing reproducible.
type WordRatioCounter struct {
	Ratio float64
}

// NewWordRatioCounter returns a counter using the default words-to-tokens ratio.
func NewWordRatioCounter() WordRatioCounter {
	return WordRatioCounter{Ratio: DefaultWordsToTokens}
}

// Count returns the estimated token count for text.
func (c WordRatioCounter) Count(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	ratio := c.Ratio
	if ratio <= 0 {
		ratio = DefaultWordsToTokens
	}
	return int(math.Ceil(float64(words) * ratio))
}
