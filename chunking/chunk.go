// Package chunking turns arbitrarily large text documents into an ordered
// sequence of semantically coherent chunks using a bounded working window,
// so a document never has to be resident in memory all at once.
package chunking

import "context"

// Span marks a byte range [Start, End) of the source document.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Chunk is one extracted piece of a document. Content is the verbatim
// document text of [Start, End); chunks produced by one extraction tile the
// document contiguously with no gaps or overlaps.
type Chunk struct {
	Heading  string   `json:"heading"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
	Content  string   `json:"content"`

	TokenCount    int `json:"token_count"`
	SequenceIndex int `json:"sequence_index"`
	Start         int `json:"start"`
	End           int `json:"end"`

	// ErrorPlaceholder marks a chunk synthesized for a buffer that failed
	// segmentation; its span is preserved so document coverage stays exact.
	ErrorPlaceholder bool `json:"error_placeholder,omitempty"`

	// BoundaryClamped marks a chunk whose reported consumption overran the
	// working buffer and was clamped to it.
	BoundaryClamped bool `json:"boundary_clamped,omitempty"`
}

// SegmentProposal is one chunk proposed by a segmentation backend, together
// with how much of the submitted buffer it accounts for. BytesConsumed is
// measured against the exact buffer text that was submitted; Content is the
// backend's own rendering and is informational, the authoritative chunk text
// is the consumed buffer slice.
type SegmentProposal struct {
	Heading       string
	Summary       string
	Keywords      []string
	Content       string
	BytesConsumed int
}

// Segmenter proposes semantic chunks for a working buffer of document text.
// Implementations may call out to a model and should honor ctx cancellation
// and deadlines.
type Segmenter interface {
	Segment(ctx context.Context, text string) ([]SegmentProposal, error)
}
