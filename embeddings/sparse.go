// Package embeddings produces the dense and sparse vector representations
// stored alongside chunks and used for query-time retrieval.
package embeddings

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// SparseVector represents a sparse embedding as parallel arrays of indices
// and values. Indices are hashed token IDs sorted ascending; values are the
// corresponding term frequencies.
type SparseVector struct {
	Indices []int32   `json:"indices"`
	Values  []float32 `json:"values"`
}

// IsZero reports whether the vector has no terms.
func (v SparseVector) IsZero() bool {
	return len(v.Indices) == 0
}

// LexicalEncoder produces sparse term-frequency vectors from text. Token
// indices come from xxhash64 folded into the positive int32 range, so no
// vocabulary file is needed and any two processes agree on the index for a
// given token. Inverse document frequency weighting is applied by the
// vector store's collection modifier at query time.
type LexicalEncoder struct {
	minTokenLen int
}

// NewLexicalEncoder returns an encoder that ignores tokens shorter than
// two bytes.
func NewLexicalEncoder() *LexicalEncoder {
	return &LexicalEncoder{minTokenLen: 2}
}

// Encode returns the sparse vector for text. Text with no usable tokens
// produces a zero vector.
func (e *LexicalEncoder) Encode(text string) SparseVector {
	counts := make(map[int32]float32)
	for _, tok := range tokenize(text) {
		if len(tok) < e.minTokenLen {
			continue
		}
		idx := int32(xxhash.Sum64String(tok) & 0x7fffffff)
		counts[idx]++
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	indices := make([]int32, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	values := make([]float32, len(indices))
	for i, idx := range indices {
		values[i] = counts[idx]
	}
	return SparseVector{Indices: indices, Values: values}
}

// tokenize lowercases text and splits it into letter/digit runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
