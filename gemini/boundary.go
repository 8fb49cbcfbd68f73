package gemini

import (
	"strings"

	"github.com/antflydb/chunkaf/chunking"
)

// alignProposals converts model chunks into proposals whose consumption
// claims are measured against the submitted buffer. The model's content is
// treated as a word-level claim: a chunk of n words consumes the buffer's
// next n words plus trailing whitespace. Byte claims therefore stay valid
// even when the model's echo of the text drifts from the original.
func alignProposals(buffer string, chunks []modelChunk) []chunking.SegmentProposal {
	props := make([]chunking.SegmentProposal, 0, len(chunks))
	rest := buffer
	for _, c := range chunks {
		words := len(strings.Fields(c.Content))
		if words == 0 {
			continue
		}
		n := chunking.WordSpan(rest, words)
		if n == 0 {
			break
		}
		props = append(props, chunking.SegmentProposal{
			Heading:       c.Heading,
			Summary:       c.Summary,
			Keywords:      c.Keywords,
			Content:       c.Content,
			BytesConsumed: n,
		})
		rest = rest[n:]
	}
	return props
}
