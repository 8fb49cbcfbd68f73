package embeddings

import "context"

// HybridEmbedder pairs the hosted dense embedding model with the local
// lexical encoder so every text gets both vector representations.
type HybridEmbedder struct {
	dense  *CohereClient
	sparse *LexicalEncoder
}

// NewHybridEmbedder builds a hybrid embedder. A nil sparse encoder gets the
// default lexical encoder.
func NewHybridEmbedder(dense *CohereClient, sparse *LexicalEncoder) *HybridEmbedder {
	if sparse == nil {
		sparse = NewLexicalEncoder()
	}
	return &HybridEmbedder{dense: dense, sparse: sparse}
}

// EmbedDocumentChunk embeds chunk text for storage.
func (h *HybridEmbedder) EmbedDocumentChunk(ctx context.Context, text string) ([]float32, SparseVector, error) {
	denseVec, err := h.dense.EmbedDocument(ctx, text)
	if err != nil {
		return nil, SparseVector{}, err
	}
	return denseVec, h.sparse.Encode(text), nil
}

// EmbedQuery embeds search query text.
func (h *HybridEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, SparseVector, error) {
	denseVec, err := h.dense.EmbedQuery(ctx, text)
	if err != nil {
		return nil, SparseVector{}, err
	}
	return denseVec, h.sparse.Encode(text), nil
}

// Dimensions returns the dense vector width.
func (h *HybridEmbedder) Dimensions() int {
	return h.dense.Dimensions()
}
