package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/antflydb/chunkaf/chunking"
	"github.com/antflydb/chunkaf/embeddings"
	"github.com/antflydb/chunkaf/qdrant"
	"github.com/antflydb/chunkaf/service"
)

type chunkRequest struct {
	Text       string `json:"text"`
	DocumentID string `json:"document_id"`
}

type chunkResponse struct {
	DocumentID      string           `json:"document_id"`
	Chunks          []chunking.Chunk `json:"chunks"`
	ChunkCount      int              `json:"chunk_count"`
	ErrorChunkCount int              `json:"error_chunk_count"`
	FailedSpans     []chunking.Span  `json:"failed_spans"`
}

// handleChunk chunks a document, stores the chunks, and returns them.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	var req chunkRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	res, err := s.svc.IngestText(r.Context(), req.Text, req.DocumentID)
	if err != nil {
		s.logger.Error("document ingestion failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	placeholders := 0
	for _, c := range res.Chunks {
		if c.ErrorPlaceholder {
			placeholders++
		}
	}
	spans := res.FailedSpans
	if spans == nil {
		spans = []chunking.Span{}
	}
	s.writeJSON(w, http.StatusOK, chunkResponse{
		DocumentID:      res.DocumentID,
		Chunks:          res.Chunks,
		ChunkCount:      len(res.Chunks),
		ErrorChunkCount: placeholders,
		FailedSpans:     spans,
	})
}

type embedStoreRequest struct {
	Chunks     []service.ChunkRecord `json:"chunks"`
	DocumentID string                `json:"document_id"`
}

type embedStoreResponse struct {
	Success      bool   `json:"success"`
	DocumentID   string `json:"document_id"`
	ChunksStored int    `json:"chunks_stored"`
	Message      string `json:"message"`
}

// handleEmbedAndStore imports pre-chunked content. The body is either an
// object with a chunks array or a bare array of chunk records.
func (s *Server) handleEmbedAndStore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var req embedStoreRequest
	if err := sonic.Unmarshal(body, &req); err != nil || req.Chunks == nil {
		var records []service.ChunkRecord
		if err := sonic.Unmarshal(body, &records); err != nil || records == nil {
			s.writeError(w, http.StatusBadRequest, "invalid chunks format")
			return
		}
		req = embedStoreRequest{Chunks: records}
	}
	if len(req.Chunks) == 0 {
		s.writeError(w, http.StatusBadRequest, "no chunks provided")
		return
	}

	documentID, stored, err := s.svc.StoreRecords(r.Context(), req.DocumentID, req.Chunks)
	if err != nil {
		if errors.Is(err, embeddings.ErrEmbedding) || errors.Is(err, qdrant.ErrVectorStore) {
			s.logger.Error("storing chunks failed", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, embedStoreResponse{
		Success:      true,
		DocumentID:   documentID,
		ChunksStored: stored,
		Message:      fmt.Sprintf("successfully stored %d chunks", stored),
	})
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// handleSearch runs a hybrid search over the stored chunks.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.svc.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// handleHealth reports the aggregate health with per-collaborator details.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Health(r.Context()))
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	h := s.svc.Health(r.Context())
	if h.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
		return
	}
	w.Write([]byte("ready"))
}
