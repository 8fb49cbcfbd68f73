package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/antflydb/chunkaf/qdrant"
)

func scoredPoint(id string, score float64) qdrant.ScoredPoint {
	return qdrant.ScoredPoint{ID: id, Score: score, Payload: qdrant.Payload{
		DocumentID: "doc-1",
		Heading:    "heading " + id,
		Content:    "content of " + id,
		Summary:    "summary " + id,
		Keywords:   []string{id},
		TokenCount: 5,
	}}
}

func TestSearchFusesArms(t *testing.T) {
	store := &fakeStore{
		denseHits: []qdrant.ScoredPoint{
			scoredPoint("x", 0.95), scoredPoint("y", 0.90), scoredPoint("z", 0.85),
		},
		sparseHits: []qdrant.ScoredPoint{
			scoredPoint("y", 12.0), scoredPoint("x", 11.0), scoredPoint("w", 3.0),
		},
	}
	svc := newTestService(t, &fakeEmbedder{}, store)

	res, err := svc.Search(context.Background(), "what is in the cache", 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if res.Method != "hybrid" {
		t.Errorf("method = %q, want hybrid", res.Method)
	}
	wantOrder := []string{"x", "y", "w", "z"}
	if len(res.Results) != len(wantOrder) {
		t.Fatalf("got %d results, want %d", len(res.Results), len(wantOrder))
	}
	for i, want := range wantOrder {
		if res.Results[i].ID != want {
			t.Errorf("result %d = %q, want %q", i, res.Results[i].ID, want)
		}
	}

	// Both arms are widened beyond the requested limit before fusing.
	if store.gotLimit != 14 {
		t.Errorf("candidate limit = %d, want 14", store.gotLimit)
	}

	top := res.Results[0]
	if top.Heading != "heading x" || top.Content != "content of x" || top.DocumentID != "doc-1" {
		t.Errorf("payload not carried: %+v", top)
	}
	if top.Ranks["dense"] != 1 || top.Ranks["sparse"] != 2 {
		t.Errorf("ranks = %v", top.Ranks)
	}
	if res.Results[2].Ranks["sparse"] != 3 {
		t.Errorf("w ranks = %v", res.Results[2].Ranks)
	}
}

func TestSearchDefaultLimit(t *testing.T) {
	var hits []qdrant.ScoredPoint
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		hits = append(hits, scoredPoint(id, 1.0))
	}
	store := &fakeStore{denseHits: hits}
	svc := newTestService(t, &fakeEmbedder{}, store)

	res, err := svc.Search(context.Background(), "query terms", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results) != DefaultSearchLimit {
		t.Errorf("got %d results, want %d", len(res.Results), DefaultSearchLimit)
	}
	if store.gotLimit != 15 {
		t.Errorf("candidate limit = %d, want 15", store.gotLimit)
	}
}

func TestSearchBothArmsMustSucceed(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeStore
		want  string
	}{
		{
			name: "sparse arm fails",
			store: &fakeStore{
				denseHits: []qdrant.ScoredPoint{scoredPoint("x", 0.9)},
				sparseErr: fmt.Errorf("%w: timeout", qdrant.ErrVectorStore),
			},
			want: "sparse lookup",
		},
		{
			name: "dense arm fails",
			store: &fakeStore{
				sparseHits: []qdrant.ScoredPoint{scoredPoint("x", 4.2)},
				denseErr:   fmt.Errorf("%w: connection refused", qdrant.ErrVectorStore),
			},
			want: "dense lookup",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, &fakeEmbedder{}, tt.store)
			_, err := svc.Search(context.Background(), "query", 5)
			if !errors.Is(err, qdrant.ErrVectorStore) {
				t.Fatalf("error = %v, want ErrVectorStore", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not name the failed arm", err)
			}
		})
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := newTestService(t, &fakeEmbedder{}, &fakeStore{})
	for _, q := range []string{"", "   ", " \n\t "} {
		if _, err := svc.Search(context.Background(), q, 5); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Search(%q) error = %v, want ErrEmptyQuery", q, err)
		}
	}
}

func TestSearchEmptyStore(t *testing.T) {
	svc := newTestService(t, &fakeEmbedder{}, &fakeStore{})
	res, err := svc.Search(context.Background(), "anything at all", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results) != 0 {
		t.Errorf("got %d results from an empty store", len(res.Results))
	}
}
