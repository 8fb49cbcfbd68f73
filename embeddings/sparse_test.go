package embeddings

import (
	"sort"
	"testing"
)

func TestLexicalEncoderDeterministic(t *testing.T) {
	enc := NewLexicalEncoder()
	text := "Distributed storage engines keep hot data in memory and cold data on disk."
	first := enc.Encode(text)
	for i := 0; i < 10; i++ {
		got := enc.Encode(text)
		if len(got.Indices) != len(first.Indices) {
			t.Fatalf("run %d: %d indices, want %d", i, len(got.Indices), len(first.Indices))
		}
		for j := range got.Indices {
			if got.Indices[j] != first.Indices[j] || got.Values[j] != first.Values[j] {
				t.Fatalf("run %d differs at %d", i, j)
			}
		}
	}
}

func TestLexicalEncoderTermFrequency(t *testing.T) {
	enc := NewLexicalEncoder()
	got := enc.Encode("cache cache cache miss")

	if len(got.Indices) != 2 {
		t.Fatalf("indices = %v, want 2 distinct terms", got.Indices)
	}
	if len(got.Indices) != len(got.Values) {
		t.Fatal("indices and values lengths differ")
	}

	var values []float64
	for _, v := range got.Values {
		values = append(values, float64(v))
	}
	sort.Float64s(values)
	if values[0] != 1 || values[1] != 3 {
		t.Errorf("term frequencies = %v, want [1 3]", values)
	}
}

func TestLexicalEncoderNormalization(t *testing.T) {
	enc := NewLexicalEncoder()
	a := enc.Encode("Storage, ENGINE!")
	b := enc.Encode("storage engine")
	if len(a.Indices) != len(b.Indices) {
		t.Fatalf("case/punctuation changed term count: %d vs %d", len(a.Indices), len(b.Indices))
	}
	for i := range a.Indices {
		if a.Indices[i] != b.Indices[i] {
			t.Errorf("index %d differs: %d vs %d", i, a.Indices[i], b.Indices[i])
		}
	}
}

func TestLexicalEncoderSortedPositiveIndices(t *testing.T) {
	enc := NewLexicalEncoder()
	got := enc.Encode("alpha beta gamma delta epsilon zeta eta theta iota kappa")
	for i, idx := range got.Indices {
		if idx < 0 {
			t.Errorf("index %d is negative: %d", i, idx)
		}
		if i > 0 && got.Indices[i-1] >= idx {
			t.Errorf("indices not strictly ascending at %d: %d then %d", i, got.Indices[i-1], idx)
		}
	}
}

func TestLexicalEncoderEmpty(t *testing.T) {
	enc := NewLexicalEncoder()
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"punctuation only", "... !!! ???"},
		{"single rune tokens", "a b c d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := enc.Encode(tt.text); !got.IsZero() {
				t.Errorf("Encode(%q) = %+v, want zero vector", tt.text, got)
			}
		})
	}
}
