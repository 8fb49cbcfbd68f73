package fusion

import (
	"math"
	"testing"
)

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func sameOrder(a []string, b []Result) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i].ID {
			return false
		}
	}
	return true
}

func TestFuseTwoArms(t *testing.T) {
	dense := List{Label: "dense", Candidates: []RankedCandidate{
		{ID: "x", Score: 0.92},
		{ID: "y", Score: 0.85},
		{ID: "z", Score: 0.41},
	}}
	sparse := List{Label: "sparse", Candidates: []RankedCandidate{
		{ID: "y", Score: 12.1},
		{ID: "x", Score: 9.7},
		{ID: "w", Score: 3.2},
	}}

	got := NewEngine(60).Fuse(dense, sparse)
	wantOrder := []string{"x", "y", "w", "z"}
	if !sameOrder(wantOrder, got) {
		t.Fatalf("order = %v, want %v", ids(got), wantOrder)
	}

	both := 1.0/61 + 1.0/62
	single := 1.0 / 63
	wantScores := []float64{both, both, single, single}
	for i, r := range got {
		if math.Abs(r.Score-wantScores[i]) > 1e-12 {
			t.Errorf("%s score = %v, want %v", r.ID, r.Score, wantScores[i])
		}
	}

	x := got[0]
	if x.ContributingRanks["dense"] != 1 || x.ContributingRanks["sparse"] != 2 {
		t.Errorf("x contributing ranks = %v", x.ContributingRanks)
	}
	w := got[2]
	if len(w.ContributingRanks) != 1 || w.ContributingRanks["sparse"] != 3 {
		t.Errorf("w contributing ranks = %v", w.ContributingRanks)
	}
}

func TestFuseOrderIndependent(t *testing.T) {
	a := List{Label: "a", Candidates: []RankedCandidate{{ID: "p"}, {ID: "q"}, {ID: "r"}}}
	b := List{Label: "b", Candidates: []RankedCandidate{{ID: "r"}, {ID: "s"}, {ID: "p"}}}

	e := NewEngine(60)
	first := e.Fuse(a, b)
	second := e.Fuse(b, a)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order differs at %d: %v vs %v", i, ids(first), ids(second))
		}
		if math.Abs(first[i].Score-second[i].Score) > 1e-12 {
			t.Fatalf("%s score differs: %v vs %v", first[i].ID, first[i].Score, second[i].Score)
		}
	}
}

func TestFuseDeterministic(t *testing.T) {
	a := List{Label: "a", Candidates: []RankedCandidate{{ID: "m"}, {ID: "n"}, {ID: "o"}, {ID: "p"}}}
	b := List{Label: "b", Candidates: []RankedCandidate{{ID: "p"}, {ID: "o"}, {ID: "n"}, {ID: "m"}}}

	e := NewEngine(60)
	want := ids(e.Fuse(a, b))
	for i := 0; i < 50; i++ {
		if got := e.Fuse(a, b); !sameOrder(want, got) {
			t.Fatalf("run %d produced %v, want %v", i, ids(got), want)
		}
	}
}

func TestFuseSingleArm(t *testing.T) {
	only := List{Label: "dense", Candidates: []RankedCandidate{{ID: "a"}, {ID: "b"}}}
	got := NewEngine(60).Fuse(only)
	if !sameOrder([]string{"a", "b"}, got) {
		t.Fatalf("order = %v", ids(got))
	}
	if math.Abs(got[0].Score-1.0/61) > 1e-12 {
		t.Errorf("a score = %v, want %v", got[0].Score, 1.0/61)
	}
	if len(got[0].ContributingRanks) != 1 {
		t.Errorf("a contributing ranks = %v", got[0].ContributingRanks)
	}
}

func TestFuseEdgeCases(t *testing.T) {
	e := NewEngine(60)

	t.Run("no lists", func(t *testing.T) {
		if got := e.Fuse(); len(got) != 0 {
			t.Errorf("got %d results", len(got))
		}
	})

	t.Run("empty lists", func(t *testing.T) {
		if got := e.Fuse(List{Label: "a"}, List{Label: "b"}); len(got) != 0 {
			t.Errorf("got %d results", len(got))
		}
	})

	t.Run("duplicate id keeps first position", func(t *testing.T) {
		got := e.Fuse(List{Label: "a", Candidates: []RankedCandidate{
			{ID: "x"}, {ID: "x"}, {ID: "y"},
		}})
		if len(got) != 2 {
			t.Fatalf("got %d results, want 2", len(got))
		}
		if got[0].ID != "x" || got[0].ContributingRanks["a"] != 1 {
			t.Errorf("x = %+v", got[0])
		}
		if got[1].ContributingRanks["a"] != 3 {
			t.Errorf("y rank = %d, want 3", got[1].ContributingRanks["a"])
		}
	})

	t.Run("blank ids dropped", func(t *testing.T) {
		got := e.Fuse(List{Label: "a", Candidates: []RankedCandidate{{ID: ""}, {ID: "x"}}})
		if len(got) != 1 || got[0].ID != "x" {
			t.Errorf("got %v", ids(got))
		}
	})
}

func TestFusePayloadCarried(t *testing.T) {
	type payload struct{ Heading string }
	dense := List{Label: "dense", Candidates: []RankedCandidate{
		{ID: "x", Payload: &payload{Heading: "Dense X"}},
	}}
	sparse := List{Label: "sparse", Candidates: []RankedCandidate{
		{ID: "x", Payload: &payload{Heading: "Sparse X"}},
		{ID: "y", Payload: &payload{Heading: "Sparse Y"}},
	}}

	got := NewEngine(60).Fuse(dense, sparse)
	if got[0].Payload.(*payload).Heading != "Dense X" {
		t.Errorf("x payload = %+v, want first contributor's payload", got[0].Payload)
	}
	if got[1].Payload.(*payload).Heading != "Sparse Y" {
		t.Errorf("y payload = %+v", got[1].Payload)
	}
}

func TestNewEngineDefaultK(t *testing.T) {
	if got := NewEngine(0).K(); got != DefaultK {
		t.Errorf("K() = %d, want %d", got, DefaultK)
	}
	if got := NewEngine(-5).K(); got != DefaultK {
		t.Errorf("K() = %d, want %d", got, DefaultK)
	}
	if got := NewEngine(10).K(); got != 10 {
		t.Errorf("K() = %d, want 10", got)
	}
}
