// Package fusion merges ranked candidate lists from independent retrieval
// arms into a single ordering using reciprocal rank fusion.
package fusion

import "sort"

// DefaultK is the reciprocal rank fusion damping constant. Larger values
// flatten the contribution gap between top and deep ranks.
const DefaultK = 60

// RankedCandidate is one hit from a single retrieval arm, best first in
// that arm's own scoring.
type RankedCandidate struct {
	ID      string
	Score   float64
	Payload any
}

// List is one retrieval arm's ranked output. Labels identify the arm in
// the fused results and must be unique across the lists of one Fuse call.
type List struct {
	Label      string
	Candidates []RankedCandidate
}

// Result is a fused candidate. Score is the reciprocal rank sum across all
// contributing arms; ContributingRanks records the 1-based rank the
// candidate held in each arm that returned it.
type Result struct {
	ID                string
	Score             float64
	ContributingRanks map[string]int
	Payload           any
}

// Engine fuses ranked lists with a fixed damping constant.
type Engine struct {
	k int
}

// NewEngine returns an Engine with damping constant k. Values below 1 fall
// back to DefaultK.
func NewEngine(k int) *Engine {
	if k < 1 {
		k = DefaultK
	}
	return &Engine{k: k}
}

// K returns the damping constant in use.
func (e *Engine) K() int {
	return e.k
}

// Fuse merges the lists. A candidate appearing at rank r in an arm gains
// 1/(k+r); its fused score is the sum over arms. Ranks follow list
// positions as delivered, counting from 1, and a duplicate ID inside one
// list keeps its first position. Ties sort by the best rank any arm gave
// the candidate, then by ID, so the ordering is deterministic and does not
// depend on the order the lists are passed in.
func (e *Engine) Fuse(lists ...List) []Result {
	byID := make(map[string]*Result)
	best := make(map[string]int)

	for _, list := range lists {
		seen := make(map[string]bool, len(list.Candidates))
		for i, c := range list.Candidates {
			if c.ID == "" || seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			rank := i + 1

			r, ok := byID[c.ID]
			if !ok {
				r = &Result{
					ID:                c.ID,
					ContributingRanks: make(map[string]int, len(lists)),
					Payload:           c.Payload,
				}
				byID[c.ID] = r
				best[c.ID] = rank
			} else if rank < best[c.ID] {
				best[c.ID] = rank
			}
			r.Score += 1 / float64(e.k+rank)
			r.ContributingRanks[list.Label] = rank
			if r.Payload == nil {
				r.Payload = c.Payload
			}
		}
	}

	out := make([]Result, 0, len(byID))
	for _, r := range byID {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if bi, bj := best[out[i].ID], best[out[j].ID]; bi != bj {
			return bi < bj
		}
		return out[i].ID < out[j].ID
	})
	return out
}
