package gemini

import (
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestAlignProposals(t *testing.T) {
	buffer := "The cache layer sits in front of storage. It absorbs read traffic. Cold keys fall through to disk."

	chunks := []modelChunk{
		{Heading: "Cache role", Content: "The cache layer sits in front of storage. It absorbs read traffic.", Summary: "cache purpose"},
		{Heading: "Cold path", Content: "Cold keys fall through to disk.", Summary: "miss handling"},
	}

	props := alignProposals(buffer, chunks)
	if len(props) != 2 {
		t.Fatalf("proposals = %d, want 2", len(props))
	}

	total := 0
	for _, p := range props {
		total += p.BytesConsumed
	}
	if total != len(buffer) {
		t.Errorf("total consumption = %d, want %d", total, len(buffer))
	}
	if got := buffer[:props[0].BytesConsumed]; !strings.HasPrefix(got, "The cache layer") ||
		!strings.HasSuffix(strings.TrimRight(got, " "), "read traffic.") {
		t.Errorf("first claim covers %q", got)
	}
}

func TestAlignProposalsDriftedEcho(t *testing.T) {
	// The model returns twelve words but with altered casing and spacing;
	// the claim must still be twelve of the buffer's own words.
	buffer := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen"
	chunks := []modelChunk{
		{Heading: "H", Content: "ONE   TWO three four FIVE six seven eight nine ten eleven twelve"},
	}

	props := alignProposals(buffer, chunks)
	if len(props) != 1 {
		t.Fatalf("proposals = %d, want 1", len(props))
	}
	want := len("one two three four five six seven eight nine ten eleven twelve ")
	if props[0].BytesConsumed != want {
		t.Errorf("bytes consumed = %d, want %d", props[0].BytesConsumed, want)
	}
}

func TestAlignProposalsOverclaim(t *testing.T) {
	buffer := "only three words"
	chunks := []modelChunk{
		{Heading: "H", Content: strings.Repeat("word ", 50)},
	}

	props := alignProposals(buffer, chunks)
	if len(props) != 1 {
		t.Fatalf("proposals = %d, want 1", len(props))
	}
	if props[0].BytesConsumed != len(buffer) {
		t.Errorf("bytes consumed = %d, want %d", props[0].BytesConsumed, len(buffer))
	}
}

func TestAlignProposalsSkipsEmptyContent(t *testing.T) {
	buffer := "alpha beta gamma"
	chunks := []modelChunk{
		{Heading: "Empty", Content: "   "},
		{Heading: "Real", Content: "alpha beta"},
	}

	props := alignProposals(buffer, chunks)
	if len(props) != 1 || props[0].Heading != "Real" {
		t.Fatalf("proposals = %+v, want only the non-empty chunk", props)
	}
}

func TestAlignProposalsExhaustedBuffer(t *testing.T) {
	buffer := "alpha beta"
	chunks := []modelChunk{
		{Heading: "First", Content: "alpha beta"},
		{Heading: "Ghost", Content: "gamma delta"},
	}

	props := alignProposals(buffer, chunks)
	if len(props) != 1 {
		t.Fatalf("proposals = %d, want 1 once the buffer is exhausted", len(props))
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{"nil response", nil, ""},
		{"no candidates", &genai.GenerateContentResponse{}, ""},
		{
			"joined parts",
			&genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{
						Parts: []genai.Part{genai.Text(`{"chunks":`), genai.Text(`[]}`)},
					},
				}},
			},
			`{"chunks":[]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := responseText(tt.resp); got != tt.want {
				t.Errorf("responseText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLimiterFor(t *testing.T) {
	if limiterFor(0) != nil {
		t.Error("zero rpm should disable the limiter")
	}
	if limiterFor(-5) != nil {
		t.Error("negative rpm should disable the limiter")
	}
	if l := limiterFor(2); l.Burst() != 1 {
		t.Errorf("burst = %d, want floor of 1", l.Burst())
	}
	if l := limiterFor(60); l.Burst() != 5 {
		t.Errorf("burst = %d, want cap of 5", l.Burst())
	}
	if l := limiterFor(12); l.Burst() != 3 {
		t.Errorf("burst = %d, want 3", l.Burst())
	}
}
