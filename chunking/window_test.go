package chunking

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

// dripReader returns at most size bytes per Read call, exercising the
// incremental read path the way a network or file source would.
type dripReader struct {
	data string
	pos  int
	size int
}

func (d *dripReader) Read(p []byte) (int, error) {
	if d.pos >= len(d.data) {
		return 0, io.EOF
	}
	n := d.size
	if n > len(p) {
		n = len(p)
	}
	if d.pos+n > len(d.data) {
		n = len(d.data) - d.pos
	}
	copy(p, d.data[d.pos:d.pos+n])
	d.pos += n
	return n, nil
}

// generateWords returns n uniform 7-byte words, each with a trailing space.
func generateWords(n int) string {
	var b strings.Builder
	b.Grow(n * 7)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "w%05d ", i)
	}
	return b.String()
}

func TestNewWindowBufferValidation(t *testing.T) {
	counter := NewWordRatioCounter()
	tests := []struct {
		name      string
		counter   TokenCounter
		max       int
		threshold int
		wantErr   bool
	}{
		{"valid", counter, 100, 50, false},
		{"nil counter", nil, 100, 50, true},
		{"zero max", counter, 0, 50, true},
		{"zero threshold", counter, 100, 0, true},
		{"threshold equals max", counter, 100, 100, true},
		{"threshold above max", counter, 100, 150, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newWindowBuffer(strings.NewReader("x"), tt.counter, tt.max, tt.threshold)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("err = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWindowBufferRefillPreservesText(t *testing.T) {
	counter := WordRatioCounter{Ratio: 1}
	doc := generateWords(3000)
	src := &dripReader{data: doc, size: 511}
	win, err := newWindowBuffer(src, counter, 400, 200)
	if err != nil {
		t.Fatal(err)
	}

	var got strings.Builder
	for {
		if _, err := win.maybeRefill(); err != nil {
			t.Fatal(err)
		}
		if win.tokens() > 400 {
			t.Fatalf("buffer holds %d tokens, cap is 400", win.tokens())
		}
		text, _ := win.current()
		if text == "" {
			break
		}
		n := len(text)*3/5 + 1
		got.WriteString(text[:n])
		win.consume(n)
	}

	if !win.exhausted() {
		t.Error("window not exhausted after draining")
	}
	if got.String() != doc {
		t.Fatalf("reassembled document differs: got %d bytes, want %d", got.Len(), len(doc))
	}
}

func TestWindowBufferSkipsRefillAboveThreshold(t *testing.T) {
	counter := WordRatioCounter{Ratio: 1}
	doc := generateWords(1000)
	win, err := newWindowBuffer(strings.NewReader(doc), counter, 400, 200)
	if err != nil {
		t.Fatal(err)
	}

	if grew, err := win.maybeRefill(); err != nil || !grew {
		t.Fatalf("first refill: grew=%v err=%v, want growth", grew, err)
	}
	before, _ := win.current()

	// Above the threshold nothing should change.
	if grew, err := win.maybeRefill(); err != nil || grew {
		t.Fatalf("refill above threshold: grew=%v err=%v, want no-op", grew, err)
	}
	after, _ := win.current()
	if before != after {
		t.Error("buffer changed despite being above the refill threshold")
	}
}

func TestWindowBufferConsumeAdvancesStart(t *testing.T) {
	counter := WordRatioCounter{Ratio: 1}
	win, err := newWindowBuffer(strings.NewReader("one two three"), counter, 100, 50)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := win.maybeRefill(); err != nil {
		t.Fatal(err)
	}

	win.consume(4)
	text, start := win.current()
	if start != 4 {
		t.Errorf("start = %d, want 4", start)
	}
	if text != "two three" {
		t.Errorf("text = %q, want %q", text, "two three")
	}

	// Consumption past the buffer end clamps.
	win.consume(1000)
	text, start = win.current()
	if text != "" || start != 13 {
		t.Errorf("after over-consume: text=%q start=%d, want empty at 13", text, start)
	}
	if !win.exhausted() {
		t.Error("window should be exhausted")
	}
}

func TestWindowBufferReadError(t *testing.T) {
	boom := errors.New("disk gone")
	src := io.MultiReader(strings.NewReader(generateWords(50)), &failingReader{err: boom})
	win, err := newWindowBuffer(src, WordRatioCounter{Ratio: 1}, 400, 200)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := win.maybeRefill(); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped read failure", err)
	}
}

type failingReader struct {
	err error
}

func (f *failingReader) Read(p []byte) (int, error) {
	return 0, f.err
}
