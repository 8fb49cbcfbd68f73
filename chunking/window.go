package chunking

import (
	"fmt"
	"io"
)

const readSlabSize = 32 * 1024

// windowBuffer maintains the bounded working window over an incrementally
// read document. At any instant at most one buffer of maxTokens plus a small
// read-ahead remainder is resident, regardless of document size.
type windowBuffer struct {
	src       io.Reader
	counter   TokenCounter
	maxTokens int
	threshold int

	buf       string // unconsumed working text
	bufTokens int
	pending   string // read from src but not yet admitted to the buffer
	start     int    // absolute byte offset of buf[0] in the document
	srcDone   bool
	slab      []byte
}

func newWindowBuffer(src io.Reader, counter TokenCounter, maxTokens, threshold int) (*windowBuffer, error) {
	if counter == nil {
		return nil, fmt.Errorf("%w: nil token counter", ErrInvalidConfig)
	}
	if maxTokens <= 0 || threshold <= 0 || threshold >= maxTokens {
		return nil, fmt.Errorf("%w: refill threshold %d must be positive and below max buffer tokens %d",
			ErrInvalidConfig, threshold, maxTokens)
	}
	return &windowBuffer{
		src:       src,
		counter:   counter,
		maxTokens: maxTokens,
		threshold: threshold,
		slab:      make([]byte, readSlabSize),
	}, nil
}

// maybeRefill tops the buffer back up to maxTokens once the remainder drops
// below the refill threshold and unread document text remains. The refilled
// buffer is the unconsumed tail plus freshly read text; nothing is dropped
// or duplicated. Returns whether the buffer grew.
func (w *windowBuffer) maybeRefill() (bool, error) {
	if w.bufTokens >= w.threshold {
		return false, nil
	}
	if w.srcDone && w.pending == "" {
		return false, nil
	}

	combined := w.buf + w.pending
	for !w.srcDone && w.counter.Count(combined) < w.maxTokens {
		n, err := w.src.Read(w.slab)
		if n > 0 {
			combined += string(w.slab[:n])
		}
		if err == io.EOF {
			w.srcDone = true
		} else if err != nil {
			return false, err
		}
	}

	head, tail := takeTokens(combined, w.maxTokens, w.counter)
	grew := len(head) > len(w.buf)
	w.buf, w.pending = head, tail
	w.bufTokens = w.counter.Count(head)
	return grew, nil
}

// consume removes n bytes from the front of the buffer after extraction and
// refreshes the remainder token count.
func (w *windowBuffer) consume(n int) {
	if n <= 0 {
		return
	}
	if n > len(w.buf) {
		n = len(w.buf)
	}
	w.start += n
	w.buf = w.buf[n:]
	w.bufTokens = w.counter.Count(w.buf)
}

// current returns the active buffer text and its absolute start offset.
func (w *windowBuffer) current() (string, int) {
	return w.buf, w.start
}

func (w *windowBuffer) tokens() int {
	return w.bufTokens
}

// exhausted reports whether both the buffer and the document are consumed.
func (w *windowBuffer) exhausted() bool {
	return w.buf == "" && w.pending == "" && w.srcDone
}

// sourceDrained reports whether no unread document text remains beyond the
// current buffer.
func (w *windowBuffer) sourceDrained() bool {
	return w.pending == "" && w.srcDone
}
