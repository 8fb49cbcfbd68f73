package chunking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrInvalidConfig reports an invalid buffer/threshold relationship or a
	// missing collaborator at construction time.
	ErrInvalidConfig = errors.New("invalid chunking configuration")

	// ErrEmptyDocument reports a document with no processable text.
	ErrEmptyDocument = errors.New("document contains no processable text")

	// ErrSegmentation is wrapped by segmentation backends for timeouts and
	// malformed responses. The extraction loop absorbs such failures into
	// error placeholder chunks instead of failing the document.
	ErrSegmentation = errors.New("segmentation failed")
)

// DefaultSegmentTimeout bounds a single segmentation call.
const DefaultSegmentTimeout = 2 * time.Minute

// ExtractorConfig tunes the extraction loop. Zero values use the package
// defaults.
type ExtractorConfig struct {
	MaxBufferTokens  int
	RefillThreshold  int
	MinSegmentTokens int
	SegmentTimeout   time.Duration
	Counter          TokenCounter
	Logger           *zap.Logger
}

// Extractor drives a Segmenter over successive working buffers of a
// document and stitches the proposals into one ordered chunk sequence.
// A buffer that fails segmentation becomes a single error placeholder
// chunk and the loop moves on, so one bad buffer never blocks the rest
// of the document.
type Extractor struct {
	segmenter        Segmenter
	counter          TokenCounter
	maxBufferTokens  int
	refillThreshold  int
	minSegmentTokens int
	segmentTimeout   time.Duration
	logger           *zap.Logger
}

// NewExtractor validates the configuration and returns a ready Extractor.
func NewExtractor(segmenter Segmenter, cfg ExtractorConfig) (*Extractor, error) {
	if segmenter == nil {
		return nil, fmt.Errorf("%w: nil segmenter", ErrInvalidConfig)
	}
	if cfg.MaxBufferTokens == 0 {
		cfg.MaxBufferTokens = DefaultMaxBufferTokens
	}
	if cfg.RefillThreshold == 0 {
		cfg.RefillThreshold = DefaultRefillThreshold
	}
	if cfg.MinSegmentTokens == 0 {
		cfg.MinSegmentTokens = DefaultMinSegmentTokens
	}
	if cfg.SegmentTimeout == 0 {
		cfg.SegmentTimeout = DefaultSegmentTimeout
	}
	if cfg.Counter == nil {
		cfg.Counter = NewWordRatioCounter()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxBufferTokens < 0 || cfg.RefillThreshold < 0 || cfg.RefillThreshold >= cfg.MaxBufferTokens {
		return nil, fmt.Errorf("%w: refill threshold %d must be positive and below max buffer tokens %d",
			ErrInvalidConfig, cfg.RefillThreshold, cfg.MaxBufferTokens)
	}
	return &Extractor{
		segmenter:        segmenter,
		counter:          cfg.Counter,
		maxBufferTokens:  cfg.MaxBufferTokens,
		refillThreshold:  cfg.RefillThreshold,
		minSegmentTokens: cfg.MinSegmentTokens,
		segmentTimeout:   cfg.SegmentTimeout,
		logger:           cfg.Logger,
	}, nil
}

// Result is the outcome of one document extraction.
type Result struct {
	Chunks      []Chunk
	FailedSpans []Span
	Stats       Stats
}

// ErrorChunkCount returns how many chunks are error placeholders.
func (r *Result) ErrorChunkCount() int {
	n := 0
	for _, c := range r.Chunks {
		if c.ErrorPlaceholder {
			n++
		}
	}
	return n
}

// Stats carries per-run instrumentation.
type Stats struct {
	BufferFills       int
	SegmentationCalls int
	DocumentBytes     int
}

// Extract processes an entire document read from r. The returned chunks tile
// the document exactly: contiguous spans, no gaps, no overlaps, error
// placeholders included. Only whole-document problems (an empty or unreadable
// source, or cancellation) fail the call.
func (e *Extractor) Extract(ctx context.Context, r io.Reader) (*Result, error) {
	win, err := newWindowBuffer(r, e.counter, e.maxBufferTokens, e.refillThreshold)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction cancelled: %w", err)
		}

		grew, err := win.maybeRefill()
		if err != nil {
			return nil, fmt.Errorf("reading document: %w", err)
		}
		if grew {
			res.Stats.BufferFills++
			e.logger.Debug("working buffer filled",
				zap.Int("tokens", win.tokens()),
				zap.Int("fills", res.Stats.BufferFills))
		}

		text, start := win.current()
		if text == "" {
			break
		}

		// A whitespace-only tail is attached to the previous chunk so spans
		// still tile the document.
		if win.sourceDrained() && strings.TrimSpace(text) == "" {
			if len(res.Chunks) == 0 {
				return nil, ErrEmptyDocument
			}
			last := &res.Chunks[len(res.Chunks)-1]
			last.Content += text
			last.End += len(text)
			win.consume(len(text))
			continue
		}

		// A final remainder too small to segment is saved directly.
		if win.sourceDrained() && win.tokens() < e.minSegmentTokens {
			e.appendDirect(res, text, start)
			win.consume(len(text))
			continue
		}

		res.Stats.SegmentationCalls++
		proposals, segErr := e.segment(ctx, text)
		if segErr != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("extraction cancelled: %w", ctx.Err())
		}
		if segErr != nil {
			e.logger.Warn("segmentation failed, recording placeholder",
				zap.Int("start", start),
				zap.Int("bytes", len(text)),
				zap.Error(segErr))
			e.appendPlaceholder(res, text, start, segErr)
			win.consume(len(text))
			continue
		}

		consumed := e.appendProposals(res, proposals, text, start)
		if consumed == 0 {
			e.logger.Warn("segmentation made no progress, recording placeholder",
				zap.Int("start", start),
				zap.Int("bytes", len(text)))
			e.appendPlaceholder(res, text, start, nil)
			win.consume(len(text))
			continue
		}
		win.consume(consumed)
	}

	if len(res.Chunks) == 0 {
		return nil, ErrEmptyDocument
	}
	res.Stats.DocumentBytes = res.Chunks[len(res.Chunks)-1].End
	e.logger.Info("extraction complete",
		zap.Int("chunks", len(res.Chunks)),
		zap.Int("error_chunks", res.ErrorChunkCount()),
		zap.Int("buffer_fills", res.Stats.BufferFills),
		zap.Int("bytes", res.Stats.DocumentBytes))
	return res, nil
}

func (e *Extractor) segment(ctx context.Context, text string) ([]SegmentProposal, error) {
	if e.segmentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.segmentTimeout)
		defer cancel()
	}
	return e.segmenter.Segment(ctx, text)
}

// appendProposals turns the backend's proposals into chunks whose spans are
// assigned contiguously from the buffer start, with content taken verbatim
// from the buffer. Consumption claims beyond the buffer are clamped and
// flagged. Returns the total bytes consumed.
func (e *Extractor) appendProposals(res *Result, proposals []SegmentProposal, text string, start int) int {
	consumed := 0
	for _, p := range proposals {
		remaining := len(text) - consumed
		if remaining == 0 {
			break
		}
		n := p.BytesConsumed
		clamped := false
		if n > remaining {
			e.logger.Warn("segmentation over-claimed buffer, clamping",
				zap.Int("claimed", n),
				zap.Int("remaining", remaining))
			n = remaining
			clamped = true
		}
		if n <= 0 {
			continue
		}
		keywords := p.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		content := text[consumed : consumed+n]
		res.Chunks = append(res.Chunks, Chunk{
			Heading:         p.Heading,
			Summary:         p.Summary,
			Keywords:        keywords,
			Content:         content,
			TokenCount:      e.counter.Count(content),
			SequenceIndex:   len(res.Chunks),
			Start:           start + consumed,
			End:             start + consumed + n,
			BoundaryClamped: clamped,
		})
		consumed += n
	}
	return consumed
}

// appendPlaceholder covers the whole buffer span with one error chunk so
// the cursor can advance past a failed buffer.
func (e *Extractor) appendPlaceholder(res *Result, text string, start int, cause error) {
	heading := "Unprocessed Content"
	summary := "Content that could not be broken into chunks"
	if cause != nil {
		heading = "Processing Error"
		summary = "Error during processing: " + cause.Error()
	}
	res.Chunks = append(res.Chunks, Chunk{
		Heading:          heading,
		Summary:          summary,
		Keywords:         []string{},
		Content:          text,
		TokenCount:       e.counter.Count(text),
		SequenceIndex:    len(res.Chunks),
		Start:            start,
		End:              start + len(text),
		ErrorPlaceholder: true,
	})
	res.FailedSpans = append(res.FailedSpans, Span{Start: start, End: start + len(text)})
}

// appendDirect saves a tiny remainder without a segmentation call.
func (e *Extractor) appendDirect(res *Result, text string, start int) {
	heading, summary := "Content", "Very small content section"
	if len(res.Chunks) > 0 {
		heading, summary = "Additional Content", "Remaining content from processing"
	}
	res.Chunks = append(res.Chunks, Chunk{
		Heading:       heading,
		Summary:       summary,
		Keywords:      []string{},
		Content:       text,
		TokenCount:    e.counter.Count(text),
		SequenceIndex: len(res.Chunks),
		Start:         start,
		End:           start + len(text),
	})
}
