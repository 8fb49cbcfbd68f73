package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsChunked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chunkaf_documents_chunked_total",
		Help: "Documents run through the chunk extraction loop.",
	})
	chunksProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chunkaf_chunks_produced_total",
		Help: "Chunks produced, by outcome (ok or placeholder).",
	}, []string{"outcome"})
	segmentationCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chunkaf_segmentation_calls_total",
		Help: "Calls issued to the segmentation model.",
	})
	bufferFills = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chunkaf_buffer_fills_total",
		Help: "Window buffer refills across all documents.",
	})
	chunkingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chunkaf_chunking_duration_seconds",
		Help:    "Wall time of whole-document chunking runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
	searches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chunkaf_searches_total",
		Help: "Hybrid searches served.",
	})
	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chunkaf_search_duration_seconds",
		Help:    "Wall time of hybrid searches.",
		Buckets: prometheus.DefBuckets,
	})
)
