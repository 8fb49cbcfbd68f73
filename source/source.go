// Package source resolves document references into plain text ready for
// chunking. References are local paths, doublestar glob patterns, or
// s3://bucket/key URIs; the extracted text depends on the file format.
package source

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// Document is one resolved input ready for ingestion.
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Resolver expands document references. The zero value handles local
// paths; S3 references additionally need credentials, usually from the
// environment via S3ConfigFromEnv.
type Resolver struct {
	S3     S3Config
	Logger *zap.Logger
}

// NewResolver returns a Resolver. A nil logger disables logging.
func NewResolver(s3 S3Config, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{S3: s3, Logger: logger}
}

// Resolve expands ref into extracted documents. Local references may use
// glob patterns including **; s3://bucket/key references are fetched from
// object storage and may glob over object keys.
func (r *Resolver) Resolve(ctx context.Context, ref string) ([]Document, error) {
	if strings.HasPrefix(ref, "s3://") {
		return r.resolveS3(ctx, ref)
	}
	return r.resolveLocal(ref)
}

func (r *Resolver) resolveLocal(ref string) ([]Document, error) {
	paths := []string{ref}
	if hasGlobMeta(ref) {
		matches, err := doublestar.FilepathGlob(ref)
		if err != nil {
			return nil, fmt.Errorf("expanding glob %q: %w", ref, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", ref)
		}
		sort.Strings(matches)
		paths = matches
	}

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		text, err := ExtractText(path, data)
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", path, err)
		}
		r.logger().Debug("resolved local document",
			zap.String("path", path),
			zap.Int("bytes", len(data)))
		docs = append(docs, Document{Name: path, Text: text})
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no files match %q", ref)
	}
	return docs, nil
}

func (r *Resolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func hasGlobMeta(ref string) bool {
	return strings.ContainsAny(ref, "*?[{")
}
