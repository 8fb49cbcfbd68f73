package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownText flattens a markdown document into plain text. Block
// boundaries become blank lines so paragraph structure survives into
// chunking; code fences and raw HTML blocks keep their lines verbatim.
func markdownText(data []byte) (string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(data))

	var buf bytes.Buffer
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
				buf.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(data))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.AutoLink:
			buf.Write(node.URL(data))
		case *ast.FencedCodeBlock:
			writeSegments(&buf, node.Lines(), data)
		case *ast.CodeBlock:
			writeSegments(&buf, node.Lines(), data)
		case *ast.HTMLBlock:
			writeSegments(&buf, node.Lines(), data)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func writeSegments(buf *bytes.Buffer, lines *text.Segments, source []byte) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
}
