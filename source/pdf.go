package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// Text elements within this vertical distance are treated as one row.
	pdfRowTolerance = 2.0
	// Horizontal gap beyond which a space is inserted between elements.
	pdfWordGap = 1.0
)

// pdfText extracts text page by page. Elements are grouped into rows by
// their Y position so reading order roughly follows the page layout.
func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	var pages []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		if text := pageText(page); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

func pageText(page pdf.Page) string {
	content := page.Content()
	if len(content.Text) == 0 {
		return ""
	}

	var buf strings.Builder
	prev := content.Text[0]
	buf.WriteString(prev.S)
	for _, t := range content.Text[1:] {
		switch {
		case t.Y-prev.Y > pdfRowTolerance || prev.Y-t.Y > pdfRowTolerance:
			buf.WriteByte('\n')
		case t.X-(prev.X+prev.W) > pdfWordGap &&
			!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " "):
			buf.WriteByte(' ')
		}
		buf.WriteString(t.S)
		prev = t
	}
	return strings.TrimSpace(buf.String())
}
