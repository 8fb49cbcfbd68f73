package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlText strips markup from an HTML document, dropping script, style and
// noscript elements the way rendered text would.
func htmlText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	if body := doc.Find("body").First(); body.Length() > 0 {
		return strings.TrimSpace(body.Text()), nil
	}
	return strings.TrimSpace(doc.Text()), nil
}
