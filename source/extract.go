package source

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ExtractText converts raw document bytes into plain text. The format is
// chosen by file extension; anything unrecognized is treated as UTF-8
// plain text.
func ExtractText(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".mdx", ".markdown":
		return markdownText(data)
	case ".html", ".htm":
		return htmlText(data)
	case ".pdf":
		return pdfText(data)
	default:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s is not valid UTF-8 text", name)
		}
		return string(data), nil
	}
}
