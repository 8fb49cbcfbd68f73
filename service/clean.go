package service

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	blankRuns = regexp.MustCompile(`\n\s*\n`)
	spaceRuns = regexp.MustCompile(`[ \t]+`)
)

// CleanText normalizes raw text before chunking or querying: composes
// unicode to NFC, collapses blank-line runs into single paragraph breaks,
// collapses space and tab runs, and trims the ends. Paragraph structure
// survives so the window splitter can still cut on it.
func CleanText(text string) string {
	text = norm.NFC.String(text)
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
