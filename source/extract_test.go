package source

import (
	"strings"
	"testing"
)

func TestExtractTextMarkdown(t *testing.T) {
	data := []byte(`# Introduction

This is the introduction paragraph.

## Usage

Run the tool like so:

` + "```go" + `
func main() {}
` + "```" + `

Final thoughts here.
`)

	got, err := ExtractText("guide.md", data)
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}

	for _, want := range []string{
		"Introduction",
		"This is the introduction paragraph.",
		"Usage",
		"func main() {}",
		"Final thoughts here.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("extracted text missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "#") {
		t.Errorf("heading markers leaked into text:\n%s", got)
	}
	if strings.Contains(got, "```") {
		t.Errorf("code fences leaked into text:\n%s", got)
	}
	if !strings.Contains(got, "Introduction\n\n") {
		t.Errorf("blocks are not blank-line separated:\n%s", got)
	}
}

func TestExtractTextMarkdownSoftBreaks(t *testing.T) {
	data := []byte("first line\nsecond line\n")

	got, err := ExtractText("note.markdown", data)
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if !strings.Contains(got, "first line\nsecond line") {
		t.Errorf("soft line break not preserved:\n%q", got)
	}
}

func TestExtractTextHTML(t *testing.T) {
	data := []byte(`<html>
<head><title>Page Title</title><style>body { color: red }</style></head>
<body>
<script>console.log("tracking")</script>
<h1>Welcome</h1>
<p>Visible paragraph text.</p>
<noscript>enable javascript</noscript>
</body>
</html>`)

	got, err := ExtractText("page.html", data)
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}

	if !strings.Contains(got, "Welcome") || !strings.Contains(got, "Visible paragraph text.") {
		t.Errorf("body text missing:\n%s", got)
	}
	for _, dropped := range []string{"console.log", "color: red", "enable javascript", "Page Title"} {
		if strings.Contains(got, dropped) {
			t.Errorf("non-content text %q leaked into extraction:\n%s", dropped, got)
		}
	}
}

func TestExtractTextPlain(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"txt", "readme.txt", "plain text body"},
		{"no extension", "LICENSE", "license text"},
		{"unknown extension", "notes.rst", "restructured text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(tt.file, []byte(tt.data))
			if err != nil {
				t.Fatalf("ExtractText failed: %v", err)
			}
			if got != tt.data {
				t.Errorf("got %q, want %q", got, tt.data)
			}
		})
	}
}

func TestExtractTextInvalidUTF8(t *testing.T) {
	_, err := ExtractText("data.bin", []byte{0xff, 0xfe, 0xfd})
	if err == nil {
		t.Fatal("expected error for invalid UTF-8 input")
	}
	if !strings.Contains(err.Error(), "not valid UTF-8") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExtractTextBadPDF(t *testing.T) {
	_, err := ExtractText("broken.pdf", []byte("this is not a pdf"))
	if err == nil {
		t.Fatal("expected error for malformed PDF")
	}
	if !strings.Contains(err.Error(), "failed to read PDF") {
		t.Errorf("unexpected error: %v", err)
	}
}
