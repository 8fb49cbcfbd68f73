package service

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"space runs", "too   many    spaces", "too many spaces"},
		{"tabs", "tabs\t\tbetween\twords", "tabs between words"},
		{"blank line runs", "para one\n\n\n\npara two", "para one\n\npara two"},
		{"whitespace-only blank lines", "para one\n \t\npara two", "para one\n\npara two"},
		{"trim", "  \n padded text \n\n", "padded text"},
		{"single newlines kept", "line one\nline two", "line one\nline two"},
		{"nfc composition", "Café", "Café"},
		{"only whitespace", " \n\t \n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
