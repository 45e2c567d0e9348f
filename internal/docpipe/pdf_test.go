package docpipe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStreamText(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "Tj operator",
			stream: "BT\n(Seared Salmon) Tj\nET",
			want:   "Seared Salmon",
		},
		{
			name:   "TJ array operator",
			stream: "[(Seared) -250 (Salmon)] TJ",
			want:   "SearedSalmon",
		},
		{
			name:   "Td inserts space between runs",
			stream: "(Seared Salmon) Tj\n1 0 0 1 72 700 Td\n(Chef Maria Lopez) Tj",
			want:   "Seared Salmon Chef Maria Lopez",
		},
		{
			name:   "quote operator starts new line",
			stream: "(Ingredients:) Tj\n(salmon 170g) '",
			want:   "Ingredients:\nsalmon 170g",
		},
		{
			name:   "escaped newline inside literal",
			stream: `(Salmon\nRice) Tj`,
			want:   "Salmon\nRice",
		},
		{
			name:   "octal escapes",
			stream: `(A\040B) Tj`,
			want:   "A B",
		},
		{
			name:   "non-text operators ignored",
			stream: "q\n1 0 0 1 0 0 cm\nBT\n/F1 12 Tf\n(text) Tj\nET\nQ",
			want:   "text",
		},
		{
			name:   "empty stream",
			stream: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := streamText([]byte(tt.stream))
			if got != tt.want {
				t.Errorf("streamText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`tab\there`, "tab\there"},
		{`line\nbreak`, "line\nbreak"},
		{`back\\slash`, "back\\slash"},
		{`\050paren\051`, "(paren)"},
		{`\101`, "A"},
		{`trailing\`, "trailing\\"},
	}

	for _, tt := range tests {
		got := decodeLiteral([]byte(tt.in))
		if got != tt.want {
			t.Errorf("decodeLiteral(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTidy(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello   world  ", "hello world"},
		{"a\t\tb", "a b"},
		{"line\nbreak", "line\nbreak"},
		{"", ""},
		{"ctrl\x00char", "ctrlchar"},
	}

	for _, tt := range tests {
		got := tidy(tt.in)
		if got != tt.want {
			t.Errorf("tidy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtract_MissingFile(t *testing.T) {
	p := NewPDFExtractor()

	_, err := p.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	if err == nil {
		t.Fatal("Extract() error = nil, want error for missing file")
	}
}

func TestExtract_CorruptFile(t *testing.T) {
	// A non-PDF file must produce an error, never a panic.
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPDFExtractor()
	_, err := p.Extract(context.Background(), path)
	if err == nil {
		t.Fatal("Extract() error = nil, want error for corrupt file")
	}
}
