// Package docpipe extracts plain text from source PDF documents using
// pdfcpu. It is the text-extraction collaborator of the pipeline: corrupt
// or textless documents produce errors, never panics, and the caller
// decides what a failure means.
package docpipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFExtractor reads PDF content streams and reassembles their text
// operators into plain text, one page after another.
type PDFExtractor struct {
	conf *model.Configuration
}

// NewPDFExtractor returns an extractor with the default pdfcpu
// configuration (relaxed validation, which tolerates the slightly
// malformed PDFs recipe authors tend to produce).
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{conf: model.NewDefaultConfiguration()}
}

// Extract returns the document's text with pages joined by newlines.
// It honors ctx cancellation between pages.
func (p *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, p.conf)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	var pages []string
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if text := pageText(pdfCtx, pageNr); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return "", fmt.Errorf("%s: no text content found", path)
	}
	return strings.Join(pages, "\n"), nil
}

// pageText extracts one page's text from its content stream. Pages whose
// stream cannot be read contribute nothing rather than failing the
// document.
func pageText(pdfCtx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return streamText(data)
}

// literalRe matches PDF string literals: (text here)
var literalRe = regexp.MustCompile(`\(([^)]*)\)`)

// streamText walks the content stream line by line and collects the text
// shown by the Tj, TJ and ' operators, inserting whitespace for the
// positioning operators Td/TD/T*.
func streamText(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			appendLiterals(&sb, line, false)
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			appendLiterals(&sb, line, true)
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return tidy(sb.String())
}

// appendLiterals decodes every string literal on the line into sb.
func appendLiterals(sb *strings.Builder, line []byte, newline bool) {
	for _, m := range literalRe.FindAllSubmatch(line, -1) {
		text := decodeLiteral(m[1])
		if text == "" {
			continue
		}
		if newline {
			sb.WriteByte('\n')
		}
		sb.WriteString(text)
	}
}

// decodeLiteral handles the PDF string escape sequences, including octal
// escapes like \040.
func decodeLiteral(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// tidy collapses whitespace runs and drops non-printable runes.
func tidy(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			sb.WriteByte('\n')
			prevSpace = true
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
