// Package ingest turns submitted label documents (plain text, PDF, HTML)
// into analyzable ingredient text and processes queued label jobs.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// Format identifies how a submitted label document is encoded.
type Format string

const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// DetectFormat guesses the document format from the file extension.
// Unknown extensions are treated as plain text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatText
	}
}

// ExtractText reads a label document and returns its plain text content.
func ExtractText(path string) (string, error) {
	switch DetectFormat(path) {
	case FormatPDF:
		return extractPDF(path)
	case FormatHTML:
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("opening html label: %w", err)
		}
		defer f.Close()
		return ExtractHTML(f)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading label: %w", err)
		}
		return string(data), nil
	}
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf label: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}

// ExtractHTML strips markup and returns the visible text of an HTML
// document, with script and style contents dropped.
func ExtractHTML(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var b strings.Builder
	skipDepth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return b.String(), nil
			}
			return "", fmt.Errorf("parsing html label: %w", z.Err())

		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skipDepth++
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skipDepth > 0 {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := strings.TrimSpace(string(z.Text()))
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(text)
		}
	}
}

// IngredientsSection isolates the ingredient list from a full label text.
// Labels typically prefix the list with "Ingredients:"; when no such marker
// exists the whole text is returned and the normalizer sorts it out.
func IngredientsSection(text string) string {
	lower := strings.ToLower(text)
	for _, marker := range []string{"ingredients:", "composition:", "ingredients"} {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		section := text[idx+len(marker):]
		// Cut at the next labeled section if one follows.
		if end := nextSectionStart(strings.ToLower(section)); end > 0 {
			section = section[:end]
		}
		return strings.TrimSpace(section)
	}
	return strings.TrimSpace(text)
}

func nextSectionStart(lower string) int {
	best := -1
	for _, heading := range []string{"directions:", "warnings:", "nutrition facts", "storage:"} {
		if idx := strings.Index(lower, heading); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}
