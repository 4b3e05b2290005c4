// Package ingredient turns raw ingredient-label text into a canonical
// ordered list of ingredient tokens.
package ingredient

import (
	"fmt"
	"regexp"
	"strings"
)

// ParseError is returned when raw text yields no ingredients after
// normalization. Zero *risky* ingredients is a valid success; zero
// ingredients at all is not.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no ingredients found in input (%d bytes)", len(e.Input))
}

var (
	// Separators seen on real labels: comma, semicolon, newline, bullets.
	separatorRe = regexp.MustCompile(`[,;\n\x{2022}\x{00B7}]`)
	// Percentage annotations like "(2%)" or "(min. 30 %)".
	percentRe = regexp.MustCompile(`\s*\([^)]*%[^)]*\)`)
	// Leading list markers like "1." or "2)".
	listMarkerRe = regexp.MustCompile(`^\d+[.)]\s*`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// Normalize splits raw label text into canonical ingredient tokens.
//
// Each token is lower-cased, trimmed, stripped of percentage annotations,
// list markers, and trailing punctuation, with internal whitespace collapsed.
// Duplicates and order are preserved; downstream explanation ordering
// depends on label order. Normalize is idempotent: feeding its own output
// back (joined by commas) yields the same list.
func Normalize(raw string) ([]string, error) {
	parts := separatorRe.Split(raw, -1)

	var out []string
	for _, part := range parts {
		token := normalizeToken(part)
		if token == "" {
			continue
		}
		out = append(out, token)
	}

	if len(out) == 0 {
		return nil, &ParseError{Input: raw}
	}
	return out, nil
}

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = listMarkerRe.ReplaceAllString(s, "")
	s = percentRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.Trim(s, " .:!*-")
	return s
}
