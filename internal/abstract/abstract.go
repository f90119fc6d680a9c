// Package abstract pulls the abstract out of a research proposal.
package abstract

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MinLength is the shortest text accepted as an abstract.
	MinLength = 100
	// MaxLength caps the stored abstract, in characters.
	MaxLength = 5000
)

var (
	ErrNoText      = errors.New("no text could be extracted from the proposal")
	ErrNoAbstract  = errors.New("no abstract section found in the proposal")
	ErrTooShort    = errors.New("extracted abstract is shorter than 100 characters")
	ErrUnsupported = errors.New("proposal format is not supported")
)

var (
	// "Abstract", "## Summary:", "**Abstract**: text on the same line"
	abstractHeading = regexp.MustCompile(`(?i)^\s*(?:#{1,6}\s*)?(?:\*\*|__)?\s*(abstract|summary|executive summary|аннотация|резюме)\s*(?:\*\*|__)?\s*(?:[:.\-]\s*(?:\*\*|__)?\s*(.*))?$`)

	// Keywords lines carry their list on the same line; the others stand alone.
	stopHeading = regexp.MustCompile(`(?i)^\s*(?:#{1,6}\s*)?(?:\*\*|__)?\s*(?:(?:keywords|key words|ключевые слова)(?:[\s:].*)?|(?:introduction|background|contents|table of contents|references|введение)\s*(?:\*\*|__)?\s*:?\s*)$`)

	// "1. Introduction", "2.1 Methods"
	numberedHeading = regexp.MustCompile(`^\s*\d+(?:\.\d+)*\.?\s+\p{Lu}`)

	markdownHeading = regexp.MustCompile(`^\s*#{1,6}\s+\S`)

	spaces = regexp.MustCompile(`\s+`)
)

// Extract finds the abstract in the proposal text: the section under an
// abstract heading up to the next heading, or else the first substantial
// paragraph.
func Extract(text string) (string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}

	lines := strings.Split(text, "\n")
	if section, ok := headedSection(lines); ok {
		return finish(section)
	}

	for _, p := range paragraphs(lines) {
		if utf8.RuneCountInString(p) >= MinLength {
			return finish(p)
		}
	}
	return "", ErrNoAbstract
}

func headedSection(lines []string) (string, bool) {
	for i, line := range lines {
		m := abstractHeading.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		body := []string{strings.TrimSpace(m[2])}
		for _, next := range lines[i+1:] {
			if isHeading(next) {
				break
			}
			body = append(body, next)
		}
		return strings.Join(paragraphs(body), "\n\n"), true
	}
	return "", false
}

// maxHeadingLength keeps numbered sentences from being taken for headings.
const maxHeadingLength = 80

func isHeading(line string) bool {
	if stopHeading.MatchString(line) || markdownHeading.MatchString(line) || abstractHeading.MatchString(line) {
		return true
	}
	return numberedHeading.MatchString(line) && utf8.RuneCountInString(strings.TrimSpace(line)) <= maxHeadingLength
}

// paragraphs groups lines separated by blank lines and collapses whitespace.
func paragraphs(lines []string) []string {
	var (
		out []string
		cur []string
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, spaces.ReplaceAllString(strings.Join(cur, " "), " "))
			cur = nil
		}
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

func finish(s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < MinLength {
		return "", ErrTooShort
	}
	return truncate(s, MaxLength), nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
