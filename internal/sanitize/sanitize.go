// Package sanitize transforms raw failure and error text into text that is
// safe and readable for students.
package sanitize

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	m "grader.dev/pkg/grader/internal/model"
)

// DefaultRepeatThreshold is the number of repeated lines shown before the
// rest of a repeating run is hidden.
const DefaultRepeatThreshold = 20

const assertionMarker = "AssertionError: "

// DefaultCollapseMarkers trigger collapsing in CollapseTraceback.
var DefaultCollapseMarkers = []string{"RecursionError", "MemoryError"}

// CollapseRepeatedLines hides the tail of runs of repeated lines.
//
// A line already seen in the current run increments a repeat counter, a new
// line resets it. Once the counter exceeds repeatThreshold, lines are dropped
// until a new line shows up and a single placeholder line reporting the number
// of dropped lines is written in their place. The placeholder is only used
// when it is shorter than the lines it replaces, otherwise the dropped lines
// are written back unchanged. Only a placeholder-sized prefix of a run is held
// back for that decision, and the set of seen lines is cleared after every
// run, so memory is bounded by the lines of the active run.
func CollapseRepeatedLines(text string, repeatThreshold int) string {
	if repeatThreshold < 0 {
		repeatThreshold = 0
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	seen := make(map[string]struct{})
	repeats := 0

	var (
		hidden      int
		hiddenBytes int
		pending     []string
		collapsed   bool
	)

	flush := func() {
		if collapsed {
			out = append(out, hiddenLinesPlaceholder(hidden))
		} else {
			out = append(out, pending...)
		}

		hidden, hiddenBytes = 0, 0
		pending = pending[:0]
		collapsed = false
	}

	for _, line := range lines {
		if _, ok := seen[line]; ok {
			repeats++
		} else {
			if hidden > 0 {
				flush()
				clear(seen)
			}

			repeats = 0
			seen[line] = struct{}{}
		}

		if repeats > repeatThreshold {
			hidden++

			if !collapsed {
				pending = append(pending, line)
				hiddenBytes += len(line) + 1

				// Each further hidden line saves at least one byte, which
				// outgrows the placeholder's digit count.
				if hiddenBytes > len(hiddenLinesPlaceholder(hidden))+1 {
					collapsed = true
					pending = pending[:0]
				}
			}

			continue
		}

		out = append(out, line)
	}

	if hidden > 0 {
		flush()
	}

	return strings.Join(out, "\n")
}

func hiddenLinesPlaceholder(count int) string {
	return fmt.Sprintf("  ... and %d more hidden lines ...", count)
}

// CollapseTraceback collapses repeated lines when the text comes from a
// recursion or memory error and returns it unchanged otherwise.
func CollapseTraceback(text string) string {
	return CollapseTracebackWith(text, DefaultCollapseMarkers, DefaultRepeatThreshold)
}

// CollapseTracebackWith is CollapseTraceback with a custom marker list and threshold.
func CollapseTracebackWith(text string, markers []string, repeatThreshold int) string {
	for _, marker := range markers {
		if marker != "" && strings.Contains(text, marker) {
			return CollapseRepeatedLines(text, repeatThreshold)
		}
	}

	return text
}

// HideExceptionTraceback replaces every traceback caused by one of
// exceptionNames with replacement followed by the exception name.
//
// A span starts at a line beginning with the traceback header and ends at the
// first later line beginning with one of exceptionNames. If stripFieldCount is
// positive, up to that many ':'-terminated fields and one whitespace character
// are dropped right after the replacement, e.g. with 2:
//
//	"AssertionError : True is not False : no it isn't" -> "no it isn't"
func HideExceptionTraceback(text string, exceptionNames []string, stripFieldCount int, replacement string) string {
	return hideTraceback(text, m.DefaultTracebackHeader, exceptionNames, stripFieldCount, replacement)
}

// HideWith returns a function applying cfg to a text. A nil cfg hides nothing.
func HideWith(cfg *m.HideConfig) func(string) string {
	if cfg == nil {
		return func(s string) string { return s }
	}

	header := cfg.Header()
	names := append([]string(nil), cfg.ClassNames...)

	return func(s string) string {
		return hideTraceback(s, header, names, cfg.LeftStripFields, cfg.ReplacementString)
	}
}

func hideTraceback(text, header string, exceptionNames []string, stripFieldCount int, replacement string) string {
	names := make([]string, 0, len(exceptionNames))
	for _, name := range exceptionNames {
		if name != "" {
			names = append(names, name)
		}
	}

	if len(names) == 0 || header == "" || !strings.Contains(text, header) {
		return text
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	// Terminal lines are searched in a suffix of the text, so once one header
	// has no terminal line no later header can have one either.
	searching := true

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !searching || !strings.HasPrefix(line, header) {
			out = append(out, line)
			continue
		}

		offset := findTerminalLine(lines[i+1:], names)
		if offset < 0 {
			searching = false

			out = append(out, line)

			continue
		}

		terminal := lines[i+1+offset]
		out = append(out, replacement+stripFields(terminal, stripFieldCount))
		i += 1 + offset
	}

	return strings.Join(out, "\n")
}

// findTerminalLine returns the index of the first line starting with one of names.
func findTerminalLine(lines []string, names []string) int {
	for i, line := range lines {
		for _, name := range names {
			if strings.HasPrefix(line, name) {
				return i
			}
		}
	}

	return -1
}

func stripFields(s string, count int) string {
	if count <= 0 {
		return s
	}

	for range count {
		idx := strings.IndexByte(s, ':')
		if idx < 0 {
			break
		}

		s = s[idx+1:]
	}

	if r, size := utf8.DecodeRuneInString(s); size > 0 && unicode.IsSpace(r) {
		s = s[size:]
	}

	return s
}

// ParseAssertionMessage returns the text after the first "AssertionError: ".
// When splitAt is not empty, the result is cut before its first occurrence.
// Missing markers leave the text as is.
func ParseAssertionMessage(text, splitAt string) string {
	if _, after, found := strings.Cut(text, assertionMarker); found {
		text = after
	}

	if splitAt != "" {
		if before, _, found := strings.Cut(text, splitAt); found {
			text = before
		}
	}

	return text
}
