package sanitize

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "grader.dev/pkg/grader/internal/model"
)

// longLine is longer than any hidden-lines placeholder.
var longLine = strings.Repeat("z", 40)

const valueErrorTraceback = "Traceback (most recent call last):\n  File x\nValueError: bad thing"

func recursionTraceback(frames int) string {
	var b strings.Builder

	b.WriteString("Traceback (most recent call last):\n")

	for range frames {
		b.WriteString("  File \"solution.py\", line 3, in recurse\n")
		b.WriteString("    return recurse(n - 1)\n")
	}

	b.WriteString("RecursionError: maximum recursion depth exceeded")

	return b.String()
}

func TestCollapseTraceback_WithoutMarkerIsUnchanged(t *testing.T) {
	text := strings.Repeat("same line\n", 500)
	assert.Equal(t, text, CollapseTraceback(text))
}

func TestCollapseTraceback_RecursionError(t *testing.T) {
	got := CollapseTraceback(recursionTraceback(100))
	lines := strings.Split(got, "\n")

	// header, two new frame lines, 20 repeats, placeholder, final line
	require.Len(t, lines, 25)
	assert.Equal(t, "Traceback (most recent call last):", lines[0])
	assert.Equal(t, "  ... and 178 more hidden lines ...", lines[23])
	assert.Equal(t, "RecursionError: maximum recursion depth exceeded", lines[24])
}

func TestCollapseTraceback_MemoryError(t *testing.T) {
	text := "MemoryError\n" + strings.Repeat("frame\n", 50) + "end"
	got := CollapseTraceback(text)

	assert.Contains(t, got, "and 29 more hidden lines")
	assert.Less(t, len(got), len(text))
}

func TestCollapseRepeatedLines(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		threshold int
		want      string
	}{
		{
			name:      "empty",
			text:      "",
			threshold: 20,
			want:      "",
		},
		{
			name:      "short run is kept",
			text:      "a\na\na\nb",
			threshold: 2,
			want:      "a\na\na\nb",
		},
		{
			name:      "run followed by new line",
			text:      strings.Repeat("x\n", 30),
			threshold: 5,
			want:      strings.Repeat("x\n", 6) + "  ... and 24 more hidden lines ...\n",
		},
		{
			name:      "run at end of text",
			text:      strings.Repeat(longLine+"\n", 3) + longLine,
			threshold: 1,
			want:      longLine + "\n" + longLine + "\n  ... and 2 more hidden lines ...",
		},
		{
			name:      "negative threshold behaves like zero",
			text:      strings.Repeat(longLine+"\n", 3) + "b",
			threshold: -3,
			want:      longLine + "\n  ... and 2 more hidden lines ...\nb",
		},
		{
			name:      "alternating lines count as one run",
			text:      strings.Repeat("a\nb\n", 30) + "c",
			threshold: 2,
			want:      "a\nb\na\nb\n  ... and 56 more hidden lines ...\nc",
		},
		{
			name:      "seen lines reset after a collapse",
			text:      strings.Repeat(longLine+"\n", 3) + "b\n" + longLine + "\n" + longLine,
			threshold: 1,
			want:      longLine + "\n" + longLine + "\n  ... and 1 more hidden lines ...\nb\n" + longLine + "\n" + longLine,
		},
		{
			name:      "short overflow at end of text is kept",
			text:      "a\na\na\na",
			threshold: 1,
			want:      "a\na\na\na",
		},
		{
			name:      "short overflow before new line is kept",
			text:      "a\nb\na\nb\na\nb\nc",
			threshold: 2,
			want:      "a\nb\na\nb\na\nb\nc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CollapseRepeatedLines(tt.text, tt.threshold))
		})
	}
}

func TestCollapseTraceback_NeverGrowsOnShortOverflow(t *testing.T) {
	for k := 1; k <= 4; k++ {
		t.Run(fmt.Sprintf("overflow %d", k), func(t *testing.T) {
			text := "RecursionError\n" + strings.Repeat("f()\n", 21+k) + "end"

			got := CollapseTraceback(text)
			assert.Equal(t, text, got)
			assert.NotContains(t, got, "more hidden lines")
		})
	}

	text := "RecursionError\n" + strings.Repeat("f()\n", 121) + "end"
	got := CollapseTraceback(text)

	assert.Contains(t, got, "  ... and 100 more hidden lines ...")
	assert.Less(t, len(got), len(text))
}

func TestCollapseRepeatedLines_PlaceholderOnlyWhenShorter(t *testing.T) {
	// Eight hidden "abc" lines take 32 bytes, less than the 34-byte placeholder line.
	text := strings.Repeat("abc\n", 9) + "end"
	assert.Equal(t, text, CollapseRepeatedLines(text, 0))

	text = strings.Repeat("abc\n", 10) + "end"
	assert.Equal(t, "abc\n  ... and 9 more hidden lines ...\nend", CollapseRepeatedLines(text, 0))
}

func TestCollapseRepeatedLines_IsIdempotent(t *testing.T) {
	once := CollapseRepeatedLines(recursionTraceback(300), DefaultRepeatThreshold)
	assert.Equal(t, once, CollapseRepeatedLines(once, DefaultRepeatThreshold))
}

func TestCollapseTracebackWith_CustomMarkers(t *testing.T) {
	text := "fatal error: stack overflow\n" + strings.Repeat("main.f(...)\n", 10)

	assert.Equal(t, text, CollapseTraceback(text))
	assert.Contains(t, CollapseTracebackWith(text, []string{"stack overflow"}, 3), "and 6 more hidden lines")
	assert.Equal(t, text, CollapseTracebackWith(text, []string{""}, 3))
}

func TestHideExceptionTraceback(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		names       []string
		strip       int
		replacement string
		want        string
	}{
		{
			name:        "replaces span",
			text:        valueErrorTraceback,
			names:       []string{"ValueError"},
			replacement: "[HIDDEN]",
			want:        "[HIDDEN]ValueError: bad thing",
		},
		{
			name:        "strips one field",
			text:        valueErrorTraceback,
			names:       []string{"ValueError"},
			strip:       1,
			replacement: "[HIDDEN]",
			want:        "[HIDDEN]bad thing",
		},
		{
			name:        "strips two fields",
			text:        "Traceback (most recent call last):\n  File x\nAssertionError : True is not False : no it isn't",
			names:       []string{"AssertionError"},
			strip:       2,
			replacement: "",
			want:        "no it isn't",
		},
		{
			name:        "strip count larger than fields",
			text:        valueErrorTraceback,
			names:       []string{"ValueError"},
			strip:       5,
			replacement: "> ",
			want:        "> bad thing",
		},
		{
			name:        "empty names is identity",
			text:        valueErrorTraceback,
			names:       nil,
			strip:       1,
			replacement: "[HIDDEN]",
			want:        valueErrorTraceback,
		},
		{
			name:        "other exception is kept",
			text:        "Traceback (most recent call last):\n  File x\nKeyError: 'k'",
			names:       []string{"ValueError"},
			replacement: "[HIDDEN]",
			want:        "Traceback (most recent call last):\n  File x\nKeyError: 'k'",
		},
		{
			name:        "stops at first terminal line",
			text:        valueErrorTraceback + "\nValueError: second",
			names:       []string{"ValueError"},
			replacement: "[HIDDEN]",
			want:        "[HIDDEN]ValueError: bad thing\nValueError: second",
		},
		{
			name: "multiple spans with surrounding text",
			text: "before\n" + valueErrorTraceback + "\nbetween\n" +
				"Traceback (most recent call last):\n  File y\n    raise TypeError\nTypeError: nope\nafter",
			names:       []string{"ValueError", "TypeError"},
			replacement: "-",
			want:        "before\n-ValueError: bad thing\nbetween\n-TypeError: nope\nafter",
		},
		{
			name:        "nested header is swallowed by the outer span",
			text:        "Traceback (most recent call last):\n  File a\nTraceback (most recent call last):\n  File b\nValueError: inner",
			names:       []string{"ValueError"},
			replacement: "[HIDDEN]",
			want:        "[HIDDEN]ValueError: inner",
		},
		{
			name:        "carriage returns are kept",
			text:        "Traceback (most recent call last):\r\n  File x\r\nValueError: bad\r\nnext",
			names:       []string{"ValueError"},
			replacement: "#",
			want:        "#ValueError: bad\r\nnext",
		},
		{
			name:        "header must start a line",
			text:        "see Traceback (most recent call last):\nValueError: bad",
			names:       []string{"ValueError"},
			replacement: "#",
			want:        "see Traceback (most recent call last):\nValueError: bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HideExceptionTraceback(tt.text, tt.names, tt.strip, tt.replacement)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHideExceptionTraceback_RemovesTracebackWord(t *testing.T) {
	got := HideExceptionTraceback(valueErrorTraceback, []string{"ValueError"}, 0, "[HIDDEN]")

	assert.Contains(t, got, "[HIDDEN]ValueError: bad thing")
	assert.NotContains(t, got, "Traceback")
}

func TestHideExceptionTraceback_SpanRunsToFirstHiddenException(t *testing.T) {
	text := "Traceback (most recent call last):\n  File x\nKeyError: 1\n" + valueErrorTraceback
	got := HideExceptionTraceback(text, []string{"ValueError"}, 0, "#")

	assert.Equal(t, "#ValueError: bad thing", got)
}

func TestHideWith(t *testing.T) {
	t.Run("nil config is identity", func(t *testing.T) {
		assert.Equal(t, valueErrorTraceback, HideWith(nil)(valueErrorTraceback))
	})

	t.Run("uses config values", func(t *testing.T) {
		hide := HideWith(&m.HideConfig{
			ClassNames:        []string{"ValueError"},
			LeftStripFields:   1,
			ReplacementString: "Error: ",
		})

		assert.Equal(t, "Error: bad thing", hide(valueErrorTraceback))
	})

	t.Run("custom traceback header", func(t *testing.T) {
		hide := HideWith(&m.HideConfig{
			ClassNames:        []string{"panic: grader"},
			ReplacementString: "",
			LeftStripFields:   1,
			TracebackHeader:   "--- FAIL",
		})

		got := hide("--- FAIL: TestAdd (0.00s)\n    add_test.go:12\npanic: grader: wrong sum")
		assert.Equal(t, "grader: wrong sum", got)
	})
}

func TestParseAssertionMessage(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		splitAt string
		want    string
	}{
		{"marker", "Traceback...\nAssertionError: expected 1 got 2", "", "expected 1 got 2"},
		{"marker and split", "...AssertionError: expected 1 got 2", " got", "expected 1"},
		{"no marker", "plain failure", "", "plain failure"},
		{"split without marker", "value was 3, want 4", ", want", "value was 3"},
		{"split not found", "...AssertionError: expected 1", " got", "expected 1"},
		{"only first marker", "AssertionError: a AssertionError: b", "", "a AssertionError: b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAssertionMessage(tt.text, tt.splitAt))
		})
	}
}

func ExampleHideExceptionTraceback() {
	fmt.Println(HideExceptionTraceback(valueErrorTraceback, []string{"ValueError"}, 1, "[HIDDEN]"))
	// Output: [HIDDEN]bad thing
}
