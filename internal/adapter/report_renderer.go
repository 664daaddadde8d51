package adapter

import (
	"fmt"

	m "grader.dev/pkg/grader/internal/model"
)

// Report formats understood by NewRenderer.
const (
	FormatHTML = "html"
	FormatText = "text"
)

// ReportRenderer turns aggregated results into a report document.
type ReportRenderer interface {
	RenderResults(report m.ReportContext) (string, error)
	RenderNoTests() (string, error)
	RenderError(report m.ErrorReport) (string, error)
}

// NewRenderer returns the renderer for format. An empty format means HTML.
func NewRenderer(format string, opts RenderOptions) (ReportRenderer, error) {
	switch format {
	case "", FormatHTML:
		renderer, err := NewHTMLRenderer(opts)
		if err != nil {
			return nil, err
		}

		return renderer, nil
	case FormatText:
		return NewTextRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want %s or %s)", format, FormatHTML, FormatText)
	}
}
