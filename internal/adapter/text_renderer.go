package adapter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	m "grader.dev/pkg/grader/internal/model"
)

const maxMessageWidth = 72

// TextRenderer renders reports as plain-text tables.
type TextRenderer struct{}

// NewTextRenderer creates a TextRenderer.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// RenderResults renders one table per module followed by the totals.
func (r *TextRenderer) RenderResults(report m.ReportContext) (string, error) {
	var buf bytes.Buffer

	for _, module := range report.Modules {
		title := module.Description
		if title == "" {
			title = module.Key
		}

		fmt.Fprintf(&buf, "%s (%s)\n", title, module.Key)

		table := tablewriter.NewWriter(&buf)
		table.SetHeader([]string{"Test", "Outcome", "Message"})
		table.SetBorder(false)
		table.SetCenterSeparator("")
		table.SetAutoWrapText(false)
		table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT})

		for _, result := range module.Results {
			table.Append([]string{result.Description, result.Outcome.String(), firstLine(result.Message)})
		}

		table.SetFooter([]string{
			fmt.Sprintf("%d tests run", module.TestsRun),
			"Points",
			m.FormatPoints(module.Points) + " / " + m.FormatPoints(module.MaxPoints),
		})

		table.Render()
		buf.WriteString("\n")
	}

	fmt.Fprintf(&buf, "Total points: %s / %s (%d tests run)\n",
		m.FormatPoints(report.TotalPoints), m.FormatPoints(report.TotalMaxPoints), report.TotalTestsRun)

	return buf.String(), nil
}

// RenderNoTests reports that nothing was run.
func (r *TextRenderer) RenderNoTests() (string, error) {
	return "No tests were run.\n", nil
}

// RenderError reports a failed grading run.
func (r *TextRenderer) RenderError(report m.ErrorReport) (string, error) {
	if report.Message == "" {
		return fmt.Sprintf("Grading failed: %s\n", report.Type), nil
	}

	return fmt.Sprintf("Grading failed: %s: %s\n", report.Type, report.Message), nil
}

func firstLine(text string) string {
	line, _, more := strings.Cut(strings.TrimSpace(text), "\n")
	if runes := []rune(line); len(runes) > maxMessageWidth {
		return string(runes[:maxMessageWidth-3]) + "..."
	}

	if more {
		return line + " ..."
	}

	return line
}
