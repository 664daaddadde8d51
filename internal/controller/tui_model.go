package controller

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	m "grader.dev/pkg/grader/internal/model"
)

const maxProgressWidth = 60

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	summaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
)

type groupRow struct {
	key       string
	points    float64
	maxPoints float64
	testsRun  int
	err       error
}

// gradingModel is the Bubble Tea model showing grading progress.
type gradingModel struct {
	runID     string
	total     int
	parallel  int
	running   []string
	completed []groupRow
	summary   *m.ReportContext
	progress  progress.Model
	done      bool
}

func newGradingModel(cfg StartConfig) gradingModel {
	return gradingModel{
		runID:    cfg.runID,
		total:    cfg.totalGroups,
		parallel: cfg.parallel,
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
	}
}

func (gm gradingModel) Init() tea.Cmd {
	return nil
}

func (gm gradingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		gm.progress.Width = min(maxProgressWidth, max(msg.Width-20, 10))
		return gm, nil

	case groupStartedMsg:
		gm.running = append(gm.running, msg.key)
		return gm, nil

	case groupCompletedMsg:
		if i := slices.Index(gm.running, msg.key); i >= 0 {
			gm.running = slices.Delete(gm.running, i, i+1)
		}

		gm.completed = append(gm.completed, groupRow(msg))

		return gm, nil

	case summaryMsg:
		report := msg.report
		gm.summary = &report

		return gm, nil

	case doneMsg:
		gm.done = true
		return gm, tea.Quit
	}

	return gm, nil
}

func (gm gradingModel) percent() float64 {
	if gm.total == 0 {
		return 0
	}

	return float64(len(gm.completed)) / float64(gm.total)
}

func (gm gradingModel) View() string {
	var b strings.Builder

	title := "Grading"
	if gm.runID != "" {
		title += " " + gm.runID
	}

	b.WriteString(titleStyle.Render(title))
	fmt.Fprintf(&b, "\n%s %d/%d groups, %d worker(s)\n\n", gm.progress.ViewAs(gm.percent()), len(gm.completed), gm.total, gm.parallel)

	for _, row := range gm.completed {
		b.WriteString(renderRow(row))
		b.WriteString("\n")
	}

	if !gm.done {
		for _, key := range gm.running {
			b.WriteString(runningStyle.Render("  ▸ " + key + " running"))
			b.WriteString("\n")
		}
	}

	if gm.summary != nil {
		fmt.Fprintf(&b, "\n%s\n", summaryStyle.Render(fmt.Sprintf("Total points: %s / %s (%d tests run)",
			m.FormatPoints(gm.summary.TotalPoints), m.FormatPoints(gm.summary.TotalMaxPoints), gm.summary.TotalTestsRun)))
	}

	return b.String()
}

func renderRow(row groupRow) string {
	if row.err != nil {
		return failStyle.Render(fmt.Sprintf("  ✗ %s error: %v", row.key, row.err))
	}

	line := fmt.Sprintf("  ✓ %s %s / %s points (%d tests run)",
		row.key, m.FormatPoints(row.points), m.FormatPoints(row.maxPoints), row.testsRun)

	switch {
	case row.points >= row.maxPoints:
		return passStyle.Render(line)
	case row.points > 0:
		return partialStyle.Render(line)
	default:
		return failStyle.Render(line)
	}
}
