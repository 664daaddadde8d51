package controller

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	m "grader.dev/pkg/grader/internal/model"
)

// SimpleUI implements UI by printing plain lines to the command's output.
type SimpleUI struct {
	cmd *cobra.Command
	mu  sync.Mutex
	cfg StartConfig
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd, cfg: newStartConfig(nil)}
}

// Start prints the run header.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = newStartConfig(options)
	s.mu.Unlock()

	if s.cfg.runID != "" {
		s.printf("Grading run %s: %d test group(s), %d worker(s)\n", s.cfg.runID, s.cfg.totalGroups, s.cfg.parallel)
	} else {
		s.printf("Grading %d test group(s) with %d worker(s)\n", s.cfg.totalGroups, s.cfg.parallel)
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// DisplayGroupStarted prints the group being started.
func (s *SimpleUI) DisplayGroupStarted(ctx context.Context, group m.TestGroup, index int) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Running %s (%d/%d)\n", group.Key, index+1, s.cfg.totalGroups)
}

// DisplayGroupCompleted prints the score of a finished group.
func (s *SimpleUI) DisplayGroupCompleted(ctx context.Context, group m.TestGroup, set m.ScoredResultSet, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return
	}

	if err != nil {
		s.printf("Completed %s -> engine error: %v\n", group.Key, err)
		return
	}

	s.printf("Completed %s -> %s / %s points (%d tests run)\n",
		group.Key, m.FormatPoints(set.Points), m.FormatPoints(set.MaxPoints), set.TestsRun)
}

// DisplaySummary prints a table of module scores.
func (s *SimpleUI) DisplaySummary(ctx context.Context, report m.ReportContext) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("\n%s", renderSummaryTable(report))
}

func renderSummaryTable(report m.ReportContext) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Group", "Tests", "Points"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_RIGHT})

	for _, module := range report.Modules {
		table.Append([]string{
			module.Key,
			fmt.Sprintf("%d", module.TestsRun),
			m.FormatPoints(module.Points) + " / " + m.FormatPoints(module.MaxPoints),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Groups %d", len(report.Modules)),
		fmt.Sprintf("%d", report.TotalTestsRun),
		m.FormatPoints(report.TotalPoints) + " / " + m.FormatPoints(report.TotalMaxPoints),
	})

	table.Render()

	return tableBuffer.String()
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
