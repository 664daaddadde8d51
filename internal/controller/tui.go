package controller

import (
	"context"
	"io"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	m "grader.dev/pkg/grader/internal/model"
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output  io.Writer
	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	started bool
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the Bubble Tea program in the background.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.startWithModel(newGradingModel(newStartConfig(options)))
}

func (t *TUI) startWithModel(model tea.Model) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return nil
	}

	t.program = tea.NewProgram(model,
		tea.WithOutput(t.output),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	t.done = make(chan struct{})
	t.started = true

	go func() {
		defer close(t.done)

		if _, err := t.program.Run(); err != nil {
			slog.Error("progress display stopped", "error", err)
		}
	}()

	return nil
}

func (t *TUI) send(msg tea.Msg) {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program == nil {
		return
	}

	program.Send(msg)
}

// Close stops the program and waits until its final frame is written.
func (t *TUI) Close(ctx context.Context) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return
	}

	t.send(doneMsg{})

	select {
	case <-done:
	case <-ctx.Done():
		t.program.Kill()
		<-done
	}
}

// DisplayGroupStarted marks a group as running.
func (t *TUI) DisplayGroupStarted(_ context.Context, group m.TestGroup, index int) {
	t.send(groupStartedMsg{key: group.Key, index: index})
}

// DisplayGroupCompleted records a finished group.
func (t *TUI) DisplayGroupCompleted(_ context.Context, group m.TestGroup, set m.ScoredResultSet, err error) {
	t.send(groupCompletedMsg{
		key:       group.Key,
		points:    set.Points,
		maxPoints: set.MaxPoints,
		testsRun:  set.TestsRun,
		err:       err,
	})
}

// DisplaySummary shows the total score.
func (t *TUI) DisplaySummary(_ context.Context, report m.ReportContext) {
	t.send(summaryMsg{report: report})
}
