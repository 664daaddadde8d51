// Package adapter connects the grader to the outside world: test engines,
// configuration files, saved reports and report rendering.
package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	m "grader.dev/pkg/grader/internal/model"
)

// DefaultGroupTimeout bounds a single test group run when neither the group
// nor the adapter sets a timeout.
const DefaultGroupTimeout = 2 * time.Minute

// TestRunnerAdapter executes one test group and reports its scored result.
type TestRunnerAdapter interface {
	// Run executes the group's tests. Failing tests are not an error; an
	// error means the engine itself could not produce a result.
	Run(ctx context.Context, group m.TestGroup) (m.ScoredResultSet, error)
}

// LocalTestRunnerAdapter runs test groups as local processes.
type LocalTestRunnerAdapter struct {
	timeout  time.Duration
	goBinary string
}

// NewLocalTestRunnerAdapter constructs a LocalTestRunnerAdapter. A zero
// timeout selects DefaultGroupTimeout.
func NewLocalTestRunnerAdapter(timeout time.Duration) *LocalTestRunnerAdapter {
	if timeout <= 0 {
		timeout = DefaultGroupTimeout
	}

	return &LocalTestRunnerAdapter{
		timeout:  timeout,
		goBinary: "go",
	}
}

// Run dispatches the group to its engine under the group's deadline.
func (a *LocalTestRunnerAdapter) Run(ctx context.Context, group m.TestGroup) (m.ScoredResultSet, error) {
	timeout := group.Timeout
	if timeout <= 0 {
		timeout = a.timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch group.EngineOrDefault() {
	case m.EngineGoTest:
		return a.runGoTest(ctx, group, timeout)
	case m.EngineCommand:
		return runCommand(ctx, group)
	default:
		return m.ScoredResultSet{}, fmt.Errorf("test group %q: unknown engine %q", group.Key, group.Engine)
	}
}

func (a *LocalTestRunnerAdapter) runGoTest(ctx context.Context, group m.TestGroup, timeout time.Duration) (m.ScoredResultSet, error) {
	pkg := group.Package
	if pkg == "" {
		pkg = "./..."
	}

	cmd := exec.CommandContext(ctx, a.goBinary, "test", "-json", "-count=1", pkg)
	cmd.Dir = group.Dir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running go test", "group", group.Key, "dir", group.Dir, "package", pkg)

	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) && ctx.Err() == nil {
			slog.Error("failed to start go test", "group", group.Key, "error", runErr)
			return m.ScoredResultSet{}, fmt.Errorf("run go test for group %q: %w", group.Key, runErr)
		}
	}

	parser := NewGoTestParser(group)
	if err := parser.Parse(&stdout); err != nil {
		return m.ScoredResultSet{}, fmt.Errorf("parse go test output for group %q: %w", group.Key, err)
	}

	parser.AddConsoleOutput(stderr.String())

	if ctx.Err() != nil {
		slog.Warn("go test timed out", "group", group.Key, "timeout", timeout)
		parser.MarkUnfinished(fmt.Sprintf("test run timed out after %s", timeout))
	}

	return parser.Result(), nil
}
