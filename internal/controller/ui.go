// Package controller displays the progress of a grading run.
package controller

import (
	"context"

	m "grader.dev/pkg/grader/internal/model"
)

// StartOption is a functional option for the Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	runID       string
	totalGroups int
	parallel    int
}

// WithRunID sets the identifier shown for the run.
func WithRunID(id string) StartOption {
	return func(c *StartConfig) {
		c.runID = id
	}
}

// WithTotalGroups sets the number of test groups that will be run.
func WithTotalGroups(n int) StartOption {
	return func(c *StartConfig) {
		c.totalGroups = n
	}
}

// WithParallel sets the number of groups run at the same time.
func WithParallel(n int) StartOption {
	return func(c *StartConfig) {
		c.parallel = n
	}
}

func newStartConfig(options []StartOption) StartConfig {
	cfg := StartConfig{parallel: 1}
	for _, option := range options {
		option(&cfg)
	}

	if cfg.parallel < 1 {
		cfg.parallel = 1
	}

	return cfg
}

// UI defines the interface for reporting grading progress.
// Implementations can use different output methods (simple text, TUI, etc).
// Display methods may be called from several goroutines.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	DisplayGroupStarted(ctx context.Context, group m.TestGroup, index int)
	DisplayGroupCompleted(ctx context.Context, group m.TestGroup, set m.ScoredResultSet, err error)
	DisplaySummary(ctx context.Context, report m.ReportContext)
}
