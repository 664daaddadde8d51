package controller

import m "grader.dev/pkg/grader/internal/model"

// Message types.
type groupStartedMsg struct {
	key   string
	index int
}

type groupCompletedMsg struct {
	key       string
	points    float64
	maxPoints float64
	testsRun  int
	err       error
}

type summaryMsg struct {
	report m.ReportContext
}

type doneMsg struct{}
