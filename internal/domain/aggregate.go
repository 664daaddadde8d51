// Package domain contains the grading logic: aggregating scored results and
// orchestrating a grading run.
package domain

import (
	"slices"

	m "grader.dev/pkg/grader/internal/model"
	"grader.dev/pkg/grader/internal/sanitize"
)

// Aggregator turns scored result sets into render-ready contexts.
// The zero value hides nothing and collapses with the default markers;
// CollapseMarkers are added to the defaults.
type Aggregator struct {
	Hide            *m.HideConfig
	CollapseMarkers []string
	RepeatThreshold int
}

// NewAggregator builds an Aggregator from a test config.
func NewAggregator(cfg m.TestConfig) Aggregator {
	agg := Aggregator{Hide: cfg.ExceptionsToHide}

	if cfg.Collapse != nil {
		agg.CollapseMarkers = cfg.Collapse.Markers
		agg.RepeatThreshold = cfg.Collapse.RepeatThreshold
	}

	return agg
}

// NormalizeResult sanitizes one result set with the default collapse settings.
func NormalizeResult(set m.ScoredResultSet, hide *m.HideConfig) m.ModuleContext {
	return Aggregator{Hide: hide}.Normalize(set)
}

// AggregateReports normalizes all sets, in order, and sums their totals.
func AggregateReports(sets []m.ScoredResultSet, hide *m.HideConfig) m.ReportContext {
	return Aggregator{Hide: hide}.Aggregate(sets)
}

// Normalize converts one result set into a module context. The input is not modified.
func (a Aggregator) Normalize(set m.ScoredResultSet) m.ModuleContext {
	hide := sanitize.HideWith(a.Hide)

	results := make([]m.TestOutcome, 0, len(set.Cases))
	for _, tc := range set.Cases {
		outcome := m.TestOutcome{
			Outcome:     tc.Outcome,
			Description: tc.Description,
			Payload:     tc.Payload.Clone(),
		}

		switch tc.Outcome {
		case m.OutcomeSuccess:
		case m.OutcomeFail:
			outcome.Message = hide(tc.Text)
		case m.OutcomeError:
			hidden := hide(tc.Text)
			outcome.Message = a.collapse(hidden)
			outcome.FullTraceback = hidden
		default:
			// Unknown outcomes are shown as errors rather than dropped.
			hidden := hide(tc.Text)
			outcome.Outcome = m.OutcomeError
			outcome.Message = a.collapse(hidden)
			outcome.FullTraceback = hidden
		}

		results = append(results, outcome)
	}

	return m.ModuleContext{
		Key:           set.Key,
		Description:   set.Description,
		Results:       results,
		Points:        set.Points,
		MaxPoints:     set.MaxPoints,
		TestsRun:      set.TestsRun,
		ConsoleOutput: hide(set.ConsoleOutput),
	}
}

// Aggregate normalizes every set and sums points, max points and tests run.
func (a Aggregator) Aggregate(sets []m.ScoredResultSet) m.ReportContext {
	report := m.ReportContext{Modules: make([]m.ModuleContext, 0, len(sets))}

	for _, set := range sets {
		module := a.Normalize(set)
		report.Modules = append(report.Modules, module)
		report.TotalPoints += module.Points
		report.TotalMaxPoints += module.MaxPoints
		report.TotalTestsRun += module.TestsRun
	}

	return report
}

func (a Aggregator) collapse(text string) string {
	markers := sanitize.DefaultCollapseMarkers
	if len(a.CollapseMarkers) > 0 {
		markers = append(slices.Clone(sanitize.DefaultCollapseMarkers), a.CollapseMarkers...)
	}

	threshold := a.RepeatThreshold
	if threshold <= 0 {
		threshold = sanitize.DefaultRepeatThreshold
	}

	return sanitize.CollapseTracebackWith(text, markers, threshold)
}
