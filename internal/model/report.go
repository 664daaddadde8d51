package model

import "strconv"

// ModuleContext is the flattened, sanitized view of one ScoredResultSet.
type ModuleContext struct {
	Key           string        `yaml:"key"`
	Description   string        `yaml:"description,omitempty"`
	Results       []TestOutcome `yaml:"results"`
	Points        float64       `yaml:"points"`
	MaxPoints     float64       `yaml:"max_points"`
	TestsRun      int           `yaml:"tests_run"`
	ConsoleOutput string        `yaml:"console_output,omitempty"`
}

// ReportContext is the fully aggregated structure handed to a renderer.
type ReportContext struct {
	Modules        []ModuleContext `yaml:"modules"`
	TotalPoints    float64         `yaml:"total_points"`
	TotalMaxPoints float64         `yaml:"total_max_points"`
	TotalTestsRun  int             `yaml:"total_tests_run"`
}

// ErrorReport describes a failure that prevented any results from being produced.
type ErrorReport struct {
	Type    string
	Message string
}

// FormatPoints renders a point value in its shortest decimal form,
// e.g. 3, 2.5 or 0.125.
func FormatPoints(points float64) string {
	return strconv.FormatFloat(points, 'f', -1, 64)
}
