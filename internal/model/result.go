package model

// ScoredResultSet is the output of running one scored test group.
// TestsRun does not have to match len(Cases); keeping them consistent is the
// engine's job.
type ScoredResultSet struct {
	Key           string     `json:"key"`
	Description   string     `json:"description,omitempty"`
	Cases         []TestCase `json:"cases"`
	TestsRun      int        `json:"tests_run"`
	Points        float64    `json:"points"`
	MaxPoints     float64    `json:"max_points"`
	ConsoleOutput string     `json:"console_output,omitempty"`
}
