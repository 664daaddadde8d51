package model

import "time"

// DefaultTracebackHeader is the line that opens a traceback span.
const DefaultTracebackHeader = "Traceback (most recent call last)"

// Engine names the test execution backend of a test group.
type Engine string

const (
	// EngineGoTest runs `go test -json` on a package.
	EngineGoTest Engine = "gotest"
	// EngineCommand runs an arbitrary command that prints a JSON ScoredResultSet.
	EngineCommand Engine = "command"
)

// HideConfig selects exception kinds whose tracebacks are replaced before
// they are shown to students.
type HideConfig struct {
	ClassNames        []string `yaml:"class_names" validate:"dive,required"`
	LeftStripFields   int      `yaml:"left_strip_fields" validate:"gte=0"`
	ReplacementString string   `yaml:"replacement_string"`
	TracebackHeader   string   `yaml:"traceback_header,omitempty"`
}

// Header returns the configured traceback header or the default one.
func (h *HideConfig) Header() string {
	if h == nil || h.TracebackHeader == "" {
		return DefaultTracebackHeader
	}

	return h.TracebackHeader
}

// CollapseConfig controls collapsing of pathologically repetitive tracebacks.
type CollapseConfig struct {
	Markers         []string `yaml:"markers,omitempty" validate:"dive,required"`
	RepeatThreshold int      `yaml:"repeat_threshold,omitempty" validate:"gte=0"`
}

// TestGroup is one independently scored group of tests.
type TestGroup struct {
	Key           string             `yaml:"key" validate:"required"`
	Description   string             `yaml:"description"`
	Engine        Engine             `yaml:"engine" validate:"omitempty,oneof=gotest command"`
	Package       string             `yaml:"package,omitempty"`
	Dir           string             `yaml:"dir,omitempty"`
	Command       string             `yaml:"command,omitempty"`
	Args          []string           `yaml:"args,omitempty"`
	Points        map[string]float64 `yaml:"points,omitempty" validate:"dive,gte=0"`
	Descriptions  map[string]string  `yaml:"descriptions,omitempty"`
	DefaultPoints *float64           `yaml:"default_points,omitempty" validate:"omitempty,gte=0"`
	Timeout       time.Duration      `yaml:"timeout,omitempty" validate:"gte=0"`
}

// EngineOrDefault returns the group's engine, defaulting to go test.
func (g TestGroup) EngineOrDefault() Engine {
	if g.Engine == "" {
		return EngineGoTest
	}

	return g.Engine
}

// PointsFor returns the point value of the named test.
func (g TestGroup) PointsFor(testName string) float64 {
	if p, ok := g.Points[testName]; ok {
		return p
	}

	if g.DefaultPoints != nil {
		return *g.DefaultPoints
	}

	return 1
}

// TestConfig is the per-exercise grading configuration.
type TestConfig struct {
	TestGroups       []TestGroup     `yaml:"test_groups" validate:"dive"`
	ExceptionsToHide *HideConfig     `yaml:"exceptions_to_hide,omitempty"`
	Collapse         *CollapseConfig `yaml:"collapse,omitempty"`
}
