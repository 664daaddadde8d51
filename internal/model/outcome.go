// Package model defines the data structures for grading test results.
package model

import "fmt"

// Outcome classifies the result of a single test case.
type Outcome string

const (
	// OutcomeSuccess means every assertion in the test case held.
	OutcomeSuccess Outcome = "SUCCESS"
	// OutcomeFail means an assertion was violated.
	OutcomeFail Outcome = "FAIL"
	// OutcomeError means the test case raised something other than an assertion
	// failure (panic, crash, resource exhaustion).
	OutcomeError Outcome = "ERROR"
)

func (o Outcome) String() string {
	return string(o)
}

// ParseOutcome converts a raw outcome name into an Outcome.
func ParseOutcome(value string) (Outcome, error) {
	switch Outcome(value) {
	case OutcomeSuccess, OutcomeFail, OutcomeError:
		return Outcome(value), nil
	}

	return "", fmt.Errorf("unknown outcome %q", value)
}

// Payload is opaque data attached to a test case by the test itself.
// It is carried through to the report unchanged and never inspected.
type Payload map[string]string

// Clone returns a copy of the payload; nil stays nil.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}

	clone := make(Payload, len(p))
	for k, v := range p {
		clone[k] = v
	}

	return clone
}

// TestCase is one executed test case as reported by an engine.
type TestCase struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Outcome     Outcome `json:"outcome" yaml:"outcome"`
	Text        string  `json:"text,omitempty" yaml:"text,omitempty"` // raw failure/error text
	Payload     Payload `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// TestOutcome is the sanitized, render-ready view of a TestCase.
type TestOutcome struct {
	Outcome       Outcome `yaml:"outcome"`
	Description   string  `yaml:"description,omitempty"`
	Message       string  `yaml:"message,omitempty"`
	Payload       Payload `yaml:"payload,omitempty"`
	FullTraceback string  `yaml:"full_traceback,omitempty"` // hidden but not collapsed, ERROR only
}
