package adapter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/acarl005/stripansi"
	m "grader.dev/pkg/grader/internal/model"
	"grader.dev/pkg/grader/internal/sanitize"
)

// PayloadPrefix marks test log lines that attach data to the test case,
// e.g. t.Log("grader-data: hint=check the loop bounds").
const PayloadPrefix = "grader-data:"

const maxEventLine = 16 * 1024 * 1024

// goTestEvent is one line of `go test -json` (test2json) output.
type goTestEvent struct {
	Action  string
	Package string
	Test    string
	Output  string
}

type goTestCase struct {
	name     string
	action   string
	output   strings.Builder
	payload  m.Payload
	finished bool
}

// GoTestParser turns a test2json event stream into a ScoredResultSet.
// Only top-level tests are scored; subtest output is folded into the parent.
type GoTestParser struct {
	group   m.TestGroup
	order   []string
	cases   map[string]*goTestCase
	console strings.Builder
	trailer string
}

// NewGoTestParser creates a parser scoring tests with the group's point table.
func NewGoTestParser(group m.TestGroup) *GoTestParser {
	return &GoTestParser{
		group: group,
		cases: make(map[string]*goTestCase),
	}
}

// Parse consumes events from r. Lines that are not JSON events are kept as
// console output.
func (p *GoTestParser) Parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	for scanner.Scan() {
		line := scanner.Bytes()

		var event goTestEvent
		if len(line) == 0 || line[0] != '{' || json.Unmarshal(line, &event) != nil {
			p.AddConsoleOutput(string(line) + "\n")
			continue
		}

		p.handle(event)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read test events: %w", err)
	}

	return nil
}

// AddConsoleOutput appends raw text to the console log.
func (p *GoTestParser) AddConsoleOutput(text string) {
	p.console.WriteString(stripansi.Strip(text))
}

// MarkUnfinished appends reason to every test that never reported a result.
func (p *GoTestParser) MarkUnfinished(reason string) {
	p.trailer = reason
}

func (p *GoTestParser) handle(event goTestEvent) {
	if event.Output != "" {
		p.AddConsoleOutput(event.Output)
	}

	if event.Test == "" {
		return
	}

	root, _, isSubtest := strings.Cut(event.Test, "/")
	tc := p.testCase(root)

	if event.Output != "" {
		p.collectOutput(tc, event.Output)
	}

	if isSubtest {
		return
	}

	switch event.Action {
	case "pass", "fail", "skip":
		tc.action = event.Action
		tc.finished = true
	}
}

func (p *GoTestParser) testCase(name string) *goTestCase {
	tc, ok := p.cases[name]
	if !ok {
		tc = &goTestCase{name: name}
		p.cases[name] = tc
		p.order = append(p.order, name)
	}

	return tc
}

func (p *GoTestParser) collectOutput(tc *goTestCase, output string) {
	for _, line := range strings.SplitAfter(output, "\n") {
		if line == "" {
			continue
		}

		trimmed := strings.TrimSpace(stripansi.Strip(line))
		if isFramingLine(trimmed) {
			continue
		}

		if data, ok := payloadData(trimmed); ok {
			key, value, _ := strings.Cut(data, "=")
			if tc.payload == nil {
				tc.payload = m.Payload{}
			}

			tc.payload[strings.TrimSpace(key)] = strings.TrimSpace(value)

			continue
		}

		tc.output.WriteString(stripansi.Strip(line))
	}
}

func isFramingLine(line string) bool {
	for _, prefix := range []string{"=== RUN", "=== PAUSE", "=== CONT", "=== NAME", "--- PASS", "--- FAIL", "--- SKIP"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}

	return false
}

// payloadData finds the payload marker in a t.Log line such as
// "add_test.go:12: grader-data: hint=x".
func payloadData(line string) (string, bool) {
	idx := strings.Index(line, PayloadPrefix)
	if idx < 0 {
		return "", false
	}

	return strings.TrimSpace(line[idx+len(PayloadPrefix):]), true
}

// Result builds the scored result set. Tests listed in the group's point
// table that never ran count as errors, so a build failure still shows the
// full maximum.
func (p *GoTestParser) Result() m.ScoredResultSet {
	set := m.ScoredResultSet{
		Key:           p.group.Key,
		Description:   p.group.Description,
		ConsoleOutput: p.console.String(),
	}

	for _, name := range p.order {
		tc := p.cases[name]
		if tc.action == "skip" {
			continue
		}

		testCase := m.TestCase{
			Name:        name,
			Description: p.describe(name),
			Payload:     tc.payload,
		}

		text := strings.TrimRight(tc.output.String(), "\n")

		switch {
		case !tc.finished:
			testCase.Outcome = m.OutcomeError
			testCase.Text = joinNonEmpty(text, p.trailer)
		case tc.action == "pass":
			testCase.Outcome = m.OutcomeSuccess
		case isCrash(text):
			testCase.Outcome = m.OutcomeError
			testCase.Text = text
		default:
			testCase.Outcome = m.OutcomeFail
			testCase.Text = sanitize.ParseAssertionMessage(text, "")
		}

		p.score(&set, testCase)
	}

	missing := p.missingTests()
	for _, name := range missing {
		p.score(&set, m.TestCase{
			Name:        name,
			Description: p.describe(name),
			Outcome:     m.OutcomeError,
			Text:        joinNonEmpty("test did not run", strings.TrimRight(set.ConsoleOutput, "\n")),
		})
	}

	return set
}

func (p *GoTestParser) score(set *m.ScoredResultSet, tc m.TestCase) {
	points := p.group.PointsFor(tc.Name)

	set.Cases = append(set.Cases, tc)
	set.TestsRun++
	set.MaxPoints += points

	if tc.Outcome == m.OutcomeSuccess {
		set.Points += points
	}
}

func (p *GoTestParser) describe(name string) string {
	if d, ok := p.group.Descriptions[name]; ok && d != "" {
		return d
	}

	return name
}

func (p *GoTestParser) missingTests() []string {
	var missing []string

	for name := range p.group.Points {
		if _, ran := p.cases[name]; !ran {
			missing = append(missing, name)
		}
	}

	slices.Sort(missing)

	return missing
}

func isCrash(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "panic: ") || strings.HasPrefix(line, "fatal error: ") {
			return true
		}
	}

	return false
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]

	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}

	return strings.Join(kept, "\n")
}
