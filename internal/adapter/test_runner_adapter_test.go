package adapter

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "grader.dev/pkg/grader/internal/model"
)

// These tests run the engines against the example exercises in the repo
// instead of embedding Go source in strings.

func requireBinary(t *testing.T, name string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping engine integration test in short mode")
	}

	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestLocalTestRunnerAdapter_RunGoTest(t *testing.T) {
	requireBinary(t, "go")

	runner := NewLocalTestRunnerAdapter(time.Minute)
	group := m.TestGroup{
		Key:    "basics",
		Dir:    filepath.Join("..", "..", "examples", "basic"),
		Points: map[string]float64{"TestAdd": 1, "TestFactorial": 2, "TestDivide": 2},
	}

	set, err := runner.Run(context.Background(), group)
	require.NoError(t, err)

	assert.Equal(t, "basics", set.Key)
	assert.Equal(t, 3, set.TestsRun)
	assert.Equal(t, 1.0, set.Points)
	assert.Equal(t, 5.0, set.MaxPoints)
	assert.Contains(t, set.ConsoleOutput, "panic:")

	outcomes := map[string]m.Outcome{}
	texts := map[string]string{}
	for _, tc := range set.Cases {
		outcomes[tc.Name] = tc.Outcome
		texts[tc.Name] = tc.Text
	}

	assert.Equal(t, m.OutcomeSuccess, outcomes["TestAdd"])
	assert.Equal(t, m.OutcomeFail, outcomes["TestFactorial"])
	assert.Equal(t, m.OutcomeError, outcomes["TestDivide"])
	assert.Contains(t, texts["TestDivide"], "panic:")
}

func TestLocalTestRunnerAdapter_RunGoTest_MissingPackage(t *testing.T) {
	requireBinary(t, "go")

	runner := NewLocalTestRunnerAdapter(time.Minute)
	group := m.TestGroup{
		Key:     "missing",
		Dir:     filepath.Join("..", "..", "examples", "basic"),
		Package: "./does_not_exist",
		Points:  map[string]float64{"TestAnything": 1},
	}

	set, err := runner.Run(context.Background(), group)
	require.NoError(t, err)

	require.Len(t, set.Cases, 1)
	assert.Equal(t, m.OutcomeError, set.Cases[0].Outcome)
	assert.NotEmpty(t, set.ConsoleOutput)
}

func TestLocalTestRunnerAdapter_RunCommand(t *testing.T) {
	requireBinary(t, "sh")

	runner := NewLocalTestRunnerAdapter(time.Minute)
	group := m.TestGroup{
		Key:     "style",
		Engine:  m.EngineCommand,
		Command: "sh",
		Args:    []string{"grade.sh"},
		Dir:     filepath.Join("..", "..", "examples", "command"),
	}

	set, err := runner.Run(context.Background(), group)
	require.NoError(t, err)

	assert.Equal(t, "style", set.Key)
	assert.Equal(t, "Style checks", set.Description)
	assert.Equal(t, 1.0, set.Points)
	assert.Equal(t, 2.0, set.MaxPoints)
	assert.Equal(t, "checking submission\n", set.ConsoleOutput)
	require.Len(t, set.Cases, 2)
	assert.Equal(t, m.OutcomeFail, set.Cases[1].Outcome)
	assert.Equal(t, m.Payload{"hint": "add doc comments"}, set.Cases[1].Payload)
}

func TestLocalTestRunnerAdapter_RunCommand_NonZeroExitWithValidJSON(t *testing.T) {
	requireBinary(t, "sh")

	runner := NewLocalTestRunnerAdapter(time.Minute)
	group := m.TestGroup{
		Key:         "k",
		Description: "from config",
		Engine:      m.EngineCommand,
		Command:     "sh",
		Args:        []string{"-c", `echo '{"cases":[],"tests_run":0,"points":0,"max_points":0}'; printf '\033[1mbold\033[0m\n' >&2; exit 1`},
	}

	set, err := runner.Run(context.Background(), group)
	require.NoError(t, err)

	assert.Equal(t, "k", set.Key)
	assert.Equal(t, "from config", set.Description)
	assert.Equal(t, "bold\n", set.ConsoleOutput)
}

func TestLocalTestRunnerAdapter_RunCommand_InvalidOutput(t *testing.T) {
	requireBinary(t, "sh")

	runner := NewLocalTestRunnerAdapter(time.Minute)
	group := m.TestGroup{
		Key:     "k",
		Engine:  m.EngineCommand,
		Command: "sh",
		Args:    []string{"-c", "echo not json; echo broken >&2; exit 3"},
	}

	_, err := runner.Run(context.Background(), group)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestLocalTestRunnerAdapter_RunCommand_MissingBinary(t *testing.T) {
	runner := NewLocalTestRunnerAdapter(time.Minute)
	group := m.TestGroup{Key: "k", Engine: m.EngineCommand, Command: "definitely-not-a-grader-binary"}

	_, err := runner.Run(context.Background(), group)
	require.Error(t, err)
}

func TestLocalTestRunnerAdapter_UnknownEngine(t *testing.T) {
	runner := NewLocalTestRunnerAdapter(0)

	_, err := runner.Run(context.Background(), m.TestGroup{Key: "k", Engine: "pytest"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown engine")
}

func TestDecodeResultSet(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:  "valid",
			input: `{"key":"a","cases":[{"name":"x","outcome":"FAIL","text":"boom"}],"tests_run":1,"points":0,"max_points":1}`,
		},
		{
			name:    "unknown field",
			input:   `{"key":"a","score":3}`,
			wantErr: "unknown field",
		},
		{
			name:    "unknown outcome",
			input:   `{"cases":[{"name":"x","outcome":"SKIPPED"}],"max_points":1}`,
			wantErr: "unknown outcome",
		},
		{
			name:    "points above max",
			input:   `{"points":3,"max_points":2}`,
			wantErr: "exceed max points",
		},
		{
			name:    "negative points",
			input:   `{"points":-1,"max_points":2}`,
			wantErr: "negative",
		},
		{
			name:    "not json",
			input:   `TotalPoints: 3`,
			wantErr: "decode result set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := DecodeResultSet([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "a", set.Key)
			require.Len(t, set.Cases, 1)
			assert.Equal(t, "boom", set.Cases[0].Text)
		})
	}
}
