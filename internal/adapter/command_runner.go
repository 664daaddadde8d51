package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/hashicorp/go-multierror"
	m "grader.dev/pkg/grader/internal/model"
)

// runCommand executes an external engine that prints a JSON ScoredResultSet
// on stdout. A non-zero exit is accepted as long as the JSON is valid.
func runCommand(ctx context.Context, group m.TestGroup) (m.ScoredResultSet, error) {
	cmd := exec.CommandContext(ctx, group.Command, group.Args...)
	cmd.Dir = group.Dir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running test command", "group", group.Key, "command", group.Command, "args", group.Args)

	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			slog.Error("failed to run test command", "group", group.Key, "error", runErr)
			return m.ScoredResultSet{}, fmt.Errorf("run command for group %q: %w", group.Key, runErr)
		}
	}

	set, err := DecodeResultSet(stdout.Bytes())
	if err != nil {
		if runErr != nil {
			err = fmt.Errorf("%w (command failed: %v, stderr: %s)", err, runErr, tail(stderr.String(), 512))
		}

		slog.Error("invalid command result", "group", group.Key, "error", err)

		return m.ScoredResultSet{}, fmt.Errorf("group %q: %w", group.Key, err)
	}

	if set.Key == "" {
		set.Key = group.Key
	}

	if set.Description == "" {
		set.Description = group.Description
	}

	if set.ConsoleOutput == "" {
		set.ConsoleOutput = stderr.String()
	}

	set.ConsoleOutput = stripansi.Strip(set.ConsoleOutput)

	return set, nil
}

// DecodeResultSet parses and checks a JSON ScoredResultSet.
func DecodeResultSet(data []byte) (m.ScoredResultSet, error) {
	var set m.ScoredResultSet

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&set); err != nil {
		return m.ScoredResultSet{}, fmt.Errorf("decode result set: %w", err)
	}

	var errs *multierror.Error

	for i, tc := range set.Cases {
		if _, err := m.ParseOutcome(string(tc.Outcome)); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("case %d (%s): %w", i, tc.Name, err))
		}
	}

	if set.Points < 0 {
		errs = multierror.Append(errs, fmt.Errorf("points %v is negative", set.Points))
	}

	if set.Points > set.MaxPoints {
		errs = multierror.Append(errs, fmt.Errorf("points %v exceed max points %v", set.Points, set.MaxPoints))
	}

	if set.TestsRun < 0 {
		errs = multierror.Append(errs, fmt.Errorf("tests run %d is negative", set.TestsRun))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return m.ScoredResultSet{}, fmt.Errorf("invalid result set: %w", err)
	}

	return set, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}

	return "..." + s[len(s)-n:]
}
