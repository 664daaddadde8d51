package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"grader.dev/pkg/grader/internal/adapter"
	"grader.dev/pkg/grader/internal/controller"
	m "grader.dev/pkg/grader/internal/model"
	"grader.dev/pkg/grader/pkg"
)

// GradeArgs contains the arguments for a grading run.
type GradeArgs struct {
	TestConfig m.Path
	Parallel   int
	// Timeout applies to groups that do not set their own.
	Timeout    time.Duration
	Format     string
	Render     adapter.RenderOptions
	SaveReport m.Path
	// Report receives the rendered page (stderr for the grading platform).
	Report io.Writer
	// Points receives the TotalPoints/MaxPoints lines (stdout).
	Points io.Writer
}

// ViewArgs contains the arguments for rendering a saved report.
type ViewArgs struct {
	Report m.Path
	Format string
	Render adapter.RenderOptions
	Output io.Writer
}

// Workflow defines the grading workflow.
type Workflow interface {
	Grade(ctx context.Context, args GradeArgs) error
	View(ctx context.Context, args ViewArgs) error
}

// GradingError is returned when a run failed after the error page was written.
type GradingError struct {
	Report m.ErrorReport
	Err    error
}

func (e *GradingError) Error() string {
	return fmt.Sprintf("grading failed with %s: %v", e.Report.Type, e.Err)
}

func (e *GradingError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a panic during grading.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

type indexedResult struct {
	Index int
	Set   m.ScoredResultSet
}

type workflow struct {
	adapter.ConfigLoader
	adapter.TestRunnerAdapter
	adapter.ReportStore
	controller.UI

	newSpill func() (pkg.FileSpill[indexedResult], error)
	newRunID func() string
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	configLoader adapter.ConfigLoader,
	testAdapter adapter.TestRunnerAdapter,
	reportStore adapter.ReportStore,
	ui controller.UI,
) Workflow {
	return &workflow{
		ConfigLoader:      configLoader,
		TestRunnerAdapter: testAdapter,
		ReportStore:       reportStore,
		UI:                ui,
		newSpill: func() (pkg.FileSpill[indexedResult], error) {
			return pkg.NewFileSpill[indexedResult]("")
		},
		newRunID: uuid.NewString,
	}
}

// Grade runs every test group and writes the report followed by the points
// lines. Bad renderer options or test config are returned as plain errors.
// Anything that fails after that writes the error page to args.Report and
// returns a *GradingError.
func (w *workflow) Grade(ctx context.Context, args GradeArgs) (err error) {
	runID := w.newRunID()
	logger := slog.With("run_id", runID)

	renderer, err := adapter.NewRenderer(args.Format, args.Render)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	cfg, err := w.LoadTestConfig(args.TestConfig)
	if err != nil {
		return fmt.Errorf("load test config: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = w.fail(logger, renderer, args.Report, &PanicError{Value: r, Stack: debug.Stack()})
		}
	}()

	logger.Info("grading started", "config", args.TestConfig, "groups", len(cfg.TestGroups), "parallel", args.Parallel)

	report, err := w.grade(ctx, logger, runID, cfg, args)
	if err != nil {
		return w.fail(logger, renderer, args.Report, err)
	}

	var page string
	if report.TotalTestsRun == 0 {
		page, err = renderer.RenderNoTests()
	} else {
		page, err = renderer.RenderResults(report)
	}

	if err != nil {
		return w.fail(logger, renderer, args.Report, err)
	}

	if args.SaveReport != "" {
		if err := w.SaveReport(args.SaveReport, runID, report); err != nil {
			return w.fail(logger, renderer, args.Report, fmt.Errorf("save report: %w", err))
		}
	}

	if _, err := io.WriteString(args.Report, page); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if _, err := fmt.Fprintf(args.Points, "TotalPoints: %s\nMaxPoints: %s\n",
		m.FormatPoints(report.TotalPoints), m.FormatPoints(report.TotalMaxPoints)); err != nil {
		return fmt.Errorf("write points: %w", err)
	}

	logger.Info("grading finished",
		"points", report.TotalPoints, "max_points", report.TotalMaxPoints, "tests_run", report.TotalTestsRun)

	return nil
}

func (w *workflow) grade(ctx context.Context, logger *slog.Logger, runID string, cfg m.TestConfig, args GradeArgs) (m.ReportContext, error) {
	parallel := max(args.Parallel, 1)

	err := w.Start(ctx,
		controller.WithRunID(runID),
		controller.WithTotalGroups(len(cfg.TestGroups)),
		controller.WithParallel(parallel),
	)
	if err != nil {
		return m.ReportContext{}, fmt.Errorf("start ui: %w", err)
	}
	defer w.Close(context.WithoutCancel(ctx))

	sets, err := w.runGroups(ctx, logger, cfg.TestGroups, parallel, args.Timeout)
	if err != nil {
		return m.ReportContext{}, err
	}

	report := NewAggregator(cfg).Aggregate(sets)
	w.DisplaySummary(ctx, report)

	return report, nil
}

func (w *workflow) runGroups(ctx context.Context, logger *slog.Logger, groups []m.TestGroup, parallel int, timeout time.Duration) ([]m.ScoredResultSet, error) {
	spill, err := w.newSpill()
	if err != nil {
		return nil, fmt.Errorf("create result spill: %w", err)
	}

	defer func() {
		if cerr := spill.Close(); cerr != nil {
			logger.Warn("failed to close result spill", "path", spill.Path(), "error", cerr)
		}
	}()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(parallel)

	for index, group := range groups {
		if group.Timeout <= 0 {
			group.Timeout = timeout
		}

		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Value: r, Stack: debug.Stack()}
				}
			}()

			if err := egCtx.Err(); err != nil {
				return err
			}

			w.DisplayGroupStarted(egCtx, group, index)
			logger.Debug("running test group", "group", group.Key, "engine", group.EngineOrDefault())

			set, err := w.Run(egCtx, group)
			w.DisplayGroupCompleted(egCtx, group, set, err)

			if err != nil {
				logger.Error("test group failed", "group", group.Key, "error", err)
				return fmt.Errorf("run test group %s: %w", group.Key, err)
			}

			logger.Debug("test group finished", "group", group.Key, "points", set.Points, "max_points", set.MaxPoints)

			return spill.Append(indexedResult{Index: index, Set: set})
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return collectResults(spill, groups)
}

// collectResults restores config order from the spill.
func collectResults(spill pkg.FileSpill[indexedResult], groups []m.TestGroup) ([]m.ScoredResultSet, error) {
	sets := make([]m.ScoredResultSet, len(groups))
	seen := make([]bool, len(groups))

	err := spill.Range(func(_ uint64, item indexedResult) error {
		if item.Index < 0 || item.Index >= len(groups) {
			return fmt.Errorf("result index %d out of range", item.Index)
		}

		sets[item.Index] = item.Set
		seen[item.Index] = true

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}

	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("no result for test group %s", groups[i].Key)
		}
	}

	return sets, nil
}

// fail writes the error page and wraps cause in a GradingError.
func (w *workflow) fail(logger *slog.Logger, renderer adapter.ReportRenderer, out io.Writer, cause error) error {
	// Free what we can so the error page can still be rendered.
	runtime.GC()
	debug.FreeOSMemory()

	report := m.ErrorReport{Type: errorType(cause), Message: errorMessage(cause)}

	var panicErr *PanicError
	if errors.As(cause, &panicErr) {
		logger.Error("grading panicked", "panic", panicErr.Value, "stack", string(panicErr.Stack))
	} else {
		logger.Error("grading failed", "type", report.Type, "error", cause)
	}

	page, err := renderer.RenderError(report)
	if err != nil {
		logger.Error("failed to render error page", "error", err)
		page, _ = adapter.NewTextRenderer().RenderError(report)
	}

	if _, err := io.WriteString(out, page); err != nil {
		logger.Error("failed to write error page", "error", err)
	}

	return &GradingError{Report: report, Err: cause}
}

var genericErrorTypes = map[string]bool{
	"errors.errorString": true,
	"fmt.wrapError":      true,
	"fmt.wrapErrors":     true,
}

// errorType names the innermost error in the chain that has its own type.
func errorType(err error) string {
	var panicErr *PanicError

	switch {
	case errors.As(err, &panicErr):
		return "Panic"
	case errors.Is(err, context.DeadlineExceeded):
		return "DeadlineExceeded"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	}

	name := "Error"
	for e := err; e != nil; e = errors.Unwrap(e) {
		if t := strings.TrimPrefix(fmt.Sprintf("%T", e), "*"); !genericErrorTypes[t] {
			name = t
		}
	}

	return name
}

func errorMessage(err error) string {
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return fmt.Sprint(panicErr.Value)
	}

	return err.Error()
}

// View renders a saved report to args.Output.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	renderer, err := adapter.NewRenderer(args.Format, args.Render)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	report, err := w.LoadReport(args.Report)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}

	var page string
	if report.TotalTestsRun == 0 {
		page, err = renderer.RenderNoTests()
	} else {
		page, err = renderer.RenderResults(report)
	}

	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	_, err = io.WriteString(args.Output, page)

	return err
}
