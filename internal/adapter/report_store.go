package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	m "grader.dev/pkg/grader/internal/model"
	"gopkg.in/yaml.v3"
)

const snapshotVersion = 1

// ErrReportNotFound is returned when no snapshot exists at the given path.
var ErrReportNotFound = errors.New("report not found")

// ReportStore persists aggregated reports so they can be rendered again later.
type ReportStore interface {
	SaveReport(path m.Path, runID string, report m.ReportContext) error
	LoadReport(path m.Path) (m.ReportContext, error)
}

type reportSnapshot struct {
	Version   int             `yaml:"version"`
	RunID     string          `yaml:"run_id,omitempty"`
	CreatedAt time.Time       `yaml:"created_at"`
	Report    m.ReportContext `yaml:"report"`
}

// YAMLReportStore stores reports as YAML snapshot files.
type YAMLReportStore struct {
	now func() time.Time
}

// NewReportStore creates a YAMLReportStore.
func NewReportStore() *YAMLReportStore {
	return &YAMLReportStore{now: time.Now}
}

// SaveReport writes report to path, creating parent directories.
func (s *YAMLReportStore) SaveReport(path m.Path, runID string, report m.ReportContext) error {
	snapshot := reportSnapshot{
		Version:   snapshotVersion,
		RunID:     runID,
		CreatedAt: s.now().UTC(),
		Report:    report,
	}

	data, err := yaml.Marshal(snapshot)
	if err != nil {
		slog.Error("failed to encode report", "path", path, "error", err)
		return fmt.Errorf("encode report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		slog.Error("failed to create report directory", "path", path, "error", err)
		return fmt.Errorf("create report directory: %w", err)
	}

	if err := os.WriteFile(string(path), data, 0o600); err != nil {
		slog.Error("failed to write report", "path", path, "error", err)
		return fmt.Errorf("write report: %w", err)
	}

	slog.Info("saved report", "path", path, "run_id", runID, "modules", len(report.Modules))

	return nil
}

// LoadReport reads a snapshot written by SaveReport.
func (s *YAMLReportStore) LoadReport(path m.Path) (m.ReportContext, error) {
	data, err := os.ReadFile(string(path))
	if errors.Is(err, os.ErrNotExist) {
		return m.ReportContext{}, fmt.Errorf("%w: %s", ErrReportNotFound, path)
	}

	if err != nil {
		return m.ReportContext{}, fmt.Errorf("read report: %w", err)
	}

	var snapshot reportSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		slog.Error("failed to decode report", "path", path, "error", err)
		return m.ReportContext{}, fmt.Errorf("decode report %s: %w", path, err)
	}

	if snapshot.Version != snapshotVersion {
		return m.ReportContext{}, fmt.Errorf("report %s: unsupported version %d", path, snapshot.Version)
	}

	if snapshot.Report.Modules == nil {
		snapshot.Report.Modules = []m.ModuleContext{}
	}

	slog.Debug("loaded report", "path", path, "run_id", snapshot.RunID)

	return snapshot.Report, nil
}
