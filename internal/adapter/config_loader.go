package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	m "grader.dev/pkg/grader/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrNoTestGroups is returned for a test config without any test group.
var ErrNoTestGroups = errors.New("test config has no test groups")

// ConfigLoader reads the per-exercise test configuration.
type ConfigLoader interface {
	LoadTestConfig(path m.Path) (m.TestConfig, error)
}

// YAMLConfigLoader decodes test configs from YAML files.
type YAMLConfigLoader struct {
	validate *validator.Validate
}

// NewConfigLoader creates a YAMLConfigLoader.
func NewConfigLoader() *YAMLConfigLoader {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &YAMLConfigLoader{validate: validate}
}

// LoadTestConfig decodes and checks the config at path. Unknown keys are
// rejected. Relative group directories are resolved against the config
// file's directory.
func (l *YAMLConfigLoader) LoadTestConfig(path m.Path) (m.TestConfig, error) {
	file, err := os.Open(string(path))
	if err != nil {
		slog.Error("failed to open test config", "path", path, "error", err)
		return m.TestConfig{}, fmt.Errorf("open test config: %w", err)
	}
	defer file.Close()

	var cfg m.TestConfig

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		slog.Error("failed to decode test config", "path", path, "error", err)
		return m.TestConfig{}, fmt.Errorf("decode test config %s: %w", path, err)
	}

	if err := l.check(cfg); err != nil {
		slog.Error("invalid test config", "path", path, "error", err)
		return m.TestConfig{}, fmt.Errorf("invalid test config %s: %w", path, err)
	}

	base := filepath.Dir(string(path))
	for i := range cfg.TestGroups {
		group := &cfg.TestGroups[i]
		if group.Dir == "" {
			group.Dir = base
		} else if !filepath.IsAbs(group.Dir) {
			group.Dir = filepath.Join(base, group.Dir)
		}
	}

	slog.Debug("loaded test config", "path", path, "groups", len(cfg.TestGroups))

	return cfg, nil
}

func (l *YAMLConfigLoader) check(cfg m.TestConfig) error {
	if len(cfg.TestGroups) == 0 {
		return ErrNoTestGroups
	}

	var errs *multierror.Error

	if err := l.validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}

		for _, fe := range fieldErrs {
			errs = multierror.Append(errs, fmt.Errorf("%s: failed %q validation", fe.Namespace(), fe.Tag()))
		}
	}

	seen := make(map[string]int, len(cfg.TestGroups))

	for i, group := range cfg.TestGroups {
		if first, dup := seen[group.Key]; dup && group.Key != "" {
			errs = multierror.Append(errs, fmt.Errorf("test_groups[%d]: key %q already used by test_groups[%d]", i, group.Key, first))
		} else {
			seen[group.Key] = i
		}

		switch group.EngineOrDefault() {
		case m.EngineCommand:
			if group.Command == "" {
				errs = multierror.Append(errs, fmt.Errorf("test_groups[%d]: command engine needs a command", i))
			}
		case m.EngineGoTest:
			if group.Command != "" || len(group.Args) > 0 {
				errs = multierror.Append(errs, fmt.Errorf("test_groups[%d]: command and args need engine %q", i, m.EngineCommand))
			}
		}
	}

	return errs.ErrorOrNil()
}
