package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	m "grader.dev/pkg/grader/internal/model"
	"grader.dev/pkg/grader/internal/sanitize"
)

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a default grader.yaml and a starter test config",
		Long: `Create a grader.yaml in the current working directory populated with the
current CLI defaults so it can be edited manually.

A starter test config grading every Go test of the module is written to the
configured test_config path unless that file already exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			err := viper.SafeWriteConfigAs(targetPath)
			if err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Printf("wrote %s\n", targetPath)

			testConfigPath := viper.GetString(testConfigKey)
			if !filepath.IsAbs(testConfigPath) {
				testConfigPath = filepath.Join(configFolderPath, testConfigPath)
			}

			err = writeStarterTestConfig(testConfigPath)
			if errors.Is(err, fs.ErrExist) {
				cmd.Printf("kept existing %s\n", testConfigPath)
				return nil
			}

			if err != nil {
				return fmt.Errorf("failed to write test config: %w", err)
			}

			cmd.Printf("wrote %s\n", testConfigPath)

			return nil
		},
	}
}

// starterTestConfig grades all tests of the module one point each.
func starterTestConfig() m.TestConfig {
	defaultPoints := 1.0

	return m.TestConfig{
		TestGroups: []m.TestGroup{{
			Key:           "tests",
			Description:   "All tests",
			Engine:        m.EngineGoTest,
			Package:       "./...",
			DefaultPoints: &defaultPoints,
		}},
		Collapse: &m.CollapseConfig{
			Markers:         []string{"goroutine stack exceeds"},
			RepeatThreshold: sanitize.DefaultRepeatThreshold,
		},
	}
}

func writeStarterTestConfig(path string) error {
	data, err := yaml.Marshal(starterTestConfig())
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

func init() {
	rootCmd.AddCommand(initCmd)
}
