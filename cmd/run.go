package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"grader.dev/pkg/grader/internal/domain"
	m "grader.dev/pkg/grader/internal/model"
)

var runTestConfigFlag string
var runParallelFlag int
var runTimeoutFlag time.Duration
var runSaveFlag string

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Grade a submission",
		Long:  runLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := workflow.Grade(cmd.Context(), domain.GradeArgs{
				TestConfig: m.Path(viper.GetString(testConfigKey)),
				Parallel:   viper.GetInt(runParallelConfigKey),
				Timeout:    viper.GetDuration(runTimeoutKey),
				Format:     viper.GetString(renderFormatKey),
				Render:     renderOptions(),
				SaveReport: m.Path(viper.GetString(runSaveKey)),
				Report:     cmd.ErrOrStderr(),
				Points:     cmd.OutOrStdout(),
			})

			var gradingErr *domain.GradingError
			if errors.As(err, &gradingErr) {
				// The error page is already on stderr.
				cmd.SilenceErrors = true
			}

			return err
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&runTestConfigFlag, testConfigFlagName, "c", viper.GetString(testConfigKey), "test config file describing the test groups")
	bindFlagToConfig(cmd.Flags().Lookup(testConfigFlagName), testConfigKey)

	cmd.Flags().IntVarP(&runParallelFlag, runParallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of test groups run at the same time")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)

	cmd.Flags().DurationVar(&runTimeoutFlag, runTimeoutFlagName, viper.GetDuration(runTimeoutKey), "timeout for test groups that do not set one")
	bindFlagToConfig(cmd.Flags().Lookup(runTimeoutFlagName), runTimeoutKey)

	cmd.Flags().StringVar(&runSaveFlag, runSaveFlagName, viper.GetString(runSaveKey), "also save the report to this file")
	bindFlagToConfig(cmd.Flags().Lookup(runSaveFlagName), runSaveKey)
}
