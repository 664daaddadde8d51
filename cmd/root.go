// Package cmd provides the root command and CLI setup for grader.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"grader.dev/pkg/grader/internal/adapter"
	"grader.dev/pkg/grader/internal/controller"
	"grader.dev/pkg/grader/internal/domain"
)

var configLoader adapter.ConfigLoader
var testAdapter adapter.TestRunnerAdapter
var reportStore adapter.ReportStore
var workflow domain.Workflow
var ui controller.UI

var logFileFlag string
var verboseFlag bool

// Report rendering flags are shared by run and view.
var formatFlag string
var feedbackTemplateFlag string
var errorTemplateFlag string
var noDefaultCSSFlag bool

func init() {
	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	configLoader = adapter.NewConfigLoader()
	testAdapter = adapter.NewLocalTestRunnerAdapter(adapter.DefaultGroupTimeout)
	reportStore = adapter.NewReportStore()
	workflow = domain.NewWorkflow(configLoader, testAdapter, reportStore, ui)
}

const rootLongDescription = `Grader runs the tests of a programming exercise against a student
submission and turns the results into feedback.

The feedback page is written to stderr. The last two lines written to stdout
are the score in the form the grading platform expects:

  TotalPoints: 3
  MaxPoints: 5`

const runLongDescription = `Run every test group of the test config and report the score.

Test groups run either "go test -json" on a package (engine gotest) or an
external command that prints a scored result as JSON (engine command).`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "grader",
		Short:        "Automated grader for programming exercises",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVarP(&formatFlag, formatFlagName, "f", viper.GetString(renderFormatKey), "report format: html or text")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(formatFlagName), renderFormatKey)

	cmd.PersistentFlags().StringVar(&feedbackTemplateFlag, feedbackTemplateFlagName, viper.GetString(feedbackTemplateKey), "custom html/template for the results page")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(feedbackTemplateFlagName), feedbackTemplateKey)

	cmd.PersistentFlags().StringVar(&errorTemplateFlag, errorTemplateFlagName, viper.GetString(errorTemplateKey), "custom html/template for the error page")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(errorTemplateFlagName), errorTemplateKey)

	cmd.PersistentFlags().BoolVar(&noDefaultCSSFlag, noDefaultCSSFlagName, viper.GetBool(noDefaultCSSKey), "leave out the default stylesheet")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(noDefaultCSSFlagName), noDefaultCSSKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
