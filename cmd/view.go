package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"grader.dev/pkg/grader/internal/domain"
	m "grader.dev/pkg/grader/internal/model"
)

var viewReportFlag string

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Render a report saved by run --save",
		Long:  "Render a previously saved report again, for example as text or with another template.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.View(cmd.Context(), domain.ViewArgs{
				Report: m.Path(viper.GetString(viewReportKey)),
				Format: viper.GetString(renderFormatKey),
				Render: renderOptions(),
				Output: cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&viewReportFlag, viewReportFlagName, "r", viper.GetString(viewReportKey), "saved report file")
	bindFlagToConfig(cmd.Flags().Lookup(viewReportFlagName), viewReportKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
