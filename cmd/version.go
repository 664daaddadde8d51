package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
	m "grader.dev/pkg/grader/internal/model"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the grader build version, the Go version used to build it and the supported test engines.",
		Run: func(cmd *cobra.Command, _ []string) {
			defer cmd.Println("engines\t", m.EngineGoTest+", "+m.EngineCommand)

			info, ok := debug.ReadBuildInfo()
			if !ok || info.Main.Version == "" {
				cmd.Println("version: unknown")
				return
			}

			cmd.Println("grader version\t", info.Main.Version)
			if info.Main.Path != "" {
				cmd.Println("module\t\t", info.Main.Path)
			}
			cmd.Println("go version\t", info.GoVersion)
		},
	}
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
