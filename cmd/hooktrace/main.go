// Package main provides the entry point for the hooktrace CLI.
//
// hooktrace holds Juju units in debug-hooks, or waits for the next hook a
// unit is about to run and dispatches it again with a Python tracing
// function installed.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hooktrace/cli/internal/ui"
)

// Version information set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "hooktrace",
	Short:         "Intercept and trace Juju charm hooks",
	Long:          ui.GetHelpText(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		if debug {
			log.SetLevel(log.DebugLevel)
			log.Debug("Debug logging enabled")
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		ui.SetQuietMode(quiet)
	},
}

// guided is implemented by errors that carry instructions for the operator.
type guided interface {
	Guidance() string
}

// Execute runs the root command. It is the only place the process exits
// with a failure status.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		ui.StopSpinner()
		reportError(err)
		os.Exit(1)
	}
}

// reportError prints err and, when any error in its chain has guidance,
// that guidance below it.
//
// Parameters:
//   - err: The error returned by a command
func reportError(err error) {
	ui.PrintError("%v", err)

	var g guided
	if errors.As(err, &g) {
		if guidance := g.Guidance(); guidance != "" {
			ui.Println()
			ui.PrintDim("%s", guidance)
		}
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().String("config", "", "Path to config.yaml (default: $HOOKTRACE_CONFIG or the user config directory)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(jujuCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(doctorCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		ui.PrintInfo("Version: %s", version)
		ui.PrintInfo("Commit: %s", commit)
		ui.PrintInfo("Built: %s", date)
	},
}

func main() {
	Execute()
}
