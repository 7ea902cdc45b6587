package main

import (
	"fmt"
	"regexp"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/hooktrace/cli/internal/config"
	"github.com/hooktrace/cli/internal/dispatch"
	"github.com/hooktrace/cli/internal/ui"
)

// hookNamePattern accepts the hook names the detector can extract.
var hookNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(?:-[a-z0-9]+)*$`)

var scriptCopy bool

// scriptCmd prints the traced dispatch command for a hook.
var scriptCmd = &cobra.Command{
	Use:   "script <hook>",
	Short: "Print the traced dispatch command for a hook",
	Long: `Print the command hooktrace types into a held unit to run a hook traced.

Paste it into a debug-hooks session yourself to trace a hook by hand.

EXAMPLES:
  hooktrace script config-changed
  hooktrace script install --harness ./my_trace.py --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	// Read back through config.ApplyFlags by loadConfig.
	scriptCmd.Flags().String(config.FlagHarness, "", "Path to a tracing harness replacing the built-in one")
	scriptCmd.Flags().BoolVar(&scriptCopy, "copy", false, "Copy the command to the clipboard")
}

// runScript synthesizes and prints the dispatch command.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: The hook name
//
// Returns:
//   - error: If the hook name is invalid or the harness cannot be loaded
func runScript(cmd *cobra.Command, args []string) error {
	hook := args[0]
	if !hookNamePattern.MatchString(hook) {
		return fmt.Errorf("invalid hook name %q: expected lowercase words separated by hyphens", hook)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	harness, err := loadHarness(cfg)
	if err != nil {
		return err
	}

	script := dispatch.Synthesize(hook, harness)
	ui.PrintRaw(script)

	if scriptCopy {
		if err := clipboard.WriteAll(script); err != nil {
			ui.PrintWarning("Could not copy to clipboard: %v", err)
			return nil
		}
		ui.PrintSuccess("Copied to clipboard")
	}
	return nil
}
