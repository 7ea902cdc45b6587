package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/hooktrace/cli/internal/config"
	"github.com/hooktrace/cli/internal/controller"
	"github.com/hooktrace/cli/internal/detect"
	"github.com/hooktrace/cli/internal/interrupt"
	"github.com/hooktrace/cli/internal/juju"
	"github.com/hooktrace/cli/internal/session"
	"github.com/hooktrace/cli/internal/ui"
)

// jujuCmd is the parent command of the juju engine.
var jujuCmd = &cobra.Command{
	Use:   "juju",
	Short: "Intercept hooks of Juju applications",
	Long: `Operate on the units of a Juju application in the current model.

OPERATIONS:
  pause   Hold every unit in debug-hooks until ctrl+c
  trace   Catch the next hook of a single-unit application and run it traced
  debug   Like trace with a longer settle; ctrl+c kills hooktrace immediately
  apps    List applications and their units

The traced hook logs one JSON record per executed line of src/charm.py and
lib/. Follow them with:
  juju debug-log --include <unit>`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var jujuPauseCmd = &cobra.Command{
	Use:   "pause <application>",
	Short: "Hold every unit of an application in debug-hooks",
	Long: `Open a debug-hooks session on every unit of the application, one second
apart, and keep them open until interrupted. On ctrl+c each unit's tmux
session is killed and its held hook resolved.

EXAMPLES:
  hooktrace juju pause postgresql
  hooktrace juju pause postgresql -m staging`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, controller.Pause, args[0])
	},
}

var jujuTraceCmd = &cobra.Command{
	Use:   "trace <application>",
	Short: "Trace the next hook of a single-unit application",
	Long: `Wait for the next hook dispatched to the application's only unit and run
it again with a Python tracing function installed. Ctrl+c while waiting
releases the unit.

EXAMPLES:
  hooktrace juju trace mysql
  hooktrace juju trace mysql --settle 2s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, controller.Trace, args[0])
	},
}

var jujuDebugCmd = &cobra.Command{
	Use:   "debug <application>",
	Short: "Trace the next hook, ignoring ctrl+c while waiting",
	Long: `Like trace, but waits longer for the remote sessions to settle and does
not handle ctrl+c. Interrupting kills hooktrace without releasing the unit;
release it manually with:
  juju ssh <unit> tmux kill-session -t <unit>
  juju resolve <unit>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, controller.Debug, args[0])
	},
}

var jujuAppsJSON bool

var jujuAppsCmd = &cobra.Command{
	Use:   "apps [application]",
	Short: "List applications and their units",
	Long: `List the applications of the model with their units, or the units of
one application.

EXAMPLES:
  hooktrace juju apps
  hooktrace juju apps mysql --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApps,
}

func init() {
	config.RegisterFlags(jujuCmd.PersistentFlags())
	jujuAppsCmd.Flags().BoolVar(&jujuAppsJSON, "json", false, "Output as JSON")

	jujuCmd.AddCommand(jujuPauseCmd)
	jujuCmd.AddCommand(jujuTraceCmd)
	jujuCmd.AddCommand(jujuDebugCmd)
	jujuCmd.AddCommand(jujuAppsCmd)
}

// runOperation builds a controller for the configured model and runs mode
// against application.
//
// Pause and trace run under an interrupt handler and return only after
// teardown has finished. Debug installs no handler.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - mode: The operation to run
//   - application: Target application name
//
// Returns:
//   - error: Any error from configuration, validation, the platform or teardown
func runOperation(cmd *cobra.Command, mode controller.Mode, application string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	harness, err := loadHarness(cfg)
	if err != nil {
		return err
	}

	client := juju.NewClient(cfg.Juju)
	opener := session.NewOpener(client, session.Geometry{Rows: cfg.Terminal.Rows, Cols: cfg.Terminal.Cols})
	platform := controller.NewJujuPlatform(client, opener)

	opts := operationOptions(cfg, harness)
	ctrl := controller.New(platform, opts)

	ctx := cmd.Context()
	if mode.Cancellable() {
		var stop context.CancelFunc
		ctx, stop = interrupt.WithInterrupt(ctx, func(sig os.Signal) {
			ui.StopSpinner()
			ui.Println()
			ui.PrintWarning("Received %s, releasing %s...", sig, application)
		})
		defer stop()
	}

	log.Debug("Starting operation", "mode", mode, "application", application, "model", cfg.Juju.Model)
	if err := ctrl.Run(ctx, mode, application); err != nil {
		return err
	}
	ui.StopSpinner()
	return nil
}

// operationOptions maps the config onto controller options and wires the
// progress callbacks to the terminal.
func operationOptions(cfg *config.Config, harness string) controller.Options {
	return controller.Options{
		Timings:   cfg.Timings,
		Pattern:   detect.ParsePattern(cfg.Detector.Pattern),
		MaxBuffer: cfg.Detector.MaxBuffer,
		Harness:   harness,
		OnPaused: func(unit string) {
			ui.PrintSuccess("Paused %s", unit)
		},
		OnHolding: func(units []string) {
			ui.Println()
			ui.PrintInfo("Holding %d unit(s). Press ctrl+c to release.", len(units))
		},
		OnSettling: func(unit string, delay time.Duration) {
			ui.PrintSuccess("Attached to %s", unit)
			ui.StartSpinner(fmt.Sprintf("Waiting for the next hook on %s...", unit))
		},
		OnRetry: func(unit string, err error) {
			log.Debug("Shell not ready, retrying", "unit", unit, "error", err)
		},
		OnDispatch: func(unit, hook string) {
			ui.StopSpinner()
			ui.PrintSuccess("Dispatched %s on %s with tracing", hook, unit)
			ui.PrintDim("Follow the trace with: juju debug-log --include %s", unit)
		},
		OnCancelled: func(unit string) {
			ui.StopSpinner()
		},
		OnReleased: func(unit string) {
			ui.PrintSuccess("Released %s", unit)
		},
	}
}

// runApps prints the topology snapshot.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Optional application name
//
// Returns:
//   - error: Any error from configuration or the platform, or a
//     *controller.ValidationError for an unknown application
func runApps(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client := juju.NewClient(cfg.Juju)

	topology, err := client.Status(cmd.Context())
	if err != nil {
		return err
	}

	apps := topology.Applications()
	if len(args) == 1 {
		if !topology.HasApplication(args[0]) {
			return &controller.ValidationError{Kind: controller.UnknownApplication, Application: args[0]}
		}
		apps = []juju.Application{{Name: args[0], Units: topology.Units(args[0])}}
	}

	if jujuAppsJSON {
		doc, err := appsDocument(apps)
		if err != nil {
			return err
		}
		ui.PrintRaw(strings.TrimSuffix(string(pretty.Pretty(doc)), "\n"))
		return nil
	}

	if len(apps) == 0 {
		ui.PrintInfo("No applications in this model")
		return nil
	}
	for _, app := range apps {
		ui.PrintInfo("%s", app.Name)
		if len(app.Units) == 0 {
			ui.PrintDim("  (no units)")
		}
		for _, unit := range app.Units {
			ui.PrintDim("  %s", unit)
		}
	}
	return nil
}

// appsDocument renders applications as
// {"applications":[{"name":...,"units":[...]}]}, in snapshot order.
func appsDocument(apps []juju.Application) ([]byte, error) {
	doc, err := sjson.SetRawBytes([]byte(`{}`), "applications", []byte(`[]`))
	if err != nil {
		return nil, err
	}
	for i, app := range apps {
		units := app.Units
		if units == nil {
			units = []string{}
		}
		doc, err = sjson.SetBytes(doc, fmt.Sprintf("applications.%d.name", i), app.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", app.Name, err)
		}
		doc, err = sjson.SetBytes(doc, fmt.Sprintf("applications.%d.units", i), units)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", app.Name, err)
		}
	}
	return doc, nil
}
