package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hooktrace/cli/internal/config"
	"github.com/hooktrace/cli/internal/dispatch"
	"github.com/hooktrace/cli/internal/juju"
	"github.com/hooktrace/cli/internal/ui"
)

// Check statuses.
const (
	statusOK      = "ok"
	statusWarning = "warning"
	statusError   = "error"
)

// DoctorCheck represents a single diagnostic check result.
type DoctorCheck struct {
	// Name is the check name (e.g., "Config", "Juju").
	Name string `json:"name"`

	// Status is the check status: "ok", "warning", "error".
	Status string `json:"status"`

	// Message is the human-readable result message.
	Message string `json:"message"`

	// Details contains additional information (optional).
	Details string `json:"details,omitempty"`
}

// DoctorResult contains all diagnostic check results.
type DoctorResult struct {
	// Checks contains all individual check results.
	Checks []DoctorCheck `json:"checks"`

	// Issues is the count of checks with status "error" or "warning".
	Issues int `json:"issues"`

	// Healthy is true if no errors were found.
	Healthy bool `json:"healthy"`
}

// add records a check and updates the totals.
func (r *DoctorResult) add(check DoctorCheck) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case statusError:
		r.Healthy = false
		r.Issues++
	case statusWarning:
		r.Issues++
	}
}

var doctorOutputJSON bool

// doctorCmd runs diagnostic checks on the local environment.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check juju and configuration",
	Long: `Run diagnostic checks before intercepting hooks.

CHECKS PERFORMED:
  - Configuration (config.yaml readable and valid?)
  - Tracing harness (built-in or --harness file usable?)
  - Juju client (binary on PATH and answering "juju version"?)
  - Model status (does "juju status --format=json" parse?)

EXAMPLES:
  hooktrace doctor
  hooktrace doctor -m staging --json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorOutputJSON, "json", false, "Output results as JSON")
	doctorCmd.Flags().StringP(config.FlagModel, "m", "", "Juju model to check (default: current model)")
}

// runDoctor executes all diagnostic checks.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: If any check failed
func runDoctor(cmd *cobra.Command, args []string) error {
	if !doctorOutputJSON {
		ui.PrintInfo("Running diagnostic checks...")
		ui.Println()
	}

	result := collectDoctorChecks(cmd, juju.NewClient)

	if doctorOutputJSON {
		data, _ := json.MarshalIndent(result, "", "  ")
		ui.PrintRaw(string(data))
	} else {
		printDoctorResults(result)
	}

	if !result.Healthy {
		return fmt.Errorf("health check failed")
	}
	return nil
}

// collectDoctorChecks runs every check in order. Checks that depend on an
// earlier one are skipped when it failed.
//
// Parameters:
//   - cmd: The cobra command being executed, for config flags
//   - newClient: Builds the juju client for the loaded config
//
// Returns:
//   - DoctorResult: All check results with totals
func collectDoctorChecks(cmd *cobra.Command, newClient func(config.JujuConfig) *juju.Client) DoctorResult {
	result := DoctorResult{Checks: make([]DoctorCheck, 0), Healthy: true}

	cfg, configCheck := checkConfig(cmd)
	result.add(configCheck)
	if cfg == nil {
		return result
	}

	result.add(checkHarness(cfg))

	client := newClient(cfg.Juju)
	jujuCheck := checkJuju(cmd.Context(), client)
	result.add(jujuCheck)
	if jujuCheck.Status == statusOK {
		result.add(checkStatus(cmd.Context(), client))
	}
	return result
}

// checkConfig loads the effective configuration.
//
// Returns:
//   - *config.Config: The configuration, nil if it could not be loaded
//   - DoctorCheck: The check result
func checkConfig(cmd *cobra.Command) (*config.Config, DoctorCheck) {
	check := DoctorCheck{Name: "Config", Status: statusOK}

	explicit, _ := cmd.Flags().GetString("config")
	path, err := config.ResolvePath(explicit)
	if err != nil {
		check.Status = statusError
		check.Message = err.Error()
		return nil, check
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		check.Status = statusError
		check.Message = "Invalid configuration"
		check.Details = err.Error()
		return nil, check
	}
	check.Message = path
	if cfg.Juju.Model != "" {
		check.Details = "model: " + cfg.Juju.Model
	}
	return cfg, check
}

// checkHarness verifies the tracing harness can be loaded.
func checkHarness(cfg *config.Config) DoctorCheck {
	check := DoctorCheck{Name: "Harness", Status: statusOK, Message: "built-in"}
	if cfg.Harness.Path == "" {
		return check
	}
	if _, err := dispatch.LoadHarness(cfg.Harness.Path); err != nil {
		check.Status = statusError
		check.Message = "Unusable harness"
		check.Details = err.Error()
		return check
	}
	check.Message = cfg.Harness.Path
	return check
}

// checkJuju verifies the juju binary is installed and runs.
func checkJuju(ctx context.Context, client *juju.Client) DoctorCheck {
	check := DoctorCheck{Name: "Juju", Status: statusOK, Message: client.Binary()}

	if err := client.Probe(ctx); err != nil {
		check.Status = statusError
		if errors.Is(err, juju.ErrBinaryNotFound) {
			check.Message = fmt.Sprintf("%s not found", client.Binary())
			check.Details = "Install with: sudo snap install juju --classic"
			return check
		}
		check.Message = "juju version failed"
		check.Details = err.Error()
	}
	return check
}

// checkStatus verifies the model's status can be read.
func checkStatus(ctx context.Context, client *juju.Client) DoctorCheck {
	check := DoctorCheck{Name: "Model", Status: statusOK}

	topology, err := client.Status(ctx)
	if err != nil {
		check.Status = statusError
		check.Message = "Cannot read model status"
		check.Details = err.Error()
		return check
	}

	apps := topology.Applications()
	units := 0
	for _, app := range apps {
		units += len(app.Units)
	}
	check.Message = fmt.Sprintf("%d application(s), %d unit(s)", len(apps), units)
	if len(apps) == 0 {
		check.Status = statusWarning
		check.Details = "Nothing to intercept in this model"
	}
	return check
}

// printDoctorResults prints the checks in human-readable form.
func printDoctorResults(result DoctorResult) {
	for _, check := range result.Checks {
		var icon string
		switch check.Status {
		case statusOK:
			icon = ui.SuccessStyle.Render("✓")
		case statusWarning:
			icon = ui.WarningStyle.Render("⚠")
		case statusError:
			icon = ui.ErrorStyle.Render("✗")
		}

		ui.PrintRaw(fmt.Sprintf("  %s %-10s %s", icon, check.Name+":", check.Message))
		if check.Details != "" {
			ui.PrintRaw("    " + ui.DimStyle.Render(check.Details))
		}
	}

	ui.Println()
	if result.Issues > 0 {
		ui.PrintWarning("%d issue(s) found", result.Issues)
	} else {
		ui.PrintSuccess("All checks passed")
	}
}
