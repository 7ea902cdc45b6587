package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/hooktrace/cli/internal/config"
	"github.com/hooktrace/cli/internal/juju"
)

// doctorRunner answers juju invocations from tables keyed by the joined
// argument list.
type doctorRunner struct {
	outputs map[string]string
	errs    map[string]error
}

func (r *doctorRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	k := strings.Join(args, " ")
	if err, ok := r.errs[k]; ok {
		return nil, err
	}
	return []byte(r.outputs[k]), nil
}

const oneUnitStatus = `{"applications":{"db":{"units":{"db/0":{}}}}}`

func healthyRunner() *doctorRunner {
	return &doctorRunner{
		outputs: map[string]string{
			"version":              "3.4.0-ubuntu-amd64",
			"status --format=json": oneUnitStatus,
		},
		errs: map[string]error{},
	}
}

// newDoctorCommand builds a command carrying the flags loadConfig reads.
func newDoctorCommand(t *testing.T, configPath string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "doctor"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().StringP(config.FlagModel, "m", "", "")
	if configPath != "" {
		if err := cmd.Flags().Set("config", configPath); err != nil {
			t.Fatalf("set --config: %v", err)
		}
	}
	cmd.SetContext(context.Background())
	return cmd
}

func clientFor(runner juju.Runner) func(config.JujuConfig) *juju.Client {
	return func(cfg config.JujuConfig) *juju.Client {
		return juju.NewClientWithRunner(cfg, runner)
	}
}

func TestCheckConfig(t *testing.T) {
	valid := writeConfig(t, "juju:\n  model: staging\n")
	invalid := writeConfig(t, "detector:\n  pattern: loose\n")
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	tests := []struct {
		name       string
		path       string
		wantStatus string
		wantCfg    bool
	}{
		{"valid file", valid, statusOK, true},
		{"invalid value", invalid, statusError, false},
		{"missing explicit file", missing, statusError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, check := checkConfig(newDoctorCommand(t, tt.path))
			if check.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q (%s)", check.Status, tt.wantStatus, check.Details)
			}
			if (cfg != nil) != tt.wantCfg {
				t.Errorf("config returned = %v, want %v", cfg != nil, tt.wantCfg)
			}
		})
	}

	cfg, check := checkConfig(newDoctorCommand(t, valid))
	if check.Message != valid || check.Details != "model: staging" || cfg.Juju.Model != "staging" {
		t.Errorf("valid check = %+v", check)
	}
}

func TestCheckConfigDefaultLocationMayBeMissing(t *testing.T) {
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, check := checkConfig(newDoctorCommand(t, ""))
	if check.Status != statusOK || cfg == nil {
		t.Fatalf("check = %+v, want defaults accepted", check)
	}
}

func TestCheckHarness(t *testing.T) {
	good := writeConfig(t, "def trace_function(f, e, _):\n    return lines[9999]\n")
	bad := writeConfig(t, "def trace_function(f, e, _):\n    pass\n")

	tests := []struct {
		name        string
		path        string
		wantStatus  string
		wantMessage string
	}{
		{"built-in", "", statusOK, "built-in"},
		{"usable file", good, statusOK, good},
		{"missing placeholder", bad, statusError, "Unusable harness"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Harness.Path = tt.path
			check := checkHarness(cfg)
			if check.Status != tt.wantStatus || check.Message != tt.wantMessage {
				t.Errorf("check = %+v, want %s %q", check, tt.wantStatus, tt.wantMessage)
			}
		})
	}
}

func TestCheckJuju(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  string
		wantMessage string
	}{
		{"answers", nil, statusOK, "juju"},
		{"not installed", &exec.Error{Name: "juju", Err: exec.ErrNotFound}, statusError, "juju not found"},
		{"fails", errors.New("exit status 2"), statusError, "juju version failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := healthyRunner()
			if tt.err != nil {
				runner.errs["version"] = tt.err
			}
			client := juju.NewClientWithRunner(config.JujuConfig{Binary: "juju"}, runner)

			check := checkJuju(context.Background(), client)
			if check.Status != tt.wantStatus || check.Message != tt.wantMessage {
				t.Errorf("check = %+v, want %s %q", check, tt.wantStatus, tt.wantMessage)
			}
		})
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		wantStatus  string
		wantMessage string
	}{
		{"one unit", oneUnitStatus, statusOK, "1 application(s), 1 unit(s)"},
		{"empty model", `{"applications":{}}`, statusWarning, "0 application(s), 0 unit(s)"},
		{"malformed", `not json`, statusError, "Cannot read model status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := healthyRunner()
			runner.outputs["status --format=json"] = tt.status
			client := juju.NewClientWithRunner(config.JujuConfig{Binary: "juju"}, runner)

			check := checkStatus(context.Background(), client)
			if check.Status != tt.wantStatus || check.Message != tt.wantMessage {
				t.Errorf("check = %+v, want %s %q", check, tt.wantStatus, tt.wantMessage)
			}
		})
	}
}

func TestCollectDoctorChecks(t *testing.T) {
	validConfig := writeConfig(t, "juju:\n  binary: juju\n")
	invalidConfig := writeConfig(t, "timings:\n  poll_interval: 0s\n")

	emptyModel := healthyRunner()
	emptyModel.outputs["status --format=json"] = `{"applications":{}}`
	missingJuju := healthyRunner()
	missingJuju.errs["version"] = &exec.Error{Name: "juju", Err: exec.ErrNotFound}

	tests := []struct {
		name        string
		configPath  string
		runner      *doctorRunner
		wantChecks  []string
		wantIssues  int
		wantHealthy bool
	}{
		{"healthy", validConfig, healthyRunner(), []string{"Config", "Harness", "Juju", "Model"}, 0, true},
		{"empty model warns", validConfig, emptyModel, []string{"Config", "Harness", "Juju", "Model"}, 1, true},
		{"missing juju skips model", validConfig, missingJuju, []string{"Config", "Harness", "Juju"}, 1, false},
		{"invalid config stops early", invalidConfig, healthyRunner(), []string{"Config"}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := collectDoctorChecks(newDoctorCommand(t, tt.configPath), clientFor(tt.runner))

			var names []string
			for _, check := range result.Checks {
				names = append(names, check.Name)
			}
			if strings.Join(names, ",") != strings.Join(tt.wantChecks, ",") {
				t.Errorf("checks = %v, want %v", names, tt.wantChecks)
			}
			if result.Issues != tt.wantIssues {
				t.Errorf("Issues = %d, want %d", result.Issues, tt.wantIssues)
			}
			if result.Healthy != tt.wantHealthy {
				t.Errorf("Healthy = %v, want %v", result.Healthy, tt.wantHealthy)
			}
		})
	}
}

func TestDoctorResultJSONShape(t *testing.T) {
	path := writeConfig(t, "juju:\n  binary: juju\n")
	result := collectDoctorChecks(newDoctorCommand(t, path), clientFor(healthyRunner()))

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	doc := gjson.ParseBytes(data)
	if got := doc.Get("checks.#").Int(); got != 4 {
		t.Errorf("checks.# = %d, want 4", got)
	}
	if got := doc.Get("checks.0.name").String(); got != "Config" {
		t.Errorf("checks.0.name = %q", got)
	}
	if got := doc.Get("checks.3.message").String(); got != "1 application(s), 1 unit(s)" {
		t.Errorf("checks.3.message = %q", got)
	}
	if doc.Get("checks.1.details").Exists() {
		t.Error("empty details should be omitted")
	}
	if !doc.Get("healthy").Bool() || doc.Get("issues").Int() != 0 {
		t.Errorf("totals = %s / %s", doc.Get("healthy").Raw, doc.Get("issues").Raw)
	}
}
