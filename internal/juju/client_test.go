package juju

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"reflect"
	"strings"
	"syscall"
	"testing"

	"github.com/tidwall/sjson"

	"github.com/hooktrace/cli/internal/config"
)

// fakeRunner records invocations and answers from a table keyed by the
// joined argument list.
type fakeRunner struct {
	calls   [][]string
	outputs map[string]string
	errs    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	k := strings.Join(args, " ")
	if err, ok := f.errs[k]; ok {
		return nil, err
	}
	return []byte(f.outputs[k]), nil
}

// statusJSON builds a status document with the given applications and units.
func statusJSON(t *testing.T, apps map[string][]string, order []string) string {
	t.Helper()
	doc := `{"model":{"name":"test"},"applications":{}}`
	var err error
	for _, app := range order {
		doc, err = sjson.SetRaw(doc, "applications."+app, `{"charm":"`+app+`"}`)
		if err != nil {
			t.Fatalf("sjson: %v", err)
		}
		for _, unit := range apps[app] {
			doc, err = sjson.Set(doc, "applications."+app+".units."+strings.ReplaceAll(unit, ".", `\.`)+".workload-status.current", "active")
			if err != nil {
				t.Fatalf("sjson: %v", err)
			}
		}
	}
	return doc
}

func TestParseStatusKeySets(t *testing.T) {
	doc := statusJSON(t, map[string][]string{
		"postgresql": {"postgresql/0", "postgresql/1"},
		"nginx":      {"nginx/0"},
		"idle":       nil,
	}, []string{"postgresql", "nginx", "idle"})

	topo, err := ParseStatus([]byte(doc))
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}

	if got, want := topo.ApplicationNames(), []string{"postgresql", "nginx", "idle"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ApplicationNames() = %v, want %v", got, want)
	}
	if got, want := topo.Units("postgresql"), []string{"postgresql/0", "postgresql/1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Units(postgresql) = %v, want %v", got, want)
	}
	if got := topo.Units("idle"); len(got) != 0 {
		t.Errorf("Units(idle) = %v, want empty", got)
	}
	if got := topo.Units("missing"); len(got) != 0 {
		t.Errorf("Units(missing) = %v, want empty", got)
	}
	if !topo.HasApplication("nginx") || topo.HasApplication("missing") {
		t.Error("HasApplication() returned wrong membership")
	}
}

func TestParseStatusMalformed(t *testing.T) {
	for _, doc := range []string{"not json", `{"model":{}}`, `{"applications":[]}`} {
		_, err := ParseStatus([]byte(doc))
		if !errors.Is(err, ErrMalformedStatus) {
			t.Errorf("ParseStatus(%q) error = %v, want ErrMalformedStatus", doc, err)
		}
	}
}

func TestStatusBinaryNotFound(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["version"] = &exec.Error{Name: "juju", Err: exec.ErrNotFound}
	client := NewClientWithRunner(config.JujuConfig{Binary: "juju"}, runner)

	_, err := client.Status(context.Background())
	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("Status() error = %v, want *EnvironmentError", err)
	}
	if !errors.Is(err, ErrBinaryNotFound) {
		t.Errorf("Status() error = %v, want ErrBinaryNotFound", err)
	}
	if !strings.Contains(err.Error(), "was not found in your PATH") {
		t.Errorf("Error() = %q, want PATH message", err.Error())
	}
	if len(runner.calls) != 1 {
		t.Errorf("calls = %v, want only the version probe", runner.calls)
	}
}

func TestStatusConfiguredPathNotFound(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["version"] = &fs.PathError{Op: "fork/exec", Path: "/opt/nowhere/juju", Err: syscall.ENOENT}
	client := NewClientWithRunner(config.JujuConfig{Binary: "/opt/nowhere/juju"}, runner)

	_, err := client.Status(context.Background())
	if !errors.Is(err, ErrBinaryNotFound) {
		t.Fatalf("Status() error = %v, want ErrBinaryNotFound", err)
	}
	if got, want := err.Error(), "`/opt/nowhere/juju` was not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestStatusOtherFailureIsDistinct(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["status --format=json"] = &exec.ExitError{Stderr: []byte("ERROR no controller\n")}
	client := NewClientWithRunner(config.JujuConfig{Binary: "juju"}, runner)

	_, err := client.Status(context.Background())
	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("Status() error = %v, want *EnvironmentError", err)
	}
	if errors.Is(err, ErrBinaryNotFound) {
		t.Error("invocation failure reported as binary not found")
	}
	if envErr.Stderr != "ERROR no controller" {
		t.Errorf("Stderr = %q", envErr.Stderr)
	}
}

func TestListUnitsFetchesFreshSnapshots(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["status --format=json"] = statusJSON(t, map[string][]string{"redis": {"redis/0"}}, []string{"redis"})
	client := NewClientWithRunner(config.JujuConfig{Binary: "juju"}, runner)

	apps, err := client.ListApplications(context.Background())
	if err != nil {
		t.Fatalf("ListApplications() error = %v", err)
	}
	units, err := client.ListUnits(context.Background(), "redis")
	if err != nil {
		t.Fatalf("ListUnits() error = %v", err)
	}
	if !reflect.DeepEqual(apps, []string{"redis"}) || !reflect.DeepEqual(units, []string{"redis/0"}) {
		t.Errorf("apps = %v units = %v", apps, units)
	}

	statusCalls := 0
	for _, call := range runner.calls {
		if len(call) > 1 && call[1] == "status" {
			statusCalls++
		}
	}
	if statusCalls != 2 {
		t.Errorf("status invoked %d times, want 2", statusCalls)
	}
}

func TestModelFlagPrecedesPositionals(t *testing.T) {
	client := NewClient(config.JujuConfig{Binary: "juju", Model: "lab"})

	if got, want := client.ShellArgs("app/0"), []string{"ssh", "-m", "lab", "app/0", "bash"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ShellArgs() = %v, want %v", got, want)
	}
	if got, want := client.DebugHooksArgs("app/0"), []string{"debug-hooks", "-m", "lab", "app/0"}; !reflect.DeepEqual(got, want) {
		t.Errorf("DebugHooksArgs() = %v, want %v", got, want)
	}
}

func TestTeardownCommands(t *testing.T) {
	runner := newFakeRunner()
	client := NewClientWithRunner(config.JujuConfig{Binary: "juju"}, runner)

	if err := client.KillSession(context.Background(), "app/0"); err != nil {
		t.Fatalf("KillSession() error = %v", err)
	}
	if err := client.Resolve(context.Background(), "app/0"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := [][]string{
		{"juju", "ssh", "app/0", "tmux", "kill-session", "-t", "app/0"},
		{"juju", "resolve", "app/0"},
	}
	if !reflect.DeepEqual(runner.calls, want) {
		t.Errorf("calls = %v, want %v", runner.calls, want)
	}
}
