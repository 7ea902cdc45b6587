// Package dispatch builds the shell command that re-runs an intercepted hook
// with a Python tracing function installed.
//
// The command is typed into the debug-hooks tmux session through
// `tmux send-keys`, so it has to survive three layers of quoting: the driving
// bash that runs send-keys, the double quotes around the send-keys argument,
// and the $'...' literal that carries the harness source.
package dispatch

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LineOffsetPlaceholder is replaced in the harness by the number of lines the
// harness occupies on the interpreter's stdin, plus one. The harness uses it
// to map stdin line numbers back to lines of src/charm.py.
const LineOffsetPlaceholder = "9999"

// DefaultHarness is the built-in tracing function.
//
//go:embed harness/trace_function.py
var DefaultHarness string

// entryPoints are the call prefixes charm.py uses to hand control to the
// operator framework. sys.settrace is inserted in front of each.
var entryPoints = []string{"ops.main(", "main("}

// Synthesize returns the command that dispatches hook with harness installed.
// The result depends only on its arguments.
//
// Parameters:
//   - hook: Hook name as announced by JUJU_DISPATCH_PATH (e.g. "config-changed")
//   - harness: Python source defining trace_function, containing LineOffsetPlaceholder
//
// Returns:
//   - string: A single shell command line
func Synthesize(hook, harness string) string {
	var b strings.Builder
	b.WriteString("(echo $'")
	b.WriteString(escapeHarness(harness))
	b.WriteString("';")
	for _, entry := range entryPoints {
		fmt.Fprintf(&b, `sed 's/    %s/    sys.settrace(trace_function)\n    %s/' ./src/charm.py;`, entry, entry)
	}
	b.WriteString(") | JUJU_DISPATCH_PATH='hooks/")
	b.WriteString(hook)
	b.WriteString("' PYTHONPATH=lib:venv /usr/bin/env python3 -")
	return b.String()
}

// escapeHarness turns indentation into \t escapes, protects double quotes
// from the send-keys quoting, and fills in the line offset.
//
// echo terminates the harness with its own newline, so one trailing newline
// is dropped first. python then sees exactly lineCount harness lines before
// the first line of src/charm.py.
func escapeHarness(harness string) string {
	harness = strings.TrimSuffix(harness, "\n")
	offset := lineCount(harness) + 1
	escaped := strings.ReplaceAll(harness, "    ", `\t`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return strings.ReplaceAll(escaped, LineOffsetPlaceholder, strconv.Itoa(offset))
}

// lineCount counts lines the way a line iterator does: a trailing newline
// does not start another line.
func lineCount(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// SendKeysCommand wraps a dispatch script in the tmux command that types it
// into the unit's debug-hooks session and then exits that shell, which lets
// the held hook complete.
func SendKeysCommand(session, script string) string {
	return fmt.Sprintf("tmux send-keys -t %s \"%s; exit\" ENTER\n", session, script)
}

// EnvRequestCommand is the tmux command that makes the debug-hooks shell print
// its environment, which carries JUJU_DISPATCH_PATH once a hook is held.
func EnvRequestCommand(session string) string {
	return fmt.Sprintf("tmux send-keys -t %s \"env\" ENTER\n", session)
}

// LoadHarness returns the harness at path, or DefaultHarness when path is
// empty. A harness without the line offset placeholder is rejected because
// its line numbers would point into the wrong file.
func LoadHarness(path string) (string, error) {
	if path == "" {
		return DefaultHarness, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read harness: %w", err)
	}
	harness := string(data)
	if !strings.Contains(harness, LineOffsetPlaceholder) {
		return "", fmt.Errorf("harness %s does not contain the line offset placeholder %s", path, LineOffsetPlaceholder)
	}
	if !strings.Contains(harness, "def trace_function") {
		return "", fmt.Errorf("harness %s does not define trace_function", path)
	}
	return harness, nil
}
