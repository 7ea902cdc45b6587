// Package ui provides message printing utilities.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	outMu     sync.Mutex
	out       io.Writer = os.Stdout
	quietMode bool
)

// SetQuietMode suppresses non-essential output (info, dim and success lines).
// Errors and warnings are always printed.
func SetQuietMode(quiet bool) {
	outMu.Lock()
	defer outMu.Unlock()
	quietMode = quiet
}

// IsQuiet reports whether quiet mode is enabled.
func IsQuiet() bool {
	outMu.Lock()
	defer outMu.Unlock()
	return quietMode
}

// SetOutput redirects all ui output. It returns the previous writer so tests
// can restore it.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := out
	out = w
	return prev
}

func emit(essential bool, line string) {
	outMu.Lock()
	defer outMu.Unlock()
	if quietMode && !essential {
		return
	}
	fmt.Fprintln(out, line)
}

// writeFrame writes s without a newline, for in-place redraws.
func writeFrame(s string) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprint(out, s)
}

// Println prints an empty line.
func Println() {
	emit(false, "")
}

// PrintSuccess prints a success message.
//
// Parameters:
//   - format: Printf format string
//   - args: Printf arguments
func PrintSuccess(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	emit(false, SuccessStyle.Render("✓ "+msg))
}

// PrintError prints an error message.
//
// Parameters:
//   - format: Printf format string
//   - args: Printf arguments
func PrintError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	emit(true, ErrorStyle.Render("✗ "+msg))
}

// PrintWarning prints a warning message.
//
// Parameters:
//   - format: Printf format string
//   - args: Printf arguments
func PrintWarning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	emit(true, WarningStyle.Render("⚠ "+msg))
}

// PrintInfo prints an informational message.
func PrintInfo(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	emit(false, InfoStyle.Render(msg))
}

// PrintDim prints a dimmed message.
func PrintDim(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	emit(false, DimStyle.Render(msg))
}

// PrintBox prints content in a styled box.
//
// Parameters:
//   - title: Box title
//   - content: Box content
func PrintBox(title, content string) {
	titleStyled := BoxTitleStyle.Render(title)
	emit(false, BoxStyle.Render(titleStyled+"\n"+content))
}

// PrintRaw prints text without styling. It is used for machine readable
// output such as JSON documents and synthesized scripts, so it ignores quiet
// mode.
func PrintRaw(text string) {
	emit(true, text)
}
