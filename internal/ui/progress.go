// Package ui provides the spinner shown while remote sessions settle.
package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinnerMu     sync.Mutex
	spinnerStop   chan struct{}
	spinnerDone   chan struct{}
	spinnerActive bool
)

// IsInteractive reports whether stdout is attached to a terminal.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// StartSpinner starts an animated spinner with a message. When stdout is not
// a terminal, or quiet mode is on, the message is printed once as a dim line
// instead.
//
// Parameters:
//   - message: The message to display next to the spinner
func StartSpinner(message string) {
	if !IsInteractive() {
		PrintDim("%s", message)
		return
	}
	if IsQuiet() {
		return
	}

	spinnerMu.Lock()
	defer spinnerMu.Unlock()

	if spinnerActive {
		return
	}

	spinnerActive = true
	spinnerStop = make(chan struct{})
	spinnerDone = make(chan struct{})

	go spin(message, spinnerStop, spinnerDone)
}

// spin redraws the spinner line until stop is closed, then blanks it. Frames
// go through the shared writer so they never interleave with printed lines.
func spin(message string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	i := 0
	for {
		frame := SpinnerStyle.Render(spinnerFrames[i%len(spinnerFrames)])
		writeFrame(fmt.Sprintf("\r%s %s", frame, message))
		i++
		select {
		case <-stop:
			writeFrame("\r" + strings.Repeat(" ", lipgloss.Width(message)+2) + "\r")
			return
		case <-ticker.C:
		}
	}
}

// StopSpinner stops the current spinner and waits for its line to be cleared.
func StopSpinner() {
	spinnerMu.Lock()
	defer spinnerMu.Unlock()

	if !spinnerActive {
		return
	}

	close(spinnerStop)
	<-spinnerDone
	spinnerActive = false
}
