// Package detect finds the hook dispatch announcement in debug-hooks output.
//
// When debug-hooks holds a unit, the tmux session it opens carries the hook's
// environment. Asking that terminal to print `env` eventually produces a line
// such as
//
//	JUJU_DISPATCH_PATH=hooks/config-changed
//
// followed by terminal escape sequences. The Detector accumulates raw terminal
// bytes across reads and extracts the hook name once the whole token has
// arrived.
package detect

import (
	"bytes"
	"regexp"
)

// Marker is the text that announces the dispatch path.
const Marker = "JUJU_DISPATCH_PATH="

// escape is the byte that terminates the announcement in terminal output.
const escape = 0x1b

var (
	// strictPattern only allows lowercase letters with hyphens between them,
	// which is enough for single and double word hooks such as install or
	// config-changed.
	strictPattern = regexp.MustCompile(`JUJU_DISPATCH_PATH=hooks/([a-z]*-*[a-z]*)\x1b`)

	// extendedPattern allows any number of hyphen separated lowercase
	// alphanumeric words, covering leader-settings-changed and relation
	// hooks like db-relation-joined.
	extendedPattern = regexp.MustCompile(`JUJU_DISPATCH_PATH=hooks/([a-z][a-z0-9]*(?:-[a-z0-9]+)*)\x1b`)
)

// Pattern selects how hook names are matched.
type Pattern int

const (
	// Extended accepts hyphen separated lowercase alphanumeric words.
	Extended Pattern = iota
	// Strict accepts lowercase letters with at most one run of hyphens.
	Strict
)

// ParsePattern maps a config value to a Pattern. Unknown values select Extended.
func ParsePattern(name string) Pattern {
	if name == "strict" {
		return Strict
	}
	return Extended
}

func (p Pattern) regexp() *regexp.Regexp {
	if p == Strict {
		return strictPattern
	}
	return extendedPattern
}

// DefaultMaxBuffer is the buffer cap used when none is configured.
const DefaultMaxBuffer = 64 * 1024

// Detector scans an append-only terminal stream for the dispatch token.
// It is not safe for concurrent use; each polling cycle owns one.
type Detector struct {
	re      *regexp.Regexp
	max     int
	buf     []byte
	found   bool
	hook    string
	scanned int
}

// New creates a detector. maxBuffer values below the longest possible
// token are raised to DefaultMaxBuffer.
func New(pattern Pattern, maxBuffer int) *Detector {
	if maxBuffer < 1024 {
		maxBuffer = DefaultMaxBuffer
	}
	return &Detector{re: pattern.regexp(), max: maxBuffer}
}

// Reset discards the buffer and any extracted hook, starting a new cycle.
func (d *Detector) Reset() {
	d.buf = d.buf[:0]
	d.found = false
	d.hook = ""
	d.scanned = 0
}

// Feed appends terminal output and reports the hook name the first time a
// complete dispatch token is seen. Later calls in the same cycle return
// ("", false) even if more tokens arrive.
//
// A marker without a complete token (no escape byte yet, or a name the
// pattern rejects) is not an error: the bytes are kept and scanning resumes
// on the next Feed.
func (d *Detector) Feed(data []byte) (string, bool) {
	if d.found {
		return "", false
	}
	d.buf = append(d.buf, data...)
	d.scanned += len(data)

	if bytes.Contains(d.buf, []byte(Marker)) {
		if m := d.re.FindSubmatch(d.buf); m != nil && len(m[1]) > 0 {
			d.found = true
			d.hook = string(m[1])
			return d.hook, true
		}
	}
	d.compact()
	return "", false
}

// Hook returns the extracted hook name, if any.
func (d *Detector) Hook() (string, bool) {
	return d.hook, d.found
}

// Len returns the number of bytes currently buffered.
func (d *Detector) Len() int {
	return len(d.buf)
}

// Scanned returns the total number of bytes fed in this cycle.
func (d *Detector) Scanned() int {
	return d.scanned
}

// compact bounds the buffer after a feed that produced no hook name.
//
// Bytes before the last marker can never complete a token that the last
// marker cannot, so they are dropped. Without a marker only a tail shorter
// than the marker is kept, which is all a split marker can need. A buffer
// still over the cap after that is a marker followed by a runaway line and
// is cut to its newest bytes.
func (d *Detector) compact() {
	keepFrom := 0
	if i := bytes.LastIndex(d.buf, []byte(Marker)); i >= 0 {
		keepFrom = i
		// An escape byte after the marker means the token is complete but
		// rejected by the pattern; nothing from this marker can match later.
		if bytes.IndexByte(d.buf[i:], escape) >= 0 {
			keepFrom = len(d.buf) - (len(Marker) - 1)
		}
	} else {
		keepFrom = len(d.buf) - (len(Marker) - 1)
	}
	if keepFrom < 0 {
		keepFrom = 0
	}
	if len(d.buf)-keepFrom > d.max {
		keepFrom = len(d.buf) - d.max
	}
	if keepFrom > 0 {
		n := copy(d.buf, d.buf[keepFrom:])
		d.buf = d.buf[:n]
	}
}
