package detect

import (
	"strings"
	"testing"
)

func TestFeedExtractsHookName(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		input   string
		want    string
		wantOK  bool
	}{
		{
			name:   "hyphenated hook",
			input:  "PATH=/usr/bin\r\nJUJU_DISPATCH_PATH=hooks/config-changed\x1b[K\r\nJUJU_UNIT_NAME=app/0",
			want:   "config-changed",
			wantOK: true,
		},
		{
			name:   "single word hook",
			input:  "noise JUJU_DISPATCH_PATH=hooks/install\x1b[0m more",
			want:   "install",
			wantOK: true,
		},
		{
			name:   "marker without escape byte",
			input:  "JUJU_DISPATCH_PATH=hooks/install\r\n",
			wantOK: false,
		},
		{
			name:   "no marker",
			input:  "JUJU_UNIT_NAME=app/0\x1b[K",
			wantOK: false,
		},
		{
			name:   "multi hyphen hook extended",
			input:  "JUJU_DISPATCH_PATH=hooks/leader-settings-changed\x1b[K",
			want:   "leader-settings-changed",
			wantOK: true,
		},
		{
			name:    "multi hyphen hook strict",
			pattern: Strict,
			input:   "JUJU_DISPATCH_PATH=hooks/leader-settings-changed\x1b[K",
			wantOK:  false,
		},
		{
			name:    "strict still matches config-changed",
			pattern: Strict,
			input:   "JUJU_DISPATCH_PATH=hooks/config-changed\x1b[K",
			want:    "config-changed",
			wantOK:  true,
		},
		{
			name:   "relation hook with digits",
			input:  "JUJU_DISPATCH_PATH=hooks/db2-relation-joined\x1b",
			want:   "db2-relation-joined",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.pattern, 0)
			got, ok := d.Feed([]byte(tt.input))
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("Feed() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFeedAcrossSplitReads(t *testing.T) {
	stream := "env output\r\nJUJU_DISPATCH_PATH=hooks/update-status\x1b[K\r\n"
	d := New(Extended, 0)

	var got string
	var ok bool
	for i := 0; i < len(stream); i += 3 {
		end := i + 3
		if end > len(stream) {
			end = len(stream)
		}
		if hook, found := d.Feed([]byte(stream[i:end])); found {
			got, ok = hook, found
		}
	}
	if !ok || got != "update-status" {
		t.Fatalf("split feed found (%q, %v), want update-status", got, ok)
	}
}

func TestFeedExtractsAtMostOncePerCycle(t *testing.T) {
	d := New(Extended, 0)
	if _, ok := d.Feed([]byte("JUJU_DISPATCH_PATH=hooks/install\x1b")); !ok {
		t.Fatal("first Feed() did not find hook")
	}
	if hook, ok := d.Feed([]byte("JUJU_DISPATCH_PATH=hooks/start\x1b")); ok {
		t.Fatalf("second Feed() = %q, want no second extraction", hook)
	}
	if hook, ok := d.Hook(); !ok || hook != "install" {
		t.Fatalf("Hook() = (%q, %v), want install", hook, ok)
	}

	d.Reset()
	if hook, ok := d.Feed([]byte("JUJU_DISPATCH_PATH=hooks/start\x1b")); !ok || hook != "start" {
		t.Fatalf("Feed() after Reset = (%q, %v), want start", hook, ok)
	}
}

func TestBufferStaysBounded(t *testing.T) {
	d := New(Extended, 2048)
	line := []byte(strings.Repeat("x", 500) + "\r\n")
	for i := 0; i < 1000; i++ {
		if _, ok := d.Feed(line); ok {
			t.Fatal("unexpected hook")
		}
		if d.Len() > 2048 {
			t.Fatalf("buffer grew to %d bytes", d.Len())
		}
	}
	if d.Scanned() != 1000*len(line) {
		t.Errorf("Scanned() = %d", d.Scanned())
	}

	// A marker split across the compaction boundary is still found.
	d.Feed([]byte("JUJU_DISPATCH_"))
	hook, ok := d.Feed([]byte("PATH=hooks/stop\x1b"))
	if !ok || hook != "stop" {
		t.Fatalf("Feed() = (%q, %v), want stop", hook, ok)
	}
}

func TestRejectedTokenIsDropped(t *testing.T) {
	d := New(Strict, 0)
	d.Feed([]byte("JUJU_DISPATCH_PATH=hooks/a-b-c\x1b"))
	if d.Len() >= len(Marker) {
		t.Errorf("Len() = %d, rejected token should be compacted away", d.Len())
	}
}
