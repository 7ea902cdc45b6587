package session

import (
	"sync"
)

// DefaultOutputLimit caps the bytes held between two drains. Older bytes are
// dropped first.
const DefaultOutputLimit = 256 * 1024

// incompleteUTF8Tail returns the number of trailing bytes that form an
// incomplete multi-byte UTF-8 sequence. They are held back until the rest of
// the character arrives so a drain never splits a character.
func incompleteUTF8Tail(data []byte) int {
	n := len(data)
	if n == 0 || data[n-1] < 0x80 {
		return 0
	}
	for i := 0; i < 4 && i < n; i++ {
		b := data[n-1-i]
		if b&0xC0 != 0x80 {
			var seqLen int
			switch {
			case b&0xE0 == 0xC0:
				seqLen = 2
			case b&0xF0 == 0xE0:
				seqLen = 3
			case b&0xF8 == 0xF0:
				seqLen = 4
			default:
				return 0
			}
			if have := i + 1; have < seqLen {
				return have
			}
			return 0
		}
	}
	return 0
}

// outputBuffer collects terminal output written by the pty reader goroutine
// until the polling loop drains it.
type outputBuffer struct {
	mu      sync.Mutex
	limit   int
	buf     []byte
	pending []byte
	dropped int
}

func newOutputBuffer(limit int) *outputBuffer {
	if limit <= 0 {
		limit = DefaultOutputLimit
	}
	return &outputBuffer{limit: limit}
}

// Write appends complete characters and keeps any partial one pending.
func (o *outputBuffer) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	chunk := append(o.pending, p...)
	o.pending = nil
	if tail := incompleteUTF8Tail(chunk); tail > 0 {
		o.pending = append([]byte(nil), chunk[len(chunk)-tail:]...)
		chunk = chunk[:len(chunk)-tail]
	}
	o.buf = append(o.buf, chunk...)
	if over := len(o.buf) - o.limit; over > 0 {
		o.dropped += over
		o.buf = append(o.buf[:0], o.buf[over:]...)
	}
	return len(p), nil
}

// Drain returns everything written since the previous drain. It never
// blocks; an empty result means nothing arrived.
func (o *outputBuffer) Drain() []byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.buf) == 0 {
		return nil
	}
	out := o.buf
	o.buf = nil
	return out
}

// Flush moves any pending partial character into the buffer. Called once the
// stream has ended.
func (o *outputBuffer) Flush() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf = append(o.buf, o.pending...)
	o.pending = nil
}

// Dropped reports how many bytes were discarded because nobody drained them.
func (o *outputBuffer) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}
