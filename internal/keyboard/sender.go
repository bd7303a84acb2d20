package keyboard

import (
	"sync"

	"github.com/sweeney/keyremote/internal/ticks"
)

// Transmission defaults. Small chunks with spacing keep delivery reliable
// on slow HID links.
const (
	DefaultChunkSize    = 4
	DefaultChunkDelayMs = 100

	// MaxMessageLen bounds a single message to keep memory and typing
	// time in check.
	MaxMessageLen = 1000
)

// Sender transmits one message at a time through a Channel in paced
// chunks, without blocking the poll loop. At most one message is in
// flight; enqueuing while busy is rejected, not queued.
// Safe for concurrent use.
type Sender struct {
	mu         sync.Mutex
	ch         Channel
	chunkSize  int
	chunkDelay ticks.Millis

	payload   []byte
	cursor    int
	lastChunk ticks.Millis
	active    bool
}

// NewSender creates a Sender over the given channel. chunkSize and
// chunkDelayMs of 0 select the defaults.
func NewSender(ch Channel, chunkSize int, chunkDelayMs ticks.Millis) *Sender {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkDelayMs == 0 {
		chunkDelayMs = DefaultChunkDelayMs
	}
	return &Sender{ch: ch, chunkSize: chunkSize, chunkDelay: chunkDelayMs}
}

// Enqueue starts transmitting text. It fails with ErrNotConnected,
// ErrBusy, ErrEmpty or ErrTooLong without touching any in-flight state.
func (s *Sender) Enqueue(text string, now ticks.Millis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ch.Connected() {
		return ErrNotConnected
	}
	if s.active {
		return ErrBusy
	}
	if len(text) == 0 {
		return ErrEmpty
	}
	if len(text) > MaxMessageLen {
		return ErrTooLong
	}

	s.payload = []byte(text)
	s.cursor = 0
	s.lastChunk = now
	s.active = true
	return nil
}

// Advance performs one pacing step. Call it every loop tick; it emits at
// most one chunk per call and only after the inter-chunk delay has
// elapsed. A disconnect or transmit failure aborts the message outright:
// bytes already typed stay typed, the remainder is dropped.
func (s *Sender) Advance(now ticks.Millis) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	if !ticks.HasElapsed(s.lastChunk, now, s.chunkDelay) {
		return
	}

	if !s.ch.Connected() {
		s.reset()
		return
	}

	chunkLen := len(s.payload) - s.cursor
	if chunkLen > s.chunkSize {
		chunkLen = s.chunkSize
	}

	if !s.ch.Transmit(s.payload[s.cursor : s.cursor+chunkLen]) {
		s.reset()
		return
	}

	s.cursor += chunkLen
	s.lastChunk = now

	if s.cursor == len(s.payload) {
		s.ch.ReleaseAll()
		s.reset()
	}
}

// Busy reports whether a message is in flight.
func (s *Sender) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Progress returns the percentage (0–100) of the in-flight message
// already transmitted, or 0 when idle.
func (s *Sender) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || len(s.payload) == 0 {
		return 0
	}
	return s.cursor * 100 / len(s.payload)
}

// reset returns the sender to idle. Caller holds the lock.
func (s *Sender) reset() {
	s.payload = nil
	s.cursor = 0
	s.lastChunk = 0
	s.active = false
}
