package keyboard

import "time"

// FakeChannel is a test double that records everything sent through it.
type FakeChannel struct {
	// Peer controls the return value of Connected.
	Peer bool

	// TransmitOK controls the return value of Transmit (default false;
	// set true for successful sends).
	TransmitOK bool

	// FailAfter, if > 0, makes Transmit fail once that many calls have
	// succeeded.
	FailAfter int

	// Transmits records each Transmit payload.
	Transmits [][]byte

	// Released counts ReleaseAll calls.
	Released int

	// Combos records each PressComboHold call.
	Combos []ComboCall

	// Sequences records each PressSequence call.
	Sequences []SequenceCall
}

// ComboCall records one PressComboHold invocation.
type ComboCall struct {
	Keys Chord
	Hold time.Duration
}

// SequenceCall records one PressSequence invocation.
type SequenceCall struct {
	Steps []Chord
	Delay time.Duration
}

// NewFakeChannel creates a connected FakeChannel whose transmits succeed.
func NewFakeChannel() *FakeChannel {
	return &FakeChannel{Peer: true, TransmitOK: true}
}

// Connected reports the scripted peer state.
func (f *FakeChannel) Connected() bool {
	return f.Peer
}

// Transmit records the payload. A copy is stored so later mutation of the
// caller's buffer cannot corrupt assertions.
func (f *FakeChannel) Transmit(p []byte) bool {
	if !f.TransmitOK {
		return false
	}
	if f.FailAfter > 0 && len(f.Transmits) >= f.FailAfter {
		return false
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	f.Transmits = append(f.Transmits, cp)
	return true
}

// ReleaseAll counts the release.
func (f *FakeChannel) ReleaseAll() {
	f.Released++
}

// PressComboHold records the call without sleeping.
func (f *FakeChannel) PressComboHold(keys Chord, hold time.Duration) {
	f.Combos = append(f.Combos, ComboCall{Keys: keys, Hold: hold})
}

// PressSequence records the call without sleeping.
func (f *FakeChannel) PressSequence(steps []Chord, delay time.Duration) {
	f.Sequences = append(f.Sequences, SequenceCall{Steps: steps, Delay: delay})
}

// Sent returns the concatenation of all transmitted chunks.
func (f *FakeChannel) Sent() []byte {
	var out []byte
	for _, c := range f.Transmits {
		out = append(out, c...)
	}
	return out
}

// Reset clears all recorded calls.
func (f *FakeChannel) Reset() {
	f.Transmits = nil
	f.Released = 0
	f.Combos = nil
	f.Sequences = nil
}
