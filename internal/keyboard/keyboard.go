// Package keyboard drives an emulated keyboard channel: non-blocking
// chunked text transmission plus fixed key-combination macros.
// The real implementation writes HID reports to a Linux USB gadget device.
// The fake implementation allows testing without hardware.
package keyboard

import (
	"errors"
	"time"
)

// Key is a USB HID keyboard usage ID. Modifier keys use the reserved
// 0xE0–0xE7 range and are mapped into the report's modifier byte.
type Key uint8

// Chord is a set of keys pressed together and released together.
type Chord []Key

// Named keys used by the macros.
const (
	KeyLeftCtrl Key = 0xE0
	KeyLeftAlt  Key = 0xE2
	KeyLeftGUI  Key = 0xE3
	KeyDelete   Key = 0x4C
	KeyS        Key = 0x16
	KeyU        Key = 0x18
	KeyX        Key = 0x1B
)

// Channel is the capability interface for the underlying keyboard
// transport. All methods are synchronous; Transmit and the two press
// operations must only be called while Connected reports true.
type Channel interface {
	// Connected reports whether a peer host is attached to the channel.
	Connected() bool

	// Transmit types the given bytes on the peer. Returns false on
	// transport failure. The caller bounds p to ChunkSize-sized pieces.
	Transmit(p []byte) bool

	// ReleaseAll releases any keys still held on the peer.
	ReleaseAll()

	// PressComboHold presses all keys together, holds them for the given
	// duration, then releases. Blocks for the hold duration.
	PressComboHold(keys Chord, hold time.Duration)

	// PressSequence presses and releases each chord in order, sleeping
	// for delay between chords. Blocks for (len(steps)-1) * delay.
	PressSequence(steps []Chord, delay time.Duration)
}

// Errors returned by Sender and the macros.
var (
	ErrNotConnected = errors.New("keyboard: no peer connected")
	ErrBusy         = errors.New("keyboard: transmission in progress")
	ErrEmpty        = errors.New("keyboard: empty message")
	ErrTooLong      = errors.New("keyboard: message exceeds maximum length")
	ErrInvalidChars = errors.New("keyboard: message contains invalid characters")
)

// Macro timing, matching what target hosts reliably register.
const (
	keyHoldDuration = 100 * time.Millisecond
	sleepComboDelay = 500 * time.Millisecond
)

// SendCtrlAltDel presses Ctrl+Alt+Del on the peer, holding the combo
// briefly. Synchronous; blocks for the hold duration.
func SendCtrlAltDel(ch Channel) error {
	if !ch.Connected() {
		return ErrNotConnected
	}
	ch.PressComboHold(Chord{KeyLeftCtrl, KeyLeftAlt, KeyDelete}, keyHoldDuration)
	return nil
}

// SendSleepCombo puts a Windows peer to sleep: Win+X to open the power
// menu, then U, then S, with a settling delay between steps. Synchronous;
// blocks for the inter-step delays.
func SendSleepCombo(ch Channel) error {
	if !ch.Connected() {
		return ErrNotConnected
	}
	ch.PressSequence([]Chord{{KeyLeftGUI, KeyX}, {KeyU}, {KeyS}}, sleepComboDelay)
	return nil
}
