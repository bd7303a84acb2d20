//go:build !linux

package keyboard

import (
	"errors"
	"time"
)

// HIDGadget is not available on non-Linux platforms.
type HIDGadget struct{}

// NewHIDGadget returns an error on non-Linux platforms.
func NewHIDGadget(path string) (*HIDGadget, error) {
	return nil, errors.New("keyboard: hid gadget not supported on this platform (requires Linux)")
}

// Connected always reports false on non-Linux platforms.
func (g *HIDGadget) Connected() bool { return false }

// Transmit is not implemented on non-Linux platforms.
func (g *HIDGadget) Transmit(p []byte) bool { return false }

// ReleaseAll is not implemented on non-Linux platforms.
func (g *HIDGadget) ReleaseAll() {}

// PressComboHold is not implemented on non-Linux platforms.
func (g *HIDGadget) PressComboHold(keys Chord, hold time.Duration) {}

// PressSequence is not implemented on non-Linux platforms.
func (g *HIDGadget) PressSequence(steps []Chord, delay time.Duration) {}

// Close is not implemented on non-Linux platforms.
func (g *HIDGadget) Close() error { return nil }
