//go:build linux

package keyboard

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// HIDGadget drives a USB HID keyboard gadget device (configfs gadget
// function, typically /dev/hidg0) using 8-byte boot keyboard reports:
// [modifiers, reserved, key1..key6].
type HIDGadget struct {
	mu   sync.Mutex
	dev  *os.File
	path string

	// peer tracks whether the last write succeeded. A write to a gadget
	// device with no host attached fails with ESHUTDOWN, which is how
	// the gadget reports "no peer".
	peer bool
}

// NewHIDGadget opens the gadget device node.
func NewHIDGadget(path string) (*HIDGadget, error) {
	dev, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open hid gadget %s: %w", path, err)
	}
	return &HIDGadget{dev: dev, path: path, peer: true}, nil
}

// Connected reports whether the last report write reached a host.
// Optimistic until the first failed write; the gadget has no portable
// "host attached" query, so failure is detected at write time.
func (g *HIDGadget) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peer
}

// Transmit types the given bytes on the host, one press/release report
// pair per byte. Returns false if any report write fails.
func (g *HIDGadget) Transmit(p []byte) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, c := range p {
		mod, usage, ok := asciiToUsage(c)
		if !ok {
			continue // validation upstream keeps these rare
		}
		if !g.writeReport(mod, usage) || !g.writeReport(0, 0) {
			return false
		}
	}
	return true
}

// ReleaseAll sends an empty report, releasing any held keys.
func (g *HIDGadget) ReleaseAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writeReport(0, 0)
}

// PressComboHold presses the chord, holds it, then releases.
// Blocks for the hold duration.
func (g *HIDGadget) PressComboHold(keys Chord, hold time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	mod, usages := splitChord(keys)
	g.writeChord(mod, usages)
	time.Sleep(hold)
	g.writeReport(0, 0)
}

// PressSequence presses and releases each chord in order with delay
// between chords. Blocks for the inter-chord delays.
func (g *HIDGadget) PressSequence(steps []Chord, delay time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, step := range steps {
		if i > 0 {
			time.Sleep(delay)
		}
		mod, usages := splitChord(step)
		g.writeChord(mod, usages)
		g.writeReport(0, 0)
	}
}

// Close releases held keys and closes the device.
func (g *HIDGadget) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.writeReport(0, 0)
	return g.dev.Close()
}

// writeChord emits a single report with up to six regular keys plus the
// modifier byte. Caller holds the lock.
func (g *HIDGadget) writeChord(mod byte, usages []Key) {
	report := [8]byte{0: mod}
	for i, u := range usages {
		if i == 6 {
			break
		}
		report[2+i] = byte(u)
	}
	g.write(report)
}

// writeReport emits a report with one regular key. Caller holds the lock.
func (g *HIDGadget) writeReport(mod byte, usage Key) bool {
	return g.write([8]byte{0: mod, 2: byte(usage)})
}

func (g *HIDGadget) write(report [8]byte) bool {
	if _, err := g.dev.Write(report[:]); err != nil {
		g.peer = false
		return false
	}
	g.peer = true
	return true
}

// splitChord separates modifier keys (0xE0–0xE7) from regular usages and
// folds the modifiers into the report's modifier bitmask.
func splitChord(keys Chord) (byte, []Key) {
	var mod byte
	var usages []Key
	for _, k := range keys {
		if k >= 0xE0 && k <= 0xE7 {
			mod |= 1 << (k - 0xE0)
		} else {
			usages = append(usages, k)
		}
	}
	return mod, usages
}

// asciiToUsage maps a validated message byte to (modifier, usage).
// Newline maps to Enter and tab to Tab; carriage return is swallowed so
// CRLF input does not double-type Enter.
func asciiToUsage(c byte) (mod byte, usage Key, ok bool) {
	const shift = 0x02 // left shift bit in the modifier byte

	switch {
	case c >= 'a' && c <= 'z':
		return 0, Key(c-'a') + 0x04, true
	case c >= 'A' && c <= 'Z':
		return shift, Key(c-'A') + 0x04, true
	case c >= '1' && c <= '9':
		return 0, Key(c-'1') + 0x1E, true
	case c == '0':
		return 0, 0x27, true
	}

	switch c {
	case '\n':
		return 0, 0x28, true
	case '\t':
		return 0, 0x2B, true
	case ' ':
		return 0, 0x2C, true
	case '\r':
		return 0, 0, false
	case '-':
		return 0, 0x2D, true
	case '_':
		return shift, 0x2D, true
	case '=':
		return 0, 0x2E, true
	case '+':
		return shift, 0x2E, true
	case '[':
		return 0, 0x2F, true
	case '{':
		return shift, 0x2F, true
	case ']':
		return 0, 0x30, true
	case '}':
		return shift, 0x30, true
	case '\\':
		return 0, 0x31, true
	case '|':
		return shift, 0x31, true
	case ';':
		return 0, 0x33, true
	case ':':
		return shift, 0x33, true
	case '\'':
		return 0, 0x34, true
	case '"':
		return shift, 0x34, true
	case '`':
		return 0, 0x35, true
	case '~':
		return shift, 0x35, true
	case ',':
		return 0, 0x36, true
	case '<':
		return shift, 0x36, true
	case '.':
		return 0, 0x37, true
	case '>':
		return shift, 0x37, true
	case '/':
		return 0, 0x38, true
	case '?':
		return shift, 0x38, true
	case '!':
		return shift, 0x1E, true
	case '@':
		return shift, 0x1F, true
	case '#':
		return shift, 0x20, true
	case '$':
		return shift, 0x21, true
	case '%':
		return shift, 0x22, true
	case '^':
		return shift, 0x23, true
	case '&':
		return shift, 0x24, true
	case '*':
		return shift, 0x25, true
	case '(':
		return shift, 0x26, true
	case ')':
		return shift, 0x27, true
	}

	return 0, 0, false
}
