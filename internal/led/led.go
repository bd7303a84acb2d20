// Package led controls the status LED with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package led

import (
	"sync"

	"github.com/sweeney/keyremote/internal/ticks"
)

// Driver writes the physical LED level.
type Driver interface {
	// Write drives the LED on or off.
	Write(on bool) error

	// Close releases LED resources.
	Close() error
}

// DefaultPin is the status LED GPIO (BCM numbering).
const DefaultPin = 12

// DefaultFlashIntervalMs is the on/off period while flashing.
const DefaultFlashIntervalMs = 5000

// Indicator layers automatic flashing over a manual on/off level.
// While flashing is enabled it strictly overrides the manual level; the
// manual level is remembered and restored when flashing stops.
// Safe for concurrent use.
type Indicator struct {
	mu            sync.Mutex
	drv           Driver
	flashInterval ticks.Millis

	manual   bool
	flashing bool
	phase    bool
	lastFlip ticks.Millis
}

// NewIndicator creates an Indicator over the given driver and drives the
// LED off. flashIntervalMs of 0 selects the default.
func NewIndicator(drv Driver, flashIntervalMs ticks.Millis) *Indicator {
	if flashIntervalMs == 0 {
		flashIntervalMs = DefaultFlashIntervalMs
	}
	ind := &Indicator{drv: drv, flashInterval: flashIntervalMs}
	drv.Write(false)
	return ind
}

// SetManual stores the manual level. The LED changes immediately unless
// flashing is enabled.
func (i *Indicator) SetManual(on bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.manual = on
	if !i.flashing {
		i.drv.Write(on)
	}
}

// Toggle flips the manual level and returns the new level. Like
// SetManual, the LED only changes if flashing is disabled.
func (i *Indicator) Toggle() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.manual = !i.manual
	if !i.flashing {
		i.drv.Write(i.manual)
	}
	return i.manual
}

// SetFlashing enables or disables automatic flashing. Enabling restarts
// the flash cycle from the off phase; disabling immediately restores the
// manual level.
func (i *Indicator) SetFlashing(enabled bool, now ticks.Millis) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.flashing == enabled {
		return
	}
	i.flashing = enabled

	if enabled {
		i.phase = false
		i.lastFlip = now
		i.drv.Write(false)
	} else {
		i.drv.Write(i.manual)
	}
}

// Advance performs one pacing step. Only acts while flashing: when the
// flash interval has elapsed it flips the phase and drives the LED.
func (i *Indicator) Advance(now ticks.Millis) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.flashing {
		return
	}
	if !ticks.HasElapsed(i.lastFlip, now, i.flashInterval) {
		return
	}

	i.phase = !i.phase
	i.lastFlip = now
	i.drv.Write(i.phase)
}

// Output returns the level last driven: the flash phase while flashing,
// the manual level otherwise.
func (i *Indicator) Output() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.flashing {
		return i.phase
	}
	return i.manual
}

// Manual returns the stored manual level.
func (i *Indicator) Manual() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.manual
}

// Flashing reports whether automatic flashing is enabled.
func (i *Indicator) Flashing() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.flashing
}
