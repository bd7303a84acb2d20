// Package netmon tracks network link state by periodic probing and times
// how long the link has been down. The daemon uses it to decide when the
// status LED should flash and to emit link telemetry.
package netmon

import (
	"sync"

	"github.com/sweeney/keyremote/internal/ticks"
)

// Prober answers whether the network link is currently up.
type Prober interface {
	LinkUp() (bool, error)
}

// EventType identifies a link transition.
type EventType string

const (
	EventLinkUp   EventType = "LINK_UP"
	EventLinkDown EventType = "LINK_DOWN"
)

// Event is a link state transition detected by the watcher.
type Event struct {
	Type EventType

	// DownMs is how long the link had been down, for LINK_UP events.
	DownMs ticks.Millis
}

// Defaults for probe throttling and the flash alert threshold.
const (
	DefaultCheckIntervalMs = 1000
	DefaultAlertAfterMs    = 60000
)

// Watcher polls a Prober and tracks link state with explicit fields
// rather than loop-local statics, so transitions are testable in
// isolation. Safe for concurrent use.
type Watcher struct {
	mu            sync.Mutex
	prober        Prober
	checkInterval ticks.Millis
	alertAfter    ticks.Millis

	lastCheck    ticks.Millis
	checked      bool
	up           bool
	downSince    ticks.Millis
	hasDownSince bool
}

// NewWatcher creates a Watcher. checkIntervalMs and alertAfterMs of 0
// select the defaults.
func NewWatcher(prober Prober, checkIntervalMs, alertAfterMs ticks.Millis) *Watcher {
	if checkIntervalMs == 0 {
		checkIntervalMs = DefaultCheckIntervalMs
	}
	if alertAfterMs == 0 {
		alertAfterMs = DefaultAlertAfterMs
	}
	return &Watcher{
		prober:        prober,
		checkInterval: checkIntervalMs,
		alertAfter:    alertAfterMs,
	}
}

// Advance probes the link if the check interval has elapsed and returns a
// transition event, or nil if nothing changed. Probe errors are returned
// without changing tracked state; the caller logs and carries on.
func (w *Watcher) Advance(now ticks.Millis) (*Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.checked && !ticks.HasElapsed(w.lastCheck, now, w.checkInterval) {
		return nil, nil
	}

	up, err := w.prober.LinkUp()
	if err != nil {
		return nil, err
	}
	w.lastCheck = now
	first := !w.checked
	w.checked = true

	if up == w.up && !first {
		return nil, nil
	}

	prev := w.up
	w.up = up

	if up {
		var down ticks.Millis
		if w.hasDownSince {
			down = ticks.Since(w.downSince, now)
		}
		w.hasDownSince = false
		// The very first probe finding the link already up is still
		// worth announcing; finding it down is just the initial state.
		if first || !prev {
			return &Event{Type: EventLinkUp, DownMs: down}, nil
		}
		return nil, nil
	}

	w.downSince = now
	w.hasDownSince = true
	if first {
		return nil, nil
	}
	return &Event{Type: EventLinkDown}, nil
}

// Up reports the last observed link state.
func (w *Watcher) Up() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.up
}

// DownDuration returns how long the link has been down, or 0 while up
// or before any probe observed a transition to down.
func (w *Watcher) DownDuration(now ticks.Millis) ticks.Millis {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.up || !w.hasDownSince {
		return 0
	}
	return ticks.Since(w.downSince, now)
}

// AlertDue reports whether the link has been down for longer than the
// alert threshold.
func (w *Watcher) AlertDue(now ticks.Millis) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.up || !w.hasDownSince {
		return false
	}
	return ticks.HasElapsed(w.downSince, now, w.alertAfter)
}
