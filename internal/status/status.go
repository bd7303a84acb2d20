// Package status provides a thread-safe status tracker for the keyremote
// daemon. It is read by the HTTP status endpoint and by telemetry
// snapshots.
package status

import (
	"sync"
	"time"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs          int64
	WindowMs        int64
	MaxRequests     int
	ChunkSize       int
	ChunkDelayMs    int64
	FlashIntervalMs int64
	AlertAfterMs    int64
	HeartbeatMs     int64
	Broker          string
	HTTPAddr        string
	HIDDevice       string
	NetInterface    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	KeyboardConnected bool
	SenderBusy        bool
	SendProgress      int
	LEDOn             bool
	LEDFlashing       bool
	LinkUp            bool
	LinkDownSeconds   int64
	TrackedClients    int
	MQTTConnected     bool
	StartTime         time.Time
	Now               time.Time
	Network           *NetworkInfo
	Config            Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// ComponentState carries the per-tick component readings into Update.
type ComponentState struct {
	KeyboardConnected bool
	SenderBusy        bool
	SendProgress      int
	LEDOn             bool
	LEDFlashing       bool
	LinkUp            bool
	LinkDownSeconds   int64
	TrackedClients    int
}

// Update sets component states. Called from the poll loop on every tick.
func (t *Tracker) Update(cs ComponentState) {
	t.mu.Lock()
	t.snap.KeyboardConnected = cs.KeyboardConnected
	t.snap.SenderBusy = cs.SenderBusy
	t.snap.SendProgress = cs.SendProgress
	t.snap.LEDOn = cs.LEDOn
	t.snap.LEDFlashing = cs.LEDFlashing
	t.snap.LinkUp = cs.LinkUp
	t.snap.LinkDownSeconds = cs.LinkDownSeconds
	t.snap.TrackedClients = cs.TrackedClients
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
