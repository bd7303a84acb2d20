package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Keyboard      KeyboardJSON   `json:"keyboard"`
	LED           LEDJSON        `json:"led"`
	Link          LinkJSON       `json:"link"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	RateLimit     RateLimitJSON  `json:"rate_limit"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// KeyboardJSON reports keyboard channel state.
type KeyboardJSON struct {
	Connected bool `json:"connected"`
	Busy      bool `json:"busy"`
	Progress  int  `json:"progress"`
}

// LEDJSON reports LED state.
type LEDJSON struct {
	On       bool `json:"on"`
	Flashing bool `json:"flashing"`
}

// LinkJSON reports network link state.
type LinkJSON struct {
	Up          bool  `json:"up"`
	DownSeconds int64 `json:"down_seconds"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// RateLimitJSON reports rate limiter state.
type RateLimitJSON struct {
	TrackedClients int `json:"tracked_clients"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs          int64  `json:"poll_ms"`
	WindowMs        int64  `json:"window_ms"`
	MaxRequests     int    `json:"max_requests"`
	ChunkSize       int    `json:"chunk_size"`
	ChunkDelayMs    int64  `json:"chunk_delay_ms"`
	FlashIntervalMs int64  `json:"flash_interval_ms"`
	AlertAfterMs    int64  `json:"alert_after_ms"`
	HeartbeatMs     int64  `json:"heartbeat_ms"`
	Broker          string `json:"broker"`
	HTTPAddr        string `json:"http_addr"`
	HIDDevice       string `json:"hid_device"`
	NetInterface    string `json:"net_interface"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Keyboard: KeyboardJSON{
			Connected: snap.KeyboardConnected,
			Busy:      snap.SenderBusy,
			Progress:  snap.SendProgress,
		},
		LED: LEDJSON{
			On:       snap.LEDOn,
			Flashing: snap.LEDFlashing,
		},
		Link: LinkJSON{
			Up:          snap.LinkUp,
			DownSeconds: snap.LinkDownSeconds,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		RateLimit:     RateLimitJSON{TrackedClients: snap.TrackedClients},
		Config: ConfigJSON{
			PollMs:          snap.Config.PollMs,
			WindowMs:        snap.Config.WindowMs,
			MaxRequests:     snap.Config.MaxRequests,
			ChunkSize:       snap.Config.ChunkSize,
			ChunkDelayMs:    snap.Config.ChunkDelayMs,
			FlashIntervalMs: snap.Config.FlashIntervalMs,
			AlertAfterMs:    snap.Config.AlertAfterMs,
			HeartbeatMs:     snap.Config.HeartbeatMs,
			Broker:          snap.Config.Broker,
			HTTPAddr:        snap.Config.HTTPAddr,
			HIDDevice:       snap.Config.HIDDevice,
			NetInterface:    snap.Config.NetInterface,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
