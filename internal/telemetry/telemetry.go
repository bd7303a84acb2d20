// Package telemetry publishes daemon lifecycle and link events over MQTT,
// with abstraction for testing.
package telemetry

import (
	"encoding/json"
	"time"
)

// TopicLink is the MQTT topic for network link transitions.
const TopicLink = "keyremote/link"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "keyremote/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishLink sends a link transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishLink(event LinkEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// LinkEvent represents a network link transition.
type LinkEvent struct {
	Timestamp   time.Time
	Event       string // "LINK_UP" or "LINK_DOWN"
	DownSeconds int64  // outage length, for LINK_UP events
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// LinkPayload represents the MQTT message payload for link events.
type LinkPayload struct {
	Link LinkPayloadInner `json:"link"`
}

// LinkPayloadInner contains the link event details.
type LinkPayloadInner struct {
	Timestamp   string `json:"timestamp"`
	Event       string `json:"event"`
	DownSeconds int64  `json:"down_seconds,omitempty"`
}

// FormatLinkPayload creates the JSON payload for a link event.
func FormatLinkPayload(event LinkEvent) ([]byte, error) {
	payload := LinkPayload{
		Link: LinkPayloadInner{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Event:       event.Event,
			DownSeconds: event.DownSeconds,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
