package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 20, WindowMs: 1000, MaxRequests: 5, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.WindowMs != 1000 {
		t.Errorf("Config.WindowMs: got %d, want 1000", snap.Config.WindowMs)
	}
	if snap.KeyboardConnected {
		t.Error("expected KeyboardConnected=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(ComponentState{
		KeyboardConnected: true,
		SenderBusy:        true,
		SendProgress:      40,
		LEDFlashing:       true,
		LinkDownSeconds:   75,
		TrackedClients:    3,
	})

	snap := tr.Snapshot()
	if !snap.KeyboardConnected || !snap.SenderBusy {
		t.Error("keyboard state not tracked")
	}
	if snap.SendProgress != 40 {
		t.Errorf("SendProgress: got %d, want 40", snap.SendProgress)
	}
	if !snap.LEDFlashing || snap.LEDOn {
		t.Error("led state not tracked")
	}
	if snap.LinkUp || snap.LinkDownSeconds != 75 {
		t.Errorf("link state: up=%v down=%d", snap.LinkUp, snap.LinkDownSeconds)
	}
	if snap.TrackedClients != 3 {
		t.Errorf("TrackedClients: got %d, want 3", snap.TrackedClients)
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{Broker: "tcp://b:1883", MaxRequests: 5})
	tr.Update(ComponentState{KeyboardConnected: true, LinkUp: true, TrackedClients: 2})
	tr.SetMQTTConnected(true)

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &sj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !sj.Status.Keyboard.Connected {
		t.Error("keyboard.connected: got false, want true")
	}
	if !sj.Status.Link.Up {
		t.Error("link.up: got false, want true")
	}
	if sj.Status.RateLimit.TrackedClients != 2 {
		t.Errorf("rate_limit.tracked_clients: got %d, want 2", sj.Status.RateLimit.TrackedClients)
	}
	if !sj.Status.MQTT.Connected || sj.Status.MQTT.Broker != "tcp://b:1883" {
		t.Errorf("mqtt: got %+v", sj.Status.MQTT)
	}
	if sj.Status.Event != "" {
		t.Errorf("event on web JSON: got %q, want empty", sj.Status.Event)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var sj StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM"), &sj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" {
		t.Errorf("event: got %q, want SHUTDOWN", sj.Status.Event)
	}
	if sj.Status.Reason != "SIGTERM" {
		t.Errorf("reason: got %q, want SIGTERM", sj.Status.Reason)
	}
}

func TestNetworkInfo(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if snap := tr.Snapshot(); snap.Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.50", Status: "connected", SSID: "HomeNet"})

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &sj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sj.Status.Network == nil {
		t.Fatal("network missing from JSON")
	}
	if sj.Status.Network.SSID != "HomeNet" {
		t.Errorf("network.ssid: got %q, want HomeNet", sj.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			tr.Update(ComponentState{TrackedClients: n})
		}(i)
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
		}()
	}
	wg.Wait()
}
