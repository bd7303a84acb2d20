// Command keyremote exposes a USB HID keyboard over an authenticated HTTP
// API and publishes link and lifecycle events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sweeney/keyremote/internal/api"
	"github.com/sweeney/keyremote/internal/keyboard"
	"github.com/sweeney/keyremote/internal/led"
	"github.com/sweeney/keyremote/internal/netmon"
	"github.com/sweeney/keyremote/internal/obs"
	"github.com/sweeney/keyremote/internal/ratelimit"
	"github.com/sweeney/keyremote/internal/status"
	"github.com/sweeney/keyremote/internal/telemetry"
	"github.com/sweeney/keyremote/internal/ticks"
)

// envAPIKey holds the required X-API-Key value for command endpoints.
const envAPIKey = "KEYREMOTE_API_KEY"

func main() {
	poll := flag.Duration("poll", 20*time.Millisecond, "Main loop polling interval")
	httpAddr := flag.String("http", ":80", "HTTP listen address")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	ledPin := flag.Int("led-pin", led.DefaultPin, "BCM pin number for the status LED")
	hidDev := flag.String("hid", "/dev/hidg0", "HID gadget device path")
	iface := flag.String("iface", "wlan0", "Network interface to monitor")
	window := flag.Duration("window", time.Second, "Rate limit window")
	maxRequests := flag.Int("max-requests", 5, "Max requests per client per window")
	chunk := flag.Int("chunk", keyboard.DefaultChunkSize, "Characters transmitted per chunk")
	chunkDelay := flag.Duration("chunk-delay", keyboard.DefaultChunkDelayMs*time.Millisecond, "Delay between chunks")
	alertAfter := flag.Duration("alert-after", netmon.DefaultAlertAfterMs*time.Millisecond, "Link downtime before the LED starts flashing")
	flashInterval := flag.Duration("flash-interval", led.DefaultFlashIntervalMs*time.Millisecond, "LED flash half-period")

	flag.Parse()

	apiKey := os.Getenv(envAPIKey)
	if apiKey == "" {
		log.Fatalf("fatal: %s is not set", envAPIKey)
	}

	cfg := config{
		poll:          *poll,
		httpAddr:      *httpAddr,
		broker:        *broker,
		heartbeat:     *heartbeat,
		ledPin:        *ledPin,
		hidDev:        *hidDev,
		iface:         *iface,
		window:        *window,
		maxRequests:   *maxRequests,
		chunk:         *chunk,
		chunkDelay:    *chunkDelay,
		alertAfter:    *alertAfter,
		flashInterval: *flashInterval,
		apiKey:        apiKey,
	}
	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

type config struct {
	poll          time.Duration
	httpAddr      string
	broker        string
	heartbeat     time.Duration
	ledPin        int
	hidDev        string
	iface         string
	window        time.Duration
	maxRequests   int
	chunk         int
	chunkDelay    time.Duration
	alertAfter    time.Duration
	flashInterval time.Duration
	apiKey        string
}

func run(cfg config) error {
	// Initialize the HID gadget keyboard
	channel, err := keyboard.NewHIDGadget(cfg.hidDev)
	if err != nil {
		return fmt.Errorf("init hid gadget: %w", err)
	}
	defer channel.Close()

	// Initialize the status LED
	driver, err := led.NewRealDriver(cfg.ledPin)
	if err != nil {
		return fmt.Errorf("init led: %w", err)
	}
	defer driver.Close()

	// Initialize MQTT
	publisher, err := telemetry.NewRealPublisher(cfg.broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	nowTicks := ticks.SystemSource()

	sender := keyboard.NewSender(channel, cfg.chunk, ticks.Millis(cfg.chunkDelay.Milliseconds()))
	indicator := led.NewIndicator(driver, ticks.Millis(cfg.flashInterval.Milliseconds()))
	limiter := ratelimit.New(ticks.Millis(cfg.window.Milliseconds()), cfg.maxRequests, nowTicks())
	watcher := netmon.NewWatcher(netmon.NewSysfsProber(cfg.iface), 0, ticks.Millis(cfg.alertAfter.Milliseconds()))

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:          cfg.poll.Milliseconds(),
		WindowMs:        cfg.window.Milliseconds(),
		MaxRequests:     cfg.maxRequests,
		ChunkSize:       cfg.chunk,
		ChunkDelayMs:    cfg.chunkDelay.Milliseconds(),
		FlashIntervalMs: cfg.flashInterval.Milliseconds(),
		AlertAfterMs:    cfg.alertAfter.Milliseconds(),
		HeartbeatMs:     cfg.heartbeat.Milliseconds(),
		Broker:          cfg.broker,
		HTTPAddr:        cfg.httpAddr,
		HIDDevice:       cfg.hidDev,
		NetInterface:    cfg.iface,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := telemetry.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	metrics := obs.NewMetrics(prometheus.DefaultRegisterer)
	obs.RegisterGauges(prometheus.DefaultRegisterer,
		func() float64 { return obs.Bool(channel.Connected()) },
		func() float64 { return obs.Bool(sender.Busy()) },
		func() float64 { return obs.Bool(watcher.Up()) },
		func() float64 { return float64(limiter.TrackedClients()) },
	)

	// Start HTTP API server
	srv := api.New(cfg.httpAddr, api.Deps{
		APIKey:         cfg.apiKey,
		Limiter:        limiter,
		Sender:         sender,
		Channel:        channel,
		Indicator:      indicator,
		Tracker:        tracker,
		Now:            nowTicks,
		Metrics:        metrics,
		MetricsHandler: promhttp.Handler(),
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()
	defer srv.Shutdown(context.Background())
	log.Printf("http api listening on %s", cfg.httpAddr)

	log.Printf("started: poll=%v hid=%s iface=%s broker=%s heartbeat=%v",
		cfg.poll, cfg.hidDev, cfg.iface, cfg.broker, cfg.heartbeat)

	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loopDeps{
		channel:    channel,
		sender:     sender,
		indicator:  indicator,
		watcher:    watcher,
		limiter:    limiter,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		nowTicks:   nowTicks,
		nowWall:    time.Now,
		heartbeat:  cfg.heartbeat,
	}, ticker.C, sigCh)
}

// loopDeps carries the components driven by the main loop. Everything is
// an interface or injectable function so the loop is testable without
// hardware.
type loopDeps struct {
	channel    keyboard.Channel
	sender     *keyboard.Sender
	indicator  *led.Indicator
	watcher    *netmon.Watcher
	limiter    *ratelimit.Limiter
	publisher  telemetry.Publisher
	mqttStatus telemetry.ConnectionStatus
	tracker    *status.Tracker
	nowTicks   ticks.Source
	nowWall    func() time.Time
	heartbeat  time.Duration
}

func runLoop(d loopDeps, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := d.nowWall()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := telemetry.SystemEvent{
				Timestamp: d.nowWall(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				if d.mqttStatus != nil {
					d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
				}
				snap := d.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := d.nowTicks()

			// Advance the outbound message, if one is in flight.
			d.sender.Advance(t)

			// Probe the link and publish transitions.
			if ev, err := d.watcher.Advance(t); err != nil {
				log.Printf("link probe error: %v", err)
			} else if ev != nil {
				downSec := int64(ev.DownMs / 1000)
				log.Printf("link event: %s (down %ds)", ev.Type, downSec)
				linkEvent := telemetry.LinkEvent{
					Timestamp: d.nowWall(),
					Event:     string(ev.Type),
				}
				if ev.Type == netmon.EventLinkUp {
					linkEvent.DownSeconds = downSec
				}
				if err := d.publisher.PublishLink(linkEvent); err != nil {
					log.Printf("link publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			// The LED flashes while the link has been down too long.
			// SetFlashing is idempotent so calling it every tick is fine.
			if d.watcher.AlertDue(t) {
				d.indicator.SetFlashing(true, t)
			} else if d.watcher.Up() {
				d.indicator.SetFlashing(false, t)
			}
			d.indicator.Advance(t)

			d.limiter.Cleanup(t)

			// Check for heartbeat
			wall := d.nowWall()
			if d.heartbeat > 0 && wall.Sub(lastHeartbeat) >= d.heartbeat {
				lastHeartbeat = wall
				hbEvent := telemetry.SystemEvent{
					Timestamp: wall,
					Event:     "HEARTBEAT",
				}
				if d.tracker != nil {
					if d.mqttStatus != nil {
						d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
					}
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						d.tracker.SetNetwork(net)
					}
					updateTracker(d, t)
					snap := d.tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				log.Printf("heartbeat: link_up=%v sender_busy=%v", d.watcher.Up(), d.sender.Busy())
				if err := d.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if d.tracker != nil {
				updateTracker(d, t)
				if d.mqttStatus != nil {
					d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
				}
			}
		}
	}
}

func updateTracker(d loopDeps, t ticks.Millis) {
	d.tracker.Update(status.ComponentState{
		KeyboardConnected: d.channel.Connected(),
		SenderBusy:        d.sender.Busy(),
		SendProgress:      d.sender.Progress(),
		LEDOn:             d.indicator.Output(),
		LEDFlashing:       d.indicator.Flashing(),
		LinkUp:            d.watcher.Up(),
		LinkDownSeconds:   int64(d.watcher.DownDuration(t) / 1000),
		TrackedClients:    d.limiter.TrackedClients(),
	})
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
