package api

import (
	"crypto/subtle"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/sweeney/keyremote/internal/keyboard"
	"github.com/sweeney/keyremote/internal/status"
)

const helpText = `keyremote - HTTP remote keyboard

Available endpoints:
  POST /ctrlaltdel      - Send Ctrl+Alt+Del
  POST /sleep           - Send Win+X, U, S (Sleep)
  POST /led/toggle      - Toggle status LED
  POST /type?msg=TEXT   - Type text on the remote host
  GET  /status          - Get daemon status
  GET  /healthz         - Liveness check
  GET  /metrics         - Prometheus metrics
  GET  /                - Show this help

Authentication:
  Command endpoints require the X-API-Key header.

Rate limiting:
  Per-client fixed window; over-quota requests get 429.

Limits:
  Maximum message length: 1000 characters.
`

// count records the request outcome in the metrics, when wired.
func (s *Server) count(route string, c Code) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(int(c))).Inc()
	}
}

// gate runs the auth and rate-limit checks shared by all command
// handlers. It writes the rejection response itself and reports whether
// the handler may proceed.
func (s *Server) gate(w http.ResponseWriter, r *http.Request, route string) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}

	key := r.Header.Get("X-API-Key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.deps.APIKey)) != 1 {
		if s.deps.Metrics != nil {
			s.deps.Metrics.UnauthorizedTotal.Inc()
		}
		s.count(route, CodeUnauthorized)
		writeCode(w, CodeUnauthorized)
		return false
	}

	if !s.deps.Limiter.Allow(clientID(r), s.deps.Now()) {
		if s.deps.Metrics != nil {
			s.deps.Metrics.RateLimitedTotal.Inc()
		}
		s.count(route, CodeRateLimited)
		writeCode(w, CodeRateLimited)
		return false
	}

	return true
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, helpText)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Tracker.Snapshot()

	// The tracker lags by up to one poll tick; read the fast-moving
	// fields live so /status reflects a request's own effect.
	snap.KeyboardConnected = s.deps.Channel.Connected()
	snap.SenderBusy = s.deps.Sender.Busy()
	snap.SendProgress = s.deps.Sender.Progress()
	snap.LEDOn = s.deps.Indicator.Output()
	snap.LEDFlashing = s.deps.Indicator.Flashing()
	snap.TrackedClients = s.deps.Limiter.TrackedClients()

	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

type typeAccepted struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Length  int    `json:"length"`
}

func (s *Server) handleType(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r, "type") {
		return
	}

	if err := r.ParseForm(); err != nil {
		s.count("type", CodeMissingParam)
		writeCode(w, CodeMissingParam)
		return
	}
	msgVals, ok := r.Form["msg"]
	if !ok {
		s.count("type", CodeMissingParam)
		writeCode(w, CodeMissingParam)
		return
	}
	msg := msgVals[0]

	if err := keyboard.ValidateMessage(msg); err != nil {
		code := CodeForError(err)
		s.count("type", code)
		writeCode(w, code)
		return
	}

	log.Printf("req %s: typing: %s", requestID(r), keyboard.SanitizeForLog(msg, 50))

	if err := s.deps.Sender.Enqueue(msg, s.deps.Now()); err != nil {
		code := CodeForError(err)
		s.count("type", code)
		writeCode(w, code)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.MessagesQueuedTotal.Inc()
	}
	s.count("type", CodeOK)
	writeJSON(w, http.StatusAccepted, typeAccepted{
		Status:  "accepted",
		Message: "Message queued for sending",
		Length:  len(msg),
	})
}

func (s *Server) handleCtrlAltDel(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r, "ctrlaltdel") {
		return
	}

	// Macros share the channel with the chunked sender; refuse to
	// interleave with an in-flight message.
	if s.deps.Sender.Busy() {
		s.count("ctrlaltdel", CodeBusy)
		writeCode(w, CodeBusy)
		return
	}

	log.Printf("req %s: ctrl+alt+del requested", requestID(r))

	if err := keyboard.SendCtrlAltDel(s.deps.Channel); err != nil {
		code := CodeForError(err)
		s.count("ctrlaltdel", code)
		writeCode(w, code)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.MacrosTotal.WithLabelValues("ctrlaltdel").Inc()
	}
	s.count("ctrlaltdel", CodeOK)
	writeSuccess(w, "Sent Ctrl+Alt+Del")
}

func (s *Server) handleSleep(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r, "sleep") {
		return
	}

	if s.deps.Sender.Busy() {
		s.count("sleep", CodeBusy)
		writeCode(w, CodeBusy)
		return
	}

	log.Printf("req %s: sleep combo requested", requestID(r))

	if err := keyboard.SendSleepCombo(s.deps.Channel); err != nil {
		code := CodeForError(err)
		s.count("sleep", code)
		writeCode(w, code)
		return
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.MacrosTotal.WithLabelValues("sleep").Inc()
	}
	s.count("sleep", CodeOK)
	writeSuccess(w, "Sent Sleep Combo")
}

func (s *Server) handleLEDToggle(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r, "led_toggle") {
		return
	}

	newState := s.deps.Indicator.Toggle()

	state := "OFF"
	if newState {
		state = "ON"
	}
	log.Printf("req %s: led toggled: %s", requestID(r), state)

	s.count("led_toggle", CodeOK)
	writeSuccess(w, "LED is now "+state)
}
