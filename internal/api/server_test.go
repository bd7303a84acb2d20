package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sweeney/keyremote/internal/keyboard"
	"github.com/sweeney/keyremote/internal/led"
	"github.com/sweeney/keyremote/internal/obs"
	"github.com/sweeney/keyremote/internal/ratelimit"
	"github.com/sweeney/keyremote/internal/status"
	"github.com/sweeney/keyremote/internal/ticks"
)

const testKey = "test-api-key"

type testEnv struct {
	ts      *httptest.Server
	channel *keyboard.FakeChannel
	sender  *keyboard.Sender
	ind     *led.Indicator
	drv     *led.FakeDriver
	limiter *ratelimit.Limiter
	now     ticks.Millis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		channel: keyboard.NewFakeChannel(),
		drv:     led.NewFakeDriver(),
	}
	env.sender = keyboard.NewSender(env.channel, 4, 100)
	env.ind = led.NewIndicator(env.drv, 5000)
	env.limiter = ratelimit.New(1000, 5, 0)

	tracker := status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), status.Config{
		WindowMs:    1000,
		MaxRequests: 5,
		Broker:      "tcp://localhost:1883",
		HTTPAddr:    ":80",
	})

	srv := New(":0", Deps{
		APIKey:    testKey,
		Limiter:   env.limiter,
		Sender:    env.sender,
		Channel:   env.channel,
		Indicator: env.ind,
		Tracker:   tracker,
		Now:       func() ticks.Millis { return env.now },
		Metrics:   obs.NewMetrics(prometheus.NewRegistry()),
	})
	env.ts = httptest.NewServer(srv.Handler())
	t.Cleanup(env.ts.Close)
	return env
}

func (e *testEnv) post(t *testing.T, path string, apiKey string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestRootHelp(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type: got %q, want text/plain", ct)
	}
}

func TestUnknownPath(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.ts.URL + "/nonsense")
	if err != nil {
		t.Fatalf("GET /nonsense: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/type?msg=hi", "/ctrlaltdel", "/sleep", "/led/toggle"} {
		resp := env.post(t, path, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s without key: got %d, want 401", path, resp.StatusCode)
			continue
		}
		if body := decodeError(t, resp); body.Code != int(CodeUnauthorized) {
			t.Errorf("%s: code got %d, want %d", path, body.Code, CodeUnauthorized)
		}
	}
}

func TestAuthWrongKey(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/ctrlaltdel", "wrong-key")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong key: got %d, want 401", resp.StatusCode)
	}
}

func TestStatusNeedsNoAuth(t *testing.T) {
	env := newTestEnv(t)
	env.ind.SetManual(true)

	resp, err := http.Get(env.ts.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !sj.Status.Keyboard.Connected {
		t.Error("keyboard.connected: got false, want true")
	}
	if !sj.Status.LED.On {
		t.Error("led.on: got false, want true")
	}
	if sj.Status.Config.MaxRequests != 5 {
		t.Errorf("config.max_requests: got %d, want 5", sj.Status.Config.MaxRequests)
	}
}

func TestTypeAccepted(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/type?msg="+url.QueryEscape("hello world"), testKey)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202", resp.StatusCode)
	}

	var body typeAccepted
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "accepted" {
		t.Errorf("status field: got %q, want accepted", body.Status)
	}
	if body.Length != len("hello world") {
		t.Errorf("length: got %d, want %d", body.Length, len("hello world"))
	}
	if !env.sender.Busy() {
		t.Error("sender not busy after accepted /type")
	}
}

func TestTypeMissingParam(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/type", testKey)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
	if body := decodeError(t, resp); body.Code != int(CodeMissingParam) {
		t.Errorf("code: got %d, want %d", body.Code, CodeMissingParam)
	}
}

func TestTypeEmptyMessage(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/type?msg=", testKey)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
	if body := decodeError(t, resp); body.Code != int(CodeEmpty) {
		t.Errorf("code: got %d, want %d", body.Code, CodeEmpty)
	}
}

func TestTypeInvalidCharacters(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/type?msg="+url.QueryEscape("bad\x01byte"), testKey)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
	if body := decodeError(t, resp); body.Code != int(CodeInvalidChars) {
		t.Errorf("code: got %d, want %d", body.Code, CodeInvalidChars)
	}
}

func TestTypeTooLong(t *testing.T) {
	env := newTestEnv(t)

	long := strings.Repeat("a", keyboard.MaxMessageLen+1)
	resp := env.post(t, "/type?msg="+long, testKey)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
	if body := decodeError(t, resp); body.Code != int(CodeTooLong) {
		t.Errorf("code: got %d, want %d", body.Code, CodeTooLong)
	}
}

func TestTypeWhileBusy(t *testing.T) {
	env := newTestEnv(t)

	if resp := env.post(t, "/type?msg=first", testKey); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("first /type: got %d, want 202", resp.StatusCode)
	}
	resp := env.post(t, "/type?msg=second", testKey)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second /type: got %d, want 409", resp.StatusCode)
	}
	if body := decodeError(t, resp); body.Code != int(CodeBusy) {
		t.Errorf("code: got %d, want %d", body.Code, CodeBusy)
	}
}

func TestTypeDisconnected(t *testing.T) {
	env := newTestEnv(t)
	env.channel.Peer = false

	resp := env.post(t, "/type?msg=hello", testKey)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
	if body := decodeError(t, resp); body.Code != int(CodeNotConnected) {
		t.Errorf("code: got %d, want %d", body.Code, CodeNotConnected)
	}
}

func TestRateLimiting(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 5; i++ {
		resp := env.post(t, "/led/toggle", testKey)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, resp.StatusCode)
		}
	}

	resp := env.post(t, "/led/toggle", testKey)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("6th request: got %d, want 429", resp.StatusCode)
	}
	if body := decodeError(t, resp); body.Code != int(CodeRateLimited) {
		t.Errorf("code: got %d, want %d", body.Code, CodeRateLimited)
	}

	// Advancing past the window admits the client again.
	env.now += 1000
	if resp := env.post(t, "/led/toggle", testKey); resp.StatusCode != http.StatusOK {
		t.Errorf("post-window request: got %d, want 200", resp.StatusCode)
	}
}

func TestCtrlAltDel(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/ctrlaltdel", testKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if len(env.channel.Combos) != 1 {
		t.Errorf("combo calls: got %d, want 1", len(env.channel.Combos))
	}
}

func TestCtrlAltDelDisconnected(t *testing.T) {
	env := newTestEnv(t)
	env.channel.Peer = false

	resp := env.post(t, "/ctrlaltdel", testKey)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
	if body := decodeError(t, resp); body.Code != int(CodeNotConnected) {
		t.Errorf("code: got %d, want %d", body.Code, CodeNotConnected)
	}
}

func TestMacroRejectedWhileSending(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, "/type?msg=inflight", testKey)

	resp := env.post(t, "/ctrlaltdel", testKey)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("macro while sending: got %d, want 409", resp.StatusCode)
	}
	if len(env.channel.Combos) != 0 {
		t.Error("combo executed despite in-flight message")
	}
}

func TestSleepCombo(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/sleep", testKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if len(env.channel.Sequences) != 1 {
		t.Errorf("sequence calls: got %d, want 1", len(env.channel.Sequences))
	}
}

func TestLEDToggle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/led/toggle", testKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var body successBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "LED is now ON" {
		t.Errorf("message: got %q, want %q", body.Message, "LED is now ON")
	}
	if !env.ind.Manual() {
		t.Error("indicator manual level not toggled")
	}
}

func TestCommandsRequirePOST(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/type", "/ctrlaltdel", "/sleep", "/led/toggle"} {
		resp, err := http.Get(env.ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("GET %s: got %d, want 405", path, resp.StatusCode)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	req, _ := http.NewRequest(http.MethodGet, env.ts.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "my-id")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /healthz with id: %v", err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get("X-Request-ID"); got != "my-id" {
		t.Errorf("X-Request-ID echo: got %q, want my-id", got)
	}
}
