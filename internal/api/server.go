// Package api serves the keyremote HTTP interface: typing and macro
// commands, LED control, and status, with API-key auth and per-client
// rate limiting.
package api

import (
	"context"
	"net"
	"net/http"

	"github.com/sweeney/keyremote/internal/keyboard"
	"github.com/sweeney/keyremote/internal/led"
	"github.com/sweeney/keyremote/internal/obs"
	"github.com/sweeney/keyremote/internal/ratelimit"
	"github.com/sweeney/keyremote/internal/status"
	"github.com/sweeney/keyremote/internal/ticks"
)

// Deps are the components the handlers act on. All are required except
// Metrics and MetricsHandler.
type Deps struct {
	APIKey    string
	Limiter   *ratelimit.Limiter
	Sender    *keyboard.Sender
	Channel   keyboard.Channel
	Indicator *led.Indicator
	Tracker   *status.Tracker
	Now       ticks.Source

	Metrics        *obs.Metrics
	MetricsHandler http.Handler
}

// Server serves the HTTP API.
type Server struct {
	httpServer *http.Server
	deps       Deps
}

// New creates a Server on the given address.
func New(addr string, deps Deps) *Server {
	s := &Server{deps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/type", s.handleType)
	mux.HandleFunc("/ctrlaltdel", s.handleCtrlAltDel)
	mux.HandleFunc("/sleep", s.handleSleep)
	mux.HandleFunc("/led/toggle", s.handleLEDToggle)
	if deps.MetricsHandler != nil {
		mux.Handle("/metrics", deps.MetricsHandler)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: withRequestID(mux),
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the root handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// clientID extracts the rate-limit identity from the request: the remote
// IP without the port.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
