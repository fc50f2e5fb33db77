// Package adminserver exposes a node's health, status, and Prometheus
// metrics over HTTP, the way the teacher's routes package wires controllers
// onto a mux — repurposed here since vertices arrive over the consensus
// channels, not as REST payloads.
package adminserver

import (
	"net/http"
	"time"

	"github.com/absedag/consensus/internal/driver"
	"github.com/absedag/consensus/internal/logging"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the node's admin HTTP surface.
type Server struct {
	router    *mux.Router
	startedAt time.Time
	node      *driver.Driver
	resp      responseBuilder
}

// New builds an admin server backed by node for status reporting, logging
// every request through log (or silently, if log is nil).
func New(node *driver.Driver, log ...logging.Logger) *Server {
	l := logging.NoOp()
	if len(log) > 0 && log[0] != nil {
		l = log[0]
	}

	s := &Server{
		router:    mux.NewRouter(),
		startedAt: time.Now(),
		node:      node,
	}
	s.router.Use(newLoggingMiddleware(l).wrap)
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Handler returns the server's http.Handler for use with http.Server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.resp.JSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}{
		Status: "ok",
		Uptime: time.Since(s.startedAt).String(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.resp.JSON(w, http.StatusOK, struct {
		CurrentRound uint64 `json:"current_round"`
		DecidedWave  uint64 `json:"decided_wave"`
	}{
		CurrentRound: uint64(s.node.CurrentRound()),
		DecidedWave:  uint64(s.node.DecidedWave()),
	})
}
