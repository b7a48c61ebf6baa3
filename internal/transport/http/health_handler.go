package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"brewsignal/pkg/contracts"
)

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status         string              `json:"status"`
	Build          contracts.BuildInfo `json:"build"`
	UptimeSeconds  int64               `json:"uptime_seconds"`
	WhatIfSessions int                 `json:"what_if_sessions"`
}

// HealthHandler serves health and policy introspection
type HealthHandler struct {
	service  EvaluationService
	sessions func() int
	started  time.Time
}

// NewHealthHandler creates the handler; sessions may be nil
func NewHealthHandler(service EvaluationService, sessions func() int) *HealthHandler {
	return &HealthHandler{service: service, sessions: sessions, started: time.Now()}
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		Build:         contracts.CurrentBuild(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}
	if h.sessions != nil {
		resp.WhatIfSessions = h.sessions()
	}
	render.JSON(w, r, resp)
}

// Policy handles GET /api/policy
func (h *HealthHandler) Policy(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Policy())
}
