package http

import (
	"log/slog"
	"net/http"
	"strings"

	gorillaws "github.com/gorilla/websocket"

	"brewsignal/internal/config"
	apierrors "brewsignal/internal/errors"
	"brewsignal/internal/middleware"
	"brewsignal/internal/websocket"
)

// WhatIfHandler upgrades GET /api/ws/what-if and hands the connection to the hub
type WhatIfHandler struct {
	hub            *websocket.Hub
	upgrader       gorillaws.Upgrader
	allowedOrigins []string
	errorHandler   *apierrors.ErrorHandler
	logger         *slog.Logger
}

// NewWhatIfHandler creates the handler. An empty origin list or "*" allows any origin.
func NewWhatIfHandler(hub *websocket.Hub, cfg config.WebSocketConfig, allowedOrigins []string, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *WhatIfHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &WhatIfHandler{
		hub:            hub,
		allowedOrigins: allowedOrigins,
		errorHandler:   errorHandler,
		logger:         logger.With(slog.String("component", "whatif_handler")),
	}
	h.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.errorHandler.HandleError(w, r, apierrors.New(status, apierrors.CodeWebSocketUpgrade, reason.Error()))
		},
	}
	return h
}

// Handle handles GET /api/ws/what-if
func (h *WhatIfHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetRequestID(ctx)

	h.logger.InfoContext(ctx, "what-if upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")),
		slog.String("request_id", reqID))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the problem response
		h.logger.WarnContext(ctx, "what-if upgrade failed", slog.String("error", err.Error()))
		return
	}
	h.hub.Serve(ctx, conn, reqID)
}

func (h *WhatIfHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	h.logger.WarnContext(r.Context(), "what-if origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.allowedOrigins))
	return false
}
