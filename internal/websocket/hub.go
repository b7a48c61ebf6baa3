package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"brewsignal/internal/config"
	"brewsignal/internal/infrastructure"
	"brewsignal/internal/services"
	"brewsignal/pkg/contracts/domain"
)

// Evaluator is the part of the evaluation service a session needs
type Evaluator interface {
	Evaluate(ctx context.Context, b domain.EntityBundle, opts services.EvaluateOptions) (domain.Evaluation, error)
}

// Hub maintains the set of open what-if sessions
type Hub struct {
	evaluator Evaluator
	cfg       config.WebSocketConfig
	metrics   *infrastructure.EngineMetrics
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

// NewHub creates a Hub; zero WebSocket timings fall back to the defaults
func NewHub(evaluator Evaluator, cfg config.WebSocketConfig, metrics *infrastructure.EngineMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		evaluator: evaluator,
		cfg:       withDefaults(cfg),
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "websocket.hub")),
		sessions:  make(map[*Session]struct{}),
	}
}

// Serve runs a session on conn until the peer leaves or the hub closes it.
// It blocks; call it from the upgrading handler.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, traceID string) {
	s := newSession(h, conn, traceID)
	h.register(s)
	defer h.unregister(s)

	go s.writePump()
	s.readPump(ctx)
}

// SessionCount returns the number of open sessions
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// CloseAll sends a going-away close frame to every session
func (h *Hub) CloseAll() {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.closeGoingAway()
	}
	h.logger.Info("closed what-if sessions", slog.Int("count", len(sessions)))
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	count := len(h.sessions)
	h.mu.Unlock()

	h.metrics.WhatIfSession(context.Background(), 1)
	s.logger.Info("what-if session opened", slog.Int("open_sessions", count))
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s)
	count := len(h.sessions)
	h.mu.Unlock()

	h.metrics.WhatIfSession(context.Background(), -1)
	s.logger.Info("what-if session closed",
		slog.Int("open_sessions", count),
		slog.Int64("frames", s.frames),
		slog.Duration("duration", time.Since(s.connectedAt)))
}

func withDefaults(cfg config.WebSocketConfig) config.WebSocketConfig {
	def := config.Default().WebSocket
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = def.MaxMessageBytes
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	return cfg
}
