package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"time"

	"github.com/gorilla/websocket"

	"brewsignal/internal/infrastructure"
	"brewsignal/internal/services"
	"brewsignal/pkg/contracts/domain"
)

// sendBuffer bounds queued outbound frames per session
const sendBuffer = 16

// Session is one client connection and its what-if state
type Session struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	id          string
	traceID     string
	connectedAt time.Time
	logger      *slog.Logger

	// Owned by the read pump
	bundle      *domain.EntityBundle
	patch       map[string]float64
	includePlan bool
	sequence    int64
	frames      int64
}

func newSession(h *Hub, conn *websocket.Conn, traceID string) *Session {
	id := infrastructure.NewID()
	logger := h.logger.With(
		slog.String("component", "websocket.session"),
		slog.String("session_id", id),
	)
	if traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}
	return &Session{
		hub:         h,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		done:        make(chan struct{}),
		id:          id,
		traceID:     traceID,
		connectedAt: time.Now(),
		logger:      logger,
		patch:       make(map[string]float64),
	}
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// readPump reads client frames and answers each one until the connection fails
func (s *Session) readPump(ctx context.Context) {
	defer close(s.send)

	if s.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, s.traceID)
	}

	cfg := s.hub.cfg
	s.conn.SetReadLimit(cfg.MaxMessageBytes)
	s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	s.reply(ServerMessage{Type: TypeReady})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.WarnContext(ctx, "unexpected websocket close", slog.String("error", err.Error()))
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))

		if msg, ok := s.handle(ctx, data); ok {
			if !s.reply(msg) {
				return
			}
		}
	}
}

// handle applies one client frame; false means nothing is sent back
func (s *Session) handle(ctx context.Context, data []byte) (ServerMessage, bool) {
	var in ClientMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return errorMessage(errorPayload(CodeInvalidMessage, "frame is not valid JSON")), true
	}

	switch in.Type {
	case TypeHeartbeat:
		return ServerMessage{}, false

	case TypeBundle:
		if in.Bundle == nil {
			return errorMessage(errorPayload(CodeInvalidMessage, "bundle frame carries no bundle")), true
		}
		if err := services.ValidateBundle(*in.Bundle); err != nil {
			return errorMessage(payloadFromError(err)), true
		}
		if err := services.ValidateOverrides(in.Overrides); err != nil {
			return errorMessage(payloadFromError(err)), true
		}
		b := *in.Bundle
		s.bundle = &b
		s.patch = maps.Clone(in.Overrides)
		if s.patch == nil {
			s.patch = make(map[string]float64)
		}
		s.includePlan = in.IncludePlan != nil && *in.IncludePlan

	case TypeOverrides:
		if s.bundle == nil {
			return errorMessage(errorPayload(CodeNoBundle, "send a bundle frame before override patches")), true
		}
		if err := services.ValidateOverrides(in.Overrides); err != nil {
			return errorMessage(payloadFromError(err)), true
		}
		maps.Copy(s.patch, in.Overrides)
		if in.IncludePlan != nil {
			s.includePlan = *in.IncludePlan
		}

	case TypeReset:
		if s.bundle == nil {
			return errorMessage(errorPayload(CodeNoBundle, "send a bundle frame before resetting")), true
		}
		clear(s.patch)

	default:
		return errorMessage(errorPayload(CodeInvalidMessage, "unknown frame type "+string(in.Type))), true
	}

	return s.evaluate(ctx), true
}

func (s *Session) evaluate(ctx context.Context) ServerMessage {
	eval, err := s.hub.evaluator.Evaluate(ctx, *s.bundle, services.EvaluateOptions{
		Overrides:   maps.Clone(s.patch),
		IncludePlan: s.includePlan,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "what-if evaluation failed", slog.String("error", err.Error()))
		return errorMessage(payloadFromError(err))
	}

	s.frames++
	s.hub.metrics.RecordWhatIfFrame(ctx)
	s.logger.DebugContext(ctx, "what-if frame evaluated",
		slog.String("entity_id", eval.EntityID),
		slog.Int("overrides", len(s.patch)),
		slog.String("decision", string(eval.Allocation.Decision)))

	return ServerMessage{
		Type:       TypeEvaluation,
		Overrides:  maps.Clone(s.patch),
		Evaluation: &eval,
	}
}

// reply stamps and queues msg; false once the write pump has stopped
func (s *Session) reply(msg ServerMessage) bool {
	s.sequence++
	msg.SessionID = s.id
	msg.Sequence = s.sequence

	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("encode server frame", slog.String("error", err.Error()))
		return true
	}
	select {
	case s.send <- data:
		return true
	case <-s.done:
		return false
	}
}

// writePump writes queued frames and keeps the connection alive with pings
func (s *Session) writePump() {
	cfg := s.hub.cfg
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		close(s.done)
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					s.logger.Debug("write websocket frame", slog.String("error", err.Error()))
				}
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug("send ping", slog.String("error", err.Error()))
				return
			}
		}
	}
}

// closeGoingAway tells the peer the server is shutting down.
// WriteControl is safe alongside the write pump.
func (s *Session) closeGoingAway() {
	deadline := time.Now().Add(s.hub.cfg.WriteWait)
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		s.logger.Debug("send close frame", slog.String("error", err.Error()))
	}
	s.conn.SetReadDeadline(time.Now())
}

func errorMessage(p *ErrorPayload) ServerMessage {
	return ServerMessage{Type: TypeError, Error: p}
}
