package interview

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/hirevox/interview-server/internal/domain"
)

// WebSocketHandler accepts interview connections and feeds client events to
// the orchestrator. Each connection owns exactly one session for its
// lifetime; the store entry is removed on every disconnect path.
type WebSocketHandler struct {
	store         *Store
	orch          *Orchestrator
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(store *Store, orch *Orchestrator, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		store:         store,
		orch:          orch,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// wsEmitter serializes frame writes to one connection. The orchestrator's
// timer goroutine and the read loop may emit concurrently.
type wsEmitter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Emit implements Emitter.
func (e *wsEmitter) Emit(ctx context.Context, ev domain.ServerEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.Write(ctx, websocket.MessageText, data)
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "interview ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	sessionID := uuid.NewString()
	slog.Info("Interview connection established", "session_id", sessionID, "ip", r.RemoteAddr)

	sess := h.store.Create(sessionID)
	defer h.store.Delete(sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	sess.bindCloser(cancel)

	emitter := &wsEmitter{conn: ws}
	h.readLoop(ctx, ws, sess, emitter)

	slog.Info("Interview connection closed", "session_id", sessionID)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

// readLoop consumes client frames until the connection closes. Events are
// dispatched inline, so a session processes at most one gateway call at a
// time from the client side; the inactivity timer is the only other source
// of turns.
func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, sess *Session, emitter *wsEmitter) {
	for {
		_, frame, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "session_id", sess.ID())
			} else if ctx.Err() == nil {
				slog.Warn("WebSocket read error", "error", err, "session_id", sess.ID())
			}
			return
		}

		var ev domain.ClientEvent
		if err := json.Unmarshal(frame, &ev); err != nil {
			slog.Warn("Malformed client frame", "error", err, "session_id", sess.ID())
			h.sendError(ctx, sess, emitter)
			continue
		}

		switch ev.Type {
		case domain.EventStartInterview:
			h.orch.StartInterview(ctx, sess, emitter)
		case domain.EventMessage:
			if ev.Text == "" {
				slog.Warn("Message frame without text", "session_id", sess.ID())
				h.sendError(ctx, sess, emitter)
				continue
			}
			h.orch.HandleMessage(ctx, sess, ev.Text, emitter)
		case domain.EventUserInfo:
			sess.SetParticipant(ev.UserID, ev.InterviewID)
			slog.Info("Interview correlated",
				"session_id", sess.ID(),
				"user_id", ev.UserID,
				"interview_id", ev.InterviewID,
			)
		default:
			slog.Warn("Unknown client event", "type", ev.Type, "session_id", sess.ID())
			h.sendError(ctx, sess, emitter)
		}
	}
}

func (h *WebSocketHandler) sendError(ctx context.Context, sess *Session, emitter *wsEmitter) {
	err := emitter.Emit(ctx, domain.ServerEvent{
		Type: domain.EventError,
		Text: malformedFrameMessage,
	})
	if err != nil {
		slog.Debug("Failed to send error event", "error", err, "session_id", sess.ID())
	}
}
