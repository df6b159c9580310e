package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pooledlist/internal/shared/pool"
	"pooledlist/internal/shared/protocol"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hooks lets the server observe the session lifecycle
type Hooks struct {
	Opened func(*Session)
	Closed func(*Session)
}

// Handler upgrades HTTP requests to websocket sessions
type Handler struct {
	host     *Host
	manager  *Manager
	upgrader websocket.Upgrader
	timeout  time.Duration
	hooks    Hooks
	logger   *zap.Logger
}

// NewHandler creates a handler serving sessions over host. timeout is the
// read deadline; pings from the write pump keep healthy peers inside it.
func NewHandler(host *Host, manager *Manager, timeout time.Duration, hooks Hooks, logger *zap.Logger) *Handler {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Handler{
		host:    host,
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		timeout: timeout,
		hooks:   hooks,
		logger:  logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.manager.maxSessions > 0 && h.manager.Count() >= h.manager.maxSessions {
		http.Error(w, ErrTooManySessions.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	s, err := h.manager.Register(conn)
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		_ = conn.Close()
		return
	}

	h.Serve(r.Context(), s)
}

// Serve runs s until it disconnects. The view is created, used and
// released on the scheduler goroutine.
func (h *Handler) Serve(ctx context.Context, s *Session) {
	defer h.manager.Unregister(s.ID)

	var view *View
	var viewErr error
	if err := h.host.Scheduler.SubmitWait(ctx, func() {
		view, viewErr = NewView(h.host, s.Name, s.logger)
	}); err != nil || viewErr != nil {
		h.logger.Error("Failed to create view", zap.Error(errors.Join(err, viewErr)))
		return
	}
	defer func() {
		// A closed scheduler has already drained; nothing owns the pool any more
		if err := h.host.Scheduler.Enqueue(context.Background(), view.Release); err != nil {
			h.logger.Warn("View release dropped", zap.String("session", s.Name), zap.Error(err))
		}
	}()

	if h.hooks.Opened != nil {
		h.hooks.Opened(s)
	}
	if h.hooks.Closed != nil {
		defer h.hooks.Closed(s)
	}

	go s.WritePump()
	s.ReadPump(ctx, h.timeout, func(ctx context.Context, data []byte) []byte {
		return h.dispatch(ctx, view, data)
	})
}

func (h *Handler) dispatch(ctx context.Context, view *View, data []byte) []byte {
	frame, err := protocol.ReadFrame(data)
	if err != nil {
		return errorFrame(h.logger, protocol.CodeBadFrame, err.Error())
	}
	if !frame.Type.FromClient() {
		return errorFrame(h.logger, protocol.CodeBadFrame, "unexpected frame "+frame.Type.String())
	}

	var reply []byte
	err = h.host.Scheduler.SubmitWait(ctx, func() {
		reply = view.Handle(frame)
	})
	switch {
	case err == nil:
		return reply
	case errors.Is(err, pool.ErrQueueFull):
		return errorFrame(h.logger, protocol.CodeBusy, err.Error())
	default:
		return errorFrame(h.logger, protocol.CodeInternal, err.Error())
	}
}
