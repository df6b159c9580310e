package session

import (
	"context"
	"sync"
	"time"

	"pooledlist/internal/shared/protocol"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	sendTimeout  = 5 * time.Second
	pingInterval = 30 * time.Second
	maxReadSize  = protocol.MaxFrameSize + protocol.FrameHeaderSize
)

// Session is one websocket client. Its goroutines only move bytes; the list
// view it drives lives on the scheduler goroutine.
type Session struct {
	ID         string
	Name       string
	Conn       *websocket.Conn
	SendCh     chan []byte
	CloseCh    chan struct{}
	LastActive time.Time
	mu         sync.RWMutex
	logger     *zap.Logger
	closed     bool
}

// NewSession creates a session for conn. A nil conn is allowed in tests;
// writes are then discarded.
func NewSession(id, name string, conn *websocket.Conn, logger *zap.Logger) *Session {
	return &Session{
		ID:         id,
		Name:       name,
		Conn:       conn,
		SendCh:     make(chan []byte, 256),
		CloseCh:    make(chan struct{}),
		LastActive: time.Now(),
		logger:     logger.With(zap.String("session", name)),
	}
}

// Send queues an encoded frame for the write pump
func (s *Session) Send(data []byte) error {
	if s.IsClosed() {
		return ErrSessionClosed
	}

	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()

	select {
	case s.SendCh <- data:
		return nil
	case <-s.CloseCh:
		return ErrSessionClosed
	case <-timer.C:
		return ErrSendTimeout
	}
}

// UpdateActivity updates the last activity timestamp
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActive = time.Now()
}

// IsAlive checks if the session is still alive based on last activity
func (s *Session) IsAlive(timeout time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.LastActive) < timeout
}

// Close closes the connection. SendCh stays open so a racing Send cannot panic.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	close(s.CloseCh)

	if s.Conn != nil {
		_ = s.Conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = s.Conn.Close()
	}

	s.logger.Info("Session closed")
}

// IsClosed returns whether the session is closed
func (s *Session) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// WritePump writes queued frames and pings until the session closes
func (s *Session) WritePump() {
	if s.Conn == nil {
		for {
			select {
			case <-s.SendCh:
			case <-s.CloseCh:
				return
			}
		}
	}

	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case message := <-s.SendCh:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				s.logger.Error("Write error", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.CloseCh:
			return
		}
	}
}

// ReadPump reads frames and passes each to handle, queueing the reply.
// It returns when the peer goes away, ctx ends or the session closes.
func (s *Session) ReadPump(ctx context.Context, timeout time.Duration, handle func(context.Context, []byte) []byte) {
	defer s.Close()
	if s.Conn == nil {
		return
	}

	s.Conn.SetReadLimit(maxReadSize)
	_ = s.Conn.SetReadDeadline(time.Now().Add(timeout))
	s.Conn.SetPongHandler(func(string) error {
		s.UpdateActivity()
		return s.Conn.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		kind, data, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("Read error", zap.Error(err))
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		s.UpdateActivity()
		_ = s.Conn.SetReadDeadline(time.Now().Add(timeout))

		if kind != websocket.BinaryMessage {
			continue
		}

		if reply := handle(ctx, data); reply != nil {
			if err := s.Send(reply); err != nil {
				s.logger.Debug("Reply dropped", zap.Error(err))
				return
			}
		}
	}
}
