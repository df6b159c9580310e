package session

import (
	"context"
	"sync"
	"time"

	"pooledlist/internal/shared/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Manager tracks live sessions
type Manager struct {
	sessions    map[string]*Session // id -> session
	names       map[string]bool     // names in use
	mu          sync.RWMutex
	maxSessions int
	logger      *zap.Logger
}

// NewManager creates a manager allowing up to maxSessions; zero means no limit
func NewManager(maxSessions int, logger *zap.Logger) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		names:       make(map[string]bool),
		maxSessions: maxSessions,
		logger:      logger,
	}
}

// Register creates a session for conn with a fresh id and a unique short name
func (m *Manager) Register(conn *websocket.Conn) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return nil, ErrTooManySessions
	}

	name := m.generateUniqueName()
	s := NewSession(utils.GenerateID(), name, conn, m.logger)
	m.sessions[s.ID] = s
	m.names[name] = true

	m.logger.Info("Session registered",
		zap.String("session", name),
		zap.Int("total_sessions", len(m.sessions)),
	)

	return s, nil
}

// Unregister closes and removes a session
func (m *Manager) Unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		s.Close()
		delete(m.sessions, id)
		delete(m.names, s.Name)

		m.logger.Info("Session unregistered",
			zap.String("session", s.Name),
			zap.Int("total_sessions", len(m.sessions)),
		)
	}
}

// Get retrieves a session by id
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	return s, ok
}

// List returns all live sessions
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupStale closes sessions idle for longer than timeout
func (m *Manager) CleanupStale(timeout time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stale []string
	for id, s := range m.sessions {
		if !s.IsAlive(timeout) {
			stale = append(stale, id)
		}
	}

	for _, id := range stale {
		s := m.sessions[id]
		s.Close()
		delete(m.sessions, id)
		delete(m.names, s.Name)
	}

	if len(stale) > 0 {
		m.logger.Info("Cleaned up stale sessions",
			zap.Int("count", len(stale)),
		)
	}

	return len(stale)
}

// StartCleanupTask runs CleanupStale every interval until ctx is done
func (m *Manager) StartCleanupTask(ctx context.Context, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.CleanupStale(timeout)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) generateUniqueName() string {
	const maxAttempts = 10

	for i := 0; i < maxAttempts; i++ {
		name := utils.GenerateName(utils.DefaultNameLength)
		if !m.names[name] {
			return name
		}
	}

	return utils.GenerateName(utils.DefaultNameLength + 4)
}

// Shutdown closes every session
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Shutting down session manager",
		zap.Int("active_sessions", len(m.sessions)),
	)

	for _, s := range m.sessions {
		s.Close()
	}

	m.sessions = make(map[string]*Session)
	m.names = make(map[string]bool)
}
