package session

import (
	"context"
	"sync"
	"time"

	"cartview/internal/logger"

	"go.uber.org/zap"
)

// Manager keeps the open sessions of this instance, one per browser tab.
type Manager struct {
	deps Deps
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps, now: time.Now, sessions: make(map[string]*Session)}
}

func (m *Manager) Open(ctx context.Context, email string, prefs Preferences) (*Session, error) {
	s, err := Open(ctx, m.deps, email, prefs)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the session id if it exists and belongs to email, and marks
// it used.
func (m *Manager) Get(id, email string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.Email() != email {
		return nil, false
	}
	s.Touch()
	return s, true
}

func (m *Manager) Close(id, email string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s.Email() != email {
		m.mu.Unlock()
		return false
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	s.Close()
	return true
}

// Sweep closes sessions unused for longer than ttl, covering tabs that went
// away without saying so. It returns how many were closed.
func (m *Manager) Sweep(ttl time.Duration) int {
	now := m.now()

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.IdleFor(now) > ttl {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		logger.L().Info("idle cart sessions closed", zap.Int("count", len(idle)), zap.Duration("ttl", ttl))
	}
	return len(idle)
}

// Run sweeps idle sessions every interval until ctx is done. A non-positive
// ttl disables sweeping.
func (m *Manager) Run(ctx context.Context, interval, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ttl)
		}
	}
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		open = append(open, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
	logger.L().Info("cart sessions closed", zap.Int("count", len(open)))
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
