package session

import (
	"log/slog"
	"sync"

	"kinemetry/internal/exercise"
	"kinemetry/internal/services"
)

// Manager tracks concurrently running sessions. Sessions are fully
// independent; the manager only owns the registry.
type Manager struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns an empty session registry.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:   logger.With(slog.String("component", "session-manager")),
		sessions: make(map[string]*Session),
	}
}

// Start creates and registers a session.
func (m *Manager) Start(ex exercise.Exercise, opts Options) (*Session, error) {
	s, err := New(ex, opts, m.logger)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns a running session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Active returns the IDs of all running sessions.
func (m *Manager) Active() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Stop ends a session, removes it from the registry and returns its
// summary.
func (m *Manager) Stop(id string) (*Summary, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "session", "stop", "no session "+id, nil)
	}
	summary := s.Stop()
	if summary == nil {
		return nil, services.Wrap(services.ErrValidation, "session", "stop", "session already stopped", nil)
	}
	return summary, nil
}

// StopAll ends every running session and returns their summaries.
func (m *Manager) StopAll() []*Summary {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	summaries := make([]*Summary, 0, len(sessions))
	for _, s := range sessions {
		if summary := s.Stop(); summary != nil {
			summaries = append(summaries, summary)
		}
	}
	return summaries
}
