package interview

import (
	"sync"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/audio"
)

// Instance pairs a running session with the push provider feeding its
// microphone, so the audio ingest endpoint can reach the stream.
type Instance struct {
	Session  *Session
	Provider *audio.PushProvider
}

// Manager tracks at most one live session per interview. The factory
// builds the session graph (provider, capture, recorder, session) for an
// interview id; the HTTP layer supplies it at startup.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Instance
	factory  func(interviewID string) (*Instance, error)
}

func NewManager(factory func(interviewID string) (*Instance, error)) *Manager {
	return &Manager{
		sessions: make(map[string]*Instance),
		factory:  factory,
	}
}

// Get returns the live instance for an interview, if any.
func (m *Manager) Get(interviewID string) (*Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.sessions[interviewID]
	return inst, ok
}

// GetOrCreate returns the live instance, building one on first use.
func (m *Manager) GetOrCreate(interviewID string) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst, ok := m.sessions[interviewID]; ok {
		return inst, nil
	}
	inst, err := m.factory(interviewID)
	if err != nil {
		return nil, err
	}
	m.sessions[interviewID] = inst
	return inst, nil
}

// Close tears down one interview's session.
func (m *Manager) Close(interviewID string) {
	m.mu.Lock()
	inst, ok := m.sessions[interviewID]
	delete(m.sessions, interviewID)
	m.mu.Unlock()
	if ok {
		inst.Session.Close()
	}
}

// CloseAll tears down every live session; used on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	insts := make([]*Instance, 0, len(m.sessions))
	for _, inst := range m.sessions {
		insts = append(insts, inst)
	}
	m.sessions = make(map[string]*Instance)
	m.mu.Unlock()
	for _, inst := range insts {
		inst.Session.Close()
	}
}
