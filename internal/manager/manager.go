package manager

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gojags/internal/registry"
)

type Manager struct {
	mu         sync.RWMutex
	state      State
	err        string
	reg        *registry.Registry
	modulesDir string
	sessions   map[string]*Session
	creating   int
	publisher  EventPublisher
	log        zerolog.Logger
	startTime  time.Time

	sessionsTotal   uint64
	iterationsTotal uint64

	// Queue config
	maxSessions   int
	maxQueueDepth int
	maxWait       time.Duration
	drainTimeout  time.Duration
}

// New constructs a Manager over reg with package defaults.
func New(reg *registry.Registry) *Manager {
	return NewWithConfig(ManagerConfig{Registry: reg})
}

// SetLogger installs a structured logger.
func (m *Manager) SetLogger(l zerolog.Logger) {
	m.mu.Lock()
	m.log = l
	m.mu.Unlock()
}

func (m *Manager) logger() *zerolog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l := m.log
	return &l
}

// Ready reports whether the manager can create sessions.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateReady && m.reg != nil
}

// Registry returns the engine registry sessions are created from.
func (m *Manager) Registry() *registry.Registry { return m.reg }

// sessionIDs returns live session ids in sorted order.
func (m *Manager) sessionIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
