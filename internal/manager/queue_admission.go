package manager

import (
	"context"
	"time"
)

// beginOp reserves a queue slot and then the single in-flight slot of a
// session. Returns a release func to be deferred.
func (m *Manager) beginOp(ctx context.Context, id string) (*Session, func(), error) {
	m.mu.RLock()
	s := m.sessions[id]
	draining := s != nil && s.State == StateDraining
	m.mu.RUnlock()
	if s == nil {
		return nil, func() {}, sessionNotFoundError{id: id}
	}
	// If draining, reject new work so the session can be deleted
	if draining {
		return nil, func() {}, tooBusyError{id: id}
	}

	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return nil, func() {}, err
	}

	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case s.queueCh <- struct{}{}:
		// reserved queue slot
	case <-ctx.Done():
		return nil, func() {}, ctx.Err()
	case <-timer.C:
		return nil, func() {}, tooBusyError{id: id}
	}

	// Wait to acquire the single in-flight slot
	acquired := false
	defer func() {
		if !acquired {
			<-s.queueCh
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, func() {}, err
	}
	timer2 := time.NewTimer(m.maxWait)
	defer timer2.Stop()
	select {
	case s.genCh <- struct{}{}:
		acquired = true
		m.mu.Lock()
		s.LastUsed = time.Now()
		m.mu.Unlock()
		return s, func() { <-s.genCh; <-s.queueCh }, nil
	case <-ctx.Done():
		return nil, func() {}, ctx.Err()
	case <-timer2.C:
		return nil, func() {}, tooBusyError{id: id}
	}
}
