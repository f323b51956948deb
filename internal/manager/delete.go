package manager

import (
	"errors"
	"time"
)

// Delete initiates a graceful drain of a session and releases it.
//   - Sets the session state to draining to reject new operations.
//   - Waits up to drainTimeout for queued operations to finish.
//   - Waits for the in-flight operation, then closes the engine instance.
func (m *Manager) Delete(id string) error {
	if id == "" {
		return ErrSessionNotFound("(unspecified)")
	}
	m.mu.Lock()
	s := m.sessions[id]
	if s == nil || s.State == StateDraining {
		m.mu.Unlock()
		return ErrSessionNotFound(id)
	}
	s.State = StateDraining
	m.mu.Unlock()
	m.publish(Event{Name: "delete_start", SessionID: id})

	deadline := time.Now().Add(m.drainTimeout)
	for {
		qlen := len(s.queueCh)
		inflight := len(s.genCh)
		if inflight == 0 && qlen == 0 {
			break
		}
		if time.Now().After(deadline) {
			m.publish(Event{Name: "delete_timeout", SessionID: id, Fields: map[string]any{"inflight": inflight, "queue": qlen}})
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The slot is never released: late queued callers time out as too busy.
	s.genCh <- struct{}{}
	err := s.model.Close()

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	sessionsActive.Dec()

	m.publish(Event{Name: "delete_done", SessionID: id})
	m.logger().Info().Str("session", id).Msg("session deleted")
	return err
}

// Close deletes every live session.
func (m *Manager) Close() error {
	var errs []error
	for _, id := range m.sessionIDs() {
		if err := m.Delete(id); err != nil && !IsSessionNotFound(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
