package manager

import (
	"sync/atomic"
	"time"

	"gojags/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{State: m.state, Sessions: len(m.sessions), Err: m.err}
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp := types.StatusResponse{
		MaxSessions:     m.maxSessions,
		Error:           m.err,
		UptimeSeconds:   int64(time.Since(m.startTime).Seconds()),
		ServerTimeUnix:  time.Now().Unix(),
		SessionsTotal:   atomic.LoadUint64(&m.sessionsTotal),
		IterationsTotal: atomic.LoadUint64(&m.iterationsTotal),
		CreatingCount:   m.creating,
	}
	if m.reg != nil {
		resp.Version = m.reg.Version()
	}
	resp.Sessions = make([]types.SessionStatus, 0, len(m.sessions))
	draining := 0
	for _, s := range m.sessions {
		if s.State == StateDraining {
			draining++
		}
		resp.Sessions = append(resp.Sessions, types.SessionStatus{
			ID:            s.ID,
			State:         string(s.State),
			LastUsed:      s.LastUsed.Unix(),
			QueueLen:      len(s.queueCh),
			Inflight:      len(s.genCh),
			MaxQueueDepth: cap(s.queueCh),
		})
	}
	resp.DrainingCount = draining
	return resp
}
