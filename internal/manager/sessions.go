package manager

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"gojags/internal/model"
	"gojags/pkg/ndarray"
	"gojags/pkg/types"
)

// Create compiles, initializes and adapts a new session. The session limit is
// checked before any engine work starts.
func (m *Manager) Create(ctx context.Context, req types.CreateSessionRequest) (types.SessionInfo, error) {
	m.mu.Lock()
	if m.reg == nil {
		m.mu.Unlock()
		return types.SessionInfo{}, fmt.Errorf("manager not ready: %s", m.err)
	}
	if len(m.sessions)+m.creating >= m.maxSessions {
		m.mu.Unlock()
		sessionsCreatedTotal.WithLabelValues("rejected").Inc()
		return types.SessionInfo{}, tooBusyError{id: fmt.Sprintf("session limit (%d) reached", m.maxSessions)}
	}
	m.creating++
	m.mu.Unlock()

	id := uuid.NewString()
	m.publish(Event{Name: "create_start", SessionID: id, Fields: map[string]any{"chains": req.Chains}})
	start := time.Now()
	mdl, err := model.New(ctx, m.reg, model.Options{
		Text:   req.Model,
		Data:   req.Data,
		Start:  req.Init,
		Chains: req.Chains,
		Tune:   req.Tune,
	})
	opDuration.WithLabelValues("create", resultLabel(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		m.mu.Lock()
		m.creating--
		m.mu.Unlock()
		sessionsCreatedTotal.WithLabelValues("error").Inc()
		m.publish(Event{Name: "create_error", SessionID: id, Fields: map[string]any{"error": err.Error()}})
		m.logger().Debug().Str("session", id).Err(err).Msg("create failed")
		return types.SessionInfo{}, err
	}

	now := time.Now()
	s := &Session{
		ID:       id,
		State:    StateReady,
		Created:  now,
		LastUsed: now,
		model:    mdl,
		genCh:    make(chan struct{}, 1),
		queueCh:  make(chan struct{}, m.maxQueueDepth),
	}
	m.refresh(s)
	m.mu.Lock()
	m.creating--
	m.sessions[id] = s
	info := s.info()
	m.mu.Unlock()
	atomic.AddUint64(&m.sessionsTotal, 1)
	m.countIterations(info.Iter)
	sessionsActive.Inc()
	sessionsCreatedTotal.WithLabelValues("ok").Inc()
	m.publish(Event{Name: "create_done", SessionID: id, Fields: map[string]any{"iter": info.Iter, "dur": time.Since(start)}})
	m.logger().Info().Str("session", id).Int("chains", info.Chains).Dur("dur", time.Since(start)).Msg("session created")
	return info, nil
}

// refresh copies engine-side counters into the session cache. The caller
// must hold the session's in-flight slot or own it exclusively.
func (m *Manager) refresh(s *Session) {
	chains := s.model.NumChains()
	iter := s.model.Iter()
	adapting := s.model.Session().IsAdapting()
	vars := s.model.Variables()
	m.mu.Lock()
	s.chains, s.iter, s.adapting, s.variables = chains, iter, adapting, vars
	m.mu.Unlock()
}

// info must be called with m.mu held.
func (s *Session) info() types.SessionInfo {
	return types.SessionInfo{
		ID:           s.ID,
		State:        string(s.State),
		Chains:       s.chains,
		Iter:         s.iter,
		Adapting:     s.adapting,
		Variables:    append([]string(nil), s.variables...),
		CreatedUnix:  s.Created.Unix(),
		LastUsedUnix: s.LastUsed.Unix(),
	}
}

func (m *Manager) countIterations(n int) {
	if n <= 0 {
		return
	}
	atomic.AddUint64(&m.iterationsTotal, uint64(n))
	iterationsTotal.Add(float64(n))
}

// Get returns the cached description of a session.
func (m *Manager) Get(id string) (types.SessionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.sessions[id]
	if s == nil {
		return types.SessionInfo{}, sessionNotFoundError{id: id}
	}
	return s.info(), nil
}

// List returns every live session ordered by id.
func (m *Manager) List() []types.SessionInfo {
	ids := m.sessionIDs()
	out := make([]types.SessionInfo, 0, len(ids))
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range ids {
		if s := m.sessions[id]; s != nil {
			out = append(out, s.info())
		}
	}
	return out
}

// withSession admits one operation on a session, runs fn and refreshes the
// cached counters.
func (m *Manager) withSession(ctx context.Context, id, op string, fn func(*model.Model) error) error {
	s, release, err := m.beginOp(ctx, id)
	if err != nil {
		return err
	}
	defer release()
	start := time.Now()
	before := s.model.Iter()
	err = fn(s.model)
	opDuration.WithLabelValues(op, resultLabel(err)).Observe(time.Since(start).Seconds())
	m.countIterations(s.model.Iter() - before)
	m.refresh(s)
	ev := m.logger().Debug().Str("session", id).Str("op", op).Dur("dur", time.Since(start))
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("session op")
	return err
}

// Update runs iterations without monitoring.
func (m *Manager) Update(ctx context.Context, id string, iterations int) (types.UpdateResponse, error) {
	var resp types.UpdateResponse
	err := m.withSession(ctx, id, "update", func(mdl *model.Model) error {
		err := mdl.Update(ctx, iterations)
		resp.Iter = mdl.Iter()
		return err
	})
	return resp, err
}

// Adapt runs adaptation iterations.
func (m *Manager) Adapt(ctx context.Context, id string, iterations int) (types.AdaptResponse, error) {
	var resp types.AdaptResponse
	err := m.withSession(ctx, id, "adapt", func(mdl *model.Model) error {
		ok, err := mdl.Adapt(ctx, iterations)
		resp.Adapted, resp.Iter = ok, mdl.Iter()
		return err
	})
	return resp, err
}

// Sample monitors the requested variables while running iterations.
func (m *Manager) Sample(ctx context.Context, id string, req types.SampleRequest) (types.SampleResponse, error) {
	var resp types.SampleResponse
	err := m.withSession(ctx, id, "sample", func(mdl *model.Model) error {
		samples, err := mdl.Sample(ctx, req.Iterations, model.SampleOptions{Vars: req.Vars, Thin: req.Thin, Type: req.Type})
		resp.Iter, resp.Samples = mdl.Iter(), samples
		return err
	})
	return resp, err
}

// State dumps every chain including RNG state.
func (m *Manager) State(ctx context.Context, id string) (types.StateResponse, error) {
	var resp types.StateResponse
	err := m.withSession(ctx, id, "state", func(mdl *model.Model) error {
		chains, err := mdl.State()
		resp.Chains = chains
		return err
	})
	if resp.Chains == nil {
		resp.Chains = []ndarray.ChainState{}
	}
	return resp, err
}

// Samplers lists the samplers chosen for a session.
func (m *Manager) Samplers(ctx context.Context, id string) (types.SamplersResponse, error) {
	resp := types.SamplersResponse{Samplers: []types.Sampler{}}
	err := m.withSession(ctx, id, "samplers", func(mdl *model.Model) error {
		infos, err := mdl.Samplers()
		for _, si := range infos {
			resp.Samplers = append(resp.Samplers, types.Sampler{Method: si.Method, Nodes: si.Nodes})
		}
		return err
	})
	return resp, err
}
