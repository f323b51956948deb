// Package console drives one engine model instance through its lifecycle:
// check, compile, parameterize, initialize, update, monitor and clear.
//
// Every engine call goes through the error bridge (bridge.go): both
// diagnostic buffers are cleared first, and the call fails if the engine
// returned false or wrote anything to its error stream. Arrays cross the
// boundary through internal/marshal.
//
// A Session is single-consumer and does no locking of its own. Engine calls
// are serialized process-wide through the gate passed to New; Update is the
// only call that runs with the gate released.
package console

import (
	"errors"
	"os"
	"sort"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"gojags/internal/engine"
	"gojags/internal/marshal"
	"gojags/pkg/ndarray"
)

// State is the lifecycle position of a session as last observed.
type State string

const (
	StateEmpty         State = "empty"
	StateChecked       State = "checked"
	StateCompiled      State = "compiled"
	StateParameterized State = "parameterized"
	StateInitialized   State = "initialized"
	StateAdapting      State = "adapting"
	StateSampling      State = "sampling"
)

// Monitor describes one active monitor.
type Monitor struct {
	Name string `json:"name"`
	Thin int    `json:"thin"`
	Type string `json:"type"`
}

type monitorKey struct{ name, typ string }

// Session owns one engine console and its diagnostic buffers.
type Session struct {
	c        engine.Console
	gate     sync.Locker
	bufs     *streams
	state    State
	monitors map[monitorKey]int
	log      zerolog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for per-call debug records.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New creates a session on rt. gate serializes engine calls across sessions;
// a nil gate means the caller serializes everything itself.
func New(rt engine.Runtime, gate sync.Locker, opts ...Option) *Session {
	if gate == nil {
		gate = noopLocker{}
	}
	s := &Session{
		gate:     gate,
		bufs:     &streams{},
		state:    StateEmpty,
		monitors: make(map[monitorKey]int),
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	gate.Lock()
	s.c = rt.NewConsole(&s.bufs.out, &s.bufs.err)
	gate.Unlock()
	return s
}

// State returns the last observed lifecycle state.
func (s *Session) State() State { return s.state }

// CheckModel opens the model file at path and checks its syntax.
func (s *Session) CheckModel(path string) error {
	if s.c == nil {
		return ErrClosed
	}
	f, err := os.Open(path)
	if err != nil {
		ioErr := &IOError{Path: path, Err: err}
		var errno syscall.Errno
		if errors.As(err, &errno) {
			ioErr.Code = errno
			ioErr.Err = errno
		}
		return ioErr
	}
	defer f.Close()
	if err := s.invoke("checkModel", KindValidation, func() bool { return s.c.CheckModel(f) }); err != nil {
		return err
	}
	s.monitors = make(map[monitorKey]int)
	s.state = StateChecked
	return nil
}

// Compile builds the model graph with the given data for chains replicates.
func (s *Session) Compile(data ndarray.Map, chains int, generateData bool) error {
	table, err := marshal.ToEngineMap(data)
	if err != nil {
		return err
	}
	if err := s.invoke("compile", KindValidation, func() bool { return s.c.Compile(table, chains, generateData) }); err != nil {
		return err
	}
	s.state = StateCompiled
	return nil
}

// SetParameters sets unobserved node values for one chain (1-based).
func (s *Session) SetParameters(params ndarray.Map, chain int) error {
	table, err := marshal.ToEngineMap(params)
	if err != nil {
		return err
	}
	if err := s.invoke("setParameters", KindValidation, func() bool { return s.c.SetParameters(table, chain) }); err != nil {
		return err
	}
	s.state = StateParameterized
	return nil
}

// SetRNGName assigns a named RNG algorithm to one chain (1-based).
func (s *Session) SetRNGName(name string, chain int) error {
	if err := s.invoke("setRNGname", KindValidation, func() bool { return s.c.SetRNGName(name, chain) }); err != nil {
		return err
	}
	s.state = StateParameterized
	return nil
}

// Initialize chooses samplers for every chain.
func (s *Session) Initialize() error {
	if err := s.invoke("initialize", KindState, func() bool { return s.c.Initialize() }); err != nil {
		return err
	}
	s.state = StateInitialized
	if s.IsAdapting() {
		s.state = StateAdapting
	}
	return nil
}

// Update runs iterations steps on every chain. Zero iterations is a no-op.
// The process-wide gate is released while the engine works; iterations
// completed before a failure remain counted by Iter.
func (s *Session) Update(iterations int) error {
	if iterations < 0 {
		return &EngineError{Op: "update", Kind: KindState, Msg: "negative number of iterations"}
	}
	if err := s.invokeReleased("update", KindState, func() bool { return s.c.Update(iterations) }); err != nil {
		return err
	}
	if s.IsAdapting() {
		s.state = StateAdapting
	} else {
		s.state = StateSampling
	}
	return nil
}

// SetMonitor records node array name every thin iterations with the given monitor type.
func (s *Session) SetMonitor(name string, thin int, monitorType string) error {
	if err := s.invoke("setMonitor", KindState, func() bool { return s.c.SetMonitor(name, thin, monitorType) }); err != nil {
		return err
	}
	s.monitors[monitorKey{name, monitorType}] = thin
	return nil
}

// ClearMonitor removes the monitor of the given type for name.
func (s *Session) ClearMonitor(name, monitorType string) error {
	if err := s.invoke("clearMonitor", KindState, func() bool { return s.c.ClearMonitor(name, monitorType) }); err != nil {
		return err
	}
	delete(s.monitors, monitorKey{name, monitorType})
	return nil
}

// Monitors lists the monitors set through this session, sorted by name and type.
func (s *Session) Monitors() []Monitor {
	out := make([]Monitor, 0, len(s.monitors))
	for k, thin := range s.monitors {
		out = append(out, Monitor{Name: k.name, Thin: thin, Type: k.typ})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// DumpState returns the current values of one chain (1-based).
func (s *Session) DumpState(t engine.DumpType, chain int) (ndarray.ChainState, error) {
	var (
		table   map[string]engine.Array
		rngName string
	)
	err := s.invoke("dumpState", KindState, func() bool {
		var ok bool
		table, rngName, ok = s.c.DumpState(t, chain)
		return ok
	})
	if err != nil {
		return ndarray.ChainState{}, err
	}
	values, err := marshal.ToHostMap(table)
	if err != nil {
		return ndarray.ChainState{}, err
	}
	return ndarray.ChainState{Values: values, RNGName: rngName}, nil
}

// DumpMonitors returns the samples accumulated by monitors of monitorType.
func (s *Session) DumpMonitors(monitorType string, flat bool) (ndarray.Map, error) {
	var table map[string]engine.Array
	err := s.invoke("dumpMonitors", KindState, func() bool {
		var ok bool
		table, ok = s.c.DumpMonitors(monitorType, flat)
		return ok
	})
	if err != nil {
		return nil, err
	}
	return marshal.ToHostMap(table)
}

// DumpSamplers lists each sampler with the node arrays it updates.
func (s *Session) DumpSamplers() ([]engine.SamplerInfo, error) {
	var out []engine.SamplerInfo
	err := s.invoke("dumpSamplers", KindState, func() bool {
		var ok bool
		out, ok = s.c.DumpSamplers()
		return ok
	})
	return out, err
}

// AdaptOff ends the adaptive phase.
func (s *Session) AdaptOff() error {
	if err := s.invoke("adaptOff", KindState, func() bool { return s.c.AdaptOff() }); err != nil {
		return err
	}
	if s.state == StateAdapting {
		s.state = StateSampling
	}
	return nil
}

// CheckAdaptation reports whether every sampler finished adapting.
func (s *Session) CheckAdaptation() (bool, error) {
	var status bool
	err := s.invoke("checkAdaptation", KindState, func() bool {
		var ok bool
		status, ok = s.c.CheckAdaptation()
		return ok
	})
	return status, err
}

// The accessors below report no failure, so they take the gate without
// going through the bridge.

// IsAdapting reports whether the model is in its adaptive phase.
func (s *Session) IsAdapting() (adapting bool) {
	s.gated(func() { adapting = s.c.IsAdapting() })
	return adapting
}

// Iter returns the number of completed iterations.
func (s *Session) Iter() (n int) {
	s.gated(func() { n = s.c.Iter() })
	return n
}

// VariableNames returns the names of the node arrays in the model.
func (s *Session) VariableNames() (names []string) {
	s.gated(func() { names = append([]string(nil), s.c.VariableNames()...) })
	return names
}

// NChain returns the number of chains.
func (s *Session) NChain() (n int) {
	s.gated(func() { n = s.c.NChain() })
	return n
}

// gated runs f with the gate held. It does nothing once the session is closed.
func (s *Session) gated(f func()) {
	if s.c == nil {
		return
	}
	s.gate.Lock()
	defer s.gate.Unlock()
	f()
}

// ClearModel discards the model and returns the session to the empty state.
// It is safe to call repeatedly.
func (s *Session) ClearModel() {
	if s.c == nil {
		return
	}
	s.gate.Lock()
	defer s.gate.Unlock()
	s.c.ClearModel()
	s.monitors = make(map[monitorKey]int)
	s.state = StateEmpty
}

// Close clears the model and releases the engine instance. Later calls are no-ops.
func (s *Session) Close() error {
	if s.c == nil {
		return nil
	}
	s.ClearModel()
	s.gate.Lock()
	defer s.gate.Unlock()
	s.c.Close()
	s.c = nil
	return nil
}

// Output returns what the engine wrote to its output stream during the last
// failed call. Successful calls discard their output.
func (s *Session) Output() string { return s.bufs.out.String() }

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}
