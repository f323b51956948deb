// Package registry owns the process-wide side of the engine: the module and
// factory registries, RNG issuance and the gate that serializes engine calls
// across sessions.
package registry

import (
	"sync"

	"github.com/rs/zerolog"

	"gojags/internal/console"
	"gojags/internal/engine"
	"gojags/pkg/ndarray"
)

// DefaultModules are loaded when a registry is created through Default.
var DefaultModules = []string{"basemod", "bugs"}

// Registry wraps one engine runtime. All registry operations and all gated
// session calls share mu.
type Registry struct {
	mu  sync.Mutex
	rt  engine.Runtime
	log zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for the registry and the sessions it creates.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// New wraps rt after checking that the engine version it reports matches the
// version the adapter was built against. A mismatch is fatal.
func New(rt engine.Runtime, opts ...Option) (*Registry, error) {
	r := &Registry{rt: rt, log: zerolog.Nop()}
	for _, o := range opts {
		o(r)
	}
	if built, running := rt.BuildVersion(), rt.Version(); built != running {
		return nil, &console.VersionMismatchError{Built: built, Runtime: running}
	}
	return r, nil
}

// Runtime returns the wrapped engine runtime.
func (r *Registry) Runtime() engine.Runtime { return r.rt }

// NewSession creates a session whose gated calls serialize on this registry.
func (r *Registry) NewSession(opts ...console.Option) *console.Session {
	opts = append([]console.Option{console.WithLogger(r.log)}, opts...)
	return console.New(r.rt, &r.mu, opts...)
}

// LoadModule loads a named engine module. Loading an already loaded module succeeds.
func (r *Registry) LoadModule(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.rt.LoadModule(name) {
		return &console.LookupError{What: "module", Name: name}
	}
	r.log.Info().Str("module", name).Msg("module loaded")
	return nil
}

// UnloadModule unloads a named engine module.
func (r *Registry) UnloadModule(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.rt.UnloadModule(name) {
		return &console.LookupError{What: "module", Name: name}
	}
	r.log.Info().Str("module", name).Msg("module unloaded")
	return nil
}

// ListModules returns the loaded modules in load order.
func (r *Registry) ListModules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rt.ListModules()
}

// ListFactories returns the factories of type t with their active flags.
func (r *Registry) ListFactories(t engine.FactoryType) []engine.Factory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rt.ListFactories(t)
}

// SetFactoryActive enables or disables a factory.
func (r *Registry) SetFactoryActive(name string, t engine.FactoryType, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.rt.SetFactoryActive(name, t, active) {
		return &console.LookupError{What: t.String() + " factory", Name: name}
	}
	return nil
}

// ParallelRNGs issues chains independent generator states from the named
// RNG factory. Each result carries the generator name and its state under
// .RNG.state, ready to be passed as initial values.
func (r *Registry) ParallelRNGs(factory string, chains int) ([]ndarray.ChainState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	for _, f := range r.rt.ListFactories(engine.RNGFactory) {
		if f.Name != factory {
			continue
		}
		if !f.Active {
			return nil, &console.LookupError{What: "RNG factory", Name: factory, NotActive: true}
		}
		found = true
		break
	}
	if !found {
		return nil, &console.LookupError{What: "RNG factory", Name: factory}
	}
	rngs := r.rt.MakeRNGs(factory, chains)
	if len(rngs) == 0 {
		return nil, &console.LookupError{What: "RNG factory", Name: factory}
	}
	out := make([]ndarray.ChainState, len(rngs))
	for i, g := range rngs {
		state := make([]float64, len(g.State))
		for j, w := range g.State {
			state[j] = float64(w)
		}
		out[i] = ndarray.ChainState{
			RNGName: g.Name,
			Values:  ndarray.Map{ndarray.RNGStateKey: ndarray.Vector(state...)},
		}
	}
	return out, nil
}

// NA returns the engine's missing-value sentinel.
func (r *Registry) NA() float64 { return r.rt.NA() }

// Version returns the engine version.
func (r *Registry) Version() string { return r.rt.Version() }
