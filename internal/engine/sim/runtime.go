// Package sim is a pure Go reference engine. It parses a subset of the BUGS
// language, compiles it to a node graph and draws every unobserved node from
// its prior in topological order. It mirrors the status-flag and
// diagnostic-stream behavior of the native engine so the session layer can be
// exercised without libjags.
package sim

import (
	"io"
	"math"
	"sync"
	"time"

	"gojags/internal/engine"
)

// Version is reported both as the build and run-time version.
const Version = "4.3.2-sim"

// NA is the missing-value sentinel shared with the host arrays.
var NA = -math.MaxFloat64 * (1 - math.Pow(2, -52))

type factory struct {
	name   string
	typ    engine.FactoryType
	module string
	active bool
}

type moduleDef struct {
	name      string
	factories []factory
	dists     []string
}

// catalog lists the modules the reference engine can load.
var catalog = map[string]moduleDef{
	"basemod": {
		name: "basemod",
		factories: []factory{
			{name: "base::Finite", typ: engine.SamplerFactory},
			{name: "base::Slice", typ: engine.SamplerFactory},
			{name: "base::Trace", typ: engine.MonitorFactory},
			{name: "base::Mean", typ: engine.MonitorFactory},
			{name: "base::BaseRNG", typ: engine.RNGFactory},
		},
	},
	"bugs": {
		name: "bugs",
		factories: []factory{
			{name: "bugs::ConjugateNormal", typ: engine.SamplerFactory},
		},
		dists: []string{"dbern", "dbin", "dpois", "dnorm", "dunif", "dgamma", "dbeta", "dexp"},
	},
	"lecuyer": {
		name: "lecuyer",
		factories: []factory{
			{name: "lecuyer::RngStream", typ: engine.RNGFactory},
		},
	},
}

// baseRNGNames are the generator names issued by base::BaseRNG, cycled per chain.
var baseRNGNames = []string{
	"base::Wichmann-Hill",
	"base::Marsaglia-Multicarry",
	"base::Super-Duper",
	"base::Mersenne-Twister",
}

// Runtime holds the module and factory registries of the reference engine.
type Runtime struct {
	mu        sync.Mutex
	modules   []string
	factories []factory
	seed      uint64
	version   string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithSeed makes RNG issuance deterministic.
func WithSeed(seed uint64) Option {
	return func(r *Runtime) { r.seed = seed }
}

// WithReportedVersion overrides the run-time version, leaving the build
// version unchanged.
func WithReportedVersion(v string) Option {
	return func(r *Runtime) { r.version = v }
}

// NewRuntime returns a runtime with no modules loaded.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{seed: uint64(time.Now().UnixNano()), version: Version}
	for _, o := range opts {
		o(r)
	}
	return r
}

var _ engine.Runtime = (*Runtime)(nil)

func (r *Runtime) NewConsole(out, errw io.Writer) engine.Console {
	return newConsole(r, out, errw)
}

func (r *Runtime) Version() string      { return r.version }
func (r *Runtime) BuildVersion() string { return Version }
func (r *Runtime) NA() float64          { return NA }

func (r *Runtime) LoadModule(name string) bool {
	def, ok := catalog[name]
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.modules {
		if m == name {
			return true
		}
	}
	r.modules = append(r.modules, name)
	// Factories of the most recently loaded module take precedence.
	added := make([]factory, 0, len(def.factories)+len(r.factories))
	for _, f := range def.factories {
		f.module = name
		f.active = true
		added = append(added, f)
	}
	r.factories = append(added, r.factories...)
	return true
}

func (r *Runtime) UnloadModule(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, m := range r.modules {
		if m == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	r.modules = append(r.modules[:idx], r.modules[idx+1:]...)
	kept := r.factories[:0]
	for _, f := range r.factories {
		if f.module != name {
			kept = append(kept, f)
		}
	}
	r.factories = kept
	return true
}

func (r *Runtime) ListModules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.modules...)
}

func (r *Runtime) ListFactories(t engine.FactoryType) []engine.Factory {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []engine.Factory
	for _, f := range r.factories {
		if f.typ == t {
			out = append(out, engine.Factory{Name: f.name, Type: f.typ, Active: f.active})
		}
	}
	return out
}

func (r *Runtime) SetFactoryActive(name string, t engine.FactoryType, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.factories {
		if r.factories[i].name == name && r.factories[i].typ == t {
			r.factories[i].active = active
			return true
		}
	}
	return false
}

func (r *Runtime) MakeRNGs(name string, n int) []engine.RNGState {
	if n < 1 || !r.hasFactory(name, engine.RNGFactory, false) {
		return nil
	}
	out := make([]engine.RNGState, n)
	for i := range out {
		g := newGenerator(r.rngName(name, i), r.nextSeed())
		out[i] = engine.RNGState{Name: g.name, State: g.state()}
	}
	return out
}

// rngName is the i-th (0-based) generator name issued by factory.
func (r *Runtime) rngName(factory string, i int) string {
	if factory == "base::BaseRNG" {
		return baseRNGNames[i%len(baseRNGNames)]
	}
	return factory
}

// rngFactoryFor returns the RNG factory that issues generator name.
func (r *Runtime) rngFactoryFor(name string) (string, bool) {
	for _, n := range baseRNGNames {
		if n == name {
			return "base::BaseRNG", true
		}
	}
	if name == "lecuyer::RngStream" {
		return name, true
	}
	return "", false
}

func (r *Runtime) hasFactory(name string, t engine.FactoryType, activeOnly bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.factories {
		if f.name == name && f.typ == t {
			return f.active || !activeOnly
		}
	}
	return false
}

func (r *Runtime) activeSamplers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, f := range r.factories {
		if f.typ == engine.SamplerFactory && f.active {
			out = append(out, f.name)
		}
	}
	return out
}

func (r *Runtime) hasDistribution(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.modules {
		for _, d := range catalog[m].dists {
			if d == name {
				return true
			}
		}
	}
	return false
}

// monitorFactory maps a monitor type to the factory providing it.
func monitorFactory(monitorType string) string {
	switch monitorType {
	case "trace":
		return "base::Trace"
	case "mean":
		return "base::Mean"
	}
	return ""
}

// nextSeed advances the runtime seed sequence. Distinct calls yield distinct
// seeds since the splitmix finalizer is a bijection.
func (r *Runtime) nextSeed() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seed += 0x9e3779b97f4a7c15
	return mix64(r.seed)
}
