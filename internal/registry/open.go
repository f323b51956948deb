package registry

import (
	"os"
	"strings"
	"sync"

	"gojags/internal/console"
	"gojags/internal/engine"
	"gojags/internal/engine/jags"
	"gojags/internal/engine/sim"
)

// Engine names accepted by Open.
const (
	EngineJAGS = "jags"
	EngineSim  = "sim"
)

// Open constructs the named engine runtime. An empty name selects jags when
// this binary was built with it and sim otherwise.
func Open(name, modulesDir string) (engine.Runtime, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		if jags.Built {
			return jags.NewRuntime(modulesDir)
		}
		return sim.NewRuntime(), nil
	case EngineJAGS:
		return jags.NewRuntime(modulesDir)
	case EngineSim:
		return sim.NewRuntime(), nil
	default:
		return nil, &console.LookupError{What: "engine", Name: name}
	}
}

// OpenWithModules opens an engine, wraps it in a Registry and loads modules.
func OpenWithModules(name, modulesDir string, modules []string, opts ...Option) (*Registry, error) {
	rt, err := Open(name, modulesDir)
	if err != nil {
		return nil, err
	}
	r, err := New(rt, opts...)
	if err != nil {
		return nil, err
	}
	for _, m := range modules {
		if err := r.LoadModule(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

var (
	defaultMu  sync.Mutex
	defaultReg *Registry
)

// Default returns the process-wide registry, creating it on first use from
// GOJAGS_ENGINE and GOJAGS_MODULES_DIR with DefaultModules loaded. A failed
// initialization is retried on the next call.
func Default() (*Registry, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultReg != nil {
		return defaultReg, nil
	}
	r, err := OpenWithModules(os.Getenv("GOJAGS_ENGINE"), os.Getenv("GOJAGS_MODULES_DIR"), DefaultModules)
	if err != nil {
		return nil, err
	}
	defaultReg = r
	return r, nil
}

// SetDefault replaces the process-wide registry. Passing nil resets it.
func SetDefault(r *Registry) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultReg = r
}
