// Package engine defines the contract between the session layer and an MCMC
// model-execution engine. The engine is treated as an opaque capability: it
// reports success through a status flag and writes diagnostics to the two
// writers handed to it when a console is created.
//
// Implementations:
//
//   - internal/engine/jags: libjags through cgo. Enabled with `-tags=jags`;
//     a stub that reports the dependency as unavailable is built otherwise.
//   - internal/engine/sim: a pure Go reference engine used by tests and dry
//     runs. It draws every unobserved node from its prior and does not
//     condition on observed descendants.
package engine

import "io"

// Array is the engine-native array: dimensions plus values stored in
// column-major (first index fastest) order.
type Array struct {
	Dim   []int
	Value []float64
}

// Len returns the product of the dimensions.
func (a Array) Len() int {
	n := 1
	for _, d := range a.Dim {
		n *= d
	}
	return n
}

// SamplerInfo names one sampler and the node arrays it updates.
type SamplerInfo struct {
	Method string   `json:"method"`
	Nodes  []string `json:"nodes"`
}

// Factory describes one sampler, monitor or RNG factory.
type Factory struct {
	Name   string      `json:"name"`
	Type   FactoryType `json:"type"`
	Active bool        `json:"active"`
}

// RNGState is a named generator and its opaque state vector.
type RNGState struct {
	Name  string
	State []int
}

// Console is one engine model instance. Each method returns the engine's own
// status flag; diagnostic text is written to the writers the console was
// created with. A Console is not safe for concurrent use.
type Console interface {
	// CheckModel parses the model read from f.
	CheckModel(f io.Reader) bool
	Compile(data map[string]Array, chains int, generateData bool) bool
	// SetParameters sets initial values for one chain (1-based).
	SetParameters(params map[string]Array, chain int) bool
	SetRNGName(name string, chain int) bool
	Initialize() bool
	Update(iterations int) bool
	SetMonitor(name string, thin int, monitorType string) bool
	ClearMonitor(name string, monitorType string) bool
	// DumpState returns the requested values and the chain's RNG name, if set.
	DumpState(t DumpType, chain int) (map[string]Array, string, bool)
	DumpMonitors(monitorType string, flat bool) (map[string]Array, bool)
	DumpSamplers() ([]SamplerInfo, bool)
	AdaptOff() bool
	// CheckAdaptation returns the adaptation status and the call's status flag.
	CheckAdaptation() (bool, bool)
	IsAdapting() bool
	Iter() int
	VariableNames() []string
	NChain() int
	ClearModel()
	// Close releases the native model instance. It must be called exactly once.
	Close()
}

// Runtime is the process-wide side of an engine: console construction,
// module and factory registries and RNG issuance.
type Runtime interface {
	// NewConsole creates a model instance writing diagnostics to out and errw.
	NewConsole(out, errw io.Writer) Console
	// Version is the version reported by the engine at run time.
	Version() string
	// BuildVersion is the engine version the adapter was compiled against.
	BuildVersion() string
	// NA is the engine's missing-value sentinel.
	NA() float64
	LoadModule(name string) bool
	UnloadModule(name string) bool
	ListModules() []string
	ListFactories(t FactoryType) []Factory
	SetFactoryActive(name string, t FactoryType, active bool) bool
	// MakeRNGs creates n independent generators from the named RNG factory.
	// It returns nil when the factory cannot produce them.
	MakeRNGs(factory string, n int) []RNGState
}
