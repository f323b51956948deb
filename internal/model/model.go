// Package model is the high-level driver: it checks, compiles, initializes
// and adapts a model in one call, then samples monitored variables.
package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gojags/internal/common/fsutil"
	"gojags/internal/console"
	"gojags/internal/engine"
	"gojags/pkg/ndarray"
)

// DefaultTune is the number of adaptation iterations run by New.
const DefaultTune = 1000

// DefaultRefresh is the progress refresh and chunk period.
const DefaultRefresh = 500 * time.Millisecond

// SessionFactory creates engine sessions; *registry.Registry satisfies it.
type SessionFactory interface {
	NewSession(opts ...console.Option) *console.Session
}

// Options configure New.
type Options struct {
	// File is a model file path. Text is used when File is empty.
	File string
	Text string
	// Data holds observed values; NA marks missing entries.
	Data ndarray.Map
	// Start holds initial values per chain. A single entry is used for
	// every chain.
	Start  []ndarray.ChainState
	Chains int
	// Tune is the number of adaptation iterations. Zero means DefaultTune;
	// a negative value skips adaptation.
	Tune int
	// Progress receives a progress line during updates when set.
	Progress io.Writer
	Refresh  time.Duration
}

// Model is an initialized engine model.
type Model struct {
	s        *console.Session
	progress io.Writer
	refresh  time.Duration
}

// New builds and initializes a model, then runs the adaptation phase.
func New(ctx context.Context, f SessionFactory, opts Options) (*Model, error) {
	if opts.Chains == 0 {
		opts.Chains = 1
	}
	if opts.Chains < 0 {
		return nil, &OptionError{Msg: fmt.Sprintf("invalid number of chains: %d", opts.Chains)}
	}
	if opts.Tune == 0 {
		opts.Tune = DefaultTune
	}
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	m := &Model{s: f.NewSession(), progress: opts.Progress, refresh: opts.Refresh}
	if err := m.build(ctx, opts); err != nil {
		_ = m.s.Close()
		return nil, err
	}
	return m, nil
}

func (m *Model) build(ctx context.Context, opts Options) error {
	path := opts.File
	if path == "" {
		if opts.Text == "" {
			return &OptionError{Msg: "either model file or model text must be provided"}
		}
		p, cleanup, err := fsutil.WriteTemp("gojags-*.bug", []byte(opts.Text))
		if err != nil {
			return err
		}
		defer cleanup()
		path = p
	}
	if err := m.s.CheckModel(path); err != nil {
		return err
	}
	vars := make(map[string]bool)
	for _, v := range m.s.VariableNames() {
		vars[v] = true
	}

	data := opts.Data.DropEmpty()
	if unused := unusedNames(data, vars, nil); len(unused) > 0 {
		return &UnusedError{Names: unused}
	}
	if err := m.s.Compile(data, opts.Chains, true); err != nil {
		return err
	}

	start := opts.Start
	switch {
	case len(start) == 0:
		start = make([]ndarray.ChainState, opts.Chains)
	case len(start) == 1 && opts.Chains > 1:
		shared := start[0]
		start = make([]ndarray.ChainState, opts.Chains)
		for i := range start {
			start[i] = ndarray.ChainState{Values: shared.Values.Clone(), RNGName: shared.RNGName}
		}
	}
	if len(start) != m.s.NChain() {
		return &OptionError{Msg: fmt.Sprintf("length of start sequence (%d) should equal the number of chains (%d)", len(start), m.s.NChain())}
	}
	reserved := map[string]bool{ndarray.RNGSeedKey: true, ndarray.RNGStateKey: true}
	for i, st := range start {
		chain := i + 1
		if st.RNGName != "" {
			if err := m.s.SetRNGName(st.RNGName, chain); err != nil {
				return err
			}
		}
		values := st.Values.DropEmpty()
		if unused := unusedNames(values, vars, reserved); len(unused) > 0 {
			return &UnusedError{Chain: chain, Names: unused}
		}
		if err := m.s.SetParameters(values, chain); err != nil {
			return err
		}
	}
	if err := m.s.Initialize(); err != nil {
		return err
	}
	if opts.Tune > 0 {
		if _, err := m.Adapt(ctx, opts.Tune); err != nil {
			return err
		}
	}
	return nil
}

func unusedNames(m ndarray.Map, vars, allowed map[string]bool) []string {
	var out []string
	for k := range m {
		if !vars[k] && !allowed[k] {
			out = append(out, k)
		}
	}
	return out
}

// Update runs iterations in chunks sized to the refresh period. ctx is
// checked between chunks; iterations already run stay counted.
func (m *Model) Update(ctx context.Context, iterations int) error {
	return m.update(ctx, iterations, "sampling: ")
}

func (m *Model) update(ctx context.Context, iterations int, header string) error {
	if iterations < 0 {
		return &OptionError{Msg: fmt.Sprintf("invalid number of iterations: %d", iterations)}
	}
	var bar *Progress
	if m.progress != nil {
		bar = NewProgress(m.progress, iterations, header, m.refresh)
		defer bar.Finish()
	}
	part := NewPartition(iterations, m.refresh, nil)
	for n := part.Next(); n > 0; n = part.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.s.Update(n); err != nil {
			return err
		}
		if bar != nil {
			bar.Add(n)
		}
	}
	return nil
}

// Adapt runs adaptation iterations. It returns true immediately when the
// model does not need adaptation, otherwise whether the samplers reached
// their target efficiency.
func (m *Model) Adapt(ctx context.Context, iterations int) (bool, error) {
	if !m.s.IsAdapting() {
		return true, nil
	}
	if err := m.update(ctx, iterations, "adapting: "); err != nil {
		return false, err
	}
	return m.s.CheckAdaptation()
}

// SampleOptions select what Sample records.
type SampleOptions struct {
	// Vars defaults to every model variable.
	Vars []string
	// Thin defaults to 1.
	Thin int
	// Type defaults to "trace".
	Type string
}

// Sample monitors vars for iterations and returns the recorded values. The
// monitors are cleared before returning, whether or not sampling succeeded.
func (m *Model) Sample(ctx context.Context, iterations int, opts SampleOptions) (samples ndarray.Map, err error) {
	vars := opts.Vars
	if len(vars) == 0 {
		vars = m.s.VariableNames()
	}
	if opts.Thin == 0 {
		opts.Thin = 1
	}
	if opts.Type == "" {
		opts.Type = "trace"
	}
	var set []string
	defer func() {
		for _, name := range set {
			if cerr := m.s.ClearMonitor(name, opts.Type); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}
		if err != nil {
			samples = nil
		}
	}()
	for _, name := range vars {
		if err := m.s.SetMonitor(name, opts.Thin, opts.Type); err != nil {
			return nil, err
		}
		set = append(set, name)
	}
	if err := m.Update(ctx, iterations); err != nil {
		return nil, err
	}
	return m.s.DumpMonitors(opts.Type, false)
}

// State returns the values of every chain, including RNG state.
func (m *Model) State() ([]ndarray.ChainState, error) {
	out := make([]ndarray.ChainState, 0, m.s.NChain())
	for _, ch := range m.Chains() {
		st, err := m.s.DumpState(engine.DumpAll, ch)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Samplers lists the samplers chosen at initialization.
func (m *Model) Samplers() ([]engine.SamplerInfo, error) { return m.s.DumpSamplers() }

// Variables returns the model's node array names.
func (m *Model) Variables() []string { return m.s.VariableNames() }

// NumChains returns the number of chains.
func (m *Model) NumChains() int { return m.s.NChain() }

// Chains returns the 1-based chain numbers.
func (m *Model) Chains() []int {
	out := make([]int, m.s.NChain())
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Iter returns the number of completed iterations.
func (m *Model) Iter() int { return m.s.Iter() }

// Session exposes the underlying session.
func (m *Model) Session() *console.Session { return m.s }

// Close releases the engine instance.
func (m *Model) Close() error { return m.s.Close() }
