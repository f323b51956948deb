package sim

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gojags/internal/engine"
)

// adaptIterations is the number of adaptive iterations after which
// CheckAdaptation reports success.
const adaptIterations = 100

type chain struct {
	values [][]float64
	rng    *generator
}

type monitor struct {
	arr   *nodeArray
	typ   string
	thin  int
	start int
	// trace: one slice per recorded iteration per chain
	trace [][][]float64
	// mean: running sums per chain
	sum   [][]float64
	count int
}

type console struct {
	rt   *Runtime
	out  io.Writer
	errw io.Writer

	prog        *program
	g           *graph
	chains      []*chain
	initialized bool
	adapting    bool
	adaptIter   int
	iter        int
	monitors    []*monitor
}

func newConsole(rt *Runtime, out, errw io.Writer) *console {
	return &console{rt: rt, out: out, errw: errw}
}

func (c *console) fail(format string, args ...any) bool {
	fmt.Fprintf(c.errw, format, args...)
	io.WriteString(c.errw, "\n")
	return false
}

func (c *console) CheckModel(f io.Reader) bool {
	src, err := io.ReadAll(f)
	if err != nil {
		return c.fail("Failed to read model: %v", err)
	}
	c.ClearModel()
	prog, err := parseModel(string(src))
	if err != nil {
		return c.fail("%v", err)
	}
	c.prog = prog
	return true
}

func (c *console) Compile(data map[string]engine.Array, chains int, _ bool) bool {
	if c.prog == nil {
		return c.fail("Can't compile. No model!")
	}
	if c.g != nil {
		return c.fail("Model already compiled")
	}
	if chains < 1 {
		return c.fail("You must have at least one chain")
	}
	g, unused, err := build(c.rt, c.prog, data)
	if len(unused) > 0 {
		fmt.Fprintf(c.errw, "WARNING: Unused variable(s) in data table:\n")
		for _, u := range unused {
			fmt.Fprintf(c.errw, "%s\n", u)
		}
	}
	if err != nil {
		return c.fail("%v", err)
	}
	c.g = g
	c.chains = make([]*chain, chains)
	for i := range c.chains {
		ch := &chain{values: make([][]float64, len(g.arrays))}
		for j, a := range g.arrays {
			ch.values[j] = append([]float64(nil), a.data...)
		}
		c.chains[i] = ch
	}
	return true
}

func (c *console) chainAt(ch int, what string) (*chain, bool) {
	if c.g == nil {
		c.fail("Can't %s. No model!", what)
		return nil, false
	}
	if ch < 1 || ch > len(c.chains) {
		c.fail("Invalid chain number %d", ch)
		return nil, false
	}
	return c.chains[ch-1], true
}

func (c *console) SetParameters(params map[string]engine.Array, ch int) bool {
	cs, ok := c.chainAt(ch, "set initial values")
	if !ok {
		return false
	}
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		a := params[name]
		switch name {
		case ".RNG.seed":
			if len(a.Value) != 1 || a.Value[0] != math.Trunc(a.Value[0]) {
				return c.fail(".RNG.seed must be a single integer")
			}
			if cs.rng == nil {
				cs.rng = c.defaultRNG(ch)
				if cs.rng == nil {
					return c.fail("No RNG factories available")
				}
			}
			cs.rng.reseed(int64(a.Value[0]))
			continue
		case ".RNG.state":
			if cs.rng == nil {
				return c.fail("RNG name missing for chain %d", ch)
			}
			if !cs.rng.setState(a.Value) {
				return c.fail("Invalid .RNG.state")
			}
			continue
		}
		arr, ok := c.g.byName[name]
		if !ok {
			fmt.Fprintf(c.errw, "WARNING: Unused initial value for \"%s\" in chain %d\n", name, ch)
			continue
		}
		if len(a.Value) != arr.len() || !sameDims(a.Dim, arr.dim) {
			return c.fail("Dimension mismatch in values supplied for %s", name)
		}
		for i, v := range a.Value {
			if v == NA {
				continue
			}
			switch arr.kind[i] {
			case elemStochastic:
				cs.values[arr.id][i] = v
			case elemData, elemObserved:
				return c.fail("Cannot overwrite value of observed node %s", arr.label(i))
			case elemDeterministic:
				return c.fail("Cannot set value of non-variable node %s", arr.label(i))
			}
		}
	}
	return true
}

func sameDims(a, b []int) bool {
	if len(a) == 0 {
		return true
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (c *console) SetRNGName(name string, ch int) bool {
	cs, ok := c.chainAt(ch, "set RNG name")
	if !ok {
		return false
	}
	if c.initialized {
		return c.fail("Can't set RNG name after model is initialized")
	}
	factory, ok := c.rt.rngFactoryFor(name)
	if !ok || !c.rt.hasFactory(factory, engine.RNGFactory, true) {
		return c.fail("RNG name %s not found", name)
	}
	cs.rng = newGenerator(name, c.rt.nextSeed())
	return true
}

// defaultRNG picks the chain's generator from the first active RNG factory.
func (c *console) defaultRNG(ch int) *generator {
	for _, f := range c.rt.ListFactories(engine.RNGFactory) {
		if f.Active {
			return newGenerator(c.rt.rngName(f.Name, ch-1), c.rt.nextSeed())
		}
	}
	return nil
}

func (c *console) Initialize() bool {
	if c.g == nil {
		return c.fail("Can't initialize. No model!")
	}
	if c.initialized {
		return c.fail("Model already initialized")
	}
	for i, cs := range c.chains {
		if cs.rng == nil {
			cs.rng = c.defaultRNG(i + 1)
			if cs.rng == nil {
				return c.fail("No RNG factories available")
			}
		}
	}
	for _, cs := range c.chains {
		for _, id := range c.g.order {
			n := c.g.nodes[id]
			if n.observed() {
				continue
			}
			if !n.stochastic() {
				cs.values[n.arr.id][n.off] = n.value(cs.values)
				continue
			}
			if cs.values[n.arr.id][n.off] != NA {
				continue
			}
			if !c.draw(n, cs) {
				return false
			}
		}
	}
	active := c.rt.activeSamplers()
	c.adapting = false
	for _, n := range c.g.nodes {
		if !n.stochastic() || n.observed() {
			continue
		}
		n.sampler = chooseSampler(active, n)
		if n.sampler == "" {
			return c.fail("Unable to find appropriate sampler for node %s", n.label())
		}
		if n.sampler == "base::Slice" {
			c.adapting = true
		}
	}
	c.initialized = true
	return true
}

func chooseSampler(active []string, n *node) string {
	for _, s := range active {
		switch s {
		case "bugs::ConjugateNormal":
			if n.dist.name == "dnorm" {
				return s
			}
		case "base::Finite":
			if n.dist.finite {
				return s
			}
		case "base::Slice":
			return s
		}
	}
	return ""
}

func (c *console) draw(n *node, cs *chain) bool {
	p := make([]float64, len(n.params))
	for i, f := range n.params {
		p[i] = f(cs.values)
		if p[i] == NA || math.IsNaN(p[i]) {
			return c.fail("Error in node %s\nInvalid parent values", n.label())
		}
	}
	v, ok := n.dist.draw(cs.rng.src, p)
	if !ok {
		return c.fail("Error in node %s\nInvalid parent values", n.label())
	}
	cs.values[n.arr.id][n.off] = v
	return true
}

func (c *console) Update(iterations int) bool {
	if c.g == nil {
		return c.fail("Can't update. No model!")
	}
	if !c.initialized {
		return c.fail("Model not initialized")
	}
	for it := 0; it < iterations; it++ {
		for _, cs := range c.chains {
			for _, id := range c.g.order {
				n := c.g.nodes[id]
				if n.observed() {
					continue
				}
				if !n.stochastic() {
					cs.values[n.arr.id][n.off] = n.value(cs.values)
					continue
				}
				if !c.draw(n, cs) {
					return false
				}
			}
		}
		c.iter++
		if c.adapting {
			c.adaptIter++
		}
		for _, m := range c.monitors {
			if (c.iter-m.start)%m.thin == 0 {
				c.record(m)
			}
		}
	}
	return true
}

func (c *console) record(m *monitor) {
	switch m.typ {
	case "trace":
		for i, cs := range c.chains {
			m.trace[i] = append(m.trace[i], append([]float64(nil), cs.values[m.arr.id]...))
		}
	case "mean":
		for i, cs := range c.chains {
			for j, v := range cs.values[m.arr.id] {
				m.sum[i][j] += v
			}
		}
		m.count++
	}
}

func (c *console) SetMonitor(name string, thin int, monitorType string) bool {
	if c.g == nil {
		return c.fail("Can't set monitor. No model!")
	}
	if thin < 1 {
		return c.fail("Invalid thinning interval %d", thin)
	}
	f := monitorFactory(monitorType)
	if f == "" || !c.rt.hasFactory(f, engine.MonitorFactory, true) {
		return c.fail("Failed to set %s monitor for %s", monitorType, name)
	}
	arr, ok := c.g.byName[name]
	if !ok {
		return c.fail("Failed to set %s monitor for %s", monitorType, name)
	}
	for _, m := range c.monitors {
		if m.arr == arr && m.typ == monitorType {
			return c.fail("%s monitor for %s already set", monitorType, name)
		}
	}
	if c.adapting {
		fmt.Fprintf(c.out, "NOTE: Stopping adaptation\n\n")
		c.adapting = false
	}
	m := &monitor{arr: arr, typ: monitorType, thin: thin, start: c.iter}
	switch monitorType {
	case "trace":
		m.trace = make([][][]float64, len(c.chains))
	case "mean":
		m.sum = make([][]float64, len(c.chains))
		for i := range m.sum {
			m.sum[i] = make([]float64, arr.len())
		}
	}
	c.monitors = append(c.monitors, m)
	return true
}

func (c *console) ClearMonitor(name string, monitorType string) bool {
	if c.g == nil {
		return c.fail("Can't clear monitor. No model!")
	}
	for i, m := range c.monitors {
		if m.arr.name == name && m.typ == monitorType {
			c.monitors = append(c.monitors[:i], c.monitors[i+1:]...)
			return true
		}
	}
	return c.fail("Failed to clear %s monitor for %s", monitorType, name)
}

func (c *console) DumpState(t engine.DumpType, ch int) (map[string]engine.Array, string, bool) {
	cs, ok := c.chainAt(ch, "dump state")
	if !ok {
		return nil, "", false
	}
	out := map[string]engine.Array{}
	for _, arr := range c.g.arrays {
		vals := make([]float64, arr.len())
		found := false
		for i, k := range arr.kind {
			vals[i] = NA
			switch {
			case (k == elemData || k == elemObserved) && t != engine.DumpParameters:
				vals[i] = arr.data[i]
				found = true
			case k == elemStochastic && t != engine.DumpData:
				vals[i] = cs.values[arr.id][i]
				found = true
			}
		}
		if found {
			out[arr.name] = engine.Array{Dim: append([]int(nil), arr.dim...), Value: vals}
		}
	}
	name := ""
	if cs.rng != nil && t != engine.DumpData {
		st := cs.rng.state()
		v := make([]float64, len(st))
		for i, x := range st {
			v[i] = float64(x)
		}
		out[".RNG.state"] = engine.Array{Dim: []int{len(v)}, Value: v}
		name = cs.rng.name
	}
	return out, name, true
}

func (c *console) DumpMonitors(monitorType string, flat bool) (map[string]engine.Array, bool) {
	if c.g == nil {
		return nil, c.fail("Can't dump monitors. No model!")
	}
	out := map[string]engine.Array{}
	nchain := len(c.chains)
	for _, m := range c.monitors {
		if m.typ != monitorType {
			continue
		}
		size := m.arr.len()
		node := m.arr.dim
		if flat {
			node = []int{size}
		}
		switch m.typ {
		case "trace":
			niter := len(m.trace[0])
			vals := make([]float64, size*niter*nchain)
			for ch, samples := range m.trace {
				for it, s := range samples {
					copy(vals[size*(it+niter*ch):], s)
				}
			}
			dim := append(append([]int(nil), node...), niter, nchain)
			out[m.arr.name] = engine.Array{Dim: dim, Value: vals}
		case "mean":
			vals := make([]float64, size*nchain)
			for ch, sum := range m.sum {
				for j, s := range sum {
					if m.count == 0 {
						vals[size*ch+j] = NA
					} else {
						vals[size*ch+j] = s / float64(m.count)
					}
				}
			}
			dim := append(append([]int(nil), node...), nchain)
			out[m.arr.name] = engine.Array{Dim: dim, Value: vals}
		}
	}
	return out, true
}

func (c *console) DumpSamplers() ([]engine.SamplerInfo, bool) {
	if !c.initialized {
		return nil, c.fail("Can't dump samplers. Model not initialized")
	}
	type key struct{ method, array string }
	seen := map[key]bool{}
	var out []engine.SamplerInfo
	for _, n := range c.g.nodes {
		if n.sampler == "" {
			continue
		}
		k := key{n.sampler, n.arr.name}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, engine.SamplerInfo{Method: n.sampler, Nodes: []string{n.arr.name}})
	}
	return out, true
}

func (c *console) AdaptOff() bool {
	if !c.initialized {
		return c.fail("Can't adapt. Model not initialized")
	}
	c.adapting = false
	return true
}

func (c *console) CheckAdaptation() (bool, bool) {
	if !c.initialized {
		return false, c.fail("Can't check adaptation. Model not initialized")
	}
	return !c.adapting || c.adaptIter >= adaptIterations, true
}

func (c *console) IsAdapting() bool { return c.adapting }

func (c *console) Iter() int { return c.iter }

func (c *console) VariableNames() []string {
	if c.prog == nil {
		return nil
	}
	return append([]string(nil), c.prog.names...)
}

func (c *console) NChain() int { return len(c.chains) }

func (c *console) ClearModel() {
	c.prog = nil
	c.g = nil
	c.chains = nil
	c.initialized = false
	c.adapting = false
	c.adaptIter = 0
	c.iter = 0
	c.monitors = nil
}

func (c *console) Close() { c.ClearModel() }
