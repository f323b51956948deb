package sim

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gojags/internal/engine"
)

type elemKind uint8

const (
	elemNone elemKind = iota
	elemData
	elemStochastic
	elemObserved
	elemDeterministic
)

// nodeArray is one named array of the compiled model, stored column-major.
type nodeArray struct {
	id   int
	name string
	dim  []int
	data []float64
	kind []elemKind
	node []int
}

func (a *nodeArray) len() int { return len(a.data) }

// offset maps a 1-based index to a column-major offset.
func (a *nodeArray) offset(idx []int) (int, bool) {
	if len(idx) != len(a.dim) {
		return 0, false
	}
	off, stride := 0, 1
	for d, i := range idx {
		if i < 1 || i > a.dim[d] {
			return 0, false
		}
		off += (i - 1) * stride
		stride *= a.dim[d]
	}
	return off, true
}

// label renders the element at off as name[i,j].
func (a *nodeArray) label(off int) string {
	if len(a.dim) == 1 && a.dim[0] == 1 {
		return a.name
	}
	parts := make([]string, len(a.dim))
	for d, n := range a.dim {
		parts[d] = strconv.Itoa(off%n + 1)
		off /= n
	}
	return a.name + "[" + strings.Join(parts, ",") + "]"
}

type evalFn func(v [][]float64) float64

type node struct {
	id      int
	arr     *nodeArray
	off     int
	dist    distribution
	params  []evalFn
	value   evalFn
	parents []int
	sampler string
}

func (n *node) stochastic() bool { return n.value == nil }

func (n *node) observed() bool { return n.arr.kind[n.off] == elemObserved }

func (n *node) label() string { return n.arr.label(n.off) }

type graph struct {
	arrays []*nodeArray
	byName map[string]*nodeArray
	nodes  []*node
	order  []int
}

// instance is one relation with its loop counters bound.
type instance struct {
	rel *relation
	env map[string]int
	idx []int
}

type compileError struct{ msg string }

func (e *compileError) Error() string { return e.msg }

func failf(format string, args ...any) error {
	return &compileError{msg: fmt.Sprintf(format, args...)}
}

// build compiles prog against data. Unused data names are returned separately
// so the caller can warn without failing.
func build(rt *Runtime, prog *program, data map[string]engine.Array) (*graph, []string, error) {
	used := make(map[string]bool, len(prog.names))
	for _, n := range prog.names {
		used[n] = true
	}
	var unused []string
	for k := range data {
		if !used[k] {
			unused = append(unused, k)
		}
	}
	sort.Strings(unused)

	c := &constEval{data: data}
	var insts []instance
	if err := c.unroll(prog.stmts, map[string]int{}, &insts); err != nil {
		return nil, unused, err
	}

	g := &graph{byName: map[string]*nodeArray{}}
	dims, err := arrayDims(insts, data)
	if err != nil {
		return nil, unused, err
	}
	var missing []string
	for _, name := range prog.names {
		if _, ok := dims[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, unused, failf("Unable to resolve the following parameters:\n%s", strings.Join(missing, "\n"))
	}
	for _, name := range prog.names {
		d := dims[name]
		n := 1
		for _, x := range d {
			n *= x
		}
		arr := &nodeArray{id: len(g.arrays), name: name, dim: d, data: make([]float64, n), kind: make([]elemKind, n), node: make([]int, n)}
		for i := range arr.data {
			arr.data[i] = NA
			arr.node[i] = -1
		}
		if src, ok := data[name]; ok {
			for i, v := range src.Value {
				if v != NA && !math.IsNaN(v) {
					arr.data[i] = v
					arr.kind[i] = elemData
				}
			}
		}
		g.arrays = append(g.arrays, arr)
		g.byName[name] = arr
	}

	for _, in := range insts {
		if err := g.addNode(rt, in); err != nil {
			return nil, unused, err
		}
	}
	for i, in := range insts {
		if err := g.link(g.nodes[i], in, c); err != nil {
			return nil, unused, err
		}
	}
	if err := g.sort(); err != nil {
		return nil, unused, err
	}
	return g, unused, nil
}

func (g *graph) addNode(rt *Runtime, in instance) error {
	arr := g.byName[in.rel.lhs.name]
	idx := in.idx
	if idx == nil {
		if arr.len() != 1 {
			return failf("Dimension mismatch on line %d: %s is not scalar", in.rel.line, arr.name)
		}
		idx = make([]int, len(arr.dim))
		for i := range idx {
			idx[i] = 1
		}
	}
	off, ok := arr.offset(idx)
	if !ok {
		return failf("Index out of range for node %s on line %d", arr.name, in.rel.line)
	}
	if arr.node[off] >= 0 {
		return failf("Attempt to redefine node %s on line %d", arr.label(off), in.rel.line)
	}
	n := &node{id: len(g.nodes), arr: arr, off: off}
	if in.rel.stochastic {
		if !rt.hasDistribution(in.rel.dist) {
			return failf("Unknown distribution: %s", in.rel.dist)
		}
		n.dist = distributions[in.rel.dist]
		if len(in.rel.args) != n.dist.nparams {
			return failf("Incorrect number of parameters for distribution %s on line %d", in.rel.dist, in.rel.line)
		}
		if arr.kind[off] == elemData {
			arr.kind[off] = elemObserved
		} else {
			arr.kind[off] = elemStochastic
		}
	} else {
		if arr.kind[off] == elemData {
			return failf("Cannot observe deterministic node %s", arr.label(off))
		}
		arr.kind[off] = elemDeterministic
	}
	arr.node[off] = n.id
	g.nodes = append(g.nodes, n)
	return nil
}

// link compiles the right hand side of one node and records its parents.
func (g *graph) link(n *node, in instance, c *constEval) error {
	parents := map[int]bool{}
	comp := &exprCompiler{g: g, c: c, env: in.env, parents: parents}
	var err error
	if in.rel.stochastic {
		n.params = make([]evalFn, len(in.rel.args))
		for i, a := range in.rel.args {
			if n.params[i], err = comp.compile(a); err != nil {
				return err
			}
		}
	} else {
		if n.value, err = comp.compile(in.rel.value); err != nil {
			return err
		}
	}
	for p := range parents {
		n.parents = append(n.parents, p)
	}
	sort.Ints(n.parents)
	return nil
}

// sort orders nodes so every node follows its parents.
func (g *graph) sort() error {
	indeg := make([]int, len(g.nodes))
	children := make([][]int, len(g.nodes))
	for _, n := range g.nodes {
		for _, p := range n.parents {
			indeg[n.id]++
			children[p] = append(children[p], n.id)
		}
	}
	var queue []int
	for i, d := range indeg {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	g.order = g.order[:0]
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		g.order = append(g.order, id)
		for _, ch := range children[id] {
			indeg[ch]--
			if indeg[ch] == 0 {
				queue = append(queue, ch)
			}
		}
	}
	if len(g.order) != len(g.nodes) {
		for i, d := range indeg {
			if d > 0 {
				return failf("Possible directed cycle involving %s", g.nodes[i].label())
			}
		}
	}
	return nil
}

func arrayDims(insts []instance, data map[string]engine.Array) (map[string][]int, error) {
	dims := map[string][]int{}
	for name, a := range data {
		d := a.Dim
		if len(d) == 0 {
			d = []int{len(a.Value)}
		}
		dims[name] = append([]int(nil), d...)
	}
	fixed := map[string]bool{}
	for name := range dims {
		fixed[name] = true
	}
	for _, in := range insts {
		name := in.rel.lhs.name
		if in.idx == nil {
			if _, ok := dims[name]; !ok {
				dims[name] = []int{1}
			}
			continue
		}
		for _, i := range in.idx {
			if i < 1 {
				return nil, failf("Index out of range for node %s on line %d", name, in.rel.line)
			}
		}
		cur, ok := dims[name]
		if !ok {
			dims[name] = append([]int(nil), in.idx...)
			continue
		}
		if len(cur) != len(in.idx) {
			return nil, failf("Inconsistent dimensions for node %s on line %d", name, in.rel.line)
		}
		for d, i := range in.idx {
			if i > cur[d] {
				if fixed[name] {
					return nil, failf("Index out of range for node %s on line %d", name, in.rel.line)
				}
				cur[d] = i
			}
		}
	}
	return dims, nil
}

// constEval evaluates loop bounds and indices, which may use only counters
// and data.
type constEval struct {
	data map[string]engine.Array
}

func (c *constEval) unroll(ss []stmt, env map[string]int, out *[]instance) error {
	for _, s := range ss {
		switch st := s.(type) {
		case *relation:
			in := instance{rel: st, env: copyEnv(env)}
			if st.lhs.index != nil {
				in.idx = make([]int, len(st.lhs.index))
				for i, e := range st.lhs.index {
					v, err := c.index(e, env)
					if err != nil {
						return err
					}
					in.idx[i] = v
				}
			}
			*out = append(*out, in)
		case *forLoop:
			from, err := c.index(st.from, env)
			if err != nil {
				return failf("Cannot evaluate lower index of counter %s", st.counter)
			}
			to, err := c.index(st.to, env)
			if err != nil {
				return failf("Cannot evaluate upper index of counter %s", st.counter)
			}
			for i := from; i <= to; i++ {
				env[st.counter] = i
				if err := c.unroll(st.body, env, out); err != nil {
					return err
				}
			}
			delete(env, st.counter)
		}
	}
	return nil
}

func (c *constEval) index(e expr, env map[string]int) (int, error) {
	v, err := c.eval(e, env)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, failf("Index expression does not evaluate to an integer")
	}
	return int(v), nil
}

func (c *constEval) eval(e expr, env map[string]int) (float64, error) {
	switch x := e.(type) {
	case *numLit:
		return x.v, nil
	case *varRef:
		if v, ok := env[x.name]; ok && x.index == nil {
			return float64(v), nil
		}
		a, ok := c.data[x.name]
		if !ok {
			return 0, failf("Cannot evaluate expression involving %s on line %d", x.name, x.line)
		}
		off, err := c.dataOffset(a, x, env)
		if err != nil {
			return 0, err
		}
		v := a.Value[off]
		if v == NA {
			return 0, failf("Missing value in expression involving %s on line %d", x.name, x.line)
		}
		return v, nil
	case *unaryExpr:
		v, err := c.eval(x.x, env)
		return -v, err
	case *binaryExpr:
		l, err := c.eval(x.l, env)
		if err != nil {
			return 0, err
		}
		r, err := c.eval(x.r, env)
		if err != nil {
			return 0, err
		}
		return arith(x.op, l, r), nil
	case *callExpr:
		if x.fn == "length" {
			if len(x.args) != 1 {
				return 0, failf("Incorrect number of arguments to length on line %d", x.line)
			}
			ref, ok := x.args[0].(*varRef)
			if !ok || ref.index != nil {
				return 0, failf("Invalid argument to length on line %d", x.line)
			}
			a, ok := c.data[ref.name]
			if !ok {
				return 0, failf("Cannot evaluate length of %s on line %d", ref.name, x.line)
			}
			return float64(len(a.Value)), nil
		}
		f, ok := funcs[x.fn]
		if !ok {
			return 0, failf("Unknown function: %s", x.fn)
		}
		if len(x.args) != f.nargs {
			return 0, failf("Incorrect number of arguments to %s on line %d", x.fn, x.line)
		}
		args := make([]float64, len(x.args))
		for i, a := range x.args {
			v, err := c.eval(a, env)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return f.eval(args), nil
	}
	return 0, failf("Invalid expression")
}

func (c *constEval) dataOffset(a engine.Array, ref *varRef, env map[string]int) (int, error) {
	dim := a.Dim
	if len(dim) == 0 {
		dim = []int{len(a.Value)}
	}
	if ref.index == nil {
		if len(a.Value) != 1 {
			return 0, failf("Non-scalar %s used in index expression on line %d", ref.name, ref.line)
		}
		return 0, nil
	}
	if len(ref.index) != len(dim) {
		return 0, failf("Dimension mismatch for %s on line %d", ref.name, ref.line)
	}
	off, stride := 0, 1
	for d, e := range ref.index {
		i, err := c.index(e, env)
		if err != nil {
			return 0, err
		}
		if i < 1 || i > dim[d] {
			return 0, failf("Index out of range for %s on line %d", ref.name, ref.line)
		}
		off += (i - 1) * stride
		stride *= dim[d]
	}
	return off, nil
}

type exprCompiler struct {
	g       *graph
	c       *constEval
	env     map[string]int
	parents map[int]bool
}

func (ec *exprCompiler) compile(e expr) (evalFn, error) {
	switch x := e.(type) {
	case *numLit:
		v := x.v
		return func([][]float64) float64 { return v }, nil
	case *varRef:
		if v, ok := ec.env[x.name]; ok && x.index == nil {
			f := float64(v)
			return func([][]float64) float64 { return f }, nil
		}
		arr := ec.g.byName[x.name]
		idx := make([]int, len(arr.dim))
		if x.index == nil {
			if arr.len() != 1 {
				return nil, failf("Non-scalar node %s used in expression on line %d", x.name, x.line)
			}
			for i := range idx {
				idx[i] = 1
			}
		} else {
			if len(x.index) != len(arr.dim) {
				return nil, failf("Dimension mismatch for %s on line %d", x.name, x.line)
			}
			for i, ie := range x.index {
				v, err := ec.c.index(ie, ec.env)
				if err != nil {
					return nil, failf("Index expression for %s on line %d must be fixed", x.name, x.line)
				}
				idx[i] = v
			}
		}
		off, ok := arr.offset(idx)
		if !ok {
			return nil, failf("Index out of range for %s on line %d", x.name, x.line)
		}
		if arr.kind[off] == elemNone {
			return nil, failf("Unable to resolve node %s", arr.label(off))
		}
		if p := arr.node[off]; p >= 0 {
			ec.parents[p] = true
		}
		id := arr.id
		return func(v [][]float64) float64 { return v[id][off] }, nil
	case *unaryExpr:
		f, err := ec.compile(x.x)
		if err != nil {
			return nil, err
		}
		return func(v [][]float64) float64 { return -f(v) }, nil
	case *binaryExpr:
		l, err := ec.compile(x.l)
		if err != nil {
			return nil, err
		}
		r, err := ec.compile(x.r)
		if err != nil {
			return nil, err
		}
		op := x.op
		return func(v [][]float64) float64 { return arith(op, l(v), r(v)) }, nil
	case *callExpr:
		if x.fn == "length" {
			if len(x.args) != 1 {
				return nil, failf("Incorrect number of arguments to length on line %d", x.line)
			}
			ref, ok := x.args[0].(*varRef)
			if !ok || ref.index != nil || ec.g.byName[ref.name] == nil {
				return nil, failf("Invalid argument to length on line %d", x.line)
			}
			n := float64(ec.g.byName[ref.name].len())
			return func([][]float64) float64 { return n }, nil
		}
		f, ok := funcs[x.fn]
		if !ok {
			return nil, failf("Unknown function: %s", x.fn)
		}
		if len(x.args) != f.nargs {
			return nil, failf("Incorrect number of arguments to %s on line %d", x.fn, x.line)
		}
		args := make([]evalFn, len(x.args))
		for i, a := range x.args {
			fn, err := ec.compile(a)
			if err != nil {
				return nil, err
			}
			args[i] = fn
		}
		eval := f.eval
		return func(v [][]float64) float64 {
			buf := make([]float64, len(args))
			for i, a := range args {
				buf[i] = a(v)
			}
			return eval(buf)
		}, nil
	}
	return nil, failf("Invalid expression")
}

func arith(op string, l, r float64) float64 {
	switch op {
	case "+":
		return l + r
	case "-":
		return l - r
	case "*":
		return l * r
	case "/":
		return l / r
	case "^":
		return math.Pow(l, r)
	}
	return math.NaN()
}

func copyEnv(env map[string]int) map[string]int {
	out := make(map[string]int, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
