//go:build jags

// Package jags binds libjags through cgo. The C++ shim (shim.cc) wraps the
// JAGS Console with in-memory streams; after every call the captured text is
// copied to the writers the console was created with, so callers observe the
// same two failure signals as the native API.
package jags

/*
#cgo pkg-config: jags
#cgo CXXFLAGS: -std=c++11
#cgo LDFLAGS: -ldl
#include <stdlib.h>
#include "shim.h"
*/
import "C"

import (
	"io"
	"sort"
	"strconv"
	"unsafe"

	"gojags/internal/common/fsutil"
	"gojags/internal/engine"
)

// Built indicates whether this binary was compiled with libjags support.
const Built = true

// BuildVersion is the libjags version the adapter was compiled against. It is
// set at link time from the headers pkg-config resolved (see the Makefile):
//
//	-ldflags "-X gojags/internal/engine/jags.BuildVersion=$(pkg-config --modversion jags)"
var BuildVersion string

type runtime struct {
	modulesDir string
}

// NewRuntime returns the libjags runtime. Modules are loaded from modulesDir
// when it is set, otherwise from the library search path.
func NewRuntime(modulesDir string) (engine.Runtime, error) {
	if BuildVersion == "" {
		return nil, engine.ErrUnavailable("jags build version not set; link with -X gojags/internal/engine/jags.BuildVersion")
	}
	dir, err := fsutil.ExpandHome(modulesDir)
	if err != nil {
		return nil, err
	}
	if dir != "" && !fsutil.PathExists(dir) {
		return nil, engine.ErrUnavailable("jags modules directory not found: " + dir)
	}
	return &runtime{modulesDir: dir}, nil
}

func (r *runtime) NewConsole(out, errw io.Writer) engine.Console {
	return &console{c: C.gj_console_new(), out: out, errw: errw}
}

func (r *runtime) Version() string      { return C.GoString(C.gj_version()) }
func (r *runtime) BuildVersion() string { return BuildVersion }
func (r *runtime) NA() float64          { return float64(C.gj_na()) }

func (r *runtime) LoadModule(name string) bool {
	cdir := C.CString(r.modulesDir)
	defer C.free(unsafe.Pointer(cdir))
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return C.gj_load_module(cdir, cname) != 0
}

func (r *runtime) UnloadModule(name string) bool {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return C.gj_unload_module(cname) != 0
}

func (r *runtime) ListModules() []string {
	g := groups(C.gj_list_modules())
	if len(g) == 0 {
		return nil
	}
	return g[0]
}

func (r *runtime) ListFactories(t engine.FactoryType) []engine.Factory {
	var out []engine.Factory
	for _, item := range groups(C.gj_list_factories(C.int(t))) {
		if len(item) != 2 {
			continue
		}
		out = append(out, engine.Factory{Name: item[0], Type: t, Active: item[1] == "1"})
	}
	return out
}

func (r *runtime) SetFactoryActive(name string, t engine.FactoryType, active bool) bool {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return C.gj_set_factory_active(cname, C.int(t), cbool(active)) != 0
}

func (r *runtime) MakeRNGs(factory string, n int) []engine.RNGState {
	cname := C.CString(factory)
	defer C.free(unsafe.Pointer(cname))
	var out []engine.RNGState
	for _, item := range groups(C.gj_make_rngs(cname, C.int(n))) {
		if len(item) == 0 {
			continue
		}
		st := engine.RNGState{Name: item[0]}
		for _, w := range item[1:] {
			v, err := strconv.Atoi(w)
			if err != nil {
				return nil
			}
			st.State = append(st.State, v)
		}
		out = append(out, st)
	}
	return out
}

type console struct {
	c    *C.gj_console
	out  io.Writer
	errw io.Writer
}

// flush moves captured diagnostics to the caller's writers.
func (c *console) flush() {
	o := C.gj_take_out(c.c)
	io.WriteString(c.out, C.GoString(o))
	C.free(unsafe.Pointer(o))
	e := C.gj_take_err(c.c)
	io.WriteString(c.errw, C.GoString(e))
	C.free(unsafe.Pointer(e))
}

func (c *console) status(rc C.int) bool {
	c.flush()
	return rc != 0
}

func (c *console) CheckModel(f io.Reader) bool {
	src, err := io.ReadAll(f)
	if err != nil {
		io.WriteString(c.errw, err.Error()+"\n")
		return false
	}
	if len(src) == 0 {
		src = []byte{'\n'}
	}
	csrc := C.CBytes(src)
	defer C.free(csrc)
	return c.status(C.gj_check_model(c.c, (*C.char)(csrc), C.size_t(len(src))))
}

func (c *console) Compile(data map[string]engine.Array, chains int, generateData bool) bool {
	t := newCTable(data)
	defer t.free()
	return c.status(C.gj_compile(c.c, t.ptr, t.n, C.int(chains), cbool(generateData)))
}

func (c *console) SetParameters(params map[string]engine.Array, chain int) bool {
	t := newCTable(params)
	defer t.free()
	return c.status(C.gj_set_parameters(c.c, t.ptr, t.n, C.int(chain)))
}

func (c *console) SetRNGName(name string, chain int) bool {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return c.status(C.gj_set_rng_name(c.c, cname, C.int(chain)))
}

func (c *console) Initialize() bool { return c.status(C.gj_initialize(c.c)) }

func (c *console) Update(iterations int) bool {
	return c.status(C.gj_update(c.c, C.int(iterations)))
}

func (c *console) SetMonitor(name string, thin int, monitorType string) bool {
	cname, ctype := C.CString(name), C.CString(monitorType)
	defer C.free(unsafe.Pointer(cname))
	defer C.free(unsafe.Pointer(ctype))
	return c.status(C.gj_set_monitor(c.c, cname, C.int(thin), ctype))
}

func (c *console) ClearMonitor(name string, monitorType string) bool {
	cname, ctype := C.CString(name), C.CString(monitorType)
	defer C.free(unsafe.Pointer(cname))
	defer C.free(unsafe.Pointer(ctype))
	return c.status(C.gj_clear_monitor(c.c, cname, ctype))
}

func (c *console) DumpState(t engine.DumpType, chain int) (map[string]engine.Array, string, bool) {
	var (
		tbl  *C.gj_table
		name *C.char
	)
	ok := c.status(C.gj_dump_state(c.c, C.int(t), C.int(chain), &tbl, &name))
	defer C.free(unsafe.Pointer(name))
	return table(tbl), C.GoString(name), ok
}

func (c *console) DumpMonitors(monitorType string, flat bool) (map[string]engine.Array, bool) {
	ctype := C.CString(monitorType)
	defer C.free(unsafe.Pointer(ctype))
	var tbl *C.gj_table
	ok := c.status(C.gj_dump_monitors(c.c, ctype, cbool(flat), &tbl))
	return table(tbl), ok
}

func (c *console) DumpSamplers() ([]engine.SamplerInfo, bool) {
	var g *C.gj_groups
	ok := c.status(C.gj_dump_samplers(c.c, &g))
	var out []engine.SamplerInfo
	for _, item := range groups(g) {
		if len(item) == 0 {
			continue
		}
		// The method name comes first, followed by the sampled nodes.
		out = append(out, engine.SamplerInfo{Method: item[0], Nodes: item[1:]})
	}
	return out, ok
}

func (c *console) AdaptOff() bool { return c.status(C.gj_adapt_off(c.c)) }

func (c *console) CheckAdaptation() (bool, bool) {
	var st C.int
	ok := c.status(C.gj_check_adaptation(c.c, &st))
	return st != 0, ok
}

func (c *console) IsAdapting() bool { return C.gj_is_adapting(c.c) != 0 }
func (c *console) Iter() int        { return int(C.gj_iter(c.c)) }
func (c *console) NChain() int      { return int(C.gj_nchain(c.c)) }

func (c *console) VariableNames() []string {
	g := groups(C.gj_variable_names(c.c))
	if len(g) == 0 {
		return nil
	}
	names := g[0]
	sort.Strings(names)
	return names
}

func (c *console) ClearModel() {
	C.gj_clear_model(c.c)
	c.flush()
}

func (c *console) Close() {
	C.gj_console_free(c.c)
	c.c = nil
}

// cTable is a C-allocated copy of an array table.
type cTable struct {
	ptr   *C.gj_array
	n     C.int
	alloc []unsafe.Pointer
}

func newCTable(m map[string]engine.Array) *cTable {
	t := &cTable{n: C.int(len(m))}
	if len(m) == 0 {
		return t
	}
	t.ptr = (*C.gj_array)(t.malloc(int(C.sizeof_gj_array) * len(m)))
	entries := unsafe.Slice(t.ptr, len(m))
	i := 0
	for name, a := range m {
		cname := C.CString(name)
		t.alloc = append(t.alloc, unsafe.Pointer(cname))
		dim := a.Dim
		if len(dim) == 0 {
			dim = []int{len(a.Value)}
		}
		cdim := (*C.int)(t.malloc(int(C.sizeof_int) * len(dim)))
		cdims := unsafe.Slice(cdim, len(dim))
		for d, v := range dim {
			cdims[d] = C.int(v)
		}
		var cval *C.double
		if len(a.Value) > 0 {
			cval = (*C.double)(t.malloc(int(C.sizeof_double) * len(a.Value)))
			vals := unsafe.Slice(cval, len(a.Value))
			for j, v := range a.Value {
				vals[j] = C.double(v)
			}
		}
		entries[i] = C.gj_array{name: cname, ndim: C.int(len(dim)), dim: cdim, len: C.int(len(a.Value)), value: cval}
		i++
	}
	return t
}

func (t *cTable) malloc(n int) unsafe.Pointer {
	p := C.malloc(C.size_t(n))
	t.alloc = append(t.alloc, p)
	return p
}

func (t *cTable) free() {
	for _, p := range t.alloc {
		C.free(p)
	}
}

// table copies and frees a shim table.
func table(t *C.gj_table) map[string]engine.Array {
	if t == nil {
		return nil
	}
	defer C.gj_table_free(t)
	n := int(C.gj_table_len(t))
	out := make(map[string]engine.Array, n)
	for i := 0; i < n; i++ {
		ci := C.int(i)
		a := engine.Array{Dim: make([]int, int(C.gj_table_ndim(t, ci)))}
		for d := range a.Dim {
			a.Dim[d] = int(C.gj_table_dim(t, ci, C.int(d)))
		}
		size := int(C.gj_table_size(t, ci))
		a.Value = make([]float64, size)
		if size > 0 {
			for j, v := range unsafe.Slice(C.gj_table_value(t, ci), size) {
				a.Value[j] = float64(v)
			}
		}
		out[C.GoString(C.gj_table_name(t, ci))] = a
	}
	return out
}

// groups copies and frees a shim string-group list.
func groups(g *C.gj_groups) [][]string {
	if g == nil {
		return nil
	}
	defer C.gj_groups_free(g)
	n := int(C.gj_groups_len(g))
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		m := int(C.gj_group_len(g, C.int(i)))
		out[i] = make([]string, m)
		for j := 0; j < m; j++ {
			out[i][j] = C.GoString(C.gj_group_item(g, C.int(i), C.int(j)))
		}
	}
	return out
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
