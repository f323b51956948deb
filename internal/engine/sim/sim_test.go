package sim

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"gojags/internal/engine"
)

const normalModel = `model {
  for (i in 1:N) {
    y[i] ~ dnorm(mu, tau)   # likelihood
  }
  mu ~ dnorm(0, 0.001)
  tau ~ dgamma(1, 1)
  sigma <- 1 / sqrt(tau)
}`

func newTestConsole(t *testing.T) (*console, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	rt := NewRuntime(WithSeed(42))
	for _, m := range []string{"basemod", "bugs"} {
		if !rt.LoadModule(m) {
			t.Fatalf("load %s", m)
		}
	}
	var out, errw bytes.Buffer
	return newConsole(rt, &out, &errw), &out, &errw
}

func vec(v ...float64) engine.Array { return engine.Array{Dim: []int{len(v)}, Value: v} }

func compiled(t *testing.T, chains int) (*console, *bytes.Buffer) {
	t.Helper()
	c, _, errw := newTestConsole(t)
	if !c.CheckModel(strings.NewReader(normalModel)) {
		t.Fatalf("check: %s", errw)
	}
	data := map[string]engine.Array{"N": vec(3), "y": vec(1, 2, 3)}
	if !c.Compile(data, chains, true) || errw.Len() > 0 {
		t.Fatalf("compile: %s", errw)
	}
	return c, errw
}

func TestParse_VariableNames(t *testing.T) {
	prog, err := parseModel(normalModel)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"N", "mu", "sigma", "tau", "y"}
	if strings.Join(prog.names, ",") != strings.Join(want, ",") {
		t.Fatalf("names = %v, want %v", prog.names, want)
	}
}

func TestParse_SyntaxErrorReportsLine(t *testing.T) {
	cases := map[string]string{
		"model {\n  y ~ \n}":       "line 3",
		"model { x <- (1 + }":      "line 1",
		"modle { x <- 1 }":         "syntax error",
		"model { x <- 1 } trailing": "trailing",
		"model { x <- 1 $ }":       "$",
	}
	for src, want := range cases {
		_, err := parseModel(src)
		if err == nil {
			t.Fatalf("expected error for %q", src)
		}
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}

func TestParse_PrecedenceAndPower(t *testing.T) {
	prog, err := parseModel("model { x <- -2 ^ 2 + 3 * 4 }")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := &constEval{}
	v, err := c.eval(prog.stmts[0].(*relation).value, map[string]int{})
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v != 8 {
		t.Fatalf("got %v, want 8", v)
	}
}

func TestCompile_UnusedDataWarnsButSucceeds(t *testing.T) {
	c, _, errw := newTestConsole(t)
	c.CheckModel(strings.NewReader(normalModel))
	ok := c.Compile(map[string]engine.Array{"N": vec(3), "y": vec(1, 2, 3), "z": vec(0)}, 1, true)
	if !ok {
		t.Fatalf("expected status true")
	}
	if !strings.Contains(errw.String(), "Unused variable(s) in data table") || !strings.Contains(errw.String(), "z") {
		t.Fatalf("missing warning: %q", errw)
	}
}

func TestCompile_Errors(t *testing.T) {
	cases := []struct {
		name  string
		model string
		data  map[string]engine.Array
		want  string
	}{
		{"unresolved", "model { y ~ dnorm(mu, 1) }", nil, "Unable to resolve"},
		{"unknown dist", "model { y ~ dfoo(1) }", nil, "Unknown distribution: dfoo"},
		{"arity", "model { y ~ dnorm(1) }", nil, "Incorrect number of parameters"},
		{"cycle", "model { a <- b + 1\n b <- a * 2 }", nil, "directed cycle"},
		{"redefine", "model { a ~ dnorm(0, 1)\n a ~ dnorm(0, 1) }", nil, "redefine"},
		{"observed deterministic", "model { a <- 1 }", map[string]engine.Array{"a": vec(2)}, "deterministic"},
		{"loop bound", "model { for (i in 1:N) { y[i] ~ dnorm(0, 1) } }", nil, "upper index"},
		{"out of range", "model { for (i in 1:4) { y[i] ~ dnorm(0, 1) } }", map[string]engine.Array{"y": vec(1, 2, 3)}, "out of range"},
		{"hole", "model { y[2] ~ dnorm(0, 1)\n z <- y[1] }", nil, "Unable to resolve node y[1]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _, errw := newTestConsole(t)
			if !c.CheckModel(strings.NewReader(tc.model)) {
				t.Fatalf("check: %s", errw)
			}
			if c.Compile(tc.data, 1, true) {
				t.Fatalf("expected compile failure")
			}
			if !strings.Contains(errw.String(), tc.want) {
				t.Fatalf("error %q does not contain %q", errw, tc.want)
			}
		})
	}
}

func TestCompile_RequiresModelAndChains(t *testing.T) {
	c, _, errw := newTestConsole(t)
	if c.Compile(nil, 1, true) || !strings.Contains(errw.String(), "No model") {
		t.Fatalf("expected no model error, got %q", errw)
	}
	errw.Reset()
	c.CheckModel(strings.NewReader(normalModel))
	if c.Compile(map[string]engine.Array{"N": vec(1), "y": vec(0)}, 0, true) {
		t.Fatalf("expected failure with zero chains")
	}
}

func TestCompile_MissingDistributionModule(t *testing.T) {
	rt := NewRuntime()
	rt.LoadModule("basemod")
	var out, errw bytes.Buffer
	c := newConsole(rt, &out, &errw)
	c.CheckModel(strings.NewReader("model { x ~ dnorm(0, 1) }"))
	if c.Compile(nil, 1, true) {
		t.Fatalf("expected failure without bugs module")
	}
	if !strings.Contains(errw.String(), "Unknown distribution: dnorm") {
		t.Fatalf("got %q", errw)
	}
}

func TestInitializeAndUpdate(t *testing.T) {
	c, errw := compiled(t, 2)
	if c.Update(1) {
		t.Fatalf("update before initialize must fail")
	}
	if !strings.Contains(errw.String(), "not initialized") {
		t.Fatalf("got %q", errw)
	}
	errw.Reset()
	if !c.Initialize() {
		t.Fatalf("initialize: %s", errw)
	}
	if !c.IsAdapting() {
		t.Fatalf("slice sampler on tau should adapt")
	}
	if !c.Update(0) || c.Iter() != 0 {
		t.Fatalf("update(0) must be a no-op")
	}
	if !c.Update(100) || c.Iter() != 100 {
		t.Fatalf("iter = %d, want 100", c.Iter())
	}
	status, ok := c.CheckAdaptation()
	if !ok || !status {
		t.Fatalf("adaptation should be complete after 100 iterations")
	}
}

func TestDumpSamplers(t *testing.T) {
	c, errw := compiled(t, 1)
	if _, ok := c.DumpSamplers(); ok {
		t.Fatalf("dumpSamplers before initialize must fail")
	}
	errw.Reset()
	c.Initialize()
	got, ok := c.DumpSamplers()
	if !ok {
		t.Fatalf("dumpSamplers: %s", errw)
	}
	if len(got) != 2 || got[0].Method != "bugs::ConjugateNormal" || got[0].Nodes[0] != "mu" || got[1].Method != "base::Slice" || got[1].Nodes[0] != "tau" {
		t.Fatalf("unexpected samplers: %+v", got)
	}
}

func TestInitialize_NoSampler(t *testing.T) {
	c, errw := compiled(t, 1)
	for _, f := range []string{"base::Slice", "bugs::ConjugateNormal", "base::Finite"} {
		c.rt.SetFactoryActive(f, engine.SamplerFactory, false)
	}
	if c.Initialize() {
		t.Fatalf("expected failure with no sampler factories")
	}
	if !strings.Contains(errw.String(), "Unable to find appropriate sampler") {
		t.Fatalf("got %q", errw)
	}
}

func TestMonitors_TraceShapeAndThinning(t *testing.T) {
	c, errw := compiled(t, 2)
	c.Initialize()
	if !c.SetMonitor("y", 1, "trace") || !c.SetMonitor("mu", 2, "trace") || !c.SetMonitor("mu", 1, "mean") {
		t.Fatalf("setMonitor: %s", errw)
	}
	if c.IsAdapting() {
		t.Fatalf("setting a monitor stops adaptation")
	}
	c.Update(10)
	trace, ok := c.DumpMonitors("trace", false)
	if !ok {
		t.Fatalf("dumpMonitors: %s", errw)
	}
	if d := trace["mu"].Dim; len(d) != 3 || d[0] != 1 || d[1] != 5 || d[2] != 2 {
		t.Fatalf("mu dims = %v", d)
	}
	y := trace["y"]
	if d := y.Dim; len(d) != 3 || d[0] != 3 || d[1] != 10 || d[2] != 2 {
		t.Fatalf("y dims = %v", d)
	}
	// observed y never changes
	for i := 0; i < len(y.Value); i += 3 {
		if y.Value[i] != 1 || y.Value[i+1] != 2 || y.Value[i+2] != 3 {
			t.Fatalf("observed values changed: %v", y.Value[i:i+3])
		}
	}
	mean, _ := c.DumpMonitors("mean", false)
	if d := mean["mu"].Dim; len(d) != 2 || d[0] != 1 || d[1] != 2 {
		t.Fatalf("mean dims = %v", d)
	}
	if c.SetMonitor("mu", 2, "trace") {
		t.Fatalf("duplicate monitor must fail")
	}
	errw.Reset()
	if !c.ClearMonitor("mu", "trace") || c.ClearMonitor("mu", "trace") {
		t.Fatalf("clear monitor twice should fail the second time")
	}
}

func TestDumpState(t *testing.T) {
	c, errw := compiled(t, 2)
	if !c.SetParameters(map[string]engine.Array{"mu": vec(5)}, 2) {
		t.Fatalf("setParameters: %s", errw)
	}
	c.Initialize()
	params, name, ok := c.DumpState(engine.DumpParameters, 2)
	if !ok {
		t.Fatalf("dumpState: %s", errw)
	}
	if params["mu"].Value[0] != 5 {
		t.Fatalf("mu = %v, want 5", params["mu"].Value)
	}
	if _, ok := params["y"]; ok {
		t.Fatalf("observed y must not be a parameter")
	}
	if _, ok := params[".RNG.state"]; !ok || name == "" {
		t.Fatalf("missing RNG state or name")
	}
	data, _, _ := c.DumpState(engine.DumpData, 1)
	if _, ok := data["mu"]; ok {
		t.Fatalf("mu must not be data")
	}
	if data["N"].Value[0] != 3 || len(data["y"].Value) != 3 {
		t.Fatalf("data = %+v", data)
	}
	all, _, _ := c.DumpState(engine.DumpAll, 1)
	for _, k := range []string{"N", "y", "mu", "tau"} {
		if _, ok := all[k]; !ok {
			t.Fatalf("all missing %s", k)
		}
	}
	if _, _, ok := c.DumpState(engine.DumpAll, 3); ok {
		t.Fatalf("chain 3 of 2 must fail")
	}
}

func TestSetParameters_RejectsObservedAndWarnsUnused(t *testing.T) {
	c, errw := compiled(t, 1)
	if c.SetParameters(map[string]engine.Array{"y": vec(0, 0, 0)}, 1) {
		t.Fatalf("overwriting data must fail")
	}
	errw.Reset()
	if !c.SetParameters(map[string]engine.Array{"nope": vec(1)}, 1) {
		t.Fatalf("unused initial value returns true")
	}
	if !strings.Contains(errw.String(), "Unused initial value") {
		t.Fatalf("got %q", errw)
	}
}

func TestRNG_SeedIsReproducible(t *testing.T) {
	draw := func() float64 {
		c, _ := compiled(t, 1)
		c.SetParameters(map[string]engine.Array{".RNG.seed": vec(7)}, 1)
		c.Initialize()
		c.Update(5)
		st, _, _ := c.DumpState(engine.DumpParameters, 1)
		return st["mu"].Value[0]
	}
	if a, b := draw(), draw(); a != b {
		t.Fatalf("same seed gave %v and %v", a, b)
	}
}

func TestRNG_StateRoundTrip(t *testing.T) {
	g := newGenerator("base::Mersenne-Twister", 12345)
	g.r.Float64()
	st := g.state()
	h := newGenerator("base::Mersenne-Twister", 1)
	vals := []float64{float64(st[0]), float64(st[1])}
	if !h.setState(vals) {
		t.Fatalf("setState rejected %v", vals)
	}
	if g.r.Uint64() != h.r.Uint64() {
		t.Fatalf("restored generator diverged")
	}
	if h.setState([]float64{1}) || h.setState([]float64{-1, 0}) {
		t.Fatalf("invalid states accepted")
	}
}

func TestSetRNGName(t *testing.T) {
	c, errw := compiled(t, 1)
	if c.SetRNGName("base::Nope", 1) {
		t.Fatalf("unknown RNG accepted")
	}
	errw.Reset()
	if !c.SetRNGName("base::Super-Duper", 1) {
		t.Fatalf("setRNGName: %s", errw)
	}
	c.Initialize()
	_, name, _ := c.DumpState(engine.DumpAll, 1)
	if name != "base::Super-Duper" {
		t.Fatalf("name = %q", name)
	}
}

func TestRuntime_ModulesAndFactories(t *testing.T) {
	rt := NewRuntime()
	if rt.LoadModule("nope") {
		t.Fatalf("unknown module loaded")
	}
	rt.LoadModule("basemod")
	rt.LoadModule("lecuyer")
	if got := rt.ListModules(); len(got) != 2 || got[0] != "basemod" || got[1] != "lecuyer" {
		t.Fatalf("modules = %v", got)
	}
	rngs := rt.ListFactories(engine.RNGFactory)
	if len(rngs) != 2 || rngs[0].Name != "lecuyer::RngStream" {
		t.Fatalf("rng factories = %+v", rngs)
	}
	if !rt.UnloadModule("lecuyer") || rt.UnloadModule("lecuyer") {
		t.Fatalf("unload semantics")
	}
	if len(rt.ListFactories(engine.RNGFactory)) != 1 {
		t.Fatalf("lecuyer factories not removed")
	}
}

func TestRuntime_MakeRNGsDistinct(t *testing.T) {
	rt := NewRuntime(WithSeed(3))
	rt.LoadModule("basemod")
	got := rt.MakeRNGs("base::BaseRNG", 4)
	if len(got) != 4 {
		t.Fatalf("got %d rngs", len(got))
	}
	seen := map[[2]int]bool{}
	for i, g := range got {
		if g.Name != baseRNGNames[i] {
			t.Fatalf("name %d = %s", i, g.Name)
		}
		k := [2]int{g.State[0], g.State[1]}
		if seen[k] {
			t.Fatalf("duplicate state %v", k)
		}
		seen[k] = true
	}
	if rt.MakeRNGs("nope", 2) != nil {
		t.Fatalf("unknown factory issued RNGs")
	}
}

func TestDistributions_RejectInvalidParents(t *testing.T) {
	c, _, errw := newTestConsole(t)
	c.CheckModel(strings.NewReader("model { x ~ dnorm(0, t)\n t <- -1 }"))
	if !c.Compile(nil, 1, true) {
		t.Fatalf("compile: %s", errw)
	}
	if c.Initialize() {
		t.Fatalf("negative precision accepted")
	}
	if !strings.Contains(errw.String(), "Invalid parent values") {
		t.Fatalf("got %q", errw)
	}
}

func TestDistributions_SampleMeans(t *testing.T) {
	cases := []struct {
		dist   string
		params []float64
		mean   float64
		tol    float64
	}{
		{"dbern", []float64{0.25}, 0.25, 0.02},
		{"dbin", []float64{0.3, 10}, 3, 0.08},
		{"dpois", []float64{3.5}, 3.5, 0.08},
		{"dnorm", []float64{1, 4}, 1, 0.03},
		{"dunif", []float64{-1, 3}, 1, 0.05},
		{"dgamma", []float64{2, 4}, 0.5, 0.02},
		{"dbeta", []float64{2, 3}, 0.4, 0.02},
		{"dexp", []float64{2}, 0.5, 0.02},
	}
	const n = 20000
	for _, c := range cases {
		g := newGenerator("base::Mersenne-Twister", 42)
		d := distributions[c.dist]
		sum := 0.0
		for i := 0; i < n; i++ {
			v, ok := d.draw(g.src, c.params)
			if !ok {
				t.Fatalf("%s%v rejected", c.dist, c.params)
			}
			if d.discrete && v != math.Trunc(v) {
				t.Fatalf("%s drew non-integer %v", c.dist, v)
			}
			sum += v
		}
		if got := sum / n; math.Abs(got-c.mean) > c.tol {
			t.Fatalf("%s%v mean = %v, want %v", c.dist, c.params, got, c.mean)
		}
	}
}

func TestDistributions_DegenerateAndInvalid(t *testing.T) {
	g := newGenerator("base::Mersenne-Twister", 1)
	if v, ok := distributions["dpois"].draw(g.src, []float64{0}); !ok || v != 0 {
		t.Fatalf("dpois(0) = %v, %v", v, ok)
	}
	if v, ok := distributions["dbin"].draw(g.src, []float64{0.5, 0}); !ok || v != 0 {
		t.Fatalf("dbin(0.5, 0) = %v, %v", v, ok)
	}
	bad := map[string][]float64{
		"dbern":  {1.5},
		"dbin":   {0.5, 2.5},
		"dpois":  {-1},
		"dunif":  {2, 1},
		"dgamma": {0, 1},
		"dbeta":  {1, -1},
		"dexp":   {0},
	}
	for name, p := range bad {
		if _, ok := distributions[name].draw(g.src, p); ok {
			t.Fatalf("%s%v accepted", name, p)
		}
	}
}

func TestLabel(t *testing.T) {
	a := &nodeArray{name: "x", dim: []int{2, 3}}
	if got := a.label(3); got != "x[2,2]" {
		t.Fatalf("label = %s", got)
	}
	s := &nodeArray{name: "s", dim: []int{1}}
	if got := s.label(0); got != "s" {
		t.Fatalf("label = %s", got)
	}
}
