package sim

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// distribution draws one value given its parameters in the engine's
// parameterization. ok is false when the parameters are outside the support
// of the distribution. Sampling is delegated to distuv with the chain's
// generator as its source.
type distribution struct {
	name     string
	nparams  int
	discrete bool
	// finite reports a bounded integer support.
	finite bool
	draw   func(src rand.Source, p []float64) (float64, bool)
}

var distributions = map[string]distribution{
	"dbern": {name: "dbern", nparams: 1, discrete: true, finite: true, draw: func(src rand.Source, p []float64) (float64, bool) {
		if p[0] < 0 || p[0] > 1 {
			return 0, false
		}
		return distuv.Bernoulli{P: p[0], Src: src}.Rand(), true
	}},
	"dbin": {name: "dbin", nparams: 2, discrete: true, finite: true, draw: func(src rand.Source, p []float64) (float64, bool) {
		prob, n := p[0], p[1]
		if prob < 0 || prob > 1 || n < 0 || n != math.Trunc(n) {
			return 0, false
		}
		if n == 0 {
			return 0, true
		}
		return distuv.Binomial{N: n, P: prob, Src: src}.Rand(), true
	}},
	"dpois": {name: "dpois", nparams: 1, discrete: true, draw: func(src rand.Source, p []float64) (float64, bool) {
		if p[0] < 0 {
			return 0, false
		}
		if p[0] == 0 {
			return 0, true
		}
		return distuv.Poisson{Lambda: p[0], Src: src}.Rand(), true
	}},
	// dnorm takes a precision.
	"dnorm": {name: "dnorm", nparams: 2, draw: func(src rand.Source, p []float64) (float64, bool) {
		mu, tau := p[0], p[1]
		if tau <= 0 {
			return 0, false
		}
		return distuv.Normal{Mu: mu, Sigma: 1 / math.Sqrt(tau), Src: src}.Rand(), true
	}},
	"dunif": {name: "dunif", nparams: 2, draw: func(src rand.Source, p []float64) (float64, bool) {
		if p[0] >= p[1] {
			return 0, false
		}
		return distuv.Uniform{Min: p[0], Max: p[1], Src: src}.Rand(), true
	}},
	// dgamma takes shape and rate.
	"dgamma": {name: "dgamma", nparams: 2, draw: func(src rand.Source, p []float64) (float64, bool) {
		if p[0] <= 0 || p[1] <= 0 {
			return 0, false
		}
		return distuv.Gamma{Alpha: p[0], Beta: p[1], Src: src}.Rand(), true
	}},
	"dbeta": {name: "dbeta", nparams: 2, draw: func(src rand.Source, p []float64) (float64, bool) {
		if p[0] <= 0 || p[1] <= 0 {
			return 0, false
		}
		return distuv.Beta{Alpha: p[0], Beta: p[1], Src: src}.Rand(), true
	}},
	"dexp": {name: "dexp", nparams: 1, draw: func(src rand.Source, p []float64) (float64, bool) {
		if p[0] <= 0 {
			return 0, false
		}
		return distuv.Exponential{Rate: p[0], Src: src}.Rand(), true
	}},
}

var funcs = map[string]struct {
	nargs int
	eval  func(a []float64) float64
}{
	"sqrt":   {1, func(a []float64) float64 { return math.Sqrt(a[0]) }},
	"exp":    {1, func(a []float64) float64 { return math.Exp(a[0]) }},
	"log":    {1, func(a []float64) float64 { return math.Log(a[0]) }},
	"abs":    {1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"pow":    {2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	"ilogit": {1, func(a []float64) float64 { return 1 / (1 + math.Exp(-a[0])) }},
	"logit":  {1, func(a []float64) float64 { return math.Log(a[0] / (1 - a[0])) }},
	"min":    {2, func(a []float64) float64 { return math.Min(a[0], a[1]) }},
	"max":    {2, func(a []float64) float64 { return math.Max(a[0], a[1]) }},
}
