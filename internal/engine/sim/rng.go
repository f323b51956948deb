package sim

import (
	"math"
	"math/rand/v2"
)

const golden = 0x9e3779b97f4a7c15

func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// splitmix is a rand.Source whose whole state is one word, so it can be
// dumped and restored as a pair of 32-bit integers.
type splitmix struct{ s uint64 }

func (m *splitmix) Uint64() uint64 {
	m.s += golden
	return mix64(m.s)
}

type generator struct {
	name string
	src  *splitmix
	r    *rand.Rand
}

func newGenerator(name string, seed uint64) *generator {
	src := &splitmix{s: seed}
	return &generator{name: name, src: src, r: rand.New(src)}
}

// reseed derives the state from a user seed.
func (g *generator) reseed(seed int64) {
	g.src.s = mix64(uint64(seed) ^ golden)
}

func (g *generator) state() []int {
	return []int{int(uint32(g.src.s)), int(uint32(g.src.s >> 32))}
}

func (g *generator) setState(st []float64) bool {
	if len(st) != 2 {
		return false
	}
	var words [2]uint64
	for i, v := range st {
		if v < 0 || v > math.MaxUint32 || v != math.Trunc(v) {
			return false
		}
		words[i] = uint64(v)
	}
	g.src.s = words[0] | words[1]<<32
	return true
}
