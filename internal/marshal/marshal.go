// Package marshal converts arrays between the host's row-major NDArray and
// the engine's column-major Array. Values are transposed during the copy so
// that element (i1, ..., in) holds the same value on both sides; the returned
// arrays never share memory with their inputs.
package marshal

import (
	"gojags/internal/engine"
	"gojags/pkg/ndarray"
)

// ToEngine copies a host array into a new column-major engine array.
func ToEngine(a ndarray.NDArray) (engine.Array, error) {
	if err := a.Validate(); err != nil {
		return engine.Array{}, err
	}
	out := engine.Array{
		Dim:   append([]int(nil), a.Shape...),
		Value: make([]float64, len(a.Data)),
	}
	transpose(out.Value, a.Data, a.Shape, true)
	return out, nil
}

// ToEngineValue coerces an array-like value and copies it into the engine layout.
func ToEngineValue(v any) (engine.Array, error) {
	a, err := ndarray.FromAny(v)
	if err != nil {
		return engine.Array{}, err
	}
	return ToEngine(a)
}

// ToHost copies an engine array into a new row-major host array.
func ToHost(a engine.Array) (ndarray.NDArray, error) {
	dims := a.Dim
	if len(dims) == 0 {
		dims = []int{len(a.Value)}
	}
	out, err := ndarray.New(dims...)
	if err != nil {
		return ndarray.NDArray{}, err
	}
	if len(a.Value) != len(out.Data) {
		return ndarray.NDArray{}, &ndarray.ConversionError{Reason: "engine array length does not match its dimensions"}
	}
	transpose(out.Data, a.Value, dims, false)
	return out, nil
}

// ToEngineMap applies ToEngine to every entry, preserving the key set.
func ToEngineMap(m ndarray.Map) (map[string]engine.Array, error) {
	out := make(map[string]engine.Array, len(m))
	for k, v := range m {
		a, err := ToEngine(v)
		if err != nil {
			return nil, named(err, k)
		}
		out[k] = a
	}
	return out, nil
}

// ToHostMap applies ToHost to every entry, preserving the key set.
func ToHostMap(m map[string]engine.Array) (ndarray.Map, error) {
	out := make(ndarray.Map, len(m))
	for k, v := range m {
		a, err := ToHost(v)
		if err != nil {
			return nil, named(err, k)
		}
		out[k] = a
	}
	return out, nil
}

func named(err error, name string) error {
	if ce, ok := err.(*ndarray.ConversionError); ok && ce.Name == "" {
		ce.Name = name
	}
	return err
}

// transpose copies src into dst where src is laid out row-major when
// srcRowMajor is set (column-major otherwise) and dst uses the other order.
// It walks src sequentially and keeps a running dst offset.
func transpose(dst, src []float64, shape []int, srcRowMajor bool) {
	n := len(src)
	if n == 0 {
		return
	}
	rank := len(shape)
	// stride in dst for each dimension
	stride := make([]int, rank)
	if srcRowMajor {
		s := 1
		for d := 0; d < rank; d++ {
			stride[d] = s
			s *= shape[d]
		}
	} else {
		s := 1
		for d := rank - 1; d >= 0; d-- {
			stride[d] = s
			s *= shape[d]
		}
	}
	idx := make([]int, rank)
	off := 0
	for i := 0; i < n; i++ {
		dst[off] = src[i]
		// advance the multi-index in src order
		if srcRowMajor {
			for d := rank - 1; d >= 0; d-- {
				idx[d]++
				off += stride[d]
				if idx[d] < shape[d] {
					break
				}
				off -= stride[d] * shape[d]
				idx[d] = 0
			}
		} else {
			for d := 0; d < rank; d++ {
				idx[d]++
				off += stride[d]
				if idx[d] < shape[d] {
					break
				}
				off -= stride[d] * shape[d]
				idx[d] = 0
			}
		}
	}
}
