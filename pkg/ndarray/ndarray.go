// Package ndarray holds the host-side array types exchanged with the engine:
// dense row-major float64 arrays and name-keyed collections of them.
package ndarray

import (
	"fmt"
	"math"
)

// NA is the engine's missing-value sentinel (-DBL_MAX*(1-DBL_EPSILON)).
const NA = -math.MaxFloat64 * (1 - 0x1p-52)

// IsNA reports whether v is the missing-value sentinel.
func IsNA(v float64) bool { return v == NA }

// NDArray is a dense array of float64 values in row-major order.
// Invariant: len(Data) == product(Shape) and len(Shape) >= 1.
type NDArray struct {
	Shape []int
	Data  []float64
}

// New returns a zero-filled array with the given shape.
func New(shape ...int) (NDArray, error) {
	n, err := size(shape)
	if err != nil {
		return NDArray{}, err
	}
	return NDArray{Shape: append([]int(nil), shape...), Data: make([]float64, n)}, nil
}

// FromData wraps data with the given shape, copying both.
func FromData(shape []int, data []float64) (NDArray, error) {
	n, err := size(shape)
	if err != nil {
		return NDArray{}, err
	}
	if n != len(data) {
		return NDArray{}, &ConversionError{Reason: fmt.Sprintf("shape %v needs %d values, got %d", shape, n, len(data))}
	}
	return NDArray{Shape: append([]int(nil), shape...), Data: append([]float64(nil), data...)}, nil
}

// Scalar returns a one-element array of shape [1].
func Scalar(v float64) NDArray {
	return NDArray{Shape: []int{1}, Data: []float64{v}}
}

// Vector returns a one-dimensional array holding a copy of values.
func Vector(values ...float64) NDArray {
	return NDArray{Shape: []int{len(values)}, Data: append([]float64(nil), values...)}
}

// Masked returns a vector where masked positions hold NA.
func Masked(values []float64, mask []bool) (NDArray, error) {
	if len(values) != len(mask) {
		return NDArray{}, &ConversionError{Reason: "mask length differs from values"}
	}
	out := Vector(values...)
	for i, m := range mask {
		if m {
			out.Data[i] = NA
		}
	}
	return out, nil
}

// Len returns the number of elements.
func (a NDArray) Len() int { return len(a.Data) }

// Rank returns the number of dimensions.
func (a NDArray) Rank() int { return len(a.Shape) }

// Validate checks the shape/data invariant.
func (a NDArray) Validate() error {
	n, err := size(a.Shape)
	if err != nil {
		return err
	}
	if n != len(a.Data) {
		return &ConversionError{Reason: fmt.Sprintf("shape %v needs %d values, got %d", a.Shape, n, len(a.Data))}
	}
	return nil
}

// Offset returns the row-major offset of the given index.
func (a NDArray) Offset(idx ...int) (int, error) {
	if len(idx) != len(a.Shape) {
		return 0, fmt.Errorf("index rank %d does not match array rank %d", len(idx), len(a.Shape))
	}
	off := 0
	for d, i := range idx {
		if i < 0 || i >= a.Shape[d] {
			return 0, fmt.Errorf("index %d out of range for dimension %d of size %d", i, d, a.Shape[d])
		}
		off = off*a.Shape[d] + i
	}
	return off, nil
}

// At returns the element at the given zero-based index.
func (a NDArray) At(idx ...int) (float64, error) {
	off, err := a.Offset(idx...)
	if err != nil {
		return 0, err
	}
	return a.Data[off], nil
}

// Set stores v at the given zero-based index.
func (a NDArray) Set(v float64, idx ...int) error {
	off, err := a.Offset(idx...)
	if err != nil {
		return err
	}
	a.Data[off] = v
	return nil
}

// Clone returns a deep copy.
func (a NDArray) Clone() NDArray {
	return NDArray{Shape: append([]int(nil), a.Shape...), Data: append([]float64(nil), a.Data...)}
}

// Equal reports whether a and b have identical shapes and element values.
// NA compares equal to NA.
func (a NDArray) Equal(b NDArray) bool {
	if len(a.Shape) != len(b.Shape) || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}

// Map is a collection of arrays keyed by variable name.
type Map map[string]NDArray

// Keys returns the names in the map, unordered.
func (m Map) Keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Clone returns a deep copy of the map.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// DropEmpty returns a copy of m without zero-length arrays.
// The engine does not accept empty arrays.
func (m Map) DropEmpty() Map {
	out := make(Map, len(m))
	for k, v := range m {
		if v.Len() == 0 {
			continue
		}
		out[k] = v
	}
	return out
}

func size(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, &ConversionError{Reason: "array must have at least one dimension"}
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, &ConversionError{Reason: fmt.Sprintf("negative dimension in shape %v", shape)}
		}
		n *= d
	}
	return n, nil
}
