package ndarray

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ConversionError reports a value that cannot be coerced to a numeric array.
type ConversionError struct {
	Name   string
	Reason string
}

func (e *ConversionError) Error() string {
	if e.Name != "" {
		return "cannot convert " + e.Name + ": " + e.Reason
	}
	return "cannot convert value: " + e.Reason
}

// IsConversion reports whether err is a ConversionError.
func IsConversion(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}

// FromAny coerces an array-like Go value into an NDArray.
//
// Accepted inputs are NDArray values, numeric scalars, bools, nested slices or
// arrays of those with a rectangular shape, and nil or the string "NA" for a
// missing value. Scalars become shape [1]. An object of the form
// {"shape": [...], "data": [...]} is accepted as an explicit layout, which is
// what the JSON encoding of NDArray produces.
func FromAny(v any) (NDArray, error) {
	switch t := v.(type) {
	case NDArray:
		return t.Clone(), t.Validate()
	case *NDArray:
		if t == nil {
			return Scalar(NA), nil
		}
		return t.Clone(), t.Validate()
	case map[string]any:
		return fromLayout(t)
	}
	var shape []int
	var data []float64
	if err := walk(reflect.ValueOf(v), 0, &shape, &data); err != nil {
		return NDArray{}, err
	}
	if len(shape) == 0 {
		return NDArray{Shape: []int{1}, Data: data}, nil
	}
	return NDArray{Shape: shape, Data: data}, nil
}

// MapFromAny coerces every value of raw with FromAny.
func MapFromAny(raw map[string]any) (Map, error) {
	out := make(Map, len(raw))
	for k, v := range raw {
		a, err := FromAny(v)
		if err != nil {
			var ce *ConversionError
			if errors.As(err, &ce) && ce.Name == "" {
				ce.Name = k
			}
			return nil, err
		}
		out[k] = a
	}
	return out, nil
}

func walk(v reflect.Value, depth int, shape *[]int, data *[]float64) error {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return leaf(NA, depth, shape, data)
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return leaf(NA, depth, shape, data)
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 && v.Len() > 0 {
			return &ConversionError{Reason: "byte slices are not numeric arrays"}
		}
		n := v.Len()
		if depth == len(*shape) {
			if len(*data) > 0 {
				return &ConversionError{Reason: "ragged nested sequence"}
			}
			*shape = append(*shape, n)
		} else if depth > len(*shape) || (*shape)[depth] != n {
			return &ConversionError{Reason: "ragged nested sequence"}
		}
		for i := 0; i < n; i++ {
			if err := walk(v.Index(i), depth+1, shape, data); err != nil {
				return err
			}
		}
		return nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) {
			f = NA
		}
		return leaf(f, depth, shape, data)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return leaf(float64(v.Int()), depth, shape, data)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return leaf(float64(v.Uint()), depth, shape, data)
	case reflect.Bool:
		if v.Bool() {
			return leaf(1, depth, shape, data)
		}
		return leaf(0, depth, shape, data)
	case reflect.String:
		s := strings.TrimSpace(v.String())
		if strings.EqualFold(s, "NA") {
			return leaf(NA, depth, shape, data)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return &ConversionError{Reason: fmt.Sprintf("string %q is not numeric", s)}
		}
		return leaf(f, depth, shape, data)
	default:
		return &ConversionError{Reason: "unsupported type " + v.Type().String()}
	}
}

// leaf records one scalar. A scalar must sit at the deepest level seen so far.
func leaf(f float64, depth int, shape *[]int, data *[]float64) error {
	if depth != len(*shape) {
		return &ConversionError{Reason: "ragged nested sequence"}
	}
	*data = append(*data, f)
	return nil
}

func fromLayout(m map[string]any) (NDArray, error) {
	rawShape, okShape := m["shape"]
	rawData, okData := m["data"]
	if !okShape || !okData || len(m) != 2 {
		return NDArray{}, &ConversionError{Reason: `objects must have exactly "shape" and "data" keys`}
	}
	sh, err := FromAny(rawShape)
	if err != nil {
		return NDArray{}, err
	}
	shape := make([]int, len(sh.Data))
	for i, d := range sh.Data {
		if d != math.Trunc(d) || d < 0 {
			return NDArray{}, &ConversionError{Reason: fmt.Sprintf("invalid dimension %v", d)}
		}
		shape[i] = int(d)
	}
	flat, err := FromAny(rawData)
	if err != nil {
		return NDArray{}, err
	}
	if len(flat.Shape) != 1 {
		return NDArray{}, &ConversionError{Reason: `"data" must be a flat list`}
	}
	return FromData(shape, flat.Data)
}
