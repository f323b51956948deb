package marshal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gojags/internal/engine"
	"gojags/pkg/ndarray"
)

func TestToEngine_Matrix(t *testing.T) {
	a, err := ndarray.FromData([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	e, err := ToEngine(a)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, e.Dim)
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, e.Value)
}

func TestToHost_Matrix(t *testing.T) {
	h, err := ToHost(engine.Array{Dim: []int{2, 3}, Value: []float64{1, 4, 2, 5, 3, 6}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, h.Data)
}

func TestRoundTrip_PreservesElements(t *testing.T) {
	shape := []int{2, 3, 4}
	data := make([]float64, 24)
	for i := range data {
		data[i] = float64(i)
	}
	a, err := ndarray.FromData(shape, data)
	require.NoError(t, err)
	e, err := ToEngine(a)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				want, _ := a.At(i, j, k)
				assert.Equal(t, want, e.Value[i+2*j+6*k], "element %d,%d,%d", i, j, k)
			}
		}
	}
	back, err := ToHost(e)
	require.NoError(t, err)
	assert.True(t, a.Equal(back))
}

func TestCopiesDoNotAlias(t *testing.T) {
	a := ndarray.Vector(1, 2, 3)
	e, err := ToEngine(a)
	require.NoError(t, err)
	e.Value[0] = 42
	e.Dim[0] = 9
	assert.Equal(t, 1.0, a.Data[0])
	assert.Equal(t, 3, a.Shape[0])
}

func TestToEngineValue(t *testing.T) {
	e, err := ToEngineValue([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 2, 4}, e.Value)

	_, err = ToEngineValue("x")
	assert.True(t, ndarray.IsConversion(err))
}

func TestToHost_NoDimIsVector(t *testing.T) {
	h, err := ToHost(engine.Array{Value: []float64{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, h.Shape)
}

func TestToHost_LengthMismatch(t *testing.T) {
	_, err := ToHost(engine.Array{Dim: []int{3}, Value: []float64{1}})
	assert.True(t, ndarray.IsConversion(err))
}

func TestMaps_NameFailingEntry(t *testing.T) {
	_, err := ToEngineMap(ndarray.Map{"x": {Shape: []int{2}, Data: []float64{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot convert x:")

	_, err = ToHostMap(map[string]engine.Array{"y": {Dim: []int{2}, Value: nil}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot convert y:")

	out, err := ToHostMap(map[string]engine.Array{"a": {Dim: []int{1}, Value: []float64{7}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, out.Keys())
}

func TestMaps_RoundTripPreservesKeys(t *testing.T) {
	mat, err := ndarray.FromData([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	cube, err := ndarray.New(2, 2, 2)
	require.NoError(t, err)
	for i := range cube.Data {
		cube.Data[i] = float64(i) / 2
	}
	in := ndarray.Map{
		"alpha": ndarray.Scalar(3),
		"beta":  ndarray.Vector(1, ndarray.NA, 2),
		"gamma": mat,
		"delta": cube,
		"empty": {Shape: []int{2, 0}, Data: []float64{}},
	}
	eng, err := ToEngineMap(in)
	require.NoError(t, err)
	assert.Len(t, eng, len(in))
	assert.Equal(t, []int{2, 0}, eng["empty"].Dim)

	out, err := ToHostMap(eng)
	require.NoError(t, err)
	assert.ElementsMatch(t, in.Keys(), out.Keys())
	for k, want := range in {
		assert.True(t, want.Equal(out[k]), "entry %s: got %+v want %+v", k, out[k], want)
	}
}
