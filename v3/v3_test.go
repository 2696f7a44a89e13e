package v3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrix(Te *testing.T) {
	A, err := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	require.NoError(Te, err)
	assert.Equal(Te, 2, A.NVecs())
	assert.Equal(Te, []float64{4, 5, 6}, A.Vec(1))

	_, err = NewMatrix([]float64{1, 2})
	assert.Error(Te, err)
	_, err = NewMatrix(nil)
	assert.Error(Te, err)
}

func TestBounds(Te *testing.T) {
	A, err := NewMatrix([]float64{1, -2, 3, -4, 5, 0.5, 2, 2, 2})
	require.NoError(Te, err)
	min, max := A.Bounds()
	assert.Equal(Te, [3]float64{-4, -2, 0.5}, min)
	assert.Equal(Te, [3]float64{2, 5, 3}, max)
}

func TestCopyScale(Te *testing.T) {
	A, err := NewMatrix([]float64{1, 2, 3})
	require.NoError(Te, err)
	B := A.Copy()
	B.Scale(10)
	assert.Equal(Te, []float64{1, 2, 3}, A.Vec(0))
	assert.Equal(Te, []float64{10, 20, 30}, B.Vec(0))
	assert.False(Te, Equal(A, B, 1e-6))
	B.Scale(0.1)
	assert.True(Te, Equal(A, B, 1e-9))
}

func TestVec(Te *testing.T) {
	A := Zeros(2)
	v := A.Vec(1)
	v[2] = 7
	assert.Equal(Te, 7.0, A.At(1, 2))
	A.SetVec(0, []float64{1, 1, 1})
	assert.Equal(Te, []float64{1, 1, 1}, A.Vec(0))
}
