package tensor

import (
	"bytes"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func mustSlice(t *testing.T, rows, cols int, data ...float32) *Tensor {
	t.Helper()
	out, err := FromSlice(rows, cols, data)
	require.NoError(t, err)
	return out
}

func toDense(t *Tensor) *mat.Dense {
	data := make([]float64, len(t.Data))
	for i, v := range t.Data {
		data[i] = float64(v)
	}
	return mat.NewDense(t.Rows, t.Cols, data)
}

func TestConstructors(t *testing.T) {
	z := Zeros(2, 3)
	assert.Equal(t, 2, z.Rows)
	assert.Equal(t, 3, z.Cols)
	assert.Len(t, z.Data, 6)
	for _, v := range z.Data {
		assert.Zero(t, v)
	}

	f := Full(2, 2, 1.5)
	assert.Equal(t, []float32{1.5, 1.5, 1.5, 1.5}, f.Data)

	v := FromVector([]float32{1, 2, 3})
	assert.Equal(t, 1, v.Rows)
	assert.Equal(t, 3, v.Cols)

	_, err := FromSlice(2, 2, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrShape)

	empty := New(0, 0)
	assert.Equal(t, 0, empty.Size())
}

func TestCloneIsDeep(t *testing.T) {
	a := mustSlice(t, 1, 2, 1, 2)
	b := a.Clone()
	b.Data[0] = 99
	assert.Equal(t, float32(1), a.Data[0])
}

func TestAtSet(t *testing.T) {
	a := New(2, 3)
	a.Set(1, 2, 7)
	assert.Equal(t, float32(7), a.At(1, 2))
	assert.Equal(t, float32(7), a.Data[5])
}

func TestMatMulShape(t *testing.T) {
	tests := []struct {
		name    string
		m, k, n int
		k2      int
		wantErr bool
	}{
		{"square", 3, 3, 3, 3, false},
		{"row times matrix", 1, 4, 2, 4, false},
		{"tall", 5, 2, 1, 2, false},
		{"mismatch", 2, 3, 2, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Full(tt.m, tt.k, 1)
			b := Full(tt.k2, tt.n, 1)
			out, err := MatMul(a, b)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrShape)
				assert.Nil(t, out)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.m, out.Rows)
			assert.Equal(t, tt.n, out.Cols)
		})
	}
}

func TestMatMulValues(t *testing.T) {
	a := mustSlice(t, 2, 3, 1, 2, 3, 4, 5, 6)
	b := mustSlice(t, 3, 2, 7, 8, 9, 10, 11, 12)
	out, err := MatMul(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{58, 64, 139, 154}, out.Data)
}

func TestMatMulAgreesWithGonum(t *testing.T) {
	rng := NewRNG(7)
	a := Randn(6, 5, 0, 1, rng)
	b := Randn(5, 4, 0, 1, rng)

	got, err := MatMul(a, b)
	require.NoError(t, err)

	var want mat.Dense
	want.Mul(toDense(a), toDense(b))
	for i := 0; i < got.Rows; i++ {
		for j := 0; j < got.Cols; j++ {
			assert.InDelta(t, want.At(i, j), float64(got.At(i, j)), 1e-4)
		}
	}
}

func TestTransposeInvolutive(t *testing.T) {
	a := Randn(3, 5, 0, 1, NewRNG(1))
	at := Transpose(a)
	assert.Equal(t, 5, at.Rows)
	assert.Equal(t, 3, at.Cols)
	assert.Equal(t, a.At(2, 4), at.At(4, 2))
	assert.Equal(t, a.Data, Transpose(at).Data)
}

func TestAddBroadcast(t *testing.T) {
	m := mustSlice(t, 3, 2, 1, 2, 3, 4, 5, 6)
	row := mustSlice(t, 1, 2, 10, 20)

	out, err := Add(m, row)
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 22, 13, 24, 15, 26}, out.Data)

	out, err = Add(row, m)
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 22, 13, 24, 15, 26}, out.Data)

	// Operands are untouched.
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, m.Data)
}

func TestAddErrors(t *testing.T) {
	a := New(2, 3)
	for _, b := range []*Tensor{New(2, 2), New(3, 3), New(2, 1)} {
		_, err := Add(a, b)
		assert.ErrorIs(t, err, ErrShape)
	}
}

func TestElementwise(t *testing.T) {
	a := mustSlice(t, 1, 3, 4, 9, 16)
	b := mustSlice(t, 1, 3, 2, 3, 4)

	sub, err := Sub(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 6, 12}, sub.Data)

	mul, err := Mul(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{8, 27, 64}, mul.Data)

	div, err := Div(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3, 4}, div.Data)

	assert.Equal(t, []float32{2, 3, 4}, Sqrt(a).Data)
	assert.Equal(t, []float32{2, 4.5, 8}, Scale(a, 0.5).Data)

	for _, f := range []func(a, b *Tensor) (*Tensor, error){Sub, Mul, Div} {
		_, err := f(a, New(3, 1))
		assert.ErrorIs(t, err, ErrShape)
	}
}

func TestSqrtNegativeIsNaN(t *testing.T) {
	out := Sqrt(FromVector([]float32{-1}))
	assert.True(t, math.IsNaN(float64(out.Data[0])))
}

func TestSumRows(t *testing.T) {
	a := mustSlice(t, 3, 2, 1, 2, 3, 4, 5, 6)
	assert.Equal(t, []float32{9, 12}, SumRows(a).Data)
}

func TestInPlace(t *testing.T) {
	a := mustSlice(t, 2, 2, 1, 2, 3, 4)
	require.NoError(t, a.AddInPlace(mustSlice(t, 1, 2, 1, 1)))
	assert.Equal(t, []float32{2, 3, 4, 5}, a.Data)

	require.NoError(t, a.AddInPlace(Full(2, 2, 1)))
	assert.Equal(t, []float32{3, 4, 5, 6}, a.Data)

	assert.ErrorIs(t, a.AddInPlace(New(3, 2)), ErrShape)

	a.ScaleInPlace(2)
	assert.Equal(t, []float32{6, 8, 10, 12}, a.Data)

	a.Zero()
	assert.Equal(t, []float32{0, 0, 0, 0}, a.Data)
}

func TestCopyFrom(t *testing.T) {
	dst := New(1, 2)
	backing := dst.Data
	require.NoError(t, dst.CopyFrom(FromVector([]float32{3, 4})))
	assert.Equal(t, []float32{3, 4}, backing)
	assert.ErrorIs(t, dst.CopyFrom(New(2, 1)), ErrShape)
}

func TestRandnDeterministic(t *testing.T) {
	a := Randn(4, 4, 0, 1, NewRNG(DefaultSeed))
	b := Randn(4, 4, 0, 1, NewRNG(DefaultSeed))
	assert.Equal(t, a.Data, b.Data)

	c := Randn(4, 4, 0, 1, NewRNG(DefaultSeed+1))
	assert.NotEqual(t, a.Data, c.Data)
}

func TestRandnMoments(t *testing.T) {
	r := Randn(100, 100, 2, 0.5, NewRNG(3))
	data := make([]float64, r.Size())
	for i, v := range r.Data {
		data[i] = float64(v)
	}
	mean := floats.Sum(data) / float64(len(data))
	assert.InDelta(t, 2, mean, 0.05)
}

func TestSerializeRoundTrip(t *testing.T) {
	a := Randn(3, 7, 0, 1, NewRNG(5))

	var buf bytes.Buffer
	n, err := a.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(16+4*21), n)
	assert.Equal(t, int(n), buf.Len())

	b, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, a.Rows, b.Rows)
	assert.Equal(t, a.Cols, b.Cols)
	assert.Equal(t, a.Data, b.Data)
}

func TestReadTruncated(t *testing.T) {
	var buf bytes.Buffer
	_, err := Full(2, 2, 1).WriteTo(&buf)
	require.NoError(t, err)

	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-3])
	out, err := Read(truncated)
	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestShapeErrorMessage(t *testing.T) {
	_, err := MatMul(New(2, 3), New(4, 5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(2x3) x (4x5)")
	assert.Equal(t, ErrShape, errors.Cause(err))
}
