package tensor

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// MatMul returns a·b. a.Cols must equal b.Rows.
// Uses i,k,j loop order so the inner loop walks b and the result row by row.
func MatMul(a, b *Tensor) (*Tensor, error) {
	if a.Cols != b.Rows {
		return nil, errors.Wrapf(ErrShape, "matmul: %s x %s", a.dims(), b.dims())
	}

	out := New(a.Rows, b.Cols)
	n := b.Cols
	for i := 0; i < a.Rows; i++ {
		outRow := out.Data[i*n : (i+1)*n]
		aRow := a.Data[i*a.Cols : (i+1)*a.Cols]
		for k, aik := range aRow {
			bRow := b.Data[k*n : (k+1)*n]
			for j, bkj := range bRow {
				outRow[j] += aik * bkj
			}
		}
	}
	return out, nil
}

// Transpose returns aᵀ.
func Transpose(a *Tensor) *Tensor {
	out := New(a.Cols, a.Rows)
	for i := 0; i < a.Rows; i++ {
		for j := 0; j < a.Cols; j++ {
			out.Data[j*a.Rows+i] = a.Data[i*a.Cols+j]
		}
	}
	return out
}

// Add returns a+b. Identical shapes add elementwise; a single-row operand
// with a matching column count is broadcast across every row of the other.
func Add(a, b *Tensor) (*Tensor, error) {
	switch {
	case a.SameShape(b):
		out := New(a.Rows, a.Cols)
		for i := range out.Data {
			out.Data[i] = a.Data[i] + b.Data[i]
		}
		return out, nil
	case b.Rows == 1 && a.Cols == b.Cols:
		out := a.Clone()
		addRow(out, b.Data)
		return out, nil
	case a.Rows == 1 && a.Cols == b.Cols:
		out := b.Clone()
		addRow(out, a.Data)
		return out, nil
	}
	return nil, errors.Wrapf(ErrShape, "add: %s + %s", a.dims(), b.dims())
}

func addRow(t *Tensor, row []float32) {
	for i := 0; i < t.Rows; i++ {
		r := t.Data[i*t.Cols : (i+1)*t.Cols]
		for j := range r {
			r[j] += row[j]
		}
	}
}

// Sub returns a-b elementwise.
func Sub(a, b *Tensor) (*Tensor, error) {
	return zip("subtract", a, b, func(x, y float32) float32 { return x - y })
}

// Mul returns the elementwise (Hadamard) product of a and b.
func Mul(a, b *Tensor) (*Tensor, error) {
	return zip("multiply", a, b, func(x, y float32) float32 { return x * y })
}

// Div returns the elementwise quotient a/b.
func Div(a, b *Tensor) (*Tensor, error) {
	return zip("divide", a, b, func(x, y float32) float32 { return x / y })
}

func zip(op string, a, b *Tensor, f func(x, y float32) float32) (*Tensor, error) {
	if !a.SameShape(b) {
		return nil, errors.Wrapf(ErrShape, "%s: %s vs %s", op, a.dims(), b.dims())
	}
	out := New(a.Rows, a.Cols)
	for i := range out.Data {
		out.Data[i] = f(a.Data[i], b.Data[i])
	}
	return out, nil
}

// Scale returns a*s.
func Scale(a *Tensor, s float32) *Tensor {
	out := New(a.Rows, a.Cols)
	for i, v := range a.Data {
		out.Data[i] = v * s
	}
	return out
}

// Sqrt returns the elementwise square root. Negative inputs yield NaN.
func Sqrt(a *Tensor) *Tensor {
	return Apply(a, math32.Sqrt)
}

// Apply returns f mapped over every element of a.
func Apply(a *Tensor, f func(float32) float32) *Tensor {
	out := New(a.Rows, a.Cols)
	for i, v := range a.Data {
		out.Data[i] = f(v)
	}
	return out
}

// SumRows returns the 1 x a.Cols row of column sums.
func SumRows(a *Tensor) *Tensor {
	out := New(1, a.Cols)
	for i := 0; i < a.Rows; i++ {
		r := a.Data[i*a.Cols : (i+1)*a.Cols]
		for j, v := range r {
			out.Data[j] += v
		}
	}
	return out
}

// AddInPlace adds o to t, broadcasting o across rows when it is a single
// row with a matching column count.
func (t *Tensor) AddInPlace(o *Tensor) error {
	switch {
	case t.SameShape(o):
		for i, v := range o.Data {
			t.Data[i] += v
		}
	case o.Rows == 1 && t.Cols == o.Cols:
		addRow(t, o.Data)
	default:
		return errors.Wrapf(ErrShape, "add in place: %s += %s", t.dims(), o.dims())
	}
	return nil
}

// ScaleInPlace multiplies every element by s.
func (t *Tensor) ScaleInPlace(s float32) {
	for i := range t.Data {
		t.Data[i] *= s
	}
}

// Zero fills t with zeros.
func (t *Tensor) Zero() {
	clear(t.Data)
}
