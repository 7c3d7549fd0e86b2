// Package tensor provides a dense row-major float32 matrix and the math
// primitives the layers are built on.
package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrShape is returned whenever operand dimensions are incompatible.
var ErrShape = errors.New("shape mismatch")

// Tensor is a 2-D dense matrix stored in row-major order.
// len(Data) is always Rows*Cols.
type Tensor struct {
	Rows int
	Cols int
	Data []float32
}

// New creates a zero-filled rows x cols tensor.
func New(rows, cols int) *Tensor {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("tensor: negative dimensions (%d, %d)", rows, cols))
	}
	return &Tensor{
		Rows: rows,
		Cols: cols,
		Data: make([]float32, rows*cols),
	}
}

// Zeros creates a zero-filled rows x cols tensor.
func Zeros(rows, cols int) *Tensor {
	return New(rows, cols)
}

// Full creates a rows x cols tensor with every element set to v.
func Full(rows, cols int, v float32) *Tensor {
	t := New(rows, cols)
	for i := range t.Data {
		t.Data[i] = v
	}
	return t
}

// FromSlice creates a rows x cols tensor holding a copy of data.
func FromSlice(rows, cols int, data []float32) (*Tensor, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, errors.Wrapf(ErrShape, "from slice: %d values for (%dx%d)", len(data), rows, cols)
	}
	t := New(rows, cols)
	copy(t.Data, data)
	return t, nil
}

// FromVector creates a 1 x len(data) row vector holding a copy of data.
func FromVector(data []float32) *Tensor {
	t := New(1, len(data))
	copy(t.Data, data)
	return t
}

// At returns the element at (r, c).
func (t *Tensor) At(r, c int) float32 {
	return t.Data[r*t.Cols+c]
}

// Set sets the element at (r, c).
func (t *Tensor) Set(r, c int, v float32) {
	t.Data[r*t.Cols+c] = v
}

// Size returns the number of elements.
func (t *Tensor) Size() int {
	return len(t.Data)
}

// Shape returns (rows, cols).
func (t *Tensor) Shape() (int, int) {
	return t.Rows, t.Cols
}

// SameShape reports whether t and o have identical dimensions.
func (t *Tensor) SameShape(o *Tensor) bool {
	return t.Rows == o.Rows && t.Cols == o.Cols
}

// Clone returns a deep copy of t.
func (t *Tensor) Clone() *Tensor {
	c := New(t.Rows, t.Cols)
	copy(c.Data, t.Data)
	return c
}

// CopyFrom overwrites t's elements with src's, keeping t's storage.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !t.SameShape(src) {
		return errors.Wrapf(ErrShape, "copy: %s <- %s", t.dims(), src.dims())
	}
	copy(t.Data, src.Data)
	return nil
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%s%v", t.dims(), t.Data)
}

func (t *Tensor) dims() string {
	return fmt.Sprintf("(%dx%d)", t.Rows, t.Cols)
}
