package net

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/FlavioCFOliveira/imgae/internal/layer"
	"github.com/FlavioCFOliveira/imgae/internal/tensor"
	"github.com/pkg/errors"
)

var (
	// ErrIO wraps failures to open, read or write persistent storage.
	ErrIO = errors.New("model i/o")

	// ErrModelMismatch is returned when a stored parameter count or shape
	// disagrees with the model being loaded.
	ErrModelMismatch = errors.New("model structure mismatch")
)

// IsIOError reports whether err belongs to the persistence error family.
func IsIOError(err error) bool {
	return errors.Is(err, ErrIO) || errors.Is(err, ErrModelMismatch)
}

// SaveParameters writes the parameter values to w: a little-endian uint64
// count followed by one tensor block ([rows][cols][rows*cols float32]) per
// parameter, in list order.
func SaveParameters(w io.Writer, params []layer.Parameter) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(params))); err != nil {
		return errors.Wrapf(ErrIO, "write parameter count: %v", err)
	}
	for i, p := range params {
		if _, err := p.Value.WriteTo(w); err != nil {
			return errors.Wrapf(ErrIO, "write parameter %d (%s): %v", i, p.Name, err)
		}
	}
	return nil
}

// LoadParameters reads values written by SaveParameters into params.
// The stored count and every shape must match params exactly. The whole
// stream is decoded and validated before any parameter is overwritten, so
// a failed load leaves params untouched.
func LoadParameters(r io.Reader, params []layer.Parameter) error {
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return errors.Wrapf(ErrIO, "read parameter count: %v", err)
	}
	if count != uint64(len(params)) {
		return errors.Wrapf(ErrModelMismatch, "file has %d parameters, model has %d", count, len(params))
	}

	staged := make([]*tensor.Tensor, len(params))
	for i, p := range params {
		t, err := tensor.Read(r)
		if err != nil {
			return errors.Wrapf(ErrIO, "read parameter %d (%s): %v", i, p.Name, err)
		}
		if !t.SameShape(p.Value) {
			return errors.Wrapf(ErrModelMismatch, "parameter %d (%s): file (%dx%d), model (%dx%d)",
				i, p.Name, t.Rows, t.Cols, p.Value.Rows, p.Value.Cols)
		}
		staged[i] = t
	}

	for i, p := range params {
		copy(p.Value.Data, staged[i].Data)
	}
	return nil
}

// SaveFile writes params to the file at path, replacing it.
func SaveFile(path string, params []layer.Parameter) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(ErrIO, "create %s: %v", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(ErrIO, "close %s: %v", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := SaveParameters(w, params); err != nil {
		return errors.Wrap(err, path)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(ErrIO, "flush %s: %v", path, err)
	}
	return nil
}

// LoadFile reads params from the file at path.
func LoadFile(path string, params []layer.Parameter) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(ErrIO, "open %s: %v", path, err)
	}
	defer f.Close()

	if err := LoadParameters(bufio.NewReader(f), params); err != nil {
		return errors.Wrap(err, path)
	}
	return nil
}
