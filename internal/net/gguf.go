package net

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/FlavioCFOliveira/imgae/internal/layer"
	"github.com/pkg/errors"
)

// GGUF Constants
const (
	GGUFMagic   = 0x46554747 // "GGUF" in little-endian
	GGUFVersion = 3

	ggufAlignment = 32
)

// GGUF Value Types
type GGUFType uint32

const (
	GGUFTypeUint8   GGUFType = 0
	GGUFTypeInt8    GGUFType = 1
	GGUFTypeUint16  GGUFType = 2
	GGUFTypeInt16   GGUFType = 3
	GGUFTypeUint32  GGUFType = 4
	GGUFTypeInt32   GGUFType = 5
	GGUFTypeFloat32 GGUFType = 6
	GGUFTypeBool    GGUFType = 7
	GGUFTypeString  GGUFType = 8
	GGUFTypeArray   GGUFType = 9
	GGUFTypeUint64  GGUFType = 10
	GGUFTypeInt64   GGUFType = 11
	GGUFTypeFloat64 GGUFType = 12
)

// GGML Tensor Types
type GGMLType uint32

const (
	GGMLTypeF32 GGMLType = 0
	GGMLTypeF16 GGMLType = 1
)

// bytesPerElement returns the storage width of an element of type t.
func (t GGMLType) bytesPerElement() (uint64, error) {
	switch t {
	case GGMLTypeF32:
		return 4, nil
	case GGMLTypeF16:
		return 2, nil
	default:
		return 0, errors.Errorf("unsupported GGML tensor type %d", t)
	}
}

// GGUFWriter helps writing GGUF files and tracks the number of bytes written.
type GGUFWriter struct {
	w         io.Writer
	n         uint64
	alignment uint64
}

func NewGGUFWriter(w io.Writer) *GGUFWriter {
	return &GGUFWriter{
		w:         w,
		alignment: ggufAlignment,
	}
}

func (gw *GGUFWriter) Write(p []byte) (int, error) {
	n, err := gw.w.Write(p)
	gw.n += uint64(n)
	return n, err
}

func (gw *GGUFWriter) put(v any) error {
	return binary.Write(gw, binary.LittleEndian, v)
}

func (gw *GGUFWriter) WriteHeader(kvCount, tensorCount uint64) error {
	if err := gw.put(uint32(GGUFMagic)); err != nil {
		return err
	}
	if err := gw.put(uint32(GGUFVersion)); err != nil {
		return err
	}
	if err := gw.put(tensorCount); err != nil {
		return err
	}
	return gw.put(kvCount)
}

func (gw *GGUFWriter) WriteString(s string) error {
	if err := gw.put(uint64(len(s))); err != nil {
		return err
	}
	_, err := gw.Write([]byte(s))
	return err
}

func (gw *GGUFWriter) WriteKV(key string, valType GGUFType, value any) error {
	if err := gw.WriteString(key); err != nil {
		return err
	}
	if err := gw.put(uint32(valType)); err != nil {
		return err
	}

	switch valType {
	case GGUFTypeUint8, GGUFTypeInt8, GGUFTypeUint16, GGUFTypeInt16,
		GGUFTypeUint32, GGUFTypeInt32, GGUFTypeFloat32,
		GGUFTypeUint64, GGUFTypeInt64, GGUFTypeFloat64:
		return gw.put(value)
	case GGUFTypeBool:
		var b uint8
		if value.(bool) {
			b = 1
		}
		return gw.put(b)
	case GGUFTypeString:
		return gw.WriteString(value.(string))
	default:
		return errors.Errorf("unsupported GGUF type: %v", valType)
	}
}

func (gw *GGUFWriter) WriteTensorInfo(name string, shape []uint64, ggmlType GGMLType, offset uint64) error {
	if err := gw.WriteString(name); err != nil {
		return err
	}
	rank := uint32(len(shape))
	if err := gw.put(rank); err != nil {
		return err
	}
	// GGUF dimensions are in reverse order (last dimension first)
	for i := int(rank) - 1; i >= 0; i-- {
		if err := gw.put(shape[i]); err != nil {
			return err
		}
	}
	if err := gw.put(uint32(ggmlType)); err != nil {
		return err
	}
	return gw.put(offset)
}

// Pad writes zero bytes up to the next alignment boundary.
func (gw *GGUFWriter) Pad() error {
	rem := gw.n % gw.alignment
	if rem == 0 {
		return nil
	}
	_, err := gw.Write(make([]byte, gw.alignment-rem))
	return err
}

func alignUp(n, alignment uint64) uint64 {
	return (n + alignment - 1) / alignment * alignment
}

// WriteGGUF exports params as a GGUF v3 file: general metadata, one tensor
// info per parameter, then the aligned tensor data encoded as ggmlType.
func WriteGGUF(w io.Writer, arch string, params []layer.Parameter, ggmlType GGMLType) error {
	width, err := ggmlType.bytesPerElement()
	if err != nil {
		return err
	}

	gw := NewGGUFWriter(w)
	kvs := []struct {
		key   string
		typ   GGUFType
		value any
	}{
		{"general.architecture", GGUFTypeString, arch},
		{"general.alignment", GGUFTypeUint32, uint32(gw.alignment)},
		{"general.file_type", GGUFTypeUint32, uint32(ggmlType)},
		{arch + ".parameter_count", GGUFTypeUint64, uint64(layer.CountParameters(params))},
	}

	if err := gw.WriteHeader(uint64(len(kvs)), uint64(len(params))); err != nil {
		return errors.Wrap(err, "gguf header")
	}
	for _, kv := range kvs {
		if err := gw.WriteKV(kv.key, kv.typ, kv.value); err != nil {
			return errors.Wrapf(err, "gguf metadata %s", kv.key)
		}
	}

	var offset uint64
	for _, p := range params {
		shape := []uint64{uint64(p.Value.Rows), uint64(p.Value.Cols)}
		if err := gw.WriteTensorInfo(p.Name, shape, ggmlType, offset); err != nil {
			return errors.Wrapf(err, "gguf tensor info %s", p.Name)
		}
		offset = alignUp(offset+uint64(p.Size())*width, gw.alignment)
	}

	for _, p := range params {
		if err := gw.Pad(); err != nil {
			return errors.Wrap(err, "gguf padding")
		}
		var err error
		if ggmlType == GGMLTypeF16 {
			half := make([]uint16, p.Size())
			for i, v := range p.Value.Data {
				half[i] = Float32ToFloat16(v)
			}
			err = gw.put(half)
		} else {
			err = gw.put(p.Value.Data)
		}
		if err != nil {
			return errors.Wrapf(err, "gguf tensor data %s", p.Name)
		}
	}
	return nil
}

// SaveGGUF writes a GGUF export of params to path.
func SaveGGUF(path, arch string, params []layer.Parameter, ggmlType GGMLType) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(ErrIO, "create %s: %v", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(ErrIO, "close %s: %v", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := WriteGGUF(bw, arch, params, ggmlType); err != nil {
		return errors.Wrapf(ErrIO, "%s: %v", path, err)
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrapf(ErrIO, "flush %s: %v", path, err)
	}
	return nil
}

// Float32ToFloat16 converts a float32 to float16 (represented as uint16)
func Float32ToFloat16(f float32) uint16 {
	bits := math.Float32bits(f)
	s := uint16((bits >> 16) & 0x8000)
	e := int16((bits >> 23) & 0xFF)
	m := bits & 0x7FFFFF

	if e == 0 {
		// Zero or denormal
		return s
	} else if e == 0xFF {
		// Inf or NaN
		if m == 0 {
			return s | 0x7C00
		}
		return s | 0x7C00 | uint16(m>>13) | 1
	}

	e -= 127 - 15
	if e >= 31 {
		// Overflow to Inf
		return s | 0x7C00
	} else if e <= 0 {
		// Underflow to denormal or zero
		if e < -10 {
			return s
		}
		m |= 0x800000
		m >>= uint32(1 - e)
		return s | uint16(m>>13)
	}

	return s | uint16(e<<10) | uint16(m>>13)
}
