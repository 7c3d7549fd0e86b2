package tensor

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// maxElements bounds the size a serialized header may claim.
const maxElements = 1 << 30

// headerSize is the byte size of the rows/cols header.
const headerSize = 16

// WriteTo writes rows and cols as little-endian uint64 followed by the
// row-major float32 data. It implements io.WriterTo.
func (t *Tensor) WriteTo(w io.Writer) (int64, error) {
	header := [2]uint64{uint64(t.Rows), uint64(t.Cols)}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return 0, errors.Wrap(err, "write tensor header")
	}
	if err := binary.Write(w, binary.LittleEndian, t.Data); err != nil {
		return headerSize, errors.Wrap(err, "write tensor data")
	}
	return headerSize + int64(4*len(t.Data)), nil
}

// Read decodes a tensor written by WriteTo. On error no tensor is returned.
func Read(r io.Reader) (*Tensor, error) {
	var header [2]uint64
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrap(err, "read tensor header")
	}
	rows, cols := header[0], header[1]
	if rows > maxElements || cols > maxElements || rows*cols > maxElements {
		return nil, errors.Errorf("read tensor: implausible shape (%dx%d)", rows, cols)
	}

	t := New(int(rows), int(cols))
	if err := binary.Read(r, binary.LittleEndian, t.Data); err != nil {
		return nil, errors.Wrapf(err, "read tensor data (%dx%d)", rows, cols)
	}
	return t, nil
}
