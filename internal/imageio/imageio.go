// Package imageio converts images to and from the flattened tensors the
// autoencoder trains on.
//
// A tensor holds one 64x64 RGB image as a (1, 12288) row in HWC order with
// values in [0, 1].
package imageio

import (
	"bufio"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/FlavioCFOliveira/imgae/internal/tensor"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	Size     = 64
	Channels = 3
	FlatSize = Size * Size * Channels
)

// ErrDecode is returned when an image cannot be read or decoded.
var ErrDecode = errors.New("image decode")

// Load reads and converts the image file at path.
func Load(path string) (*tensor.Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "open %s: %v", path, err)
	}
	defer f.Close()

	t, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return t, nil
}

// Decode reads a PNG, JPEG, GIF, BMP or WebP image, drops its alpha
// channel, resizes it to 64x64 with bilinear interpolation and returns it
// normalised to [0, 1].
func Decode(r io.Reader) (*tensor.Tensor, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "%v", err)
	}
	if src.Bounds().Empty() {
		return nil, errors.Wrapf(ErrDecode, "%s image has no pixels", format)
	}

	dst := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.BiLinear.Scale(dst, dst.Bounds(), opaque(src), src.Bounds(), draw.Src, nil)
	return fromRGBA(dst), nil
}

// opaque drops the alpha channel of straight-alpha images, keeping their
// colour values as stored. Premultiplied images are returned unchanged.
func opaque(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.NRGBA:
		pix := append([]uint8(nil), src.Pix...)
		for i := 3; i < len(pix); i += 4 {
			pix[i] = 0xff
		}
		return &image.NRGBA{Pix: pix, Stride: src.Stride, Rect: src.Rect}
	case *image.NRGBA64:
		pix := append([]uint8(nil), src.Pix...)
		for i := 6; i < len(pix); i += 8 {
			pix[i], pix[i+1] = 0xff, 0xff
		}
		return &image.NRGBA64{Pix: pix, Stride: src.Stride, Rect: src.Rect}
	case *image.Paletted:
		palette := make(color.Palette, len(src.Palette))
		for i, c := range src.Palette {
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			n.A = 0xff
			palette[i] = n
		}
		return &image.Paletted{Pix: src.Pix, Stride: src.Stride, Rect: src.Rect, Palette: palette}
	}
	return img
}

func fromRGBA(img *image.RGBA) *tensor.Tensor {
	t := tensor.New(1, FlatSize)
	i := 0
	for y := 0; y < Size; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < Size; x++ {
			px := row[x*4:]
			t.Data[i] = float32(px[0]) / 255
			t.Data[i+1] = float32(px[1]) / 255
			t.Data[i+2] = float32(px[2]) / 255
			i += Channels
		}
	}
	return t
}

// Save writes t as a 64x64 PNG to path.
func Save(t *tensor.Tensor, path string) (err error) {
	if err := checkSize(t); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()

	w := bufio.NewWriter(f)
	if err := Encode(w, t); err != nil {
		return errors.Wrap(err, path)
	}
	return errors.Wrapf(w.Flush(), "flush %s", path)
}

// Encode writes t as a 64x64 PNG. Values are clamped to [0, 1] and rounded
// to the nearest 8-bit level.
func Encode(w io.Writer, t *tensor.Tensor) error {
	if err := checkSize(t); err != nil {
		return err
	}
	img := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			i := (y*Size + x) * Channels
			img.SetNRGBA(x, y, color.NRGBA{
				R: toByte(t.Data[i]),
				G: toByte(t.Data[i+1]),
				B: toByte(t.Data[i+2]),
				A: 0xff,
			})
		}
	}
	return errors.Wrap(png.Encode(w, img), "png encode")
}

func checkSize(t *tensor.Tensor) error {
	if t == nil || t.Size() != FlatSize {
		n := 0
		if t != nil {
			n = t.Size()
		}
		return errors.Wrapf(tensor.ErrShape, "image tensor has %d values, want %d", n, FlatSize)
	}
	return nil
}

func toByte(v float32) uint8 {
	// NaN compares false both ways and maps to 0.
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}
