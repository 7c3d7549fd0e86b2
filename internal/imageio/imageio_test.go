package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FlavioCFOliveira/imgae/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func gradientTensor() *tensor.Tensor {
	t := tensor.New(1, FlatSize)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			i := (y*Size + x) * Channels
			t.Data[i] = float32(x) / (Size - 1)
			t.Data[i+1] = float32(y) / (Size - 1)
			t.Data[i+2] = float32(x+y) / (2 * (Size - 1))
		}
	}
	return t
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestEncodeLayoutAndRounding(t *testing.T) {
	src := tensor.Randn(1, FlatSize, 0.5, 0.2, tensor.NewRNG(1))
	for i, v := range src.Data {
		src.Data[i] = float32(math.Min(1, math.Max(0, float64(v))))
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, src))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, Size, Size), img.Bounds())

	for _, pt := range []image.Point{{0, 0}, {5, 3}, {63, 0}, {0, 63}, {63, 63}} {
		r, g, b, _ := img.At(pt.X, pt.Y).RGBA()
		i := (pt.Y*Size + pt.X) * Channels
		assert.InDelta(t, src.Data[i], float64(r>>8)/255, 0.5/255+1e-6)
		assert.InDelta(t, src.Data[i+1], float64(g>>8)/255, 0.5/255+1e-6)
		assert.InDelta(t, src.Data[i+2], float64(b>>8)/255, 0.5/255+1e-6)
	}
}

func TestEncodeClamps(t *testing.T) {
	src := tensor.New(1, FlatSize)
	src.Data[0] = -0.5
	src.Data[1] = 1.5
	src.Data[2] = float32(math.NaN())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, src))
	img, err := png.Decode(&buf)
	require.NoError(t, err)

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r>>8)
	assert.Equal(t, uint32(255), g>>8)
	assert.Equal(t, uint32(0), b>>8)
}

func TestEncodeRejectsWrongSize(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, tensor.New(1, 100))
	assert.ErrorIs(t, err, tensor.ErrShape)
	assert.Zero(t, buf.Len())

	err = Save(tensor.New(64, 64), filepath.Join(t.TempDir(), "out.png"))
	assert.ErrorIs(t, err, tensor.ErrShape)
}

func TestDecodeRoundTrip(t *testing.T) {
	src := gradientTensor()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, src))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Rows)
	assert.Equal(t, FlatSize, got.Cols)
	assert.InDeltaSlice(t, src.Data, got.Data, 2.0/255)
}

func TestDecodeResizes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(200, 120, color.RGBA{R: 255, G: 0, B: 128, A: 255})))

	got, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, FlatSize, got.Size())
	for i := 0; i < FlatSize; i += Channels {
		assert.InDelta(t, 1.0, got.Data[i], 2.0/255)
		assert.InDelta(t, 0.0, got.Data[i+1], 2.0/255)
		assert.InDelta(t, 128.0/255, got.Data[i+2], 2.0/255)
	}
}

func TestDecodeBMP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, solid(32, 32, color.RGBA{R: 0, G: 255, B: 0, A: 255})))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got.Data[0], 2.0/255)
	assert.InDelta(t, 1.0, got.Data[1], 2.0/255)
	assert.InDelta(t, 0.0, got.Data[2], 2.0/255)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(strings.NewReader("definitely not an image"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	src := gradientTensor()
	require.NoError(t, Save(src, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.InDeltaSlice(t, src.Data, got.Data, 2.0/255)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeDropsAlpha(t *testing.T) {
	tests := []struct {
		name string
		c    color.NRGBA
	}{
		{"transparent", color.NRGBA{R: 255, G: 128, B: 0, A: 0}},
		{"half transparent", color.NRGBA{R: 200, G: 100, B: 50, A: 128}},
		{"opaque", color.NRGBA{R: 10, G: 20, B: 30, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, Size, Size))
			for y := 0; y < Size; y++ {
				for x := 0; x < Size; x++ {
					img.SetNRGBA(x, y, tt.c)
				}
			}
			var buf bytes.Buffer
			require.NoError(t, png.Encode(&buf, img))

			got, err := Decode(&buf)
			require.NoError(t, err)
			for _, i := range []int{0, FlatSize / 2, FlatSize - Channels} {
				assert.InDelta(t, float64(tt.c.R)/255, got.Data[i], 1.0/255)
				assert.InDelta(t, float64(tt.c.G)/255, got.Data[i+1], 1.0/255)
				assert.InDelta(t, float64(tt.c.B)/255, got.Data[i+2], 1.0/255)
			}
		})
	}
}

func TestDecodeDropsAlphaOnResize(t *testing.T) {
	img := image.NewNRGBA64(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.SetNRGBA64(x, y, color.NRGBA64{R: 0xffff, G: 0x8080, B: 0, A: 0x1000})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.Data[0], 2.0/255)
	assert.InDelta(t, 128.0/255, got.Data[1], 2.0/255)
	assert.InDelta(t, 0.0, got.Data[2], 2.0/255)
}
