// Package image decodes sprite assets into tightly packed RGBA8 pixels.
//
// PNG, JPEG and GIF come from the standard library; BMP, WebP and TIFF from
// golang.org/x/image. Every decoded image is converted to straight-alpha,
// row-major RGBA with no row padding, the layout textures are uploaded in.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"  // register BMP
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP
)

// Decode errors.
var (
	// ErrUnsupportedFormat is returned when the data is not in a registered format.
	ErrUnsupportedFormat = errors.New("image: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("image: empty data")

	// ErrEmptyImage is returned when a decoded image has no pixels.
	ErrEmptyImage = errors.New("image: zero-sized image")
)

// Pixels is a decoded image: Width*Height texels of straight-alpha RGBA8.
type Pixels struct {
	Width  uint32
	Height uint32
	Data   []byte
}

// Decoder turns encoded bytes into Pixels.
// The zero value decodes at the source size.
type Decoder struct {
	// MaxDimension caps the longer side of the result. Larger images are
	// scaled down with nearest-neighbor sampling, keeping their aspect
	// ratio. Zero disables the cap.
	MaxDimension int
}

// Decode decodes data with the zero Decoder.
func Decode(data []byte) (*Pixels, error) {
	return Decoder{}.Decode(data)
}

// Decode auto-detects the format of data and returns its pixels.
func (d Decoder) Decode(data []byte) (*Pixels, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("image: decode: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s", ErrEmptyImage, format)
	}
	return d.pixels(img), nil
}

// DecodeFile reads and decodes the file at path.
func (d Decoder) DecodeFile(path string) (*Pixels, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("image: read file: %w", err)
	}
	return d.Decode(data)
}

func (d Decoder) pixels(img image.Image) *Pixels {
	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), d.MaxDimension)
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		return fromNRGBA(dst)
	}
	return FromStdImage(img)
}

// fit scales (w, h) so that neither side exceeds limit, keeping the aspect
// ratio and never producing a zero side.
func fit(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

// FromStdImage converts any image.Image into packed straight-alpha RGBA8.
func FromStdImage(img image.Image) *Pixels {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return fromNRGBA(nrgba)
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return fromNRGBA(dst)
}

func fromNRGBA(src *image.NRGBA) *Pixels {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	row := w * 4
	out := &Pixels{Width: uint32(w), Height: uint32(h), Data: make([]byte, row*h)}

	// Sub-images and padded strides are copied row by row.
	start := src.PixOffset(b.Min.X, b.Min.Y)
	if src.Stride == row {
		copy(out.Data, src.Pix[start:start+row*h])
		return out
	}
	for y := range h {
		off := start + y*src.Stride
		copy(out.Data[y*row:], src.Pix[off:off+row])
	}
	return out
}
