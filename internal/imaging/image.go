// Package imaging owns the single raster value type used across the
// workbench. Encoded bytes appear only at the two true boundaries: decoding
// PDF-adapter output and encoding for the report renderer; everything in
// between works on the decoded bitmap.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/tiff"

	"github.com/deepspec/deepspec/internal/common"
)

// Image is an owned, mutable-by-nobody raster. Operations return new values.
type Image struct {
	bm *image.RGBA
}

// Decode turns encoded bytes (PNG, JPEG, GIF, TIFF) into an owned Image.
func Decode(data []byte) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return FromImage(src), nil
}

// FromImage copies an arbitrary image.Image into an owned Image.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Image{bm: dst}
}

// New returns a blank image of the given size. Test helper, mostly.
func New(width, height int) *Image {
	return &Image{bm: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (i *Image) Width() int  { return i.bm.Bounds().Dx() }
func (i *Image) Height() int { return i.bm.Bounds().Dy() }

// Set writes one pixel. Used by tests to build recognizable fixtures.
func (i *Image) Set(x, y int, r, g, b, a uint8) {
	i.bm.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: a})
}

// EncodePNG produces the encoded form for the report-renderer boundary.
func (i *Image) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, i.bm); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Equal reports pixel identity between two images.
func (i *Image) Equal(other *Image) bool {
	if other == nil {
		return false
	}
	if i.Width() != other.Width() || i.Height() != other.Height() {
		return false
	}
	return bytes.Equal(i.bm.Pix, other.bm.Pix)
}

// Rect is a pixel-space rectangle with origin at the top-left corner.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Crop returns a new image containing exactly the pixels inside r, clipped
// to the source bounds. Degenerate rectangles are rejected; a rectangle
// fully outside the bounds is an out-of-range error. The source image is
// never mutated.
func (i *Image) Crop(r Rect) (*Image, error) {
	if r.W <= 0 || r.H <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", common.ErrEmptyRegion, r.W, r.H)
	}
	clip := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H).Intersect(i.bm.Bounds())
	if clip.Empty() {
		return nil, fmt.Errorf("%w: region (%d,%d)+%dx%d outside %dx%d image",
			common.ErrOutOfRange, r.X, r.Y, r.W, r.H, i.Width(), i.Height())
	}
	dst := image.NewRGBA(image.Rect(0, 0, clip.Dx(), clip.Dy()))
	draw.Draw(dst, dst.Bounds(), i.bm, clip.Min, draw.Src)
	return &Image{bm: dst}, nil
}
