package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepspec/deepspec/internal/common"
)

// checkered returns a small image with a distinct pixel per coordinate so
// crops are position-verifiable.
func checkered(w, h int) *Image {
	img := New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, uint8(x), uint8(y), uint8(x+y), 255)
		}
	}
	return img
}

func TestCrop_FullBoundsIsIdentity(t *testing.T) {
	src := checkered(8, 6)

	got, err := src.Crop(Rect{X: 0, Y: 0, W: 8, H: 6})
	require.NoError(t, err)

	assert.True(t, got.Equal(src))
}

func TestCrop_InteriorRegion(t *testing.T) {
	src := checkered(8, 6)

	got, err := src.Crop(Rect{X: 2, Y: 1, W: 3, H: 4})
	require.NoError(t, err)

	assert.Equal(t, 3, got.Width())
	assert.Equal(t, 4, got.Height())
	// Pixel (0,0) of the crop is pixel (2,1) of the source.
	assert.Equal(t, uint8(2), got.bm.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(1), got.bm.RGBAAt(0, 0).G)
}

func TestCrop_ClipsPartialOverlap(t *testing.T) {
	src := checkered(8, 6)

	got, err := src.Crop(Rect{X: 6, Y: 4, W: 10, H: 10})
	require.NoError(t, err)

	assert.Equal(t, 2, got.Width())
	assert.Equal(t, 2, got.Height())
}

func TestCrop_DegenerateRejected(t *testing.T) {
	src := checkered(4, 4)

	tests := []struct {
		name string
		rect Rect
	}{
		{"zero width", Rect{X: 1, Y: 1, W: 0, H: 2}},
		{"zero height", Rect{X: 1, Y: 1, W: 2, H: 0}},
		{"negative size", Rect{X: 0, Y: 0, W: -1, H: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := src.Crop(tt.rect)
			assert.ErrorIs(t, err, common.ErrEmptyRegion)
		})
	}
}

func TestCrop_FullyOutsideRejected(t *testing.T) {
	src := checkered(4, 4)

	_, err := src.Crop(Rect{X: 10, Y: 10, W: 2, H: 2})
	assert.ErrorIs(t, err, common.ErrOutOfRange)
}

func TestCrop_SourceNotMutated(t *testing.T) {
	src := checkered(8, 6)
	before, err := src.EncodePNG()
	require.NoError(t, err)

	cropped, err := src.Crop(Rect{X: 1, Y: 1, W: 3, H: 3})
	require.NoError(t, err)
	cropped.Set(0, 0, 255, 255, 255, 255)

	after, err := src.EncodePNG()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDecode_RoundTripThroughPNG(t *testing.T) {
	src := checkered(5, 3)
	data, err := src.EncodePNG()
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, got.Equal(src))
}

func TestDecode_GarbageRejected(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	assert.Error(t, err)
}
