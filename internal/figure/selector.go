// Package figure derives at most one cropped evidence image per document
// record from a chosen page's full-page rendering.
package figure

import (
	"fmt"

	"github.com/deepspec/deepspec/constants"
	"github.com/deepspec/deepspec/internal/common"
	"github.com/deepspec/deepspec/internal/imaging"
	"github.com/deepspec/deepspec/internal/store"
)

// PageRasterer is the slice of the PDF boundary figure selection needs.
type PageRasterer interface {
	PageCount() int
	RasterOfPage(page int) (*imaging.Image, error)
}

// RenderPage returns the full-page raster for a 1-indexed page number.
func RenderPage(src PageRasterer, page int) (*imaging.Image, error) {
	if count := src.PageCount(); page < 1 || page > count {
		return nil, fmt.Errorf("%w: page %d of %d", common.ErrOutOfRange, page, count)
	}
	img, err := src.RasterOfPage(page)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("page %d has no raster image", page)
	}
	return img, nil
}

// SelectRegion crops rect out of a page raster. The source image is left
// untouched; degenerate and fully-out-of-bounds rectangles are rejected.
func SelectRegion(img *imaging.Image, rect imaging.Rect) (*imaging.Image, error) {
	return img.Crop(rect)
}

// BindToRecord overwrites the record's selected figure unconditionally; at
// most one bound image exists per record and no history is kept. A nil
// image clears the selection. Binding requires a non-pending record; the
// figure is otherwise independent of review status.
func BindToRecord(st *store.Store, id string, img *imaging.Image) error {
	doc, err := st.Get(id)
	if err != nil {
		return err
	}
	if doc.Status == constants.DocStatusPending {
		return fmt.Errorf("%w: bind figure on PENDING document %q", common.ErrInvalidState, id)
	}
	doc.SelectedFigure = img
	return nil
}
