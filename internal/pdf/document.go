// Package pdf wraps an uploaded PDF byte stream behind the access boundary
// the workbench consumes: page count, per-page text, per-page raster and
// embedded images. Text comes from ledongthuc/pdf, images from pdfcpu.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpulib "github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/deepspec/deepspec/internal/common"
	"github.com/deepspec/deepspec/internal/imaging"
)

// NoTextPlaceholder is returned for pages without extractable text.
const NoTextPlaceholder = "(no extractable text on this page)"

// Document is one opened PDF. Pages are 1-indexed everywhere.
type Document struct {
	reader *lpdf.Reader
	ctx    *model.Context
	pages  int
}

// Open parses the byte stream with both backends. Either backend rejecting
// the stream fails the open; there is no partially usable document.
func Open(data []byte) (*Document, error) {
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return &Document{reader: r, ctx: ctx, pages: r.NumPage()}, nil
}

func (d *Document) PageCount() int { return d.pages }

// TextOfPage returns the page's plain text, or NoTextPlaceholder when the
// page has none. Page extraction errors are treated as "no text", not as
// failures; scanned pages are common.
func (d *Document) TextOfPage(page int) (string, error) {
	if err := d.checkPage(page); err != nil {
		return "", err
	}
	p := d.reader.Page(page)
	if p.V.IsNull() {
		return NoTextPlaceholder, nil
	}
	text, err := p.GetPlainText(nil)
	if err != nil || strings.TrimSpace(text) == "" {
		return NoTextPlaceholder, nil
	}
	return text, nil
}

// EmbeddedImagesOfPage decodes the page's image XObjects in stable object
// order. Images that fail to decode are skipped.
func (d *Document) EmbeddedImagesOfPage(page int) ([]*imaging.Image, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	imgs, err := pdfcpulib.ExtractPageImages(d.ctx, page, false)
	if err != nil {
		return nil, fmt.Errorf("extract page %d images: %w", page, err)
	}

	objNrs := make([]int, 0, len(imgs))
	for nr := range imgs {
		objNrs = append(objNrs, nr)
	}
	sort.Ints(objNrs)

	out := make([]*imaging.Image, 0, len(imgs))
	for _, nr := range objNrs {
		data, err := io.ReadAll(imgs[nr])
		if err != nil {
			continue
		}
		decoded, err := imaging.Decode(data)
		if err != nil {
			continue
		}
		out = append(out, decoded)
	}
	return out, nil
}

// RasterOfPage returns the page's dominant raster: the largest embedded
// image by pixel area. Nil (with nil error) when the page carries no
// decodable image; a pure-Go toolchain has no full page rasterizer.
func (d *Document) RasterOfPage(page int) (*imaging.Image, error) {
	imgs, err := d.EmbeddedImagesOfPage(page)
	if err != nil {
		return nil, err
	}
	var best *imaging.Image
	for _, img := range imgs {
		if best == nil || img.Width()*img.Height() > best.Width()*best.Height() {
			best = img
		}
	}
	return best, nil
}

func (d *Document) checkPage(page int) error {
	if page < 1 || page > d.pages {
		return fmt.Errorf("%w: page %d of %d", common.ErrOutOfRange, page, d.pages)
	}
	return nil
}
