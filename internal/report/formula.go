package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-latex/latex/drawtex/drawimg"
	"github.com/go-latex/latex/mtex"
)

// Rasterizer renders one formula's LaTeX source to PNG bytes. A failed
// render degrades that one formula to its source text in the report; it
// never aborts assembly.
type Rasterizer interface {
	Render(expr string) ([]byte, error)
}

// LatexRasterizer typesets math via go-latex's mtex engine.
type LatexRasterizer struct {
	Size float64 // font size in points
	DPI  float64
}

func NewLatexRasterizer() *LatexRasterizer {
	return &LatexRasterizer{Size: 14, DPI: 144}
}

func (r *LatexRasterizer) Render(expr string) (out []byte, err error) {
	// mtex panics on unsupported macros.
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("latex render: %v", p)
		}
	}()

	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("empty formula")
	}
	if !strings.HasPrefix(expr, "$") {
		expr = "$" + expr + "$"
	}

	var buf bytes.Buffer
	dst := drawimg.NewRenderer(&buf)
	if err := mtex.Render(dst, expr, r.Size, r.DPI, nil); err != nil {
		return nil, fmt.Errorf("render formula: %w", err)
	}
	return buf.Bytes(), nil
}

// NullRasterizer always fails, forcing the textual fallback path. Test tool.
type NullRasterizer struct{}

func (NullRasterizer) Render(string) ([]byte, error) {
	return nil, errors.New("rasterization disabled")
}
