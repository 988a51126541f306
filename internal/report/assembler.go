// Package report deterministically renders the reviewed records into one
// downloadable XLSX workbook: a fixed title block and a single five-column
// table, one row per record in caller-supplied order.
package report

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/deepspec/deepspec/internal/entity"
	"github.com/deepspec/deepspec/internal/imaging"
)

// Row pairs one reviewed record's fields with its bound figure, if any.
type Row struct {
	Fields entity.PaperFields
	Figure *imaging.Image
}

const (
	sheetName = "Literature Matrix"

	// NoFigureMarker is emitted verbatim when a row has no bound figure.
	NoFigureMarker = "no figure"

	headerRowNr   = 4
	firstDataRow  = 5
	pxPerRowPoint = 0.75 // excel row heights are in points, pictures in px
)

var headers = []string{
	"Article",
	"Purpose & Conclusions",
	"Parameters, Formulas & Figure",
	"Comments",
	"Tags",
}

// Assembler builds the workbook. It never mutates its input rows; assembling
// the same sequence twice yields field-identical content, the generation
// timestamp being the only non-determinism (Now is injectable for tests).
type Assembler struct {
	Title       string
	FigureWidth int // max display width in px for embedded images
	Rasterizer  Rasterizer
	Now         func() time.Time
	Logger      *slog.Logger
}

func NewAssembler(title string, rasterizer Rasterizer, logger *slog.Logger) *Assembler {
	if title == "" {
		title = "SPE Literature Deep-Analysis Report"
	}
	if rasterizer == nil {
		rasterizer = NewLatexRasterizer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		Title:       title,
		FigureWidth: 360,
		Rasterizer:  rasterizer,
		Now:         time.Now,
		Logger:      logger,
	}
}

// Assemble renders the rows into XLSX bytes. Per-field render failures
// (formula rasterization, image embedding) degrade that one field to text;
// assembly itself never fails short of the workbook refusing to serialize.
func (a *Assembler) Assemble(rows []Row) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	a.writeTitleBlock(f)
	a.writeHeader(f)

	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	for i, row := range rows {
		rowNr := firstDataRow + i
		a.writeRow(f, rowNr, row)
		_ = f.SetCellStyle(sheetName,
			mustCell(1, rowNr), mustCell(len(headers), rowNr), wrapStyle)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 34)
	_ = f.SetColWidth(sheetName, "B", "B", 52)
	_ = f.SetColWidth(sheetName, "C", "C", 58)
	_ = f.SetColWidth(sheetName, "D", "D", 36)
	_ = f.SetColWidth(sheetName, "E", "E", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	a.Logger.Info("report.assemble.ok",
		"rows", len(rows),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (a *Assembler) writeTitleBlock(f *excelize.File) {
	_ = f.MergeCell(sheetName, "A1", "E1")
	_ = f.SetCellValue(sheetName, "A1", a.Title)
	_ = f.MergeCell(sheetName, "A2", "E2")
	_ = f.SetCellValue(sheetName, "A2",
		"Generated: "+a.Now().UTC().Format("2006-01-02 15:04 UTC"))
	_ = f.MergeCell(sheetName, "A3", "E3")
	_ = f.SetCellValue(sheetName, "A3",
		"Note: conclusions and parameters originate from the source papers; review before citing.")

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	}
}

func (a *Assembler) writeHeader(f *excelize.File) {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E7E6E6"}},
	})
	for i, h := range headers {
		cell := mustCell(i+1, headerRowNr)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	_ = f.SetCellStyle(sheetName,
		mustCell(1, headerRowNr), mustCell(len(headers), headerRowNr), headerStyle)
}

func (a *Assembler) writeRow(f *excelize.File, rowNr int, row Row) {
	fields := row.Fields

	_ = f.SetCellValue(sheetName, mustCell(1, rowNr), fields.Title)
	_ = f.SetCellValue(sheetName, mustCell(2, rowNr), buildPurposeCell(fields))

	text, pictures := a.buildDetailCell(fields, row.Figure)
	cell := mustCell(3, rowNr)
	_ = f.SetCellValue(sheetName, cell, text)

	yOffset := 0
	for _, pic := range pictures {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(pic))
		if err != nil {
			continue
		}
		scale := 1.0
		if cfg.Width > a.FigureWidth {
			scale = float64(a.FigureWidth) / float64(cfg.Width)
		}
		err = f.AddPictureFromBytes(sheetName, cell, &excelize.Picture{
			Extension: ".png",
			File:      pic,
			Format: &excelize.GraphicOptions{
				ScaleX:  scale,
				ScaleY:  scale,
				OffsetX: 4,
				OffsetY: yOffset + 4,
			},
		})
		if err != nil {
			continue
		}
		yOffset += int(float64(cfg.Height)*scale) + 8
	}
	if yOffset > 0 {
		// leave room for the stacked pictures beneath the cell text
		textLines := strings.Count(text, "\n") + 1
		height := float64(yOffset)*pxPerRowPoint + float64(textLines)*14
		_ = f.SetRowHeight(sheetName, rowNr, height)
	}

	_ = f.SetCellValue(sheetName, mustCell(4, rowNr), fields.Comments)
	_ = f.SetCellValue(sheetName, mustCell(5, rowNr), fields.Tags)
}

// buildPurposeCell renders the combined purpose/conclusions cell. The
// conclusion numbering is 1-based and follows stored order.
func buildPurposeCell(fields entity.PaperFields) string {
	var b strings.Builder
	if fields.PageSource != "" {
		fmt.Fprintf(&b, "[Source: pages %s]\n\n", fields.PageSource)
	}
	b.WriteString("Purpose:\n")
	b.WriteString(fields.Purpose)
	b.WriteString("\n\nConclusions:\n")
	for i, c := range fields.Conclusions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	return strings.TrimRight(b.String(), "\n")
}

// buildDetailCell renders the parameters/formulas/figure cell. Returns the
// cell text plus the PNGs to stack beneath it; each formula that fails to
// rasterize falls back to its LaTeX source inline.
func (a *Assembler) buildDetailCell(fields entity.PaperFields, figure *imaging.Image) (string, [][]byte) {
	var b strings.Builder
	var pictures [][]byte

	b.WriteString("Parameters:\n")
	b.WriteString(fields.Parameters)

	if len(fields.Formulas) > 0 {
		b.WriteString("\n\nFormulas:")
		for _, formula := range fields.Formulas {
			png, err := a.Rasterizer.Render(formula)
			if err != nil {
				a.Logger.Warn("report.formula.fallback", "formula", formula, "error", err)
				b.WriteString("\n")
				b.WriteString(formula)
				continue
			}
			pictures = append(pictures, png)
		}
	}

	b.WriteString("\n\nFigure:\n")
	if figure == nil {
		b.WriteString(NoFigureMarker)
	} else if png, err := figure.EncodePNG(); err != nil {
		a.Logger.Warn("report.figure.fallback", "error", err)
		b.WriteString("(figure could not be embedded)")
	} else {
		pictures = append(pictures, png)
	}

	return b.String(), pictures
}

func mustCell(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}
