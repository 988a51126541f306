package entity

import (
	"github.com/deepspec/deepspec/constants"
	"github.com/deepspec/deepspec/internal/imaging"
)

// PaperFields is the reviewable payload extracted from one paper.
// Conclusions and Formulas are always ordered slices, never bare strings;
// numbering in the final report follows slice order.
type PaperFields struct {
	Title       string   `json:"title"`
	Purpose     string   `json:"purpose"`
	Conclusions []string `json:"conclusions"`
	Parameters  string   `json:"parameters"`
	Formulas    []string `json:"formulas"`
	Comments    string   `json:"comments,omitempty"`
	Tags        string   `json:"tags,omitempty"`
	PageSource  string   `json:"page_source,omitempty"`
}

// Normalized returns a copy with nil slices replaced by empty ones, so
// consumers never distinguish "absent" from "empty".
func (f PaperFields) Normalized() PaperFields {
	if f.Conclusions == nil {
		f.Conclusions = []string{}
	}
	if f.Formulas == nil {
		f.Formulas = []string{}
	}
	return f
}

// Document is one uploaded paper and all of its workflow state.
//
// Invariants:
//   - Status only moves forward: PENDING -> {EXTRACTED, EXTRACTED_FALLBACK}
//     -> REVIEWED. Re-editing a reviewed record keeps it REVIEWED.
//   - Fields is nil if and only if Status == PENDING.
//   - SelectedFigure holds at most one image; a new selection overwrites.
type Document struct {
	ID     string
	Status constants.DocStatus

	// Source holds the original PDF bytes. Owned exclusively by this record;
	// lifetime equals the record's lifetime.
	Source []byte

	Fields         *PaperFields
	SelectedFigure *imaging.Image

	// ErrorLog accumulates extraction failure messages. Append-only.
	ErrorLog []string
}

// NewDocument creates a pending record for freshly uploaded bytes.
func NewDocument(id string, source []byte) *Document {
	return &Document{
		ID:     id,
		Status: constants.DocStatusPending,
		Source: source,
	}
}
