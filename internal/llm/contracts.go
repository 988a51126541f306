package llm

import (
	"context"
	"encoding/json"

	"github.com/deepspec/deepspec/internal/entity"
)

// ExtractRequest carries everything one extraction call needs.
type ExtractRequest struct {
	// Text is the paper text window, concatenated in page order.
	Text string
	// Role is an expert persona from constants.Roles(); it shifts emphasis.
	Role string
	// Mode is a detail level from constants.Modes(); it shifts depth.
	Mode string

	FilenameHint string
	CustomPrompt string
}

// FieldExtractor is the boundary the review machine depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (entity.PaperFields, []byte /*rawJSON*/, error)
}

// Placeholder is the deterministic field set substituted when an extraction
// call fails. Same editable contract as a successful extraction; the record
// carries EXTRACTED_FALLBACK so the reviewer knows to look closely.
func Placeholder() entity.PaperFields {
	return entity.PaperFields{
		Title:       "Extraction failed; title unavailable",
		Purpose:     "Automatic extraction failed for this paper. Fill in manually.",
		Conclusions: []string{"(no conclusions extracted)"},
		Parameters:  "(no parameters extracted)",
		Formulas:    []string{},
		PageSource:  "unknown",
	}
}

// MockExtractor returns a fixed structured record without any network call.
// Wired in when no API credentials are configured.
type MockExtractor struct{}

func (MockExtractor) ExtractFields(_ context.Context, _ ExtractRequest) (entity.PaperFields, []byte, error) {
	f := entity.PaperFields{
		Title:   "Achieving Uniform Proppant Distribution in Multi-Cluster Perforations (SPE-223571)",
		Purpose: "Study proppant distribution across perforation clusters with a CFD-EGM model to address toe-side bias.",
		Conclusions: []string{
			"The second-to-last cluster receives the highest proppant concentration",
			"Higher injection rates reduce settling at the bottom perforations",
			"Rotating perforation phasing from 90 to 70 degrees increases side-perforation intake",
		},
		Parameters: "• Mesh: tetrahedral + hexahedral, boundary-layer refinement\n" +
			"• Proppant: 40/70 mesh\n" +
			"• Rate: 70-120 bpm\n" +
			"• Viscosity: 10-50 cp\n" +
			"• Concentration: 0.5-2.0 ppg",
		Formulas: []string{
			`C_p = \frac{Q_p}{Q_f + Q_p} \times 100\%`,
			`\frac{\partial (\phi \rho)}{\partial t} + \nabla \cdot (\rho \mathbf{v}) = q`,
		},
		Comments:   "The meshing strategy is worth borrowing, in particular the refinement around branch fractures.",
		Tags:       "CFD, Proppant Transport, Perforation Efficiency",
		PageSource: "4, 6, 8",
	}
	raw, _ := json.Marshal(f)
	return f, raw, nil
}
