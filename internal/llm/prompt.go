package llm

import (
	"strings"

	"github.com/deepspec/deepspec/constants"
)

// rolePrompts are the expert personas. They shift what the model pays
// attention to; the output schema never changes.
var rolePrompts = map[constants.Role]string{
	constants.RoleFracturing: "You are a leading expert in hydraulic fracturing. You know fracturing " +
		"fluids, proppants and fracture conductivity inside out. Pull out the key technical parameters, " +
		"experimental results and conclusions related to hydraulic fracturing.",
	constants.RoleReservoirSim: "You are a senior reservoir simulation expert, fluent in the common " +
		"simulators and their mathematical models. Pull out model parameters, grid setup, boundary " +
		"conditions, history-matching results and forecast analysis.",
	constants.RoleMachineLearn: "You are a machine learning expert working in petroleum engineering. " +
		"Pull out model architectures, training data, feature engineering, model performance and " +
		"application results.",
	constants.RoleGeneralist: "You are an experienced petroleum engineering researcher comfortable with " +
		"any kind of SPE paper. Pull out the research background, methods, key parameters, main " +
		"conclusions and practical value.",
}

// modeConfig tunes extraction depth per mode.
type modeConfig struct {
	Detail    string
	Focus     []string
	MaxChunks int // how many text chunks feed the call
}

var modeConfigs = map[constants.Mode]modeConfig{
	constants.ModeFast: {
		Detail:    "basic",
		Focus:     []string{"abstract", "conclusions", "key parameters"},
		MaxChunks: 1,
	},
	constants.ModeStandard: {
		Detail:    "standard",
		Focus:     []string{"abstract", "methods", "results", "conclusions", "key parameters", "figures"},
		MaxChunks: 2,
	},
	constants.ModeDeep: {
		Detail:    "detailed",
		Focus:     []string{"full text", "introduction", "methods", "results", "discussion", "conclusions", "appendix", "references"},
		MaxChunks: 3,
	},
}

// BuildSystemPrompt composes the system message: output contract, persona
// and detail level, plus any custom instruction.
func BuildSystemPrompt(req ExtractRequest) string {
	role, _ := constants.CanonicalizeRole(req.Role)
	mode, _ := constants.CanonicalizeMode(req.Mode)
	mc := modeConfigs[mode]

	parts := []string{
		"You are a literature-analysis assistant for petroleum engineering papers. " +
			"Return ONLY JSON that matches the provided JSON Schema; no prose, no markdown fences.",
		"Fields: 'title' (paper title), 'purpose' (what the study set out to do), " +
			"'conclusions' (list of the core findings, one finding per entry, in the paper's order), " +
			"'parameters' (bulleted plain text, one '• name: value unit' line per parameter), " +
			"'formulas' (list of LaTeX source strings for the governing equations), " +
			"'tags' (short comma-separated category labels), " +
			"'page_source' (comma-separated page numbers the content came from).",
		"Persona: " + rolePrompts[role],
		"Detail level: " + mc.Detail + ". Focus on: " + strings.Join(mc.Focus, ", ") + ".",
		"Never output null. If a field is not present, omit it.",
	}
	if p := strings.TrimSpace(req.CustomPrompt); p != "" {
		parts = append(parts, "Special instructions: "+p)
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the filename hint and the text window.
func BuildUserPrompt(req ExtractRequest, chunks []string) string {
	var b strings.Builder
	if name := strings.TrimSpace(req.FilenameHint); name != "" {
		b.WriteString("Filename: ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	b.WriteString("\nPaper text (leading pages, in page order):\n")
	for i, chunk := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(chunk)
	}
	return b.String()
}

const defaultChunkSize = 8000

// SplitText breaks long text into chunks at paragraph boundaries. No
// segmentation beyond that; a paragraph longer than chunkSize becomes its
// own chunk.
func SplitText(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	for _, para := range strings.Split(text, "\n\n") {
		if current.Len() > 0 && current.Len()+len(para) >= chunkSize {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(para)
		current.WriteString("\n\n")
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

// ChunkWindow returns the chunks the given mode is willing to spend on.
func ChunkWindow(text string, mode string) []string {
	m, _ := constants.CanonicalizeMode(mode)
	chunks := SplitText(text, defaultChunkSize)
	if max := modeConfigs[m].MaxChunks; len(chunks) > max {
		chunks = chunks[:max]
	}
	return chunks
}
