package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/deepspec/deepspec/constants"
	"github.com/deepspec/deepspec/internal/common"
	"github.com/deepspec/deepspec/internal/ingest"
	"github.com/deepspec/deepspec/internal/llm"
	"github.com/deepspec/deepspec/internal/llm/openai"
	"github.com/deepspec/deepspec/internal/pdf"
	"github.com/deepspec/deepspec/internal/report"
	"github.com/deepspec/deepspec/internal/review"
	"github.com/deepspec/deepspec/internal/store"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		dir  = flag.String("dir", "", "directory of PDF papers to process (required)")
		out  = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		role = flag.String("role", "", "expert role: "+strings.Join(constants.Roles(), ", "))
		mode = flag.String("mode", "", "analysis mode: "+strings.Join(constants.Modes(), ", "))
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		parentDir := filepath.Dir(*dir)
		*out = filepath.Join(parentDir, "literature-matrix.xlsx")
	}

	if _, ok := constants.CanonicalizeRole(*role); *role != "" && !ok {
		printError("Error: unknown --role %q\n", *role)
		os.Exit(1)
	}
	if _, ok := constants.CanonicalizeMode(*mode); *mode != "" && !ok {
		printError("Error: unknown --mode %q\n", *mode)
		os.Exit(1)
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Extraction adapter (graceful if no credentials)
	var extractor llm.FieldExtractor
	if cfg.LLM.APIKey != "" {
		extractor = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			Lenient:     true,
		}, logger)
		logger.Info("extraction client initialized", "model", cfg.LLM.Model)
	} else {
		extractor = llm.MockExtractor{}
		logger.Warn("no API key configured, using mock extraction")
	}

	st := store.New()
	machine := review.NewMachine(st, extractor, func(data []byte) (review.PageSource, error) {
		return pdf.Open(data)
	}, review.Config{
		PageWindow: cfg.Extract.PageWindow,
		CallDelay:  cfg.Extract.CallDelay,
	}, logger)

	// Load every PDF under the directory.
	results, stats, err := ingest.IngestDirectory(st, *dir, logger)
	if err != nil {
		logger.Error("failed to ingest directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	var ids []string
	for _, res := range results {
		if res.Err == "" {
			ids = append(ids, res.ID)
		} else {
			logger.Error("failed to load file", "path", res.Path, "error", res.Err)
		}
	}
	if len(ids) == 0 {
		printError("Error: no PDF files found in %s\n", *dir)
		os.Exit(1)
	}
	logger.Info("papers loaded", "count", len(ids), "scanned", stats.Scanned, "dir", *dir)

	// Extract everything, then commit the extracted fields unedited. Batch
	// mode has no reviewer in the loop; fallback records are committed too so
	// the report shows which papers need a manual pass.
	outcomes := machine.StartExtractionBatch(ctx, ids, *role, *mode)
	extracted := 0
	fallbacks := 0
	for _, o := range outcomes {
		switch o.Status {
		case constants.DocStatusExtracted:
			extracted++
		case constants.DocStatusExtractedFallback:
			fallbacks++
			logger.Warn("extraction fell back", "id", o.ID, "error", o.Err)
		}
	}

	committed := 0
	for _, id := range ids {
		doc, err := st.Get(id)
		if err != nil || doc.Fields == nil {
			continue
		}
		if err := machine.CommitReview(id, *doc.Fields); err != nil {
			logger.Error("failed to commit", "id", id, "error", err)
			continue
		}
		committed++
	}

	assembler := report.NewAssembler(cfg.Report.Title, report.NewLatexRasterizer(), logger)
	assembler.FigureWidth = cfg.Report.FigureWidthPx

	rows := make([]report.Row, 0, committed)
	for _, doc := range st.Reviewed() {
		row := report.Row{Figure: doc.SelectedFigure}
		if doc.Fields != nil {
			row.Fields = *doc.Fields
		}
		rows = append(rows, row)
	}

	logger.Info("exporting to XLSX", "output", *out)
	xlsxBytes, err := assembler.Assemble(rows)
	if err != nil {
		logger.Error("failed to assemble report", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"papers", len(ids),
		"extracted", extracted,
		"fallbacks", fallbacks,
		"committed", committed,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Papers: %d\n", len(ids))
	fmt.Printf("- Extracted: %d\n", extracted)
	fmt.Printf("- Fallbacks: %d\n", fallbacks)
	fmt.Printf("- Output: %s\n", *out)
}
