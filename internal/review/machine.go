// Package review is the per-document state machine: it gates which
// operations are legal for a record's current status and performs the only
// two transitions, extraction (PENDING -> EXTRACTED or EXTRACTED_FALLBACK)
// and review commit (-> REVIEWED).
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deepspec/deepspec/constants"
	"github.com/deepspec/deepspec/internal/common"
	"github.com/deepspec/deepspec/internal/entity"
	"github.com/deepspec/deepspec/internal/llm"
	"github.com/deepspec/deepspec/internal/store"
)

// PageSource is the slice of the PDF boundary the machine needs.
type PageSource interface {
	PageCount() int
	TextOfPage(page int) (string, error)
}

// Opener turns a record's raw bytes into a readable page source.
type Opener func(data []byte) (PageSource, error)

// Config holds the machine's tunables.
type Config struct {
	// PageWindow is how many leading pages feed the extraction call.
	PageWindow int
	// CallDelay is the fixed pause between batch extraction calls. This is
	// the only rate limiting toward the extraction adapter.
	CallDelay time.Duration
}

const defaultPageWindow = 3

// Machine advances documents through the review workflow. One machine per
// store; operations run synchronously to completion.
type Machine struct {
	store     *store.Store
	extractor llm.FieldExtractor
	open      Opener
	cfg       Config
	logger    *slog.Logger
}

func NewMachine(st *store.Store, extractor llm.FieldExtractor, open Opener, cfg Config, logger *slog.Logger) *Machine {
	if cfg.PageWindow <= 0 {
		cfg.PageWindow = defaultPageWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{store: st, extractor: extractor, open: open, cfg: cfg, logger: logger}
}

// StartExtraction runs the extraction call for one pending record. The
// record always leaves PENDING: adapter failure of any kind (PDF open, page
// read, extraction call) substitutes the deterministic placeholder, appends
// the failure to the record's error log and lands on EXTRACTED_FALLBACK.
// Calling this on a non-pending record is a programming error and is
// rejected outright.
func (m *Machine) StartExtraction(ctx context.Context, id, role, mode string) error {
	doc, err := m.store.Get(id)
	if err != nil {
		return err
	}
	if doc.Status != constants.DocStatusPending {
		return fmt.Errorf("%w: start extraction on %s document %q", common.ErrInvalidState, doc.Status, id)
	}

	fields, err := m.extract(ctx, doc, role, mode)
	if err != nil {
		doc.ErrorLog = append(doc.ErrorLog, err.Error())
		placeholder := llm.Placeholder().Normalized()
		doc.Fields = &placeholder
		doc.Status = constants.DocStatusExtractedFallback
		m.logger.Warn("review.extract.fallback", "id", id, "role", role, "mode", mode, "error", err)
		return nil
	}

	normalized := fields.Normalized()
	doc.Fields = &normalized
	doc.Status = constants.DocStatusExtracted
	m.logger.Info("review.extract.ok",
		"id", id,
		"role", role,
		"mode", mode,
		"conclusions", len(normalized.Conclusions),
		"formulas", len(normalized.Formulas),
	)
	return nil
}

func (m *Machine) extract(ctx context.Context, doc *entity.Document, role, mode string) (entity.PaperFields, error) {
	text, err := m.sourceText(doc)
	if err != nil {
		return entity.PaperFields{}, err
	}
	fields, _, err := m.extractor.ExtractFields(ctx, llm.ExtractRequest{
		Text:         text,
		Role:         role,
		Mode:         mode,
		FilenameHint: doc.ID,
	})
	if err != nil {
		return entity.PaperFields{}, fmt.Errorf("extraction call: %w", err)
	}
	return fields, nil
}

// sourceText concatenates the first PageWindow pages' text in page order,
// with explicit page headers so page_source attribution has something to
// anchor on.
func (m *Machine) sourceText(doc *entity.Document) (string, error) {
	src, err := m.open(doc.Source)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	n := src.PageCount()
	if n > m.cfg.PageWindow {
		n = m.cfg.PageWindow
	}
	var b strings.Builder
	for page := 1; page <= n; page++ {
		text, err := src.TextOfPage(page)
		if err != nil {
			return "", fmt.Errorf("text of page %d: %w", page, err)
		}
		fmt.Fprintf(&b, "Page %d:\n%s\n\n", page, text)
	}
	return b.String(), nil
}

// Outcome is one record's result from a batch extraction run.
type Outcome struct {
	ID     string              `json:"id"`
	Status constants.DocStatus `json:"status"`
	Err    string              `json:"error,omitempty"`
}

// StartExtractionBatch processes each id sequentially and independently; one
// record's failure never aborts the rest. Records land on EXTRACTED or
// EXTRACTED_FALLBACK; precondition violations (unknown id, wrong state) are
// reported per item. A fixed delay separates consecutive calls.
func (m *Machine) StartExtractionBatch(ctx context.Context, ids []string, role, mode string) []Outcome {
	outcomes := make([]Outcome, 0, len(ids))
	for i, id := range ids {
		if i > 0 && m.cfg.CallDelay > 0 {
			time.Sleep(m.cfg.CallDelay)
		}
		o := Outcome{ID: id}
		if err := m.StartExtraction(ctx, id, role, mode); err != nil {
			o.Err = err.Error()
		}
		if doc, err := m.store.Get(id); err == nil {
			o.Status = doc.Status
			if o.Err == "" && doc.Status == constants.DocStatusExtractedFallback && len(doc.ErrorLog) > 0 {
				o.Err = doc.ErrorLog[len(doc.ErrorLog)-1]
			}
		}
		outcomes = append(outcomes, o)
	}
	m.logger.Info("review.extract_batch.done", "total", len(ids))
	return outcomes
}

// CommitReview replaces the record's fields wholesale and marks it REVIEWED.
// Idempotent: committing again stays REVIEWED with the newest fields. Any
// commit bumps the store revision, invalidating a cached rendered report.
// Committing a PENDING record is a programming error.
func (m *Machine) CommitReview(id string, fields entity.PaperFields) error {
	doc, err := m.store.Get(id)
	if err != nil {
		return err
	}
	if !doc.Status.Editable() {
		return fmt.Errorf("%w: commit review on %s document %q", common.ErrInvalidState, doc.Status, id)
	}
	normalized := fields.Normalized()
	doc.Fields = &normalized
	doc.Status = constants.DocStatusReviewed
	rev := m.store.BumpRevision()
	m.logger.Info("review.commit.ok", "id", id, "revision", rev)
	return nil
}
