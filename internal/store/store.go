// Package store is the in-memory Document Store: a mapping from document ID
// (filename-derived) to its record, plus upload order. One Store belongs to
// one logical session; it is constructed and torn down with it and is not a
// process-level global. Records are never evicted implicitly.
package store

import (
	"fmt"

	"github.com/deepspec/deepspec/constants"
	"github.com/deepspec/deepspec/internal/common"
	"github.com/deepspec/deepspec/internal/entity"
)

// Store owns all mutable workflow state for one session.
type Store struct {
	docs  map[string]*entity.Document
	order []string

	// revision increases on every review commit so a cached rendered report
	// can be invalidated without comparing record contents.
	revision uint64
}

func New() *Store {
	return &Store{docs: make(map[string]*entity.Document)}
}

// Add registers a new pending record. IDs must be unique within the store.
func (s *Store) Add(id string, source []byte) (*entity.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty document id", common.ErrInvalidInput)
	}
	if _, ok := s.docs[id]; ok {
		return nil, fmt.Errorf("%w: %q", common.ErrDuplicateID, id)
	}
	doc := entity.NewDocument(id, source)
	s.docs[id] = doc
	s.order = append(s.order, id)
	return doc, nil
}

func (s *Store) Get(id string) (*entity.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrNotFound, id)
	}
	return doc, nil
}

func (s *Store) Len() int { return len(s.order) }

// List returns all records in upload order.
func (s *Store) List() []*entity.Document {
	out := make([]*entity.Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.docs[id])
	}
	return out
}

// Reviewed returns the reviewed records in upload order. This is the input
// sequence the report assembler consumes; it is never re-sorted.
func (s *Store) Reviewed() []*entity.Document {
	var out []*entity.Document
	for _, id := range s.order {
		if doc := s.docs[id]; doc.Status == constants.DocStatusReviewed {
			out = append(out, doc)
		}
	}
	return out
}

// PendingIDs returns the IDs still awaiting extraction, in upload order.
func (s *Store) PendingIDs() []string {
	var out []string
	for _, id := range s.order {
		if s.docs[id].Status == constants.DocStatusPending {
			out = append(out, id)
		}
	}
	return out
}

// Revision identifies the current review state; it changes on every commit.
func (s *Store) Revision() uint64 { return s.revision }

// BumpRevision invalidates anything cached against the previous revision.
func (s *Store) BumpRevision() uint64 {
	s.revision++
	return s.revision
}
