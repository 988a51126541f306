// Package ingest loads papers from the local filesystem into a session
// store. Used by the batch CLI; the HTTP host takes uploads directly.
package ingest

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/deepspec/deepspec/internal/common"
	"github.com/deepspec/deepspec/internal/store"
)

// FileResult reports one file's ingestion outcome.
type FileResult struct {
	Path string
	ID   string
	Err  string
}

// DirStats aggregates one directory walk.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// IngestDirectory walks root, loads every *.pdf into the store and returns
// per-file results plus aggregate stats. Record IDs are base filenames, so
// two equally named files in different subdirectories collide; the second
// one is reported as a failure, matching the store's uniqueness rule.
func IngestDirectory(st *store.Store, root string, logger *slog.Logger) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
			return nil
		}
		stats.Matched++

		data, err := os.ReadFile(path)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		id := filepath.Base(path)
		if _, err := st.Add(id, data); err != nil {
			if errors.Is(err, common.ErrDuplicateID) {
				logger.Warn("ingest.duplicate", "path", path, "id", id)
			}
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		results = append(results, FileResult{Path: path, ID: id})
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return results, stats, err
	}

	logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	return results, stats, nil
}
