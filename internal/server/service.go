// Package server is the thin HTTP host around the review workflow: upload,
// extract, review, figure selection and report download. The workflow core
// itself has no network surface; this shell exists for the UI.
package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deepspec/deepspec/internal/common"
	"github.com/deepspec/deepspec/internal/report"
	"github.com/deepspec/deepspec/internal/review"
	"github.com/deepspec/deepspec/internal/store"
)

// Service wires one session's store, machine and assembler behind HTTP.
type Service struct {
	store     *store.Store
	machine   *review.Machine
	assembler *report.Assembler
	cfg       *common.Config
	logger    *slog.Logger

	// mu serializes all workflow mutations: the store itself is unguarded
	// and owned by exactly one logical session.
	mu sync.Mutex

	reportCache []byte
	reportRev   uint64
	reportOK    bool
}

func New(st *store.Store, machine *review.Machine, assembler *report.Assembler, cfg *common.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     st,
		machine:   machine,
		assembler: assembler,
		cfg:       cfg,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes mounted.
func (s *Service) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/documents", s.upload)
	r.GET("/documents", s.list)
	r.POST("/documents/:id/extract", s.extract)
	r.POST("/extract-batch", s.extractBatch)
	r.PUT("/documents/:id/review", s.review)
	r.POST("/documents/:id/figure", s.selectFigure)
	r.GET("/report", s.report)

	return r
}
