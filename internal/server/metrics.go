package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deepspec_documents_uploaded_total",
		Help: "Documents accepted into the store.",
	})

	extractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepspec_extractions_total",
		Help: "Extraction outcomes by final status.",
	}, []string{"outcome"})

	reviewsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deepspec_reviews_committed_total",
		Help: "Review commits, including re-commits of reviewed records.",
	})

	reportsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deepspec_reports_generated_total",
		Help: "Report assemblies actually run (cache misses).",
	})
)
