package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/deepspec/deepspec/internal/common"
	"github.com/deepspec/deepspec/internal/llm"
	"github.com/deepspec/deepspec/internal/llm/openai"
	"github.com/deepspec/deepspec/internal/pdf"
	"github.com/deepspec/deepspec/internal/report"
	"github.com/deepspec/deepspec/internal/review"
	"github.com/deepspec/deepspec/internal/server"
	"github.com/deepspec/deepspec/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Extraction adapter: real client when credentials exist, otherwise the
	// deterministic mock so the workflow stays usable offline.
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
	opener := func(data []byte) (review.PageSource, error) {
		return pdf.Open(data)
	}
	machine := review.NewMachine(st, extractor, opener, review.Config{
		PageWindow: cfg.Extract.PageWindow,
		CallDelay:  cfg.Extract.CallDelay,
	}, logger)

	assembler := report.NewAssembler(cfg.Report.Title, report.NewLatexRasterizer(), logger)
	assembler.FigureWidth = cfg.Report.FigureWidthPx

	svc := server.New(st, machine, assembler, cfg, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP serving", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	fmt.Println("stopped.")
}
