package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/esglens/internal/api"
	"github.com/dgallion1/esglens/internal/classify"
	"github.com/dgallion1/esglens/internal/config"
	"github.com/dgallion1/esglens/internal/esg"
	"github.com/dgallion1/esglens/internal/llm"
	"github.com/dgallion1/esglens/internal/parser"
	"github.com/dgallion1/esglens/internal/pipeline"
	"github.com/dgallion1/esglens/internal/telemetry"
	"github.com/dgallion1/esglens/internal/uploads"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inst, shutdownTelemetry, err := telemetry.Init(ctx, "esglens")
	if err != nil {
		log.Error("telemetry init failed", "error", err)
		os.Exit(1)
	}

	vocab := esg.Default()
	if cfg.VocabFile != "" {
		vocab, err = esg.Load(cfg.VocabFile)
		if err != nil {
			log.Error("load vocabulary", "path", cfg.VocabFile, "error", err)
			os.Exit(1)
		}
		log.Info("loaded vocabulary", "path", cfg.VocabFile, "frameworks", len(vocab.Frameworks()))
	}

	// Initialize clients.
	stats := llm.NewStats(cfg.StatsWindow)
	gen, err := newGenerator(ctx, cfg, stats, log)
	if err != nil {
		log.Error("llm client init failed", "provider", cfg.LLMProvider, "error", err)
		os.Exit(1)
	}
	ocr, ocrClient, err := newOCR(ctx, cfg, gen, stats, log)
	if err != nil {
		log.Error("ocr init failed", "engine", cfg.OCREngine, "error", err)
		os.Exit(1)
	}
	var pdftotext *parser.Pdftotext
	if cfg.Pdftotext != "none" {
		pdftotext = &parser.Pdftotext{Runner: parser.ExecRunner{Log: log}, Bin: cfg.Pdftotext}
	}

	var classifier *classify.Classifier
	var model string
	if gen != nil {
		classifier = classify.New(gen, vocab, log)
		model = gen.Model()
	}

	// Initialize pipeline.
	analyzer, err := pipeline.New(pipeline.Options{
		Vocab:       vocab,
		Classifier:  classifier,
		Strategy:    cfg.EffectiveStrategy(),
		Parser:      parser.Options{Pdftotext: pdftotext, OCR: ocr, Log: log},
		Instruments: inst,
		Log:         log,
	})
	if err != nil {
		log.Error("pipeline init failed", "error", err)
		os.Exit(1)
	}

	store, err := uploads.New(cfg.UploadDir)
	if err != nil {
		log.Error("upload dir init failed", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP server.
	deps := api.Deps{
		Analyzer: analyzer,
		Definer:  classify.NewDefiner(asGenerator(gen), log),
		Uploads:  store,
		Model:    model,
	}
	if gen != nil || ocrClient != nil {
		deps.Stats = stats
	}
	srv := api.NewServer(deps, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanup := func(ctx context.Context) {
		if gen != nil {
			gen.Close()
		}
		if ocrClient != nil {
			ocrClient.Close()
		}
		if err := shutdownTelemetry(ctx); err != nil {
			log.Warn("telemetry shutdown", "error", err)
		}
	}

	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		log.Error("listen failed", "addr", httpServer.Addr, "error", err)
		os.Exit(1)
	}
	log.Info("starting esglens",
		"port", cfg.Port,
		"strategy", analyzer.Strategy(),
		"llm_provider", cfg.LLMProvider,
		"llm_model", model,
		"ocr_engine", cfg.OCREngine,
	)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := serve(sigCtx, httpServer, ln, cleanup, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// serve runs srv on ln until ctx is done, then shuts the server down and
// runs cleanup. It returns only after cleanup has finished.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, cleanup func(context.Context), log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		log.Info("shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	cleanup(shutdownCtx)

	if serveErr == nil {
		serveErr = <-errCh
	}
	if errors.Is(serveErr, http.ErrServerClosed) {
		return nil
	}
	return serveErr
}

// newGenerator returns the configured model client, or nil when no
// credential is set.
func newGenerator(ctx context.Context, cfg config.Config, stats *llm.Stats, log *slog.Logger) (*llm.Timed, error) {
	key, err := cfg.LLMKey()
	if errors.Is(err, config.ErrMissingCredential) {
		log.Warn("no llm api key configured; model detection and definitions disabled", "provider", cfg.LLMProvider)
		return nil, nil
	}

	var g llm.Generator
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		g = llm.NewClaudeClient(key, cfg.AnthropicModel)
	default:
		gc, err := llm.NewGeminiClient(ctx, key, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		g = gc
	}
	return &llm.Timed{G: g, Stats: stats}, nil
}

// asGenerator keeps a nil *llm.Timed from becoming a non-nil interface.
func asGenerator(t *llm.Timed) llm.Generator {
	if t == nil {
		return nil
	}
	return t
}

// newOCR builds the OCR fallback. The Gemini engine reuses the classifier's
// client when it is a Gemini model; otherwise it gets its own timed client,
// returned so the caller can close it.
func newOCR(ctx context.Context, cfg config.Config, gen *llm.Timed, stats *llm.Stats, log *slog.Logger) (*parser.OCR, *llm.Timed, error) {
	runner := parser.ExecRunner{Log: log}
	var engine parser.Recognizer
	var owned *llm.Timed
	switch cfg.OCREngine {
	case config.OCRNone:
		return nil, nil, nil
	case config.OCRGemini:
		if gen != nil && cfg.LLMProvider == config.ProviderGemini {
			engine = gen
			break
		}
		gc, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		owned = &llm.Timed{G: gc, Stats: stats}
		engine = owned
	default:
		engine = &parser.TesseractRecognizer{Runner: runner, Bin: cfg.Tesseract, Lang: cfg.TesseractLang}
	}
	return &parser.OCR{
		Runner:   runner,
		Engine:   engine,
		Pdftoppm: cfg.Pdftoppm,
		DPI:      cfg.OCRDPI,
		MaxPages: cfg.OCRMaxPages,
		Log:      log,
	}, owned, nil
}
