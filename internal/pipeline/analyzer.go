// Package pipeline runs one document through extraction, filtering,
// detection and reporting.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/dgallion1/esglens/internal/classify"
	"github.com/dgallion1/esglens/internal/config"
	"github.com/dgallion1/esglens/internal/document"
	"github.com/dgallion1/esglens/internal/esg"
	"github.com/dgallion1/esglens/internal/parser"
	"github.com/dgallion1/esglens/internal/report"
	"github.com/dgallion1/esglens/internal/telemetry"
)

// Options configures an Analyzer.
type Options struct {
	Vocab       *esg.Vocabulary
	Classifier  *classify.Classifier // nil when no model is configured
	Strategy    string               // one of the config.Strategy* values, already resolved
	Parser      parser.Options
	Instruments *telemetry.Instruments
	Log         *slog.Logger
}

// Analyzer is safe for concurrent use; each call owns its own state.
type Analyzer struct {
	vocab      *esg.Vocabulary
	classifier *classify.Classifier
	strategy   string
	parseOpts  parser.Options
	inst       *telemetry.Instruments
	log        *slog.Logger
}

func New(opts Options) (*Analyzer, error) {
	if opts.Vocab == nil {
		opts.Vocab = esg.Default()
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Instruments == nil {
		inst, err := telemetry.New()
		if err != nil {
			return nil, fmt.Errorf("telemetry instruments: %w", err)
		}
		opts.Instruments = inst
	}
	switch opts.Strategy {
	case config.StrategyRegex, config.StrategyLLM, config.StrategyBoth:
	case "", config.StrategyAuto:
		opts.Strategy = config.StrategyRegex
		if opts.Classifier != nil {
			opts.Strategy = config.StrategyLLM
		}
	default:
		return nil, fmt.Errorf("unknown detection strategy %q", opts.Strategy)
	}
	return &Analyzer{
		vocab:      opts.Vocab,
		classifier: opts.Classifier,
		strategy:   opts.Strategy,
		parseOpts:  opts.Parser,
		inst:       opts.Instruments,
		log:        opts.Log,
	}, nil
}

// Strategy returns the detection strategy in effect.
func (a *Analyzer) Strategy() string { return a.strategy }

// Analyze extracts the document at path and scores it. Extraction errors
// are returned; classifier failures only reduce the findings.
func (a *Analyzer) Analyze(ctx context.Context, path, company string) (report.Result, error) {
	start := time.Now()
	log := a.log.With("company", company, "strategy", a.strategy)

	ctx, span := a.inst.Tracer.Start(ctx, "esglens.analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("esglens.company", company),
		attribute.String("esglens.strategy", a.strategy),
	)

	// Phase 1: Extract
	var pages []document.Page
	err := a.stage(ctx, "extract", func(ctx context.Context) error {
		var err error
		pages, err = parser.Extract(ctx, path, a.parseOpts)
		return err
	})
	if err != nil {
		log.Error("extraction failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		a.count(ctx, "failed")
		return report.Result{}, fmt.Errorf("extract %s: %w", company, err)
	}
	log.Info("extracted document", "pages", len(pages))

	// Phase 2: Filter
	var sentences []document.Sentence
	a.step(ctx, "filter", func(context.Context) {
		sentences = a.vocab.CandidateSentences(pages)
	})
	log.Debug("filtered candidate sentences", "candidates", len(sentences))

	// Phase 3: Detect
	findings := esg.Grouped{}
	if a.strategy == config.StrategyRegex || a.strategy == config.StrategyBoth {
		a.step(ctx, "match", func(context.Context) {
			findings.Merge(a.vocab.MatchFrameworks(pages).Group(a.vocab))
		})
	}
	if a.strategy == config.StrategyLLM || a.strategy == config.StrategyBoth {
		a.step(ctx, "classify", func(ctx context.Context) {
			if a.classifier == nil {
				log.Warn("classifier not configured, skipping model detection")
				return
			}
			if len(sentences) > 0 {
				a.inst.LLMRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("purpose", "classify")))
			}
			findings.Merge(a.classifier.Classify(ctx, sentences))
		})
	}

	// Phase 4: Report
	res := report.Build(company, findings, map[string]any{
		"pages":       len(pages),
		"candidates":  len(sentences),
		"strategy":    a.strategy,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	span.SetAttributes(
		attribute.Int("esglens.pages", len(pages)),
		attribute.Int("esglens.candidates", len(sentences)),
		attribute.Int("esglens.mentions", res.TotalMentions),
	)
	a.inst.Mentions.Record(ctx, int64(res.TotalMentions))
	a.count(ctx, "completed")
	log.Info("analysis complete",
		"pages", len(pages),
		"candidates", len(sentences),
		"mentions", res.TotalMentions,
		"score", res.Score,
		"grade", res.Grade,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// stage runs fn in a child span and records its duration.
func (a *Analyzer) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := a.inst.Tracer.Start(ctx, "esglens."+name)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	a.recordStage(ctx, name, start)
	return err
}

// step is stage for work that cannot fail.
func (a *Analyzer) step(ctx context.Context, name string, fn func(context.Context)) {
	start := time.Now()
	ctx, span := a.inst.Tracer.Start(ctx, "esglens."+name)
	defer span.End()

	fn(ctx)
	a.recordStage(ctx, name, start)
}

func (a *Analyzer) recordStage(ctx context.Context, name string, start time.Time) {
	a.inst.StageDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000,
		metric.WithAttributes(attribute.String("stage", name)))
}

func (a *Analyzer) count(ctx context.Context, outcome string) {
	a.inst.Analyses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", a.strategy),
		attribute.String("outcome", outcome),
	))
}
