// Package orchestrator fans translation units out to the model with bounded
// concurrency and puts the results back in unit order.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/valpere/nepatran/internal"
	"github.com/valpere/nepatran/internal/chunker"
	"github.com/valpere/nepatran/internal/translator"
)

type OrchestratorConfig struct {
	// Timeout bounds every single model call. Zero means no per-call limit.
	Timeout time.Duration `mapstructure:"timeout"`
	// Workers is the number of model calls in flight. Defaults to 1.
	Workers int `mapstructure:"workers"`
	// RatePerMinute caps model calls across all requests. Zero disables it.
	RatePerMinute int `mapstructure:"rate_per_minute"`
	// MaxUnitRunes is the longest text sent in one call; longer units are
	// chunked. Zero disables chunking.
	MaxUnitRunes int `mapstructure:"max_unit_runes"`
}

type Orchestrator struct {
	service translator.TranslationService
	cfg     translator.ServiceConfig
	config  OrchestratorConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

func New(service translator.TranslationService, cfg translator.ServiceConfig, config OrchestratorConfig, logger *slog.Logger) *Orchestrator {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if config.RatePerMinute > 0 {
		limit = rate.Limit(float64(config.RatePerMinute) / 60.0)
	}

	return &Orchestrator{
		service: service,
		cfg:     cfg,
		config:  config,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Execute translates every request and returns the translations in request
// order. The first failure cancels the calls still pending and is returned
// wrapped in internal.ErrTranslationUnavailable. Calls are not retried.
func (o *Orchestrator) Execute(ctx context.Context, reqs []translator.TranslateRequest) ([]string, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	results := make([]string, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.Workers)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			text, err := o.translateUnit(gctx, req)
			if err != nil {
				return fmt.Errorf("%w: unit %d/%d: %w", internal.ErrTranslationUnavailable, i+1, len(reqs), err)
			}
			results[i] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// translateUnit sends one unit, chunked if needed, and joins the chunk
// translations with spaces.
func (o *Orchestrator) translateUnit(ctx context.Context, req translator.TranslateRequest) (string, error) {
	chunks := chunker.Chunk(req.Text, o.config.MaxUnitRunes)
	if len(chunks) > 1 {
		o.logger.Debug("unit chunked", "chunks", len(chunks), "runes", len([]rune(req.Text)))
	}

	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		part := req
		part.Text = chunk
		text, err := o.call(ctx, part)
		if err != nil {
			return "", err
		}
		out = append(out, text)
	}
	return chunker.Join(out), nil
}

func (o *Orchestrator) call(ctx context.Context, req translator.TranslateRequest) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	callCtx := ctx
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	res, err := o.service.Translate(callCtx, o.cfg, req)
	switch {
	case err != nil:
		if errors.Is(err, context.DeadlineExceeded) {
			o.logger.Warn("model call timed out", "service", o.service.Name(), "timeout", o.config.Timeout)
		}
		return "", fmt.Errorf("%s: %w", o.service.Name(), err)
	case res == nil:
		return "", fmt.Errorf("%s: empty result", o.service.Name())
	case res.Error != "":
		return "", fmt.Errorf("%s: %s", o.service.Name(), res.Error)
	}

	o.logger.Debug("unit translated", "service", res.ServiceName, "latency", res.Latency, "src", req.SourceLang, "tgt", req.TargetLang)
	return res.TranslatedText, nil
}
