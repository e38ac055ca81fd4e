// Package pipeline runs one translation request through cache lookup,
// masking and segmentation, per-unit model calls, reassembly and
// persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/nepatran/internal"
	"github.com/valpere/nepatran/internal/lexicon"
	"github.com/valpere/nepatran/internal/placeholder"
	"github.com/valpere/nepatran/internal/reassemble"
	"github.com/valpere/nepatran/internal/segment"
	"github.com/valpere/nepatran/internal/translator"
)

// Cache is the translation memory consulted before and written after a run.
type Cache interface {
	Lookup(ctx context.Context, req internal.TranslationRequest) (string, bool, error)
	Store(ctx context.Context, rec internal.CacheRecord) error
}

// DebugSink records the intermediate artifacts of a run.
type DebugSink interface {
	SaveTrace(ctx context.Context, trace *internal.DebugTrace) error
}

// Translator translates normalized units and returns them in order.
type Translator interface {
	Execute(ctx context.Context, reqs []translator.TranslateRequest) ([]string, error)
}

// OutputValidator checks that reassembled output is in the target language.
type OutputValidator interface {
	Check(text, targetLang string) error
}

// Components are the collaborators of a Pipeline. Cache, Sink and Validator
// may be nil.
type Components struct {
	Translator Translator
	Normalizer *lexicon.Normalizer
	Cache      Cache
	Sink       DebugSink
	Validator  OutputValidator
	Logger     *slog.Logger
	// Context is the label used when Run gets no WithContext option.
	Context string
}

// Pipeline is safe for concurrent use once built.
type Pipeline struct {
	translator Translator
	normalizer *lexicon.Normalizer
	cache      Cache
	sink       DebugSink
	validator  OutputValidator
	logger     *slog.Logger
	context    string
	now        func() time.Time
}

func New(c Components) (*Pipeline, error) {
	if c.Translator == nil {
		return nil, errors.New("pipeline: translator is required")
	}
	if c.Normalizer == nil {
		return nil, errors.New("pipeline: normalizer is required")
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Context == "" {
		c.Context = internal.ContextAnswer
	}
	return &Pipeline{
		translator: c.Translator,
		normalizer: c.Normalizer,
		cache:      c.Cache,
		sink:       c.Sink,
		validator:  c.Validator,
		logger:     c.Logger,
		context:    c.Context,
		now:        time.Now,
	}, nil
}

type runOptions struct {
	context   string
	requestID string
}

type Option func(*runOptions)

// WithContext selects the normalization strategy and cache partition
// (internal.ContextAnswer or internal.ContextQuestion).
func WithContext(label string) Option {
	return func(o *runOptions) { o.context = label }
}

// WithRequestID sets the ID used in logs and the debug trace.
func WithRequestID(id string) Option {
	return func(o *runOptions) { o.requestID = id }
}

// run is the state of one request.
type run struct {
	stage  Stage
	trace  *internal.DebugTrace
	logger *slog.Logger
}

func (r *run) enter(s Stage) {
	r.logger.Debug("pipeline stage", "stage", s, "from", r.stage)
	r.stage = s
}

func (r *run) fail(err error) error {
	failed := &Error{Stage: r.stage, Err: err}
	r.logger.Error("translation pipeline failed", "stage", r.stage, "err", err)
	r.stage = StageFailed
	return failed
}

// Run translates text from src to tgt. A cached translation is returned as
// is. Failures before persistence return *Error and leave the cache and the
// debug sink untouched; persistence failures are only logged.
func (p *Pipeline) Run(ctx context.Context, text, src, tgt string, opts ...Option) (string, error) {
	o := runOptions{context: p.context}
	for _, opt := range opts {
		opt(&o)
	}
	if o.requestID == "" {
		o.requestID = uuid.NewString()
	}

	r := &run{
		logger: p.logger.With("request_id", o.requestID),
		trace: &internal.DebugTrace{
			RequestID:        o.requestID,
			SourceLang:       src,
			TargetLang:       tgt,
			Context:          o.context,
			OriginalSentence: text,
		},
	}
	if !internal.IsKnownLang(src) || !internal.IsKnownLang(tgt) {
		r.logger.Info("language tag passed through unchanged", "src", src, "tgt", tgt, "err", internal.ErrUnsupportedLanguage)
	}

	r.enter(StageCacheCheck)
	key := internal.TranslationRequest{TargetLang: tgt, Text: text, Context: o.context}
	if cached, ok := p.lookup(ctx, r, key); ok {
		r.enter(StageDone)
		r.logger.Info("using cached translation")
		return cached, nil
	}

	r.enter(StagePreprocess)
	masked, m := placeholder.Mask(text)
	seg, err := segment.Split(masked)
	if err != nil {
		return "", r.fail(err)
	}
	units := segment.Strip(seg)

	r.trace.SentenceWithPlaceholders = masked
	r.trace.PlaceholderMap = m.AsStrings()
	r.trace.SplitNewlines = segment.SplitLines(masked)
	r.trace.SplitWithSymbols = seg.Texts()
	r.trace.TextOnly = segment.Texts(units)

	r.enter(StageTranslate)
	reqs := make([]translator.TranslateRequest, len(units))
	for i, u := range units {
		res := p.normalizer.Normalize(u.Text, src, tgt, o.context)
		reqs[i] = translator.TranslateRequest{Text: res.Text, SourceLang: res.SourceLang, TargetLang: res.TargetLang}
	}
	r.logger.Debug("translating units", "units", len(reqs))
	translated, err := p.translator.Execute(ctx, reqs)
	if err != nil {
		return "", r.fail(err)
	}
	r.trace.TranslatedSentence = translated

	r.enter(StagePostprocess)
	items, err := reassemble.Reinsert(seg, translated)
	if err != nil {
		return "", r.fail(err)
	}
	assembled := reassemble.Postprocess(reassemble.Assemble(items), tgt)
	if missing := placeholder.Missing(assembled, m); len(missing) > 0 {
		r.logger.Warn("model dropped placeholders", "missing", missing)
	}
	if p.validator != nil {
		if err := p.validator.Check(assembled, tgt); err != nil {
			r.logger.Warn("translation output failed validation", "err", err)
		}
	}
	final := placeholder.Unmask(assembled, m)
	r.trace.FinalResponse = final

	r.enter(StagePersist)
	p.persist(ctx, r, internal.CacheRecord{
		TargetLang:     tgt,
		OriginalText:   text,
		TranslatedText: final,
		Context:        o.context,
		CreatedAt:      p.now(),
	})

	r.enter(StageDone)
	r.logger.Info("translation completed", "units", len(units))
	return final, nil
}

// lookup treats a failing cache as a miss.
func (p *Pipeline) lookup(ctx context.Context, r *run, key internal.TranslationRequest) (string, bool) {
	if p.cache == nil {
		return "", false
	}
	cached, ok, err := p.cache.Lookup(ctx, key)
	if err != nil {
		r.logger.Warn("cache lookup failed, treating as miss", "err", err)
		return "", false
	}
	return cached, ok
}

func (p *Pipeline) persist(ctx context.Context, r *run, rec internal.CacheRecord) {
	if p.cache != nil {
		if err := p.cache.Store(ctx, rec); err != nil {
			r.logger.Error("failed to store translation", "stage", StagePersist, "err", persistenceErr(err))
		}
	}
	if p.sink != nil {
		r.trace.CreatedAt = rec.CreatedAt
		if err := p.sink.SaveTrace(ctx, r.trace); err != nil {
			r.logger.Error("failed to save debug trace", "stage", StagePersist, "err", persistenceErr(err))
		}
	}
}

func persistenceErr(err error) error {
	if errors.Is(err, internal.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", internal.ErrPersistence, err)
}
