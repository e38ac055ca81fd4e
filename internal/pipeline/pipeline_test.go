package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/nepatran/internal"
	"github.com/valpere/nepatran/internal/lexicon"
	"github.com/valpere/nepatran/internal/pipeline"
	"github.com/valpere/nepatran/internal/translator"
)

const testTable = `
nepali_to_english:
  अदालत: court
english_to_nepali:
  trade agreement: व्यापार सम्झौता
romanized:
  कसरी: [kasari]
  नागरिकता: [nagarikta]
  पाइन्छ: [paincha]
`

type fakeTranslator struct {
	mu    sync.Mutex
	calls [][]translator.TranslateRequest
	fn    func(translator.TranslateRequest) string
	err   error
}

func (f *fakeTranslator) Execute(_ context.Context, reqs []translator.TranslateRequest) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, reqs)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, len(reqs))
	for i, r := range reqs {
		if f.fn != nil {
			out[i] = f.fn(r)
		} else {
			out[i] = r.Text
		}
	}
	return out, nil
}

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type memCache struct {
	mu        sync.Mutex
	records   []internal.CacheRecord
	lookupErr error
	storeErr  error
}

func (c *memCache) Lookup(_ context.Context, req internal.TranslationRequest) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lookupErr != nil {
		return "", false, c.lookupErr
	}
	for _, r := range c.records {
		if r.Key() == req {
			return r.TranslatedText, true, nil
		}
	}
	return "", false, nil
}

func (c *memCache) Store(_ context.Context, rec internal.CacheRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.storeErr != nil {
		return c.storeErr
	}
	c.records = append(c.records, rec)
	return nil
}

type memSink struct {
	traces []*internal.DebugTrace
	err    error
}

func (s *memSink) SaveTrace(_ context.Context, trace *internal.DebugTrace) error {
	if s.err != nil {
		return s.err
	}
	s.traces = append(s.traces, trace)
	return nil
}

func newPipeline(t *testing.T, tr pipeline.Translator, cache pipeline.Cache, sink pipeline.DebugSink) *pipeline.Pipeline {
	t.Helper()
	table, err := lexicon.Load([]byte(testTable))
	require.NoError(t, err)

	p, err := pipeline.New(pipeline.Components{
		Translator: tr,
		Normalizer: lexicon.NewNormalizer(table),
		Cache:      cache,
		Sink:       sink,
	})
	require.NoError(t, err)
	return p
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := pipeline.New(pipeline.Components{})
	assert.Error(t, err)

	_, err = pipeline.New(pipeline.Components{Translator: &fakeTranslator{}})
	assert.Error(t, err)
}

func TestRun_IdempotentCaching(t *testing.T) {
	tr := &fakeTranslator{}
	cache := &memCache{}
	p := newPipeline(t, tr, cache, nil)
	ctx := context.Background()

	first, err := p.Run(ctx, "Hello, world!", internal.LangEnglish, internal.LangNepali)
	require.NoError(t, err)
	assert.Equal(t, "hello, world!", first)
	require.Len(t, cache.records, 1)
	assert.Equal(t, internal.CacheRecord{
		TargetLang:     internal.LangNepali,
		OriginalText:   "Hello, world!",
		TranslatedText: "hello, world!",
		Context:        internal.ContextAnswer,
		CreatedAt:      cache.records[0].CreatedAt,
	}, cache.records[0])

	second, err := p.Run(ctx, "Hello, world!", internal.LangEnglish, internal.LangNepali)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, tr.callCount(), "second run must be served from cache")
	assert.Len(t, cache.records, 1)
}

func TestRun_ContextIsPartOfTheKey(t *testing.T) {
	tr := &fakeTranslator{}
	cache := &memCache{}
	p := newPipeline(t, tr, cache, nil)
	ctx := context.Background()

	_, err := p.Run(ctx, "court", internal.LangEnglish, internal.LangNepali)
	require.NoError(t, err)
	_, err = p.Run(ctx, "court", internal.LangEnglish, internal.LangNepali, pipeline.WithContext(internal.ContextQuestion))
	require.NoError(t, err)

	assert.Equal(t, 2, tr.callCount())
	assert.Len(t, cache.records, 2)
}

func TestRun_TraceAndPlaceholders(t *testing.T) {
	tr := &fakeTranslator{}
	sink := &memSink{}
	p := newPipeline(t, tr, &memCache{}, sink)

	got, err := p.Run(context.Background(), "See https://Law.gov.np now.", internal.LangEnglish, internal.LangNepali,
		pipeline.WithRequestID("req-42"))
	require.NoError(t, err)
	assert.Equal(t, "see https://Law.gov.np now।", got)

	require.Len(t, sink.traces, 1)
	trace := sink.traces[0]
	assert.Equal(t, "req-42", trace.RequestID)
	assert.Equal(t, "See https://Law.gov.np now.", trace.OriginalSentence)
	assert.Equal(t, "See u1 now.", trace.SentenceWithPlaceholders)
	assert.Equal(t, map[string]string{"u1": "https://Law.gov.np"}, trace.PlaceholderMap)
	assert.Equal(t, []string{"See u1 now."}, trace.SplitNewlines)
	assert.Equal(t, []string{"See u1 now."}, trace.SplitWithSymbols)
	assert.Equal(t, []string{"See u1 now."}, trace.TextOnly)
	assert.Equal(t, []string{"see u1 now."}, trace.TranslatedSentence)
	assert.Equal(t, got, trace.FinalResponse)
	assert.False(t, trace.CreatedAt.IsZero())

	require.Len(t, tr.calls, 1)
	assert.Equal(t, []translator.TranslateRequest{
		{Text: "see u1 now.", SourceLang: internal.LangEnglish, TargetLang: internal.LangNepali},
	}, tr.calls[0])
}

func TestRun_NormalizesEachUnit(t *testing.T) {
	tr := &fakeTranslator{}
	p := newPipeline(t, tr, nil, nil)

	_, err := p.Run(context.Background(), "A trade agreement? Another trade agreement", internal.LangEnglish, internal.LangNepali)
	require.NoError(t, err)

	require.Len(t, tr.calls, 1)
	require.Len(t, tr.calls[0], 2)
	assert.Equal(t, "a व्यापार सम्झौता", tr.calls[0][0].Text)
	assert.Equal(t, "another व्यापार सम्झौता", tr.calls[0][1].Text)
}

func TestRun_RomanizedQuestion(t *testing.T) {
	tr := &fakeTranslator{fn: func(r translator.TranslateRequest) string { return "how to get citizenship" }}
	cache := &memCache{}
	p := newPipeline(t, tr, cache, nil)

	got, err := p.Run(context.Background(), "Kasari nagarikta paincha?", internal.LangEnglish, internal.LangNepali,
		pipeline.WithContext(internal.ContextQuestion))
	require.NoError(t, err)
	assert.Equal(t, "how to get citizenship?", got)

	require.Len(t, tr.calls, 1)
	assert.Equal(t, translator.TranslateRequest{
		Text:       "कसरी नागरिकता पाइन्छ",
		SourceLang: internal.LangNepali,
		TargetLang: internal.LangEnglish,
	}, tr.calls[0][0])

	require.Len(t, cache.records, 1)
	assert.Equal(t, internal.ContextQuestion, cache.records[0].Context)
}

func TestRun_UnsupportedTagsPassThrough(t *testing.T) {
	tr := &fakeTranslator{}
	p := newPipeline(t, tr, nil, nil)

	got, err := p.Run(context.Background(), "Bonjour. Le tribunal", "fra_Latn", "deu_Latn")
	require.NoError(t, err)
	assert.Equal(t, "bonjour. le tribunal", got)

	require.Len(t, tr.calls, 1)
	for _, req := range tr.calls[0] {
		assert.Equal(t, "fra_Latn", req.SourceLang)
		assert.Equal(t, "deu_Latn", req.TargetLang)
	}
}

func TestRun_NothingToTranslate(t *testing.T) {
	tr := &fakeTranslator{}
	p := newPipeline(t, tr, nil, nil)

	got, err := p.Run(context.Background(), "https://a.np\n...", internal.LangNepali, internal.LangEnglish)
	require.NoError(t, err)
	assert.Equal(t, "https://a.np\n...", got)
	require.Len(t, tr.calls, 1)
	assert.Empty(t, tr.calls[0])
}

func TestRun_TranslationFailureIsNotPersisted(t *testing.T) {
	tr := &fakeTranslator{err: fmt.Errorf("%w: model down", internal.ErrTranslationUnavailable)}
	cache := &memCache{}
	sink := &memSink{}
	p := newPipeline(t, tr, cache, sink)

	_, err := p.Run(context.Background(), "Hello.", internal.LangEnglish, internal.LangNepali)
	require.Error(t, err)

	var perr *pipeline.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, pipeline.StageTranslate, perr.Stage)
	assert.ErrorIs(t, err, internal.ErrTranslationUnavailable)
	assert.Empty(t, cache.records)
	assert.Empty(t, sink.traces)
}

func TestRun_SegmentationFailure(t *testing.T) {
	tr := &fakeTranslator{}
	cache := &memCache{}
	p := newPipeline(t, tr, cache, nil)

	_, err := p.Run(context.Background(), "**never closes. at all", internal.LangEnglish, internal.LangNepali)

	var perr *pipeline.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, pipeline.StagePreprocess, perr.Stage)
	assert.ErrorIs(t, err, internal.ErrSegmentation)
	assert.Equal(t, 0, tr.callCount())
	assert.Empty(t, cache.records)
}

func TestRun_WrongTranslationCountFailsInPostprocess(t *testing.T) {
	p := newPipeline(t, shortTranslator{}, nil, nil)

	_, err := p.Run(context.Background(), "one? two!", internal.LangEnglish, internal.LangNepali)

	var perr *pipeline.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, pipeline.StagePostprocess, perr.Stage)
	assert.ErrorIs(t, err, internal.ErrSegmentation)
	assert.True(t, strings.Contains(err.Error(), "POSTPROCESS"))
}

type shortTranslator struct{}

func (shortTranslator) Execute(_ context.Context, reqs []translator.TranslateRequest) ([]string, error) {
	return []string{"only one"}, nil
}

func TestRun_PersistenceFailureIsSwallowed(t *testing.T) {
	cache := &memCache{storeErr: errors.New("disk full")}
	sink := &memSink{err: fmt.Errorf("%w: read-only", internal.ErrPersistence)}
	p := newPipeline(t, &fakeTranslator{}, cache, sink)

	got, err := p.Run(context.Background(), "Hello.", internal.LangEnglish, internal.LangNepali)
	require.NoError(t, err)
	assert.Equal(t, "hello।", got)
}

func TestRun_LookupErrorIsAMiss(t *testing.T) {
	tr := &fakeTranslator{}
	cache := &memCache{lookupErr: errors.New("corrupt file")}
	p := newPipeline(t, tr, cache, nil)

	got, err := p.Run(context.Background(), "Hello.", internal.LangEnglish, internal.LangNepali)
	require.NoError(t, err)
	assert.Equal(t, "hello।", got)
	assert.Equal(t, 1, tr.callCount())
	assert.Len(t, cache.records, 1)
}

func TestRun_Concurrent(t *testing.T) {
	cache := &memCache{}
	p := newPipeline(t, &fakeTranslator{}, cache, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.Run(context.Background(), "Hello, world!", internal.LangEnglish, internal.LangNepali)
			assert.NoError(t, err)
			assert.Equal(t, "hello, world!", got)
		}()
	}
	wg.Wait()
	assert.NotEmpty(t, cache.records)
}

func TestError_Unwrap(t *testing.T) {
	err := &pipeline.Error{Stage: pipeline.StageTranslate, Err: internal.ErrTranslationUnavailable}
	assert.ErrorIs(t, err, internal.ErrTranslationUnavailable)
	assert.Equal(t, "translation pipeline failed at TRANSLATE: translation unavailable", err.Error())
}

type recordingValidator struct {
	texts []string
	err   error
}

func (v *recordingValidator) Check(text, targetLang string) error {
	v.texts = append(v.texts, targetLang+":"+text)
	return v.err
}

func TestRun_ValidatorFailureOnlyWarns(t *testing.T) {
	table, err := lexicon.Load([]byte(testTable))
	require.NoError(t, err)

	val := &recordingValidator{err: errors.New("wrong language")}
	p, err := pipeline.New(pipeline.Components{
		Translator: &fakeTranslator{},
		Normalizer: lexicon.NewNormalizer(table),
		Validator:  val,
	})
	require.NoError(t, err)

	got, err := p.Run(context.Background(), "See https://a.np now.", internal.LangEnglish, internal.LangNepali)
	require.NoError(t, err)
	assert.Equal(t, "see https://a.np now।", got)
	assert.Equal(t, []string{"npi_Deva:see u1 now।"}, val.texts, "validation runs on the masked text")
}
