package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorstack/retrieval/cache"
	"github.com/tutorstack/retrieval/classifier"
	"github.com/tutorstack/retrieval/config"
	"github.com/tutorstack/retrieval/coverage"
	"github.com/tutorstack/retrieval/fusion"
	"github.com/tutorstack/retrieval/llm"
	"github.com/tutorstack/retrieval/metrics"
	"github.com/tutorstack/retrieval/profile"
	"github.com/tutorstack/retrieval/retriever"
	"github.com/tutorstack/retrieval/schema"
	"github.com/tutorstack/retrieval/vectordb"
	"github.com/tutorstack/retrieval/walker"
)

// mockEmbedder returns a fixed vector and counts calls.
type mockEmbedder struct {
	calls atomic.Int32
	err   error
}

func (m *mockEmbedder) Embed(ctx context.Context, text, languageHint string) ([]float32, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) Dimensions() int { return 3 }
func (m *mockEmbedder) Close() error    { return nil }

// mockGenerator counts generation calls.
type mockGenerator struct {
	calls    atomic.Int32
	response string
	err      error
}

func (m *mockGenerator) GenerateCompletion(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	m.calls.Add(1)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// mockIndex routes searches by collection and records per-collection calls.
type mockIndex struct {
	textbookByExpr map[string][]vectordb.Hit
	generatedHits  []vectordb.Hit
	webHits        []vectordb.Hit

	textbookCalls  atomic.Int32
	generatedCalls atomic.Int32
	webCalls       atomic.Int32
	textbookTopK   atomic.Int32
}

func (m *mockIndex) Search(ctx context.Context, req vectordb.SearchRequest) ([]vectordb.Hit, error) {
	switch req.Collection {
	case "textbook_chunks":
		m.textbookCalls.Add(1)
		m.textbookTopK.Store(int32(req.TopK))
		return m.textbookByExpr[req.Expr], nil
	case "generated_answers":
		m.generatedCalls.Add(1)
		return m.generatedHits, nil
	case "web_content":
		m.webCalls.Add(1)
		return m.webHits, nil
	}
	return nil, fmt.Errorf("unknown collection %q", req.Collection)
}

func (m *mockIndex) Close() error { return nil }

func newTestEngine(t *testing.T, index *mockIndex, emb *mockEmbedder, gen *mockGenerator) *Engine {
	t.Helper()

	cfg := &config.Config{
		VectorDB: config.VectorDBConfig{
			TextbookCollection: "textbook_chunks",
			AnswerCollection:   "generated_answers",
			WebCollection:      "web_content",
		},
		Subjects: []config.SubjectConfig{
			{Name: "Mathematics", MinClass: 5, MaxClass: 12},
		},
	}
	cost := metrics.NewCostTracker()
	strategy, err := fusion.NewStrategy(config.FusionConfig{})
	require.NoError(t, err)

	return &Engine{
		cfg:        cfg,
		classifier: classifier.New(cfg.Classifier),
		profiles:   profile.NewProvider(nil),
		walk:       walker.New(cfg.Subjects),
		embedder:   emb,
		store:      index,
		textbook:   retriever.NewTextbookRetriever(index, cfg.VectorDB, cfg.Subjects, cost),
		generated:  retriever.NewGeneratedRetriever(index, cfg.VectorDB, cfg.Subjects, cost),
		web:        retriever.NewWebRetriever(index, cfg.VectorDB, cfg.Subjects, cost),
		strategy:   strategy,
		generator:  gen,
		answers:    cache.NewMemoryAnswerStore(64, time.Minute),
		monitor:    coverage.NewMonitor(config.ScrapeConfig{}, nil),
		cost:       cost,
	}
}

func TestCannedShortCircuit(t *testing.T) {
	index := &mockIndex{}
	emb := &mockEmbedder{}
	gen := &mockGenerator{response: "unused"}
	e := newTestEngine(t, index, emb, gen)

	res, err := e.Answer(context.Background(), Query{Question: "hello", Subject: "Mathematics", ClassLevel: 8})
	require.NoError(t, err)

	assert.True(t, res.Canned)
	assert.NotEmpty(t, res.Answer)
	assert.Empty(t, res.Sources)
	assert.Zero(t, emb.calls.Load(), "canned responses must not embed")
	assert.Zero(t, gen.calls.Load(), "canned responses must not generate")
	assert.Zero(t, index.textbookCalls.Load(), "canned responses must not query the index")
}

func TestClass8MathematicsScenario(t *testing.T) {
	index := &mockIndex{textbookByExpr: map[string][]vectordb.Hit{
		"class_level == 6": {
			{Text: "six-1", Score: 0.6, ClassLevel: 6},
			{Text: "six-2", Score: 0.6, ClassLevel: 6},
			{Text: "six-3", Score: 0.6, ClassLevel: 6},
		},
		"class_level == 7": {
			{Text: "seven-1", Score: 0.5, ClassLevel: 7},
			{Text: "seven-2", Score: 0.5, ClassLevel: 7},
		},
	}}
	emb := &mockEmbedder{}
	gen := &mockGenerator{response: "A fraction represents a part of a whole."}
	e := newTestEngine(t, index, emb, gen)

	res, err := e.Answer(context.Background(), Query{
		Question:   "define fractions",
		Subject:    "Mathematics",
		ClassLevel: 8,
		Mode:       schema.ModeBasic,
	})
	require.NoError(t, err)

	require.Len(t, res.Sources, 5)
	classes := make([]int, len(res.Sources))
	for i, c := range res.Sources {
		classes[i] = c.ClassLevel
	}
	assert.Equal(t, []int{6, 6, 6, 7, 7}, classes, "class 6 foundations must precede class 7")

	assert.Equal(t, schema.ClassDistribution{6: 3, 7: 2}, res.Distribution)
	assert.Equal(t, "normal", res.Stage)
	assert.False(t, res.CacheHit)
	assert.Equal(t, int32(1), gen.calls.Load())
	// coverage of 5 meets the basic minimum: no web query
	assert.Zero(t, index.webCalls.Load())
}

func TestBroadQueryDeepensClassQueries(t *testing.T) {
	index := &mockIndex{textbookByExpr: map[string][]vectordb.Hit{
		"class_level == 6": {{Text: "six", Score: 0.6, ClassLevel: 6}},
		"class_level == 7": {{Text: "seven", Score: 0.6, ClassLevel: 7}},
		"class_level == 8": {{Text: "eight", Score: 0.6, ClassLevel: 8}},
	}}
	emb := &mockEmbedder{}
	gen := &mockGenerator{response: "generated"}
	e := newTestEngine(t, index, emb, gen)

	_, err := e.Answer(context.Background(), Query{
		Question: "define fractions", Subject: "Mathematics", ClassLevel: 8, Mode: schema.ModeBasic,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(5), index.textbookTopK.Load(), "a pointed question uses the mode's top-k")

	_, err = e.Answer(context.Background(), Query{
		Question: "give me a summary of fractions", Subject: "Mathematics", ClassLevel: 8, Mode: schema.ModeBasic,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(8), index.textbookTopK.Load(), "a broad question digs deeper per class")
}

func TestAnswerCacheIdempotence(t *testing.T) {
	index := &mockIndex{textbookByExpr: map[string][]vectordb.Hit{
		"class_level == 8": {
			{Text: "a", Score: 0.6, ClassLevel: 8},
			{Text: "b", Score: 0.6, ClassLevel: 8},
			{Text: "c", Score: 0.6, ClassLevel: 8},
			{Text: "d", Score: 0.6, ClassLevel: 8},
			{Text: "e", Score: 0.6, ClassLevel: 8},
		},
	}}
	emb := &mockEmbedder{}
	gen := &mockGenerator{response: "first generation"}
	e := newTestEngine(t, index, emb, gen)

	q := Query{Question: "define fractions", Subject: "Mathematics", ClassLevel: 8, Mode: schema.ModeBasic}

	first, err := e.Answer(context.Background(), q)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Equal(t, int32(1), gen.calls.Load())

	// mutate the generator response; the cached answer must not change
	gen.response = "second generation"

	second, err := e.Answer(context.Background(), q)
	require.NoError(t, err)

	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Answer, second.Answer, "cached answer must be byte-identical")
	assert.Equal(t, first.Distribution, second.Distribution)
	assert.Equal(t, int32(1), gen.calls.Load(), "second call must not generate")
	assert.Equal(t, int32(1), emb.calls.Load(), "second call must not embed")

	// trivially reworded question shares the key
	reworded := q
	reworded.Question = "  Define   FRACTIONS "
	third, err := e.Answer(context.Background(), reworded)
	require.NoError(t, err)
	assert.True(t, third.CacheHit)
	assert.Equal(t, first.Answer, third.Answer)
}

func TestVerbatimShortCircuitBeforeWeb(t *testing.T) {
	// textbook is empty and generated coverage is thin, which would normally
	// trigger a web query; the verbatim hit must prevent it.
	index := &mockIndex{
		generatedHits: []vectordb.Hit{
			{Text: "similar question", Answer: "the stored answer", Score: 0.92, ClassLevel: 8},
		},
		webHits: []vectordb.Hit{{Text: "web", Score: 0.9}},
	}
	emb := &mockEmbedder{}
	gen := &mockGenerator{response: "unused"}
	e := newTestEngine(t, index, emb, gen)

	res, err := e.Answer(context.Background(), Query{
		Question:   "annotate this passage about fractions",
		Subject:    "Mathematics",
		ClassLevel: 8,
		Mode:       schema.ModeAnnotation, // verbatim threshold 0.90
	})
	require.NoError(t, err)

	assert.True(t, res.CacheHit)
	assert.Equal(t, "the stored answer", res.Answer)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, schema.SourceGeneratedCache, res.Sources[0].Source)
	assert.Zero(t, gen.calls.Load(), "verbatim reuse must skip generation")
	assert.Zero(t, index.webCalls.Load(), "verbatim check must run before web retrieval")
}

func TestVerbatimThresholdRespectsMode(t *testing.T) {
	// 0.92 clears annotation (0.90) but not basic (0.95)
	index := &mockIndex{
		generatedHits: []vectordb.Hit{
			{Text: "similar", Answer: "stored", Score: 0.92, ClassLevel: 8},
		},
	}
	emb := &mockEmbedder{}
	gen := &mockGenerator{response: "freshly generated"}
	e := newTestEngine(t, index, emb, gen)

	res, err := e.Answer(context.Background(), Query{
		Question:   "define fractions",
		Subject:    "Mathematics",
		ClassLevel: 8,
		Mode:       schema.ModeBasic,
	})
	require.NoError(t, err)

	assert.False(t, res.CacheHit)
	assert.Equal(t, "freshly generated", res.Answer)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestFallbackExhaustion(t *testing.T) {
	index := &mockIndex{} // every collection empty
	emb := &mockEmbedder{}
	gen := &mockGenerator{response: "From general knowledge, a fraction is a part of a whole."}
	e := newTestEngine(t, index, emb, gen)

	res, err := e.Answer(context.Background(), Query{
		Question:   "define fractions",
		Subject:    "Mathematics",
		ClassLevel: 8,
		Mode:       schema.ModeBasic,
	})
	require.NoError(t, err)

	assert.Equal(t, "general_knowledge_fallback", res.Stage)
	assert.NotEmpty(t, res.Answer)
	assert.Contains(t, res.Answer, llm.Disclaimer)
	assert.Empty(t, res.Sources, "unsourced fallback must return an empty source list")
	assert.Equal(t, int32(1), gen.calls.Load())

	// basic walk [6,7,8] plus widen [5]
	assert.Equal(t, int32(4), index.textbookCalls.Load())
}

func TestDeepdiveSkipsWidening(t *testing.T) {
	index := &mockIndex{}
	emb := &mockEmbedder{}
	gen := &mockGenerator{response: "general knowledge answer"}
	e := newTestEngine(t, index, emb, gen)

	res, err := e.Answer(context.Background(), Query{
		Question:   "define fractions",
		Subject:    "Mathematics",
		ClassLevel: 10,
		Mode:       schema.ModeDeepdive,
	})
	require.NoError(t, err)

	assert.Equal(t, "general_knowledge_fallback", res.Stage)
	// deepdive walk [5..10] with nothing below to widen into
	assert.Equal(t, int32(6), index.textbookCalls.Load())
}

func TestGeneralKnowledgeFailureIsTerminal(t *testing.T) {
	index := &mockIndex{}
	emb := &mockEmbedder{}
	gen := &mockGenerator{err: errors.New("model overloaded")}
	e := newTestEngine(t, index, emb, gen)

	_, err := e.Answer(context.Background(), Query{
		Question:   "define fractions",
		Subject:    "Mathematics",
		ClassLevel: 8,
		Mode:       schema.ModeBasic,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestGenerationFailureReturnsApology(t *testing.T) {
	index := &mockIndex{textbookByExpr: map[string][]vectordb.Hit{
		"class_level == 8": {
			{Text: "a", Score: 0.6, ClassLevel: 8},
			{Text: "b", Score: 0.6, ClassLevel: 8},
			{Text: "c", Score: 0.6, ClassLevel: 8},
			{Text: "d", Score: 0.6, ClassLevel: 8},
			{Text: "e", Score: 0.6, ClassLevel: 8},
		},
	}}
	emb := &mockEmbedder{}
	gen := &mockGenerator{err: errors.New("model overloaded")}
	e := newTestEngine(t, index, emb, gen)

	q := Query{Question: "define fractions", Subject: "Mathematics", ClassLevel: 8, Mode: schema.ModeBasic}
	res, err := e.Answer(context.Background(), q)
	require.NoError(t, err, "sourced generation failure must not surface as an error")

	assert.Equal(t, llm.Apology, res.Answer)
	assert.NotEmpty(t, res.Sources, "evidence is still returned with the apology")

	// the apology is never cached: a retry attempts generation again
	gen.err = nil
	gen.response = "recovered answer"
	res2, err := e.Answer(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, res2.CacheHit)
	assert.Equal(t, "recovered answer", res2.Answer)
}

func TestEmbeddingUnavailableDegrades(t *testing.T) {
	index := &mockIndex{textbookByExpr: map[string][]vectordb.Hit{
		"class_level == 8": {{Text: "a", Score: 0.6, ClassLevel: 8}},
	}}
	emb := &mockEmbedder{err: errors.New("both backends down")}
	gen := &mockGenerator{response: "general knowledge answer"}
	e := newTestEngine(t, index, emb, gen)

	res, err := e.Answer(context.Background(), Query{
		Question:   "define fractions",
		Subject:    "Mathematics",
		ClassLevel: 8,
		Mode:       schema.ModeBasic,
	})
	require.NoError(t, err)

	assert.Equal(t, "general_knowledge_fallback", res.Stage)
	assert.Contains(t, res.Answer, llm.Disclaimer)
	assert.Zero(t, index.textbookCalls.Load(), "no embedding means no index queries")
}

func TestThinCoverageTriggersWebRetrieval(t *testing.T) {
	index := &mockIndex{
		textbookByExpr: map[string][]vectordb.Hit{
			"class_level == 8": {{Text: "only one", Score: 0.6, ClassLevel: 8}},
		},
		webHits: []vectordb.Hit{
			{Text: "web evidence", Score: 0.5, URL: "https://example.org"},
		},
	}
	emb := &mockEmbedder{}
	gen := &mockGenerator{response: "answer"}
	e := newTestEngine(t, index, emb, gen)

	res, err := e.Answer(context.Background(), Query{
		Question:   "define fractions",
		Subject:    "Mathematics",
		ClassLevel: 8,
		Mode:       schema.ModeBasic,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), index.webCalls.Load())

	// priority invariant: textbook before web in the fused sources
	var sawWeb bool
	for _, c := range res.Sources {
		if c.Source == schema.SourceWeb {
			sawWeb = true
		}
		if c.Source == schema.SourceTextbook && sawWeb {
			t.Fatal("textbook chunk found after web chunk")
		}
	}
	assert.True(t, sawWeb, "web evidence should be included for thin coverage")
}

func TestExpensiveCallBudgetOverRepeatedQueries(t *testing.T) {
	index := &mockIndex{textbookByExpr: map[string][]vectordb.Hit{
		"class_level == 8": {
			{Text: "a", Score: 0.6, ClassLevel: 8},
			{Text: "b", Score: 0.6, ClassLevel: 8},
			{Text: "c", Score: 0.6, ClassLevel: 8},
			{Text: "d", Score: 0.6, ClassLevel: 8},
			{Text: "e", Score: 0.6, ClassLevel: 8},
		},
	}}
	emb := &mockEmbedder{}
	gen := &mockGenerator{response: "stable answer"}
	e := newTestEngine(t, index, emb, gen)

	q := Query{Question: "define fractions", Subject: "Mathematics", ClassLevel: 8, Mode: schema.ModeBasic}
	const runs = 100
	for i := 0; i < runs; i++ {
		_, err := e.Answer(context.Background(), q)
		require.NoError(t, err)
	}

	// one embedding call and one generation call total: warm caches serve the
	// other 99 queries, keeping the mean expensive-call count far below 2
	assert.Equal(t, int32(1), emb.calls.Load())
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestInvalidQueries(t *testing.T) {
	e := newTestEngine(t, &mockIndex{}, &mockEmbedder{}, &mockGenerator{response: "x"})

	_, err := e.Answer(context.Background(), Query{Question: "", Subject: "Mathematics"})
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	_, err = e.Answer(context.Background(), Query{Question: "define fractions", Subject: "Mathematics", Mode: "turbo"})
	assert.ErrorIs(t, err, ErrInvalidMode)
}
