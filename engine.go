// Package retrieval implements a progressive multi-index retrieval and
// answer-caching engine for a tutoring service. A query is classified,
// embedded through a local-first provider chain, walked across class levels
// against the textbook index, fused with generated-answer and web evidence
// under a strict source priority, and answered with at most one embedding
// call and one generation call on the optimized path.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tutorstack/retrieval/cache"
	"github.com/tutorstack/retrieval/classifier"
	"github.com/tutorstack/retrieval/common/httpx"
	"github.com/tutorstack/retrieval/common/logger"
	"github.com/tutorstack/retrieval/config"
	"github.com/tutorstack/retrieval/coverage"
	"github.com/tutorstack/retrieval/embedding"
	"github.com/tutorstack/retrieval/fallback"
	"github.com/tutorstack/retrieval/fusion"
	"github.com/tutorstack/retrieval/llm"
	"github.com/tutorstack/retrieval/metrics"
	"github.com/tutorstack/retrieval/orchestrator"
	"github.com/tutorstack/retrieval/post"
	"github.com/tutorstack/retrieval/profile"
	"github.com/tutorstack/retrieval/retriever"
	"github.com/tutorstack/retrieval/schema"
	"github.com/tutorstack/retrieval/vectordb"
	"github.com/tutorstack/retrieval/walker"
)

// Query is one student question.
type Query struct {
	Question   string
	Subject    string
	ClassLevel int
	Chapter    string
	// Mode defaults to basic when empty.
	Mode schema.Mode
}

// Result is the engine's answer with its supporting evidence. Sources is
// empty for canned responses and for general-knowledge fallback answers.
type Result struct {
	QueryID string
	Answer  string
	Sources []schema.Chunk
	// Distribution counts textbook chunks per originating class level.
	Distribution schema.ClassDistribution
	// CacheHit marks answers served from the answer cache or reused verbatim
	// from the generated-answer index.
	CacheHit bool
	// Canned marks greeting/thanks/farewell short-circuit responses.
	Canned bool
	// Stage is the terminal fallback stage ("normal" for the standard path).
	Stage string
}

var (
	// ErrEmptyQuestion is returned for a blank question.
	ErrEmptyQuestion = errors.New("retrieval: empty question")
	// ErrInvalidMode is returned for an unrecognized retrieval mode.
	ErrInvalidMode = errors.New("retrieval: invalid mode")
	// ErrExhausted is returned when even the general-knowledge fallback
	// failed. It is the only terminal failure for a well-formed query.
	ErrExhausted = errors.New("retrieval: fallback chain exhausted")
)

// Engine is the top-level retrieval pipeline. Safe for concurrent use; the
// only shared mutable state is the two caches and the cost counters.
type Engine struct {
	cfg *config.Config

	classifier *classifier.Classifier
	profiles   *profile.Provider
	walk       *walker.Walker
	embedder   embedding.Provider
	store      vectordb.Store
	textbook   *retriever.TextbookRetriever
	generated  *retriever.GeneratedRetriever
	web        *retriever.WebRetriever
	strategy   fusion.Strategy
	generator  llm.Provider
	answers    cache.AnswerStore
	monitor    *coverage.Monitor
	cost       *metrics.CostTracker
}

// NewEngine wires the full pipeline from config.
func NewEngine(ctx context.Context, cfg *config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cost := metrics.NewCostTracker()

	embedCache := cache.NewEmbeddingCache(
		cfg.Cache.Embedding.MaxEntries,
		time.Duration(cfg.Cache.Embedding.TTLSeconds)*time.Second,
	)
	embedder, err := embedding.NewProvider(cfg.Embedding, embedCache, cost)
	if err != nil {
		return nil, err
	}

	store, err := vectordb.NewStore(ctx, cfg.VectorDB)
	if err != nil {
		return nil, err
	}

	generator, err := llm.NewProvider(cfg.LLM, cost)
	if err != nil {
		return nil, err
	}

	strategy, err := fusion.NewStrategy(cfg.Fusion)
	if err != nil {
		return nil, err
	}

	var answers cache.AnswerStore
	switch cfg.Cache.Answer.Store {
	case "redis":
		answers, err = cache.NewRedisAnswerStore(cfg.Cache.Answer)
		if err != nil {
			return nil, err
		}
	default:
		answers = cache.NewMemoryAnswerStore(
			cfg.Cache.Answer.MaxEntries,
			time.Duration(cfg.Cache.Answer.TTLSeconds)*time.Second,
		)
	}

	hc := httpx.NewFromConfig(cfg.HTTP)

	return &Engine{
		cfg:        cfg,
		classifier: classifier.New(cfg.Classifier),
		profiles:   profile.NewProvider(cfg.Profiles),
		walk:       walker.New(cfg.Subjects),
		embedder:   embedder,
		store:      store,
		textbook:   retriever.NewTextbookRetriever(store, cfg.VectorDB, cfg.Subjects, cost),
		generated:  retriever.NewGeneratedRetriever(store, cfg.VectorDB, cfg.Subjects, cost),
		web:        retriever.NewWebRetriever(store, cfg.VectorDB, cfg.Subjects, cost),
		strategy:   strategy,
		generator:  generator,
		answers:    answers,
		monitor:    coverage.NewMonitor(cfg.Scrape, hc),
		cost:       cost,
	}, nil
}

// CostStats exposes the process-wide remote call counters.
func (e *Engine) CostStats() map[metrics.CallType]uint64 {
	return e.cost.Stats()
}

// Close releases the embedding model and the index connection.
func (e *Engine) Close() error {
	var first error
	if e.embedder != nil {
		if err := e.embedder.Close(); err != nil {
			first = err
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Answer runs the full pipeline for one query.
func (e *Engine) Answer(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()
	rec := metrics.NewRetrievalRecord()
	rec.QueryID = uuid.NewString()
	defer func() {
		rec.TotalLatencyMs = time.Since(start).Milliseconds()
		rec.LogJSON()
	}()

	qc, err := e.prepare(q, rec)
	if err != nil {
		rec.ErrorMsg = err.Error()
		return nil, err
	}

	// Canned intents skip everything, including the caches.
	cls := e.classifier.Classify(qc.Question)
	qc.Intent = cls.Intent
	qc.Broad = cls.Broad
	qc.Language = cls.Language
	rec.Intent = cls.Intent.String()
	rec.Language = cls.Language
	rec.Broad = cls.Broad
	if cls.Intent.Canned() {
		rec.Success = true
		rec.Stage = fallback.StageNormal.String()
		return &Result{
			QueryID: rec.QueryID,
			Answer:  cls.Response,
			Canned:  true,
			Stage:   fallback.StageNormal.String(),
		}, nil
	}

	// Answer cache: an identical question for the same subject and class is
	// served byte-identically with zero remote calls.
	answerKey := cache.AnswerKey(qc.Question, qc.Subject, qc.ClassLevel)
	if ent, ok := e.answers.Get(answerKey); ok {
		metrics.IncCache("answer", "hit")
		rec.AnswerCacheHit = true
		rec.Success = true
		rec.Stage = fallback.StageNormal.String()
		metrics.IncFallbackStage(rec.Stage)
		return &Result{
			QueryID:      rec.QueryID,
			Answer:       ent.Answer,
			Sources:      ent.Sources,
			Distribution: ent.Distribution,
			CacheHit:     true,
			Stage:        rec.Stage,
		}, nil
	}
	metrics.IncCache("answer", "miss")

	prof := e.profiles.Select(qc.Mode)
	if qc.Broad {
		// A summary style question pulls evidence wider than a pointed one.
		prof = profile.Broaden(prof)
	}

	res, err := e.retrieveAndGenerate(ctx, qc, prof, rec)
	if err != nil {
		rec.ErrorMsg = err.Error()
		return nil, err
	}
	res.QueryID = rec.QueryID

	// Only sourced, freshly generated answers are cached; canned, verbatim
	// and fallback answers either never recur or must stay marked as such.
	if res.cacheable {
		e.answers.Set(answerKey, &cache.AnswerEntry{
			Answer:       res.Answer,
			Sources:      res.Sources,
			Distribution: res.Distribution,
			Language:     qc.Language,
			CreatedAt:    time.Now(),
		})
	}

	rec.Success = true
	metrics.IncFallbackStage(res.Stage)
	return &res.Result, nil
}

// prepare validates the query and builds the immutable query context.
func (e *Engine) prepare(q Query, rec *metrics.RetrievalRecord) (schema.QueryContext, error) {
	if q.Question == "" {
		return schema.QueryContext{}, ErrEmptyQuestion
	}
	mode := q.Mode
	if mode == "" {
		mode = schema.ModeBasic
	}
	if !mode.Valid() {
		return schema.QueryContext{}, fmt.Errorf("%w: %q", ErrInvalidMode, q.Mode)
	}

	class := q.ClassLevel
	if min, max, ok := e.walk.Range(q.Subject); ok {
		if class < min {
			class = min
		}
		if class > max {
			class = max
		}
	}

	qc := schema.QueryContext{
		Question:   q.Question,
		Subject:    q.Subject,
		ClassLevel: class,
		Chapter:    q.Chapter,
		Mode:       mode,
	}
	rec.Subject = qc.Subject
	rec.Class = qc.ClassLevel
	rec.Mode = string(mode)
	return qc, nil
}

// internalResult augments Result with engine-internal flags.
type internalResult struct {
	Result
	cacheable bool
}

func (e *Engine) retrieveAndGenerate(ctx context.Context, qc schema.QueryContext, prof profile.Profile, rec *metrics.RetrievalRecord) (*internalResult, error) {
	embedBefore := e.cost.Stats()[metrics.CallEmbedding]
	vector, err := e.embedder.Embed(ctx, qc.Question, qc.Language)
	rec.EmbeddingCalls = int(e.cost.Stats()[metrics.CallEmbedding] - embedBefore)
	rec.EmbeddingCacheHit = err == nil && rec.EmbeddingCalls == 0
	if err != nil {
		// No embedding means no index evidence anywhere; degrade straight to
		// the general-knowledge stage rather than failing the query.
		logger.Warnf("embedding unavailable, degrading to general knowledge: %v", err)
		return e.generalKnowledge(ctx, qc, rec)
	}

	classes := e.walk.ClassesToSearch(qc.Subject, qc.ClassLevel, qc.Mode)
	walkOut := orchestrator.Walk(ctx, e.textbook, qc, vector, classes, prof, rec)
	rec.ClassesSearched = walkOut.Searched
	rec.VectorQueries = len(walkOut.Searched)

	var generatedChunks []schema.Chunk
	gen, genErr := e.generated.Search(ctx, qc, vector, prof)
	rec.VectorQueries++
	if genErr != nil {
		logger.Warnf("generated-answer query failed, treating as empty: %v", genErr)
	} else {
		generatedChunks = gen.Chunks
		metrics.ObserveVerbatimScore(gen.TopScore)
		// Verbatim reuse is checked before any web retrieval so a reusable
		// answer never spends a web query.
		if fusion.VerbatimHit(gen.TopScore, prof) {
			rec.VerbatimHit = true
			rec.Stage = fallback.StageNormal.String()
			rec.AcceptedChunks = 1
			metrics.IncCache("verbatim", "hit")
			return &internalResult{Result: Result{
				Answer:       gen.Top.Text,
				Sources:      []schema.Chunk{gen.Top},
				Distribution: schema.ClassDistribution{},
				CacheHit:     true,
				Stage:        rec.Stage,
			}}, nil
		}
	}

	textbookChunks := walkOut.Chunks
	stage := fallback.StageNormal

	// No evidence cleared the threshold anywhere: escalate.
	if len(textbookChunks) == 0 && len(generatedChunks) == 0 {
		stage = fallback.Next(stage, qc.Mode, prof.WidenClasses)
		if stage == fallback.StageWiden {
			widened := e.widen(ctx, qc, vector, walkOut.Searched, classes, prof, rec)
			if len(widened) == 0 {
				stage = fallback.Next(stage, qc.Mode, prof.WidenClasses)
			} else {
				textbookChunks = widened
			}
		}
		if stage == fallback.StageGeneralKnowledge {
			e.monitor.Observe(qc.Subject, qc.ClassLevel, qc.Chapter, qc.Question, true)
			return e.generalKnowledge(ctx, qc, rec)
		}
	}

	// Web retrieval only runs when textbook and generated coverage together
	// fall short of the profile's minimum.
	var webChunks []schema.Chunk
	thin := fusion.NeedWeb(textbookChunks, generatedChunks, prof)
	if thin {
		webChunks, err = e.web.Search(ctx, qc, vector, prof)
		rec.WebQueries++
		if err != nil {
			logger.Warnf("web query failed, treating as empty: %v", err)
			webChunks = nil
		}
	}
	e.monitor.Observe(qc.Subject, qc.ClassLevel, qc.Chapter, qc.Question, thin)

	fused := e.strategy.Fuse(textbookChunks, generatedChunks, webChunks, prof)
	fused = post.FitBudget(fused, prof.ContextTokenBudget)
	dist := fusion.Distribution(fused)
	rec.AcceptedChunks = len(fused)
	rec.Distribution = dist
	rec.Stage = stage.String()

	systemPrompt, userMessage := llm.BuildSourcedPrompt(qc, fused)
	answer, err := e.generator.GenerateCompletion(ctx, systemPrompt, userMessage)
	if err != nil {
		// Generation failures surface as a user-visible apology, never as a
		// transport error for a query we had evidence for.
		logger.Errorf("generation failed: %v", err)
		rec.GenerationCalls++
		return &internalResult{Result: Result{
			Answer:       llm.Apology,
			Sources:      fused,
			Distribution: dist,
			Stage:        stage.String(),
		}}, nil
	}
	rec.GenerationCalls++

	return &internalResult{
		Result: Result{
			Answer:       answer,
			Sources:      fused,
			Distribution: dist,
			Stage:        stage.String(),
		},
		cacheable: true,
	}, nil
}

// widen re-queries class levels below the searched range without a chapter
// filter. It returns the first class's accepted chunks, earliest class first.
func (e *Engine) widen(ctx context.Context, qc schema.QueryContext, vector []float32, searched, planned []int, prof profile.Profile, rec *metrics.RetrievalRecord) []schema.Chunk {
	lowest := lowestClass(searched, planned, qc.ClassLevel)
	widenQC := qc
	widenQC.Chapter = ""

	for _, class := range e.walk.WidenBelow(qc.Subject, lowest, prof.WidenClasses) {
		if ctx.Err() != nil {
			break
		}
		chunks, err := e.textbook.SearchClass(ctx, widenQC, vector, class, prof)
		rec.ClassesSearched = append(rec.ClassesSearched, class)
		if err != nil {
			logger.Warnf("widen query for class %d failed: %v", class, err)
			rec.AddClassError(class, err)
			continue
		}
		if len(chunks) > 0 {
			return chunks
		}
	}
	return nil
}

// generalKnowledge issues the single unsourced generation call. Its failure
// is the only terminal error for a well-formed query.
func (e *Engine) generalKnowledge(ctx context.Context, qc schema.QueryContext, rec *metrics.RetrievalRecord) (*internalResult, error) {
	rec.Stage = fallback.StageGeneralKnowledge.String()

	systemPrompt, userMessage := llm.BuildGeneralPrompt(qc)
	answer, err := e.generator.GenerateCompletion(ctx, systemPrompt, userMessage)
	rec.GenerationCalls++
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExhausted, err)
	}

	return &internalResult{Result: Result{
		Answer:       llm.EnsureDisclaimer(answer),
		Sources:      nil,
		Distribution: schema.ClassDistribution{},
		Stage:        rec.Stage,
	}}, nil
}

func lowestClass(searched, planned []int, fallbackClass int) int {
	lowest := 0
	for _, c := range searched {
		if lowest == 0 || c < lowest {
			lowest = c
		}
	}
	if lowest == 0 {
		for _, c := range planned {
			if lowest == 0 || c < lowest {
				lowest = c
			}
		}
	}
	if lowest == 0 {
		lowest = fallbackClass
	}
	return lowest
}
