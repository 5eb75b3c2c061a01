// internal/qa/pipeline.go

// Package qa wires the four pipeline stages (understanding, routing,
// retrieval, generation) plus the response cache into the single entrypoint
// the service exposes. Stage failures degrade; only an empty query is
// rejected outright.
package qa

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"newsqa/internal/common/config"
	stderrors "newsqa/internal/common/errors"
	"newsqa/internal/common/llm"
	"newsqa/internal/common/logger"
	"newsqa/internal/common/metrics"
	"newsqa/internal/models"
	"newsqa/internal/qa/cache"
	"newsqa/internal/qa/generation"
	"newsqa/internal/qa/retrieval"
	"newsqa/internal/qa/router"
	"newsqa/internal/qa/understanding"
)

const errorHandlerName = "error"

// Pipeline is the end-to-end question answering flow. Safe for concurrent use.
type Pipeline struct {
	config     config.PipelineConfig
	understand *understanding.Handler
	dispatcher *retrieval.Dispatcher
	generator  *generation.Generator
	cache      *cache.ResponseCache // nil disables caching
	logger     logger.Logger
}

// New assembles the pipeline from its backends. respCache may be nil when
// caching is disabled.
func New(
	cfg *config.Config,
	completer llm.Completer,
	store retrieval.VectorStore,
	db *sql.DB,
	respCache *cache.ResponseCache,
	log logger.Logger,
) *Pipeline {
	understandCfg := &understanding.Config{
		PivotLanguage: cfg.Pipeline.PivotLanguage,
		Timeout:       time.Duration(cfg.Pipeline.UnderstandingTimeout) * time.Millisecond,
	}
	generationCfg := &generation.Config{
		Timeout: time.Duration(cfg.Pipeline.GenerationTimeout) * time.Millisecond,
	}

	return &Pipeline{
		config:     cfg.Pipeline,
		understand: understanding.NewHandler(understandCfg, completer, log),
		dispatcher: retrieval.NewDispatcher(store, db, completer, log),
		generator:  generation.NewGenerator(generationCfg, completer, log),
		cache:      respCache,
		logger:     log.WithFields(map[string]interface{}{"component": "qa-pipeline"}),
	}
}

// Answer runs a single query through the full pipeline. topK <= 0 uses the
// configured default. The only error callers see is EMPTY_QUERY; everything
// downstream degrades into the response itself.
func (p *Pipeline) Answer(ctx context.Context, query string, topK int) (*models.QAResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, stderrors.NewEmptyQueryError()
	}
	if topK <= 0 {
		topK = p.config.DefaultTopK
	}

	requestID := uuid.New().String()
	log := p.logger.WithFields(map[string]interface{}{"request_id": requestID})

	var cacheKey string
	if p.cache != nil {
		cacheKey = p.cache.GenerateKey(query, map[string]interface{}{"top_k": topK})
		if cached, ok := p.cache.Get(ctx, cacheKey); ok {
			metrics.CacheHits.Inc()
			log.Debug("cache hit", map[string]interface{}{"key": cacheKey})
			return cached, nil
		}
		metrics.CacheMisses.Inc()
	}

	// Stage 1: understanding. Never fails past this point except for the
	// empty query already rejected above.
	start := time.Now()
	processed, analysis, err := p.understand.Understand(ctx, query)
	metrics.StageDuration.WithLabelValues("understanding").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	// Stage 2: routing. Pure, total.
	strategy := router.Route(analysis)
	handler := p.dispatcher.Dispatch(strategy)

	log.Info("query routed", map[string]interface{}{
		"language": processed.Language,
		"intent":   string(analysis.Intent),
		"strategy": string(strategy),
		"handler":  handler.Name(),
	})

	// Stage 3: retrieval. The handler absorbs its own failures.
	start = time.Now()
	retrievalCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.RetrievalTimeout)*time.Millisecond)
	results := handler.Retrieve(retrievalCtx, processed.Corrected, analysis.Entities, topK, processed.Language)
	cancel()
	metrics.StageDuration.WithLabelValues("retrieval").Observe(time.Since(start).Seconds())

	response := &models.QAResponse{
		Query:       query,
		Language:    processed.Language,
		Intent:      analysis.Intent,
		Sources:     []models.SourceInfo{},
		KeyFacts:    []string{},
		HandlerUsed: handler.Name(),
	}

	if retrieval.IsTerminal(results) {
		// Static and degraded messages skip generation entirely.
		response.Answer = results[0].Content
		response.Confidence = models.ConfidenceLow
		response.RetrievedDocuments = []models.RetrievedDocument{}
		if results[0].DocID == retrieval.StaticDocID {
			response.Confidence = models.ConfidenceHigh
		}
	} else {
		start = time.Now()
		answer := p.generator.Generate(ctx, processed.Corrected, results, processed.Language)
		metrics.StageDuration.WithLabelValues("generation").Observe(time.Since(start).Seconds())

		response.Answer = answer.Answer
		response.Confidence = answer.Confidence
		if answer.Sources != nil {
			response.Sources = answer.Sources
		}
		if answer.KeyFacts != nil {
			response.KeyFacts = answer.KeyFacts
		}
		response.TotalFound = len(results)
		response.RetrievedDocuments = make([]models.RetrievedDocument, 0, len(results))
		for _, r := range results {
			response.RetrievedDocuments = append(response.RetrievedDocuments, models.ToRetrievedDocument(r))
		}
	}

	metrics.QueriesProcessed.WithLabelValues(handler.Name()).Inc()

	if p.cache != nil && cacheKey != "" && !isDegraded(results) {
		if err := p.cache.Set(ctx, cacheKey, response, 0); err != nil {
			log.Warn("cache store failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return response, nil
}

// isDegraded reports whether the evidence is a retrieval failure message.
// Failure answers are never cached so a recovered backend serves fresh ones.
func isDegraded(results []models.SearchResult) bool {
	return len(results) == 1 && results[0].DocID == retrieval.ErrorDocID
}

// AnswerBatch answers every query concurrently on a bounded pool, preserving
// input order. One item failing (or panicking) never affects the others: the
// failed slot carries an error response instead.
func (p *Pipeline) AnswerBatch(ctx context.Context, queries []string) []*models.QAResponse {
	responses := make([]*models.QAResponse, len(queries))
	if len(queries) == 0 {
		return responses
	}

	size := p.config.BatchPoolSize
	if size <= 0 {
		size = 1
	}

	var wg sync.WaitGroup
	pool, err := ants.NewPool(size)
	if err != nil {
		// Pool construction only fails on invalid size; fall back to serial.
		for i, q := range queries {
			responses[i] = p.answerItem(ctx, q)
		}
		return responses
	}
	defer pool.Release()

	for i, q := range queries {
		i, q := i, q
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			responses[i] = p.answerItem(ctx, q)
		})
		if submitErr != nil {
			responses[i] = errorResponse(q, submitErr)
			wg.Done()
		}
	}
	wg.Wait()

	return responses
}

func (p *Pipeline) answerItem(ctx context.Context, query string) (resp *models.QAResponse) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic answering batch item", map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
			resp = errorResponse(query, fmt.Errorf("internal error"))
		}
	}()

	resp, err := p.Answer(ctx, query, 0)
	if err != nil {
		return errorResponse(query, err)
	}
	return resp
}

func errorResponse(query string, err error) *models.QAResponse {
	code := stderrors.ErrCodeBackendUnavailable
	var stdErr *stderrors.StandardError
	if errors.As(err, &stdErr) {
		code = stdErr.Code
	}
	metrics.QueriesFailed.WithLabelValues("batch", string(code)).Inc()
	return &models.QAResponse{
		Query:              query,
		Language:           "unknown",
		Intent:             models.IntentUnknown,
		Answer:             err.Error(),
		Sources:            []models.SourceInfo{},
		Confidence:         models.ConfidenceLow,
		KeyFacts:           []string{},
		RetrievedDocuments: []models.RetrievedDocument{},
		HandlerUsed:        errorHandlerName,
	}
}
