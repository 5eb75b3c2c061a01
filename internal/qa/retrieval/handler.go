// internal/qa/retrieval/handler.go

// Package retrieval implements the six retrieval strategies behind a single
// handler contract plus the fixed dispatch table that selects one per query.
package retrieval

import (
	"context"
	"database/sql"

	"newsqa/internal/common/llm"
	"newsqa/internal/common/logger"
	"newsqa/internal/models"
	"newsqa/internal/qa/i18n"
)

// Handler is the common retrieval contract. Implementations never return an
// error: internal failures surface as a single zero-score result carrying a
// localized message.
type Handler interface {
	Name() string
	Retrieve(ctx context.Context, query string, entities []models.Entity, topK int, language string) []models.SearchResult
}

// Marker doc ids for degraded results. The orchestration layer treats these
// as terminal messages rather than evidence.
const (
	ErrorDocID     = "error"
	NoResultsDocID = "no-results"
	StaticDocID    = "static"
)

// IsTerminal reports whether a result set is a degraded or static message
// rather than evidence to synthesize over.
func IsTerminal(results []models.SearchResult) bool {
	if len(results) != 1 {
		return false
	}
	switch results[0].DocID {
	case ErrorDocID, NoResultsDocID, StaticDocID:
		return true
	}
	return false
}

func errorResult(language, key string) []models.SearchResult {
	return []models.SearchResult{{
		DocID:   ErrorDocID,
		Content: i18n.Message(language, key),
		Score:   0,
	}}
}

func staticResult(language, key string) []models.SearchResult {
	return []models.SearchResult{{
		DocID:   StaticDocID,
		Content: i18n.Message(language, key),
		Score:   1,
	}}
}

// Dispatcher owns the strategy → handler table. Built once at process start;
// exactly one handler runs per query and strategies are never combined.
type Dispatcher struct {
	table map[models.RetrievalStrategy]Handler
}

// NewDispatcher wires every strategy to its handler. The table is total by
// construction: a missing strategy falls back to the hybrid handler.
func NewDispatcher(store VectorStore, db *sql.DB, completer llm.Completer, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		table: map[models.RetrievalStrategy]Handler{
			models.StrategySimpleSearch:    NewSimpleSearchHandler(store, log),
			models.StrategyHybridSearch:    NewHybridSearchHandler(store, log),
			models.StrategyStatisticsQuery: NewStatisticsHandler(db, completer, log),
			models.StrategyPredictionQuery: NewPredictionHandler(log),
			models.StrategyStaticResponse:  NewTalkHandler(log),
			models.StrategyReject:          NewAttackingHandler(log),
		},
	}
}

// Dispatch returns the handler for a strategy.
func (d *Dispatcher) Dispatch(strategy models.RetrievalStrategy) Handler {
	if h, ok := d.table[strategy]; ok {
		return h
	}
	return d.table[models.StrategyHybridSearch]
}
