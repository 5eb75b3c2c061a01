// internal/qa/retrieval/search.go
package retrieval

import (
	"context"

	stderrors "newsqa/internal/common/errors"
	"newsqa/internal/common/logger"
	"newsqa/internal/common/metrics"
	"newsqa/internal/models"
	"newsqa/internal/qa/i18n"
)

const (
	SimpleSearchHandlerName = "SimpleSearchHandler"
	HybridSearchHandlerName = "HybridSearchHandler"
)

// searchHandler is the shared mechanics of the two vector-search strategies.
// They differ only in the observability tag: hybrid marks low-confidence or
// ambiguous routing while simple marks a confident factoid lookup.
type searchHandler struct {
	name   string
	store  VectorStore
	logger logger.Logger
}

func NewSimpleSearchHandler(store VectorStore, log logger.Logger) Handler {
	return &searchHandler{
		name:   SimpleSearchHandlerName,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"handler": SimpleSearchHandlerName}),
	}
}

func NewHybridSearchHandler(store VectorStore, log logger.Logger) Handler {
	return &searchHandler{
		name:   HybridSearchHandlerName,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"handler": HybridSearchHandlerName}),
	}
}

func (h *searchHandler) Name() string {
	return h.name
}

// Retrieve runs a pure similarity search on the pivot-language query.
// Extracted entities are passthrough only; no metadata filter is applied.
func (h *searchHandler) Retrieve(ctx context.Context, query string, entities []models.Entity, topK int, language string) []models.SearchResult {
	results, err := h.store.Search(ctx, query, topK, nil)
	if err != nil {
		h.logger.Error("vector search failed", map[string]interface{}{
			"error": err.Error(),
			"code":  string(stderrors.ErrCodeBackendUnavailable),
		})
		metrics.QueriesFailed.WithLabelValues(h.name, string(stderrors.ErrCodeBackendUnavailable)).Inc()
		return errorResult(language, i18n.KeyRetrievalError)
	}

	if len(results) == 0 {
		h.logger.Info("vector search found nothing", map[string]interface{}{
			"code": string(stderrors.ErrCodeNotFound),
		})
		return []models.SearchResult{{
			DocID:   NoResultsDocID,
			Content: i18n.Message(language, i18n.KeyNoInformation),
			Score:   0,
		}}
	}

	h.logger.Info("vector search completed", map[string]interface{}{
		"resultCount": len(results),
	})

	return results
}
