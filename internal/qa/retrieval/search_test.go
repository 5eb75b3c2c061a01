// internal/qa/retrieval/search_test.go
package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsqa/internal/common/logger"
	"newsqa/internal/models"
	"newsqa/internal/qa/i18n"
)

// ==========================
// Test Helper Functions
// ==========================

// spyVectorStore records calls and serves canned results.
type spyVectorStore struct {
	results   []models.SearchResult
	err       error
	calls     int
	lastQuery string
	lastTopK  int
}

func (s *spyVectorStore) Search(ctx context.Context, query string, topK int, filters map[string]interface{}) ([]models.SearchResult, error) {
	s.calls++
	s.lastQuery = query
	s.lastTopK = topK
	return s.results, s.err
}

func sampleResults() []models.SearchResult {
	return []models.SearchResult{
		{DocID: "doc-1", Content: "Qarabağ won the match", Score: 0.91, Metadata: map[string]interface{}{"source": "report.az"}},
		{DocID: "doc-2", Content: "The final was played in Baku", Score: 0.74},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestSearchHandler_Retrieve_Success(t *testing.T) {
	store := &spyVectorStore{results: sampleResults()}
	handler := NewSimpleSearchHandler(store, logger.NewTestLogger(t))

	results := handler.Retrieve(context.Background(), "who won the final", nil, 5, "en")

	require.Len(t, results, 2)
	assert.Equal(t, "doc-1", results[0].DocID)
	assert.False(t, IsTerminal(results))
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, "who won the final", store.lastQuery)
	assert.Equal(t, 5, store.lastTopK)
}

func TestSearchHandler_Names(t *testing.T) {
	log := logger.NewNoOpLogger()
	assert.Equal(t, SimpleSearchHandlerName, NewSimpleSearchHandler(&spyVectorStore{}, log).Name())
	assert.Equal(t, HybridSearchHandlerName, NewHybridSearchHandler(&spyVectorStore{}, log).Name())
}

func TestSearchHandler_Retrieve_EmptyIndex(t *testing.T) {
	store := &spyVectorStore{results: nil}
	handler := NewHybridSearchHandler(store, logger.NewTestLogger(t))

	results := handler.Retrieve(context.Background(), "obscure topic", nil, 5, "az")

	require.Len(t, results, 1)
	assert.Equal(t, NoResultsDocID, results[0].DocID)
	assert.Equal(t, i18n.Message("az", i18n.KeyNoInformation), results[0].Content)
	assert.True(t, IsTerminal(results))
}

// ==========================
// Error Handling Tests
// ==========================

func TestSearchHandler_Retrieve_StoreFailure(t *testing.T) {
	store := &spyVectorStore{err: errors.New("connection reset")}
	handler := NewSimpleSearchHandler(store, logger.NewTestLogger(t))

	results := handler.Retrieve(context.Background(), "anything", nil, 5, "ru")

	require.Len(t, results, 1)
	assert.Equal(t, ErrorDocID, results[0].DocID)
	assert.Equal(t, i18n.Message("ru", i18n.KeyRetrievalError), results[0].Content)
	assert.Zero(t, results[0].Score)
	assert.True(t, IsTerminal(results))
}

// ==========================
// Dispatcher Tests
// ==========================

func TestDispatcher_TableIsTotal(t *testing.T) {
	dispatcher := NewDispatcher(&spyVectorStore{}, nil, nil, logger.NewNoOpLogger())

	tests := []struct {
		strategy models.RetrievalStrategy
		expected string
	}{
		{strategy: models.StrategySimpleSearch, expected: SimpleSearchHandlerName},
		{strategy: models.StrategyHybridSearch, expected: HybridSearchHandlerName},
		{strategy: models.StrategyStatisticsQuery, expected: StatisticsHandlerName},
		{strategy: models.StrategyPredictionQuery, expected: PredictionHandlerName},
		{strategy: models.StrategyStaticResponse, expected: TalkHandlerName},
		{strategy: models.StrategyReject, expected: AttackingHandlerName},
	}

	for _, tt := range tests {
		handler := dispatcher.Dispatch(tt.strategy)
		require.NotNil(t, handler, string(tt.strategy))
		assert.Equal(t, tt.expected, handler.Name())
	}
}

func TestDispatcher_UnknownStrategyFallsBackToHybrid(t *testing.T) {
	dispatcher := NewDispatcher(&spyVectorStore{}, nil, nil, logger.NewNoOpLogger())

	handler := dispatcher.Dispatch(models.RetrievalStrategy("BOGUS"))

	require.NotNil(t, handler)
	assert.Equal(t, HybridSearchHandlerName, handler.Name())
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal([]models.SearchResult{{DocID: ErrorDocID}}))
	assert.True(t, IsTerminal([]models.SearchResult{{DocID: NoResultsDocID}}))
	assert.True(t, IsTerminal([]models.SearchResult{{DocID: StaticDocID}}))
	assert.False(t, IsTerminal([]models.SearchResult{{DocID: "doc-1"}}))
	assert.False(t, IsTerminal(sampleResults()))
	assert.False(t, IsTerminal(nil))
}
