// internal/qa/router/router.go

// Package router maps a query's classified intent to exactly one retrieval
// strategy. Pure functions, no I/O, no state.
package router

import "newsqa/internal/models"

// Route returns the retrieval strategy for an analysis. Total over the Intent
// enum: every value maps to a strategy and anything unmapped falls back to
// hybrid search.
func Route(analysis models.QueryAnalysis) models.RetrievalStrategy {
	switch analysis.Intent {
	case models.IntentFactoid:
		return models.StrategySimpleSearch
	case models.IntentStatistics:
		return models.StrategyStatisticsQuery
	case models.IntentPrediction:
		return models.StrategyPredictionQuery
	case models.IntentTalk:
		return models.StrategyStaticResponse
	case models.IntentAttacking:
		return models.StrategyReject
	case models.IntentAnalytical:
		return models.StrategyHybridSearch
	default:
		return models.StrategyHybridSearch
	}
}

// Describe returns a human-readable description of a strategy for logs.
func Describe(strategy models.RetrievalStrategy) string {
	switch strategy {
	case models.StrategySimpleSearch:
		return "similarity search over the news index"
	case models.StrategyStatisticsQuery:
		return "LLM-synthesized read-only SQL over the news store"
	case models.StrategyPredictionQuery:
		return "static redirect to historical statistics"
	case models.StrategyStaticResponse:
		return "static conversational response"
	case models.StrategyReject:
		return "security rejection, no backend access"
	case models.StrategyHybridSearch:
		return "similarity search fallback for ambiguous queries"
	default:
		return "unknown strategy"
	}
}
