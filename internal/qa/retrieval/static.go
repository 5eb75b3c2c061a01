// internal/qa/retrieval/static.go
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
	TalkHandlerName       = "TalkHandler"
	PredictionHandlerName = "PredictionHandler"
	AttackingHandlerName  = "AttackingHandler"
)

// auditQueryLimit bounds how much of an attacking query is logged.
const auditQueryLimit = 120

// TalkHandler answers greetings and small talk with a static localized
// message. No backend is ever touched.
type TalkHandler struct {
	logger logger.Logger
}

func NewTalkHandler(log logger.Logger) *TalkHandler {
	return &TalkHandler{
		logger: log.WithFields(map[string]interface{}{"handler": TalkHandlerName}),
	}
}

func (h *TalkHandler) Name() string {
	return TalkHandlerName
}

func (h *TalkHandler) Retrieve(ctx context.Context, query string, entities []models.Entity, topK int, language string) []models.SearchResult {
	return staticResult(language, i18n.KeyGreeting)
}

// PredictionHandler redirects forecast questions to historical statistics.
// No forecasting is implemented.
type PredictionHandler struct {
	logger logger.Logger
}

func NewPredictionHandler(log logger.Logger) *PredictionHandler {
	return &PredictionHandler{
		logger: log.WithFields(map[string]interface{}{"handler": PredictionHandlerName}),
	}
}

func (h *PredictionHandler) Name() string {
	return PredictionHandlerName
}

func (h *PredictionHandler) Retrieve(ctx context.Context, query string, entities []models.Entity, topK int, language string) []models.SearchResult {
	return staticResult(language, i18n.KeyPrediction)
}

// AttackingHandler intercepts prompt-injection attempts. Selection of this
// handler is the enforcement point: neither the vector store nor the SQL
// store is reachable from here, and its invocation is an alerting signal.
type AttackingHandler struct {
	logger logger.Logger
}

func NewAttackingHandler(log logger.Logger) *AttackingHandler {
	return &AttackingHandler{
		logger: log.WithFields(map[string]interface{}{"handler": AttackingHandlerName}),
	}
}

func (h *AttackingHandler) Name() string {
	return AttackingHandlerName
}

func (h *AttackingHandler) Retrieve(ctx context.Context, query string, entities []models.Entity, topK int, language string) []models.SearchResult {
	truncated := query
	if runes := []rune(truncated); len(runes) > auditQueryLimit {
		truncated = string(runes[:auditQueryLimit])
	}

	h.logger.Warn("attack attempt intercepted", map[string]interface{}{
		"query":    truncated,
		"language": language,
		"code":     string(stderrors.ErrCodeSecurityRejection),
	})
	metrics.AttackAttempts.Inc()

	return staticResult(language, i18n.KeySecurityWarning)
}
