// internal/qa/retrieval/statistics.go
package retrieval

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	stderrors "newsqa/internal/common/errors"
	"newsqa/internal/common/llm"
	"newsqa/internal/common/logger"
	"newsqa/internal/common/metrics"
	"newsqa/internal/models"
	"newsqa/internal/qa/i18n"
)

const StatisticsHandlerName = "StatisticsHandler"

const maxStatisticsRows = 50

var (
	ErrSQLGenerationFailed = errors.New("SQL_GENERATION_FAILED")
	ErrSQLRejected         = errors.New("SQL_REJECTED")
)

// newsSchema is the read-only table description handed to the completion
// service for SQL synthesis.
const newsSchema = `Table news_articles:
  id            TEXT PRIMARY KEY
  title         TEXT
  content       TEXT
  category      TEXT        -- e.g. politics, economy, sport, culture
  importance    REAL        -- editorial importance score, higher is more important
  source        TEXT        -- publisher name
  url           TEXT
  published_at  TIMESTAMP`

const sqlSystemPrompt = `You translate natural-language questions about a news archive into a single read-only PostgreSQL SELECT statement.

Schema:
` + newsSchema + `

Rules:
- Output exactly one JSON object: {"sql": "..."}
- SELECT statements only; never modify data.
- Limit results to at most 50 rows.

Examples:
Q: how many articles were published about the economy in March 2025?
{"sql": "SELECT COUNT(*) AS article_count FROM news_articles WHERE category = 'economy' AND published_at >= '2025-03-01' AND published_at < '2025-04-01'"}

Q: which category had the most articles last year?
{"sql": "SELECT category, COUNT(*) AS article_count FROM news_articles WHERE published_at >= '2024-01-01' AND published_at < '2025-01-01' GROUP BY category ORDER BY article_count DESC LIMIT 10"}

Q: what were the most important news of 2025?
{"sql": "SELECT title, category, importance, source, url, published_at FROM news_articles WHERE published_at >= '2025-01-01' AND published_at < '2026-01-01' ORDER BY importance DESC LIMIT 10"}`

// forbiddenSQL rejects anything beyond a single plain SELECT. The database
// role is read-only too; this gate exists so a prompt-injected statement
// fails loudly here instead of reaching the database at all.
var forbiddenSQL = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|grant|revoke|truncate|copy|vacuum|execute|call|do|merge|pg_sleep)\b|;|--|/\*`)

// StatisticsHandler answers aggregate questions with two-phase NL→SQL:
// synthesize a SELECT via the completion service, gate it, run it read-only.
type StatisticsHandler struct {
	db        *sql.DB
	completer llm.Completer
	logger    logger.Logger
}

func NewStatisticsHandler(db *sql.DB, completer llm.Completer, log logger.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		db:        db,
		completer: completer,
		logger:    log.WithFields(map[string]interface{}{"handler": StatisticsHandlerName}),
	}
}

func (h *StatisticsHandler) Name() string {
	return StatisticsHandlerName
}

func (h *StatisticsHandler) Retrieve(ctx context.Context, query string, entities []models.Entity, topK int, language string) []models.SearchResult {
	statement, err := h.generateSQL(ctx, query)
	if err != nil {
		// Timeouts keep their own code; everything else here means the model
		// produced no usable statement.
		code := stderrors.ErrCodeUpstreamMalformedResponse
		if errors.Is(err, llm.ErrCompletionTimeout) {
			code = stderrors.ErrCodeUpstreamTimeout
		}
		h.logger.Error("SQL synthesis failed", map[string]interface{}{
			"error": err.Error(),
			"code":  string(code),
		})
		metrics.QueriesFailed.WithLabelValues(StatisticsHandlerName, string(code)).Inc()
		return errorResult(language, i18n.KeyStatisticsError)
	}

	if err := ValidateSQL(statement); err != nil {
		h.logger.Warn("generated SQL rejected", map[string]interface{}{
			"error": err.Error(),
			"sql":   statement,
			"code":  string(stderrors.ErrCodeSQLValidationFailed),
		})
		metrics.QueriesFailed.WithLabelValues(StatisticsHandlerName, string(stderrors.ErrCodeSQLValidationFailed)).Inc()
		return errorResult(language, i18n.KeyStatisticsError)
	}

	results, err := h.executeSQL(ctx, statement, topK)
	if err != nil {
		h.logger.Error("SQL execution failed", map[string]interface{}{
			"error": err.Error(),
			"code":  string(stderrors.ErrCodeBackendUnavailable),
		})
		metrics.QueriesFailed.WithLabelValues(StatisticsHandlerName, string(stderrors.ErrCodeBackendUnavailable)).Inc()
		return errorResult(language, i18n.KeyStatisticsError)
	}

	if len(results) == 0 {
		return []models.SearchResult{{
			DocID:   NoResultsDocID,
			Content: i18n.Message(language, i18n.KeyNoResults),
			Score:   0,
		}}
	}

	h.logger.Info("statistics query completed", map[string]interface{}{
		"rowCount": len(results),
	})

	return results
}

func (h *StatisticsHandler) generateSQL(ctx context.Context, query string) (string, error) {
	raw, err := h.completer.Complete(ctx, []llm.Message{
		llm.SystemMessage(sqlSystemPrompt),
		llm.UserMessage(query),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSQLGenerationFailed, err)
	}

	var envelope struct {
		SQL string `json:"sql"`
	}
	if err := json.Unmarshal([]byte(extractObject(raw)), &envelope); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrSQLGenerationFailed, err)
	}
	if strings.TrimSpace(envelope.SQL) == "" {
		return "", fmt.Errorf("%w: empty statement", ErrSQLGenerationFailed)
	}

	return strings.TrimSpace(envelope.SQL), nil
}

// extractObject trims prose around the outermost {...} in a completion.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// ValidateSQL enforces the read-only gate on generated statements.
func ValidateSQL(statement string) error {
	trimmed := strings.TrimSpace(statement)
	if !strings.HasPrefix(strings.ToLower(trimmed), "select") {
		return fmt.Errorf("%w: not a SELECT statement", ErrSQLRejected)
	}
	if loc := forbiddenSQL.FindString(trimmed); loc != "" {
		return fmt.Errorf("%w: forbidden token %q", ErrSQLRejected, loc)
	}
	return nil
}

func (h *StatisticsHandler) executeSQL(ctx context.Context, statement string, topK int) ([]models.SearchResult, error) {
	rows, err := h.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	limit := maxStatisticsRows
	if topK > 0 && topK < limit {
		limit = topK
	}

	var results []models.SearchResult
	for i := 0; rows.Next() && i < limit; i++ {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for j := range values {
			pointers[j] = &values[j]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		results = append(results, rowToResult(columns, values, i))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return results, nil
}

// rowToResult formats one result row as evidence. Row order carries the
// ranking the statement produced, so score decays with position.
func rowToResult(columns []string, values []interface{}, index int) models.SearchResult {
	parts := make([]string, 0, len(columns))
	metadata := map[string]interface{}{}
	docID := fmt.Sprintf("stat-%d", index)

	for j, col := range columns {
		value := normalizeSQLValue(values[j])
		parts = append(parts, fmt.Sprintf("%s: %v", col, value))

		switch col {
		case "id":
			if s, ok := value.(string); ok && s != "" {
				docID = s
			}
		case "category", "source", "url":
			metadata[col] = value
		case "importance":
			if f, ok := value.(float64); ok {
				metadata[col] = f
			}
		case "published_at":
			metadata["date"] = value
		}
	}

	return models.SearchResult{
		DocID:    docID,
		Content:  strings.Join(parts, " | "),
		Score:    1.0 - float64(index)*0.01,
		Metadata: metadata,
	}
}

func normalizeSQLValue(v interface{}) interface{} {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case nil:
		return ""
	default:
		return v
	}
}
