// internal/qa/understanding/handler.go
package understanding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/xeipuuv/gojsonschema"

	stderrors "newsqa/internal/common/errors"
	"newsqa/internal/common/llm"
	"newsqa/internal/common/logger"
	"newsqa/internal/common/metrics"
	"newsqa/internal/models"
)

const stageName = "understanding"

// envelopeSchema is the minimal shape the completion output must satisfy.
// Anything weaker falls back entirely; individually bad entities are dropped
// during conversion instead.
var envelopeSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"intent"},
	"properties": map[string]interface{}{
		"intent":     map[string]interface{}{"type": "string"},
		"confidence": map[string]interface{}{"type": "number"},
		"entities":   map[string]interface{}{"type": "array"},
		"keywords":   map[string]interface{}{"type": "array"},
	},
}

// Handler turns a raw question into a ProcessedQuery and QueryAnalysis.
// The only error it ever returns is the empty-query input error; every other
// failure degrades to the fallback result.
type Handler struct {
	config    *Config
	completer llm.Completer
	logger    logger.Logger
}

func NewHandler(config *Config, completer llm.Completer, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		completer: completer,
		logger:    log.WithFields(map[string]interface{}{"stage": stageName}),
	}
}

func (h *Handler) Understand(ctx context.Context, rawQuery string) (models.ProcessedQuery, models.QueryAnalysis, error) {
	if strings.TrimSpace(rawQuery) == "" {
		return models.ProcessedQuery{}, models.QueryAnalysis{}, stderrors.NewEmptyQueryError()
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	messages := []llm.Message{
		llm.SystemMessage(buildSystemPrompt(h.config.PivotLanguage)),
		llm.UserMessage(rawQuery),
	}

	raw, err := h.completer.Complete(ctx, messages)
	if err != nil {
		code := llm.ClassifyError(err)
		h.logger.Warn("completion failed, using fallback analysis", map[string]interface{}{
			"error": err.Error(),
			"code":  string(code),
		})
		metrics.QueriesFailed.WithLabelValues(stageName, string(code)).Inc()
		q, a := h.fallback(rawQuery)
		return q, a, nil
	}

	envelope, err := parseEnvelope(raw)
	if err != nil {
		h.logger.Warn("unparseable completion output, using fallback analysis", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.QueriesFailed.WithLabelValues(stageName, string(stderrors.ErrCodeUpstreamMalformedResponse)).Inc()
		q, a := h.fallback(rawQuery)
		return q, a, nil
	}

	query, analysis := h.convert(rawQuery, envelope)

	h.logger.Info("query understood", map[string]interface{}{
		"language":    query.Language,
		"intent":      string(analysis.Intent),
		"confidence":  analysis.Confidence,
		"entityCount": len(analysis.Entities),
	})

	return query, analysis, nil
}

// Clean is the normalization step applied to every query. Idempotent.
func Clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// parseEnvelope extracts the first balanced JSON object from the raw output
// and validates it against the envelope schema.
func parseEnvelope(raw string) (*analysisEnvelope, error) {
	span, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("no JSON object in output")
	}

	var generic map[string]interface{}
	if err := json.Unmarshal([]byte(span), &generic); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(envelopeSchema),
		gojsonschema.NewGoLoader(generic),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("envelope schema violated: %v", result.Errors())
	}

	var envelope analysisEnvelope
	if err := json.Unmarshal([]byte(span), &envelope); err != nil {
		return nil, fmt.Errorf("envelope decode: %w", err)
	}
	return &envelope, nil
}

// extractJSONObject returns the first balanced {...} span, tolerating prose
// around it and strings containing braces inside it.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func (h *Handler) convert(rawQuery string, env *analysisEnvelope) (models.ProcessedQuery, models.QueryAnalysis) {
	cleaned := Clean(rawQuery)

	corrected := strings.TrimSpace(env.Corrected)
	if corrected == "" {
		corrected = strings.TrimSpace(env.TranslatedToPivot)
	}
	if corrected == "" {
		corrected = cleaned
	}

	language := strings.ToLower(strings.TrimSpace(env.OriginalLanguage))
	if language == "" {
		language = guessLanguage(rawQuery)
	}

	entities := make([]models.Entity, 0, len(env.Entities))
	for _, e := range env.Entities {
		if strings.TrimSpace(e.Text) == "" {
			continue // malformed record, keep the rest
		}
		normalized := e.Normalized
		if normalized == "" {
			normalized = e.Text
		}
		entities = append(entities, models.Entity{
			Text:       e.Text,
			Type:       models.NormalizeEntityType(e.Type),
			Normalized: normalized,
			Confidence: models.ClampConfidence(e.Confidence),
		})
	}

	keywords := env.Keywords
	if len(keywords) == 0 {
		keywords = strings.Fields(corrected)
	}

	query := models.ProcessedQuery{
		Original:  rawQuery,
		Cleaned:   cleaned,
		Corrected: corrected,
		Language:  language,
	}

	analysis := models.QueryAnalysis{
		Intent:     models.ParseIntent(env.Intent),
		Entities:   entities,
		Confidence: models.ClampConfidence(env.Confidence),
		Keywords:   keywords,
		Metadata: map[string]interface{}{
			"original_language":   language,
			"translated_to_pivot": corrected,
			"reasoning":           env.Reasoning,
		},
	}

	return query, analysis
}

// fallback produces the guaranteed-usable result when the completion service
// fails or returns garbage.
func (h *Handler) fallback(rawQuery string) (models.ProcessedQuery, models.QueryAnalysis) {
	cleaned := Clean(rawQuery)
	language := guessLanguage(rawQuery)

	query := models.ProcessedQuery{
		Original:  rawQuery,
		Cleaned:   cleaned,
		Corrected: cleaned,
		Language:  language,
	}

	analysis := models.QueryAnalysis{
		Intent:     models.IntentUnknown,
		Entities:   []models.Entity{},
		Confidence: 0,
		Keywords:   strings.Fields(cleaned),
		Metadata: map[string]interface{}{
			"original_language": language,
			"fallback":          true,
		},
	}

	return query, analysis
}

// guessLanguage is a best-effort script heuristic used only when the
// completion service gave no answer. Good enough to pick a message catalog.
func guessLanguage(s string) string {
	hasLatin := false
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			return "ru"
		case strings.ContainsRune("əğışçöüƏĞIŞÇÖÜı", r):
			return "az"
		case unicode.Is(unicode.Latin, r):
			hasLatin = true
		}
	}
	if hasLatin {
		return "en"
	}
	return "unknown"
}
