// internal/qa/generation/generator.go

// Package generation synthesizes a cited natural-language answer from
// retrieved evidence. It never returns an error: failures degrade to a
// localized low-confidence answer.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	stderrors "newsqa/internal/common/errors"
	"newsqa/internal/common/llm"
	"newsqa/internal/common/logger"
	"newsqa/internal/common/metrics"
	"newsqa/internal/models"
	"newsqa/internal/qa/i18n"
)

const stageName = "generation"

const systemPrompt = `You are the answer composer of a news question-answering system.
You receive a user question, the target answer language, and numbered evidence documents.

Rules:
- Answer using ONLY the provided documents.
- Write the answer in the requested language. Never switch languages, even if the documents are in another language.
- Cite the documents you used by their id.
- If the documents do not contain the answer, say so.

Respond with a single JSON object:
{
  "answer": "...",
  "sources": [{"id": "...", "name": "...", "url": "..."}],
  "confidence": "high" | "medium" | "low",
  "language": "...",
  "key_facts": ["..."]
}`

var envelopeSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"answer"},
	"properties": map[string]interface{}{
		"answer":     map[string]interface{}{"type": "string"},
		"sources":    map[string]interface{}{"type": "array"},
		"confidence": map[string]interface{}{"type": "string"},
		"key_facts":  map[string]interface{}{"type": "array"},
	},
}

type Config struct {
	Timeout time.Duration
}

// Generator produces the final answer from evidence.
type Generator struct {
	config    *Config
	completer llm.Completer
	logger    logger.Logger
}

func NewGenerator(config *Config, completer llm.Completer, log logger.Logger) *Generator {
	return &Generator{
		config:    config,
		completer: completer,
		logger:    log.WithFields(map[string]interface{}{"stage": stageName}),
	}
}

// Generate builds the cited answer. With no evidence it short-circuits
// deterministically without touching the completion service.
func (g *Generator) Generate(ctx context.Context, query string, results []models.SearchResult, language string) Answer {
	if len(results) == 0 {
		return Answer{
			Answer:     i18n.Message(language, i18n.KeyNoInformation),
			Sources:    []models.SourceInfo{},
			Confidence: models.ConfidenceLow,
			KeyFacts:   []string{},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	user := fmt.Sprintf("Question: %s\nAnswer language: %s\n\nEvidence:\n%s",
		query, language, buildContextBlock(results))

	raw, err := g.completer.Complete(ctx, []llm.Message{
		llm.SystemMessage(systemPrompt),
		llm.UserMessage(user),
	})
	if err != nil {
		code := llm.ClassifyError(err)
		g.logger.Error("answer generation failed", map[string]interface{}{
			"error": err.Error(),
			"code":  string(code),
		})
		metrics.QueriesFailed.WithLabelValues(stageName, string(code)).Inc()
		return g.errorAnswer(language)
	}

	envelope, err := parseEnvelope(raw)
	if err != nil {
		g.logger.Error("unparseable generation output", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.QueriesFailed.WithLabelValues(stageName, string(stderrors.ErrCodeUpstreamMalformedResponse)).Inc()
		return g.errorAnswer(language)
	}

	answer := Answer{
		Answer:     envelope.Answer,
		Sources:    resolveSources(envelope.Sources, results),
		Confidence: models.ParseConfidence(envelope.Confidence),
		KeyFacts:   envelope.KeyFacts,
	}
	if answer.KeyFacts == nil {
		answer.KeyFacts = []string{}
	}

	g.logger.Info("answer generated", map[string]interface{}{
		"confidence":  string(answer.Confidence),
		"sourceCount": len(answer.Sources),
	})

	return answer
}

func (g *Generator) errorAnswer(language string) Answer {
	return Answer{
		Answer:     i18n.Message(language, i18n.KeyGenerationError),
		Sources:    []models.SourceInfo{},
		Confidence: models.ConfidenceLow,
		KeyFacts:   []string{},
	}
}

// buildContextBlock renders evidence with a stable field ordering so the same
// results always produce the same prompt.
func buildContextBlock(results []models.SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] id=%s", i+1, r.DocID)
		for _, field := range []string{"source", "url", "category", "importance", "date"} {
			if v, ok := r.Metadata[field]; ok {
				fmt.Fprintf(&b, " %s=%v", field, v)
			}
		}
		fmt.Fprintf(&b, " relevance=%.3f\n%s\n\n", r.Score, r.Content)
	}
	return b.String()
}

func parseEnvelope(raw string) (*answerEnvelope, error) {
	span := raw
	if start := strings.IndexByte(raw, '{'); start >= 0 {
		if end := strings.LastIndexByte(raw, '}'); end > start {
			span = raw[start : end+1]
		}
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

	var envelope answerEnvelope
	if err := json.Unmarshal([]byte(span), &envelope); err != nil {
		return nil, fmt.Errorf("envelope decode: %w", err)
	}
	return &envelope, nil
}

// resolveSources recovers canonical name/url for each cited id from the
// original evidence. Unresolved citations keep the model-provided name but
// never a model-provided url: a link the evidence does not back is not shipped.
func resolveSources(cited []sourceEnvelope, results []models.SearchResult) []models.SourceInfo {
	byID := make(map[string]models.SearchResult, len(results))
	for _, r := range results {
		byID[r.DocID] = r
	}

	sources := make([]models.SourceInfo, 0, len(cited))
	for _, c := range cited {
		if c.ID == "" && c.Name == "" {
			continue
		}

		info := models.SourceInfo{ID: c.ID, Name: c.Name}
		if r, ok := byID[c.ID]; ok {
			if name, ok := r.Metadata["source"].(string); ok && name != "" {
				info.Name = name
			}
			if url, ok := r.Metadata["url"].(string); ok && url != "" {
				info.URL = url
			}
		}
		sources = append(sources, info)
	}

	return sources
}
