// internal/qa/generation/generator_test.go
package generation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsqa/internal/common/llm"
	"newsqa/internal/common/logger"
	"newsqa/internal/models"
	"newsqa/internal/qa/i18n"
)

// ==========================
// Test Helper Functions
// ==========================

type mockCompleter struct {
	response string
	err      error
	calls    int
	lastMsgs []llm.Message
}

func (m *mockCompleter) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	m.calls++
	m.lastMsgs = messages
	return m.response, m.err
}

func createTestGenerator(t *testing.T, completer llm.Completer) *Generator {
	return NewGenerator(&Config{Timeout: 5 * time.Second}, completer, logger.NewTestLogger(t))
}

func evidence() []models.SearchResult {
	return []models.SearchResult{
		{
			DocID:   "doc-1",
			Content: "Qarabağ beat Real Madrid 3-2 in the final.",
			Score:   0.91,
			Metadata: map[string]interface{}{
				"source": "report.az",
				"url":    "https://report.az/doc-1",
			},
		},
		{DocID: "doc-2", Content: "The match was played in Baku.", Score: 0.74},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestGenerator_Generate_Success(t *testing.T) {
	completer := &mockCompleter{
		response: `{
			"answer": "Qarabağ won the final 3-2.",
			"sources": [{"id": "doc-1", "name": "model-guessed-name", "url": "https://wrong.example"}],
			"confidence": "high",
			"language": "en",
			"key_facts": ["final score 3-2"]
		}`,
	}
	generator := createTestGenerator(t, completer)

	answer := generator.Generate(context.Background(), "who won the final", evidence(), "en")

	assert.Equal(t, "Qarabağ won the final 3-2.", answer.Answer)
	assert.Equal(t, models.ConfidenceHigh, answer.Confidence)
	assert.Equal(t, []string{"final score 3-2"}, answer.KeyFacts)
	// Citation metadata is recovered from the evidence, not trusted from the model.
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "doc-1", answer.Sources[0].ID)
	assert.Equal(t, "report.az", answer.Sources[0].Name)
	assert.Equal(t, "https://report.az/doc-1", answer.Sources[0].URL)
	assert.Equal(t, 1, completer.calls)
}

func TestGenerator_Generate_EmptyEvidence(t *testing.T) {
	completer := &mockCompleter{}
	generator := createTestGenerator(t, completer)

	answer := generator.Generate(context.Background(), "anything", nil, "az")

	assert.Equal(t, i18n.Message("az", i18n.KeyNoInformation), answer.Answer)
	assert.Equal(t, models.ConfidenceLow, answer.Confidence)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, 0, completer.calls, "empty evidence must not reach the completion service")
}

func TestGenerator_Generate_PromptCarriesLanguageAndEvidence(t *testing.T) {
	completer := &mockCompleter{response: `{"answer": "ok", "confidence": "medium"}`}
	generator := createTestGenerator(t, completer)

	generator.Generate(context.Background(), "kim qalib gəldi", evidence(), "az")

	require.Len(t, completer.lastMsgs, 2)
	user := completer.lastMsgs[1].Content
	assert.Contains(t, user, "Answer language: az")
	assert.Contains(t, user, "id=doc-1")
	assert.Contains(t, user, "source=report.az")
	assert.Contains(t, user, "Qarabağ beat Real Madrid")
}

func TestGenerator_Generate_UnresolvedCitationKeepsNameDropsURL(t *testing.T) {
	completer := &mockCompleter{
		response: `{
			"answer": "ok",
			"sources": [
				{"id": "doc-404", "name": "asserted source", "url": "https://nowhere.example/evil"},
				{"id": "", "name": ""}
			],
			"confidence": "low"
		}`,
	}
	generator := createTestGenerator(t, completer)

	answer := generator.Generate(context.Background(), "q", evidence(), "en")

	// Blank citation dropped. The unresolved one keeps its name, but the
	// model-asserted link is never shipped: urls come from evidence only.
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "doc-404", answer.Sources[0].ID)
	assert.Equal(t, "asserted source", answer.Sources[0].Name)
	assert.Empty(t, answer.Sources[0].URL)
}

func TestGenerator_Generate_ResolvedCitationWithoutEvidenceURL(t *testing.T) {
	completer := &mockCompleter{
		response: `{
			"answer": "ok",
			"sources": [{"id": "doc-2", "name": "model name", "url": "https://made-up.example"}],
			"confidence": "medium"
		}`,
	}
	generator := createTestGenerator(t, completer)

	// doc-2 resolves but carries no url metadata, so no link is emitted.
	answer := generator.Generate(context.Background(), "q", evidence(), "en")

	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "doc-2", answer.Sources[0].ID)
	assert.Empty(t, answer.Sources[0].URL)
}

func TestGenerator_Generate_InvalidConfidenceDefaultsLow(t *testing.T) {
	completer := &mockCompleter{response: `{"answer": "ok", "confidence": "very sure"}`}
	generator := createTestGenerator(t, completer)

	answer := generator.Generate(context.Background(), "q", evidence(), "en")

	assert.Equal(t, models.ConfidenceLow, answer.Confidence)
	assert.NotNil(t, answer.KeyFacts)
}

// ==========================
// Error Handling Tests
// ==========================

func TestGenerator_Generate_Degrades(t *testing.T) {
	tests := []struct {
		name      string
		completer *mockCompleter
	}{
		{name: "completer failure", completer: &mockCompleter{err: errors.New("timeout")}},
		{name: "prose output", completer: &mockCompleter{response: "The winner was Qarabağ."}},
		{name: "missing answer field", completer: &mockCompleter{response: `{"confidence": "high"}`}},
		{name: "answer wrong type", completer: &mockCompleter{response: `{"answer": 7}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := createTestGenerator(t, tt.completer)

			answer := generator.Generate(context.Background(), "q", evidence(), "ru")

			assert.Equal(t, i18n.Message("ru", i18n.KeyGenerationError), answer.Answer)
			assert.Equal(t, models.ConfidenceLow, answer.Confidence)
			assert.Empty(t, answer.Sources)
		})
	}
}

// ==========================
// Helper Tests
// ==========================

func TestBuildContextBlock_StableOrdering(t *testing.T) {
	first := buildContextBlock(evidence())
	second := buildContextBlock(evidence())

	assert.Equal(t, first, second)
	assert.True(t, strings.Index(first, "id=doc-1") < strings.Index(first, "id=doc-2"))
}
