// internal/models/qa_test.go
package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestParseIntent(t *testing.T) {
	for _, intent := range AllIntents {
		assert.Equal(t, intent, ParseIntent(string(intent)))
	}
	assert.Equal(t, IntentUnknown, ParseIntent("GIBBERISH"))
	assert.Equal(t, IntentUnknown, ParseIntent(""))
	assert.Equal(t, IntentUnknown, ParseIntent("factoid"), "labels are case sensitive")
}

func TestParseConfidence(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, ParseConfidence("high"))
	assert.Equal(t, ConfidenceMedium, ParseConfidence("medium"))
	assert.Equal(t, ConfidenceLow, ParseConfidence("low"))
	assert.Equal(t, ConfidenceLow, ParseConfidence("certain"))
	assert.Equal(t, ConfidenceLow, ParseConfidence(""))
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-0.5))
	assert.Equal(t, 0.42, ClampConfidence(0.42))
	assert.Equal(t, 1.0, ClampConfidence(3.7))
}

func TestNormalizeEntityType(t *testing.T) {
	assert.Equal(t, EntityPerson, NormalizeEntityType("person"))
	assert.Equal(t, EntityOther, NormalizeEntityType("PERSON"))
	assert.Equal(t, EntityOther, NormalizeEntityType("planet"))
	assert.Equal(t, EntityOther, NormalizeEntityType(""))
}

func TestToRetrievedDocument(t *testing.T) {
	r := SearchResult{
		DocID:   "doc-9",
		Content: strings.Repeat("x", 500),
		Score:   0.8,
		Metadata: map[string]interface{}{
			"category":   "economy",
			"importance": 0.93,
			"source":     "apa.az",
			"url":        "https://apa.az/9",
			"irrelevant": 42,
		},
	}

	doc := ToRetrievedDocument(r)

	assert.Equal(t, "doc-9", doc.DocID)
	assert.Equal(t, 0.8, doc.Score)
	assert.Len(t, doc.Preview, 200, "preview is truncated")
	assert.Equal(t, "economy", doc.Category)
	assert.Equal(t, 0.93, doc.Importance)
	assert.Equal(t, "apa.az", doc.Source)
	assert.Equal(t, "https://apa.az/9", doc.URL)
}

func TestToRetrievedDocument_MultibytePreview(t *testing.T) {
	// Azeri text is multi-byte in UTF-8; truncation must not split a rune.
	r := SearchResult{DocID: "doc-az", Content: strings.Repeat("ə", 500)}

	doc := ToRetrievedDocument(r)

	assert.Equal(t, 200, utf8.RuneCountInString(doc.Preview))
	assert.True(t, utf8.ValidString(doc.Preview))
	assert.Equal(t, strings.Repeat("ə", 200), doc.Preview)
}

func TestToRetrievedDocument_NoMetadata(t *testing.T) {
	doc := ToRetrievedDocument(SearchResult{DocID: "doc-1", Content: "short", Score: 0.5})

	assert.Equal(t, "short", doc.Preview)
	assert.Empty(t, doc.Category)
	assert.Empty(t, doc.Source)
}
