// internal/models/qa.go
package models

// Intent is the closed classification of what kind of request a query represents.
type Intent string

const (
	IntentFactoid    Intent = "FACTOID"
	IntentStatistics Intent = "STATISTICS"
	IntentPrediction Intent = "PREDICTION"
	IntentTalk       Intent = "TALK"
	IntentAttacking  Intent = "ATTACKING"
	IntentAnalytical Intent = "ANALYTICAL"
	IntentUnknown    Intent = "UNKNOWN"
)

// AllIntents lists every Intent value; the router must map each one.
var AllIntents = []Intent{
	IntentFactoid,
	IntentStatistics,
	IntentPrediction,
	IntentTalk,
	IntentAttacking,
	IntentAnalytical,
	IntentUnknown,
}

// ParseIntent maps a free-form label to an Intent. Unrecognized labels
// become IntentUnknown rather than an error.
func ParseIntent(label string) Intent {
	switch Intent(label) {
	case IntentFactoid, IntentStatistics, IntentPrediction,
		IntentTalk, IntentAttacking, IntentAnalytical:
		return Intent(label)
	default:
		return IntentUnknown
	}
}

// RetrievalStrategy selects the retrieval algorithm for an intent.
type RetrievalStrategy string

const (
	StrategySimpleSearch    RetrievalStrategy = "SIMPLE_SEARCH"
	StrategyStatisticsQuery RetrievalStrategy = "STATISTICS_QUERY"
	StrategyPredictionQuery RetrievalStrategy = "PREDICTION_QUERY"
	StrategyStaticResponse  RetrievalStrategy = "STATIC_RESPONSE"
	StrategyReject          RetrievalStrategy = "REJECT"
	StrategyHybridSearch    RetrievalStrategy = "HYBRID_SEARCH"
)

// AnswerConfidence is the three-valued response confidence.
type AnswerConfidence string

const (
	ConfidenceHigh   AnswerConfidence = "high"
	ConfidenceMedium AnswerConfidence = "medium"
	ConfidenceLow    AnswerConfidence = "low"
)

// ParseConfidence maps a free-form label to the closed enum, defaulting to low.
func ParseConfidence(label string) AnswerConfidence {
	switch AnswerConfidence(label) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return AnswerConfidence(label)
	default:
		return ConfidenceLow
	}
}

// ClampConfidence restricts a numeric confidence to [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ProcessedQuery is the normalized form of a raw question. Immutable once produced.
type ProcessedQuery struct {
	Original  string `json:"original"`
	Cleaned   string `json:"cleaned"`
	Corrected string `json:"corrected"` // pivot-language text used for retrieval
	Language  string `json:"language"`  // ISO-ish code of the original query
}

// Entity is a named entity extracted from the query.
type Entity struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Normalized string  `json:"normalized"`
	Confidence float64 `json:"confidence"`
}

// Entity types form a closed set; anything else is normalized to "other".
const (
	EntityPerson       = "person"
	EntityOrganization = "organization"
	EntityLocation     = "location"
	EntityDate         = "date"
	EntityMoney        = "money"
	EntityNumber       = "number"
	EntityEvent        = "event"
	EntityDocument     = "document"
	EntityOther        = "other"
)

// NormalizeEntityType maps an arbitrary type label into the closed set.
func NormalizeEntityType(t string) string {
	switch t {
	case EntityPerson, EntityOrganization, EntityLocation, EntityDate,
		EntityMoney, EntityNumber, EntityEvent, EntityDocument:
		return t
	default:
		return EntityOther
	}
}

// QueryAnalysis is the classification result for a processed query.
type QueryAnalysis struct {
	Intent     Intent                 `json:"intent"`
	Entities   []Entity               `json:"entities"`
	Confidence float64                `json:"confidence"`
	Keywords   []string               `json:"keywords"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// SearchResult is one piece of ranked evidence.
type SearchResult struct {
	DocID    string                 `json:"doc_id"`
	Content  string                 `json:"content"`
	Score    float64                `json:"score"` // higher is better
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// RetrievalResult bundles the query analysis with the evidence one handler produced.
type RetrievalResult struct {
	Query         ProcessedQuery `json:"query"`
	Analysis      QueryAnalysis  `json:"analysis"`
	SearchResults []SearchResult `json:"search_results"`
	HandlerUsed   string         `json:"handler_used"`
}

// SourceInfo is one citation in a generated answer.
type SourceInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// RetrievedDocument is the caller-facing projection of a SearchResult.
type RetrievedDocument struct {
	DocID      string  `json:"doc_id"`
	Score      float64 `json:"score"`
	Category   string  `json:"category,omitempty"`
	Importance float64 `json:"importance,omitempty"`
	Source     string  `json:"source,omitempty"`
	URL        string  `json:"url,omitempty"`
	Preview    string  `json:"preview"`
}

// QAResponse is the final answer returned to the caller. Language always echoes
// the language detected at ingress, regardless of the internal pivot language.
type QAResponse struct {
	Query              string              `json:"query"`
	Language           string              `json:"language"`
	Intent             Intent              `json:"intent"`
	Answer             string              `json:"answer"`
	Sources            []SourceInfo        `json:"sources"`
	Confidence         AnswerConfidence    `json:"confidence"`
	KeyFacts           []string            `json:"key_facts"`
	RetrievedDocuments []RetrievedDocument `json:"retrieved_documents"`
	TotalFound         int                 `json:"total_found"`
	HandlerUsed        string              `json:"handler_used"`
}

const previewLength = 200

// ToRetrievedDocument projects a SearchResult for the response payload.
func ToRetrievedDocument(r SearchResult) RetrievedDocument {
	doc := RetrievedDocument{
		DocID:   r.DocID,
		Score:   r.Score,
		Preview: r.Content,
	}
	// Truncate on rune boundaries so multi-byte text is never split mid-character.
	if runes := []rune(doc.Preview); len(runes) > previewLength {
		doc.Preview = string(runes[:previewLength])
	}
	if r.Metadata != nil {
		if v, ok := r.Metadata["category"].(string); ok {
			doc.Category = v
		}
		if v, ok := r.Metadata["importance"].(float64); ok {
			doc.Importance = v
		}
		if v, ok := r.Metadata["source"].(string); ok {
			doc.Source = v
		}
		if v, ok := r.Metadata["url"].(string); ok {
			doc.URL = v
		}
	}
	return doc
}
