// internal/qa/understanding/models.go
package understanding

// analysisEnvelope is the wire contract requested from the completion service.
// Treated as an external format: every field is optional at parse time and
// individually validated before use.
type analysisEnvelope struct {
	OriginalLanguage  string           `json:"original_language"`
	OriginalQuery     string           `json:"original_query"`
	TranslatedToPivot string           `json:"translated_to_pivot"`
	Cleaned           string           `json:"cleaned"`
	Corrected         string           `json:"corrected"`
	Intent            string           `json:"intent"`
	Confidence        float64          `json:"confidence"`
	Entities          []entityEnvelope `json:"entities"`
	Keywords          []string         `json:"keywords"`
	Reasoning         string           `json:"reasoning"`
}

type entityEnvelope struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Normalized string  `json:"normalized"`
	Confidence float64 `json:"confidence"`
}
