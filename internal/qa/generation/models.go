// internal/qa/generation/models.go
package generation

import "newsqa/internal/models"

// Answer is the generated, cited answer for one query.
type Answer struct {
	Answer     string                  `json:"answer"`
	Sources    []models.SourceInfo     `json:"sources"`
	Confidence models.AnswerConfidence `json:"confidence"`
	KeyFacts   []string                `json:"key_facts"`
}

// answerEnvelope is the wire contract requested from the completion service.
// Every field is optional at parse time and validated before use.
type answerEnvelope struct {
	Answer     string           `json:"answer"`
	Sources    []sourceEnvelope `json:"sources"`
	Confidence string           `json:"confidence"`
	Language   string           `json:"language"`
	KeyFacts   []string         `json:"key_facts"`
}

type sourceEnvelope struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}
