package domain

import (
	"encoding/json"
	"fmt"
)

// ParseDocument parses raw quiz JSON into a QuizDocument.
//
// Only syntactic validity is enforced: a document with missing fields, zero
// questions, or a question with no correct option parses fine (fields default
// to their zero values). Downstream components treat such questions as
// unanswerable rather than rejecting the document at load time.
func ParseDocument(raw string) (QuizDocument, error) {
	var doc QuizDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return QuizDocument{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}
