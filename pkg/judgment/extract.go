// Package judgment pulls structured judgments out of free-form model output.
//
// Extraction is a best-effort heuristic, not a JSON parser. A candidate spans
// from a '{' to the nearest following '}', so payloads that themselves contain
// nested objects are never matched as a whole. Callers depend on the
// "first successfully parsed candidate wins" behavior.
package judgment

import (
	"encoding/json"
	"regexp"
)

var candidateRegex = regexp.MustCompile(`(?s)\{.*?\}`)

// ExtractFirstJSONObject returns the first brace-delimited candidate in text
// that parses as a JSON object.
func ExtractFirstJSONObject(text string) (map[string]any, bool) {
	for _, candidate := range candidateRegex.FindAllString(text, -1) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
			continue
		}
		return obj, true
	}
	return nil, false
}

// Candidates lists every brace-delimited substring in text, in order.
func Candidates(text string) []string {
	return candidateRegex.FindAllString(text, -1)
}
