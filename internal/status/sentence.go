package status

import (
	"regexp"
	"strings"
)

// sentencePattern matches the announcement up to and including its Stand marker.
// The run between the phrase and the marker may not contain parentheses.
var sentencePattern = regexp.MustCompile(`(?i)Derzeit werden Anträge mit Eingangsdatum[^()]*\(Stand:\s*\d{2}\.\d{2}\.\d{4}\)\.?`)

// LocateSentence returns the first backlog sentence in text, trimmed.
func LocateSentence(text string) (string, error) {
	match := sentencePattern.FindString(text)
	if match == "" {
		return "", ErrSentenceNotFound
	}
	return strings.TrimSpace(match), nil
}
