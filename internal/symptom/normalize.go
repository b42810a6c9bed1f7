// Package symptom provides the shared text canonicalization used on both
// sides of the model boundary. The same normalization ran at training time,
// so any change here silently breaks vocabulary matching.
package symptom

import (
	"regexp"
	"strings"
)

var (
	identifierSanitizer = regexp.MustCompile(`[^a-z0-9_\s]`)
	textSanitizer       = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// Normalize converts a free-text symptom string into a stable identifier:
// lowercase, underscore-delimited, alphanumeric-plus-underscore only.
// Blank input and the "nan"/"none" sentinels normalize to the empty string,
// which callers must filter before use. Normalize is idempotent.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	switch strings.ToLower(trimmed) {
	case "nan", "none":
		return ""
	}
	value := strings.ReplaceAll(strings.ToLower(trimmed), "-", "_")
	value = identifierSanitizer.ReplaceAllString(value, " ")
	value = whitespaceRun.ReplaceAllString(value, "_")
	return strings.Trim(value, "_")
}

// NormalizeSet normalizes every input, drops empties, and deduplicates while
// preserving first-seen order.
func NormalizeSet(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	var out []string
	for _, s := range raw {
		id := Normalize(s)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// CleanText normalizes free text for the triage text classifier: lowercase,
// strip everything outside alphanumerics and spaces, collapse whitespace.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	cleaned := textSanitizer.ReplaceAllString(strings.ToLower(text), " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(cleaned, " "))
}
