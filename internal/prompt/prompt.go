// Package prompt resolves {{name}} placeholders in user-authored text.
package prompt

import "strings"

// Resolve replaces every occurrence of {{key}} in template with the matching
// value from variables. Keys with no entry stay as literal {{key}} text, so
// resolution is idempotent once nothing more can be substituted. Malformed
// braces never match anything.
func Resolve(template string, variables map[string]string) string {
	if template == "" || len(variables) == 0 {
		return template
	}
	out := template
	for key, val := range variables {
		out = strings.ReplaceAll(out, "{{"+key+"}}", val)
	}
	return out
}

// DetectPlaceholders extracts the distinct {{...}} keys appearing in text,
// used to surface variable input fields. Order is not significant.
func DetectPlaceholders(text string) []string {
	seen := make(map[string]struct{})
	var keys []string
	rest := text
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			return keys
		}
		end := strings.Index(rest[start+2:], "}}")
		if end < 0 {
			return keys
		}
		key := rest[start+2 : start+2+end]
		if _, ok := seen[key]; !ok && key != "" {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		rest = rest[start+2+end+2:]
	}
}
