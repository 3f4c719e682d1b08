// Package reply normalises model output into one markdown bullet per line.
package reply

import "strings"

// Markers are the line prefixes accepted as bullets. Lines starting with any
// other text are prefixed with "- ".
var Markers = []string{"-", "•", "✈️", "💰", "📅", "🛬", "🔍", "✅"}

// Format trims text, drops blank lines, and bullets every remaining line that
// does not already start with one of [Markers]. Format is idempotent.
func Format(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !hasMarker(line) {
			line = "- " + line
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func hasMarker(line string) bool {
	for _, m := range Markers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}
