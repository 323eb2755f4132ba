package tts

import "strings"

// BuildPrompt assembles the upstream prompt: the accent instruction, the
// expression instruction, then the literal text, one per line. Empty
// instructions are skipped.
func BuildPrompt(accent, expression, text string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{accent, expression} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(append(parts, text), "\n")
}
