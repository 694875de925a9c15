package advisor

import "strings"

// ExtractSymbols scans the user message for mentions of tracked symbols.
// Returns deduplicated uppercase symbols in mention order.
func ExtractSymbols(text string, universe []string) []string {
	tracked := make(map[string]bool, len(universe))
	for _, s := range universe {
		tracked[strings.ToUpper(s)] = true
	}

	upper := strings.ToUpper(text)
	words := strings.FieldsFunc(upper, func(r rune) bool {
		return !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})

	seen := make(map[string]bool)
	var result []string
	for _, w := range words {
		if tracked[w] && !seen[w] {
			seen[w] = true
			result = append(result, w)
		}
	}
	return result
}
