package vision

import (
	"strings"
	"unicode/utf8"
)

// MaxSuggestionLen caps a suggested name, in runes.
const MaxSuggestionLen = 60

var suggestionPrefixes = []string{"name:", "item:", "object:", "this is", "it is", "it's"}

// ParseSuggestion extracts a name from a model reply: the first non-empty
// line, stripped of a leading label, list marker, quotes and trailing period.
// It returns "" when nothing usable remains.
func ParseSuggestion(raw string) string {
	var line string
	for l := range strings.Lines(raw) {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}

	line = strings.TrimLeft(line, "-*• ")
	lower := strings.ToLower(line)
	for _, p := range suggestionPrefixes {
		if strings.HasPrefix(lower, p) {
			line = strings.TrimSpace(line[len(p):])
			break
		}
	}
	line = strings.TrimPrefix(line, "a ")
	line = strings.TrimPrefix(line, "an ")
	line = strings.Trim(line, "\"'`*")
	line = strings.TrimRight(line, ".!")
	line = strings.TrimSpace(line)

	if utf8.RuneCountInString(line) > MaxSuggestionLen {
		line = strings.TrimSpace(string([]rune(line)[:MaxSuggestionLen]))
	}
	return line
}
