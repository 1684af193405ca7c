package vision

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "plain", raw: "Cordless drill", expected: "Cordless drill"},
		{name: "trailing period", raw: "Cordless drill.", expected: "Cordless drill"},
		{name: "leading blank lines", raw: "\n\n  Hammer  \nextra text", expected: "Hammer"},
		{name: "label prefix", raw: "Name: Garden hose", expected: "Garden hose"},
		{name: "sentence prefix", raw: "This is a ladder.", expected: "ladder"},
		{name: "quoted", raw: `"Light bulb"`, expected: "Light bulb"},
		{name: "list marker", raw: "- Paint roller", expected: "Paint roller"},
		{name: "bold markdown", raw: "**Toolbox**", expected: "Toolbox"},
		{name: "empty", raw: "", expected: ""},
		{name: "whitespace only", raw: "  \n\t ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSuggestion(tt.raw))
		})
	}
}

func TestParseSuggestionTruncates(t *testing.T) {
	got := ParseSuggestion(strings.Repeat("é", MaxSuggestionLen+10))
	assert.Equal(t, MaxSuggestionLen, utf8.RuneCountInString(got))
}
