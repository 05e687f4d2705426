package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirective(t *testing.T) {
	tests := []struct {
		name     string
		guidance string
		expected Directive
	}{
		{
			name:     "empty guidance",
			guidance: "",
			expected: Directive{},
		},
		{
			name:     "whitespace only",
			guidance: "   \t ",
			expected: Directive{},
		},
		{
			name:     "ambiguous guidance degrades to default",
			guidance: "please be extra helpful today",
			expected: Directive{},
		},
		{
			name:     "prioritize course content",
			guidance: "Search the course content first, then anything else",
			expected: Directive{PrioritizeCourse: true},
		},
		{
			name:     "restrict implies prioritize",
			guidance: "Use only course content for this one",
			expected: Directive{PrioritizeCourse: true, RestrictToCourse: true},
		},
		{
			name:     "named entity after from",
			guidance: "only share lessons from Jane Doe transcript",
			expected: Directive{PrioritizeCourse: true, NamedEntityFilter: "Jane Doe"},
		},
		{
			name:     "named entity after use",
			guidance: "use Marcus Webb Pricing when relevant",
			expected: Directive{PrioritizeCourse: true, NamedEntityFilter: "Marcus Webb Pricing"},
		},
		{
			name:     "structural tail words are not part of the name",
			guidance: "share answers from Jane Doe Course Content",
			expected: Directive{PrioritizeCourse: true, NamedEntityFilter: "Jane Doe"},
		},
		{
			name:     "single capitalized word is not an entity",
			guidance: "answer from Jane please",
			expected: Directive{},
		},
		{
			name:     "lowercase phrase after trigger is not an entity",
			guidance: "take it from the best lesson",
			expected: Directive{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDirective(tt.guidance))
		})
	}
}

func TestParseDirectiveDeterminism(t *testing.T) {
	guidances := []string{
		"",
		"only share lessons from Jane Doe transcript",
		"search the course content first",
		"random text with no directive at all",
	}
	for _, guidance := range guidances {
		first := ParseDirective(guidance)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, ParseDirective(guidance), "guidance: %q", guidance)
		}
	}
}
