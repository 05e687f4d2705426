package search

import (
	"regexp"
	"strings"
)

// Phrases that mean "search the structured course content first".
var prioritizePhrases = []string{
	"search the course",
	"search course content",
	"use the course",
	"use course content",
	"share the course",
	"share course content",
	"course content first",
	"course material first",
	"prioritize course",
	"prioritise course",
	"prefer course",
	"check the course",
	"from the course",
	"lessons first",
}

// Stricter phrases that mean "only the structured course content".
var restrictPhrases = []string{
	"only course content",
	"only the course",
	"only from the course",
	"only share course",
	"only use course",
	"just the course",
	"just course content",
	"course content only",
	"nothing but the course",
	"restrict to course",
	"exclusively course",
}

// entityPattern captures two or more consecutive capitalized words after
// a trigger word. Runs against the original-case text.
var entityPattern = regexp.MustCompile(`\b(?:from|use)\s+((?:[A-Z][a-zA-Z'’]*\s+)+[A-Z][a-zA-Z'’]*)`)

// nonNameTail holds trailing words the entity pattern may swallow that are
// part of the sentence, not the name.
var nonNameTail = map[string]bool{
	"Course":     true,
	"Courses":    true,
	"Lesson":     true,
	"Lessons":    true,
	"Module":     true,
	"Modules":    true,
	"Transcript": true,
	"Video":      true,
	"Content":    true,
}

// ParseDirective interprets free-text operator guidance into a Directive.
// Pure and deterministic; unparseable guidance degrades to the default
// Directive, never to an error.
func ParseDirective(guidance string) Directive {
	directive := Directive{}
	guidance = strings.TrimSpace(guidance)
	if guidance == "" {
		return directive
	}

	lowered := strings.ToLower(guidance)
	for _, phrase := range prioritizePhrases {
		if strings.Contains(lowered, phrase) {
			directive.PrioritizeCourse = true
			break
		}
	}
	for _, phrase := range restrictPhrases {
		if strings.Contains(lowered, phrase) {
			directive.RestrictToCourse = true
			directive.PrioritizeCourse = true
			break
		}
	}

	if entity := extractNamedEntity(guidance); entity != "" {
		directive.NamedEntityFilter = entity
		directive.PrioritizeCourse = true
	}
	return directive
}

func extractNamedEntity(guidance string) string {
	match := entityPattern.FindStringSubmatch(guidance)
	if match == nil {
		return ""
	}

	words := strings.Fields(match[1])
	// Drop structural words from the tail; "Jane Doe Transcript" names
	// the person, not a transcript entity.
	for len(words) > 0 && nonNameTail[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	if len(words) < 2 {
		return ""
	}
	return strings.Join(words, " ")
}
