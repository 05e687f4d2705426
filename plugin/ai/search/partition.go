package search

import "github.com/kbdesk/kbdesk/store"

// isCourseContent is the partition predicate: structured course content
// versus everything else.
func isCourseContent(candidate *Candidate) bool {
	return candidate.InHierarchy() ||
		candidate.ContentType == store.ContentTypeScreenshot ||
		candidate.ContentType == store.ContentTypeVideo
}

// Partition splits ranked candidates into course content and free-form
// content, truncates each independently to limit and concatenates with
// course content first. Callers can receive up to 2x limit items so UI
// panes showing both categories never starve each other.
func Partition(candidates []*Candidate, limit int) []*Candidate {
	if limit <= 0 {
		return []*Candidate{}
	}

	course, rest := []*Candidate{}, []*Candidate{}
	for _, candidate := range candidates {
		if isCourseContent(candidate) {
			course = append(course, candidate)
		} else {
			rest = append(rest, candidate)
		}
	}

	sortByScore(course)
	sortByScore(rest)
	if len(course) > limit {
		course = course[:limit]
	}
	if len(rest) > limit {
		rest = rest[:limit]
	}
	return append(course, rest...)
}
