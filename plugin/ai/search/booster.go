package search

import "strings"

// Boost applies the static hierarchy boosts and the directive-driven
// boosts and filters, then returns the candidates sorted by score.
// Boosts are multiplicative and compose by design; a named-entity match
// with a tiny base score can outrank everything else.
func Boost(merged map[string]*Candidate, directive Directive, cfg Config) []*Candidate {
	candidates := make([]*Candidate, 0, len(merged))
	for _, candidate := range merged {
		candidates = append(candidates, candidate)
	}

	// Structured course content outranks unstructured content by
	// default. Leaf segments carry the strongest static boost.
	for _, candidate := range candidates {
		switch {
		case candidate.IsLeaf():
			candidate.CombinedScore *= cfg.LeafBoost
		case candidate.InHierarchy():
			candidate.CombinedScore *= cfg.HierarchyBoost
		}
	}

	if directive.RestrictToCourse {
		kept := candidates[:0]
		for _, candidate := range candidates {
			if candidate.InHierarchy() {
				kept = append(kept, candidate)
			}
		}
		candidates = kept
	} else if directive.PrioritizeCourse {
		for _, candidate := range candidates {
			if candidate.InHierarchy() {
				candidate.CombinedScore *= cfg.PriorityBoost
			}
		}
	}

	if directive.NamedEntityFilter != "" {
		entity := strings.ToLower(directive.NamedEntityFilter)
		matches := []*Candidate{}
		for _, candidate := range candidates {
			if strings.Contains(strings.ToLower(candidate.Title), entity) {
				candidate.CombinedScore *= cfg.EntityBoost
				matches = append(matches, candidate)
			}
		}
		// Only narrow the working set when the entity actually matched
		// something; otherwise the priority boost above stands in.
		if len(matches) > 0 {
			candidates = matches
		}
	}

	sortByScore(candidates)
	return candidates
}
