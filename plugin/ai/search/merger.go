package search

import "sort"

// Merge unions the two retrieval paths by item id and computes the
// weighted combined score. This is the single source of truth for the
// base score; later stages only multiply or replace it.
func Merge(vectorResults, lexicalResults []*Candidate, cfg Config) map[string]*Candidate {
	merged := make(map[string]*Candidate, len(vectorResults)+len(lexicalResults))

	for _, candidate := range vectorResults {
		candidate.LexicalScore = 0
		candidate.MatchType = MatchTypeVector
		merged[candidate.ID] = candidate
	}
	for _, candidate := range lexicalResults {
		if existing, ok := merged[candidate.ID]; ok {
			existing.LexicalScore = candidate.LexicalScore
			existing.MatchType = MatchTypeHybrid
			continue
		}
		candidate.VectorScore = 0
		candidate.MatchType = MatchTypeLexical
		merged[candidate.ID] = candidate
	}

	for _, candidate := range merged {
		candidate.CombinedScore = cfg.VectorWeight*candidate.VectorScore + cfg.LexicalWeight*candidate.LexicalScore
	}
	return merged
}

// sortByScore orders candidates by combined score descending, with the id
// as a stable tiebreaker so equal scores rank deterministically.
func sortByScore(candidates []*Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CombinedScore != candidates[j].CombinedScore {
			return candidates[i].CombinedScore > candidates[j].CombinedScore
		}
		return candidates[i].ID < candidates[j].ID
	})
}
