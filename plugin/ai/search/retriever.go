package search

import (
	"context"
	"math"
	"strings"

	"github.com/kbdesk/kbdesk/store"
)

// ItemSearcher is the slice of the store the retrievers need.
type ItemSearcher interface {
	VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.ItemWithScore, error)
	KeywordSearch(ctx context.Context, opts *store.KeywordSearchOptions) ([]*store.KnowledgeItem, error)
}

// VectorRetriever returns top candidates by embedding similarity. The
// similarity computation and sort are delegated to the store driver.
type VectorRetriever struct {
	store ItemSearcher
}

func NewVectorRetriever(store ItemSearcher) *VectorRetriever {
	return &VectorRetriever{store: store}
}

// Search returns candidates sorted descending by similarity. An empty
// corpus yields an empty list, not an error.
func (r *VectorRetriever) Search(ctx context.Context, provider string, vector []float32, limit int, courseID *string) ([]*Candidate, error) {
	if len(vector) == 0 || limit <= 0 {
		return []*Candidate{}, nil
	}

	results, err := r.store.VectorSearch(ctx, &store.VectorSearchOptions{
		Provider: provider,
		Vector:   vector,
		Limit:    limit,
		CourseID: courseID,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]*Candidate, 0, len(results))
	for _, result := range results {
		candidate := newCandidate(result.Item)
		candidate.VectorScore = math.Max(0, math.Min(1, result.Score))
		candidate.MatchType = MatchTypeVector
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// stopWords are stripped from lexical queries to avoid over-matching on
// function words.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "what": true, "how": true, "do": true, "does": true,
	"i": true, "to": true, "of": true, "in": true, "on": true,
	"for": true, "and": true, "or": true, "my": true, "we": true,
	"you": true, "can": true, "where": true, "when": true,
}

// LexicalRetriever returns top candidates by keyword match rank. The rank
// score is a crude positional proxy, not a model score.
type LexicalRetriever struct {
	store ItemSearcher
}

func NewLexicalRetriever(store ItemSearcher) *LexicalRetriever {
	return &LexicalRetriever{store: store}
}

// Search extracts keyword terms from the query and scores matches by
// position: the first match gets 1.0, each one after 0.1 less, floored
// at 0.1.
func (r *LexicalRetriever) Search(ctx context.Context, query string, limit int, courseID *string) ([]*Candidate, error) {
	terms := extractTerms(query)
	if len(terms) == 0 || limit <= 0 {
		return []*Candidate{}, nil
	}

	items, err := r.store.KeywordSearch(ctx, &store.KeywordSearchOptions{
		Terms:    terms,
		Limit:    limit,
		CourseID: courseID,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]*Candidate, 0, len(items))
	for position, item := range items {
		candidate := newCandidate(item)
		candidate.LexicalScore = rankScore(position)
		candidate.MatchType = MatchTypeLexical
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func rankScore(position int) float64 {
	return math.Max(0.1, 1.0-0.1*float64(position))
}

// extractTerms lowercases the query and drops stop words. When every
// word is a stop word, the whole trimmed query becomes the single term
// so the query still matches literal titles.
func extractTerms(query string) []string {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil
	}

	terms := []string{}
	for _, word := range strings.Fields(strings.ToLower(trimmed)) {
		word = strings.Trim(word, `.,;:!?"'()`)
		if word == "" || stopWords[word] {
			continue
		}
		terms = append(terms, word)
	}
	if len(terms) == 0 {
		terms = append(terms, strings.ToLower(trimmed))
	}
	return terms
}
