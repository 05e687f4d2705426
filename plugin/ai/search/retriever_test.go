package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbdesk/kbdesk/store"
)

type fakeItemSearcher struct {
	vectorResults  []*store.ItemWithScore
	vectorErr      error
	keywordResults []*store.KnowledgeItem
	keywordErr     error

	lastVectorOpts  *store.VectorSearchOptions
	lastKeywordOpts *store.KeywordSearchOptions
}

func (f *fakeItemSearcher) VectorSearch(_ context.Context, opts *store.VectorSearchOptions) ([]*store.ItemWithScore, error) {
	f.lastVectorOpts = opts
	return f.vectorResults, f.vectorErr
}

func (f *fakeItemSearcher) KeywordSearch(_ context.Context, opts *store.KeywordSearchOptions) ([]*store.KnowledgeItem, error) {
	f.lastKeywordOpts = opts
	return f.keywordResults, f.keywordErr
}

func TestVectorRetrieverScoresAndProvenance(t *testing.T) {
	searcher := &fakeItemSearcher{
		vectorResults: []*store.ItemWithScore{
			{Item: &store.KnowledgeItem{ID: "a", Title: "A"}, Score: 0.9},
			{Item: &store.KnowledgeItem{ID: "b", Title: "B"}, Score: 1.2},
		},
	}
	retriever := NewVectorRetriever(searcher)

	candidates, err := retriever.Search(context.Background(), "openai", []float32{0.1, 0.2}, 10, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, 0.9, candidates[0].VectorScore)
	assert.Equal(t, MatchTypeVector, candidates[0].MatchType)
	// Driver drift above 1.0 is clamped.
	assert.Equal(t, 1.0, candidates[1].VectorScore)
	assert.Equal(t, "openai", searcher.lastVectorOpts.Provider)
}

func TestVectorRetrieverEmptyVector(t *testing.T) {
	retriever := NewVectorRetriever(&fakeItemSearcher{})
	candidates, err := retriever.Search(context.Background(), "openai", nil, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestLexicalRetrieverRankScores(t *testing.T) {
	items := []*store.KnowledgeItem{}
	for i := 0; i < 12; i++ {
		items = append(items, &store.KnowledgeItem{ID: string(rune('a' + i))})
	}
	searcher := &fakeItemSearcher{keywordResults: items}
	retriever := NewLexicalRetriever(searcher)

	candidates, err := retriever.Search(context.Background(), "pricing strategy", 20, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 12)

	assert.InDelta(t, 1.0, candidates[0].LexicalScore, 1e-9)
	assert.InDelta(t, 0.9, candidates[1].LexicalScore, 1e-9)
	// Floored at 0.1 past the tenth match.
	assert.InDelta(t, 0.1, candidates[10].LexicalScore, 1e-9)
	assert.InDelta(t, 0.1, candidates[11].LexicalScore, 1e-9)
	assert.Equal(t, MatchTypeLexical, candidates[0].MatchType)
	assert.Equal(t, []string{"pricing", "strategy"}, searcher.lastKeywordOpts.Terms)
}

func TestExtractTerms(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "strips stop words", query: "How do I change the pricing?", expected: []string{"change", "pricing"}},
		{name: "empty query", query: "  ", expected: nil},
		{name: "all stop words falls back to whole query", query: "what is the", expected: []string{"what is the"}},
		{name: "punctuation trimmed", query: `"refund" policy!`, expected: []string{"refund", "policy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractTerms(tt.query))
		})
	}
}
