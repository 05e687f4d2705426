package v1

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbdesk/kbdesk/plugin/ai/search"
	"github.com/kbdesk/kbdesk/server/generation"
	"github.com/kbdesk/kbdesk/server/websearch"
)

func TestBestRetrievalScoreIgnoresBoostsAndRerank(t *testing.T) {
	cfg := search.DefaultConfig()

	// A boosted leaf segment: combined score is 3x the hybrid score, and
	// a rerank may later replace it with a value on the 0-10 scale.
	// Neither must leak into the web-search decision.
	results := []*search.Candidate{
		{VectorScore: 0.9, LexicalScore: 1.0, CombinedScore: 9.3},
		{VectorScore: 0.8, LexicalScore: 0, CombinedScore: 1.68},
	}

	best := bestRetrievalScore(results, cfg)
	assert.InDelta(t, 0.93, best, 1e-9)
	assert.False(t, websearch.ShouldUseWebSearch(generation.IntentInternal, best, webSearchThreshold))
}

func TestBestRetrievalScoreWeakResultsTriggerWebSearch(t *testing.T) {
	cfg := search.DefaultConfig()

	// Reranked to 6.0, but the retrieval itself was poor: the raw hybrid
	// score 0.14 is what the threshold applies to.
	results := []*search.Candidate{
		{VectorScore: 0.2, LexicalScore: 0, CombinedScore: 6.0},
	}

	best := bestRetrievalScore(results, cfg)
	assert.InDelta(t, 0.14, best, 1e-9)
	assert.True(t, websearch.ShouldUseWebSearch(generation.IntentInternal, best, webSearchThreshold))
}

func TestBestRetrievalScoreEmptyResults(t *testing.T) {
	best := bestRetrievalScore(nil, search.DefaultConfig())
	assert.Zero(t, best)
	assert.True(t, websearch.ShouldUseWebSearch(generation.IntentInternal, best, webSearchThreshold))
}
