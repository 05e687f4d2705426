package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorCandidate(id string, score float64) *Candidate {
	return &Candidate{ID: id, Title: id, VectorScore: score, MatchType: MatchTypeVector}
}

func lexicalCandidate(id string, score float64) *Candidate {
	return &Candidate{ID: id, Title: id, LexicalScore: score, MatchType: MatchTypeLexical}
}

func TestMergeWeightedSum(t *testing.T) {
	cfg := DefaultConfig()

	vector := []*Candidate{
		vectorCandidate("X", 0.9),
		vectorCandidate("Y", 0.8),
		vectorCandidate("Z", 0.5),
	}
	lexical := []*Candidate{
		lexicalCandidate("X", 1.0),
		lexicalCandidate("W", 0.9),
	}

	merged := Merge(vector, lexical, cfg)
	require.Len(t, merged, 4)

	assert.InDelta(t, 0.93, merged["X"].CombinedScore, 1e-9)
	assert.InDelta(t, 0.56, merged["Y"].CombinedScore, 1e-9)
	assert.InDelta(t, 0.35, merged["Z"].CombinedScore, 1e-9)
	assert.InDelta(t, 0.27, merged["W"].CombinedScore, 1e-9)
}

func TestMergeProvenance(t *testing.T) {
	cfg := DefaultConfig()

	merged := Merge(
		[]*Candidate{vectorCandidate("both", 0.8), vectorCandidate("vec-only", 0.6)},
		[]*Candidate{lexicalCandidate("both", 1.0), lexicalCandidate("lex-only", 0.9)},
		cfg,
	)
	require.Len(t, merged, 3)

	assert.Equal(t, MatchTypeHybrid, merged["both"].MatchType)
	assert.Equal(t, 0.8, merged["both"].VectorScore)
	assert.Equal(t, 1.0, merged["both"].LexicalScore)

	assert.Equal(t, MatchTypeVector, merged["vec-only"].MatchType)
	assert.Zero(t, merged["vec-only"].LexicalScore)

	assert.Equal(t, MatchTypeLexical, merged["lex-only"].MatchType)
	assert.Zero(t, merged["lex-only"].VectorScore)
}

func TestMergeEmptyInputs(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, Merge(nil, nil, cfg))
	assert.Len(t, Merge([]*Candidate{vectorCandidate("a", 0.5)}, nil, cfg), 1)
	assert.Len(t, Merge(nil, []*Candidate{lexicalCandidate("b", 1.0)}, cfg), 1)
}
