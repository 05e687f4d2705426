package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	response       string
	err            error
	calls          int
	lastUserPrompt string
}

func (f *fakeCompleter) Complete(_ context.Context, _, userPrompt string) (string, error) {
	f.calls++
	f.lastUserPrompt = userPrompt
	return f.response, f.err
}

func rankedCandidates(n int) []*Candidate {
	candidates := make([]*Candidate, n)
	for i := range candidates {
		candidates[i] = &Candidate{
			ID:            string(rune('a' + i)),
			Title:         "doc",
			CombinedScore: float64(n - i),
		}
	}
	return candidates
}

func TestRerankReplacesScoresAndResorts(t *testing.T) {
	completer := &fakeCompleter{response: "[2, 9, 5]"}
	reranker := NewReranker(completer, DefaultConfig(), nil)

	result := reranker.Rerank(context.Background(), "q", rankedCandidates(3), 10)
	require.Len(t, result, 3)

	assert.Equal(t, []string{"b", "c", "a"}, []string{result[0].ID, result[1].ID, result[2].ID})
	assert.Equal(t, 9.0, result[0].CombinedScore)
	assert.Equal(t, 5.0, result[1].CombinedScore)
	assert.Equal(t, 2.0, result[2].CombinedScore)
}

func TestRerankLengthMismatchKeepsOrder(t *testing.T) {
	completer := &fakeCompleter{response: "[1, 2, 3]"}
	reranker := NewReranker(completer, DefaultConfig(), nil)

	candidates := rankedCandidates(5)
	result := reranker.Rerank(context.Background(), "q", candidates, 10)

	require.Len(t, result, 5)
	for i, candidate := range result {
		assert.Equal(t, candidates[i].ID, candidate.ID)
		assert.Equal(t, float64(5-i), candidate.CombinedScore)
	}
}

func TestRerankProviderErrorKeepsOrder(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("quota exceeded")}
	reranker := NewReranker(completer, DefaultConfig(), nil)

	candidates := rankedCandidates(4)
	result := reranker.Rerank(context.Background(), "q", candidates, 10)

	require.Len(t, result, 4)
	for i, candidate := range result {
		assert.Equal(t, candidates[i].ID, candidate.ID)
	}
}

func TestRerankNonJSONKeepsOrder(t *testing.T) {
	completer := &fakeCompleter{response: "I cannot score these documents."}
	reranker := NewReranker(completer, DefaultConfig(), nil)

	candidates := rankedCandidates(3)
	result := reranker.Rerank(context.Background(), "q", candidates, 10)

	require.Len(t, result, 3)
	assert.Equal(t, candidates[0].ID, result[0].ID)
}

func TestRerankOnlyBatchIsRescored(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RerankBatchSize = 2
	completer := &fakeCompleter{response: "[1, 10]"}
	reranker := NewReranker(completer, cfg, nil)

	result := reranker.Rerank(context.Background(), "q", rankedCandidates(4), 10)
	require.Len(t, result, 4)

	// Batch (a, b) is resorted by new scores; the tail keeps its order
	// and its original scores.
	assert.Equal(t, "b", result[0].ID)
	assert.Equal(t, 10.0, result[0].CombinedScore)
	assert.Equal(t, "a", result[1].ID)
	assert.Equal(t, "c", result[2].ID)
	assert.Equal(t, 2.0, result[2].CombinedScore)
	assert.Equal(t, "d", result[3].ID)
}

func TestRerankTruncatesToLimit(t *testing.T) {
	completer := &fakeCompleter{response: "[1, 2]"}
	reranker := NewReranker(completer, DefaultConfig(), nil)

	result := reranker.Rerank(context.Background(), "q", rankedCandidates(5), 2)
	assert.Len(t, result, 2)
}

func TestRerankSkipsTinyInputs(t *testing.T) {
	completer := &fakeCompleter{response: "[5]"}
	reranker := NewReranker(completer, DefaultConfig(), nil)

	single := rankedCandidates(1)
	result := reranker.Rerank(context.Background(), "q", single, 10)
	assert.Equal(t, single, result)
	assert.Zero(t, completer.calls)
}

func TestRerankPromptTruncatesOnRuneBoundary(t *testing.T) {
	completer := &fakeCompleter{response: "[1, 2]"}
	reranker := NewReranker(completer, DefaultConfig(), nil)

	candidates := rankedCandidates(2)
	// One leading ASCII byte shifts the 3-byte runes off the cut offset.
	candidates[0].Body = "a" + strings.Repeat("世", 150)

	reranker.Rerank(context.Background(), "q", candidates, 10)
	assert.True(t, utf8.ValidString(completer.lastUserPrompt))
}

func TestTruncateBody(t *testing.T) {
	assert.Equal(t, "short", truncateBody("short", 300))

	long := "a" + strings.Repeat("世", 150)
	truncated := truncateBody(long, 300)
	assert.LessOrEqual(t, len(truncated), 300)
	assert.True(t, utf8.ValidString(truncated))
}

func TestParseScoreArray(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected []float64
		wantErr  bool
	}{
		{name: "bare array", response: "[1, 2.5, 0]", expected: []float64{1, 2.5, 0}},
		{name: "markdown fenced", response: "```json\n[3, 4]\n```", expected: []float64{3, 4}},
		{name: "surrounded by prose", response: "Here you go: [7, 8] as requested", expected: []float64{7, 8}},
		{name: "no array", response: "no scores", wantErr: true},
		{name: "non numeric array", response: `["high", "low"]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := parseScoreArray(tt.response)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, scores)
		})
	}
}
