package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Completer is the slice of a model provider the reranker needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Reranker asks a generative model to re-score the top candidates. Any
// failure mode, from transport errors to malformed output, falls back to
// the pre-rerank order; Rerank never errors.
type Reranker struct {
	completer Completer
	cfg       Config
	logger    *slog.Logger
}

func NewReranker(completer Completer, cfg Config, logger *slog.Logger) *Reranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{
		completer: completer,
		cfg:       cfg,
		logger:    logger,
	}
}

const rerankSystemPrompt = `You are a relevance judge for a staff knowledge base. ` +
	`Given a query and a numbered list of documents, score each document's relevance ` +
	`to the query from 0 to 10. Respond with ONLY a JSON array of numbers, one score ` +
	`per document, in the same order. Example: [8, 2.5, 0, 9]`

// Rerank re-scores the first batch of candidates and resorts it by the
// returned values; candidates beyond the batch keep their score and
// order. The result is truncated to limit.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []*Candidate, limit int) []*Candidate {
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if r.completer == nil || len(candidates) < 2 {
		return candidates
	}

	batchSize := r.cfg.RerankBatchSize
	if batchSize <= 0 || batchSize > len(candidates) {
		batchSize = len(candidates)
	}
	batch, tail := candidates[:batchSize], candidates[batchSize:]

	scores, err := r.scoreBatch(ctx, query, batch)
	if err != nil {
		r.logger.Warn("rerank skipped, keeping retrieval order", "error", err)
		return candidates
	}

	// Rerank is authoritative: returned scores replace the boosted ones.
	reranked := make([]*Candidate, len(batch))
	copy(reranked, batch)
	for i, candidate := range reranked {
		candidate.CombinedScore = scores[i]
	}
	sortByScore(reranked)
	return append(reranked, tail...)
}

func (r *Reranker) scoreBatch(ctx context.Context, query string, batch []*Candidate) ([]float64, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\n\nDocuments:\n", query)
	for i, candidate := range batch {
		fmt.Fprintf(&sb, "%d. %s\n%s\n\n", i+1, candidate.Title, truncateBody(candidate.Body, 300))
	}

	response, err := r.completer.Complete(ctx, rerankSystemPrompt, sb.String())
	if err != nil {
		return nil, err
	}

	scores, err := parseScoreArray(response)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(batch) {
		return nil, fmt.Errorf("score count %d does not match batch size %d", len(scores), len(batch))
	}
	return scores, nil
}

// truncateBody caps the prompt excerpt without splitting a multi-byte
// rune mid-sequence.
func truncateBody(body string, max int) string {
	if len(body) <= max {
		return body
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}

// parseScoreArray extracts the first JSON array from a model response.
// Models wrap answers in prose or markdown fences often enough that a
// strict unmarshal of the whole response would throw away good scores.
func parseScoreArray(response string) ([]float64, error) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var scores []float64
	if err := json.Unmarshal([]byte(response[start:end+1]), &scores); err != nil {
		return nil, fmt.Errorf("malformed score array: %v", err)
	}
	return scores, nil
}
