// Package generation turns ranked search results into grounded answers
// and classifies queries before retrieval runs.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kbdesk/kbdesk/plugin/ai/search"
)

// Query intents. External and both route the query through web search.
const (
	IntentInternal = "internal"
	IntentExternal = "external"
	IntentBoth     = "both"
)

// Service generates grounded answers from search candidates.
type Service struct {
	providers search.ProviderGetter
	logger    *slog.Logger
}

func NewService(providers search.ProviderGetter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		providers: providers,
		logger:    logger,
	}
}

const groundedSystemPrompt = `You are a helpful assistant for knowledge-base staff.

Your role is to help staff answer questions by providing accurate, grounded responses based on the knowledge base.

IMPORTANT RULES:
1. ONLY use information from the provided sources, do NOT make up or infer information
2. Cite which source(s) you are using (e.g. "According to Source 1...")
3. If the sources do not fully answer the question, say so clearly
4. Be helpful and conversational, but stay factual
5. If multiple sources have similar information, synthesize them

Format your answer clearly and concisely.`

const webSystemPrompt = `You are a helpful assistant for knowledge-base staff.

Answer the question using the provided web sources. Cite sources by their URL. If the sources do not cover the question, say so clearly instead of guessing.`

// FormatSources renders search candidates into the context block of the
// grounding prompt.
func FormatSources(candidates []*search.Candidate) string {
	if len(candidates) == 0 {
		return "No relevant sources found in the knowledge base."
	}

	parts := make([]string, 0, len(candidates))
	for i, candidate := range candidates {
		tags := "None"
		if len(candidate.Tags) > 0 {
			tags = strings.Join(candidate.Tags, ", ")
		}
		parts = append(parts, fmt.Sprintf(
			"[Source %d]\nCategory: %s\nTags: %s\nQ: %s\nA: %s\n",
			i+1, candidate.ContentType, tags, candidate.Title, candidate.Body,
		))
	}
	return strings.Join(parts, "\n---\n")
}

// GroundedAnswer asks the provider for an answer restricted to the given
// sources.
func (s *Service) GroundedAnswer(ctx context.Context, providerID, query string, candidates []*search.Candidate) (string, error) {
	provider, err := s.providers.Get(providerID)
	if err != nil {
		return "", err
	}

	userPrompt := fmt.Sprintf("Sources:\n%s\n\nQuestion: %s", FormatSources(candidates), query)
	answer, err := provider.Complete(ctx, groundedSystemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("generate grounded answer: %w", err)
	}
	return answer, nil
}

// WebSource is one external result fed into a web-grounded answer.
type WebSource struct {
	Title   string
	URL     string
	Content string
}

// FormatWebSources renders external results plus an optional summary into
// the context block of the web prompt.
func FormatWebSources(summary string, sources []WebSource) string {
	if summary == "" && len(sources) == 0 {
		return "No relevant web sources found."
	}

	parts := []string{}
	if summary != "" {
		parts = append(parts, fmt.Sprintf("[Web Summary]\n%s\n", summary))
	}
	for i, source := range sources {
		parts = append(parts, fmt.Sprintf(
			"[Web Source %d]\nTitle: %s\nURL: %s\nContent: %s\n",
			i+1, source.Title, source.URL, source.Content,
		))
	}
	return strings.Join(parts, "\n---\n")
}

// WebAnswer asks the provider for an answer grounded in web results.
func (s *Service) WebAnswer(ctx context.Context, providerID, query, summary string, sources []WebSource) (string, error) {
	provider, err := s.providers.Get(providerID)
	if err != nil {
		return "", err
	}

	userPrompt := fmt.Sprintf("Sources:\n%s\n\nQuestion: %s", FormatWebSources(summary, sources), query)
	answer, err := provider.Complete(ctx, webSystemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("generate web answer: %w", err)
	}
	return answer, nil
}

const intentSystemPrompt = `You are a query classifier. Determine if the user's question is about:
- INTERNAL: questions about courses, community, support, or tools covered by the knowledge base
- EXTERNAL: general knowledge questions, latest information, technical how-to questions
- BOTH: questions that might need both internal and external information

Respond with ONLY one word: internal, external, or both`

// ClassifyIntent labels a query internal, external or both. Unclear or
// failing classifications default to internal so the knowledge base stays
// the primary source.
func (s *Service) ClassifyIntent(ctx context.Context, providerID, query string) string {
	provider, err := s.providers.Get(providerID)
	if err != nil {
		s.logger.Warn("intent classification unavailable, defaulting to internal", "error", err)
		return IntentInternal
	}

	response, err := provider.Complete(ctx, intentSystemPrompt, query)
	if err != nil {
		s.logger.Warn("intent classification failed, defaulting to internal", "error", err)
		return IntentInternal
	}

	switch intent := strings.ToLower(strings.TrimSpace(response)); intent {
	case IntentInternal, IntentExternal, IntentBoth:
		return intent
	default:
		return IntentInternal
	}
}

// recencyKeywords flag time-sensitive queries whose answers rot in the
// knowledge base.
var recencyKeywords = []string{
	"today", "this week", "this month", "latest", "recent", "current",
	"zoom link", "meeting link", "upcoming", "next", "schedule",
	"when is", "what time", "now",
}

// DetectRecencyNeed reports whether the query asks for time-sensitive
// information.
func DetectRecencyNeed(query string) bool {
	lowered := strings.ToLower(query)
	for _, keyword := range recencyKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
