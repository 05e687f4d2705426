package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kbdesk/kbdesk/plugin/ai/search"
	"github.com/kbdesk/kbdesk/server/generation"
	"github.com/kbdesk/kbdesk/server/websearch"
	"github.com/kbdesk/kbdesk/store"
)

type searchRequest struct {
	Query            string  `json:"query"`
	Provider         string  `json:"provider"`
	Limit            int     `json:"limit"`
	CourseID         *string `json:"courseId"`
	OperatorGuidance string  `json:"operatorGuidance"`
}

type searchResponse struct {
	Results []*search.Candidate `json:"results"`
}

// HandleSearch runs hybrid search and returns the ranked candidates.
func (s *APIV1Service) HandleSearch(c echo.Context) error {
	if s.Searcher == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not enabled")
	}

	request := &searchRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if request.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	results, err := s.Searcher.HybridSearch(c.Request().Context(), &search.Request{
		Query:            request.Query,
		Provider:         request.Provider,
		Limit:            request.Limit,
		CourseID:         request.CourseID,
		OperatorGuidance: request.OperatorGuidance,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed").SetInternal(err)
	}
	return c.JSON(http.StatusOK, &searchResponse{Results: results})
}

type queryRequest struct {
	Query            string  `json:"query"`
	Provider         string  `json:"provider"`
	Limit            int     `json:"limit"`
	CourseID         *string `json:"courseId"`
	OperatorGuidance string  `json:"operatorGuidance"`
}

type queryResponse struct {
	ID              string              `json:"id"`
	Answer          string              `json:"answer"`
	Intent          string              `json:"intent"`
	RecencyRequired bool                `json:"recencyRequired"`
	WebSearchUsed   bool                `json:"webSearchUsed"`
	Sources         []*search.Candidate `json:"sources"`
}

// HandleQuery answers a staff question end to end: classify, retrieve,
// fall back to the web when warranted, generate a grounded answer and log
// the query.
func (s *APIV1Service) HandleQuery(c echo.Context) error {
	if s.Searcher == nil || s.Generation == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "answering is not enabled")
	}

	request := &queryRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if request.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	ctx := c.Request().Context()
	started := time.Now()

	intent := s.Generation.ClassifyIntent(ctx, request.Provider, request.Query)
	recency := generation.DetectRecencyNeed(request.Query)

	results, err := s.Searcher.HybridSearch(ctx, &search.Request{
		Query:            request.Query,
		Provider:         request.Provider,
		Limit:            request.Limit,
		CourseID:         request.CourseID,
		OperatorGuidance: request.OperatorGuidance,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed").SetInternal(err)
	}

	bestScore := bestRetrievalScore(results, s.searchCfg)

	answer := ""
	webUsed := false
	if s.WebSearch != nil && s.WebSearch.Configured() &&
		(recency || websearch.ShouldUseWebSearch(intent, bestScore, webSearchThreshold)) {
		if webResult, webErr := s.WebSearch.Search(ctx, request.Query, 5); webErr == nil {
			if webAnswer, genErr := s.Generation.WebAnswer(ctx, request.Provider, request.Query, webResult.Answer, webResult.Sources()); genErr == nil {
				answer = webAnswer
				webUsed = true
			} else {
				s.logger.Warn("web answer generation failed", "error", genErr)
			}
		} else {
			s.logger.Warn("web search failed, answering from knowledge base", "error", webErr)
		}
	}
	if answer == "" {
		answer, err = s.Generation.GroundedAnswer(ctx, request.Provider, request.Query, results)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, "answer generation failed").SetInternal(err)
		}
	}

	queryLog := &store.QueryLog{
		ID:              uuid.NewString(),
		QueryText:       request.Query,
		Provider:        request.Provider,
		Intent:          intent,
		RecencyRequired: recency,
		SourcesFound:    int32(len(results)),
		WebSearchUsed:   webUsed,
		Answer:          answer,
		LatencyMs:       time.Since(started).Milliseconds(),
		CreatedTs:       time.Now().Unix(),
	}
	if _, err := s.Store.CreateQueryLog(ctx, queryLog); err != nil {
		s.logger.Warn("failed to persist query log", "error", err)
	}

	return c.JSON(http.StatusOK, &queryResponse{
		ID:              queryLog.ID,
		Answer:          answer,
		Intent:          intent,
		RecencyRequired: recency,
		WebSearchUsed:   webUsed,
		Sources:         results,
	})
}

// bestRetrievalScore recomputes the best raw hybrid score in [0,1]. The
// web-search threshold measures retrieval quality, so boosted and
// reranked combined scores must not be compared against it.
func bestRetrievalScore(results []*search.Candidate, cfg search.Config) float64 {
	best := 0.0
	for _, candidate := range results {
		score := cfg.VectorWeight*candidate.VectorScore + cfg.LexicalWeight*candidate.LexicalScore
		if score > best {
			best = score
		}
	}
	return best
}

type feedbackRequest struct {
	QueryID     string  `json:"queryId"`
	StaffRating *int32  `json:"staffRating"`
	WasEdited   *bool   `json:"wasEdited"`
	StaffNotes  *string `json:"staffNotes"`
}

// HandleFeedback records staff feedback on a previously answered query.
func (s *APIV1Service) HandleFeedback(c echo.Context) error {
	request := &feedbackRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if request.QueryID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "queryId is required")
	}

	if err := s.Store.UpdateQueryFeedback(c.Request().Context(), &store.UpdateQueryFeedback{
		ID:          request.QueryID,
		StaffRating: request.StaffRating,
		WasEdited:   request.WasEdited,
		StaffNotes:  request.StaffNotes,
	}); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to record feedback").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleListQueryLogs returns recent query logs for review.
func (s *APIV1Service) HandleListQueryLogs(c echo.Context) error {
	limit := 50
	logs, err := s.Store.ListQueryLogs(c.Request().Context(), &store.FindQueryLog{Limit: &limit})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list query logs").SetInternal(err)
	}
	return c.JSON(http.StatusOK, logs)
}
