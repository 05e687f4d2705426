// Package v1 exposes the REST API.
package v1

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/kbdesk/kbdesk/internal/profile"
	"github.com/kbdesk/kbdesk/plugin/ai"
	"github.com/kbdesk/kbdesk/plugin/ai/search"
	"github.com/kbdesk/kbdesk/server/course"
	"github.com/kbdesk/kbdesk/server/generation"
	"github.com/kbdesk/kbdesk/server/websearch"
	"github.com/kbdesk/kbdesk/store"
)

// webSearchThreshold is the internal score below which an internal-intent
// query still falls through to web search.
const webSearchThreshold = 0.7

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	Registry   *ai.Registry
	Searcher   *search.Searcher
	Generation *generation.Service
	Courses    *course.Service
	WebSearch  *websearch.Client

	searchCfg search.Config
	logger    *slog.Logger
}

func NewAPIV1Service(profile *profile.Profile, st *store.Store, logger *slog.Logger) (*APIV1Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	service := &APIV1Service{
		Profile:   profile,
		Store:     st,
		Courses:   course.NewService(st),
		searchCfg: search.DefaultConfig(),
		logger:    logger,
	}

	if profile.IsAIEnabled() {
		aiConfig := ai.NewConfigFromProfile(profile)
		registry, err := ai.NewRegistry(aiConfig)
		if err != nil {
			return nil, err
		}
		service.Registry = registry
		service.Searcher = search.NewSearcher(st, registry, service.searchCfg, profile.RerankEnabled, logger)
		service.Generation = generation.NewService(registry, logger)
	}
	if profile.WebSearchEnabled {
		service.WebSearch = websearch.NewClient(profile.TavilyAPIKey, profile.TavilyBaseURL)
	}

	return service, nil
}

// RegisterRoutes attaches all v1 routes to the echo server.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")

	g.POST("/search", s.HandleSearch)
	g.POST("/query", s.HandleQuery)
	g.POST("/feedback", s.HandleFeedback)
	g.GET("/querylogs", s.HandleListQueryLogs)

	g.POST("/items", s.HandleCreateItem)
	g.GET("/items", s.HandleListItems)
	g.PATCH("/items/:id", s.HandleUpdateItem)
	g.DELETE("/items/:id", s.HandleDeleteItem)

	g.POST("/courses", s.HandleCreateCourse)
	g.POST("/courses/:id/children", s.HandleCreateCourseChild)
	g.GET("/courses/:id/tree", s.HandleGetCourseTree)
	g.GET("/courses/:id/stats", s.HandleGetCourseStats)
	g.POST("/courses/:id/clone", s.HandleCloneCourse)
	g.DELETE("/courses/:id", s.HandleDeleteCourse)
}
