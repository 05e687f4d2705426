package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kbdesk/kbdesk/store"
)

type createItemRequest struct {
	ContentType   string   `json:"contentType"`
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	Tags          []string `json:"tags"`
	SourceURL     *string  `json:"sourceUrl"`
	MediaURL      *string  `json:"mediaUrl"`
	TimecodeStart *float64 `json:"timecodeStart"`
	TimecodeEnd   *float64 `json:"timecodeEnd"`
}

// HandleCreateItem creates a free-form knowledge item and embeds it for
// every configured provider. Hierarchy items go through the course routes.
func (s *APIV1Service) HandleCreateItem(c echo.Context) error {
	request := &createItemRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if request.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if request.ContentType == "" {
		request.ContentType = store.ContentTypeQA
	}

	now := time.Now().Unix()
	item, err := s.Store.CreateKnowledgeItem(c.Request().Context(), &store.KnowledgeItem{
		ID:            uuid.NewString(),
		ContentType:   request.ContentType,
		Title:         request.Title,
		Body:          request.Body,
		Tags:          request.Tags,
		SourceURL:     request.SourceURL,
		MediaURL:      request.MediaURL,
		TimecodeStart: request.TimecodeStart,
		TimecodeEnd:   request.TimecodeEnd,
		CreatedTs:     now,
		UpdatedTs:     now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create item").SetInternal(err)
	}

	s.embedItem(c.Request().Context(), item)
	return c.JSON(http.StatusOK, item)
}

// embedItem stores one embedding per configured provider. Embedding
// failures leave the item lexical-only rather than failing the write.
func (s *APIV1Service) embedItem(ctx context.Context, item *store.KnowledgeItem) {
	if s.Registry == nil {
		return
	}
	if item.HierarchyLevel != store.LevelNone && item.HierarchyLevel != store.LevelSegment {
		return
	}

	text := item.Title + "\n" + item.Body
	now := time.Now().Unix()
	for _, id := range s.Registry.IDs() {
		provider, err := s.Registry.Get(id)
		if err != nil {
			continue
		}
		vector, err := provider.Embed(ctx, text)
		if err != nil {
			s.logger.Warn("embedding failed, item stays lexical-only for this provider",
				"item", item.ID, "provider", id, "error", err)
			continue
		}
		if _, err := s.Store.UpsertItemEmbedding(ctx, &store.ItemEmbedding{
			ItemID:    item.ID,
			Provider:  id,
			Embedding: vector,
			CreatedTs: now,
			UpdatedTs: now,
		}); err != nil {
			s.logger.Warn("failed to store embedding", "item", item.ID, "provider", id, "error", err)
		}
	}
}

// HandleListItems lists knowledge items with optional filters.
func (s *APIV1Service) HandleListItems(c echo.Context) error {
	find := &store.FindKnowledgeItem{}
	if v := c.QueryParam("courseId"); v != "" {
		find.CourseID = &v
	}
	if v := c.QueryParam("contentType"); v != "" {
		find.ContentType = &v
	}
	limit := 100
	find.Limit = &limit

	items, err := s.Store.ListKnowledgeItems(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list items").SetInternal(err)
	}
	return c.JSON(http.StatusOK, items)
}

type updateItemRequest struct {
	Title         *string  `json:"title"`
	Body          *string  `json:"body"`
	Tags          []string `json:"tags"`
	MediaURL      *string  `json:"mediaUrl"`
	TimecodeStart *float64 `json:"timecodeStart"`
	TimecodeEnd   *float64 `json:"timecodeEnd"`
}

// HandleUpdateItem updates item fields and refreshes embeddings when the
// text changed.
func (s *APIV1Service) HandleUpdateItem(c echo.Context) error {
	id := c.Param("id")
	request := &updateItemRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}

	ctx := c.Request().Context()
	if err := s.Store.UpdateKnowledgeItem(ctx, &store.UpdateKnowledgeItem{
		ID:            id,
		Title:         request.Title,
		Body:          request.Body,
		Tags:          request.Tags,
		MediaURL:      request.MediaURL,
		TimecodeStart: request.TimecodeStart,
		TimecodeEnd:   request.TimecodeEnd,
		UpdatedTs:     time.Now().Unix(),
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update item").SetInternal(err)
	}

	item, err := s.Store.GetKnowledgeItem(ctx, &store.FindKnowledgeItem{ID: &id})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load item").SetInternal(err)
	}
	if item == nil {
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	}
	if request.Title != nil || request.Body != nil {
		s.embedItem(ctx, item)
	}
	return c.JSON(http.StatusOK, item)
}

// HandleDeleteItem deletes an item; embeddings and children cascade.
func (s *APIV1Service) HandleDeleteItem(c echo.Context) error {
	if err := s.Store.DeleteKnowledgeItem(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete item").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
