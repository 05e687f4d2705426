package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kbdesk/kbdesk/store"
)

type createCourseRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// HandleCreateCourse creates a new course root.
func (s *APIV1Service) HandleCreateCourse(c echo.Context) error {
	request := &createCourseRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if request.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	course, err := s.Courses.CreateCourse(c.Request().Context(), request.Title, request.Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create course").SetInternal(err)
	}
	return c.JSON(http.StatusOK, course)
}

type createChildRequest struct {
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	ContentType   string   `json:"contentType"`
	Tags          []string `json:"tags"`
	MediaURL      *string  `json:"mediaUrl"`
	TimecodeStart *float64 `json:"timecodeStart"`
	TimecodeEnd   *float64 `json:"timecodeEnd"`
}

// HandleCreateCourseChild adds a module, lesson or segment under the given
// parent. Leaf segments get embedded on creation.
func (s *APIV1Service) HandleCreateCourseChild(c echo.Context) error {
	request := &createChildRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if request.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	ctx := c.Request().Context()
	item, err := s.Courses.CreateChild(ctx, c.Param("id"), &store.KnowledgeItem{
		Title:         request.Title,
		Body:          request.Body,
		ContentType:   request.ContentType,
		Tags:          request.Tags,
		MediaURL:      request.MediaURL,
		TimecodeStart: request.TimecodeStart,
		TimecodeEnd:   request.TimecodeEnd,
		CreatedTs:     time.Now().Unix(),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to create child").SetInternal(err)
	}

	s.embedItem(ctx, item)
	return c.JSON(http.StatusOK, item)
}

// HandleGetCourseTree returns the nested hierarchy of one course.
func (s *APIV1Service) HandleGetCourseTree(c echo.Context) error {
	tree, err := s.Courses.GetTree(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "course not found").SetInternal(err)
	}
	return c.JSON(http.StatusOK, tree)
}

// HandleGetCourseStats returns per-level item counts for one course.
func (s *APIV1Service) HandleGetCourseStats(c echo.Context) error {
	stats, err := s.Courses.GetStats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "course not found").SetInternal(err)
	}
	return c.JSON(http.StatusOK, stats)
}

type cloneCourseRequest struct {
	Title string `json:"title"`
}

// HandleCloneCourse copies a course under fresh ids.
func (s *APIV1Service) HandleCloneCourse(c echo.Context) error {
	request := &cloneCourseRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}

	clone, err := s.Courses.Clone(c.Request().Context(), c.Param("id"), request.Title)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to clone course").SetInternal(err)
	}
	return c.JSON(http.StatusOK, clone)
}

// HandleDeleteCourse removes a course and its whole subtree.
func (s *APIV1Service) HandleDeleteCourse(c echo.Context) error {
	if err := s.Courses.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to delete course").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
