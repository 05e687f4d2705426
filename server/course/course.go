// Package course manages the knowledge-base course hierarchy: courses
// contain modules, modules contain lessons, lessons contain segments.
package course

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kbdesk/kbdesk/store"
)

// ItemStore is the slice of the store the course service needs.
type ItemStore interface {
	CreateKnowledgeItem(ctx context.Context, create *store.KnowledgeItem) (*store.KnowledgeItem, error)
	ListKnowledgeItems(ctx context.Context, find *store.FindKnowledgeItem) ([]*store.KnowledgeItem, error)
	DeleteKnowledgeItem(ctx context.Context, id string) error
}

// Node is one hierarchy node with its children, ordered by creation time.
type Node struct {
	Item     *store.KnowledgeItem `json:"item"`
	Children []*Node              `json:"children,omitempty"`
}

// Stats summarizes one course.
type Stats struct {
	CourseID     string `json:"courseId"`
	ModuleCount  int    `json:"moduleCount"`
	LessonCount  int    `json:"lessonCount"`
	SegmentCount int    `json:"segmentCount"`
}

// Service manages hierarchy operations on top of the item store.
type Service struct {
	store ItemStore
}

func NewService(store ItemStore) *Service {
	return &Service{store: store}
}

// CreateCourse creates a level-1 root item.
func (s *Service) CreateCourse(ctx context.Context, title, body string) (*store.KnowledgeItem, error) {
	id := uuid.NewString()
	now := time.Now().Unix()
	return s.store.CreateKnowledgeItem(ctx, &store.KnowledgeItem{
		ID:             id,
		ContentType:    store.ContentTypeQA,
		HierarchyLevel: store.LevelCourse,
		Title:          title,
		Body:           body,
		CourseID:       &id,
		CreatedTs:      now,
		UpdatedTs:      now,
	})
}

// CreateChild creates a module, lesson or segment under the given parent.
// The child inherits the parent's course linkage and sits one level below
// it.
func (s *Service) CreateChild(ctx context.Context, parentID string, create *store.KnowledgeItem) (*store.KnowledgeItem, error) {
	parent, err := s.findItem(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, errors.Errorf("parent not found: %s", parentID)
	}
	if parent.HierarchyLevel >= store.LevelSegment {
		return nil, errors.New("segments cannot have children")
	}

	now := time.Now().Unix()
	create.ID = uuid.NewString()
	create.HierarchyLevel = parent.HierarchyLevel + 1
	create.ParentID = &parent.ID
	create.CourseID = parent.CourseID
	create.CreatedTs = now
	create.UpdatedTs = now
	if create.ContentType == "" {
		create.ContentType = store.ContentTypeQA
	}

	switch parent.HierarchyLevel {
	case store.LevelCourse:
		create.ModuleID = &create.ID
	case store.LevelModule:
		create.ModuleID = parent.ModuleID
		create.LessonID = &create.ID
	case store.LevelLesson:
		create.ModuleID = parent.ModuleID
		create.LessonID = parent.LessonID
	}

	return s.store.CreateKnowledgeItem(ctx, create)
}

// GetTree builds the course tree from its flat rows.
func (s *Service) GetTree(ctx context.Context, courseID string) (*Node, error) {
	items, err := s.store.ListKnowledgeItems(ctx, &store.FindKnowledgeItem{CourseID: &courseID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list course items")
	}

	nodes := make(map[string]*Node, len(items))
	var root *Node
	for _, item := range items {
		nodes[item.ID] = &Node{Item: item}
		if item.ID == courseID {
			root = nodes[item.ID]
		}
	}
	if root == nil {
		return nil, errors.Errorf("course not found: %s", courseID)
	}

	for _, item := range items {
		if item.ParentID == nil {
			continue
		}
		if parent, ok := nodes[*item.ParentID]; ok {
			parent.Children = append(parent.Children, nodes[item.ID])
		}
	}
	sortTree(root)
	return root, nil
}

func sortTree(node *Node) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		a, b := node.Children[i].Item, node.Children[j].Item
		if a.CreatedTs != b.CreatedTs {
			return a.CreatedTs < b.CreatedTs
		}
		return a.ID < b.ID
	})
	for _, child := range node.Children {
		sortTree(child)
	}
}

// Clone copies a whole course under fresh ids. Embeddings are not copied;
// the clone is re-embedded by the ingestion path.
func (s *Service) Clone(ctx context.Context, courseID, newTitle string) (*store.KnowledgeItem, error) {
	items, err := s.store.ListKnowledgeItems(ctx, &store.FindKnowledgeItem{CourseID: &courseID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list course items")
	}
	if len(items) == 0 {
		return nil, errors.Errorf("course not found: %s", courseID)
	}

	// Rows come back in recency order, which puts children before their
	// parents. The parent_id foreign key requires parents to exist first,
	// so insert level by level from the root down.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].HierarchyLevel < items[j].HierarchyLevel
	})

	idMap := make(map[string]string, len(items))
	for _, item := range items {
		idMap[item.ID] = uuid.NewString()
	}
	remap := func(id *string) *string {
		if id == nil {
			return nil
		}
		if mapped, ok := idMap[*id]; ok {
			return &mapped
		}
		return id
	}

	now := time.Now().Unix()
	var root *store.KnowledgeItem
	for _, item := range items {
		clone := *item
		clone.ID = idMap[item.ID]
		clone.ParentID = remap(item.ParentID)
		clone.CourseID = remap(item.CourseID)
		clone.ModuleID = remap(item.ModuleID)
		clone.LessonID = remap(item.LessonID)
		clone.CreatedTs = now
		clone.UpdatedTs = now
		if item.ID == courseID {
			if newTitle != "" {
				clone.Title = newTitle
			}
			root = &clone
		}
		if _, err := s.store.CreateKnowledgeItem(ctx, &clone); err != nil {
			return nil, errors.Wrapf(err, "failed to clone item %s", item.ID)
		}
	}
	if root == nil {
		return nil, errors.Errorf("course root missing: %s", courseID)
	}
	return root, nil
}

// Delete removes a course and everything under it. Children cascade at
// the schema level, so deleting the root suffices.
func (s *Service) Delete(ctx context.Context, courseID string) error {
	course, err := s.findItem(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return errors.Errorf("course not found: %s", courseID)
	}
	if course.HierarchyLevel != store.LevelCourse {
		return errors.Errorf("not a course: %s", courseID)
	}
	return s.store.DeleteKnowledgeItem(ctx, courseID)
}

// GetStats counts the course's items per hierarchy level.
func (s *Service) GetStats(ctx context.Context, courseID string) (*Stats, error) {
	items, err := s.store.ListKnowledgeItems(ctx, &store.FindKnowledgeItem{CourseID: &courseID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list course items")
	}
	if len(items) == 0 {
		return nil, errors.Errorf("course not found: %s", courseID)
	}

	stats := &Stats{CourseID: courseID}
	for _, item := range items {
		switch item.HierarchyLevel {
		case store.LevelModule:
			stats.ModuleCount++
		case store.LevelLesson:
			stats.LessonCount++
		case store.LevelSegment:
			stats.SegmentCount++
		}
	}
	return stats, nil
}

func (s *Service) findItem(ctx context.Context, id string) (*store.KnowledgeItem, error) {
	items, err := s.store.ListKnowledgeItems(ctx, &store.FindKnowledgeItem{ID: &id})
	if err != nil {
		return nil, errors.Wrap(err, "failed to find item")
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}
