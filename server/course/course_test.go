package course

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbdesk/kbdesk/store"
)

// memStore is an in-memory ItemStore for hierarchy tests.
type memStore struct {
	items map[string]*store.KnowledgeItem
	order []string
}

func newMemStore() *memStore {
	return &memStore{items: map[string]*store.KnowledgeItem{}}
}

func (m *memStore) CreateKnowledgeItem(_ context.Context, create *store.KnowledgeItem) (*store.KnowledgeItem, error) {
	m.items[create.ID] = create
	m.order = append(m.order, create.ID)
	return create, nil
}

func (m *memStore) ListKnowledgeItems(_ context.Context, find *store.FindKnowledgeItem) ([]*store.KnowledgeItem, error) {
	list := []*store.KnowledgeItem{}
	for _, id := range m.order {
		item, ok := m.items[id]
		if !ok {
			continue
		}
		if find.ID != nil && item.ID != *find.ID {
			continue
		}
		if find.CourseID != nil && (item.CourseID == nil || *item.CourseID != *find.CourseID) {
			continue
		}
		list = append(list, item)
	}
	return list, nil
}

// fkMemStore behaves like the real drivers: creates fail when the parent
// row does not exist yet, and listing returns deepest items first the way
// a recency ordering does for a course built over time.
type fkMemStore struct {
	*memStore
}

func (m *fkMemStore) CreateKnowledgeItem(ctx context.Context, create *store.KnowledgeItem) (*store.KnowledgeItem, error) {
	if create.ParentID != nil {
		if _, ok := m.items[*create.ParentID]; !ok {
			return nil, fmt.Errorf("foreign key constraint failed: parent %s does not exist", *create.ParentID)
		}
	}
	return m.memStore.CreateKnowledgeItem(ctx, create)
}

func (m *fkMemStore) ListKnowledgeItems(ctx context.Context, find *store.FindKnowledgeItem) ([]*store.KnowledgeItem, error) {
	list, err := m.memStore.ListKnowledgeItems(ctx, find)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].HierarchyLevel > list[j].HierarchyLevel
	})
	return list, nil
}

func (m *memStore) DeleteKnowledgeItem(_ context.Context, id string) error {
	// Cascade like the schema does.
	for childID, item := range m.items {
		if item.ParentID != nil && *item.ParentID == id {
			_ = m.DeleteKnowledgeItem(context.Background(), childID)
		}
	}
	delete(m.items, id)
	return nil
}

func buildCourse(t *testing.T, service *Service, ms *memStore) (courseID string) {
	t.Helper()
	ctx := context.Background()

	course, err := service.CreateCourse(ctx, "Pricing 101", "Intro course")
	require.NoError(t, err)

	module, err := service.CreateChild(ctx, course.ID, &store.KnowledgeItem{Title: "Module 1"})
	require.NoError(t, err)
	lesson, err := service.CreateChild(ctx, module.ID, &store.KnowledgeItem{Title: "Lesson 1"})
	require.NoError(t, err)
	_, err = service.CreateChild(ctx, lesson.ID, &store.KnowledgeItem{Title: "Segment 1", ContentType: store.ContentTypeVideo})
	require.NoError(t, err)
	_, err = service.CreateChild(ctx, lesson.ID, &store.KnowledgeItem{Title: "Segment 2", ContentType: store.ContentTypeVideo})
	require.NoError(t, err)

	return course.ID
}

func TestCreateChildLevels(t *testing.T) {
	ms := newMemStore()
	service := NewService(ms)
	ctx := context.Background()

	course, err := service.CreateCourse(ctx, "Course", "")
	require.NoError(t, err)
	assert.Equal(t, store.LevelCourse, course.HierarchyLevel)
	require.NotNil(t, course.CourseID)
	assert.Equal(t, course.ID, *course.CourseID)

	module, err := service.CreateChild(ctx, course.ID, &store.KnowledgeItem{Title: "M"})
	require.NoError(t, err)
	assert.Equal(t, store.LevelModule, module.HierarchyLevel)
	assert.Equal(t, course.ID, *module.CourseID)
	assert.Equal(t, module.ID, *module.ModuleID)

	lesson, err := service.CreateChild(ctx, module.ID, &store.KnowledgeItem{Title: "L"})
	require.NoError(t, err)
	assert.Equal(t, store.LevelLesson, lesson.HierarchyLevel)
	assert.Equal(t, module.ID, *lesson.ModuleID)
	assert.Equal(t, lesson.ID, *lesson.LessonID)

	segment, err := service.CreateChild(ctx, lesson.ID, &store.KnowledgeItem{Title: "S"})
	require.NoError(t, err)
	assert.Equal(t, store.LevelSegment, segment.HierarchyLevel)
	assert.Equal(t, lesson.ID, *segment.LessonID)

	_, err = service.CreateChild(ctx, segment.ID, &store.KnowledgeItem{Title: "too deep"})
	assert.Error(t, err)

	_, err = service.CreateChild(ctx, "missing", &store.KnowledgeItem{Title: "orphan"})
	assert.Error(t, err)
}

func TestGetTree(t *testing.T) {
	ms := newMemStore()
	service := NewService(ms)
	courseID := buildCourse(t, service, ms)

	tree, err := service.GetTree(context.Background(), courseID)
	require.NoError(t, err)

	assert.Equal(t, "Pricing 101", tree.Item.Title)
	require.Len(t, tree.Children, 1)
	module := tree.Children[0]
	require.Len(t, module.Children, 1)
	lesson := module.Children[0]
	require.Len(t, lesson.Children, 2)
	titles := []string{lesson.Children[0].Item.Title, lesson.Children[1].Item.Title}
	assert.ElementsMatch(t, []string{"Segment 1", "Segment 2"}, titles)
}

func TestCloneRemapsIDs(t *testing.T) {
	ms := newMemStore()
	service := NewService(ms)
	courseID := buildCourse(t, service, ms)
	ctx := context.Background()

	clone, err := service.Clone(ctx, courseID, "Pricing 101 Copy")
	require.NoError(t, err)
	assert.NotEqual(t, courseID, clone.ID)
	assert.Equal(t, "Pricing 101 Copy", clone.Title)

	tree, err := service.GetTree(ctx, clone.ID)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Len(t, tree.Children[0].Children[0].Children, 2)

	// The original course is untouched.
	original, err := service.GetTree(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, "Pricing 101", original.Item.Title)

	// Every cloned item points inside the clone, never at the original.
	clonedItems, err := ms.ListKnowledgeItems(ctx, &store.FindKnowledgeItem{CourseID: &clone.ID})
	require.NoError(t, err)
	require.Len(t, clonedItems, 5)
	for _, item := range clonedItems {
		assert.NotEqual(t, courseID, item.ID)
		if item.ParentID != nil {
			parent, ok := ms.items[*item.ParentID]
			require.True(t, ok)
			assert.Equal(t, clone.ID, *parent.CourseID)
		}
	}
}

func TestCloneInsertsParentsBeforeChildren(t *testing.T) {
	ms := &fkMemStore{memStore: newMemStore()}
	service := NewService(ms)
	ctx := context.Background()

	course, err := service.CreateCourse(ctx, "Pricing 101", "")
	require.NoError(t, err)
	module, err := service.CreateChild(ctx, course.ID, &store.KnowledgeItem{Title: "Module 1"})
	require.NoError(t, err)
	lesson, err := service.CreateChild(ctx, module.ID, &store.KnowledgeItem{Title: "Lesson 1"})
	require.NoError(t, err)
	_, err = service.CreateChild(ctx, lesson.ID, &store.KnowledgeItem{Title: "Segment 1"})
	require.NoError(t, err)

	// The store hands back children first; cloning must still satisfy
	// the parent foreign key on every insert.
	clone, err := service.Clone(ctx, course.ID, "Pricing 101 Copy")
	require.NoError(t, err)

	tree, err := service.GetTree(ctx, clone.ID)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Len(t, tree.Children[0].Children[0].Children, 1)
}

func TestDeleteCascades(t *testing.T) {
	ms := newMemStore()
	service := NewService(ms)
	courseID := buildCourse(t, service, ms)
	ctx := context.Background()

	require.NoError(t, service.Delete(ctx, courseID))
	assert.Empty(t, ms.items)

	assert.Error(t, service.Delete(ctx, courseID))
}

func TestDeleteRejectsNonCourse(t *testing.T) {
	ms := newMemStore()
	service := NewService(ms)
	ctx := context.Background()

	course, err := service.CreateCourse(ctx, "C", "")
	require.NoError(t, err)
	module, err := service.CreateChild(ctx, course.ID, &store.KnowledgeItem{Title: "M"})
	require.NoError(t, err)

	assert.Error(t, service.Delete(ctx, module.ID))
}

func TestGetStats(t *testing.T) {
	ms := newMemStore()
	service := NewService(ms)
	courseID := buildCourse(t, service, ms)

	stats, err := service.GetStats(context.Background(), courseID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ModuleCount)
	assert.Equal(t, 1, stats.LessonCount)
	assert.Equal(t, 2, stats.SegmentCount)
}
