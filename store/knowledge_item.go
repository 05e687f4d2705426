package store

import "context"

// Content types for knowledge items.
const (
	ContentTypeQA         = "qa"
	ContentTypeScreenshot = "screenshot"
	ContentTypeVideo      = "video"
)

// Course hierarchy levels. Level 0 marks free-form items outside any course.
// Only leaf segments and free-form Q&As carry embeddings.
const (
	LevelNone    int32 = 0
	LevelCourse  int32 = 1
	LevelModule  int32 = 2
	LevelLesson  int32 = 3
	LevelSegment int32 = 4
)

// KnowledgeItem represents one retrievable unit of the knowledge base.
type KnowledgeItem struct {
	ID             string
	ContentType    string
	HierarchyLevel int32
	Title          string
	Body           string
	Tags           []string
	ParentID       *string
	CourseID       *string
	ModuleID       *string
	LessonID       *string
	SourceURL      *string
	MediaURL       *string
	TimecodeStart  *float64
	TimecodeEnd    *float64
	CreatedTs      int64
	UpdatedTs      int64
}

// IsLeaf reports whether the item is at the deepest hierarchy level.
func (i *KnowledgeItem) IsLeaf() bool {
	return i.HierarchyLevel == LevelSegment
}

// InHierarchy reports whether the item belongs to a course hierarchy.
func (i *KnowledgeItem) InHierarchy() bool {
	return i.CourseID != nil && *i.CourseID != ""
}

// FindKnowledgeItem is the find condition for knowledge items.
type FindKnowledgeItem struct {
	ID             *string
	ParentID       *string
	CourseID       *string
	ContentType    *string
	HierarchyLevel *int32
	Limit          *int
	Offset         *int
}

// UpdateKnowledgeItem is the update set for a knowledge item.
type UpdateKnowledgeItem struct {
	ID            string
	Title         *string
	Body          *string
	Tags          []string
	MediaURL      *string
	TimecodeStart *float64
	TimecodeEnd   *float64
	UpdatedTs     int64
}

// ItemEmbedding represents the vector embedding of a knowledge item for one
// provider. Dimensions are provider-specific and never mixed.
type ItemEmbedding struct {
	ID        int64
	ItemID    string
	Provider  string
	Embedding []float32
	CreatedTs int64
	UpdatedTs int64
}

// ItemWithScore represents a vector search result with similarity score.
type ItemWithScore struct {
	Item  *KnowledgeItem
	Score float64 // Cosine similarity in [0,1], higher is more similar
}

// VectorSearchOptions represents the options for vector similarity search.
// CourseID, when set, restricts results to items of that course or items
// outside any course (global items stay eligible).
type VectorSearchOptions struct {
	Provider string
	Vector   []float32
	Limit    int
	CourseID *string
}

// KeywordSearchOptions represents the options for keyword search over title
// and body. Results come back in query order; ranking is the caller's job.
type KeywordSearchOptions struct {
	Terms    []string
	Limit    int
	CourseID *string
}

// CreateKnowledgeItem creates a knowledge item.
func (s *Store) CreateKnowledgeItem(ctx context.Context, create *KnowledgeItem) (*KnowledgeItem, error) {
	return s.driver.CreateKnowledgeItem(ctx, create)
}

// GetKnowledgeItem gets a single knowledge item, or nil when not found.
func (s *Store) GetKnowledgeItem(ctx context.Context, find *FindKnowledgeItem) (*KnowledgeItem, error) {
	list, err := s.driver.ListKnowledgeItems(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListKnowledgeItems lists knowledge items.
func (s *Store) ListKnowledgeItems(ctx context.Context, find *FindKnowledgeItem) ([]*KnowledgeItem, error) {
	return s.driver.ListKnowledgeItems(ctx, find)
}

// UpdateKnowledgeItem updates a knowledge item.
func (s *Store) UpdateKnowledgeItem(ctx context.Context, update *UpdateKnowledgeItem) error {
	return s.driver.UpdateKnowledgeItem(ctx, update)
}

// DeleteKnowledgeItem deletes a knowledge item; children cascade.
func (s *Store) DeleteKnowledgeItem(ctx context.Context, id string) error {
	return s.driver.DeleteKnowledgeItem(ctx, id)
}

// UpsertItemEmbedding inserts or updates an item embedding.
func (s *Store) UpsertItemEmbedding(ctx context.Context, embedding *ItemEmbedding) (*ItemEmbedding, error) {
	return s.driver.UpsertItemEmbedding(ctx, embedding)
}

// VectorSearch performs vector similarity search.
func (s *Store) VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*ItemWithScore, error) {
	return s.driver.VectorSearch(ctx, opts)
}

// KeywordSearch performs keyword search over title and body.
func (s *Store) KeywordSearch(ctx context.Context, opts *KeywordSearchOptions) ([]*KnowledgeItem, error) {
	return s.driver.KeywordSearch(ctx, opts)
}
