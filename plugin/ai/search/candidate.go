// Package search implements the hybrid retrieval and relevance-ranking
// pipeline: parallel vector and lexical retrieval, weighted merge,
// directive-driven boosting, generative rerank and category partitioning.
package search

import "github.com/kbdesk/kbdesk/store"

// Match type provenance: which retrieval path produced a candidate.
const (
	MatchTypeVector  = "vector"
	MatchTypeLexical = "lexical"
	MatchTypeHybrid  = "hybrid"
)

// Candidate is a transient record for one retrievable knowledge unit
// during a single search call. Candidates are built fresh per call and
// never persisted.
type Candidate struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	ContentType    string   `json:"contentType"`
	Tags           []string `json:"tags"`
	CourseID       *string  `json:"courseId,omitempty"`
	ModuleID       *string  `json:"moduleId,omitempty"`
	LessonID       *string  `json:"lessonId,omitempty"`
	ParentID       *string  `json:"parentId,omitempty"`
	HierarchyLevel int32    `json:"hierarchyLevel"`
	MediaURL       *string  `json:"mediaUrl,omitempty"`
	TimecodeStart  *float64 `json:"timecodeStart,omitempty"`
	TimecodeEnd    *float64 `json:"timecodeEnd,omitempty"`

	// VectorScore and LexicalScore are in [0,1]; 0 means the item did
	// not appear on that path.
	VectorScore  float64 `json:"vectorScore"`
	LexicalScore float64 `json:"lexicalScore"`
	// CombinedScore is the weighted sum of the two path scores, then
	// boost-multiplied, then possibly replaced by the rerank score.
	// Unbounded after boosting.
	CombinedScore float64 `json:"combinedScore"`
	MatchType     string  `json:"matchType"`
}

// InHierarchy reports whether the candidate belongs to a course hierarchy.
func (c *Candidate) InHierarchy() bool {
	return c.CourseID != nil && *c.CourseID != ""
}

// IsLeaf reports whether the candidate sits at the deepest hierarchy level.
func (c *Candidate) IsLeaf() bool {
	return c.HierarchyLevel == store.LevelSegment
}

func newCandidate(item *store.KnowledgeItem) *Candidate {
	return &Candidate{
		ID:             item.ID,
		Title:          item.Title,
		Body:           item.Body,
		ContentType:    item.ContentType,
		Tags:           item.Tags,
		CourseID:       item.CourseID,
		ModuleID:       item.ModuleID,
		LessonID:       item.LessonID,
		ParentID:       item.ParentID,
		HierarchyLevel: item.HierarchyLevel,
		MediaURL:       item.MediaURL,
		TimecodeStart:  item.TimecodeStart,
		TimecodeEnd:    item.TimecodeEnd,
	}
}

// Directive is the structured result of parsing operator steering text.
type Directive struct {
	PrioritizeCourse  bool
	RestrictToCourse  bool
	NamedEntityFilter string
}

// Config carries the immutable scoring weights and thresholds for one
// Searcher. Loaded once and passed in, never read from globals, so
// concurrent calls and tests can use different configurations.
type Config struct {
	// VectorWeight and LexicalWeight must sum to 1.0.
	VectorWeight  float64
	LexicalWeight float64

	// LeafBoost applies to deepest-level items, HierarchyBoost to any
	// other item inside a course hierarchy. The two are exclusive.
	LeafBoost      float64
	HierarchyBoost float64
	// PriorityBoost applies to grouped items when the directive asks to
	// prioritize course content. EntityBoost applies to title matches of
	// a named-entity filter.
	PriorityBoost float64
	EntityBoost   float64

	// RerankBatchSize caps how many top candidates go to the generative
	// rerank in one call.
	RerankBatchSize int
	// RetrievalFanout multiplies the caller's limit for the per-path
	// fetch so merge and partition have enough material.
	RetrievalFanout int
}

// DefaultConfig returns the production scoring configuration.
func DefaultConfig() Config {
	return Config{
		VectorWeight:    0.7,
		LexicalWeight:   0.3,
		LeafBoost:       3.0,
		HierarchyBoost:  1.5,
		PriorityBoost:   1.5,
		EntityBoost:     10.0,
		RerankBatchSize: 20,
		RetrievalFanout: 2,
	}
}
