package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// EnsureSchema creates the schema when it does not exist yet.
	EnsureSchema(ctx context.Context) error

	// KnowledgeItem model related methods.
	CreateKnowledgeItem(ctx context.Context, create *KnowledgeItem) (*KnowledgeItem, error)
	ListKnowledgeItems(ctx context.Context, find *FindKnowledgeItem) ([]*KnowledgeItem, error)
	UpdateKnowledgeItem(ctx context.Context, update *UpdateKnowledgeItem) error
	DeleteKnowledgeItem(ctx context.Context, id string) error

	// ItemEmbedding model related methods.
	UpsertItemEmbedding(ctx context.Context, embedding *ItemEmbedding) (*ItemEmbedding, error)

	// VectorSearch performs similarity search for one provider's vectors.
	VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*ItemWithScore, error)

	// KeywordSearch matches terms against title and body, case-insensitively.
	KeywordSearch(ctx context.Context, opts *KeywordSearchOptions) ([]*KnowledgeItem, error)

	// QueryLog model related methods.
	CreateQueryLog(ctx context.Context, create *QueryLog) (*QueryLog, error)
	ListQueryLogs(ctx context.Context, find *FindQueryLog) ([]*QueryLog, error)
	UpdateQueryFeedback(ctx context.Context, update *UpdateQueryFeedback) error
}
