package store

import "context"

// QueryLog records one staff query and the answer produced for it.
type QueryLog struct {
	ID              string
	QueryText       string
	Provider        string
	Intent          string
	RecencyRequired bool
	SourcesFound    int32
	WebSearchUsed   bool
	Answer          string
	LatencyMs       int64
	StaffRating     *int32
	WasEdited       bool
	StaffNotes      *string
	CreatedTs       int64
}

// FindQueryLog is the find condition for query logs.
type FindQueryLog struct {
	ID       *string
	Provider *string
	Limit    *int
}

// UpdateQueryFeedback records staff feedback on a logged query.
type UpdateQueryFeedback struct {
	ID          string
	StaffRating *int32
	WasEdited   *bool
	StaffNotes  *string
}

// CreateQueryLog creates a query log entry.
func (s *Store) CreateQueryLog(ctx context.Context, create *QueryLog) (*QueryLog, error) {
	return s.driver.CreateQueryLog(ctx, create)
}

// ListQueryLogs lists query log entries, most recent first.
func (s *Store) ListQueryLogs(ctx context.Context, find *FindQueryLog) ([]*QueryLog, error) {
	return s.driver.ListQueryLogs(ctx, find)
}

// UpdateQueryFeedback updates feedback fields on a query log entry.
func (s *Store) UpdateQueryFeedback(ctx context.Context, update *UpdateQueryFeedback) error {
	return s.driver.UpdateQueryFeedback(ctx, update)
}
