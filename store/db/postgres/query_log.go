package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/kbdesk/kbdesk/store"
)

func (d *DB) CreateQueryLog(ctx context.Context, create *store.QueryLog) (*store.QueryLog, error) {
	fields := []string{
		"id", "query_text", "provider", "intent", "recency_required",
		"sources_found", "web_search_used", "answer", "latency_ms", "created_ts",
	}
	args := []any{
		create.ID, create.QueryText, create.Provider, create.Intent,
		create.RecencyRequired, create.SourcesFound, create.WebSearchUsed,
		create.Answer, create.LatencyMs, create.CreatedTs,
	}

	stmt := "INSERT INTO query_log (" + strings.Join(fields, ", ") + ") VALUES (" + placeholders(len(args)) + ")"
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to create query log")
	}
	return create, nil
}

func (d *DB) ListQueryLogs(ctx context.Context, find *store.FindQueryLog) ([]*store.QueryLog, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Provider; v != nil {
		where, args = append(where, "provider = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, query_text, provider, intent, recency_required, sources_found,
			web_search_used, answer, latency_ms, staff_rating, was_edited,
			staff_notes, created_ts
		FROM query_log
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id`
	if v := find.Limit; v != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *v)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list query logs")
	}
	defer rows.Close()

	list := []*store.QueryLog{}
	for rows.Next() {
		queryLog := &store.QueryLog{}
		if err := rows.Scan(
			&queryLog.ID,
			&queryLog.QueryText,
			&queryLog.Provider,
			&queryLog.Intent,
			&queryLog.RecencyRequired,
			&queryLog.SourcesFound,
			&queryLog.WebSearchUsed,
			&queryLog.Answer,
			&queryLog.LatencyMs,
			&queryLog.StaffRating,
			&queryLog.WasEdited,
			&queryLog.StaffNotes,
			&queryLog.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan query log")
		}
		list = append(list, queryLog)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return list, nil
}

func (d *DB) UpdateQueryFeedback(ctx context.Context, update *store.UpdateQueryFeedback) error {
	set, args := []string{}, []any{}

	if v := update.StaffRating; v != nil {
		set, args = append(set, "staff_rating = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.WasEdited; v != nil {
		set, args = append(set, "was_edited = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.StaffNotes; v != nil {
		set, args = append(set, "staff_notes = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return errors.New("no feedback fields to update")
	}
	args = append(args, update.ID)

	stmt := "UPDATE query_log SET " + strings.Join(set, ", ") + " WHERE id = " + placeholder(len(args))
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return errors.Wrap(err, "failed to update query feedback")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errors.Errorf("query log not found: %s", update.ID)
	}
	return nil
}
