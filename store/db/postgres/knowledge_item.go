package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/kbdesk/kbdesk/store"
)

func (d *DB) CreateKnowledgeItem(ctx context.Context, create *store.KnowledgeItem) (*store.KnowledgeItem, error) {
	fields := []string{
		"id", "content_type", "hierarchy_level", "title", "body", "tags",
		"parent_id", "course_id", "module_id", "lesson_id", "source_url",
		"media_url", "timecode_start", "timecode_end", "created_ts", "updated_ts",
	}
	args := []any{
		create.ID, create.ContentType, create.HierarchyLevel, create.Title,
		create.Body, pq.Array(create.Tags), create.ParentID, create.CourseID,
		create.ModuleID, create.LessonID, create.SourceURL, create.MediaURL,
		create.TimecodeStart, create.TimecodeEnd, create.CreatedTs, create.UpdatedTs,
	}

	stmt := "INSERT INTO knowledge_item (" + strings.Join(fields, ", ") + ") VALUES (" + placeholders(len(args)) + ")"
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to create knowledge item")
	}
	return create, nil
}

func (d *DB) ListKnowledgeItems(ctx context.Context, find *store.FindKnowledgeItem) ([]*store.KnowledgeItem, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ParentID; v != nil {
		where, args = append(where, "parent_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CourseID; v != nil {
		where, args = append(where, "course_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ContentType; v != nil {
		where, args = append(where, "content_type = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.HierarchyLevel; v != nil {
		where, args = append(where, "hierarchy_level = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, content_type, hierarchy_level, title, body, tags,
			parent_id, course_id, module_id, lesson_id, source_url,
			media_url, timecode_start, timecode_end, created_ts, updated_ts
		FROM knowledge_item
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC, id`
	if v := find.Limit; v != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *v)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list knowledge items")
	}
	defer rows.Close()

	list := []*store.KnowledgeItem{}
	for rows.Next() {
		item := &store.KnowledgeItem{}
		if err := rows.Scan(
			&item.ID,
			&item.ContentType,
			&item.HierarchyLevel,
			&item.Title,
			&item.Body,
			pq.Array(&item.Tags),
			&item.ParentID,
			&item.CourseID,
			&item.ModuleID,
			&item.LessonID,
			&item.SourceURL,
			&item.MediaURL,
			&item.TimecodeStart,
			&item.TimecodeEnd,
			&item.CreatedTs,
			&item.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge item")
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return list, nil
}

func (d *DB) UpdateKnowledgeItem(ctx context.Context, update *store.UpdateKnowledgeItem) error {
	set, args := []string{}, []any{}

	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Body; v != nil {
		set, args = append(set, "body = "+placeholder(len(args)+1)), append(args, *v)
	}
	if update.Tags != nil {
		set, args = append(set, "tags = "+placeholder(len(args)+1)), append(args, pq.Array(update.Tags))
	}
	if v := update.MediaURL; v != nil {
		set, args = append(set, "media_url = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.TimecodeStart; v != nil {
		set, args = append(set, "timecode_start = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.TimecodeEnd; v != nil {
		set, args = append(set, "timecode_end = "+placeholder(len(args)+1)), append(args, *v)
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, update.UpdatedTs)
	args = append(args, update.ID)

	stmt := "UPDATE knowledge_item SET " + strings.Join(set, ", ") + " WHERE id = " + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update knowledge item")
	}
	return nil
}

func (d *DB) DeleteKnowledgeItem(ctx context.Context, id string) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM knowledge_item WHERE id = $1", id); err != nil {
		return errors.Wrap(err, "failed to delete knowledge item")
	}
	return nil
}

func (d *DB) UpsertItemEmbedding(ctx context.Context, upsert *store.ItemEmbedding) (*store.ItemEmbedding, error) {
	stmt := `
		INSERT INTO item_embedding (item_id, provider, embedding, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id, provider)
		DO UPDATE SET embedding = EXCLUDED.embedding, updated_ts = EXCLUDED.updated_ts
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.ItemID,
		upsert.Provider,
		pgvector.NewVector(upsert.Embedding),
		upsert.CreatedTs,
		upsert.UpdatedTs,
	).Scan(&upsert.ID); err != nil {
		return nil, errors.Wrap(err, "failed to upsert item embedding")
	}
	return upsert, nil
}

// VectorSearch ranks items by cosine similarity against one provider's
// embeddings. Items outside any course stay eligible when a course filter
// is set.
func (d *DB) VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.ItemWithScore, error) {
	args := []any{pgvector.NewVector(opts.Vector), opts.Provider}
	courseFilter := ""
	if opts.CourseID != nil {
		args = append(args, *opts.CourseID)
		courseFilter = fmt.Sprintf("AND (i.course_id = %s OR i.course_id IS NULL)", placeholder(len(args)))
	}
	args = append(args, opts.Limit)

	query := fmt.Sprintf(`
		SELECT
			i.id, i.content_type, i.hierarchy_level, i.title, i.body, i.tags,
			i.parent_id, i.course_id, i.module_id, i.lesson_id, i.source_url,
			i.media_url, i.timecode_start, i.timecode_end, i.created_ts, i.updated_ts,
			1 - (e.embedding <=> $1) AS score
		FROM item_embedding e
		JOIN knowledge_item i ON i.id = e.item_id
		WHERE e.provider = $2 %s
		ORDER BY e.embedding <=> $1
		LIMIT %s`, courseFilter, placeholder(len(args)))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run vector search")
	}
	defer rows.Close()

	list := []*store.ItemWithScore{}
	for rows.Next() {
		result := &store.ItemWithScore{Item: &store.KnowledgeItem{}}
		item := result.Item
		if err := rows.Scan(
			&item.ID,
			&item.ContentType,
			&item.HierarchyLevel,
			&item.Title,
			&item.Body,
			pq.Array(&item.Tags),
			&item.ParentID,
			&item.CourseID,
			&item.ModuleID,
			&item.LessonID,
			&item.SourceURL,
			&item.MediaURL,
			&item.TimecodeStart,
			&item.TimecodeEnd,
			&item.CreatedTs,
			&item.UpdatedTs,
			&result.Score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}
		list = append(list, result)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return list, nil
}

// escapeLike neutralizes LIKE metacharacters in a search term so a query
// for "100%" matches the literal text. Postgres treats backslash as the
// pattern escape character by default.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// KeywordSearch matches any term against title or body, case-insensitively.
// Results come back ordered by recency; rank scoring happens upstream.
func (d *DB) KeywordSearch(ctx context.Context, opts *store.KeywordSearchOptions) ([]*store.KnowledgeItem, error) {
	if len(opts.Terms) == 0 {
		return []*store.KnowledgeItem{}, nil
	}

	matches, args := []string{}, []any{}
	for _, term := range opts.Terms {
		pattern := "%" + escapeLike(term) + "%"
		matches = append(matches, fmt.Sprintf("(title ILIKE %s OR body ILIKE %s)",
			placeholder(len(args)+1), placeholder(len(args)+2)))
		args = append(args, pattern, pattern)
	}
	where := "(" + strings.Join(matches, " OR ") + ")"
	if opts.CourseID != nil {
		args = append(args, *opts.CourseID)
		where += fmt.Sprintf(" AND (course_id = %s OR course_id IS NULL)", placeholder(len(args)))
	}
	args = append(args, opts.Limit)

	query := `
		SELECT
			id, content_type, hierarchy_level, title, body, tags,
			parent_id, course_id, module_id, lesson_id, source_url,
			media_url, timecode_start, timecode_end, created_ts, updated_ts
		FROM knowledge_item
		WHERE ` + where + `
		ORDER BY updated_ts DESC, id
		LIMIT ` + placeholder(len(args))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run keyword search")
	}
	defer rows.Close()

	list := []*store.KnowledgeItem{}
	for rows.Next() {
		item := &store.KnowledgeItem{}
		if err := rows.Scan(
			&item.ID,
			&item.ContentType,
			&item.HierarchyLevel,
			&item.Title,
			&item.Body,
			pq.Array(&item.Tags),
			&item.ParentID,
			&item.CourseID,
			&item.ModuleID,
			&item.LessonID,
			&item.SourceURL,
			&item.MediaURL,
			&item.TimecodeStart,
			&item.TimecodeEnd,
			&item.CreatedTs,
			&item.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan keyword search result")
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return list, nil
}
