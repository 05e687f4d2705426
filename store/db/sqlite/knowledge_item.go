package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/kbdesk/kbdesk/store"
)

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal tags")
	}
	return string(raw), nil
}

func unmarshalTags(raw string) ([]string, error) {
	tags := []string{}
	if raw == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal tags")
	}
	return tags, nil
}

func (d *DB) CreateKnowledgeItem(ctx context.Context, create *store.KnowledgeItem) (*store.KnowledgeItem, error) {
	tags, err := marshalTags(create.Tags)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO knowledge_item (
			id, content_type, hierarchy_level, title, body, tags,
			parent_id, course_id, module_id, lesson_id, source_url,
			media_url, timecode_start, timecode_end, created_ts, updated_ts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID, create.ContentType, create.HierarchyLevel, create.Title,
		create.Body, tags, create.ParentID, create.CourseID, create.ModuleID,
		create.LessonID, create.SourceURL, create.MediaURL,
		create.TimecodeStart, create.TimecodeEnd, create.CreatedTs, create.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create knowledge item")
	}
	return create, nil
}

func scanKnowledgeItem(scan func(dest ...any) error) (*store.KnowledgeItem, error) {
	item := &store.KnowledgeItem{}
	var rawTags string
	if err := scan(
		&item.ID,
		&item.ContentType,
		&item.HierarchyLevel,
		&item.Title,
		&item.Body,
		&rawTags,
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
	tags, err := unmarshalTags(rawTags)
	if err != nil {
		return nil, err
	}
	item.Tags = tags
	return item, nil
}

func (d *DB) ListKnowledgeItems(ctx context.Context, find *store.FindKnowledgeItem) ([]*store.KnowledgeItem, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.ParentID; v != nil {
		where, args = append(where, "parent_id = ?"), append(args, *v)
	}
	if v := find.CourseID; v != nil {
		where, args = append(where, "course_id = ?"), append(args, *v)
	}
	if v := find.ContentType; v != nil {
		where, args = append(where, "content_type = ?"), append(args, *v)
	}
	if v := find.HierarchyLevel; v != nil {
		where, args = append(where, "hierarchy_level = ?"), append(args, *v)
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
		item, err := scanKnowledgeItem(rows.Scan)
		if err != nil {
			return nil, err
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
		set, args = append(set, "title = ?"), append(args, *v)
	}
	if v := update.Body; v != nil {
		set, args = append(set, "body = ?"), append(args, *v)
	}
	if update.Tags != nil {
		tags, err := marshalTags(update.Tags)
		if err != nil {
			return err
		}
		set, args = append(set, "tags = ?"), append(args, tags)
	}
	if v := update.MediaURL; v != nil {
		set, args = append(set, "media_url = ?"), append(args, *v)
	}
	if v := update.TimecodeStart; v != nil {
		set, args = append(set, "timecode_start = ?"), append(args, *v)
	}
	if v := update.TimecodeEnd; v != nil {
		set, args = append(set, "timecode_end = ?"), append(args, *v)
	}
	set, args = append(set, "updated_ts = ?"), append(args, update.UpdatedTs)
	args = append(args, update.ID)

	stmt := "UPDATE knowledge_item SET " + strings.Join(set, ", ") + " WHERE id = ?"
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update knowledge item")
	}
	return nil
}

func (d *DB) DeleteKnowledgeItem(ctx context.Context, id string) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM knowledge_item WHERE id = ?", id); err != nil {
		return errors.Wrap(err, "failed to delete knowledge item")
	}
	return nil
}

func (d *DB) UpsertItemEmbedding(ctx context.Context, upsert *store.ItemEmbedding) (*store.ItemEmbedding, error) {
	raw, err := json.Marshal(upsert.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal embedding")
	}

	stmt := `
		INSERT INTO item_embedding (item_id, provider, embedding, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (item_id, provider)
		DO UPDATE SET embedding = excluded.embedding, updated_ts = excluded.updated_ts
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.ItemID,
		upsert.Provider,
		string(raw),
		upsert.CreatedTs,
		upsert.UpdatedTs,
	).Scan(&upsert.ID); err != nil {
		return nil, errors.Wrap(err, "failed to upsert item embedding")
	}
	return upsert, nil
}

// scanBatchSize bounds how many embeddings one similarity scan loads.
const scanBatchSize = 1000

// VectorSearch computes cosine similarity in process. Fine for the
// local corpus sizes sqlite deployments carry.
func (d *DB) VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.ItemWithScore, error) {
	where, args := []string{"e.provider = ?"}, []any{opts.Provider}
	if opts.CourseID != nil {
		where, args = append(where, "(i.course_id = ? OR i.course_id IS NULL)"), append(args, *opts.CourseID)
	}
	args = append(args, scanBatchSize)

	query := `
		SELECT
			i.id, i.content_type, i.hierarchy_level, i.title, i.body, i.tags,
			i.parent_id, i.course_id, i.module_id, i.lesson_id, i.source_url,
			i.media_url, i.timecode_start, i.timecode_end, i.created_ts, i.updated_ts,
			e.embedding
		FROM item_embedding e
		JOIN knowledge_item i ON i.id = e.item_id
		WHERE ` + strings.Join(where, " AND ") + `
		LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run vector search")
	}
	defer rows.Close()

	list := []*store.ItemWithScore{}
	for rows.Next() {
		item := &store.KnowledgeItem{}
		var rawTags, rawEmbedding string
		if err := rows.Scan(
			&item.ID,
			&item.ContentType,
			&item.HierarchyLevel,
			&item.Title,
			&item.Body,
			&rawTags,
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
			&rawEmbedding,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}
		tags, err := unmarshalTags(rawTags)
		if err != nil {
			return nil, err
		}
		item.Tags = tags

		var embedding []float32
		if err := json.Unmarshal([]byte(rawEmbedding), &embedding); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal embedding")
		}
		score, ok := cosineSimilarity(opts.Vector, embedding)
		if !ok {
			continue
		}
		list = append(list, &store.ItemWithScore{Item: item, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Score > list[j].Score
	})
	if opts.Limit > 0 && len(list) > opts.Limit {
		list = list[:opts.Limit]
	}
	return list, nil
}

// cosineSimilarity returns similarity in [0,1]. Mismatched dimensions
// and zero vectors report not-ok instead of a bogus score.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp float drift so callers can rely on [0,1].
	return math.Max(0, math.Min(1, similarity)), true
}

// escapeLike neutralizes LIKE metacharacters in a search term so a query
// for "100%" matches the literal text. The LIKE clauses must carry a
// matching ESCAPE '\' since sqlite has no default escape character.
func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// KeywordSearch matches any term against title or body, case-insensitively.
func (d *DB) KeywordSearch(ctx context.Context, opts *store.KeywordSearchOptions) ([]*store.KnowledgeItem, error) {
	if len(opts.Terms) == 0 {
		return []*store.KnowledgeItem{}, nil
	}

	matches, args := []string{}, []any{}
	for _, term := range opts.Terms {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		matches = append(matches, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(body) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	where := "(" + strings.Join(matches, " OR ") + ")"
	if opts.CourseID != nil {
		where += " AND (course_id = ? OR course_id IS NULL)"
		args = append(args, *opts.CourseID)
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
		LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run keyword search")
	}
	defer rows.Close()

	list := []*store.KnowledgeItem{}
	for rows.Next() {
		item, err := scanKnowledgeItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}
	return list, nil
}
