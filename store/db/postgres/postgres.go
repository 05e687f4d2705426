// Package postgres implements the production store driver. Vector
// similarity is delegated to pgvector; this is the authoritative
// similarity path.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kbdesk/kbdesk/internal/profile"
	"github.com/kbdesk/kbdesk/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{
		db:      db,
		profile: profile,
	}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS knowledge_item (
	id TEXT PRIMARY KEY,
	content_type TEXT NOT NULL DEFAULT 'qa',
	hierarchy_level INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL,
	body TEXT NOT NULL DEFAULT '',
	tags TEXT[] NOT NULL DEFAULT '{}',
	parent_id TEXT REFERENCES knowledge_item (id) ON DELETE CASCADE,
	course_id TEXT,
	module_id TEXT,
	lesson_id TEXT,
	source_url TEXT,
	media_url TEXT,
	timecode_start DOUBLE PRECISION,
	timecode_end DOUBLE PRECISION,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_knowledge_item_parent_id ON knowledge_item (parent_id);
CREATE INDEX IF NOT EXISTS idx_knowledge_item_course_id ON knowledge_item (course_id);

CREATE TABLE IF NOT EXISTS item_embedding (
	id BIGSERIAL PRIMARY KEY,
	item_id TEXT NOT NULL REFERENCES knowledge_item (id) ON DELETE CASCADE,
	provider TEXT NOT NULL,
	embedding vector NOT NULL,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL,
	UNIQUE (item_id, provider)
);

CREATE TABLE IF NOT EXISTS query_log (
	id TEXT PRIMARY KEY,
	query_text TEXT NOT NULL,
	provider TEXT NOT NULL,
	intent TEXT NOT NULL DEFAULT '',
	recency_required BOOLEAN NOT NULL DEFAULT FALSE,
	sources_found INTEGER NOT NULL DEFAULT 0,
	web_search_used BOOLEAN NOT NULL DEFAULT FALSE,
	answer TEXT NOT NULL DEFAULT '',
	latency_ms BIGINT NOT NULL DEFAULT 0,
	staff_rating INTEGER,
	was_edited BOOLEAN NOT NULL DEFAULT FALSE,
	staff_notes TEXT,
	created_ts BIGINT NOT NULL
);
`

func (d *DB) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to ensure schema")
	}
	return nil
}

// placeholder returns the positional parameter for index n (1-based).
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns "$1, $2, ..., $n".
func placeholders(n int) string {
	list := make([]string, n)
	for i := range list {
		list[i] = placeholder(i + 1)
	}
	return strings.Join(list, ", ")
}
