// Package sqlite implements the store driver for local and demo
// deployments. SQLite has no vector extension here, so similarity
// search scans embeddings in process.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	// Import the SQLite driver.
	_ "modernc.org/sqlite"

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

	// WAL mode for concurrent readers alongside the writer.
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", profile.DSN)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
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
CREATE TABLE IF NOT EXISTS knowledge_item (
	id TEXT PRIMARY KEY,
	content_type TEXT NOT NULL DEFAULT 'qa',
	hierarchy_level INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL,
	body TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	parent_id TEXT REFERENCES knowledge_item (id) ON DELETE CASCADE,
	course_id TEXT,
	module_id TEXT,
	lesson_id TEXT,
	source_url TEXT,
	media_url TEXT,
	timecode_start REAL,
	timecode_end REAL,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_knowledge_item_parent_id ON knowledge_item (parent_id);
CREATE INDEX IF NOT EXISTS idx_knowledge_item_course_id ON knowledge_item (course_id);

CREATE TABLE IF NOT EXISTS item_embedding (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id TEXT NOT NULL REFERENCES knowledge_item (id) ON DELETE CASCADE,
	provider TEXT NOT NULL,
	embedding TEXT NOT NULL,
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL,
	UNIQUE (item_id, provider)
);

CREATE TABLE IF NOT EXISTS query_log (
	id TEXT PRIMARY KEY,
	query_text TEXT NOT NULL,
	provider TEXT NOT NULL,
	intent TEXT NOT NULL DEFAULT '',
	recency_required INTEGER NOT NULL DEFAULT 0,
	sources_found INTEGER NOT NULL DEFAULT 0,
	web_search_used INTEGER NOT NULL DEFAULT 0,
	answer TEXT NOT NULL DEFAULT '',
	latency_ms BIGINT NOT NULL DEFAULT 0,
	staff_rating INTEGER,
	was_edited INTEGER NOT NULL DEFAULT 0,
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
