package store

// schemaSQL declares the files/symbols/relations/watcher_owner tables, the
// symbols_fts FTS5 mirror, and the triggers that keep it synchronized.
// Every statement is idempotent (IF NOT EXISTS) so initSchema can run on
// every Open.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	project      TEXT NOT NULL,
	file_path    TEXT NOT NULL,
	mtime_ms     INTEGER NOT NULL,
	size         INTEGER NOT NULL,
	content_hash TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	line_count   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (project, file_path)
);

CREATE TABLE IF NOT EXISTS symbols (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	project         TEXT NOT NULL,
	file_path       TEXT NOT NULL,
	name            TEXT NOT NULL,
	kind            TEXT NOT NULL,
	is_exported     INTEGER NOT NULL DEFAULT 0,
	fingerprint     TEXT NOT NULL,
	signature       TEXT,
	detail_json     TEXT NOT NULL DEFAULT '{}',
	span_start_line INTEGER NOT NULL DEFAULT 0,
	span_start_col  INTEGER NOT NULL DEFAULT 0,
	span_end_line   INTEGER NOT NULL DEFAULT 0,
	span_end_col    INTEGER NOT NULL DEFAULT 0,
	content_hash    TEXT NOT NULL DEFAULT '',
	UNIQUE (project, file_path, name),
	FOREIGN KEY (project, file_path) REFERENCES files (project, file_path) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols (project, file_path);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols (project, name);
CREATE INDEX IF NOT EXISTS idx_symbols_fingerprint ON symbols (project, fingerprint);

CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
	name,
	content='symbols',
	content_rowid='id',
	tokenize="unicode61 tokenchars '_.$'"
);

CREATE TRIGGER IF NOT EXISTS symbols_fts_insert AFTER INSERT ON symbols BEGIN
	INSERT INTO symbols_fts(rowid, name) VALUES (new.id, new.name);
END;

CREATE TRIGGER IF NOT EXISTS symbols_fts_update AFTER UPDATE ON symbols BEGIN
	UPDATE symbols_fts SET name = new.name WHERE rowid = new.id;
END;

CREATE TRIGGER IF NOT EXISTS symbols_fts_delete AFTER DELETE ON symbols BEGIN
	DELETE FROM symbols_fts WHERE rowid = old.id;
END;

CREATE TABLE IF NOT EXISTS relations (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	project         TEXT NOT NULL,
	type            TEXT NOT NULL,
	src_file_path   TEXT NOT NULL,
	src_symbol_name TEXT,
	dst_project     TEXT NOT NULL,
	dst_file_path   TEXT NOT NULL,
	dst_symbol_name TEXT,
	meta_json       TEXT NOT NULL DEFAULT '{}',
	meta_hash       TEXT NOT NULL DEFAULT '',
	UNIQUE (project, type, src_file_path, src_symbol_name, dst_project, dst_file_path, dst_symbol_name, meta_hash),
	FOREIGN KEY (dst_project, dst_file_path) REFERENCES files (project, file_path) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_relations_src ON relations (project, src_file_path);
CREATE INDEX IF NOT EXISTS idx_relations_dst ON relations (dst_project, dst_file_path);
CREATE INDEX IF NOT EXISTS idx_relations_type ON relations (project, type);

CREATE TABLE IF NOT EXISTS watcher_owner (
	pid          INTEGER NOT NULL,
	heartbeat_at TEXT NOT NULL
);
`

func (s *Store) initSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}
