package store

import (
	"database/sql"
	"fmt"
)

// FileRow is a file record: (project, filePath) identifies it uniquely.
type FileRow struct {
	Project     string
	FilePath    string
	MtimeMs     int64
	Size        int64
	ContentHash string
	UpdatedAt   string
	LineCount   int
}

// UpsertFile inserts or replaces a file row (Pass 1 of the full-index
// two-pass write, and the single write of an incremental run).
func (s *Store) UpsertFile(f FileRow) error {
	_, err := s.q.Exec(`
		INSERT INTO files (project, file_path, mtime_ms, size, content_hash, updated_at, line_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project, file_path) DO UPDATE SET
			mtime_ms=excluded.mtime_ms, size=excluded.size, content_hash=excluded.content_hash,
			updated_at=excluded.updated_at, line_count=excluded.line_count`,
		f.Project, f.FilePath, f.MtimeMs, f.Size, f.ContentHash, f.UpdatedAt, f.LineCount)
	if err != nil {
		return fmt.Errorf("upsert file: %w", err)
	}
	return nil
}

// DeleteFile removes the file row. Relations whose dstFile is this file are
// cascaded by the foreign key; relations whose srcFile is this file are not
// FK-linked and must be deleted separately by the caller before this call.
func (s *Store) DeleteFile(project, filePath string) error {
	_, err := s.q.Exec(`DELETE FROM files WHERE project=? AND file_path=?`, project, filePath)
	return err
}

// GetFile returns a single file row, or nil if absent.
func (s *Store) GetFile(project, filePath string) (*FileRow, error) {
	row := s.q.QueryRow(`SELECT project, file_path, mtime_ms, size, content_hash, updated_at, line_count
		FROM files WHERE project=? AND file_path=?`, project, filePath)
	return scanFile(row)
}

// GetAllFiles returns every file row for a project.
func (s *Store) GetAllFiles(project string) ([]FileRow, error) {
	rows, err := s.q.Query(`SELECT project, file_path, mtime_ms, size, content_hash, updated_at, line_count
		FROM files WHERE project=?`, project)
	if err != nil {
		return nil, fmt.Errorf("get all files: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// GetFilesMap returns every file row across all projects keyed by
// "project::relPath", the known-files snapshot the two-pass full index and
// the incremental run's resolver filter both consult.
func (s *Store) GetFilesMap() (map[string]FileRow, error) {
	rows, err := s.q.Query(`SELECT project, file_path, mtime_ms, size, content_hash, updated_at, line_count FROM files`)
	if err != nil {
		return nil, fmt.Errorf("get files map: %w", err)
	}
	defer rows.Close()
	list, err := scanFiles(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string]FileRow, len(list))
	for _, f := range list {
		out[f.Project+"::"+f.FilePath] = f
	}
	return out, nil
}

func scanFile(row *sql.Row) (*FileRow, error) {
	var f FileRow
	err := row.Scan(&f.Project, &f.FilePath, &f.MtimeMs, &f.Size, &f.ContentHash, &f.UpdatedAt, &f.LineCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func scanFiles(rows *sql.Rows) ([]FileRow, error) {
	var out []FileRow
	for rows.Next() {
		var f FileRow
		if err := rows.Scan(&f.Project, &f.FilePath, &f.MtimeMs, &f.Size, &f.ContentHash, &f.UpdatedAt, &f.LineCount); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
