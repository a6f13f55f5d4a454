package store

import (
	"database/sql"
	"fmt"

	"github.com/DeusData/ts-codebase-index/internal/pathutil"
)

// RelationRow is a relation record keyed by (project, type, srcFilePath,
// srcSymbolName, dstProject, dstFilePath, dstSymbolName, metaHash).
type RelationRow struct {
	Project       string
	Type          string
	SrcFilePath   string
	SrcSymbolName sql.NullString
	DstProject    string
	DstFilePath   string
	DstSymbolName sql.NullString
	MetaJSON      string
}

func (r RelationRow) metaHash() string {
	return pathutil.HashString(r.MetaJSON)
}

// ReplaceFileRelations deletes every relation row previously recorded with
// srcFilePath == filePath and inserts rows, mirroring ReplaceFileSymbols'
// replace-on-reindex contract.
func (s *Store) ReplaceFileRelations(project, filePath string, rows []RelationRow) error {
	if _, err := s.q.Exec(`DELETE FROM relations WHERE project=? AND src_file_path=?`, project, filePath); err != nil {
		return fmt.Errorf("delete file relations: %w", err)
	}
	for _, r := range rows {
		if _, err := s.q.Exec(`
			INSERT INTO relations (project, type, src_file_path, src_symbol_name, dst_project, dst_file_path,
				dst_symbol_name, meta_json, meta_hash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(project, type, src_file_path, src_symbol_name, dst_project, dst_file_path, dst_symbol_name, meta_hash)
			DO NOTHING`,
			r.Project, r.Type, r.SrcFilePath, r.SrcSymbolName, r.DstProject, r.DstFilePath,
			r.DstSymbolName, r.MetaJSON, r.metaHash()); err != nil {
			return fmt.Errorf("insert relation %s->%s: %w", r.SrcFilePath, r.DstFilePath, err)
		}
	}
	return nil
}

// DeleteFileRelations removes every relation row with srcFilePath ==
// filePath, used on file removal before the file row (and thus its
// dst-side relations) is deleted.
func (s *Store) DeleteFileRelations(project, filePath string) error {
	_, err := s.q.Exec(`DELETE FROM relations WHERE project=? AND src_file_path=?`, project, filePath)
	return err
}

// GetByType returns every relation of the given types within a project,
// the graph engine's adjacency source.
func (s *Store) GetByType(project string, types []string) ([]RelationRow, error) {
	placeholders := make([]string, len(types))
	args := make([]any, 0, len(types)+1)
	args = append(args, project)
	for i, t := range types {
		placeholders[i] = "?"
		args = append(args, t)
	}
	query := relationSelectCols + fmt.Sprintf(" FROM relations WHERE project=? AND type IN (%s)", joinComma(placeholders))
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("get by type: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// GetAllByType returns relations of the given types across every project,
// the cross-project graph key's adjacency source.
func (s *Store) GetAllByType(types []string) ([]RelationRow, error) {
	placeholders := make([]string, len(types))
	args := make([]any, len(types))
	for i, t := range types {
		placeholders[i] = "?"
		args[i] = t
	}
	query := relationSelectCols + fmt.Sprintf(" FROM relations WHERE type IN (%s)", joinComma(placeholders))
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("get all by type: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// GetInternalRelations returns relations with srcFile == dstFile == file.
func (s *Store) GetInternalRelations(project, file string) ([]RelationRow, error) {
	rows, err := s.q.Query(relationSelectCols+`
		FROM relations WHERE project=? AND src_file_path=? AND dst_file_path=?`, project, file, file)
	if err != nil {
		return nil, fmt.Errorf("get internal relations: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// SearchRelationParams filters SearchRelations / SearchAllRelations.
type SearchRelationParams struct {
	Project     string
	Type        string
	SrcFilePath string
	DstFilePath string
	SrcSymbol   string
	DstSymbol   string
	Limit       int
}

// SearchRelations filters relations by predicate, within one project unless
// allProjects is set (searchAllRelations).
func (s *Store) SearchRelations(p SearchRelationParams, allProjects bool) ([]RelationRow, error) {
	where := []string{}
	args := []any{}
	if !allProjects {
		where = append(where, "project = ?")
		args = append(args, p.Project)
	}
	if p.Type != "" {
		where = append(where, "type = ?")
		args = append(args, p.Type)
	}
	if p.SrcFilePath != "" {
		where = append(where, "src_file_path = ?")
		args = append(args, p.SrcFilePath)
	}
	if p.DstFilePath != "" {
		where = append(where, "dst_file_path = ?")
		args = append(args, p.DstFilePath)
	}
	if p.SrcSymbol != "" {
		where = append(where, "src_symbol_name = ?")
		args = append(args, p.SrcSymbol)
	}
	if p.DstSymbol != "" {
		where = append(where, "dst_symbol_name = ?")
		args = append(args, p.DstSymbol)
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 1000
	}

	query := relationSelectCols + " FROM relations"
	if len(where) > 0 {
		query += " WHERE " + joinAnd(where)
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search relations: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// CountRelations returns the total number of relations recorded for a
// project.
func (s *Store) CountRelations(project string) (int, error) {
	var n int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM relations WHERE project=?`, project).Scan(&n)
	return n, err
}

// CountAllRelations returns the total number of relations across every
// project.
func (s *Store) CountAllRelations() (int, error) {
	var n int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM relations`).Scan(&n)
	return n, err
}

// CountFileRelations returns the number of relations touching one file,
// either as source or destination.
func (s *Store) CountFileRelations(project, filePath string) (int, error) {
	var n int
	err := s.q.QueryRow(`
		SELECT COUNT(*) FROM relations
		WHERE (project=? AND src_file_path=?) OR (dst_project=? AND dst_file_path=?)`,
		project, filePath, project, filePath).Scan(&n)
	return n, err
}

// RetargetRelations repoints every relation currently targeting
// (oldFile, oldSymbol) to (newFile, newSymbol), used by fingerprint-based
// rename retargeting after an incremental run.
func (s *Store) RetargetRelations(project, oldFile string, oldSymbol sql.NullString, newFile string, newSymbol sql.NullString) error {
	_, err := s.q.Exec(`
		UPDATE relations SET dst_file_path=?, dst_symbol_name=?
		WHERE dst_project=? AND dst_file_path=? AND dst_symbol_name IS ?`,
		newFile, newSymbol, project, oldFile, oldSymbol)
	if err != nil {
		return fmt.Errorf("retarget relations: %w", err)
	}
	return nil
}

const relationSelectCols = `SELECT project, type, src_file_path, src_symbol_name, dst_project, dst_file_path, dst_symbol_name, meta_json`

func scanRelations(rows *sql.Rows) ([]RelationRow, error) {
	var out []RelationRow
	for rows.Next() {
		var r RelationRow
		if err := rows.Scan(&r.Project, &r.Type, &r.SrcFilePath, &r.SrcSymbolName, &r.DstProject, &r.DstFilePath,
			&r.DstSymbolName, &r.MetaJSON); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func joinComma(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "," + p
	}
	return out
}
