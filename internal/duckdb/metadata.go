package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Import is one recorded bundle import.
type Import struct {
	RunID      string
	Source     FileFingerprint
	ImportedAt time.Time
}

// RecordImport records that the bundle at fp was imported by run runID.
func (s *Store) RecordImport(runID string, fp FileFingerprint) error {
	_, err := s.db.Exec(`INSERT INTO imports VALUES (?, ?, ?, ?, ?)`,
		runID, fp.Path, fp.Size, fp.ModTime.UTC().Truncate(time.Microsecond), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// LastImport returns the most recent import, or nil when nothing was
// imported.
func (s *Store) LastImport() (*Import, error) {
	var imp Import
	err := s.db.QueryRow(`SELECT run_id, source_path, source_size, source_mod_time, imported_at
		FROM imports ORDER BY imported_at DESC LIMIT 1`).
		Scan(&imp.RunID, &imp.Source.Path, &imp.Source.Size, &imp.Source.ModTime, &imp.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last import: %w", err)
	}
	return &imp, nil
}

// Current reports whether the store holds a complete dataset imported
// from the file fp describes, unchanged since. A dataset left incomplete by
// a failed import is never current. Modification times are compared at
// microsecond precision, the resolution of a DuckDB TIMESTAMP.
func (s *Store) Current(fp FileFingerprint) (bool, error) {
	complete, err := s.hasQueryState()
	if err != nil || !complete {
		return false, err
	}
	last, err := s.LastImport()
	if err != nil || last == nil {
		return false, err
	}
	return last.Source.Path == fp.Path &&
		last.Source.Size == fp.Size &&
		last.Source.ModTime.Equal(fp.ModTime.Truncate(time.Microsecond)), nil
}

// hasQueryState reports whether the query state, written last by
// SaveBundle, is present.
func (s *Store) hasQueryState() (bool, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM query_state WHERE key = ?`, queryStateKey).Scan(&n); err != nil {
		return false, fmt.Errorf("query state: %w", err)
	}
	return n > 0, nil
}
