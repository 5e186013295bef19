// Package duckdb stores imported export bundles in DuckDB so they can be
// queried by profile and exported again without the original JSON.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// Store manages a DuckDB connection holding one imported dataset.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, logger: zap.NewNop()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// SetLogger sets the logger.
func (s *Store) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS samples (
		seq BIGINT,
		unique_sample_key VARCHAR,
		unique_patient_key VARCHAR,
		sample_id VARCHAR,
		patient_id VARCHAR,
		study_id VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS genes (
		seq BIGINT,
		entrez_gene_id BIGINT,
		hugo_gene_symbol VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS molecular_profiles (
		seq BIGINT,
		molecular_profile_id VARCHAR PRIMARY KEY,
		study_id VARCHAR,
		name VARCHAR,
		molecular_alteration_type VARCHAR,
		datatype VARCHAR,
		generic_assay_type VARCHAR,
		selected BOOLEAN
	)`,
	`CREATE TABLE IF NOT EXISTS alteration_records (
		seq BIGINT,
		unique_sample_key VARCHAR,
		sample_id VARCHAR,
		patient_id VARCHAR,
		study_id VARCHAR,
		molecular_profile_id VARCHAR,
		molecular_profile_alteration_type VARCHAR,
		hugo_gene_symbol VARCHAR,
		entrez_gene_id BIGINT,
		gene_entrez_gene_id BIGINT,
		gene_hugo_gene_symbol VARCHAR,
		alteration_sub_type VARCHAR,
		value VARCHAR,
		protein_change VARCHAR,
		event_info VARCHAR,
		mutation_status VARCHAR,
		putative_driver BOOLEAN
	)`,
	`CREATE TABLE IF NOT EXISTS generic_assay_data (
		seq BIGINT,
		unique_sample_key VARCHAR,
		sample_id VARCHAR,
		patient_id VARCHAR,
		study_id VARCHAR,
		molecular_profile_id VARCHAR,
		stable_id VARCHAR,
		value VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS generic_assay_meta (
		stable_id VARCHAR PRIMARY KEY,
		entity_type VARCHAR,
		properties VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS gene_panel_data (
		seq BIGINT,
		unique_sample_key VARCHAR,
		hugo_gene_symbol VARCHAR,
		profiled BOOLEAN,
		molecular_profile_id VARCHAR,
		gene_panel_id VARCHAR,
		sample_id VARCHAR,
		patient_id VARCHAR,
		study_id VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS query_state (
		key VARCHAR PRIMARY KEY,
		value VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS imports (
		run_id VARCHAR,
		source_path VARCHAR,
		source_size BIGINT,
		source_mod_time TIMESTAMP,
		imported_at TIMESTAMP
	)`,
}

// dataTables are cleared when a new bundle is imported.
var dataTables = []string{
	"samples", "genes", "molecular_profiles", "alteration_records",
	"generic_assay_data", "generic_assay_meta", "gene_panel_data", "query_state",
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes the imported dataset. Import history is kept.
func (s *Store) Clear() error {
	for _, table := range dataTables {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
