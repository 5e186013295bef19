package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/inodb/cbio-export/internal/portal"
)

// appendRows batch-inserts n rows into table using the Appender API.
func (s *Store) appendRows(table string, n int, row func(i int) []driver.Value) error {
	if n == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i := range n {
		if err := appender.AppendRow(row(i)...); err != nil {
			return fmt.Errorf("append %s row: %w", table, err)
		}
	}

	return appender.Flush()
}

// nextSeq returns the sequence number following the last row of table.
func (s *Store) nextSeq(table string) (int64, error) {
	var next int64
	if err := s.db.QueryRow("SELECT COALESCE(MAX(seq), -1) + 1 FROM " + table).Scan(&next); err != nil {
		return 0, fmt.Errorf("next seq of %s: %w", table, err)
	}
	return next, nil
}

// WriteRecords appends alteration records after those already stored,
// keeping their order.
func (s *Store) WriteRecords(records []portal.AlterationRecord) error {
	seq, err := s.nextSeq("alteration_records")
	if err != nil {
		return err
	}

	err = s.appendRows("alteration_records", len(records), func(i int) []driver.Value {
		r := records[i]
		var geneEntrez, geneSymbol driver.Value
		if r.Gene != nil {
			geneEntrez, geneSymbol = int64(r.Gene.EntrezGeneID), r.Gene.HugoGeneSymbol
		}
		return []driver.Value{
			seq + int64(i), r.UniqueSampleKey, r.SampleID, r.PatientID, r.StudyID,
			r.MolecularProfileID, r.MolecularProfileAlterationType,
			r.HugoGeneSymbol, int64(r.EntrezGeneID), geneEntrez, geneSymbol,
			r.AlterationSubType, r.Value.String(), r.ProteinChange, r.EventInfo,
			r.MutationStatus, r.PutativeDriver,
		}
	})
	if err != nil {
		return err
	}
	s.logger.Debug("wrote alteration records", zap.Int("count", len(records)))
	return nil
}

// profileFilter builds a WHERE clause restricting molecular_profile_id.
func profileFilter(profileIDs []string) (string, []any) {
	if len(profileIDs) == 0 {
		return "", nil
	}
	args := make([]any, len(profileIDs))
	for i, id := range profileIDs {
		args[i] = id
	}
	return " WHERE molecular_profile_id IN (?" + strings.Repeat(", ?", len(profileIDs)-1) + ")", args
}

// Records returns the stored alteration records of the given profiles, all
// profiles when none are given, in insertion order.
func (s *Store) Records(profileIDs ...string) ([]portal.AlterationRecord, error) {
	where, args := profileFilter(profileIDs)
	rows, err := s.db.Query(`SELECT
		unique_sample_key, sample_id, patient_id, study_id,
		molecular_profile_id, molecular_profile_alteration_type,
		hugo_gene_symbol, entrez_gene_id, gene_entrez_gene_id, gene_hugo_gene_symbol,
		alteration_sub_type, value, protein_change, event_info,
		mutation_status, putative_driver
		FROM alteration_records`+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []portal.AlterationRecord
	for rows.Next() {
		var (
			r          portal.AlterationRecord
			entrez     int64
			value      string
			geneEntrez sql.NullInt64
			geneSymbol sql.NullString
		)
		if err := rows.Scan(
			&r.UniqueSampleKey, &r.SampleID, &r.PatientID, &r.StudyID,
			&r.MolecularProfileID, &r.MolecularProfileAlterationType,
			&r.HugoGeneSymbol, &entrez, &geneEntrez, &geneSymbol,
			&r.AlterationSubType, &value, &r.ProteinChange, &r.EventInfo,
			&r.MutationStatus, &r.PutativeDriver,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.EntrezGeneID = int(entrez)
		r.Value = portal.Value(value)
		if geneEntrez.Valid || geneSymbol.Valid {
			r.Gene = &portal.Gene{EntrezGeneID: int(geneEntrez.Int64), HugoGeneSymbol: geneSymbol.String}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// CaseData returns the records of the given profiles grouped by sample.
func (s *Store) CaseData(profileIDs ...string) (portal.CaseAggregatedData[portal.AlterationRecord], error) {
	records, err := s.Records(profileIDs...)
	if err != nil {
		return portal.CaseAggregatedData[portal.AlterationRecord]{}, err
	}
	return portal.GroupBySample(records, func(r portal.AlterationRecord) string { return r.UniqueSampleKey }), nil
}

// CountRecords returns the number of stored alteration records per profile.
func (s *Store) CountRecords() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT molecular_profile_id, COUNT(*) FROM alteration_records GROUP BY molecular_profile_id`)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[id] = int(n)
	}
	return counts, rows.Err()
}

// WriteGenericAssayData appends generic assay data.
func (s *Store) WriteGenericAssayData(data []portal.GenericAssayData) error {
	seq, err := s.nextSeq("generic_assay_data")
	if err != nil {
		return err
	}
	return s.appendRows("generic_assay_data", len(data), func(i int) []driver.Value {
		d := data[i]
		return []driver.Value{
			seq + int64(i), d.UniqueSampleKey, d.SampleID, d.PatientID, d.StudyID,
			d.MolecularProfileID, d.StableID, d.Value.String(),
		}
	})
}

// GenericAssayData returns the stored generic assay data of the given
// profiles, all profiles when none are given, in insertion order.
func (s *Store) GenericAssayData(profileIDs ...string) ([]portal.GenericAssayData, error) {
	where, args := profileFilter(profileIDs)
	rows, err := s.db.Query(`SELECT
		unique_sample_key, sample_id, patient_id, study_id, molecular_profile_id, stable_id, value
		FROM generic_assay_data`+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("query generic assay data: %w", err)
	}
	defer rows.Close()

	var out []portal.GenericAssayData
	for rows.Next() {
		var d portal.GenericAssayData
		var value string
		if err := rows.Scan(&d.UniqueSampleKey, &d.SampleID, &d.PatientID, &d.StudyID,
			&d.MolecularProfileID, &d.StableID, &value); err != nil {
			return nil, fmt.Errorf("scan generic assay data: %w", err)
		}
		d.Value = portal.Value(value)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generic assay data: %w", err)
	}
	return out, nil
}
