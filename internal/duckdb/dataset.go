package duckdb

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/inodb/cbio-export/internal/bundle"
	"github.com/inodb/cbio-export/internal/coverage"
	"github.com/inodb/cbio-export/internal/oql"
	"github.com/inodb/cbio-export/internal/portal"
)

// WriteSamples appends samples.
func (s *Store) WriteSamples(samples []portal.Sample) error {
	seq, err := s.nextSeq("samples")
	if err != nil {
		return err
	}
	return s.appendRows("samples", len(samples), func(i int) []driver.Value {
		x := samples[i]
		return []driver.Value{seq + int64(i), x.UniqueSampleKey, x.UniquePatientKey, x.SampleID, x.PatientID, x.StudyID}
	})
}

// Samples returns the stored samples in insertion order.
func (s *Store) Samples() ([]portal.Sample, error) {
	rows, err := s.db.Query(`SELECT unique_sample_key, unique_patient_key, sample_id, patient_id, study_id
		FROM samples ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []portal.Sample
	for rows.Next() {
		var x portal.Sample
		if err := rows.Scan(&x.UniqueSampleKey, &x.UniquePatientKey, &x.SampleID, &x.PatientID, &x.StudyID); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

// WriteGenes appends genes.
func (s *Store) WriteGenes(genes []portal.Gene) error {
	seq, err := s.nextSeq("genes")
	if err != nil {
		return err
	}
	return s.appendRows("genes", len(genes), func(i int) []driver.Value {
		return []driver.Value{seq + int64(i), int64(genes[i].EntrezGeneID), genes[i].HugoGeneSymbol}
	})
}

// Genes returns the stored genes in insertion order.
func (s *Store) Genes() ([]portal.Gene, error) {
	rows, err := s.db.Query(`SELECT entrez_gene_id, hugo_gene_symbol FROM genes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query genes: %w", err)
	}
	defer rows.Close()

	var out []portal.Gene
	for rows.Next() {
		var entrez int64
		var g portal.Gene
		if err := rows.Scan(&entrez, &g.HugoGeneSymbol); err != nil {
			return nil, fmt.Errorf("scan gene: %w", err)
		}
		g.EntrezGeneID = int(entrez)
		out = append(out, g)
	}
	return out, rows.Err()
}

// WriteProfiles appends molecular profiles, marking those in selected.
func (s *Store) WriteProfiles(profiles []portal.MolecularProfile, selected []string) error {
	seq, err := s.nextSeq("molecular_profiles")
	if err != nil {
		return err
	}
	return s.appendRows("molecular_profiles", len(profiles), func(i int) []driver.Value {
		p := profiles[i]
		return []driver.Value{
			seq + int64(i), p.MolecularProfileID, p.StudyID, p.Name,
			p.MolecularAlterationType, p.DatatypeName, p.GenericAssayType,
			slices.Contains(selected, p.MolecularProfileID),
		}
	})
}

// Profiles returns the stored molecular profiles in insertion order and the
// ids of the selected ones.
func (s *Store) Profiles() ([]portal.MolecularProfile, []string, error) {
	rows, err := s.db.Query(`SELECT molecular_profile_id, study_id, name, molecular_alteration_type,
		datatype, generic_assay_type, selected
		FROM molecular_profiles ORDER BY seq`)
	if err != nil {
		return nil, nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var (
		out      []portal.MolecularProfile
		selected []string
	)
	for rows.Next() {
		var p portal.MolecularProfile
		var sel bool
		if err := rows.Scan(&p.MolecularProfileID, &p.StudyID, &p.Name, &p.MolecularAlterationType,
			&p.DatatypeName, &p.GenericAssayType, &sel); err != nil {
			return nil, nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
		if sel {
			selected = append(selected, p.MolecularProfileID)
		}
	}
	return out, selected, rows.Err()
}

// WriteGenericAssayMeta inserts or replaces generic assay meta.
func (s *Store) WriteGenericAssayMeta(metas []portal.GenericAssayMeta) error {
	for _, m := range metas {
		props, err := json.Marshal(m.GenericEntityMetaProperties)
		if err != nil {
			return fmt.Errorf("encode meta properties: %w", err)
		}
		if _, err := s.db.Exec(`INSERT OR REPLACE INTO generic_assay_meta VALUES (?, ?, ?)`,
			m.StableID, m.EntityType, string(props)); err != nil {
			return fmt.Errorf("insert meta %s: %w", m.StableID, err)
		}
	}
	return nil
}

// GenericAssayMeta returns the stored generic assay meta ordered by stable
// id.
func (s *Store) GenericAssayMeta() ([]portal.GenericAssayMeta, error) {
	rows, err := s.db.Query(`SELECT stable_id, entity_type, properties FROM generic_assay_meta ORDER BY stable_id`)
	if err != nil {
		return nil, fmt.Errorf("query meta: %w", err)
	}
	defer rows.Close()

	var out []portal.GenericAssayMeta
	for rows.Next() {
		var m portal.GenericAssayMeta
		var props string
		if err := rows.Scan(&m.StableID, &m.EntityType, &props); err != nil {
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		if err := json.Unmarshal([]byte(props), &m.GenericEntityMetaProperties); err != nil {
			return nil, fmt.Errorf("decode meta properties of %s: %w", m.StableID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// WriteCoverage stores coverage information of samples. Whole-genome
// entries are stored with an empty gene symbol. Patient coverage is not
// stored.
func (s *Store) WriteCoverage(info *coverage.Information) error {
	if info == nil {
		return nil
	}

	type entry struct {
		gene     string
		profiled bool
		d        coverage.GenePanelData
	}
	var entries []entry
	for _, k := range sortedKeys(info.Samples) {
		cov := info.Samples[k]
		for _, d := range cov.AllGenes {
			entries = append(entries, entry{"", true, d})
		}
		for _, d := range cov.NotProfiledAllGenes {
			entries = append(entries, entry{"", false, d})
		}
		for _, gene := range sortedKeys(cov.ByGene) {
			for _, d := range cov.ByGene[gene] {
				entries = append(entries, entry{gene, true, d})
			}
		}
		for _, gene := range sortedKeys(cov.NotProfiledByGene) {
			for _, d := range cov.NotProfiledByGene[gene] {
				entries = append(entries, entry{gene, false, d})
			}
		}
	}

	seq, err := s.nextSeq("gene_panel_data")
	if err != nil {
		return err
	}
	return s.appendRows("gene_panel_data", len(entries), func(i int) []driver.Value {
		e := entries[i]
		return []driver.Value{
			seq + int64(i), e.d.UniqueSampleKey, e.gene, e.profiled,
			e.d.MolecularProfileID, e.d.GenePanelID, e.d.SampleID, e.d.PatientID, e.d.StudyID,
		}
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Coverage rebuilds coverage information from stored gene panel data. It
// returns nil when no coverage was stored.
func (s *Store) Coverage() (*coverage.Information, error) {
	rows, err := s.db.Query(`SELECT unique_sample_key, hugo_gene_symbol, profiled,
		molecular_profile_id, gene_panel_id, sample_id, patient_id, study_id
		FROM gene_panel_data ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query coverage: %w", err)
	}
	defer rows.Close()

	var info *coverage.Information
	for rows.Next() {
		var (
			d        coverage.GenePanelData
			gene     string
			profiled bool
		)
		if err := rows.Scan(&d.UniqueSampleKey, &gene, &profiled, &d.MolecularProfileID,
			&d.GenePanelID, &d.SampleID, &d.PatientID, &d.StudyID); err != nil {
			return nil, fmt.Errorf("scan coverage: %w", err)
		}
		d.Profiled = profiled

		if info == nil {
			info = &coverage.Information{Samples: make(map[string]coverage.CaseCoverage)}
		}
		cov := info.Samples[d.UniqueSampleKey]
		switch {
		case gene == "" && profiled:
			cov.AllGenes = append(cov.AllGenes, d)
		case gene == "":
			cov.NotProfiledAllGenes = append(cov.NotProfiledAllGenes, d)
		case profiled:
			if cov.ByGene == nil {
				cov.ByGene = make(map[string][]coverage.GenePanelData)
			}
			cov.ByGene[gene] = append(cov.ByGene[gene], d)
		default:
			if cov.NotProfiledByGene == nil {
				cov.NotProfiledByGene = make(map[string][]coverage.GenePanelData)
			}
			cov.NotProfiledByGene[gene] = append(cov.NotProfiledByGene[gene], d)
		}
		info.Samples[d.UniqueSampleKey] = cov
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coverage: %w", err)
	}
	return info, nil
}

// queryState is the parsed query of an imported bundle.
type queryState struct {
	Query                     string                            `json:"query"`
	DefaultAlterations        []string                          `json:"defaultAlterations,omitempty"`
	OQLLines                  []oql.LineFilterOutput            `json:"oqlLines"`
	Tracks                    []oql.MergedTrackLineFilterOutput `json:"tracks,omitempty"`
	SequencedSampleKeysByGene map[string][]string               `json:"sequencedSampleKeysByGene,omitempty"`
}

const queryStateKey = "query"

func (s *Store) writeQueryState(q queryState) error {
	b, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode query state: %w", err)
	}
	if _, err := s.db.Exec(`INSERT OR REPLACE INTO query_state VALUES (?, ?)`, queryStateKey, string(b)); err != nil {
		return fmt.Errorf("write query state: %w", err)
	}
	return nil
}

func (s *Store) readQueryState() (queryState, error) {
	var q queryState
	var raw string
	err := s.db.QueryRow(`SELECT value FROM query_state WHERE key = ?`, queryStateKey).Scan(&raw)
	if err != nil {
		return q, fmt.Errorf("read query state: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return q, fmt.Errorf("decode query state: %w", err)
	}
	return q, nil
}

// SaveBundle replaces the stored dataset with b. The query state is
// written last; until it is, the store holds no loadable dataset.
func (s *Store) SaveBundle(b *bundle.Bundle) error {
	if err := s.Clear(); err != nil {
		return err
	}
	if err := s.WriteSamples(b.Samples); err != nil {
		return fmt.Errorf("write samples: %w", err)
	}
	if err := s.WriteGenes(b.Genes); err != nil {
		return fmt.Errorf("write genes: %w", err)
	}
	if err := s.WriteProfiles(b.MolecularProfiles, b.SelectedProfileIDs); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	if err := s.WriteRecords(b.Alterations); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	if err := s.WriteGenericAssayData(b.GenericAssayData); err != nil {
		return fmt.Errorf("write generic assay data: %w", err)
	}
	if err := s.WriteGenericAssayMeta(b.GenericAssayMeta); err != nil {
		return err
	}
	if err := s.WriteCoverage(b.Coverage); err != nil {
		return fmt.Errorf("write coverage: %w", err)
	}
	if err := s.writeQueryState(queryState{
		Query:                     b.Query,
		DefaultAlterations:        b.DefaultAlterations,
		OQLLines:                  b.OQLLines,
		Tracks:                    b.Tracks,
		SequencedSampleKeysByGene: b.SequencedSampleKeysByGene,
	}); err != nil {
		return err
	}

	s.logger.Info("saved bundle",
		zap.Int("samples", len(b.Samples)),
		zap.Int("genes", len(b.Genes)),
		zap.Int("records", len(b.Alterations)))
	return nil
}

// LoadBundle reads the stored dataset back as a bundle.
func (s *Store) LoadBundle() (*bundle.Bundle, error) {
	var (
		b   bundle.Bundle
		err error
	)
	if b.Samples, err = s.Samples(); err != nil {
		return nil, err
	}
	if b.Genes, err = s.Genes(); err != nil {
		return nil, err
	}
	if b.MolecularProfiles, b.SelectedProfileIDs, err = s.Profiles(); err != nil {
		return nil, err
	}
	if b.Alterations, err = s.Records(); err != nil {
		return nil, err
	}
	if b.GenericAssayData, err = s.GenericAssayData(); err != nil {
		return nil, err
	}
	if b.GenericAssayMeta, err = s.GenericAssayMeta(); err != nil {
		return nil, err
	}
	if b.Coverage, err = s.Coverage(); err != nil {
		return nil, err
	}

	q, err := s.readQueryState()
	if err != nil {
		return nil, err
	}
	b.Query = q.Query
	b.DefaultAlterations = q.DefaultAlterations
	b.OQLLines = q.OQLLines
	b.Tracks = q.Tracks
	b.SequencedSampleKeysByGene = q.SequencedSampleKeysByGene
	return &b, nil
}
