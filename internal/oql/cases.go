package oql

import (
	"github.com/inodb/cbio-export/internal/coverage"
	"github.com/inodb/cbio-export/internal/portal"
)

// CaseAlteration is one (study, sample) row of the case alteration table.
type CaseAlteration struct {
	StudyID   string `json:"studyId"`
	SampleID  string `json:"sampleId"`
	PatientID string `json:"patientId"`
	Altered   bool   `json:"altered"`
	// OQLData is keyed by display track name.
	OQLData map[string]*Summary `json:"oqlData"`
	// OQLDataByGene is keyed by gene of the flattened OQL lines.
	OQLDataByGene map[string]*Summary `json:"oqlDataByGene"`
}

// CaseAlterationInput holds the inputs of GenerateCaseAlterationData.
type CaseAlterationInput struct {
	Query              string
	DefaultAlterations []string // nil when the query has no default alterations
	SelectedProfiles   []portal.MolecularProfile
	ByOQLLine          []QueriedCaseData
	ByTrack            []QueriedMergedTrackCaseData
	Coverage           *coverage.Information
	Samples            []portal.Sample
	GeneStats          map[string]GeneAlteration
	Profiles           map[string]portal.MolecularProfile
	Keyer              ResultKeyer // DefaultResultKeyer when nil
}

// GenerateCaseAlterationData builds one row per (study, sample) touched by
// any OQL line or track, in first-seen order. Without coverage information
// nothing is aggregated.
func GenerateCaseAlterationData(in CaseAlterationInput) []*CaseAlteration {
	if in.Coverage == nil {
		return []*CaseAlteration{}
	}
	keyer := in.Keyer
	if keyer == nil {
		keyer = DefaultResultKeyer{}
	}

	t := newCaseTable(portal.IndexSamples(in.Samples))

	for _, data := range in.ByOQLLine {
		gene := data.OQL.Gene
		track := MakeGeneticTrackData(data.Cases.Samples, []string{gene}, in.Samples, in.Coverage, in.SelectedProfiles)
		for _, datum := range track {
			row := t.initialize(datum)
			generated := GenerateSummary(datum, in.GeneStats)
			if existing, ok := row.OQLDataByGene[gene]; ok {
				row.OQLDataByGene[gene] = Merge(generated, existing)
			} else {
				row.OQLDataByGene[gene] = generated
			}
			UpdateSummary(datum, row.OQLDataByGene[gene], in.Profiles)
		}
	}

	for index, data := range in.ByTrack {
		var trackName string
		if data.Merged == nil {
			trackName = keyer.SingleGeneKey(index, in.Query, data.OQL, in.DefaultAlterations)
		} else {
			trackName = keyer.MultipleGeneKey(*data.Merged)
		}
		track := MakeGeneticTrackData(data.Cases.Samples, data.Genes(), in.Samples, in.Coverage, in.SelectedProfiles)
		for _, datum := range track {
			row := t.initialize(datum)
			row.OQLData[trackName] = UpdateSummary(datum, GenerateSummary(datum, in.GeneStats), in.Profiles)
		}
	}

	return t.rows
}

type caseTable struct {
	index map[string]portal.Sample
	byKey map[string]*CaseAlteration
	rows  []*CaseAlteration
}

func newCaseTable(index map[string]portal.Sample) *caseTable {
	return &caseTable{
		index: index,
		byKey: make(map[string]*CaseAlteration),
		rows:  []*CaseAlteration{},
	}
}

// initialize returns the row of the datum's case, creating it on first
// sight. Altered only ever flips from false to true.
func (t *caseTable) initialize(datum TrackDatum) *CaseAlteration {
	key := datum.StudyID + ":" + datum.UID
	row, ok := t.byKey[key]
	if !ok {
		sample, known := t.index[datum.UID]
		sampleID := datum.Sample
		if sampleID == "" && known {
			sampleID = sample.SampleID
		}
		row = &CaseAlteration{
			StudyID:       datum.StudyID,
			SampleID:      sampleID,
			PatientID:     sample.PatientID,
			OQLData:       make(map[string]*Summary),
			OQLDataByGene: make(map[string]*Summary),
		}
		t.byKey[key] = row
		t.rows = append(t.rows, row)
	}
	row.Altered = row.Altered || len(datum.Data) > 0
	return row
}
