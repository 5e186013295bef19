// Package bundle reads export bundles: the samples, genes, profiles,
// alteration records, coverage and parsed OQL query of one results view,
// serialized as JSON.
package bundle

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/inodb/cbio-export/internal/coverage"
	"github.com/inodb/cbio-export/internal/oql"
	"github.com/inodb/cbio-export/internal/portal"
)

// Bundle is the input of an export. Alteration records are expected to be
// already filtered by the OQL query.
type Bundle struct {
	Samples           []portal.Sample           `json:"samples"`
	Genes             []portal.Gene             `json:"genes"`
	MolecularProfiles []portal.MolecularProfile `json:"molecularProfiles"`
	// SelectedProfileIDs restricts the profiles the query ran against;
	// empty selects every profile.
	SelectedProfileIDs []string                  `json:"selectedMolecularProfileIds,omitempty"`
	Alterations        []portal.AlterationRecord `json:"alterations"`
	GenericAssayData   []portal.GenericAssayData `json:"genericAssayData,omitempty"`
	GenericAssayMeta   []portal.GenericAssayMeta `json:"genericAssayMeta,omitempty"`
	Coverage           *coverage.Information     `json:"coverage,omitempty"`

	Query              string                 `json:"query"`
	DefaultAlterations []string               `json:"defaultAlterations,omitempty"`
	OQLLines           []oql.LineFilterOutput `json:"oqlLines"`
	// Tracks are the display tracks. A track with a label or several lines
	// is a merged track; otherwise it is the single-gene track of its line.
	// Empty means one single-gene track per OQL line.
	Tracks                    []oql.MergedTrackLineFilterOutput `json:"tracks,omitempty"`
	SequencedSampleKeysByGene map[string][]string               `json:"sequencedSampleKeysByGene,omitempty"`
}

// Load reads a bundle from a JSON file, gzipped or not.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	b, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", path, err)
	}
	return b, nil
}

// Decode reads a bundle, transparently decompressing gzip input.
func Decode(r io.Reader) (*Bundle, error) {
	br := bufio.NewReader(r)

	// Check for gzip magic number (0x1f, 0x8b)
	var in io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		in = gz
	}

	var b Bundle
	if err := json.NewDecoder(in).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b, nil
}

// Save writes the bundle as JSON.
func (b *Bundle) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return f.Close()
}

// SelectedProfiles returns the profiles the query ran against, in profile
// order.
func (b *Bundle) SelectedProfiles() []portal.MolecularProfile {
	if len(b.SelectedProfileIDs) == 0 {
		return b.MolecularProfiles
	}
	var out []portal.MolecularProfile
	for _, p := range b.MolecularProfiles {
		if slices.Contains(b.SelectedProfileIDs, p.MolecularProfileID) {
			out = append(out, p)
		}
	}
	return out
}

// CaseData groups all alteration records by sample and by patient.
func (b *Bundle) CaseData() portal.CaseAggregatedData[portal.AlterationRecord] {
	return b.caseData(func(portal.AlterationRecord) bool { return true })
}

func (b *Bundle) caseData(keep func(portal.AlterationRecord) bool) portal.CaseAggregatedData[portal.AlterationRecord] {
	index := portal.IndexSamples(b.Samples)
	data := portal.CaseAggregatedData[portal.AlterationRecord]{
		Samples:  make(map[string][]portal.AlterationRecord),
		Patients: make(map[string][]portal.AlterationRecord),
	}
	for _, r := range b.Alterations {
		if !keep(r) {
			continue
		}
		data.Samples[r.UniqueSampleKey] = append(data.Samples[r.UniqueSampleKey], r)
		if s, ok := index[r.UniqueSampleKey]; ok && s.UniquePatientKey != "" {
			data.Patients[s.UniquePatientKey] = append(data.Patients[s.UniquePatientKey], r)
		}
	}
	return data
}

// GenericAssayCaseData groups generic assay data by sample.
func (b *Bundle) GenericAssayCaseData() portal.CaseAggregatedData[portal.GenericAssayData] {
	return portal.GroupBySample(b.GenericAssayData, func(d portal.GenericAssayData) string { return d.UniqueSampleKey })
}

// GenericAssayMetaByStableID indexes generic assay meta by stable id.
func (b *Bundle) GenericAssayMetaByStableID() map[string]portal.GenericAssayMeta {
	out := make(map[string]portal.GenericAssayMeta, len(b.GenericAssayMeta))
	for _, m := range b.GenericAssayMeta {
		out[m.StableID] = m
	}
	return out
}

// casesOfGenes returns the records of the given genes.
func (b *Bundle) casesOfGenes(genes []string) portal.CaseAggregatedData[portal.AlterationRecord] {
	return b.caseData(func(r portal.AlterationRecord) bool {
		return slices.Contains(genes, r.GeneSymbol())
	})
}

// QueriedCaseData returns the case data of every flattened OQL line.
func (b *Bundle) QueriedCaseData() []oql.QueriedCaseData {
	out := make([]oql.QueriedCaseData, len(b.OQLLines))
	for i, line := range b.OQLLines {
		out[i] = oql.QueriedCaseData{Cases: b.casesOfGenes([]string{line.Gene}), OQL: line}
	}
	return out
}

// QueriedMergedTrackCaseData returns the case data of every display track.
func (b *Bundle) QueriedMergedTrackCaseData() []oql.QueriedMergedTrackCaseData {
	if len(b.Tracks) == 0 {
		out := make([]oql.QueriedMergedTrackCaseData, len(b.OQLLines))
		for i, line := range b.OQLLines {
			out[i] = oql.QueriedMergedTrackCaseData{Cases: b.casesOfGenes([]string{line.Gene}), OQL: line}
		}
		return out
	}

	out := make([]oql.QueriedMergedTrackCaseData, 0, len(b.Tracks))
	for _, track := range b.Tracks {
		if track.Label == "" && len(track.List) == 1 {
			line := track.List[0]
			out = append(out, oql.QueriedMergedTrackCaseData{Cases: b.casesOfGenes([]string{line.Gene}), OQL: line})
			continue
		}
		merged := track
		lines := make([]oql.QueriedCaseData, len(track.List))
		for i, line := range track.List {
			lines[i] = oql.QueriedCaseData{Cases: b.casesOfGenes([]string{line.Gene}), OQL: line}
		}
		out = append(out, oql.QueriedMergedTrackCaseData{
			Cases:              b.casesOfGenes(track.Genes()),
			Merged:             &merged,
			MergedTrackOQLList: lines,
		})
	}
	return out
}

// TrackNames returns the display name of every track, in order.
func (b *Bundle) TrackNames(keyer oql.ResultKeyer) []string {
	if keyer == nil {
		keyer = oql.DefaultResultKeyer{}
	}
	tracks := b.QueriedMergedTrackCaseData()
	names := make([]string, len(tracks))
	for i, t := range tracks {
		if t.Merged == nil {
			names[i] = keyer.SingleGeneKey(i, b.Query, t.OQL, b.DefaultAlterations)
		} else {
			names[i] = keyer.MultipleGeneKey(*t.Merged)
		}
	}
	return names
}

// GeneAlterations computes the altered and sequenced counts of every OQL
// line.
func (b *Bundle) GeneAlterations() []oql.GeneAlteration {
	return oql.GenerateGeneAlterationData(b.QueriedCaseData(), b.SequencedSampleKeysByGene)
}

// CaseAlterationInput assembles the input of the case alteration table.
func (b *Bundle) CaseAlterationInput(keyer oql.ResultKeyer) oql.CaseAlterationInput {
	return oql.CaseAlterationInput{
		Query:              b.Query,
		DefaultAlterations: b.DefaultAlterations,
		SelectedProfiles:   b.SelectedProfiles(),
		ByOQLLine:          b.QueriedCaseData(),
		ByTrack:            b.QueriedMergedTrackCaseData(),
		Coverage:           b.Coverage,
		Samples:            b.Samples,
		GeneStats:          oql.GeneAlterationsByGene(b.GeneAlterations()),
		Profiles:           portal.IndexProfiles(b.MolecularProfiles),
		Keyer:              keyer,
	}
}
