// Package coverage answers whether a sample was profiled for a gene under a
// molecular profile.
package coverage

import "github.com/inodb/cbio-export/internal/portal"

// GenePanelData records that a sample was assayed under a molecular profile,
// optionally with a gene panel.
type GenePanelData struct {
	MolecularProfileID string `json:"molecularProfileId"`
	GenePanelID        string `json:"genePanelId,omitempty"`
	UniqueSampleKey    string `json:"uniqueSampleKey"`
	SampleID           string `json:"sampleId"`
	PatientID          string `json:"patientId"`
	StudyID            string `json:"studyId"`
	Profiled           bool   `json:"profiled"`
}

// CaseCoverage holds the profiling entries of one case. ByGene covers
// panel-restricted profiles; AllGenes covers whole-genome/exome profiles.
type CaseCoverage struct {
	ByGene              map[string][]GenePanelData `json:"byGene"`
	AllGenes            []GenePanelData            `json:"allGenes"`
	NotProfiledByGene   map[string][]GenePanelData `json:"notProfiledByGene"`
	NotProfiledAllGenes []GenePanelData            `json:"notProfiledAllGenes"`
}

// Information is the read-only coverage oracle, keyed by unique sample and
// patient key.
type Information struct {
	Samples  map[string]CaseCoverage `json:"samples"`
	Patients map[string]CaseCoverage `json:"patients"`
}

// ProfiledFunc reports whether a sample is profiled for a gene.
type ProfiledFunc func(uniqueSampleKey, studyID, hugoGeneSymbol string) bool

// IsSampleProfiled reports whether the sample was profiled for the gene
// under the given molecular profile. Unknown samples are not profiled.
func (c *Information) IsSampleProfiled(uniqueSampleKey, molecularProfileID, hugoGeneSymbol string) bool {
	if c == nil {
		return false
	}
	cov, ok := c.Samples[uniqueSampleKey]
	if !ok {
		return false
	}
	for _, d := range cov.AllGenes {
		if d.MolecularProfileID == molecularProfileID {
			return true
		}
	}
	for _, d := range cov.ByGene[hugoGeneSymbol] {
		if d.MolecularProfileID == molecularProfileID {
			return true
		}
	}
	return false
}

// ProfiledIn returns the entries under which the sample was profiled for any
// of the genes, restricted to the given profile ids (nil means no
// restriction). Each profile appears once, in first-seen order.
func (c *Information) ProfiledIn(uniqueSampleKey string, genes []string, profileIDs map[string]bool) []GenePanelData {
	if c == nil {
		return nil
	}
	cov, ok := c.Samples[uniqueSampleKey]
	if !ok {
		return nil
	}
	return collect(cov.ByGene, cov.AllGenes, genes, profileIDs)
}

// NotProfiledIn is the counterpart of ProfiledIn for not-profiled entries.
func (c *Information) NotProfiledIn(uniqueSampleKey string, genes []string, profileIDs map[string]bool) []GenePanelData {
	if c == nil {
		return nil
	}
	cov, ok := c.Samples[uniqueSampleKey]
	if !ok {
		return nil
	}
	return collect(cov.NotProfiledByGene, cov.NotProfiledAllGenes, genes, profileIDs)
}

func collect(byGene map[string][]GenePanelData, allGenes []GenePanelData, genes []string, profileIDs map[string]bool) []GenePanelData {
	var out []GenePanelData
	seen := make(map[string]bool)
	add := func(d GenePanelData) {
		if profileIDs != nil && !profileIDs[d.MolecularProfileID] {
			return
		}
		if seen[d.MolecularProfileID] {
			return
		}
		seen[d.MolecularProfileID] = true
		out = append(out, d)
	}
	for _, g := range genes {
		for _, d := range byGene[g] {
			add(d)
		}
	}
	for _, d := range allGenes {
		add(d)
	}
	return out
}

// MakeIsSampleProfiledFunc returns a ProfiledFunc that checks coverage under
// the study's profile of the given alteration type. Studies without such a
// profile are never profiled.
func MakeIsSampleProfiledFunc(
	alterationType string,
	profilesByStudy map[string]map[string]portal.MolecularProfile,
	info *Information,
) ProfiledFunc {
	return func(uniqueSampleKey, studyID, hugoGeneSymbol string) bool {
		profile, ok := profilesByStudy[studyID][alterationType]
		if !ok {
			return false
		}
		return info.IsSampleProfiled(uniqueSampleKey, profile.MolecularProfileID, hugoGeneSymbol)
	}
}

// Always is a ProfiledFunc that treats every cell as profiled.
func Always(string, string, string) bool { return true }
