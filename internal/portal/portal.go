// Package portal defines the cBioPortal data model consumed by the exporter.
package portal

import (
	"encoding/json"
	"strings"
)

// Molecular alteration types as reported by molecular profiles.
const (
	AlterationMutationExtended  = "MUTATION_EXTENDED"
	AlterationFusion            = "FUSION"
	AlterationStructuralVariant = "STRUCTURAL_VARIANT"
	AlterationCopyNumber        = "COPY_NUMBER_ALTERATION"
	AlterationMRNAExpression    = "MRNA_EXPRESSION"
	AlterationProteinLevel      = "PROTEIN_LEVEL"
	AlterationGenesetScore      = "GENESET_SCORE"
	AlterationMethylation       = "METHYLATION"
	AlterationMethylationBinary = "METHYLATION_BINARY"
	AlterationGenericAssay      = "GENERIC_ASSAY"
)

// Sample identifies one sample of one study.
type Sample struct {
	UniqueSampleKey  string `json:"uniqueSampleKey"`
	UniquePatientKey string `json:"uniquePatientKey,omitempty"`
	SampleID         string `json:"sampleId"`
	PatientID        string `json:"patientId"`
	StudyID          string `json:"studyId"`
}

// Gene is a gene as returned by the genes endpoint.
type Gene struct {
	EntrezGeneID   int    `json:"entrezGeneId"`
	HugoGeneSymbol string `json:"hugoGeneSymbol"`
}

// MolecularProfile describes one molecular profile of a study.
type MolecularProfile struct {
	MolecularProfileID      string `json:"molecularProfileId"`
	StudyID                 string `json:"studyId"`
	Name                    string `json:"name"`
	MolecularAlterationType string `json:"molecularAlterationType"`
	DatatypeName            string `json:"datatype,omitempty"`
	GenericAssayType        string `json:"genericAssayType,omitempty"`
}

// Value is a molecular datum as delivered by the API. The API sends
// numbers for continuous data and strings for discrete data; both are
// kept in their textual form.
type Value string

// UnmarshalJSON accepts a JSON string, number, or null.
func (v *Value) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*v = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*v = Value(str)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*v = Value(n.String())
	}
	return nil
}

func (v Value) String() string { return string(v) }

// AlterationRecord is one observed molecular event for one sample, one gene
// and one molecular profile.
type AlterationRecord struct {
	UniqueSampleKey                string `json:"uniqueSampleKey"`
	SampleID                       string `json:"sampleId"`
	PatientID                      string `json:"patientId"`
	StudyID                        string `json:"studyId"`
	MolecularProfileID             string `json:"molecularProfileId"`
	MolecularProfileAlterationType string `json:"molecularProfileAlterationType"`
	HugoGeneSymbol                 string `json:"hugoGeneSymbol"`
	EntrezGeneID                   int    `json:"entrezGeneId"`
	Gene                           *Gene  `json:"gene,omitempty"`
	AlterationSubType              string `json:"alterationSubType"`
	Value                          Value  `json:"value"`
	ProteinChange                  string `json:"proteinChange,omitempty"`
	EventInfo                      string `json:"eventInfo,omitempty"`
	MutationStatus                 string `json:"mutationStatus,omitempty"`
	PutativeDriver                 bool   `json:"putativeDriver,omitempty"`
}

// GeneSymbol returns the symbol of the nested gene object when present
// (molecular data responses carry only that), else HugoGeneSymbol.
func (r AlterationRecord) GeneSymbol() string {
	if r.Gene != nil && r.Gene.HugoGeneSymbol != "" {
		return r.Gene.HugoGeneSymbol
	}
	return r.HugoGeneSymbol
}

// IsGermline reports whether the mutation status classifies the record as
// a germline mutation.
func (r AlterationRecord) IsGermline() bool {
	return strings.EqualFold(r.MutationStatus, "germline")
}

// GenericAssayData is one generic assay measurement for one sample.
type GenericAssayData struct {
	UniqueSampleKey    string `json:"uniqueSampleKey"`
	SampleID           string `json:"sampleId"`
	PatientID          string `json:"patientId"`
	StudyID            string `json:"studyId"`
	MolecularProfileID string `json:"molecularProfileId"`
	StableID           string `json:"stableId"`
	Value              Value  `json:"value"`
}

// GenericAssayMeta holds descriptive properties of a generic assay entity.
type GenericAssayMeta struct {
	StableID                    string            `json:"stableId"`
	EntityType                  string            `json:"entityType"`
	GenericEntityMetaProperties map[string]string `json:"genericEntityMetaProperties"`
}

// SampleMolecularIdentifier pairs a sample with a molecular profile in a
// molecular data request.
type SampleMolecularIdentifier struct {
	MolecularProfileID string `json:"molecularProfileId"`
	SampleID           string `json:"sampleId"`
}

// MolecularDataFilter is the body of a multi-study molecular data request.
type MolecularDataFilter struct {
	EntrezGeneIDs              []int                       `json:"entrezGeneIds"`
	SampleMolecularIdentifiers []SampleMolecularIdentifier `json:"sampleMolecularIdentifiers"`
}

// CaseAggregatedData groups per-case items by unique sample and patient key.
type CaseAggregatedData[T any] struct {
	Samples  map[string][]T
	Patients map[string][]T
}

// GroupBySample builds case aggregated data keyed by the given sample key.
// Items keep their relative order within each group.
func GroupBySample[T any](items []T, key func(T) string) CaseAggregatedData[T] {
	samples := make(map[string][]T)
	for _, item := range items {
		k := key(item)
		samples[k] = append(samples[k], item)
	}
	return CaseAggregatedData[T]{Samples: samples}
}

// IndexSamples keys samples by unique sample key.
func IndexSamples(samples []Sample) map[string]Sample {
	index := make(map[string]Sample, len(samples))
	for _, s := range samples {
		index[s.UniqueSampleKey] = s
	}
	return index
}

// IndexProfiles keys molecular profiles by id.
func IndexProfiles(profiles []MolecularProfile) map[string]MolecularProfile {
	index := make(map[string]MolecularProfile, len(profiles))
	for _, p := range profiles {
		index[p.MolecularProfileID] = p
	}
	return index
}

// ProfilesByStudyAndType indexes profiles by study id, then by alteration
// type. When a study has several profiles of one type the first one wins.
func ProfilesByStudyAndType(profiles []MolecularProfile) map[string]map[string]MolecularProfile {
	index := make(map[string]map[string]MolecularProfile)
	for _, p := range profiles {
		byType, ok := index[p.StudyID]
		if !ok {
			byType = make(map[string]MolecularProfile)
			index[p.StudyID] = byType
		}
		if _, exists := byType[p.MolecularAlterationType]; !exists {
			byType[p.MolecularAlterationType] = p
		}
	}
	return index
}

// GeneSymbols returns the hugo symbols of genes in order.
func GeneSymbols(genes []Gene) []string {
	symbols := make([]string, len(genes))
	for i, g := range genes {
		symbols[i] = g.HugoGeneSymbol
	}
	return symbols
}
