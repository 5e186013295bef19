// Package oql aggregates OQL-filtered alteration data into per-case
// summaries for the download tab.
package oql

import (
	"strings"

	"github.com/inodb/cbio-export/internal/portal"
)

// Alteration type tags recorded in Summary.AlterationTypes.
const (
	TagMutation   = "MUT"
	TagFusion     = "FUSION"
	TagCNA        = "CNA"
	TagExpression = "EXP"
	TagProtein    = "PROT"
)

// SubAlteration is a CNA, expression or protein level entry.
type SubAlteration struct {
	Type           string       `json:"type"`
	Value          portal.Value `json:"value"`
	PutativeDriver bool         `json:"putativeDriver,omitempty"`
}

// MutationEntry is a mutation entry.
type MutationEntry struct {
	ProteinChange  string `json:"proteinChange"`
	IsGermline     bool   `json:"isGermline"`
	PutativeDriver bool   `json:"putativeDriver"`
}

// Summary holds the alterations of one gene or track in one case, plus the
// per-category not-profiled flags.
type Summary struct {
	Sequenced         bool            `json:"sequenced"`
	GeneSymbol        string          `json:"geneSymbol"`
	Mutation          []MutationEntry `json:"mutation"`
	StructuralVariant []string        `json:"structuralVariant"`
	CNA               []SubAlteration `json:"cna"`
	MRNAExp           []SubAlteration `json:"mrnaExp"`
	ProteinLevel      []SubAlteration `json:"proteinLevel"`
	AlterationTypes   []string        `json:"alterationTypes"`

	IsMutationNotProfiled          bool `json:"isMutationNotProfiled"`
	IsStructuralVariantNotProfiled bool `json:"isStructuralVariantNotProfiled"`
	IsCNANotProfiled               bool `json:"isCnaNotProfiled"`
	IsMRNAExpNotProfiled           bool `json:"isMrnaExpNotProfiled"`
	IsProteinLevelNotProfiled      bool `json:"isProteinLevelNotProfiled"`
}

// GenerateSummary classifies the alterations of a track datum. CNA,
// expression and protein entries need a non-empty sub-type. The datum is
// considered sequenced unless gene stats exist for its label and report
// zero sequenced samples. Not-profiled flags start false; call
// UpdateSummary to finalize them.
func GenerateSummary(datum TrackDatum, geneStats map[string]GeneAlteration) *Summary {
	s := &Summary{
		Sequenced:         true,
		GeneSymbol:        datum.TrackLabel,
		Mutation:          []MutationEntry{},
		StructuralVariant: []string{},
		CNA:               []SubAlteration{},
		MRNAExp:           []SubAlteration{},
		ProteinLevel:      []SubAlteration{},
		AlterationTypes:   []string{},
	}

	for _, a := range datum.Data {
		subType := strings.ToUpper(a.AlterationSubType)
		switch a.MolecularProfileAlterationType {
		case portal.AlterationCopyNumber:
			if subType != "" {
				s.CNA = append(s.CNA, SubAlteration{Type: subType, Value: a.Value, PutativeDriver: a.PutativeDriver})
				s.AlterationTypes = append(s.AlterationTypes, TagCNA)
			}
		case portal.AlterationMRNAExpression:
			if subType != "" {
				s.MRNAExp = append(s.MRNAExp, SubAlteration{Type: subType, Value: a.Value})
				s.AlterationTypes = append(s.AlterationTypes, TagExpression)
			}
		case portal.AlterationProteinLevel:
			if subType != "" {
				s.ProteinLevel = append(s.ProteinLevel, SubAlteration{Type: subType, Value: a.Value})
				s.AlterationTypes = append(s.AlterationTypes, TagProtein)
			}
		case portal.AlterationMutationExtended:
			s.Mutation = append(s.Mutation, MutationEntry{
				ProteinChange:  a.ProteinChange,
				IsGermline:     a.IsGermline(),
				PutativeDriver: a.PutativeDriver,
			})
			s.AlterationTypes = append(s.AlterationTypes, TagMutation)
		case portal.AlterationStructuralVariant:
			s.StructuralVariant = append(s.StructuralVariant, a.EventInfo)
			s.AlterationTypes = append(s.AlterationTypes, TagFusion)
		}
	}

	if stats, ok := geneStats[datum.TrackLabel]; ok {
		s.Sequenced = stats.Sequenced > 0
	}
	return s
}

// UpdateSummary sets the not-profiled flags of s from the profiles the datum
// was profiled in and returns s. A flag stays true unless a profile of its
// category is found. Mutation profiling also counts as structural variant
// profiling. Profiles missing from the lookup are skipped, so a nil lookup
// leaves every flag true.
func UpdateSummary(datum TrackDatum, s *Summary, profiles map[string]portal.MolecularProfile) *Summary {
	mutationNP := true
	structuralVariantNP := true
	cnaNP := true
	mrnaNP := true
	proteinNP := true

	for _, p := range datum.ProfiledIn {
		profile, ok := profiles[p.MolecularProfileID]
		if !ok {
			continue
		}
		switch profile.MolecularAlterationType {
		case portal.AlterationCopyNumber:
			cnaNP = false
		case portal.AlterationMRNAExpression:
			mrnaNP = false
		case portal.AlterationProteinLevel:
			proteinNP = false
		case portal.AlterationMutationExtended:
			mutationNP = false
			fallthrough
		case portal.AlterationStructuralVariant:
			structuralVariantNP = false
		}
	}

	s.IsMutationNotProfiled = mutationNP
	s.IsStructuralVariantNotProfiled = structuralVariantNP
	s.IsCNANotProfiled = cnaNP
	s.IsMRNAExpNotProfiled = mrnaNP
	s.IsProteinLevelNotProfiled = proteinNP
	return s
}

// Merge folds right into left and returns a new summary. Scalar fields
// come from right. Slices merge position by position: right's element wins
// where both have one and left's remaining tail is kept.
func Merge(left, right *Summary) *Summary {
	if left == nil && right == nil {
		return nil
	}
	if left == nil {
		left = &Summary{}
	}
	if right == nil {
		right = left
	}

	return &Summary{
		Sequenced:         right.Sequenced,
		GeneSymbol:        right.GeneSymbol,
		Mutation:          mergeSlice(left.Mutation, right.Mutation),
		StructuralVariant: mergeSlice(left.StructuralVariant, right.StructuralVariant),
		CNA:               mergeSlice(left.CNA, right.CNA),
		MRNAExp:           mergeSlice(left.MRNAExp, right.MRNAExp),
		ProteinLevel:      mergeSlice(left.ProteinLevel, right.ProteinLevel),
		AlterationTypes:   mergeSlice(left.AlterationTypes, right.AlterationTypes),

		IsMutationNotProfiled:          right.IsMutationNotProfiled,
		IsStructuralVariantNotProfiled: right.IsStructuralVariantNotProfiled,
		IsCNANotProfiled:               right.IsCNANotProfiled,
		IsMRNAExpNotProfiled:           right.IsMRNAExpNotProfiled,
		IsProteinLevelNotProfiled:      right.IsProteinLevelNotProfiled,
	}
}

func mergeSlice[T any](left, right []T) []T {
	out := make([]T, max(len(left), len(right)))
	copy(out, left)
	copy(out, right)
	return out
}

// Altered reports whether the summary holds any alteration.
func (s *Summary) Altered() bool {
	return s != nil && len(s.AlterationTypes) > 0
}
