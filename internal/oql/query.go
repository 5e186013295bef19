package oql

import (
	"slices"
	"strings"

	"github.com/inodb/cbio-export/internal/portal"
)

// LineFilterOutput is one parsed single-gene OQL line.
type LineFilterOutput struct {
	Gene        string   `json:"gene"`
	OQLLine     string   `json:"oql_line"`
	Alterations []string `json:"alterations,omitempty"` // parsed alteration commands, e.g. MUT, AMP
}

// MergedTrackLineFilterOutput is a bracketed group of OQL lines shown as one
// track.
type MergedTrackLineFilterOutput struct {
	Label string             `json:"label,omitempty"`
	List  []LineFilterOutput `json:"list"`
}

// Genes returns the genes of the merged track in order.
func (m MergedTrackLineFilterOutput) Genes() []string {
	genes := make([]string, len(m.List))
	for i, l := range m.List {
		genes[i] = l.Gene
	}
	return genes
}

// QueriedCaseData is the filtered case data of one flattened OQL line.
type QueriedCaseData struct {
	Cases portal.CaseAggregatedData[portal.AlterationRecord]
	OQL   LineFilterOutput
}

// QueriedMergedTrackCaseData is the filtered case data of one display track.
// Merged is nil for single-gene tracks, which use OQL instead.
type QueriedMergedTrackCaseData struct {
	Cases              portal.CaseAggregatedData[portal.AlterationRecord]
	OQL                LineFilterOutput
	Merged             *MergedTrackLineFilterOutput
	MergedTrackOQLList []QueriedCaseData
}

// Genes returns the genes the track covers.
func (d QueriedMergedTrackCaseData) Genes() []string {
	if d.Merged != nil {
		return d.Merged.Genes()
	}
	return []string{d.OQL.Gene}
}

// ResultKeyer names display tracks.
type ResultKeyer interface {
	// SingleGeneKey names the single-gene track at position index of query.
	SingleGeneKey(index int, query string, line LineFilterOutput, defaultAlterations []string) string
	// MultipleGeneKey names a merged track.
	MultipleGeneKey(merged MergedTrackLineFilterOutput) string
}

// DefaultResultKeyer names single-gene tracks by gene when the line only
// uses the default alterations, and by its OQL line otherwise. Merged
// tracks use their label or their joined genes.
type DefaultResultKeyer struct{}

// SingleGeneKey implements ResultKeyer.
func (DefaultResultKeyer) SingleGeneKey(_ int, _ string, line LineFilterOutput, defaultAlterations []string) string {
	if len(line.Alterations) == 0 || slices.Equal(line.Alterations, defaultAlterations) {
		return line.Gene
	}
	key := strings.TrimSpace(line.OQLLine)
	key = strings.TrimSpace(strings.TrimSuffix(key, ";"))
	if key == "" {
		return line.Gene
	}
	return key
}

// MultipleGeneKey implements ResultKeyer.
func (DefaultResultKeyer) MultipleGeneKey(merged MergedTrackLineFilterOutput) string {
	if merged.Label != "" {
		return merged.Label
	}
	return TrackLabel(merged.Genes())
}
