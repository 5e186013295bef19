package oql

import (
	"strings"

	"github.com/inodb/cbio-export/internal/coverage"
	"github.com/inodb/cbio-export/internal/portal"
)

// TrackDatum is one sample's cell of a genetic track.
type TrackDatum struct {
	StudyID       string
	UID           string // unique sample key
	Sample        string
	TrackLabel    string
	Data          []portal.AlterationRecord
	ProfiledIn    []coverage.GenePanelData
	NotProfiledIn []coverage.GenePanelData
	NA            bool // not profiled in any selected profile
}

// TrackLabel joins the genes of a track.
func TrackLabel(genes []string) string {
	return strings.Join(genes, " / ")
}

// MakeGeneticTrackData builds one datum per sample for the track covering
// genes. Profiling entries are restricted to the selected profiles.
func MakeGeneticTrackData(
	cases map[string][]portal.AlterationRecord,
	genes []string,
	samples []portal.Sample,
	info *coverage.Information,
	selected []portal.MolecularProfile,
) []TrackDatum {
	profileIDs := make(map[string]bool, len(selected))
	for _, p := range selected {
		profileIDs[p.MolecularProfileID] = true
	}

	label := TrackLabel(genes)
	data := make([]TrackDatum, 0, len(samples))
	for _, s := range samples {
		profiledIn := info.ProfiledIn(s.UniqueSampleKey, genes, profileIDs)
		data = append(data, TrackDatum{
			StudyID:       s.StudyID,
			UID:           s.UniqueSampleKey,
			Sample:        s.SampleID,
			TrackLabel:    label,
			Data:          cases[s.UniqueSampleKey],
			ProfiledIn:    profiledIn,
			NotProfiledIn: info.NotProfiledIn(s.UniqueSampleKey, genes, profileIDs),
			NA:            len(profiledIn) == 0,
		})
	}
	return data
}
