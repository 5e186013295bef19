package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/cbio-export/internal/portal"
)

func testInformation() *Information {
	return &Information{
		Samples: map[string]CaseCoverage{
			"S1_STUDY1": {
				AllGenes: []GenePanelData{
					{MolecularProfileID: "study1_mutations", UniqueSampleKey: "S1_STUDY1", Profiled: true},
				},
				ByGene: map[string][]GenePanelData{
					"TP53": {{MolecularProfileID: "study1_gistic", GenePanelID: "IMPACT341", Profiled: true}},
				},
				NotProfiledByGene: map[string][]GenePanelData{
					"KRAS": {{MolecularProfileID: "study1_gistic", GenePanelID: "IMPACT341"}},
				},
			},
		},
	}
}

func TestIsSampleProfiled(t *testing.T) {
	info := testInformation()

	tests := []struct {
		name    string
		sample  string
		profile string
		gene    string
		want    bool
	}{
		{"whole exome covers any gene", "S1_STUDY1", "study1_mutations", "KRAS", true},
		{"panel covers listed gene", "S1_STUDY1", "study1_gistic", "TP53", true},
		{"panel does not cover other gene", "S1_STUDY1", "study1_gistic", "KRAS", false},
		{"unknown profile", "S1_STUDY1", "study1_mrna", "TP53", false},
		{"unknown sample", "S2_STUDY1", "study1_mutations", "TP53", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, info.IsSampleProfiled(tt.sample, tt.profile, tt.gene))
		})
	}
}

func TestIsSampleProfiled_NilInformation(t *testing.T) {
	var info *Information
	assert.False(t, info.IsSampleProfiled("S1_STUDY1", "study1_mutations", "TP53"))
	assert.Nil(t, info.ProfiledIn("S1_STUDY1", []string{"TP53"}, nil))
}

func TestProfiledIn(t *testing.T) {
	info := testInformation()

	got := info.ProfiledIn("S1_STUDY1", []string{"TP53", "KRAS"}, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "study1_gistic", got[0].MolecularProfileID)
	assert.Equal(t, "study1_mutations", got[1].MolecularProfileID)

	got = info.ProfiledIn("S1_STUDY1", []string{"TP53"}, map[string]bool{"study1_mutations": true})
	require.Len(t, got, 1)
	assert.Equal(t, "study1_mutations", got[0].MolecularProfileID)

	notProfiled := info.NotProfiledIn("S1_STUDY1", []string{"KRAS"}, nil)
	require.Len(t, notProfiled, 1)
	assert.Equal(t, "study1_gistic", notProfiled[0].MolecularProfileID)
}

func TestMakeIsSampleProfiledFunc(t *testing.T) {
	profiles := portal.ProfilesByStudyAndType([]portal.MolecularProfile{
		{MolecularProfileID: "study1_mutations", StudyID: "STUDY1", MolecularAlterationType: portal.AlterationMutationExtended},
	})
	fn := MakeIsSampleProfiledFunc(portal.AlterationMutationExtended, profiles, testInformation())

	assert.True(t, fn("S1_STUDY1", "STUDY1", "TP53"))
	assert.False(t, fn("S1_STUDY1", "STUDY2", "TP53"), "study without profile")

	cnaFn := MakeIsSampleProfiledFunc(portal.AlterationCopyNumber, profiles, testInformation())
	assert.False(t, cnaFn("S1_STUDY1", "STUDY1", "TP53"), "no CNA profile for study")
}
