package download

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inodb/cbio-export/internal/oql"
)

func TestSampleMatrix(t *testing.T) {
	cases := []*oql.CaseAlteration{
		{
			StudyID: "STUDY1", SampleID: "S1", Altered: true,
			OQLData: map[string]*oql.Summary{
				"TP53": {AlterationTypes: []string{oql.TagMutation}},
				"KRAS": {AlterationTypes: []string{}},
			},
		},
		{StudyID: "STUDY1", SampleID: "S2"},
	}

	got := SampleMatrix(cases, []string{"TP53", "KRAS"})

	assert.Equal(t, Table{
		{"studyID:sampleId", "Altered", "TP53", "KRAS"},
		{"STUDY1:S1", "1", "1", "0"},
		{"STUDY1:S2", "0", "0", "0"},
	}, got)
}

func TestSampleMatrix_Empty(t *testing.T) {
	assert.Equal(t, Table{{"studyID:sampleId", "Altered"}}, SampleMatrix(nil, nil))
}
