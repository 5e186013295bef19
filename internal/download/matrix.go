package download

import "github.com/inodb/cbio-export/internal/oql"

// SampleMatrix renders case rows as a sample by track 0/1 matrix. The
// header is "studyID:sampleId", "Altered", then trackNames; a track cell is
// 1 when the case has any alteration type for that track.
func SampleMatrix(cases []*oql.CaseAlteration, trackNames []string) Table {
	header := append([]string{"studyID:sampleId", "Altered"}, trackNames...)
	table := Table{header}

	for _, c := range cases {
		row := make([]string, 0, len(trackNames)+2)
		row = append(row, c.StudyID+":"+c.SampleID, flag(c.Altered))
		for _, name := range trackNames {
			s := c.OQLData[name]
			row = append(row, flag(s != nil && len(s.AlterationTypes) > 0))
		}
		table = append(table, row)
	}
	return table
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
