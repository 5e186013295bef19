package download

import (
	"strings"

	"github.com/inodb/cbio-export/internal/alteration"
	"github.com/inodb/cbio-export/internal/genericassay"
	"github.com/inodb/cbio-export/internal/portal"
)

// GenericAssayRows collects the raw values of every (sample, stable id)
// bucket, for each sample of the index.
func GenericAssayRows(data alteration.GenericAssayByKey, stableIDs []string, sampleKeys []string, sampleIndex map[string]portal.Sample) map[string]*Row {
	rows := make(map[string]*Row, len(sampleKeys))
	for _, key := range sampleKeys {
		sample := sampleIndex[key]
		row := &Row{
			StudyID:         sample.StudyID,
			SampleID:        sample.SampleID,
			PatientID:       sample.PatientID,
			UniqueSampleKey: sample.UniqueSampleKey,
			AlterationData:  make(map[string][]string, len(stableIDs)),
		}
		rows[key] = row

		for _, id := range stableIDs {
			values := []string{}
			for _, d := range data[alteration.Key(id, key)] {
				values = append(values, d.Value.String())
			}
			row.AlterationData[id] = values
		}
	}
	return rows
}

// GenericAssayDownloadData renders generic assay buckets. Headers use the
// entity NAME meta property, compacted to "name (id)" when the assay type
// of the first profile asks for it, and fall back to the stable id. Rows
// follow first-seen sample order, duplicates dropped. Empty data yields an
// empty table.
func GenericAssayDownloadData(
	data alteration.GenericAssayByKey,
	samples []portal.Sample,
	stableIDs []string,
	metaByStableID map[string]portal.GenericAssayMeta,
	profiles []portal.MolecularProfile,
	cfg genericassay.Config,
) Table {
	if len(data) == 0 {
		return Table{}
	}

	sampleIndex := make(map[string]portal.Sample, len(samples))
	var sampleKeys []string
	for _, s := range samples {
		if _, ok := sampleIndex[s.UniqueSampleKey]; !ok {
			sampleKeys = append(sampleKeys, s.UniqueSampleKey)
		}
		sampleIndex[s.UniqueSampleKey] = s
	}

	var assayType string
	if len(profiles) > 0 {
		assayType = profiles[0].GenericAssayType
	}

	rows := GenericAssayRows(data, stableIDs, sampleKeys, sampleIndex)

	header := []string{ColStudyID, ColSampleID}
	for _, id := range stableIDs {
		var meta *portal.GenericAssayMeta
		if m, ok := metaByStableID[id]; ok {
			meta = &m
		}
		header = append(header, cfg.HeaderName(assayType, id, meta))
	}

	table := Table{header}
	for _, key := range sampleKeys {
		row := rows[key]
		line := []string{row.StudyID, row.SampleID}
		for _, id := range stableIDs {
			value := strings.Join(row.AlterationData[id], " ")
			if value == "" {
				value = NotAltered
			}
			line = append(line, value)
		}
		table = append(table, line)
	}
	return table
}
