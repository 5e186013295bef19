package download

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inodb/cbio-export/internal/alteration"
	"github.com/inodb/cbio-export/internal/genericassay"
	"github.com/inodb/cbio-export/internal/portal"
)

func assayData(sample portal.Sample, profileID, stableID, value string) portal.GenericAssayData {
	return portal.GenericAssayData{
		UniqueSampleKey: sample.UniqueSampleKey, SampleID: sample.SampleID, StudyID: sample.StudyID,
		MolecularProfileID: profileID, StableID: stableID, Value: portal.Value(value),
	}
}

func assayBuckets(profileIDs []string, items ...portal.GenericAssayData) alteration.GenericAssayByKey {
	data := portal.GroupBySample(items, func(d portal.GenericAssayData) string { return d.UniqueSampleKey })
	return alteration.GenericAssayData(profileIDs, &data)
}

func TestGenericAssayDownloadData(t *testing.T) {
	profiles := []portal.MolecularProfile{{
		MolecularProfileID: "study1_methylation", StudyID: "STUDY1",
		MolecularAlterationType: portal.AlterationGenericAssay, GenericAssayType: genericassay.TypeMethylation,
	}}
	data := assayBuckets([]string{"study1_methylation"},
		assayData(s1, "study1_methylation", "cg001", "0.81"),
		assayData(s2, "study1_methylation", "cg002", "0.12"),
	)
	meta := map[string]portal.GenericAssayMeta{
		"cg001": {StableID: "cg001", GenericEntityMetaProperties: map[string]string{"NAME": "BRCA1 promoter"}},
	}

	got := GenericAssayDownloadData(data, []portal.Sample{s1, s2, s1}, []string{"cg001", "cg002"}, meta, profiles, genericassay.DefaultConfig())

	assert.Equal(t, Table{
		{"STUDY_ID", "SAMPLE_ID", "BRCA1 promoter (cg001)", "cg002"},
		{"STUDY1", "S1", "0.81", "NA"},
		{"STUDY1", "S2", "NA", "0.12"},
	}, got)
}

func TestGenericAssayDownloadData_PlainNames(t *testing.T) {
	profiles := []portal.MolecularProfile{{MolecularProfileID: "study1_treatment_ic50", GenericAssayType: genericassay.TypeTreatmentResponse}}
	data := assayBuckets([]string{"study1_treatment_ic50"}, assayData(s1, "study1_treatment_ic50", "Erlotinib", "2.5"))
	meta := map[string]portal.GenericAssayMeta{
		"Erlotinib": {StableID: "Erlotinib", GenericEntityMetaProperties: map[string]string{"NAME": "Erlotinib HCl"}},
	}

	got := GenericAssayDownloadData(data, []portal.Sample{s1}, []string{"Erlotinib", "Missing"}, meta, profiles, genericassay.DefaultConfig())

	assert.Equal(t, []string{"STUDY_ID", "SAMPLE_ID", "Erlotinib HCl", "Missing"}, got[0])
	assert.Equal(t, []string{"STUDY1", "S1", "2.5", "NA"}, got[1])
}

func TestGenericAssayDownloadData_FilteredProfile(t *testing.T) {
	data := assayBuckets([]string{"study1_other"}, assayData(s1, "study1_methylation", "cg001", "0.81"))

	got := GenericAssayDownloadData(data, []portal.Sample{s1}, []string{"cg001"}, nil, nil, nil)

	assert.Equal(t, []string{"STUDY1", "S1", "NA"}, got[1], "bucket exists but holds no data")
}

func TestGenericAssayDownloadData_Empty(t *testing.T) {
	assert.Equal(t, Table{}, GenericAssayDownloadData(nil, []portal.Sample{s1}, []string{"cg001"}, nil, nil, nil))
	assert.Equal(t, Table{}, GenericAssayDownloadData(alteration.GenericAssayByKey{}, nil, nil, nil, nil, nil))
}
