package download

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/cbio-export/internal/alteration"
	"github.com/inodb/cbio-export/internal/portal"
)

var (
	s1 = portal.Sample{UniqueSampleKey: "S1_STUDY1", SampleID: "S1", PatientID: "P1", StudyID: "STUDY1"}
	s2 = portal.Sample{UniqueSampleKey: "S2_STUDY1", SampleID: "S2", PatientID: "P2", StudyID: "STUDY1"}
	s3 = portal.Sample{UniqueSampleKey: "S3_STUDY2", SampleID: "S3", PatientID: "P3", StudyID: "STUDY2"}

	tp53 = portal.Gene{EntrezGeneID: 7157, HugoGeneSymbol: "TP53"}
	kras = portal.Gene{EntrezGeneID: 3845, HugoGeneSymbol: "KRAS"}
)

func mutation(sample portal.Sample, gene, change string) portal.AlterationRecord {
	return portal.AlterationRecord{
		UniqueSampleKey: sample.UniqueSampleKey, SampleID: sample.SampleID, StudyID: sample.StudyID,
		HugoGeneSymbol: gene, MolecularProfileAlterationType: portal.AlterationMutationExtended,
		ProteinChange: change, Value: portal.Value(change),
	}
}

func bucketOf(records ...portal.AlterationRecord) alteration.ByKey {
	data := portal.GroupBySample(records, func(r portal.AlterationRecord) string { return r.UniqueSampleKey })
	return alteration.Bucket(&data, nil, nil)
}

func TestGenerateDownloadData_SingleMutation(t *testing.T) {
	data := bucketOf(mutation(s1, "TP53", "R175H"))

	got := GenerateDownloadData(data, []portal.Sample{s1}, []portal.Gene{tp53}, nil, Options{})

	assert.Equal(t, Table{
		{"STUDY_ID", "SAMPLE_ID", "TP53"},
		{"STUDY1", "S1", "R175H"},
	}, got)
}

func TestGenerateDownloadData_NotProfiledPrecedence(t *testing.T) {
	data := bucketOf(mutation(s1, "TP53", "R175H"))
	notProfiled := func(string, string, string) bool { return false }

	got := GenerateDownloadData(data, []portal.Sample{s1}, []portal.Gene{tp53}, notProfiled, Options{})

	require.Len(t, got, 2)
	assert.Equal(t, []string{"STUDY1", "S1", NotProfiled}, got[1])
}

func TestGenerateDownloadData_NotAlteredDefault(t *testing.T) {
	got := GenerateDownloadData(alteration.ByKey{}, []portal.Sample{s1}, []portal.Gene{tp53, kras}, nil, Options{})
	assert.Equal(t, []string{"STUDY1", "S1", "NA", "NA"}, got[1])

	got = GenerateDownloadData(alteration.ByKey{}, []portal.Sample{s1}, []portal.Gene{tp53}, nil, Options{NotAltered: "-"})
	assert.Equal(t, []string{"STUDY1", "S1", "-"}, got[1])
}

func TestGenerateDownloadData_OrderFidelity(t *testing.T) {
	data := bucketOf(
		mutation(s1, "TP53", "R175H"),
		mutation(s1, "TP53", "R248Q"),
		mutation(s2, "KRAS", "G12C"),
	)
	samples := []portal.Sample{s2, s3, s1}
	genes := []portal.Gene{kras, tp53}

	got := GenerateDownloadData(data, samples, genes, nil, Options{})

	assert.Equal(t, Table{
		{"STUDY_ID", "SAMPLE_ID", "KRAS", "TP53"},
		{"STUDY1", "S2", "G12C", "NA"},
		{"STUDY2", "S3", "NA", "NA"},
		{"STUDY1", "S1", "NA", "R175H R248Q"},
	}, got)
}

func TestGenerateDownloadData_FormatAndExtract(t *testing.T) {
	data := bucketOf(mutation(s1, "TP53", "R175H"), mutation(s1, "TP53", "R248Q"))

	got := GenerateDownloadData(data, []portal.Sample{s1}, []portal.Gene{tp53}, nil, Options{
		Extract: func(r portal.AlterationRecord) string { return strings.ToLower(r.ProteinChange) },
		Format:  func(v []string) string { return strings.Join(v, ",") },
	})
	assert.Equal(t, "r175h,r248q", got[1][2])
}

func TestGenerateDownloadData_PerCellProfiling(t *testing.T) {
	isProfiled := func(sampleKey, studyID, gene string) bool {
		return studyID == "STUDY1" && gene == "TP53"
	}

	got := GenerateDownloadData(alteration.ByKey{}, []portal.Sample{s1, s3}, []portal.Gene{tp53, kras}, isProfiled, Options{})

	assert.Equal(t, []string{"STUDY1", "S1", "NA", "NP"}, got[1])
	assert.Equal(t, []string{"STUDY2", "S3", "NP", "NP"}, got[2])
}

func TestGenerateDownloadData_Idempotent(t *testing.T) {
	data := bucketOf(mutation(s1, "TP53", "R175H"), mutation(s2, "KRAS", "G12C"))
	samples := []portal.Sample{s1, s2}
	genes := []portal.Gene{tp53, kras}

	assert.Equal(t,
		GenerateDownloadData(data, samples, genes, nil, Options{}),
		GenerateDownloadData(data, samples, genes, nil, Options{}))
}

func TestGenerateDownloadFileRows(t *testing.T) {
	data := bucketOf(mutation(s1, "TP53", "R175H"))
	index := portal.IndexSamples([]portal.Sample{s1, s2})

	rows := GenerateDownloadFileRows(data, []string{"TP53", "KRAS"}, index, []string{"S1_STUDY1", "S2_STUDY1"}, nil)

	require.Len(t, rows, 2)
	assert.Equal(t, "P1", rows["S1_STUDY1"].PatientID)
	assert.Equal(t, []string{"R175H"}, rows["S1_STUDY1"].AlterationData["TP53"])
	assert.Equal(t, []string{}, rows["S1_STUDY1"].AlterationData["KRAS"])
	assert.Equal(t, []string{}, rows["S2_STUDY1"].AlterationData["TP53"])
}

func TestMutationDownloadData(t *testing.T) {
	germline := mutation(s1, "TP53", "R175H")
	germline.MutationStatus = "GERMLINE"
	data := bucketOf(germline)
	isProfiled := func(sampleKey, _, _ string) bool { return sampleKey == "S1_STUDY1" || sampleKey == "S2_STUDY1" }

	got := MutationDownloadData(data, []portal.Sample{s1, s2, s3}, []portal.Gene{tp53}, isProfiled)

	assert.Equal(t, Table{
		{"STUDY_ID", "SAMPLE_ID", "TP53"},
		{"STUDY1", "S1", "R175H [germline]"},
		{"STUDY1", "S2", "WT"},
		{"STUDY2", "S3", "NP"},
	}, got)

	assert.Equal(t, Table{}, MutationDownloadData(nil, []portal.Sample{s1}, []portal.Gene{tp53}, isProfiled))
}

func TestStructuralDownloadData(t *testing.T) {
	sv := portal.AlterationRecord{
		UniqueSampleKey: "S1_STUDY1", StudyID: "STUDY1", SampleID: "S1", HugoGeneSymbol: "ALK",
		MolecularProfileAlterationType: portal.AlterationStructuralVariant, EventInfo: "EML4-ALK",
	}
	alk := portal.Gene{EntrezGeneID: 238, HugoGeneSymbol: "ALK"}

	got := StructuralDownloadData(alteration.StructuralVariantData(&portal.CaseAggregatedData[portal.AlterationRecord]{
		Samples: map[string][]portal.AlterationRecord{"S1_STUDY1": {sv}},
	}), []portal.Sample{s1, s2}, []portal.Gene{alk}, nil)

	assert.Equal(t, []string{"STUDY1", "S1", "EML4-ALK"}, got[1])
	assert.Equal(t, []string{"STUDY1", "S2", "NA"}, got[2])
	assert.Equal(t, Table{}, StructuralDownloadData(nil, nil, nil, nil))
}

func TestOtherProfileDownloadData(t *testing.T) {
	rec := portal.AlterationRecord{
		UniqueSampleKey: "S1_STUDY1", StudyID: "STUDY1", SampleID: "S1",
		MolecularProfileID: "study1_mrna", Gene: &portal.Gene{HugoGeneSymbol: "TP53"}, Value: "1.25",
	}
	data := alteration.OtherProfileData([]string{"study1_mrna"}, &portal.CaseAggregatedData[portal.AlterationRecord]{
		Samples: map[string][]portal.AlterationRecord{"S1_STUDY1": {rec}},
	})

	got := OtherProfileDownloadData(data, []portal.Sample{s1, s3}, []portal.Gene{tp53})

	assert.Equal(t, Table{
		{"STUDY_ID", "SAMPLE_ID", "TP53"},
		{"STUDY1", "S1", "1.25"},
		{"STUDY2", "S3", "NA"},
	}, got)
	assert.Equal(t, Table{}, OtherProfileDownloadData(nil, nil, nil))
}

func TestLabels(t *testing.T) {
	labels := Labels{NotAltered: "-", NotProfiled: "n/a", WildType: "wt"}
	data := bucketOf(mutation(s1, "TP53", "R175H"))
	isProfiled := func(sampleKey, _, _ string) bool { return sampleKey != "S3_STUDY2" }
	samples := []portal.Sample{s1, s2, s3}

	muts := GenerateDownloadData(data, samples, []portal.Gene{tp53}, isProfiled, labels.MutationOptions())
	assert.Equal(t, []string{"STUDY1", "S2", "wt"}, muts[2])
	assert.Equal(t, []string{"STUDY2", "S3", "n/a"}, muts[3])

	values := GenerateDownloadData(data, samples, []portal.Gene{tp53}, isProfiled, labels.ValueOptions())
	assert.Equal(t, []string{"STUDY1", "S2", "-"}, values[2])

	// empty labels fall back to the defaults
	defaults := GenerateDownloadData(data, samples, []portal.Gene{tp53}, isProfiled, Labels{}.StructuralVariantOptions())
	assert.Equal(t, []string{"STUDY1", "S1", "NA"}, defaults[1])
	assert.Equal(t, []string{"STUDY2", "S3", "NP"}, defaults[3])
}

func TestGenerateDownloadData_EmptyInputs(t *testing.T) {
	data := bucketOf(mutation(s1, "TP53", "R175H"))

	noSamples := GenerateDownloadData(data, nil, []portal.Gene{tp53}, nil, Options{})
	assert.Equal(t, Table{{"STUDY_ID", "SAMPLE_ID", "TP53"}}, noSamples)

	noGenes := GenerateDownloadData(data, []portal.Sample{s1}, nil, nil, Options{})
	assert.Equal(t, Table{{"STUDY_ID", "SAMPLE_ID"}, {"STUDY1", "S1"}}, noGenes)
}

func TestGenerateDownloadData_ValueVersusProteinChange(t *testing.T) {
	record := portal.AlterationRecord{
		UniqueSampleKey: "S1_STUDY1", SampleID: "S1", StudyID: "STUDY1", HugoGeneSymbol: "TP53",
		MolecularProfileAlterationType: portal.AlterationMutationExtended,
		Value: "MISSENSE", ProteinChange: "R175H",
	}
	data := bucketOf(record)
	samples, genes := []portal.Sample{s1}, []portal.Gene{tp53}

	raw := GenerateDownloadData(data, samples, genes, nil, Options{})
	assert.Equal(t, []string{"STUDY1", "S1", "MISSENSE"}, raw[1])

	muts := MutationDownloadData(data, samples, genes, nil)
	assert.Equal(t, Table{
		{"STUDY_ID", "SAMPLE_ID", "TP53"},
		{"STUDY1", "S1", "R175H"},
	}, muts)
}
