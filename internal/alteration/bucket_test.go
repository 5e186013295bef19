package alteration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/cbio-export/internal/portal"
)

func testCaseData() *portal.CaseAggregatedData[portal.AlterationRecord] {
	records := []portal.AlterationRecord{
		{UniqueSampleKey: "S1_STUDY1", HugoGeneSymbol: "TP53", MolecularProfileID: "study1_mutations",
			MolecularProfileAlterationType: portal.AlterationMutationExtended, ProteinChange: "R175H"},
		{UniqueSampleKey: "S1_STUDY1", HugoGeneSymbol: "TP53", MolecularProfileID: "study1_mutations",
			MolecularProfileAlterationType: portal.AlterationMutationExtended, ProteinChange: "R248Q"},
		{UniqueSampleKey: "S1_STUDY1", HugoGeneSymbol: "EGFR", MolecularProfileID: "study1_gistic",
			MolecularProfileAlterationType: portal.AlterationCopyNumber, Value: "2", AlterationSubType: "amp"},
		{UniqueSampleKey: "S2_STUDY1", HugoGeneSymbol: "ALK", MolecularProfileID: "study1_sv",
			MolecularProfileAlterationType: portal.AlterationStructuralVariant, EventInfo: "EML4-ALK"},
		{UniqueSampleKey: "S2_STUDY1", HugoGeneSymbol: "KRAS", MolecularProfileID: "study1_mrna",
			MolecularProfileAlterationType: portal.AlterationMRNAExpression, Value: "2.31", AlterationSubType: "high"},
		{UniqueSampleKey: "S2_STUDY1", HugoGeneSymbol: "KRAS", MolecularProfileID: "study1_rppa",
			MolecularProfileAlterationType: portal.AlterationProteinLevel, Value: "-2.1", AlterationSubType: "low"},
	}
	data := portal.GroupBySample(records, func(r portal.AlterationRecord) string { return r.UniqueSampleKey })
	return &data
}

func TestBucket_EveryRecordInOneBucket(t *testing.T) {
	data := testCaseData()
	buckets := Bucket(data, nil, nil)

	total := 0
	for _, records := range buckets {
		total += len(records)
	}
	assert.Equal(t, 6, total)
	assert.Len(t, buckets, 4)

	tp53 := buckets["TP53_S1_STUDY1"]
	require.Len(t, tp53, 2)
	assert.Equal(t, "R175H", tp53[0].ProteinChange, "arrival order kept")
	assert.Equal(t, "R248Q", tp53[1].ProteinChange)
}

func TestBucket_FilteredKeysExistEmpty(t *testing.T) {
	buckets := MutationData(testCaseData())

	require.Contains(t, buckets, "EGFR_S1_STUDY1")
	assert.Empty(t, buckets["EGFR_S1_STUDY1"])
	require.Contains(t, buckets, "KRAS_S2_STUDY1")
	assert.Empty(t, buckets["KRAS_S2_STUDY1"])
	assert.Len(t, buckets["TP53_S1_STUDY1"], 2)
}

func TestBucket_NilAndEmptyInput(t *testing.T) {
	assert.Empty(t, Bucket(nil, nil, nil))
	assert.Empty(t, Bucket(&portal.CaseAggregatedData[portal.AlterationRecord]{}, nil, nil))
	assert.NotNil(t, MutationData(nil))
	assert.Empty(t, CNAData(nil))
	assert.Empty(t, GenericAssayData([]string{"p"}, nil))
}

func TestBucket_CustomKey(t *testing.T) {
	byProfile := func(r portal.AlterationRecord) string { return Key(r.MolecularProfileID, r.UniqueSampleKey) }
	buckets := Bucket(testCaseData(), nil, byProfile)

	assert.Len(t, buckets["study1_mutations_S1_STUDY1"], 2)
	assert.Len(t, buckets["study1_rppa_S2_STUDY1"], 1)
}

func TestCategoryBuilders(t *testing.T) {
	data := testCaseData()

	tests := []struct {
		name  string
		build func(*portal.CaseAggregatedData[portal.AlterationRecord]) ByKey
		key   string
		want  int
	}{
		{"cna", CNAData, "EGFR_S1_STUDY1", 1},
		{"mrna", MRNAData, "KRAS_S2_STUDY1", 1},
		{"protein", ProteinData, "KRAS_S2_STUDY1", 1},
		{"structural variant", StructuralVariantData, "ALK_S2_STUDY1", 1},
		{"structural variant skips mutations", StructuralVariantData, "TP53_S1_STUDY1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := tt.build(data)
			require.Contains(t, buckets, tt.key)
			assert.Len(t, buckets[tt.key], tt.want)
		})
	}
}

func TestOtherProfileData_KeysByNestedGene(t *testing.T) {
	records := []portal.AlterationRecord{
		{UniqueSampleKey: "S1_STUDY1", MolecularProfileID: "study1_methylation", Value: "0.82",
			Gene: &portal.Gene{EntrezGeneID: 7157, HugoGeneSymbol: "TP53"}},
		{UniqueSampleKey: "S1_STUDY1", MolecularProfileID: "study1_other", Value: "1",
			Gene: &portal.Gene{EntrezGeneID: 7157, HugoGeneSymbol: "TP53"}},
	}
	data := portal.GroupBySample(records, func(r portal.AlterationRecord) string { return r.UniqueSampleKey })

	buckets := OtherProfileData([]string{"study1_methylation"}, &data)
	require.Len(t, buckets["TP53_S1_STUDY1"], 1)
	assert.Equal(t, portal.Value("0.82"), buckets["TP53_S1_STUDY1"][0].Value)
}

func TestGenericAssayData(t *testing.T) {
	items := []portal.GenericAssayData{
		{UniqueSampleKey: "S1_STUDY1", StableID: "Erlotinib", MolecularProfileID: "study1_treatment_ic50", Value: "0.5"},
		{UniqueSampleKey: "S1_STUDY1", StableID: "Erlotinib", MolecularProfileID: "study1_treatment_auc", Value: "3.2"},
	}
	data := portal.GroupBySample(items, func(d portal.GenericAssayData) string { return d.UniqueSampleKey })

	buckets := GenericAssayData([]string{"study1_treatment_ic50"}, &data)
	require.Len(t, buckets["Erlotinib_S1_STUDY1"], 1)
	assert.Equal(t, portal.Value("0.5"), buckets["Erlotinib_S1_STUDY1"][0].Value)
}

func TestHasValidData(t *testing.T) {
	data := MutationData(testCaseData())
	assert.True(t, HasValidMutationData(data))
	assert.False(t, HasValidStructuralVariantData(data))
	assert.True(t, HasValidStructuralVariantData(StructuralVariantData(testCaseData())))

	empty := ByKey{"TP53_S1": {{HugoGeneSymbol: "TP53"}}}
	assert.False(t, HasValidData(empty, nil))
	assert.False(t, HasValidData(nil, nil))
}

func TestHasValidData_NumericZero(t *testing.T) {
	neutral := ByKey{
		"TP53_S1": {{HugoGeneSymbol: "TP53", Value: "0"}},
		"KRAS_S1": {{HugoGeneSymbol: "KRAS", Value: "0.0"}},
	}
	assert.False(t, HasValidData(neutral, nil))

	neutral["KRAS_S2"] = []portal.AlterationRecord{{HugoGeneSymbol: "KRAS", Value: "-2"}}
	assert.True(t, HasValidData(neutral, nil))

	assert.True(t, HasValidData(ByKey{"TP53_S1": {{Value: "Amplified"}}}, nil))
}

func TestMutationValue(t *testing.T) {
	assert.Equal(t, "R175H", MutationValue(portal.AlterationRecord{ProteinChange: "R175H", MutationStatus: "Somatic"}))
	assert.Equal(t, "R175H [germline]", MutationValue(portal.AlterationRecord{ProteinChange: "R175H", MutationStatus: "Germline"}))
}
