package download

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/cbio-export/internal/portal"
)

var sampleTable = Table{
	{"STUDY_ID", "SAMPLE_ID", "TP53"},
	{"STUDY1", "S1", "R175H"},
	{"STUDY1", "S2", "WT"},
}

func TestTranspose(t *testing.T) {
	assert.Equal(t, Table{
		{"STUDY_ID", "STUDY1", "STUDY1"},
		{"SAMPLE_ID", "S1", "S2"},
		{"TP53", "R175H", "WT"},
	}, Transpose(sampleTable))

	assert.Equal(t, sampleTable, Transpose(Transpose(sampleTable)))
	assert.Empty(t, Transpose(nil))
}

func TestTranspose_Ragged(t *testing.T) {
	got := Transpose(Table{{"a", "b", "c"}, {"d"}})
	assert.Equal(t, Table{{"a", "d"}, {"b", ""}, {"c", ""}}, got)
}

func TestText(t *testing.T) {
	assert.Equal(t, "STUDY_ID\tSAMPLE_ID\tTP53\nSTUDY1\tS1\tR175H\nSTUDY1\tS2\tWT", Text(sampleTable))
	assert.Equal(t, "", Text(nil))
}

func TestGroupByKey(t *testing.T) {
	group := map[string]Table{"mutations": sampleTable, "empty": {}}

	text := TextGroupByKey(group)
	assert.Equal(t, Text(sampleTable), text["mutations"])
	assert.Equal(t, "", text["empty"])

	transposed := TransposeGroupByKey(group)
	assert.Equal(t, Transpose(sampleTable), transposed["mutations"])
}

func TestProfileSortOrder(t *testing.T) {
	tests := []struct {
		alterationType string
		want           int
	}{
		{portal.AlterationMutationExtended, 1},
		{portal.AlterationCopyNumber, 2},
		{portal.AlterationGenesetScore, 3},
		{portal.AlterationMRNAExpression, 4},
		{portal.AlterationMethylation, 5},
		{portal.AlterationMethylationBinary, 6},
		{portal.AlterationProteinLevel, 7},
		{portal.AlterationGenericAssay, math.MaxInt},
		{"", math.MaxInt},
	}
	for _, tt := range tests {
		t.Run(tt.alterationType, func(t *testing.T) {
			assert.Equal(t, tt.want, ProfileSortOrder(tt.alterationType))
		})
	}
}

func TestSortProfiles(t *testing.T) {
	in := []portal.MolecularProfile{
		{MolecularProfileID: "rppa", MolecularAlterationType: portal.AlterationProteinLevel},
		{MolecularProfileID: "ga1", MolecularAlterationType: portal.AlterationGenericAssay},
		{MolecularProfileID: "mut", MolecularAlterationType: portal.AlterationMutationExtended},
		{MolecularProfileID: "ga2", MolecularAlterationType: portal.AlterationGenericAssay},
		{MolecularProfileID: "cna", MolecularAlterationType: portal.AlterationCopyNumber},
	}

	var ids []string
	for _, p := range SortProfiles(in) {
		ids = append(ids, p.MolecularProfileID)
	}
	assert.Equal(t, []string{"mut", "cna", "rppa", "ga1", "ga2"}, ids)
	assert.Equal(t, "rppa", in[0].MolecularProfileID, "input untouched")
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteTable(sampleTable))
	require.NoError(t, w.Flush())

	assert.Equal(t, Text(sampleTable), buf.String())
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteFile(dir, "mRNA expression", sampleTable, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mRNA expression.txt"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Text(sampleTable), string(b))

	path, err = WriteFile(dir, "transposed", sampleTable, true)
	require.NoError(t, err)
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Text(Transpose(sampleTable)), string(b))
}

func TestWriteFile_BadDir(t *testing.T) {
	_, err := WriteFile(filepath.Join(t.TempDir(), "missing"), "x", sampleTable, false)
	assert.Error(t, err)
}
