package download

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/inodb/cbio-export/internal/portal"
)

// Transpose swaps rows and columns. Ragged rows are padded with empty
// cells so the result is rectangular.
func Transpose(t Table) Table {
	width := 0
	for _, row := range t {
		width = max(width, len(row))
	}
	out := make(Table, width)
	for c := range out {
		out[c] = make([]string, len(t))
		for r, row := range t {
			if c < len(row) {
				out[c][r] = row[c]
			}
		}
	}
	return out
}

// Text renders a table as tab-delimited text without a trailing newline.
func Text(t Table) string {
	lines := make([]string, len(t))
	for i, row := range t {
		lines[i] = strings.Join(row, "\t")
	}
	return strings.Join(lines, "\n")
}

// TextGroupByKey renders every table of a group.
func TextGroupByKey(tables map[string]Table) map[string]string {
	out := make(map[string]string, len(tables))
	for k, t := range tables {
		out[k] = Text(t)
	}
	return out
}

// TransposeGroupByKey transposes every table of a group.
func TransposeGroupByKey(tables map[string]Table) map[string]Table {
	out := make(map[string]Table, len(tables))
	for k, t := range tables {
		out[k] = Transpose(t)
	}
	return out
}

var profileOrder = map[string]int{
	portal.AlterationMutationExtended:  1,
	portal.AlterationCopyNumber:        2,
	portal.AlterationGenesetScore:      3,
	portal.AlterationMRNAExpression:    4,
	portal.AlterationMethylation:       5,
	portal.AlterationMethylationBinary: 6,
	portal.AlterationProteinLevel:      7,
}

// ProfileSortOrder ranks a molecular alteration type for listing profile
// downloads. Unknown types sort last.
func ProfileSortOrder(alterationType string) int {
	if o, ok := profileOrder[alterationType]; ok {
		return o
	}
	return math.MaxInt
}

// SortProfiles orders profiles by ProfileSortOrder, keeping the input order
// among equal ranks.
func SortProfiles(profiles []portal.MolecularProfile) []portal.MolecularProfile {
	out := slices.Clone(profiles)
	slices.SortStableFunc(out, func(a, b portal.MolecularProfile) int {
		return cmp.Compare(ProfileSortOrder(a.MolecularAlterationType), ProfileSortOrder(b.MolecularAlterationType))
	})
	return out
}
