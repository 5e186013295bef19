package alteration

import (
	"strconv"

	"github.com/inodb/cbio-export/internal/portal"
)

// ExtractFunc renders one record as a cell value.
type ExtractFunc func(portal.AlterationRecord) string

// RawValue renders the record's raw value.
func RawValue(r portal.AlterationRecord) string {
	return r.Value.String()
}

// MutationValue renders the protein change, marking germline mutations.
func MutationValue(r portal.AlterationRecord) string {
	if r.IsGermline() {
		return r.ProteinChange + " [germline]"
	}
	return r.ProteinChange
}

// StructuralVariantValue renders the fusion event description.
func StructuralVariantValue(r portal.AlterationRecord) string {
	return r.EventInfo
}

// HasValidData reports whether at least one record yields a valid value:
// non-empty and not numerically zero. A nil extract uses RawValue.
func HasValidData(data ByKey, extract ExtractFunc) bool {
	if extract == nil {
		extract = RawValue
	}
	for _, records := range data {
		for _, r := range records {
			if validValue(extract(r)) {
				return true
			}
		}
	}
	return false
}

// validValue rejects empty values and numeric zeros such as a neutral
// copy number call.
func validValue(v string) bool {
	if v == "" {
		return false
	}
	f, err := strconv.ParseFloat(v, 64)
	return err != nil || f != 0
}

// HasValidMutationData reports whether any mutation has a protein change.
func HasValidMutationData(data ByKey) bool {
	return HasValidData(data, MutationValue)
}

// HasValidStructuralVariantData reports whether any structural variant has
// an event description.
func HasValidStructuralVariantData(data ByKey) bool {
	return HasValidData(data, StructuralVariantValue)
}
