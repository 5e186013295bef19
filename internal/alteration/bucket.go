// Package alteration groups per-sample alteration records into
// (entity, sample) buckets for tabular export.
package alteration

import (
	"slices"

	"github.com/inodb/cbio-export/internal/portal"
)

// ByKey maps an (entity, sample) key to the records in that bucket, in
// arrival order.
type ByKey map[string][]portal.AlterationRecord

// Filter selects the records that are kept in their bucket.
type Filter func(portal.AlterationRecord) bool

// KeyFunc derives the bucket key of a record.
type KeyFunc func(portal.AlterationRecord) string

// Key builds the bucket key of an entity (gene symbol or stable id) in a
// sample.
func Key(entity, uniqueSampleKey string) string {
	return entity + "_" + uniqueSampleKey
}

// GeneSampleKey is the default key: hugo gene symbol and unique sample key.
func GeneSampleKey(r portal.AlterationRecord) string {
	return Key(r.HugoGeneSymbol, r.UniqueSampleKey)
}

// GeneObjectSampleKey keys by the nested gene object, which is all that
// molecular data responses carry.
func GeneObjectSampleKey(r portal.AlterationRecord) string {
	return Key(r.GeneSymbol(), r.UniqueSampleKey)
}

// Bucket groups records by key. Every record's key is created even when
// filter rejects the record, so "present but filtered" buckets exist as
// empty slices. A nil filter keeps everything; a nil key uses
// GeneSampleKey. Nil data yields an empty map.
func Bucket(data *portal.CaseAggregatedData[portal.AlterationRecord], filter Filter, key KeyFunc) ByKey {
	if key == nil {
		key = GeneSampleKey
	}
	return ByKey(bucket(data, filter, key))
}

func bucket[T any](data *portal.CaseAggregatedData[T], filter func(T) bool, key func(T) string) map[string][]T {
	out := make(map[string][]T)
	if data == nil {
		return out
	}
	for _, records := range data.Samples {
		for _, r := range records {
			k := key(r)
			if _, ok := out[k]; !ok {
				out[k] = []T{}
			}
			if filter == nil || filter(r) {
				out[k] = append(out[k], r)
			}
		}
	}
	return out
}

// ofTypes returns a filter accepting the given molecular profile
// alteration types.
func ofTypes(types ...string) Filter {
	return func(r portal.AlterationRecord) bool {
		return slices.Contains(types, r.MolecularProfileAlterationType)
	}
}

// MutationData buckets mutation and fusion records.
func MutationData(data *portal.CaseAggregatedData[portal.AlterationRecord]) ByKey {
	if data == nil {
		return ByKey{}
	}
	return Bucket(data, ofTypes(portal.AlterationMutationExtended, portal.AlterationFusion), nil)
}

// StructuralVariantData buckets structural variant records.
func StructuralVariantData(data *portal.CaseAggregatedData[portal.AlterationRecord]) ByKey {
	if data == nil {
		return ByKey{}
	}
	return Bucket(data, ofTypes(portal.AlterationStructuralVariant), nil)
}

// CNAData buckets copy number alteration records.
func CNAData(data *portal.CaseAggregatedData[portal.AlterationRecord]) ByKey {
	if data == nil {
		return ByKey{}
	}
	return Bucket(data, ofTypes(portal.AlterationCopyNumber), nil)
}

// MRNAData buckets mRNA expression records.
func MRNAData(data *portal.CaseAggregatedData[portal.AlterationRecord]) ByKey {
	if data == nil {
		return ByKey{}
	}
	return Bucket(data, ofTypes(portal.AlterationMRNAExpression), nil)
}

// ProteinData buckets protein level records.
func ProteinData(data *portal.CaseAggregatedData[portal.AlterationRecord]) ByKey {
	if data == nil {
		return ByKey{}
	}
	return Bucket(data, ofTypes(portal.AlterationProteinLevel), nil)
}

// OtherProfileData buckets records of the given molecular profiles, keyed
// by the nested gene object.
func OtherProfileData(profileIDs []string, data *portal.CaseAggregatedData[portal.AlterationRecord]) ByKey {
	if data == nil {
		return ByKey{}
	}
	filter := func(r portal.AlterationRecord) bool {
		return slices.Contains(profileIDs, r.MolecularProfileID)
	}
	return Bucket(data, filter, GeneObjectSampleKey)
}

// GenericAssayByKey maps a (stable id, sample) key to generic assay data.
type GenericAssayByKey map[string][]portal.GenericAssayData

// GenericAssayData buckets generic assay data of the given profiles by
// stable id and unique sample key.
func GenericAssayData(profileIDs []string, data *portal.CaseAggregatedData[portal.GenericAssayData]) GenericAssayByKey {
	filter := func(d portal.GenericAssayData) bool {
		return slices.Contains(profileIDs, d.MolecularProfileID)
	}
	key := func(d portal.GenericAssayData) string {
		return Key(d.StableID, d.UniqueSampleKey)
	}
	return GenericAssayByKey(bucket(data, filter, key))
}
