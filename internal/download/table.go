// Package download assembles alteration buckets into tab-delimited download
// tables.
package download

import (
	"strings"

	"github.com/inodb/cbio-export/internal/alteration"
	"github.com/inodb/cbio-export/internal/coverage"
	"github.com/inodb/cbio-export/internal/portal"
)

// Cell labels.
const (
	NotAltered  = "NA"
	NotProfiled = "NP"
	WildType    = "WT"
)

// Fixed leading header columns.
const (
	ColStudyID  = "STUDY_ID"
	ColSampleID = "SAMPLE_ID"
)

// Table is a download table; the first row is the header.
type Table [][]string

// Row holds the formatted values of one sample, per entity.
type Row struct {
	StudyID         string
	SampleID        string
	PatientID       string
	UniqueSampleKey string
	AlterationData  map[string][]string
}

// FormatFunc joins the values of one cell.
type FormatFunc func([]string) string

// Options customizes cell rendering. An empty label cannot be rendered:
// it means NotAltered or NotProfiled. A nil Extract renders raw values and
// a nil Format joins with a single space.
type Options struct {
	Extract     alteration.ExtractFunc
	Format      FormatFunc
	NotAltered  string
	NotProfiled string
}

func (o Options) withDefaults() Options {
	if o.Extract == nil {
		o.Extract = alteration.RawValue
	}
	if o.NotAltered == "" {
		o.NotAltered = NotAltered
	}
	if o.NotProfiled == "" {
		o.NotProfiled = NotProfiled
	}
	return o
}

// GenerateDownloadFileRows collects the extracted values of every
// (sample, entity) bucket, keyed by unique sample key. Every entity gets an
// entry, empty when the bucket is missing.
func GenerateDownloadFileRows(
	data alteration.ByKey,
	entities []string,
	sampleIndex map[string]portal.Sample,
	sampleKeys []string,
	extract alteration.ExtractFunc,
) map[string]*Row {
	if extract == nil {
		extract = alteration.RawValue
	}

	rows := make(map[string]*Row, len(sampleKeys))
	for _, key := range sampleKeys {
		if _, done := rows[key]; done {
			continue
		}
		sample := sampleIndex[key]
		row := &Row{
			StudyID:         sample.StudyID,
			SampleID:        sample.SampleID,
			PatientID:       sample.PatientID,
			UniqueSampleKey: sample.UniqueSampleKey,
			AlterationData:  make(map[string][]string, len(entities)),
		}
		rows[key] = row

		for _, entity := range entities {
			values := []string{}
			for _, r := range data[alteration.Key(entity, key)] {
				values = append(values, extract(r))
			}
			row.AlterationData[entity] = values
		}
	}
	return rows
}

// GenerateDownloadData renders buckets as a table with one row per sample,
// in samples order, and one column per gene, in genes order. A cell whose
// sample is not profiled for the gene is NotProfiled whatever the bucket
// holds; a profiled cell with no values is NotAltered.
func GenerateDownloadData(
	data alteration.ByKey,
	samples []portal.Sample,
	genes []portal.Gene,
	isProfiled coverage.ProfiledFunc,
	opts Options,
) Table {
	opts = opts.withDefaults()
	if isProfiled == nil {
		isProfiled = coverage.Always
	}

	symbols := portal.GeneSymbols(genes)
	sampleKeys := make([]string, len(samples))
	for i, s := range samples {
		sampleKeys[i] = s.UniqueSampleKey
	}
	rows := GenerateDownloadFileRows(data, symbols, portal.IndexSamples(samples), sampleKeys, opts.Extract)

	table := make(Table, 0, len(samples)+1)
	table = append(table, append([]string{ColStudyID, ColSampleID}, symbols...))

	for _, key := range sampleKeys {
		row := rows[key]
		line := make([]string, 0, len(symbols)+2)
		line = append(line, row.StudyID, row.SampleID)

		for _, gene := range symbols {
			if !isProfiled(row.UniqueSampleKey, row.StudyID, gene) {
				line = append(line, opts.NotProfiled)
				continue
			}
			var value string
			if opts.Format != nil {
				value = opts.Format(row.AlterationData[gene])
			} else {
				value = strings.Join(row.AlterationData[gene], " ")
			}
			if value == "" {
				value = opts.NotAltered
			}
			line = append(line, value)
		}
		table = append(table, line)
	}
	return table
}

// Labels are the cell labels of an export. Empty fields fall back to NA,
// NP and WT; cells are never rendered empty.
type Labels struct {
	NotAltered  string
	NotProfiled string
	WildType    string
}

// DefaultLabels returns NA, NP and WT.
func DefaultLabels() Labels {
	return Labels{NotAltered: NotAltered, NotProfiled: NotProfiled, WildType: WildType}
}

// MutationOptions renders protein changes, germline mutations marked, with
// the wild type label for profiled samples without mutations.
func (l Labels) MutationOptions() Options {
	return Options{Extract: alteration.MutationValue, NotAltered: l.WildType, NotProfiled: l.NotProfiled}
}

// StructuralVariantOptions renders fusion event descriptions.
func (l Labels) StructuralVariantOptions() Options {
	return Options{Extract: alteration.StructuralVariantValue, NotAltered: l.NotAltered, NotProfiled: l.NotProfiled}
}

// ValueOptions renders raw values.
func (l Labels) ValueOptions() Options {
	return Options{NotAltered: l.NotAltered, NotProfiled: l.NotProfiled}
}

// MutationDownloadData renders protein changes, WT for profiled samples
// without mutations. Nil data yields an empty table.
func MutationDownloadData(data alteration.ByKey, samples []portal.Sample, genes []portal.Gene, isProfiled coverage.ProfiledFunc) Table {
	if data == nil {
		return Table{}
	}
	return GenerateDownloadData(data, samples, genes, isProfiled, DefaultLabels().MutationOptions())
}

// StructuralDownloadData renders fusion event descriptions. Nil data yields
// an empty table.
func StructuralDownloadData(data alteration.ByKey, samples []portal.Sample, genes []portal.Gene, isProfiled coverage.ProfiledFunc) Table {
	if data == nil {
		return Table{}
	}
	return GenerateDownloadData(data, samples, genes, isProfiled, DefaultLabels().StructuralVariantOptions())
}

// OtherProfileDownloadData renders raw values without not-profiled
// labelling. Nil data yields an empty table.
func OtherProfileDownloadData(data alteration.ByKey, samples []portal.Sample, genes []portal.Gene) Table {
	if data == nil {
		return Table{}
	}
	return GenerateDownloadData(data, samples, genes, coverage.Always, Options{})
}
