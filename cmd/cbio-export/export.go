package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/cbio-export/internal/alteration"
	"github.com/inodb/cbio-export/internal/bundle"
	"github.com/inodb/cbio-export/internal/coverage"
	"github.com/inodb/cbio-export/internal/download"
	"github.com/inodb/cbio-export/internal/duckdb"
	"github.com/inodb/cbio-export/internal/genericassay"
	"github.com/inodb/cbio-export/internal/oql"
	"github.com/inodb/cbio-export/internal/portal"
)

// Names of the fixed download files.
const (
	fileMutations          = "mutations"
	fileStructuralVariants = "structural_variants"
	fileCNA                = "cna"
	fileMRNA               = "mrna"
	fileProtein            = "protein"
	fileSampleMatrix       = "sample_matrix"
)

type exportOptions struct {
	dbPath     string
	outDir     string
	transpose  bool
	matrix     bool
	fetchMeta  bool
	bundlePath string
}

func newExportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export [bundle]",
		Short: "Write the download tables of a query",
		Long: `Write one tab-delimited file per alteration category, generic assay
profile and other molecular profile of a query. The query is read from a
JSON bundle (optionally gzipped) or, with --db, from an imported store.`,
		Example: `  cbio-export export query.json.gz --out downloads
  cbio-export export --db query.duckdb --out downloads --transpose --matrix`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.bundlePath = args[0]
			}
			return runExport(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Read the query from an imported DuckDB store")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&opts.transpose, "transpose", false, "Write genes as rows and samples as columns")
	cmd.Flags().BoolVar(&opts.matrix, "matrix", false, "Also write the sample alteration matrix")
	cmd.Flags().BoolVar(&opts.fetchMeta, "fetch-meta", false, "Fetch missing generic assay meta from the portal")

	return cmd
}

// loadQuery reads the query from a bundle file or, when dbPath is set, from
// a DuckDB store.
func loadQuery(bundlePath, dbPath string) (*bundle.Bundle, error) {
	switch {
	case bundlePath != "" && dbPath != "":
		return nil, &usageError{errors.New("give either a bundle or --db, not both")}
	case bundlePath != "":
		return bundle.Load(bundlePath)
	case dbPath != "":
		store, err := duckdb.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		store.SetLogger(logger)
		return store.LoadBundle()
	default:
		return nil, &usageError{errors.New("a bundle file or --db is required")}
	}
}

func runExport(ctx context.Context, w io.Writer, opts exportOptions) error {
	b, err := loadQuery(opts.bundlePath, opts.dbPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	e := &exporter{
		bundle:    b,
		outDir:    opts.outDir,
		transpose: opts.transpose,
		labels:    configuredLabels(),
		out:       w,
	}

	if err := e.writeAlterationTables(); err != nil {
		return err
	}
	if err := e.writeOtherProfileTables(); err != nil {
		return err
	}

	assayCfg, err := genericAssayConfig()
	if err != nil {
		return err
	}
	var metaFetcher genericAssayMetaFetcher
	if opts.fetchMeta {
		c, err := newPortalClient()
		if err != nil {
			return err
		}
		metaFetcher = c
	}
	if err := e.writeGenericAssayTables(ctx, assayCfg, metaFetcher); err != nil {
		return err
	}

	if opts.matrix {
		if err := e.writeSampleMatrix(); err != nil {
			return err
		}
	}

	logger.Info("export complete",
		zap.Int("files", e.written),
		zap.Int("samples", len(b.Samples)),
		zap.Int("genes", len(b.Genes)),
		zap.String("out", opts.outDir))
	return nil
}

type genericAssayMetaFetcher interface {
	FetchGenericAssayMeta(ctx context.Context, stableIDs []string) (map[string]portal.GenericAssayMeta, error)
}

// exporter writes the download files of one query.
type exporter struct {
	bundle    *bundle.Bundle
	outDir    string
	transpose bool
	labels    download.Labels
	out       io.Writer
	written   int
}

func (e *exporter) write(name string, t download.Table) error {
	path, err := download.WriteFile(e.outDir, fileSafeName(name), t, e.transpose)
	if err != nil {
		return err
	}
	e.written++
	fmt.Fprintln(e.out, path)
	logger.Debug("wrote download file", zap.String("path", path), zap.Int("rows", len(t)))
	return nil
}

// fileSafeName replaces path separators in profile names.
func fileSafeName(name string) string {
	return strings.NewReplacer("/", "_", string(os.PathSeparator), "_").Replace(name)
}

// writeAlterationTables writes one file per alteration category with data.
// Cells are marked not profiled using the selected profile of the
// category's alteration type.
func (e *exporter) writeAlterationTables() error {
	b := e.bundle
	caseData := b.CaseData()
	byStudy := portal.ProfilesByStudyAndType(b.SelectedProfiles())
	profiled := func(alterationType string) coverage.ProfiledFunc {
		return coverage.MakeIsSampleProfiledFunc(alterationType, byStudy, b.Coverage)
	}

	if data := alteration.MutationData(&caseData); alteration.HasValidMutationData(data) {
		t := download.GenerateDownloadData(data, b.Samples, b.Genes,
			profiled(portal.AlterationMutationExtended), e.labels.MutationOptions())
		if err := e.write(fileMutations, t); err != nil {
			return err
		}
	}

	if data := alteration.StructuralVariantData(&caseData); alteration.HasValidStructuralVariantData(data) {
		t := download.GenerateDownloadData(data, b.Samples, b.Genes,
			profiled(portal.AlterationStructuralVariant), e.labels.StructuralVariantOptions())
		if err := e.write(fileStructuralVariants, t); err != nil {
			return err
		}
	}

	values := []struct {
		name           string
		alterationType string
		data           alteration.ByKey
	}{
		{fileCNA, portal.AlterationCopyNumber, alteration.CNAData(&caseData)},
		{fileMRNA, portal.AlterationMRNAExpression, alteration.MRNAData(&caseData)},
		{fileProtein, portal.AlterationProteinLevel, alteration.ProteinData(&caseData)},
	}
	for _, v := range values {
		if !alteration.HasValidData(v.data, alteration.RawValue) {
			continue
		}
		t := download.GenerateDownloadData(v.data, b.Samples, b.Genes, profiled(v.alterationType), e.labels.ValueOptions())
		if err := e.write(v.name, t); err != nil {
			return err
		}
	}
	return nil
}

// categoryTypes are the alteration types covered by the category files.
var categoryTypes = []string{
	portal.AlterationMutationExtended,
	portal.AlterationStructuralVariant,
	portal.AlterationFusion,
	portal.AlterationCopyNumber,
	portal.AlterationMRNAExpression,
	portal.AlterationProteinLevel,
	portal.AlterationGenericAssay,
}

// writeOtherProfileTables writes one file per remaining profile with data,
// named after the profile, in profile sort order.
func (e *exporter) writeOtherProfileTables() error {
	b := e.bundle
	caseData := b.CaseData()

	for _, p := range download.SortProfiles(b.MolecularProfiles) {
		if slices.Contains(categoryTypes, p.MolecularAlterationType) {
			continue
		}
		data := alteration.OtherProfileData([]string{p.MolecularProfileID}, &caseData)
		if !alteration.HasValidData(data, alteration.RawValue) {
			continue
		}
		t := download.GenerateDownloadData(data, b.Samples, b.Genes, coverage.Always, e.labels.ValueOptions())
		if err := e.write(p.Name, t); err != nil {
			return err
		}
	}
	return nil
}

// writeGenericAssayTables writes one file per generic assay profile with
// data. Meta missing from the query is fetched when fetcher is set.
func (e *exporter) writeGenericAssayTables(ctx context.Context, cfg genericassay.Config, fetcher genericAssayMetaFetcher) error {
	b := e.bundle
	caseData := b.GenericAssayCaseData()
	meta := b.GenericAssayMetaByStableID()

	for _, p := range download.SortProfiles(b.MolecularProfiles) {
		if p.MolecularAlterationType != portal.AlterationGenericAssay {
			continue
		}
		stableIDs := profileStableIDs(b.GenericAssayData, p.MolecularProfileID)
		if len(stableIDs) == 0 {
			continue
		}

		if fetcher != nil {
			if err := fetchMissingMeta(ctx, fetcher, stableIDs, meta); err != nil {
				return err
			}
		}

		data := alteration.GenericAssayData([]string{p.MolecularProfileID}, &caseData)
		t := download.GenericAssayDownloadData(data, b.Samples, stableIDs, meta, []portal.MolecularProfile{p}, cfg)
		if err := e.write(p.Name, t); err != nil {
			return err
		}
	}
	return nil
}

// profileStableIDs returns the distinct stable ids of a profile's data in
// first-seen order.
func profileStableIDs(data []portal.GenericAssayData, profileID string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, d := range data {
		if d.MolecularProfileID != profileID || seen[d.StableID] {
			continue
		}
		seen[d.StableID] = true
		ids = append(ids, d.StableID)
	}
	return ids
}

func fetchMissingMeta(ctx context.Context, fetcher genericAssayMetaFetcher, stableIDs []string, meta map[string]portal.GenericAssayMeta) error {
	var missing []string
	for _, id := range stableIDs {
		if _, ok := meta[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	fetched, err := fetcher.FetchGenericAssayMeta(ctx, missing)
	if err != nil {
		return fmt.Errorf("fetching generic assay meta: %w", err)
	}
	for id, m := range fetched {
		meta[id] = m
	}
	logger.Debug("fetched generic assay meta", zap.Int("requested", len(missing)), zap.Int("found", len(fetched)))
	return nil
}

// writeSampleMatrix writes the sample by track alteration matrix.
func (e *exporter) writeSampleMatrix() error {
	keyer := oql.DefaultResultKeyer{}
	cases := oql.GenerateCaseAlterationData(e.bundle.CaseAlterationInput(keyer))
	if len(cases) == 0 {
		logger.Warn("no case alteration data, skipping sample matrix")
		return nil
	}
	return e.write(fileSampleMatrix, download.SampleMatrix(cases, e.bundle.TrackNames(keyer)))
}
