package main

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/cbio-export/internal/bundle"
	"github.com/inodb/cbio-export/internal/duckdb"
)

func newImportCmd() *cobra.Command {
	var (
		dbPath string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "import <bundle>",
		Short: "Import a query bundle into a DuckDB store",
		Long: `Import a JSON query bundle into a DuckDB store, replacing the dataset it
holds. The import is skipped when the store already holds the unchanged
bundle, unless --force is given.`,
		Example: `  cbio-export import query.json.gz --db query.duckdb`,
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.OutOrStdout(), args[0], dbPath, force)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "cbio-export.duckdb", "DuckDB store path")
	cmd.Flags().BoolVar(&force, "force", false, "Import even if the bundle is unchanged")

	return cmd
}

func runImport(w io.Writer, bundlePath, dbPath string, force bool) error {
	fp, err := duckdb.StatFile(bundlePath)
	if err != nil {
		return fmt.Errorf("bundle: %w", err)
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	store.SetLogger(logger)

	if !force {
		current, err := store.Current(fp)
		if err != nil {
			return err
		}
		if current {
			logger.Info("bundle unchanged, skipping import", zap.String("bundle", bundlePath))
			fmt.Fprintf(w, "%s is up to date\n", dbPath)
			return nil
		}
	}

	b, err := bundle.Load(bundlePath)
	if err != nil {
		return err
	}
	if err := store.SaveBundle(b); err != nil {
		return err
	}

	runID := uuid.NewString()
	if err := store.RecordImport(runID, fp); err != nil {
		return err
	}

	counts, err := store.CountRecords()
	if err != nil {
		return err
	}
	logger.Info("imported bundle",
		zap.String("bundle", bundlePath),
		zap.String("db", dbPath),
		zap.String("import_id", runID),
		zap.Any("records_by_profile", counts))
	fmt.Fprintf(w, "Imported %d samples, %d alteration records into %s\n", len(b.Samples), len(b.Alterations), dbPath)
	return nil
}
