package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/cbio-export/internal/client"
	"github.com/inodb/cbio-export/internal/download"
	"github.com/inodb/cbio-export/internal/portal"
)

type fetchOptions struct {
	dbPath     string
	outDir     string
	name       string
	profileIDs []string
	transpose  bool
	bundlePath string
}

func newFetchCmd() *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch [bundle]",
		Short: "Download molecular profiles that are not part of a query",
		Long: `Fetch the molecular data of the given profiles for the samples and genes
of a query from the portal, and write them as one tab-delimited file.`,
		Example: `  cbio-export fetch query.json --profile study1_mrna --out downloads
  cbio-export fetch --db query.duckdb --profile study1_rppa --profile study2_rppa --name rppa`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.bundlePath = args[0]
			}
			return runFetch(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Read the query from an imported DuckDB store")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "Output directory")
	cmd.Flags().StringVar(&opts.name, "name", "", "File name (default: name of the first profile)")
	cmd.Flags().StringArrayVarP(&opts.profileIDs, "profile", "p", nil, "Molecular profile id (repeatable)")
	cmd.Flags().BoolVar(&opts.transpose, "transpose", false, "Write genes as rows and samples as columns")

	return cmd
}

// newPortalClient builds a REST client from the portal.* config keys.
func newPortalClient() (*client.Client, error) {
	c, err := client.New(client.Config{
		BaseURL:   viper.GetString("portal.url"),
		Timeout:   viper.GetDuration("portal.timeout"),
		RateLimit: viper.GetFloat64("portal.rate_limit"),
	})
	if err != nil {
		return nil, err
	}
	c.SetLogger(logger)
	return c, nil
}

func runFetch(ctx context.Context, w io.Writer, opts fetchOptions) error {
	if len(opts.profileIDs) == 0 {
		return &usageError{errors.New("at least one --profile is required")}
	}

	b, err := loadQuery(opts.bundlePath, opts.dbPath)
	if err != nil {
		return err
	}

	index := portal.IndexProfiles(b.MolecularProfiles)
	profiles := make([]portal.MolecularProfile, 0, len(opts.profileIDs))
	for _, id := range opts.profileIDs {
		p, ok := index[id]
		if !ok {
			return fmt.Errorf("unknown molecular profile %q", id)
		}
		profiles = append(profiles, p)
	}

	name := opts.name
	if name == "" {
		name = profiles[0].Name
	}

	c, err := newPortalClient()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	path, err := download.DownloadOtherMolecularProfileData(ctx, c, opts.outDir, fileSafeName(name), profiles, b.Samples, b.Genes, opts.transpose)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, path)
	logger.Info("fetched molecular profiles",
		zap.Strings("profiles", opts.profileIDs),
		zap.String("path", path))
	return nil
}
