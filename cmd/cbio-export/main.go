// Package main provides the cbio-export command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// logger is replaced by the root command before any subcommand runs.
var logger = zap.NewNop()

// usageError marks errors caused by bad command-line usage.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	_ = logger.Sync()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var usage *usageError
	if errors.As(err, &usage) {
		fmt.Fprintf(stderr, "\n%s", root.UsageString())
		return ExitUsage
	}
	return ExitError
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	root := &cobra.Command{
		Use:   "cbio-export",
		Short: "Export cBioPortal query results as tab-delimited files",
		Long: `cbio-export turns the alteration records of a cBioPortal query into
per-sample download tables: mutations, structural variants, copy number,
expression, protein levels, generic assays and other molecular profiles.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfgFile); err != nil {
				return err
			}
			l, err := newLogger(verbose, viper.GetString("log.level"))
			if err != nil {
				return err
			}
			logger = l.With(zap.String("run_id", uuid.NewString()))
			return nil
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.cbio-export.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose (debug) logging")
	root.PersistentFlags().String("portal-url", "", "cBioPortal base URL")
	_ = viper.BindPFlag("portal.url", root.PersistentFlags().Lookup("portal-url"))

	root.AddCommand(newExportCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newFetchCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// usageArgs turns argument validation failures into usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

func setDefaults() {
	viper.SetDefault("portal.url", "https://www.cbioportal.org")
	viper.SetDefault("portal.timeout", "60s")
	viper.SetDefault("portal.rate_limit", 10)
	viper.SetDefault("labels.not_altered", "NA")
	viper.SetDefault("labels.not_profiled", "NP")
	viper.SetDefault("labels.wild_type", "WT")
	viper.SetDefault("log.level", "info")
}

// initConfig reads the config file, if any, and the CBIO_EXPORT_*
// environment.
func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".cbio-export")
	}
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("CBIO_EXPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func newLogger(verbose bool, level string) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}
