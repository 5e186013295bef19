package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/inodb/cbio-export/internal/download"
	"github.com/inodb/cbio-export/internal/genericassay"
)

const defaultConfigName = ".cbio-export.yaml"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cbio-export configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.cbio-export.yaml.",
		Example: `  cbio-export config                                  # show all config
  cbio-export config set portal.url https://genie.cbioportal.org
  cbio-export config set generic_assay.methylation.download.compact_label false
  cbio-export config get labels.not_profiled`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

func runConfigShow(w io.Writer) error {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(w, "# Config file: %s\n", used)
	} else {
		fmt.Fprintf(w, "# No config file. Defaults and environment only.\n")
	}
	fmt.Fprint(w, string(out))
	return nil
}

func runConfigSet(w io.Writer, key, value string) error {
	// Parse boolean-like values
	switch value {
	case "true", "yes", "on":
		viper.Set(key, true)
	case "false", "no", "off":
		viper.Set(key, false)
	default:
		viper.Set(key, value)
	}

	// Ensure config file exists
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, defaultConfigName)
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(w, val)
	return nil
}

// configuredLabels returns the cell labels from the labels.* keys. Labels
// set to "" fall back to their defaults.
func configuredLabels() download.Labels {
	for _, key := range []string{"labels.not_altered", "labels.not_profiled", "labels.wild_type"} {
		if viper.IsSet(key) && viper.GetString(key) == "" {
			logger.Warn("empty cell label, using default", zap.String("key", key))
		}
	}
	return download.Labels{
		NotAltered:  viper.GetString("labels.not_altered"),
		NotProfiled: viper.GetString("labels.not_profiled"),
		WildType:    viper.GetString("labels.wild_type"),
	}
}

// genericAssayConfig returns the built-in generic assay configuration with
// the generic_assay.<type> keys applied on top. Viper lower-cases keys, so
// assay types are upper-cased back.
func genericAssayConfig() (genericassay.Config, error) {
	cfg := genericassay.DefaultConfig()

	var overrides genericassay.Config
	if err := viper.UnmarshalKey("generic_assay", &overrides); err != nil {
		return nil, fmt.Errorf("generic_assay config: %w", err)
	}
	for assayType, tc := range overrides {
		cfg[strings.ToUpper(assayType)] = tc
	}
	return cfg, nil
}
