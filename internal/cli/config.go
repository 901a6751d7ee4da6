package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/nomina/internal/config"
)

// ConfigOptions holds flags for the config command.
type ConfigOptions struct {
	*RootOptions
	Config string
}

// ConfigCheckOutput is the JSON payload of config check.
type ConfigCheckOutput struct {
	File    string `json:"file"`
	Valid   bool   `json:"valid"`
	Version string `json:"version"`
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective valuation assumptions",
		Long: `Print the assumptions a validation run would use: the compiled-in
defaults, overlaid by --config (or $` + EnvConfig + `) and NOMINA_* environment
overrides.

Examples:
  nomina config
  nomina config --config assumptions.yaml --format json
  nomina config check assumptions.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "assumptions YAML file (default $"+EnvConfig+")")
	cmd.AddCommand(newConfigCheckCommand(rootOpts))

	return cmd
}

func newConfigCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Check an assumptions file against the schema",
		Long: `Check an assumptions file against the schema and the cross-field
rules without running any validator.

Exit codes:
  0 - File is valid
  2 - File is missing, malformed or violates the schema`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigCheck(rootOpts, args[0], cmd)
		},
	}
}

func runConfig(opts *ConfigOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadAssumptions(opts.Config)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	if formatter.JSON() {
		return formatter.Success(cfg)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, fmt.Errorf("failed to encode assumptions: %w", err))
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func runConfigCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if err := mustExist(path); err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeConfig, Message: fmt.Sprintf("failed to read %s", path), Err: err})
	}
	cfg, err := config.Parse(path, data)
	if err != nil {
		msg := err.Error()
		if config.IsSchemaError(err) {
			msg = fmt.Sprintf("%s violates the assumptions schema: %v", path, err)
		}
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeConfig, Message: msg, Err: err})
	}

	if formatter.JSON() {
		return formatter.Success(ConfigCheckOutput{File: path, Valid: true, Version: cfg.Version})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (version %s)\n", path, cfg.Version)
	return nil
}
