// Package cli implements the duck-agent command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"duck-agent/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// rootOptions carries flag values shared by the subcommands, resolved with
// precedence flag > env > profile > default.
type rootOptions struct {
	dataPath string
	output   string
	profile  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "duck-agent",
		Short:         "Natural-language query agent for gas pipeline data",
		Long:          "duck-agent answers natural-language questions over a parquet dataset by compiling them to DuckDB SQL or dispatching analytics routines.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Load config from profile if flags/env not set
			cfg, err := LoadUserConfig()
			if err != nil {
				// Config file is optional
				cfg = &UserConfig{
					CurrentProfile: "default",
					Profiles:       map[string]Profile{},
				}
			}

			p := cfg.ActiveProfile(opts.profile)

			if !cmd.Flags().Changed("path") {
				if v := os.Getenv("DUCK_AGENT_DATA"); v != "" {
					opts.dataPath = v
				} else if p.DataPath != "" {
					opts.dataPath = p.DataPath
				}
			}
			if !cmd.Flags().Changed("output") {
				if p.Output != "" {
					opts.output = p.Output
				}
			}
			if p.Model != "" && os.Getenv("OPENAI_MODEL") == "" {
				_ = os.Setenv("OPENAI_MODEL", p.Model)
			}

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.dataPath, "path", "", "Path to the parquet dataset (defaults to ./data)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&opts.profile, "profile", "p", "", "Config profile to use")

	rootCmd.AddCommand(newAskCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig layers the resolved CLI options over the environment config.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	_ = config.LoadDotEnv(".env")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if opts.dataPath != "" {
		cfg.DatasetPath = opts.dataPath
	}
	return cfg, nil
}
