package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "gridrace",
		Short: "CLI tool for the gridrace API",
		Long: `gridrace is a CLI tool for interacting with the gridrace JSON API.

It manages cars, maps and games, drives cars in running games and streams
live game events.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Output != FormatText && cfg.Output != FormatJSON {
				return fmt.Errorf("unknown format %q: use text or json", cfg.Output)
			}
			client = NewClient(cfg.ServerURL)
			client.verbose = cfg.Verbose
			client.log = cmd.ErrOrStderr()
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: GRIDRACE_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "format", "o", cfg.Output, "Output format: text, json (env: GRIDRACE_FORMAT)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Log HTTP requests to stderr")

	// Add subcommands
	rootCmd.AddCommand(newCarCmd())
	rootCmd.AddCommand(newMapCmd())
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// output returns a formatter writing to the command's stdout
func output(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout())
}
