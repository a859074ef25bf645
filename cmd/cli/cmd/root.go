// Package cmd provides the CLI commands for tokengraph.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tokengraph/adapters/storage"
	"tokengraph/core/engine"
	"tokengraph/internal/config"
	"tokengraph/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tokengraph",
	Short: "Manage token-metered graph models",
	Long: `tokengraph manages weighted graph models billed in tokens.

Models are created from HCL definition files, executed as shortest-path
queries, and updated through an approval workflow.

Examples:
  tokengraph create --owner alice@example.com citygrid.hcl
  tokengraph execute --user alice@example.com --model citygrid --start 0 --goal 3
  tokengraph refill --admin root@example.com --owner alice@example.com --balance 20`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tokengraph.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(refillCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	// Initialize logging
	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// newEngine builds an engine over the configured storage backend
func newEngine(ctx context.Context) (*engine.Engine, storage.Store, error) {
	cfg := config.Get()
	store, err := storage.Open(ctx, cfg.Storage.Backend, cfg.Storage.DSN)
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.New(store, cfg.Billing.SmoothingAlpha)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return eng, store, nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tokengraph version 1.0.0")
	},
}
