package main

import (
	"fmt"
	"os"

	"github.com/artpar/plancart/config"
	"github.com/artpar/plancart/core/formatter"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	envFiles     []string
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "plancart",
	Short: "Plan selection cart and checkout front for a payments backend",
	Long: `plancart serves the plan catalog, a per-visitor selection cart and
checkout handoff in front of a payments backend.

Quick start:
  plancart serve      # Start the HTTP server
  plancart validate   # Validate configuration

Backend queries:
  plancart catalog       # Show the catalog for a country
  plancart quote         # Price a selection without a browser
  plancart subscription  # Look up a customer's subscription
  plancart transactions  # List credit and scan transactions`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(envFiles...)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "plancart.yaml", "config file path")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading config")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
}

// loadConfig reads the config file, falling back to PLANCART_* variables.
func loadConfig() (*config.Config, error) {
	return config.LoadWithFallback(cfgFile)
}

func printer() (formatter.Formatter, error) {
	return formatter.Lookup(outputFormat)
}
