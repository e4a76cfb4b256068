package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/artpar/plancart/adapters/remote"
	"github.com/artpar/plancart/config"
	"github.com/artpar/plancart/domain/catalog"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the plancart configuration file.

Checks:
  - YAML syntax is valid
  - Required fields are present
  - Backend serves a catalog for the default country (optional)

Examples:
  plancart validate
  plancart validate --config /etc/plancart/config.yaml --check-backend`,
	RunE: runValidate,
}

var (
	validateCheckBackend bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckBackend, "check-backend", false, "fetch the default catalog from the backend")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	fmt.Fprintf(out, "  %s Backend: %s\n", checkMark, cfg.Backend.URL)
	fmt.Fprintf(out, "  %s Payments provider: %s\n", checkMark, cfg.Payments.Provider)
	fmt.Fprintf(out, "  %s Default catalog: %s\n", checkMark, defaultKey(cfg))
	fmt.Fprintf(out, "  %s Session TTL: %s\n", checkMark, cfg.Sessions.TTL)

	if validateCheckBackend {
		if n, err := checkBackend(cfg); err != nil {
			fmt.Fprintf(out, "  %s Backend catalog\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Backend catalog (%d products)\n", checkMark, n)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func defaultKey(cfg *config.Config) catalog.Key {
	return catalog.Key{
		Country:       cfg.Catalog.DefaultCountry,
		Duration:      cfg.Catalog.DefaultDuration,
		IncludeTrials: cfg.Catalog.IncludeTrials,
	}
}

func checkBackend(cfg *config.Config) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := remote.NewCatalogProvider(newBackendClient(cfg)).FetchCatalog(ctx, defaultKey(cfg))
	if err != nil {
		return 0, err
	}
	return c.Len(), nil
}

func newBackendClient(cfg *config.Config) *remote.Client {
	return remote.NewClient(remote.ClientConfig{
		BaseURL: cfg.Backend.URL,
		APIKey:  cfg.Backend.APIKey,
		Timeout: cfg.Backend.Timeout,
		Headers: cfg.Backend.Headers,
	})
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
