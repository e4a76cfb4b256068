package main

import (
	"context"
	"fmt"

	"github.com/artpar/plancart/app"
	"github.com/artpar/plancart/core/formatter"
	"github.com/artpar/plancart/domain/catalog"
	"github.com/spf13/cobra"
)

var (
	catalogCountry  string
	catalogDuration int
	catalogTrials   bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the plan catalog for a country",
	Long: `Fetch the catalog from the backend and list every price option.

Examples:
  plancart catalog
  plancart catalog --country de --duration 12 --trials
  plancart catalog -o json`,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	addKeyFlags(catalogCmd, &catalogCountry, &catalogDuration, &catalogTrials)
}

func addKeyFlags(cmd *cobra.Command, country *string, duration *int, trials *bool) {
	cmd.Flags().StringVar(country, "country", "", "ISO country code (default from config)")
	cmd.Flags().IntVar(duration, "duration", 0, "billing duration in months (default from config)")
	cmd.Flags().BoolVar(trials, "trials", false, "include trial products")
}

// loadView resolves the key from flags and loads it into a fresh session.
func loadView(cmd *cobra.Command, svc *app.PlansService, country string, duration int, trials bool) (string, app.View, error) {
	key := svc.ResolveKey(catalog.Key{
		Country:       country,
		Duration:      duration,
		IncludeTrials: trials,
	}, cmd.Flags().Changed("trials"))

	id := svc.Open("")
	res, err := svc.LoadCatalog(context.Background(), id, key)
	if err != nil {
		return "", app.View{}, err
	}
	return id, res.View, nil
}

func runCatalog(cmd *cobra.Command, args []string) error {
	out, err := printer()
	if err != nil {
		return err
	}
	_, svc, closeFn, err := setup()
	if err != nil {
		return err
	}
	defer closeFn()

	_, view, err := loadView(cmd, svc, catalogCountry, catalogDuration, catalogTrials)
	if err != nil {
		return err
	}

	ds := formatter.Dataset{
		Kind:    "products",
		Columns: []string{"product", "kind", "price_id", "price", "billing", "credits"},
	}
	for _, p := range view.Products {
		for _, o := range p.Options {
			ds.Records = append(ds.Records, map[string]any{
				"product":  p.ID,
				"name":     p.Name,
				"kind":     string(p.Kind),
				"price_id": o.PriceID,
				"price":    o.Display,
				"amount":   o.Amount,
				"billing":  o.Billing,
				"credits":  o.CreditsDisplay,
			})
		}
	}

	if outputFormat == "table" {
		fmt.Fprintf(cmd.OutOrStdout(), "Catalog %s (%s)\n\n", view.Country, view.Currency)
	}
	return out.FormatList(cmd.OutOrStdout(), ds, formatter.FormatOptions{})
}
