package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/artpar/plancart/app"
	"github.com/artpar/plancart/core/formatter"
	"github.com/artpar/plancart/domain/cart"
	"github.com/spf13/cobra"
)

var (
	quoteCountry  string
	quoteDuration int
	quoteTrials   bool
	quoteEmail    string
)

var quoteCmd = &cobra.Command{
	Use:   "quote PRODUCT[:PRICE_ID]...",
	Short: "Price a selection of products",
	Long: `Select products from the catalog and print the cart total.
A product without a price ID is toggled at its first option.

With --checkout-email the selection is handed to the payment provider and
the resulting client secret or redirect URL is printed.

Examples:
  plancart quote basic:basic_3m topup_100
  plancart quote --country gb pro --checkout-email jane@example.com`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	addKeyFlags(quoteCmd, &quoteCountry, &quoteDuration, &quoteTrials)
	quoteCmd.Flags().StringVar(&quoteEmail, "checkout-email", "", "create a checkout session for this email")
}

// parseSelection splits "product:price" arguments.
func parseSelection(arg string) (productID, priceID string) {
	productID, priceID, _ = strings.Cut(arg, ":")
	return strings.TrimSpace(productID), strings.TrimSpace(priceID)
}

func runQuote(cmd *cobra.Command, args []string) error {
	out, err := printer()
	if err != nil {
		return err
	}
	_, svc, closeFn, err := setup()
	if err != nil {
		return err
	}
	defer closeFn()

	id, view, err := loadView(cmd, svc, quoteCountry, quoteDuration, quoteTrials)
	if err != nil {
		return err
	}

	for _, arg := range args {
		productID, priceID := parseSelection(arg)
		if priceID != "" {
			view, err = svc.ChooseTier(id, productID, priceID)
		} else {
			view, err = svc.Toggle(id, productID)
		}
		if err != nil {
			return fmt.Errorf("select %s: %w", arg, err)
		}
	}

	w := cmd.OutOrStdout()
	ds := selectionDataset(view)
	if outputFormat == "table" {
		if err := out.FormatList(w, ds, formatter.FormatOptions{}); err != nil {
			return err
		}
		kind := "one-time"
		if view.Subscription {
			kind = "subscription"
		}
		fmt.Fprintf(w, "\nTotal: %s (%s)\n", view.TotalDisplay, kind)
	} else {
		summary := formatter.Dataset{Kind: "quote"}
		rec := map[string]any{
			"country":         view.Country,
			"currency":        view.Currency,
			"total":           view.Total,
			"total_display":   view.TotalDisplay,
			"is_subscription": view.Subscription,
			"selections":      ds.Records,
		}
		if err := out.FormatRecord(w, summary, rec, formatter.FormatOptions{}); err != nil {
			return err
		}
	}

	if quoteEmail == "" {
		return nil
	}
	sess, err := svc.Checkout(context.Background(), id, cart.Contact{Email: quoteEmail, CountryCode: view.Country})
	if err != nil {
		return err
	}
	if sess.Embedded() {
		fmt.Fprintf(w, "Client secret: %s\n", sess.ClientSecret)
	} else {
		fmt.Fprintf(w, "Checkout URL: %s\n", sess.RedirectURL)
	}
	return nil
}

func selectionDataset(view app.View) formatter.Dataset {
	ds := formatter.Dataset{
		Kind:    "selections",
		Columns: []string{"product", "price_id", "amount", "credits"},
	}
	for _, s := range view.Selections {
		ds.Records = append(ds.Records, map[string]any{
			"product":  s.ProductID,
			"price_id": s.PriceID,
			"amount":   s.Amount,
			"credits":  s.Credits,
		})
	}
	return ds
}
